package auth

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds the schema migrations for the auth tables.
var Migrations = migrate.NewMigrations()

func init() {
	Migrations.Add(migrate.Migration{
		Name:    "20250101000000",
		Comment: "auth_schema",
		Up:      upAuthSchema,
		Down:    downAuthSchema,
	})
}

type schemaIndex struct {
	name    string
	model   any
	columns []string
	unique  bool
}

var authIndexes = []schemaIndex{
	{name: "idx_users_email", model: (*User)(nil), columns: []string{"email"}, unique: true},
	{name: "idx_auth_sessions_expires_at", model: (*SessionRecord)(nil), columns: []string{"expires_at"}},
	{name: "idx_auth_sessions_identity_id", model: (*SessionRecord)(nil), columns: []string{"identity_id"}},
	{name: "idx_auth_activity_identity_created", model: (*ActivityEntry)(nil), columns: []string{"identity_id", "created_at"}},
}

// CreateSchema creates the users, auth_sessions and auth_activity tables
// and their indexes. It is safe to run more than once.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*User)(nil),
		(*SessionRecord)(nil),
		(*ActivityEntry)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	for _, idx := range authIndexes {
		q := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// DropSchema removes the auth tables.
func DropSchema(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*ActivityEntry)(nil),
		(*SessionRecord)(nil),
		(*User)(nil),
	}

	for _, model := range models {
		if _, err := db.NewDropTable().
			Model(model).
			IfExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", model, err)
		}
	}
	return nil
}

func upAuthSchema(ctx context.Context, db *bun.DB) error {
	return CreateSchema(ctx, db)
}

func downAuthSchema(ctx context.Context, db *bun.DB) error {
	return DropSchema(ctx, db)
}
