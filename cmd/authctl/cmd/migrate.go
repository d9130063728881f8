package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	auth "github.com/goliatone/go-cms-auth"
	"github.com/goliatone/go-cms-auth/internal/dbx"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the auth tables",
	Long:  `Applies pending auth migrations with locking to prevent concurrent runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbx.Close(db)

		migrator := migrate.NewMigrator(db, auth.Migrations)

		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize migrator: %w", err)
		}

		if err := migrator.Lock(ctx); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		defer func() {
			if err := migrator.Unlock(ctx); err != nil {
				logger.Warn("failed to release migration lock", zap.Error(err))
			}
		}()

		group, err := migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		if group.IsZero() {
			logger.Info("no new migrations to apply")
		} else {
			logger.Info("applied migration group", zap.Int64("group_id", group.ID))
		}

		return nil
	},
}
