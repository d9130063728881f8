package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	auth "github.com/goliatone/go-cms-auth"
	"github.com/goliatone/go-cms-auth/config"
	"github.com/goliatone/go-cms-auth/internal/dbx"
	"github.com/goliatone/go-cms-auth/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	envFile  string
	dbURL    string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "authctl",
	Short: "Operational tooling for the CMS authentication core",
	Long: `authctl manages the auth schema, expired sessions, login rate limits
and the activity trail of the CMS authentication core.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if dbURL != "" {
			cfg.Database.URL = dbURL
		}
		if logLevel != "" {
			cfg.Logger.Level = logLevel
		}

		logger, err = logging.New(logging.Config{
			Level:    cfg.Logger.Level,
			Encoding: cfg.Logger.Encoding,
		})
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "Database connection URL (env: DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (env: LOG_LEVEL)")

	rootCmd.AddCommand(
		migrateCmd,
		purgeSessionsCmd,
		revokeSessionsCmd,
		listSessionsCmd,
		hashPasswordCmd,
		verifyTokenCmd,
		activityCmd,
		createUserCmd,
		resetLimitCmd,
	)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context) (*bun.DB, error) {
	db, err := dbx.NewDB(ctx, cfg.Database.URL, dbx.Options{MaxOpenConns: cfg.Database.MaxOpenConns})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func authLogger() auth.Logger {
	return logging.NewAuthLogger(logger)
}

func newSessionStore(db *bun.DB) auth.SessionStore {
	return auth.NewSessionStore(
		auth.NewSessionsRepository(db),
		auth.WithSessionLogger(authLogger()),
	)
}

func newRedisClient(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
