package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	auth "github.com/goliatone/go-cms-auth"
	"github.com/goliatone/go-cms-auth/internal/dbx"
)

var (
	purgeEvery time.Duration
	purgeWatch bool
)

var purgeSessionsCmd = &cobra.Command{
	Use:   "purge-sessions",
	Short: "Delete expired sessions",
	Long: `Deletes every session whose expiry has passed. With --watch the command
keeps running and sweeps until interrupted, every AUTH_SESSION_SWEEP_INTERVAL
unless --every overrides it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbx.Close(db)

		store := newSessionStore(db)

		interval := purgeEvery
		if purgeWatch && interval <= 0 {
			interval = cfg.GetSessionSweepInterval()
		}

		if interval <= 0 {
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				return fmt.Errorf("failed to purge sessions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired sessions\n", n)
			return nil
		}

		runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("session sweeper started", zap.Duration("interval", interval))
		auth.NewSessionSweeper(store, interval, authLogger()).Run(runCtx)
		logger.Info("session sweeper stopped")

		return nil
	},
}

var revokeSessionsCmd = &cobra.Command{
	Use:   "revoke-sessions <identity-id>",
	Short: "Invalidate every session of an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbx.Close(db)

		sink := auth.NewActivityLogger(auth.NewActivityRepository(db))

		n, err := newSessionStore(db).InvalidateAll(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}

		entry := auth.NewActivityEntry(args[0], auth.ActivitySessionsRevoked, "all sessions revoked by operator", auth.OriginMeta{}, map[string]any{
			"count": n,
		})
		if err := sink.Record(ctx, entry); err != nil {
			logger.Warn("failed to record activity", zap.Error(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "revoked %d sessions\n", n)
		return nil
	},
}

var listSessionsCmd = &cobra.Command{
	Use:   "list-sessions <identity-id>",
	Short: "Print the live sessions of an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbx.Close(db)

		records, err := auth.NewSessionsRepository(db).ListByIdentity(ctx, args[0], time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(records))
		return nil
	},
}

func init() {
	purgeSessionsCmd.Flags().DurationVar(&purgeEvery, "every", 0, "Keep running and purge on this interval")
	purgeSessionsCmd.Flags().BoolVar(&purgeWatch, "watch", false, "Keep running and purge on the configured interval")
}
