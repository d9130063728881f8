package cmd

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-cms-auth"
	"github.com/goliatone/go-cms-auth/activitymap"
	"github.com/goliatone/go-cms-auth/internal/dbx"
)

var (
	activityLimit int
	activityRaw   bool
)

var activityCmd = &cobra.Command{
	Use:   "activity <identity-id>",
	Short: "Print the most recent activity entries of an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbx.Close(db)

		history, err := auth.NewActivityLogger(auth.NewActivityRepository(db)).
			History(ctx, args[0], activityLimit)
		if err != nil {
			return fmt.Errorf("failed to load activity: %w", err)
		}

		var out any = activitymap.NormalizeAll(history, activityFeedOptions(cfg.AppName)...)
		if activityRaw {
			out = history
		}
		fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(out))
		return nil
	},
}

// activityFeedOptions keeps the default channel when appName is blank.
func activityFeedOptions(appName string) []activitymap.Option {
	if strings.TrimSpace(appName) == "" {
		return nil
	}
	return []activitymap.Option{activitymap.WithDefaultChannel(appName)}
}

func init() {
	activityCmd.Flags().IntVar(&activityLimit, "limit", auth.DefaultActivityHistoryLimit, "Maximum number of entries")
	activityCmd.Flags().BoolVar(&activityRaw, "raw", false, "Print stored rows instead of the normalized feed")
}
