package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-cms-auth"
)

var (
	limitIP    string
	limitEmail string
)

var resetLimitCmd = &cobra.Command{
	Use:   "reset-login-limit",
	Short: "Clear the shared login rate limit for an IP and email",
	Long: `Clears the login attempt counter kept in Redis for the given client
address and email. Only meaningful when REDIS_ENABLED is set, in-process
counters live and die with the service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Redis.Enabled {
			return fmt.Errorf("redis rate limiting is disabled (set REDIS_ENABLED=true)")
		}
		if limitEmail == "" {
			return fmt.Errorf("--email flag is required")
		}

		ctx := cmd.Context()
		client, err := newRedisClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()

		limiter := auth.NewRedisRateLimiter(client, cfg.Redis.Prefix)
		key := auth.LoginRateLimitKey(auth.OriginMeta{IPAddress: limitIP}, limitEmail)

		if err := limiter.Reset(ctx, key); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", key)
		return nil
	},
}

func init() {
	resetLimitCmd.Flags().StringVar(&limitIP, "ip", "", "Client IP address")
	resetLimitCmd.Flags().StringVar(&limitEmail, "email", "", "Email address")
}
