package cmd

import (
	"fmt"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-cms-auth"
)

var verifyTokenCmd = &cobra.Command{
	Use:   "verify-token <token>",
	Short: "Verify a signed token and print its payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ts := auth.NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			auth.WithTokenLogger(authLogger()),
		)

		payload := ts.Verify(args[0])
		if payload == nil {
			return fmt.Errorf("token is invalid or expired")
		}

		fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(payload))
		return nil
	},
}
