package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-cms-auth"
)

var hashFromStdin bool

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for a password",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd, args, hashFromStdin)
		if err != nil {
			return err
		}

		hasher := auth.NewPasswordHasher(
			auth.WithHashCost(cfg.GetPasswordHashCost()),
			auth.WithMinPasswordLength(cfg.GetMinPasswordLength()),
		)

		hash, err := hasher.Hash(password)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	hashPasswordCmd.Flags().BoolVar(&hashFromStdin, "stdin", false, "Read password from stdin instead of the argument")
}

func readPassword(cmd *cobra.Command, args []string, fromStdin bool) (string, error) {
	if fromStdin {
		return readLine(cmd.InOrStdin())
	}
	if len(args) == 0 || args[0] == "" {
		return "", fmt.Errorf("password is required (pass it as an argument or use --stdin)")
	}
	return args[0], nil
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r\n"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return "", fmt.Errorf("password is required")
}
