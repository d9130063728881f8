package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-cms-auth"
	"github.com/goliatone/go-cms-auth/internal/dbx"
)

var (
	userEmail    string
	userName     string
	userRole     string
	userPassword string
	userStdin    bool
	userInactive bool
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Seed a user that can sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userEmail == "" {
			return fmt.Errorf("--email flag is required")
		}
		if userName == "" {
			return fmt.Errorf("--username flag is required")
		}

		role, ok := auth.ParseRole(userRole)
		if !ok {
			valid := make([]string, 0, len(auth.GetAllRoles()))
			for _, r := range auth.GetAllRoles() {
				valid = append(valid, r.String())
			}
			return fmt.Errorf("invalid role %q, valid roles are: %s", userRole, strings.Join(valid, ", "))
		}

		var passArgs []string
		if userPassword != "" {
			passArgs = []string{userPassword}
		}
		password, err := readPassword(cmd, passArgs, userStdin)
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

		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer dbx.Close(db)

		users := auth.NewUsersRepository(db)

		if _, err := users.GetByEmail(ctx, userEmail); err == nil {
			return fmt.Errorf("user with email %q already exists", userEmail)
		} else if !auth.IsIdentityNotFound(err) {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}

		user, err := users.Register(ctx, &auth.User{
			Email:        userEmail,
			Username:     userName,
			Role:         role,
			PasswordHash: hash,
			IsActive:     !userInactive,
		})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "Email address of the user")
	createUserCmd.Flags().StringVar(&userName, "username", "", "Username of the user")
	createUserCmd.Flags().StringVar(&userRole, "role", auth.RoleStandard.String(), "Role: admin, writer or user")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "Password for the user (use --stdin to avoid shell history)")
	createUserCmd.Flags().BoolVar(&userStdin, "stdin", false, "Read password from stdin instead of --password flag")
	createUserCmd.Flags().BoolVar(&userInactive, "inactive", false, "Create the user deactivated")
}
