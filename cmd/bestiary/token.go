package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkrupp/bestiary/internal/svc/authsvc"
)

func newTokenCmd(cfg *Config) *cobra.Command {
	var (
		userID          int64
		username, email string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token",
		Long: `token signs an access token with the configured secret, valid for
BESTIARY_AUTH_TOKEN_DURATION seconds. The user is not looked up.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authSvc, err := authsvc.NewAuthService(cmd.Context(), nil, cfg.Auth)
			if err != nil {
				return fmt.Errorf("new auth service: %w", err)
			}

			token, err := authSvc.IssueToken(userID, username, email)
			if err != nil {
				return err //nolint:wrapcheck
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)

			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 1, "Subject of the token")
	cmd.Flags().StringVar(&username, "username", "alice", "Username claim")
	cmd.Flags().StringVar(&email, "email", "alice@example.com", "Email claim")

	return cmd
}
