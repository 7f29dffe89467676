package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamscao/eventcert/internal/auth"
	"github.com/adamscao/eventcert/internal/db/repository"
	"github.com/adamscao/eventcert/internal/jobs"
)

func addPruneCommand(parent *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete verification logs older than retention.verification_log_max_age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			pruner := jobs.NewPruner(
				repository.NewVerificationRepository(a.database.DB),
				a.cfg.GetVerificationLogMaxAge(),
				nil,
				a.logger,
			)

			n, err := pruner.PruneOnce(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d verification log entries\n", n)
			return nil
		},
	}
	parent.AddCommand(cmd)
}

func addTOTPCommand(parent *cobra.Command) {
	var account string

	cmd := &cobra.Command{
		Use:   "totp",
		Short: "Generate an admin TOTP secret",
		Long: `Generate a TOTP secret for admin.totp_secret. Once configured, admin API
requests must carry a current code in the X-Admin-TOTP header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := auth.GenerateTOTPSecret(account)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "TOTP Secret: %s\n", key.Secret)
			fmt.Fprintf(out, "TOTP QR URL: %s\n", key.URL)
			fmt.Fprintf(out, "\nScan the QR URL with a TOTP app (Google Authenticator, Authy, etc.)\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "admin", "Account name shown in the authenticator app")
	parent.AddCommand(cmd)
}

func addTokenCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a random admin token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := auth.GenerateAdminToken()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	parent.AddCommand(cmd)
}
