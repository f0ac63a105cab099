package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/trivia-pot/internal/config"
	"github.com/mcoot/trivia-pot/internal/factory"
	"github.com/mcoot/trivia-pot/internal/model"
)

func newCreateAdminCmd(cfg *config.Config) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long: `Create an admin account for the dashboard. The password may also be given
through TRIVIA_ADMIN_PASSWORD. Running it again for an existing username
leaves that account unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("TRIVIA_ADMIN_PASSWORD")
			}
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}

			logger := newLogger(cfg)
			app, err := factory.New(factoryConfig(cfg, logger))
			if err != nil {
				return err
			}
			defer func() { _ = app.Storage.Close() }()

			admin, err := app.AuthService.CreateAdmin(cmd.Context(), username, password)
			switch {
			case errors.Is(err, model.ErrAdminExists):
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %q already exists\n", username)
				return nil
			case err != nil:
				logger.Error("failed to create admin", slog.String("error", err.Error()))
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Admin %q created (id %d)\n", admin.Username, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password (env: TRIVIA_ADMIN_PASSWORD)")

	return cmd
}
