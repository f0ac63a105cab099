package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mcoot/trivia-pot/internal/config"
	"github.com/mcoot/trivia-pot/internal/storage/postgres"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.DatabaseURL == "" {
				return errors.New("--database-url is required")
			}
			logger := newLogger(cfg)

			if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
				logger.Error("migration failed", slog.String("error", err.Error()))
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}
