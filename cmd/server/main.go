package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/trivia-pot/internal/config"
	"github.com/mcoot/trivia-pot/internal/factory"
	redisstorage "github.com/mcoot/trivia-pot/internal/storage/redis"
)

func main() {
	// .env values fill in anything the environment does not already set
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd creates the trivia-pot command. Without a subcommand it serves.
func newRootCmd() *cobra.Command {
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:   "trivia-pot",
		Short: "Timed trivia games with a prize pot",
		Long: `trivia-pot serves the trivia game web interface, JSON API and realtime
event streams. Configuration comes from flags, TRIVIA_* environment
variables and an optional .env file, in that order of precedence.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), &cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd(&cfg))
	rootCmd.AddCommand(newMigrateCmd(&cfg))
	rootCmd.AddCommand(newCreateAdminCmd(&cfg))

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	return rootCmd
}

// newLogger builds the JSON logger used by every command
func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// factoryConfig maps the server configuration onto the application factory
func factoryConfig(cfg *config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage,
		DatabaseURL: cfg.DatabaseURL,
	}
	fc.AuthConfig.SessionDuration = cfg.SessionTTL
	if cfg.Storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fc.RedisConfig = &redisCfg
	}
	return fc
}
