package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/trivia-pot/internal/api"
	"github.com/mcoot/trivia-pot/internal/config"
	"github.com/mcoot/trivia-pot/internal/factory"
	"github.com/mcoot/trivia-pot/internal/web"
)

const (
	// roomReapInterval is how often empty realtime rooms are dropped
	roomReapInterval = time.Minute
	// sessionSweepInterval is how often expired admin sessions are dropped
	sessionSweepInterval = 10 * time.Minute
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

// serve runs the HTTP server until ctx is cancelled
func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)

	app, err := factory.New(factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := app.Storage.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		AuthService:        app.AuthService,
		GameController:     app.GameController,
		LobbyController:    app.LobbyController,
		LeaderboardService: app.LeaderboardService,
		Storage:            app.Storage,
	})

	// Create web router
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:             logger,
		AuthService:        app.AuthService,
		GameController:     app.GameController,
		LobbyController:    app.LobbyController,
		LeaderboardService: app.LeaderboardService,
		RealtimeManager:    app.RealtimeManager,
		StaticDir:          cfg.StaticDir,
		EnableMetrics:      cfg.Metrics,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Bind
	serverConfig.Port = cfg.Port
	server := api.NewServer(mux, serverConfig, logger)

	// Background housekeeping stops with ctx
	go app.RealtimeManager.Run(ctx, roomReapInterval)
	go sweepSessions(ctx, app, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		// Close realtime streams first so Shutdown is not held open by them
		app.RealtimeManager.Shutdown()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

func sweepSessions(ctx context.Context, app *factory.App, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.AuthService.CleanExpiredSessions(); n > 0 {
				logger.Debug("expired sessions removed", slog.Int("count", n))
			}
		}
	}
}
