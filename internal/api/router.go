package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/trivia-pot/internal/api/handler"
	"github.com/mcoot/trivia-pot/internal/api/middleware"
	"github.com/mcoot/trivia-pot/internal/api/response"
	"github.com/mcoot/trivia-pot/internal/services/auth"
	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/services/leaderboard"
	"github.com/mcoot/trivia-pot/internal/services/lobby"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	AuthService        *auth.Service
	GameController     *game.Controller
	LobbyController    *lobby.Controller
	LeaderboardService *leaderboard.Service
	Storage            Pinger
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.LobbyController, cfg.LeaderboardService)
	adminHandler := handler.NewAdminHandler(cfg.AuthService, cfg.GameController, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Public game routes
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}/questions", gameHandler.Questions).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}/join", gameHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/games/{id:[0-9]+}/submit", gameHandler.Submit).Methods(http.MethodPost)
	api.HandleFunc("/games/{id:[0-9]+}/standings", gameHandler.Standings).Methods(http.MethodGet)
	api.HandleFunc("/stats", gameHandler.Stats).Methods(http.MethodGet)

	// Admin login is open; everything else under /admin needs a session
	api.HandleFunc("/admin/login", adminHandler.Login).Methods(http.MethodPost)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin(cfg.AuthService))
	admin.HandleFunc("/logout", adminHandler.Logout).Methods(http.MethodPost)
	admin.HandleFunc("/games", adminHandler.CreateGame).Methods(http.MethodPost)
	admin.HandleFunc("/games/{id:[0-9]+}/start", adminHandler.StartGame).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg.Storage, cfg.Logger)).Methods(http.MethodGet)

	return r
}

func healthHandler(store Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				logger.Warn("health check failed", slog.String("error", err.Error()))
				response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "unavailable"})
				return
			}
		}
		response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
	}
}
