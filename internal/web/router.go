package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/trivia-pot/internal/metrics"
	"github.com/mcoot/trivia-pot/internal/realtime"
	"github.com/mcoot/trivia-pot/internal/services/auth"
	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/services/leaderboard"
	"github.com/mcoot/trivia-pot/internal/services/lobby"
	"github.com/mcoot/trivia-pot/internal/web/handler"
	"github.com/mcoot/trivia-pot/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger             *slog.Logger
	AuthService        *auth.Service
	GameController     *game.Controller
	LobbyController    *lobby.Controller
	LeaderboardService *leaderboard.Service
	RealtimeManager    *realtime.Manager
	StaticDir          string // Serve static files from disk instead of the embedded copy
	EnableMetrics      bool   // Expose /metrics
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	flashMiddleware := middleware.Flash()
	adminMiddleware := middleware.RequireAdmin(cfg.AuthService)
	optionalAdminMiddleware := middleware.OptionalAdmin(cfg.AuthService)

	// Apply global middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(metrics.Middleware)

	// Create handlers
	homeHandler := handler.NewHomeHandler(cfg.GameController, cfg.Logger)
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.LobbyController, cfg.LeaderboardService, cfg.RealtimeManager, cfg.Logger)
	adminHandler := handler.NewAdminHandler(cfg.GameController, cfg.LeaderboardService, cfg.Logger)

	r.PathPrefix("/static/").Handler(staticHandler(cfg.StaticDir))

	if cfg.EnableMetrics {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	// Realtime transports
	r.Handle("/ws", realtime.NewWebSocketHandler(cfg.RealtimeManager, cfg.GameController, cfg.Logger)).Methods(http.MethodGet)
	r.HandleFunc("/game/{id:[0-9]+}/events", gameHandler.Events).Methods(http.MethodGet)
	r.HandleFunc("/game/{id:[0-9]+}/submit", gameHandler.Submit).Methods(http.MethodPost)

	// Public pages (optional admin session for the nav)
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.Use(optionalAdminMiddleware)
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	public.HandleFunc("/game/{id:[0-9]+}/join", gameHandler.JoinPage).Methods(http.MethodGet)
	public.HandleFunc("/game/{id:[0-9]+}/join", gameHandler.Join).Methods(http.MethodPost)
	public.HandleFunc("/game/{id:[0-9]+}/lobby", gameHandler.Lobby).Methods(http.MethodGet)
	public.HandleFunc("/game/{id:[0-9]+}/play", gameHandler.Play).Methods(http.MethodGet)
	public.HandleFunc("/game/{id:[0-9]+}/result", gameHandler.Result).Methods(http.MethodGet)
	public.HandleFunc("/admin/login", authHandler.LoginPage).Methods(http.MethodGet)
	public.HandleFunc("/admin/login", authHandler.Login).Methods(http.MethodPost)
	public.HandleFunc("/admin/logout", authHandler.Logout).Methods(http.MethodGet, http.MethodPost)

	// Admin pages (require a session)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(flashMiddleware)
	admin.Use(adminMiddleware)
	admin.HandleFunc("/dashboard", adminHandler.Dashboard).Methods(http.MethodGet)
	admin.HandleFunc("/create_game", adminHandler.CreateGamePage).Methods(http.MethodGet)
	admin.HandleFunc("/create_game", adminHandler.CreateGame).Methods(http.MethodPost)
	admin.HandleFunc("/start_game/{id:[0-9]+}", adminHandler.StartGame).Methods(http.MethodPost)
	admin.HandleFunc("/game_stats/{id:[0-9]+}", adminHandler.GameStats).Methods(http.MethodGet)
	admin.HandleFunc("/stats", adminHandler.Stats).Methods(http.MethodGet)

	notFound := flashMiddleware(optionalAdminMiddleware(http.HandlerFunc(homeHandler.NotFound)))
	r.NotFoundHandler = recoveryMiddleware(loggingMiddleware(notFound))

	return r
}
