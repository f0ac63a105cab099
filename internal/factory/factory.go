package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/trivia-pot/internal/dependencies/clock"
	"github.com/mcoot/trivia-pot/internal/dependencies/random"
	"github.com/mcoot/trivia-pot/internal/realtime"
	"github.com/mcoot/trivia-pot/internal/services/auth"
	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/services/leaderboard"
	"github.com/mcoot/trivia-pot/internal/services/lobby"
	"github.com/mcoot/trivia-pot/internal/services/scoring"
	"github.com/mcoot/trivia-pot/internal/storage"
	"github.com/mcoot/trivia-pot/internal/storage/memory"
	"github.com/mcoot/trivia-pot/internal/storage/postgres"
	redisstorage "github.com/mcoot/trivia-pot/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	ScoringService     *scoring.Service
	GameController     *game.Controller
	LobbyController    *lobby.Controller
	LeaderboardService *leaderboard.Service
	AuthService        *auth.Service

	// Realtime
	RealtimeManager *realtime.Manager
	Broadcaster     *realtime.Broadcaster
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the Postgres connection URL (required if StorageType is "postgres")
	DatabaseURL string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg.AuthConfig, logger), nil
}

// NewStorage opens the storage backend selected by cfg
func NewStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DatabaseURL required when StorageType is postgres")
		}
		return postgres.Open(cfg.DatabaseURL)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, logger *slog.Logger) *App {
	manager := realtime.NewManager(logger)
	broadcaster := realtime.NewBroadcaster(manager, logger)

	scoringService := scoring.New()
	gameController := game.NewController(store, scoringService, broadcaster, clk, logger)
	lobbyController := lobby.NewController(store, gameController, broadcaster, clk, logger)
	leaderboardService := leaderboard.New(store, clk, logger)
	authService := auth.New(store, clk, rnd, logger, authCfg)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		ScoringService:     scoringService,
		GameController:     gameController,
		LobbyController:    lobbyController,
		LeaderboardService: leaderboardService,
		AuthService:        authService,
		RealtimeManager:    manager,
		Broadcaster:        broadcaster,
	}
}
