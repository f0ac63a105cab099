package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/mcoot/trivia-pot/internal/model"
)

// GameFilter selects and orders games for listing
type GameFilter struct {
	// IncompleteOnly excludes games with IsComplete set
	IncompleteOnly bool
	// Order selects the result ordering
	Order GameOrder
}

// GameOrder selects how ListGames orders its results
type GameOrder int

const (
	// OrderByStartTime orders by start time ascending, unset last, then id
	OrderByStartTime GameOrder = iota
	// OrderByCreatedDesc orders newest first, then id descending
	OrderByCreatedDesc
)

// Storage defines the interface for data persistence.
// All timestamps are written and returned in UTC.
type Storage interface {
	// Game operations

	// CreateGame persists a game and its questions, assigning IDs to both
	CreateGame(ctx context.Context, game *model.Game, questions []model.Question) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	ListGames(ctx context.Context, filter GameFilter) ([]*model.Game, error)
	// SetStartTime sets the start time unless the game is complete
	// (ErrGameComplete) or already has a start time at or before now
	// (ErrGameAlreadyStarted)
	SetStartTime(ctx context.Context, id model.GameID, start, now time.Time) (*model.Game, error)
	// MarkComplete sets IsComplete if it is not already set.
	// Returns true only for the call that performed the transition.
	MarkComplete(ctx context.Context, id model.GameID) (bool, error)

	// Question operations

	// GetQuestions returns a game's questions in creation order
	GetQuestions(ctx context.Context, gameID model.GameID) ([]model.Question, error)

	// Player operations

	// AddPlayer registers a player, assigning its ID. The (game, address)
	// uniqueness constraint is authoritative: a duplicate yields
	// ErrAlreadyJoined. A game at capacity yields ErrGameFull.
	AddPlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByAddress(ctx context.Context, gameID model.GameID, address string) (*model.Player, error)
	// ListPlayers returns a game's players in join order
	ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.Player, error)
	CountPlayers(ctx context.Context, gameID model.GameID) (int, error)
	UpdatePlayerScore(ctx context.Context, id model.PlayerID, score int) error

	// Admin operations

	// CreateAdmin persists an admin, assigning its ID. A duplicate username
	// yields ErrAdminExists.
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
	// Close releases backend resources
	Close() error
}

// Transient wraps a backend failure so callers can classify it as
// retryable with errors.Is(err, model.ErrStoreUnavailable)
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
}

// UTC normalizes an optional timestamp to UTC
func UTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
