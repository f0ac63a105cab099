package lobby

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/trivia-pot/internal/dependencies/clock"
	"github.com/mcoot/trivia-pot/internal/metrics"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/storage"
	"github.com/mcoot/trivia-pot/internal/validation"
)

// JoinCommand is the input for registering an address with a game
type JoinCommand struct {
	Address string `json:"address" validate:"required,len=42"`
}

// JoinResult is the outcome of a successful join
type JoinResult struct {
	Player *model.Player
	// AlreadyJoined is true when the address was registered before this call
	AlreadyJoined bool
	PlayerCount   int
}

// Controller is the registration gate for games. It enforces the player cap
// and makes joining idempotent per address.
type Controller struct {
	storage        storage.Storage
	gameController *game.Controller
	publisher      model.Publisher
	clock          clock.Clock
	logger         *slog.Logger
}

// NewController creates a new lobby Controller
func NewController(
	storage storage.Storage,
	gameController *game.Controller,
	publisher model.Publisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:        storage,
		gameController: gameController,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
	}
}

// Join registers address for the game. Re-joining with the same address
// returns the existing player with AlreadyJoined set. A full game yields
// ErrGameFull and a finished one ErrGameComplete.
func (c *Controller) Join(ctx context.Context, gameID model.GameID, address string) (*JoinResult, error) {
	cmd := JoinCommand{Address: strings.TrimSpace(address)}
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	g, state, err := c.gameController.GetGameState(ctx, gameID)
	if err != nil {
		return nil, err
	}

	existing, err := c.storage.GetPlayerByAddress(ctx, gameID, cmd.Address)
	switch {
	case err == nil:
		return c.alreadyJoined(ctx, existing)
	case !errors.Is(err, model.ErrPlayerNotFound):
		return nil, err
	}

	if state == model.GameStateComplete {
		return nil, model.ErrGameComplete
	}

	// Fast path only; AddPlayer makes the final call under the store's guard
	count, err := c.storage.CountPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if count >= g.MaxPlayers {
		metrics.RecordJoin(metrics.JoinFull)
		return nil, model.ErrGameFull
	}

	player := &model.Player{
		GameID:    gameID,
		AddressID: cmd.Address,
		JoinedAt:  c.clock.Now(),
	}
	err = c.storage.AddPlayer(ctx, player)
	switch {
	case errors.Is(err, model.ErrAlreadyJoined):
		// Lost a race against the same address
		existing, err := c.storage.GetPlayerByAddress(ctx, gameID, cmd.Address)
		if err != nil {
			return nil, err
		}
		return c.alreadyJoined(ctx, existing)
	case errors.Is(err, model.ErrGameFull):
		metrics.RecordJoin(metrics.JoinFull)
		return nil, err
	case errors.Is(err, model.ErrGameComplete):
		// Completed after the state check above
		return nil, err
	case err != nil:
		c.logger.Error("failed to add player",
			slog.Int64("game_id", int64(gameID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	count, err = c.storage.CountPlayers(ctx, gameID)
	if err != nil {
		// The join is committed; report it even if the count is unavailable
		c.logger.Warn("could not count players after join",
			slog.Int64("game_id", int64(gameID)),
			slog.String("error", err.Error()),
		)
	}

	metrics.RecordJoin(metrics.JoinJoined)
	c.logger.Info("player joined",
		slog.Int64("game_id", int64(gameID)),
		slog.Int64("player_id", int64(player.ID)),
		slog.Int("player_count", count),
	)

	if err == nil {
		c.publisher.Publish(model.Event{
			Type:      model.EventPlayerJoined,
			GameID:    gameID,
			Timestamp: c.clock.Now(),
			Payload: model.PlayerJoinedPayload{
				GameID:      gameID,
				PlayerCount: count,
			},
		})
	}

	return &JoinResult{Player: player, PlayerCount: count}, nil
}

func (c *Controller) alreadyJoined(ctx context.Context, player *model.Player) (*JoinResult, error) {
	metrics.RecordJoin(metrics.JoinAlreadyJoined)
	count, err := c.storage.CountPlayers(ctx, player.GameID)
	if err != nil {
		return nil, err
	}
	return &JoinResult{Player: player, AlreadyJoined: true, PlayerCount: count}, nil
}
