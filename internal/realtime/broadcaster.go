package realtime

import (
	"log/slog"

	"github.com/mcoot/trivia-pot/internal/model"
)

// Broadcaster publishes domain events to the matching game room
type Broadcaster struct {
	manager *Manager
	logger  *slog.Logger
}

// Ensure Broadcaster implements Publisher
var _ model.Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(manager *Manager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		manager: manager,
		logger:  logger.With(slog.String("component", "broadcaster")),
	}
}

// Publish fans the event out to the game's room. It never blocks on slow
// subscribers and never fails.
func (b *Broadcaster) Publish(event model.Event) {
	sent, dropped := b.manager.Broadcast(event.GameID, MessageFor(event))
	b.logger.Debug("event published",
		slog.Int64("game_id", int64(event.GameID)),
		slog.String("event", string(event.Type)),
		slog.Int("sent", sent),
		slog.Int("dropped", dropped),
	)
}
