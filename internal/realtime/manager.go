package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/trivia-pot/internal/metrics"
	"github.com/mcoot/trivia-pot/internal/model"
)

// Buffer size for outgoing messages per subscriber
const sendBufferSize = 64

// Subscriber is one connected client. It may be in any number of rooms.
type Subscriber struct {
	id          string
	send        chan Message
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
}

func newSubscriber() *Subscriber {
	return &Subscriber{
		id:          uuid.NewString(),
		send:        make(chan Message, sendBufferSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// ID returns the subscriber's unique id
func (s *Subscriber) ID() string {
	return s.id
}

// Messages returns the channel of messages delivered to the subscriber
func (s *Subscriber) Messages() <-chan Message {
	return s.send
}

// Done is closed when the subscriber has been disconnected by the manager
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// deliver enqueues msg without blocking, reporting whether it was accepted
func (s *Subscriber) deliver(msg Message) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// room is the set of subscribers observing one game
type room struct {
	subscribers map[*Subscriber]struct{}
}

// Manager tracks rooms and their subscribers
type Manager struct {
	mu          sync.RWMutex
	rooms       map[model.GameID]*room
	subscribers map[*Subscriber]map[model.GameID]struct{}
	logger      *slog.Logger
}

// NewManager creates a new Manager
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		rooms:       make(map[model.GameID]*room),
		subscribers: make(map[*Subscriber]map[model.GameID]struct{}),
		logger:      logger.With(slog.String("component", "realtime")),
	}
}

// Connect registers a new subscriber that is not yet in any room
func (m *Manager) Connect() *Subscriber {
	sub := newSubscriber()

	m.mu.Lock()
	m.subscribers[sub] = make(map[model.GameID]struct{})
	count := len(m.subscribers)
	m.mu.Unlock()

	metrics.RealtimeSubscribers.Inc()
	m.logger.Debug("subscriber connected",
		slog.String("subscriber_id", sub.id),
		slog.Int("total_subscribers", count),
	)
	return sub
}

// Disconnect removes a subscriber from every room and closes it
func (m *Manager) Disconnect(sub *Subscriber) {
	m.mu.Lock()
	games, ok := m.subscribers[sub]
	if ok {
		for gameID := range games {
			if r := m.rooms[gameID]; r != nil {
				delete(r.subscribers, sub)
			}
		}
		delete(m.subscribers, sub)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	sub.close()
	metrics.RealtimeSubscribers.Dec()
	m.logger.Debug("subscriber disconnected",
		slog.String("subscriber_id", sub.id),
		slog.Duration("connection_duration", time.Since(sub.connectedAt)),
	)
}

// Join adds the subscriber to a game's room, creating the room if needed
func (m *Manager) Join(sub *Subscriber, gameID model.GameID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	games, ok := m.subscribers[sub]
	if !ok {
		return false
	}
	r, ok := m.rooms[gameID]
	if !ok {
		r = &room{subscribers: make(map[*Subscriber]struct{})}
		m.rooms[gameID] = r
	}
	r.subscribers[sub] = struct{}{}
	games[gameID] = struct{}{}
	return true
}

// Leave removes the subscriber from a game's room. Empty rooms are left for
// the reaper.
func (m *Manager) Leave(sub *Subscriber, gameID model.GameID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r := m.rooms[gameID]; r != nil {
		delete(r.subscribers, sub)
	}
	if games, ok := m.subscribers[sub]; ok {
		delete(games, gameID)
	}
}

// Broadcast delivers msg to every subscriber in the game's room without
// blocking. Subscribers with a full buffer miss the message.
func (m *Manager) Broadcast(gameID model.GameID, msg Message) (sent, dropped int) {
	m.mu.RLock()
	r := m.rooms[gameID]
	var targets []*Subscriber
	if r != nil {
		targets = make([]*Subscriber, 0, len(r.subscribers))
		for sub := range r.subscribers {
			targets = append(targets, sub)
		}
	}
	m.mu.RUnlock()

	for _, sub := range targets {
		if sub.deliver(msg) {
			sent++
			continue
		}
		dropped++
		metrics.RealtimeDropped.Inc()
		m.logger.Warn("realtime message dropped - subscriber buffer full",
			slog.Int64("game_id", int64(gameID)),
			slog.String("subscriber_id", sub.id),
			slog.String("event", msg.Event),
		)
	}
	return sent, dropped
}

// RoomSize returns the number of subscribers in a game's room
func (m *Manager) RoomSize(gameID model.GameID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r := m.rooms[gameID]; r != nil {
		return len(r.subscribers)
	}
	return 0
}

// RoomCount returns the number of rooms, including empty ones not yet reaped
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// CleanupEmptyRooms removes rooms with no subscribers
func (m *Manager) CleanupEmptyRooms() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for gameID, r := range m.rooms {
		if len(r.subscribers) == 0 {
			delete(m.rooms, gameID)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("empty rooms cleaned up", slog.Int("removed", removed))
	}
	return removed
}

// Run reaps empty rooms every interval until ctx is done, then disconnects
// all subscribers
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupEmptyRooms()
		case <-ctx.Done():
			m.Shutdown()
			return
		}
	}
}

// Shutdown disconnects every subscriber
func (m *Manager) Shutdown() {
	m.mu.RLock()
	subs := make([]*Subscriber, 0, len(m.subscribers))
	for sub := range m.subscribers {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	for _, sub := range subs {
		m.Disconnect(sub)
	}
	if len(subs) > 0 {
		m.logger.Info("realtime shut down", slog.Int("disconnected_subscribers", len(subs)))
	}
}
