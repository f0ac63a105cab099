package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventPlayerJoined      EventType = "player_joined"
	EventGameStarted       EventType = "game_started"
	EventPlayerScoreUpdate EventType = "player_score_update"
	EventGameComplete      EventType = "game_complete"
)

// Event is a state change scoped to a single game's channel
type Event struct {
	Type      EventType
	GameID    GameID
	Timestamp time.Time
	Payload   any // Type-specific data
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	GameID      GameID `json:"game_id"`
	PlayerCount int    `json:"player_count"`
}

// GameStartedPayload contains data for game started events
type GameStartedPayload struct {
	GameID GameID `json:"game_id"`
}

// PlayerScoreUpdatePayload contains data for score update events
type PlayerScoreUpdatePayload struct {
	GameID   GameID   `json:"game_id"`
	PlayerID PlayerID `json:"player_id"`
	Score    int      `json:"score"`
}

// GameCompletePayload contains data for game complete events.
// WinnerID is nil when nobody registered.
type GameCompletePayload struct {
	GameID   GameID    `json:"game_id"`
	WinnerID *PlayerID `json:"winner_id"`
}

// Publisher delivers events to observers of a game's channel.
// Publish must not block on subscribers.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards all events
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
