package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameID uniquely identifies a game
type GameID int64

// GameState is the lifecycle phase of a game, derived from StartTime,
// TimeLimitSeconds and IsComplete
type GameState string

const (
	GameStatePending   GameState = "pending"   // No start time set
	GameStateScheduled GameState = "scheduled" // Start time set, in the future
	GameStateActive    GameState = "active"    // Started and within the time limit
	GameStateComplete  GameState = "complete"  // Terminal
)

// MaxQuestions is the maximum number of phrase/answer pairs per game
const MaxQuestions = 12

// Game represents one trivia round with a pot, entry value and time window
type Game struct {
	ID               GameID
	TimeLimitSeconds int
	MaxPlayers       int
	PotSize          decimal.Decimal
	EntryValue       decimal.Decimal
	StartTime        *time.Time // nil until scheduled or started
	IsComplete       bool
	CreatedAt        time.Time
}

// TimeLimit returns the time limit as a duration
func (g *Game) TimeLimit() time.Duration {
	return time.Duration(g.TimeLimitSeconds) * time.Second
}

// EndTime returns when the time limit elapses, or nil if not started
func (g *Game) EndTime() *time.Time {
	if g.StartTime == nil {
		return nil
	}
	end := g.StartTime.Add(g.TimeLimit())
	return &end
}

// StateAt derives the lifecycle state at the given instant.
// It does not consider the time limit as having completed the game unless
// IsComplete is already set; use game.Reconcile for that.
func (g *Game) StateAt(now time.Time) GameState {
	switch {
	case g.IsComplete:
		return GameStateComplete
	case g.StartTime == nil:
		return GameStatePending
	case g.StartTime.After(now):
		return GameStateScheduled
	default:
		return GameStateActive
	}
}

// TimeExpiredAt returns true if the game has started and its time limit has
// been reached at the given instant
func (g *Game) TimeExpiredAt(now time.Time) bool {
	if g.StartTime == nil {
		return false
	}
	return !now.Before(g.StartTime.Add(g.TimeLimit()))
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	c := *g
	if g.StartTime != nil {
		st := *g.StartTime
		c.StartTime = &st
	}
	return &c
}

// QuestionID uniquely identifies a question
type QuestionID int64

// Question is a phrase/answer pair belonging to exactly one game
type Question struct {
	ID     QuestionID
	GameID GameID
	Phrase string
	Answer string
}

// GameSummary is a game together with its registered player count, used
// for listings
type GameSummary struct {
	Game        *Game
	State       GameState
	PlayerCount int
}
