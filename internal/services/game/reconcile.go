package game

import (
	"time"

	"github.com/mcoot/trivia-pot/internal/model"
)

// Reconcile returns the game as it must be observed at now. A started game
// whose time limit has elapsed is complete. The input is not modified.
func Reconcile(g *model.Game, now time.Time) *model.Game {
	out := g.Clone()
	if !out.IsComplete && out.TimeExpiredAt(now) {
		out.IsComplete = true
	}
	return out
}
