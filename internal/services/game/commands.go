package game

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/trivia-pot/internal/model"
)

// QuestionPair is one phrase/answer pair in a create request
type QuestionPair struct {
	Phrase string `json:"phrase" validate:"max=255"`
	Answer string `json:"answer" validate:"max=255"`
}

// CreateGameCommand holds the input for creating a game
type CreateGameCommand struct {
	TimeLimitSeconds int             `json:"time_limit" validate:"gte=60,lte=3600"`
	MaxPlayers       int             `json:"max_players" validate:"gte=2,lte=100"`
	PotSize          decimal.Decimal `json:"pot_size" validate:"gte=1"`
	EntryValue       decimal.Decimal `json:"entry_value" validate:"gte=0.01"`
	StartTime        *time.Time      `json:"start_time,omitempty"`
	Questions        []QuestionPair  `json:"questions" validate:"max=12,dive"`
}

// normalized trims pairs and drops those with a blank side
func (c CreateGameCommand) normalized() CreateGameCommand {
	pairs := make([]QuestionPair, 0, len(c.Questions))
	for _, p := range c.Questions {
		phrase, answer := strings.TrimSpace(p.Phrase), strings.TrimSpace(p.Answer)
		if phrase == "" || answer == "" {
			continue
		}
		pairs = append(pairs, QuestionPair{Phrase: phrase, Answer: answer})
	}
	c.Questions = pairs
	if c.StartTime != nil {
		st := c.StartTime.UTC()
		c.StartTime = &st
	}
	return c
}

// Submission is one player's answers. Answers is positional; when it is
// nil, KeyedAnswers is used instead.
type Submission struct {
	Address      string
	Answers      []string
	KeyedAnswers map[model.QuestionID]string
}

// SubmitResult reports the outcome of a scored submission
type SubmitResult struct {
	Player *model.Player
	Score  int
	// GameComplete is true when the game is complete after this submission
	GameComplete bool
	// Won is true when this submission completed the game
	Won bool
}
