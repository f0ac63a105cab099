package request

import (
	"strconv"
	"time"

	"github.com/mcoot/trivia-pot/internal/api/apierr"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/game"
)

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// JoinRequest is the request body for joining a game
type JoinRequest struct {
	Address string `json:"address"`
}

// SubmitRequest is the request body for submitting answers. Answers is
// positional in question order; AnswersByID keys answers by question id.
type SubmitRequest struct {
	Address     string            `json:"address"`
	Answers     []string          `json:"answers,omitempty"`
	AnswersByID map[string]string `json:"answers_by_id,omitempty"`
}

// Submission converts the request into a game.Submission
func (r SubmitRequest) Submission() (game.Submission, error) {
	sub := game.Submission{Address: r.Address, Answers: r.Answers}
	if r.Answers != nil || r.AnswersByID == nil {
		if sub.Answers == nil {
			sub.Answers = []string{}
		}
		return sub, nil
	}

	sub.KeyedAnswers = make(map[model.QuestionID]string, len(r.AnswersByID))
	for key, answer := range r.AnswersByID {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return game.Submission{}, apierr.NewInvalidRequestError("answers_by_id keys must be question ids")
		}
		sub.KeyedAnswers[model.QuestionID(id)] = answer
	}
	return sub, nil
}

// CreateGameRequest is the request body for creating a game
type CreateGameRequest = game.CreateGameCommand

// StartGameRequest is the optional request body for starting a game. When
// StartTime is set the game is scheduled instead of started now.
type StartGameRequest struct {
	StartTime *time.Time `json:"start_time,omitempty"`
}
