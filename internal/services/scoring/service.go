package scoring

import (
	"strings"

	"github.com/mcoot/trivia-pot/internal/model"
)

// Service scores answer submissions against a game's questions
type Service struct{}

// New creates a new ScoringService
func New() *Service {
	return &Service{}
}

// Score pairs the i-th answer with the i-th question and counts matches.
// Missing or extra answers never match.
func (s *Service) Score(questions []model.Question, answers []string) int {
	score := 0
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		if matches(q.Answer, answers[i]) {
			score++
		}
	}
	return score
}

// ScoreKeyed scores answers keyed by question ID. The keyed form is first
// normalized to positional order, so both shapes score identically.
func (s *Service) ScoreKeyed(questions []model.Question, answers map[model.QuestionID]string) int {
	return s.Score(questions, Positional(questions, answers))
}

// Positional orders keyed answers to match questions, using the empty
// string for questions with no answer
func Positional(questions []model.Question, answers map[model.QuestionID]string) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = answers[q.ID]
	}
	return out
}

// matches compares case-insensitively, ignoring surrounding whitespace
func matches(expected, given string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(given))
}
