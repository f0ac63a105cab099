package scoring

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/trivia-pot/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New()
}

// Helper to build questions from answers, with IDs starting at 1
func questions(answers ...string) []model.Question {
	qs := make([]model.Question, len(answers))
	for i, a := range answers {
		qs[i] = model.Question{ID: model.QuestionID(i + 1), GameID: 1, Phrase: "q", Answer: a}
	}
	return qs
}

// Positional scoring tests

func (s *ServiceSuite) TestScoreIgnoresCaseAndWhitespace() {
	s.Equal(1, s.service.Score(questions("Paris"), []string{"  paris  "}))
}

func (s *ServiceSuite) TestScoreFewerAnswersThanQuestions() {
	s.Equal(1, s.service.Score(questions("x", "y"), []string{"x"}))
}

func (s *ServiceSuite) TestScoreExtraAnswersIgnored() {
	s.Equal(1, s.service.Score(questions("x"), []string{"x", "y", "z"}))
}

func (s *ServiceSuite) TestScoreMixedResults() {
	qs := questions("4", "paris", "blue")
	s.Equal(2, s.service.Score(qs, []string{"4", "Paris", "green"}))
	s.Equal(3, s.service.Score(qs, []string{"4", "paris", "blue"}))
}

func (s *ServiceSuite) TestScoreIsPositional() {
	s.Equal(0, s.service.Score(questions("a", "b"), []string{"b", "a"}))
}

func (s *ServiceSuite) TestScoreNoAnswers() {
	s.Equal(0, s.service.Score(questions("a", "b"), nil))
	s.Equal(0, s.service.Score(nil, []string{"a"}))
}

// Keyed scoring tests

func (s *ServiceSuite) TestScoreKeyedMatchesPositional() {
	qs := questions("4", "paris", "blue")
	keyed := map[model.QuestionID]string{1: "4", 2: " PARIS", 3: "green"}

	s.Equal(2, s.service.ScoreKeyed(qs, keyed))
	s.Equal(s.service.Score(qs, []string{"4", " PARIS", "green"}), s.service.ScoreKeyed(qs, keyed))
}

func (s *ServiceSuite) TestScoreKeyedMissingAnswersDefaultEmpty() {
	qs := questions("a", "b", "c")
	s.Equal(1, s.service.ScoreKeyed(qs, map[model.QuestionID]string{3: "c"}))
}

func (s *ServiceSuite) TestScoreKeyedUnknownIDsIgnored() {
	qs := questions("a")
	s.Equal(0, s.service.ScoreKeyed(qs, map[model.QuestionID]string{99: "a"}))
}

func (s *ServiceSuite) TestPositionalOrdersByQuestion() {
	qs := questions("a", "b", "c")
	s.Equal([]string{"", "B", "C"}, Positional(qs, map[model.QuestionID]string{3: "C", 2: "B"}))
}
