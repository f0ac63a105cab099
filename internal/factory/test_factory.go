package factory

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/trivia-pot/internal/dependencies/mocks"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/auth"
	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/storage"
	"github.com/mcoot/trivia-pot/internal/storage/memory"
	"github.com/mcoot/trivia-pot/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New())
}

// NewTestAppWithStorage is like NewTestApp but uses the given store, e.g. one
// that injects failures
func NewTestAppWithStorage(store storage.Storage) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, auth.Config{
		SessionDuration: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// CreateTestGame creates a pending game with the given answers, using the
// phrase "q<n>" for question n
func (t *TestApp) CreateTestGame(ctx context.Context, maxPlayers int, answers ...string) (*model.Game, error) {
	pairs := make([]game.QuestionPair, len(answers))
	for i, a := range answers {
		pairs[i] = game.QuestionPair{Phrase: "q" + strconv.Itoa(i+1), Answer: a}
	}
	g, _, err := t.GameController.CreateGame(ctx, game.CreateGameCommand{
		TimeLimitSeconds: 60,
		MaxPlayers:       maxPlayers,
		PotSize:          decimal.NewFromInt(100),
		EntryValue:       decimal.RequireFromString("0.5"),
		Questions:        pairs,
	})
	return g, err
}
