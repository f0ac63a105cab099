package factory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/game"
	redisstorage "github.com/mcoot/trivia-pot/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func address(n int) string {
	return fmt.Sprintf("0x%040d", n)
}

// Test: Complete game flow from creation to a winning submission
func (s *IntegrationSuite) TestCompleteGameFlow() {
	g, err := s.app.CreateTestGame(s.ctx, 2, "4", "paris", "blue")
	s.Require().NoError(err)

	// Observer subscribes to the game's room
	sub := s.app.RealtimeManager.Connect()
	defer s.app.RealtimeManager.Disconnect(sub)
	s.app.RealtimeManager.Join(sub, g.ID)

	// Two players join, a third is turned away
	alice, err := s.app.LobbyController.Join(s.ctx, g.ID, address(1))
	s.Require().NoError(err)
	bob, err := s.app.LobbyController.Join(s.ctx, g.ID, address(2))
	s.Require().NoError(err)
	_, err = s.app.LobbyController.Join(s.ctx, g.ID, address(3))
	s.ErrorIs(err, model.ErrGameFull)

	// Not playable until started
	_, _, err = s.app.GameController.PlayableGame(s.ctx, g.ID)
	s.ErrorIs(err, model.ErrGameNotActive)

	_, err = s.app.GameController.StartGame(s.ctx, g.ID)
	s.Require().NoError(err)

	result, err := s.app.GameController.Submit(s.ctx, g.ID, game.Submission{
		Address: alice.Player.AddressID,
		Answers: []string{"4", "Paris", "green"},
	})
	s.Require().NoError(err)
	s.Equal(2, result.Score)

	result, err = s.app.GameController.Submit(s.ctx, g.ID, game.Submission{
		Address: bob.Player.AddressID,
		Answers: []string{"4", "paris", "blue"},
	})
	s.Require().NoError(err)
	s.True(result.Won)

	standings, err := s.app.LeaderboardService.Standings(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(bob.Player.ID, standings[0].ID)
	s.Equal(alice.Player.ID, standings[1].ID)

	// The observer saw every transition in order
	var events []string
	for len(sub.Messages()) > 0 {
		events = append(events, (<-sub.Messages()).Event)
	}
	s.Equal([]string{
		"player_joined",
		"player_joined",
		"game_started",
		"player_score_update",
		"player_score_update",
		"game_complete",
	}, events)
}

// Test: A game left to run out its time completes on the next read
func (s *IntegrationSuite) TestTimeLimitCompletion() {
	g, err := s.app.CreateTestGame(s.ctx, 5, "a")
	s.Require().NoError(err)
	joined, err := s.app.LobbyController.Join(s.ctx, g.ID, address(1))
	s.Require().NoError(err)
	_, err = s.app.GameController.StartGame(s.ctx, g.ID)
	s.Require().NoError(err)

	s.app.MockClock.Advance(2 * time.Minute)

	_, state, err := s.app.GameController.GetGameState(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(model.GameStateComplete, state)

	_, err = s.app.GameController.Submit(s.ctx, g.ID, game.Submission{Address: joined.Player.AddressID, Answers: []string{"a"}})
	s.ErrorIs(err, model.ErrGameComplete)

	stats, err := s.app.LeaderboardService.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.TotalGames)
	s.Equal(1, stats.TotalPlayers)
	s.Equal(60.0, stats.AverageDurationSeconds)
}

// Test: Admin creation and login through the wired auth service
func (s *IntegrationSuite) TestAdminLogin() {
	_, err := s.app.AuthService.CreateAdmin(s.ctx, "admin", "secret")
	s.Require().NoError(err)

	session, err := s.app.AuthService.Login(s.ctx, "admin", "secret")
	s.Require().NoError(err)
	s.NotEmpty(session.Token)
}

func TestNewWithRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisstorage.DefaultConfig()
	cfg.URL = "redis://" + mr.Addr()

	app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &cfg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Storage.Close()

	if err := app.Storage.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	for _, cfg := range []Config{
		{StorageType: "cassandra"},
		{StorageType: StorageTypeRedis},
		{StorageType: StorageTypePostgres},
	} {
		if _, err := New(cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}
