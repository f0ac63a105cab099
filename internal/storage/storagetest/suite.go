// Package storagetest holds a conformance suite run against every storage
// backend.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/storage"
)

// Suite exercises the storage.Storage contract. Backends embed or construct
// it with a New func returning an empty store.
type Suite struct {
	suite.Suite
	New func() storage.Storage

	storage storage.Storage
	ctx     context.Context
	now     time.Time
}

func (s *Suite) SetupTest() {
	s.storage = s.New()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *Suite) createGame(maxPlayers int, start *time.Time, questions ...string) *model.Game {
	game := &model.Game{
		TimeLimitSeconds: 300,
		MaxPlayers:       maxPlayers,
		PotSize:          decimal.RequireFromString("10.5"),
		EntryValue:       decimal.RequireFromString("0.25"),
		StartTime:        start,
		CreatedAt:        s.now,
	}
	qs := make([]model.Question, 0, len(questions)/2)
	for i := 0; i+1 < len(questions); i += 2 {
		qs = append(qs, model.Question{Phrase: questions[i], Answer: questions[i+1]})
	}
	s.Require().NoError(s.storage.CreateGame(s.ctx, game, qs))
	return game
}

func address(n int) string {
	return fmt.Sprintf("0x%040d", n)
}

func (s *Suite) addPlayer(gameID model.GameID, n int, joinedAt time.Time) *model.Player {
	p := &model.Player{GameID: gameID, AddressID: address(n), JoinedAt: joinedAt}
	s.Require().NoError(s.storage.AddPlayer(s.ctx, p))
	return p
}

// Game tests

func (s *Suite) TestCreateAndGetGame() {
	start := s.now.Add(time.Hour)
	game := s.createGame(10, &start, "capital of France", "Paris", "2+2", "4")
	s.NotZero(game.ID)

	got, err := s.storage.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(game.ID, got.ID)
	s.Equal(300, got.TimeLimitSeconds)
	s.Equal(10, got.MaxPlayers)
	s.True(decimal.RequireFromString("10.5").Equal(got.PotSize))
	s.True(decimal.RequireFromString("0.25").Equal(got.EntryValue))
	s.Require().NotNil(got.StartTime)
	s.True(start.Equal(*got.StartTime))
	s.Equal(time.UTC, got.StartTime.Location())
	s.False(got.IsComplete)
}

func (s *Suite) TestCreateGameAssignsDistinctIDs() {
	a := s.createGame(2, nil)
	b := s.createGame(2, nil)
	s.NotEqual(a.ID, b.ID)
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.storage.GetGame(s.ctx, 9999)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestGetQuestionsInCreationOrder() {
	game := s.createGame(2, nil, "one", "1", "two", "2", "three", "3")

	qs, err := s.storage.GetQuestions(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().Len(qs, 3)
	s.Equal("one", qs[0].Phrase)
	s.Equal("2", qs[1].Answer)
	s.Equal("three", qs[2].Phrase)
	for _, q := range qs {
		s.Equal(game.ID, q.GameID)
		s.NotZero(q.ID)
	}
}

func (s *Suite) TestGetQuestionsUnknownGame() {
	_, err := s.storage.GetQuestions(s.ctx, 9999)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestListGamesOrderedByStartTimeNullsLast() {
	late := s.now.Add(2 * time.Hour)
	early := s.now.Add(time.Hour)
	pending := s.createGame(2, nil)
	lateGame := s.createGame(2, &late)
	earlyGame := s.createGame(2, &early)

	games, err := s.storage.ListGames(s.ctx, storage.GameFilter{Order: storage.OrderByStartTime})
	s.Require().NoError(err)
	s.Require().Len(games, 3)
	s.Equal(earlyGame.ID, games[0].ID)
	s.Equal(lateGame.ID, games[1].ID)
	s.Equal(pending.ID, games[2].ID)
}

func (s *Suite) TestListGamesIncompleteOnly() {
	done := s.createGame(2, nil)
	open := s.createGame(2, nil)
	_, err := s.storage.MarkComplete(s.ctx, done.ID)
	s.Require().NoError(err)

	games, err := s.storage.ListGames(s.ctx, storage.GameFilter{IncompleteOnly: true})
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal(open.ID, games[0].ID)

	all, err := s.storage.ListGames(s.ctx, storage.GameFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *Suite) TestListGamesNewestFirst() {
	first := s.createGame(2, nil)
	s.now = s.now.Add(time.Minute)
	second := s.createGame(2, nil)

	games, err := s.storage.ListGames(s.ctx, storage.GameFilter{Order: storage.OrderByCreatedDesc})
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Equal(second.ID, games[0].ID)
	s.Equal(first.ID, games[1].ID)
}

func (s *Suite) TestSetStartTimeOnPendingGame() {
	game := s.createGame(2, nil)

	updated, err := s.storage.SetStartTime(s.ctx, game.ID, s.now, s.now)
	s.Require().NoError(err)
	s.Require().NotNil(updated.StartTime)
	s.True(s.now.Equal(*updated.StartTime))

	got, err := s.storage.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.True(s.now.Equal(*got.StartTime))
}

func (s *Suite) TestSetStartTimeOnScheduledGame() {
	future := s.now.Add(time.Hour)
	game := s.createGame(2, &future)

	updated, err := s.storage.SetStartTime(s.ctx, game.ID, s.now, s.now)
	s.Require().NoError(err)
	s.True(s.now.Equal(*updated.StartTime))
}

func (s *Suite) TestSetStartTimeRejectsStartedGame() {
	past := s.now.Add(-time.Minute)
	game := s.createGame(2, &past)

	_, err := s.storage.SetStartTime(s.ctx, game.ID, s.now, s.now)
	s.ErrorIs(err, model.ErrGameAlreadyStarted)
}

func (s *Suite) TestSetStartTimeRejectsCompleteGame() {
	game := s.createGame(2, nil)
	_, err := s.storage.MarkComplete(s.ctx, game.ID)
	s.Require().NoError(err)

	_, err = s.storage.SetStartTime(s.ctx, game.ID, s.now, s.now)
	s.ErrorIs(err, model.ErrGameComplete)
}

func (s *Suite) TestSetStartTimeNotFound() {
	_, err := s.storage.SetStartTime(s.ctx, 9999, s.now, s.now)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestMarkCompleteOnlyOnce() {
	game := s.createGame(2, nil)

	flipped, err := s.storage.MarkComplete(s.ctx, game.ID)
	s.Require().NoError(err)
	s.True(flipped)

	flipped, err = s.storage.MarkComplete(s.ctx, game.ID)
	s.Require().NoError(err)
	s.False(flipped)

	got, err := s.storage.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.True(got.IsComplete)
}

func (s *Suite) TestMarkCompleteConcurrent() {
	game := s.createGame(2, nil)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	flips := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flipped, err := s.storage.MarkComplete(s.ctx, game.ID)
			if err == nil && flipped {
				mu.Lock()
				flips++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, flips)
}

func (s *Suite) TestMarkCompleteNotFound() {
	_, err := s.storage.MarkComplete(s.ctx, 9999)
	s.ErrorIs(err, model.ErrGameNotFound)
}

// Player tests

func (s *Suite) TestAddAndGetPlayer() {
	game := s.createGame(2, nil)
	p := s.addPlayer(game.ID, 1, s.now)
	s.NotZero(p.ID)

	got, err := s.storage.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(game.ID, got.GameID)
	s.Equal(address(1), got.AddressID)
	s.Equal(0, got.Score)
	s.True(s.now.Equal(got.JoinedAt))

	byAddr, err := s.storage.GetPlayerByAddress(s.ctx, game.ID, address(1))
	s.Require().NoError(err)
	s.Equal(p.ID, byAddr.ID)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, 9999)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	game := s.createGame(2, nil)
	_, err = s.storage.GetPlayerByAddress(s.ctx, game.ID, address(1))
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestAddPlayerDuplicateAddress() {
	game := s.createGame(5, nil)
	s.addPlayer(game.ID, 1, s.now)

	err := s.storage.AddPlayer(s.ctx, &model.Player{GameID: game.ID, AddressID: address(1), JoinedAt: s.now})
	s.ErrorIs(err, model.ErrAlreadyJoined)

	count, err := s.storage.CountPlayers(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestAddPlayerSameAddressDifferentGames() {
	a := s.createGame(2, nil)
	b := s.createGame(2, nil)
	s.addPlayer(a.ID, 1, s.now)
	s.addPlayer(b.ID, 1, s.now)
}

func (s *Suite) TestAddPlayerAtCapacity() {
	game := s.createGame(2, nil)
	s.addPlayer(game.ID, 1, s.now)
	s.addPlayer(game.ID, 2, s.now)

	err := s.storage.AddPlayer(s.ctx, &model.Player{GameID: game.ID, AddressID: address(3), JoinedAt: s.now})
	s.ErrorIs(err, model.ErrGameFull)
}

func (s *Suite) TestAddPlayerCompleteGame() {
	start := s.now.Add(-time.Minute)
	game := s.createGame(5, &start)
	s.addPlayer(game.ID, 1, s.now)
	_, err := s.storage.MarkComplete(s.ctx, game.ID)
	s.Require().NoError(err)

	err = s.storage.AddPlayer(s.ctx, &model.Player{GameID: game.ID, AddressID: address(2), JoinedAt: s.now})
	s.ErrorIs(err, model.ErrGameComplete)

	// A registered address is still reported as a duplicate
	err = s.storage.AddPlayer(s.ctx, &model.Player{GameID: game.ID, AddressID: address(1), JoinedAt: s.now})
	s.ErrorIs(err, model.ErrAlreadyJoined)

	count, err := s.storage.CountPlayers(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestAddPlayerUnknownGame() {
	err := s.storage.AddPlayer(s.ctx, &model.Player{GameID: 9999, AddressID: address(1), JoinedAt: s.now})
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestAddPlayerConcurrentNeverExceedsCapacity() {
	const capacity = 5
	const joiners = 20
	game := s.createGame(capacity, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, full := 0, 0
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := s.storage.AddPlayer(s.ctx, &model.Player{GameID: game.ID, AddressID: address(n), JoinedAt: s.now})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, model.ErrGameFull):
				full++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(capacity, succeeded)
	s.Equal(joiners-capacity, full)

	count, err := s.storage.CountPlayers(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(capacity, count)
}

func (s *Suite) TestAddPlayerConcurrentSameAddress() {
	game := s.createGame(10, nil)

	const joiners = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, dup := 0, 0
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.storage.AddPlayer(s.ctx, &model.Player{GameID: game.ID, AddressID: address(7), JoinedAt: s.now})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, model.ErrAlreadyJoined):
				dup++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(joiners-1, dup)
}

func (s *Suite) TestListPlayersInJoinOrder() {
	game := s.createGame(5, nil)
	second := s.addPlayer(game.ID, 2, s.now.Add(time.Second))
	first := s.addPlayer(game.ID, 1, s.now)
	third := s.addPlayer(game.ID, 3, s.now.Add(2*time.Second))

	players, err := s.storage.ListPlayers(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal(first.ID, players[0].ID)
	s.Equal(second.ID, players[1].ID)
	s.Equal(third.ID, players[2].ID)
}

func (s *Suite) TestListPlayersEmpty() {
	game := s.createGame(5, nil)

	players, err := s.storage.ListPlayers(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Empty(players)

	count, err := s.storage.CountPlayers(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *Suite) TestUpdatePlayerScore() {
	game := s.createGame(5, nil)
	p := s.addPlayer(game.ID, 1, s.now)

	s.Require().NoError(s.storage.UpdatePlayerScore(s.ctx, p.ID, 3))
	got, err := s.storage.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Score)

	s.Require().NoError(s.storage.UpdatePlayerScore(s.ctx, p.ID, 1))
	got, err = s.storage.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Score)
}

func (s *Suite) TestUpdatePlayerScoreNotFound() {
	err := s.storage.UpdatePlayerScore(s.ctx, 9999, 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Admin tests

func (s *Suite) TestCreateAndGetAdmin() {
	admin := &model.Admin{Username: "root", PasswordHash: "hash", CreatedAt: s.now}
	s.Require().NoError(s.storage.CreateAdmin(s.ctx, admin))
	s.NotZero(admin.ID)

	got, err := s.storage.GetAdmin(s.ctx, admin.ID)
	s.Require().NoError(err)
	s.Equal("root", got.Username)
	s.Equal("hash", got.PasswordHash)

	byName, err := s.storage.GetAdminByUsername(s.ctx, "root")
	s.Require().NoError(err)
	s.Equal(admin.ID, byName.ID)
}

func (s *Suite) TestCreateAdminDuplicate() {
	s.Require().NoError(s.storage.CreateAdmin(s.ctx, &model.Admin{Username: "root", PasswordHash: "a", CreatedAt: s.now}))

	err := s.storage.CreateAdmin(s.ctx, &model.Admin{Username: "root", PasswordHash: "b", CreatedAt: s.now})
	s.ErrorIs(err, model.ErrAdminExists)
}

func (s *Suite) TestGetAdminNotFound() {
	_, err := s.storage.GetAdmin(s.ctx, 9999)
	s.ErrorIs(err, model.ErrAdminNotFound)

	_, err = s.storage.GetAdminByUsername(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrAdminNotFound)
}
