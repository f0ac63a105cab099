package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/storage"
	"github.com/mcoot/trivia-pot/internal/storage/storagetest"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mini.Addr(),
	})
	return NewWithClient(client, DefaultConfig()), mini
}

func TestStorageSuite(t *testing.T) {
	s := &storagetest.Suite{}
	s.New = func() storage.Storage {
		store, _ := newTestStorage(s.T())
		return store
	}
	suite.Run(t, s)
}

func TestKeysUsePrefix(t *testing.T) {
	store, mini := newTestStorage(t)
	ctx := context.Background()

	game := &model.Game{
		TimeLimitSeconds: 60,
		MaxPlayers:       2,
		PotSize:          decimal.NewFromInt(5),
		EntryValue:       decimal.NewFromInt(1),
		CreatedAt:        time.Now(),
	}
	require.NoError(t, store.CreateGame(ctx, game, []model.Question{{Phrase: "a", Answer: "b"}}))

	assert.True(t, mini.Exists(gameKey(game.ID)))
	assert.True(t, mini.Exists(questionsKey(game.ID)))
	members, err := mini.Members(gamesIndexKey())
	require.NoError(t, err)
	assert.Contains(t, members, "1")
}

func TestPlayerIndexesWritten(t *testing.T) {
	store, mini := newTestStorage(t)
	ctx := context.Background()

	game := &model.Game{TimeLimitSeconds: 60, MaxPlayers: 2, CreatedAt: time.Now()}
	require.NoError(t, store.CreateGame(ctx, game, nil))

	p := &model.Player{GameID: game.ID, AddressID: "0xabc", JoinedAt: time.Now()}
	require.NoError(t, store.AddPlayer(ctx, p))

	assert.Equal(t, "1", mini.HGet(addressIndexKey(game.ID), "0xabc"))
	list, err := mini.List(gamePlayersKey(game.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, list)
}

func TestConnectionFailureIsTransient(t *testing.T) {
	store, mini := newTestStorage(t)
	mini.Close()

	_, err := store.GetGame(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestNewRejectsBadURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "not a url"
	_, err := New(cfg)
	assert.Error(t, err)
}
