package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/storage"
)

var errTxContention = errors.New("redis transaction retries exhausted")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, storage.Transient(err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *Storage) Ping(ctx context.Context) error {
	return wrap(s.client.Ping(ctx).Err())
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// wrap classifies a Redis failure as transient, leaving domain errors as is
func wrap(err error) error {
	if err == nil || model.IsNotFound(err) || model.IsConflict(err) || errors.Is(err, model.ErrStoreUnavailable) {
		return err
	}
	return storage.Transient(err)
}

func (s *Storage) getJSON(ctx context.Context, key string, notFound error, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return wrap(err)
	}
	return json.Unmarshal(data, v)
}

// update applies fn to the value at key inside an optimistic transaction,
// retrying when another writer touches the key. fn reports whether the value
// should be written back.
func update[T any](ctx context.Context, s *Storage, key string, notFound error, fn func(*T) (bool, error)) (*T, bool, error) {
	var (
		result  *T
		written bool
	)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return notFound
			}
			return err
		}

		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		write, err := fn(&v)
		if err != nil {
			return err
		}
		result, written = &v, write
		if !write {
			return nil
		}

		encoded, err := json.Marshal(&v)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	}

	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, false, wrap(err)
		}
		return result, written, nil
	}
	return nil, false, storage.Transient(errTxContention)
}

func normalizeGame(g *model.Game) *model.Game {
	g.StartTime = storage.UTC(g.StartTime)
	g.CreatedAt = g.CreatedAt.UTC()
	return g
}

func normalizePlayer(p *model.Player) *model.Player {
	p.JoinedAt = p.JoinedAt.UTC()
	return p
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game, questions []model.Question) error {
	id, err := s.client.Incr(ctx, sequenceKey("game")).Result()
	if err != nil {
		return wrap(err)
	}
	game.ID = model.GameID(id)
	normalizeGame(game)

	if n := int64(len(questions)); n > 0 {
		last, err := s.client.IncrBy(ctx, sequenceKey("question"), n).Result()
		if err != nil {
			return wrap(err)
		}
		for i := range questions {
			questions[i].ID = model.QuestionID(last - n + 1 + int64(i))
			questions[i].GameID = game.ID
		}
	}

	gameData, err := json.Marshal(game)
	if err != nil {
		return err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	questionData, err := json.Marshal(questions)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(game.ID), gameData, 0)
		pipe.Set(ctx, questionsKey(game.ID), questionData, 0)
		pipe.SAdd(ctx, gamesIndexKey(), int64(game.ID))
		return nil
	})
	return wrap(err)
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var game model.Game
	if err := s.getJSON(ctx, gameKey(id), model.ErrGameNotFound, &game); err != nil {
		return nil, err
	}
	return normalizeGame(&game), nil
}

func (s *Storage) ListGames(ctx context.Context, filter storage.GameFilter) ([]*model.Game, error) {
	ids, err := s.client.SMembers(ctx, gamesIndexKey()).Result()
	if err != nil {
		return nil, wrap(err)
	}
	if len(ids) == 0 {
		return []*model.Game{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue // Skip invalid index entries
		}
		keys = append(keys, gameKey(model.GameID(id)))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrap(err)
	}

	games := make([]*model.Game, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var game model.Game
		if err := json.Unmarshal([]byte(str), &game); err != nil {
			continue // Skip invalid data
		}
		if filter.IncompleteOnly && game.IsComplete {
			continue
		}
		games = append(games, normalizeGame(&game))
	}

	storage.SortGames(games, filter.Order)
	return games, nil
}

func (s *Storage) SetStartTime(ctx context.Context, id model.GameID, start, now time.Time) (*model.Game, error) {
	game, _, err := update(ctx, s, gameKey(id), model.ErrGameNotFound, func(g *model.Game) (bool, error) {
		if g.IsComplete {
			return false, model.ErrGameComplete
		}
		if g.StartTime != nil && !g.StartTime.After(now) {
			return false, model.ErrGameAlreadyStarted
		}
		st := start.UTC()
		g.StartTime = &st
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return normalizeGame(game), nil
}

func (s *Storage) MarkComplete(ctx context.Context, id model.GameID) (bool, error) {
	_, written, err := update(ctx, s, gameKey(id), model.ErrGameNotFound, func(g *model.Game) (bool, error) {
		if g.IsComplete {
			return false, nil
		}
		g.IsComplete = true
		return true, nil
	})
	return written, err
}

// Question operations

func (s *Storage) GetQuestions(ctx context.Context, gameID model.GameID) ([]model.Question, error) {
	var questions []model.Question
	if err := s.getJSON(ctx, questionsKey(gameID), model.ErrGameNotFound, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Player operations

func (s *Storage) AddPlayer(ctx context.Context, player *model.Player) error {
	// MaxPlayers never changes after creation, so reading it outside the
	// script is safe
	game, err := s.GetGame(ctx, player.GameID)
	if err != nil {
		return err
	}

	id, err := s.client.Incr(ctx, sequenceKey("player")).Result()
	if err != nil {
		return wrap(err)
	}

	candidate := *player
	candidate.ID = model.PlayerID(id)
	normalizePlayer(&candidate)
	data, err := json.Marshal(&candidate)
	if err != nil {
		return err
	}

	keys := []string{
		gameKey(player.GameID),
		addressIndexKey(player.GameID),
		gamePlayersKey(player.GameID),
		playerKey(candidate.ID),
	}
	result, err := addPlayerScript.Run(ctx, s.client, keys,
		player.AddressID, game.MaxPlayers, id, data).Int()
	if err != nil {
		return wrap(err)
	}

	switch result {
	case addPlayerOK:
		*player = candidate
		return nil
	case addPlayerNoGame:
		return model.ErrGameNotFound
	case addPlayerDuplicate:
		return model.ErrAlreadyJoined
	case addPlayerCapacityHit:
		return model.ErrGameFull
	case addPlayerComplete:
		return model.ErrGameComplete
	default:
		return storage.Transient(errors.New("unexpected add player result " + strconv.Itoa(result)))
	}
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	if err := s.getJSON(ctx, playerKey(id), model.ErrPlayerNotFound, &player); err != nil {
		return nil, err
	}
	return normalizePlayer(&player), nil
}

func (s *Storage) GetPlayerByAddress(ctx context.Context, gameID model.GameID, address string) (*model.Player, error) {
	raw, err := s.client.HGet(ctx, addressIndexKey(gameID), address).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, wrap(err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return s.GetPlayer(ctx, model.PlayerID(id))
}

func (s *Storage) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	ids, err := s.client.LRange(ctx, gamePlayersKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, wrap(err)
	}
	if len(ids) == 0 {
		return []*model.Player{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, playerKey(model.PlayerID(id)))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrap(err)
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			continue // Skip invalid data
		}
		players = append(players, normalizePlayer(&player))
	}

	storage.SortPlayers(players)
	return players, nil
}

func (s *Storage) CountPlayers(ctx context.Context, gameID model.GameID) (int, error) {
	n, err := s.client.LLen(ctx, gamePlayersKey(gameID)).Result()
	if err != nil {
		return 0, wrap(err)
	}
	return int(n), nil
}

func (s *Storage) UpdatePlayerScore(ctx context.Context, id model.PlayerID, score int) error {
	_, _, err := update(ctx, s, playerKey(id), model.ErrPlayerNotFound, func(p *model.Player) (bool, error) {
		p.Score = score
		return true, nil
	})
	return err
}

// Admin operations

func (s *Storage) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	id, err := s.client.Incr(ctx, sequenceKey("admin")).Result()
	if err != nil {
		return wrap(err)
	}

	candidate := *admin
	candidate.ID = model.AdminID(id)
	candidate.CreatedAt = candidate.CreatedAt.UTC()
	data, err := json.Marshal(&candidate)
	if err != nil {
		return err
	}

	ok, err := createAdminScript.Run(ctx, s.client,
		[]string{usernameIndexKey(admin.Username), adminKey(candidate.ID)},
		id, data).Int()
	if err != nil {
		return wrap(err)
	}
	if ok == 0 {
		return model.ErrAdminExists
	}
	*admin = candidate
	return nil
}

func (s *Storage) GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error) {
	var admin model.Admin
	if err := s.getJSON(ctx, adminKey(id), model.ErrAdminNotFound, &admin); err != nil {
		return nil, err
	}
	admin.CreatedAt = admin.CreatedAt.UTC()
	return &admin, nil
}

func (s *Storage) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	raw, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAdminNotFound
		}
		return nil, wrap(err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return s.GetAdmin(ctx, model.AdminID(id))
}
