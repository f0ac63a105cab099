package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	games         map[model.GameID]*model.Game
	questions     map[model.GameID][]model.Question
	players       map[model.PlayerID]*model.Player
	addressIndex  map[addressKey]model.PlayerID
	gamePlayers   map[model.GameID][]model.PlayerID
	admins        map[model.AdminID]*model.Admin
	usernameIndex map[string]model.AdminID

	nextGameID     model.GameID
	nextQuestionID model.QuestionID
	nextPlayerID   model.PlayerID
	nextAdminID    model.AdminID
}

type addressKey struct {
	gameID  model.GameID
	address string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		games:         make(map[model.GameID]*model.Game),
		questions:     make(map[model.GameID][]model.Question),
		players:       make(map[model.PlayerID]*model.Player),
		addressIndex:  make(map[addressKey]model.PlayerID),
		gamePlayers:   make(map[model.GameID][]model.PlayerID),
		admins:        make(map[model.AdminID]*model.Admin),
		usernameIndex: make(map[string]model.AdminID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGameID++
	game.ID = s.nextGameID
	game.StartTime = storage.UTC(game.StartTime)
	game.CreatedAt = game.CreatedAt.UTC()
	s.games[game.ID] = game.Clone()

	stored := make([]model.Question, len(questions))
	for i := range questions {
		s.nextQuestionID++
		questions[i].ID = s.nextQuestionID
		questions[i].GameID = game.ID
		stored[i] = questions[i]
	}
	s.questions[game.ID] = stored
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) ListGames(ctx context.Context, filter storage.GameFilter) ([]*model.Game, error) {
	s.mu.RLock()
	games := make([]*model.Game, 0, len(s.games))
	for _, g := range s.games {
		if filter.IncompleteOnly && g.IsComplete {
			continue
		}
		games = append(games, g.Clone())
	}
	s.mu.RUnlock()

	storage.SortGames(games, filter.Order)
	return games, nil
}

func (s *Storage) SetStartTime(ctx context.Context, id model.GameID, start, now time.Time) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	if game.IsComplete {
		return nil, model.ErrGameComplete
	}
	if game.StartTime != nil && !game.StartTime.After(now) {
		return nil, model.ErrGameAlreadyStarted
	}

	st := start.UTC()
	game.StartTime = &st
	return game.Clone(), nil
}

func (s *Storage) MarkComplete(ctx context.Context, id model.GameID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[id]
	if !ok {
		return false, model.ErrGameNotFound
	}
	if game.IsComplete {
		return false, nil
	}
	game.IsComplete = true
	return true, nil
}

// Question operations

func (s *Storage) GetQuestions(ctx context.Context, gameID model.GameID) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.games[gameID]; !ok {
		return nil, model.ErrGameNotFound
	}
	out := make([]model.Question, len(s.questions[gameID]))
	copy(out, s.questions[gameID])
	return out, nil
}

// Player operations

func (s *Storage) AddPlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[player.GameID]
	if !ok {
		return model.ErrGameNotFound
	}

	key := addressKey{gameID: player.GameID, address: player.AddressID}
	if _, exists := s.addressIndex[key]; exists {
		return model.ErrAlreadyJoined
	}
	if game.IsComplete {
		return model.ErrGameComplete
	}
	if len(s.gamePlayers[player.GameID]) >= game.MaxPlayers {
		return model.ErrGameFull
	}

	s.nextPlayerID++
	player.ID = s.nextPlayerID
	player.JoinedAt = player.JoinedAt.UTC()

	p := *player
	s.players[p.ID] = &p
	s.addressIndex[key] = p.ID
	s.gamePlayers[p.GameID] = append(s.gamePlayers[p.GameID], p.ID)
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) GetPlayerByAddress(ctx context.Context, gameID model.GameID, address string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.addressIndex[addressKey{gameID: gameID, address: address}]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *s.players[id]
	return &p, nil
}

func (s *Storage) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	s.mu.RLock()
	ids := s.gamePlayers[gameID]
	players := make([]*model.Player, 0, len(ids))
	for _, id := range ids {
		p := *s.players[id]
		players = append(players, &p)
	}
	s.mu.RUnlock()

	storage.SortPlayers(players)
	return players, nil
}

func (s *Storage) CountPlayers(ctx context.Context, gameID model.GameID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gamePlayers[gameID]), nil
}

func (s *Storage) UpdatePlayerScore(ctx context.Context, id model.PlayerID, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return model.ErrPlayerNotFound
	}
	player.Score = score
	return nil
}

// Admin operations

func (s *Storage) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usernameIndex[admin.Username]; exists {
		return model.ErrAdminExists
	}

	s.nextAdminID++
	admin.ID = s.nextAdminID
	admin.CreatedAt = admin.CreatedAt.UTC()

	a := *admin
	s.admins[a.ID] = &a
	s.usernameIndex[a.Username] = a.ID
	return nil
}

func (s *Storage) GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin, ok := s.admins[id]
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	a := *admin
	return &a, nil
}

func (s *Storage) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	a := *s.admins[id]
	return &a, nil
}
