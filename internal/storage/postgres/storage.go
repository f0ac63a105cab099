package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/storage"
)

// Storage is a Postgres-backed implementation of the storage interface
type Storage struct {
	db *gorm.DB
}

// Open connects to the database at url
func Open(url string) (*Storage, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, storage.Transient(err)
	}
	return NewWithDB(db), nil
}

// NewWithDB creates a Postgres storage with an existing connection
func NewWithDB(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storage.Transient(err)
	}
	return wrap(sqlDB.PingContext(ctx))
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// wrap classifies a database failure as transient, leaving domain errors as is
func wrap(err error) error {
	if err == nil || model.IsNotFound(err) || model.IsConflict(err) || errors.Is(err, model.ErrStoreUnavailable) {
		return err
	}
	return storage.Transient(err)
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game, questions []model.Question) error {
	rec := gameRecord{
		TimeLimitSeconds: game.TimeLimitSeconds,
		MaxPlayers:       game.MaxPlayers,
		PotSize:          game.PotSize,
		EntryValue:       game.EntryValue,
		StartTime:        storage.UTC(game.StartTime),
		CreatedAt:        game.CreatedAt.UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}

		qrecs := make([]questionRecord, len(questions))
		for i, q := range questions {
			qrecs[i] = questionRecord{GameID: rec.ID, Phrase: q.Phrase, Answer: q.Answer}
		}
		if err := tx.Create(&qrecs).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ID = model.QuestionID(qrecs[i].ID)
			questions[i].GameID = model.GameID(rec.ID)
		}
		return nil
	})
	if err != nil {
		return wrap(err)
	}

	*game = *rec.toModel()
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var rec gameRecord
	if err := s.db.WithContext(ctx).First(&rec, int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrGameNotFound
		}
		return nil, wrap(err)
	}
	return rec.toModel(), nil
}

func (s *Storage) ListGames(ctx context.Context, filter storage.GameFilter) ([]*model.Game, error) {
	q := s.db.WithContext(ctx).Model(&gameRecord{})
	if filter.IncompleteOnly {
		q = q.Where("is_complete = ?", false)
	}
	switch filter.Order {
	case storage.OrderByCreatedDesc:
		q = q.Order("created_at DESC").Order("id DESC")
	default:
		q = q.Order("start_time ASC NULLS LAST").Order("id ASC")
	}

	var recs []gameRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, wrap(err)
	}

	games := make([]*model.Game, len(recs))
	for i := range recs {
		games[i] = recs[i].toModel()
	}
	return games, nil
}

func (s *Storage) SetStartTime(ctx context.Context, id model.GameID, start, now time.Time) (*model.Game, error) {
	var rec gameRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, int64(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrGameNotFound
			}
			return err
		}
		if rec.IsComplete {
			return model.ErrGameComplete
		}
		if rec.StartTime != nil && !rec.StartTime.After(now.UTC()) {
			return model.ErrGameAlreadyStarted
		}

		st := start.UTC()
		rec.StartTime = &st
		return tx.Model(&rec).Update("start_time", st).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	return rec.toModel(), nil
}

func (s *Storage) MarkComplete(ctx context.Context, id model.GameID) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&gameRecord{}).
		Where("id = ? AND is_complete = ?", int64(id), false).
		Update("is_complete", true)
	if res.Error != nil {
		return false, wrap(res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// Nothing flipped: either already complete or missing
	if _, err := s.GetGame(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Question operations

func (s *Storage) GetQuestions(ctx context.Context, gameID model.GameID) ([]model.Question, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}

	var recs []questionRecord
	if err := s.db.WithContext(ctx).Where("game_id = ?", int64(gameID)).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, wrap(err)
	}

	questions := make([]model.Question, len(recs))
	for i := range recs {
		questions[i] = recs[i].toModel()
	}
	return questions, nil
}

// Player operations

func (s *Storage) AddPlayer(ctx context.Context, player *model.Player) error {
	rec := playerRecord{
		GameID:    int64(player.GameID),
		AddressID: player.AddressID,
		Score:     player.Score,
		JoinedAt:  player.JoinedAt.UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Locking the game row serializes joins for this game, so the
		// count below cannot go stale before the insert
		var game gameRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, rec.GameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrGameNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&playerRecord{}).
			Where("game_id = ? AND address_id = ?", rec.GameID, rec.AddressID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return model.ErrAlreadyJoined
		}
		if game.IsComplete {
			return model.ErrGameComplete
		}

		var count int64
		if err := tx.Model(&playerRecord{}).Where("game_id = ?", rec.GameID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(game.MaxPlayers) {
			return model.ErrGameFull
		}

		return tx.Create(&rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyJoined
		}
		return wrap(err)
	}

	*player = *rec.toModel()
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var rec playerRecord
	if err := s.db.WithContext(ctx).First(&rec, int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, wrap(err)
	}
	return rec.toModel(), nil
}

func (s *Storage) GetPlayerByAddress(ctx context.Context, gameID model.GameID, address string) (*model.Player, error) {
	var rec playerRecord
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND address_id = ?", int64(gameID), address).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, wrap(err)
	}
	return rec.toModel(), nil
}

func (s *Storage) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	var recs []playerRecord
	err := s.db.WithContext(ctx).
		Where("game_id = ?", int64(gameID)).
		Order("joined_at ASC").Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, wrap(err)
	}

	players := make([]*model.Player, len(recs))
	for i := range recs {
		players[i] = recs[i].toModel()
	}
	return players, nil
}

func (s *Storage) CountPlayers(ctx context.Context, gameID model.GameID) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&playerRecord{}).Where("game_id = ?", int64(gameID)).Count(&count).Error; err != nil {
		return 0, wrap(err)
	}
	return int(count), nil
}

func (s *Storage) UpdatePlayerScore(ctx context.Context, id model.PlayerID, score int) error {
	res := s.db.WithContext(ctx).Model(&playerRecord{}).Where("id = ?", int64(id)).Update("score", score)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

// Admin operations

func (s *Storage) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	rec := adminRecord{
		Username:     admin.Username,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    admin.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return model.ErrAdminExists
		}
		return wrap(err)
	}
	*admin = *rec.toModel()
	return nil
}

func (s *Storage) GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error) {
	var rec adminRecord
	if err := s.db.WithContext(ctx).First(&rec, int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrAdminNotFound
		}
		return nil, wrap(err)
	}
	return rec.toModel(), nil
}

func (s *Storage) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var rec adminRecord
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrAdminNotFound
		}
		return nil, wrap(err)
	}
	return rec.toModel(), nil
}
