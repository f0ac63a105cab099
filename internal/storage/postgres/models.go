package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/storage"
)

type gameRecord struct {
	ID               int64           `gorm:"primaryKey"`
	TimeLimitSeconds int             `gorm:"not null"`
	MaxPlayers       int             `gorm:"not null"`
	PotSize          decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	EntryValue       decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	StartTime        *time.Time
	IsComplete       bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"not null"`
}

func (gameRecord) TableName() string { return "games" }

func (r *gameRecord) toModel() *model.Game {
	return &model.Game{
		ID:               model.GameID(r.ID),
		TimeLimitSeconds: r.TimeLimitSeconds,
		MaxPlayers:       r.MaxPlayers,
		PotSize:          r.PotSize,
		EntryValue:       r.EntryValue,
		StartTime:        storage.UTC(r.StartTime),
		IsComplete:       r.IsComplete,
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

type questionRecord struct {
	ID     int64  `gorm:"primaryKey"`
	GameID int64  `gorm:"index;not null"`
	Phrase string `gorm:"size:255;not null"`
	Answer string `gorm:"size:255;not null"`
}

func (questionRecord) TableName() string { return "questions" }

func (r *questionRecord) toModel() model.Question {
	return model.Question{
		ID:     model.QuestionID(r.ID),
		GameID: model.GameID(r.GameID),
		Phrase: r.Phrase,
		Answer: r.Answer,
	}
}

type playerRecord struct {
	ID        int64     `gorm:"primaryKey"`
	GameID    int64     `gorm:"not null;uniqueIndex:uq_players_game_address"`
	AddressID string    `gorm:"size:42;not null;uniqueIndex:uq_players_game_address"`
	Score     int       `gorm:"not null;default:0"`
	JoinedAt  time.Time `gorm:"not null"`
}

func (playerRecord) TableName() string { return "players" }

func (r *playerRecord) toModel() *model.Player {
	return &model.Player{
		ID:        model.PlayerID(r.ID),
		GameID:    model.GameID(r.GameID),
		AddressID: r.AddressID,
		Score:     r.Score,
		JoinedAt:  r.JoinedAt.UTC(),
	}
}

type adminRecord struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (adminRecord) TableName() string { return "admins" }

func (r *adminRecord) toModel() *model.Admin {
	return &model.Admin{
		ID:           model.AdminID(r.ID),
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}
