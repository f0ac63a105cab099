package templates

import (
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/leaderboard"
)

// FlashMessage is a one-shot notice shown on the next page
type FlashMessage struct {
	Type    string // success, error, warning, info
	Message string
}

// PageData is shared by every page
type PageData struct {
	Title string
	Flash *FlashMessage
	// Admin is the logged-in admin's username, empty for visitors
	Admin string
}

// IndexData is the data for the game list
type IndexData struct {
	PageData
	Games []model.GameSummary
}

// JoinData is the data for the join form
type JoinData struct {
	PageData
	Game        *model.Game
	State       model.GameState
	PlayerCount int
	Address     string
	FieldErrors map[string]string
}

// LobbyData is the data for a game's waiting room
type LobbyData struct {
	PageData
	Game    *model.Game
	State   model.GameState
	Players []*model.Player
	Address string
}

// PlayData is the data for the answer sheet
type PlayData struct {
	PageData
	Game      *model.Game
	Questions []model.Question
	Address   string
}

// ResultData is the data for a game's result page
type ResultData struct {
	PageData
	Game    *model.Game
	State   model.GameState
	Players []*model.Player
	Winner  *model.Player
}

// ErrorData is the data for error pages
type ErrorData struct {
	PageData
	Status  int
	Message string
}

// LoginData is the data for the admin login form
type LoginData struct {
	PageData
	Username string
	Next     string
	Error    string
}

// DashboardData is the data for the admin dashboard
type DashboardData struct {
	PageData
	Games []model.GameSummary
}

// QuestionField is one phrase/answer row of the create form
type QuestionField struct {
	Index  int
	Phrase string
	Answer string
}

// CreateGameData is the data for the create game form
type CreateGameData struct {
	PageData
	TimeLimit   string
	MaxPlayers  string
	PotSize     string
	EntryValue  string
	StartTime   string
	Questions   []QuestionField
	FieldErrors map[string]string
}

// GameStatsData is the data for one game's admin view
type GameStatsData struct {
	PageData
	Game    *model.Game
	State   model.GameState
	Players []*model.Player
	Winner  *model.Player
}

// StatsData is the data for global statistics
type StatsData struct {
	PageData
	Stats *leaderboard.Stats
}
