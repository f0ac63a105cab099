package response

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/auth"
	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/services/leaderboard"
	"github.com/mcoot/trivia-pot/internal/services/lobby"
)

// Game represents a game in API responses
type Game struct {
	ID          int64           `json:"id"`
	State       string          `json:"state"`
	TimeLimit   int             `json:"time_limit"`
	MaxPlayers  int             `json:"max_players"`
	PotSize     decimal.Decimal `json:"pot_size"`
	EntryValue  decimal.Decimal `json:"entry_value"`
	StartTime   *time.Time      `json:"start_time"`
	EndTime     *time.Time      `json:"end_time"`
	IsComplete  bool            `json:"is_complete"`
	CreatedAt   time.Time       `json:"created_at"`
	PlayerCount int             `json:"player_count"`
}

// GameFromModel converts a model.Game in the given state
func GameFromModel(g *model.Game, state model.GameState, playerCount int) Game {
	return Game{
		ID:          int64(g.ID),
		State:       string(state),
		TimeLimit:   g.TimeLimitSeconds,
		MaxPlayers:  g.MaxPlayers,
		PotSize:     g.PotSize,
		EntryValue:  g.EntryValue,
		StartTime:   g.StartTime,
		EndTime:     g.EndTime(),
		IsComplete:  g.IsComplete,
		CreatedAt:   g.CreatedAt,
		PlayerCount: playerCount,
	}
}

// GameFromSummary converts a model.GameSummary
func GameFromSummary(s model.GameSummary) Game {
	return GameFromModel(s.Game, s.State, s.PlayerCount)
}

// GameList is the response for game listings
type GameList struct {
	Games []Game `json:"games"`
}

// GameListFromSummaries converts a slice of summaries
func GameListFromSummaries(summaries []model.GameSummary) GameList {
	games := make([]Game, 0, len(summaries))
	for _, s := range summaries {
		games = append(games, GameFromSummary(s))
	}
	return GameList{Games: games}
}

// Player represents a registered address in API responses
type Player struct {
	ID       int64     `json:"id"`
	GameID   int64     `json:"game_id"`
	Address  string    `json:"address"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:       int64(p.ID),
		GameID:   int64(p.GameID),
		Address:  p.AddressID,
		Score:    p.Score,
		JoinedAt: p.JoinedAt,
	}
}

// PlayersFromModel converts a slice of players
func PlayersFromModel(players []*model.Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerFromModel(p))
	}
	return out
}

// GameDetail is a game with its registered players
type GameDetail struct {
	Game    Game     `json:"game"`
	Players []Player `json:"players"`
}

// Question is a question as shown to players. The answer is never included.
type Question struct {
	ID     int64  `json:"id"`
	Phrase string `json:"phrase"`
}

// Questions is the response for an active game's question list
type Questions struct {
	GameID    int64      `json:"game_id"`
	EndTime   *time.Time `json:"end_time"`
	Questions []Question `json:"questions"`
}

// QuestionsFromModel strips answers from the questions of an active game
func QuestionsFromModel(g *model.Game, questions []model.Question) Questions {
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, Question{ID: int64(q.ID), Phrase: q.Phrase})
	}
	return Questions{GameID: int64(g.ID), EndTime: g.EndTime(), Questions: out}
}

// AdminQuestion includes the answer, for the admin who created the game
type AdminQuestion struct {
	ID     int64  `json:"id"`
	Phrase string `json:"phrase"`
	Answer string `json:"answer"`
}

// CreatedGame is the response for creating a game
type CreatedGame struct {
	Game      Game            `json:"game"`
	Questions []AdminQuestion `json:"questions"`
}

// CreatedGameFromModel converts a freshly created game and its questions
func CreatedGameFromModel(g *model.Game, state model.GameState, questions []model.Question) CreatedGame {
	out := make([]AdminQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, AdminQuestion{ID: int64(q.ID), Phrase: q.Phrase, Answer: q.Answer})
	}
	return CreatedGame{Game: GameFromModel(g, state, 0), Questions: out}
}

// JoinResult is the response for joining a game
type JoinResult struct {
	Player        Player `json:"player"`
	AlreadyJoined bool   `json:"already_joined"`
	PlayerCount   int    `json:"player_count"`
}

// JoinResultFromModel converts a lobby.JoinResult
func JoinResultFromModel(r *lobby.JoinResult) JoinResult {
	return JoinResult{
		Player:        PlayerFromModel(r.Player),
		AlreadyJoined: r.AlreadyJoined,
		PlayerCount:   r.PlayerCount,
	}
}

// SubmitResult is the response for submitting answers
type SubmitResult struct {
	Message      string `json:"message"`
	Score        int    `json:"score"`
	GameComplete bool   `json:"game_complete"`
	Won          bool   `json:"won"`
}

// SubmitResultFromModel converts a game.SubmitResult
func SubmitResultFromModel(r *game.SubmitResult) SubmitResult {
	message := "Answers submitted successfully"
	if r.Won {
		message = "Congratulations! You won the game!"
	}
	return SubmitResult{
		Message:      message,
		Score:        r.Score,
		GameComplete: r.GameComplete,
		Won:          r.Won,
	}
}

// Standings is the ranked player list of one game
type Standings struct {
	GameID  int64    `json:"game_id"`
	State   string   `json:"state"`
	Players []Player `json:"players"`
	// Winner is set once the game is complete and had at least one player
	Winner *Player `json:"winner"`
}

// StandingsFromModel converts ranked players
func StandingsFromModel(gameID model.GameID, state model.GameState, ranked []*model.Player) Standings {
	s := Standings{
		GameID:  int64(gameID),
		State:   string(state),
		Players: PlayersFromModel(ranked),
	}
	if state == model.GameStateComplete {
		if w := leaderboard.Winner(ranked); w != nil {
			p := PlayerFromModel(w)
			s.Winner = &p
		}
	}
	return s
}

// Stats are aggregates across all games
type Stats struct {
	TotalGames             int             `json:"total_games"`
	TotalPot               decimal.Decimal `json:"total_pot"`
	TotalPlayers           int             `json:"total_players"`
	AverageDurationSeconds float64         `json:"average_duration_seconds"`
	AveragePayout          decimal.Decimal `json:"average_payout"`
}

// StatsFromModel converts leaderboard.Stats
func StatsFromModel(s *leaderboard.Stats) Stats {
	return Stats{
		TotalGames:             s.TotalGames,
		TotalPot:               s.TotalPot,
		TotalPlayers:           s.TotalPlayers,
		AverageDurationSeconds: s.AverageDurationSeconds,
		AveragePayout:          s.AveragePayout,
	}
}

// Session is the response for admin login
type Session struct {
	Username     string    `json:"username"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionFromModel creates a Session response from an auth session
func SessionFromModel(s *auth.Session) Session {
	return Session{
		Username:     s.Username,
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Health is the response for the health check
type Health struct {
	Status string `json:"status"`
}
