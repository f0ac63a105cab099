package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case GameList:
		o.printGameList(v)
	case GameDetail:
		o.printGameDetail(v)
	case Game:
		o.printGame(v)
	case CreatedGame:
		o.printCreatedGame(v)
	case JoinResult:
		o.printJoinResult(v)
	case Questions:
		o.printQuestions(v)
	case SubmitResult:
		o.printSubmitResult(v)
	case Standings:
		o.printStandings(v)
	case Stats:
		o.printStats(v)
	case Session:
		o.printSession(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Game response type (matches API)
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

// GameList response type
type GameList struct {
	Games []Game `json:"games"`
}

// Player response type
type Player struct {
	ID       int64     `json:"id"`
	GameID   int64     `json:"game_id"`
	Address  string    `json:"address"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// GameDetail response type
type GameDetail struct {
	Game    Game     `json:"game"`
	Players []Player `json:"players"`
}

// Question response type
type Question struct {
	ID     int64  `json:"id"`
	Phrase string `json:"phrase"`
	Answer string `json:"answer,omitempty"`
}

// Questions response type
type Questions struct {
	GameID    int64      `json:"game_id"`
	EndTime   *time.Time `json:"end_time"`
	Questions []Question `json:"questions"`
}

// CreatedGame response type
type CreatedGame struct {
	Game      Game       `json:"game"`
	Questions []Question `json:"questions"`
}

// JoinResult response type
type JoinResult struct {
	Player        Player `json:"player"`
	AlreadyJoined bool   `json:"already_joined"`
	PlayerCount   int    `json:"player_count"`
}

// SubmitResult response type
type SubmitResult struct {
	Message      string `json:"message"`
	Score        int    `json:"score"`
	GameComplete bool   `json:"game_complete"`
	Won          bool   `json:"won"`
}

// Standings response type
type Standings struct {
	GameID  int64    `json:"game_id"`
	State   string   `json:"state"`
	Players []Player `json:"players"`
	Winner  *Player  `json:"winner"`
}

// Stats response type
type Stats struct {
	TotalGames             int             `json:"total_games"`
	TotalPot               decimal.Decimal `json:"total_pot"`
	TotalPlayers           int             `json:"total_players"`
	AverageDurationSeconds float64         `json:"average_duration_seconds"`
	AveragePayout          decimal.Decimal `json:"average_payout"`
}

// Session response type
type Session struct {
	Username     string    `json:"username"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "not scheduled"
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

func (o *Output) printGameList(l GameList) {
	if len(l.Games) == 0 {
		fmt.Fprintln(o.w, "No games")
		return
	}
	fmt.Fprintf(o.w, "%-6s %-10s %-8s %-12s %s\n", "ID", "STATE", "PLAYERS", "POT", "START")
	for _, g := range l.Games {
		fmt.Fprintf(o.w, "%-6d %-10s %-8s %-12s %s\n",
			g.ID, g.State, fmt.Sprintf("%d/%d", g.PlayerCount, g.MaxPlayers), g.PotSize.StringFixed(2), formatTime(g.StartTime))
	}
}

func (o *Output) printGame(g Game) {
	fmt.Fprintf(o.w, "Game: %d\n", g.ID)
	fmt.Fprintf(o.w, "State: %s\n", g.State)
	fmt.Fprintf(o.w, "Players: %d/%d\n", g.PlayerCount, g.MaxPlayers)
	fmt.Fprintf(o.w, "Pot: %s (entry %s)\n", g.PotSize.StringFixed(2), g.EntryValue.StringFixed(2))
	fmt.Fprintf(o.w, "Time Limit: %ds\n", g.TimeLimit)
	fmt.Fprintf(o.w, "Start: %s\n", formatTime(g.StartTime))
	if g.EndTime != nil {
		fmt.Fprintf(o.w, "End: %s\n", formatTime(g.EndTime))
	}
}

func (o *Output) printGameDetail(d GameDetail) {
	o.printGame(d.Game)
	fmt.Fprintf(o.w, "Registered (%d):\n", len(d.Players))
	for _, p := range d.Players {
		fmt.Fprintf(o.w, "  - %s\n", p.Address)
	}
}

func (o *Output) printCreatedGame(c CreatedGame) {
	o.printGame(c.Game)
	fmt.Fprintf(o.w, "Questions (%d):\n", len(c.Questions))
	for i, q := range c.Questions {
		fmt.Fprintf(o.w, "  %d. %s = %s\n", i+1, q.Phrase, q.Answer)
	}
}

func (o *Output) printJoinResult(r JoinResult) {
	if r.AlreadyJoined {
		fmt.Fprintf(o.w, "Already joined game %d as %s\n", r.Player.GameID, r.Player.Address)
	} else {
		fmt.Fprintf(o.w, "Joined game %d as %s\n", r.Player.GameID, r.Player.Address)
	}
	fmt.Fprintf(o.w, "Players: %d\n", r.PlayerCount)
}

func (o *Output) printQuestions(q Questions) {
	fmt.Fprintf(o.w, "Game %d ends %s\n", q.GameID, formatTime(q.EndTime))
	for i, question := range q.Questions {
		fmt.Fprintf(o.w, "  %d. [%d] %s\n", i+1, question.ID, question.Phrase)
	}
}

func (o *Output) printSubmitResult(r SubmitResult) {
	fmt.Fprintln(o.w, r.Message)
	fmt.Fprintf(o.w, "Score: %d\n", r.Score)
	if r.GameComplete && !r.Won {
		fmt.Fprintln(o.w, "Game complete")
	}
}

func (o *Output) printStandings(s Standings) {
	fmt.Fprintf(o.w, "Game %d (%s)\n", s.GameID, s.State)
	for i, p := range s.Players {
		fmt.Fprintf(o.w, "  %d. %s %d\n", i+1, p.Address, p.Score)
	}
	if s.Winner != nil {
		fmt.Fprintf(o.w, "Winner: %s\n", s.Winner.Address)
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Fprintf(o.w, "Total Games: %d\n", s.TotalGames)
	fmt.Fprintf(o.w, "Total Pot: %s\n", s.TotalPot.StringFixed(2))
	fmt.Fprintf(o.w, "Total Players: %d\n", s.TotalPlayers)
	fmt.Fprintf(o.w, "Average Duration: %.0fs\n", s.AverageDurationSeconds)
	fmt.Fprintf(o.w, "Average Payout: %s\n", s.AveragePayout.StringFixed(2))
}

func (o *Output) printSession(s Session) {
	fmt.Fprintf(o.w, "Logged in as %s until %s\n", s.Username, formatTime(&s.ExpiresAt))
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
