package templates

import (
	"fmt"

	"github.com/a-h/templ"

	"github.com/mcoot/trivia-pot/internal/model"
)

// Login is the admin login form
func Login(data LoginData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		h.raw("<h1>Admin login</h1>\n")
		if data.Error != "" {
			h.raw(`<div class="form-error">`)
			h.text(data.Error)
			h.raw("</div>\n")
		}
		h.raw(`<form id="login-form" method="post" action="/admin/login">
  <input type="hidden" name="next" value="`)
		h.text(data.Next)
		h.raw(`">
  <label for="username">Username</label>
  <input id="username" name="username" value="`)
		h.text(data.Username)
		h.raw(`" required>
  <label for="password">Password</label>
  <input id="password" name="password" type="password" required>
  <button type="submit">Log in</button>
</form>
`)
	}))
}

// Dashboard lists every game with start buttons for those not yet running
func Dashboard(data DashboardData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		h.raw("<h1>Dashboard</h1>\n<p><a href=\"/admin/create_game\">Create a new game</a></p>\n")
		if len(data.Games) == 0 {
			h.raw(`<p class="empty">No games yet.</p>` + "\n")
			return
		}
		h.raw(`<table id="games">
  <thead>
    <tr><th>Game</th><th>Status</th><th>Players</th><th>Pot</th><th>Created</th><th></th></tr>
  </thead>
  <tbody>
`)
		for _, s := range data.Games {
			id := gameID(s.Game.ID)
			h.raw(`    <tr class="game-row" data-game-id="`, id, `" data-state="`, string(s.State), `">`)
			h.raw(`<td><a href="/admin/game_stats/`, id, `">#`, id, `</a></td><td>`, stateLabel(s.State), `</td>`)
			h.raw(`<td class="players">`, itoa(s.PlayerCount), ` / `, itoa(s.Game.MaxPlayers), `</td>`)
			h.raw(`<td>`, money(s.Game.PotSize), `</td><td>`, datetime(s.Game.CreatedAt), `</td><td>`)
			if s.State == model.GameStatePending || s.State == model.GameStateScheduled {
				h.raw(`<form class="inline" method="post" action="/admin/start_game/`, id, `"><button type="submit" class="start">Start</button></form>`)
			}
			h.raw("</td></tr>\n")
		}
		h.raw("  </tbody>\n</table>\n")
	}))
}

// CreateGame is the create form, redisplayed with field errors on failure
func CreateGame(data CreateGameData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		h.raw("<h1>Create game</h1>\n<form id=\"create-game-form\" method=\"post\" action=\"/admin/create_game\">\n")
		fields := []struct {
			name, label, kind, value string
		}{
			{"time_limit", "Time limit (seconds)", "number", data.TimeLimit},
			{"max_players", "Max players", "number", data.MaxPlayers},
			{"pot_size", "Pot size", "", data.PotSize},
			{"entry_value", "Entry value", "", data.EntryValue},
			{"start_time", "Start time (UTC, optional)", "datetime-local", data.StartTime},
		}
		for _, f := range fields {
			h.raw(`  <label for="`, f.name, `">`, f.label, "</label>\n")
			h.raw(`  <input id="`, f.name, `" name="`, f.name, `"`)
			if f.kind != "" {
				h.raw(` type="`, f.kind, `"`)
			}
			h.raw(` value="`)
			h.text(f.value)
			h.raw("\">\n  ")
			h.fieldError(data.FieldErrors, f.name)
			h.raw("\n")
		}

		h.raw("  <fieldset id=\"questions\">\n    <legend>Questions</legend>\n    ")
		h.fieldError(data.FieldErrors, "questions")
		h.raw("\n")
		for _, q := range data.Questions {
			n := itoa(q.Index)
			h.raw(`    <div class="question-row">`)
			h.raw(`<input name="phrase_`, n, `" placeholder="Phrase `, itoa(q.Index+1), `" value="`)
			h.text(q.Phrase)
			h.raw(`"> <input name="answer_`, n, `" placeholder="Answer `, itoa(q.Index+1), `" value="`)
			h.text(q.Answer)
			h.raw("\"></div>\n")
		}
		h.raw("  </fieldset>\n  <button type=\"submit\">Create game</button>\n</form>\n")
	}))
}

// GameStats is the admin view of one game and its standings
func GameStats(data GameStatsData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		g := data.Game
		h.raw(`<h1>Game #`, gameID(g.ID), "</h1>\n<dl id=\"game-info\">\n")
		h.raw(`  <dt>Status</dt><dd id="game-state">`, stateLabel(data.State), "</dd>\n")
		h.raw(`  <dt>Pot</dt><dd>`, money(g.PotSize), "</dd>\n")
		h.raw(`  <dt>Entry</dt><dd>`, money(g.EntryValue), "</dd>\n")
		h.raw(`  <dt>Time limit</dt><dd>`, itoa(g.TimeLimitSeconds), "s</dd>\n")
		h.raw(`  <dt>Starts</dt><dd>`, startTime(g.StartTime), "</dd>\n")
		h.raw(`  <dt>Winner</dt><dd id="winner">`)
		if data.Winner != nil {
			h.text(data.Winner.AddressID)
		} else {
			h.raw("None")
		}
		h.raw(`</dd>
</dl>
<table id="standings">
  <thead><tr><th>Rank</th><th>Address</th><th>Score</th><th>Joined</th></tr></thead>
  <tbody>
`)
		for i, p := range data.Players {
			h.raw(`    <tr class="standing" data-player-id="`, playerID(p.ID), `"><td>`, itoa(i+1), `</td><td>`)
			h.text(p.AddressID)
			h.raw(`</td><td class="score">`, itoa(p.Score), `</td><td>`, datetime(p.JoinedAt), "</td></tr>\n")
		}
		h.raw("  </tbody>\n</table>\n")
	}))
}

// Stats shows aggregates across all games
func Stats(data StatsData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		s := data.Stats
		h.raw("<h1>Statistics</h1>\n<dl id=\"stats\">\n")
		h.raw(`  <dt>Total games</dt><dd id="total-games">`, itoa(s.TotalGames), "</dd>\n")
		h.raw(`  <dt>Total pot</dt><dd id="total-pot">`, money(s.TotalPot), "</dd>\n")
		h.raw(`  <dt>Total players</dt><dd id="total-players">`, itoa(s.TotalPlayers), "</dd>\n")
		h.raw(`  <dt>Average duration</dt><dd id="average-duration">`, fmt.Sprintf("%.0f", s.AverageDurationSeconds), "s</dd>\n")
		h.raw(`  <dt>Average payout</dt><dd id="average-payout">`, money(s.AveragePayout), "</dd>\n</dl>\n")
	}))
}
