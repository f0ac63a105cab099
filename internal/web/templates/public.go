package templates

import (
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/trivia-pot/internal/model"
)

// Index lists the open games
func Index(data IndexData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		h.raw("<h1>Open games</h1>\n")
		if len(data.Games) == 0 {
			h.raw(`<p class="empty">No games are open right now.</p>` + "\n")
			return
		}
		h.raw(`<table id="games">
  <thead>
    <tr><th>Game</th><th>Status</th><th>Players</th><th>Pot</th><th>Entry</th><th>Starts</th><th></th></tr>
  </thead>
  <tbody>
`)
		for _, s := range data.Games {
			id := gameID(s.Game.ID)
			h.raw(`    <tr class="game-row" data-game-id="`, id, `" data-state="`, string(s.State), `">`)
			h.raw(`<td>#`, id, `</td><td>`, stateLabel(s.State), `</td>`)
			h.raw(`<td class="players">`, itoa(s.PlayerCount), ` / `, itoa(s.Game.MaxPlayers), `</td>`)
			h.raw(`<td class="pot">`, money(s.Game.PotSize), `</td><td>`, money(s.Game.EntryValue), `</td>`)
			h.raw(`<td>`, startTime(s.Game.StartTime), `</td>`)
			h.raw(`<td><a href="/game/`, id, `/join">Join</a> <a href="/game/`, id, `/lobby">Lobby</a></td></tr>`+"\n")
		}
		h.raw("  </tbody>\n</table>\n")
	}))
}

// Join is the registration form for one game
func Join(data JoinData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		id := gameID(data.Game.ID)
		h.raw(`<h1>Join game #`, id, "</h1>\n")
		h.raw(`<p>Pot: <span class="pot">`, money(data.Game.PotSize), `</span>, entry: `, money(data.Game.EntryValue), "</p>\n")
		h.raw(`<p>Players: <span id="player-count">`, itoa(data.PlayerCount), `</span> / `, itoa(data.Game.MaxPlayers), "</p>\n")
		h.raw(`<p>Status: `, stateLabel(data.State), "</p>\n")
		h.raw(`<form id="join-form" method="post" action="/game/`, id, `/join">
  <label for="ethereum_address">Address</label>
  <input id="ethereum_address" name="ethereum_address" value="`)
		h.text(data.Address)
		h.raw(`" maxlength="42" required>` + "\n  ")
		h.fieldError(data.FieldErrors, "address")
		h.raw("\n  <button type=\"submit\">Join</button>\n</form>\n")
	}))
}

// Lobby is a game's waiting room, kept current by lobby.js
func Lobby(data LobbyData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		id := gameID(data.Game.ID)
		h.raw(`<h1>Game #`, id, " lobby</h1>\n")
		h.raw(`<div id="lobby" data-game-id="`, id, `" data-state="`, string(data.State), `">`+"\n")
		h.raw(`  <p>Status: <span id="game-state">`, stateLabel(data.State), "</span></p>\n")
		h.raw(`  <p>Starts: `, startTime(data.Game.StartTime), "</p>\n")
		h.raw(`  <p>Players: <span id="player-count">`, itoa(len(data.Players)), `</span> / `, itoa(data.Game.MaxPlayers), "</p>\n")
		h.raw("  <ul id=\"players\">\n")
		for _, p := range data.Players {
			h.raw(`    <li class="player" data-player-id="`, playerID(p.ID), `">`)
			h.text(shortAddress(p.AddressID))
			h.raw("</li>\n")
		}
		h.raw("  </ul>\n")
		switch data.State {
		case model.GameStateActive:
			href := "/game/" + id + "/play"
			if data.Address != "" {
				href += "?address=" + url.QueryEscape(data.Address)
			}
			h.raw(`  <a id="play-link" href="`)
			h.text(href)
			h.raw("\">Play now</a>\n")
		case model.GameStateComplete:
			h.raw(`  <a id="result-link" href="/game/`, id, "/result\">See results</a>\n")
		}
		h.raw("</div>\n<script src=\"/static/js/lobby.js\"></script>\n")
	}))
}

// Play is the answer sheet for an active game
func Play(data PlayData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		id := gameID(data.Game.ID)
		var end string
		if t := data.Game.EndTime(); t != nil {
			end = t.Format(time.RFC3339)
		}
		h.raw(`<h1>Game #`, id, "</h1>\n")
		h.raw(`<p>Time remaining: <span id="timer" data-end-time="`, end, "\"></span></p>\n")
		h.raw(`<form id="answer-form" method="post" action="/game/`, id, `/submit" data-game-id="`, id, `">
  <label for="ethereum_address">Address</label>
  <input id="ethereum_address" name="ethereum_address" value="`)
		h.text(data.Address)
		h.raw(`" maxlength="42" required>` + "\n  <ol id=\"questions\">\n")
		for _, q := range data.Questions {
			qid := strconv.FormatInt(int64(q.ID), 10)
			h.raw(`    <li class="question" data-question-id="`, qid, `">`)
			h.raw(`<label for="answer_`, qid, `">`)
			h.text(q.Phrase)
			h.raw(`</label> <input id="answer_`, qid, `" name="answer_`, qid, `" autocomplete="off"></li>`+"\n")
		}
		h.raw(`  </ol>
  <button type="submit">Submit answers</button>
</form>
<p id="submit-result"></p>
<script src="/static/js/game.js"></script>
`)
	}))
}

// Result shows a game's ranked players and winner
func Result(data ResultData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		h.raw(`<h1>Game #`, gameID(data.Game.ID), " results</h1>\n")
		h.raw(`<p>Status: `, stateLabel(data.State), "</p>\n")
		h.raw(`<p>Pot: <span class="pot">`, money(data.Game.PotSize), "</span></p>\n")
		if w := data.Winner; w != nil {
			h.raw(`<p id="winner">Winner: <span class="address">`)
			h.text(w.AddressID)
			h.raw(`</span> with `, itoa(w.Score), " correct</p>\n")
		} else {
			h.raw(`<p id="winner" class="empty">No winner.</p>` + "\n")
		}
		h.raw(`<table id="standings">
  <thead><tr><th>Rank</th><th>Address</th><th>Score</th></tr></thead>
  <tbody>
`)
		for i, p := range data.Players {
			h.raw(`    <tr class="standing" data-player-id="`, playerID(p.ID), `"><td>`, itoa(i+1), `</td><td>`)
			h.text(p.AddressID)
			h.raw(`</td><td class="score">`, itoa(p.Score), "</td></tr>\n")
		}
		h.raw("  </tbody>\n</table>\n")
	}))
}

// Error is the page for every failed request
func Error(data ErrorData) templ.Component {
	return layout(data.PageData, page(func(h *htmlWriter) {
		h.raw(`<h1 id="error-status">`, itoa(data.Status), "</h1>\n")
		h.raw(`<p id="error-message">`)
		h.text(data.Message)
		h.raw("</p>\n<p><a href=\"/\">Return to home</a></p>\n")
	}))
}
