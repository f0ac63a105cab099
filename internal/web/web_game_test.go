package web_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/web/handler"
)

func TestHomeListsOpenGames(t *testing.T) {
	ts := newWebTestServer(t)
	first := ts.createGame(2, "a")
	second := ts.createGame(5, "b")
	ts.join(second.ID, 1)

	// A finished game drops off the list
	done := ts.createGame(2, "c")
	ts.startGame(done.ID)
	ts.app.MockClock.Advance(2 * time.Minute)

	rr := ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)

	rows := doc.Find("tr.game-row")
	require.Equal(t, 2, rows.Length())
	ids := rows.Map(func(_ int, s *goquery.Selection) string {
		id, _ := s.Attr("data-game-id")
		return id
	})
	assert.ElementsMatch(t, []string{strconv.FormatInt(int64(first.ID), 10), strconv.FormatInt(int64(second.ID), 10)}, ids)
	assertContainsText(t, doc, `tr[data-game-id="`+strconv.FormatInt(int64(second.ID), 10)+`"] .players`, "1 / 5")
	assertContainsText(t, doc, "tr.game-row .pot", "100.00")
}

func TestHomeEmpty(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "p.empty")
	assertNotContainsElement(t, doc, "tr.game-row")
}

func TestJoinFlow(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "a")

	rr := ts.get(gamePath(g.ID, "join"))
	require.Equal(t, http.StatusOK, rr.Code)
	assertContainsElement(t, parseHTML(rr.Body), `form#join-form input[name="ethereum_address"]`)

	rr = ts.post(gamePath(g.ID, "join"), url.Values{"ethereum_address": {"  " + address(1) + " "}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, gamePath(g.ID, "lobby")+"?address="+address(1), rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash-success", "You have successfully joined the game!")
	assertContainsText(t, doc, "#player-count", "1")
	assert.Equal(t, 1, doc.Find("li.player").Length())
}

func TestJoinAcceptsAddressField(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "a")

	rr := ts.post(gamePath(g.ID, "join"), url.Values{"address": {address(7)}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	_, err := ts.app.Storage.GetPlayerByAddress(t.Context(), g.ID, address(7))
	assert.NoError(t, err)
}

func TestJoinTwiceShowsInfo(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "a")
	ts.join(g.ID, 1)
	ts.get(gamePath(g.ID, "lobby")) // consume the first flash

	rr := ts.post(gamePath(g.ID, "join"), url.Values{"ethereum_address": {address(1)}})
	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash-info", "You have already joined this game.")
	assert.Equal(t, 1, doc.Find("li.player").Length())
}

func TestJoinFullGame(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "a")
	ts.join(g.ID, 1)
	ts.join(g.ID, 2)

	rr := ts.post(gamePath(g.ID, "join"), url.Values{"ethereum_address": {address(3)}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, gamePath(g.ID, "lobby"), rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "This game is already full.")
	assert.Equal(t, 2, doc.Find("li.player").Length())
}

func TestJoinInvalidAddress(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "a")

	rr := ts.post(gamePath(g.ID, "join"), url.Values{"ethereum_address": {"0x123"}})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, `.field-error[data-field="address"]`, "42")

	value, _ := doc.Find(`input[name="ethereum_address"]`).Attr("value")
	assert.Equal(t, "0x123", value)
}

func TestJoinUnknownGame(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/game/999/join")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assertContainsText(t, parseHTML(rr.Body), "#error-message", "Game not found")

	rr = ts.post("/game/999/join", url.Values{"ethereum_address": {address(1)}})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLobbyShowsPlayLinkWhenActive(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "a")
	ts.join(g.ID, 1)

	doc := parseHTML(ts.get(gamePath(g.ID, "lobby")).Body)
	assertContainsText(t, doc, "#game-state", "Waiting to start")
	assertNotContainsElement(t, doc, "#play-link")

	ts.startGame(g.ID)
	doc = parseHTML(ts.get(gamePath(g.ID, "lobby") + "?address=" + address(1)).Body)
	assertContainsText(t, doc, "#game-state", "In progress")
	href, _ := doc.Find("#play-link").Attr("href")
	assert.Equal(t, gamePath(g.ID, "play")+"?address="+address(1), href)
}

func TestPlayRedirectsWhenNotActive(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "a")

	rr := ts.get(gamePath(g.ID, "play"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, gamePath(g.ID, "lobby"), rr.Header().Get("Location"))
	assertContainsText(t, parseHTML(ts.followRedirect(rr).Body), ".flash-warning", "not started")

	ts.startGame(g.ID)
	ts.app.MockClock.Advance(time.Hour)

	rr = ts.get(gamePath(g.ID, "play"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, gamePath(g.ID, "result"), rr.Header().Get("Location"))
}

func TestPlayRendersQuestions(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "4", "paris")
	ts.join(g.ID, 1)
	ts.startGame(g.ID)

	rr := ts.get(gamePath(g.ID, "play") + "?address=" + address(1))
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)

	questions := doc.Find("li.question")
	require.Equal(t, 2, questions.Length())
	assert.Equal(t, "q1", questions.First().Find("label").Text())
	value, _ := doc.Find(`input[name="ethereum_address"]`).Attr("value")
	assert.Equal(t, address(1), value)

	// Answers are never sent to the browser
	assert.NotContains(t, rr.Body.String(), "paris")
}

func submit(t *testing.T, ts *webTestServer, gameID model.GameID, form url.Values) (int, map[string]any) {
	t.Helper()
	rr := ts.post(gamePath(gameID, "submit"), form)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body
}

func TestSubmitPositionalAnswers(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "4", "paris", "blue")
	ts.join(g.ID, 1)
	ts.join(g.ID, 2)
	ts.startGame(g.ID)

	code, body := submit(t, ts, g.ID, url.Values{
		"ethereum_address": {address(1)},
		"answers[]":        {"4", "Paris", "green"},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{
		"message":       "Answers submitted successfully",
		"score":         float64(2),
		"game_complete": false,
	}, body)

	code, body = submit(t, ts, g.ID, url.Values{
		"ethereum_address": {address(2)},
		"answers[]":        {"4", "paris", "BLUE"},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{
		"message":       "Congratulations! You won the game!",
		"score":         float64(3),
		"game_complete": true,
	}, body)

	// Late submission after the win is refused
	code, body = submit(t, ts, g.ID, url.Values{
		"ethereum_address": {address(1)},
		"answers[]":        {"4", "paris", "blue"},
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body["error"], "complete")
}

func TestSubmitKeyedAnswers(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "4", "paris")
	ts.join(g.ID, 1)
	ts.startGame(g.ID)

	questions, err := ts.app.Storage.GetQuestions(t.Context(), g.ID)
	require.NoError(t, err)

	form := url.Values{"ethereum_address": {address(1)}}
	form.Set("answer_"+strconv.FormatInt(int64(questions[1].ID), 10), "Paris")
	form.Set("answer_bogus", "x")

	code, body := submit(t, ts, g.ID, form)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["score"])
	assert.Equal(t, false, body["game_complete"])
}

func TestSubmitUnknownPlayer(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "a")
	ts.startGame(g.ID)

	code, body := submit(t, ts, g.ID, url.Values{
		"ethereum_address": {address(9)},
		"answers[]":        {"a"},
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Player not found", body["error"])
}

func TestSubmitBeforeStart(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(2, "a")
	ts.join(g.ID, 1)

	code, _ := submit(t, ts, g.ID, url.Values{
		"ethereum_address": {address(1)},
		"answers[]":        {"a"},
	})
	assert.Equal(t, http.StatusConflict, code)
}

func TestSubmitResponseShape(t *testing.T) {
	resp := handler.SubmitResponse{Message: "m", Score: 1, GameComplete: true}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"m","score":1,"game_complete":true}`, string(data))
}

func TestResultShowsRankingAndWinner(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(3, "a", "b")
	ts.join(g.ID, 1)
	ts.join(g.ID, 2)
	ts.startGame(g.ID)

	submit(t, ts, g.ID, url.Values{"ethereum_address": {address(1)}, "answers[]": {"a", "x"}})

	// Not complete yet: standings without a winner
	doc := parseHTML(ts.get(gamePath(g.ID, "result")).Body)
	assertContainsText(t, doc, "#winner", "No winner")

	submit(t, ts, g.ID, url.Values{"ethereum_address": {address(2)}, "answers[]": {"a", "b"}})

	rr := ts.get(gamePath(g.ID, "result"))
	require.Equal(t, http.StatusOK, rr.Code)
	doc = parseHTML(rr.Body)
	assertContainsText(t, doc, "#winner .address", address(2))

	rows := doc.Find("tr.standing")
	require.Equal(t, 2, rows.Length())
	assert.Equal(t, "2", rows.First().Find(".score").Text())
	assert.Equal(t, "1", rows.Last().Find(".score").Text())
}

func TestResultAfterTimeLimitPicksLeader(t *testing.T) {
	ts := newWebTestServer(t)
	g := ts.createGame(3, "a", "b")
	ts.join(g.ID, 1)
	ts.startGame(g.ID)
	submit(t, ts, g.ID, url.Values{"ethereum_address": {address(1)}, "answers[]": {"a"}})

	ts.app.MockClock.Advance(2 * time.Minute)

	doc := parseHTML(ts.get(gamePath(g.ID, "result")).Body)
	assertContainsText(t, doc, "#winner .address", address(1))
}
