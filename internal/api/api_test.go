package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/trivia-pot/internal/api"
	"github.com/mcoot/trivia-pot/internal/api/apierr"
	"github.com/mcoot/trivia-pot/internal/api/response"
	"github.com/mcoot/trivia-pot/internal/factory"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/testutil"
)

// testServer wraps the API router with a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:             testutil.NopLogger(),
		AuthService:        app.AuthService,
		GameController:     app.GameController,
		LobbyController:    app.LobbyController,
		LeaderboardService: app.LeaderboardService,
		Storage:            app.Storage,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func address(n int) string {
	return fmt.Sprintf("0x%040d", n)
}

func gamesPath(id model.GameID, suffix string) string {
	return fmt.Sprintf("/api/v1/games/%d%s", id, suffix)
}

// login creates an admin and returns a session token
func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	_, err := ts.app.AuthService.CreateAdmin(t.Context(), "admin", "hunter22")
	require.NoError(t, err)

	rr := ts.request(http.MethodPost, "/api/v1/admin/login", map[string]string{"username": "admin", "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	return decode[response.Session](t, rr).SessionToken
}

func (ts *testServer) createGame(t *testing.T, maxPlayers int, answers ...string) *model.Game {
	t.Helper()
	g, err := ts.app.CreateTestGame(t.Context(), maxPlayers, answers...)
	require.NoError(t, err)
	return g
}

func (ts *testServer) join(t *testing.T, id model.GameID, n int) {
	t.Helper()
	rr := ts.request(http.MethodPost, gamesPath(id, "/join"), map[string]string{"address": address(n)}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func (ts *testServer) start(t *testing.T, id model.GameID) {
	t.Helper()
	_, err := ts.app.GameController.StartGame(t.Context(), id)
	require.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[response.Health](t, rr).Status)
}

func TestListGames(t *testing.T) {
	ts := newTestServer(t)
	open := ts.createGame(t, 3, "a")
	done := ts.createGame(t, 3, "b")
	ts.join(t, done.ID, 1)
	ts.start(t, done.ID)
	ts.app.MockClock.Advance(2 * time.Minute)

	rr := ts.request(http.MethodGet, "/api/v1/games", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[response.GameList](t, rr)
	require.Len(t, list.Games, 1)
	assert.Equal(t, int64(open.ID), list.Games[0].ID)
	assert.Equal(t, "pending", list.Games[0].State)
	assert.Equal(t, "100", list.Games[0].PotSize.String())

	rr = ts.request(http.MethodGet, "/api/v1/games?all=true", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.GameList](t, rr).Games, 2)
}

func TestGetGame(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGame(t, 3, "a")
	ts.join(t, g.ID, 1)

	rr := ts.request(http.MethodGet, gamesPath(g.ID, ""), nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	detail := decode[response.GameDetail](t, rr)
	assert.Equal(t, 1, detail.Game.PlayerCount)
	assert.Nil(t, detail.Game.StartTime)
	require.Len(t, detail.Players, 1)
	assert.Equal(t, address(1), detail.Players[0].Address)

	rr = ts.request(http.MethodGet, "/api/v1/games/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))
}

func TestJoinGame(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGame(t, 2, "a")

	ts.join(t, g.ID, 1)

	// Joining again is idempotent
	rr := ts.request(http.MethodPost, gamesPath(g.ID, "/join"), map[string]string{"address": address(1)}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	result := decode[response.JoinResult](t, rr)
	assert.True(t, result.AlreadyJoined)
	assert.Equal(t, 1, result.PlayerCount)

	ts.join(t, g.ID, 2)

	rr = ts.request(http.MethodPost, gamesPath(g.ID, "/join"), map[string]string{"address": address(3)}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeGameFull, errorCode(t, rr))
}

func TestJoinGameValidation(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGame(t, 2, "a")

	rr := ts.request(http.MethodPost, gamesPath(g.ID, "/join"), map[string]string{"address": "0x123"}, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	errResp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeValidationFailed, errResp.Error.Code)
	assert.Contains(t, errResp.Error.Fields, "address")

	rr = ts.request(http.MethodPost, gamesPath(g.ID, "/join"), map[string]string{"wallet": address(1)}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestQuestionsOnlyWhileActive(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGame(t, 2, "paris", "4")

	rr := ts.request(http.MethodGet, gamesPath(g.ID, "/questions"), nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeGameNotActive, errorCode(t, rr))

	ts.start(t, g.ID)
	rr = ts.request(http.MethodGet, gamesPath(g.ID, "/questions"), nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "paris")
	questions := decode[response.Questions](t, rr)
	require.Len(t, questions.Questions, 2)
	assert.Equal(t, "q1", questions.Questions[0].Phrase)
	require.NotNil(t, questions.EndTime)
}

func TestSubmitAndWin(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGame(t, 3, "a", "b")
	ts.join(t, g.ID, 1)
	ts.join(t, g.ID, 2)
	ts.start(t, g.ID)

	rr := ts.request(http.MethodPost, gamesPath(g.ID, "/submit"), map[string]any{
		"address": address(1),
		"answers": []string{"a", "x"},
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	result := decode[response.SubmitResult](t, rr)
	assert.Equal(t, 1, result.Score)
	assert.False(t, result.GameComplete)
	assert.Equal(t, "Answers submitted successfully", result.Message)

	rr = ts.request(http.MethodPost, gamesPath(g.ID, "/submit"), map[string]any{
		"address": address(2),
		"answers": []string{" A ", "b"},
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	result = decode[response.SubmitResult](t, rr)
	assert.Equal(t, 2, result.Score)
	assert.True(t, result.Won)
	assert.True(t, result.GameComplete)

	rr = ts.request(http.MethodPost, gamesPath(g.ID, "/submit"), map[string]any{
		"address": address(1),
		"answers": []string{"a", "b"},
	}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeGameComplete, errorCode(t, rr))

	rr = ts.request(http.MethodGet, gamesPath(g.ID, "/standings"), nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	standings := decode[response.Standings](t, rr)
	assert.Equal(t, "complete", standings.State)
	require.Len(t, standings.Players, 2)
	require.NotNil(t, standings.Winner)
	assert.Equal(t, address(2), standings.Winner.Address)
	assert.Equal(t, address(2), standings.Players[0].Address)
}

func TestSubmitKeyedAnswers(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGame(t, 3, "a", "b")
	ts.join(t, g.ID, 1)
	ts.start(t, g.ID)

	questions, err := ts.app.Storage.GetQuestions(t.Context(), g.ID)
	require.NoError(t, err)

	rr := ts.request(http.MethodPost, gamesPath(g.ID, "/submit"), map[string]any{
		"address":       address(1),
		"answers_by_id": map[string]string{fmt.Sprint(questions[1].ID): "b"},
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[response.SubmitResult](t, rr).Score)

	rr = ts.request(http.MethodPost, gamesPath(g.ID, "/submit"), map[string]any{
		"address":       address(1),
		"answers_by_id": map[string]string{"first": "b"},
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitErrors(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGame(t, 3, "a")
	ts.join(t, g.ID, 1)

	body := map[string]any{"address": address(1), "answers": []string{"a"}}
	rr := ts.request(http.MethodPost, gamesPath(g.ID, "/submit"), body, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeGameNotActive, errorCode(t, rr))

	ts.start(t, g.ID)
	rr = ts.request(http.MethodPost, gamesPath(g.ID, "/submit"), map[string]any{"address": address(9), "answers": []string{"a"}}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodePlayerNotFound, errorCode(t, rr))

	// Time runs out before anyone answers correctly
	ts.app.MockClock.Advance(time.Minute)
	rr = ts.request(http.MethodPost, gamesPath(g.ID, "/submit"), body, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeGameComplete, errorCode(t, rr))
}

func TestAdminRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/admin/games", map[string]any{}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/admin/games/1/start", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminLogin(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	assert.NotEmpty(t, token)

	rr := ts.request(http.MethodPost, "/api/v1/admin/login", map[string]string{"username": "admin", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/admin/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/admin/games", map[string]any{}, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminCreateAndStartGame(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/admin/games", map[string]any{
		"time_limit":  120,
		"max_players": 4,
		"pot_size":    "250.5",
		"entry_value": "0.25",
		"questions": []map[string]string{
			{"phrase": "2+2", "answer": "4"},
			{"phrase": "blank", "answer": ""},
		},
	}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[response.CreatedGame](t, rr)
	assert.Equal(t, "pending", created.Game.State)
	assert.Equal(t, 120, created.Game.TimeLimit)
	require.Len(t, created.Questions, 1)
	assert.Equal(t, "4", created.Questions[0].Answer)

	path := fmt.Sprintf("/api/v1/admin/games/%d/start", created.Game.ID)
	rr = ts.request(http.MethodPost, path, nil, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	started := decode[response.Game](t, rr)
	assert.Equal(t, "active", started.State)
	require.NotNil(t, started.StartTime)
	assert.True(t, started.StartTime.Equal(ts.app.MockClock.Now()))

	rr = ts.request(http.MethodPost, path, nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeGameAlreadyStarted, errorCode(t, rr))
}

func TestAdminScheduleGame(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	g := ts.createGame(t, 3, "a")

	at := ts.app.MockClock.Now().Add(time.Hour)
	rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/admin/games/%d/start", g.ID), map[string]any{"start_time": at}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "scheduled", decode[response.Game](t, rr).State)

	ts.app.MockClock.Advance(time.Hour)
	rr = ts.request(http.MethodGet, gamesPath(g.ID, ""), nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "active", decode[response.GameDetail](t, rr).Game.State)
}

func TestAdminCreateGameValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/admin/games", map[string]any{
		"time_limit":  30,
		"max_players": 1,
		"pot_size":    "100",
		"entry_value": "1",
		"questions":   []map[string]string{{"phrase": "a", "answer": "b"}},
	}, token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	errResp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeValidationFailed, errResp.Error.Code)
	assert.Contains(t, errResp.Error.Fields, "time_limit")
	assert.Contains(t, errResp.Error.Fields, "max_players")
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGame(t, 3, "a")
	ts.join(t, g.ID, 1)
	ts.start(t, g.ID)
	rr := ts.request(http.MethodPost, gamesPath(g.ID, "/submit"), map[string]any{"address": address(1), "answers": []string{"a"}}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	ts.createGame(t, 3, "b")

	rr = ts.request(http.MethodGet, "/api/v1/stats", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[response.Stats](t, rr)
	assert.Equal(t, 2, stats.TotalGames)
	assert.True(t, stats.TotalPot.Equal(decimal.NewFromInt(200)), stats.TotalPot.String())
	assert.Equal(t, 1, stats.TotalPlayers)
	assert.InDelta(t, 60.0, stats.AverageDurationSeconds, 0.001)
	assert.True(t, stats.AveragePayout.Equal(decimal.NewFromInt(100)), stats.AveragePayout.String())
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/games/abc", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
