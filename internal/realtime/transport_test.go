package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/testutil"
)

type fakeGames map[model.GameID]bool

func (f fakeGames) GetGame(_ context.Context, id model.GameID) (*model.Game, error) {
	if !f[id] {
		return nil, model.ErrGameNotFound
	}
	return &model.Game{ID: id}, nil
}

// readSSEFrame reads one "event/data" frame, skipping keepalive comments
func readSSEFrame(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && event != "":
			return event, data
		}
	}
}

func TestServeSSE(t *testing.T) {
	manager := NewManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, manager, 7)
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, data := readSSEFrame(t, reader)
	assert.Equal(t, "connected", event)
	assert.Equal(t, `{"game_id":7}`, data)
	assert.Equal(t, 1, manager.RoomSize(7))

	// Other games' events are not streamed
	broadcaster.Publish(model.Event{Type: model.EventGameStarted, GameID: 8, Payload: model.GameStartedPayload{GameID: 8}})
	broadcaster.Publish(model.Event{
		Type:    model.EventPlayerScoreUpdate,
		GameID:  7,
		Payload: model.PlayerScoreUpdatePayload{GameID: 7, PlayerID: 2, Score: 3},
	})

	event, data = readSSEFrame(t, reader)
	assert.Equal(t, "player_score_update", event)
	assert.JSONEq(t, `{"game_id":7,"player_id":2,"score":3}`, data)
}

func TestServeSSEDisconnectLeavesRoom(t *testing.T) {
	manager := NewManager(testutil.NopLogger())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, manager, 7)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	readSSEFrame(t, bufio.NewReader(resp.Body))

	cancel()
	_ = resp.Body.Close()

	assert.Eventually(t, func() bool { return manager.RoomSize(7) == 0 }, time.Second, 10*time.Millisecond)
}

func dialWS(t *testing.T, handler http.Handler) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocketJoinReceiveLeave(t *testing.T) {
	manager := NewManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())
	conn := dialWS(t, NewWebSocketHandler(manager, fakeGames{5: true}, testutil.NopLogger()))

	require.NoError(t, conn.WriteJSON(Command{Action: ActionJoin, GameID: 5}))
	msg := readWS(t, conn)
	assert.Equal(t, EventJoined, msg["event"])
	assert.Equal(t, 1, manager.RoomSize(5))

	broadcaster.Publish(model.Event{
		Type:    model.EventPlayerJoined,
		GameID:  5,
		Payload: model.PlayerJoinedPayload{GameID: 5, PlayerCount: 1},
	})
	msg = readWS(t, conn)
	assert.Equal(t, "player_joined", msg["event"])
	assert.Equal(t, map[string]any{"game_id": float64(5), "player_count": float64(1)}, msg["data"])

	require.NoError(t, conn.WriteJSON(Command{Action: ActionLeave, GameID: 5}))
	msg = readWS(t, conn)
	assert.Equal(t, EventLeft, msg["event"])
	assert.Equal(t, 0, manager.RoomSize(5))
}

func TestWebSocketUnknownGame(t *testing.T) {
	manager := NewManager(testutil.NopLogger())
	conn := dialWS(t, NewWebSocketHandler(manager, fakeGames{}, testutil.NopLogger()))

	require.NoError(t, conn.WriteJSON(Command{Action: ActionJoin, GameID: 404}))
	msg := readWS(t, conn)
	assert.Equal(t, EventError, msg["event"])
	assert.Equal(t, map[string]any{"message": "game not found"}, msg["data"])
	assert.Zero(t, manager.RoomCount())
}

func TestWebSocketBadCommands(t *testing.T) {
	manager := NewManager(testutil.NopLogger())
	conn := dialWS(t, NewWebSocketHandler(manager, nil, testutil.NopLogger()))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, EventError, readWS(t, conn)["event"])

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "dance", "game_id": 1}))
	msg := readWS(t, conn)
	assert.Equal(t, EventError, msg["event"])
	assert.Equal(t, map[string]any{"message": "unknown action"}, msg["data"])
}

func TestWebSocketCloseDisconnects(t *testing.T) {
	manager := NewManager(testutil.NopLogger())
	conn := dialWS(t, NewWebSocketHandler(manager, nil, testutil.NopLogger()))

	require.NoError(t, conn.WriteJSON(Command{Action: ActionJoin, GameID: 1}))
	readWS(t, conn)
	require.Equal(t, 1, manager.RoomSize(1))

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return manager.RoomSize(1) == 0 }, time.Second, 10*time.Millisecond)
}
