package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/trivia-pot/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 4096
)

// Inbound room commands
const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// Outbound control events, alongside the game events
const (
	EventJoined = "joined"
	EventLeft   = "left"
	EventError  = "error"
)

// Command is an inbound WebSocket message
type Command struct {
	Action string       `json:"action"`
	GameID model.GameID `json:"game_id"`
}

// GameLookup resolves games so unknown ids can be refused
type GameLookup interface {
	GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error)
}

// WebSocketHandler upgrades connections and lets clients join and leave
// game rooms
type WebSocketHandler struct {
	manager  *Manager
	games    GameLookup
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(manager *Manager, games GameLookup, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		games:   games,
		logger:  logger.With(slog.String("component", "websocket")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	sub := h.manager.Connect()
	h.logger.Info("websocket connected",
		slog.String("subscriber_id", sub.ID()),
		slog.String("remote_addr", r.RemoteAddr),
	)

	// Replies to commands share the write path with broadcasts
	replies := make(chan Message, 8)

	go h.writePump(conn, sub, replies)
	h.readPump(r.Context(), conn, sub, replies)
}

func (h *WebSocketHandler) readPump(ctx context.Context, conn *websocket.Conn, sub *Subscriber, replies chan<- Message) {
	defer func() {
		h.manager.Disconnect(sub)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error",
					slog.String("subscriber_id", sub.ID()),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			reply(replies, errorMessage("malformed command"))
			continue
		}
		reply(replies, h.handle(ctx, sub, cmd))
	}
}

func (h *WebSocketHandler) handle(ctx context.Context, sub *Subscriber, cmd Command) Message {
	switch cmd.Action {
	case ActionJoin:
		if h.games != nil {
			if _, err := h.games.GetGame(ctx, cmd.GameID); err != nil {
				if errors.Is(err, model.ErrGameNotFound) {
					return errorMessage("game not found")
				}
				return errorMessage("please retry later")
			}
		}
		h.manager.Join(sub, cmd.GameID)
		h.logger.Debug("subscriber joined room",
			slog.String("subscriber_id", sub.ID()),
			slog.Int64("game_id", int64(cmd.GameID)),
		)
		return Message{Event: EventJoined, Data: map[string]model.GameID{"game_id": cmd.GameID}}

	case ActionLeave:
		h.manager.Leave(sub, cmd.GameID)
		return Message{Event: EventLeft, Data: map[string]model.GameID{"game_id": cmd.GameID}}

	default:
		return errorMessage("unknown action")
	}
}

func (h *WebSocketHandler) writePump(conn *websocket.Conn, sub *Subscriber, replies <-chan Message) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	write := func(msg Message) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg) == nil
	}

	for {
		select {
		case msg := <-replies:
			if !write(msg) {
				return
			}

		case msg := <-sub.Messages():
			if !write(msg) {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-sub.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func reply(replies chan<- Message, msg Message) {
	select {
	case replies <- msg:
	default:
	}
}

func errorMessage(text string) Message {
	return Message{Event: EventError, Data: map[string]string{"message": text}}
}
