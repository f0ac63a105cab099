package realtime

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mcoot/trivia-pot/internal/model"
)

// Time between keepalive comments
const ssePingPeriod = 30 * time.Second

// ServeSSE streams one game's room to the client until it disconnects
func ServeSSE(w http.ResponseWriter, r *http.Request, manager *Manager, gameID model.GameID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	sub := manager.Connect()
	defer manager.Disconnect(sub)
	manager.Join(sub, gameID)

	_, _ = w.Write(formatSSEMessage("connected", `{"game_id":`+strconv.FormatInt(int64(gameID), 10)+`}`))
	flusher.Flush()

	ticker := time.NewTicker(ssePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-sub.Messages():
			frame, err := encodeSSE(msg)
			if err != nil {
				manager.logger.Error("failed to encode sse message",
					slog.String("event", msg.Event),
					slog.String("error", err.Error()),
				)
				continue
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-sub.Done():
			return

		case <-r.Context().Done():
			return
		}
	}
}
