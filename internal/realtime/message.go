// Package realtime fans game events out to connected clients. Each game has
// its own room; subscribers join and leave rooms explicitly and miss any
// event published while they were not in the room.
package realtime

import (
	"encoding/json"
	"strings"

	"github.com/mcoot/trivia-pot/internal/model"
)

// Message is the wire form of an event, shared by both transports
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// MessageFor converts a domain event into its wire form
func MessageFor(event model.Event) Message {
	return Message{Event: string(event.Type), Data: event.Payload}
}

// formatSSEMessage formats an SSE message with event name and data
// Multi-line data is properly formatted with "data: " prefix on each line
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// encodeSSE renders a message as an SSE frame with a JSON data line
func encodeSSE(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return nil, err
	}
	return formatSSEMessage(msg.Event, string(data)), nil
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}
