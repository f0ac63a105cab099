// Package templates builds the HTML pages of the web interface as templ
// components. Every page is wrapped in the shared layout.
package templates

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"github.com/mcoot/trivia-pot/internal/model"
)

// htmlWriter keeps the first write error so pages can be written without
// checking every call
type htmlWriter struct {
	w   io.Writer
	err error
}

// raw writes trusted markup
func (h *htmlWriter) raw(parts ...string) {
	for _, s := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes an escaped value, safe in element and attribute content
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// fieldError writes the error span for a form field when it has one
func (h *htmlWriter) fieldError(errs map[string]string, field string) {
	msg, ok := errs[field]
	if !ok {
		return
	}
	h.raw(`<span class="field-error" data-field="`, field, `">`)
	h.text(msg)
	h.raw(`</span>`)
}

// page turns a body writer into a component
func page(body func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		body(h)
		return h.err
	})
}

// layout wraps content in the document shell with navigation and the flash
// message
func layout(data PageData, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`)
		h.text(data.Title)
		h.raw(` - Trivia Pot</title>
<link rel="stylesheet" href="/static/css/app.css">
</head>
<body>
<nav class="nav">
  <a class="brand" href="/">Trivia Pot</a>
`)
		if data.Admin != "" {
			h.raw(`  <a href="/admin/dashboard">Dashboard</a>
  <a href="/admin/create_game">New game</a>
  <a href="/admin/stats">Stats</a>
  <form class="inline" method="post" action="/admin/logout">
    <button type="submit" id="logout">Log out `)
			h.text(data.Admin)
			h.raw(`</button>
  </form>
`)
		} else {
			h.raw("  <a href=\"/admin/login\">Admin</a>\n")
		}
		h.raw("</nav>\n")
		if f := data.Flash; f != nil {
			h.raw(`<div class="flash flash-`)
			h.text(f.Type)
			h.raw(`">`)
			h.text(f.Message)
			h.raw("</div>\n")
		}
		h.raw("<main>\n")
		if h.err != nil {
			return h.err
		}
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		h.raw("</main>\n</body>\n</html>")
		return h.err
	})
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func gameID(id model.GameID) string {
	return strconv.FormatInt(int64(id), 10)
}

func playerID(id model.PlayerID) string {
	return strconv.FormatInt(int64(id), 10)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func datetime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// startTime formats a game's start, nil meaning unscheduled
func startTime(t *time.Time) string {
	if t == nil {
		return "Not scheduled"
	}
	return datetime(*t)
}

func shortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func stateLabel(state model.GameState) string {
	switch state {
	case model.GameStatePending:
		return "Waiting to start"
	case model.GameStateScheduled:
		return "Scheduled"
	case model.GameStateActive:
		return "In progress"
	case model.GameStateComplete:
		return "Complete"
	default:
		return string(state)
	}
}
