package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/web/middleware"
	"github.com/mcoot/trivia-pot/internal/web/templates"
)

const retryLaterMessage = "The service is temporarily unavailable, please retry later."

// pages renders templates and error pages for every handler
type pages struct {
	logger *slog.Logger
}

// pageData builds the shared layout data for a request
func pageData(r *http.Request, title string) templates.PageData {
	data := templates.PageData{
		Title: title,
		Flash: middleware.GetFlash(r.Context()),
	}
	if session := middleware.GetAdmin(r.Context()); session != nil {
		data.Admin = session.Username
	}
	return data
}

// render serves a page component. templ buffers the output, so a failed
// render never leaves a half-written response.
func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	templ.Handler(page,
		templ.WithStatus(status),
		templ.WithErrorHandler(p.renderFailed),
	).ServeHTTP(w, r)
}

func (p *pages) renderFailed(r *http.Request, err error) http.Handler {
	p.logger.Error("failed to render page",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	})
}

// renderError maps a service error to an error page
func (p *pages) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		p.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	p.renderStatus(w, r, status, message)
}

func (p *pages) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	p.render(w, r, status, templates.Error(templates.ErrorData{
		PageData: pageData(r, http.StatusText(status)),
		Status:   status,
		Message:  message,
	}))
}

// NotFound renders the 404 page for unmatched routes
func (p *pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.renderStatus(w, r, http.StatusNotFound, "Page not found")
}

func classify(err error) (int, string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, model.ErrGameNotFound):
		return http.StatusNotFound, "Game not found"
	case errors.Is(err, model.ErrPlayerNotFound):
		return http.StatusNotFound, "Player not found"
	case model.IsNotFound(err):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, retryLaterMessage
	case model.IsConflict(err):
		return http.StatusConflict, conflictMessage(err)
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again later."
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrGameFull):
		return "This game is already full."
	case errors.Is(err, model.ErrAlreadyJoined):
		return "You have already joined this game."
	case errors.Is(err, model.ErrGameAlreadyStarted):
		return "This game has already started."
	case errors.Is(err, model.ErrGameComplete):
		return "This game is already complete."
	case errors.Is(err, model.ErrGameNotActive):
		return "This game has not started yet."
	default:
		return err.Error()
	}
}

// gameIDFromPath parses the {id} route variable
func gameIDFromPath(r *http.Request) (model.GameID, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return model.GameID(id), true
}

// formAddress reads the player's address, accepting both field names the
// forms have used
func formAddress(r *http.Request) string {
	if address := r.FormValue("ethereum_address"); address != "" {
		return address
	}
	return r.FormValue("address")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func gamePath(id model.GameID, page string) string {
	return "/game/" + strconv.FormatInt(int64(id), 10) + "/" + page
}
