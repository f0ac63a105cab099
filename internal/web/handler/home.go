package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/web/templates"
)

// HomeHandler handles the home page
type HomeHandler struct {
	pages
	gameController *game.Controller
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(gameController *game.Controller, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		pages:          pages{logger: logger},
		gameController: gameController,
	}
}

// Home renders the list of open games
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameController.ListOpenGames(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, templates.Index(templates.IndexData{
		PageData: pageData(r, "Games"),
		Games:    games,
	}))
}
