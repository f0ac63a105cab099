package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/trivia-pot/internal/api/middleware"
	"github.com/mcoot/trivia-pot/internal/api/request"
	"github.com/mcoot/trivia-pot/internal/api/response"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/auth"
	"github.com/mcoot/trivia-pot/internal/services/game"
)

// AdminHandler handles admin login and game management
type AdminHandler struct {
	authService    *auth.Service
	gameController *game.Controller
	logger         *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *auth.Service, gameController *game.Controller, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		authService:    authService,
		gameController: gameController,
		logger:         logger,
	}
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// Logout handles POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.Logout(session.Token)
	}
	response.NoContent(w)
}

// CreateGame handles POST /api/v1/admin/games
func (h *AdminHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	g, questions, err := h.gameController.CreateGame(r.Context(), req)
	if err != nil {
		WriteError(w, err)
		return
	}

	state := model.GameStatePending
	if g.StartTime != nil {
		state = model.GameStateScheduled
	}
	h.logger.Info("game created through api",
		slog.Int64("game_id", int64(g.ID)),
		slog.String("admin", middleware.GetSession(r.Context()).Username),
	)
	response.JSON(w, http.StatusCreated, response.CreatedGameFromModel(g, state, questions))
}

// StartGame handles POST /api/v1/admin/games/{id}/start
// With a start_time in the body the game is scheduled instead.
func (h *AdminHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.StartGameRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	var g *model.Game
	if req.StartTime != nil {
		g, err = h.gameController.ScheduleGame(r.Context(), gameID, *req.StartTime)
	} else {
		g, err = h.gameController.StartGame(r.Context(), gameID)
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	g, state, players, err := h.gameController.Lobby(r.Context(), g.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(g, state, len(players)))
}
