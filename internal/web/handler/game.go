package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/realtime"
	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/services/leaderboard"
	"github.com/mcoot/trivia-pot/internal/services/lobby"
	"github.com/mcoot/trivia-pot/internal/web/middleware"
	"github.com/mcoot/trivia-pot/internal/web/templates"
)

// maxSubmitMemory bounds multipart parsing of answer sheets
const maxSubmitMemory = 1 << 20

// SubmitResponse is the JSON body returned by the submit endpoint
type SubmitResponse struct {
	Message      string `json:"message"`
	Score        int    `json:"score"`
	GameComplete bool   `json:"game_complete"`
}

// GameHandler handles the player-facing game pages
type GameHandler struct {
	pages
	gameController     *game.Controller
	lobbyController    *lobby.Controller
	leaderboardService *leaderboard.Service
	realtimeManager    *realtime.Manager
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(
	gameController *game.Controller,
	lobbyController *lobby.Controller,
	leaderboardService *leaderboard.Service,
	realtimeManager *realtime.Manager,
	logger *slog.Logger,
) *GameHandler {
	return &GameHandler{
		pages:              pages{logger: logger},
		gameController:     gameController,
		lobbyController:    lobbyController,
		leaderboardService: leaderboardService,
		realtimeManager:    realtimeManager,
	}
}

// JoinPage renders the join form
func (h *GameHandler) JoinPage(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDFromPath(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	h.renderJoin(w, r, gameID, http.StatusOK, "", nil)
}

// Join registers an address for the game
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDFromPath(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderStatus(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	address := strings.TrimSpace(formAddress(r))
	result, err := h.lobbyController.Join(r.Context(), gameID, address)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			h.renderJoin(w, r, gameID, http.StatusUnprocessableEntity, address, verr.Fields)
		case errors.Is(err, model.ErrGameFull):
			middleware.SetFlash(w, "error", "This game is already full.")
			http.Redirect(w, r, gamePath(gameID, "lobby"), http.StatusSeeOther)
		case errors.Is(err, model.ErrGameComplete):
			middleware.SetFlash(w, "error", "This game is already complete.")
			http.Redirect(w, r, gamePath(gameID, "result"), http.StatusSeeOther)
		default:
			h.renderError(w, r, err)
		}
		return
	}

	if result.AlreadyJoined {
		middleware.SetFlash(w, "info", "You have already joined this game.")
	} else {
		middleware.SetFlash(w, "success", "You have successfully joined the game!")
	}
	http.Redirect(w, r, gamePath(gameID, "lobby")+"?address="+url.QueryEscape(result.Player.AddressID), http.StatusSeeOther)
}

func (h *GameHandler) renderJoin(w http.ResponseWriter, r *http.Request, gameID model.GameID, status int, address string, fieldErrors map[string]string) {
	g, state, players, err := h.gameController.Lobby(r.Context(), gameID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, status, templates.Join(templates.JoinData{
		PageData:    pageData(r, "Join game"),
		Game:        g,
		State:       state,
		PlayerCount: len(players),
		Address:     address,
		FieldErrors: fieldErrors,
	}))
}

// Lobby renders the waiting room
func (h *GameHandler) Lobby(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDFromPath(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	g, state, players, err := h.gameController.Lobby(r.Context(), gameID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, templates.Lobby(templates.LobbyData{
		PageData: pageData(r, "Lobby"),
		Game:     g,
		State:    state,
		Players:  players,
		Address:  r.URL.Query().Get("address"),
	}))
}

// Play renders the answer sheet of an active game
func (h *GameHandler) Play(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDFromPath(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	g, questions, err := h.gameController.PlayableGame(r.Context(), gameID)
	switch {
	case errors.Is(err, model.ErrGameNotActive):
		middleware.SetFlash(w, "warning", "This game has not started yet.")
		http.Redirect(w, r, gamePath(gameID, "lobby"), http.StatusSeeOther)
		return
	case errors.Is(err, model.ErrGameComplete):
		middleware.SetFlash(w, "info", "This game has ended.")
		http.Redirect(w, r, gamePath(gameID, "result"), http.StatusSeeOther)
		return
	case err != nil:
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, templates.Play(templates.PlayData{
		PageData:  pageData(r, "Play"),
		Game:      g,
		Questions: questions,
		Address:   r.URL.Query().Get("address"),
	}))
}

// Submit scores an answer sheet and responds with JSON
func (h *GameHandler) Submit(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDFromPath(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Game not found"})
		return
	}
	if err := r.ParseMultipartForm(maxSubmitMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form data"})
		return
	}

	result, err := h.gameController.Submit(r.Context(), gameID, submissionFromForm(r))
	if err != nil {
		status, message := classify(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("submit failed",
				slog.Int64("game_id", int64(gameID)),
				slog.String("error", err.Error()),
			)
		}
		writeJSON(w, status, map[string]string{"error": message})
		return
	}

	message := "Answers submitted successfully"
	if result.Won {
		message = "Congratulations! You won the game!"
	}
	writeJSON(w, http.StatusOK, SubmitResponse{
		Message:      message,
		Score:        result.Score,
		GameComplete: result.GameComplete,
	})
}

// submissionFromForm reads either positional answers[] or id-keyed
// answer_<questionId> fields
func submissionFromForm(r *http.Request) game.Submission {
	sub := game.Submission{Address: formAddress(r)}

	if answers, ok := r.Form["answers[]"]; ok {
		sub.Answers = answers
		return sub
	}
	if answers, ok := r.Form["answers"]; ok {
		sub.Answers = answers
		return sub
	}

	sub.KeyedAnswers = make(map[model.QuestionID]string)
	for key, values := range r.Form {
		suffix, found := strings.CutPrefix(key, "answer_")
		if !found || len(values) == 0 {
			continue
		}
		id, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			continue
		}
		sub.KeyedAnswers[model.QuestionID(id)] = values[0]
	}
	return sub
}

// Result renders the ranked players and winner
func (h *GameHandler) Result(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDFromPath(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	g, state, err := h.gameController.GetGameState(r.Context(), gameID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	players, err := h.leaderboardService.Standings(r.Context(), gameID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := templates.ResultData{
		PageData: pageData(r, "Results"),
		Game:     g,
		State:    state,
		Players:  players,
	}
	if state == model.GameStateComplete {
		data.Winner = leaderboard.Winner(players)
	}
	h.render(w, r, http.StatusOK, templates.Result(data))
}

// Events streams the game's realtime events over SSE
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDFromPath(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if _, err := h.gameController.GetGame(r.Context(), gameID); err != nil {
		status, message := classify(err)
		http.Error(w, message, status)
		return
	}

	realtime.ServeSSE(w, r, h.realtimeManager, gameID)
}
