package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/trivia-pot/internal/api/apierr"
	"github.com/mcoot/trivia-pot/internal/api/request"
	"github.com/mcoot/trivia-pot/internal/api/response"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/services/leaderboard"
	"github.com/mcoot/trivia-pot/internal/services/lobby"
)

// GameHandler handles the public game endpoints
type GameHandler struct {
	gameController     *game.Controller
	lobbyController    *lobby.Controller
	leaderboardService *leaderboard.Service
}

// NewGameHandler creates a new game handler
func NewGameHandler(
	gameController *game.Controller,
	lobbyController *lobby.Controller,
	leaderboardService *leaderboard.Service,
) *GameHandler {
	return &GameHandler{
		gameController:     gameController,
		lobbyController:    lobbyController,
		leaderboardService: leaderboardService,
	}
}

// List handles GET /api/v1/games
// Lists games that are not complete. ?all=true includes complete games.
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		games []model.GameSummary
		err   error
	)
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		games, err = h.gameController.ListAllGames(r.Context())
	} else {
		games, err = h.gameController.ListOpenGames(r.Context())
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromSummaries(games))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	g, state, players, err := h.gameController.Lobby(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameDetail{
		Game:    response.GameFromModel(g, state, len(players)),
		Players: response.PlayersFromModel(players),
	})
}

// Questions handles GET /api/v1/games/{id}/questions
// Only available while the game is active; answers are never included.
func (h *GameHandler) Questions(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	g, questions, err := h.gameController.PlayableGame(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.QuestionsFromModel(g, questions))
}

// Join handles POST /api/v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.JoinRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.lobbyController.Join(r.Context(), gameID, req.Address)
	if err != nil {
		WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyJoined {
		status = http.StatusOK
	}
	response.JSON(w, status, response.JoinResultFromModel(result))
}

// Submit handles POST /api/v1/games/{id}/submit
func (h *GameHandler) Submit(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.SubmitRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	sub, err := req.Submission()
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.gameController.Submit(r.Context(), gameID, sub)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SubmitResultFromModel(result))
}

// Standings handles GET /api/v1/games/{id}/standings
func (h *GameHandler) Standings(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	_, state, err := h.gameController.GetGameState(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}
	players, err := h.leaderboardService.Standings(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StandingsFromModel(gameID, state, players))
}

// Stats handles GET /api/v1/stats
func (h *GameHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.leaderboardService.Stats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatsFromModel(stats))
}

// gameIDFromPath parses the {id} route variable
func gameIDFromPath(r *http.Request) (model.GameID, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.NewInvalidRequestError("Invalid game id")
	}
	return model.GameID(id), nil
}
