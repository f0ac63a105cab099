package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/game"
	"github.com/mcoot/trivia-pot/internal/services/leaderboard"
	"github.com/mcoot/trivia-pot/internal/web/middleware"
	"github.com/mcoot/trivia-pot/internal/web/templates"
)

// startTimeLayouts are accepted for the start_time field, interpreted as UTC
var startTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// AdminHandler handles the admin pages
type AdminHandler struct {
	pages
	gameController     *game.Controller
	leaderboardService *leaderboard.Service
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	gameController *game.Controller,
	leaderboardService *leaderboard.Service,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		pages:              pages{logger: logger},
		gameController:     gameController,
		leaderboardService: leaderboardService,
	}
}

// Dashboard lists every game, newest first
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameController.ListAllGames(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, templates.Dashboard(templates.DashboardData{
		PageData: pageData(r, "Dashboard"),
		Games:    games,
	}))
}

// CreateGamePage renders an empty create form
func (h *AdminHandler) CreateGamePage(w http.ResponseWriter, r *http.Request) {
	data := templates.CreateGameData{
		PageData:   pageData(r, "Create game"),
		TimeLimit:  "300",
		MaxPlayers: "10",
		Questions:  questionFields(nil),
	}
	h.render(w, r, http.StatusOK, templates.CreateGame(data))
}

// CreateGame validates the form and creates the game with its questions
func (h *AdminHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderStatus(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	data := templates.CreateGameData{
		PageData:   pageData(r, "Create game"),
		TimeLimit:  strings.TrimSpace(r.FormValue("time_limit")),
		MaxPlayers: strings.TrimSpace(r.FormValue("max_players")),
		PotSize:    strings.TrimSpace(r.FormValue("pot_size")),
		EntryValue: strings.TrimSpace(r.FormValue("entry_value")),
		StartTime:  strings.TrimSpace(r.FormValue("start_time")),
		Questions:  questionFields(r),
	}

	cmd, verr := parseCreateForm(data)
	if verr.HasErrors() {
		data.FieldErrors = verr.Fields
		// Report range and question errors alongside the parse errors
		var cerr *model.ValidationError
		if errors.As(h.gameController.ValidateGame(cmd), &cerr) {
			for field, message := range displayFields(cerr) {
				if _, ok := data.FieldErrors[field]; !ok {
					data.FieldErrors[field] = message
				}
			}
		}
		h.render(w, r, http.StatusUnprocessableEntity, templates.CreateGame(data))
		return
	}

	g, _, err := h.gameController.CreateGame(r.Context(), cmd)
	if err != nil {
		var cerr *model.ValidationError
		if errors.As(err, &cerr) {
			data.FieldErrors = displayFields(cerr)
			h.render(w, r, http.StatusUnprocessableEntity, templates.CreateGame(data))
			return
		}
		h.renderError(w, r, err)
		return
	}

	h.logger.Info("game created from dashboard", slog.Int64("game_id", int64(g.ID)))
	middleware.SetFlash(w, "success", "New game created successfully!")
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// questionFields lists the twelve phrase/answer rows, filled from the form
// when one was posted
func questionFields(r *http.Request) []templates.QuestionField {
	fields := make([]templates.QuestionField, model.MaxQuestions)
	for i := range fields {
		fields[i].Index = i
		if r != nil {
			fields[i].Phrase = r.FormValue(fmt.Sprintf("phrase_%d", i))
			fields[i].Answer = r.FormValue(fmt.Sprintf("answer_%d", i))
		}
	}
	return fields
}

// parseCreateForm converts the raw form values into a command, collecting
// type errors per field
func parseCreateForm(data templates.CreateGameData) (game.CreateGameCommand, *model.ValidationError) {
	verr := &model.ValidationError{}
	var cmd game.CreateGameCommand

	if n, err := strconv.Atoi(data.TimeLimit); err != nil {
		verr.Add("time_limit", "must be a whole number of seconds")
	} else {
		cmd.TimeLimitSeconds = n
	}
	if n, err := strconv.Atoi(data.MaxPlayers); err != nil {
		verr.Add("max_players", "must be a whole number")
	} else {
		cmd.MaxPlayers = n
	}
	if d, err := decimal.NewFromString(data.PotSize); err != nil {
		verr.Add("pot_size", "must be a number")
	} else {
		cmd.PotSize = d
	}
	if d, err := decimal.NewFromString(data.EntryValue); err != nil {
		verr.Add("entry_value", "must be a number")
	} else {
		cmd.EntryValue = d
	}
	if data.StartTime != "" {
		if t, ok := parseStartTime(data.StartTime); ok {
			cmd.StartTime = &t
		} else {
			verr.Add("start_time", "must be a date and time")
		}
	}

	for _, q := range data.Questions {
		cmd.Questions = append(cmd.Questions, game.QuestionPair{Phrase: q.Phrase, Answer: q.Answer})
	}
	return cmd, verr
}

func parseStartTime(value string) (time.Time, bool) {
	for _, layout := range startTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// displayFields folds per-question errors into the questions fieldset
func displayFields(verr *model.ValidationError) map[string]string {
	fields := make(map[string]string, len(verr.Fields))
	for field, message := range verr.Fields {
		if strings.HasPrefix(field, "questions[") {
			if _, ok := fields["questions"]; !ok {
				fields["questions"] = field + " " + message
			}
			continue
		}
		fields[field] = message
	}
	return fields
}

// StartGame starts a pending or scheduled game now
func (h *AdminHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDFromPath(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	_, err := h.gameController.StartGame(r.Context(), gameID)
	switch {
	case err == nil:
		middleware.SetFlash(w, "success", fmt.Sprintf("Game #%d started.", gameID))
	case model.IsConflict(err):
		middleware.SetFlash(w, "error", conflictMessage(err))
	case errors.Is(err, model.ErrStoreUnavailable):
		middleware.SetFlash(w, "error", retryLaterMessage)
	default:
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// GameStats shows one game with its ranked players
func (h *AdminHandler) GameStats(w http.ResponseWriter, r *http.Request) {
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

	data := templates.GameStatsData{
		PageData: pageData(r, fmt.Sprintf("Game #%d", gameID)),
		Game:     g,
		State:    state,
		Players:  players,
	}
	if state == model.GameStateComplete {
		data.Winner = leaderboard.Winner(players)
	}
	h.render(w, r, http.StatusOK, templates.GameStats(data))
}

// Stats shows aggregates across all games
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.leaderboardService.Stats(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, templates.Stats(templates.StatsData{
		PageData: pageData(r, "Statistics"),
		Stats:    stats,
	}))
}
