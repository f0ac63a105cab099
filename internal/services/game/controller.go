package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/trivia-pot/internal/dependencies/clock"
	"github.com/mcoot/trivia-pot/internal/metrics"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/leaderboard"
	"github.com/mcoot/trivia-pot/internal/services/scoring"
	"github.com/mcoot/trivia-pot/internal/storage"
	"github.com/mcoot/trivia-pot/internal/validation"
)

// Controller owns the game lifecycle: creation, starting, lazy time-based
// completion, and answer submission
type Controller struct {
	storage   storage.Storage
	scoring   *scoring.Service
	publisher model.Publisher
	clock     clock.Clock
	logger    *slog.Logger

	locks *gameLocks

	mu        sync.Mutex
	announced map[model.GameID]struct{}
}

// NewController creates a new GameController
func NewController(
	storage storage.Storage,
	scoringService *scoring.Service,
	publisher model.Publisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:   storage,
		scoring:   scoringService,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		locks:     newGameLocks(),
		announced: make(map[model.GameID]struct{}),
	}
}

// CreateGame validates the command and persists a new pending or scheduled
// game with its questions
func (c *Controller) CreateGame(ctx context.Context, cmd CreateGameCommand) (*model.Game, []model.Question, error) {
	cmd = cmd.normalized()
	now := c.clock.Now()

	if err := validateCreate(cmd, now); err != nil {
		return nil, nil, err
	}

	game := &model.Game{
		TimeLimitSeconds: cmd.TimeLimitSeconds,
		MaxPlayers:       cmd.MaxPlayers,
		PotSize:          cmd.PotSize,
		EntryValue:       cmd.EntryValue,
		StartTime:        cmd.StartTime,
		CreatedAt:        now,
	}
	questions := make([]model.Question, len(cmd.Questions))
	for i, p := range cmd.Questions {
		questions[i] = model.Question{Phrase: p.Phrase, Answer: p.Answer}
	}

	if err := c.storage.CreateGame(ctx, game, questions); err != nil {
		c.logger.Error("failed to create game",
			slog.String("error", err.Error()),
		)
		return nil, nil, err
	}

	c.logger.Info("game created",
		slog.Int64("game_id", int64(game.ID)),
		slog.Int("max_players", game.MaxPlayers),
		slog.Int("time_limit_seconds", game.TimeLimitSeconds),
		slog.Int("question_count", len(questions)),
		slog.String("pot_size", game.PotSize.String()),
	)

	return game, questions, nil
}

// ValidateGame checks a create command without persisting anything. It
// returns nil or the same errors CreateGame would.
func (c *Controller) ValidateGame(cmd CreateGameCommand) error {
	return validateCreate(cmd.normalized(), c.clock.Now())
}

func validateCreate(cmd CreateGameCommand, now time.Time) error {
	verr := &model.ValidationError{}
	if err := validation.Struct(cmd); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	if len(cmd.Questions) == 0 {
		verr.Add("questions", "at least one phrase/answer pair is required")
	}
	if cmd.StartTime != nil && !cmd.StartTime.After(now) {
		verr.Add("start_time", "must be in the future")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// GetGame retrieves a game reconciled against the current time
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	game, _, err := c.observe(ctx, gameID)
	return game, err
}

// GetGameState retrieves a reconciled game together with its lifecycle state
func (c *Controller) GetGameState(ctx context.Context, gameID model.GameID) (*model.Game, model.GameState, error) {
	return c.observe(ctx, gameID)
}

// Lobby returns a reconciled game, its state and its players in join order
func (c *Controller) Lobby(ctx context.Context, gameID model.GameID) (*model.Game, model.GameState, []*model.Player, error) {
	game, state, err := c.observe(ctx, gameID)
	if err != nil {
		return nil, "", nil, err
	}
	players, err := c.storage.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, "", nil, err
	}
	return game, state, players, nil
}

// ListOpenGames returns games that are not complete, ordered by start time
// with unscheduled games last
func (c *Controller) ListOpenGames(ctx context.Context) ([]model.GameSummary, error) {
	games, err := c.storage.ListGames(ctx, storage.GameFilter{
		IncompleteOnly: true,
		Order:          storage.OrderByStartTime,
	})
	if err != nil {
		return nil, err
	}
	return c.summarize(ctx, games, false)
}

// ListAllGames returns every game, newest first
func (c *Controller) ListAllGames(ctx context.Context) ([]model.GameSummary, error) {
	games, err := c.storage.ListGames(ctx, storage.GameFilter{
		Order: storage.OrderByCreatedDesc,
	})
	if err != nil {
		return nil, err
	}
	return c.summarize(ctx, games, true)
}

func (c *Controller) summarize(ctx context.Context, games []*model.Game, includeComplete bool) ([]model.GameSummary, error) {
	summaries := make([]model.GameSummary, 0, len(games))
	for _, stored := range games {
		game, state, err := c.reconcile(ctx, stored, false)
		if err != nil {
			return nil, err
		}
		if state == model.GameStateComplete && !includeComplete {
			continue
		}
		count, err := c.storage.CountPlayers(ctx, game.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, model.GameSummary{
			Game:        game,
			State:       state,
			PlayerCount: count,
		})
	}
	return summaries, nil
}

// StartGame sets the game's start time to now
func (c *Controller) StartGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	return c.ScheduleGame(ctx, gameID, c.clock.Now())
}

// ScheduleGame sets the game's start time. It fails with
// ErrGameAlreadyStarted when the game already started and with
// ErrGameComplete when it has finished.
func (c *Controller) ScheduleGame(ctx context.Context, gameID model.GameID, at time.Time) (*model.Game, error) {
	now := c.clock.Now()
	at = at.UTC()
	if at.Before(now) {
		return nil, model.NewValidationError("start_time", "must not be in the past")
	}

	unlock := c.locks.lock(gameID)
	defer unlock()

	_, state, err := c.observeLocked(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if state == model.GameStateComplete {
		return nil, model.ErrGameComplete
	}

	game, err := c.storage.SetStartTime(ctx, gameID, at, now)
	if err != nil {
		if !model.IsConflict(err) {
			c.logger.Error("failed to set start time",
				slog.Int64("game_id", int64(gameID)),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	c.logger.Info("game scheduled",
		slog.Int64("game_id", int64(gameID)),
		slog.Time("start_time", *game.StartTime),
	)

	if game.StateAt(now) == model.GameStateActive {
		c.announceStarted(ctx, gameID, true)
	}
	return game, nil
}

// PlayableGame returns an active game and its questions. Games that have not
// started yield ErrGameNotActive; finished games yield ErrGameComplete.
func (c *Controller) PlayableGame(ctx context.Context, gameID model.GameID) (*model.Game, []model.Question, error) {
	game, state, err := c.observe(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireActive(state); err != nil {
		return nil, nil, err
	}

	questions, err := c.storage.GetQuestions(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	return game, questions, nil
}

// Submit scores a player's answers and records the score. A submission that
// answers every question correctly completes the game. Submissions for one
// game are processed one at a time.
func (c *Controller) Submit(ctx context.Context, gameID model.GameID, sub Submission) (*SubmitResult, error) {
	address := strings.TrimSpace(sub.Address)
	if address == "" {
		return nil, model.NewValidationError("address", "is required")
	}

	unlock := c.locks.lock(gameID)
	defer unlock()

	_, state, err := c.observeLocked(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := requireActive(state); err != nil {
		return nil, err
	}

	player, err := c.storage.GetPlayerByAddress(ctx, gameID, address)
	if err != nil {
		return nil, err
	}
	questions, err := c.storage.GetQuestions(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var score int
	if sub.Answers != nil {
		score = c.scoring.Score(questions, sub.Answers)
	} else {
		score = c.scoring.ScoreKeyed(questions, sub.KeyedAnswers)
	}

	if err := c.storage.UpdatePlayerScore(ctx, player.ID, score); err != nil {
		c.logger.Error("failed to record score",
			slog.Int64("game_id", int64(gameID)),
			slog.Int64("player_id", int64(player.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	player.Score = score
	metrics.Submissions.Inc()

	c.logger.Info("answers scored",
		slog.Int64("game_id", int64(gameID)),
		slog.Int64("player_id", int64(player.ID)),
		slog.Int("score", score),
		slog.Int("question_count", len(questions)),
	)

	c.publish(model.EventPlayerScoreUpdate, gameID, model.PlayerScoreUpdatePayload{
		GameID:   gameID,
		PlayerID: player.ID,
		Score:    score,
	})

	result := &SubmitResult{Player: player, Score: score}
	if len(questions) == 0 || score < len(questions) {
		return result, nil
	}

	flipped, err := c.storage.MarkComplete(ctx, gameID)
	if err != nil {
		c.logger.Error("failed to complete game",
			slog.Int64("game_id", int64(gameID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	result.GameComplete = true
	if !flipped {
		return result, nil
	}

	result.Won = true
	metrics.RecordCompletion(metrics.CompletionWin)
	c.forgetAnnounced(gameID)

	c.logger.Info("game won",
		slog.Int64("game_id", int64(gameID)),
		slog.Int64("winner_id", int64(player.ID)),
	)

	winnerID := player.ID
	c.publish(model.EventGameComplete, gameID, model.GameCompletePayload{
		GameID:   gameID,
		WinnerID: &winnerID,
	})
	return result, nil
}

func requireActive(state model.GameState) error {
	switch state {
	case model.GameStateActive:
		return nil
	case model.GameStateComplete:
		return model.ErrGameComplete
	default:
		return model.ErrGameNotActive
	}
}

// observe loads a game and reconciles it against the clock
func (c *Controller) observe(ctx context.Context, gameID model.GameID) (*model.Game, model.GameState, error) {
	stored, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, "", err
	}
	return c.reconcile(ctx, stored, false)
}

// observeLocked is observe for callers already holding the game's lock
func (c *Controller) observeLocked(ctx context.Context, gameID model.GameID) (*model.Game, model.GameState, error) {
	stored, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, "", err
	}
	return c.reconcile(ctx, stored, true)
}

// reconcile applies Reconcile and persists and announces any transition the
// passage of time has caused. A time-limit completion runs under the game's
// lock so it is ordered with submissions; held reports the caller has it.
func (c *Controller) reconcile(ctx context.Context, stored *model.Game, held bool) (*model.Game, model.GameState, error) {
	now := c.clock.Now()
	game := Reconcile(stored, now)

	if stored.IsComplete {
		// Completed elsewhere, possibly by another process
		c.forgetAnnounced(stored.ID)
		return game, model.GameStateComplete, nil
	}
	if game.IsComplete {
		if !held {
			unlock := c.locks.lock(stored.ID)
			defer unlock()

			// A submission may have completed the game while we waited
			fresh, err := c.storage.GetGame(ctx, stored.ID)
			if err != nil {
				return nil, "", err
			}
			if fresh.IsComplete {
				return fresh, model.GameStateComplete, nil
			}
		}
		if err := c.completeByTime(ctx, game); err != nil {
			return nil, "", err
		}
		return game, model.GameStateComplete, nil
	}

	state := game.StateAt(now)
	if state == model.GameStateActive {
		c.announceStarted(ctx, game.ID, held)
	}
	return game, state, nil
}

// completeByTime persists a time-limit completion. Only the caller whose
// update flips the flag announces it.
func (c *Controller) completeByTime(ctx context.Context, game *model.Game) error {
	flipped, err := c.storage.MarkComplete(ctx, game.ID)
	if err != nil {
		c.logger.Error("failed to complete expired game",
			slog.Int64("game_id", int64(game.ID)),
			slog.String("error", err.Error()),
		)
		return err
	}
	if !flipped {
		return nil
	}

	metrics.RecordCompletion(metrics.CompletionTime)
	c.forgetAnnounced(game.ID)

	var winnerID *model.PlayerID
	players, err := c.storage.ListPlayers(ctx, game.ID)
	if err != nil {
		c.logger.Warn("could not determine winner for expired game",
			slog.Int64("game_id", int64(game.ID)),
			slog.String("error", err.Error()),
		)
	} else if winner := leaderboard.Winner(players); winner != nil {
		id := winner.ID
		winnerID = &id
	}

	c.logger.Info("game expired",
		slog.Int64("game_id", int64(game.ID)),
		slog.Int("player_count", len(players)),
	)

	c.publish(model.EventGameComplete, game.ID, model.GameCompletePayload{
		GameID:   game.ID,
		WinnerID: winnerID,
	})
	return nil
}

// announceStarted publishes game_started the first time this process sees
// the game active. The first announcement re-reads the game under its lock,
// so a game completed concurrently is never announced.
func (c *Controller) announceStarted(ctx context.Context, gameID model.GameID, held bool) {
	if c.isAnnounced(gameID) {
		return
	}
	if !held {
		unlock := c.locks.lock(gameID)
		defer unlock()
	}

	stored, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		c.logger.Warn("could not confirm game start",
			slog.Int64("game_id", int64(gameID)),
			slog.String("error", err.Error()),
		)
		return
	}
	now := c.clock.Now()
	if Reconcile(stored, now).StateAt(now) != model.GameStateActive {
		return
	}

	c.mu.Lock()
	_, done := c.announced[gameID]
	if !done {
		c.announced[gameID] = struct{}{}
	}
	c.mu.Unlock()

	if done {
		return
	}
	c.publish(model.EventGameStarted, gameID, model.GameStartedPayload{GameID: gameID})
}

func (c *Controller) isAnnounced(gameID model.GameID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.announced[gameID]
	return ok
}

// forgetAnnounced drops a completed game's entry. StateAt never reports a
// complete game as active, so game_started cannot be sent again.
func (c *Controller) forgetAnnounced(gameID model.GameID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.announced, gameID)
}

func (c *Controller) publish(eventType model.EventType, gameID model.GameID, payload any) {
	c.publisher.Publish(model.Event{
		Type:      eventType,
		GameID:    gameID,
		Timestamp: c.clock.Now(),
		Payload:   payload,
	})
}
