package leaderboard

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mcoot/trivia-pot/internal/dependencies/clock"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/storage"
)

// Stats are aggregates across every stored game
type Stats struct {
	TotalGames   int
	TotalPot     decimal.Decimal
	TotalPlayers int
	// AverageDurationSeconds is the mean time limit of completed games
	AverageDurationSeconds float64
	// AveragePayout is the mean pot of completed games that had a winner
	AveragePayout decimal.Decimal
}

// Service derives standings and statistics from stored games and players
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new LeaderboardService
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Rank returns a copy of players ordered by score descending. Ties go to the
// earlier joiner, then the lower ID.
func Rank(players []*model.Player) []*model.Player {
	ranked := make([]*model.Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})
	return ranked
}

// Winner returns the top-ranked player, or nil if there are none
func Winner(players []*model.Player) *model.Player {
	if len(players) == 0 {
		return nil
	}
	return Rank(players)[0]
}

// Standings returns a game's players in rank order
func (s *Service) Standings(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	if _, err := s.storage.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	players, err := s.storage.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return Rank(players), nil
}

// Stats recomputes the cross-game aggregates from scratch
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	games, err := s.storage.ListGames(ctx, storage.GameFilter{})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	stats := &Stats{
		TotalGames:    len(games),
		TotalPot:      decimal.Zero,
		AveragePayout: decimal.Zero,
	}

	var (
		completed   int
		durationSum int
		paidOut     int
		payoutSum   = decimal.Zero
	)

	for _, g := range games {
		count, err := s.storage.CountPlayers(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		stats.TotalPot = stats.TotalPot.Add(g.PotSize)
		stats.TotalPlayers += count

		// A game past its time limit counts as complete even before a
		// read has persisted the transition
		if !g.IsComplete && !g.TimeExpiredAt(now) {
			continue
		}
		completed++
		durationSum += g.TimeLimitSeconds
		if count > 0 {
			paidOut++
			payoutSum = payoutSum.Add(g.PotSize)
		}
	}

	if completed > 0 {
		stats.AverageDurationSeconds = float64(durationSum) / float64(completed)
	}
	if paidOut > 0 {
		stats.AveragePayout = payoutSum.Div(decimal.NewFromInt(int64(paidOut))).Round(2)
	}

	s.logger.Debug("stats computed",
		slog.Int("total_games", stats.TotalGames),
		slog.Int("completed_games", completed),
	)

	return stats, nil
}
