package storage

import (
	"sort"

	"github.com/mcoot/trivia-pot/internal/model"
)

// SortGames orders games in place for backends that cannot order natively
func SortGames(games []*model.Game, order GameOrder) {
	switch order {
	case OrderByCreatedDesc:
		sort.SliceStable(games, func(i, j int) bool {
			a, b := games[i], games[j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		})
	default:
		sort.SliceStable(games, func(i, j int) bool {
			a, b := games[i], games[j]
			switch {
			case a.StartTime == nil && b.StartTime == nil:
				return a.ID < b.ID
			case a.StartTime == nil:
				return false
			case b.StartTime == nil:
				return true
			case !a.StartTime.Equal(*b.StartTime):
				return a.StartTime.Before(*b.StartTime)
			default:
				return a.ID < b.ID
			}
		})
	}
}

// SortPlayers orders players by join time, then id
func SortPlayers(players []*model.Player) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})
}
