package redis

import (
	"fmt"

	"github.com/mcoot/trivia-pot/internal/model"
)

// Key prefix for all trivia data
const keyPrefix = "trivia"

// Key generation functions for each entity type

// sequenceKey returns the Redis key for an entity's ID counter
func sequenceKey(entity string) string {
	return fmt.Sprintf("%s:seq:%s", keyPrefix, entity)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%d", keyPrefix, id)
}

// gamesIndexKey returns the Redis key for the SET of all game IDs
func gamesIndexKey() string {
	return fmt.Sprintf("%s:idx:games", keyPrefix)
}

// questionsKey returns the Redis key for a game's question list
func questionsKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:questions:%d", keyPrefix, gameID)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, id)
}

// gamePlayersKey returns the Redis key for the LIST of a game's player IDs
// in join order
func gamePlayersKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:game_players:%d", keyPrefix, gameID)
}

// addressIndexKey returns the Redis key for the HASH of address -> player ID
// within a game
func addressIndexKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:address:%d", keyPrefix, gameID)
}

// adminKey returns the Redis key for an Admin
func adminKey(id model.AdminID) string {
	return fmt.Sprintf("%s:admin:%d", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> admin ID index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}
