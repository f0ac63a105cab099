package redis

import "github.com/redis/go-redis/v9"

// Results returned by addPlayerScript
const (
	addPlayerOK          = 1
	addPlayerNoGame      = -1
	addPlayerDuplicate   = -2
	addPlayerCapacityHit = -3
	addPlayerComplete    = -4
)

// addPlayerScript registers a player atomically: the duplicate check, the
// completion and capacity checks and the writes happen in one script
// execution.
//
// KEYS: game, address index, game players list, player
// ARGV: address, max players, player id, player json
var addPlayerScript = redis.NewScript(`
local game = redis.call('GET', KEYS[1])
if not game then
	return -1
end
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 1 then
	return -2
end
if cjson.decode(game)['IsComplete'] == true then
	return -4
end
if redis.call('LLEN', KEYS[3]) >= tonumber(ARGV[2]) then
	return -3
end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
redis.call('RPUSH', KEYS[3], ARGV[3])
redis.call('SET', KEYS[4], ARGV[4])
return 1
`)

// createAdminScript claims a username and stores the admin atomically.
//
// KEYS: username index, admin
// ARGV: admin id, admin json
var createAdminScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)
