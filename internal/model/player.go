package model

import "time"

// PlayerID uniquely identifies a player registration
type PlayerID int64

// AddressLength is the length of an address identifier in its reference form
const AddressLength = 42

// Player is a registration of an address for one game.
// (GameID, AddressID) is unique.
type Player struct {
	ID        PlayerID
	GameID    GameID
	AddressID string
	Score     int
	JoinedAt  time.Time
}

// AdminID uniquely identifies an administrator
type AdminID int64

// Admin is an administrator credential
type Admin struct {
	ID           AdminID
	Username     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}
