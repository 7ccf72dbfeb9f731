package models

import (
	"time"
)

// Seat links an external user (chat user or peer) to a seat of a game
type Seat struct {
	// GameID is the ID of the game the user sits at
	GameID string `json:"game_id"`

	// UserID is the ID of the user
	UserID string `json:"user_id"`

	// UserName is the display name of the user
	UserName string `json:"user_name"`

	// Ordinal is the 0-based seat index, in join order
	Ordinal int `json:"ordinal"`

	// JoinedAt is when the user took the seat
	JoinedAt time.Time `json:"joined_at"`
}
