package models

import (
	"time"
)

// ActionKind identifies the kind of an action record
type ActionKind string

const (
	ActionGameStarted   ActionKind = "game_started"
	ActionDiceRolled    ActionKind = "dice_rolled"
	ActionPieceMoved    ActionKind = "piece_moved"
	ActionPieceCaptured ActionKind = "piece_captured"
	ActionTurnSwitched  ActionKind = "turn_switched"
	ActionGameWon       ActionKind = "game_won"
	ActionGameRestarted ActionKind = "game_restarted"
)

// Valid reports whether the kind is known
func (k ActionKind) Valid() bool {
	switch k {
	case ActionGameStarted, ActionDiceRolled, ActionPieceMoved, ActionPieceCaptured,
		ActionTurnSwitched, ActionGameWon, ActionGameRestarted:
		return true
	}
	return false
}

// Originating reports whether a record starts a transition, as opposed to
// being derived from one. Only originating records are replayed on peers.
func (k ActionKind) Originating() bool {
	switch k {
	case ActionGameStarted, ActionDiceRolled, ActionPieceMoved, ActionGameRestarted:
		return true
	}
	return false
}

// Action is an immutable entry of the game history. It doubles as the wire
// format for network replay.
type Action struct {
	// ID is the unique identifier for the record
	ID string `json:"id"`

	// Seq is the 1-based position of the record in the history
	Seq int `json:"seq"`

	// Kind is what happened
	Kind ActionKind `json:"kind"`

	// Actor is the seat that caused the record
	Actor int `json:"actor"`

	// Player is the owner of the affected piece (the captured player for captures,
	// the next seat for turn switches)
	Player int `json:"player"`

	// Piece is the affected piece slot, -1 when not applicable
	Piece int `json:"piece"`

	// From is the position before the change
	From int `json:"from"`

	// To is the position after the change
	To int `json:"to"`

	// Dice is the die value involved
	Dice int `json:"dice"`

	// CaptureCount is the number of pieces captured by a move
	CaptureCount int `json:"capture_count"`

	// Captures lists the captured pieces of a move
	Captures []PieceRef `json:"captures,omitempty"`

	// PlayerCount is set on game_started records
	PlayerCount int `json:"player_count,omitempty"`

	// Names are the display names sent with game_started records
	Names []string `json:"names,omitempty"`

	// Timestamp is when the record was created
	Timestamp time.Time `json:"timestamp"`
}
