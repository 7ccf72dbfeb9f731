package game

import (
	"github.com/KirkDiggler/ludo/internal/common/clock"
	"github.com/KirkDiggler/ludo/internal/common/uuid"
	"github.com/KirkDiggler/ludo/internal/dice"
	"github.com/KirkDiggler/ludo/internal/history"
	"github.com/KirkDiggler/ludo/internal/models"
	gameRepo "github.com/KirkDiggler/ludo/internal/repositories/game"
	"go.uber.org/zap"
)

// Config holds configuration for the game service
type Config struct {
	// Rules applied to games created without explicit rules
	DefaultRules models.Rules

	// Repository dependencies
	GameRepo gameRepo.Repository

	// Service dependencies
	DiceRoller    dice.Roller
	Clock         clock.Clock
	UUIDGenerator uuid.UUID

	// Notifier is optional
	Notifier Notifier

	// Logger is optional
	Logger *zap.Logger
}

// CreateGameInput contains parameters for creating a new game
type CreateGameInput struct {
	// GameID is optional; peers joining a remote game reuse the host's ID
	GameID string

	// ChannelID is where the game is being played
	ChannelID string

	// PlayerCount is the preselected number of players (2-4, default 4)
	PlayerCount int

	// Rules overrides the service default rules
	Rules *models.Rules
}

// CreateGameOutput contains the result of creating a new game
type CreateGameOutput struct {
	Game *models.Session
}

// StartGameInput contains parameters for starting a game
type StartGameInput struct {
	GameID string

	// PlayerCount falls back to the session's selected player count
	PlayerCount int

	// Names are optional display names in seat order
	Names []string
}

// StartGameOutput contains the result of starting a game
type StartGameOutput struct {
	Accepted bool
	Reason   error
	Game     *models.Session
	Actions  []models.Action
}

// RollDiceInput contains parameters for rolling the die
type RollDiceInput struct {
	GameID string

	// Player is the seat asking to roll
	Player int
}

// RollDiceOutput contains the result of a roll
type RollDiceOutput struct {
	Accepted bool
	Reason   error

	// Value is the rolled die value
	Value int

	// MovablePieces are the slots that may move with Value
	MovablePieces []int

	// Passed is set when the roll handed the turn on without a move
	Passed bool

	// Forfeited is set when the pass was caused by too many sixes
	Forfeited bool

	// AutoMove is the move made for the player when only one piece could move
	AutoMove *MovePieceOutput

	Game    *models.Session
	Actions []models.Action
}

// MovePieceInput contains parameters for moving a piece
type MovePieceInput struct {
	GameID string
	Player int
	Piece  int
}

// MovePieceOutput contains the result of a move
type MovePieceOutput struct {
	Accepted bool
	Reason   error

	From     int
	To       int
	Captured []models.PieceRef

	// ExtraTurn is set when the mover keeps the turn
	ExtraTurn bool

	// Won is set when the move finished the game
	Won bool

	Game    *models.Session
	Actions []models.Action
}

// RestartGameInput contains parameters for restarting a game
type RestartGameInput struct {
	GameID string
}

// RestartGameOutput contains the result of restarting a game
type RestartGameOutput struct {
	Game    *models.Session
	Actions []models.Action
}

// ApplyActionInput contains a remote action to replay
type ApplyActionInput struct {
	GameID string
	Action *models.Action
}

// ApplyActionOutput contains the result of a replay
type ApplyActionOutput struct {
	Accepted bool
	Reason   error
	Game     *models.Session

	// Actions are the records the replay produced locally, derived ones included
	Actions []models.Action
}

// GetGameInput contains parameters for retrieving a game
type GetGameInput struct {
	GameID string
}

// GetGameByChannelInput contains parameters for retrieving a game by channel
type GetGameByChannelInput struct {
	ChannelID string
}

// GetGameOutput contains a session
type GetGameOutput struct {
	Game *models.Session
}

// GetSnapshotInput contains parameters for taking a snapshot
type GetSnapshotInput struct {
	GameID string
}

// GetSnapshotOutput contains a deep copy of a session
type GetSnapshotOutput struct {
	Game    *models.Session
	LastSeq int
}

// LoadSnapshotInput contains a snapshot received from a peer
type LoadSnapshotInput struct {
	Game *models.Session

	// Force loads the snapshot even when it is behind local history
	Force bool
}

// LoadSnapshotOutput contains the loaded session
type LoadSnapshotOutput struct {
	Game *models.Session
}

// GetMovablePiecesInput contains parameters for listing movable pieces
type GetMovablePiecesInput struct {
	GameID string
	Player int
}

// GetMovablePiecesOutput lists the movable pieces of a player
type GetMovablePiecesOutput struct {
	// Dice is the pending die value, zero when no move is pending
	Dice   int
	Pieces []int
}

// GetStatsInput contains parameters for summarizing a game
type GetStatsInput struct {
	GameID string
}

// GetStatsOutput contains the statistics of a game
type GetStatsOutput struct {
	Stats *history.Stats
}
