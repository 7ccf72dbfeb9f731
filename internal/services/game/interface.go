package game

import (
	"context"

	"github.com/KirkDiggler/ludo/internal/engine"
	"github.com/KirkDiggler/ludo/internal/models"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/KirkDiggler/ludo/internal/services/game Service
//go:generate mockgen -package=game -self_package=github.com/KirkDiggler/ludo/internal/services/game -destination=mock_notifier_test.go github.com/KirkDiggler/ludo/internal/services/game Notifier

// Service defines the interface for game operations
type Service interface {
	// CreateGame creates a session in setup
	CreateGame(ctx context.Context, input *CreateGameInput) (*CreateGameOutput, error)

	// StartGame seats the players and starts the first turn
	StartGame(ctx context.Context, input *StartGameInput) (*StartGameOutput, error)

	// RollDice rolls the die for the active player
	RollDice(ctx context.Context, input *RollDiceInput) (*RollDiceOutput, error)

	// MovePiece moves a piece by the pending die value
	MovePiece(ctx context.Context, input *MovePieceInput) (*MovePieceOutput, error)

	// RestartGame returns a session to setup
	RestartGame(ctx context.Context, input *RestartGameInput) (*RestartGameOutput, error)

	// ApplyAction replays an action record produced by a remote peer
	ApplyAction(ctx context.Context, input *ApplyActionInput) (*ApplyActionOutput, error)

	// GetGame retrieves a session by ID
	GetGame(ctx context.Context, input *GetGameInput) (*GetGameOutput, error)

	// GetGameByChannel retrieves the session bound to a channel
	GetGameByChannel(ctx context.Context, input *GetGameByChannelInput) (*GetGameOutput, error)

	// GetSnapshot returns a full copy of a session for a full sync
	GetSnapshot(ctx context.Context, input *GetSnapshotInput) (*GetSnapshotOutput, error)

	// LoadSnapshot replaces a session with a snapshot from a peer
	LoadSnapshot(ctx context.Context, input *LoadSnapshotInput) (*LoadSnapshotOutput, error)

	// GetMovablePieces lists the pieces a player may move right now
	GetMovablePieces(ctx context.Context, input *GetMovablePiecesInput) (*GetMovablePiecesOutput, error)

	// GetStats summarizes the history of a session
	GetStats(ctx context.Context, input *GetStatsInput) (*GetStatsOutput, error)
}

// Notifier receives transition events. It is fire-and-forget: nothing it
// does feeds back into the game.
type Notifier interface {
	Notify(ctx context.Context, input *NotifyInput)
}

// NotifyInput carries one event and the session after the transition
type NotifyInput struct {
	Game  *models.Session
	Event engine.Event
}
