package seat

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/ludo/internal/repositories/seat Repository

import (
	"context"
	"errors"

	"github.com/KirkDiggler/ludo/internal/models"
)

// ErrSeatNotFound is returned when a user has no seat in a game
var ErrSeatNotFound = errors.New("seat not found")

// Repository maps external users to seats of a game
type Repository interface {
	// SaveSeat persists a seat
	SaveSeat(ctx context.Context, input *SaveSeatInput) error

	// GetSeat retrieves the seat of a user in a game
	GetSeat(ctx context.Context, input *GetSeatInput) (*models.Seat, error)

	// GetSeatsInGame retrieves every seat of a game ordered by ordinal
	GetSeatsInGame(ctx context.Context, input *GetSeatsInGameInput) (*GetSeatsInGameOutput, error)

	// ClearGame removes every seat of a game
	ClearGame(ctx context.Context, input *ClearGameInput) error
}

// SaveSeatInput contains parameters for saving a seat
type SaveSeatInput struct {
	Seat *models.Seat
}

// GetSeatInput contains parameters for retrieving a seat
type GetSeatInput struct {
	GameID string
	UserID string
}

// GetSeatsInGameInput contains parameters for retrieving the seats of a game
type GetSeatsInGameInput struct {
	GameID string
}

// GetSeatsInGameOutput contains the seats of a game
type GetSeatsInGameOutput struct {
	Seats []*models.Seat
}

// ClearGameInput contains parameters for clearing the seats of a game
type ClearGameInput struct {
	GameID string
}
