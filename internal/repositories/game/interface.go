package game

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/ludo/internal/repositories/game Repository

import (
	"context"
	"errors"

	"github.com/KirkDiggler/ludo/internal/models"
)

// ErrGameNotFound is returned when a game is not found
var ErrGameNotFound = errors.New("game not found")

// Repository defines the interface for session persistence
type Repository interface {
	// SaveGame persists a session
	SaveGame(ctx context.Context, input *SaveGameInput) error

	// GetGame retrieves a session by ID
	GetGame(ctx context.Context, input *GetGameInput) (*models.Session, error)

	// GetGameByChannel retrieves a session by channel ID
	GetGameByChannel(ctx context.Context, input *GetGameByChannelInput) (*models.Session, error)

	// DeleteGame removes a session
	DeleteGame(ctx context.Context, input *DeleteGameInput) error

	// GetActiveGames retrieves every session that has not finished
	GetActiveGames(ctx context.Context, input *GetActiveGamesInput) (*GetActiveGamesOutput, error)
}

type SaveGameInput struct {
	Game *models.Session
}

type GetGameInput struct {
	GameID string
}

type GetGameByChannelInput struct {
	ChannelID string
}

type DeleteGameInput struct {
	GameID string
}

type GetActiveGamesInput struct {
}

type GetActiveGamesOutput struct {
	Games []*models.Session
}
