package game

import (
	"context"
	"errors"
	"sync"

	"github.com/KirkDiggler/ludo/internal/models"
)

// memoryRepository keeps sessions in process memory. It backs the terminal
// client, where a session never outlives the process.
type memoryRepository struct {
	mu       sync.RWMutex
	games    map[string]*models.Session
	channels map[string]string
}

// NewMemory creates an in-memory game repository
func NewMemory() *memoryRepository {
	return &memoryRepository{
		games:    make(map[string]*models.Session),
		channels: make(map[string]string),
	}
}

// SaveGame stores a deep copy of the session
func (r *memoryRepository) SaveGame(ctx context.Context, input *SaveGameInput) error {
	if input == nil || input.Game == nil {
		return errors.New("input and game cannot be nil")
	}
	if input.Game.ID == "" {
		return errors.New("game ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.games[input.Game.ID] = input.Game.Clone()
	if input.Game.ChannelID != "" {
		r.channels[input.Game.ChannelID] = input.Game.ID
	}
	return nil
}

// GetGame returns a deep copy of the stored session
func (r *memoryRepository) GetGame(ctx context.Context, input *GetGameInput) (*models.Session, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	game, ok := r.games[input.GameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return game.Clone(), nil
}

// GetGameByChannel returns the session bound to a channel
func (r *memoryRepository) GetGameByChannel(ctx context.Context, input *GetGameByChannelInput) (*models.Session, error) {
	if input == nil || input.ChannelID == "" {
		return nil, errors.New("input and channel ID cannot be empty")
	}

	r.mu.RLock()
	gameID, ok := r.channels[input.ChannelID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrGameNotFound
	}

	return r.GetGame(ctx, &GetGameInput{GameID: gameID})
}

// DeleteGame removes a session and its channel binding
func (r *memoryRepository) DeleteGame(ctx context.Context, input *DeleteGameInput) error {
	if input == nil || input.GameID == "" {
		return errors.New("input and game ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	game, ok := r.games[input.GameID]
	if !ok {
		return ErrGameNotFound
	}
	delete(r.games, input.GameID)
	if game.ChannelID != "" && r.channels[game.ChannelID] == input.GameID {
		delete(r.channels, game.ChannelID)
	}
	return nil
}

// GetActiveGames returns every unfinished session
func (r *memoryRepository) GetActiveGames(ctx context.Context, input *GetActiveGamesInput) (*GetActiveGamesOutput, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	games := make([]*models.Session, 0, len(r.games))
	for _, game := range r.games {
		if !game.Phase.IsFinished() {
			games = append(games, game.Clone())
		}
	}
	return &GetActiveGamesOutput{Games: games}, nil
}
