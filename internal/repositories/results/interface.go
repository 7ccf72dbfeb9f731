package results

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/ludo/internal/repositories/results Repository

import (
	"context"
)

// Repository keeps the finished games of each channel
type Repository interface {
	// RecordResult stores a result and credits the winner
	RecordResult(ctx context.Context, input *RecordResultInput) error

	// GetRecentResults returns the latest results of a channel, newest first
	GetRecentResults(ctx context.Context, input *GetRecentResultsInput) (*GetRecentResultsOutput, error)

	// GetLeaderboard returns the users with the most wins in a channel
	GetLeaderboard(ctx context.Context, input *GetLeaderboardInput) (*GetLeaderboardOutput, error)
}
