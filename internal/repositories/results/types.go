package results

import "github.com/KirkDiggler/ludo/internal/models"

// DefaultLimit is used when an input asks for no limit
const DefaultLimit = 10

// RecordResultInput contains parameters for recording a result
type RecordResultInput struct {
	Result *models.Result
}

// GetRecentResultsInput contains parameters for listing results
type GetRecentResultsInput struct {
	ChannelID string
	Limit     int
}

// GetRecentResultsOutput contains the results of a channel
type GetRecentResultsOutput struct {
	Results []*models.Result
}

// GetLeaderboardInput contains parameters for building a leaderboard
type GetLeaderboardInput struct {
	ChannelID string
	Limit     int
}

// GetLeaderboardOutput contains the leaderboard, most wins first
type GetLeaderboardOutput struct {
	Entries []*models.LeaderboardEntry
}
