package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	resultKeyPrefix         = "ludo:result:"
	channelResultsKeyPrefix = "ludo:channel_results:"
	channelWinsKeyPrefix    = "ludo:channel_wins:"
	channelNamesKeyPrefix   = "ludo:channel_names:"
)

// ErrDuplicateResult is returned when a result ID was already recorded
var ErrDuplicateResult = errors.New("result already recorded")

// Config holds configuration for the Redis results repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed results repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// RecordResult stores a result once and credits the winner
func (r *redisRepository) RecordResult(ctx context.Context, input *RecordResultInput) error {
	if input == nil || input.Result == nil {
		return errors.New("input and result cannot be nil")
	}

	result := input.Result
	if result.ID == "" {
		return errors.New("result ID cannot be empty")
	}
	if result.ChannelID == "" {
		return errors.New("channel ID cannot be empty")
	}
	if result.WinnerID == "" {
		return errors.New("winner ID cannot be empty")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// The result key doubles as the guard against crediting a win twice
	stored, err := r.client.SetNX(ctx, resultKeyPrefix+result.ID, resultJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	if !stored {
		return ErrDuplicateResult
	}

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, channelResultsKeyPrefix+result.ChannelID, redis.Z{
		Score:  float64(result.FinishedAt.Unix()),
		Member: result.ID,
	})
	pipe.ZIncrBy(ctx, channelWinsKeyPrefix+result.ChannelID, 1, result.WinnerID)
	if result.WinnerName != "" {
		pipe.HSet(ctx, channelNamesKeyPrefix+result.ChannelID, result.WinnerID, result.WinnerName)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

// GetRecentResults returns the latest results of a channel
func (r *redisRepository) GetRecentResults(ctx context.Context, input *GetRecentResultsInput) (*GetRecentResultsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if input.ChannelID == "" {
		return nil, errors.New("channel ID cannot be empty")
	}

	ids, err := r.client.ZRevRange(ctx, channelResultsKeyPrefix+input.ChannelID, 0, int64(limit(input.Limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	if len(ids) == 0 {
		return &GetRecentResultsOutput{Results: []*models.Result{}}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = resultKeyPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	results := make([]*models.Result, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var result models.Result
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		results = append(results, &result)
	}

	return &GetRecentResultsOutput{Results: results}, nil
}

// GetLeaderboard returns the winners of a channel, most wins first
func (r *redisRepository) GetLeaderboard(ctx context.Context, input *GetLeaderboardInput) (*GetLeaderboardOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if input.ChannelID == "" {
		return nil, errors.New("channel ID cannot be empty")
	}

	wins, err := r.client.ZRevRangeWithScores(ctx, channelWinsKeyPrefix+input.ChannelID, 0, int64(limit(input.Limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	if len(wins) == 0 {
		return &GetLeaderboardOutput{Entries: []*models.LeaderboardEntry{}}, nil
	}

	userIDs := make([]string, len(wins))
	for i, z := range wins {
		userIDs[i], _ = z.Member.(string)
	}
	names, err := r.client.HMGet(ctx, channelNamesKeyPrefix+input.ChannelID, userIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get winner names: %w", err)
	}

	entries := make([]*models.LeaderboardEntry, len(wins))
	for i, z := range wins {
		name, _ := names[i].(string)
		entries[i] = &models.LeaderboardEntry{
			UserID: userIDs[i],
			Name:   name,
			Wins:   int(z.Score),
		}
	}

	return &GetLeaderboardOutput{Entries: entries}, nil
}

func limit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}
