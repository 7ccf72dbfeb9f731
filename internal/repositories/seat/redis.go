package seat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	seatKeyPrefix      = "ludo:seat:"
	gameSeatsKeyPrefix = "ludo:game_seats:"
)

// Config holds configuration for the Redis seat repository
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// TTL expires idle seats; zero keeps them forever
	TTL time.Duration
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a new Redis-backed seat repository
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
		ttl:    cfg.TTL,
	}, nil
}

func seatKey(gameID, userID string) string {
	return fmt.Sprintf("%s%s:%s", seatKeyPrefix, gameID, userID)
}

// SaveSeat persists a seat to Redis
func (r *redisRepository) SaveSeat(ctx context.Context, input *SaveSeatInput) error {
	if input == nil || input.Seat == nil {
		return errors.New("input and seat cannot be nil")
	}

	seat := input.Seat
	if seat.GameID == "" || seat.UserID == "" {
		return errors.New("game ID and user ID cannot be empty")
	}

	seatJSON, err := json.Marshal(seat)
	if err != nil {
		return fmt.Errorf("failed to marshal seat: %w", err)
	}

	pipe := r.client.Pipeline()

	pipe.Set(ctx, seatKey(seat.GameID, seat.UserID), seatJSON, r.ttl)

	gameSeatsKey := gameSeatsKeyPrefix + seat.GameID
	pipe.SAdd(ctx, gameSeatsKey, seat.UserID)
	if r.ttl > 0 {
		pipe.Expire(ctx, gameSeatsKey, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save seat: %w", err)
	}

	return nil
}

// GetSeat retrieves the seat of a user from Redis
func (r *redisRepository) GetSeat(ctx context.Context, input *GetSeatInput) (*models.Seat, error) {
	if input == nil || input.GameID == "" || input.UserID == "" {
		return nil, errors.New("input, game ID and user ID cannot be empty")
	}

	seatJSON, err := r.client.Get(ctx, seatKey(input.GameID, input.UserID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSeatNotFound
		}
		return nil, fmt.Errorf("failed to get seat: %w", err)
	}

	var seat models.Seat
	if err := json.Unmarshal([]byte(seatJSON), &seat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seat: %w", err)
	}

	return &seat, nil
}

// GetSeatsInGame retrieves all seats of a game from Redis
func (r *redisRepository) GetSeatsInGame(ctx context.Context, input *GetSeatsInGameInput) (*GetSeatsInGameOutput, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}

	userIDs, err := r.client.SMembers(ctx, gameSeatsKeyPrefix+input.GameID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user IDs for game: %w", err)
	}

	if len(userIDs) == 0 {
		return &GetSeatsInGameOutput{
			Seats: []*models.Seat{},
		}, nil
	}

	pipe := r.client.Pipeline()
	seatCommands := make(map[string]*redis.StringCmd, len(userIDs))
	for _, userID := range userIDs {
		seatCommands[userID] = pipe.Get(ctx, seatKey(input.GameID, userID))
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}

	seats := make([]*models.Seat, 0, len(userIDs))
	for userID, cmd := range seatCommands {
		seatJSON, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				// Seat expired between getting the IDs and fetching the seat
				continue
			}
			return nil, fmt.Errorf("failed to get seat %s: %w", userID, err)
		}

		var seat models.Seat
		if err := json.Unmarshal([]byte(seatJSON), &seat); err != nil {
			return nil, fmt.Errorf("failed to unmarshal seat %s: %w", userID, err)
		}

		seats = append(seats, &seat)
	}

	sort.Slice(seats, func(i, j int) bool {
		return seats[i].Ordinal < seats[j].Ordinal
	})

	return &GetSeatsInGameOutput{
		Seats: seats,
	}, nil
}

// ClearGame removes every seat of a game from Redis
func (r *redisRepository) ClearGame(ctx context.Context, input *ClearGameInput) error {
	if input == nil || input.GameID == "" {
		return errors.New("input and game ID cannot be empty")
	}

	gameSeatsKey := gameSeatsKeyPrefix + input.GameID
	userIDs, err := r.client.SMembers(ctx, gameSeatsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get user IDs for game: %w", err)
	}

	keys := make([]string, 0, len(userIDs)+1)
	for _, userID := range userIDs {
		keys = append(keys, seatKey(input.GameID, userID))
	}
	keys = append(keys, gameSeatsKey)

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear seats: %w", err)
	}

	return nil
}
