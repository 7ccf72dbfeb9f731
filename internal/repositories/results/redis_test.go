package results

import (
	"context"
	"testing"
	"time"

	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	client  *redis.Client
	repo    Repository
	testNow time.Time
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := NewRedis(&Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo

	s.testNow = time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) result(id, winner, name string, offset time.Duration) *models.Result {
	return &models.Result{
		ID:         id,
		GameID:     "game-1",
		ChannelID:  "channel-1",
		WinnerID:   winner,
		WinnerName: name,
		Color:      models.ColorRed,
		Players:    2,
		Rolls:      40,
		FinishedAt: s.testNow.Add(offset),
	}
}

func (s *RedisRepositoryTestSuite) TestNewRedisValidatesConfig() {
	_, err := NewRedis(nil)
	s.Error(err)

	_, err = NewRedis(&Config{})
	s.Error(err)
}

func (s *RedisRepositoryTestSuite) TestRecordAndListResults() {
	ctx := context.Background()

	s.Require().NoError(s.repo.RecordResult(ctx, &RecordResultInput{Result: s.result("r1", "user-1", "Alice", 0)}))
	s.Require().NoError(s.repo.RecordResult(ctx, &RecordResultInput{Result: s.result("r2", "user-2", "Bob", time.Minute)}))

	output, err := s.repo.GetRecentResults(ctx, &GetRecentResultsInput{ChannelID: "channel-1"})
	s.Require().NoError(err)
	s.Require().Len(output.Results, 2)

	s.Equal("r2", output.Results[0].ID)
	s.Equal("Bob", output.Results[0].WinnerName)
	s.Equal("r1", output.Results[1].ID)
	s.Equal(models.ColorRed, output.Results[1].Color)
	s.True(s.testNow.Equal(output.Results[1].FinishedAt))

	limited, err := s.repo.GetRecentResults(ctx, &GetRecentResultsInput{ChannelID: "channel-1", Limit: 1})
	s.Require().NoError(err)
	s.Len(limited.Results, 1)
}

func (s *RedisRepositoryTestSuite) TestDuplicateResultIsNotCredited() {
	ctx := context.Background()

	s.Require().NoError(s.repo.RecordResult(ctx, &RecordResultInput{Result: s.result("r1", "user-1", "Alice", 0)}))
	err := s.repo.RecordResult(ctx, &RecordResultInput{Result: s.result("r1", "user-1", "Alice", 0)})
	s.ErrorIs(err, ErrDuplicateResult)

	board, err := s.repo.GetLeaderboard(ctx, &GetLeaderboardInput{ChannelID: "channel-1"})
	s.Require().NoError(err)
	s.Require().Len(board.Entries, 1)
	s.Equal(1, board.Entries[0].Wins)
}

func (s *RedisRepositoryTestSuite) TestLeaderboardOrder() {
	ctx := context.Background()

	s.Require().NoError(s.repo.RecordResult(ctx, &RecordResultInput{Result: s.result("r1", "user-1", "Alice", 0)}))
	s.Require().NoError(s.repo.RecordResult(ctx, &RecordResultInput{Result: s.result("r2", "user-2", "Bob", time.Minute)}))
	s.Require().NoError(s.repo.RecordResult(ctx, &RecordResultInput{Result: s.result("r3", "user-2", "Bobby", 2*time.Minute)}))

	board, err := s.repo.GetLeaderboard(ctx, &GetLeaderboardInput{ChannelID: "channel-1"})
	s.Require().NoError(err)
	s.Require().Len(board.Entries, 2)

	s.Equal("user-2", board.Entries[0].UserID)
	s.Equal("Bobby", board.Entries[0].Name)
	s.Equal(2, board.Entries[0].Wins)
	s.Equal("user-1", board.Entries[1].UserID)
	s.Equal(1, board.Entries[1].Wins)
}

func (s *RedisRepositoryTestSuite) TestEmptyChannel() {
	ctx := context.Background()

	recent, err := s.repo.GetRecentResults(ctx, &GetRecentResultsInput{ChannelID: "quiet"})
	s.Require().NoError(err)
	s.Empty(recent.Results)

	board, err := s.repo.GetLeaderboard(ctx, &GetLeaderboardInput{ChannelID: "quiet"})
	s.Require().NoError(err)
	s.Empty(board.Entries)
}

func (s *RedisRepositoryTestSuite) TestRecordResultValidation() {
	ctx := context.Background()

	s.Error(s.repo.RecordResult(ctx, nil))
	s.Error(s.repo.RecordResult(ctx, &RecordResultInput{}))
	s.Error(s.repo.RecordResult(ctx, &RecordResultInput{Result: &models.Result{ChannelID: "c", WinnerID: "u"}}))
	s.Error(s.repo.RecordResult(ctx, &RecordResultInput{Result: &models.Result{ID: "r", WinnerID: "u"}}))
	s.Error(s.repo.RecordResult(ctx, &RecordResultInput{Result: &models.Result{ID: "r", ChannelID: "c"}}))
}
