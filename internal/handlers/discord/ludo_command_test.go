package discord

import (
	"context"
	"strings"
	"testing"
	"time"

	clockMocks "github.com/KirkDiggler/ludo/internal/common/clock/mocks"
	"github.com/KirkDiggler/ludo/internal/engine"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/repositories/results"
	resultsMocks "github.com/KirkDiggler/ludo/internal/repositories/results/mocks"
	"github.com/KirkDiggler/ludo/internal/repositories/seat"
	seatMocks "github.com/KirkDiggler/ludo/internal/repositories/seat/mocks"
	"github.com/KirkDiggler/ludo/internal/services/game"
	gameMocks "github.com/KirkDiggler/ludo/internal/services/game/mocks"
	"github.com/KirkDiggler/ludo/internal/services/messaging"
	messagingMocks "github.com/KirkDiggler/ludo/internal/services/messaging/mocks"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type LudoCommandTestSuite struct {
	suite.Suite
	mockCtrl      *gomock.Controller
	mockGame      *gameMocks.MockService
	mockSeats     *seatMocks.MockRepository
	mockResults   *resultsMocks.MockRepository
	mockMessaging *messagingMocks.MockService
	mockClock     *clockMocks.MockClock
	command       *LudoCommand
	machine       *engine.Machine
	ctx           context.Context

	testTime      time.Time
	testChannelID string
	testGameID    string
}

func (s *LudoCommandTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockGame = gameMocks.NewMockService(s.mockCtrl)
	s.mockSeats = seatMocks.NewMockRepository(s.mockCtrl)
	s.mockResults = resultsMocks.NewMockRepository(s.mockCtrl)
	s.mockMessaging = messagingMocks.NewMockService(s.mockCtrl)
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)
	s.ctx = context.Background()

	s.testTime = time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)
	s.testChannelID = "test-channel-id"
	s.testGameID = "test-game-id"
	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	var err error
	s.command, err = NewLudoCommand(&LudoCommandConfig{
		GameService: s.mockGame,
		SeatRepo:    s.mockSeats,
		ResultsRepo: s.mockResults,
		Messaging:   s.mockMessaging,
		Clock:       s.mockClock,
	})
	s.Require().NoError(err)

	s.machine = engine.New(&engine.Config{Clock: s.mockClock})
}

func (s *LudoCommandTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *LudoCommandTestSuite) lobby(players int) *models.Session {
	return s.machine.NewSession(s.testGameID, s.testChannelID, players, models.DefaultRules())
}

func (s *LudoCommandTestSuite) started(players int) *models.Session {
	session := s.lobby(players)
	s.Require().True(s.machine.Apply(session, engine.StartGame{PlayerCount: players, Names: []string{"alice", "bob"}}).Accepted)
	return session
}

func (s *LudoCommandTestSuite) expectChannelGame(session *models.Session) {
	s.mockGame.EXPECT().
		GetGameByChannel(gomock.Any(), &game.GetGameByChannelInput{ChannelID: s.testChannelID}).
		Return(&game.GetGameOutput{Game: session}, nil)
}

func (s *LudoCommandTestSuite) expectNoChannelGame() {
	s.mockGame.EXPECT().
		GetGameByChannel(gomock.Any(), &game.GetGameByChannelInput{ChannelID: s.testChannelID}).
		Return(nil, game.ErrGameNotFound)
}

func (s *LudoCommandTestSuite) expectSeat(userID string, ordinal int) {
	s.mockSeats.EXPECT().
		GetSeat(gomock.Any(), &seat.GetSeatInput{GameID: s.testGameID, UserID: userID}).
		Return(&models.Seat{GameID: s.testGameID, UserID: userID, Ordinal: ordinal}, nil)
}

func (s *LudoCommandTestSuite) seats(names ...string) []*models.Seat {
	out := make([]*models.Seat, len(names))
	for i, name := range names {
		out[i] = &models.Seat{GameID: s.testGameID, UserID: name + "-id", UserName: name, Ordinal: i}
	}
	return out
}

func buttonIDs(components []discordgo.MessageComponent) []string {
	var ids []string
	for _, c := range components {
		row, ok := c.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if b, ok := inner.(discordgo.Button); ok {
				ids = append(ids, b.CustomID)
			}
		}
	}
	return ids
}

func (s *LudoCommandTestSuite) TestNewLudoCommand_Validates() {
	_, err := NewLudoCommand(nil)
	s.Error(err)

	_, err = NewLudoCommand(&LudoCommandConfig{GameService: s.mockGame})
	s.Error(err)

	s.Equal("ludo", s.command.GetCommand().Name)
	s.Len(s.command.GetCommand().Options, 9)
}

func (s *LudoCommandTestSuite) TestNew_OpensLobbyAndSeatsCreator() {
	s.expectNoChannelGame()

	created := s.lobby(3)
	s.mockGame.EXPECT().
		CreateGame(gomock.Any(), &game.CreateGameInput{ChannelID: s.testChannelID, PlayerCount: 3}).
		Return(&game.CreateGameOutput{Game: created}, nil)
	s.mockSeats.EXPECT().
		SaveSeat(gomock.Any(), &seat.SaveSeatInput{Seat: &models.Seat{
			GameID:   s.testGameID,
			UserID:   "alice-id",
			UserName: "alice",
			Ordinal:  0,
			JoinedAt: s.testTime,
		}}).
		Return(nil)

	r, err := s.command.dispatch(s.ctx, SubcommandNew, s.testChannelID, "alice-id", "alice", map[string]int64{"players": 3})

	s.Require().NoError(err)
	s.False(r.Ephemeral)
	s.Equal("Ludo lobby (1/3)", r.Embed.Title)
	s.Contains(r.Embed.Description, "Red <@alice-id>")
	s.Equal(2, strings.Count(r.Embed.Description, "*open*"))
	s.Equal([]string{ButtonJoinGame, ButtonStartGame}, buttonIDs(r.Components))
}

func (s *LudoCommandTestSuite) TestNew_ChannelBusy() {
	s.expectChannelGame(s.started(2))

	r, err := s.command.dispatch(s.ctx, SubcommandNew, s.testChannelID, "alice-id", "alice", nil)

	s.Require().NoError(err)
	s.True(r.Ephemeral)
}

func (s *LudoCommandTestSuite) TestNew_ReplacesFinishedGame() {
	finished := s.started(2)
	finished.Phase = models.PhaseFinished
	s.expectChannelGame(finished)

	s.mockSeats.EXPECT().
		ClearGame(gomock.Any(), &seat.ClearGameInput{GameID: s.testGameID}).
		Return(nil)

	next := s.machine.NewSession("next-game-id", s.testChannelID, 4, models.DefaultRules())
	s.mockGame.EXPECT().
		CreateGame(gomock.Any(), gomock.Any()).
		Return(&game.CreateGameOutput{Game: next}, nil)
	s.mockSeats.EXPECT().SaveSeat(gomock.Any(), gomock.Any()).Return(nil)

	r, err := s.command.dispatch(s.ctx, SubcommandNew, s.testChannelID, "alice-id", "alice", nil)

	s.Require().NoError(err)
	s.Equal("Ludo lobby (1/4)", r.Embed.Title)
}

func (s *LudoCommandTestSuite) TestJoin_TakesNextSeat() {
	session := s.lobby(4)
	s.expectChannelGame(session)
	s.mockSeats.EXPECT().
		GetSeat(gomock.Any(), gomock.Any()).
		Return(nil, seat.ErrSeatNotFound)
	s.mockSeats.EXPECT().
		GetSeatsInGame(gomock.Any(), &seat.GetSeatsInGameInput{GameID: s.testGameID}).
		Return(&seat.GetSeatsInGameOutput{Seats: s.seats("alice")}, nil)
	s.mockSeats.EXPECT().
		SaveSeat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *seat.SaveSeatInput) error {
			s.Equal(1, input.Seat.Ordinal)
			s.Equal("bob", input.Seat.UserName)
			return nil
		})
	s.mockMessaging.EXPECT().
		GetJoinGameMessage(gomock.Any(), &messaging.GetJoinGameMessageInput{PlayerName: "bob", Color: models.ColorYellow}).
		Return(&messaging.GetJoinGameMessageOutput{Message: "bob joined as Yellow."}, nil)

	r, err := s.command.dispatch(s.ctx, SubcommandJoin, s.testChannelID, "bob-id", "bob", nil)

	s.Require().NoError(err)
	s.Equal("bob joined as Yellow.", r.Content)
	s.Equal("Ludo lobby (2/4)", r.Embed.Title)
	s.Contains(r.Embed.Description, "Yellow <@bob-id>")
}

func (s *LudoCommandTestSuite) TestJoin_ColorsFollowSeatedCount() {
	session := s.lobby(4)
	s.expectChannelGame(session)
	s.mockSeats.EXPECT().
		GetSeat(gomock.Any(), gomock.Any()).
		Return(nil, seat.ErrSeatNotFound)
	s.mockSeats.EXPECT().
		GetSeatsInGame(gomock.Any(), gomock.Any()).
		Return(&seat.GetSeatsInGameOutput{Seats: s.seats("alice", "bob")}, nil)
	s.mockSeats.EXPECT().SaveSeat(gomock.Any(), gomock.Any()).Return(nil)
	s.mockMessaging.EXPECT().
		GetJoinGameMessage(gomock.Any(), &messaging.GetJoinGameMessageInput{PlayerName: "carol", Color: models.ColorYellow}).
		Return(&messaging.GetJoinGameMessageOutput{Message: "carol joined as Yellow."}, nil)

	r, err := s.command.dispatch(s.ctx, SubcommandJoin, s.testChannelID, "carol-id", "carol", nil)

	s.Require().NoError(err)
	s.Contains(r.Embed.Description, "Red <@alice-id>")
	s.Contains(r.Embed.Description, "Blue <@bob-id>")
	s.Contains(r.Embed.Description, "Yellow <@carol-id>")
	s.Equal(1, strings.Count(r.Embed.Description, "*open*"))

	// a 3 player start seats the same colors the lobby showed
	s.Equal(models.SeatColors(3)[1], seatColor(session, 1, 3))
}

func (s *LudoCommandTestSuite) TestJoin_AlreadySeated() {
	s.expectChannelGame(s.lobby(2))
	s.expectSeat("alice-id", 0)
	s.mockSeats.EXPECT().
		GetSeatsInGame(gomock.Any(), gomock.Any()).
		Return(&seat.GetSeatsInGameOutput{Seats: s.seats("alice")}, nil)
	s.mockMessaging.EXPECT().
		GetJoinGameMessage(gomock.Any(), &messaging.GetJoinGameMessageInput{
			PlayerName:    "alice",
			Color:         models.ColorRed,
			AlreadyJoined: true,
		}).
		Return(&messaging.GetJoinGameMessageOutput{Message: "already"}, nil)

	r, err := s.command.dispatch(s.ctx, SubcommandJoin, s.testChannelID, "alice-id", "alice", nil)

	s.Require().NoError(err)
	s.True(r.Ephemeral)
	s.Equal("already", r.Content)
}

func (s *LudoCommandTestSuite) TestJoin_Full() {
	s.expectChannelGame(s.lobby(2))
	s.mockSeats.EXPECT().GetSeat(gomock.Any(), gomock.Any()).Return(nil, seat.ErrSeatNotFound)
	s.mockSeats.EXPECT().
		GetSeatsInGame(gomock.Any(), gomock.Any()).
		Return(&seat.GetSeatsInGameOutput{Seats: s.seats("alice", "bob")}, nil)

	r, err := s.command.dispatch(s.ctx, SubcommandJoin, s.testChannelID, "carol-id", "carol", nil)

	s.Require().NoError(err)
	s.True(r.Ephemeral)
	s.Equal("Every seat is taken.", r.Content)
}

func (s *LudoCommandTestSuite) TestStart() {
	s.Run("requires a seat", func() {
		s.expectChannelGame(s.lobby(2))
		s.mockSeats.EXPECT().
			GetSeatsInGame(gomock.Any(), gomock.Any()).
			Return(&seat.GetSeatsInGameOutput{Seats: s.seats("alice", "bob")}, nil)

		r, err := s.command.dispatch(s.ctx, SubcommandStart, s.testChannelID, "carol-id", "carol", nil)
		s.Require().NoError(err)
		s.True(r.Ephemeral)
	})

	s.Run("requires two players", func() {
		s.expectChannelGame(s.lobby(2))
		s.mockSeats.EXPECT().
			GetSeatsInGame(gomock.Any(), gomock.Any()).
			Return(&seat.GetSeatsInGameOutput{Seats: s.seats("alice")}, nil)

		r, err := s.command.dispatch(s.ctx, SubcommandStart, s.testChannelID, "alice-id", "alice", nil)
		s.Require().NoError(err)
		s.Equal("At least two players need to join first.", r.Content)
	})

	s.Run("starts with seated names", func() {
		s.expectChannelGame(s.lobby(4))
		s.mockSeats.EXPECT().
			GetSeatsInGame(gomock.Any(), gomock.Any()).
			Return(&seat.GetSeatsInGameOutput{Seats: s.seats("alice", "bob")}, nil)
		s.mockGame.EXPECT().
			StartGame(gomock.Any(), &game.StartGameInput{
				GameID:      s.testGameID,
				PlayerCount: 2,
				Names:       []string{"alice", "bob"},
			}).
			Return(&game.StartGameOutput{Accepted: true, Game: s.started(2)}, nil)

		r, err := s.command.dispatch(s.ctx, SubcommandStart, s.testChannelID, "bob-id", "bob", nil)
		s.Require().NoError(err)
		s.False(r.Ephemeral)
		s.Equal("Ludo", r.Embed.Title)
		s.Equal([]string{ButtonRollDice}, buttonIDs(r.Components))
	})
}

func (s *LudoCommandTestSuite) TestRoll() {
	s.Run("not seated", func() {
		s.expectChannelGame(s.started(2))
		s.mockSeats.EXPECT().GetSeat(gomock.Any(), gomock.Any()).Return(nil, seat.ErrSeatNotFound)

		r, err := s.command.dispatch(s.ctx, SubcommandRoll, s.testChannelID, "carol-id", "carol", nil)
		s.Require().NoError(err)
		s.Equal("You're not playing in this game.", r.Content)
	})

	s.Run("rejected roll is explained privately", func() {
		session := s.started(2)
		s.expectChannelGame(session)
		s.expectSeat("bob-id", 1)
		s.mockGame.EXPECT().
			RollDice(gomock.Any(), &game.RollDiceInput{GameID: s.testGameID, Player: 1}).
			Return(&game.RollDiceOutput{Reason: engine.ErrNotYourTurn, Game: session}, nil)
		s.mockMessaging.EXPECT().
			GetErrorMessage(gomock.Any(), &messaging.GetErrorMessageInput{Err: engine.ErrNotYourTurn}).
			Return(&messaging.GetErrorMessageOutput{Message: "It is not your turn."}, nil)

		r, err := s.command.dispatch(s.ctx, SubcommandRoll, s.testChannelID, "bob-id", "bob", nil)
		s.Require().NoError(err)
		s.True(r.Ephemeral)
		s.Equal("It is not your turn.", r.Content)
	})

	s.Run("six offers move buttons", func() {
		session := s.started(2)
		s.expectChannelGame(session)
		s.expectSeat("alice-id", 0)

		rolled := session.Clone()
		s.Require().True(s.machine.Apply(rolled, engine.RollDice{Player: 0, Value: 6}).Accepted)
		s.mockGame.EXPECT().
			RollDice(gomock.Any(), gomock.Any()).
			Return(&game.RollDiceOutput{Accepted: true, Value: 6, MovablePieces: []int{0, 1, 2, 3}, Game: rolled}, nil)

		r, err := s.command.dispatch(s.ctx, SubcommandRoll, s.testChannelID, "alice-id", "alice", nil)
		s.Require().NoError(err)
		s.Equal("alice rolled a 6", r.Embed.Title)
		s.Equal([]string{"ludo_move_1", "ludo_move_2", "ludo_move_3", "ludo_move_4"}, buttonIDs(r.Components))
	})
}

func (s *LudoCommandTestSuite) TestMove_Won() {
	session := s.started(2)
	s.expectChannelGame(session)
	s.expectSeat("alice-id", 0)

	won := session.Clone()
	won.Phase = models.PhaseFinished
	s.mockGame.EXPECT().
		MovePiece(gomock.Any(), &game.MovePieceInput{GameID: s.testGameID, Player: 0, Piece: 2}).
		Return(&game.MovePieceOutput{Accepted: true, Won: true, Game: won}, nil)
	s.mockResults.EXPECT().
		RecordResult(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *results.RecordResultInput) error {
			s.Equal(s.testGameID, input.Result.GameID)
			s.Equal(s.testChannelID, input.Result.ChannelID)
			s.Equal("alice-id", input.Result.WinnerID)
			s.Equal("alice", input.Result.WinnerName)
			s.Equal(models.ColorRed, input.Result.Color)
			s.Equal(2, input.Result.Players)
			s.True(s.testTime.Equal(input.Result.FinishedAt))
			return nil
		})

	r, err := s.command.dispatch(s.ctx, SubcommandMove, s.testChannelID, "alice-id", "alice", map[string]int64{"piece": 3})

	s.Require().NoError(err)
	s.Equal("alice wins!", r.Embed.Title)
	s.Empty(r.Components)
}

func (s *LudoCommandTestSuite) TestRestart_KeepsSeats() {
	session := s.started(2)
	s.expectChannelGame(session)
	s.expectSeat("alice-id", 0)

	reset := s.lobby(2)
	s.mockGame.EXPECT().
		RestartGame(gomock.Any(), &game.RestartGameInput{GameID: s.testGameID}).
		Return(&game.RestartGameOutput{Game: reset}, nil)
	s.mockSeats.EXPECT().
		GetSeatsInGame(gomock.Any(), gomock.Any()).
		Return(&seat.GetSeatsInGameOutput{Seats: s.seats("alice", "bob")}, nil)

	r, err := s.command.dispatch(s.ctx, SubcommandRestart, s.testChannelID, "alice-id", "alice", nil)

	s.Require().NoError(err)
	s.Equal("Ludo lobby (2/2)", r.Embed.Title)
}

func (s *LudoCommandTestSuite) TestBoard_NoGame() {
	s.expectNoChannelGame()

	r, err := s.command.dispatch(s.ctx, SubcommandBoard, s.testChannelID, "alice-id", "alice", nil)

	s.Require().NoError(err)
	s.True(r.Ephemeral)
}

func (s *LudoCommandTestSuite) TestUnknownSubcommand() {
	_, err := s.command.dispatch(s.ctx, "dance", s.testChannelID, "alice-id", "alice", nil)
	s.Error(err)
}

func (s *LudoCommandTestSuite) TestMove_WonRecordFailureKeepsReply() {
	session := s.started(2)
	s.expectChannelGame(session)
	s.expectSeat("alice-id", 0)

	won := session.Clone()
	won.Phase = models.PhaseFinished
	s.mockGame.EXPECT().
		MovePiece(gomock.Any(), gomock.Any()).
		Return(&game.MovePieceOutput{Accepted: true, Won: true, Game: won}, nil)
	s.mockResults.EXPECT().
		RecordResult(gomock.Any(), gomock.Any()).
		Return(results.ErrDuplicateResult)

	r, err := s.command.dispatch(s.ctx, SubcommandMove, s.testChannelID, "alice-id", "alice", map[string]int64{"piece": 1})

	s.Require().NoError(err)
	s.Equal("alice wins!", r.Embed.Title)
}

func (s *LudoCommandTestSuite) TestLeaderboard() {
	s.mockResults.EXPECT().
		GetLeaderboard(gomock.Any(), &results.GetLeaderboardInput{ChannelID: s.testChannelID}).
		Return(&results.GetLeaderboardOutput{Entries: []*models.LeaderboardEntry{
			{UserID: "bob-id", Name: "bob", Wins: 3},
			{UserID: "alice-id", Name: "alice", Wins: 1},
		}}, nil)
	s.mockResults.EXPECT().
		GetRecentResults(gomock.Any(), &results.GetRecentResultsInput{ChannelID: s.testChannelID, Limit: timelineLength}).
		Return(&results.GetRecentResultsOutput{Results: []*models.Result{
			{WinnerName: "bob", Color: models.ColorYellow, Players: 2, Rolls: 51, FinishedAt: s.testTime},
		}}, nil)

	r, err := s.command.dispatch(s.ctx, SubcommandLeaderboard, s.testChannelID, "alice-id", "alice", nil)

	s.Require().NoError(err)
	s.Equal("Ludo leaderboard", r.Embed.Title)
	s.Contains(r.Embed.Description, "1. <@bob-id> 3 wins")
	s.Contains(r.Embed.Description, "2. <@alice-id> 1 win")
	s.Require().Len(r.Embed.Fields, 1)
	s.Contains(r.Embed.Fields[0].Value, "bob won as Yellow (2 players, 51 rolls)")
}

func (s *LudoCommandTestSuite) TestLeaderboard_Empty() {
	s.mockResults.EXPECT().
		GetLeaderboard(gomock.Any(), gomock.Any()).
		Return(&results.GetLeaderboardOutput{Entries: []*models.LeaderboardEntry{}}, nil)

	r, err := s.command.dispatch(s.ctx, SubcommandLeaderboard, s.testChannelID, "alice-id", "alice", nil)

	s.Require().NoError(err)
	s.True(r.Ephemeral)
}

func TestLudoCommandSuite(t *testing.T) {
	suite.Run(t, new(LudoCommandTestSuite))
}
