package engine

import (
	"testing"
	"time"

	clockMocks "github.com/KirkDiggler/ludo/internal/common/clock/mocks"
	uuidMocks "github.com/KirkDiggler/ludo/internal/common/uuid/mocks"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type MachineTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockClock *clockMocks.MockClock
	mockUUID  *uuidMocks.MockUUID
	machine   *Machine
	testTime  time.Time
}

func (s *MachineTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)
	s.mockUUID = uuidMocks.NewMockUUID(s.mockCtrl)
	s.testTime = time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)

	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()
	s.mockUUID.EXPECT().NewUUID().Return("test-action-id").AnyTimes()

	s.machine = New(&Config{
		Clock:         s.mockClock,
		UUIDGenerator: s.mockUUID,
	})
}

func (s *MachineTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestMachineTestSuite(t *testing.T) {
	suite.Run(t, new(MachineTestSuite))
}

// started returns an in-progress session with the given player count
func (s *MachineTestSuite) started(players int, ruleSet models.Rules) *models.Session {
	session := s.machine.NewSession("test-game-id", "test-channel-id", players, ruleSet)
	res := s.machine.Apply(session, StartGame{PlayerCount: players})
	s.Require().True(res.Accepted)
	return session
}

func (s *MachineTestSuite) kinds(actions []models.Action) []models.ActionKind {
	out := make([]models.ActionKind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

func (s *MachineTestSuite) eventKinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func (s *MachineTestSuite) TestStartGameAssignsColors() {
	tests := []struct {
		players int
		colors  []models.Color
	}{
		{2, []models.Color{models.ColorRed, models.ColorYellow}},
		{3, []models.Color{models.ColorRed, models.ColorBlue, models.ColorYellow}},
		{4, []models.Color{models.ColorRed, models.ColorBlue, models.ColorYellow, models.ColorGreen}},
	}

	for _, tt := range tests {
		session := s.started(tt.players, models.DefaultRules())
		s.Equal(models.PhaseInProgress, session.Phase)
		s.Require().Len(session.Players, tt.players)
		for seat, color := range tt.colors {
			p := session.Players[seat]
			s.Equal(seat, p.Seat)
			s.Equal(color, p.Color)
			s.Equal(color.DisplayName(), p.Name)
			s.Equal([4]int{0, 0, 0, 0}, p.Pieces)
		}
		s.Equal(models.TurnContext{}, session.Turn)
		s.Nil(session.Winner)
		s.Require().Len(session.History, 1)
		s.Equal(models.ActionGameStarted, session.History[0].Kind)
		s.Equal(tt.players, session.History[0].PlayerCount)
	}
}

func (s *MachineTestSuite) TestStartGameUsesNames() {
	session := s.machine.NewSession("g", "", 2, models.DefaultRules())
	res := s.machine.Apply(session, StartGame{PlayerCount: 2, Names: []string{"Alice", ""}})
	s.Require().True(res.Accepted)
	s.Equal("Alice", session.Players[0].Name)
	s.Equal("Yellow", session.Players[1].Name)
	s.Equal([]string{"Alice", "Yellow"}, res.Actions[0].Names)
}

func (s *MachineTestSuite) TestStartGameRejections() {
	session := s.machine.NewSession("g", "", 4, models.DefaultRules())

	res := s.machine.Apply(session, StartGame{PlayerCount: 5})
	s.False(res.Accepted)
	s.Equal(ErrInvalidPlayerCount, res.Reason)
	s.Equal(models.PhaseSetup, session.Phase)

	res = s.machine.Apply(session, StartGame{PlayerCount: 1})
	s.Equal(ErrInvalidPlayerCount, res.Reason)

	s.Require().True(s.machine.Apply(session, StartGame{PlayerCount: 2}).Accepted)
	res = s.machine.Apply(session, StartGame{PlayerCount: 3})
	s.False(res.Accepted)
	s.Equal(ErrGameInProgress, res.Reason)
	s.Len(session.Players, 2)
}

func (s *MachineTestSuite) TestRollBeforeStartIsRejected() {
	session := s.machine.NewSession("g", "", 4, models.DefaultRules())
	res := s.machine.Apply(session, RollDice{Player: 0, Value: 6})
	s.False(res.Accepted)
	s.Equal(ErrGameNotInProgress, res.Reason)
}

// Scenario A
func (s *MachineTestSuite) TestSixEntersPieceAndKeepsTurn() {
	session := s.started(4, models.DefaultRules())

	res := s.machine.Apply(session, RollDice{Player: 0, Value: 6})
	s.Require().True(res.Accepted)
	s.Equal(6, session.Turn.DiceValue)
	s.True(session.Turn.MoveRequired)
	s.Equal(1, session.Turn.ConsecutiveSixes)

	res = s.machine.Apply(session, MovePiece{Player: 0, Piece: 0})
	s.Require().True(res.Accepted)
	s.Equal(1, session.Players[0].Pieces[0])
	s.Equal(0, session.Turn.ActivePlayer)
	s.Equal(0, session.Turn.DiceValue)
	s.False(session.Turn.MoveRequired)
	s.Equal([]models.ActionKind{models.ActionPieceMoved}, s.kinds(res.Actions))

	moved := res.Actions[0]
	s.Equal(0, moved.From)
	s.Equal(1, moved.To)
	s.Equal(6, moved.Dice)
	s.Equal(0, moved.CaptureCount)
}

// Scenario D
func (s *MachineTestSuite) TestNoLegalMovePassesTurn() {
	session := s.started(4, models.DefaultRules())

	res := s.machine.Apply(session, RollDice{Player: 0, Value: 3})
	s.Require().True(res.Accepted)
	s.Equal(1, session.Turn.ActivePlayer)
	s.Equal(-3, session.Turn.DiceValue)
	s.False(session.Turn.MoveRequired)
	s.Equal([]models.ActionKind{models.ActionDiceRolled, models.ActionTurnSwitched}, s.kinds(res.Actions))
	s.Equal([]EventKind{EventDiceRolled, EventNoLegalMove, EventTurnSwitched}, s.eventKinds(res.Events))

	switched := res.Actions[1]
	s.Equal(0, switched.Actor)
	s.Equal(1, switched.Player)
}

func (s *MachineTestSuite) TestForcedPassWrapsAround() {
	session := s.started(3, models.DefaultRules())
	session.Turn.ActivePlayer = 2

	res := s.machine.Apply(session, RollDice{Player: 2, Value: 1})
	s.Require().True(res.Accepted)
	s.Equal(0, session.Turn.ActivePlayer)
}

func (s *MachineTestSuite) TestRollWhileMoveRequiredIsNoOp() {
	session := s.started(2, models.DefaultRules())
	s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 6}).Accepted)

	before := session.Clone()
	res := s.machine.Apply(session, RollDice{Player: 0, Value: 2})
	s.False(res.Accepted)
	s.Equal(ErrMoveRequired, res.Reason)
	s.Equal(before, session)
}

func (s *MachineTestSuite) TestRollOutOfTurnIsNoOp() {
	session := s.started(2, models.DefaultRules())

	before := session.Clone()
	res := s.machine.Apply(session, RollDice{Player: 1, Value: 6})
	s.False(res.Accepted)
	s.Equal(ErrNotYourTurn, res.Reason)
	s.Equal(before, session)
}

func (s *MachineTestSuite) TestRollRejectsInvalidDiceValue() {
	session := s.started(2, models.DefaultRules())

	for _, v := range []int{0, -1, 7, 10} {
		res := s.machine.Apply(session, RollDice{Player: 0, Value: v})
		s.False(res.Accepted)
		s.Equal(ErrInvalidDiceValue, res.Reason)
	}
	s.Len(session.History, 1)
}

func (s *MachineTestSuite) TestMoveRejections() {
	session := s.started(2, models.DefaultRules())

	res := s.machine.Apply(session, MovePiece{Player: 0, Piece: 0})
	s.Equal(ErrNoMoveRequired, res.Reason)

	session.Players[0].Pieces = [4]int{0, 10, 0, 0}
	s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 2}).Accepted)

	before := session.Clone()
	res = s.machine.Apply(session, MovePiece{Player: 0, Piece: 0})
	s.Equal(ErrPieceNotMovable, res.Reason)

	res = s.machine.Apply(session, MovePiece{Player: 0, Piece: 9})
	s.Equal(ErrPieceNotMovable, res.Reason)

	res = s.machine.Apply(session, MovePiece{Player: 1, Piece: 1})
	s.Equal(ErrNotYourTurn, res.Reason)
	s.Equal(before, session)
}

func (s *MachineTestSuite) TestOrdinaryMoveAdvancesTurn() {
	session := s.started(2, models.DefaultRules())
	session.Players[0].Pieces = [4]int{5, 0, 0, 0}

	s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 4}).Accepted)
	res := s.machine.Apply(session, MovePiece{Player: 0, Piece: 0})
	s.Require().True(res.Accepted)

	s.Equal(9, session.Players[0].Pieces[0])
	s.Equal(1, session.Turn.ActivePlayer)
	s.Equal(0, session.Turn.DiceValue)
	s.Equal([]models.ActionKind{models.ActionPieceMoved, models.ActionTurnSwitched}, s.kinds(res.Actions))
}

// Scenario C
func (s *MachineTestSuite) TestCaptureSendsPieceHomeAndKeepsTurn() {
	session := s.started(2, models.DefaultRules())
	session.Players[0].Pieces = [4]int{28, 0, 0, 0}
	session.Players[1].Pieces = [4]int{1, 0, 0, 0}
	session.Turn.ActivePlayer = 1

	s.Require().True(s.machine.Apply(session, RollDice{Player: 1, Value: 1}).Accepted)
	res := s.machine.Apply(session, MovePiece{Player: 1, Piece: 0})
	s.Require().True(res.Accepted)

	s.Equal(0, session.Players[0].Pieces[0])
	s.Equal(2, session.Players[1].Pieces[0])
	s.Equal(1, session.Turn.ActivePlayer)
	s.Equal([]models.ActionKind{models.ActionPieceMoved, models.ActionPieceCaptured}, s.kinds(res.Actions))
	s.Equal([]EventKind{EventPieceMoved, EventPieceCaptured}, s.eventKinds(res.Events))

	s.Equal(1, res.Actions[0].CaptureCount)
	captured := res.Actions[1]
	s.Equal(1, captured.Actor)
	s.Equal(0, captured.Player)
	s.Equal(0, captured.Piece)
	s.Equal(28, captured.From)
	s.Equal(0, captured.To)
}

func (s *MachineTestSuite) TestNoCaptureOnSafeCell() {
	session := s.started(2, models.DefaultRules())
	// red 9 is a safe cell; yellow reaches it at 35
	session.Players[0].Pieces = [4]int{9, 0, 0, 0}
	session.Players[1].Pieces = [4]int{34, 0, 0, 0}
	session.Turn.ActivePlayer = 1

	s.Require().True(s.machine.Apply(session, RollDice{Player: 1, Value: 1}).Accepted)
	res := s.machine.Apply(session, MovePiece{Player: 1, Piece: 0})
	s.Require().True(res.Accepted)

	s.Equal(9, session.Players[0].Pieces[0])
	s.Equal(35, session.Players[1].Pieces[0])
	s.Equal(0, res.Actions[0].CaptureCount)
	s.Equal([]models.ActionKind{models.ActionPieceMoved, models.ActionTurnSwitched}, s.kinds(res.Actions))
	s.Equal(0, session.Turn.ActivePlayer)
}

func (s *MachineTestSuite) TestWinFinishesGame() {
	session := s.started(2, models.DefaultRules())
	session.Players[0].Pieces = [4]int{57, 57, 57, 51}

	s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 6}).Accepted)
	res := s.machine.Apply(session, MovePiece{Player: 0, Piece: 3})
	s.Require().True(res.Accepted)

	s.Equal(models.PhaseFinished, session.Phase)
	s.Require().NotNil(session.Winner)
	s.Equal(0, *session.Winner)
	s.Equal(0, session.Turn.ActivePlayer)
	s.Equal(s.testTime, session.FinishedAt)
	s.Equal([]models.ActionKind{models.ActionPieceMoved, models.ActionGameWon}, s.kinds(res.Actions))

	res = s.machine.Apply(session, RollDice{Player: 0, Value: 6})
	s.False(res.Accepted)
	s.Equal(ErrGameNotInProgress, res.Reason)
	res = s.machine.Apply(session, RollDice{Player: 1, Value: 6})
	s.Equal(ErrGameNotInProgress, res.Reason)
}

func (s *MachineTestSuite) TestReachingCenterGrantsExtraTurn() {
	session := s.started(2, models.DefaultRules())
	session.Players[0].Pieces = [4]int{54, 0, 0, 0}

	s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 3}).Accepted)
	s.Require().True(s.machine.Apply(session, MovePiece{Player: 0, Piece: 0}).Accepted)
	s.Equal(57, session.Players[0].Pieces[0])
	s.Equal(0, session.Turn.ActivePlayer)
}

func (s *MachineTestSuite) TestReachingCenterWithoutExtraTurnRule() {
	session := s.started(2, models.Rules{FinishGrantsExtraTurn: false})
	session.Players[0].Pieces = [4]int{54, 0, 0, 0}

	s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 3}).Accepted)
	s.Require().True(s.machine.Apply(session, MovePiece{Player: 0, Piece: 0}).Accepted)
	s.Equal(1, session.Turn.ActivePlayer)
}

func (s *MachineTestSuite) TestThreeSixesForfeitsWhenEnabled() {
	session := s.started(2, models.Rules{ThreeSixesForfeit: true, FinishGrantsExtraTurn: true})

	for i := 0; i < 2; i++ {
		s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 6}).Accepted)
		s.Require().True(s.machine.Apply(session, MovePiece{Player: 0, Piece: i}).Accepted)
		s.Equal(0, session.Turn.ActivePlayer)
	}
	s.Equal(2, session.Turn.ConsecutiveSixes)

	res := s.machine.Apply(session, RollDice{Player: 0, Value: 6})
	s.Require().True(res.Accepted)
	s.Equal(1, session.Turn.ActivePlayer)
	s.Equal(-6, session.Turn.DiceValue)
	s.Equal(0, session.Turn.ConsecutiveSixes)
	s.False(session.Turn.MoveRequired)
	s.Equal([]EventKind{EventDiceRolled, EventSixesForfeit, EventTurnSwitched}, s.eventKinds(res.Events))
}

func (s *MachineTestSuite) TestThreeSixesAllowedByDefault() {
	session := s.started(2, models.DefaultRules())

	for i := 0; i < 3; i++ {
		s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 6}).Accepted)
		s.Require().True(s.machine.Apply(session, MovePiece{Player: 0, Piece: i}).Accepted)
	}
	s.Equal(0, session.Turn.ActivePlayer)
	s.Equal(3, session.Turn.ConsecutiveSixes)
}

func (s *MachineTestSuite) TestRestartKeepsSelectedCount() {
	session := s.started(3, models.DefaultRules())
	s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 6}).Accepted)

	res := s.machine.Apply(session, RestartGame{})
	s.Require().True(res.Accepted)
	s.Equal(models.PhaseSetup, session.Phase)
	s.Equal(3, session.SelectedPlayerCount)
	s.Empty(session.Players)
	s.Empty(session.History)
	s.Equal(models.TurnContext{}, session.Turn)
	s.Nil(session.Winner)
	s.Equal([]models.ActionKind{models.ActionGameRestarted}, s.kinds(res.Actions))

	s.True(s.machine.Apply(session, StartGame{PlayerCount: 2}).Accepted)
}

func (s *MachineTestSuite) TestHistorySequenceNumbers() {
	session := s.started(2, models.DefaultRules())
	s.Require().True(s.machine.Apply(session, RollDice{Player: 0, Value: 2}).Accepted)
	s.Require().True(s.machine.Apply(session, RollDice{Player: 1, Value: 6}).Accepted)

	for i, a := range session.History {
		s.Equal(i+1, a.Seq)
		s.Equal(s.testTime, a.Timestamp)
	}
	s.Equal(len(session.History), session.LastSeq())
}

func (s *MachineTestSuite) TestReplayIsDeterministic() {
	origin := s.machine.NewSession("g", "", 2, models.DefaultRules())
	replica := s.machine.NewSession("g", "", 2, models.DefaultRules())

	commands := []Command{
		StartGame{PlayerCount: 2},
		RollDice{Player: 0, Value: 6},
		MovePiece{Player: 0, Piece: 0},
		RollDice{Player: 0, Value: 4},
		MovePiece{Player: 0, Piece: 0},
		RollDice{Player: 1, Value: 2},
		RollDice{Player: 0, Value: 6},
		MovePiece{Player: 0, Piece: 1},
	}

	for _, cmd := range commands {
		res := s.machine.Apply(origin, cmd)
		s.Require().True(res.Accepted, cmd.String())
		for _, a := range res.Originating() {
			replay, err := CommandFromAction(&a)
			s.Require().NoError(err)
			s.Require().True(s.machine.Apply(replica, replay).Accepted)
		}
	}

	s.Equal(origin.Players, replica.Players)
	s.Equal(origin.Turn, replica.Turn)
	s.Equal(origin.History, replica.History)
}

func TestCommandFromAction(t *testing.T) {
	tests := []struct {
		name    string
		action  *models.Action
		want    Command
		wantErr error
	}{
		{name: "nil", action: nil, wantErr: ErrMalformedAction},
		{
			name:   "game started",
			action: &models.Action{Kind: models.ActionGameStarted, PlayerCount: 3, Names: []string{"a"}},
			want:   StartGame{PlayerCount: 3, Names: []string{"a"}},
		},
		{
			name:    "game started bad count",
			action:  &models.Action{Kind: models.ActionGameStarted, PlayerCount: 9},
			wantErr: ErrMalformedAction,
		},
		{
			name:   "dice rolled",
			action: &models.Action{Kind: models.ActionDiceRolled, Actor: 2, Dice: 5},
			want:   RollDice{Player: 2, Value: 5},
		},
		{
			name:    "dice rolled without value",
			action:  &models.Action{Kind: models.ActionDiceRolled, Actor: 2},
			wantErr: ErrMalformedAction,
		},
		{
			name:   "piece moved",
			action: &models.Action{Kind: models.ActionPieceMoved, Actor: 1, Piece: 3},
			want:   MovePiece{Player: 1, Piece: 3},
		},
		{
			name:    "piece moved bad slot",
			action:  &models.Action{Kind: models.ActionPieceMoved, Actor: 1, Piece: 4},
			wantErr: ErrMalformedAction,
		},
		{name: "restart", action: &models.Action{Kind: models.ActionGameRestarted}, want: RestartGame{}},
		{name: "captured", action: &models.Action{Kind: models.ActionPieceCaptured}, wantErr: ErrDerivedAction},
		{name: "switched", action: &models.Action{Kind: models.ActionTurnSwitched}, wantErr: ErrDerivedAction},
		{name: "won", action: &models.Action{Kind: models.ActionGameWon}, wantErr: ErrDerivedAction},
		{name: "unknown", action: &models.Action{Kind: "teleport"}, wantErr: ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := CommandFromAction(tt.action)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.String() != tt.want.String() {
				t.Fatalf("expected %s, got %s", tt.want, cmd)
			}
		})
	}
}
