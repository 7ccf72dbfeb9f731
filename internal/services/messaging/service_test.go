package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/KirkDiggler/ludo/internal/engine"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/services/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() *models.Session {
	return &models.Session{
		ID:        "test-game-id",
		ChannelID: "test-channel-id",
		Phase:     models.PhaseInProgress,
		Players: []*models.Player{
			{Seat: 0, Color: models.ColorRed, Name: "Alice"},
			{Seat: 1, Color: models.ColorYellow},
		},
	}
}

func TestGetEventMessage_Neutral(t *testing.T) {
	svc, err := NewService(&ServiceConfig{Seed: 1, DefaultTone: ToneNeutral})
	require.NoError(t, err)

	session := testSession()
	tests := []struct {
		name    string
		event   engine.Event
		title   string
		message string
	}{
		{
			name:    "game started",
			event:   engine.Event{Kind: engine.EventGameStarted, Seat: 0, Action: models.Action{PlayerCount: 2}},
			title:   "Game On!",
			message: "A 2 player game has started. Alice rolls first.",
		},
		{
			name:    "roll",
			event:   engine.Event{Kind: engine.EventDiceRolled, Seat: 0, Action: models.Action{Dice: 4}},
			title:   "Alice rolled a 4",
			message: "Alice rolled a 4.",
		},
		{
			name:    "pass falls back to the color name",
			event:   engine.Event{Kind: engine.EventNoLegalMove, Seat: 1, Action: models.Action{Dice: 3}},
			title:   "No Legal Move",
			message: "Yellow rolled a 3 and has no legal move.",
		},
		{
			name:    "piece enters",
			event:   engine.Event{Kind: engine.EventPieceMoved, Seat: 0, Action: models.Action{Piece: 1, From: 0, To: 1}},
			title:   "Alice moved piece 2",
			message: "Alice brought piece 2 onto the board.",
		},
		{
			name:    "piece moves",
			event:   engine.Event{Kind: engine.EventPieceMoved, Seat: 0, Action: models.Action{Piece: 0, From: 3, To: 8}},
			title:   "Alice moved piece 1",
			message: "Alice moved piece 1 from 3 to 8.",
		},
		{
			name:    "piece finishes",
			event:   engine.Event{Kind: engine.EventPieceMoved, Seat: 0, Action: models.Action{Piece: 3, From: 53, To: 57}},
			title:   "Alice moved piece 4",
			message: "Alice brought piece 4 home.",
		},
		{
			name:    "capture names both sides",
			event:   engine.Event{Kind: engine.EventPieceCaptured, Seat: 1, Action: models.Action{Actor: 0, Player: 1}},
			title:   "Captured!",
			message: "Alice captured a piece of Yellow.",
		},
		{
			name:    "turn switch",
			event:   engine.Event{Kind: engine.EventTurnSwitched, Seat: 1},
			title:   "Yellow's turn",
			message: "It is Yellow's turn.",
		},
		{
			name:    "win",
			event:   engine.Event{Kind: engine.EventGameWon, Seat: 0},
			title:   "Alice wins!",
			message: "Alice brought every piece home and wins the game.",
		},
		{
			name:    "unknown seat",
			event:   engine.Event{Kind: engine.EventSixesForfeit, Seat: 3},
			title:   "Three Sixes!",
			message: "Seat 4 rolled three sixes in a row and loses the turn.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := svc.GetEventMessage(context.Background(), &GetEventMessageInput{
				Event: tt.event,
				Game:  session,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.title, output.Title)
			assert.Equal(t, tt.message, output.Message)
			assert.Equal(t, ToneNeutral, output.Tone)
		})
	}
}

func TestGetEventMessage_FunnyToneMentionsPlayer(t *testing.T) {
	svc, err := NewService(&ServiceConfig{Seed: 42})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		output, err := svc.GetEventMessage(context.Background(), &GetEventMessageInput{
			Event: engine.Event{Kind: engine.EventGameWon, Seat: 0},
			Game:  testSession(),
		})
		require.NoError(t, err)
		assert.Equal(t, ToneFunny, output.Tone)
		assert.Contains(t, output.Message, "Alice")
	}
}

func TestGetEventMessage_Errors(t *testing.T) {
	svc, err := NewService(nil)
	require.NoError(t, err)

	_, err = svc.GetEventMessage(context.Background(), nil)
	assert.Error(t, err)

	_, err = svc.GetEventMessage(context.Background(), &GetEventMessageInput{Event: engine.Event{Kind: "bogus"}})
	assert.Error(t, err)
}

func TestGetJoinGameMessage(t *testing.T) {
	svc, err := NewService(&ServiceConfig{Seed: 1})
	require.NoError(t, err)

	output, err := svc.GetJoinGameMessage(context.Background(), &GetJoinGameMessageInput{
		PlayerName:    "Bob",
		Color:         models.ColorBlue,
		PreferredTone: ToneNeutral,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob joined as Blue.", output.Message)

	output, err = svc.GetJoinGameMessage(context.Background(), &GetJoinGameMessageInput{
		PlayerName:    "Bob",
		Color:         models.ColorBlue,
		AlreadyJoined: true,
		PreferredTone: ToneNeutral,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob already plays Blue.", output.Message)
}

func TestGetErrorMessage(t *testing.T) {
	svc, err := NewService(&ServiceConfig{DefaultTone: ToneNeutral})
	require.NoError(t, err)

	tests := []struct {
		err  error
		want string
	}{
		{engine.ErrNotYourTurn, "It is not your turn."},
		{engine.ErrMoveRequired, "Move a piece before rolling again."},
		{engine.ErrPieceNotMovable, "That piece cannot move with this roll."},
		{game.ErrGameNotFound, "No game found in this channel."},
		{errors.New("redis down"), "redis down"},
		{nil, "Something went wrong."},
	}

	for _, tt := range tests {
		output, err := svc.GetErrorMessage(context.Background(), &GetErrorMessageInput{Err: tt.err})
		require.NoError(t, err)
		assert.Equal(t, tt.want, output.Message)
	}
}
