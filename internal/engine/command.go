package engine

import (
	"fmt"

	"github.com/KirkDiggler/ludo/internal/dice"
	"github.com/KirkDiggler/ludo/internal/models"
)

// Command is a transition request. The set of commands is closed: only the
// types in this file implement it.
type Command interface {
	command()
	fmt.Stringer
}

// StartGame starts a new game from setup or after a finished game
type StartGame struct {
	PlayerCount int
	Names       []string
}

// RollDice records a die value rolled by the active player. The value is
// produced once by the originating peer and carried as data.
type RollDice struct {
	Player int
	Value  int
}

// MovePiece moves a piece of the active player by the pending die value
type MovePiece struct {
	Player int
	Piece  int
}

// RestartGame returns the session to setup
type RestartGame struct{}

func (StartGame) command()   {}
func (RollDice) command()    {}
func (MovePiece) command()   {}
func (RestartGame) command() {}

func (c StartGame) String() string {
	return fmt.Sprintf("start_game(players=%d)", c.PlayerCount)
}

func (c RollDice) String() string {
	return fmt.Sprintf("roll_dice(seat=%d, value=%d)", c.Player, c.Value)
}

func (c MovePiece) String() string {
	return fmt.Sprintf("move_piece(seat=%d, piece=%d)", c.Player, c.Piece)
}

func (RestartGame) String() string {
	return "restart_game"
}

// CommandFromAction converts an originating action record back into the
// command that produced it, so a peer can replay it
func CommandFromAction(a *models.Action) (Command, error) {
	if a == nil {
		return nil, ErrMalformedAction
	}

	switch a.Kind {
	case models.ActionGameStarted:
		if a.PlayerCount < 2 || a.PlayerCount > 4 {
			return nil, ErrMalformedAction
		}
		return StartGame{PlayerCount: a.PlayerCount, Names: a.Names}, nil
	case models.ActionDiceRolled:
		if a.Dice < 1 || a.Dice > dice.Sides || a.Actor < 0 {
			return nil, ErrMalformedAction
		}
		return RollDice{Player: a.Actor, Value: a.Dice}, nil
	case models.ActionPieceMoved:
		if a.Piece < 0 || a.Piece >= models.PiecesPerPlayer || a.Actor < 0 {
			return nil, ErrMalformedAction
		}
		return MovePiece{Player: a.Actor, Piece: a.Piece}, nil
	case models.ActionGameRestarted:
		return RestartGame{}, nil
	case models.ActionPieceCaptured, models.ActionTurnSwitched, models.ActionGameWon:
		return nil, ErrDerivedAction
	default:
		return nil, ErrUnknownAction
	}
}
