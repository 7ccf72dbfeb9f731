package engine

import "github.com/KirkDiggler/ludo/internal/models"

// EventKind identifies signals emitted on transitions for notification consumers
type EventKind string

const (
	EventGameStarted   EventKind = "game_started"
	EventDiceRolled    EventKind = "dice_rolled"
	EventNoLegalMove   EventKind = "no_legal_move"
	EventSixesForfeit  EventKind = "sixes_forfeit"
	EventPieceMoved    EventKind = "piece_moved"
	EventPieceCaptured EventKind = "piece_captured"
	EventTurnSwitched  EventKind = "turn_switched"
	EventGameWon       EventKind = "game_won"
	EventGameRestarted EventKind = "game_restarted"
)

// Event is a fire-and-forget signal about a transition
type Event struct {
	Kind EventKind

	// Seat is the player the event is about
	Seat int

	// Action is the record that produced the event
	Action models.Action
}

// Result is the outcome of applying a command
type Result struct {
	// Accepted is false when the command was rejected and the session is unchanged
	Accepted bool

	// Reason explains a rejection
	Reason error

	// Actions are the records appended to the history, in order
	Actions []models.Action

	// Events are the notification signals, in order
	Events []Event
}

// Originating returns the actions of the result that peers must replay
func (r *Result) Originating() []models.Action {
	var out []models.Action
	for _, a := range r.Actions {
		if a.Kind.Originating() {
			out = append(out, a)
		}
	}
	return out
}

func rejected(reason error) *Result {
	return &Result{Reason: reason}
}
