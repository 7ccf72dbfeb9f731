package models

import (
	"time"
)

// Phase represents the lifecycle stage of a game session
type Phase string

const (
	// PhaseSetup indicates the game is waiting to be started
	PhaseSetup Phase = "setup"

	// PhaseInProgress indicates players are taking turns
	PhaseInProgress Phase = "in_progress"

	// PhaseFinished indicates a player has won
	PhaseFinished Phase = "finished"
)

// IsSetup returns true if the game has not started
func (p Phase) IsSetup() bool {
	return p == PhaseSetup
}

// IsInProgress returns true if turns are being taken
func (p Phase) IsInProgress() bool {
	return p == PhaseInProgress
}

// IsFinished returns true if the game has a winner
func (p Phase) IsFinished() bool {
	return p == PhaseFinished
}

// Rules holds the optional rule toggles of a session
type Rules struct {
	// ThreeSixesForfeit passes the turn on a third consecutive six
	ThreeSixesForfeit bool `json:"three_sixes_forfeit" yaml:"three_sixes_forfeit"`

	// FinishGrantsExtraTurn keeps the turn when a piece reaches the center
	FinishGrantsExtraTurn bool `json:"finish_grants_extra_turn" yaml:"finish_grants_extra_turn"`

	// AutoMoveSingle moves the only movable piece without waiting for input
	AutoMoveSingle bool `json:"auto_move_single" yaml:"auto_move_single"`
}

// DefaultRules returns the standard rule set
func DefaultRules() Rules {
	return Rules{
		FinishGrantsExtraTurn: true,
	}
}

// TurnContext is the mutable turn state of a session
type TurnContext struct {
	// ActivePlayer is the seat whose turn it is
	ActivePlayer int `json:"active_player"`

	// DiceValue is 0 when unrolled, positive while a move is pending and
	// negative when the roll had no legal move
	DiceValue int `json:"dice_value"`

	// MoveRequired is set while the active player must move a piece
	MoveRequired bool `json:"move_required"`

	// ConsecutiveSixes counts sixes rolled in a row by the active player
	ConsecutiveSixes int `json:"consecutive_sixes"`
}

// Session represents a ludo game session
type Session struct {
	// ID is the unique identifier for the session
	ID string `json:"id"`

	// ChannelID is where the game is being played (chat channel or peer channel)
	ChannelID string `json:"channel_id,omitempty"`

	// Phase is the current lifecycle stage
	Phase Phase `json:"phase"`

	// SelectedPlayerCount survives restarts
	SelectedPlayerCount int `json:"selected_player_count"`

	// Players holds 2-4 seats in turn order
	Players []*Player `json:"players"`

	// Turn is the authoritative turn state
	Turn TurnContext `json:"turn"`

	// History is the append-only action log
	History []Action `json:"history"`

	// Winner is the seat of the winning player, if any
	Winner *int `json:"winner,omitempty"`

	// Rules are the rule toggles in effect
	Rules Rules `json:"rules"`

	// CreatedAt is when the session was created
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the session was last mutated
	UpdatedAt time.Time `json:"updated_at"`

	// StartedAt is when the current game started
	StartedAt time.Time `json:"started_at,omitempty"`

	// FinishedAt is when the current game was won
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// ActivePlayer returns the player whose turn it is, or nil
func (s *Session) ActivePlayer() *Player {
	if s.Turn.ActivePlayer < 0 || s.Turn.ActivePlayer >= len(s.Players) {
		return nil
	}
	return s.Players[s.Turn.ActivePlayer]
}

// Player returns the player at a seat, or nil
func (s *Session) Player(seat int) *Player {
	if seat < 0 || seat >= len(s.Players) {
		return nil
	}
	return s.Players[seat]
}

// LastSeq returns the sequence number of the newest action record
func (s *Session) LastSeq() int {
	if len(s.History) == 0 {
		return 0
	}
	return s.History[len(s.History)-1].Seq
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	out := *s
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		out.Players[i] = &cp
	}
	out.History = make([]Action, len(s.History))
	copy(out.History, s.History)
	for i := range out.History {
		out.History[i].Captures = clonePieceRefs(s.History[i].Captures)
	}
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return &out
}

func clonePieceRefs(refs []PieceRef) []PieceRef {
	if refs == nil {
		return nil
	}
	out := make([]PieceRef, len(refs))
	copy(out, refs)
	return out
}
