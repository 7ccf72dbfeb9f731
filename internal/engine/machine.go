// Package engine is the ludo turn state machine. Machine.Apply is the only
// code that mutates a models.Session; everything else reads snapshots.
package engine

import (
	"time"

	"github.com/KirkDiggler/ludo/internal/common/clock"
	"github.com/KirkDiggler/ludo/internal/common/uuid"
	"github.com/KirkDiggler/ludo/internal/dice"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/rules"
	"go.uber.org/zap"
)

// MaxConsecutiveSixes is the roll that forfeits the turn when the rule is on
const MaxConsecutiveSixes = 3

// Config holds the collaborators of a Machine
type Config struct {
	Clock         clock.Clock
	UUIDGenerator uuid.UUID
	Logger        *zap.Logger
}

// Machine applies commands to sessions
type Machine struct {
	clock  clock.Clock
	uuid   uuid.UUID
	logger *zap.Logger
}

// New creates a Machine, filling in system defaults for missing collaborators
func New(cfg *Config) *Machine {
	if cfg == nil {
		cfg = &Config{}
	}

	m := &Machine{
		clock:  cfg.Clock,
		uuid:   cfg.UUIDGenerator,
		logger: cfg.Logger,
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if m.uuid == nil {
		m.uuid = uuid.New()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// NewSession creates a session in setup
func (m *Machine) NewSession(id, channelID string, playerCount int, ruleSet models.Rules) *models.Session {
	if playerCount < 2 || playerCount > 4 {
		playerCount = 4
	}
	now := m.clock.Now()
	return &models.Session{
		ID:                  id,
		ChannelID:           channelID,
		Phase:               models.PhaseSetup,
		SelectedPlayerCount: playerCount,
		Players:             []*models.Player{},
		History:             []models.Action{},
		Rules:               ruleSet,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Apply runs a command against the session. Rejected commands leave the
// session untouched and report Accepted=false with a Reason.
func (m *Machine) Apply(s *models.Session, cmd Command) *Result {
	if s == nil {
		return rejected(ErrNilSession)
	}

	var res *Result
	switch c := cmd.(type) {
	case StartGame:
		res = m.startGame(s, c)
	case RollDice:
		res = m.rollDice(s, c)
	case MovePiece:
		res = m.movePiece(s, c)
	case RestartGame:
		res = m.restartGame(s)
	default:
		res = rejected(ErrUnknownCommand)
	}

	if !res.Accepted {
		m.logger.Debug("transition rejected",
			zap.String("game_id", s.ID),
			zap.Stringer("command", stringer{cmd}),
			zap.String("reason", res.Reason.Error()),
			zap.Int("active_seat", s.Turn.ActivePlayer),
			zap.String("phase", string(s.Phase)),
		)
		return res
	}

	s.UpdatedAt = m.clock.Now()
	return res
}

func (m *Machine) startGame(s *models.Session, c StartGame) *Result {
	if s.Phase.IsInProgress() {
		return rejected(ErrGameInProgress)
	}

	colors := models.SeatColors(c.PlayerCount)
	if colors == nil {
		return rejected(ErrInvalidPlayerCount)
	}

	players := make([]*models.Player, len(colors))
	for seat, color := range colors {
		name := color.DisplayName()
		if seat < len(c.Names) && c.Names[seat] != "" {
			name = c.Names[seat]
		}
		players[seat] = &models.Player{Seat: seat, Color: color, Name: name}
	}

	now := m.clock.Now()
	s.Phase = models.PhaseInProgress
	s.SelectedPlayerCount = c.PlayerCount
	s.Players = players
	s.Turn = models.TurnContext{}
	s.History = []models.Action{}
	s.Winner = nil
	s.StartedAt = now
	s.FinishedAt = time.Time{}

	res := &Result{Accepted: true}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	a := m.record(s, now, models.Action{
		Kind:        models.ActionGameStarted,
		Actor:       0,
		Player:      0,
		Piece:       -1,
		PlayerCount: c.PlayerCount,
		Names:       names,
	})
	res.add(a, EventGameStarted, 0)
	return res
}

func (m *Machine) rollDice(s *models.Session, c RollDice) *Result {
	if !s.Phase.IsInProgress() {
		return rejected(ErrGameNotInProgress)
	}
	if c.Player != s.Turn.ActivePlayer {
		return rejected(ErrNotYourTurn)
	}
	if s.Turn.MoveRequired {
		return rejected(ErrMoveRequired)
	}
	if c.Value < 1 || c.Value > dice.Sides {
		return rejected(ErrInvalidDiceValue)
	}

	now := m.clock.Now()
	seat := s.Turn.ActivePlayer
	res := &Result{Accepted: true}

	sixes := 0
	if c.Value == rules.EntryRoll {
		sixes = s.Turn.ConsecutiveSixes + 1
	}

	rolled := m.record(s, now, models.Action{
		Kind:   models.ActionDiceRolled,
		Actor:  seat,
		Player: seat,
		Piece:  -1,
		Dice:   c.Value,
	})
	res.add(rolled, EventDiceRolled, seat)

	if s.Rules.ThreeSixesForfeit && sixes >= MaxConsecutiveSixes {
		s.Turn.DiceValue = -c.Value
		s.Turn.MoveRequired = false
		s.Turn.ConsecutiveSixes = 0
		res.Events = append(res.Events, Event{Kind: EventSixesForfeit, Seat: seat, Action: rolled})
		m.advance(s, now, res, c.Value)
		return res
	}

	if len(rules.MovablePieces(s.Players[seat], c.Value)) == 0 {
		s.Turn.DiceValue = -c.Value
		s.Turn.MoveRequired = false
		s.Turn.ConsecutiveSixes = 0
		res.Events = append(res.Events, Event{Kind: EventNoLegalMove, Seat: seat, Action: rolled})
		m.advance(s, now, res, c.Value)
		return res
	}

	s.Turn.DiceValue = c.Value
	s.Turn.MoveRequired = true
	s.Turn.ConsecutiveSixes = sixes
	return res
}

func (m *Machine) movePiece(s *models.Session, c MovePiece) *Result {
	if !s.Phase.IsInProgress() {
		return rejected(ErrGameNotInProgress)
	}
	if c.Player != s.Turn.ActivePlayer {
		return rejected(ErrNotYourTurn)
	}
	if !s.Turn.MoveRequired || s.Turn.DiceValue <= 0 {
		return rejected(ErrNoMoveRequired)
	}

	value := s.Turn.DiceValue
	move, ok := rules.PreviewMove(s.Players, c.Player, c.Piece, value)
	if !ok {
		return rejected(ErrPieceNotMovable)
	}

	now := m.clock.Now()
	seat := c.Player
	mover := s.Players[seat]
	res := &Result{Accepted: true}

	captured := make([]models.PieceRef, len(move.Captures))
	copy(captured, move.Captures)
	fromPositions := make([]int, len(captured))
	for i, ref := range captured {
		fromPositions[i] = s.Players[ref.Player].Pieces[ref.Piece]
	}

	mover.Pieces[c.Piece] = move.To
	for _, ref := range captured {
		s.Players[ref.Player].Pieces[ref.Piece] = models.YardPosition
	}

	moved := m.record(s, now, models.Action{
		Kind:         models.ActionPieceMoved,
		Actor:        seat,
		Player:       seat,
		Piece:        c.Piece,
		From:         move.From,
		To:           move.To,
		Dice:         value,
		CaptureCount: len(captured),
		Captures:     captured,
	})
	res.add(moved, EventPieceMoved, seat)

	for i, ref := range captured {
		a := m.record(s, now, models.Action{
			Kind:   models.ActionPieceCaptured,
			Actor:  seat,
			Player: ref.Player,
			Piece:  ref.Piece,
			From:   fromPositions[i],
			To:     models.YardPosition,
			Dice:   value,
		})
		res.add(a, EventPieceCaptured, ref.Player)
	}

	s.Turn.DiceValue = 0
	s.Turn.MoveRequired = false

	if mover.HasWon() {
		winner := seat
		s.Phase = models.PhaseFinished
		s.Winner = &winner
		s.FinishedAt = now
		s.Turn.ConsecutiveSixes = 0
		a := m.record(s, now, models.Action{
			Kind:   models.ActionGameWon,
			Actor:  seat,
			Player: seat,
			Piece:  -1,
			Dice:   value,
		})
		res.add(a, EventGameWon, seat)
		return res
	}

	if extraTurn(s.Rules, value, len(captured), move.To) {
		return res
	}

	s.Turn.ConsecutiveSixes = 0
	m.advance(s, now, res, value)
	return res
}

func (m *Machine) restartGame(s *models.Session) *Result {
	now := m.clock.Now()
	a := models.Action{
		ID:        m.uuid.NewUUID(),
		Kind:      models.ActionGameRestarted,
		Actor:     s.Turn.ActivePlayer,
		Player:    s.Turn.ActivePlayer,
		Piece:     -1,
		Timestamp: now,
	}

	s.Phase = models.PhaseSetup
	s.Players = []*models.Player{}
	s.Turn = models.TurnContext{}
	s.History = []models.Action{}
	s.Winner = nil
	s.StartedAt = time.Time{}
	s.FinishedAt = time.Time{}

	res := &Result{Accepted: true}
	res.add(a, EventGameRestarted, a.Actor)
	return res
}

// extraTurn reports whether a move keeps the turn with the mover
func extraTurn(ruleSet models.Rules, value, captures, to int) bool {
	if value == rules.EntryRoll || captures > 0 {
		return true
	}
	return to == models.FinalPosition && ruleSet.FinishGrantsExtraTurn
}

// advance hands the turn to the next seat and records the switch
func (m *Machine) advance(s *models.Session, now time.Time, res *Result, value int) {
	from := s.Turn.ActivePlayer
	next := (from + 1) % len(s.Players)
	s.Turn.ActivePlayer = next

	a := m.record(s, now, models.Action{
		Kind:   models.ActionTurnSwitched,
		Actor:  from,
		Player: next,
		Piece:  -1,
		Dice:   value,
	})
	res.add(a, EventTurnSwitched, next)
}

// record stamps an action and appends it to the session history
func (m *Machine) record(s *models.Session, now time.Time, a models.Action) models.Action {
	a.ID = m.uuid.NewUUID()
	a.Seq = len(s.History) + 1
	a.Timestamp = now
	s.History = append(s.History, a)
	return a
}

func (r *Result) add(a models.Action, kind EventKind, seat int) {
	r.Actions = append(r.Actions, a)
	r.Events = append(r.Events, Event{Kind: kind, Seat: seat, Action: a})
}

// stringer tolerates nil commands in log fields
type stringer struct {
	cmd Command
}

func (s stringer) String() string {
	if s.cmd == nil {
		return "<nil>"
	}
	return s.cmd.String()
}
