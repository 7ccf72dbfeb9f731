package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KirkDiggler/ludo/internal/common/clock"
	"github.com/KirkDiggler/ludo/internal/common/uuid"
	"github.com/KirkDiggler/ludo/internal/dice"
	"github.com/KirkDiggler/ludo/internal/engine"
	"github.com/KirkDiggler/ludo/internal/history"
	"github.com/KirkDiggler/ludo/internal/models"
	gameRepo "github.com/KirkDiggler/ludo/internal/repositories/game"
	"github.com/KirkDiggler/ludo/internal/rules"
	"go.uber.org/zap"
)

// service implements the Service interface
type service struct {
	// mu serializes load-apply-save so transitions are applied one at a time
	mu sync.Mutex

	rules         models.Rules
	gameRepo      gameRepo.Repository
	diceRoller    dice.Roller
	clock         clock.Clock
	uuidGenerator uuid.UUID
	notifier      Notifier
	logger        *zap.Logger
	machine       *engine.Machine
}

// New creates a new game service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.GameRepo == nil {
		return nil, ErrNilGameRepo
	}

	if cfg.DiceRoller == nil {
		return nil, ErrNilDiceRoller
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &service{
		rules:         cfg.DefaultRules,
		gameRepo:      cfg.GameRepo,
		diceRoller:    cfg.DiceRoller,
		clock:         cfg.Clock,
		uuidGenerator: cfg.UUIDGenerator,
		notifier:      cfg.Notifier,
		logger:        logger,
		machine: engine.New(&engine.Config{
			Clock:         cfg.Clock,
			UUIDGenerator: cfg.UUIDGenerator,
			Logger:        logger,
		}),
	}, nil
}

// CreateGame creates a session in setup. A channel may hold one unfinished
// game at a time; a finished game is replaced.
func (s *service) CreateGame(ctx context.Context, input *CreateGameInput) (*CreateGameOutput, error) {
	if input == nil {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if input.ChannelID != "" {
		existing, err := s.gameRepo.GetGameByChannel(ctx, &gameRepo.GetGameByChannelInput{
			ChannelID: input.ChannelID,
		})
		if err != nil && !errors.Is(err, gameRepo.ErrGameNotFound) {
			return nil, err
		}
		if err == nil && existing != nil && !existing.Phase.IsFinished() {
			return nil, ErrGameAlreadyExists
		}
	}

	gameID := input.GameID
	if gameID == "" {
		gameID = s.uuidGenerator.NewUUID()
	}

	ruleSet := s.rules
	if input.Rules != nil {
		ruleSet = *input.Rules
	}

	game := s.machine.NewSession(gameID, input.ChannelID, input.PlayerCount, ruleSet)
	if err := s.gameRepo.SaveGame(ctx, &gameRepo.SaveGameInput{Game: game}); err != nil {
		return nil, err
	}

	s.logger.Info("game created",
		zap.String("game_id", game.ID),
		zap.String("channel_id", game.ChannelID),
		zap.Int("players", game.SelectedPlayerCount),
	)

	return &CreateGameOutput{Game: game}, nil
}

// StartGame seats the players and starts the first turn
func (s *service) StartGame(ctx context.Context, input *StartGameInput) (*StartGameOutput, error) {
	if input == nil {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.load(ctx, input.GameID)
	if err != nil {
		return nil, err
	}

	count := input.PlayerCount
	if count == 0 {
		count = game.SelectedPlayerCount
	}

	res := s.machine.Apply(game, engine.StartGame{PlayerCount: count, Names: input.Names})
	if err := s.commit(ctx, game, res); err != nil {
		return nil, err
	}

	return &StartGameOutput{
		Accepted: res.Accepted,
		Reason:   res.Reason,
		Game:     game,
		Actions:  res.Actions,
	}, nil
}

// RollDice rolls the die for a player. With AutoMoveSingle the only movable
// piece is moved in the same call.
func (s *service) RollDice(ctx context.Context, input *RollDiceInput) (*RollDiceOutput, error) {
	if input == nil {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.load(ctx, input.GameID)
	if err != nil {
		return nil, err
	}

	value := s.diceRoller.Roll(dice.Sides)
	res := s.machine.Apply(game, engine.RollDice{Player: input.Player, Value: value})

	output := &RollDiceOutput{
		Accepted: res.Accepted,
		Reason:   res.Reason,
		Game:     game,
	}
	if !res.Accepted {
		return output, nil
	}

	output.Value = value
	if game.Turn.MoveRequired {
		output.MovablePieces = rules.MovablePieces(game.Player(input.Player), value)
	} else {
		output.Passed = true
		output.Forfeited = hasEvent(res, engine.EventSixesForfeit)
	}

	if game.Rules.AutoMoveSingle && len(output.MovablePieces) == 1 {
		moveRes := s.machine.Apply(game, engine.MovePiece{Player: input.Player, Piece: output.MovablePieces[0]})
		if moveRes.Accepted {
			output.AutoMove = moveOutput(game, moveRes)
			res.Actions = append(res.Actions, moveRes.Actions...)
			res.Events = append(res.Events, moveRes.Events...)
		}
	}

	if err := s.commit(ctx, game, res); err != nil {
		return nil, err
	}

	output.Actions = res.Actions
	return output, nil
}

// MovePiece moves a piece by the pending die value
func (s *service) MovePiece(ctx context.Context, input *MovePieceInput) (*MovePieceOutput, error) {
	if input == nil {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.load(ctx, input.GameID)
	if err != nil {
		return nil, err
	}

	res := s.machine.Apply(game, engine.MovePiece{Player: input.Player, Piece: input.Piece})
	if err := s.commit(ctx, game, res); err != nil {
		return nil, err
	}

	return moveOutput(game, res), nil
}

// RestartGame returns a session to setup, keeping the selected player count
func (s *service) RestartGame(ctx context.Context, input *RestartGameInput) (*RestartGameOutput, error) {
	if input == nil {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.load(ctx, input.GameID)
	if err != nil {
		return nil, err
	}

	res := s.machine.Apply(game, engine.RestartGame{})
	if err := s.commit(ctx, game, res); err != nil {
		return nil, err
	}

	return &RestartGameOutput{
		Game:    game,
		Actions: res.Actions,
	}, nil
}

// ApplyAction replays a remote originating record through the same machine.
// The die value comes from the record and is never re-rolled.
func (s *service) ApplyAction(ctx context.Context, input *ApplyActionInput) (*ApplyActionOutput, error) {
	if input == nil || input.Action == nil {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.load(ctx, input.GameID)
	if err != nil {
		return nil, err
	}

	cmd, err := engine.CommandFromAction(input.Action)
	if err != nil {
		s.logger.Warn("dropping remote action",
			zap.String("game_id", game.ID),
			zap.String("kind", string(input.Action.Kind)),
			zap.Int("seq", input.Action.Seq),
			zap.Error(err),
		)
		return &ApplyActionOutput{Reason: err, Game: game}, nil
	}

	if want := expectedSeq(game, input.Action.Kind); input.Action.Seq != 0 && input.Action.Seq != want {
		s.logger.Debug("remote action out of sequence",
			zap.String("game_id", game.ID),
			zap.Int("seq", input.Action.Seq),
			zap.Int("expected", want),
		)
		return &ApplyActionOutput{Reason: ErrOutOfSequence, Game: game}, nil
	}

	res := s.machine.Apply(game, cmd)
	if err := s.commit(ctx, game, res); err != nil {
		return nil, err
	}

	return &ApplyActionOutput{
		Accepted: res.Accepted,
		Reason:   res.Reason,
		Game:     game,
		Actions:  res.Actions,
	}, nil
}

// GetGame retrieves a session by ID
func (s *service) GetGame(ctx context.Context, input *GetGameInput) (*GetGameOutput, error) {
	if input == nil {
		return nil, ErrInvalidInput
	}

	game, err := s.load(ctx, input.GameID)
	if err != nil {
		return nil, err
	}
	return &GetGameOutput{Game: game}, nil
}

// GetGameByChannel retrieves the session bound to a channel
func (s *service) GetGameByChannel(ctx context.Context, input *GetGameByChannelInput) (*GetGameOutput, error) {
	if input == nil || input.ChannelID == "" {
		return nil, ErrInvalidInput
	}

	game, err := s.gameRepo.GetGameByChannel(ctx, &gameRepo.GetGameByChannelInput{
		ChannelID: input.ChannelID,
	})
	if err != nil {
		if errors.Is(err, gameRepo.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &GetGameOutput{Game: game}, nil
}

// GetSnapshot returns a deep copy of a session
func (s *service) GetSnapshot(ctx context.Context, input *GetSnapshotInput) (*GetSnapshotOutput, error) {
	if input == nil {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.load(ctx, input.GameID)
	if err != nil {
		return nil, err
	}
	return &GetSnapshotOutput{
		Game:    game.Clone(),
		LastSeq: game.LastSeq(),
	}, nil
}

// LoadSnapshot replaces a session wholesale with a peer's snapshot. A snapshot
// of the same game that is behind local history is refused unless forced.
func (s *service) LoadSnapshot(ctx context.Context, input *LoadSnapshotInput) (*LoadSnapshotOutput, error) {
	if input == nil || input.Game == nil {
		return nil, ErrInvalidInput
	}
	if err := validateSnapshot(input.Game); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx, input.Game.ID)
	if err != nil && err != ErrGameNotFound {
		return nil, err
	}
	if current != nil && !input.Force && sameGame(current, input.Game) && input.Game.LastSeq() < current.LastSeq() {
		s.logger.Debug("stale snapshot dropped",
			zap.String("game_id", current.ID),
			zap.Int("last_seq", current.LastSeq()),
			zap.Int("snapshot_last_seq", input.Game.LastSeq()),
		)
		return nil, ErrStaleSnapshot
	}

	game := input.Game.Clone()
	if err := s.gameRepo.SaveGame(ctx, &gameRepo.SaveGameInput{Game: game}); err != nil {
		return nil, err
	}

	s.logger.Info("snapshot loaded",
		zap.String("game_id", game.ID),
		zap.Int("last_seq", game.LastSeq()),
		zap.String("phase", string(game.Phase)),
	)

	return &LoadSnapshotOutput{Game: game}, nil
}

// GetMovablePieces lists the pieces a player may move. It is empty unless
// it is the player's turn and a move is pending.
func (s *service) GetMovablePieces(ctx context.Context, input *GetMovablePiecesInput) (*GetMovablePiecesOutput, error) {
	if input == nil {
		return nil, ErrInvalidInput
	}

	game, err := s.load(ctx, input.GameID)
	if err != nil {
		return nil, err
	}

	output := &GetMovablePiecesOutput{Pieces: []int{}}
	if !game.Phase.IsInProgress() || !game.Turn.MoveRequired || game.Turn.ActivePlayer != input.Player {
		return output, nil
	}

	output.Dice = game.Turn.DiceValue
	if pieces := rules.MovablePieces(game.Player(input.Player), game.Turn.DiceValue); pieces != nil {
		output.Pieces = pieces
	}
	return output, nil
}

// GetStats summarizes the history of a session
func (s *service) GetStats(ctx context.Context, input *GetStatsInput) (*GetStatsOutput, error) {
	if input == nil {
		return nil, ErrInvalidInput
	}

	game, err := s.load(ctx, input.GameID)
	if err != nil {
		return nil, err
	}
	return &GetStatsOutput{Stats: history.Summarize(game)}, nil
}

func (s *service) load(ctx context.Context, gameID string) (*models.Session, error) {
	if gameID == "" {
		return nil, ErrInvalidInput
	}

	game, err := s.gameRepo.GetGame(ctx, &gameRepo.GetGameInput{GameID: gameID})
	if err != nil {
		if errors.Is(err, gameRepo.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	return game, nil
}

// commit saves an accepted transition and fans its events out
func (s *service) commit(ctx context.Context, game *models.Session, res *engine.Result) error {
	if !res.Accepted {
		return nil
	}

	if err := s.gameRepo.SaveGame(ctx, &gameRepo.SaveGameInput{Game: game}); err != nil {
		return err
	}

	for _, a := range res.Actions {
		s.logger.Debug("action recorded",
			zap.String("game_id", game.ID),
			zap.Int("seq", a.Seq),
			zap.String("kind", string(a.Kind)),
			zap.Int("actor", a.Actor),
		)
	}

	if s.notifier != nil {
		snapshot := game.Clone()
		for _, e := range res.Events {
			s.notifier.Notify(ctx, &NotifyInput{Game: snapshot, Event: e})
		}
	}
	return nil
}

// sameGame reports whether both sessions descend from the same game_started record
func sameGame(a, b *models.Session) bool {
	if len(a.History) == 0 || len(b.History) == 0 {
		return false
	}
	x, y := a.History[0], b.History[0]
	return x.Kind == models.ActionGameStarted && x.ID == y.ID && x.Kind == y.Kind && x.Timestamp.Equal(y.Timestamp)
}

// expectedSeq is the sequence number the next replayed record must carry.
// game_started clears the history, so it always starts over at 1.
func expectedSeq(game *models.Session, kind models.ActionKind) int {
	if kind == models.ActionGameStarted {
		return 1
	}
	return game.LastSeq() + 1
}

func moveOutput(game *models.Session, res *engine.Result) *MovePieceOutput {
	output := &MovePieceOutput{
		Accepted: res.Accepted,
		Reason:   res.Reason,
		Game:     game,
		Actions:  res.Actions,
	}
	if !res.Accepted {
		return output
	}

	output.ExtraTurn = true
	for _, a := range res.Actions {
		switch a.Kind {
		case models.ActionPieceMoved:
			output.From = a.From
			output.To = a.To
			output.Captured = a.Captures
		case models.ActionGameWon:
			output.Won = true
			output.ExtraTurn = false
		case models.ActionTurnSwitched:
			output.ExtraTurn = false
		}
	}
	return output
}

func hasEvent(res *engine.Result, kind engine.EventKind) bool {
	for _, e := range res.Events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func validateSnapshot(game *models.Session) error {
	if game.ID == "" {
		return ErrInvalidSnapshot
	}
	switch game.Phase {
	case models.PhaseSetup, models.PhaseInProgress, models.PhaseFinished:
	default:
		return ErrInvalidSnapshot
	}
	if game.Phase.IsSetup() {
		return nil
	}

	if models.SeatColors(len(game.Players)) == nil {
		return ErrInvalidSnapshot
	}
	for seat, p := range game.Players {
		if p == nil || p.Seat != seat {
			return ErrInvalidSnapshot
		}
		for _, pos := range p.Pieces {
			if pos < models.YardPosition || pos > models.FinalPosition {
				return ErrInvalidSnapshot
			}
		}
	}
	if game.Turn.ActivePlayer < 0 || game.Turn.ActivePlayer >= len(game.Players) {
		return ErrInvalidSnapshot
	}
	return nil
}
