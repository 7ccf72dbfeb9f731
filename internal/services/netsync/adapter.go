// Package netsync keeps peer instances of a game in step. Local intents pass
// a turn-ownership gate, run through the game service and are broadcast;
// remote records are validated and replayed through the same service.
package netsync

import (
	"context"
	"errors"
	"sync"

	"github.com/KirkDiggler/ludo/internal/engine"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/protocol"
	"github.com/KirkDiggler/ludo/internal/services/game"
	"github.com/KirkDiggler/ludo/internal/transport"
	"go.uber.org/zap"
)

const (
	// HotSeat is the LocalSeat value for a device that plays every seat
	HotSeat = -1

	// AnySeat lets the seat-0 peer pick a free seat in its reply to Hello
	AnySeat = -2
)

// Config holds configuration for the adapter
type Config struct {
	GameService game.Service

	// Transport is optional; without it the adapter only gates local input
	Transport transport.Transport

	GameID string

	// LocalSeat is the seat played on this device, HotSeat or AnySeat
	LocalSeat int

	PeerID string
	Logger *zap.Logger

	// OnUpdate is called after remote input changed the session
	OnUpdate func(*models.Session)
}

// Adapter synchronizes one game with its remote peers
type Adapter struct {
	games     game.Service
	transport transport.Transport
	gameID    string
	peerID    string
	logger    *zap.Logger
	onUpdate  func(*models.Session)

	// mu guards the seats below and the pending sync flag
	mu            sync.Mutex
	localSeat     int
	seats         map[string]int
	syncRequested bool
}

// New creates an adapter
func New(cfg *Config) (*Adapter, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.GameService == nil {
		return nil, ErrNilGameService
	}
	if cfg.GameID == "" {
		return nil, ErrEmptyGameID
	}
	if cfg.PeerID == "" {
		return nil, ErrEmptyPeerID
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	localSeat := cfg.LocalSeat
	if localSeat < 0 && localSeat != AnySeat {
		localSeat = HotSeat
	}

	return &Adapter{
		games:     cfg.GameService,
		transport: cfg.Transport,
		gameID:    cfg.GameID,
		localSeat: localSeat,
		peerID:    cfg.PeerID,
		logger:    logger.With(zap.String("game_id", cfg.GameID), zap.String("peer_id", cfg.PeerID)),
		onUpdate:  cfg.OnUpdate,
		seats:     make(map[string]int),
	}, nil
}

// LocalSeat returns the seat played on this device
func (a *Adapter) LocalSeat() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.localSeat
}

// PeerSeat returns the seat a remote peer plays
func (a *Adapter) PeerSeat(peerID string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	seat, ok := a.seats[peerID]
	return seat, ok
}

// Game returns the current local session
func (a *Adapter) Game(ctx context.Context) (*models.Session, error) {
	output, err := a.games.GetGame(ctx, &game.GetGameInput{GameID: a.gameID})
	if err != nil {
		return nil, err
	}
	return output.Game, nil
}

// StartGame starts the game and broadcasts the start
func (a *Adapter) StartGame(ctx context.Context, playerCount int, names []string) (*game.StartGameOutput, error) {
	output, err := a.games.StartGame(ctx, &game.StartGameInput{
		GameID:      a.gameID,
		PlayerCount: playerCount,
		Names:       names,
	})
	if err != nil {
		return nil, err
	}
	if output.Accepted {
		a.broadcast(ctx, output.Actions)
	}
	return output, nil
}

// RollDice rolls for the local seat, or the active seat in hot-seat mode
func (a *Adapter) RollDice(ctx context.Context) (*game.RollDiceOutput, error) {
	current, seat, err := a.gate(ctx)
	if err != nil {
		return nil, err
	}
	if seat < 0 {
		return &game.RollDiceOutput{Reason: engine.ErrNotYourTurn, Game: current}, nil
	}

	output, err := a.games.RollDice(ctx, &game.RollDiceInput{GameID: a.gameID, Player: seat})
	if err != nil {
		return nil, err
	}
	if output.Accepted {
		a.broadcast(ctx, output.Actions)
	}
	return output, nil
}

// MovePiece moves a piece of the local seat
func (a *Adapter) MovePiece(ctx context.Context, piece int) (*game.MovePieceOutput, error) {
	current, seat, err := a.gate(ctx)
	if err != nil {
		return nil, err
	}
	if seat < 0 {
		return &game.MovePieceOutput{Reason: engine.ErrNotYourTurn, Game: current}, nil
	}

	output, err := a.games.MovePiece(ctx, &game.MovePieceInput{GameID: a.gameID, Player: seat, Piece: piece})
	if err != nil {
		return nil, err
	}
	if output.Accepted {
		a.broadcast(ctx, output.Actions)
	}
	return output, nil
}

// RestartGame restarts the game everywhere
func (a *Adapter) RestartGame(ctx context.Context) (*game.RestartGameOutput, error) {
	output, err := a.games.RestartGame(ctx, &game.RestartGameInput{GameID: a.gameID})
	if err != nil {
		return nil, err
	}
	a.broadcast(ctx, output.Actions)
	return output, nil
}

// gate resolves the seat allowed to act locally. It returns -1 when the
// active seat belongs to a remote peer; no mutation happens before this check.
func (a *Adapter) gate(ctx context.Context) (*models.Session, int, error) {
	current, err := a.Game(ctx)
	if err != nil {
		return nil, -1, err
	}

	active := current.Turn.ActivePlayer
	if seat := a.LocalSeat(); seat != HotSeat && active != seat {
		a.logger.Debug("local input rejected",
			zap.String("reason", engine.ErrNotYourTurn.Error()),
			zap.Int("seat", seat),
			zap.Int("active_seat", active),
		)
		return current, -1, nil
	}
	return current, active, nil
}

// broadcast sends every record of a transition. Peers replay the originating
// ones and compare the derived ones against their own history.
func (a *Adapter) broadcast(ctx context.Context, actions []models.Action) {
	if a.transport == nil {
		return
	}
	for _, action := range actions {
		if err := a.send(ctx, protocol.MsgAction, protocol.ActionMessage{Action: action}); err != nil {
			a.logger.Warn("failed to broadcast action",
				zap.Int("seq", action.Seq),
				zap.String("kind", string(action.Kind)),
				zap.Error(err),
			)
		}
	}
}

func (a *Adapter) send(ctx context.Context, msgType string, payload any) error {
	if a.transport == nil {
		return ErrNoTransport
	}
	env, err := protocol.New(msgType, a.peerID, a.gameID, payload)
	if err != nil {
		return err
	}
	return a.transport.Send(ctx, env)
}

// Hello announces the local seat to the other peers
func (a *Adapter) Hello(ctx context.Context, name string) error {
	return a.send(ctx, protocol.MsgHello, protocol.Hello{Seat: a.LocalSeat(), Name: name})
}

// RequestSync asks the peers for a full snapshot. The first snapshot that
// arrives afterwards is loaded even when it is behind local history.
func (a *Adapter) RequestSync(ctx context.Context) error {
	if a.transport == nil {
		return ErrNoTransport
	}

	a.mu.Lock()
	a.syncRequested = true
	a.mu.Unlock()

	lastSeq := 0
	if current, err := a.Game(ctx); err == nil {
		lastSeq = current.LastSeq()
	}
	return a.send(ctx, protocol.MsgSyncRequest, protocol.SyncRequest{LastSeq: lastSeq})
}

// Run handles remote envelopes until the context ends or the transport closes
func (a *Adapter) Run(ctx context.Context) error {
	if a.transport == nil {
		return ErrNoTransport
	}

	for {
		env, err := a.transport.Receive(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if err := a.HandleEnvelope(ctx, env); err != nil {
			a.logger.Warn("failed to handle envelope",
				zap.String("type", env.Type),
				zap.String("sender", env.Sender),
				zap.Error(err),
			)
		}
	}
}
