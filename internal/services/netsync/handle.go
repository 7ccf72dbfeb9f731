package netsync

import (
	"context"

	"github.com/KirkDiggler/ludo/internal/history"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/protocol"
	"github.com/KirkDiggler/ludo/internal/services/game"
	"go.uber.org/zap"
)

// HandleEnvelope applies one remote envelope. Malformed or foreign messages
// are dropped with a warning; only game service failures are returned.
func (a *Adapter) HandleEnvelope(ctx context.Context, env *protocol.Envelope) error {
	if env == nil {
		return nil
	}
	if env.GameID != a.gameID {
		a.logger.Debug("dropping envelope for another game", zap.String("other_game_id", env.GameID))
		return nil
	}
	if env.Sender == a.peerID {
		return nil
	}

	switch env.Type {
	case protocol.MsgAction:
		msg, err := protocol.DecodePayload[protocol.ActionMessage](env)
		if err != nil {
			a.logger.Warn("dropping malformed action", zap.String("sender", env.Sender), zap.Error(err))
			return nil
		}
		return a.handleAction(ctx, env.Sender, &msg.Action)
	case protocol.MsgSyncRequest:
		return a.handleSyncRequest(ctx)
	case protocol.MsgSnapshot:
		msg, err := protocol.DecodePayload[protocol.Snapshot](env)
		if err != nil || msg.Session == nil {
			a.logger.Warn("dropping malformed snapshot", zap.String("sender", env.Sender), zap.Error(err))
			return nil
		}
		return a.handleSnapshot(ctx, &msg)
	case protocol.MsgHello:
		msg, err := protocol.DecodePayload[protocol.Hello](env)
		if err != nil {
			a.logger.Warn("dropping malformed hello", zap.String("sender", env.Sender), zap.Error(err))
			return nil
		}
		return a.handleHello(ctx, env.Sender, msg)
	default:
		a.logger.Warn("dropping unknown message", zap.String("type", env.Type), zap.String("sender", env.Sender))
		return nil
	}
}

func (a *Adapter) handleAction(ctx context.Context, sender string, action *models.Action) error {
	if !action.Kind.Valid() {
		a.logger.Warn("dropping action of unknown kind", zap.String("kind", string(action.Kind)))
		return nil
	}

	current, err := a.Game(ctx)
	if err != nil {
		return err
	}

	if !action.Kind.Originating() {
		a.checkDerived(ctx, current, action)
		return nil
	}

	if action.Kind == models.ActionDiceRolled || action.Kind == models.ActionPieceMoved {
		if action.Actor != current.Turn.ActivePlayer {
			a.logger.Debug("dropping remote action out of turn",
				zap.Int("actor", action.Actor),
				zap.Int("active_seat", current.Turn.ActivePlayer),
			)
			return nil
		}
		if local := a.LocalSeat(); local != HotSeat && action.Actor == local {
			a.logger.Warn("dropping remote action for the local seat", zap.Int("seat", action.Actor))
			return nil
		}
		if seat, ok := a.PeerSeat(sender); !ok || seat != action.Actor {
			a.logger.Warn("dropping remote action for a seat the sender does not play",
				zap.String("sender", sender),
				zap.Int("actor", action.Actor),
				zap.Bool("seated", ok),
				zap.Int("sender_seat", seat),
			)
			return nil
		}
	}

	output, err := a.games.ApplyAction(ctx, &game.ApplyActionInput{GameID: a.gameID, Action: action})
	if err != nil {
		return err
	}

	if !output.Accepted {
		a.logger.Debug("remote action rejected",
			zap.Int("seq", action.Seq),
			zap.String("kind", string(action.Kind)),
			zap.Error(output.Reason),
		)
		if output.Reason == game.ErrOutOfSequence {
			return a.RequestSync(ctx)
		}
		return nil
	}

	a.updated(output.Game)
	return nil
}

// checkDerived compares a peer's derived record with the local one at the
// same position. A mismatch means the replicas diverged.
func (a *Adapter) checkDerived(ctx context.Context, current *models.Session, remote *models.Action) {
	if remote.Seq < 1 {
		return
	}
	later := history.Since(current.History, remote.Seq-1)
	if len(later) == 0 || later[0].Seq != remote.Seq {
		return
	}

	local := later[0]
	if sameOutcome(&local, remote) {
		return
	}

	a.logger.Warn("desync detected",
		zap.Int("seq", remote.Seq),
		zap.String("local_kind", string(local.Kind)),
		zap.String("remote_kind", string(remote.Kind)),
	)
	if err := a.RequestSync(ctx); err != nil {
		a.logger.Warn("failed to request sync", zap.Error(err))
	}
}

func sameOutcome(local, remote *models.Action) bool {
	return local.Kind == remote.Kind &&
		local.Actor == remote.Actor &&
		local.Player == remote.Player &&
		local.Piece == remote.Piece &&
		local.From == remote.From &&
		local.To == remote.To
}

func (a *Adapter) handleSyncRequest(ctx context.Context) error {
	output, err := a.games.GetSnapshot(ctx, &game.GetSnapshotInput{GameID: a.gameID})
	if err != nil {
		return err
	}

	snap := protocol.Snapshot{Session: output.Game}
	if a.LocalSeat() == 0 {
		snap.Seats = a.seatMap()
	}
	return a.send(ctx, protocol.MsgSnapshot, snap)
}

func (a *Adapter) handleSnapshot(ctx context.Context, snap *protocol.Snapshot) error {
	if snap.Session.ID != a.gameID {
		a.logger.Warn("dropping snapshot for another game", zap.String("other_game_id", snap.Session.ID))
		return nil
	}

	a.mergeSeats(snap.Seats)

	a.mu.Lock()
	force := a.syncRequested
	a.syncRequested = false
	a.mu.Unlock()

	output, err := a.games.LoadSnapshot(ctx, &game.LoadSnapshotInput{Game: snap.Session, Force: force})
	if err != nil {
		switch err {
		case game.ErrInvalidSnapshot:
			a.logger.Warn("dropping invalid snapshot", zap.Error(err))
			return nil
		case game.ErrStaleSnapshot:
			a.logger.Debug("dropping stale snapshot", zap.Int("snapshot_last_seq", snap.Session.LastSeq()))
			return nil
		}
		return err
	}

	a.updated(output.Game)
	return nil
}

// handleHello records the seat of a newcomer. Seat 0 settles the seat and
// answers with a snapshot so a newcomer gets one reply.
func (a *Adapter) handleHello(ctx context.Context, sender string, msg protocol.Hello) error {
	a.logger.Info("peer joined", zap.String("sender", sender), zap.Int("seat", msg.Seat), zap.String("name", msg.Name))

	if a.LocalSeat() != 0 {
		if msg.Seat >= 0 {
			a.mu.Lock()
			a.seats[sender] = msg.Seat
			a.mu.Unlock()
		}
		return nil
	}

	if seat := a.assignSeat(sender, msg.Seat); seat < 0 {
		a.logger.Warn("no free seat for peer", zap.String("sender", sender))
	} else if seat != msg.Seat {
		a.logger.Info("seat assigned", zap.String("sender", sender), zap.Int("requested", msg.Seat), zap.Int("seat", seat))
	}
	return a.handleSyncRequest(ctx)
}

// assignSeat gives sender the requested seat when it is free, else the
// lowest free seat. It returns -1 when every seat is taken.
func (a *Adapter) assignSeat(sender string, requested int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if seat, ok := a.seats[sender]; ok && (requested < 0 || seat == requested) {
		return seat
	}
	delete(a.seats, sender)

	taken := map[int]bool{a.localSeat: true}
	for _, seat := range a.seats {
		taken[seat] = true
	}

	seat := -1
	if requested >= 0 && requested < len(models.Colors) && !taken[requested] {
		seat = requested
	} else {
		for i := range models.Colors {
			if !taken[i] {
				seat = i
				break
			}
		}
	}
	if seat >= 0 {
		a.seats[sender] = seat
	}
	return seat
}

// seatMap returns the seats of every peer, this one included
func (a *Adapter) seatMap() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]int, len(a.seats)+1)
	for peer, seat := range a.seats {
		out[peer] = seat
	}
	out[a.peerID] = a.localSeat
	return out
}

// mergeSeats takes the seat map of the seat-0 peer. The entry for this peer
// replaces the local seat; seat 0 keeps its own map.
func (a *Adapter) mergeSeats(seats map[string]int) {
	if len(seats) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.localSeat == 0 {
		return
	}
	for peer, seat := range seats {
		if peer == a.peerID {
			if a.localSeat != HotSeat && a.localSeat != seat {
				a.logger.Info("seat assigned", zap.Int("seat", seat), zap.Int("previous", a.localSeat))
				a.localSeat = seat
			}
			continue
		}
		a.seats[peer] = seat
	}
}

func (a *Adapter) updated(session *models.Session) {
	if a.onUpdate != nil && session != nil {
		a.onUpdate(session)
	}
}
