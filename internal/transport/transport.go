// Package transport delivers protocol envelopes between peers. Delivery is
// FIFO per peer; validation and ordering of game actions is left to the caller.
package transport

import (
	"context"
	"errors"

	"github.com/KirkDiggler/ludo/internal/protocol"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_transport.go github.com/KirkDiggler/ludo/internal/transport Transport

// ErrClosed is returned once a transport has been closed
var ErrClosed = errors.New("transport closed")

// Transport moves envelopes to and from remote peers
type Transport interface {
	// Send delivers an envelope to every remote peer
	Send(ctx context.Context, env *protocol.Envelope) error

	// Receive blocks until an envelope from a remote peer arrives
	Receive(ctx context.Context) (*protocol.Envelope, error)

	// Close releases the underlying connection
	Close() error
}
