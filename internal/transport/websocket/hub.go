package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/KirkDiggler/ludo/internal/protocol"
	"github.com/KirkDiggler/ludo/internal/transport"
	gws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HubConfig holds configuration for the host side
type HubConfig struct {
	PeerID string
	Logger *zap.Logger

	// CheckOrigin overrides the upgrader origin check; nil allows all origins
	CheckOrigin func(r *http.Request) bool
}

// Hub accepts guest connections and fans envelopes out to all of them
type Hub struct {
	upgrader gws.Upgrader
	peerID   string
	logger   *zap.Logger

	mu    sync.Mutex
	conns map[*Conn]struct{}

	inbox     chan *protocol.Envelope
	closeOnce sync.Once
	done      chan struct{}
}

var _ transport.Transport = (*Hub)(nil)

// NewHub creates a hub; mount it as an http.Handler
func NewHub(cfg *HubConfig) (*Hub, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.PeerID == "" {
		return nil, errors.New("peer ID cannot be empty")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	return &Hub{
		upgrader: gws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		peerID: cfg.PeerID,
		logger: logger,
		conns:  make(map[*Conn]struct{}),
		inbox:  make(chan *protocol.Envelope, queueSize),
		done:   make(chan struct{}),
	}, nil
}

// ServeHTTP upgrades a guest connection and registers it
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "hub closed", http.StatusServiceUnavailable)
		return
	default:
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newConn(ws, h.peerID, h.logger)
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("peer connected", zap.String("remote", r.RemoteAddr))
	go h.forward(c)
}

// Peers returns the number of connected guests
func (h *Hub) Peers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// forward moves a guest's frames into the hub inbox and relays them to the
// other guests
func (h *Hub) forward(c *Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
		c.Close()
		h.logger.Info("peer disconnected")
	}()

	for {
		select {
		case env, ok := <-c.recv:
			if !ok {
				return
			}
			h.relay(c, env)
			select {
			case h.inbox <- env:
			case <-h.done:
				return
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) relay(from *Conn, env *protocol.Envelope) {
	data, err := protocol.Marshal(env)
	if err != nil {
		return
	}
	for _, c := range h.others(from) {
		if err := h.deliver(c, data); err != nil {
			h.logger.Debug("relay failed", zap.Error(err))
		}
	}
}

// deliver queues a frame for one guest. A guest that is not draining its
// queue is disconnected so it cannot hold up the others.
func (h *Hub) deliver(c *Conn, data []byte) error {
	err := c.offer(data)
	if errors.Is(err, ErrSlowPeer) {
		h.logger.Warn("dropping slow peer", zap.Int("queued", len(c.send)))
		c.Close()
	}
	return err
}

func (h *Hub) others(except *Conn) []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		if c != except {
			out = append(out, c)
		}
	}
	return out
}

// Send delivers an envelope to every guest
func (h *Hub) Send(ctx context.Context, env *protocol.Envelope) error {
	select {
	case <-h.done:
		return transport.ErrClosed
	default:
	}
	if env == nil {
		return errors.New("envelope cannot be nil")
	}

	out := *env
	out.Sender = h.peerID
	data, err := protocol.Marshal(&out)
	if err != nil {
		return err
	}

	var errs []error
	for _, c := range h.others(nil) {
		if err := h.deliver(c, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Receive returns the next envelope sent by any guest
func (h *Hub) Receive(ctx context.Context) (*protocol.Envelope, error) {
	select {
	case env := <-h.inbox:
		return env, nil
	case <-h.done:
		return nil, transport.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close disconnects every guest
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		for _, c := range h.others(nil) {
			c.Close()
		}
	})
	return nil
}
