// Package websocket connects peers directly. The host serves a Hub that
// every guest dials; the hub relays each guest's frames to the others so all
// peers see every envelope.
package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KirkDiggler/ludo/internal/protocol"
	"github.com/KirkDiggler/ludo/internal/transport"
	gws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 25 * time.Second
	maxFrameSize = 1 << 20
	queueSize    = 64
)

// Conn is one websocket peer connection. It is safe for concurrent use;
// only the write pump writes to the socket.
type Conn struct {
	ws     *gws.Conn
	peerID string
	logger *zap.Logger

	send chan []byte
	recv chan *protocol.Envelope

	closeOnce sync.Once
	done      chan struct{}
}

var _ transport.Transport = (*Conn)(nil)

// ErrSlowPeer is returned when a guest's send queue is full; the hub drops it
var ErrSlowPeer = errors.New("peer send queue is full")

// DialConfig holds configuration for a guest connection
type DialConfig struct {
	URL    string
	PeerID string
	Logger *zap.Logger
}

// Dial connects to a host hub
func Dial(ctx context.Context, cfg *DialConfig) (*Conn, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.URL == "" {
		return nil, errors.New("url cannot be empty")
	}
	if cfg.PeerID == "" {
		return nil, errors.New("peer ID cannot be empty")
	}

	ws, _, err := gws.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	return newConn(ws, cfg.PeerID, cfg.Logger), nil
}

func newConn(ws *gws.Conn, peerID string, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Conn{
		ws:     ws,
		peerID: peerID,
		logger: logger.With(zap.String("remote", ws.RemoteAddr().String())),
		send:   make(chan []byte, queueSize),
		recv:   make(chan *protocol.Envelope, queueSize),
		done:   make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()
	return c
}

// Send queues an envelope stamped with the local peer ID
func (c *Conn) Send(ctx context.Context, env *protocol.Envelope) error {
	if env == nil {
		return errors.New("envelope cannot be nil")
	}
	out := *env
	out.Sender = c.peerID
	data, err := protocol.Marshal(&out)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, data)
}

func (c *Conn) enqueue(ctx context.Context, data []byte) error {
	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return transport.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// offer queues data without waiting
func (c *Conn) offer(data []byte) error {
	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return transport.ErrClosed
	default:
		return ErrSlowPeer
	}
}

// Receive returns the next envelope from the remote side
func (c *Conn) Receive(ctx context.Context) (*protocol.Envelope, error) {
	select {
	case env, ok := <-c.recv:
		if !ok {
			return nil, transport.ErrClosed
		}
		return env, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops both pumps and closes the socket
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(gws.TextMessage, data); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(gws.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Conn) readPump() {
	defer func() {
		close(c.recv)
		c.Close()
	}()

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if gws.IsUnexpectedCloseError(err, gws.CloseGoingAway, gws.CloseNormalClosure) {
				c.logger.Warn("connection closed unexpectedly", zap.Error(err))
			}
			return
		}

		env, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		if env.Sender == c.peerID {
			continue
		}

		select {
		case c.recv <- env:
		case <-c.done:
			return
		}
	}
}
