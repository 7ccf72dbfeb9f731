// Package redis relays peer envelopes over Redis Pub/Sub. Every peer of a
// game subscribes to the same channel and ignores its own messages.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KirkDiggler/ludo/internal/protocol"
	"github.com/KirkDiggler/ludo/internal/transport"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "ludo:peer:"

// Config holds configuration for the Redis relay
type Config struct {
	RedisClient *goredis.Client
	GameID      string
	PeerID      string
	Logger      *zap.Logger
}

// Transport is a transport.Transport backed by a Redis channel
type Transport struct {
	client  *goredis.Client
	channel string
	peerID  string
	logger  *zap.Logger

	pubsub *goredis.PubSub
	msgs   <-chan *goredis.Message

	closeOnce sync.Once
	closed    chan struct{}
}

var _ transport.Transport = (*Transport)(nil)

// ChannelName returns the Pub/Sub channel of a game
func ChannelName(gameID string) string {
	return channelPrefix + gameID
}

// New subscribes to the game channel and returns once the subscription is live
func New(ctx context.Context, cfg *Config) (*Transport, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if cfg.GameID == "" {
		return nil, errors.New("game ID cannot be empty")
	}
	if cfg.PeerID == "" {
		return nil, errors.New("peer ID cannot be empty")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	channel := ChannelName(cfg.GameID)
	pubsub := cfg.RedisClient.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	return &Transport{
		client:  cfg.RedisClient,
		channel: channel,
		peerID:  cfg.PeerID,
		logger:  logger.With(zap.String("channel", channel), zap.String("peer_id", cfg.PeerID)),
		pubsub:  pubsub,
		msgs:    pubsub.Channel(),
		closed:  make(chan struct{}),
	}, nil
}

// Send publishes an envelope to every subscriber of the game
func (t *Transport) Send(ctx context.Context, env *protocol.Envelope) error {
	select {
	case <-t.closed:
		return transport.ErrClosed
	default:
	}
	if env == nil {
		return errors.New("envelope cannot be nil")
	}

	out := *env
	out.Sender = t.peerID
	data, err := protocol.Marshal(&out)
	if err != nil {
		return err
	}

	if err := t.client.Publish(ctx, t.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", t.channel, err)
	}
	return nil
}

// Receive returns the next envelope published by another peer. Frames that
// fail to decode are dropped.
func (t *Transport) Receive(ctx context.Context) (*protocol.Envelope, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.closed:
			return nil, transport.ErrClosed
		case msg, ok := <-t.msgs:
			if !ok {
				return nil, transport.ErrClosed
			}
			env, err := protocol.Decode([]byte(msg.Payload))
			if err != nil {
				t.logger.Warn("dropping malformed frame", zap.Error(err))
				continue
			}
			if env.Sender == t.peerID {
				continue
			}
			return env, nil
		}
	}
}

// Close unsubscribes from the game channel
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		err = t.pubsub.Close()
	})
	return err
}
