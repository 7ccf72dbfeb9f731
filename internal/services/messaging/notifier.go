package messaging

import (
	"context"
	"errors"

	"github.com/KirkDiggler/ludo/internal/services/game"
	"go.uber.org/zap"
)

// Notifier turns game events into messages and hands them to a Publisher
type Notifier struct {
	messaging Service
	publisher Publisher
	tone      MessageTone
	logger    *zap.Logger
}

// NewNotifier creates a notifier for the game service
func NewNotifier(cfg *NotifierConfig) (*Notifier, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Messaging == nil {
		return nil, errors.New("messaging service cannot be nil")
	}
	if cfg.Publisher == nil {
		return nil, errors.New("publisher cannot be nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Notifier{
		messaging: cfg.Messaging,
		publisher: cfg.Publisher,
		tone:      cfg.Tone,
		logger:    logger,
	}, nil
}

// Notify implements game.Notifier. Delivery failures are logged and dropped.
func (n *Notifier) Notify(ctx context.Context, input *game.NotifyInput) {
	if input == nil || input.Game == nil {
		return
	}

	msg, err := n.messaging.GetEventMessage(ctx, &GetEventMessageInput{
		Event:         input.Event,
		Game:          input.Game,
		PreferredTone: n.tone,
	})
	if err != nil {
		n.logger.Warn("failed to render event", zap.String("kind", string(input.Event.Kind)), zap.Error(err))
		return
	}

	err = n.publisher.Publish(ctx, &PublishInput{
		GameID:    input.Game.ID,
		ChannelID: input.Game.ChannelID,
		Kind:      input.Event.Kind,
		Title:     msg.Title,
		Message:   msg.Message,
	})
	if err != nil {
		n.logger.Warn("failed to publish event",
			zap.String("game_id", input.Game.ID),
			zap.String("kind", string(input.Event.Kind)),
			zap.Error(err),
		)
	}
}

var _ game.Notifier = (*Notifier)(nil)
