package messaging

import (
	"github.com/KirkDiggler/ludo/internal/engine"
	"github.com/KirkDiggler/ludo/internal/models"
	"go.uber.org/zap"
)

// MessageTone represents the tone of a message
type MessageTone string

const (
	// ToneNeutral states what happened
	ToneNeutral MessageTone = "neutral"

	// ToneFunny is a humorous tone
	ToneFunny MessageTone = "funny"

	// ToneSarcastic is a sarcastic tone
	ToneSarcastic MessageTone = "sarcastic"
)

// GetEventMessageInput contains parameters for describing an event
type GetEventMessageInput struct {
	Event engine.Event

	// Game is the session after the event, used for names and colors
	Game *models.Session

	// PreferredTone is the preferred tone for the message (optional)
	PreferredTone MessageTone
}

// GetEventMessageOutput contains a rendered event
type GetEventMessageOutput struct {
	Title   string
	Message string
	Tone    MessageTone
}

// GetJoinGameMessageInput contains parameters for getting a join game message
type GetJoinGameMessageInput struct {
	PlayerName string
	Color      models.Color

	// AlreadyJoined indicates if the player already held a seat
	AlreadyJoined bool

	PreferredTone MessageTone
}

// GetJoinGameMessageOutput contains the result of getting a join game message
type GetJoinGameMessageOutput struct {
	Message string
	Tone    MessageTone
}

// GetErrorMessageInput contains parameters for getting an error message
type GetErrorMessageInput struct {
	// Err is the rejection reason or service error
	Err error

	PreferredTone MessageTone
}

// GetErrorMessageOutput contains the result of getting an error message
type GetErrorMessageOutput struct {
	Message string
	Tone    MessageTone
}

// PublishInput is one rendered event ready for delivery
type PublishInput struct {
	GameID    string
	ChannelID string
	Kind      engine.EventKind
	Title     string
	Message   string
}

// ServiceConfig contains configuration for the messaging service
type ServiceConfig struct {
	// Seed makes phrasing deterministic; zero seeds from the clock
	Seed int64

	// DefaultTone is used when an input has no preferred tone
	DefaultTone MessageTone
}

// NotifierConfig contains configuration for the event notifier
type NotifierConfig struct {
	Messaging Service
	Publisher Publisher

	// Tone overrides the messaging default for published events
	Tone MessageTone

	Logger *zap.Logger
}
