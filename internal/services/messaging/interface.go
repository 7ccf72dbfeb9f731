package messaging

import "context"

// Service is the interface for the messaging service
type Service interface {
	// GetEventMessage returns a line of table talk for a game event
	GetEventMessage(ctx context.Context, input *GetEventMessageInput) (*GetEventMessageOutput, error)

	// GetJoinGameMessage returns a message for when a player takes a seat
	GetJoinGameMessage(ctx context.Context, input *GetJoinGameMessageInput) (*GetJoinGameMessageOutput, error)

	// GetErrorMessage returns a user-friendly message for a rejected intent
	GetErrorMessage(ctx context.Context, input *GetErrorMessageInput) (*GetErrorMessageOutput, error)
}

// Publisher delivers rendered event messages to wherever the game is watched
type Publisher interface {
	Publish(ctx context.Context, input *PublishInput) error
}
