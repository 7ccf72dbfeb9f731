package discord

import (
	"context"
	"errors"

	"github.com/KirkDiggler/ludo/internal/engine"
	"github.com/KirkDiggler/ludo/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
)

// MessageSender is the part of the Discord session the publisher uses
type MessageSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// announced are the events worth a channel message of their own; the rest
// already show on the board embed
var announced = map[engine.EventKind]int{
	engine.EventGameStarted:   0x2ecc71,
	engine.EventPieceCaptured: 0xe67e22,
	engine.EventSixesForfeit:  0xe74c3c,
	engine.EventGameWon:       0xf1c40f,
}

// Publisher posts game events to the channel the game is played in
type Publisher struct {
	sender MessageSender
}

// NewPublisher creates a publisher
func NewPublisher(sender MessageSender) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("sender cannot be nil")
	}
	return &Publisher{sender: sender}, nil
}

// Publish implements messaging.Publisher
func (p *Publisher) Publish(ctx context.Context, input *messaging.PublishInput) error {
	if input == nil {
		return errors.New("input cannot be nil")
	}

	color, ok := announced[input.Kind]
	if !ok || input.ChannelID == "" {
		return nil
	}

	_, err := p.sender.ChannelMessageSendEmbed(input.ChannelID, &discordgo.MessageEmbed{
		Title:       input.Title,
		Description: input.Message,
		Color:       color,
	})
	return err
}

var _ messaging.Publisher = (*Publisher)(nil)
