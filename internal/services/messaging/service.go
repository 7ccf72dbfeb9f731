package messaging

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/KirkDiggler/ludo/internal/engine"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/rules"
	"github.com/KirkDiggler/ludo/internal/services/game"
)

// service implements the Service interface
type service struct {
	// Random number generator for selecting random messages
	rand *rand.Rand

	defaultTone MessageTone
}

// NewService creates a new messaging service
func NewService(config *ServiceConfig) (Service, error) {
	if config == nil {
		config = &ServiceConfig{}
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	tone := config.DefaultTone
	if tone == "" {
		tone = ToneFunny
	}

	return &service{
		rand:        rand.New(rand.NewSource(seed)),
		defaultTone: tone,
	}, nil
}

func (s *service) tone(preferred MessageTone) MessageTone {
	if preferred == "" {
		return s.defaultTone
	}
	return preferred
}

// pick returns the neutral line for the neutral tone and a random flavor line otherwise
func (s *service) pick(tone MessageTone, neutral string, flavor []string) string {
	if tone == ToneNeutral || len(flavor) == 0 {
		return neutral
	}
	return flavor[s.rand.Intn(len(flavor))]
}

// playerName returns the display name of a seat
func playerName(session *models.Session, seat int) string {
	if session != nil {
		if p := session.Player(seat); p != nil {
			if p.Name != "" {
				return p.Name
			}
			return p.Color.DisplayName()
		}
	}
	return fmt.Sprintf("Seat %d", seat+1)
}

// GetEventMessage returns a line of table talk for a game event
func (s *service) GetEventMessage(ctx context.Context, input *GetEventMessageInput) (*GetEventMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	tone := s.tone(input.PreferredTone)
	event := input.Event
	action := event.Action
	name := playerName(input.Game, event.Seat)

	var title, neutral string
	var flavor []string

	switch event.Kind {
	case engine.EventGameStarted:
		title = "Game On!"
		neutral = fmt.Sprintf("A %d player game has started. %s rolls first.", action.PlayerCount, name)
		flavor = []string{
			fmt.Sprintf("%d players, %d nervous pieces, one winner. %s, you're up!", action.PlayerCount, action.PlayerCount*models.PiecesPerPlayer, name),
			fmt.Sprintf("Pieces are in the yard and the die is warm. %s goes first!", name),
			fmt.Sprintf("Let the backstabbing begin! %s opens the game.", name),
		}

	case engine.EventDiceRolled:
		value := action.Dice
		title = fmt.Sprintf("%s rolled a %d", name, value)
		neutral = fmt.Sprintf("%s rolled a %d.", name, value)
		if value == rules.EntryRoll {
			flavor = []string{
				fmt.Sprintf("SIX! %s is feeling dangerous.", name),
				fmt.Sprintf("%s rolls a 6. Somebody in the yard just woke up.", name),
				fmt.Sprintf("A 6 for %s! The board trembles.", name),
			}
		} else {
			flavor = []string{
				fmt.Sprintf("%s rolls a %d. Could be worse.", name, value),
				fmt.Sprintf("A %d for %s. The dice gods shrug.", value, name),
				fmt.Sprintf("%s tosses a %d. Choose wisely.", name, value),
			}
		}

	case engine.EventNoLegalMove:
		title = "No Legal Move"
		neutral = fmt.Sprintf("%s rolled a %d and has no legal move.", name, action.Dice)
		flavor = []string{
			fmt.Sprintf("%s rolled a %d and can't go anywhere. Tough break.", name, action.Dice),
			fmt.Sprintf("Nothing to do with that %d, %s. Next!", action.Dice, name),
			fmt.Sprintf("%s stares at a %d and the locked yard. Pass.", name, action.Dice),
		}

	case engine.EventSixesForfeit:
		title = "Three Sixes!"
		neutral = fmt.Sprintf("%s rolled three sixes in a row and loses the turn.", name)
		flavor = []string{
			fmt.Sprintf("Three sixes, %s? That's just greedy. Turn over.", name),
			fmt.Sprintf("The dice gods giveth and the dice gods taketh. %s forfeits.", name),
		}

	case engine.EventPieceMoved:
		title = fmt.Sprintf("%s moved piece %d", name, action.Piece+1)
		switch {
		case action.From == models.YardPosition:
			neutral = fmt.Sprintf("%s brought piece %d onto the board.", name, action.Piece+1)
			flavor = []string{
				fmt.Sprintf("Piece %d of %s escapes the yard!", action.Piece+1, name),
				fmt.Sprintf("%s sends a fresh piece into the fray.", name),
			}
		case action.To == models.FinalPosition:
			neutral = fmt.Sprintf("%s brought piece %d home.", name, action.Piece+1)
			flavor = []string{
				fmt.Sprintf("Piece %d of %s is home and safe!", action.Piece+1, name),
				fmt.Sprintf("%s parks one at the center. Feet up.", name),
			}
		default:
			neutral = fmt.Sprintf("%s moved piece %d from %d to %d.", name, action.Piece+1, action.From, action.To)
			flavor = []string{
				fmt.Sprintf("%s shuffles piece %d along to %d.", name, action.Piece+1, action.To),
				fmt.Sprintf("Piece %d of %s marches %d steps.", action.Piece+1, name, action.To-action.From),
			}
		}

	case engine.EventPieceCaptured:
		attacker := playerName(input.Game, action.Actor)
		title = "Captured!"
		neutral = fmt.Sprintf("%s captured a piece of %s.", attacker, name)
		flavor = []string{
			fmt.Sprintf("%s sends %s back to the yard. Brutal.", attacker, name),
			fmt.Sprintf("Ouch! %s just got eaten by %s.", name, attacker),
			fmt.Sprintf("%s, your piece is going home the long way. Thanks, %s.", name, attacker),
		}

	case engine.EventTurnSwitched:
		title = fmt.Sprintf("%s's turn", name)
		neutral = fmt.Sprintf("It is %s's turn.", name)
		flavor = []string{
			fmt.Sprintf("%s, the die is yours.", name),
			fmt.Sprintf("Over to you, %s.", name),
		}

	case engine.EventGameWon:
		title = fmt.Sprintf("%s wins!", name)
		neutral = fmt.Sprintf("%s brought every piece home and wins the game.", name)
		flavor = []string{
			fmt.Sprintf("All four home! %s is the ludo champion!", name),
			fmt.Sprintf("%s wins! Everyone else, back to the yard with your feelings.", name),
			fmt.Sprintf("And that's the game. Bow down to %s.", name),
		}

	case engine.EventGameRestarted:
		title = "Game Restarted"
		neutral = "The game was reset to setup."
		flavor = []string{
			"Fresh board, fresh grudges.",
			"Everyone back to the yard. Again.",
		}

	default:
		return nil, fmt.Errorf("unknown event kind: %s", event.Kind)
	}

	return &GetEventMessageOutput{
		Title:   title,
		Message: s.pick(tone, neutral, flavor),
		Tone:    tone,
	}, nil
}

// GetJoinGameMessage returns a message for when a player takes a seat
func (s *service) GetJoinGameMessage(ctx context.Context, input *GetJoinGameMessageInput) (*GetJoinGameMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	tone := s.tone(input.PreferredTone)
	color := input.Color.DisplayName()

	var neutral string
	var messages []string
	if input.AlreadyJoined {
		neutral = fmt.Sprintf("%s already plays %s.", input.PlayerName, color)
		messages = []string{
			fmt.Sprintf("You're already %s, %s. One color per customer.", color, input.PlayerName),
			fmt.Sprintf("Patience, %s! You already have a seat.", input.PlayerName),
		}
	} else {
		neutral = fmt.Sprintf("%s joined as %s.", input.PlayerName, color)
		messages = []string{
			fmt.Sprintf("%s takes %s. Welcome to the board!", input.PlayerName, color),
			fmt.Sprintf("A new challenger! %s plays %s.", input.PlayerName, color),
			fmt.Sprintf("%s grabs the %s pieces and cracks their knuckles.", input.PlayerName, color),
		}
	}

	return &GetJoinGameMessageOutput{
		Message: s.pick(tone, neutral, messages),
		Tone:    tone,
	}, nil
}

// GetErrorMessage returns a user-friendly message for a rejected intent
func (s *service) GetErrorMessage(ctx context.Context, input *GetErrorMessageInput) (*GetErrorMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	tone := s.tone(input.PreferredTone)

	var neutral string
	var messages []string
	switch {
	case input.Err == nil:
		neutral = "Something went wrong."
	case errors.Is(input.Err, engine.ErrNotYourTurn):
		neutral = "It is not your turn."
		messages = []string{
			"Hold your horses, it's not your turn!",
			"Nice try. Wait your turn.",
		}
	case errors.Is(input.Err, engine.ErrMoveRequired):
		neutral = "Move a piece before rolling again."
		messages = []string{
			"You already rolled. Pick a piece!",
			"One roll at a time. Move something first.",
		}
	case errors.Is(input.Err, engine.ErrNoMoveRequired):
		neutral = "Roll the die before moving."
		messages = []string{"Roll first, then move. That's the whole game."}
	case errors.Is(input.Err, engine.ErrPieceNotMovable):
		neutral = "That piece cannot move with this roll."
		messages = []string{
			"That piece isn't going anywhere with that roll.",
			"Pick another piece, that one's stuck.",
		}
	case errors.Is(input.Err, engine.ErrGameNotInProgress):
		neutral = "The game is not in progress."
		messages = []string{"There's no game running. Start one first!"}
	case errors.Is(input.Err, game.ErrGameNotFound):
		neutral = "No game found in this channel."
		messages = []string{"No game here. Use /ludo new to start one."}
	default:
		neutral = input.Err.Error()
	}

	return &GetErrorMessageOutput{
		Message: s.pick(tone, neutral, messages),
		Tone:    tone,
	}, nil
}
