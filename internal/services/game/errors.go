package game

// GameError is a custom error type for game-related errors
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrGameNotFound      GameError = "game not found"
	ErrGameAlreadyExists GameError = "game already exists for this channel"
	ErrInvalidInput      GameError = "invalid input"
	ErrOutOfSequence     GameError = "action is out of sequence"
	ErrInvalidSnapshot   GameError = "snapshot is not a valid session"
	ErrStaleSnapshot     GameError = "snapshot is behind local history"
	ErrNilConfig         GameError = "config cannot be nil"
	ErrNilGameRepo       GameError = "game repository cannot be nil"
	ErrNilDiceRoller     GameError = "dice roller cannot be nil"
	ErrNilClock          GameError = "clock cannot be nil"
	ErrNilUUIDGenerator  GameError = "UUID generator cannot be nil"
)
