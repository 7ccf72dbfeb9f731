package engine

// GameError is a custom error type for rejected transitions
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrGameNotInProgress  GameError = "game is not in progress"
	ErrGameInProgress     GameError = "game is already in progress"
	ErrInvalidPlayerCount GameError = "player count must be 2, 3 or 4"
	ErrNotYourTurn        GameError = "not your turn"
	ErrMoveRequired       GameError = "a piece must be moved before rolling again"
	ErrNoMoveRequired     GameError = "no move is pending"
	ErrPieceNotMovable    GameError = "piece cannot move with this roll"
	ErrInvalidDiceValue   GameError = "dice value must be between 1 and 6"
	ErrUnknownCommand     GameError = "unknown command"
	ErrUnknownAction      GameError = "unknown action kind"
	ErrDerivedAction      GameError = "action is derived and cannot be replayed"
	ErrMalformedAction    GameError = "action is missing required fields"
	ErrNilSession         GameError = "session cannot be nil"
)
