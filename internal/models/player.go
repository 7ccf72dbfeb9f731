package models

// Color identifies a player's pieces and path on the board
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
)

// Colors lists every color in board rotation order
var Colors = []Color{ColorRed, ColorBlue, ColorYellow, ColorGreen}

// PiecesPerPlayer is the number of pieces each player owns
const PiecesPerPlayer = 4

// Position bounds shared by every color
const (
	// YardPosition is a piece that has not entered the path yet
	YardPosition = 0

	// FinalPosition is a retired piece at the center
	FinalPosition = 57
)

// seatColors maps a player count to its fixed color assignment
var seatColors = map[int][]Color{
	2: {ColorRed, ColorYellow},
	3: {ColorRed, ColorBlue, ColorYellow},
	4: {ColorRed, ColorBlue, ColorYellow, ColorGreen},
}

// SeatColors returns the color assignment for a player count, or nil when
// the count is not between 2 and 4
func SeatColors(playerCount int) []Color {
	colors, ok := seatColors[playerCount]
	if !ok {
		return nil
	}
	out := make([]Color, len(colors))
	copy(out, colors)
	return out
}

// DisplayName returns the default display name for a color
func (c Color) DisplayName() string {
	switch c {
	case ColorRed:
		return "Red"
	case ColorBlue:
		return "Blue"
	case ColorYellow:
		return "Yellow"
	case ColorGreen:
		return "Green"
	default:
		return string(c)
	}
}

// Player represents a seat in a ludo game
type Player struct {
	// Seat is the 0-based ordinal of the player
	Seat int `json:"seat"`

	// Color determines the player's path on the board
	Color Color `json:"color"`

	// Name is the display name of the player
	Name string `json:"name"`

	// Pieces holds the path position of each piece slot
	Pieces [PiecesPerPlayer]int `json:"pieces"`
}

// HasWon reports whether every piece reached the final position
func (p *Player) HasWon() bool {
	for _, pos := range p.Pieces {
		if pos != FinalPosition {
			return false
		}
	}
	return true
}

// CountAt returns how many pieces sit at the given position
func (p *Player) CountAt(position int) int {
	n := 0
	for _, pos := range p.Pieces {
		if pos == position {
			n++
		}
	}
	return n
}

// PieceRef addresses a single piece of a player
type PieceRef struct {
	Player int `json:"player"`
	Piece  int `json:"piece"`
}
