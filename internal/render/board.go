// Package render draws sessions as text for chat embeds and terminals.
package render

import (
	"strings"

	"github.com/KirkDiggler/ludo/internal/board"
	"github.com/KirkDiggler/ludo/internal/models"
)

// Style selects the glyph set used for drawing
type Style int

const (
	// StyleEmoji draws one emoji per cell
	StyleEmoji Style = iota

	// StyleASCII draws two characters per cell
	StyleASCII
)

type glyphs struct {
	empty    string
	path     string
	safe     string
	yardSlot string
	yard     map[models.Color]string
	stretch  map[models.Color]string
	piece    map[models.Color]string
}

var emojiGlyphs = glyphs{
	empty:    "⬛",
	path:     "⬜",
	safe:     "⭐",
	yardSlot: "⚫",
	yard: map[models.Color]string{
		models.ColorRed:    "🟥",
		models.ColorBlue:   "🟦",
		models.ColorYellow: "🟨",
		models.ColorGreen:  "🟩",
	},
	stretch: map[models.Color]string{
		models.ColorRed:    "🟥",
		models.ColorBlue:   "🟦",
		models.ColorYellow: "🟨",
		models.ColorGreen:  "🟩",
	},
	piece: map[models.Color]string{
		models.ColorRed:    "🔴",
		models.ColorBlue:   "🔵",
		models.ColorYellow: "🟡",
		models.ColorGreen:  "🟢",
	},
}

var asciiGlyphs = glyphs{
	empty:    "  ",
	path:     ". ",
	safe:     "* ",
	yardSlot: "o ",
	yard: map[models.Color]string{
		models.ColorRed:    "  ",
		models.ColorBlue:   "  ",
		models.ColorYellow: "  ",
		models.ColorGreen:  "  ",
	},
	stretch: map[models.Color]string{
		models.ColorRed:    "r ",
		models.ColorBlue:   "b ",
		models.ColorYellow: "y ",
		models.ColorGreen:  "g ",
	},
	piece: map[models.Color]string{
		models.ColorRed:    "R",
		models.ColorBlue:   "B",
		models.ColorYellow: "Y",
		models.ColorGreen:  "G",
	},
}

// background is the board without pieces, computed once per style
var background = map[Style][board.Size][board.Size]string{
	StyleEmoji: buildBackground(&emojiGlyphs),
	StyleASCII: buildBackground(&asciiGlyphs),
}

func glyphsFor(style Style) *glyphs {
	if style == StyleASCII {
		return &asciiGlyphs
	}
	return &emojiGlyphs
}

func band(i int) int {
	switch {
	case i < 6:
		return 0
	case i > 8:
		return 2
	default:
		return 1
	}
}

// cornerColor returns the color owning the 6x6 corner that contains a cell
func cornerColor(c board.Cell) (models.Color, bool) {
	rb, cb := band(c.Row), band(c.Col)
	if rb == 1 || cb == 1 {
		return "", false
	}
	for _, color := range models.Colors {
		yc, _ := board.YardCell(color, 0)
		if band(yc.Row) == rb && band(yc.Col) == cb {
			return color, true
		}
	}
	return "", false
}

func buildBackground(g *glyphs) [board.Size][board.Size]string {
	var grid [board.Size][board.Size]string
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			grid[r][c] = g.empty
			if color, ok := cornerColor(board.Cell{Row: r, Col: c}); ok {
				grid[r][c] = g.yard[color]
			}
		}
	}

	for _, color := range models.Colors {
		for index, cell := range board.Path(color) {
			if board.IsHomeStretch(index + 1) {
				grid[cell.Row][cell.Col] = g.stretch[color]
			} else {
				grid[cell.Row][cell.Col] = g.path
			}
		}
		for slot := 0; slot < models.PiecesPerPlayer; slot++ {
			cell, _ := board.YardCell(color, slot)
			grid[cell.Row][cell.Col] = g.yardSlot
		}
	}

	for _, cell := range board.SafeCells() {
		grid[cell.Row][cell.Col] = g.safe
	}
	return grid
}

type occupant struct {
	color models.Color
	count int
	mixed bool
}

// Board draws the grid with every piece at its current cell
func Board(session *models.Session, style Style) string {
	g := glyphsFor(style)
	grid := background[style]

	occupants := make(map[board.Cell]*occupant)
	if session != nil {
		for _, p := range session.Players {
			for slot, pos := range p.Pieces {
				cell, ok := board.PieceCell(p.Color, slot, pos)
				if !ok {
					continue
				}
				o, exists := occupants[cell]
				if !exists {
					occupants[cell] = &occupant{color: p.Color, count: 1}
					continue
				}
				o.count++
				if o.color != p.Color {
					o.mixed = true
				}
			}
		}
	}

	for cell, o := range occupants {
		grid[cell.Row][cell.Col] = pieceGlyph(g, style, o)
	}

	var sb strings.Builder
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			sb.WriteString(grid[r][c])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func pieceGlyph(g *glyphs, style Style, o *occupant) string {
	if style != StyleASCII {
		return g.piece[o.color]
	}
	switch {
	case o.mixed:
		return g.piece[o.color] + "+"
	case o.count > 1:
		return g.piece[o.color] + string(rune('0'+o.count))
	default:
		return g.piece[o.color] + " "
	}
}
