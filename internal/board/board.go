// Package board defines the fixed 15x15 ludo board topology: per-color paths,
// yard sub-cells and safe cells. The tables are built once at package init
// and never mutated; lookups return copies.
package board

import (
	"github.com/KirkDiggler/ludo/internal/models"
)

const (
	// Size is the width and height of the grid
	Size = 15

	// SharedPathLength is the number of shared cells a piece travels
	SharedPathLength = 51

	// HomeStretchStart is the first path index private to a color
	HomeStretchStart = 52

	// SafeStep is the path index of the mid-path safe cell of each color
	SafeStep = 9
)

// Cell is an absolute grid coordinate
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Center is the middle of the board
var Center = Cell{Row: 7, Col: 7}

// redPath is the red route: 51 shared cells clockwise from the red entry,
// then the 6-cell home stretch ending next to the center.
var redPath = []Cell{
	{6, 1}, {6, 2}, {6, 3}, {6, 4}, {6, 5},
	{5, 6}, {4, 6}, {3, 6}, {2, 6}, {1, 6}, {0, 6},
	{0, 7}, {0, 8},
	{1, 8}, {2, 8}, {3, 8}, {4, 8}, {5, 8},
	{6, 9}, {6, 10}, {6, 11}, {6, 12}, {6, 13}, {6, 14},
	{7, 14}, {8, 14},
	{8, 13}, {8, 12}, {8, 11}, {8, 10}, {8, 9},
	{9, 8}, {10, 8}, {11, 8}, {12, 8}, {13, 8}, {14, 8},
	{14, 7}, {14, 6},
	{13, 6}, {12, 6}, {11, 6}, {10, 6}, {9, 6},
	{8, 5}, {8, 4}, {8, 3}, {8, 2}, {8, 1}, {8, 0},
	{7, 0},
	{7, 1}, {7, 2}, {7, 3}, {7, 4}, {7, 5}, {7, 6},
}

// redYard holds the red yard sub-cells indexed by piece slot
var redYard = []Cell{{1, 1}, {4, 1}, {1, 4}, {4, 4}}

var (
	paths     = make(map[models.Color][]Cell, len(models.Colors))
	yards     = make(map[models.Color][]Cell, len(models.Colors))
	safeCells = make(map[Cell]bool, 2*len(models.Colors))
)

func init() {
	path, yard := redPath, redYard
	for _, color := range models.Colors {
		paths[color] = path
		yards[color] = yard
		safeCells[path[0]] = true
		safeCells[path[SafeStep-1]] = true

		path = rotateAll(path)
		yard = rotateAll(yard)
	}
}

// rotate turns a cell a quarter turn clockwise around the center
func rotate(c Cell) Cell {
	return Cell{Row: Size - 1 - c.Col, Col: c.Row}
}

func rotateAll(cells []Cell) []Cell {
	out := make([]Cell, len(cells))
	for i, c := range cells {
		out[i] = rotate(c)
	}
	return out
}

// PathCell returns the grid cell for a path index in [1, 57]. Index 0 (the
// yard) has no single cell and reports false.
func PathCell(color models.Color, index int) (Cell, bool) {
	path, ok := paths[color]
	if !ok || index < 1 || index > len(path) {
		return Cell{}, false
	}
	return path[index-1], true
}

// YardCell returns the yard sub-cell of a piece slot
func YardCell(color models.Color, slot int) (Cell, bool) {
	yard, ok := yards[color]
	if !ok || slot < 0 || slot >= len(yard) {
		return Cell{}, false
	}
	return yard[slot], true
}

// PieceCell returns where a piece is drawn: its yard sub-cell at position 0,
// its path cell otherwise
func PieceCell(color models.Color, slot, position int) (Cell, bool) {
	if position == models.YardPosition {
		return YardCell(color, slot)
	}
	return PathCell(color, position)
}

// IsSafeCell reports whether captures are forbidden on a cell
func IsSafeCell(c Cell) bool {
	return safeCells[c]
}

// SafeCells returns every safe cell
func SafeCells() []Cell {
	out := make([]Cell, 0, len(safeCells))
	for _, color := range models.Colors {
		out = append(out, paths[color][0], paths[color][SafeStep-1])
	}
	return out
}

// Path returns a copy of a color's full route
func Path(color models.Color) []Cell {
	path, ok := paths[color]
	if !ok {
		return nil
	}
	out := make([]Cell, len(path))
	copy(out, path)
	return out
}

// IsHomeStretch reports whether a path index is private to its color
func IsHomeStretch(index int) bool {
	return index >= HomeStretchStart && index <= models.FinalPosition
}

// Entry returns the first path cell of a color
func Entry(color models.Color) (Cell, bool) {
	return PathCell(color, 1)
}

// YardOwner returns the color whose yard contains the cell
func YardOwner(c Cell) (models.Color, int, bool) {
	for _, color := range models.Colors {
		for slot, yc := range yards[color] {
			if yc == c {
				return color, slot, true
			}
		}
	}
	return "", 0, false
}
