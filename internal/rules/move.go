// Package rules holds the pure ludo rule functions: move legality, captures
// and move previews. Nothing here mutates its inputs.
package rules

import (
	"github.com/KirkDiggler/ludo/internal/board"
	"github.com/KirkDiggler/ludo/internal/models"
)

// EntryRoll is the die value needed to leave the yard
const EntryRoll = 6

// LegalDestination returns where a piece at position lands with the given
// die value. A roll that would overshoot the final position is illegal; there
// is no bounce-back.
func LegalDestination(position, dice int) (int, bool) {
	if dice < 1 {
		return 0, false
	}

	switch {
	case position == models.YardPosition:
		if dice == EntryRoll {
			return 1, true
		}
		return 0, false
	case position >= 1 && position < models.FinalPosition:
		dest := position + dice
		if dest > models.FinalPosition {
			return 0, false
		}
		return dest, true
	default:
		return 0, false
	}
}

// MovablePieces returns every piece slot of the player that has a legal
// destination for the die value, in slot order
func MovablePieces(player *models.Player, dice int) []int {
	if player == nil {
		return nil
	}

	var slots []int
	for slot, pos := range player.Pieces {
		if _, ok := LegalDestination(pos, dice); ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

// CanMove reports whether a single piece slot may move
func CanMove(player *models.Player, slot, dice int) bool {
	if player == nil || slot < 0 || slot >= models.PiecesPerPlayer {
		return false
	}
	_, ok := LegalDestination(player.Pieces[slot], dice)
	return ok
}

// Move describes the outcome of moving a piece without applying it
type Move struct {
	Player   int
	Piece    int
	From     int
	To       int
	Cell     board.Cell
	Captures []models.PieceRef
}

// PreviewMove computes the destination and would-be captures of a move
func PreviewMove(players []*models.Player, mover, slot, dice int) (*Move, bool) {
	if mover < 0 || mover >= len(players) {
		return nil, false
	}
	player := players[mover]
	if !CanMove(player, slot, dice) {
		return nil, false
	}

	from := player.Pieces[slot]
	to, _ := LegalDestination(from, dice)

	move := &Move{
		Player: mover,
		Piece:  slot,
		From:   from,
		To:     to,
	}

	cell, ok := board.PathCell(player.Color, to)
	if ok {
		move.Cell = cell
		move.Captures = CapturesAt(players, mover, cell)
	}
	return move, true
}

// Steps returns the cells a piece passes through from one position to
// another, excluding the start and including the destination. It is only
// meant for animating a move; the authoritative position changes at once.
func Steps(color models.Color, from, to int) []board.Cell {
	if to <= from {
		return nil
	}

	start := from + 1
	if from == models.YardPosition {
		start = to
	}

	cells := make([]board.Cell, 0, to-start+1)
	for idx := start; idx <= to; idx++ {
		if cell, ok := board.PathCell(color, idx); ok {
			cells = append(cells, cell)
		}
	}
	return cells
}
