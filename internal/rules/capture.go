package rules

import (
	"github.com/KirkDiggler/ludo/internal/board"
	"github.com/KirkDiggler/ludo/internal/models"
)

// CapturesAt returns every piece of another player sitting on the cell.
// Safe cells never yield captures. Yard and finished pieces are never on a
// shared cell and are skipped.
func CapturesAt(players []*models.Player, mover int, cell board.Cell) []models.PieceRef {
	if board.IsSafeCell(cell) {
		return nil
	}

	var moverColor models.Color
	if mover >= 0 && mover < len(players) {
		moverColor = players[mover].Color
	}

	var captured []models.PieceRef
	for seat, player := range players {
		if seat == mover || player.Color == moverColor {
			continue
		}
		for slot, pos := range player.Pieces {
			if pos == models.YardPosition || pos == models.FinalPosition {
				continue
			}
			pc, ok := board.PathCell(player.Color, pos)
			if ok && pc == cell {
				captured = append(captured, models.PieceRef{Player: seat, Piece: slot})
			}
		}
	}
	return captured
}

// Occupants returns every piece on a cell, regardless of owner
func Occupants(players []*models.Player, cell board.Cell) []models.PieceRef {
	var refs []models.PieceRef
	for seat, player := range players {
		for slot, pos := range player.Pieces {
			pc, ok := board.PieceCell(player.Color, slot, pos)
			if ok && pc == cell {
				refs = append(refs, models.PieceRef{Player: seat, Piece: slot})
			}
		}
	}
	return refs
}
