package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/KirkDiggler/ludo/internal/history"
	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/KirkDiggler/ludo/internal/rules"
)

// Name returns the display name of a seat, falling back to its color
func Name(session *models.Session, seat int) string {
	if p := session.Player(seat); p != nil {
		if p.Name != "" {
			return p.Name
		}
		return p.Color.DisplayName()
	}
	return fmt.Sprintf("Seat %d", seat+1)
}

// Marker returns the piece glyph of a seat
func Marker(session *models.Session, seat int, style Style) string {
	p := session.Player(seat)
	if p == nil {
		return "?"
	}
	return strings.TrimSpace(glyphsFor(style).piece[p.Color])
}

// Status describes the phase, every seat and the pending turn
func Status(session *models.Session, style Style) string {
	if session == nil {
		return "No game."
	}

	var sb strings.Builder
	switch {
	case session.Phase.IsSetup():
		fmt.Fprintf(&sb, "Waiting to start a %d player game.\n", session.SelectedPlayerCount)
		return sb.String()
	case session.Phase.IsFinished() && session.Winner != nil:
		fmt.Fprintf(&sb, "%s %s won the game!\n", Marker(session, *session.Winner, style), Name(session, *session.Winner))
	}

	for _, p := range session.Players {
		yard := p.CountAt(models.YardPosition)
		home := p.CountAt(models.FinalPosition)
		turn := ""
		if session.Phase.IsInProgress() && p.Seat == session.Turn.ActivePlayer {
			turn = " <"
		}
		fmt.Fprintf(&sb, "%s %s: yard %d, board %d, home %d%s\n",
			Marker(session, p.Seat, style), Name(session, p.Seat),
			yard, models.PiecesPerPlayer-yard-home, home, turn)
	}

	if session.Phase.IsInProgress() {
		name := Name(session, session.Turn.ActivePlayer)
		switch {
		case session.Turn.MoveRequired:
			fmt.Fprintf(&sb, "%s rolled %d and must move a piece.\n", name, session.Turn.DiceValue)
		case session.Turn.DiceValue < 0:
			fmt.Fprintf(&sb, "Last roll %d had no move. %s to roll.\n", -session.Turn.DiceValue, name)
		default:
			fmt.Fprintf(&sb, "%s to roll.\n", name)
		}
	}
	return sb.String()
}

// Describe renders one history record as a line of text
func Describe(session *models.Session, a *models.Action) string {
	actor := Name(session, a.Actor)
	switch a.Kind {
	case models.ActionGameStarted:
		return fmt.Sprintf("#%d game started with %d players", a.Seq, a.PlayerCount)
	case models.ActionDiceRolled:
		return fmt.Sprintf("#%d %s rolled %d", a.Seq, actor, a.Dice)
	case models.ActionPieceMoved:
		return fmt.Sprintf("#%d %s moved piece %d from %d to %d", a.Seq, actor, a.Piece+1, a.From, a.To)
	case models.ActionPieceCaptured:
		return fmt.Sprintf("#%d %s captured piece %d of %s", a.Seq, actor, a.Piece+1, Name(session, a.Player))
	case models.ActionTurnSwitched:
		return fmt.Sprintf("#%d turn passes to %s", a.Seq, Name(session, a.Player))
	case models.ActionGameWon:
		return fmt.Sprintf("#%d %s won", a.Seq, actor)
	case models.ActionGameRestarted:
		return fmt.Sprintf("#%d game restarted", a.Seq)
	default:
		return fmt.Sprintf("#%d %s", a.Seq, a.Kind)
	}
}

// Timeline describes the last n history records, oldest first
func Timeline(session *models.Session, n int) []string {
	if session == nil {
		return nil
	}
	recent := history.Recent(session.History, n)
	lines := make([]string, 0, len(recent))
	for i := range recent {
		lines = append(lines, Describe(session, &recent[i]))
	}
	return lines
}

// Captures describes the last n captures, oldest first
func Captures(session *models.Session, n int) []string {
	if session == nil {
		return nil
	}
	captures := history.Recent(history.Filter(session.History, models.ActionPieceCaptured), n)
	lines := make([]string, 0, len(captures))
	for i := range captures {
		lines = append(lines, Describe(session, &captures[i]))
	}
	return lines
}

// Trail lists the cells a piece passes through as row,col pairs
func Trail(color models.Color, from, to int) string {
	cells := rules.Steps(color, from, to)
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprintf("%d,%d", c.Row, c.Col)
	}
	return strings.Join(parts, " > ")
}

// Stats renders a game summary as one line per seat
func Stats(stats *history.Stats) string {
	if stats == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Rolls %d, moves %d, captures %d", stats.TotalRolls, stats.TotalMoves, stats.Captures)
	if stats.Duration > 0 {
		fmt.Fprintf(&sb, ", %s played", stats.Duration.Round(time.Second))
	}
	sb.WriteByte('\n')

	for _, p := range stats.Players {
		name := p.Name
		if name == "" {
			name = p.Color.DisplayName()
		}
		fmt.Fprintf(&sb, "%s: rolls %d (sixes %d), moves %d, passes %d, captured %d, lost %d, home %d\n",
			name, p.Rolls, p.SixesRolled, p.Moves, p.Passes, p.CapturesMade, p.CapturesSuffered, p.Finished)
	}
	return sb.String()
}
