// Package history reads the append-only action log of a session.
package history

import (
	"time"

	"github.com/KirkDiggler/ludo/internal/models"
)

// Since returns the records with a sequence number greater than seq
func Since(actions []models.Action, seq int) []models.Action {
	for i, a := range actions {
		if a.Seq > seq {
			out := make([]models.Action, len(actions)-i)
			copy(out, actions[i:])
			return out
		}
	}
	return []models.Action{}
}

// Recent returns the last n records, oldest first
func Recent(actions []models.Action, n int) []models.Action {
	if n <= 0 {
		return []models.Action{}
	}
	if n > len(actions) {
		n = len(actions)
	}
	out := make([]models.Action, n)
	copy(out, actions[len(actions)-n:])
	return out
}

// Filter returns the records of the given kinds, in order
func Filter(actions []models.Action, kinds ...models.ActionKind) []models.Action {
	out := []models.Action{}
	for _, a := range actions {
		for _, k := range kinds {
			if a.Kind == k {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// PlayerStats are the per-seat counters of a game
type PlayerStats struct {
	Seat  int
	Color models.Color
	Name  string

	Rolls            int
	SixesRolled      int
	Moves            int
	Passes           int
	CapturesMade     int
	CapturesSuffered int

	InYard   int
	Finished int
}

// Stats summarizes a session history
type Stats struct {
	GameID     string
	Duration   time.Duration
	TotalRolls int
	TotalMoves int
	Captures   int
	Players    []*PlayerStats

	// ConsecutiveSixes is the running six streak of the active player
	ConsecutiveSixes int

	Winner *int
}

// Summarize computes statistics for a session. Duration runs from the first
// record to the win, or to the newest record while the game is running.
func Summarize(s *models.Session) *Stats {
	if s == nil {
		return &Stats{}
	}

	stats := &Stats{
		GameID:           s.ID,
		Players:          make([]*PlayerStats, len(s.Players)),
		ConsecutiveSixes: s.Turn.ConsecutiveSixes,
	}
	if s.Winner != nil {
		w := *s.Winner
		stats.Winner = &w
	}

	for i, p := range s.Players {
		stats.Players[i] = &PlayerStats{
			Seat:     p.Seat,
			Color:    p.Color,
			Name:     p.Name,
			InYard:   p.CountAt(models.YardPosition),
			Finished: p.CountAt(models.FinalPosition),
		}
	}
	seat := func(n int) *PlayerStats {
		if n < 0 || n >= len(stats.Players) {
			return nil
		}
		return stats.Players[n]
	}

	var prev *models.Action
	for i := range s.History {
		a := &s.History[i]
		switch a.Kind {
		case models.ActionDiceRolled:
			stats.TotalRolls++
			if ps := seat(a.Actor); ps != nil {
				ps.Rolls++
				if a.Dice == 6 {
					ps.SixesRolled++
				}
			}
		case models.ActionPieceMoved:
			stats.TotalMoves++
			if ps := seat(a.Actor); ps != nil {
				ps.Moves++
			}
		case models.ActionPieceCaptured:
			stats.Captures++
			if ps := seat(a.Actor); ps != nil {
				ps.CapturesMade++
			}
			if ps := seat(a.Player); ps != nil {
				ps.CapturesSuffered++
			}
		case models.ActionTurnSwitched:
			// a switch straight after a roll is a pass without a move
			if prev != nil && prev.Kind == models.ActionDiceRolled {
				if ps := seat(a.Actor); ps != nil {
					ps.Passes++
				}
			}
		}
		prev = a
	}

	if len(s.History) > 0 {
		first := s.History[0].Timestamp
		last := s.History[len(s.History)-1].Timestamp
		if won := Filter(s.History, models.ActionGameWon); len(won) > 0 {
			last = won[0].Timestamp
		}
		stats.Duration = last.Sub(first)
	}
	return stats
}
