package models

import "time"

// Result records the outcome of a finished channel game
type Result struct {
	// ID is unique per finished game; a restarted game gets a new one
	ID        string `json:"id"`
	GameID    string `json:"game_id"`
	ChannelID string `json:"channel_id"`

	// WinnerID is the Discord user ID of the winning seat
	WinnerID   string `json:"winner_id"`
	WinnerName string `json:"winner_name"`
	Color      Color  `json:"color"`

	Players    int       `json:"players"`
	Rolls      int       `json:"rolls"`
	Captures   int       `json:"captures"`
	FinishedAt time.Time `json:"finished_at"`
}

// LeaderboardEntry is the win count of one user in a channel
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
}
