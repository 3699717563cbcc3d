package domain

import "time"

// CheckersGame is an archived, finished hot-seat game.
type CheckersGame struct {
	ID            int64
	SessionUUID   string
	PlayerHash    string
	RoomHash      string
	PlayerName    string
	Winner        string // dark | light
	ResultMethod  string // resignation | blocked
	Moves         []string
	FinalBoard    string
	CapturedDark  int
	CapturedLight int
	StartedAt     time.Time
	EndedAt       time.Time
	Duration      time.Duration
}

// CheckersProfile aggregates a player's finished games within one room.
type CheckersProfile struct {
	PlayerHash    string
	RoomHash      string
	GamesPlayed   int
	DarkWins      int
	LightWins     int
	Resignations  int
	TotalCaptures int
	LastPlayedAt  time.Time
	UpdatedAt     time.Time
	CreatedAt     time.Time
}
