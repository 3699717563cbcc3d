package checkersdto

import "time"

type CheckersProfile struct {
	PlayerHash    string
	RoomHash      string
	GamesPlayed   int
	DarkWins      int
	LightWins     int
	Resignations  int
	TotalCaptures int
	LastPlayedAt  time.Time
}
