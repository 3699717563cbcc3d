package checkersdto

import "time"

// CheckersGame is one finished game as shown in 기록 and 기보 replies.
// Captured counts are pieces each color lost; Winner is "dark" or "light".
type CheckersGame struct {
	ID          int64  `json:"id"`
	SessionUUID string `json:"session_uuid"`
	PlayerName  string `json:"player_name"`

	Winner       string   `json:"winner"`
	ResultMethod string   `json:"result_method"`
	Moves        []string `json:"moves"`
	FinalBoard   string   `json:"final_board"`

	CapturedDark  int `json:"captured_dark"`
	CapturedLight int `json:"captured_light"`

	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Duration  time.Duration `json:"duration"`
}
