package checkersdto

// Score counts pieces lost by each color.
type Score struct {
	CapturedDark  int
	CapturedLight int
}

type SessionState struct {
	SessionUUID  string
	PlayerName   string
	Moves        []string
	Turn         string
	Selected     string
	Destinations []string
	LastMove     string
	BoardImage   []byte
	MoveCount    int
	Score        Score
	DarkLeft     int
	LightLeft    int
	Finished     bool
	Winner       string
	Method       string
	GameID       int64
	Profile      *CheckersProfile
}

// MoveSummary describes one applied move. Victim is empty unless the move
// captured.
type MoveSummary struct {
	State    *SessionState
	Move     string
	Mover    string
	Victim   string
	Finished bool
	GameID   int64
	Profile  *CheckersProfile
}
