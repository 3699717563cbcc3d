package pvpcheckers

import (
    "errors"
    "time"
)

// Color identifies a side in a PvP match. Dark moves first.
type Color string

const (
    Dark  Color = "dark"
    Light Color = "light"
)

// Status represents a PvP game lifecycle state.
type Status string

const (
    StatusActive   Status = "ACTIVE"
    StatusFinished Status = "FINISHED"
    StatusResigned Status = "RESIGNED"
)

// Outcome values recorded on a finished game.
const (
    OutcomeBlocked = "blocked"
    OutcomeResign  = "resign"
)

// Game is the persisted state of a PvP match. Board is the 64-char text
// encoding of the position after Moves.
type Game struct {
    ID            string    `json:"id"`
    Board         string    `json:"board"`
    Moves         []string  `json:"moves"`
    Turn          Color     `json:"turn"`
    Status        Status    `json:"status"`
    DarkID        string    `json:"dark_id"`
    DarkName      string    `json:"dark_name"`
    LightID       string    `json:"light_id"`
    LightName     string    `json:"light_name"`
    OriginRoom    string    `json:"origin_room"`
    ResolveRoom   string    `json:"resolve_room"`
    CapturedDark  int       `json:"captured_dark"`
    CapturedLight int       `json:"captured_light"`
    CreatedAt     time.Time `json:"created_at"`
    UpdatedAt     time.Time `json:"updated_at"`
    Winner        string    `json:"winner,omitempty"`
    Outcome       string    `json:"outcome,omitempty"`
}

// InRoom reports whether room is one of the game's bound rooms.
func (g *Game) InRoom(room string) bool {
    return g.OriginRoom == room || g.ResolveRoom == room
}

// NameOf returns the display name of the participant with userID.
func (g *Game) NameOf(userID string) string {
    switch userID {
    case g.DarkID:
        return g.DarkName
    case g.LightID:
        return g.LightName
    }
    return ""
}

// MoverName is the display name of the side to move.
func (g *Game) MoverName() string {
    if g.Turn == Light { return g.LightName }
    return g.DarkName
}

var (
    ErrNotInitialized = errors.New("pvp manager not initialized")
    ErrNotInGame      = errors.New("user not in game")
    ErrNotInRoom      = errors.New("game not in room")
    ErrGameGone       = errors.New("game not found")
    ErrNoLongerActive = errors.New("game no longer active")
    errNotYourTurn    = errors.New("not_your_turn")
    errIllegalMove    = errors.New("illegal_move")
    errBadInput       = errors.New("bad_input")
)
