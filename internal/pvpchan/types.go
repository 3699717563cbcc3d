package pvpchan

import (
    "errors"
    "strings"
    "time"
)

// ChannelState represents the lifecycle of a PvP lobby channel.
type ChannelState string

const (
    StateLobby    ChannelState = "LOBBY"
    StateActive   ChannelState = "ACTIVE"
    StateFinished ChannelState = "FINISHED"
    StateAborted  ChannelState = "ABORTED"
)

// ColorChoice is the creator's side preference.
type ColorChoice string

const (
    ColorDark   ColorChoice = "dark"
    ColorLight  ColorChoice = "light"
    ColorRandom ColorChoice = "random"
)

// ParseColorChoice accepts English and Korean spellings; anything else is random.
func ParseColorChoice(s string) ColorChoice {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "dark", "d", "흑", "black", "b":
        return ColorDark
    case "light", "l", "백", "white", "w":
        return ColorLight
    }
    return ColorRandom
}

// ChannelMeta is the JSON document stored under ch:<code>.
type ChannelMeta struct {
    ID           string       `json:"id"`
    State        ChannelState `json:"state"`
    CreatedAt    time.Time    `json:"created_at"`

    CreatorID    string      `json:"creator_id"`
    CreatorName  string      `json:"creator_name"`
    CreatorRoom  string      `json:"creator_room"`
    CreatorColor ColorChoice `json:"creator_color"`

    DarkID       string `json:"dark_id,omitempty"`
    DarkName     string `json:"dark_name,omitempty"`
    LightID      string `json:"light_id,omitempty"`
    LightName    string `json:"light_name,omitempty"`

    GameID       string `json:"game_id,omitempty"`
}

type MakeResult struct {
    Code string
    Meta *ChannelMeta
}

type JoinResult struct {
    Started bool
    GameID  string
    Meta    *ChannelMeta
}

var (
    ErrInvalidArgs      = errors.New("pvpchan: invalid arguments")
    ErrChannelGone      = errors.New("pvpchan: channel not found or expired")
    ErrChannelActive    = errors.New("pvpchan: channel already started")
    ErrFull             = errors.New("pvpchan: channel already has two players")
    ErrPlayerBusyInRoom = errors.New("pvpchan: player has an unfinished game in this room")
    ErrCreatorHasLobby  = errors.New("pvpchan: user already has an open lobby")
    ErrNoLobby          = errors.New("pvpchan: user has no open lobby")
)
