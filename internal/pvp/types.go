package pvp

import (
	"strings"
	"time"
)

// ColorChoice is the challenger's requested side.
type ColorChoice string

const (
	ColorDark   ColorChoice = "dark"
	ColorLight  ColorChoice = "light"
	ColorRandom ColorChoice = "random"
)

func ParseColorChoice(s string) ColorChoice {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark", "d", "흑":
		return ColorDark
	case "light", "l", "백":
		return ColorLight
	default:
		return ColorRandom
	}
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
	StatusExpired  Status = "EXPIRED"
)

// Challenge is a direct invitation from one user to another.
type Challenge struct {
	ID             string
	OriginRoom     string
	ResolveRoom    string
	ChallengerID   string
	ChallengerName string
	TargetID       string
	TargetName     string
	Color          ColorChoice
	CreatedAt      time.Time
	Status         Status
}
