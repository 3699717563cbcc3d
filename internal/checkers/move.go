package checkers

import (
	"fmt"
	"strings"
)

type MoveKind uint8

const (
	Simple MoveKind = iota + 1
	Capture
)

func (k MoveKind) String() string {
	switch k {
	case Simple:
		return "simple"
	case Capture:
		return "capture"
	}
	return "unknown"
}

// Move is one diagonal step or one single jump. Captured is NoSquare for
// simple moves.
type Move struct {
	Kind     MoveKind
	From     Square
	To       Square
	Captured Square
}

func (m Move) IsCapture() bool { return m.Kind == Capture }

// String renders "b3-c4" for a step and "b3xd5" for a jump.
func (m Move) String() string {
	sep := "-"
	if m.Kind == Capture {
		sep = "x"
	}
	return m.From.String() + sep + m.To.String()
}

// ParseMove reads "b3-c4", "b3xd5", "b3 c4" or "b3c4". Only the squares are
// parsed; the kind is resolved against the board by the caller.
func ParseMove(raw string) (from, to Square, err error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.NewReplacer("-", " ", "x", " ", ":", " ", ">", " ").Replace(v)
	parts := strings.Fields(v)
	if len(parts) == 1 && len(parts[0]) == 4 {
		parts = []string{parts[0][:2], parts[0][2:]}
	}
	if len(parts) != 2 {
		return NoSquare, NoSquare, fmt.Errorf("%w: %q", ErrBadNotation, raw)
	}
	if from, err = ParseSquare(parts[0]); err != nil {
		return NoSquare, NoSquare, err
	}
	if to, err = ParseSquare(parts[1]); err != nil {
		return NoSquare, NoSquare, err
	}
	return from, to, nil
}
