package checkerspresenter

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

// Sender is the outbound half of the chat transport.
type Sender interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

// Presenter posts a reply text followed by the board image, if any.
type Presenter struct {
	out Sender
}

func NewPresenter(out Sender) *Presenter {
	return &Presenter{out: out}
}

func (p *Presenter) Board(ctx context.Context, room, message string, state *checkersdto.SessionState) error {
	if p == nil || p.out == nil {
		return nil
	}
	if strings.TrimSpace(message) != "" {
		if err := p.out.SendText(ctx, room, message); err != nil {
			return err
		}
	}
	if state == nil || len(state.BoardImage) == 0 {
		return nil
	}
	return p.out.SendImage(ctx, room, base64.StdEncoding.EncodeToString(state.BoardImage))
}

// Broadcast posts the same board once to each distinct room. A failing room
// does not stop the others.
func (p *Presenter) Broadcast(ctx context.Context, rooms []string, message string, state *checkersdto.SessionState) error {
	var errs []error
	seen := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		room = strings.TrimSpace(room)
		if room == "" || seen[room] {
			continue
		}
		seen[room] = true
		errs = append(errs, p.Board(ctx, room, message, state))
	}
	return errors.Join(errs...)
}
