package irisfast

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Egress delivers replies to a room.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

const (
	EgressHTTP = "http"
	EgressWS   = "ws"
	EgressAuto = "auto"
)

// NewEgress picks the reply transport. "auto" writes to the socket while it
// is connected and falls back to HTTP once per reply. Unknown modes use HTTP.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	viaHTTP := func(ctx context.Context, req ReplyRequest) error {
		if c == nil {
			return errors.New("http egress not available")
		}
		return c.Reply(ctx, req)
	}
	viaWS := func(ctx context.Context, req ReplyRequest) error {
		if ws == nil {
			return errors.New("ws egress not available")
		}
		if dryrun {
			logger.Info("ws_egress_dryrun", zap.String("type", req.Type), zap.String("room", req.Room))
			return nil
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
		}
		return ws.Write(ctx, &req)
	}

	switch mode {
	case EgressWS:
		return egressFunc(viaWS)
	case EgressAuto:
		return egressFunc(func(ctx context.Context, req ReplyRequest) error {
			if ws.connected() {
				err := viaWS(ctx, req)
				if err == nil {
					return nil
				}
				logger.Warn("egress_fallback", zap.String("type", req.Type), zap.String("room", req.Room), zap.Error(err))
			}
			return viaHTTP(ctx, req)
		})
	case EgressHTTP:
	default:
		logger.Warn("egress_mode_unknown", zap.String("mode", mode))
	}
	return egressFunc(viaHTTP)
}

type egressFunc func(ctx context.Context, req ReplyRequest) error

func (f egressFunc) SendText(ctx context.Context, room, message string) error {
	return f(ctx, ReplyRequest{Type: "text", Room: room, Data: message})
}

func (f egressFunc) SendImage(ctx context.Context, room, imageBase64 string) error {
	return f(ctx, ReplyRequest{Type: "image", Room: room, Data: imageBase64})
}
