// Command irischeck probes an Iris endpoint before the bot is deployed: it
// fetches /config, optionally posts a probe message, and watches the WebSocket
// for a short window.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/irisfast"
	"github.com/park285/Cheese-Checkers-bot/internal/obslog"
)

func main() {
	room := flag.String("room", "", "room id to send a probe message to")
	mode := flag.String("egress", "http", "egress mode for the probe (http|ws|auto)")
	watch := flag.Duration("watch", 10*time.Second, "how long to observe WS traffic")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Printf("logger init failed, using default: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.Named("irischeck")

	baseURL := strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	wsURL := strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	if baseURL == "" {
		logger.Fatal("IRIS_BASE_URL is required")
	}

	headers := func() map[string]string {
		m := map[string]string{}
		for env, header := range map[string]string{
			"X_USER_ID":    "X-User-Id",
			"X_USER_EMAIL": "X-User-Email",
			"X_SESSION_ID": "X-Session-Id",
		} {
			if v := strings.TrimSpace(os.Getenv(env)); v != "" {
				m[header] = v
			}
		}
		return m
	}

	client := irisfast.NewClient(baseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg, err := client.GetConfig(ctx)
	if err != nil {
		logger.Warn("config_error", zap.Error(err))
	} else {
		logger.Info("config_ok",
			zap.Int("port", cfg.Port),
			zap.Int("polling", cfg.PollingSpeed),
			zap.Int("rate", cfg.MessageRate),
			zap.String("endpoint", cfg.WebserverEndpoint),
		)
	}

	var ws *irisfast.WebSocket
	if wsURL != "" {
		ws = irisfast.NewWebSocket(wsURL, 5, time.Second)
		ws.SetHeaderProvider(headers)
		ws.OnStateChange(func(state irisfast.WebSocketState) {
			logger.Info("ws_state", zap.String("state", state.String()))
		})
		ws.OnMessage(func(msg *irisfast.Message) {
			logger.Info("ws_message",
				zap.String("room", msg.Room),
				zap.String("from", msg.SenderName()),
				zap.String("user_id", msg.UserID()),
				zap.String("text", msg.Msg),
			)
		})
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := ws.Connect(cctx)
		ccancel()
		if err != nil {
			logger.Warn("ws_connect_error", zap.Error(err))
			ws = nil
		}
	} else {
		logger.Info("IRIS_WS_URL not set; skipping WS check")
	}

	if *room != "" {
		out := irisfast.NewEgress(*mode, false, client, ws, logger)
		pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := out.SendText(pctx, *room, "⛀ irischeck probe "+time.Now().Format(time.RFC3339)); err != nil {
			logger.Warn("probe_failed", zap.String("room", *room), zap.String("egress", *mode), zap.Error(err))
		} else {
			logger.Info("probe_sent", zap.String("room", *room), zap.String("egress", *mode))
		}
		pcancel()
	}

	if ws == nil {
		return
	}
	t := time.NewTimer(*watch)
	<-t.C
	_ = ws.Close(context.Background())
}
