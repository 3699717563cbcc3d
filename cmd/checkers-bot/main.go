package main

import (
    "context"
    "log"
    "os"
    "os/signal"
    "syscall"
    "time"

    "go.uber.org/zap"

    "github.com/park285/Cheese-Checkers-bot/internal/checkersbuilder"
    appcfg "github.com/park285/Cheese-Checkers-bot/internal/config"
    "github.com/park285/Cheese-Checkers-bot/internal/irisfast"
    "github.com/park285/Cheese-Checkers-bot/internal/obslog"
)

func main() {
    cfg, err := appcfg.Load()
    if err != nil {
        log.Fatalf("config error: %v", err)
    }
    if err := obslog.InitFromEnv(); err != nil {
        log.Printf("logger init failed, using default: %v", err)
    }
    defer obslog.Sync()
    logger := obslog.Named("bot")

    client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(cfg.Headers))

    ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
    ws.SetHeaderProvider(cfg.Headers)
    ws.OnStateChange(func(state irisfast.WebSocketState) {
        logger.Info("ws_state", zap.String("state", state.String()))
    })

    deps, err := checkersbuilder.New(cfg, obslog.Named("checkers"))
    if err != nil {
        logger.Fatal("checkers init error", zap.Error(err))
    }

    out := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, obslog.Named("egress"))
    b := newBot(cfg, deps, out, logger)

    // handler stays non-blocking so the WS read loop keeps draining
    ws.OnMessage(b.dispatch)

    cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    if err := ws.Connect(cctx); err != nil {
        cancel()
        logger.Fatal("ws connect error", zap.Error(err))
    }
    cancel()
    logger.Info("bot_started",
        zap.String("prefix", cfg.BotPrefix),
        zap.String("egress", cfg.EgressMode),
        zap.Int("allowed_rooms", len(cfg.AllowedRooms)),
    )

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
    <-sigCh

    logger.Info("bot_stopping")
    _ = ws.Close(context.Background())
    if err := deps.Close(); err != nil {
        logger.Warn("deps close", zap.Error(err))
    }
}
