package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	RedisURL    string
	DatabaseURL string
	// ArchiveDir는 DATABASE_URL이 없을 때 쓰는 badger 기보 저장소 경로.
	ArchiveDir string

	// EgressMode는 http | ws | auto.
	EgressMode   string
	EgressDryRun bool

	MaxConcurrentGames int
	AllowedRooms       []string
	MessagesDir        string

	CheckersSessionTTLSec int
	CheckersHistoryLimit  int
	PvPGameTTLSec         int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EgressMode:            "http",
		MaxConcurrentGames:    200,
		CheckersSessionTTLSec: 3600,
		CheckersHistoryLimit:  10,
		PvPGameTTLSec:         86400,
	}

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	cfg.BotPrefix = env("BOT_PREFIX")

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")

	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.MessagesDir = env("MESSAGES_DIR")
	cfg.ArchiveDir = env("CHECKERS_ARCHIVE_DIR")

	if v := strings.ToLower(env("EGRESS_MODE")); v != "" {
		switch v {
		case "http", "ws", "auto":
			cfg.EgressMode = v
		default:
			return nil, errors.New("EGRESS_MODE must be http, ws or auto")
		}
	}
	if v := env("EGRESS_DRYRUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EgressDryRun = b
		}
	}

	cfg.AllowedRooms = splitList(env("ALLOWED_ROOMS"))
	if len(cfg.AllowedRooms) == 0 {
		cfg.AllowedRooms = splitList(env("CHECKERS_ALLOWED_ROOMS"))
	}

	positiveInt("MAX_CONCURRENT_GAMES", &cfg.MaxConcurrentGames)
	positiveInt("CHECKERS_SESSION_TTL", &cfg.CheckersSessionTTLSec)
	positiveInt("CHECKERS_HISTORY_LIMIT", &cfg.CheckersHistoryLimit)
	positiveInt("PVP_GAME_TTL", &cfg.PvPGameTTLSec)

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// Headers는 Iris 요청에 붙일 인증 헤더.
func (c *AppConfig) Headers() map[string]string {
	h := map[string]string{}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

// RoomAllowed는 허용 목록이 비어 있으면 모든 방을 허용.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func positiveInt(key string, dst *int) {
	if v := env(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
