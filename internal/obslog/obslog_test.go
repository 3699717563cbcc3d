package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_FORMAT", "JSON")
	opts := OptionsFromEnv()
	if opts.Console || opts.File != "" || opts.Format != "json" || opts.Level != "debug" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestBuildWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "checkers.log")
	logger, err := Build(Options{Level: "info", File: path, Format: "json"})
	if err != nil { t.Fatalf("Build: %v", err) }
	logger.Info("checkers_test_entry")
	_ = logger.Sync()
	raw, err := os.ReadFile(path)
	if err != nil { t.Fatalf("read log: %v", err) }
	if !strings.Contains(string(raw), "checkers_test_entry") {
		t.Fatalf("log file missing entry: %s", raw)
	}
}

func TestParseLevelFallback(t *testing.T) {
	if parseLevel("nonsense") != zapcore.InfoLevel { t.Fatalf("expected info fallback") }
	if parseLevel(" WARN ") != zapcore.WarnLevel { t.Fatalf("expected warn") }
}
