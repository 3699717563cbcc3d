package config

import (
	"fmt"
	"net"
	"time"
)

// SSHConfig drives cmd/checkers-ssh, which serves the terminal board to
// remote players.
type SSHConfig struct {
	Addr        string
	HostKeyFile string
	// TermBinary는 세션마다 pty 위에서 실행할 checkers-term 경로.
	TermBinary  string
	ArchiveRoot string
	Password    string
	IdleTimeout time.Duration
	MaxSessions int
}

func LoadSSH() (*SSHConfig, error) {
	cfg := &SSHConfig{
		Addr:        ":2222",
		TermBinary:  "checkers-term",
		IdleTimeout: 10 * time.Minute,
		MaxSessions: 32,
	}
	if v := env("SSH_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := env("SSH_TERM_BINARY"); v != "" {
		cfg.TermBinary = v
	}
	cfg.HostKeyFile = env("SSH_HOST_KEY")
	cfg.ArchiveRoot = env("SSH_ARCHIVE_ROOT")
	cfg.Password = env("SSH_PASSWORD")

	idle := int(cfg.IdleTimeout / time.Second)
	positiveInt("SSH_IDLE_TIMEOUT", &idle)
	cfg.IdleTimeout = time.Duration(idle) * time.Second
	positiveInt("SSH_MAX_SESSIONS", &cfg.MaxSessions)

	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return nil, fmt.Errorf("SSH_ADDR: %w", err)
	}
	return cfg, nil
}
