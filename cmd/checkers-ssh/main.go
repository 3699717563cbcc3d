//go:build !windows

// checkers-ssh serves the hot-seat terminal board over SSH. Every connection
// runs its own checkers-term on a pty; players connect with `ssh -t host -p 2222`.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/gliderlabs/ssh"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/config"
	"github.com/park285/Cheese-Checkers-bot/internal/obslog"
	"github.com/park285/Cheese-Checkers-bot/internal/sshserve"
)

func main() {
	cfg, err := config.LoadSSH()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
	}
	defer obslog.Sync()
	logger := obslog.Named("ssh")

	binary, err := exec.LookPath(cfg.TermBinary)
	if err != nil {
		logger.Fatal("term_binary", zap.String("path", cfg.TermBinary), zap.Error(err))
	}

	srv, err := sshserve.New(sshserve.Options{
		Addr:        cfg.Addr,
		HostKeyFile: cfg.HostKeyFile,
		Command:     []string{binary},
		ArchiveRoot: cfg.ArchiveRoot,
		Password:    cfg.Password,
		IdleTimeout: cfg.IdleTimeout,
		MaxSessions: cfg.MaxSessions,
	}, logger)
	if err != nil {
		logger.Fatal("ssh_server", zap.Error(err))
	}

	go func() {
		logger.Info("ssh_listen", zap.String("addr", cfg.Addr), zap.String("binary", binary))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("ssh_serve", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("ssh_shutdown", zap.Int("active", srv.Active()), zap.Error(err))
	}
}
