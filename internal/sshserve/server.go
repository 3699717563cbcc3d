//go:build !windows

// Package sshserve runs the terminal checkers board for remote players: each
// SSH session gets its own checkers-term process on a pseudo-terminal.
package sshserve

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/creack/pty"
	petname "github.com/dustinkirkland/golang-petname"
	"github.com/gliderlabs/ssh"
	"go.uber.org/zap"
)

const nickLimit = 16

type Options struct {
	Addr        string
	HostKeyFile string
	// Command is the board binary followed by fixed arguments.
	Command     []string
	ArchiveRoot string
	Password    string
	IdleTimeout time.Duration
	MaxSessions int
}

type Server struct {
	opts   Options
	srv    *ssh.Server
	logger *zap.Logger
	active atomic.Int32
}

func New(opts Options, logger *zap.Logger) (*Server, error) {
	if len(opts.Command) == 0 || strings.TrimSpace(opts.Command[0]) == "" {
		return nil, errors.New("sshserve: board command is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{opts: opts, logger: logger}
	s.srv = &ssh.Server{
		Addr:        opts.Addr,
		IdleTimeout: opts.IdleTimeout,
		Handler:     s.handle,
	}
	if opts.Password != "" {
		s.srv.PasswordHandler = func(_ ssh.Context, password string) bool {
			return subtle.ConstantTimeCompare([]byte(password), []byte(opts.Password)) == 1
		}
	}
	if opts.HostKeyFile != "" {
		if err := s.srv.SetOption(ssh.HostKeyFile(opts.HostKeyFile)); err != nil {
			return nil, fmt.Errorf("sshserve: host key: %w", err)
		}
	}
	return s, nil
}

func (s *Server) ListenAndServe() error { return s.srv.ListenAndServe() }

// Serve accepts sessions on l until Shutdown.
func (s *Server) Serve(l net.Listener) error { return s.srv.Serve(l) }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// Active is the number of running board processes.
func (s *Server) Active() int { return int(s.active.Load()) }

func (s *Server) handle(sess ssh.Session) {
	nick := Nickname(sess.User())
	log := s.logger.With(zap.String("nick", nick), zap.String("remote", sess.RemoteAddr().String()))

	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		_, _ = io.WriteString(sess, "checkers needs an interactive terminal; connect with ssh -t\n")
		_ = sess.Exit(1)
		return
	}
	n := s.active.Add(1)
	defer s.active.Add(-1)
	if limit := s.opts.MaxSessions; limit > 0 && int(n) > limit {
		_, _ = io.WriteString(sess, "server is full, try again later\n")
		_ = sess.Exit(1)
		return
	}

	ctx, cancel := context.WithCancel(sess.Context())
	defer cancel()
	cmd := exec.CommandContext(ctx, s.opts.Command[0], s.args(nick)...)
	cmd.Env = append(os.Environ(), "TERM="+ptyReq.Term)

	f, err := pty.StartWithSize(cmd, winsize(ptyReq.Window))
	if err != nil {
		log.Error("ssh_board_start", zap.Error(err))
		_, _ = io.WriteString(sess, "failed to start the board\n")
		_ = sess.Exit(1)
		return
	}
	defer f.Close()
	log.Info("ssh_session_start", zap.String("term", ptyReq.Term))

	go func() {
		for win := range winCh {
			_ = pty.Setsize(f, winsize(win))
		}
	}()
	go func() { _, _ = io.Copy(f, sess) }()
	_, _ = io.Copy(sess, f)

	code := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = 1
		}
	}
	log.Info("ssh_session_end", zap.Int("exit", code))
	_ = sess.Exit(code)
}

// args names the remote user Dark and a generated guest Light. Each nick
// gets its own archive directory.
func (s *Server) args(nick string) []string {
	args := append([]string(nil), s.opts.Command[1:]...)
	args = append(args, "-dark", nick, "-light", "guest-"+petname.Generate(1, ""))
	if s.opts.ArchiveRoot != "" {
		args = append(args, "-archive", filepath.Join(s.opts.ArchiveRoot, nick))
	} else {
		args = append(args, "-no-archive")
	}
	return args
}

func winsize(w ssh.Window) *pty.Winsize {
	return &pty.Winsize{Rows: uint16(w.Height), Cols: uint16(w.Width)}
}

// Nickname reduces an SSH user name to letters, digits, '-' and '_'. An
// empty result becomes a random petname.
func Nickname(user string) string {
	var b strings.Builder
	for _, r := range user {
		if b.Len() >= nickLimit {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return petname.Generate(2, "-")
	}
	return b.String()
}
