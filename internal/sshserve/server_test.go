//go:build !windows

package sshserve

import (
	"context"
	"errors"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	gossh "golang.org/x/crypto/ssh"
)

func startServer(t *testing.T, opts Options) string {
	t.Helper()
	srv, err := New(opts, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return l.Addr().String()
}

func dial(t *testing.T, addr, user string) *gossh.Session {
	t.Helper()
	client, err := gossh.Dial("tcp", addr, &gossh.ClientConfig{
		User:            user,
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return sess
}

func TestRejectsNonInteractive(t *testing.T) {
	addr := startServer(t, Options{Command: []string{"/bin/echo"}})
	out, err := dial(t, addr, "alice").CombinedOutput("")
	var exitErr *gossh.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitStatus() != 1 {
		t.Fatalf("exit = %v", err)
	}
	if !strings.Contains(string(out), "interactive terminal") {
		t.Fatalf("output = %q", out)
	}
}

func TestRunsBoardOnPty(t *testing.T) {
	echo, err := exec.LookPath("echo")
	if err != nil {
		t.Skip("echo not available")
	}
	addr := startServer(t, Options{Command: []string{echo, "board"}, ArchiveRoot: "/srv/archive"})
	sess := dial(t, addr, "al!ce")
	if err := sess.RequestPty("xterm", 24, 80, gossh.TerminalModes{}); err != nil {
		t.Fatalf("pty: %v", err)
	}
	out, err := sess.Output("")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := string(out)
	if !strings.Contains(got, "board -dark alce -light guest-") || !strings.Contains(got, "-archive /srv/archive/alce") {
		t.Fatalf("board args = %q", got)
	}
}

func TestNickname(t *testing.T) {
	if got := Nickname("  Bob_the-3rd  "); got != "Bob_the-3rd" {
		t.Fatalf("Nickname = %q", got)
	}
	if got := Nickname(strings.Repeat("x", 40)); len(got) != nickLimit {
		t.Fatalf("long nick = %q", got)
	}
	if got := Nickname("체커"); got == "" || strings.ContainsAny(got, "체커") {
		t.Fatalf("fallback nick = %q", got)
	}
}

func TestNewRequiresCommand(t *testing.T) {
	if _, err := New(Options{}, nil); err == nil {
		t.Fatalf("expected error without a command")
	}
}
