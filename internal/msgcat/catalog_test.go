package msgcat

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestDefaultCatalogRenders(t *testing.T) {
    c, err := New("")
    if err != nil { t.Fatalf("New: %v", err) }
    out, err := c.Render("checkers.no_session", map[string]any{"Prefix": "!"})
    if err != nil { t.Fatalf("Render: %v", err) }
    if !strings.Contains(out, "!체커 시작") { t.Fatalf("unexpected render: %q", out) }
    if !c.Has("pvp.lobby.created") { t.Fatalf("nested key not flattened") }
}

func TestMissingDataIsError(t *testing.T) {
    c := MustDefault()
    if _, err := c.Render("checkers.no_session", map[string]any{}); err == nil {
        t.Fatalf("expected missing key error")
    }
    if got := c.Text("checkers.no_session", map[string]any{}, "fallback"); got != "fallback" {
        t.Fatalf("Text fallback = %q", got)
    }
    if _, err := c.Render("does.not.exist", nil); err == nil {
        t.Fatalf("expected not found error")
    }
}

func TestOverrideDir(t *testing.T) {
    dir := t.TempDir()
    if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("checkers:\n  turn:\n    dark: \"까망 차례\"\n"), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    c, err := New(dir)
    if err != nil { t.Fatalf("New: %v", err) }
    out, _ := c.Render("checkers.turn.dark", nil)
    if out != "까망 차례" { t.Fatalf("override not applied: %q", out) }
    out, _ = c.Render("checkers.turn.light", nil)
    if out != "백 차례입니다." { t.Fatalf("non-overridden key changed: %q", out) }
}

func TestOverrideDuplicateKeysRejected(t *testing.T) {
    dir := t.TempDir()
    body := []byte("pvp:\n  illegal: \"x\"\n")
    _ = os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644)
    _ = os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o644)
    if _, err := New(dir); err == nil { t.Fatalf("expected duplicate key error") }
}

func TestNonStringLeafRejected(t *testing.T) {
    if _, err := parseYAMLToFlat([]byte("a:\n  b: 3\n")); err == nil {
        t.Fatalf("expected error for int leaf")
    }
    if _, err := parseYAMLToFlat([]byte("a:\n  - x\n")); err == nil {
        t.Fatalf("expected error for sequence leaf")
    }
}
