package pvp

import (
    "errors"
    "testing"
    "time"
)

func TestChallengeAcceptFlow(t *testing.T) {
    m := NewManager()
    ch, err := m.CreateChallenge("roomA", "u1", "Alice", "u2", "Bob", ParseColorChoice("흑"))
    if err != nil { t.Fatalf("CreateChallenge: %v", err) }
    if ch.Status != StatusPending || ch.Color != ColorDark || ch.ID == "" { t.Fatalf("challenge: %+v", ch) }

    if _, err := m.CreateChallenge("roomA", "u3", "C", "u2", "Bob", ColorRandom); !errors.Is(err, ErrAlreadyPending) {
        t.Fatalf("expected ErrAlreadyPending, got %v", err)
    }
    if p := m.Pending("u2"); p == nil || p.ID != ch.ID { t.Fatalf("Pending: %+v", p) }

    acc, err := m.Accept("u2", "roomB")
    if err != nil || acc.Status != StatusAccepted || acc.ResolveRoom != "roomB" { t.Fatalf("Accept: %+v %v", acc, err) }
    if _, err := m.Accept("u2", "roomB"); !errors.Is(err, ErrNoPendingForUser) { t.Fatalf("double accept: %v", err) }
}

func TestChallengeDeclineAndValidation(t *testing.T) {
    m := NewManager()
    if _, err := m.CreateChallenge("roomA", "u1", "", "u1", "", ColorRandom); !errors.Is(err, ErrSelfChallenge) {
        t.Fatalf("expected ErrSelfChallenge, got %v", err)
    }
    if _, err := m.CreateChallenge("", "u1", "", "u2", "", ColorRandom); !errors.Is(err, ErrInvalidArgs) {
        t.Fatalf("expected ErrInvalidArgs, got %v", err)
    }
    _, _ = m.CreateChallenge("roomA", "u1", "", "u2", "", ColorRandom)
    dec, err := m.Decline("u2", "roomA")
    if err != nil || dec.Status != StatusDeclined { t.Fatalf("Decline: %+v %v", dec, err) }
    if m.Pending("u2") != nil { t.Fatalf("declined challenge still pending") }
}

func TestChallengeExpires(t *testing.T) {
    m := NewManager()
    clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
    m.now = func() time.Time { return clock }
    m.SetTTL(time.Minute)
    if _, err := m.CreateChallenge("roomA", "u1", "", "u2", "", ColorLight); err != nil { t.Fatalf("CreateChallenge: %v", err) }
    clock = clock.Add(2 * time.Minute)
    if _, err := m.Accept("u2", "roomA"); !errors.Is(err, ErrNoPendingForUser) { t.Fatalf("expected expiry, got %v", err) }
    if _, err := m.CreateChallenge("roomA", "u3", "", "u2", "", ColorRandom); err != nil { t.Fatalf("new challenge after expiry: %v", err) }
}
