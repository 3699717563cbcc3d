package pvpcheckers

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "testing"

    miniredis "github.com/alicebob/miniredis/v2"
)

var blockedGame = []string{
    "d3-c4", "a6-b5", "c4xa6", "e6-f5", "b3-c4", "g6-h5", "c2-d3", "c6-b5",
    "a2-b3", "f7-g6", "d3-e4", "f5xd3", "b1-c2", "d3xb1", "f3-e4", "b5xd3",
    "e2xc4", "g8-f7", "b3-a4", "b7-c6", "e4-f5", "g6xe4", "g2-f3", "e4xg2",
    "h1xf3", "f7-g6", "c4-b5", "g6-f5", "f3-e4", "f5xd3", "h3-g4", "h5xf3",
    "f1-e2", "d3xf1", "d1-e2", "f3xd1", "a6-b7", "c8xa6",
}

type recordingStore struct {
    saved   []*Game
    methods []string
}

func (r *recordingStore) SaveResult(_ context.Context, g *Game, method string) error {
    r.saved = append(r.saved, g)
    r.methods = append(r.methods, method)
    return nil
}

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
    t.Helper()
    mr, err := miniredis.Run()
    if err != nil { t.Fatalf("miniredis: %v", err) }
    t.Cleanup(func() { mr.Close() })
    url := fmt.Sprintf("redis://%s/0", mr.Addr())
    m, err := NewManager(url)
    if err != nil { t.Fatalf("pvpcheckers.NewManager: %v", err) }
    t.Cleanup(func() { _ = m.Close() })
    return m, mr
}

func TestCreateGameColorChoice(t *testing.T) {
    m, mr := newTestManager(t)
    ctx := context.Background()

    g, err := m.CreateGameFromChallenge(ctx, "roomA", "roomB", "u1", "Alice", "u2", "Bob", "light")
    if err != nil { t.Fatalf("CreateGameFromChallenge: %v", err) }
    if g.DarkID != "u2" || g.LightID != "u1" || g.Turn != Dark || g.Status != StatusActive {
        t.Fatalf("unexpected game: %+v", g)
    }
    if len(g.Board) != 64 { t.Fatalf("board encoding = %q", g.Board) }
    if !mr.Exists(gameKey(g.ID)) || !mr.Exists(idxUserKey("u1")) { t.Fatalf("keys not stored") }
    if mr.TTL(gameKey(g.ID)) != defaultGameTTL { t.Fatalf("ttl = %v", mr.TTL(gameKey(g.ID))) }

    got, err := m.GetActiveGameByUserInRoom(ctx, "u1", "roomB")
    if err != nil || got == nil || got.ID != g.ID { t.Fatalf("lookup by room: %+v %v", got, err) }
    if other, _ := m.GetActiveGameByUserInRoom(ctx, "u1", "roomC"); other != nil {
        t.Fatalf("game leaked into other room")
    }

    r, err := m.CreateGameFromChallenge(ctx, "roomC", "roomC", "u3", "C", "u4", "D", "")
    if err != nil { t.Fatalf("random color: %v", err) }
    if (r.DarkID != "u3" || r.LightID != "u4") && (r.DarkID != "u4" || r.LightID != "u3") {
        t.Fatalf("random assignment broken: %+v", r)
    }
}

func TestPlayMoveTurnAndIllegal(t *testing.T) {
    m, _ := newTestManager(t)
    ctx := context.Background()
    g, err := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "Alice", "u2", "Bob", "dark")
    if err != nil { t.Fatalf("CreateGameFromChallenge: %v", err) }

    // light cannot open
    _, txt, err := m.PlayMove(ctx, "u2", "a6-b5")
    if err != nil || !strings.Contains(txt, "상대 차례") { t.Fatalf("not-your-turn: %q %v", txt, err) }

    g1, txt, err := m.PlayMove(ctx, "u1", "b3-c4")
    if err != nil || g1 == nil { t.Fatalf("PlayMove: %v", err) }
    if len(g1.Moves) != 1 || g1.Turn != Light || !strings.Contains(txt, "b3-c4") {
        t.Fatalf("after move: %+v txt=%q", g1, txt)
    }

    _, txt, err = m.PlayMove(ctx, "u2", "a6-a5")
    if err != nil || txt == "" { t.Fatalf("expected user-facing illegal message, got %q %v", txt, err) }
    _, txt, err = m.PlayMove(ctx, "u2", "zz")
    if err != nil || !strings.Contains(txt, "잘못된") { t.Fatalf("bad input: %q %v", txt, err) }

    cur, _ := m.LoadGame(ctx, g.ID)
    if cur == nil || len(cur.Moves) != 1 { t.Fatalf("rejected moves were stored: %+v", cur) }
}

func TestPlayMoveByRoomScopes(t *testing.T) {
    m, _ := newTestManager(t)
    ctx := context.Background()
    if _, err := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "Alice", "u2", "Bob", "dark"); err != nil {
        t.Fatalf("CreateGameFromChallenge: %v", err)
    }
    g, _, err := m.PlayMoveByRoom(ctx, "u1", "roomZ", "b3-c4")
    if err != nil || g != nil { t.Fatalf("other room should find nothing: %+v %v", g, err) }
    g, _, err = m.PlayMoveByRoom(ctx, "u1", "roomA", "b3-c4")
    if err != nil || g == nil || len(g.Moves) != 1 { t.Fatalf("PlayMoveByRoom: %+v %v", g, err) }
}

func TestResignPersists(t *testing.T) {
    m, _ := newTestManager(t)
    store := &recordingStore{}
    m.AttachRepository(store)
    ctx := context.Background()
    g, _ := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "Alice", "u2", "Bob", "dark")

    done, txt, err := m.ResignByRoom(ctx, "u2", "roomA")
    if err != nil { t.Fatalf("ResignByRoom: %v", err) }
    if done.Status != StatusResigned || done.Winner != "u1" || done.Outcome != OutcomeResign || txt == "" {
        t.Fatalf("resigned game: %+v txt=%q", done, txt)
    }
    if len(store.saved) != 1 || store.saved[0].ID != g.ID || store.methods[0] != "resignation" {
        t.Fatalf("store: %+v", store)
    }
    if active, _ := m.GetActiveGameByUser(ctx, "u1"); active != nil { t.Fatalf("resigned game still active") }
    if _, _, err := m.Resign(ctx, "u1"); err != nil { t.Fatalf("resign without game should be a no-op: %v", err) }
}

func TestBlockedFinishesGame(t *testing.T) {
    m, _ := newTestManager(t)
    store := &recordingStore{}
    m.AttachRepository(store)
    ctx := context.Background()
    g, _ := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "Alice", "u2", "Bob", "dark")

    var txt string
    for i, mv := range blockedGame {
        user := "u1"
        if i%2 == 1 { user = "u2" }
        var err error
        g, txt, err = m.PlayMove(ctx, user, mv)
        if err != nil || g == nil { t.Fatalf("move %d %s: %v", i+1, mv, err) }
        if len(g.Moves) != i+1 { t.Fatalf("move %d %s rejected: %q", i+1, mv, txt) }
    }
    if g.Status != StatusFinished || g.Winner != "u2" || g.Outcome != OutcomeBlocked {
        t.Fatalf("final game: %+v", g)
    }
    if g.CapturedDark != 10 || g.CapturedLight != 3 { t.Fatalf("score = %d/%d", g.CapturedDark, g.CapturedLight) }
    if !strings.Contains(txt, "Bob") { t.Fatalf("finish text = %q", txt) }
    if len(store.saved) != 1 || store.methods[0] != OutcomeBlocked { t.Fatalf("store: %+v", store) }

    if _, _, err := m.ResignByRoom(ctx, "u1", "roomA"); err != nil { t.Fatalf("finished game resign: %v", err) }
}

func TestResignUnknownGameGone(t *testing.T) {
    m, mr := newTestManager(t)
    ctx := context.Background()
    g, _ := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "Alice", "u2", "Bob", "dark")
    mr.Del(gameKey(g.ID))
    if _, _, err := m.resign(ctx, g, "u1", ""); !errors.Is(err, ErrGameGone) {
        t.Fatalf("expected ErrGameGone, got %v", err)
    }
}
