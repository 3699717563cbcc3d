package main

import (
    "context"
    "fmt"
    "strings"
    "sync"
    "testing"

    miniredis "github.com/alicebob/miniredis/v2"

    "github.com/park285/Cheese-Checkers-bot/internal/checkersbuilder"
    appcfg "github.com/park285/Cheese-Checkers-bot/internal/config"
    "github.com/park285/Cheese-Checkers-bot/internal/irisfast"
)

type sent struct{ room, body string }

type recordingEgress struct {
    mu     sync.Mutex
    texts  []sent
    images []sent
}

func (r *recordingEgress) SendText(_ context.Context, room, message string) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.texts = append(r.texts, sent{room, message})
    return nil
}

func (r *recordingEgress) SendImage(_ context.Context, room, imageBase64 string) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.images = append(r.images, sent{room, imageBase64})
    return nil
}

func (r *recordingEgress) reset() {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.texts, r.images = nil, nil
}

func (r *recordingEgress) lastText() string {
    r.mu.Lock()
    defer r.mu.Unlock()
    if len(r.texts) == 0 { return "" }
    return r.texts[len(r.texts)-1].body
}

func (r *recordingEgress) allText() string {
    r.mu.Lock()
    defer r.mu.Unlock()
    var sb strings.Builder
    for _, s := range r.texts {
        sb.WriteString(s.body)
        sb.WriteString("\n")
    }
    return sb.String()
}

func newTestBot(t *testing.T) (*bot, *recordingEgress, *checkersbuilder.Deps) {
    t.Helper()
    mr, err := miniredis.Run()
    if err != nil { t.Fatalf("miniredis: %v", err) }
    t.Cleanup(mr.Close)
    cfg := &appcfg.AppConfig{
        BotPrefix:             "!",
        RedisURL:              fmt.Sprintf("redis://%s/0", mr.Addr()),
        CheckersSessionTTLSec: 600,
        CheckersHistoryLimit:  5,
        PvPGameTTLSec:         600,
        MaxConcurrentGames:    4,
    }
    deps, err := checkersbuilder.New(cfg, nil)
    if err != nil { t.Fatalf("checkersbuilder.New: %v", err) }
    t.Cleanup(func() { _ = deps.Close() })
    out := &recordingEgress{}
    return newBot(cfg, deps, out, nil), out, deps
}

func message(room, userID, name, text string) *irisfast.Message {
    return &irisfast.Message{
        Msg:    text,
        Room:   room,
        Sender: &name,
        JSON:   &irisfast.MessageJSON{UserID: userID, ChatID: room, Message: text},
    }
}

func TestHotSeatCommands(t *testing.T) {
    b, out, _ := newTestBot(t)
    ctx := context.Background()
    send := func(text string) { b.handle(ctx, message("roomA", "u1", "Alice", text)) }

    send("!체커 시작")
    if len(out.texts) == 0 || len(out.images) == 0 { t.Fatalf("start sent texts=%d images=%d", len(out.texts), len(out.images)) }

    out.reset()
    send("!체커 선택 b3")
    if !strings.Contains(out.lastText(), "b3 선택됨") { t.Fatalf("select reply = %q", out.lastText()) }

    out.reset()
    send("!체커 c4")
    if !strings.Contains(out.allText(), "b3-c4") || len(out.images) != 1 { t.Fatalf("move reply = %q", out.allText()) }

    out.reset()
    send("!체커 zz")
    if !strings.Contains(out.lastText(), "칸 표기") { t.Fatalf("bad notation reply = %q", out.lastText()) }

    out.reset()
    send("!체커 기권")
    if !strings.Contains(out.allText(), "기권") { t.Fatalf("resign reply = %q", out.allText()) }

    out.reset()
    send("!체커 현황")
    if !strings.Contains(out.lastText(), "진행 중인 체커 게임이 없습니다") { t.Fatalf("status after resign = %q", out.lastText()) }

    out.reset()
    send("!체커 기록")
    if !strings.Contains(out.lastText(), "#1") { t.Fatalf("history = %q", out.lastText()) }

    out.reset()
    send("!체커 기보 #1")
    if !strings.Contains(out.allText(), "기보 상세 #1") || len(out.images) != 1 {
        t.Fatalf("game reply = %q images=%d", out.allText(), len(out.images))
    }

    out.reset()
    send("!체커 프로필")
    if !strings.Contains(out.lastText(), "체커 프로필") { t.Fatalf("profile = %q", out.lastText()) }
}

func TestPvPChallengeFlow(t *testing.T) {
    b, out, deps := newTestBot(t)
    ctx := context.Background()

    b.handle(ctx, message("roomA", "u1", "Alice", "!pvp @Bob 흑"))
    if !strings.Contains(out.lastText(), "대국을 신청했습니다") { t.Fatalf("challenge = %q", out.lastText()) }

    out.reset()
    b.handle(ctx, message("roomB", "u2", "Bob", "!pvp 수락"))
    if !strings.Contains(out.allText(), "대국 시작") || len(out.images) != 2 {
        t.Fatalf("accept = %q images=%d", out.allText(), len(out.images))
    }
    g, _ := deps.PvP.GetActiveGameByUser(ctx, "u2")
    if g == nil || g.DarkID != "u1" || g.LightID != "u2" || g.ResolveRoom != "roomB" { t.Fatalf("game = %+v", g) }

    out.reset()
    b.handle(ctx, message("roomB", "u2", "Bob", "!pvp a6 b5"))
    if len(out.texts) != 1 || out.texts[0].room != "roomB" || !strings.Contains(out.texts[0].body, "상대 차례") {
        t.Fatalf("out of turn = %+v", out.texts)
    }

    out.reset()
    b.handle(ctx, message("roomA", "u1", "Alice", "!pvp b3 c4"))
    if len(out.texts) != 2 || !strings.Contains(out.texts[0].body, "b3-c4") { t.Fatalf("move broadcast = %+v", out.texts) }

    out.reset()
    b.handle(ctx, message("roomB", "u2", "Bob", "!pvp 기권"))
    if !strings.Contains(out.allText(), "Alice") { t.Fatalf("resign = %q", out.allText()) }
    if g, _ := deps.PvP.GetActiveGameByUser(ctx, "u1"); g != nil { t.Fatalf("game still active") }

    out.reset()
    b.handle(ctx, message("roomB", "u2", "Bob", "!pvp 거절"))
    if !strings.Contains(out.lastText(), "대기 중인 PvP 신청이 없습니다") { t.Fatalf("decline = %q", out.lastText()) }
}

func TestPvPLobbyHonorsCreatorColor(t *testing.T) {
    b, out, deps := newTestBot(t)
    ctx := context.Background()

    b.handle(ctx, message("roomA", "u1", "Alice", "!pvp 방만들기 백"))
    list, err := deps.Lobby.ListLobby(ctx)
    if err != nil || len(list) != 1 { t.Fatalf("lobby = %+v %v", list, err) }
    code := list[0].ID
    if !strings.Contains(out.lastText(), code) { t.Fatalf("created = %q", out.lastText()) }

    b.handle(ctx, message("roomA", "u1", "Alice", "!pvp 방만들기"))
    if !strings.Contains(out.lastText(), "이미 만든 대기방") { t.Fatalf("second lobby = %q", out.lastText()) }

    out.reset()
    b.handle(ctx, message("roomB", "u2", "Bob", "!pvp 참가 "+strings.ToLower(code)))
    if !strings.Contains(out.allText(), "대국 시작") { t.Fatalf("join = %q", out.allText()) }
    g, _ := deps.PvP.GetActiveGameByUserInRoom(ctx, "u1", "roomA")
    if g == nil || g.LightID != "u1" || g.DarkID != "u2" { t.Fatalf("game = %+v", g) }

    out.reset()
    b.handle(ctx, message("roomA", "u1", "Alice", "!pvp 현황"))
    if !strings.Contains(out.lastText(), "Bob") || len(out.images) != 1 { t.Fatalf("status = %q", out.lastText()) }
}

func TestDispatchFilters(t *testing.T) {
    b, out, _ := newTestBot(t)
    b.cfg.AllowedRooms = []string{"roomA"}

    b.dispatch(message("roomZ", "u1", "Alice", "!체커 시작"))
    b.dispatch(message("roomA", "u1", "Alice", "체커 시작"))
    b.dispatch(nil)
    if len(b.sem) != 0 || len(out.texts) != 0 { t.Fatalf("filtered messages were handled") }
}

func TestSessionIdentity(t *testing.T) {
    m := message(" roomA ", "u1", "Alice", "")
    if got := sessionIDFor(m); got != "roomA:u1" { t.Fatalf("sessionIDFor = %q", got) }
    anon := &irisfast.Message{Room: "r"}
    if senderName(anon) != "player" || sessionIDFor(anon) != "r:player" { t.Fatalf("anonymous identity") }
    if sanitizeUserArg(" @Bob ") != "Bob" { t.Fatalf("sanitizeUserArg") }
}
