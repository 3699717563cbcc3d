package pvpcheckers

import (
    "context"
    "strings"
    "testing"
    "time"

    core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
    svccheckers "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
)

type captureRenderer struct{ opts []svccheckers.RenderOptions }

func (r *captureRenderer) RenderPNG(_ context.Context, _ *core.Board, opts svccheckers.RenderOptions) ([]byte, error) {
    r.opts = append(r.opts, opts)
    return []byte("png"), nil
}

func TestToDTOForViewerFlipsForLight(t *testing.T) {
    m, _ := newTestManager(t)
    rec := &captureRenderer{}
    m.renderer = rec
    ctx := context.Background()
    g, _ := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "Alice", "u2", "밥", "dark")
    g, _, _ = m.PlayMove(ctx, "u1", "b3-c4")

    dto, err := m.ToDTOForViewer(ctx, g, "u2")
    if err != nil { t.Fatalf("ToDTOForViewer: %v", err) }
    if dto.MoveCount != 1 || dto.Turn != "light" || dto.LastMove != "b3-c4" || string(dto.BoardImage) != "png" {
        t.Fatalf("dto: %+v", dto)
    }
    if dto.DarkLeft != 12 || dto.LightLeft != 12 || dto.Finished { t.Fatalf("counts: %+v", dto) }

    if _, err := m.ToDTO(ctx, g); err != nil { t.Fatalf("ToDTO: %v", err) }
    if len(rec.opts) != 2 || !rec.opts[0].Flip || rec.opts[1].Flip {
        t.Fatalf("flip flags: %+v", rec.opts)
    }
    // non-ASCII names fall back for the bitmap font
    if rec.opts[0].HUDHeader != "Alice vs Player" || rec.opts[0].LastMove == nil {
        t.Fatalf("hud: %+v", rec.opts[0])
    }
}

func TestBuildPDN(t *testing.T) {
    g := &Game{
        DarkName:  `Al"ice`,
        LightName: "Bob",
        Moves:     []string{"b3-c4", "a6-b5", "c4xa6"},
        UpdatedAt: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
    }
    pdn := buildPDN(g, mapResultToPDN("dark"), "Resignation")
    for _, want := range []string{
        `[Date "2025.03.09"]`,
        `[Black "Al'ice"]`,
        `[White "Bob"]`,
        `[Termination "resignation"]`,
        `[GameType "21"]`,
        `[Result "0-1"]`,
        "1. b3-c4 a6-b5 2. c4xa6 0-1",
    } {
        if !strings.Contains(pdn, want) { t.Fatalf("pdn missing %q:\n%s", want, pdn) }
    }
    if mapResultToPDN("light") != "1-0" || mapResultToPDN("") != "*" { t.Fatalf("result mapping") }
}
