package pvpcheckers

import (
    "context"
    "fmt"

    core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
    svccheckers "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
    "github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

// ToDTO renders the board from Dark's side.
func (m *Manager) ToDTO(ctx context.Context, g *Game) (*checkersdto.SessionState, error) {
    return m.ToDTOForViewer(ctx, g, "")
}

// ToDTOForViewer renders PNG using the shared checkers renderer, flipped when
// the viewer plays Light, and returns a DTO SessionState for presenter.Board.
func (m *Manager) ToDTOForViewer(ctx context.Context, g *Game, viewerID string) (*checkersdto.SessionState, error) {
    if m == nil || g == nil { return nil, nil }
    sess, err := reconstruct(g.Moves)
    if err != nil { return nil, fmt.Errorf("reconstruct failed: %w", err) }
    snap := sess.Snapshot()
    opts := svccheckers.RenderOptions{
        LastMove:  snap.LastMove,
        Score:     snap.Score,
        HUDHeader: fmt.Sprintf("%s vs %s", svccheckers.HUDLabel(g.DarkName), svccheckers.HUDLabel(g.LightName)),
        HUDTurn:   hudTurn(g, snap.MoveCount),
        Flip:      viewerID != "" && viewerID == g.LightID,
    }
    png, err := m.renderer.RenderPNG(ctx, snap.Board, opts)
    if err != nil { return nil, err }

    state := &checkersdto.SessionState{
        SessionUUID: g.ID,
        Moves:       append([]string(nil), g.Moves...),
        Turn:        string(g.Turn),
        BoardImage:  png,
        MoveCount:   len(g.Moves),
        Score:       checkersdto.Score{CapturedDark: snap.Score.CapturedDark, CapturedLight: snap.Score.CapturedLight},
        DarkLeft:    snap.Board.Count(core.Dark),
        LightLeft:   snap.Board.Count(core.Light),
        Finished:    g.Status != StatusActive,
        Method:      g.Outcome,
    }
    if snap.LastMove != nil { state.LastMove = snap.LastMove.String() }
    if state.Finished {
        state.Winner = string(playerColor(g, g.Winner))
    }
    return state, nil
}

func hudTurn(g *Game, moveCount int) string {
    if g.Status != StatusActive {
        if c := playerColor(g, g.Winner); c != "" { return fmt.Sprintf("%s wins (%s)", c, g.Outcome) }
        return "finished"
    }
    return fmt.Sprintf("%s to move - #%d", g.Turn, moveCount+1)
}
