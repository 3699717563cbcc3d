package checkerspresenter

import (
    core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
    "github.com/park285/Cheese-Checkers-bot/internal/domain"
    svc "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
    "github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

func ToDTOState(s *svc.SessionState) *checkersdto.SessionState {
    if s == nil {
        return nil
    }
    out := &checkersdto.SessionState{
        SessionUUID: s.SessionUUID,
        PlayerName:  s.PlayerName,
        Moves:       append([]string(nil), s.Moves...),
        Turn:        s.Turn.String(),
        BoardImage:  append([]byte(nil), s.BoardImage...),
        MoveCount:   s.MoveCount,
        Score:       checkersdto.Score{CapturedDark: s.Score.CapturedDark, CapturedLight: s.Score.CapturedLight},
        DarkLeft:    s.DarkLeft,
        LightLeft:   s.LightLeft,
        Finished:    s.Finished,
        Method:      s.Method,
        GameID:      s.GameID,
        Profile:     ToDTOProfile(s.Profile),
    }
    if s.Selection.Active() {
        out.Selected = s.Selection.From.String()
        out.Destinations = squareNames(s.Selection.Destinations())
    }
    if s.LastMove != nil {
        out.LastMove = s.LastMove.String()
    }
    if s.Finished {
        out.Winner = colorToken(s.Winner)
    }
    return out
}

func ToDTOMoveSummary(m *svc.MoveSummary) *checkersdto.MoveSummary {
    if m == nil {
        return nil
    }
    return &checkersdto.MoveSummary{
        State:    ToDTOState(m.State),
        Move:     m.Move.String(),
        Mover:    colorToken(m.Mover),
        Victim:   colorToken(m.Victim),
        Finished: m.Finished,
        GameID:   m.GameID,
        Profile:  ToDTOProfile(m.Profile),
    }
}

func ToDTOProfile(p *domain.CheckersProfile) *checkersdto.CheckersProfile {
    if p == nil {
        return nil
    }
    cp := *p
    return &checkersdto.CheckersProfile{
        PlayerHash:    cp.PlayerHash,
        RoomHash:      cp.RoomHash,
        GamesPlayed:   cp.GamesPlayed,
        DarkWins:      cp.DarkWins,
        LightWins:     cp.LightWins,
        Resignations:  cp.Resignations,
        TotalCaptures: cp.TotalCaptures,
        LastPlayedAt:  cp.LastPlayedAt,
    }
}

func ToDTOGames(list []*domain.CheckersGame) []*checkersdto.CheckersGame {
    out := make([]*checkersdto.CheckersGame, 0, len(list))
    for _, g := range list {
        if dto := ToDTOGame(g); dto != nil {
            out = append(out, dto)
        }
    }
    return out
}

func ToDTOGame(g *domain.CheckersGame) *checkersdto.CheckersGame {
    if g == nil { return nil }
    gg := *g
    return &checkersdto.CheckersGame{
        ID:            gg.ID,
        SessionUUID:   gg.SessionUUID,
        PlayerName:    gg.PlayerName,
        Winner:        gg.Winner,
        ResultMethod:  gg.ResultMethod,
        Moves:         append([]string(nil), gg.Moves...),
        FinalBoard:    gg.FinalBoard,
        CapturedDark:  gg.CapturedDark,
        CapturedLight: gg.CapturedLight,
        StartedAt:     gg.StartedAt,
        EndedAt:       gg.EndedAt,
        Duration:      gg.Duration,
    }
}

func squareNames(list []core.Square) []string {
    out := make([]string, 0, len(list))
    for _, s := range list {
        out = append(out, s.String())
    }
    return out
}

// colorToken maps NoColor to "".
func colorToken(c core.Color) string {
    if c == core.NoColor {
        return ""
    }
    return c.String()
}
