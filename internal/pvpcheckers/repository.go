package pvpcheckers

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    _ "github.com/lib/pq"
)

// Schema creates the PvP result table.
const Schema = `
CREATE TABLE IF NOT EXISTS pvp_checkers_games (
    game_id        TEXT PRIMARY KEY,
    dark_id        TEXT NOT NULL,
    dark_name      TEXT NOT NULL,
    light_id       TEXT NOT NULL,
    light_name     TEXT NOT NULL,
    origin_room    TEXT NOT NULL,
    resolve_room   TEXT NOT NULL,
    result         TEXT NOT NULL,
    result_method  TEXT NOT NULL,
    moves          JSONB NOT NULL,
    pdn            TEXT NOT NULL,
    captured_dark  INT NOT NULL DEFAULT 0,
    captured_light INT NOT NULL DEFAULT 0,
    started_at     TIMESTAMPTZ NOT NULL,
    ended_at       TIMESTAMPTZ NOT NULL,
    duration_ms    BIGINT NOT NULL DEFAULT 0
);`

type Repository struct {
    db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
    if strings.TrimSpace(databaseURL) == "" {
        return nil, fmt.Errorf("DATABASE_URL is required")
    }
    db, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(16)
    db.SetMaxIdleConns(8)
    db.SetConnMaxLifetime(30 * time.Minute)
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    if _, err := db.ExecContext(ctx, Schema); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("pvp schema: %w", err)
    }
    return &Repository{db: db}, nil
}

// NewRepositoryWithDB shares a pool opened elsewhere. The schema is not applied.
func NewRepositoryWithDB(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Close() error {
    if r == nil || r.db == nil { return nil }
    return r.db.Close()
}

// SaveResult upserts a final PvP game result into the database.
func (r *Repository) SaveResult(ctx context.Context, g *Game, method string) error {
    if r == nil || r.db == nil || g == nil {
        return nil
    }

    result := string(playerColor(g, g.Winner))
    pdnResult := mapResultToPDN(result)
    pdn := buildPDN(g, pdnResult, method)

    movesRaw, _ := json.Marshal(g.Moves)
    duration := g.UpdatedAt.Sub(g.CreatedAt).Milliseconds()
    if duration < 0 { duration = 0 }

    q := `INSERT INTO pvp_checkers_games (
        game_id, dark_id, dark_name, light_id, light_name,
        origin_room, resolve_room,
        result, result_method, moves, pdn,
        captured_dark, captured_light,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
      ) ON CONFLICT (game_id) DO UPDATE SET
        result=EXCLUDED.result,
        result_method=EXCLUDED.result_method,
        moves=EXCLUDED.moves,
        pdn=EXCLUDED.pdn,
        captured_dark=EXCLUDED.captured_dark,
        captured_light=EXCLUDED.captured_light,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

    _, err := r.db.ExecContext(ctx, q,
        g.ID,
        g.DarkID, g.DarkName,
        g.LightID, g.LightName,
        g.OriginRoom, g.ResolveRoom,
        result, strings.TrimSpace(method), string(movesRaw), pdn,
        g.CapturedDark, g.CapturedLight,
        g.CreatedAt, g.UpdatedAt, duration,
    )
    return err
}

// PDN names the side that moves first Black; here that is Dark.
func mapResultToPDN(result string) string {
    switch strings.ToLower(strings.TrimSpace(result)) {
    case string(Light):
        return "1-0"
    case string(Dark):
        return "0-1"
    default:
        return "*"
    }
}

func buildPDN(g *Game, pdnResult, method string) string {
    if g == nil { return "" }
    date := g.UpdatedAt
    if date.IsZero() { date = time.Now() }

    tags := [][2]string{
        {"Event", "KakaoPvP"},
        {"Site", "Iris"},
        {"Date", date.Format("2006.01.02")},
        {"Black", g.DarkName},
        {"White", g.LightName},
        {"GameType", "21"},
    }
    if m := strings.TrimSpace(method); m != "" {
        tags = append(tags, [2]string{"Termination", strings.ToLower(m)})
    }
    tags = append(tags, [2]string{"Result", pdnResult})

    var sb strings.Builder
    for _, tag := range tags {
        fmt.Fprintf(&sb, "[%s \"%s\"]\n", tag[0], sanitizePDN(tag[1]))
    }
    sb.WriteString("\n")
    for i, mv := range g.Moves {
        if i%2 == 0 { fmt.Fprintf(&sb, "%d. ", i/2+1) }
        sb.WriteString(strings.TrimSpace(mv))
        sb.WriteString(" ")
    }
    sb.WriteString(pdnResult)
    return sb.String()
}

func sanitizePDN(s string) string {
    return strings.TrimSpace(strings.NewReplacer("\\", " ", "\"", "'").Replace(s))
}
