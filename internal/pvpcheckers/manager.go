package pvpcheckers

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "encoding/json"
    "errors"
    "fmt"
    "math/big"
    "sort"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
    "github.com/park285/Cheese-Checkers-bot/internal/msgcat"
    "github.com/park285/Cheese-Checkers-bot/internal/obslog"
    "github.com/park285/Cheese-Checkers-bot/internal/service/cache"
    svccheckers "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
)

const defaultGameTTL = 24 * time.Hour

// ResultStore receives finished games.
type ResultStore interface {
    SaveResult(ctx context.Context, g *Game, method string) error
}

type Manager struct {
    rdb      *redis.Client
    renderer svccheckers.BoardRenderer
    repo     ResultStore
    msgs     *msgcat.Catalog
    ttl      time.Duration
}

func NewManager(redisURL string) (*Manager, error) {
    if strings.TrimSpace(redisURL) == "" {
        return nil, fmt.Errorf("REDIS_URL required for PvP manager")
    }
    cfg, err := cache.ParseRedisURL(redisURL)
    if err != nil { return nil, err }
    rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Password, DB: cfg.DB})
    if err := rdb.Ping(context.Background()).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return NewManagerWithClient(rdb), nil
}

// NewManagerWithClient shares an existing connection, e.g. the session cache's.
func NewManagerWithClient(rdb *redis.Client) *Manager {
    return &Manager{
        rdb:      rdb,
        renderer: svccheckers.NewSVGBoardRenderer(),
        msgs:     msgcat.MustDefault(),
        ttl:      defaultGameTTL,
    }
}

func (m *Manager) Close() error {
    if m == nil || m.rdb == nil { return nil }
    return m.rdb.Close()
}

// Client exposes the connection for the lobby manager.
func (m *Manager) Client() *redis.Client { return m.rdb }

// AttachRepository wires a store for persisting PvP results.
func (m *Manager) AttachRepository(r ResultStore) {
    if m != nil { m.repo = r }
}

func (m *Manager) AttachCatalog(c *msgcat.Catalog) {
    if m != nil && c != nil { m.msgs = c }
}

// SetTTL changes how long game and index keys live in Redis.
func (m *Manager) SetTTL(d time.Duration) {
    if m != nil && d > 0 { m.ttl = d }
}

// CreateGameFromChallenge starts a game between challenger and target.
// colorChoice is the challenger's side: dark, light, or anything else for random.
func (m *Manager) CreateGameFromChallenge(ctx context.Context, originRoom, resolveRoom, challengerID, challengerName, targetID, targetName, colorChoice string) (*Game, error) {
    if m == nil || m.rdb == nil { return nil, ErrNotInitialized }
    challengerID, targetID = strings.TrimSpace(challengerID), strings.TrimSpace(targetID)
    if challengerID == "" || targetID == "" { return nil, fmt.Errorf("invalid participants") }

    darkID, darkName := challengerID, challengerName
    lightID, lightName := targetID, targetName
    switch strings.ToLower(strings.TrimSpace(colorChoice)) {
    case "dark", "d", "흑":
    case "light", "l", "백":
        darkID, darkName, lightID, lightName = targetID, targetName, challengerID, challengerName
    default:
        if n, _ := rand.Int(rand.Reader, big.NewInt(2)); n != nil && n.Int64() == 0 {
            darkID, darkName, lightID, lightName = targetID, targetName, challengerID, challengerName
        }
    }

    board, err := core.StartingBoard().MarshalText()
    if err != nil { return nil, err }
    now := time.Now()
    g := &Game{
        ID:          fmt.Sprintf("pvp-%d-%s", now.UnixNano(), secureRandSuffix(3)),
        Board:       string(board),
        Moves:       []string{},
        Turn:        Dark,
        Status:      StatusActive,
        DarkID:      darkID,
        DarkName:    strings.TrimSpace(darkName),
        LightID:     lightID,
        LightName:   strings.TrimSpace(lightName),
        OriginRoom:  strings.TrimSpace(originRoom),
        ResolveRoom: strings.TrimSpace(resolveRoom),
        CreatedAt:   now,
        UpdatedAt:   now,
    }

    if err := m.save(ctx, g); err != nil { return nil, err }
    obslog.L().Info("pvp_game_create",
        zap.String("game_id", g.ID),
        zap.String("origin_room", g.OriginRoom),
        zap.String("resolve_room", g.ResolveRoom),
        zap.String("dark_id", g.DarkID),
        zap.String("light_id", g.LightID),
    )
    if err := m.indexParticipants(ctx, g.ID, g.DarkID, g.LightID); err != nil { return nil, err }
    return g, nil
}

// GetActiveGameByUser returns the latest active game for a user.
func (m *Manager) GetActiveGameByUser(ctx context.Context, userID string) (*Game, error) {
    return m.latestActive(ctx, userID, func(*Game) bool { return true })
}

// GetActiveGameByUserInRoom returns the most recent ACTIVE game for the user bound to room.
// 방 기준 중복 대국 금지 정책에 사용.
func (m *Manager) GetActiveGameByUserInRoom(ctx context.Context, userID, room string) (*Game, error) {
    room = strings.TrimSpace(room)
    if room == "" { return nil, nil }
    return m.latestActive(ctx, userID, func(g *Game) bool { return g.InRoom(room) })
}

func (m *Manager) latestActive(ctx context.Context, userID string, keep func(*Game) bool) (*Game, error) {
    if m == nil || m.rdb == nil { return nil, ErrNotInitialized }
    userID = strings.TrimSpace(userID)
    if userID == "" { return nil, nil }
    ids, err := m.rdb.SMembers(ctx, idxUserKey(userID)).Result()
    if err != nil { return nil, err }
    var list []*Game
    for _, id := range ids {
        g, gerr := m.get(ctx, id)
        if gerr != nil || g == nil { continue }
        if g.Status != StatusActive || !keep(g) { continue }
        list = append(list, g)
    }
    if len(list) == 0 { return nil, nil }
    sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
    return list[0], nil
}

// PlayMove applies a move for the requesting user. Rule violations are
// reported through the returned text with a nil error.
func (m *Manager) PlayMove(ctx context.Context, userID, moveStr string) (*Game, string, error) {
    if strings.TrimSpace(userID) == "" { return nil, "", fmt.Errorf("invalid user") }
    g, err := m.GetActiveGameByUser(ctx, userID)
    if err != nil || g == nil { return nil, "", err }
    return m.applyMove(ctx, g, userID, "", moveStr)
}

// PlayMoveByRoom restricts the target game to the user's ACTIVE game in roomID.
// 동일 사용자가 여러 방에서 동시에 진행할 때 다른 방 게임에 수가 적용되지 않도록 한다.
func (m *Manager) PlayMoveByRoom(ctx context.Context, userID, roomID, moveStr string) (*Game, string, error) {
    if strings.TrimSpace(userID) == "" || strings.TrimSpace(roomID) == "" {
        return nil, "", fmt.Errorf("invalid parameters")
    }
    g, err := m.GetActiveGameByUserInRoom(ctx, userID, roomID)
    if err != nil || g == nil { return nil, "", err }
    return m.applyMove(ctx, g, userID, strings.TrimSpace(roomID), moveStr)
}

func (m *Manager) applyMove(ctx context.Context, g *Game, userID, room, moveStr string) (*Game, string, error) {
    gameK := gameKey(g.ID)
    oldLen := len(g.Moves)
    var resultText string

    err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
        cur, err := loadTx(ctx, tx, gameK)
        if err != nil { return err }
        if cur.Status != StatusActive { return redis.TxFailedErr }
        // 다른 명령이 먼저 수를 둔 경우
        if len(cur.Moves) != oldLen { return redis.TxFailedErr }
        if room != "" && !cur.InRoom(room) { return ErrNotInRoom }

        color := playerColor(cur, userID)
        if color == "" { return ErrNotInGame }
        if color != cur.Turn { return errNotYourTurn }

        notation := strings.TrimSpace(moveStr)
        if notation == "" { return errBadInput }
        sess, err := reconstruct(cur.Moves)
        if err != nil { return err }
        delta, err := sess.Play(notation)
        if err != nil {
            if errors.Is(err, core.ErrBadNotation) || errors.Is(err, core.ErrOutOfBounds) { return errBadInput }
            return errIllegalMove
        }
        if err := applyDelta(cur, sess, delta); err != nil { return err }
        if sess.Blocked() {
            cur.Status = StatusFinished
            cur.Winner = userID
            cur.Outcome = OutcomeBlocked
        }
        if err := m.storeTx(ctx, tx, cur); err != nil { return err }

        g = cur
        resultText = m.msgs.Text("pvp.move", map[string]any{"Name": cur.NameOf(userID), "Move": delta.Move.String()},
            fmt.Sprintf("%s: %s", cur.NameOf(userID), delta.Move))
        return nil
    }, gameK)

    if err != nil {
        switch {
        case errors.Is(err, redis.TxFailedErr):
            return g, m.msgs.Text("pvp.conflict", nil, "동시 명령이 감지되어 처리되지 않았습니다. 다시 시도해주세요."), nil
        case errors.Is(err, errNotYourTurn):
            return g, m.msgs.Text("pvp.not_your_turn", nil, "지금은 상대 차례입니다."), nil
        case errors.Is(err, errBadInput):
            return g, m.msgs.Text("pvp.bad_input", nil, "잘못된 수 입력입니다."), nil
        case errors.Is(err, errIllegalMove):
            return g, m.msgs.Text("pvp.illegal", nil, "유효하지 않은 수입니다."), nil
        }
        return nil, "", err
    }

    obslog.L().Info("pvp_move",
        zap.String("game_id", g.ID),
        zap.String("room_id", room),
        zap.String("user_id", strings.TrimSpace(userID)),
        zap.String("turn", string(g.Turn)),
        zap.String("last", g.Moves[len(g.Moves)-1]),
        zap.String("status", string(g.Status)),
    )
    if g.Status == StatusFinished {
        resultText += "\n" + m.msgs.Text("pvp.finish.blocked", map[string]any{"Winner": g.NameOf(g.Winner)}, "승리: "+g.NameOf(g.Winner))
        _ = m.persistIfFinal(ctx, g, OutcomeBlocked)
    }
    return g, resultText, nil
}

func (m *Manager) Resign(ctx context.Context, userID string) (*Game, string, error) {
    g, err := m.GetActiveGameByUser(ctx, userID)
    if err != nil || g == nil { return nil, "", err }
    return m.resign(ctx, g, userID, "")
}

// ResignByRoom resigns only the user's game bound to roomID.
func (m *Manager) ResignByRoom(ctx context.Context, userID, roomID string) (*Game, string, error) {
    if strings.TrimSpace(userID) == "" || strings.TrimSpace(roomID) == "" {
        return nil, "", fmt.Errorf("invalid parameters")
    }
    g, err := m.GetActiveGameByUserInRoom(ctx, userID, roomID)
    if err != nil || g == nil { return nil, "", err }
    return m.resign(ctx, g, userID, strings.TrimSpace(roomID))
}

func (m *Manager) resign(ctx context.Context, g *Game, userID, room string) (*Game, string, error) {
    gameK := gameKey(g.ID)
    err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
        cur, err := loadTx(ctx, tx, gameK)
        if err != nil { return err }
        if cur.Status != StatusActive { return redis.TxFailedErr }
        if room != "" && !cur.InRoom(room) { return ErrNotInRoom }
        if playerColor(cur, userID) == "" { return ErrNotInGame }
        cur.Status = StatusResigned
        cur.Winner = opponentID(cur, userID)
        cur.Outcome = OutcomeResign
        cur.UpdatedAt = time.Now()
        if err := m.storeTx(ctx, tx, cur); err != nil { return err }
        g = cur
        return nil
    }, gameK)
    if err != nil {
        if errors.Is(err, redis.TxFailedErr) { return nil, "", ErrNoLongerActive }
        return nil, "", err
    }
    obslog.L().Info("pvp_resign",
        zap.String("game_id", g.ID),
        zap.String("room_id", room),
        zap.String("resigner", strings.TrimSpace(userID)),
        zap.String("winner", g.Winner),
    )
    _ = m.persistIfFinal(ctx, g, "resignation")
    text := m.msgs.Text("pvp.finish.resign", map[string]any{"Winner": g.NameOf(g.Winner)}, "기권")
    return g, text, nil
}

// Helpers
func opponentID(g *Game, userID string) string {
    if g.DarkID == userID { return g.LightID }
    if g.LightID == userID { return g.DarkID }
    return ""
}

func playerColor(g *Game, userID string) Color {
    if g.DarkID == userID { return Dark }
    if g.LightID == userID { return Light }
    return ""
}

func colorOf(c core.Color) Color {
    if c == core.Light { return Light }
    return Dark
}

// reconstruct replays the stored moves from the starting position. Board
// on Game is kept for presentation only.
func reconstruct(moves []string) (*core.Session, error) {
    sess := core.NewSession()
    if err := sess.Replay(moves...); err != nil { return nil, err }
    return sess, nil
}

func applyDelta(g *Game, sess *core.Session, delta core.BoardDelta) error {
    board, err := sess.Snapshot().Board.MarshalText()
    if err != nil { return err }
    score := sess.Score()
    g.Board = string(board)
    g.Moves = append(g.Moves, delta.Move.String())
    g.Turn = colorOf(sess.Turn())
    g.CapturedDark = score.CapturedDark
    g.CapturedLight = score.CapturedLight
    g.UpdatedAt = time.Now()
    return nil
}

// Persistence
func (m *Manager) save(ctx context.Context, g *Game) error {
    raw, err := json.Marshal(g)
    if err != nil { return err }
    return m.rdb.Set(ctx, gameKey(g.ID), raw, m.ttl).Err()
}

func (m *Manager) storeTx(ctx context.Context, tx *redis.Tx, g *Game) error {
    raw, err := json.Marshal(g)
    if err != nil { return err }
    pipe := tx.TxPipeline()
    pipe.Set(ctx, gameKey(g.ID), raw, m.ttl)
    _, err = pipe.Exec(ctx)
    return err
}

func loadTx(ctx context.Context, tx *redis.Tx, key string) (*Game, error) {
    raw, err := tx.Get(ctx, key).Bytes()
    if err == redis.Nil { return nil, ErrGameGone }
    if err != nil { return nil, err }
    var g Game
    if err := json.Unmarshal(raw, &g); err != nil { return nil, err }
    return &g, nil
}

func (m *Manager) get(ctx context.Context, id string) (*Game, error) {
    raw, err := m.rdb.Get(ctx, gameKey(id)).Bytes()
    if err == redis.Nil { return nil, nil }
    if err != nil { return nil, err }
    var g Game
    if err := json.Unmarshal(raw, &g); err != nil { return nil, err }
    return &g, nil
}

// LoadGame returns the game by ID, or nil when it expired.
func (m *Manager) LoadGame(ctx context.Context, id string) (*Game, error) {
    return m.get(ctx, id)
}

func (m *Manager) indexParticipants(ctx context.Context, id string, users ...string) error {
    for _, u := range users {
        if strings.TrimSpace(u) == "" { continue }
        key := idxUserKey(u)
        if err := m.rdb.SAdd(ctx, key, id).Err(); err != nil { return err }
        // 인덱스 TTL도 게임 TTL과 맞춘다
        _ = m.rdb.Expire(ctx, key, m.ttl).Err()
    }
    return nil
}

func gameKey(id string) string { return "pvp:game:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string { return "pvp:index:user:" + strings.TrimSpace(userID) }

// secureRandSuffix returns n random bytes as hex, falling back to the clock.
func secureRandSuffix(n int) string {
    if n <= 0 { n = 3 }
    b := make([]byte, n)
    if _, err := rand.Read(b); err == nil {
        return hex.EncodeToString(b)
    }
    return fmt.Sprintf("%x", time.Now().UnixNano()%1_000_000)
}

// persistIfFinal saves the final game result to the repository if one is attached.
func (m *Manager) persistIfFinal(ctx context.Context, g *Game, method string) error {
    if m == nil || m.repo == nil || g == nil { return nil }
    if g.Status != StatusFinished && g.Status != StatusResigned { return nil }
    if err := m.repo.SaveResult(ctx, g, method); err != nil {
        obslog.L().Error("pvp_result_persist_error", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.Error(err))
        return err
    }
    obslog.L().Info("pvp_result_persist", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.String("method", method))
    return nil
}
