package pvpchan

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/park285/Cheese-Checkers-bot/internal/obslog"
    "github.com/park285/Cheese-Checkers-bot/internal/pvpcheckers"
)

const codeAttempts = 5

// Manager runs open lobbies: one player opens a code, another joins it from
// any room, and the second join starts a PvP game in both rooms.
type Manager struct {
    store *Store
    games *pvpcheckers.Manager
}

func NewManager(rdb *redis.Client, games *pvpcheckers.Manager) *Manager {
    return &Manager{store: NewStore(rdb), games: games}
}

// Make opens a lobby owned by userID. The creator's color preference is kept
// and honored when the second player joins.
func (m *Manager) Make(ctx context.Context, room, userID, userName string, color ColorChoice) (*MakeResult, error) {
    if strings.TrimSpace(room) == "" || strings.TrimSpace(userID) == "" { return nil, ErrInvalidArgs }
    if m.busy(ctx, userID, room) { return nil, ErrPlayerBusyInRoom }
    open, err := m.openLobbyOf(ctx, userID)
    if err != nil { return nil, err }
    if open != nil { return nil, ErrCreatorHasLobby }
    if color == "" { color = ColorRandom }

    for attempt := 0; attempt < codeAttempts; attempt++ {
        code, err := newCode()
        if err != nil { return nil, err }
        meta := &ChannelMeta{
            ID:           code,
            State:        StateLobby,
            CreatedAt:    time.Now(),
            CreatorID:    userID,
            CreatorName:  strings.TrimSpace(userName),
            CreatorRoom:  room,
            CreatorColor: color,
        }
        ok, err := m.store.Create(ctx, meta)
        if err != nil { return nil, err }
        if !ok { continue }
        obslog.L().Info("lobby_make", zap.String("code", code), zap.String("room", room), zap.String("creator_id", userID), zap.String("color", string(color)))
        return &MakeResult{Code: code, Meta: meta}, nil
    }
    return nil, errors.New("pvpchan: could not allocate a lobby code")
}

// Join adds userID to the lobby and starts the game once two players are in.
func (m *Manager) Join(ctx context.Context, room, code, userID, userName string) (*JoinResult, error) {
    code = strings.ToUpper(strings.TrimSpace(code))
    if room == "" || code == "" || userID == "" { return nil, ErrInvalidArgs }
    meta, err := m.store.Load(ctx, code)
    if err != nil { return nil, err }
    if meta == nil { return nil, ErrChannelGone }
    if meta.State != StateLobby { return nil, ErrChannelActive }
    if m.busy(ctx, userID, room) { return nil, ErrPlayerBusyInRoom }

    members, err := m.store.Join(ctx, code, room, userID, userName)
    if err != nil {
        obslog.L().Warn("lobby_join_error", zap.String("code", code), zap.String("user_id", userID), zap.Error(err))
        return nil, err
    }
    if len(members) < 2 {
        return &JoinResult{Meta: meta}, nil
    }

    var opponent string
    for _, id := range members {
        if id != meta.CreatorID { opponent = id }
    }
    opponentName := m.store.Name(ctx, code, opponent)
    if opponentName == "" { opponentName = opponent }
    if m.busy(ctx, meta.CreatorID, meta.CreatorRoom) { return nil, ErrPlayerBusyInRoom }

    g, err := m.games.CreateGameFromChallenge(ctx, meta.CreatorRoom, room, meta.CreatorID, meta.CreatorName, opponent, opponentName, string(meta.CreatorColor))
    if err != nil { return nil, err }

    meta.State = StateActive
    meta.GameID = g.ID
    meta.DarkID, meta.DarkName = g.DarkID, g.DarkName
    meta.LightID, meta.LightName = g.LightID, g.LightName
    if err := m.store.Save(ctx, meta); err != nil { return nil, err }
    obslog.L().Info("lobby_start_game", zap.String("code", code), zap.String("game_id", g.ID), zap.String("dark_id", g.DarkID), zap.String("light_id", g.LightID))
    return &JoinResult{Started: true, GameID: g.ID, Meta: meta}, nil
}

// Cancel aborts the user's open lobby.
func (m *Manager) Cancel(ctx context.Context, userID string) (*ChannelMeta, error) {
    meta, err := m.openLobbyOf(ctx, userID)
    if err != nil { return nil, err }
    if meta == nil { return nil, ErrNoLobby }
    meta.State = StateAborted
    if err := m.store.Save(ctx, meta); err != nil { return nil, err }
    obslog.L().Info("lobby_cancel", zap.String("code", meta.ID), zap.String("creator_id", userID))
    return meta, nil
}

func (m *Manager) Rooms(ctx context.Context, code string) ([]string, error) { return m.store.Rooms(ctx, code) }

// RoomsByUserAndGame returns the rooms of the channel that started gameID.
func (m *Manager) RoomsByUserAndGame(ctx context.Context, userID, gameID string) ([]string, error) {
    channels, err := m.store.ChannelsOf(ctx, userID)
    if err != nil { return nil, err }
    for _, c := range channels {
        if c.GameID == gameID { return m.store.Rooms(ctx, c.ID) }
    }
    return nil, nil
}

func (m *Manager) ListLobby(ctx context.Context) ([]*ChannelMeta, error) { return m.store.Lobby(ctx) }

func (m *Manager) openLobbyOf(ctx context.Context, userID string) (*ChannelMeta, error) {
    channels, err := m.store.ChannelsOf(ctx, userID)
    if err != nil { return nil, err }
    for _, c := range channels {
        if c.State == StateLobby && c.CreatorID == userID { return c, nil }
    }
    return nil, nil
}

// busy reports an unfinished game for userID in room.
func (m *Manager) busy(ctx context.Context, userID, room string) bool {
    g, _ := m.games.GetActiveGameByUserInRoom(ctx, userID, room)
    return g != nil
}
