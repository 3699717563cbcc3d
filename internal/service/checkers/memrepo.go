package checkers

import (
    "context"
    "sort"
    "strings"
    "sync"

    "github.com/park285/Cheese-Checkers-bot/internal/domain"
)

// memrepo keeps archived games in process memory; used when no DB is configured.
type memrepo struct {
    mu sync.RWMutex

    nextID int64

    gamesByID      map[int64]*domain.CheckersGame
    gamesByPlayer  map[string][]*domain.CheckersGame // playerHash -> games, latest last
    gamesBySession map[string]*domain.CheckersGame   // sessionUUID|playerHash -> game

    profiles map[string]*domain.CheckersProfile // playerHash|roomHash -> profile
}

func NewMemoryRepository() Repository {
    return &memrepo{
        gamesByID:      make(map[int64]*domain.CheckersGame),
        gamesByPlayer:  make(map[string][]*domain.CheckersGame),
        gamesBySession: make(map[string]*domain.CheckersGame),
        profiles:       make(map[string]*domain.CheckersProfile),
    }
}

func (m *memrepo) InsertGame(_ context.Context, game *domain.CheckersGame) (int64, error) {
    if game == nil {
        return 0, ErrDuplicateGame
    }
    key := joinKey(game.SessionUUID, game.PlayerHash)

    m.mu.Lock()
    defer m.mu.Unlock()
    if _, exists := m.gamesBySession[key]; exists {
        return 0, ErrDuplicateGame
    }
    m.nextID++
    stored := cloneGame(game)
    stored.ID = m.nextID

    m.gamesByID[stored.ID] = stored
    m.gamesBySession[key] = stored
    m.gamesByPlayer[game.PlayerHash] = append(m.gamesByPlayer[game.PlayerHash], stored)
    return stored.ID, nil
}

func (m *memrepo) GetRecentGames(_ context.Context, playerHash string, limit int) ([]*domain.CheckersGame, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    items := make([]*domain.CheckersGame, 0, len(m.gamesByPlayer[playerHash]))
    for _, g := range m.gamesByPlayer[playerHash] {
        items = append(items, cloneGame(g))
    }
    sortRecent(items)
    if limit > 0 && len(items) > limit {
        items = items[:limit]
    }
    return items, nil
}

func (m *memrepo) GetGame(_ context.Context, id int64, playerHash string) (*domain.CheckersGame, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    g, ok := m.gamesByID[id]
    if !ok || g.PlayerHash != playerHash {
        return nil, nil
    }
    return cloneGame(g), nil
}

func (m *memrepo) GetGameBySession(_ context.Context, sessionUUID string, playerHash string) (*domain.CheckersGame, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    if g, ok := m.gamesBySession[joinKey(sessionUUID, playerHash)]; ok {
        return cloneGame(g), nil
    }
    return nil, nil
}

func (m *memrepo) GetProfile(_ context.Context, playerHash string, roomHash string) (*domain.CheckersProfile, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    if p, ok := m.profiles[joinKey(playerHash, roomHash)]; ok {
        cp := *p
        return &cp, nil
    }
    return nil, nil
}

func (m *memrepo) UpsertProfile(_ context.Context, profile *domain.CheckersProfile) error {
    if profile == nil {
        return nil
    }
    cp := *profile
    m.mu.Lock()
    m.profiles[joinKey(profile.PlayerHash, profile.RoomHash)] = &cp
    m.mu.Unlock()
    return nil
}

func joinKey(a, b string) string {
    return strings.TrimSpace(a) + "|" + strings.TrimSpace(b)
}

func cloneGame(g *domain.CheckersGame) *domain.CheckersGame {
    cp := *g
    cp.Moves = append([]string(nil), g.Moves...)
    return &cp
}

// sortRecent orders by EndedAt desc, then ID desc.
func sortRecent(items []*domain.CheckersGame) {
    sort.Slice(items, func(i, j int) bool {
        if !items[i].EndedAt.Equal(items[j].EndedAt) {
            return items[i].EndedAt.After(items[j].EndedAt)
        }
        return items[i].ID > items[j].ID
    })
}
