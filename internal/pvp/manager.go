package pvp

import (
    "errors"
    "sync"
    "time"

    "github.com/google/uuid"
)

var (
    ErrInvalidArgs      = errors.New("invalid arguments")
    ErrSelfChallenge    = errors.New("cannot challenge yourself")
    ErrAlreadyPending   = errors.New("target already has a pending challenge")
    ErrNoPendingForUser = errors.New("no pending challenge for target user")
)

const defaultChallengeTTL = 10 * time.Minute

// Manager keeps pending challenges in memory. A challenge stays PENDING until
// the target accepts or declines, or until it expires.
type Manager struct {
    mu sync.Mutex
    // targetID -> list of challenges (append-only; last is latest)
    byTarget map[string][]*Challenge
    ttl      time.Duration
    now      func() time.Time
}

func NewManager() *Manager {
    return &Manager{byTarget: make(map[string][]*Challenge), ttl: defaultChallengeTTL, now: time.Now}
}

// SetTTL changes how long a challenge may stay pending.
func (m *Manager) SetTTL(d time.Duration) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if d > 0 { m.ttl = d }
}

func (m *Manager) CreateChallenge(originRoom, challengerID, challengerName, targetID, targetName string, color ColorChoice) (*Challenge, error) {
    if originRoom == "" || challengerID == "" || targetID == "" {
        return nil, ErrInvalidArgs
    }
    if challengerID == targetID {
        return nil, ErrSelfChallenge
    }

    m.mu.Lock()
    defer m.mu.Unlock()

    list := m.prune(targetID)
    if idx := latestPendingIndex(list); idx >= 0 {
        return nil, ErrAlreadyPending
    }
    ch := &Challenge{
        ID:             uuid.NewString(),
        OriginRoom:     originRoom,
        ChallengerID:   challengerID,
        ChallengerName: challengerName,
        TargetID:       targetID,
        TargetName:     targetName,
        Color:          color,
        CreatedAt:      m.now(),
        Status:         StatusPending,
    }
    m.byTarget[targetID] = append(list, ch)
    return ch, nil
}

// Pending returns the latest pending challenge addressed to targetID.
func (m *Manager) Pending(targetID string) *Challenge {
    m.mu.Lock()
    defer m.mu.Unlock()
    list := m.prune(targetID)
    if idx := latestPendingIndex(list); idx >= 0 {
        c := *list[idx]
        return &c
    }
    return nil
}

func (m *Manager) Accept(targetID, acceptRoom string) (*Challenge, error) {
    return m.resolve(targetID, acceptRoom, StatusAccepted)
}

func (m *Manager) Decline(targetID, declineRoom string) (*Challenge, error) {
    return m.resolve(targetID, declineRoom, StatusDeclined)
}

func (m *Manager) resolve(targetID, room string, status Status) (*Challenge, error) {
    if targetID == "" {
        return nil, ErrInvalidArgs
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    list := m.prune(targetID)
    if idx := latestPendingIndex(list); idx >= 0 {
        ch := list[idx]
        ch.Status = status
        ch.ResolveRoom = room
        c := *ch
        return &c, nil
    }
    return nil, ErrNoPendingForUser
}

// prune marks stale challenges expired and drops resolved history. Caller holds mu.
func (m *Manager) prune(targetID string) []*Challenge {
    list := m.byTarget[targetID]
    cutoff := m.now().Add(-m.ttl)
    kept := list[:0]
    for _, c := range list {
        if c.Status == StatusPending && c.CreatedAt.Before(cutoff) {
            c.Status = StatusExpired
        }
        if c.Status == StatusPending {
            kept = append(kept, c)
        }
    }
    if len(kept) == 0 {
        delete(m.byTarget, targetID)
        return nil
    }
    m.byTarget[targetID] = kept
    return kept
}

func latestPendingIndex(list []*Challenge) int {
    for i := len(list) - 1; i >= 0; i-- {
        if list[i].Status == StatusPending {
            return i
        }
    }
    return -1
}
