package pvpchan

import (
    "context"
    "crypto/rand"
    "encoding/json"
    "errors"
    "sort"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

const channelTTL = 24 * time.Hour

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// channelKeys names every Redis key belonging to one lobby code.
type channelKeys struct{ meta, rooms, members, names string }

func keysFor(code string) channelKeys {
    base := "ch:" + strings.TrimSpace(code)
    return channelKeys{meta: base, rooms: base + ":rooms", members: base + ":participants", names: base + ":names"}
}

func userIndexKey(userID string) string { return "ch:index:user:" + strings.TrimSpace(userID) }

const lobbyIndexKey = "ch:lobby"

// Store persists lobby channels. Every key expires channelTTL after its last write.
type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// Create claims a fresh code for meta and registers the creator as the first
// participant. It returns false when the code is taken.
func (s *Store) Create(ctx context.Context, meta *ChannelMeta) (bool, error) {
    raw, err := json.Marshal(meta)
    if err != nil { return false, err }
    k := keysFor(meta.ID)
    ok, err := s.rdb.SetNX(ctx, k.meta, raw, channelTTL).Result()
    if err != nil || !ok { return false, err }
    _, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
        s.enter(ctx, p, meta.ID, meta.CreatorRoom, meta.CreatorID, meta.CreatorName)
        p.SAdd(ctx, lobbyIndexKey, meta.ID)
        p.Expire(ctx, lobbyIndexKey, channelTTL)
        return nil
    })
    return err == nil, err
}

// Join adds userID to the channel unless two other players already hold it.
// It returns the participant ids after the join.
func (s *Store) Join(ctx context.Context, code, room, userID, name string) ([]string, error) {
    k := keysFor(code)
    var members []string
    err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
        current, err := tx.SMembers(ctx, k.members).Result()
        if err != nil { return err }
        in := false
        for _, id := range current {
            if id == userID { in = true }
        }
        if !in && len(current) >= 2 { return ErrFull }
        _, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
            s.enter(ctx, p, code, room, userID, name)
            return nil
        })
        if err != nil { return err }
        members = current
        if !in { members = append(members, userID) }
        return nil
    }, k.members)
    if err != nil { return nil, err }
    sort.Strings(members)
    return members, nil
}

func (s *Store) enter(ctx context.Context, p redis.Pipeliner, code, room, userID, name string) {
    k := keysFor(code)
    if room = strings.TrimSpace(room); room != "" {
        p.SAdd(ctx, k.rooms, room)
        p.Expire(ctx, k.rooms, channelTTL)
    }
    p.SAdd(ctx, k.members, userID)
    p.HSet(ctx, k.names, userID, strings.TrimSpace(name))
    p.SAdd(ctx, userIndexKey(userID), code)
    for _, key := range []string{k.members, k.names, userIndexKey(userID)} {
        p.Expire(ctx, key, channelTTL)
    }
}

// Save overwrites meta and drops it from the lobby index once it leaves StateLobby.
func (s *Store) Save(ctx context.Context, meta *ChannelMeta) error {
    raw, err := json.Marshal(meta)
    if err != nil { return err }
    _, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
        p.Set(ctx, keysFor(meta.ID).meta, raw, channelTTL)
        if meta.State != StateLobby { p.SRem(ctx, lobbyIndexKey, meta.ID) }
        return nil
    })
    return err
}

// Load returns nil, nil for an unknown or expired code.
func (s *Store) Load(ctx context.Context, code string) (*ChannelMeta, error) {
    raw, err := s.rdb.Get(ctx, keysFor(code).meta).Bytes()
    if errors.Is(err, redis.Nil) { return nil, nil }
    if err != nil { return nil, err }
    return decodeMeta(raw)
}

func decodeMeta(raw []byte) (*ChannelMeta, error) {
    var m ChannelMeta
    if err := json.Unmarshal(raw, &m); err != nil { return nil, err }
    return &m, nil
}

func (s *Store) Rooms(ctx context.Context, code string) ([]string, error) {
    rooms, err := s.rdb.SMembers(ctx, keysFor(code).rooms).Result()
    sort.Strings(rooms)
    return rooms, err
}

// Name is the display name userID gave when entering the channel.
func (s *Store) Name(ctx context.Context, code, userID string) string {
    v, _ := s.rdb.HGet(ctx, keysFor(code).names, userID).Result()
    return v
}

// ChannelsOf loads every live channel userID has entered.
func (s *Store) ChannelsOf(ctx context.Context, userID string) ([]*ChannelMeta, error) {
    codes, err := s.rdb.SMembers(ctx, userIndexKey(userID)).Result()
    if err != nil { return nil, err }
    return s.loadMany(ctx, codes)
}

// Lobby returns waiting channels, oldest first.
func (s *Store) Lobby(ctx context.Context) ([]*ChannelMeta, error) {
    codes, err := s.rdb.SMembers(ctx, lobbyIndexKey).Result()
    if err != nil { return nil, err }
    all, err := s.loadMany(ctx, codes)
    if err != nil { return nil, err }
    out := all[:0]
    for _, m := range all {
        if m.State == StateLobby { out = append(out, m) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
    return out, nil
}

func (s *Store) loadMany(ctx context.Context, codes []string) ([]*ChannelMeta, error) {
    if len(codes) == 0 { return nil, nil }
    keys := make([]string, len(codes))
    for i, c := range codes { keys[i] = keysFor(c).meta }
    vals, err := s.rdb.MGet(ctx, keys...).Result()
    if err != nil { return nil, err }
    out := make([]*ChannelMeta, 0, len(vals))
    for _, v := range vals {
        raw, ok := v.(string)
        if !ok { continue }
        if m, err := decodeMeta([]byte(raw)); err == nil && m.ID != "" { out = append(out, m) }
    }
    return out, nil
}

// newCode returns "CH-" and six characters without the look-alikes 0/O and 1/I.
func newCode() (string, error) {
    b := make([]byte, 6)
    if _, err := rand.Read(b); err != nil { return "", err }
    for i := range b { b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)] }
    return "CH-" + string(b), nil
}
