package checkers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/domain"
	"github.com/park285/Cheese-Checkers-bot/internal/service/cache"
)

var (
	ErrSessionNotFound   = errors.New("checkers session not found")
	ErrSessionInProgress = errors.New("checkers session already in progress")
	ErrGameNotFound      = errors.New("checkers game not found")
	ErrProfileNotFound   = errors.New("checkers profile not found")
	ErrRoomNotAllowed    = errors.New("checkers room not allowed")
)

const (
	MethodResignation = "resignation"
	MethodBlocked     = "blocked"
)

const (
	profileCacheTTL       = 6 * time.Hour
	maxHistoryLimit       = 50
	playerLabelRuneLimit  = 24
	defaultHUDPlayerLabel = "Player"
)

type SessionMeta struct {
	SessionID string
	Room      string
	Sender    string
}

type sessionIdentity struct {
	SessionID  string
	RoomHash   string
	PlayerHash string
}

type Config struct {
	SessionTTL   time.Duration
	HistoryLimit int
	AllowedRooms []string
}

// Service runs hot-seat games: one chat user moves both colors. Sessions
// live in the cache as a move list and are replayed on every request.
type Service struct {
	cache        *cache.CacheService
	renderer     BoardRenderer
	repo         Repository
	cfg          Config
	allowedRooms map[string]struct{}
	logger       *zap.Logger
	now          func() time.Time
}

type sessionPayload struct {
	SessionUUID string    `json:"session_uuid"`
	PlayerHash  string    `json:"player_hash"`
	RoomHash    string    `json:"room_hash"`
	PlayerName  string    `json:"player_name,omitempty"`
	Moves       []string  `json:"moves"`
	Selected    string    `json:"selected,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SessionState struct {
	SessionUUID string
	PlayerName  string
	Moves       []string
	Board       *core.Board
	Turn        core.Color
	Score       core.Score
	Selection   core.Selection
	LastMove    *core.Move
	MoveCount   int
	DarkLeft    int
	LightLeft   int
	BoardImage  []byte
	Finished    bool
	Winner      core.Color
	Method      string
	GameID      int64
	Profile     *domain.CheckersProfile
	StartedAt   time.Time
	UpdatedAt   time.Time
}

type MoveSummary struct {
	State    *SessionState
	Move     core.Move
	Mover    core.Color
	Victim   core.Color
	Finished bool
	GameID   int64
	Profile  *domain.CheckersProfile
}

func NewService(cacheSvc *cache.CacheService, repo Repository, renderer BoardRenderer, cfg Config, logger *zap.Logger) (*Service, error) {
	if cacheSvc == nil {
		return nil, fmt.Errorf("cache service is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkers repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allowedRooms := make(map[string]struct{})
	for _, room := range cfg.AllowedRooms {
		normalized := strings.ToLower(strings.TrimSpace(room))
		if normalized == "" {
			continue
		}
		allowedRooms[normalized] = struct{}{}
	}

	return &Service{
		cache:    cacheSvc,
		renderer: renderer,
		repo:     repo,
		cfg: Config{
			SessionTTL:   cfg.SessionTTL,
			HistoryLimit: cfg.HistoryLimit,
			AllowedRooms: append([]string(nil), cfg.AllowedRooms...),
		},
		allowedRooms: allowedRooms,
		logger:       logger,
		now:          time.Now,
	}, nil
}

func (s *Service) HistoryLimit() int { return s.cfg.HistoryLimit }

// StartSession begins a new game. An existing game is returned together
// with ErrSessionInProgress.
func (s *Service) StartSession(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	identity := deriveIdentity(meta)

	existing, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		sess, err := replaySession(existing)
		if err != nil {
			return nil, err
		}
		return s.view(ctx, existing, sess, meta), ErrSessionInProgress
	}

	now := s.now()
	payload := &sessionPayload{
		SessionUUID: uuid.NewString(),
		PlayerHash:  identity.PlayerHash,
		RoomHash:    identity.RoomHash,
		PlayerName:  normalizeHUDPlayerLabel(meta.Sender),
		Moves:       []string{},
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.saveSession(ctx, identity.SessionID, payload); err != nil {
		return nil, err
	}

	state := s.stateFromSession(payload, core.NewSession())
	s.applyPlayerName(state, payload, meta)
	s.attachBoardImage(ctx, state)
	if profile, profErr := s.fetchProfile(ctx, identity, true); profErr == nil {
		state.Profile = profile
	}
	s.logger.Info("checkers_session_started",
		zap.String("session_uuid", payload.SessionUUID),
		zap.String("room_hash", identity.RoomHash),
	)
	return state, nil
}

func (s *Service) Status(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	_, payload, sess, err := s.active(ctx, meta)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, payload, sess, meta), nil
}

// Select marks the piece on square and returns its legal destinations in
// the state's Selection.
func (s *Service) Select(ctx context.Context, meta SessionMeta, square string) (*SessionState, error) {
	identity, payload, sess, err := s.active(ctx, meta)
	if err != nil {
		return nil, err
	}
	from, err := core.ParseSquare(square)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Select(from); err != nil {
		return nil, err
	}
	payload.Selected = from.String()
	if err := s.saveSession(ctx, identity.SessionID, payload); err != nil {
		return nil, err
	}
	return s.view(ctx, payload, sess, meta), nil
}

func (s *Service) Deselect(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	identity, payload, sess, err := s.active(ctx, meta)
	if err != nil {
		return nil, err
	}
	sess.Deselect()
	payload.Selected = ""
	if err := s.saveSession(ctx, identity.SessionID, payload); err != nil {
		return nil, err
	}
	state := s.stateFromSession(payload, sess)
	s.applyPlayerName(state, payload, meta)
	return state, nil
}

// Play applies one move for the side to move. input is either a full move
// ("b3-c4", "b3 c4", "b3xd5") or a single destination square that is
// combined with the current selection.
func (s *Service) Play(ctx context.Context, meta SessionMeta, input string) (*MoveSummary, error) {
	identity, payload, sess, err := s.active(ctx, meta)
	if err != nil {
		return nil, err
	}

	delta, err := playInput(sess, input)
	if err != nil {
		return nil, err
	}

	payload.Moves = append(payload.Moves, delta.Move.String())
	payload.Selected = ""

	summary := &MoveSummary{
		Move:   delta.Move,
		Mover:  delta.Mover,
		Victim: delta.Captured(),
	}

	if sess.Blocked() {
		state, err := s.finish(ctx, identity, payload, sess, meta, delta.Mover, MethodBlocked)
		if err != nil {
			return nil, err
		}
		summary.State = state
		summary.Finished = true
		summary.GameID = state.GameID
		summary.Profile = state.Profile
		return summary, nil
	}

	if err := s.saveSession(ctx, identity.SessionID, payload); err != nil {
		return nil, err
	}
	summary.State = s.view(ctx, payload, sess, meta)
	return summary, nil
}

func playInput(sess *core.Session, input string) (core.BoardDelta, error) {
	from, to, err := core.ParseMove(input)
	if err == nil {
		return sess.AttemptMove(from, to)
	}
	dest, sqErr := core.ParseSquare(input)
	if sqErr != nil {
		return core.BoardDelta{}, err
	}
	return sess.MoveSelected(dest)
}

// Resign ends the game in favour of the side not to move.
func (s *Service) Resign(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	identity, payload, sess, err := s.active(ctx, meta)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, identity, payload, sess, meta, sess.Turn().Opponent(), MethodResignation)
}

func (s *Service) History(ctx context.Context, meta SessionMeta, limit int) ([]*domain.CheckersGame, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.GetRecentGames(ctx, deriveIdentity(meta).PlayerHash, limit)
}

func (s *Service) Game(ctx context.Context, meta SessionMeta, id int64) (*domain.CheckersGame, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	game, err := s.repo.GetGame(ctx, id, deriveIdentity(meta).PlayerHash)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

func (s *Service) Profile(ctx context.Context, meta SessionMeta) (*domain.CheckersProfile, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	return s.fetchProfile(ctx, deriveIdentity(meta), true)
}

// GameBoard rebuilds the final position of an archived game for rendering.
func (s *Service) GameBoard(ctx context.Context, game *domain.CheckersGame) ([]byte, error) {
	if game == nil {
		return nil, ErrGameNotFound
	}
	board := &core.Board{}
	if err := board.UnmarshalText([]byte(game.FinalBoard)); err != nil {
		return nil, err
	}
	return s.renderer.RenderPNG(ctx, board, RenderOptions{
		Score:     core.Score{CapturedDark: game.CapturedDark, CapturedLight: game.CapturedLight},
		HUDHeader: fmt.Sprintf("#%d %s wins", game.ID, game.Winner),
	})
}

func (s *Service) ensureRoomAllowed(meta SessionMeta) error {
	if len(s.allowedRooms) == 0 {
		return nil
	}
	room := strings.ToLower(strings.TrimSpace(meta.Room))
	if room == "" {
		room = "unknown-room"
	}
	if _, ok := s.allowedRooms[room]; ok {
		return nil
	}
	s.logger.Info("checkers room access denied",
		zap.String("room", room),
		zap.String("sender", strings.TrimSpace(meta.Sender)),
	)
	return ErrRoomNotAllowed
}

// active loads and replays the caller's running game.
func (s *Service) active(ctx context.Context, meta SessionMeta) (sessionIdentity, *sessionPayload, *core.Session, error) {
	identity := deriveIdentity(meta)
	if err := s.ensureRoomAllowed(meta); err != nil {
		return identity, nil, nil, err
	}
	payload, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return identity, nil, nil, err
	}
	if payload == nil {
		return identity, nil, nil, ErrSessionNotFound
	}
	sess, err := replaySession(payload)
	if err != nil {
		return identity, nil, nil, err
	}
	return identity, payload, sess, nil
}

// view is the rendered state of a running game.
func (s *Service) view(ctx context.Context, payload *sessionPayload, sess *core.Session, meta SessionMeta) *SessionState {
	state := s.stateFromSession(payload, sess)
	s.applyPlayerName(state, payload, meta)
	s.attachBoardImage(ctx, state)
	return state
}

func (s *Service) sessionKey(sessionID string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(sessionID)))
	return "checkers:sessions:" + hex.EncodeToString(hash[:])
}

func (s *Service) profileCacheKey(identity sessionIdentity) string {
	return "checkers:profile:" + identity.PlayerHash + ":" + identity.RoomHash
}

func (s *Service) loadSession(ctx context.Context, sessionID string) (*sessionPayload, error) {
	payload := &sessionPayload{}
	if err := s.cache.Get(ctx, s.sessionKey(sessionID), payload); err != nil {
		return nil, err
	}
	if payload.SessionUUID == "" {
		return nil, nil
	}
	return payload, nil
}

func (s *Service) saveSession(ctx context.Context, sessionID string, payload *sessionPayload) error {
	if payload == nil {
		return fmt.Errorf("cannot save nil checkers session payload")
	}
	payload.UpdatedAt = s.now()
	return s.cache.Set(ctx, s.sessionKey(sessionID), payload, s.cfg.SessionTTL)
}

func (s *Service) deleteSession(ctx context.Context, sessionID string) error {
	return s.cache.Del(ctx, s.sessionKey(sessionID))
}

// replaySession rebuilds the engine state from the stored move list. A
// stale selection is dropped silently.
func replaySession(payload *sessionPayload) (*core.Session, error) {
	sess := core.NewSession()
	if err := sess.Replay(payload.Moves...); err != nil {
		return nil, fmt.Errorf("replay checkers session: %w", err)
	}
	if payload.Selected != "" {
		from, err := core.ParseSquare(payload.Selected)
		if err == nil {
			_, err = sess.Select(from)
		}
		if err != nil {
			payload.Selected = ""
		}
	}
	return sess, nil
}

func (s *Service) stateFromSession(payload *sessionPayload, sess *core.Session) *SessionState {
	snap := sess.Snapshot()
	return &SessionState{
		SessionUUID: payload.SessionUUID,
		PlayerName:  payload.PlayerName,
		Moves:       append([]string(nil), payload.Moves...),
		Board:       snap.Board,
		Turn:        snap.Turn,
		Score:       snap.Score,
		Selection:   snap.Selection,
		LastMove:    snap.LastMove,
		MoveCount:   snap.MoveCount,
		DarkLeft:    snap.Board.Count(core.Dark),
		LightLeft:   snap.Board.Count(core.Light),
		StartedAt:   payload.StartedAt,
		UpdatedAt:   payload.UpdatedAt,
	}
}

func normalizeHUDPlayerLabel(raw string) string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return ""
	}
	runes := []rune(cleaned)
	if len(runes) > playerLabelRuneLimit {
		return strings.TrimSpace(string(runes[:playerLabelRuneLimit])) + "..."
	}
	return cleaned
}

func (s *Service) applyPlayerName(state *SessionState, payload *sessionPayload, meta SessionMeta) {
	label := normalizeHUDPlayerLabel(payload.PlayerName)
	if label == "" {
		label = normalizeHUDPlayerLabel(meta.Sender)
	}
	if label == "" {
		label = defaultHUDPlayerLabel
	}
	state.PlayerName = label
	payload.PlayerName = label
}

func (s *Service) attachBoardImage(ctx context.Context, state *SessionState) {
	if state == nil || state.Board == nil || s.renderer == nil {
		return
	}
	opts := RenderOptions{
		LastMove:  state.LastMove,
		Score:     state.Score,
		HUDHeader: fmt.Sprintf("%s (hot-seat)", HUDLabel(state.PlayerName)),
		HUDTurn:   fmt.Sprintf("%s to move - #%d", state.Turn, state.MoveCount+1),
	}
	if state.Finished {
		opts.HUDTurn = fmt.Sprintf("%s wins (%s)", state.Winner, state.Method)
	}
	if state.Selection.Active() {
		from := state.Selection.From
		opts.Selected = &from
		opts.Destinations = state.Selection.Destinations()
	}
	data, err := s.renderer.RenderPNG(ctx, state.Board, opts)
	if err != nil {
		s.logger.Warn("failed to render checkers board image", zap.Error(err))
		return
	}
	state.BoardImage = data
}

// HUDLabel keeps what the bitmap HUD font can draw.
func HUDLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	if out := strings.TrimSpace(b.String()); out != "" {
		return out
	}
	return defaultHUDPlayerLabel
}

// finish archives the game, clears the session and returns the final state.
func (s *Service) finish(ctx context.Context, identity sessionIdentity, payload *sessionPayload, sess *core.Session, meta SessionMeta, winner core.Color, method string) (*SessionState, error) {
	state := s.stateFromSession(payload, sess)
	s.applyPlayerName(state, payload, meta)
	gameID, profile, err := s.persistFinishedGame(ctx, identity, payload, sess, winner, method)
	if err != nil {
		return nil, err
	}
	if err := s.deleteSession(ctx, identity.SessionID); err != nil {
		s.logger.Warn("failed to delete checkers session after finish", zap.Error(err))
	}
	s.logger.Info("checkers_game_finished",
		zap.Int64("game_id", gameID),
		zap.String("winner", winner.String()),
		zap.String("method", method),
		zap.Int("moves", len(payload.Moves)),
	)
	state.Finished = true
	state.Winner = winner
	state.Method = method
	state.GameID = gameID
	state.Profile = profile
	s.attachBoardImage(ctx, state)
	return state, nil
}

func (s *Service) persistFinishedGame(ctx context.Context, identity sessionIdentity, payload *sessionPayload, sess *core.Session, winner core.Color, method string) (int64, *domain.CheckersProfile, error) {
	snap := sess.Snapshot()
	finalBoard, err := snap.Board.MarshalText()
	if err != nil {
		return 0, nil, err
	}
	now := s.now()

	record := &domain.CheckersGame{
		SessionUUID:   payload.SessionUUID,
		PlayerHash:    identity.PlayerHash,
		RoomHash:      identity.RoomHash,
		PlayerName:    payload.PlayerName,
		Winner:        winner.String(),
		ResultMethod:  method,
		Moves:         append([]string(nil), payload.Moves...),
		FinalBoard:    string(finalBoard),
		CapturedDark:  snap.Score.CapturedDark,
		CapturedLight: snap.Score.CapturedLight,
		StartedAt:     payload.StartedAt,
		EndedAt:       now,
		Duration:      now.Sub(payload.StartedAt),
	}

	gameID, err := s.repo.InsertGame(ctx, record)
	if err != nil {
		if errors.Is(err, ErrDuplicateGame) {
			existing, fetchErr := s.repo.GetGameBySession(ctx, payload.SessionUUID, identity.PlayerHash)
			if fetchErr != nil || existing == nil {
				return 0, nil, err
			}
			profile, profErr := s.fetchProfile(ctx, identity, true)
			if profErr != nil && !errors.Is(profErr, ErrProfileNotFound) {
				return existing.ID, nil, profErr
			}
			return existing.ID, profile, nil
		}
		return 0, nil, err
	}

	profile, err := s.fetchProfile(ctx, identity, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return gameID, nil, err
	}
	profile = applyGameResult(profile, identity, record, now)
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return gameID, nil, err
	}
	s.cacheProfile(ctx, identity, profile)
	return gameID, profile, nil
}

func (s *Service) fetchProfile(ctx context.Context, identity sessionIdentity, allowCache bool) (*domain.CheckersProfile, error) {
	if allowCache {
		cached := &domain.CheckersProfile{}
		if err := s.cache.Get(ctx, s.profileCacheKey(identity), cached); err != nil {
			return nil, err
		}
		if cached.PlayerHash != "" {
			return cached, nil
		}
	}
	stored, err := s.repo.GetProfile(ctx, identity.PlayerHash, identity.RoomHash)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrProfileNotFound
	}
	s.cacheProfile(ctx, identity, stored)
	return stored, nil
}

func (s *Service) cacheProfile(ctx context.Context, identity sessionIdentity, profile *domain.CheckersProfile) {
	if profile == nil {
		return
	}
	if err := s.cache.Set(ctx, s.profileCacheKey(identity), profile, profileCacheTTL); err != nil {
		s.logger.Warn("failed to cache checkers profile", zap.Error(err))
	}
}

func applyGameResult(profile *domain.CheckersProfile, identity sessionIdentity, game *domain.CheckersGame, endedAt time.Time) *domain.CheckersProfile {
	if profile == nil {
		profile = &domain.CheckersProfile{
			PlayerHash: identity.PlayerHash,
			RoomHash:   identity.RoomHash,
			CreatedAt:  endedAt,
		}
	}
	profile.GamesPlayed++
	switch game.Winner {
	case core.Dark.String():
		profile.DarkWins++
	case core.Light.String():
		profile.LightWins++
	}
	if game.ResultMethod == MethodResignation {
		profile.Resignations++
	}
	profile.TotalCaptures += game.CapturedDark + game.CapturedLight
	profile.LastPlayedAt = endedAt
	profile.UpdatedAt = endedAt
	return profile
}

func deriveIdentity(meta SessionMeta) sessionIdentity {
	sessionID := strings.ToLower(strings.TrimSpace(meta.SessionID))
	room := strings.ToLower(strings.TrimSpace(meta.Room))
	sender := strings.ToLower(strings.TrimSpace(meta.Sender))

	return sessionIdentity{
		SessionID:  sessionID,
		RoomHash:   hashString(room),
		PlayerHash: hashString(room + ":" + sender),
	}
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
