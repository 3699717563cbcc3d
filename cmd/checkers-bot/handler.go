package main

import (
    "context"
    "encoding/base64"
    "errors"
    "fmt"
    "strconv"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/park285/Cheese-Checkers-bot/internal/adapter/checkerspresenter"
    "github.com/park285/Cheese-Checkers-bot/internal/checkersbuilder"
    appcfg "github.com/park285/Cheese-Checkers-bot/internal/config"
    "github.com/park285/Cheese-Checkers-bot/internal/irisfast"
    "github.com/park285/Cheese-Checkers-bot/internal/pvp"
    "github.com/park285/Cheese-Checkers-bot/internal/pvpchan"
    "github.com/park285/Cheese-Checkers-bot/internal/pvpcheckers"
    svccheckers "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
    "github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

const commandTimeout = 15 * time.Second

type bot struct {
    cfg        *appcfg.AppConfig
    checkers   *svccheckers.Service
    games      *pvpcheckers.Manager
    lobby      *pvpchan.Manager
    challenges *pvp.Manager
    out        irisfast.Egress
    presenter  *checkerspresenter.Presenter
    formatter  *checkerspresenter.Formatter
    sem        chan struct{}
    log        *zap.Logger
}

func newBot(cfg *appcfg.AppConfig, deps *checkersbuilder.Deps, out irisfast.Egress, logger *zap.Logger) *bot {
    if logger == nil { logger = zap.NewNop() }
    b := &bot{
        cfg:        cfg,
        checkers:   deps.Service,
        games:      deps.PvP,
        lobby:      deps.Lobby,
        challenges: deps.Challenges,
        out:        out,
        formatter:  checkerspresenter.NewFormatter(prefixProvider{prefix: cfg.BotPrefix}, deps.Messages),
        sem:        make(chan struct{}, max(cfg.MaxConcurrentGames, 1)),
        log:        logger,
    }
    b.presenter = checkerspresenter.NewPresenter(out)
    return b
}

// dispatch filters a message and runs the command in its own goroutine,
// bounded by MaxConcurrentGames.
func (b *bot) dispatch(msg *irisfast.Message) {
    if msg == nil || msg.Msg == "" {
        return
    }
    if !b.cfg.RoomAllowed(msg.Room) {
        b.log.Debug("ignore_room", zap.String("room", msg.Room))
        return
    }
    if !strings.HasPrefix(strings.TrimSpace(msg.Msg), b.cfg.BotPrefix) {
        return
    }
    select {
    case b.sem <- struct{}{}:
    default:
        b.log.Warn("command_dropped_busy", zap.String("room", msg.Room))
        return
    }
    go func() {
        defer func() { <-b.sem }()
        ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
        defer cancel()
        b.handle(ctx, msg)
    }()
}

func (b *bot) handle(ctx context.Context, msg *irisfast.Message) {
    raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg.Msg), b.cfg.BotPrefix))
    if raw == "" {
        b.reply(ctx, msg.Room, helpText(b.cfg))
        return
    }
    parts := strings.Fields(raw)
    cmd := strings.ToLower(parts[0])
    args := parts[1:]

    switch cmd {
    case "help", "도움말":
        b.reply(ctx, msg.Room, helpText(b.cfg))
    case "pvp":
        b.handlePvp(ctx, msg, args)
    case "체커", "checkers":
        b.handleCheckers(ctx, msg, args)
    default:
        b.reply(ctx, msg.Room, "Unknown command. Try 'help'.")
    }
}

func helpText(cfg *appcfg.AppConfig) string {
    p := cfg.BotPrefix
    return strings.Join([]string{
        "⛀ Kakao Checkers Bot",
        "",
        "• " + p + "체커 시작",
        "  혼자 두는 체커 (명령: 선택, <출발> <도착>, 취소, 현황, 기권, 기록, 기보, 프로필)",
        "• " + p + "pvp @상대 [흑|백|랜덤]",
        "  PvP 대국 신청 (상대는 pvp 수락 / pvp 거절)",
        "• " + p + "pvp 방만들기 [흑|백|랜덤] / pvp 참가 <코드> / pvp 로비",
    }, "\n")
}

// Checkers (hot-seat) commands

func (b *bot) handleCheckers(ctx context.Context, msg *irisfast.Message, args []string) {
    meta := svccheckers.SessionMeta{
        SessionID: sessionIDFor(msg),
        Room:      msg.Room,
        Sender:    senderName(msg),
    }
    if len(args) == 0 {
        b.reply(ctx, msg.Room, b.formatter.Help(b.checkers.HistoryLimit()))
        return
    }
    sub := strings.ToLower(strings.TrimSpace(args[0]))

    switch sub {
    case "도움", "help":
        b.reply(ctx, msg.Room, b.formatter.Help(b.checkers.HistoryLimit()))
    case "시작", "start":
        state, err := b.checkers.StartSession(ctx, meta)
        resumed := errors.Is(err, svccheckers.ErrSessionInProgress)
        if err != nil && !resumed {
            b.fail(ctx, msg.Room, err)
            return
        }
        dto := checkerspresenter.ToDTOState(state)
        b.board(ctx, msg.Room, b.formatter.Start(dto, resumed), dto)
    case "현황", "status":
        state, err := b.checkers.Status(ctx, meta)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        dto := checkerspresenter.ToDTOState(state)
        b.board(ctx, msg.Room, b.formatter.Status(dto), dto)
    case "선택", "select":
        square := ""
        if len(args) >= 2 { square = args[1] }
        state, err := b.checkers.Select(ctx, meta, square)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        dto := checkerspresenter.ToDTOState(state)
        b.board(ctx, msg.Room, b.formatter.Select(dto), dto)
    case "취소", "cancel":
        state, err := b.checkers.Deselect(ctx, meta)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        dto := checkerspresenter.ToDTOState(state)
        b.board(ctx, msg.Room, b.formatter.Deselect(), dto)
    case "기권", "resign":
        state, err := b.checkers.Resign(ctx, meta)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        dto := checkerspresenter.ToDTOState(state)
        b.board(ctx, msg.Room, b.formatter.Resign(dto), dto)
    case "기록", "history":
        limit := 0
        if len(args) >= 2 {
            if n, err := strconv.Atoi(args[1]); err == nil && n > 0 { limit = n }
        }
        games, err := b.checkers.History(ctx, meta, limit)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        b.reply(ctx, msg.Room, b.formatter.History(checkerspresenter.ToDTOGames(games)))
    case "기보", "game":
        if len(args) < 2 { b.reply(ctx, msg.Room, "용법: "+b.cfg.BotPrefix+"체커 기보 <ID>"); return }
        id, err := strconv.ParseInt(strings.TrimPrefix(args[1], "#"), 10, 64)
        if err != nil { b.reply(ctx, msg.Room, "잘못된 ID"); return }
        game, err := b.checkers.Game(ctx, meta, id)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        text := b.formatter.Game(checkerspresenter.ToDTOGame(game))
        img, err := b.checkers.GameBoard(ctx, game)
        if err != nil {
            b.log.Warn("game_board_render", zap.Int64("game_id", id), zap.Error(err))
            b.reply(ctx, msg.Room, text)
            return
        }
        b.reply(ctx, msg.Room, text)
        _ = b.out.SendImage(ctx, msg.Room, base64.StdEncoding.EncodeToString(img))
    case "프로필", "profile":
        profile, err := b.checkers.Profile(ctx, meta)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        b.reply(ctx, msg.Room, b.formatter.Profile(checkerspresenter.ToDTOProfile(profile)))
    default:
        // "<from> <to>", "b3-c4" or a bare destination after 선택
        summary, err := b.checkers.Play(ctx, meta, strings.Join(args, " "))
        if err != nil { b.fail(ctx, msg.Room, err); return }
        dto := checkerspresenter.ToDTOMoveSummary(summary)
        b.board(ctx, msg.Room, b.formatter.Move(dto), dto.State)
    }
}

// PvP commands

func (b *bot) handlePvp(ctx context.Context, msg *irisfast.Message, args []string) {
    if len(args) < 1 {
        b.reply(ctx, msg.Room, b.formatter.PvPUsage())
        return
    }
    user := userIDFromMessage(msg)
    if user == "" {
        b.reply(ctx, msg.Room, "Cannot identify user.")
        return
    }

    if strings.HasPrefix(args[0], "@") {
        b.pvpChallenge(ctx, msg, user, args)
        return
    }

    sub := strings.ToLower(strings.TrimSpace(args[0]))
    switch sub {
    case "수락", "accept":
        ch, err := b.resolveChallenge(msg, user, b.challenges.Accept)
        if err != nil { b.reply(ctx, msg.Room, b.formatter.NoPendingChallenge()); return }
        g, err := b.games.CreateGameFromChallenge(ctx, ch.OriginRoom, ch.ResolveRoom, ch.ChallengerID, ch.ChallengerName, user, senderName(msg), string(ch.Color))
        if err != nil { b.fail(ctx, msg.Room, err); return }
        b.broadcastGame(ctx, g, b.formatter.PvPStart(nil, g.DarkName, g.LightName))
    case "거절", "decline":
        ch, err := b.resolveChallenge(msg, user, b.challenges.Decline)
        if err != nil { b.reply(ctx, msg.Room, b.formatter.NoPendingChallenge()); return }
        b.reply(ctx, ch.OriginRoom, b.formatter.ChallengeDeclined(senderName(msg)))
    case "방만들기", "make":
        color := pvpchan.ColorRandom
        if len(args) >= 2 { color = pvpchan.ParseColorChoice(args[1]) }
        res, err := b.lobby.Make(ctx, msg.Room, user, senderName(msg), color)
        if err != nil { b.reply(ctx, msg.Room, b.formatter.LobbyError(err)); return }
        b.reply(ctx, msg.Room, b.formatter.LobbyCreated(res.Code))
    case "참가", "join":
        if len(args) < 2 { b.reply(ctx, msg.Room, b.formatter.PvPUsage()); return }
        res, err := b.lobby.Join(ctx, msg.Room, args[1], user, senderName(msg))
        if err != nil { b.reply(ctx, msg.Room, b.formatter.LobbyError(err)); return }
        if !res.Started {
            b.reply(ctx, msg.Room, b.formatter.LobbyJoined(res.Meta.ID))
            return
        }
        g, err := b.games.LoadGame(ctx, res.GameID)
        if err != nil || g == nil { b.fail(ctx, msg.Room, pvpcheckers.ErrGameGone); return }
        b.broadcastGame(ctx, g, b.formatter.LobbyJoined(res.Meta.ID)+"\n"+b.formatter.PvPStart(nil, g.DarkName, g.LightName))
    case "로비", "lobby":
        list, err := b.lobby.ListLobby(ctx)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        b.reply(ctx, msg.Room, b.formatter.Lobby(list))
    case "방취소", "unmake":
        meta, err := b.lobby.Cancel(ctx, user)
        if err != nil { b.reply(ctx, msg.Room, b.formatter.LobbyError(err)); return }
        b.reply(ctx, msg.Room, b.formatter.LobbyCancelled(meta.ID))
    case "현황", "status":
        g, err := b.games.GetActiveGameByUserInRoom(ctx, user, msg.Room)
        if err != nil || g == nil { b.reply(ctx, msg.Room, b.noGame()); return }
        dto, err := b.games.ToDTOForViewer(ctx, g, user)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        b.board(ctx, msg.Room, b.formatter.PvPTurn(g.DarkName, g.LightName, string(g.Turn)), dto)
    case "기권", "resign":
        g, text, err := b.games.ResignByRoom(ctx, user, msg.Room)
        if err != nil { b.fail(ctx, msg.Room, err); return }
        if g == nil { b.reply(ctx, msg.Room, b.noGame()); return }
        b.broadcastGame(ctx, g, text)
    default:
        before, err := b.games.GetActiveGameByUserInRoom(ctx, user, msg.Room)
        if err != nil || before == nil { b.reply(ctx, msg.Room, b.noGame()); return }
        g, text, err := b.games.PlayMoveByRoom(ctx, user, msg.Room, strings.Join(args, " "))
        if err != nil { b.fail(ctx, msg.Room, err); return }
        if g == nil { b.reply(ctx, msg.Room, b.noGame()); return }
        if len(g.Moves) <= len(before.Moves) {
            // rejected: only the mover's room hears about it
            b.reply(ctx, msg.Room, text)
            return
        }
        if g.Status == pvpcheckers.StatusActive {
            text += "\n" + b.formatter.PvPTurn(g.DarkName, g.LightName, string(g.Turn))
        }
        b.broadcastGame(ctx, g, text)
    }
}

func (b *bot) pvpChallenge(ctx context.Context, msg *irisfast.Message, user string, args []string) {
    target := sanitizeUserArg(args[0])
    if target == "" {
        b.reply(ctx, msg.Room, "Invalid target user.")
        return
    }
    if busy, _ := b.games.GetActiveGameByUserInRoom(ctx, user, msg.Room); busy != nil {
        b.reply(ctx, msg.Room, b.formatter.LobbyError(pvpchan.ErrPlayerBusyInRoom))
        return
    }
    color := pvp.ColorRandom
    if len(args) >= 2 { color = pvp.ParseColorChoice(args[1]) }
    ch, err := b.challenges.CreateChallenge(msg.Room, user, senderName(msg), target, target, color)
    if err != nil {
        b.reply(ctx, msg.Room, "PvP error: "+err.Error())
        return
    }
    b.reply(ctx, msg.Room, b.formatter.Challenge(ch.ChallengerName, ch.TargetName))
}

// resolveChallenge matches the pending challenge by user id first, then by
// display name, since mentions carry the name the challenger typed.
func (b *bot) resolveChallenge(msg *irisfast.Message, user string, fn func(targetID, room string) (*pvp.Challenge, error)) (*pvp.Challenge, error) {
    ch, err := fn(user, msg.Room)
    if err == nil || !errors.Is(err, pvp.ErrNoPendingForUser) {
        return ch, err
    }
    if name := strings.TrimSpace(msg.SenderName()); name != "" && name != user {
        return fn(name, msg.Room)
    }
    return nil, err
}

// broadcastGame sends the board to both bound rooms, each rendered from the
// Dark side.
func (b *bot) broadcastGame(ctx context.Context, g *pvpcheckers.Game, text string) {
    dto, err := b.games.ToDTO(ctx, g)
    if err != nil {
        b.log.Warn("pvp_render", zap.String("game_id", g.ID), zap.Error(err))
        for _, room := range []string{g.OriginRoom, g.ResolveRoom} {
            b.reply(ctx, room, text)
        }
        return
    }
    if err := b.presenter.Broadcast(ctx, []string{g.OriginRoom, g.ResolveRoom}, text, dto); err != nil {
        b.log.Warn("pvp_broadcast", zap.String("game_id", g.ID), zap.Error(err))
    }
}

func (b *bot) noGame() string {
    return b.formatter.PvPNoGame()
}

// output helpers

func (b *bot) reply(ctx context.Context, room, text string) {
    if strings.TrimSpace(room) == "" || strings.TrimSpace(text) == "" {
        return
    }
    if err := b.out.SendText(ctx, room, text); err != nil {
        b.log.Warn("send_text", zap.String("room", room), zap.Error(err))
    }
}

func (b *bot) board(ctx context.Context, room, text string, state *checkersdto.SessionState) {
    if err := b.presenter.Board(ctx, room, text, state); err != nil {
        b.log.Warn("send_board", zap.String("room", room), zap.Error(err))
    }
}

func (b *bot) fail(ctx context.Context, room string, err error) {
    if errors.Is(err, pvpcheckers.ErrNotInGame) || errors.Is(err, pvpcheckers.ErrNotInRoom) {
        b.reply(ctx, room, b.noGame())
        return
    }
    b.log.Debug("command_error", zap.String("room", room), zap.Error(err))
    b.reply(ctx, room, b.formatter.Error(err))
}

// identity helpers

func userIDFromMessage(msg *irisfast.Message) string {
    return strings.TrimSpace(msg.UserID())
}

func sessionIDFor(msg *irisfast.Message) string {
    uid := userIDFromMessage(msg)
    if uid == "" { uid = senderName(msg) }
    return fmt.Sprintf("%s:%s", strings.TrimSpace(msg.Room), uid)
}

func senderName(msg *irisfast.Message) string {
    if name := strings.TrimSpace(msg.SenderName()); name != "" {
        return name
    }
    if uid := userIDFromMessage(msg); uid != "" {
        return uid
    }
    return "player"
}

func sanitizeUserArg(s string) string {
    return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }
