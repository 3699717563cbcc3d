package checkerspresenter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/msgcat"
	"github.com/park285/Cheese-Checkers-bot/internal/pvpchan"
	svc "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/util"
	"github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

const recentMovesLimit = 6

// PrefixProvider exposes the Prefix that Kakao messages should use.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders checkers DTOs into Kakao-friendly text blocks.
type Formatter struct {
	prefixProvider PrefixProvider
	msgs           *msgcat.Catalog
}

func NewFormatter(provider PrefixProvider, msgs *msgcat.Catalog) *Formatter {
	if msgs == nil {
		msgs = msgcat.MustDefault()
	}
	return &Formatter{prefixProvider: provider, msgs: msgs}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

func (f *Formatter) text(key string, data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Prefix"]; !ok {
		data["Prefix"] = f.Prefix()
	}
	return f.msgs.Text(key, data, key)
}

func (f *Formatter) Help(limit int) string {
	header := f.text("checkers.help.header", nil)
	body := f.text("checkers.help.body", map[string]any{"Limit": limit})
	return util.SeeMore(body, header)
}

func (f *Formatter) Start(state *checkersdto.SessionState, resumed bool) string {
	if resumed {
		var sb strings.Builder
		sb.WriteString(f.text("checkers.start.resumed", nil))
		sb.WriteString("\n")
		f.appendProgress(&sb, state)
		sb.WriteString(f.turnLine(state))
		return strings.TrimRight(sb.String(), "\n")
	}
	return f.text("checkers.start.new", nil)
}

func (f *Formatter) Select(state *checkersdto.SessionState) string {
	if state == nil || state.Selected == "" {
		return f.text("checkers.select.cleared", nil)
	}
	if len(state.Destinations) == 0 {
		return f.text("checkers.select.no_moves", map[string]any{"Square": state.Selected})
	}
	return f.text("checkers.select.with_moves", map[string]any{
		"Square":       state.Selected,
		"Destinations": strings.Join(state.Destinations, ", "),
	})
}

func (f *Formatter) Deselect() string {
	return f.text("checkers.select.cleared", nil)
}

func (f *Formatter) Move(summary *checkersdto.MoveSummary) string {
	if summary == nil || summary.State == nil {
		return ""
	}
	var sb strings.Builder
	data := map[string]any{"Mover": f.colorName(summary.Mover), "Move": summary.Move}
	if summary.Victim != "" {
		data["Victim"] = f.colorName(summary.Victim)
		sb.WriteString(f.text("checkers.move.capture", data))
	} else {
		sb.WriteString(f.text("checkers.move.simple", data))
	}
	sb.WriteString("\n")
	if summary.Finished {
		sb.WriteString(f.finishText(summary.State))
		return sb.String()
	}
	sb.WriteString(f.turnLine(summary.State))
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Status(state *checkersdto.SessionState) string {
	if state == nil {
		return f.NoSession()
	}
	var sb strings.Builder
	sb.WriteString(f.text("checkers.status.header", nil))
	sb.WriteString("\n")
	f.appendProgress(&sb, state)
	if state.Selected != "" {
		sb.WriteString(f.Select(state))
		sb.WriteString("\n")
	}
	sb.WriteString(f.turnLine(state))
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Resign(state *checkersdto.SessionState) string {
	if state == nil {
		return f.NoSession()
	}
	return f.finishText(state)
}

func (f *Formatter) History(games []*checkersdto.CheckersGame) string {
	if len(games) == 0 {
		return f.text("checkers.history.empty", nil)
	}
	header := f.text("checkers.history.header", nil)
	var sb strings.Builder
	for _, game := range games {
		sb.WriteString(f.text("checkers.history.line", map[string]any{
			"ID":      game.ID,
			"Result":  f.resultBadge(game.Winner),
			"Date":    formatShortTime(game.EndedAt),
			"Moves":   len(game.Moves),
			"ByDark":  game.CapturedLight,
			"ByLight": game.CapturedDark,
		}))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(f.text("checkers.history.footer", nil))
	return util.SeeMore(sb.String(), header)
}

func (f *Formatter) Game(game *checkersdto.CheckersGame) string {
	if game == nil {
		return f.text("checkers.errors.game_not_found", nil)
	}
	var sb strings.Builder
	sb.WriteString(f.text("checkers.game.header", map[string]any{"ID": game.ID}))
	sb.WriteString("\n")
	sb.WriteString(f.text("checkers.game.result", map[string]any{
		"Result": f.resultBadge(game.Winner),
		"Method": f.methodName(game.ResultMethod),
	}))
	sb.WriteString("\n")
	if !game.StartedAt.IsZero() {
		sb.WriteString(f.text("checkers.game.started", map[string]any{"Date": formatShortTime(game.StartedAt)}))
		sb.WriteString("\n")
	}
	if !game.EndedAt.IsZero() {
		sb.WriteString(f.text("checkers.game.ended", map[string]any{"Date": formatShortTime(game.EndedAt)}))
		sb.WriteString("\n")
	}
	if d := formatGameDuration(game.Duration); d != "" {
		sb.WriteString(f.text("checkers.game.duration", map[string]any{"Duration": d}))
		sb.WriteString("\n")
	}
	sb.WriteString(f.text("checkers.status.score", map[string]any{"ByDark": game.CapturedLight, "ByLight": game.CapturedDark}))
	sb.WriteString("\n")
	if len(game.Moves) > 0 {
		sb.WriteString(f.text("checkers.game.moves", map[string]any{"Moves": numberedMoves(game.Moves)}))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Profile(profile *checkersdto.CheckersProfile) string {
	if profile == nil {
		return f.text("checkers.profile.empty", nil)
	}
	var sb strings.Builder
	sb.WriteString(f.text("checkers.profile.games", map[string]any{
		"Games":     profile.GamesPlayed,
		"DarkWins":  profile.DarkWins,
		"LightWins": profile.LightWins,
	}))
	sb.WriteString("\n")
	sb.WriteString(f.text("checkers.profile.resignations", map[string]any{"Resignations": profile.Resignations}))
	sb.WriteString("\n")
	sb.WriteString(f.text("checkers.profile.captures", map[string]any{"Captures": profile.TotalCaptures}))
	sb.WriteString("\n")
	if !profile.LastPlayedAt.IsZero() {
		sb.WriteString(f.text("checkers.profile.last", map[string]any{"Date": formatShortTime(profile.LastPlayedAt)}))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(f.text("checkers.profile.footer", nil))
	return util.SeeMore(sb.String(), f.text("checkers.profile.header", nil))
}

func (f *Formatter) NoSession() string {
	return f.text("checkers.no_session", nil)
}

// Error maps service and rule errors to user-facing text.
func (f *Formatter) Error(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, svc.ErrSessionNotFound):
		return f.NoSession()
	case errors.Is(err, core.ErrIllegalMove):
		return f.text("checkers.errors.illegal_move", nil)
	case errors.Is(err, core.ErrNotOwnPiece):
		return f.text("checkers.errors.not_own_piece", nil)
	case errors.Is(err, core.ErrEmptySelection):
		return f.text("checkers.errors.empty_selection", nil)
	case errors.Is(err, core.ErrOutOfBounds):
		return f.text("checkers.errors.out_of_bounds", nil)
	case errors.Is(err, core.ErrBadNotation):
		return f.text("checkers.errors.bad_notation", nil)
	case errors.Is(err, svc.ErrRoomNotAllowed):
		return f.text("checkers.errors.room_not_allowed", nil)
	case errors.Is(err, svc.ErrGameNotFound):
		return f.text("checkers.errors.game_not_found", nil)
	case errors.Is(err, svc.ErrProfileNotFound):
		return f.text("checkers.profile.empty", nil)
	}
	return f.text("checkers.errors.generic", map[string]any{"Error": err.Error()})
}

// PvP

func (f *Formatter) PvPUsage() string {
	return f.text("pvp.usage", nil)
}

func (f *Formatter) PvPStart(state *checkersdto.SessionState, darkName, lightName string) string {
	var sb strings.Builder
	sb.WriteString(f.text("pvp.start", map[string]any{"Dark": darkName, "Light": lightName}))
	if state != nil && !state.Finished {
		sb.WriteString("\n")
		sb.WriteString(f.PvPTurn(darkName, lightName, state.Turn))
	}
	return sb.String()
}

func (f *Formatter) PvPTurn(darkName, lightName, turn string) string {
	name := darkName
	if turn == core.Light.String() {
		name = lightName
	}
	return f.text("pvp.turn", map[string]any{"Name": name, "Color": f.colorName(turn)})
}

func (f *Formatter) PvPNoGame() string {
	return f.text("pvp.no_game", nil)
}

func (f *Formatter) NoPendingChallenge() string {
	return f.text("pvp.no_pending", nil)
}

func (f *Formatter) Challenge(challenger, target string) string {
	return f.text("pvp.challenge", map[string]any{"Challenger": challenger, "Target": target})
}

func (f *Formatter) ChallengeDeclined(name string) string {
	return f.text("pvp.declined", map[string]any{"Name": name})
}

func (f *Formatter) LobbyCancelled(code string) string {
	return f.text("pvp.lobby.cancelled", map[string]any{"Code": code})
}

func (f *Formatter) LobbyCreated(code string) string {
	return f.text("pvp.lobby.created", map[string]any{"Code": code})
}

func (f *Formatter) LobbyJoined(code string) string {
	return f.text("pvp.lobby.joined", map[string]any{"Code": code})
}

func (f *Formatter) Lobby(list []*pvpchan.ChannelMeta) string {
	if len(list) == 0 {
		return f.text("pvp.lobby.empty", nil)
	}
	var sb strings.Builder
	sb.WriteString(f.text("pvp.lobby.header", nil))
	for _, meta := range list {
		sb.WriteString("\n")
		sb.WriteString(f.text("pvp.lobby.line", map[string]any{
			"Code":    meta.ID,
			"Creator": meta.CreatorName,
			"Color":   f.choiceName(meta.CreatorColor),
		}))
	}
	return sb.String()
}

// LobbyError maps lobby errors to user-facing text.
func (f *Formatter) LobbyError(err error) string {
	switch {
	case errors.Is(err, pvpchan.ErrPlayerBusyInRoom):
		return f.text("pvp.lobby.busy", nil)
	case errors.Is(err, pvpchan.ErrCreatorHasLobby):
		return f.text("pvp.lobby.has_lobby", nil)
	case errors.Is(err, pvpchan.ErrFull), errors.Is(err, pvpchan.ErrChannelActive):
		return f.text("pvp.lobby.full", nil)
	case errors.Is(err, pvpchan.ErrChannelGone), errors.Is(err, pvpchan.ErrNoLobby):
		return f.text("pvp.lobby.not_found", nil)
	}
	return f.Error(err)
}

// helpers

func (f *Formatter) appendProgress(sb *strings.Builder, state *checkersdto.SessionState) {
	if state == nil {
		return
	}
	sb.WriteString(f.text("checkers.status.progress", map[string]any{"MoveCount": state.MoveCount}))
	sb.WriteString("\n")
	sb.WriteString(f.text("checkers.status.score", map[string]any{"ByDark": state.Score.CapturedLight, "ByLight": state.Score.CapturedDark}))
	sb.WriteString("\n")
	sb.WriteString(f.text("checkers.status.remaining", map[string]any{"DarkLeft": state.DarkLeft, "LightLeft": state.LightLeft}))
	sb.WriteString("\n")
	if len(state.Moves) > 0 {
		sb.WriteString(f.text("checkers.status.recent", map[string]any{"Moves": formatRecentMoves(state.Moves)}))
		sb.WriteString("\n")
	}
}

func (f *Formatter) turnLine(state *checkersdto.SessionState) string {
	if state == nil || state.Finished {
		return ""
	}
	return f.text("checkers.turn."+colorKey(state.Turn), nil)
}

func (f *Formatter) finishText(state *checkersdto.SessionState) string {
	winner := state.Winner
	loser := core.Light.String()
	if winner == core.Light.String() {
		loser = core.Dark.String()
	}
	key := "checkers.finish.blocked"
	if state.Method == svc.MethodResignation {
		key = "checkers.finish.resign"
	}
	var sb strings.Builder
	sb.WriteString(f.text(key, map[string]any{"Winner": f.colorName(winner), "Loser": f.colorName(loser)}))
	if state.GameID > 0 {
		sb.WriteString("\n")
		sb.WriteString(f.text("checkers.finish.record", map[string]any{"GameID": state.GameID}))
	}
	return sb.String()
}

func (f *Formatter) colorName(color string) string {
	return f.text("checkers.color."+colorKey(color), nil)
}

func (f *Formatter) choiceName(c pvpchan.ColorChoice) string {
	switch c {
	case pvpchan.ColorDark, pvpchan.ColorLight:
		return f.colorName(string(c))
	}
	return "랜덤"
}

func (f *Formatter) resultBadge(winner string) string {
	switch winner {
	case core.Dark.String(), core.Light.String():
		return f.text("checkers.result."+winner, nil)
	}
	return f.text("checkers.result.unknown", nil)
}

func (f *Formatter) methodName(method string) string {
	key := "checkers.method." + strings.ToLower(strings.TrimSpace(method))
	if f.msgs.Has(key) {
		return f.text(key, nil)
	}
	return method
}

func colorKey(color string) string {
	if color == core.Light.String() {
		return "light"
	}
	return "dark"
}

func formatRecentMoves(moves []string) string {
	if len(moves) == 0 {
		return "-"
	}
	if len(moves) <= recentMovesLimit {
		return strings.Join(moves, " ")
	}
	return "… " + strings.Join(moves[len(moves)-recentMovesLimit:], " ")
}

// numberedMoves pairs moves as "1. b3-c4 a6-b5 2. ...".
func numberedMoves(moves []string) string {
	var parts []string
	for i := 0; i < len(moves); i += 2 {
		p := fmt.Sprintf("%d. %s", i/2+1, moves[i])
		if i+1 < len(moves) {
			p += " " + moves[i+1]
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return util.FormatKST(t, "2006-01-02 15:04")
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
