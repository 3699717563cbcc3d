// Package tui is a tview front-end for playing checkers hot-seat in the
// terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/domain"
	svccheckers "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/termcfg"
)

// LocalPlayer is the player hash under which terminal games are archived.
const LocalPlayer = "terminal"

// Archive stores finished games.
type Archive interface {
	InsertGame(ctx context.Context, game *domain.CheckersGame) (int64, error)
	GetRecentGames(ctx context.Context, playerHash string, limit int) ([]*domain.CheckersGame, error)
}

type BoardUI struct {
	Box *tview.Box

	app     *tview.Application
	hint    *tview.TextView
	cfg     *termcfg.Config
	archive Archive
	styles  []tcell.Color

	sess        *core.Session
	unsubscribe func()
	startedAt   time.Time

	curRow, curCol int
	finished       bool
	winner         core.Color
	method         string
	gameID         int64
	notice         string
}

func NewBoard(app *tview.Application, cfg *termcfg.Config, hint *tview.TextView, archive Archive) *BoardUI {
	b := &BoardUI{
		Box:     tview.NewBox(),
		app:     app,
		hint:    hint,
		archive: archive,
	}
	b.SetConfig(cfg)
	b.Box.SetDrawFunc(b.draw)
	b.NewGame()
	return b
}

func (b *BoardUI) SetConfig(c *termcfg.Config) {
	cs := c.Theme.Colors
	b.styles = []tcell.Color{
		tcell.PaletteColor(cs.Board),       // 0
		tcell.PaletteColor(cs.BoardAlt),    // 1
		tcell.PaletteColor(cs.Dark),        // 2
		tcell.PaletteColor(cs.Light),       // 3
		tcell.PaletteColor(cs.Cursor),      // 4
		tcell.PaletteColor(cs.Selected),    // 5
		tcell.PaletteColor(cs.Destination), // 6
		tcell.PaletteColor(cs.LastMove),    // 7
	}
	b.cfg = c
}

// NewGame discards the current game and starts from the opening position.
func (b *BoardUI) NewGame() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	b.sess = core.NewSession()
	b.unsubscribe = b.sess.Subscribe(b.onEvent)
	b.startedAt = time.Now()
	b.finished = false
	b.winner = core.NoColor
	b.method = ""
	b.gameID = 0
	b.notice = ""
	b.curRow, b.curCol = 2, 1
	b.refreshHint()
}

// Snapshot exposes the current game state.
func (b *BoardUI) Snapshot() core.Snapshot { return b.sess.Snapshot() }

func (b *BoardUI) Finished() bool { return b.finished }

func (b *BoardUI) Winner() core.Color { return b.winner }

func (b *BoardUI) Cursor() core.Square { return core.NewSquare(b.curRow, b.curCol) }

// MoveCursor shifts the cursor by board rows/cols, clamped to the board.
func (b *BoardUI) MoveCursor(dRow, dCol int) {
	if b.cfg.Flip {
		dRow, dCol = -dRow, -dCol
	}
	if r := b.curRow + dRow; r >= 0 && r < core.BoardSize {
		b.curRow = r
	}
	if c := b.curCol + dCol; c >= 0 && c < core.BoardSize {
		b.curCol = c
	}
}

// Activate selects the piece under the cursor, or moves the selected piece
// there when the cursor is on one of its destinations.
func (b *BoardUI) Activate() {
	if b.finished {
		return
	}
	sq := b.Cursor()
	sel := b.sess.Selection()
	if sel.Active() {
		for _, to := range sel.Destinations() {
			if to == sq {
				b.play(sq)
				return
			}
		}
	}
	moves, err := b.sess.Select(sq)
	switch {
	case errors.Is(err, core.ErrNotOwnPiece):
		b.setNotice(fmt.Sprintf("%s: not a %s piece", sq, b.sess.Turn()))
	case err != nil:
		b.setNotice(err.Error())
	case len(moves) == 0:
		b.setNotice(fmt.Sprintf("%s has no moves", sq))
	default:
		b.setNotice("")
	}
}

func (b *BoardUI) play(to core.Square) {
	delta, err := b.sess.MoveSelected(to)
	if err != nil {
		b.setNotice(err.Error())
		return
	}
	b.notice = ""
	if b.sess.Blocked() {
		b.finish(delta.Mover, svccheckers.MethodBlocked)
	}
}

// Cancel clears the selection.
func (b *BoardUI) Cancel() {
	b.sess.Deselect()
}

// Resign ends the game for the side to move.
func (b *BoardUI) Resign() {
	if b.finished {
		return
	}
	b.finish(b.sess.Turn().Opponent(), svccheckers.MethodResignation)
}

func (b *BoardUI) finish(winner core.Color, method string) {
	b.finished = true
	b.winner = winner
	b.method = method
	b.sess.Deselect()
	if b.archive != nil {
		snap := b.sess.Snapshot()
		board, _ := snap.Board.MarshalText()
		moves := make([]string, 0, snap.MoveCount)
		for _, m := range b.sess.Moves() {
			moves = append(moves, m.String())
		}
		ended := time.Now()
		game := &domain.CheckersGame{
			PlayerHash:    LocalPlayer,
			RoomHash:      LocalPlayer,
			PlayerName:    fmt.Sprintf("%s vs %s", b.cfg.DarkName, b.cfg.LightName),
			Winner:        winner.String(),
			ResultMethod:  method,
			Moves:         moves,
			FinalBoard:    string(board),
			CapturedDark:  snap.Score.CapturedDark,
			CapturedLight: snap.Score.CapturedLight,
			StartedAt:     b.startedAt,
			EndedAt:       ended,
			Duration:      ended.Sub(b.startedAt),
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		id, err := b.archive.InsertGame(ctx, game)
		cancel()
		if err != nil {
			b.notice = "archive failed: " + err.Error()
		} else {
			b.gameID = id
		}
	}
	b.refreshHint()
}

// HandleKey implements the board's input capture. Unhandled keys are
// returned to the caller.
func (b *BoardUI) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyUp:
		b.MoveCursor(1, 0)
	case tcell.KeyDown:
		b.MoveCursor(-1, 0)
	case tcell.KeyLeft:
		b.MoveCursor(0, -1)
	case tcell.KeyRight:
		b.MoveCursor(0, 1)
	case tcell.KeyEnter:
		b.Activate()
	case tcell.KeyEsc:
		b.Cancel()
	case tcell.KeyRune:
		switch event.Rune() {
		case 'k':
			b.MoveCursor(1, 0)
		case 'j':
			b.MoveCursor(-1, 0)
		case 'h':
			b.MoveCursor(0, -1)
		case 'l':
			b.MoveCursor(0, 1)
		case ' ':
			b.Activate()
		case 'r':
			b.Resign()
		case 'n':
			b.NewGame()
		default:
			return event
		}
	default:
		return event
	}
	return nil
}

func (b *BoardUI) onEvent(ev core.Event) {
	if ev.Kind == core.EventCaptured {
		b.notice = fmt.Sprintf("%s captured on %s", ev.Delta.Mover.Opponent(), captureSquare(ev.Delta))
	}
	b.refreshHint()
	if b.app != nil {
		go b.app.QueueUpdateDraw(func() {})
	}
}

func captureSquare(d core.BoardDelta) core.Square {
	for _, c := range d.Changes {
		if c.Square != d.Move.From && c.Square != d.Move.To {
			return c.Square
		}
	}
	return core.NoSquare
}

func (b *BoardUI) setNotice(s string) {
	b.notice = s
	b.refreshHint()
}

func (b *BoardUI) name(c core.Color) string {
	if c == core.Light {
		return b.cfg.LightName
	}
	return b.cfg.DarkName
}

// HintText is the status panel content.
func (b *BoardUI) HintText() string {
	snap := b.sess.Snapshot()
	var turnLine string
	if b.finished {
		turnLine = fmt.Sprintf("  Result: %s (%s) wins by %s\n", b.name(b.winner), b.winner, b.method)
		if b.gameID > 0 {
			turnLine += fmt.Sprintf("  Archived as #%d\n", b.gameID)
		}
	} else {
		stone := "●"
		if snap.Turn == core.Light {
			stone = "○"
		}
		turnLine = fmt.Sprintf("  %s %s to move (%s)\n", stone, b.name(snap.Turn), snap.Turn)
	}
	score := fmt.Sprintf("  Captured: dark %d / light %d\n  Left: dark %d / light %d\n",
		snap.Score.CapturedDark, snap.Score.CapturedLight, snap.Board.Count(core.Dark), snap.Board.Count(core.Light))
	last := ""
	if snap.LastMove != nil {
		last = fmt.Sprintf("  Last: %s\n", snap.LastMove)
	}
	notice := ""
	if b.notice != "" {
		notice = "\n  " + b.notice + "\n"
	}
	controls := `
  hjkl/↑↓←→ move   ⏎ select/move
  esc cancel   r resign   n new   H history   q quit`
	return turnLine + score + last + notice + controls
}

func (b *BoardUI) refreshHint() {
	if b.hint != nil {
		b.hint.SetText(b.HintText())
	}
}

// boardWidth is the drawn width including rank labels.
const boardWidth = core.BoardSize*3 + 5

// GameLayout places the board next to the status panel.
func GameLayout(board *BoardUI, hint *tview.TextView) *tview.Flex {
	row := tview.NewFlex().SetDirection(tview.FlexColumn)
	row.AddItem(board.Box, boardWidth, 0, true)
	row.AddItem(hint, 0, 1, false)
	return row
}

// screenPos maps a square to its display row/col.
func (b *BoardUI) screenPos(row, col int) (int, int) {
	if b.cfg.Flip {
		return row, core.BoardSize - 1 - col
	}
	return core.BoardSize - 1 - row, col
}

func (b *BoardUI) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	snap := b.sess.Snapshot()
	dests := map[core.Square]bool{}
	for _, sq := range snap.Selection.Destinations() {
		dests[sq] = true
	}
	left := x + 3
	for row := 0; row < core.BoardSize; row++ {
		for col := 0; col < core.BoardSize; col++ {
			sq := core.NewSquare(row, col)
			sy, sx := b.screenPos(row, col)
			bg := b.styles[1]
			if core.IsPlayable(sq) {
				bg = b.styles[0]
			}
			if snap.LastMove != nil && (sq == snap.LastMove.From || sq == snap.LastMove.To) {
				bg = b.styles[7]
			}
			if dests[sq] {
				bg = b.styles[6]
			}
			if snap.Selection.Active() && sq == snap.Selection.From {
				bg = b.styles[5]
			}
			if !b.finished && row == b.curRow && col == b.curCol {
				bg = b.styles[4]
			}
			r := b.cfg.Theme.Symbols.Empty
			fg := b.styles[3]
			if p, ok := snap.Board.Occupant(sq); ok {
				r = b.cfg.Theme.Symbols.Man
				fg = b.styles[2]
				if p.Color == core.Light {
					fg = b.styles[3]
				}
			} else if dests[sq] {
				r = b.cfg.Theme.Symbols.Destination
			}
			style := tcell.StyleDefault.Background(bg).Foreground(fg)
			// 3 characters per cell for a square look
			screen.SetContent(left+sx*3, y+sy, ' ', nil, style)
			screen.SetContent(left+sx*3+1, y+sy, r, nil, style)
			screen.SetContent(left+sx*3+2, y+sy, ' ', nil, style)
		}
	}
	b.drawCoordinates(screen, x, y)
	return x, y, core.BoardSize*3 + 3, core.BoardSize + 1
}

func (b *BoardUI) drawCoordinates(screen tcell.Screen, x, y int) {
	for i := 0; i < core.BoardSize; i++ {
		sy, sx := b.screenPos(i, i)
		screen.SetContent(x+1, y+sy, rune('1'+i), nil, tcell.StyleDefault)
		screen.SetContent(x+3+sx*3+1, y+core.BoardSize, rune('a'+i), nil, tcell.StyleDefault)
	}
}
