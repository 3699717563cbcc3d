package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/park285/Cheese-Checkers-bot/internal/domain"
)

const historyLimit = 50

// HistoryUI lists archived games with the move list of the highlighted one.
type HistoryUI struct {
	Flex    *tview.Flex
	list    *tview.List
	detail  *tview.TextView
	archive Archive
	games   []*domain.CheckersGame
	onDone  func()
}

func NewHistory(archive Archive, onDone func()) *HistoryUI {
	h := &HistoryUI{archive: archive, onDone: onDone}

	h.list = tview.NewList()
	h.list.SetBorder(true)
	h.list.SetTitle(" Archive ")
	h.list.ShowSecondaryText(false)
	h.list.SetHighlightFullLine(true)

	h.detail = tview.NewTextView()
	h.detail.SetBorder(true)
	h.detail.SetTitle(" Moves ")
	h.detail.SetWordWrap(true)

	h.list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		h.show(index)
	})
	h.list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			if h.onDone != nil {
				h.onDone()
			}
			return nil
		}
		return event
	})

	h.Flex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(h.list, 0, 1, true).
		AddItem(h.detail, 0, 2, false)
	return h
}

// Reload fetches the latest games from the archive.
func (h *HistoryUI) Reload() error {
	h.list.Clear()
	h.games = nil
	if h.archive == nil {
		h.detail.SetText("no archive configured")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	games, err := h.archive.GetRecentGames(ctx, LocalPlayer, historyLimit)
	if err != nil {
		h.detail.SetText("load failed: " + err.Error())
		return err
	}
	h.games = games
	for _, g := range games {
		h.list.AddItem(gameLine(g), "", 0, nil)
	}
	if len(games) == 0 {
		h.detail.SetText("no finished games yet")
		return nil
	}
	h.show(0)
	return nil
}

func (h *HistoryUI) Len() int { return len(h.games) }

func (h *HistoryUI) show(index int) {
	if index < 0 || index >= len(h.games) {
		return
	}
	h.detail.SetText(gameDetail(h.games[index]))
}

func gameLine(g *domain.CheckersGame) string {
	return fmt.Sprintf("#%d %s %s (%d)", g.ID, g.EndedAt.Format("01-02 15:04"), g.Winner, len(g.Moves))
}

func gameDetail(g *domain.CheckersGame) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", g.PlayerName)
	fmt.Fprintf(&sb, "winner: %s by %s\n", g.Winner, g.ResultMethod)
	fmt.Fprintf(&sb, "captured: dark %d / light %d\n", g.CapturedDark, g.CapturedLight)
	fmt.Fprintf(&sb, "duration: %s\n\n", g.Duration.Round(time.Second))
	for i := 0; i < len(g.Moves); i += 2 {
		fmt.Fprintf(&sb, "%d. %s", i/2+1, g.Moves[i])
		if i+1 < len(g.Moves) {
			fmt.Fprintf(&sb, " %s", g.Moves[i+1])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
