package checkerspresenter

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/pvpchan"
	svc "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/util"
	"github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

type staticPrefix string

func (p staticPrefix) Prefix() string { return string(p) }

func newFormatter() *Formatter { return NewFormatter(staticPrefix("!"), nil) }

func TestHelpUsesPrefixAndPadding(t *testing.T) {
	out := newFormatter().Help(7)
	if !strings.Contains(out, "!체커 시작") || !strings.Contains(out, "기본 7개") {
		t.Fatalf("help body: %q", out)
	}
	if !util.Folded(out) {
		t.Fatalf("see-more padding missing")
	}
}

func TestMoveCaptureAndTurn(t *testing.T) {
	f := newFormatter()
	out := f.Move(&checkersdto.MoveSummary{
		State:  &checkersdto.SessionState{Turn: "light"},
		Move:   "c4xa6",
		Mover:  "dark",
		Victim: "light",
	})
	if !strings.Contains(out, "흑: c4xa6") || !strings.Contains(out, "백 말을 잡았습니다") || !strings.Contains(out, "백 차례") {
		t.Fatalf("move text: %q", out)
	}
}

func TestMoveFinishedBlocked(t *testing.T) {
	out := newFormatter().Move(&checkersdto.MoveSummary{
		State:    &checkersdto.SessionState{Finished: true, Winner: "light", Method: svc.MethodBlocked, GameID: 4},
		Move:     "c8xa6",
		Mover:    "light",
		Victim:   "dark",
		Finished: true,
	})
	if !strings.Contains(out, "백 승리") || !strings.Contains(out, "#4") {
		t.Fatalf("finish text: %q", out)
	}
}

func TestResignNamesLoser(t *testing.T) {
	out := newFormatter().Resign(&checkersdto.SessionState{Finished: true, Winner: "dark", Method: svc.MethodResignation})
	if !strings.Contains(out, "백 기권") || !strings.Contains(out, "흑 승리") {
		t.Fatalf("resign text: %q", out)
	}
}

func TestStatusShowsSelectionAndScore(t *testing.T) {
	out := newFormatter().Status(&checkersdto.SessionState{
		Turn:         "dark",
		MoveCount:    3,
		Moves:        []string{"d3-c4", "a6-b5", "c4xa6"},
		Score:        checkersdto.Score{CapturedLight: 1},
		DarkLeft:     12,
		LightLeft:    11,
		Selected:     "b3",
		Destinations: []string{"a4", "c4"},
	})
	for _, want := range []string{"진행 3수", "흑 1 / 백 0", "흑 12 / 백 11", "b3 선택됨", "a4, c4", "흑 차례"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status missing %q: %q", want, out)
		}
	}
}

func TestHistoryAndGame(t *testing.T) {
	f := newFormatter()
	if got := f.History(nil); !strings.Contains(got, "없습니다") {
		t.Fatalf("empty history: %q", got)
	}
	ended := time.Date(2025, 5, 1, 3, 0, 0, 0, time.UTC)
	game := &checkersdto.CheckersGame{
		ID: 9, Winner: "dark", ResultMethod: "resignation",
		Moves: []string{"b3-c4", "a6-b5", "c4xa6"}, CapturedLight: 1,
		StartedAt: ended.Add(-time.Minute), EndedAt: ended, Duration: time.Minute,
	}
	hist := f.History([]*checkersdto.CheckersGame{game})
	if !strings.Contains(hist, "#9 흑 승 2025-05-01 12:00") || !strings.Contains(hist, "!체커 기보") {
		t.Fatalf("history: %q", hist)
	}
	detail := f.Game(game)
	if !strings.Contains(detail, "기권") || !strings.Contains(detail, "1. b3-c4 a6-b5 2. c4xa6") || !strings.Contains(detail, "1m0s") {
		t.Fatalf("game: %q", detail)
	}
}

func TestErrorMapping(t *testing.T) {
	f := newFormatter()
	cases := map[error]string{
		fmt.Errorf("wrap: %w", core.ErrIllegalMove): "둘 수 없는 수",
		core.ErrNotOwnPiece:                         "차례인 쪽의 말",
		core.ErrEmptySelection:                      "먼저",
		svc.ErrSessionNotFound:                      "진행 중인 체커 게임이 없습니다",
		svc.ErrRoomNotAllowed:                       "사용할 수 없습니다",
		errors.New("boom"):                          "boom",
	}
	for err, want := range cases {
		if got := f.Error(err); !strings.Contains(got, want) {
			t.Fatalf("Error(%v) = %q, want %q", err, got, want)
		}
	}
	if got := f.LobbyError(pvpchan.ErrCreatorHasLobby); !strings.Contains(got, "이미 만든") {
		t.Fatalf("lobby error: %q", got)
	}
}

func TestLobbyList(t *testing.T) {
	out := newFormatter().Lobby([]*pvpchan.ChannelMeta{{ID: "CH-ABC123", CreatorName: "Alice", CreatorColor: pvpchan.ColorLight}})
	if !strings.Contains(out, "CH-ABC123 Alice (백)") {
		t.Fatalf("lobby: %q", out)
	}
}

func TestPresenterBroadcastDedupesRooms(t *testing.T) {
	out := &fakeSender{failRoom: "b"}
	p := NewPresenter(out)
	state := &checkersdto.SessionState{BoardImage: []byte("png")}
	err := p.Broadcast(context.Background(), []string{"a", "b", "a", " ", "c"}, "hi", state)
	if err == nil {
		t.Fatalf("expected the failing room to surface")
	}
	want := base64.StdEncoding.EncodeToString([]byte("png"))
	if len(out.texts) != 2 || len(out.images) != 2 || out.images[0] != "a:"+want || out.images[1] != "c:"+want {
		t.Fatalf("texts=%v images=%v", out.texts, out.images)
	}
}

type fakeSender struct {
	failRoom      string
	texts, images []string
}

func (f *fakeSender) SendText(_ context.Context, room, _ string) error {
	if room == f.failRoom {
		return errors.New("send failed")
	}
	f.texts = append(f.texts, room)
	return nil
}

func (f *fakeSender) SendImage(_ context.Context, room, img string) error {
	f.images = append(f.images, room+":"+img)
	return nil
}
