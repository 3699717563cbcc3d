package checkers

import (
	"errors"
	"testing"
)

func TestSessionStartsWithDark(t *testing.T) {
	s := NewSession()
	snap := s.Snapshot()
	if snap.Turn != Dark {
		t.Fatalf("turn = %v, want dark", snap.Turn)
	}
	if snap.Selection.Active() {
		t.Fatalf("fresh session has a selection")
	}
	if snap.Score != (Score{}) {
		t.Fatalf("score = %+v", snap.Score)
	}
}

func TestSimpleMoveFlipsTurn(t *testing.T) {
	s := NewSession()
	delta, err := s.AttemptMove(17, 26)
	if err != nil {
		t.Fatalf("AttemptMove: %v", err)
	}
	if len(delta.Changes) != 2 || delta.Mover != Dark || delta.Move.Kind != Simple {
		t.Fatalf("unexpected delta %+v", delta)
	}
	if s.Turn() != Light {
		t.Fatalf("turn = %v, want light", s.Turn())
	}
	if s.Score() != (Score{}) {
		t.Fatalf("score changed on simple move: %+v", s.Score())
	}
	if _, err := s.AttemptMove(NewSquare(5, 0), NewSquare(4, 1)); err != nil {
		t.Fatalf("light reply: %v", err)
	}
	if s.Turn() != Dark {
		t.Fatalf("turn did not flip back")
	}
	if got := len(s.Moves()); got != 2 {
		t.Fatalf("history len = %d", got)
	}
}

func TestIllegalAttemptLeavesStateUnchanged(t *testing.T) {
	s := NewSession()
	before := s.Snapshot()
	cases := [][2]Square{{17, 33}, {17, 17}, {24, 33}, {NewSquare(5, 0), NewSquare(4, 1)}}
	for _, c := range cases {
		if _, err := s.AttemptMove(c[0], c[1]); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("AttemptMove(%d,%d) err = %v, want ErrIllegalMove", c[0], c[1], err)
		}
	}
	after := s.Snapshot()
	if !after.Board.Equal(before.Board) || after.Turn != before.Turn || after.MoveCount != 0 {
		t.Fatalf("state changed by illegal attempts")
	}
	if _, err := s.AttemptMove(17, 99); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("out of range destination err = %v", err)
	}
}

func TestSelectionFlow(t *testing.T) {
	s := NewSession()
	if _, err := s.MoveSelected(24); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("MoveSelected without selection err = %v", err)
	}
	if _, err := s.Select(NewSquare(5, 0)); !errors.Is(err, ErrNotOwnPiece) {
		t.Fatalf("selecting opponent err = %v", err)
	}
	if _, err := s.Select(NewSquare(3, 0)); !errors.Is(err, ErrNotOwnPiece) {
		t.Fatalf("selecting empty err = %v", err)
	}
	if _, err := s.Select(-5); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("selecting out of range err = %v", err)
	}
	moves, err := s.Select(17)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(moves) != 2 {
		t.Fatalf("moves = %v", moves)
	}
	sel := s.Selection()
	if !sel.Active() || sel.From != 17 {
		t.Fatalf("selection = %+v", sel)
	}
	dests := sel.Destinations()
	if len(dests) != 2 || dests[0] != 24 || dests[1] != 26 {
		t.Fatalf("destinations = %v", dests)
	}
	if _, err := s.MoveSelected(33); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("MoveSelected to non-destination err = %v", err)
	}
	if !s.Selection().Active() {
		t.Fatalf("selection dropped after illegal move")
	}
	if _, err := s.MoveSelected(24); err != nil {
		t.Fatalf("MoveSelected: %v", err)
	}
	if s.Selection().Active() {
		t.Fatalf("selection kept after move")
	}
}

func TestLegalDestinationsDoesNotSelect(t *testing.T) {
	s := NewSession()
	if _, err := s.LegalDestinations(17); err != nil {
		t.Fatalf("LegalDestinations: %v", err)
	}
	if s.Selection().Active() {
		t.Fatalf("query changed selection")
	}
}

func TestSubscribeEvents(t *testing.T) {
	b := &Board{}
	mustPlace(t, b, 17, dark())
	mustPlace(t, b, 26, light())
	mustPlace(t, b, NewSquare(7, 0), light())
	s := NewSessionFrom(b, Dark)

	var kinds []EventKind
	var last Event
	unsubscribe := s.Subscribe(func(ev Event) {
		kinds = append(kinds, ev.Kind)
		last = ev
	})
	if _, err := s.Select(17); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := s.MoveSelected(35); err != nil {
		t.Fatalf("MoveSelected: %v", err)
	}
	want := []EventKind{EventSelectionChanged, EventMoved, EventCaptured, EventTurnChanged}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events = %v, want %v", kinds, want)
		}
	}
	if last.Turn != Light || last.Score.CapturedLight != 1 {
		t.Fatalf("turn event = %+v", last)
	}

	unsubscribe()
	if _, err := s.AttemptMove(NewSquare(7, 0), NewSquare(6, 1)); err != nil {
		t.Fatalf("AttemptMove: %v", err)
	}
	if len(kinds) != len(want) {
		t.Fatalf("listener called after unsubscribe")
	}
}

func TestScoreAccumulates(t *testing.T) {
	b := &Board{}
	mustPlace(t, b, NewSquare(0, 1), dark())
	mustPlace(t, b, NewSquare(1, 2), light())
	mustPlace(t, b, NewSquare(2, 5), dark())
	mustPlace(t, b, NewSquare(3, 4), light())
	mustPlace(t, b, NewSquare(7, 6), light())
	s := NewSessionFrom(b, Dark)

	steps := []string{"b1xd3", "g8-f7", "f3xd5"}
	if err := s.Replay(steps...); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if got := s.Score().CapturedLight; got != 2 {
		t.Fatalf("captured light = %d, want 2", got)
	}
}

func TestReplayStopsOnIllegal(t *testing.T) {
	s := NewSession()
	err := s.Replay("b3-a4", "a6-b5", "a4-a5")
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("Replay err = %v", err)
	}
	if len(s.Moves()) != 2 {
		t.Fatalf("applied %d moves before failure", len(s.Moves()))
	}
}

func TestResetRestoresStart(t *testing.T) {
	s := NewSession()
	if err := s.Replay("b3-c4", "a6-b5", "c4xa6"); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	s.Reset()
	snap := s.Snapshot()
	if !snap.Board.Equal(StartingBoard()) || snap.Turn != Dark || snap.Score != (Score{}) || snap.MoveCount != 0 {
		t.Fatalf("reset did not restore the start: %+v", snap)
	}
}

func TestBlocked(t *testing.T) {
	b := &Board{}
	mustPlace(t, b, NewSquare(3, 2), dark())
	s := NewSessionFrom(b, Light)
	if !s.Blocked() {
		t.Fatalf("light without pieces should be blocked")
	}
	if NewSession().Blocked() {
		t.Fatalf("opening position is not blocked")
	}
}
