package checkers

import (
	"errors"
	"testing"
)

func TestCellAtBounds(t *testing.T) {
	b := StartingBoard()
	for _, sq := range []Square{-1, 64} {
		if _, err := b.CellAt(sq); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("CellAt(%d) err = %v", sq, err)
		}
		if err := b.Place(sq, dark()); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Place(%d) err = %v", sq, err)
		}
		if err := b.Clear(sq); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Clear(%d) err = %v", sq, err)
		}
	}
	c, err := b.CellAt(17)
	if err != nil || !c.Occupied || c.Piece.Color != Dark {
		t.Fatalf("CellAt(17) = %+v, %v", c, err)
	}
}

func TestIsPlayable(t *testing.T) {
	cases := map[Square]bool{0: false, 1: true, 8: true, 9: false, 17: true, 63: false, 62: true, -1: false, 64: false}
	for sq, want := range cases {
		if got := IsPlayable(sq); got != want {
			t.Fatalf("IsPlayable(%d) = %v, want %v", sq, got, want)
		}
	}
}

func TestPlaceAndClear(t *testing.T) {
	b := &Board{}
	if err := b.Place(30, light()); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if err := b.Place(30, dark()); err != nil {
		t.Fatalf("Place overwrite: %v", err)
	}
	if p, ok := b.Occupant(30); !ok || p.Color != Dark {
		t.Fatalf("Occupant after overwrite = %v, %v", p, ok)
	}
	if err := b.Clear(30); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := b.Occupant(30); ok {
		t.Fatalf("cell still occupied")
	}
}

func TestSquareNotation(t *testing.T) {
	if s := Square(17).String(); s != "b3" {
		t.Fatalf("17 = %q, want b3", s)
	}
	for _, in := range []string{"b3", "B3", " 17 "} {
		sq, err := ParseSquare(in)
		if err != nil || sq != 17 {
			t.Fatalf("ParseSquare(%q) = %d, %v", in, sq, err)
		}
	}
	if _, err := ParseSquare("i9"); !errors.Is(err, ErrBadNotation) {
		t.Fatalf("ParseSquare(i9) err = %v", err)
	}
	if _, err := ParseSquare("64"); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("ParseSquare(64) err = %v", err)
	}
}

func TestParseMoveForms(t *testing.T) {
	for _, in := range []string{"b3-c4", "b3 c4", "B3C4", "b3>c4"} {
		from, to, err := ParseMove(in)
		if err != nil || from != 17 || to != 26 {
			t.Fatalf("ParseMove(%q) = %d,%d,%v", in, from, to, err)
		}
	}
	if _, _, err := ParseMove("b3"); !errors.Is(err, ErrBadNotation) {
		t.Fatalf("ParseMove(b3) err = %v", err)
	}
	m := Move{Kind: Capture, From: 17, To: 35, Captured: 26}
	if m.String() != "b3xd5" {
		t.Fatalf("capture notation = %q", m.String())
	}
}

func TestBoardTextEncoding(t *testing.T) {
	b := StartingBoard()
	raw, err := b.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if len(raw) != NumCells || raw[17] != 'd' || raw[32] != '.' || raw[56] != 'l' {
		t.Fatalf("encoding = %s", raw)
	}
	var back Board
	if err := back.UnmarshalText(raw); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if !back.Equal(b) {
		t.Fatalf("decoded board differs")
	}
	if err := back.UnmarshalText([]byte("short")); !errors.Is(err, ErrBadNotation) {
		t.Fatalf("short encoding err = %v", err)
	}
}
