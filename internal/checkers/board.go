// Package checkers implements the board, move rules, turn alternation and
// capture scoring of a simplified checkers game. It has no I/O and no
// goroutines; presentation layers drive a Session and render its Snapshot.
package checkers

import (
	"fmt"
	"strings"
)

const (
	BoardSize = 8
	NumCells  = BoardSize * BoardSize
)

// Color identifies a side. Dark moves first and starts on rows 0-2.
type Color uint8

const (
	NoColor Color = iota
	Dark
	Light
)

func (c Color) Opponent() Color {
	switch c {
	case Dark:
		return Light
	case Light:
		return Dark
	}
	return NoColor
}

func (c Color) String() string {
	switch c {
	case Dark:
		return "dark"
	case Light:
		return "light"
	}
	return "none"
}

// forward is the row delta a color advances by.
func (c Color) forward() int {
	if c == Light {
		return -1
	}
	return 1
}

// Piece is a single man. There are no kings.
type Piece struct {
	Color Color
}

// Square is a linear cell index, row*8 + col.
type Square int

const NoSquare Square = -1

func NewSquare(row, col int) Square {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return NoSquare
	}
	return Square(row*BoardSize + col)
}

func (s Square) Row() int { return int(s) / BoardSize }
func (s Square) Col() int { return int(s) % BoardSize }
func (s Square) Valid() bool { return s >= 0 && s < NumCells }

// String returns the algebraic name: file a-h is the column, rank 1-8 the row.
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col(), s.Row()+1)
}

// ParseSquare accepts algebraic names ("b3") or a raw index ("17").
func ParseSquare(raw string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return NoSquare, fmt.Errorf("%w: empty square", ErrBadNotation)
	}
	if len(v) == 2 && v[0] >= 'a' && v[0] <= 'h' && v[1] >= '1' && v[1] <= '8' {
		return NewSquare(int(v[1]-'1'), int(v[0]-'a')), nil
	}
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return NoSquare, fmt.Errorf("%w: %q", ErrBadNotation, raw)
		}
		n = n*10 + int(r-'0')
		if n >= NumCells {
			return NoSquare, fmt.Errorf("%w: %q", ErrOutOfBounds, raw)
		}
	}
	return Square(n), nil
}

// IsPlayable reports whether pieces may ever stand on s.
func IsPlayable(s Square) bool {
	return s.Valid() && (s.Row()+s.Col())%2 == 1
}

// Cell is the content of one square.
type Cell struct {
	Piece    Piece
	Occupied bool
}

// Board is a fixed 8x8 grid. The zero value is an empty board.
type Board struct {
	cells [NumCells]Cell
}

// StartingBoard returns the standard layout: twelve Dark men on the playable
// cells of rows 0-2 and twelve Light men on rows 5-7.
func StartingBoard() *Board {
	b := &Board{}
	for i := 0; i < NumCells; i++ {
		sq := Square(i)
		if !IsPlayable(sq) {
			continue
		}
		switch r := sq.Row(); {
		case r <= 2:
			b.cells[i] = Cell{Piece: Piece{Color: Dark}, Occupied: true}
		case r >= 5:
			b.cells[i] = Cell{Piece: Piece{Color: Light}, Occupied: true}
		}
	}
	return b
}

func (b *Board) CellAt(s Square) (Cell, error) {
	if !s.Valid() {
		return Cell{}, fmt.Errorf("%w: %d", ErrOutOfBounds, int(s))
	}
	return b.cells[s], nil
}

// Place puts p on s, replacing whatever was there.
func (b *Board) Place(s Square, p Piece) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrOutOfBounds, int(s))
	}
	b.cells[s] = Cell{Piece: p, Occupied: true}
	return nil
}

func (b *Board) Clear(s Square) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrOutOfBounds, int(s))
	}
	b.cells[s] = Cell{}
	return nil
}

// Occupant returns the piece on s. Out-of-range squares are reported empty.
func (b *Board) Occupant(s Square) (Piece, bool) {
	if !s.Valid() {
		return Piece{}, false
	}
	c := b.cells[s]
	return c.Piece, c.Occupied
}

func (b *Board) Clone() *Board {
	cp := *b
	return &cp
}

// Count returns how many pieces of color c remain.
func (b *Board) Count(c Color) int {
	n := 0
	for _, cell := range b.cells {
		if cell.Occupied && cell.Piece.Color == c {
			n++
		}
	}
	return n
}

// Squares returns the occupied squares of color c in index order.
func (b *Board) Squares(c Color) []Square {
	var out []Square
	for i, cell := range b.cells {
		if cell.Occupied && cell.Piece.Color == c {
			out = append(out, Square(i))
		}
	}
	return out
}

func (b *Board) Equal(o *Board) bool {
	return b.cells == o.cells
}

// MarshalText encodes the board as 64 characters: '.' empty, 'd' dark, 'l' light.
func (b *Board) MarshalText() ([]byte, error) {
	out := make([]byte, NumCells)
	for i, cell := range b.cells {
		switch {
		case !cell.Occupied:
			out[i] = '.'
		case cell.Piece.Color == Dark:
			out[i] = 'd'
		default:
			out[i] = 'l'
		}
	}
	return out, nil
}

func (b *Board) UnmarshalText(text []byte) error {
	if len(text) != NumCells {
		return fmt.Errorf("%w: board encoding has %d cells", ErrBadNotation, len(text))
	}
	var cells [NumCells]Cell
	for i, ch := range text {
		switch ch {
		case '.':
		case 'd':
			cells[i] = Cell{Piece: Piece{Color: Dark}, Occupied: true}
		case 'l':
			cells[i] = Cell{Piece: Piece{Color: Light}, Occupied: true}
		default:
			return fmt.Errorf("%w: unexpected cell %q", ErrBadNotation, ch)
		}
	}
	b.cells = cells
	return nil
}

// String draws the board with row 7 on top.
func (b *Board) String() string {
	var sb strings.Builder
	for row := BoardSize - 1; row >= 0; row-- {
		fmt.Fprintf(&sb, "%d ", row+1)
		for col := 0; col < BoardSize; col++ {
			sq := NewSquare(row, col)
			p, ok := b.Occupant(sq)
			switch {
			case ok && p.Color == Dark:
				sb.WriteString(" x")
			case ok && p.Color == Light:
				sb.WriteString(" o")
			case IsPlayable(sq):
				sb.WriteString(" .")
			default:
				sb.WriteString("  ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h")
	return sb.String()
}
