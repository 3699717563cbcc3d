package checkers

import "fmt"

// diagonals lists column deltas in evaluation order: left, then right.
var diagonals = [2]int{-1, 1}

// LegalMoves returns the moves available to the piece on from when turn is
// to move. Simple steps come first, then single jumps, each ordered left to
// right. An empty square or a piece of the other side yields no moves.
//
// Destinations are derived from row and column deltas so a piece on an edge
// column never wraps to the opposite edge.
func LegalMoves(b *Board, from Square, turn Color) ([]Move, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrOutOfBounds, int(from))
	}
	p, ok := b.Occupant(from)
	if !ok || p.Color != turn {
		return []Move{}, nil
	}
	dr := p.Color.forward()
	row, col := from.Row(), from.Col()

	moves := make([]Move, 0, 4)
	for _, dc := range diagonals {
		to := NewSquare(row+dr, col+dc)
		if !IsPlayable(to) {
			continue
		}
		if _, occupied := b.Occupant(to); !occupied {
			moves = append(moves, Move{Kind: Simple, From: from, To: to, Captured: NoSquare})
		}
	}
	for _, dc := range diagonals {
		mid := NewSquare(row+dr, col+dc)
		to := NewSquare(row+2*dr, col+2*dc)
		if !IsPlayable(mid) || !IsPlayable(to) {
			continue
		}
		victim, occupied := b.Occupant(mid)
		if !occupied || victim.Color != p.Color.Opponent() {
			continue
		}
		if _, blocked := b.Occupant(to); blocked {
			continue
		}
		moves = append(moves, Move{Kind: Capture, From: from, To: to, Captured: mid})
	}
	return moves, nil
}

// HasAnyMove reports whether turn has at least one legal move anywhere.
func HasAnyMove(b *Board, turn Color) bool {
	for _, sq := range b.Squares(turn) {
		if moves, _ := LegalMoves(b, sq, turn); len(moves) > 0 {
			return true
		}
	}
	return false
}

// FindMove resolves a from/to pair against the legal set.
func FindMove(b *Board, from, to Square, turn Color) (Move, error) {
	if !to.Valid() {
		return Move{}, fmt.Errorf("%w: %d", ErrOutOfBounds, int(to))
	}
	moves, err := LegalMoves(b, from, turn)
	if err != nil {
		return Move{}, err
	}
	for _, m := range moves {
		if m.To == to {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("%w: %s-%s", ErrIllegalMove, from, to)
}

// CellChange records one cell before and after a move.
type CellChange struct {
	Square Square
	Before Cell
	After  Cell
}

// BoardDelta describes the effect of an applied move.
type BoardDelta struct {
	Move    Move
	Mover   Color
	Changes []CellChange
}

// Captured reports the color removed by the move, or NoColor.
func (d BoardDelta) Captured() Color {
	if d.Move.Kind != Capture {
		return NoColor
	}
	return d.Mover.Opponent()
}

// Apply executes m for turn. Anything not in LegalMoves(b, m.From, turn) is
// rejected with ErrIllegalMove and the board is left untouched.
func Apply(b *Board, m Move, turn Color) (BoardDelta, error) {
	legal, err := FindMove(b, m.From, m.To, turn)
	if err != nil {
		return BoardDelta{}, err
	}
	if legal != m {
		return BoardDelta{}, fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	touched := []Square{m.From, m.To}
	if m.Kind == Capture {
		touched = append(touched, m.Captured)
	}
	before := make([]Cell, len(touched))
	for i, sq := range touched {
		before[i] = b.cells[sq]
	}

	mover := b.cells[m.From].Piece
	b.cells[m.From] = Cell{}
	b.cells[m.To] = Cell{Piece: mover, Occupied: true}
	if m.Kind == Capture {
		b.cells[m.Captured] = Cell{}
	}

	delta := BoardDelta{Move: m, Mover: turn, Changes: make([]CellChange, len(touched))}
	for i, sq := range touched {
		delta.Changes[i] = CellChange{Square: sq, Before: before[i], After: b.cells[sq]}
	}
	return delta, nil
}
