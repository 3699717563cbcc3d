package checkers

import "errors"

var (
	ErrOutOfBounds    = errors.New("square out of bounds")
	ErrIllegalMove    = errors.New("illegal move")
	ErrEmptySelection = errors.New("no piece selected")
	ErrNotOwnPiece    = errors.New("square does not hold a piece of the side to move")
	ErrBadNotation    = errors.New("bad notation")
)
