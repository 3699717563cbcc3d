package checkers

import "fmt"

type EventKind uint8

const (
	EventMoved EventKind = iota + 1
	EventCaptured
	EventTurnChanged
	EventSelectionChanged
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventMoved:
		return "moved"
	case EventCaptured:
		return "captured"
	case EventTurnChanged:
		return "turn_changed"
	case EventSelectionChanged:
		return "selection_changed"
	case EventReset:
		return "reset"
	}
	return "unknown"
}

// Event is delivered to listeners after the session state has changed.
type Event struct {
	Kind      EventKind
	Delta     BoardDelta
	Turn      Color
	Score     Score
	Selection Selection
}

type Listener func(Event)

// Selection is the selected square and its legal moves. From is NoSquare
// when nothing is selected.
type Selection struct {
	From  Square
	Moves []Move
}

func (s Selection) Active() bool { return s.From != NoSquare }

// Destinations returns the target squares of the selection in move order.
func (s Selection) Destinations() []Square {
	out := make([]Square, 0, len(s.Moves))
	for _, m := range s.Moves {
		out = append(out, m.To)
	}
	return out
}

// Snapshot is a detached copy of the session state.
type Snapshot struct {
	Board     *Board
	Turn      Color
	Score     Score
	Selection Selection
	LastMove  *Move
	MoveCount int
}

type subscriber struct {
	id int
	fn Listener
}

// Session owns one game: board, side to move, score and selection. It is
// not safe for concurrent use.
type Session struct {
	board     *Board
	turn      TurnController
	score     Score
	sel       Selection
	history   []Move
	listeners []subscriber
	nextID    int
}

func NewSession() *Session {
	return &Session{board: StartingBoard(), sel: Selection{From: NoSquare}}
}

// NewSessionFrom starts a session from an arbitrary position.
func NewSessionFrom(b *Board, turn Color) *Session {
	s := &Session{board: b.Clone(), sel: Selection{From: NoSquare}}
	if turn == Light {
		s.turn.Flip()
	}
	return s
}

func (s *Session) Turn() Color { return s.turn.Current() }
func (s *Session) Score() Score { return s.score }

func (s *Session) Selection() Selection {
	return Selection{From: s.sel.From, Moves: append([]Move(nil), s.sel.Moves...)}
}

// Moves returns the applied moves in order.
func (s *Session) Moves() []Move { return append([]Move(nil), s.history...) }

// LegalDestinations lists the moves of the piece on from for the side to
// move. It does not touch the selection.
func (s *Session) LegalDestinations(from Square) ([]Move, error) {
	return LegalMoves(s.board, from, s.turn.Current())
}

// Select makes from the active selection. The square must hold a piece of
// the side to move; a piece without moves is still selectable.
func (s *Session) Select(from Square) ([]Move, error) {
	moves, err := LegalMoves(s.board, from, s.turn.Current())
	if err != nil {
		return nil, err
	}
	if p, ok := s.board.Occupant(from); !ok || p.Color != s.turn.Current() {
		return nil, fmt.Errorf("%w: %s", ErrNotOwnPiece, from)
	}
	s.sel = Selection{From: from, Moves: moves}
	s.emit(Event{Kind: EventSelectionChanged, Turn: s.turn.Current(), Score: s.score, Selection: s.Selection()})
	return append([]Move(nil), moves...), nil
}

func (s *Session) Deselect() {
	if !s.sel.Active() {
		return
	}
	s.sel = Selection{From: NoSquare}
	s.emit(Event{Kind: EventSelectionChanged, Turn: s.turn.Current(), Score: s.score, Selection: s.Selection()})
}

// AttemptMove moves the piece on from to to if that is a legal move for the
// side to move. Legality is recomputed here regardless of any selection.
func (s *Session) AttemptMove(from, to Square) (BoardDelta, error) {
	turn := s.turn.Current()
	m, err := FindMove(s.board, from, to, turn)
	if err != nil {
		return BoardDelta{}, err
	}
	delta, err := Apply(s.board, m, turn)
	if err != nil {
		return BoardDelta{}, err
	}
	if c := delta.Captured(); c != NoColor {
		s.score.Record(c)
	}
	s.history = append(s.history, m)
	s.sel = Selection{From: NoSquare}
	next := s.turn.Flip()

	s.emit(Event{Kind: EventMoved, Delta: delta, Turn: next, Score: s.score, Selection: s.Selection()})
	if m.Kind == Capture {
		s.emit(Event{Kind: EventCaptured, Delta: delta, Turn: next, Score: s.score, Selection: s.Selection()})
	}
	s.emit(Event{Kind: EventTurnChanged, Delta: delta, Turn: next, Score: s.score, Selection: s.Selection()})
	return delta, nil
}

// MoveSelected moves the selected piece to to.
func (s *Session) MoveSelected(to Square) (BoardDelta, error) {
	if !s.sel.Active() {
		return BoardDelta{}, ErrEmptySelection
	}
	return s.AttemptMove(s.sel.From, to)
}

// Play parses and applies a move written as "b3-c4", "b3xd5" or "b3 c4".
func (s *Session) Play(notation string) (BoardDelta, error) {
	from, to, err := ParseMove(notation)
	if err != nil {
		return BoardDelta{}, err
	}
	return s.AttemptMove(from, to)
}

// Replay applies moves in order and stops at the first failure.
func (s *Session) Replay(notations ...string) error {
	for i, n := range notations {
		if _, err := s.Play(n); err != nil {
			return fmt.Errorf("replay move %d (%s): %w", i+1, n, err)
		}
	}
	return nil
}

// Blocked reports whether the side to move has no legal move at all.
func (s *Session) Blocked() bool {
	return !HasAnyMove(s.board, s.turn.Current())
}

// Reset restores the starting layout, Dark to move and a zero score.
func (s *Session) Reset() {
	s.board = StartingBoard()
	s.turn.Reset()
	s.score = Score{}
	s.sel = Selection{From: NoSquare}
	s.history = nil
	s.emit(Event{Kind: EventReset, Turn: s.turn.Current(), Score: s.score, Selection: s.Selection()})
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Board:     s.board.Clone(),
		Turn:      s.turn.Current(),
		Score:     s.score,
		Selection: s.Selection(),
		MoveCount: len(s.history),
	}
	if n := len(s.history); n > 0 {
		last := s.history[n-1]
		snap.LastMove = &last
	}
	return snap
}

// Subscribe registers fn for state change events. The returned function
// removes it.
func (s *Session) Subscribe(fn Listener) func() {
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) emit(ev Event) {
	for _, sub := range append([]subscriber(nil), s.listeners...) {
		sub.fn(ev)
	}
}
