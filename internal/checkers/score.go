package checkers

// Score counts pieces removed from each side over a game.
type Score struct {
	CapturedDark  int `json:"captured_dark"`
	CapturedLight int `json:"captured_light"`
}

// Record adds one capture of color c.
func (s *Score) Record(c Color) {
	switch c {
	case Dark:
		s.CapturedDark++
	case Light:
		s.CapturedLight++
	}
}

// Of returns how many pieces of c were captured.
func (s Score) Of(c Color) int {
	if c == Dark {
		return s.CapturedDark
	}
	if c == Light {
		return s.CapturedLight
	}
	return 0
}
