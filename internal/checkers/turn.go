package checkers

// TurnController tracks the side to move. The zero value starts with Dark.
type TurnController struct {
	lightToMove bool
}

func (t *TurnController) Current() Color {
	if t.lightToMove {
		return Light
	}
	return Dark
}

// Flip hands the move to the other side and returns the new mover.
func (t *TurnController) Flip() Color {
	t.lightToMove = !t.lightToMove
	return t.Current()
}

func (t *TurnController) Reset() { t.lightToMove = false }
