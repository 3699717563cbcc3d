package checkerspresenter

import (
	"testing"

	core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
	svc "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
)

func TestToDTOStateSelectionAndWinner(t *testing.T) {
	sess := core.NewSession()
	moves, err := sess.Select(17)
	if err != nil || len(moves) == 0 {
		t.Fatalf("Select: %v", err)
	}
	last := core.Move{From: 17, To: 26, Kind: core.Simple}
	dto := ToDTOState(&svc.SessionState{
		Turn:      core.Dark,
		Selection: sess.Selection(),
		LastMove:  &last,
		Finished:  true,
		Winner:    core.Light,
	})
	if dto.Selected != "b3" || len(dto.Destinations) != 2 || dto.Destinations[0] != "a4" || dto.Destinations[1] != "c4" {
		t.Fatalf("selection: %+v", dto)
	}
	if dto.Turn != "dark" || dto.LastMove != "b3-c4" || dto.Winner != "light" {
		t.Fatalf("dto: %+v", dto)
	}

	sum := ToDTOMoveSummary(&svc.MoveSummary{Move: last, Mover: core.Dark})
	if sum.Victim != "" || sum.Mover != "dark" || sum.Move != "b3-c4" {
		t.Fatalf("summary: %+v", sum)
	}
}
