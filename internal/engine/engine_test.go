package engine

import (
	"context"
	"time"

	"github.com/piwi3910/floorpack/internal/milp"
	"github.com/piwi3910/floorpack/internal/model"
)

// layoutOf builds a layout from (id, width, height) triples.
func layoutOf(mods ...[3]float64) *model.Layout {
	l := model.NewLayout(nil)
	for _, m := range mods {
		l.AddModule(int(m[0]), m[1], m[2])
	}
	return l
}

func threeBoxes() *model.Layout {
	return layoutOf([3]float64{1, 4, 3}, [3]float64{2, 4, 3}, [3]float64{3, 4, 3})
}

func defaultTestSettings() model.Settings {
	s := model.DefaultSettings()
	s.TimeLimit = 30
	return s
}

// stubSolver returns a canned solution and counts calls.
type stubSolver struct {
	sol   *milp.Solution
	err   error
	calls int
	last  *milp.Model
}

func (s *stubSolver) Solve(_ context.Context, m *milp.Model, _ time.Duration) (*milp.Solution, error) {
	s.calls++
	s.last = m
	return s.sol, s.err
}

func infeasibleSolver() *stubSolver {
	return &stubSolver{sol: milp.NewSolution(milp.StatusInfeasible, 0, nil, 0)}
}
