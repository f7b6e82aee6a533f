package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/floorpack/internal/milp"
	"github.com/piwi3910/floorpack/internal/model"
)

// PlacementResult reports the outcome of one exact placement call.
type PlacementResult struct {
	Placed     bool
	Height     float64     // Top edge of the placed shapes; 0 when not placed
	Status     milp.Status // Solver status; zero value when no model was solved
	Incumbents int
	Nodes      int
}

// Formulator turns a set of shapes into a Big-M disjunctive packing model,
// solves it and writes the solution back onto the shapes.
type Formulator struct {
	Solver    milp.Solver
	TimeLimit time.Duration
	Logger    *log.Logger
}

// NewFormulator creates a formulator that solves with solver.
func NewFormulator(solver milp.Solver, timeLimit time.Duration, logger *log.Logger) *Formulator {
	if logger == nil {
		logger = log.Default()
	}
	return &Formulator{Solver: solver, TimeLimit: timeLimit, Logger: logger}
}

func (f *Formulator) logger() *log.Logger {
	if f.Logger == nil {
		return log.Default()
	}
	return f.Logger
}

// Place finds non-overlapping positions and rotations for shapes inside a
// width x height outline, minimizing the used height. A non-positive or
// infinite height means the outline is open at the top.
//
// Infeasible outlines and stopped searches without an incumbent return a
// PlacementResult with Placed false and a nil error; shapes are not touched.
// A non-nil error means the model itself could not be built or solved.
func (f *Formulator) Place(ctx context.Context, shapes []model.Shape, width, height float64) (PlacementResult, error) {
	if len(shapes) == 0 {
		return PlacementResult{Placed: true}, nil
	}
	if math.IsInf(height, 1) || height <= 0 {
		height = stackHeight(shapes)
	}

	m, err := BuildPlacementModel(shapes, width, height)
	if err != nil {
		return PlacementResult{}, fmt.Errorf("build placement model: %w", err)
	}

	logger := f.logger()
	logger.Debug("solving placement",
		"shapes", len(shapes),
		"width", width,
		"height", height,
		"vars", m.NumVariables(),
		"constraints", m.NumConstraints())

	sol, err := f.Solver.Solve(ctx, m, f.TimeLimit)
	if err != nil {
		return PlacementResult{}, fmt.Errorf("solve placement: %w", err)
	}

	res := PlacementResult{Status: sol.Status, Incumbents: sol.SolutionCount(), Nodes: sol.Nodes}
	switch {
	case sol.Status == milp.StatusOptimal:
	case sol.Status.Stopped() && sol.HasSolution():
		logger.Debug("using best incumbent", "status", sol.Status, "incumbents", sol.SolutionCount())
	default:
		logger.Debug("placement failed", "status", sol.Status)
		return res, nil
	}

	for i, s := range shapes {
		idx := strconv.Itoa(i)
		s.SetRotate(sol.Value("r_"+idx) > 0.5)
		model.MoveTo(s, model.Point{
			X: math.Round(sol.Value("x_" + idx)),
			Y: math.Round(sol.Value("y_" + idx)),
		})
	}
	res.Placed = true
	res.Height = model.BoundsOf(shapes).Max.Y
	return res, nil
}

// stackHeight is a height bound every set of shapes fits under: all of them
// stacked on their longer side.
func stackHeight(shapes []model.Shape) float64 {
	var h float64
	for _, s := range shapes {
		h += math.Max(s.OrgWidth(), s.OrgHeight())
	}
	return h
}

// BuildPlacementModel creates a fresh model for shapes in a width x height
// outline.
//
// Each shape i has a bottom-left corner (x_i, y_i) and a rotation flag r_i;
// its footprint is w_i + r_i(h_i - w_i) wide and h_i + r_i(w_i - h_i) tall.
// Each pair i < j gets two binaries p_i_j, q_i_j selecting one of four
// separations with M = max(width, height):
//
//	(p,q) = (0,0)  i left of j
//	(p,q) = (0,1)  i below j
//	(p,q) = (1,0)  i right of j
//	(p,q) = (1,1)  i above j
//
// Y bounds every top edge and is minimized.
func BuildPlacementModel(shapes []model.Shape, width, height float64) (*milp.Model, error) {
	m := milp.NewModel()
	n := len(shapes)
	bigM := math.Max(width, height)

	x := make([]string, n)
	y := make([]string, n)
	r := make([]string, n)
	for i := 0; i < n; i++ {
		idx := strconv.Itoa(i)
		x[i], y[i], r[i] = "x_"+idx, "y_"+idx, "r_"+idx
		if err := m.AddVariable(x[i], 0, width, milp.Continuous); err != nil {
			return nil, err
		}
		if err := m.AddVariable(y[i], 0, height, milp.Continuous); err != nil {
			return nil, err
		}
		if err := m.AddVariable(r[i], 0, 1, milp.Binary); err != nil {
			return nil, err
		}
	}

	pair := func(i, j int) string { return strconv.Itoa(i) + "_" + strconv.Itoa(j) }
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if err := m.AddVariable("p_"+pair(i, j), 0, 1, milp.Binary); err != nil {
				return nil, err
			}
			if err := m.AddVariable("q_"+pair(i, j), 0, 1, milp.Binary); err != nil {
				return nil, err
			}
		}
	}

	if err := m.AddVariable("Y", 0, height, milp.Continuous); err != nil {
		return nil, err
	}
	if err := m.SetObjective([]milp.Term{milp.T("Y", 1)}, milp.Minimize); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		wi, hi := shapes[i].OrgWidth(), shapes[i].OrgHeight()
		idx := strconv.Itoa(i)

		// x_i + w'_i <= W
		if err := m.AddConstraint("in_x"+idx, []milp.Term{
			milp.T(x[i], 1), milp.T(r[i], hi-wi),
		}, milp.LessEqual, width-wi); err != nil {
			return nil, err
		}
		// y_i + h'_i <= Y
		if err := m.AddConstraint("in_y"+idx, []milp.Term{
			milp.T(y[i], 1), milp.T(r[i], wi-hi), milp.T("Y", -1),
		}, milp.LessEqual, -hi); err != nil {
			return nil, err
		}

		for j := i + 1; j < n; j++ {
			wj, hj := shapes[j].OrgWidth(), shapes[j].OrgHeight()
			ij := pair(i, j)
			p, q := "p_"+ij, "q_"+ij

			rows := []struct {
				terms []milp.Term
				sense milp.Sense
				rhs   float64
			}{
				// x_i + w'_i <= x_j + M(p + q)
				{[]milp.Term{milp.T(x[i], 1), milp.T(x[j], -1), milp.T(r[i], hi-wi), milp.T(p, -bigM), milp.T(q, -bigM)},
					milp.LessEqual, -wi},
				// y_i + h'_i <= y_j + M(1 + p - q)
				{[]milp.Term{milp.T(y[i], 1), milp.T(y[j], -1), milp.T(r[i], wi-hi), milp.T(p, -bigM), milp.T(q, bigM)},
					milp.LessEqual, bigM - hi},
				// x_i >= x_j + w'_j - M(1 - p + q)
				{[]milp.Term{milp.T(x[i], 1), milp.T(x[j], -1), milp.T(r[j], -(hj - wj)), milp.T(p, -bigM), milp.T(q, bigM)},
					milp.GreaterEqual, wj - bigM},
				// y_i >= y_j + h'_j - M(2 - p - q)
				{[]milp.Term{milp.T(y[i], 1), milp.T(y[j], -1), milp.T(r[j], -(wj - hj)), milp.T(p, -bigM), milp.T(q, -bigM)},
					milp.GreaterEqual, hj - 2*bigM},
			}
			for k, row := range rows {
				name := "nonoverlap" + strconv.Itoa(k+1) + "_" + ij
				if err := m.AddConstraint(name, row.terms, row.sense, row.rhs); err != nil {
					return nil, err
				}
			}
		}
	}
	return m, nil
}
