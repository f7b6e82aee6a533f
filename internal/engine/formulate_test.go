package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/piwi3910/floorpack/internal/milp"
	"github.com/piwi3910/floorpack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFormulator() *Formulator {
	return NewFormulator(milp.NewBranchAndBound(nil), 30*time.Second, nil)
}

func assertNoOverlap(t *testing.T, shapes []model.Shape) {
	t.Helper()
	for i := range shapes {
		for j := i + 1; j < len(shapes); j++ {
			assert.False(t, shapes[i].Bounds().Overlaps(shapes[j].Bounds()),
				"shapes %d and %d overlap: %v %v", i, j, shapes[i].Bounds(), shapes[j].Bounds())
		}
	}
}

func TestBuildPlacementModel_Size(t *testing.T) {
	shapes := threeBoxes().Shapes()

	m, err := BuildPlacementModel(shapes, 10, 12)
	require.NoError(t, err)

	// x, y, r per shape, p and q per pair, plus Y.
	assert.Equal(t, 3*3+2*3+1, m.NumVariables())
	// Two containment rows per shape, four separation rows per pair.
	assert.Equal(t, 2*3+4*3, m.NumConstraints())

	for _, name := range []string{"x_0", "y_2", "r_1", "p_0_1", "q_1_2", "Y"} {
		_, ok := m.Variable(name)
		assert.True(t, ok, name)
	}
	r, _ := m.Variable("r_0")
	assert.Equal(t, milp.Binary, r.Kind)
	y, _ := m.Variable("Y")
	assert.Equal(t, 12.0, y.UB)
}

func TestBuildPlacementModel_SingleShapeHasNoPairs(t *testing.T) {
	l := layoutOf([3]float64{1, 4, 3})
	m, err := BuildPlacementModel(l.Shapes(), 10, 10)
	require.NoError(t, err)

	assert.Equal(t, 4, m.NumVariables())
	assert.Equal(t, 2, m.NumConstraints())
}

func TestBuildPlacementModel_SeparationRows(t *testing.T) {
	l := layoutOf([3]float64{1, 4, 3}, [3]float64{2, 2, 5})
	m, err := BuildPlacementModel(l.Shapes(), 10, 8)
	require.NoError(t, err)

	rows := map[string]milp.Constraint{}
	for _, c := range m.Constraints() {
		rows[c.Name] = c
	}
	bigM := 10.0

	assert.Equal(t, milp.LessEqual, rows["nonoverlap1_0_1"].Sense)
	assert.Equal(t, -4.0, rows["nonoverlap1_0_1"].RHS)
	assert.Equal(t, bigM-3, rows["nonoverlap2_0_1"].RHS)
	assert.Equal(t, milp.GreaterEqual, rows["nonoverlap3_0_1"].Sense)
	assert.Equal(t, 2-bigM, rows["nonoverlap3_0_1"].RHS)
	assert.Equal(t, 5-2*bigM, rows["nonoverlap4_0_1"].RHS)
	assert.Contains(t, rows["in_x0"].Terms, milp.T("r_0", -1))
	assert.Contains(t, rows["in_y1"].Terms, milp.T("Y", -1))
	assert.Equal(t, 6.0, rows["in_x0"].RHS)
}

func TestFormulator_EmptyBuildsNoModel(t *testing.T) {
	solver := infeasibleSolver()
	f := NewFormulator(solver, time.Second, nil)

	res, err := f.Place(context.Background(), nil, 10, 10)
	require.NoError(t, err)
	assert.True(t, res.Placed)
	assert.Equal(t, 0.0, res.Height)
	assert.Equal(t, 0, solver.calls)
}

func TestFormulator_ThreeBoxesOpenHeight(t *testing.T) {
	l := threeBoxes()
	shapes := l.Shapes()

	res, err := newTestFormulator().Place(context.Background(), shapes, 10, math.Inf(1))
	require.NoError(t, err)
	require.True(t, res.Placed)
	assert.Equal(t, milp.StatusOptimal, res.Status)

	assertNoOverlap(t, shapes)
	for _, s := range shapes {
		b := s.Bounds()
		assert.GreaterOrEqual(t, b.Min.X, 0.0)
		assert.GreaterOrEqual(t, b.Min.Y, 0.0)
		assert.LessOrEqual(t, b.Max.X, 10.0)
	}
	assert.LessOrEqual(t, res.Height, 6.0)
	assert.GreaterOrEqual(t, res.Height, 4.0, "three rotated boxes side by side is the best possible")
}

func TestFormulator_ForcesRotation(t *testing.T) {
	l := layoutOf([3]float64{1, 5, 2})
	l.Module(0).SetPosition(model.Pt(9, 9))

	res, err := newTestFormulator().Place(context.Background(), l.Shapes(), 2, 5)
	require.NoError(t, err)
	require.True(t, res.Placed)

	m := l.Module(0)
	assert.True(t, m.IsRotated())
	assert.Equal(t, model.Pt(0, 0), m.Position())
	assert.Equal(t, 5.0, res.Height)
}

func TestFormulator_InfeasibleLeavesShapes(t *testing.T) {
	l := layoutOf([3]float64{1, 3, 3}, [3]float64{2, 3, 3})
	l.Module(1).SetPosition(model.Pt(7, 7))
	before := l.Snapshot()

	res, err := newTestFormulator().Place(context.Background(), l.Shapes(), 3, 3)
	require.NoError(t, err)
	assert.False(t, res.Placed)
	assert.Equal(t, milp.StatusInfeasible, res.Status)
	assert.Equal(t, before, l.Snapshot())
}

func TestFormulator_TimeLimitWithoutIncumbentFails(t *testing.T) {
	l := threeBoxes()
	solver := &stubSolver{sol: milp.NewSolution(milp.StatusTimeLimit, 0, nil, 0)}

	res, err := NewFormulator(solver, time.Second, nil).Place(context.Background(), l.Shapes(), 10, 10)
	require.NoError(t, err)
	assert.False(t, res.Placed)
	assert.Equal(t, 1, solver.calls)
}

func TestFormulator_TimeLimitWithIncumbentWritesBack(t *testing.T) {
	l := layoutOf([3]float64{1, 4, 3}, [3]float64{2, 4, 3})
	values := map[string]float64{
		"x_0": 0, "y_0": 0, "r_0": 0,
		"x_1": 3.9999999, "y_1": 0.0000001, "r_1": 0.9999,
		"Y": 4,
	}
	solver := &stubSolver{sol: milp.NewSolution(milp.StatusTimeLimit, 4, values, 2)}

	res, err := NewFormulator(solver, time.Second, nil).Place(context.Background(), l.Shapes(), 10, 10)
	require.NoError(t, err)
	require.True(t, res.Placed)
	assert.Equal(t, 2, res.Incumbents)

	assert.Equal(t, model.Pt(4, 0), l.Module(1).Position(), "coordinates are rounded")
	assert.True(t, l.Module(1).IsRotated())
	assert.Equal(t, 4.0, res.Height)
}

func TestFormulator_SolverErrorPropagates(t *testing.T) {
	l := threeBoxes()
	boom := errors.New("boom")
	solver := &stubSolver{err: boom}

	_, err := NewFormulator(solver, time.Second, nil).Place(context.Background(), l.Shapes(), 10, 10)
	assert.ErrorIs(t, err, boom)
}

func TestFormulator_OpenHeightBound(t *testing.T) {
	l := threeBoxes()
	solver := infeasibleSolver()

	_, err := NewFormulator(solver, time.Second, nil).Place(context.Background(), l.Shapes(), 10, 0)
	require.NoError(t, err)

	y, ok := solver.last.Variable("Y")
	require.True(t, ok)
	assert.Equal(t, 12.0, y.UB, "stack of longer sides")
}

func TestFormulator_PlacesClusters(t *testing.T) {
	// Two prebuilt 2x2 blocks of a pair of 1x2 modules each.
	l := layoutOf([3]float64{1, 1, 2}, [3]float64{2, 1, 2}, [3]float64{3, 1, 2}, [3]float64{4, 1, 2})
	l.Module(1).SetPosition(model.Pt(1, 0))
	l.Module(3).SetPosition(model.Pt(1, 0))
	a := l.ClusterOf(0, 1)
	b := l.ClusterOf(2, 3)
	shapes := []model.Shape{a, b}

	res, err := newTestFormulator().Place(context.Background(), shapes, 4, 0)
	require.NoError(t, err)
	require.True(t, res.Placed)

	assertNoOverlap(t, l.Shapes())
	assert.Equal(t, 2.0, res.Height)
	for i := 0; i < l.Len(); i++ {
		p := l.Module(i).Position()
		assert.Equal(t, math.Round(p.X), p.X)
		assert.Equal(t, math.Round(p.Y), p.Y)
	}
}
