package milp

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// simplexTol is the reduced-cost tolerance handed to lp.Simplex.
const simplexTol = 1e-10

// relax solves the LP relaxation of m under the node bounds lb and ub and
// returns the point in the model's variable order along with its objective
// under min-form costs c.
//
// The standard form is built by shifting every variable to x' = x - lb and
// turning each row, including finite upper bounds, into a <= row with its own
// slack. The slack identity block keeps A at full row rank. Columns that
// appear in no row are dropped and pinned at their lower bound.
func relax(m *Model, c, lb, ub []float64) ([]float64, float64, error) {
	n := len(m.vars)
	for j := 0; j < n; j++ {
		if lb[j] > ub[j] {
			return nil, 0, lp.ErrInfeasible
		}
	}

	var rows [][]float64
	var rhs []float64
	addRow := func(a []float64, b float64, sign float64) {
		row := make([]float64, n)
		for j, v := range a {
			row[j] = sign * v
		}
		rows = append(rows, row)
		rhs = append(rhs, sign*b)
	}

	for _, con := range m.cons {
		a := make([]float64, n)
		for _, t := range con.Terms {
			a[m.varIndex[t.Var]] += t.Coef
		}
		b := con.RHS
		for j, v := range a {
			b -= v * lb[j]
		}
		switch con.Sense {
		case LessEqual:
			addRow(a, b, 1)
		case GreaterEqual:
			addRow(a, b, -1)
		case Equal:
			addRow(a, b, 1)
			addRow(a, b, -1)
		}
	}
	for j := 0; j < n; j++ {
		if math.IsInf(ub[j], 1) {
			continue
		}
		a := make([]float64, n)
		a[j] = 1
		addRow(a, ub[j]-lb[j], 1)
	}

	// Map active model columns to standard-form columns.
	col := make([]int, n)
	active := 0
	for j := 0; j < n; j++ {
		col[j] = -1
		for _, row := range rows {
			if row[j] != 0 {
				col[j] = active
				active++
				break
			}
		}
		if col[j] < 0 && c[j] < 0 {
			return nil, 0, lp.ErrUnbounded
		}
	}

	x := append([]float64(nil), lb...)
	if len(rows) > 0 {
		r := len(rows)
		cols := active + r
		data := make([]float64, r*cols)
		for i, row := range rows {
			// Keep b non-negative; the slack sign flips with the row.
			sign := 1.0
			if rhs[i] < 0 {
				sign, rhs[i] = -1, -rhs[i]
			}
			for j, v := range row {
				if col[j] >= 0 {
					data[i*cols+col[j]] = sign * v
				}
			}
			data[i*cols+active+i] = sign
		}
		cost := make([]float64, cols)
		for j := 0; j < n; j++ {
			if col[j] >= 0 {
				cost[col[j]] = c[j]
			}
		}

		_, xs, err := lp.Simplex(cost, mat.NewDense(r, cols, data), rhs, simplexTol, nil)
		if err != nil {
			return nil, 0, err
		}
		for j := 0; j < n; j++ {
			if col[j] >= 0 {
				x[j] = math.Min(math.Max(lb[j]+xs[col[j]], lb[j]), ub[j])
			}
		}
	}

	var obj float64
	for j, v := range x {
		obj += c[j] * v
	}
	return x, obj, nil
}
