package milp

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultIntTolerance is how far from an integer a value may sit and still
// count as integral.
const DefaultIntTolerance = 1e-6

// feasTol is the constraint tolerance used to verify an incumbent.
const feasTol = 1e-6

// BranchAndBound is a depth-first branch-and-bound MILP solver. Each node
// relaxes integrality and solves the remaining LP with gonum's simplex.
// Branching picks the most fractional integer column and explores the
// nearer rounding first.
type BranchAndBound struct {
	IntTolerance float64
	NodeLimit    int // 0 = unlimited
	Logger       *log.Logger
}

// NewBranchAndBound creates a solver with default tolerances.
func NewBranchAndBound(logger *log.Logger) *BranchAndBound {
	if logger == nil {
		logger = log.Default()
	}
	return &BranchAndBound{IntTolerance: DefaultIntTolerance, Logger: logger}
}

// node is one subproblem: the model under tightened variable bounds.
type node struct {
	lb, ub []float64
}

func (b *BranchAndBound) logger() *log.Logger {
	if b.Logger == nil {
		return log.Default()
	}
	return b.Logger
}

// Solve runs the search until it proves optimality or infeasibility, or
// until the time limit, the context or the node limit stops it.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model, timeLimit time.Duration) (*Solution, error) {
	if m == nil {
		return nil, errors.New("milp: nil model")
	}
	logger := b.logger()
	tol := b.IntTolerance
	if tol <= 0 {
		tol = DefaultIntTolerance
	}

	start := time.Now()
	deadline, hasDeadline := ctx.Deadline()
	if timeLimit > 0 {
		if limit := start.Add(timeLimit); !hasDeadline || limit.Before(deadline) {
			deadline, hasDeadline = limit, true
		}
	}

	n := len(m.vars)
	c := m.denseObjective()
	root := node{lb: make([]float64, n), ub: make([]float64, n)}
	for j, v := range m.vars {
		root.lb[j], root.ub[j] = v.LB, v.UB
		if v.Kind != Continuous {
			root.lb[j] = math.Ceil(v.LB - tol)
			root.ub[j] = math.Floor(v.UB + tol)
		}
	}

	sol := &Solution{Status: StatusInfeasible}
	best := math.Inf(1)
	var bestX []float64
	stopped := false

	stack := []node{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			sol.Status = StatusInterrupted
			if errors.Is(err, context.DeadlineExceeded) {
				sol.Status = StatusTimeLimit
			}
			stopped = true
			break
		}
		if hasDeadline && !time.Now().Before(deadline) {
			sol.Status = StatusTimeLimit
			stopped = true
			break
		}
		if b.NodeLimit > 0 && sol.Nodes >= b.NodeLimit {
			sol.Status = StatusNodeLimit
			stopped = true
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sol.Nodes++

		x, obj, err := relax(m, c, nd.lb, nd.ub)
		if err != nil {
			if errors.Is(err, lp.ErrUnbounded) && sol.Nodes == 1 {
				sol.Status = StatusUnbounded
				sol.Elapsed = time.Since(start)
				return sol, nil
			}
			if !errors.Is(err, lp.ErrInfeasible) {
				logger.Debug("pruned node on lp failure", "node", sol.Nodes, "err", err)
			}
			continue
		}
		if obj >= best-1e-9*(1+math.Abs(best)) {
			continue
		}

		j := b.mostFractional(m, x, tol)
		if j < 0 {
			for k, v := range m.vars {
				if v.Kind != Continuous {
					x[k] = math.Round(x[k])
				}
			}
			if !m.feasible(x, feasTol) {
				logger.Debug("discarded integral point failing verification", "node", sol.Nodes)
				continue
			}
			best, bestX = obj, x
			sol.incumbents++
			logger.Debug("new incumbent", "objective", m.evaluate(m.objective, x), "node", sol.Nodes)
			continue
		}

		v := x[j]
		fl := math.Floor(v)
		down := node{lb: nd.lb, ub: cloneWith(nd.ub, j, fl)}
		up := node{lb: cloneWith(nd.lb, j, fl+1), ub: nd.ub}
		// LIFO: the child pushed last is explored first.
		if v-fl < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	if bestX != nil {
		sol.values = make(map[string]float64, n)
		for j, v := range m.vars {
			sol.values[v.Name] = bestX[j]
		}
		sol.Objective = m.evaluate(m.objective, bestX)
		if !stopped {
			sol.Status = StatusOptimal
		}
	}
	sol.Elapsed = time.Since(start)

	logger.Debug("branch and bound finished",
		"status", sol.Status,
		"nodes", sol.Nodes,
		"incumbents", sol.incumbents,
		"elapsed", sol.Elapsed.Round(time.Millisecond))
	return sol, nil
}

// mostFractional returns the integer column farthest from integrality, or -1
// when x is integral within tol.
func (b *BranchAndBound) mostFractional(m *Model, x []float64, tol float64) int {
	pick, score := -1, tol
	for j, v := range m.vars {
		if v.Kind == Continuous {
			continue
		}
		f := math.Abs(x[j] - math.Round(x[j]))
		if f > score {
			pick, score = j, f
		}
	}
	return pick
}

func cloneWith(s []float64, j int, v float64) []float64 {
	out := append([]float64(nil), s...)
	out[j] = v
	return out
}
