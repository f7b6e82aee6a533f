package milp

import (
	"context"
	"time"
)

// Status is the terminal state of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusTimeLimit
	StatusInterrupted
	StatusUnbounded
	StatusNodeLimit
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusTimeLimit:
		return "time-limit"
	case StatusInterrupted:
		return "interrupted"
	case StatusUnbounded:
		return "unbounded"
	case StatusNodeLimit:
		return "node-limit"
	default:
		return "unknown"
	}
}

// Stopped reports whether the search ended early, leaving only the best
// incumbent found so far (if any).
func (s Status) Stopped() bool {
	return s == StatusTimeLimit || s == StatusInterrupted || s == StatusNodeLimit
}

// Solution is the outcome of one solve.
type Solution struct {
	Status    Status
	Objective float64
	Nodes     int
	Elapsed   time.Duration

	incumbents int
	values     map[string]float64
}

// NewSolution builds a Solution for Solver implementations outside this
// package. count is the number of incumbents found; values may be nil when
// count is zero.
func NewSolution(status Status, objective float64, values map[string]float64, count int) *Solution {
	return &Solution{Status: status, Objective: objective, values: values, incumbents: count}
}

// SolutionCount returns how many improving feasible solutions were found.
func (s *Solution) SolutionCount() int { return s.incumbents }

// Value returns the value of a variable in the best solution, or 0 when no
// solution exists or the name is unknown.
func (s *Solution) Value(name string) float64 {
	if s == nil || s.values == nil {
		return 0
	}
	return s.values[name]
}

// HasSolution reports whether an incumbent is available.
func (s *Solution) HasSolution() bool { return s != nil && s.incumbents > 0 }

// Solver solves a Model within a time budget. A zero or negative timeLimit
// means no limit beyond the context deadline.
type Solver interface {
	Solve(ctx context.Context, m *Model, timeLimit time.Duration) (*Solution, error)
}
