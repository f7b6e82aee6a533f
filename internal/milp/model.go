// Package milp is a small mixed-integer linear programming layer: a named
// model builder, a solver contract and an in-process branch-and-bound
// backend over gonum's simplex.
package milp

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDuplicateVariable   = errors.New("milp: duplicate variable")
	ErrDuplicateConstraint = errors.New("milp: duplicate constraint")
	ErrUnknownVariable     = errors.New("milp: unknown variable")
	ErrInvalidBounds       = errors.New("milp: invalid bounds")
)

// VarKind is the domain of a decision variable.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

func (k VarKind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "continuous"
	}
}

// Sense is the relation of a linear constraint.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "<="
	}
}

// ObjectiveSense selects minimization or maximization.
type ObjectiveSense int

const (
	Minimize ObjectiveSense = iota
	Maximize
)

// Term is one coefficient-variable product of a linear expression.
type Term struct {
	Var  string
	Coef float64
}

// T is shorthand for building a Term.
func T(name string, coef float64) Term { return Term{Var: name, Coef: coef} }

type Variable struct {
	Name string
	LB   float64
	UB   float64
	Kind VarKind
}

type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a named MILP. A Model is meant to be built fresh for one solve;
// Reset exists for callers that reuse the value.
type Model struct {
	vars     []Variable
	varIndex map[string]int

	cons     []Constraint
	conNames map[string]struct{}

	objective []Term
	objSense  ObjectiveSense
}

func NewModel() *Model {
	return &Model{
		varIndex: make(map[string]int),
		conNames: make(map[string]struct{}),
	}
}

// AddVariable declares a variable. Binary bounds are clamped to [0, 1].
func (m *Model) AddVariable(name string, lb, ub float64, kind VarKind) error {
	if _, ok := m.varIndex[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateVariable, name)
	}
	if kind == Binary {
		lb, ub = math.Max(lb, 0), math.Min(ub, 1)
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || math.IsInf(lb, -1) || lb > ub {
		return fmt.Errorf("%w: %q [%g, %g]", ErrInvalidBounds, name, lb, ub)
	}
	m.varIndex[name] = len(m.vars)
	m.vars = append(m.vars, Variable{Name: name, LB: lb, UB: ub, Kind: kind})
	return nil
}

// AddConstraint adds sum(terms) sense rhs. Every term must reference a
// declared variable; repeated variables are summed.
func (m *Model) AddConstraint(name string, terms []Term, sense Sense, rhs float64) error {
	if _, ok := m.conNames[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateConstraint, name)
	}
	if err := m.checkTerms(terms); err != nil {
		return fmt.Errorf("constraint %q: %w", name, err)
	}
	m.conNames[name] = struct{}{}
	m.cons = append(m.cons, Constraint{
		Name:  name,
		Terms: append([]Term(nil), terms...),
		Sense: sense,
		RHS:   rhs,
	})
	return nil
}

// SetObjective replaces the objective.
func (m *Model) SetObjective(terms []Term, sense ObjectiveSense) error {
	if err := m.checkTerms(terms); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.objective = append([]Term(nil), terms...)
	m.objSense = sense
	return nil
}

func (m *Model) checkTerms(terms []Term) error {
	for _, t := range terms {
		if _, ok := m.varIndex[t.Var]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownVariable, t.Var)
		}
	}
	return nil
}

// Reset clears every variable, constraint and the objective.
func (m *Model) Reset() {
	m.vars = nil
	m.varIndex = make(map[string]int)
	m.cons = nil
	m.conNames = make(map[string]struct{})
	m.objective = nil
	m.objSense = Minimize
}

func (m *Model) NumVariables() int   { return len(m.vars) }
func (m *Model) NumConstraints() int { return len(m.cons) }

func (m *Model) Variables() []Variable     { return m.vars }
func (m *Model) Constraints() []Constraint { return m.cons }

// Variable looks up a declared variable by name.
func (m *Model) Variable(name string) (Variable, bool) {
	i, ok := m.varIndex[name]
	if !ok {
		return Variable{}, false
	}
	return m.vars[i], true
}

func (m *Model) Objective() ([]Term, ObjectiveSense) { return m.objective, m.objSense }

// denseObjective returns the objective as a coefficient vector in minimization form.
func (m *Model) denseObjective() []float64 {
	c := make([]float64, len(m.vars))
	sign := 1.0
	if m.objSense == Maximize {
		sign = -1
	}
	for _, t := range m.objective {
		c[m.varIndex[t.Var]] += sign * t.Coef
	}
	return c
}

// evaluate returns the value of terms at x, indexed like Variables.
func (m *Model) evaluate(terms []Term, x []float64) float64 {
	var v float64
	for _, t := range terms {
		v += t.Coef * x[m.varIndex[t.Var]]
	}
	return v
}

// feasible reports whether x satisfies every constraint and bound within tol.
func (m *Model) feasible(x []float64, tol float64) bool {
	for i, v := range m.vars {
		if x[i] < v.LB-tol || x[i] > v.UB+tol {
			return false
		}
	}
	for _, c := range m.cons {
		lhs := m.evaluate(c.Terms, x)
		slack := tol * (1 + math.Abs(c.RHS))
		switch c.Sense {
		case LessEqual:
			if lhs > c.RHS+slack {
				return false
			}
		case GreaterEqual:
			if lhs < c.RHS-slack {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > slack {
				return false
			}
		}
	}
	return true
}
