package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ProblemType selects what the placement engine optimizes for.
type ProblemType int

const (
	ProblemFixedOutline ProblemType = iota // Honor the target outline exactly
	ProblemAreaMin                         // Minimize the enclosing height/area
)

func (p ProblemType) String() string {
	switch p {
	case ProblemFixedOutline:
		return "fixed-outline"
	case ProblemAreaMin:
		return "area-min"
	default:
		return "unknown"
	}
}

// Spec is the target outline and problem type for one run.
type Spec struct {
	ProblemType  ProblemType `json:"problem_type"`
	TargetWidth  float64     `json:"target_width"`
	TargetHeight float64     `json:"target_height"`
}

// UnboundedHeight reports whether the outline places no limit on height.
func (s Spec) UnboundedHeight() bool {
	return s.TargetHeight <= 0 || math.IsInf(s.TargetHeight, 1)
}

// Strategy represents the area-minimization strategy to use.
type Strategy string

const (
	StrategyShelf     Strategy = "shelf"     // Greedy shelf packing of all modules (fast)
	StrategyClustered Strategy = "clustered" // Exact sub-solves per group, groups shelf-packed
	StrategyGenetic   Strategy = "genetic"   // Genetic search over shelf order and rotation
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyShelf, StrategyClustered, StrategyGenetic:
		return true
	}
	return false
}

// GeneticSettings holds parameters for the genetic strategy.
type GeneticSettings struct {
	PopulationSize int     `toml:"population_size" json:"population_size"`
	Generations    int     `toml:"generations" json:"generations"`
	MutationRate   float64 `toml:"mutation_rate" json:"mutation_rate"`
	TournamentSize int     `toml:"tournament_size" json:"tournament_size"`
	EliteCount     int     `toml:"elite_count" json:"elite_count"`
	Seed           int64   `toml:"seed" json:"seed"`
}

// Settings holds optimizer, solver and check configuration.
type Settings struct {
	// Optimizer settings
	Strategy          Strategy `toml:"strategy" json:"strategy"`
	GroupSize         int      `toml:"group_size" json:"group_size"`                 // Modules per exact sub-solve
	RetryAttempts     int      `toml:"retry_attempts" json:"retry_attempts"`         // Box widenings per group
	FallbackHeuristic bool     `toml:"fallback_heuristic" json:"fallback_heuristic"` // Accept shelf result when a fixed outline fails

	// Solver settings
	TimeLimit    float64 `toml:"time_limit" json:"time_limit"`       // Seconds per solve call
	IntTolerance float64 `toml:"int_tolerance" json:"int_tolerance"` // Integrality tolerance
	NodeLimit    int     `toml:"node_limit" json:"node_limit"`       // 0 = unlimited

	// Validity check
	CheckTolerance float64 `toml:"check_tolerance" json:"check_tolerance"`

	Genetic GeneticSettings `toml:"genetic" json:"genetic"`
}

// SolveTimeLimit returns TimeLimit as a duration.
func (s Settings) SolveTimeLimit() time.Duration {
	return time.Duration(s.TimeLimit * float64(time.Second))
}

func DefaultSettings() Settings {
	return Settings{
		Strategy:          StrategyClustered,
		GroupSize:         4,
		RetryAttempts:     3,
		FallbackHeuristic: false,
		TimeLimit:         600,
		IntTolerance:      1e-6,
		NodeLimit:         0,
		CheckTolerance:    0.1,
		Genetic: GeneticSettings{
			PopulationSize: 50,
			Generations:    100,
			MutationRate:   0.15,
			TournamentSize: 3,
			EliteCount:     2,
			Seed:           42,
		},
	}
}

// Placement is the final position record of one module.
type Placement struct {
	ID      int     `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`  // Original width
	Height  float64 `json:"height"` // Original height
	Rotated bool    `json:"rotated"`
}

// PlacedWidth returns the effective width considering rotation.
func (p Placement) PlacedWidth() float64 {
	if p.Rotated {
		return p.Height
	}
	return p.Width
}

// PlacedHeight returns the effective height considering rotation.
func (p Placement) PlacedHeight() float64 {
	if p.Rotated {
		return p.Width
	}
	return p.Height
}

// Placements records the current state of every module in input order.
func (l *Layout) Placements() []Placement {
	out := make([]Placement, len(l.Modules))
	for i := range l.Modules {
		m := &l.Modules[i]
		out[i] = Placement{
			ID:      m.ID,
			X:       m.position.X,
			Y:       m.position.Y,
			Width:   m.width,
			Height:  m.height,
			Rotated: m.rotated,
		}
	}
	return out
}

// Result summarizes one optimization run.
type Result struct {
	RunID       string        `json:"run_id"`
	ProblemType ProblemType   `json:"problem_type"`
	Strategy    Strategy      `json:"strategy"`
	Height      float64       `json:"height"`
	Width       float64       `json:"width"`
	Heuristic   bool          `json:"heuristic"`  // Some or all of the layout came from the shelf packer
	Fallbacks   int           `json:"fallbacks"`  // Groups that fell back to the shelf packer
	SolveCalls  int           `json:"solve_calls"`
	Elapsed     time.Duration `json:"elapsed"`
	Placements  []Placement   `json:"placements"`
}

// NewResult starts a result with a fresh short run ID.
func NewResult(pt ProblemType, strategy Strategy) Result {
	return Result{
		RunID:       uuid.New().String()[:8],
		ProblemType: pt,
		Strategy:    strategy,
	}
}

// Utilization returns the ratio of module area to the result's bounding box.
func (r Result) Utilization() float64 {
	box := r.Width * r.Height
	if box == 0 {
		return 0
	}
	var area float64
	for _, p := range r.Placements {
		area += p.Width * p.Height
	}
	return area / box
}
