package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/floorpack/internal/milp"
	"github.com/piwi3910/floorpack/internal/model"
)

var (
	// ErrNoPlacement means a fixed outline could not be honored.
	ErrNoPlacement = errors.New("engine: no feasible placement")
	// ErrUnknownProblemType is returned for a spec outside types 0 and 1.
	ErrUnknownProblemType = errors.New("engine: unknown problem type")
	// ErrUnknownStrategy is returned for an unrecognized area-min strategy.
	ErrUnknownStrategy = errors.New("engine: unknown strategy")
)

// Optimizer drives a whole placement run over a layout.
type Optimizer struct {
	Settings model.Settings
	Solver   milp.Solver
	Logger   *log.Logger
}

// New creates an optimizer backed by the built-in branch-and-bound solver.
func New(settings model.Settings, logger *log.Logger) *Optimizer {
	if logger == nil {
		logger = log.Default()
	}
	bb := milp.NewBranchAndBound(logger)
	if settings.IntTolerance > 0 {
		bb.IntTolerance = settings.IntTolerance
	}
	bb.NodeLimit = settings.NodeLimit
	return &Optimizer{Settings: settings, Solver: bb, Logger: logger}
}

func (o *Optimizer) logger() *log.Logger {
	if o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

func (o *Optimizer) formulator() *Formulator {
	return NewFormulator(o.Solver, o.Settings.SolveTimeLimit(), o.logger())
}

// Optimize places every module of layout according to spec. Module
// positions and rotations are updated in place; the returned result
// records the final placements.
func (o *Optimizer) Optimize(ctx context.Context, layout *model.Layout, spec model.Spec) (model.Result, error) {
	start := time.Now()
	strategy := o.Settings.Strategy
	if strategy == "" {
		strategy = model.StrategyClustered
	}
	if spec.ProblemType == model.ProblemFixedOutline {
		strategy = ""
	}
	res := model.NewResult(spec.ProblemType, strategy)

	logger := o.logger().With("run", res.RunID)
	logger.Info("optimizing",
		"modules", layout.Len(),
		"problem", spec.ProblemType,
		"strategy", strategy,
		"width", spec.TargetWidth,
		"height", spec.TargetHeight)

	layout.ResetClusters()
	defer layout.ResetClusters()

	var err error
	switch spec.ProblemType {
	case model.ProblemFixedOutline:
		err = o.optimizeFixed(ctx, layout, spec, &res, logger)
	case model.ProblemAreaMin:
		switch strategy {
		case model.StrategyShelf:
			o.optimizeShelf(layout, spec, &res)
		case model.StrategyClustered:
			err = o.optimizeClustered(ctx, layout, spec, &res, logger)
		case model.StrategyGenetic:
			err = o.optimizeGenetic(ctx, layout, spec, &res)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
		}
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownProblemType, spec.ProblemType)
	}
	if err != nil {
		return res, err
	}

	bounds := layout.Bounds()
	res.Width = bounds.Max.X
	res.Height = bounds.Max.Y
	res.Placements = layout.Placements()
	res.Elapsed = time.Since(start)

	logger.Info("optimized",
		"height", res.Height,
		"width", res.Width,
		"utilization", fmt.Sprintf("%.2f%%", res.Utilization()*100),
		"fallbacks", res.Fallbacks,
		"elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// optimizeFixed wraps every module into one cluster and solves it exactly
// against the target outline.
func (o *Optimizer) optimizeFixed(ctx context.Context, layout *model.Layout, spec model.Spec, res *model.Result, logger *log.Logger) error {
	top := layout.WrapModules()
	pr, err := o.formulator().Place(ctx, top.Children(), spec.TargetWidth, spec.TargetHeight)
	res.SolveCalls++
	if err != nil {
		return err
	}
	if pr.Placed {
		logger.Debug("fixed outline placed", "status", pr.Status, "incumbents", pr.Incumbents, "nodes", pr.Nodes)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !o.Settings.FallbackHeuristic {
		return fmt.Errorf("%w: %s", ErrNoPlacement, pr.Status)
	}

	logger.Warn("fixed outline failed, using shelf heuristic", "status", pr.Status)
	layout.ResetPlacement()
	ShelfPacker{}.Pack(layout.Shapes(), spec.TargetWidth)
	res.Heuristic = true
	res.Fallbacks++
	return nil
}

func (o *Optimizer) optimizeShelf(layout *model.Layout, spec model.Spec, res *model.Result) {
	layout.ResetPlacement()
	ShelfPacker{}.Pack(layout.Shapes(), spec.TargetWidth)
	res.Heuristic = true
}

// optimizeClustered solves contiguous groups of modules exactly, then
// shelf-packs the groups as rigid clusters.
func (o *Optimizer) optimizeClustered(ctx context.Context, layout *model.Layout, spec model.Spec, res *model.Result, logger *log.Logger) error {
	groupSize := o.Settings.GroupSize
	if groupSize < 1 {
		groupSize = 1
	}
	attempts := o.Settings.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	f := o.formulator()

	var groups []model.Shape
	for first := 0; first < layout.Len(); first += groupSize {
		last := min(first+groupSize, layout.Len())
		indices := make([]int, 0, last-first)
		for i := first; i < last; i++ {
			indices = append(indices, i)
		}
		c := layout.ClusterOf(indices...)
		members := c.Children()
		tight, target := groupWidths(members, spec.TargetWidth)

		placed := false
		for attempt := 0; attempt < attempts && !placed; attempt++ {
			resetShapes(members)
			width := attemptWidth(tight, target, attempt, attempts)
			pr, err := f.Place(ctx, members, width, 0)
			res.SolveCalls++
			if err != nil {
				return fmt.Errorf("group %d: %w", len(groups), err)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Debug("group attempt",
				"group", len(groups),
				"attempt", attempt+1,
				"width", width,
				"status", pr.Status,
				"placed", pr.Placed)
			placed = pr.Placed
		}
		if !placed {
			logger.Warn("group fell back to shelf heuristic", "group", len(groups), "modules", len(members))
			resetShapes(members)
			ShelfPacker{}.Pack(members, target)
			res.Fallbacks++
			res.Heuristic = true
		}
		groups = append(groups, c)
	}

	ShelfPacker{}.Pack(groups, spec.TargetWidth)
	return nil
}

// groupWidths returns the tight square-ish width for members and the widest
// box a group may use. Neither is smaller than the narrowest side of any
// member, so every attempt can fit each member on its own.
func groupWidths(members []model.Shape, targetWidth float64) (tight, target float64) {
	var area, floor, stack float64
	for _, s := range members {
		w, h := s.OrgWidth(), s.OrgHeight()
		area += w * h
		floor = math.Max(floor, math.Min(w, h))
		stack += math.Max(w, h)
	}
	target = targetWidth
	if target <= 0 || math.IsInf(target, 1) {
		target = stack
	}
	target = math.Max(target, floor)
	tight = math.Min(math.Max(math.Ceil(math.Sqrt(area)), floor), target)
	return tight, target
}

// attemptWidth widens the box linearly from tight on the first attempt to
// target on the last.
func attemptWidth(tight, target float64, attempt, attempts int) float64 {
	if attempts <= 1 {
		return target
	}
	frac := float64(attempt) / float64(attempts-1)
	return math.Ceil(tight + frac*(target-tight))
}

// resetShapes moves shapes back to the origin, unrotated.
func resetShapes(shapes []model.Shape) {
	for _, s := range shapes {
		s.SetRotate(false)
		s.SetPosition(model.Point{})
	}
}
