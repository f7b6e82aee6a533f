package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/floorpack/internal/check"
	"github.com/piwi3910/floorpack/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the optimization result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario    ComparisonScenario
	Result      model.Result
	Err         error
	Height      float64
	Utilization float64
	Valid       bool
	Elapsed     time.Duration
}

// CompareScenarios runs every scenario against the same layout and returns
// the results in scenario order. Module state is snapshotted before each
// run and restored at the end, so the layout is left as it was found.
func CompareScenarios(ctx context.Context, layout *model.Layout, spec model.Spec, scenarios []ComparisonScenario, logger *log.Logger) []ComparisonResult {
	if logger == nil {
		logger = log.Default()
	}
	snapshot := layout.Snapshot()
	defer layout.Restore(snapshot)

	results := make([]ComparisonResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		if ctx.Err() != nil {
			break
		}
		layout.Restore(snapshot)

		start := time.Now()
		result, err := New(scenario.Settings, logger).Optimize(ctx, layout, spec)
		cr := ComparisonResult{
			Scenario: scenario,
			Result:   result,
			Err:      err,
			Elapsed:  time.Since(start),
		}
		if err == nil {
			report := check.Check(result.Placements, spec, scenario.Settings.CheckTolerance)
			cr.Height = report.BoundHeight
			cr.Utilization = report.Utilization
			cr.Valid = report.Valid()
		}
		results = append(results, cr)
	}
	return results
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Settings: base},
	}

	// Scenario: every other strategy
	for _, s := range []model.Strategy{model.StrategyShelf, model.StrategyClustered, model.StrategyGenetic} {
		if s == base.Strategy {
			continue
		}
		alt := base
		alt.Strategy = s
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Strategy %s", s),
			Settings: alt,
		})
	}

	// Scenario: smaller exact groups (faster solves)
	if base.Strategy == model.StrategyClustered && base.GroupSize > 2 {
		small := base
		small.GroupSize = base.GroupSize / 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Group size %d", small.GroupSize),
			Settings: small,
		})
	}

	return scenarios
}
