package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/floorpack/internal/importer"
	"github.com/piwi3910/floorpack/internal/model"
	"github.com/piwi3910/floorpack/internal/project"
)

// settingsOpts holds the flags shared by commands that run the optimizer.
type settingsOpts struct {
	config    string
	profile   string
	strategy  string
	timeLimit float64
	groupSize int
	retries   int
	fallback  bool
	nodeLimit int
	seed      int64
}

func (o *settingsOpts) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.config, "config", project.DefaultConfigPath(), "TOML configuration file")
	f.StringVar(&o.profile, "profile", "", "named settings profile from the configuration file")
	f.StringVar(&o.strategy, "strategy", "", "area-min strategy: shelf, clustered or genetic")
	f.Float64Var(&o.timeLimit, "time-limit", 0, "seconds per solver call")
	f.IntVar(&o.groupSize, "group-size", 0, "modules per exact sub-solve")
	f.IntVar(&o.retries, "retries", 0, "box widenings per group before falling back")
	f.BoolVar(&o.fallback, "fallback", false, "accept a shelf layout when a fixed outline is infeasible")
	f.IntVar(&o.nodeLimit, "node-limit", 0, "branch-and-bound node limit per solve (0 = unlimited)")
	f.Int64Var(&o.seed, "seed", 0, "random seed for the genetic strategy")
}

// resolve loads the configuration file and applies any flags that were set.
func (o *settingsOpts) resolve(cmd *cobra.Command) (model.Settings, error) {
	cfg, err := project.LoadConfig(o.config)
	if err != nil {
		return model.Settings{}, err
	}
	s, err := cfg.Profile(o.profile)
	if err != nil {
		return model.Settings{}, err
	}

	f := cmd.Flags()
	if f.Changed("strategy") {
		s.Strategy = model.Strategy(o.strategy)
	}
	if f.Changed("time-limit") {
		s.TimeLimit = o.timeLimit
	}
	if f.Changed("group-size") {
		s.GroupSize = o.groupSize
	}
	if f.Changed("retries") {
		s.RetryAttempts = o.retries
	}
	if f.Changed("fallback") {
		s.FallbackHeuristic = o.fallback
	}
	if f.Changed("node-limit") {
		s.NodeLimit = o.nodeLimit
	}
	if f.Changed("seed") {
		s.Genetic.Seed = o.seed
	}

	if err := project.Validate(s); err != nil {
		return model.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// loadLayout imports a module list and logs any warnings.
func loadLayout(cmd *cobra.Command, path string) (*model.Layout, error) {
	logger := loggerFromContext(cmd.Context())
	result := importer.LoadModules(path)
	for _, w := range result.Warnings {
		logger.Warn(w, "file", path)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	logger.Debug("modules loaded", "file", path, "count", len(result.Modules))
	return result.Layout(), nil
}

// loadPlacedLayout imports a module list and applies a position file to it.
func loadPlacedLayout(cmd *cobra.Command, modulesPath, positionsPath string) (*model.Layout, error) {
	layout, err := loadLayout(cmd, modulesPath)
	if err != nil {
		return nil, err
	}
	positions, err := importer.LoadPositions(positionsPath)
	if err != nil {
		return nil, err
	}
	if err := importer.ApplyPositions(layout, positions); err != nil {
		return nil, fmt.Errorf("%s: %w", positionsPath, err)
	}
	return layout, nil
}

// resultFromLayout describes an already placed layout as a result.
func resultFromLayout(layout *model.Layout, spec model.Spec) model.Result {
	res := model.NewResult(spec.ProblemType, "")
	bounds := layout.Bounds()
	res.Width = bounds.Max.X
	res.Height = bounds.Max.Y
	res.Placements = layout.Placements()
	return res
}
