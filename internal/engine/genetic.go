package engine

import (
	"context"
	"math/rand"
	"sort"

	"github.com/piwi3910/floorpack/internal/model"
)

// GeneticConfig holds parameters for the genetic strategy.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	TournamentSize int
	EliteCount     int
	Seed           int64
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfigFrom(model.DefaultSettings().Genetic)
}

// GeneticConfigFrom converts persisted settings, filling unset fields with
// defaults.
func GeneticConfigFrom(s model.GeneticSettings) GeneticConfig {
	cfg := GeneticConfig{
		PopulationSize: s.PopulationSize,
		Generations:    s.Generations,
		MutationRate:   s.MutationRate,
		TournamentSize: s.TournamentSize,
		EliteCount:     s.EliteCount,
		Seed:           s.Seed,
	}
	if cfg.PopulationSize < 1 {
		cfg.PopulationSize = 50
	}
	if cfg.Generations < 0 {
		cfg.Generations = 0
	}
	if cfg.TournamentSize < 1 {
		cfg.TournamentSize = 1
	}
	return cfg
}

// gene is one module placement decision in the chromosome.
type gene struct {
	module  int  // Index into the layout's modules
	rotated bool // Whether this module is turned 90 degrees
}

// chromosome is a candidate solution: a shelf order with rotation flags.
type chromosome struct {
	genes   []gene
	fitness float64
}

// geneticOptimizer searches shelf orders and orientations for the lowest
// packed height.
type geneticOptimizer struct {
	config GeneticConfig
	sizes  []shelfItem // Original module sizes
	width  float64
	rng    *rand.Rand
}

func newGeneticOptimizer(config GeneticConfig, sizes []shelfItem, width float64) *geneticOptimizer {
	return &geneticOptimizer{
		config: config,
		sizes:  sizes,
		width:  width,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// optimize runs the genetic algorithm and returns the best chromosome. It
// stops early, keeping the best so far, when ctx is done.
func (g *geneticOptimizer) optimize(ctx context.Context) chromosome {
	if len(g.sizes) == 0 {
		return chromosome{}
	}

	population := g.initPopulation()
	for i := range population {
		population[i].fitness = g.evaluate(population[i])
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		if ctx.Err() != nil {
			break
		}
		// Sort by fitness descending (higher is better)
		sort.SliceStable(population, func(i, j int) bool {
			return population[i].fitness > population[j].fitness
		})

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		eliteCount := min(g.config.EliteCount, len(population))
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, g.copyChromosome(population[i]))
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)

			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)

			child.fitness = g.evaluate(child)
			newPop = append(newPop, child)
		}

		population = newPop
	}

	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
	return population[0]
}

// initPopulation creates the initial random population, seeded with the
// plain shelf heuristic's choice.
func (g *geneticOptimizer) initPopulation() []chromosome {
	n := len(g.sizes)
	population := make([]chromosome, g.config.PopulationSize)

	for i := range population {
		genes := make([]gene, n)
		perm := g.rng.Perm(n)
		for j := 0; j < n; j++ {
			genes[j] = gene{module: perm[j], rotated: g.rng.Float64() < 0.5}
		}
		population[i] = chromosome{genes: genes}
	}
	population[0] = g.createGreedyChromosome()
	return population
}

// createGreedyChromosome mirrors ShelfPacker: upright, tallest first.
func (g *geneticOptimizer) createGreedyChromosome() chromosome {
	n := len(g.sizes)
	genes := make([]gene, n)
	for i, s := range g.sizes {
		genes[i] = gene{module: i, rotated: s.h < s.w}
	}
	height := func(gn gene) float64 { return g.item(gn).h }
	sort.SliceStable(genes, func(i, j int) bool {
		return height(genes[i]) > height(genes[j])
	})
	return chromosome{genes: genes}
}

func (g *geneticOptimizer) item(gn gene) shelfItem {
	s := g.sizes[gn.module]
	if gn.rotated {
		return shelfItem{w: s.h, h: s.w}
	}
	return s
}

// decode lays the chromosome out and returns per-gene positions and the
// packed height.
func (g *geneticOptimizer) decode(c chromosome) ([]model.Point, float64) {
	items := make([]shelfItem, len(c.genes))
	for i, gn := range c.genes {
		items[i] = g.item(gn)
	}
	return shelfPlan(items, g.width)
}

// evaluate scores a chromosome by the inverse of its packed height. Items
// wider than the outline are penalized.
func (g *geneticOptimizer) evaluate(c chromosome) float64 {
	_, height := g.decode(c)
	if height <= 0 {
		return 0
	}
	fitness := 1 / height
	for _, gn := range c.genes {
		if g.item(gn).w > g.width {
			fitness *= 0.5
		}
	}
	return fitness
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return g.copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX1) for permutation chromosomes.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.genes)
	if n <= 2 {
		return g.copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{genes: make([]gene, n)}

	inSegment := make([]bool, n)
	for i := point1; i <= point2; i++ {
		child.genes[i] = parent1.genes[i]
		inSegment[parent1.genes[i].module] = true
	}

	childIdx := (point2 + 1) % n
	for _, pg := range parent2.genes {
		if !inSegment[pg.module] {
			child.genes[childIdx] = pg
			childIdx = (childIdx + 1) % n
		}
	}

	return child
}

// mutate applies random swap, rotation and inversion mutations.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.genes)
	if n < 1 {
		return
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		c.genes[i].rotated = !c.genes[i].rotated
	}
	if n < 2 {
		return
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}

	// Inversion is rarer
	if g.rng.Float64() < g.config.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
			i++
			j--
		}
	}
}

func (g *geneticOptimizer) copyChromosome(c chromosome) chromosome {
	genes := make([]gene, len(c.genes))
	copy(genes, c.genes)
	return chromosome{genes: genes, fitness: c.fitness}
}

// optimizeGenetic runs the genetic search and writes the best layout back.
func (o *Optimizer) optimizeGenetic(ctx context.Context, layout *model.Layout, spec model.Spec, res *model.Result) error {
	layout.ResetPlacement()
	n := layout.Len()
	if n == 0 {
		return nil
	}

	config := GeneticConfigFrom(o.Settings.Genetic)
	// Scale generations for larger problems
	if n > 20 && config.Generations < 150 {
		config.Generations = 150
	}
	if n > 50 && config.Generations < 200 {
		config.Generations = 200
		config.PopulationSize = max(config.PopulationSize, 80)
	}

	sizes := make([]shelfItem, n)
	for i := range layout.Modules {
		m := layout.Module(i)
		sizes[i] = shelfItem{w: m.OrgWidth(), h: m.OrgHeight()}
	}
	width := spec.TargetWidth
	if width <= 0 {
		for _, s := range sizes {
			width += max(s.w, s.h)
		}
	}

	ga := newGeneticOptimizer(config, sizes, width)
	best := ga.optimize(ctx)
	positions, _ := ga.decode(best)
	for i, gn := range best.genes {
		m := layout.Module(gn.module)
		m.SetRotate(gn.rotated)
		m.SetPosition(positions[i])
	}
	res.Heuristic = true
	return ctx.Err()
}
