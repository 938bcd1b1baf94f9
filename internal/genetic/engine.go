package genetic

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Logger is the narrow logging interface the engine emits progress through.
// It matches the shape of internal/logging without importing it.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
}

// Engine drives the generational evolution loop: evaluate, select, vary,
// replace, check termination. Generations are strictly sequential; only
// fitness evaluation within a generation may fan out to workers. A single
// seeded rand.Rand owned by the engine feeds every stochastic step, so runs
// with identical config and dataset are bit-reproducible.
type Engine struct {
	cfg       RunConfig
	codec     *Codec
	evaluator Evaluator
	rng       *rand.Rand

	// OnGeneration, when set, receives each generation's stats as soon as
	// the generation's evaluation completes, including generation 0.
	OnGeneration func(GenerationStats)

	// Logger, when set, receives per-generation progress at debug level.
	Logger Logger

	mu      sync.RWMutex
	best    *Individual
	history []GenerationStats

	cancel context.CancelFunc
}

// NewEngine validates the configuration and builds an engine. Config errors
// surface here, before any generation executes. A zero seed draws entropy
// from the clock, making the run non-reproducible.
func NewEngine(cfg RunConfig, evaluator Evaluator) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, NewError(KindInvalidConfig, "evaluator is required")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		cfg:       cfg,
		codec:     NewCodec(&cfg),
		evaluator: evaluator,
		rng:       rand.New(rand.NewSource(seed)),
		history:   make([]GenerationStats, 0, 64),
	}, nil
}

// Codec returns the engine's chromosome codec.
func (e *Engine) Codec() *Codec {
	return e.codec
}

// Run executes the evolution loop until a termination criterion is met.
// Cancelling ctx is cooperative: it is checked once per generation boundary
// and yields the best-so-far result rather than an error.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	start := time.Now()

	if e.Logger != nil {
		e.Logger.Info("Run started", map[string]interface{}{
			"population_size": e.cfg.PopulationSize,
			"max_generations": e.cfg.MaxGenerations,
			"selection":       string(e.cfg.Selection.Kind),
			"seed":            e.cfg.Seed,
		})
	}

	pop := initializePopulation(&e.cfg, e.codec, e.rng)

	lastImprovement := 0
	var reason TerminationReason

	gen := 0
	for {
		select {
		case <-ctx.Done():
			return e.result(gen, TerminatedCancelled), nil
		default:
		}

		evaluateAll(pop, e.evaluator, e.cfg.Workers)

		stats := computeStats(pop, gen)
		if e.recordGeneration(pop, stats) {
			lastImprovement = gen
		}
		if e.OnGeneration != nil {
			e.OnGeneration(stats)
		}
		if e.Logger != nil {
			e.Logger.Debug("Generation completed", map[string]interface{}{
				"generation":   stats.Generation,
				"best_fitness": stats.BestFitness,
				"mean_fitness": stats.MeanFitness,
			})
		}

		if e.cfg.TargetFitness != nil && stats.BestFitness >= *e.cfg.TargetFitness {
			reason = TerminatedTargetReached
			break
		}
		if gen+1 >= e.cfg.MaxGenerations {
			reason = TerminatedMaxGenerations
			break
		}
		if e.cfg.StagnationWindow > 0 && gen-lastImprovement >= e.cfg.StagnationWindow {
			reason = TerminatedStagnation
			break
		}
		if e.cfg.MaxDuration > 0 && time.Since(start) >= e.cfg.MaxDuration {
			reason = TerminatedBudgetExceeded
			break
		}

		children, err := e.breed(pop, gen+1)
		if err != nil {
			return nil, err
		}
		pop, err = nextGeneration(pop, children, e.cfg.EliteCount)
		if err != nil {
			return nil, err
		}
		gen++
	}

	result := e.result(gen+1, reason)
	if e.Logger != nil {
		e.Logger.Info("Run finished", map[string]interface{}{
			"generations":  result.GenerationsRun,
			"best_fitness": result.BestFitness,
			"termination":  string(result.Termination),
		})
	}
	return result, nil
}

// BestSolution returns a copy of the best individual observed so far, or nil
// before the first evaluation. Safe to call while Run is in flight.
func (e *Engine) BestSolution() *Individual {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.best == nil {
		return nil
	}
	return e.best.Clone()
}

// History returns a copy of the stats emitted so far. Safe to call while Run
// is in flight.
func (e *Engine) History() []GenerationStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]GenerationStats, len(e.history))
	copy(out, e.history)
	return out
}

// Stop requests cooperative cancellation of a running Run.
func (e *Engine) Stop() {
	e.mu.RLock()
	cancel := e.cancel
	e.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// breed fills the non-elite slots of the next generation: draw two parents,
// recombine with probability CrossoverRate, mutate each child per gene, and
// clamp. Pairs can overshoot an odd slot count by one; the surplus child is
// truncated, matching the population manager's replacement policy.
func (e *Engine) breed(pop Population, birth int) ([]*Individual, error) {
	need := e.cfg.PopulationSize - e.cfg.EliteCount
	children := make([]*Individual, 0, need+1)

	for len(children) < need {
		parentA, err := selectParent(pop, e.cfg.Selection, e.rng)
		if err != nil {
			return nil, err
		}
		parentB, err := selectParent(pop, e.cfg.Selection, e.rng)
		if err != nil {
			return nil, err
		}

		childA, childB := crossover(parentA.Chromosome, parentB.Chromosome, e.cfg.Crossover, e.cfg.CrossoverRate, e.rng)
		childA = mutate(childA, e.cfg.Mutation, e.cfg.MutationRate, e.codec, e.rng)
		childB = mutate(childB, e.cfg.Mutation, e.cfg.MutationRate, e.codec, e.rng)

		children = append(children,
			&Individual{Chromosome: childA, Birth: birth},
			&Individual{Chromosome: childB, Birth: birth})
	}

	return children[:need], nil
}

// recordGeneration appends the generation's stats and refreshes the
// best-ever individual, which is tracked independently of elitism so a
// non-elitist run cannot silently drop its best candidate. The return value
// reports whether best fitness improved by more than StagnationEpsilon,
// feeding stagnation detection.
func (e *Engine) recordGeneration(pop Population, stats GenerationStats) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, stats)

	best := pop[sortedByFitness(pop)[0]]
	improved := e.best == nil
	if e.best == nil || best.Fitness > e.best.Fitness {
		if e.best != nil && best.Fitness > e.best.Fitness+e.cfg.StagnationEpsilon {
			improved = true
		}
		e.best = best.Clone()
	}
	return improved
}

// result assembles the terminal RunResult from the engine's tracked state.
func (e *Engine) result(generationsRun int, reason TerminationReason) *RunResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	res := &RunResult{
		GenerationsRun: generationsRun,
		Termination:    reason,
		Stats:          make([]GenerationStats, len(e.history)),
	}
	copy(res.Stats, e.history)

	if e.best != nil {
		res.BestParameters = e.codec.Decode(e.best.Chromosome)
		res.BestFitness = e.best.Fitness
	}
	return res
}

// computeStats summarizes one evaluated generation.
func computeStats(pop Population, generation int) GenerationStats {
	fitnesses := make([]float64, len(pop))
	best, worst := pop[0].Fitness, pop[0].Fitness
	for i, ind := range pop {
		fitnesses[i] = ind.Fitness
		if ind.Fitness > best {
			best = ind.Fitness
		}
		if ind.Fitness < worst {
			worst = ind.Fitness
		}
	}

	return GenerationStats{
		Generation:   generation,
		BestFitness:  best,
		MeanFitness:  stat.Mean(fitnesses, nil),
		WorstFitness: worst,
		StdDev:       stat.StdDev(fitnesses, nil),
	}
}
