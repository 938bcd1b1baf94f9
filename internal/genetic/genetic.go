// Package genetic implements a generational genetic-algorithm engine over
// numeric chromosomes: population initialization, fitness evaluation,
// selection, crossover, mutation and the evolution loop with convergence
// detection. Fitness is higher-is-better throughout; minimization problems
// are inverted at the evaluator boundary.
package genetic

import (
	"time"
)

// SelectionKind identifies a parent-selection strategy. The strategy set is
// small and closed, so it is represented as a tagged kind plus parameters
// rather than open-ended dispatch.
type SelectionKind string

const (
	// SelectionTournament samples TournamentSize individuals uniformly,
	// without replacement unless WithReplacement is set, and returns the
	// fittest.
	SelectionTournament SelectionKind = "tournament"
	// SelectionRoulette selects with probability proportional to fitness.
	// Fitness values are shifted to be non-negative before use.
	SelectionRoulette SelectionKind = "roulette"
	// SelectionRank selects with probability proportional to fitness rank,
	// tolerating heavily skewed fitness scales.
	SelectionRank SelectionKind = "rank"
)

// CrossoverKind identifies a recombination operator.
type CrossoverKind string

const (
	// CrossoverSinglePoint swaps the gene suffix after one random cut.
	CrossoverSinglePoint CrossoverKind = "single_point"
	// CrossoverTwoPoint swaps the gene segment between two random cuts.
	CrossoverTwoPoint CrossoverKind = "two_point"
	// CrossoverUniform swaps each gene independently with probability 0.5.
	CrossoverUniform CrossoverKind = "uniform"
)

// MutationKind identifies a mutation operator. All operators perturb each
// gene independently with probability MutationRate and clamp the result to
// the gene's bounds.
type MutationKind string

const (
	// MutationUniform resamples the gene uniformly within its bounds.
	MutationUniform MutationKind = "uniform"
	// MutationGaussian adds a normal delta scaled to the gene's range.
	MutationGaussian MutationKind = "gaussian"
	// MutationBlend replaces the gene with the mean of itself and a
	// uniformly drawn value within its bounds.
	MutationBlend MutationKind = "blend"
)

// TerminationReason records why a run stopped.
type TerminationReason string

const (
	// TerminatedMaxGenerations means the generation limit was reached.
	TerminatedMaxGenerations TerminationReason = "max_generations"
	// TerminatedTargetReached means best fitness reached TargetFitness.
	TerminatedTargetReached TerminationReason = "target_reached"
	// TerminatedStagnation means best fitness failed to improve by more
	// than StagnationEpsilon for StagnationWindow consecutive generations.
	TerminatedStagnation TerminationReason = "stagnation"
	// TerminatedBudgetExceeded means the wall-clock budget ran out.
	TerminatedBudgetExceeded TerminationReason = "budget_exceeded"
	// TerminatedCancelled means the caller cancelled the run; the engine
	// still returns the best result observed so far.
	TerminatedCancelled TerminationReason = "cancelled"
)

// Bounds is an inclusive [Min, Max] range for a gene.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SelectionConfig is the tagged selection strategy variant.
type SelectionConfig struct {
	Kind SelectionKind `json:"kind"`

	// TournamentSize is the sample size k for tournament selection, k >= 2.
	// Ignored by the other strategies.
	TournamentSize int `json:"tournament_size,omitempty"`

	// WithReplacement makes the tournament sample with replacement, so the
	// same individual can occupy several slots and k may exceed the
	// population size. Ignored by the other strategies.
	WithReplacement bool `json:"with_replacement,omitempty"`
}

// RunConfig contains the immutable configuration for a single run.
type RunConfig struct {
	// PopulationSize is the fixed number of individuals per generation.
	PopulationSize int `json:"population_size"`

	// ChromosomeLength is the number of genes per chromosome.
	ChromosomeLength int `json:"chromosome_length"`

	// GeneBounds holds per-gene bounds. A single element applies to every
	// gene; otherwise the length must equal ChromosomeLength.
	GeneBounds []Bounds `json:"gene_bounds"`

	// Selection is the parent-selection strategy.
	Selection SelectionConfig `json:"selection"`

	// Crossover is the recombination operator.
	Crossover CrossoverKind `json:"crossover"`

	// CrossoverRate is the probability a parent pair is recombined rather
	// than copied, in [0, 1].
	CrossoverRate float64 `json:"crossover_rate"`

	// Mutation is the mutation operator.
	Mutation MutationKind `json:"mutation"`

	// MutationRate is the per-gene mutation probability, in [0, 1].
	MutationRate float64 `json:"mutation_rate"`

	// EliteCount individuals are carried unchanged into the next
	// generation, in [0, PopulationSize]. Setting it to the population
	// size disables variation entirely.
	EliteCount int `json:"elite_count"`

	// MaxGenerations caps the number of generations, >= 1.
	MaxGenerations int `json:"max_generations"`

	// StagnationWindow is the number of consecutive generations without
	// improvement beyond StagnationEpsilon before the run stops.
	// 0 disables stagnation detection.
	StagnationWindow int `json:"stagnation_window"`

	// StagnationEpsilon is the minimum best-fitness improvement that
	// resets the stagnation window.
	StagnationEpsilon float64 `json:"stagnation_epsilon"`

	// TargetFitness stops the run once best fitness reaches it, if set.
	TargetFitness *float64 `json:"target_fitness,omitempty"`

	// MaxDuration is an optional wall-clock budget checked at generation
	// boundaries. 0 disables it.
	MaxDuration time.Duration `json:"max_duration,omitempty"`

	// Seed seeds the run's random source. 0 draws non-reproducible
	// entropy from the clock.
	Seed int64 `json:"seed"`

	// Workers is the fitness-evaluation worker count. Values <= 1 mean
	// sequential evaluation. Evaluation order never affects results.
	Workers int `json:"workers,omitempty"`
}

// Validate checks the configuration, returning a KindInvalidConfig error for
// the first out-of-range value found. It runs before any generation executes.
func (c *RunConfig) Validate() error {
	if c.PopulationSize < 2 {
		return NewErrorf(KindInvalidConfig, "population size must be >= 2, got %d", c.PopulationSize)
	}
	if c.ChromosomeLength < 1 {
		return NewErrorf(KindInvalidConfig, "chromosome length must be >= 1, got %d", c.ChromosomeLength)
	}
	if len(c.GeneBounds) == 0 {
		return NewError(KindInvalidConfig, "gene bounds are required")
	}
	if len(c.GeneBounds) != 1 && len(c.GeneBounds) != c.ChromosomeLength {
		return NewErrorf(KindInvalidConfig, "gene bounds length %d does not match chromosome length %d",
			len(c.GeneBounds), c.ChromosomeLength)
	}
	for i, b := range c.GeneBounds {
		if b.Min > b.Max {
			return NewErrorf(KindInvalidConfig, "gene %d bounds inverted: [%g, %g]", i, b.Min, b.Max)
		}
	}
	switch c.Selection.Kind {
	case SelectionTournament:
		if c.Selection.TournamentSize < 2 {
			return NewErrorf(KindInvalidConfig, "tournament size must be >= 2, got %d", c.Selection.TournamentSize)
		}
	case SelectionRoulette, SelectionRank:
	default:
		return NewErrorf(KindInvalidConfig, "unknown selection strategy %q", c.Selection.Kind)
	}
	switch c.Crossover {
	case CrossoverSinglePoint, CrossoverTwoPoint, CrossoverUniform:
	default:
		return NewErrorf(KindInvalidConfig, "unknown crossover operator %q", c.Crossover)
	}
	switch c.Mutation {
	case MutationUniform, MutationGaussian, MutationBlend:
	default:
		return NewErrorf(KindInvalidConfig, "unknown mutation operator %q", c.Mutation)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return NewErrorf(KindInvalidConfig, "crossover rate must be in [0, 1], got %g", c.CrossoverRate)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return NewErrorf(KindInvalidConfig, "mutation rate must be in [0, 1], got %g", c.MutationRate)
	}
	if c.EliteCount < 0 || c.EliteCount > c.PopulationSize {
		return NewErrorf(KindInvalidConfig, "elite count must be in [0, %d], got %d", c.PopulationSize, c.EliteCount)
	}
	if c.MaxGenerations < 1 {
		return NewErrorf(KindInvalidConfig, "max generations must be >= 1, got %d", c.MaxGenerations)
	}
	if c.StagnationWindow < 0 {
		return NewErrorf(KindInvalidConfig, "stagnation window must be >= 0, got %d", c.StagnationWindow)
	}
	if c.StagnationEpsilon < 0 {
		return NewErrorf(KindInvalidConfig, "stagnation epsilon must be >= 0, got %g", c.StagnationEpsilon)
	}
	return nil
}

// boundsAt returns the bounds for gene i, resolving a single global entry.
func (c *RunConfig) boundsAt(i int) Bounds {
	if len(c.GeneBounds) == 1 {
		return c.GeneBounds[0]
	}
	return c.GeneBounds[i]
}

// Individual pairs a chromosome with its fitness and generation of birth.
type Individual struct {
	Chromosome Chromosome
	Fitness    float64
	// Evaluated marks Fitness as valid. Variation operators produce fresh
	// individuals with Evaluated false, so a cached fitness is never
	// carried across a gene change.
	Evaluated bool
	// Birth is the generation index the individual was created in.
	Birth int
}

// Clone returns a deep copy of the individual.
func (ind *Individual) Clone() *Individual {
	return &Individual{
		Chromosome: ind.Chromosome.Clone(),
		Fitness:    ind.Fitness,
		Evaluated:  ind.Evaluated,
		Birth:      ind.Birth,
	}
}

// Population is the ordered set of individuals for one generation. Its size
// is fixed for the whole run.
type Population []*Individual

// GenerationStats is the per-generation snapshot emitted to the caller.
type GenerationStats struct {
	Generation   int     `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	WorstFitness float64 `json:"worst_fitness"`
	StdDev       float64 `json:"std_dev"`
}

// RunResult is the terminal output of a run.
type RunResult struct {
	// BestParameters is the best chromosome ever observed, decoded to
	// domain parameters.
	BestParameters []float64 `json:"best_parameters"`

	// BestFitness is the fitness of BestParameters.
	BestFitness float64 `json:"best_fitness"`

	// GenerationsRun counts completed generations, including generation 0.
	GenerationsRun int `json:"generations_run"`

	// Termination records which criterion stopped the run.
	Termination TerminationReason `json:"termination"`

	// Stats holds one snapshot per completed generation.
	Stats []GenerationStats `json:"stats"`
}

// Dataset is the read-only numeric matrix the fitness evaluator scores
// against. Implementations must be safe for concurrent readers and must
// contain no missing or non-numeric values; validation is the dataset
// adapter's responsibility.
type Dataset interface {
	// NumRows returns the number of samples.
	NumRows() int
	// NumFeatures returns the number of feature columns.
	NumFeatures() int
	// Features returns the feature values of row i. Callers must not
	// modify the returned slice.
	Features(i int) []float64
	// Target returns the target value of row i.
	Target(i int) float64
}
