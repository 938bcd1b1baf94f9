package genetic

import (
	"math"
	"testing"
)

// bowlEvaluator is a quadratic bowl objective with its optimum at the
// origin, inverted to the engine's higher-is-better convention. Best
// possible fitness is 0.
var bowlEvaluator = EvaluatorFunc(func(genes []float64) float64 {
	sum := 0.0
	for _, g := range genes {
		sum += g * g
	}
	return -sum
})

// testConfig returns a valid baseline run configuration that individual
// tests tweak.
func testConfig() RunConfig {
	return RunConfig{
		PopulationSize:   20,
		ChromosomeLength: 2,
		GeneBounds:       []Bounds{{Min: -5, Max: 5}},
		Selection:        SelectionConfig{Kind: SelectionTournament, TournamentSize: 3},
		Crossover:        CrossoverSinglePoint,
		CrossoverRate:    0.9,
		Mutation:         MutationGaussian,
		MutationRate:     0.1,
		EliteCount:       1,
		MaxGenerations:   50,
		Seed:             42,
	}
}

// testPopulation builds an evaluated population from explicit fitness
// values; chromosome i is [i].
func testPopulation(fitnesses ...float64) Population {
	pop := make(Population, len(fitnesses))
	for i, f := range fitnesses {
		pop[i] = &Individual{
			Chromosome: Chromosome{float64(i)},
			Fitness:    f,
			Evaluated:  true,
		}
	}
	return pop
}

// assertFloatSlicesEqual checks two float64 slices for approximate equality.
func assertFloatSlicesEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}
