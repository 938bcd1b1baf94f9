package genetic

import (
	"math"
	"math/rand"
	"sort"
)

// selectParent chooses one parent from the population according to the
// configured strategy. The population must be non-empty with every fitness
// already computed; an empty population is a KindInvalidPopulation error.
// The only state consumed is the supplied rng, so concurrent selection is
// safe when each caller owns its own source.
func selectParent(pop Population, cfg SelectionConfig, rng *rand.Rand) (*Individual, error) {
	if len(pop) == 0 {
		return nil, NewError(KindInvalidPopulation, "selection from empty population").WithComponent("selection")
	}

	switch cfg.Kind {
	case SelectionTournament:
		return selectTournament(pop, cfg.TournamentSize, cfg.WithReplacement, rng), nil
	case SelectionRoulette:
		return selectRoulette(pop, rng), nil
	case SelectionRank:
		return selectRank(pop, rng), nil
	default:
		return nil, NewErrorf(KindInvalidConfig, "unknown selection strategy %q", cfg.Kind).WithComponent("selection")
	}
}

// selectTournament samples k individuals and returns the fittest. Without
// replacement the sample is k distinct indices (k clamped to the population
// size); with replacement the same individual may be drawn more than once
// and k is unbounded. Ties go to the lowest population index within the
// sample, which keeps the outcome deterministic for a given sample
// regardless of the order the rng produced it in.
func selectTournament(pop Population, k int, withReplacement bool, rng *rand.Rand) *Individual {
	var sample []int
	if withReplacement {
		sample = make([]int, k)
		for i := range sample {
			sample[i] = rng.Intn(len(pop))
		}
	} else {
		if k > len(pop) {
			k = len(pop)
		}
		sample = rng.Perm(len(pop))[:k]
	}
	sort.Ints(sample)

	best := sample[0]
	for _, idx := range sample[1:] {
		if pop[idx].Fitness > pop[best].Fitness {
			best = idx
		}
	}
	return pop[best]
}

// selectRoulette implements fitness-proportional selection. Fitness values
// may be negative (the evaluator negates MSE), so they are shifted so the
// minimum sits at zero before proportions are computed. Individuals pinned
// at the fitness floor get zero weight and the shift is taken from the
// worst fitness above the floor; otherwise a single sanitized candidate
// would overflow the weight sum and collapse the wheel. A flat shifted
// distribution degenerates to a uniform pick.
func selectRoulette(pop Population, rng *rand.Rand) *Individual {
	floor := worstFitness()
	minFit := math.Inf(1)
	for _, ind := range pop {
		if ind.Fitness > floor && ind.Fitness < minFit {
			minFit = ind.Fitness
		}
	}
	if math.IsInf(minFit, 1) {
		// Every individual sits at the floor.
		return pop[rng.Intn(len(pop))]
	}

	weight := func(f float64) float64 {
		if f <= floor {
			return 0
		}
		return f - minFit
	}

	var total float64
	for _, ind := range pop {
		total += weight(ind.Fitness)
	}
	if total == 0 {
		// Flat above-floor fitness: pick uniformly among those members.
		healthy := make([]*Individual, 0, len(pop))
		for _, ind := range pop {
			if ind.Fitness > floor {
				healthy = append(healthy, ind)
			}
		}
		return healthy[rng.Intn(len(healthy))]
	}

	spin := rng.Float64() * total
	var acc float64
	var last *Individual
	for _, ind := range pop {
		w := weight(ind.Fitness)
		if w > 0 {
			last = ind
		}
		acc += w
		if spin < acc {
			return ind
		}
	}
	// Floating-point accumulation can land the spin past the last slot;
	// fall back to the last individual that held any weight.
	return last
}

// selectRank selects with probability proportional to fitness rank (worst
// rank 1 .. best rank n), insulating selection pressure from the raw fitness
// scale. Equal fitness values rank by population index so the ordering is
// rng-independent.
func selectRank(pop Population, rng *rand.Rand) *Individual {
	n := len(pop)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pop[order[a]].Fitness < pop[order[b]].Fitness
	})

	total := float64(n*(n+1)) / 2
	spin := rng.Float64() * total
	var acc float64
	for rank, idx := range order {
		acc += float64(rank + 1)
		if spin < acc {
			return pop[idx]
		}
	}
	return pop[order[n-1]]
}
