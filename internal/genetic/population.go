package genetic

import (
	"math/rand"
	"sort"
	"sync"
)

// initializePopulation creates generation 0: PopulationSize random
// chromosomes wrapped as unevaluated individuals.
func initializePopulation(cfg *RunConfig, codec *Codec, rng *rand.Rand) Population {
	pop := make(Population, cfg.PopulationSize)
	for i := range pop {
		pop[i] = &Individual{
			Chromosome: codec.RandomChromosome(rng),
			Birth:      0,
		}
	}
	return pop
}

// evaluateAll fills in fitness for every individual that lacks one.
// Already-evaluated individuals are never re-scored, so elite carry-overs
// keep their cached fitness. With workers > 1 evaluation fans out over a
// worker pool; the evaluator is pure and consumes no rng, so the parallel
// schedule cannot affect results.
func evaluateAll(pop Population, eval Evaluator, workers int) {
	if workers <= 1 {
		for _, ind := range pop {
			if !ind.Evaluated {
				ind.Fitness = sanitizeFitness(eval.Evaluate(ind.Chromosome))
				ind.Evaluated = true
			}
		}
		return
	}

	jobs := make(chan *Individual)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range jobs {
				ind.Fitness = sanitizeFitness(eval.Evaluate(ind.Chromosome))
				ind.Evaluated = true
			}
		}()
	}
	for _, ind := range pop {
		if !ind.Evaluated {
			jobs <- ind
		}
	}
	close(jobs)
	wg.Wait()
}

// sortedByFitness returns population indices ordered best-first. Equal
// fitness orders by population index, keeping elitism deterministic.
func sortedByFitness(pop Population) []int {
	order := make([]int, len(pop))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pop[order[a]].Fitness > pop[order[b]].Fitness
	})
	return order
}

// nextGeneration builds the replacement population: the eliteCount fittest
// individuals of current carry over unchanged, the remaining slots fill from
// children in order. Surplus children are truncated; a shortfall is a
// KindInvalidPopulation error since the engine always produces enough. The
// returned population has exactly len(current) members.
func nextGeneration(current Population, children []*Individual, eliteCount int) (Population, error) {
	size := len(current)
	if size == 0 {
		return nil, NewError(KindInvalidPopulation, "empty current population").WithComponent("population")
	}
	if eliteCount > size {
		eliteCount = size
	}
	if len(children) < size-eliteCount {
		return nil, NewErrorf(KindInvalidPopulation, "need %d children to fill generation, got %d",
			size-eliteCount, len(children)).WithComponent("population")
	}

	next := make(Population, 0, size)
	order := sortedByFitness(current)
	for _, idx := range order[:eliteCount] {
		next = append(next, current[idx])
	}
	next = append(next, children[:size-eliteCount]...)
	return next, nil
}
