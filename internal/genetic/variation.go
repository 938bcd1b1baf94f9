package genetic

import (
	"math/rand"
)

// gaussianMutationScale sizes the normal mutation delta relative to the
// gene's bounded range.
const gaussianMutationScale = 0.1

// crossover recombines two parent chromosomes into two children. With
// probability 1-rate the children are plain copies of the parents. Length is
// always preserved and the operator consumes entropy only from rng, so a
// fixed rng state replays identically.
func crossover(parentA, parentB Chromosome, kind CrossoverKind, rate float64, rng *rand.Rand) (Chromosome, Chromosome) {
	childA := parentA.Clone()
	childB := parentB.Clone()

	if rng.Float64() >= rate {
		return childA, childB
	}

	n := len(childA)
	switch kind {
	case CrossoverSinglePoint:
		if n < 2 {
			break
		}
		point := 1 + rng.Intn(n-1)
		for i := point; i < n; i++ {
			childA[i], childB[i] = childB[i], childA[i]
		}
	case CrossoverTwoPoint:
		from := rng.Intn(n)
		to := from + rng.Intn(n-from)
		for i := from; i < to; i++ {
			childA[i], childB[i] = childB[i], childA[i]
		}
	case CrossoverUniform:
		for i := 0; i < n; i++ {
			if rng.Float64() < 0.5 {
				childA[i], childB[i] = childB[i], childA[i]
			}
		}
	}

	return childA, childB
}

// mutate perturbs each gene independently with probability rate and clamps
// the result to its bounds. The input chromosome is never modified; the
// returned copy has no fitness history.
func mutate(c Chromosome, kind MutationKind, rate float64, codec *Codec, rng *rand.Rand) Chromosome {
	out := c.Clone()
	for i := range out {
		if rng.Float64() >= rate {
			continue
		}
		b := codec.bounds[i]
		switch kind {
		case MutationUniform:
			out[i] = b.Min + rng.Float64()*(b.Max-b.Min)
		case MutationGaussian:
			out[i] += rng.NormFloat64() * gaussianMutationScale * (b.Max - b.Min)
		case MutationBlend:
			drawn := b.Min + rng.Float64()*(b.Max-b.Min)
			out[i] = (out[i] + drawn) / 2
		}
	}
	codec.clampInPlace(out)
	return out
}
