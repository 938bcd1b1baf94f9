package genetic

import (
	"math/rand"
)

// Chromosome is a fixed-length ordered sequence of float64 genes. Treat it
// as immutable once an individual carrying it has been evaluated; variation
// operators always work on fresh copies.
type Chromosome []float64

// Clone returns an independent copy of the chromosome.
func (c Chromosome) Clone() Chromosome {
	out := make(Chromosome, len(c))
	copy(out, c)
	return out
}

// Codec translates between domain parameter vectors and the internal gene
// representation and enforces the per-gene bounds invariant.
type Codec struct {
	length int
	bounds []Bounds
}

// NewCodec creates a codec for the configured chromosome shape.
func NewCodec(cfg *RunConfig) *Codec {
	bounds := make([]Bounds, cfg.ChromosomeLength)
	for i := range bounds {
		bounds[i] = cfg.boundsAt(i)
	}
	return &Codec{length: cfg.ChromosomeLength, bounds: bounds}
}

// Length returns the chromosome length.
func (cd *Codec) Length() int {
	return cd.length
}

// Encode maps domain parameters into a chromosome. It fails with a
// KindEncoding error when the parameter count does not match the configured
// chromosome length.
func (cd *Codec) Encode(params []float64) (Chromosome, error) {
	if len(params) != cd.length {
		return nil, NewErrorf(KindEncoding, "parameter count %d does not match chromosome length %d",
			len(params), cd.length).WithComponent("codec")
	}
	return Chromosome(params).Clone(), nil
}

// Decode maps a chromosome back to domain parameters. It is total: it never
// fails for chromosomes produced by this codec or the variation operators.
func (cd *Codec) Decode(c Chromosome) []float64 {
	out := make([]float64, len(c))
	copy(out, c)
	return out
}

// RandomChromosome draws each gene uniformly within its bounds. Entropy
// comes from the supplied source only; the codec holds no mutable state.
func (cd *Codec) RandomChromosome(rng *rand.Rand) Chromosome {
	c := make(Chromosome, cd.length)
	for i := range c {
		b := cd.bounds[i]
		c[i] = b.Min + rng.Float64()*(b.Max-b.Min)
	}
	return c
}

// ClampToBounds returns a copy of c with every gene forced into its bounds.
// Applied after every mutation and crossover.
func (cd *Codec) ClampToBounds(c Chromosome) Chromosome {
	out := c.Clone()
	cd.clampInPlace(out)
	return out
}

// clampInPlace clamps genes without copying. Only safe on chromosomes that
// have never been evaluated.
func (cd *Codec) clampInPlace(c Chromosome) {
	for i := range c {
		b := cd.bounds[i]
		if c[i] < b.Min {
			c[i] = b.Min
		} else if c[i] > b.Max {
			c[i] = b.Max
		}
	}
}
