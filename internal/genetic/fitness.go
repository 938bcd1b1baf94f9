package genetic

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// worstFitness is substituted for any NaN or Inf produced by an objective
// function, so a single numerically unstable candidate cannot corrupt
// selection for an otherwise healthy run.
func worstFitness() float64 {
	return -math.MaxFloat64
}

// Evaluator scores a chromosome's genes, higher is better. Implementations
// must be pure functions of their inputs so repeated evaluation of an
// unchanged chromosome returns an identical value, and must be safe for
// concurrent calls on distinct chromosomes.
type Evaluator interface {
	Evaluate(genes []float64) float64
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(genes []float64) float64

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(genes []float64) float64 {
	return f(genes)
}

// LinearModelEvaluator scores a chromosome as the coefficients of a linear
// model fitted against a tabular dataset: gene 0 is the intercept, the
// remaining genes weight the feature columns, and the score is the negated
// mean squared error against the target column.
type LinearModelEvaluator struct {
	data Dataset
}

// NewLinearModelEvaluator validates the dataset shape and wraps it in an
// evaluator. An empty matrix or a zero feature count is a KindInvalidDataset
// error, surfaced before any generation begins.
func NewLinearModelEvaluator(data Dataset) (*LinearModelEvaluator, error) {
	if data == nil || data.NumRows() == 0 {
		return nil, NewError(KindInvalidDataset, "dataset has no rows").WithComponent("evaluator")
	}
	if data.NumFeatures() == 0 {
		return nil, NewError(KindInvalidDataset, "dataset has no feature columns").WithComponent("evaluator")
	}
	return &LinearModelEvaluator{data: data}, nil
}

// ChromosomeLength returns the gene count this evaluator expects: one
// intercept plus one weight per feature column.
func (e *LinearModelEvaluator) ChromosomeLength() int {
	return e.data.NumFeatures() + 1
}

// Evaluate returns -MSE of the linear model over the dataset. NaN or Inf
// residuals map to the worst possible fitness.
func (e *LinearModelEvaluator) Evaluate(genes []float64) float64 {
	if len(genes) != e.ChromosomeLength() {
		return worstFitness()
	}

	intercept := genes[0]
	weights := genes[1:]

	var sum float64
	n := e.data.NumRows()
	for i := 0; i < n; i++ {
		predicted := intercept + floats.Dot(weights, e.data.Features(i))
		residual := e.data.Target(i) - predicted
		sum += residual * residual
	}

	mse := sum / float64(n)
	if math.IsNaN(mse) || math.IsInf(mse, 0) {
		return worstFitness()
	}
	return -mse
}

// sanitizeFitness maps non-finite fitness values to the worst fitness.
// Applied to every evaluator output before it enters the population.
func sanitizeFitness(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return worstFitness()
	}
	return f
}
