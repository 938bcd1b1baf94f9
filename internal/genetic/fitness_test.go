package genetic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDataset is a minimal in-memory Dataset for evaluator tests.
type memDataset struct {
	features [][]float64
	targets  []float64
}

func (d *memDataset) NumRows() int { return len(d.targets) }
func (d *memDataset) NumFeatures() int {
	if len(d.features) == 0 {
		return 0
	}
	return len(d.features[0])
}
func (d *memDataset) Features(i int) []float64 { return d.features[i] }
func (d *memDataset) Target(i int) float64     { return d.targets[i] }

func TestNewLinearModelEvaluatorEmptyDataset(t *testing.T) {
	_, err := NewLinearModelEvaluator(&memDataset{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidDataset))
}

func TestNewLinearModelEvaluatorNilDataset(t *testing.T) {
	_, err := NewLinearModelEvaluator(nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidDataset))
}

func TestLinearModelEvaluatorPerfectFit(t *testing.T) {
	// Target is exactly 1 + 2*x, so genes [1, 2] have zero error.
	data := &memDataset{
		features: [][]float64{{0}, {1}, {2}, {3}},
		targets:  []float64{1, 3, 5, 7},
	}
	eval, err := NewLinearModelEvaluator(data)
	require.NoError(t, err)
	require.Equal(t, 2, eval.ChromosomeLength())

	assert.InDelta(t, 0, eval.Evaluate([]float64{1, 2}), 1e-12)
}

func TestLinearModelEvaluatorKnownMSE(t *testing.T) {
	// Zero model against constant target 2: every residual is 2, MSE 4.
	data := &memDataset{
		features: [][]float64{{1}, {1}, {1}},
		targets:  []float64{2, 2, 2},
	}
	eval, err := NewLinearModelEvaluator(data)
	require.NoError(t, err)

	assert.InDelta(t, -4, eval.Evaluate([]float64{0, 0}), 1e-12)
}

func TestLinearModelEvaluatorIsDeterministic(t *testing.T) {
	data := &memDataset{
		features: [][]float64{{0.3, 0.7}, {0.1, 0.2}},
		targets:  []float64{1, 0},
	}
	eval, err := NewLinearModelEvaluator(data)
	require.NoError(t, err)

	genes := []float64{0.5, -1.5, 2.5}
	first := eval.Evaluate(genes)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, eval.Evaluate(genes))
	}
}

func TestLinearModelEvaluatorNonFiniteMapsToWorst(t *testing.T) {
	data := &memDataset{
		features: [][]float64{{1}},
		targets:  []float64{0},
	}
	eval, err := NewLinearModelEvaluator(data)
	require.NoError(t, err)

	tests := []struct {
		name  string
		genes []float64
	}{
		{"inf weight", []float64{0, math.Inf(1)}},
		{"nan weight", []float64{0, math.NaN()}},
		{"nan intercept", []float64{math.NaN(), 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval.Evaluate(tt.genes)
			assert.Equal(t, worstFitness(), got)
			assert.False(t, math.IsNaN(got))
			assert.False(t, math.IsInf(got, 0))
		})
	}
}

func TestLinearModelEvaluatorWrongGeneCount(t *testing.T) {
	data := &memDataset{
		features: [][]float64{{1, 2}},
		targets:  []float64{3},
	}
	eval, err := NewLinearModelEvaluator(data)
	require.NoError(t, err)

	assert.Equal(t, worstFitness(), eval.Evaluate([]float64{1}))
}

func TestSanitizeFitness(t *testing.T) {
	assert.Equal(t, 1.5, sanitizeFitness(1.5))
	assert.Equal(t, worstFitness(), sanitizeFitness(math.NaN()))
	assert.Equal(t, worstFitness(), sanitizeFitness(math.Inf(1)))
	assert.Equal(t, worstFitness(), sanitizeFitness(math.Inf(-1)))
}
