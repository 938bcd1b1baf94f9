package genetic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"population too small", func(c *RunConfig) { c.PopulationSize = 1 }},
		{"zero chromosome length", func(c *RunConfig) { c.ChromosomeLength = 0 }},
		{"missing bounds", func(c *RunConfig) { c.GeneBounds = nil }},
		{"bounds length mismatch", func(c *RunConfig) { c.GeneBounds = []Bounds{{0, 1}, {0, 1}, {0, 1}} }},
		{"inverted bounds", func(c *RunConfig) { c.GeneBounds = []Bounds{{Min: 2, Max: 1}} }},
		{"tournament size too small", func(c *RunConfig) { c.Selection.TournamentSize = 1 }},
		{"unknown selection", func(c *RunConfig) { c.Selection.Kind = "best" }},
		{"unknown crossover", func(c *RunConfig) { c.Crossover = "triple_point" }},
		{"unknown mutation", func(c *RunConfig) { c.Mutation = "swap" }},
		{"crossover rate too high", func(c *RunConfig) { c.CrossoverRate = 1.5 }},
		{"mutation rate negative", func(c *RunConfig) { c.MutationRate = -0.1 }},
		{"elite count too large", func(c *RunConfig) { c.EliteCount = c.PopulationSize + 1 }},
		{"zero max generations", func(c *RunConfig) { c.MaxGenerations = 0 }},
		{"negative stagnation window", func(c *RunConfig) { c.StagnationWindow = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg, bowlEvaluator)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindInvalidConfig))
		})
	}
}

func TestNewEngineRequiresEvaluator(t *testing.T) {
	_, err := NewEngine(testConfig(), nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidConfig))
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	run := func() *RunResult {
		cfg := testConfig()
		cfg.Seed = 1234
		cfg.Workers = 4
		engine, err := NewEngine(cfg, bowlEvaluator)
		require.NoError(t, err)
		result, err := engine.Run(context.Background())
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	assert.Equal(t, first.BestFitness, second.BestFitness)
	assert.Equal(t, first.BestParameters, second.BestParameters)
	assert.Equal(t, first.GenerationsRun, second.GenerationsRun)
	assert.Equal(t, first.Termination, second.Termination)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestRunEmitsStatsForEveryGeneration(t *testing.T) {
	cfg := testConfig()
	cfg.MaxGenerations = 10

	engine, err := NewEngine(cfg, bowlEvaluator)
	require.NoError(t, err)

	var emitted []GenerationStats
	engine.OnGeneration = func(stats GenerationStats) {
		emitted = append(emitted, stats)
	}

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, emitted, 10)
	for i, stats := range emitted {
		assert.Equal(t, i, stats.Generation)
		assert.GreaterOrEqual(t, stats.BestFitness, stats.MeanFitness)
		assert.GreaterOrEqual(t, stats.MeanFitness, stats.WorstFitness)
	}
	assert.Equal(t, emitted, result.Stats)
	assert.Equal(t, 10, result.GenerationsRun)
	assert.Equal(t, TerminatedMaxGenerations, result.Termination)
}

func TestRunBestFitnessMonotonicWithElitism(t *testing.T) {
	cfg := testConfig()
	cfg.EliteCount = 1
	cfg.PopulationSize = 20
	cfg.MaxGenerations = 50

	engine, err := NewEngine(cfg, bowlEvaluator)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	for i := 1; i < len(result.Stats); i++ {
		assert.GreaterOrEqual(t, result.Stats[i].BestFitness, result.Stats[i-1].BestFitness,
			"best fitness regressed at generation %d", i)
	}

	// The quadratic bowl's optimum is 0; fifty elitist generations should
	// get close.
	assert.Greater(t, result.BestFitness, -1.0)
	assert.Greater(t, result.BestFitness, result.Stats[0].BestFitness)
}

func TestRunNoOpEvolutionKeepsPopulationIdentical(t *testing.T) {
	cfg := testConfig()
	cfg.CrossoverRate = 0
	cfg.MutationRate = 0
	cfg.EliteCount = cfg.PopulationSize
	cfg.MaxGenerations = 10

	engine, err := NewEngine(cfg, bowlEvaluator)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Stats, 10)
	first := result.Stats[0]
	for _, stats := range result.Stats[1:] {
		assert.Equal(t, first.BestFitness, stats.BestFitness)
		assert.Equal(t, first.MeanFitness, stats.MeanFitness)
		assert.Equal(t, first.WorstFitness, stats.WorstFitness)
	}
}

func TestRunStopsAtTargetFitness(t *testing.T) {
	target := -1e6 // Any random population beats this immediately.
	cfg := testConfig()
	cfg.TargetFitness = &target

	engine, err := NewEngine(cfg, bowlEvaluator)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TerminatedTargetReached, result.Termination)
	assert.Equal(t, 1, result.GenerationsRun)
}

func TestRunStopsOnStagnation(t *testing.T) {
	// A constant fitness surface can never improve, so the run must stop
	// after the stagnation window expires.
	flat := EvaluatorFunc(func([]float64) float64 { return 1 })

	cfg := testConfig()
	cfg.MaxGenerations = 1000
	cfg.StagnationWindow = 5
	cfg.StagnationEpsilon = 1e-9

	engine, err := NewEngine(cfg, flat)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TerminatedStagnation, result.Termination)
	assert.Equal(t, 6, result.GenerationsRun)
}

func TestRunStopsOnWallClockBudget(t *testing.T) {
	slow := EvaluatorFunc(func(genes []float64) float64 {
		time.Sleep(time.Millisecond)
		return bowlEvaluator(genes)
	})

	cfg := testConfig()
	cfg.MaxGenerations = 100000
	cfg.MaxDuration = 50 * time.Millisecond

	engine, err := NewEngine(cfg, slow)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TerminatedBudgetExceeded, result.Termination)
	assert.Less(t, result.GenerationsRun, 100000)
}

func TestRunCancellationReturnsBestSoFar(t *testing.T) {
	started := make(chan struct{})
	var once bool
	blocking := EvaluatorFunc(func(genes []float64) float64 {
		if !once {
			once = true
			close(started)
		}
		time.Sleep(time.Millisecond)
		return bowlEvaluator(genes)
	})

	cfg := testConfig()
	cfg.MaxGenerations = 100000

	engine, err := NewEngine(cfg, blocking)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result, err := engine.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, TerminatedCancelled, result.Termination)
	assert.NotEmpty(t, result.Stats)
	assert.NotNil(t, result.BestParameters)
}

func TestStopCancelsRun(t *testing.T) {
	slow := EvaluatorFunc(func(genes []float64) float64 {
		time.Sleep(time.Millisecond)
		return bowlEvaluator(genes)
	})

	cfg := testConfig()
	cfg.MaxGenerations = 100000

	engine, err := NewEngine(cfg, slow)
	require.NoError(t, err)

	done := make(chan *RunResult, 1)
	go func() {
		result, err := engine.Run(context.Background())
		require.NoError(t, err)
		done <- result
	}()

	time.Sleep(30 * time.Millisecond)
	engine.Stop()

	select {
	case result := <-done:
		assert.Equal(t, TerminatedCancelled, result.Termination)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestBestSolutionAndHistoryAccessors(t *testing.T) {
	cfg := testConfig()
	cfg.MaxGenerations = 20

	engine, err := NewEngine(cfg, bowlEvaluator)
	require.NoError(t, err)

	assert.Nil(t, engine.BestSolution())
	assert.Empty(t, engine.History())

	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	best := engine.BestSolution()
	require.NotNil(t, best)
	assert.True(t, best.Evaluated)
	assert.Len(t, engine.History(), 20)
}

func TestRunPopulationSizeInvariant(t *testing.T) {
	// Odd population with pair-producing crossover exercises the
	// truncation policy every generation.
	cfg := testConfig()
	cfg.PopulationSize = 7
	cfg.EliteCount = 2
	cfg.MaxGenerations = 30

	engine, err := NewEngine(cfg, bowlEvaluator)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, result.GenerationsRun)
	assert.Len(t, result.Stats, 30)
}
