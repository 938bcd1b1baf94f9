package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	experimentsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evolv_experiments_started_total",
		Help: "Number of experiments accepted for execution.",
	})

	experimentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evolv_experiments_completed_total",
		Help: "Number of experiments that ran to a terminal result.",
	})

	experimentsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evolv_experiments_failed_total",
		Help: "Number of experiments that aborted with an error.",
	})

	generationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evolv_generations_total",
		Help: "Number of generations evaluated across all experiments.",
	})

	bestFitness = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evolv_experiment_best_fitness",
		Help: "Best fitness observed so far, per experiment.",
	}, []string{"experiment_id"})
)
