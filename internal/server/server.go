// Package server exposes the genetic-algorithm experiment engine as an HTTP
// job API: start an experiment against a registered dataset, poll its
// status and per-generation statistics, cancel it.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/EVOLV/internal/config"
	"github.com/copyleftdev/EVOLV/internal/dataset"
	"github.com/copyleftdev/EVOLV/internal/genetic"
	"github.com/copyleftdev/EVOLV/internal/logging"
)

// Logger defines the logging interface used by the server. This allows us
// to be flexible with the logging implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// ExperimentState tracks one experiment job. It is guarded by the server's
// mutex; the engine itself is safe for concurrent status reads.
type ExperimentState struct {
	ID      string
	Status  string // "pending", "running", "completed", "failed", "cancelled"
	Dataset string
	// MaxGenerations mirrors the run config for progress reporting.
	MaxGenerations int
	StartTime      time.Time
	EndTime        *time.Time
	Progress       float64
	Engine         *genetic.Engine
	Result         *genetic.RunResult
	Error          string
	CancelFunc     context.CancelFunc
	LastUpdated    time.Time
}

// Server implements the HTTP API for the experiment service.
type Server struct {
	cfg      *config.Config
	logger   Logger
	datasets *dataset.Registry

	experiments   map[string]*ExperimentState
	experimentsMu sync.RWMutex
	idSeq         atomic.Int64
}

// NewServer creates a server over the given dataset registry.
func NewServer(cfg *config.Config, logger Logger, datasets *dataset.Registry) *Server {
	return &Server{
		cfg:         cfg,
		logger:      logger,
		datasets:    datasets,
		experiments: make(map[string]*ExperimentState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/datasets", s.handleListDatasets)
		r.Post("/experiments", s.handleStartExperiment)
		r.Get("/experiments/{id}", s.handleExperimentStatus)
		r.Delete("/experiments/{id}", s.handleCancelExperiment)
	})
}

// startExperimentRequest is the POST /experiments body: a dataset name plus
// the engine run configuration.
type startExperimentRequest struct {
	Dataset string            `json:"dataset"`
	Config  genetic.RunConfig `json:"config"`
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"datasets": s.datasets.Names(),
	})
}

func (s *Server) handleStartExperiment(w http.ResponseWriter, r *http.Request) {
	var req startExperimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Dataset == "" {
		s.respondError(w, http.StatusBadRequest, "dataset is required")
		return
	}

	ds, ok := s.datasets.Get(req.Dataset)
	if !ok {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("unknown dataset %q", req.Dataset))
		return
	}

	evaluator, err := genetic.NewLinearModelEvaluator(ds)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	runCfg := req.Config
	s.applyDefaults(&runCfg, evaluator)

	engine, err := genetic.NewEngine(runCfg, evaluator)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The sequence component keeps ids unique even when requests land in
	// the same clock tick.
	id := fmt.Sprintf("exp_%d_%d", time.Now().UnixNano(), s.idSeq.Add(1))
	ctx, cancel := context.WithCancel(context.Background())

	state := &ExperimentState{
		ID:             id,
		Status:         "pending",
		Dataset:        req.Dataset,
		MaxGenerations: runCfg.MaxGenerations,
		StartTime:      time.Now(),
		Engine:         engine,
		CancelFunc:     cancel,
		LastUpdated:    time.Now(),
	}

	// The capacity check and the insert share one critical section so
	// concurrent requests cannot both slip under the limit.
	s.experimentsMu.Lock()
	if s.runningCountLocked() >= s.cfg.Engine.MaxConcurrentRuns {
		s.experimentsMu.Unlock()
		cancel()
		s.respondError(w, http.StatusTooManyRequests, "too many experiments running")
		return
	}
	s.experiments[id] = state
	s.experimentsMu.Unlock()

	experimentsStarted.Inc()
	s.logger.Info("Experiment accepted", map[string]interface{}{
		"experiment_id": id,
		"dataset":       req.Dataset,
	})

	go s.runExperiment(ctx, state)

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"experiment_id": id,
		"status":        "pending",
	})
}

// applyDefaults fills in request fields the caller left zero from the
// dataset shape and service configuration. Chromosome length always follows
// the dataset: one intercept plus one weight per feature.
func (s *Server) applyDefaults(cfg *genetic.RunConfig, evaluator *genetic.LinearModelEvaluator) {
	cfg.ChromosomeLength = evaluator.ChromosomeLength()
	if len(cfg.GeneBounds) == 0 {
		cfg.GeneBounds = []genetic.Bounds{{Min: 0, Max: 1}}
	}
	if cfg.Workers == 0 {
		cfg.Workers = s.cfg.Engine.WorkerCount
	}
	if cfg.Selection.Kind == "" {
		cfg.Selection = genetic.SelectionConfig{Kind: genetic.SelectionTournament, TournamentSize: 3}
	}
	if cfg.Crossover == "" {
		cfg.Crossover = genetic.CrossoverSinglePoint
	}
	if cfg.Mutation == "" {
		cfg.Mutation = genetic.MutationUniform
	}
}

func (s *Server) runExperiment(ctx context.Context, state *ExperimentState) {
	s.experimentsMu.Lock()
	state.Status = "running"
	state.LastUpdated = time.Now()
	s.experimentsMu.Unlock()

	maxGen := float64(state.MaxGenerations)
	engine := state.Engine
	engine.Logger = s.logger.WithFields(map[string]interface{}{"experiment_id": state.ID})
	engine.OnGeneration = func(stats genetic.GenerationStats) {
		generationsTotal.Inc()
		bestFitness.WithLabelValues(state.ID).Set(stats.BestFitness)

		s.experimentsMu.Lock()
		state.Progress = float64(stats.Generation+1) / maxGen
		state.LastUpdated = time.Now()
		s.experimentsMu.Unlock()
	}

	result, err := engine.Run(ctx)

	// The gauge keyed by experiment id would otherwise grow without bound.
	bestFitness.DeleteLabelValues(state.ID)

	s.experimentsMu.Lock()
	defer s.experimentsMu.Unlock()

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	if err != nil {
		experimentsFailed.Inc()
		state.Status = "failed"
		state.Error = err.Error()
		s.logger.Error("Experiment failed", map[string]interface{}{
			"experiment_id": state.ID,
			"error":         err.Error(),
		})
		return
	}

	experimentsCompleted.Inc()
	state.Result = result
	state.Progress = 1
	if result.Termination == genetic.TerminatedCancelled {
		state.Status = "cancelled"
	} else {
		state.Status = "completed"
	}
	s.logger.Info("Experiment finished", map[string]interface{}{
		"experiment_id": state.ID,
		"status":        state.Status,
		"generations":   result.GenerationsRun,
		"best_fitness":  result.BestFitness,
	})
}

func (s *Server) handleExperimentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.experimentsMu.RLock()
	state, exists := s.experiments[id]
	if !exists {
		s.experimentsMu.RUnlock()
		s.respondError(w, http.StatusNotFound, "experiment not found")
		return
	}

	response := map[string]interface{}{
		"experiment_id": state.ID,
		"status":        state.Status,
		"dataset":       state.Dataset,
		"progress":      state.Progress,
		"start_time":    state.StartTime.Format(time.RFC3339),
		"last_update":   state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Error != "" {
		response["error"] = state.Error
	}
	result := state.Result
	engine := state.Engine
	s.experimentsMu.RUnlock()

	// Engine reads are safe while the run is in flight.
	if history := engine.History(); len(history) > 0 {
		response["stats"] = history
	}
	if best := engine.BestSolution(); best != nil {
		response["current_best"] = map[string]interface{}{
			"parameters": engine.Codec().Decode(best.Chromosome),
			"fitness":    best.Fitness,
			"birth":      best.Birth,
		}
	}
	if result != nil {
		response["result"] = result
	}

	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleCancelExperiment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.experimentsMu.Lock()
	state, exists := s.experiments[id]
	if !exists {
		s.experimentsMu.Unlock()
		s.respondError(w, http.StatusNotFound, "experiment not found")
		return
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		status := state.Status
		s.experimentsMu.Unlock()
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("cannot cancel experiment with status %q", status))
		return
	}

	state.CancelFunc()
	state.LastUpdated = time.Now()
	s.experimentsMu.Unlock()

	s.logger.Info("Experiment cancellation requested", map[string]interface{}{
		"experiment_id": id,
	})

	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "cancellation requested",
	})
}

// runningCountLocked returns the number of experiments not yet in a terminal
// state. The caller must hold experimentsMu.
func (s *Server) runningCountLocked() int {
	count := 0
	for _, state := range s.experiments {
		switch state.Status {
		case "pending", "running":
			count++
		}
	}
	return count
}

// Close cancels every running experiment.
func (s *Server) Close() error {
	s.experimentsMu.Lock()
	defer s.experimentsMu.Unlock()

	for _, state := range s.experiments {
		if state.CancelFunc != nil {
			state.CancelFunc()
		}
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request error", map[string]interface{}{"status": status, "message": message})
	}
	s.respondJSON(w, status, map[string]interface{}{"error": message})
}
