package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/copyleftdev/EVOLV/internal/config"
	"github.com/copyleftdev/EVOLV/internal/dataset"
	apperrors "github.com/copyleftdev/EVOLV/internal/errors"
	"github.com/copyleftdev/EVOLV/internal/logging"
	"github.com/copyleftdev/EVOLV/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	serviceLogger := logger.WithFields(map[string]interface{}{
		"service": "ga-experiment-server",
	})

	// Load the dataset catalog up front so malformed files fail the boot,
	// not the first experiment.
	datasets := dataset.NewRegistry()
	if err := datasets.LoadDir(cfg.Datasets.Dir); err != nil {
		wrapped := apperrors.Wrap(err, "loading dataset directory").
			WithOperation("startup").WithComponent("dataset")
		serviceLogger.Fatal("Failed to load datasets", map[string]interface{}{
			"dir":   cfg.Datasets.Dir,
			"error": wrapped.Error(),
		})
	}
	serviceLogger.Info("Datasets loaded", map[string]interface{}{
		"dir":   cfg.Datasets.Dir,
		"count": len(datasets.Names()),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(apperrors.RecoveryMiddleware(serviceLogger))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Debug("Health check")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := server.NewServer(cfg, serviceLogger, datasets)
	srv.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		serviceLogger.Info("Starting server", map[string]interface{}{
			"address": httpServer.Addr,
		})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serviceLogger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	serviceLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		serviceLogger.Error("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	if err := srv.Close(); err != nil {
		serviceLogger.Error("Error closing server resources", map[string]interface{}{"error": err.Error()})
	}

	serviceLogger.Info("Server stopped")
}
