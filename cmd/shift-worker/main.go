package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"qms/shift-service/internal/config"
	"qms/shift-service/internal/jobs"
	"qms/shift-service/internal/logging"
	"qms/shift-service/internal/metrics"
	"qms/shift-service/internal/store/postgres"
	"qms/shift-service/internal/telemetry"
)

const serviceName = "shift-worker"

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(serviceName, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	worker := jobs.New(store, map[string]jobs.Handler{
		jobs.KindDeleteShift: jobs.DeleteShift(store, logger),
	}, jobs.Config{
		BatchSize:   cfg.JobBatchSize,
		MaxAttempts: cfg.JobMaxAttempts,
	}, logger)

	// The worker has no API; it only exposes health and metrics.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", metrics.Handler())
	server := &http.Server{
		Addr:         ":" + cfg.WorkerPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server", "error", err)
		}
	}()

	logger.Info("shift-worker started", "poll_interval", cfg.JobPollInterval, "batch_size", cfg.JobBatchSize)
	jobs.Start(ctx, cfg.JobPollInterval, worker)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
