package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"qms/shift-service/internal/metrics"
	"qms/shift-service/internal/store"
)

type Config struct {
	BatchSize   int
	MaxAttempts int
	// Lease is how long a claimed job stays hidden from other workers.
	Lease time.Duration
	// Backoff is multiplied by the attempt number to schedule a retry.
	Backoff time.Duration
}

type Worker struct {
	store       store.JobStore
	handlers    map[string]Handler
	batchSize   int
	maxAttempts int
	lease       time.Duration
	backoff     time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func New(st store.JobStore, handlers map[string]Handler, cfg Config, logger *slog.Logger) *Worker {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	lease := cfg.Lease
	if lease <= 0 {
		lease = time.Minute
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	return &Worker{
		store:       st,
		handlers:    handlers,
		batchSize:   batch,
		maxAttempts: maxAttempts,
		lease:       lease,
		backoff:     backoff,
		logger:      logger,
		now:         time.Now,
	}
}

// Run claims and processes one batch.
func (w *Worker) Run(ctx context.Context) error {
	claimed, err := w.store.ClaimJobs(ctx, w.batchSize, w.lease)
	if err != nil {
		return err
	}
	var errs []error
	for _, job := range claimed {
		if err := w.process(ctx, job); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *Worker) process(ctx context.Context, job store.Job) error {
	handler, ok := w.handlers[job.Kind]
	if !ok {
		w.logger.Error("unknown job kind", "job_id", job.JobID, "kind", job.Kind)
		metrics.Jobs.WithLabelValues(job.Kind, "dead").Inc()
		return w.store.FailJob(ctx, job.JobID, "unknown job kind", w.now(), true)
	}

	runErr := handler(ctx, job.Payload)
	if runErr == nil {
		metrics.Jobs.WithLabelValues(job.Kind, "ok").Inc()
		return w.store.CompleteJob(ctx, job.JobID)
	}

	dead := job.Attempts >= w.maxAttempts || errors.Is(runErr, errBadPayload)
	retryAt := w.now().Add(time.Duration(job.Attempts) * w.backoff)
	if dead {
		metrics.Jobs.WithLabelValues(job.Kind, "dead").Inc()
		w.logger.Error("job dead-lettered", "job_id", job.JobID, "kind", job.Kind, "attempts", job.Attempts, "error", runErr)
	} else {
		metrics.Jobs.WithLabelValues(job.Kind, "retry").Inc()
		w.logger.Warn("job failed", "job_id", job.JobID, "kind", job.Kind, "attempts", job.Attempts, "retry_at", retryAt, "error", runErr)
	}
	return w.store.FailJob(ctx, job.JobID, runErr.Error(), retryAt, dead)
}

func Start(ctx context.Context, interval time.Duration, w *Worker) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Run(ctx); err != nil {
				w.logger.Error("job worker", "error", err)
			}
		}
	}
}
