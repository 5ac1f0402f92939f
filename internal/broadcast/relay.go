package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"qms/shift-service/internal/events"
	"qms/shift-service/internal/metrics"
	"qms/shift-service/internal/store"
)

type RelayConfig struct {
	BatchSize int
}

// Relay moves committed outbox events to the sinks and deletes what it
// delivered. It assumes it is the only relay reading the outbox.
type Relay struct {
	store   store.OutboxStore
	sinks   []Sink
	cfg     RelayConfig
	logger  *slog.Logger
	running int32
}

func NewRelay(st store.OutboxStore, sinks []Sink, cfg RelayConfig, logger *slog.Logger) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{store: st, sinks: sinks, cfg: cfg, logger: logger}
}

// Tick delivers one batch and returns how many events it handled. Events
// whose deletion fails are delivered again on the next tick.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	if !atomic.CompareAndSwapInt32(&r.running, 0, 1) {
		return 0, nil
	}
	defer atomic.StoreInt32(&r.running, 0)

	batch, err := r.store.ListOutboxEvents(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}
	delivered := make([]string, 0, len(batch))
	for _, event := range batch {
		r.deliver(ctx, events.Envelope{Channel: event.Channel, Event: event.Event, Data: event.Payload})
		delivered = append(delivered, event.EventID)
	}
	if err := r.store.DeleteOutboxEvents(ctx, delivered); err != nil {
		return len(batch), fmt.Errorf("delete delivered outbox events: %w", err)
	}
	return len(batch), nil
}

func (r *Relay) deliver(ctx context.Context, envelope events.Envelope) {
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, envelope); err != nil {
			metrics.Broadcasts.WithLabelValues(sink.Name(), envelope.Event, "error").Inc()
			r.logger.Error("broadcast failed", "sink", sink.Name(), "channel", envelope.Channel, "event", envelope.Event, "error", err)
			continue
		}
		metrics.Broadcasts.WithLabelValues(sink.Name(), envelope.Event, "ok").Inc()
	}
}

// Start polls until ctx is cancelled.
func (r *Relay) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if _, err := r.Tick(tickCtx); err != nil {
				r.logger.Error("relay tick", "error", err)
			}
			cancel()
		}
	}
}
