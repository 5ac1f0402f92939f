// Package broadcast delivers shift events to realtime subscribers.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"

	"qms/shift-service/internal/events"
)

// Sink is one delivery target for room channel events.
type Sink interface {
	Name() string
	Publish(ctx context.Context, envelope events.Envelope) error
}

// Multi publishes to every sink and joins their errors.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Publish(ctx context.Context, envelope events.Envelope) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, envelope); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func encode(envelope events.Envelope) ([]byte, error) {
	return json.Marshal(envelope)
}
