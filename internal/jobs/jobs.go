// Package jobs runs durable background work claimed from the jobs table.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"qms/shift-service/internal/store"
)

const KindDeleteShift = "delete_shift"

type DeleteShiftPayload struct {
	ShiftID string `json:"shift_id"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

type Enqueuer interface {
	EnqueueJob(ctx context.Context, kind string, payload json.RawMessage) (store.Job, error)
}

func EnqueueDeleteShift(ctx context.Context, q Enqueuer, shiftID string) (store.Job, error) {
	payload, err := json.Marshal(DeleteShiftPayload{ShiftID: shiftID})
	if err != nil {
		return store.Job{}, err
	}
	return q.EnqueueJob(ctx, KindDeleteShift, payload)
}

type ShiftDeleter interface {
	DeleteShift(ctx context.Context, shiftID string) (bool, error)
}

var errBadPayload = errors.New("malformed job payload")

// DeleteShift releases the shift's module and removes it. A shift that is
// already gone counts as done.
func DeleteShift(deleter ShiftDeleter, logger *slog.Logger) Handler {
	return func(ctx context.Context, raw json.RawMessage) error {
		var payload DeleteShiftPayload
		if err := json.Unmarshal(raw, &payload); err != nil || payload.ShiftID == "" {
			return errBadPayload
		}
		deleted, err := deleter.DeleteShift(ctx, payload.ShiftID)
		if err != nil {
			return fmt.Errorf("delete shift %s: %w", payload.ShiftID, err)
		}
		if !deleted {
			logger.Info("shift already deleted", "shift_id", payload.ShiftID)
			return nil
		}
		logger.Info("shift deleted", "shift_id", payload.ShiftID)
		return nil
	}
}
