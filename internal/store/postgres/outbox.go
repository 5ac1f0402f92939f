package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/resources"
	"qms/shift-service/internal/store"
)

func insertOutboxEvent(ctx context.Context, tx pgx.Tx, channel, event string, shift models.Shift) error {
	payload, err := resources.ShiftPayloadJSON(shift)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO broadcast_outbox (event_id, channel, event, payload)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), channel, event, payload)
	return err
}

// ListOutboxEvents returns the oldest pending events.
func (s *Store) ListOutboxEvents(ctx context.Context, limit int) ([]store.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, channel, event, payload, created_at
		FROM broadcast_outbox
		ORDER BY created_at ASC, event_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.OutboxEvent
	for rows.Next() {
		var event store.OutboxEvent
		if err := rows.Scan(&event.EventID, &event.Channel, &event.Event, &event.Payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// DeleteOutboxEvents drops delivered events by id.
func (s *Store) DeleteOutboxEvents(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM broadcast_outbox WHERE event_id = ANY($1::uuid[])`, eventIDs)
	return err
}
