package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qms/shift-service/internal/events"
	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

const shiftSelect = `
	SELECT s.shift_id, s.state, s.client_id, s.room_id, s.module_id, s.created_at, s.updated_at,
	       c.name, c.dni, c.client_type, c.created_at,
	       r.name, r.description, r.enabled
	FROM shifts s
	JOIN clients c ON c.client_id = s.client_id
	JOIN rooms r ON r.room_id = s.room_id
`

// Preferential clients first, then oldest first.
const shiftOrder = ` ORDER BY (c.client_type = 'preferential') DESC, s.created_at ASC, s.shift_id ASC`

var stateEvents = map[string]string{
	models.StatePending:     events.ShiftPending,
	models.StateQualified:   events.ShiftQualified,
	models.StateInProgress:  events.ShiftInProgress,
	models.StateDistracted:  events.ShiftDistracted,
	models.StateTransferred: events.ShiftTransferred,
}

func scanShift(row pgx.Row) (models.Shift, error) {
	var sh models.Shift
	err := row.Scan(&sh.ShiftID, &sh.State, &sh.ClientID, &sh.RoomID, &sh.ModuleID, &sh.CreatedAt, &sh.UpdatedAt,
		&sh.Client.Name, &sh.Client.DNI, &sh.Client.ClientType, &sh.Client.CreatedAt,
		&sh.Room.Name, &sh.Room.Description, &sh.Room.Enabled)
	if err != nil {
		return models.Shift{}, err
	}
	sh.Client.ClientID = sh.ClientID
	sh.Room.RoomID = sh.RoomID
	return sh, nil
}

// hydrateShifts attaches modules and services to already scanned shifts.
func hydrateShifts(ctx context.Context, q querier, shifts []models.Shift) error {
	if len(shifts) == 0 {
		return nil
	}
	shiftIDs := make([]string, 0, len(shifts))
	var moduleIDs []string
	for _, sh := range shifts {
		shiftIDs = append(shiftIDs, sh.ShiftID)
		if sh.ModuleID != nil {
			moduleIDs = append(moduleIDs, *sh.ModuleID)
		}
	}
	modules, err := listModulesByID(ctx, q, moduleIDs)
	if err != nil {
		return err
	}
	services, err := listShiftServices(ctx, q, shiftIDs)
	if err != nil {
		return err
	}
	for i := range shifts {
		if shifts[i].ModuleID != nil {
			if module, ok := modules[*shifts[i].ModuleID]; ok {
				shifts[i].Module = &module
			}
		}
		shifts[i].Services = services[shifts[i].ShiftID]
	}
	return nil
}

func (s *Store) ListShifts(ctx context.Context, filter store.ShiftFilter) ([]models.Shift, error) {
	query := shiftSelect + " WHERE TRUE"
	var args []any
	if filter.RoomID != "" {
		args = append(args, filter.RoomID)
		query += fmt.Sprintf(" AND s.room_id = $%d", len(args))
	}
	if filter.ModuleID != "" {
		args = append(args, filter.ModuleID)
		query += fmt.Sprintf(" AND s.module_id = $%d", len(args))
	}
	if len(filter.States) > 0 {
		args = append(args, filter.States)
		query += fmt.Sprintf(" AND s.state = ANY($%d::text[])", len(args))
	}
	query += shiftOrder

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var shifts []models.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		shifts = append(shifts, sh)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := hydrateShifts(ctx, s.pool, shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (s *Store) GetShift(ctx context.Context, shiftID string) (models.Shift, bool, error) {
	sh, err := getShift(ctx, s.pool, shiftID)
	if err != nil {
		if errors.Is(err, store.ErrShiftNotFound) {
			return models.Shift{}, false, nil
		}
		return models.Shift{}, false, err
	}
	return sh, true, nil
}

func getShift(ctx context.Context, q querier, shiftID string) (models.Shift, error) {
	sh, err := scanShift(q.QueryRow(ctx, shiftSelect+" WHERE s.shift_id = $1", shiftID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Shift{}, store.ErrShiftNotFound
		}
		return models.Shift{}, err
	}
	shifts := []models.Shift{sh}
	if err := hydrateShifts(ctx, q, shifts); err != nil {
		return models.Shift{}, err
	}
	return shifts[0], nil
}

func (s *Store) CreateShift(ctx context.Context, input store.CreateShiftInput) (models.Shift, error) {
	var shift models.Shift
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		clientID, err := resolveClient(ctx, tx, input)
		if err != nil {
			return err
		}
		if _, found, err := getRoom(ctx, tx, input.RoomID); err != nil {
			return err
		} else if !found {
			return store.ErrRoomNotFound
		}
		if input.ModuleID != nil {
			if err := ensureModuleInRoom(ctx, tx, *input.ModuleID, input.RoomID); err != nil {
				return err
			}
		}

		shiftID := uuid.NewString()
		if _, err := tx.Exec(ctx, `
			INSERT INTO shifts (shift_id, client_id, room_id, module_id, state)
			VALUES ($1, $2, $3, $4, $5)
		`, shiftID, clientID, input.RoomID, input.ModuleID, models.StateCreated); err != nil {
			return err
		}
		if err := replaceShiftServices(ctx, tx, shiftID, input.ServiceIDs); err != nil {
			return err
		}

		shift, err = getShift(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, events.RoomChannel(shift.RoomID), events.ShiftCreated, shift)
	})
	if err != nil {
		return models.Shift{}, err
	}
	return shift, nil
}

// resolveClient returns the referenced client, or the client with the given
// DNI, creating it when none exists.
func resolveClient(ctx context.Context, tx pgx.Tx, input store.CreateShiftInput) (string, error) {
	if input.ClientID != "" {
		_, found, err := getClient(ctx, tx, input.ClientID)
		if err != nil {
			return "", err
		}
		if !found {
			return "", store.ErrClientNotFound
		}
		return input.ClientID, nil
	}
	if input.Client == nil {
		return "", store.ErrClientNotFound
	}
	existing, found, err := findClientByDNI(ctx, tx, input.Client.DNI)
	if err != nil {
		return "", err
	}
	if found {
		return existing.ClientID, nil
	}
	created, err := insertClient(ctx, tx, *input.Client)
	if err != nil {
		return "", err
	}
	return created.ClientID, nil
}

func ensureModuleInRoom(ctx context.Context, q querier, moduleID, roomID string) error {
	var moduleRoom string
	err := q.QueryRow(ctx, `SELECT room_id FROM modules WHERE module_id = $1`, moduleID).Scan(&moduleRoom)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrModuleNotFound
		}
		return err
	}
	if moduleRoom != roomID {
		return store.ErrModuleMismatch
	}
	return nil
}

type lockedShift struct {
	state    string
	roomID   string
	moduleID *string
}

func lockShift(ctx context.Context, tx pgx.Tx, shiftID string) (lockedShift, error) {
	var locked lockedShift
	err := tx.QueryRow(ctx, `
		SELECT state, room_id, module_id FROM shifts WHERE shift_id = $1 FOR UPDATE
	`, shiftID).Scan(&locked.state, &locked.roomID, &locked.moduleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lockedShift{}, store.ErrShiftNotFound
		}
		return lockedShift{}, err
	}
	return locked, nil
}

func (s *Store) UpdateShift(ctx context.Context, shiftID string, update store.ShiftUpdate) (models.Shift, error) {
	var shift models.Shift
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		locked, err := lockShift(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		rebound := false
		if update.ModuleID != nil {
			if err := ensureModuleInRoom(ctx, tx, *update.ModuleID, locked.roomID); err != nil {
				return err
			}
			if store.RebindsModule(locked.state, locked.moduleID, *update.ModuleID) {
				if locked.moduleID != nil {
					if err := releaseModule(ctx, tx, *locked.moduleID); err != nil {
						return err
					}
				}
				if err := occupyModule(ctx, tx, *update.ModuleID); err != nil {
					return err
				}
				rebound = true
			}
			if _, err := tx.Exec(ctx, `
				UPDATE shifts SET module_id = $2, updated_at = NOW() WHERE shift_id = $1
			`, shiftID, *update.ModuleID); err != nil {
				return err
			}
		}
		if update.ServiceIDs != nil {
			if err := replaceShiftServices(ctx, tx, shiftID, *update.ServiceIDs); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE shifts SET updated_at = NOW() WHERE shift_id = $1`, shiftID); err != nil {
				return err
			}
		}
		shift, err = getShift(ctx, tx, shiftID)
		if err != nil || !rebound {
			return err
		}
		// Same state, new module: subscribers see it as a repeat of the
		// state event.
		return insertOutboxEvent(ctx, tx, events.RoomChannel(locked.roomID), stateEvents[locked.state], shift)
	})
	if err != nil {
		return models.Shift{}, err
	}
	return shift, nil
}

// ApplyShiftAction moves a shift through its lifecycle and records the
// resulting broadcasts in the same transaction.
func (s *Store) ApplyShiftAction(ctx context.Context, input store.ShiftActionInput) (models.Shift, error) {
	target, ok := store.TargetState(input.Action)
	if !ok {
		return models.Shift{}, store.ErrInvalidState
	}

	var shift models.Shift
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		locked, err := lockShift(ctx, tx, input.ShiftID)
		if err != nil {
			return err
		}
		if !store.ValidTransition(input.Action, locked.state) {
			return store.ErrInvalidState
		}

		roomID := locked.roomID
		moduleID := locked.moduleID

		if store.ReleasesModule(input.Action, locked.state) && locked.moduleID != nil {
			if err := releaseModule(ctx, tx, *locked.moduleID); err != nil {
				return err
			}
		}

		switch {
		case store.BindsModule(input.Action):
			if input.ModuleID == "" {
				return store.ErrModuleNotFound
			}
			if err := ensureModuleInRoom(ctx, tx, input.ModuleID, roomID); err != nil {
				return err
			}
			bound := input.ModuleID
			moduleID = &bound
			if err := occupyModule(ctx, tx, bound); err != nil {
				return err
			}
		case input.Action == store.ActionTransfer:
			if input.ToRoomID != nil && *input.ToRoomID != roomID {
				if _, found, err := getRoom(ctx, tx, *input.ToRoomID); err != nil {
					return err
				} else if !found {
					return store.ErrRoomNotFound
				}
				roomID = *input.ToRoomID
			}
			moduleID = nil
			if input.ToModuleID != nil {
				if err := ensureModuleInRoom(ctx, tx, *input.ToModuleID, roomID); err != nil {
					return err
				}
				moduleID = input.ToModuleID
			}
		}

		if _, err := tx.Exec(ctx, `
			UPDATE shifts SET state = $2, room_id = $3, module_id = $4, updated_at = NOW()
			WHERE shift_id = $1
		`, input.ShiftID, target, roomID, moduleID); err != nil {
			return err
		}

		shift, err = getShift(ctx, tx, input.ShiftID)
		if err != nil {
			return err
		}
		if err := insertOutboxEvent(ctx, tx, events.RoomChannel(locked.roomID), stateEvents[target], shift); err != nil {
			return err
		}
		if roomID != locked.roomID {
			return insertOutboxEvent(ctx, tx, events.RoomChannel(roomID), events.ShiftCreated, shift)
		}
		return nil
	})
	if err != nil {
		return models.Shift{}, err
	}
	return shift, nil
}

func (s *Store) DeleteShift(ctx context.Context, shiftID string) (bool, error) {
	deleted := false
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		locked, err := lockShift(ctx, tx, shiftID)
		if errors.Is(err, store.ErrShiftNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		shift, err := getShift(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if locked.moduleID != nil {
			if err := releaseModule(ctx, tx, *locked.moduleID); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM shifts WHERE shift_id = $1`, shiftID); err != nil {
			return err
		}
		deleted = true
		return insertOutboxEvent(ctx, tx, events.RoomChannel(locked.roomID), events.ShiftDeleted, shift)
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
