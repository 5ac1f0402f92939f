package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

const moduleSelect = `
	SELECT m.module_id, m.name, m.ip_address, m.room_id, m.module_type_id, m.status, m.enabled,
	       m.current_attendant_id, r.name, r.description, r.enabled, t.name
	FROM modules m
	JOIN rooms r ON r.room_id = m.room_id
	JOIN module_types t ON t.module_type_id = m.module_type_id
`

func scanModule(row pgx.Row) (models.Module, error) {
	var m models.Module
	err := row.Scan(&m.ModuleID, &m.Name, &m.IPAddress, &m.RoomID, &m.ModuleTypeID, &m.Status, &m.Enabled,
		&m.CurrentAttendantID, &m.Room.Name, &m.Room.Description, &m.Room.Enabled, &m.Type.Name)
	if err != nil {
		return models.Module{}, err
	}
	m.Room.RoomID = m.RoomID
	m.Type.ModuleTypeID = m.ModuleTypeID
	return m, nil
}

func (s *Store) ListModules(ctx context.Context, roomID string) ([]models.Module, error) {
	query := moduleSelect
	var args []any
	if roomID != "" {
		query += " WHERE m.room_id = $1"
		args = append(args, roomID)
	}
	query += " ORDER BY m.name ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []models.Module
	for rows.Next() {
		module, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	return modules, rows.Err()
}

func (s *Store) CreateModule(ctx context.Context, input store.ModuleInput) (models.Module, error) {
	moduleID := uuid.NewString()
	var module models.Module
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO modules (module_id, name, ip_address, room_id, module_type_id, enabled)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, moduleID, input.Name, input.IPAddress, input.RoomID, input.ModuleTypeID, input.Enabled); err != nil {
			return mapWriteError(err, store.ErrRoomNotFound)
		}
		if err := replaceModuleAttendants(ctx, tx, moduleID, input.AttendantIDs); err != nil {
			return err
		}
		var err error
		module, err = mustGetModule(ctx, tx, moduleID)
		return err
	})
	if err != nil {
		return models.Module{}, err
	}
	return module, nil
}

func (s *Store) GetModule(ctx context.Context, moduleID string) (models.Module, bool, error) {
	return getModule(ctx, s.pool, moduleID)
}

func (s *Store) GetModuleByIP(ctx context.Context, ipAddress string) (models.Module, bool, error) {
	module, err := scanModule(s.pool.QueryRow(ctx, moduleSelect+" WHERE m.ip_address = $1", ipAddress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Module{}, false, nil
		}
		return models.Module{}, false, err
	}
	return module, true, nil
}

func getModule(ctx context.Context, q querier, moduleID string) (models.Module, bool, error) {
	module, err := scanModule(q.QueryRow(ctx, moduleSelect+" WHERE m.module_id = $1", moduleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Module{}, false, nil
		}
		return models.Module{}, false, err
	}
	return module, true, nil
}

func mustGetModule(ctx context.Context, q querier, moduleID string) (models.Module, error) {
	module, found, err := getModule(ctx, q, moduleID)
	if err != nil {
		return models.Module{}, err
	}
	if !found {
		return models.Module{}, store.ErrModuleNotFound
	}
	return module, nil
}

func listModulesByID(ctx context.Context, q querier, moduleIDs []string) (map[string]models.Module, error) {
	out := make(map[string]models.Module, len(moduleIDs))
	if len(moduleIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, moduleSelect+" WHERE m.module_id = ANY($1::uuid[])", dedupe(moduleIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		module, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out[module.ModuleID] = module
	}
	return out, rows.Err()
}

func (s *Store) UpdateModule(ctx context.Context, moduleID string, update store.ModuleUpdate) (models.Module, error) {
	var module models.Module
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE modules
			SET name = COALESCE($2, name),
			    ip_address = COALESCE($3, ip_address),
			    room_id = COALESCE($4, room_id),
			    module_type_id = COALESCE($5, module_type_id),
			    enabled = COALESCE($6, enabled)
			WHERE module_id = $1
		`, moduleID, update.Name, update.IPAddress, update.RoomID, update.ModuleTypeID, update.Enabled)
		if err != nil {
			return mapWriteError(err, store.ErrRoomNotFound)
		}
		if tag.RowsAffected() == 0 {
			return store.ErrModuleNotFound
		}
		if update.AttendantIDs != nil {
			if err := replaceModuleAttendants(ctx, tx, moduleID, *update.AttendantIDs); err != nil {
				return err
			}
		}
		module, err = mustGetModule(ctx, tx, moduleID)
		return err
	})
	if err != nil {
		return models.Module{}, err
	}
	return module, nil
}

func (s *Store) DeleteModule(ctx context.Context, moduleID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM modules WHERE module_id = $1`, moduleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrModuleNotFound
	}
	return nil
}

func replaceModuleAttendants(ctx context.Context, tx pgx.Tx, moduleID string, attendantIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM module_attendant WHERE module_id = $1`, moduleID); err != nil {
		return err
	}
	for _, attendantID := range dedupe(attendantIDs) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO module_attendant (module_id, attendant_id) VALUES ($1, $2)
		`, moduleID, attendantID); err != nil {
			return mapWriteError(err, store.ErrAttendantNotFound)
		}
	}
	return nil
}

// releaseModule frees the module's current attendant. A module without a
// current attendant is left untouched.
func releaseModule(ctx context.Context, tx pgx.Tx, moduleID string) error {
	if _, err := tx.Exec(ctx, `
		UPDATE attendants SET status = $2
		WHERE attendant_id = (SELECT current_attendant_id FROM modules WHERE module_id = $1)
	`, moduleID, models.AttendantStatusFree); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE modules SET status = $2
		WHERE module_id = $1 AND current_attendant_id IS NOT NULL
	`, moduleID, models.ModuleStatusAvailable)
	return err
}

// occupyModule marks the module and its current attendant busy.
func occupyModule(ctx context.Context, tx pgx.Tx, moduleID string) error {
	if _, err := tx.Exec(ctx, `
		UPDATE attendants SET status = $2
		WHERE attendant_id = (SELECT current_attendant_id FROM modules WHERE module_id = $1)
	`, moduleID, models.AttendantStatusBusy); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE modules SET status = $2
		WHERE module_id = $1 AND current_attendant_id IS NOT NULL
	`, moduleID, models.ModuleStatusBusy)
	return err
}
