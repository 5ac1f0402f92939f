package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

func (s *Store) ListModuleTypes(ctx context.Context) ([]models.ModuleType, error) {
	rows, err := s.pool.Query(ctx, `SELECT module_type_id, name FROM module_types ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []models.ModuleType
	for rows.Next() {
		var mt models.ModuleType
		if err := rows.Scan(&mt.ModuleTypeID, &mt.Name); err != nil {
			return nil, err
		}
		types = append(types, mt)
	}
	return types, rows.Err()
}

func (s *Store) CreateModuleType(ctx context.Context, moduleType models.ModuleType) (models.ModuleType, error) {
	var mt models.ModuleType
	err := s.pool.QueryRow(ctx, `
		INSERT INTO module_types (module_type_id, name) VALUES ($1, $2)
		RETURNING module_type_id, name
	`, uuid.NewString(), moduleType.Name).Scan(&mt.ModuleTypeID, &mt.Name)
	if err != nil {
		return models.ModuleType{}, mapWriteError(err, nil)
	}
	return mt, nil
}

func (s *Store) GetModuleType(ctx context.Context, moduleTypeID string) (models.ModuleType, bool, error) {
	var mt models.ModuleType
	err := s.pool.QueryRow(ctx, `SELECT module_type_id, name FROM module_types WHERE module_type_id = $1`, moduleTypeID).
		Scan(&mt.ModuleTypeID, &mt.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ModuleType{}, false, nil
		}
		return models.ModuleType{}, false, err
	}
	return mt, true, nil
}

func (s *Store) UpdateModuleType(ctx context.Context, moduleTypeID, name string) (models.ModuleType, error) {
	var mt models.ModuleType
	err := s.pool.QueryRow(ctx, `
		UPDATE module_types SET name = $2 WHERE module_type_id = $1
		RETURNING module_type_id, name
	`, moduleTypeID, name).Scan(&mt.ModuleTypeID, &mt.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ModuleType{}, store.ErrModuleTypeNotFound
		}
		return models.ModuleType{}, mapWriteError(err, nil)
	}
	return mt, nil
}

// DeleteModuleType fails with ErrInUse while modules still reference the type.
func (s *Store) DeleteModuleType(ctx context.Context, moduleTypeID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM module_types WHERE module_type_id = $1`, moduleTypeID)
	if err != nil {
		return mapWriteError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrModuleTypeNotFound
	}
	return nil
}
