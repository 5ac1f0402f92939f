package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

func (s *Store) ListServices(ctx context.Context) ([]models.Service, error) {
	rows, err := s.pool.Query(ctx, `SELECT service_id, name, code FROM services ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ServiceID, &svc.Name, &svc.Code); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (s *Store) CreateService(ctx context.Context, service models.Service) (models.Service, error) {
	var svc models.Service
	err := s.pool.QueryRow(ctx, `
		INSERT INTO services (service_id, name, code) VALUES ($1, $2, $3)
		RETURNING service_id, name, code
	`, uuid.NewString(), service.Name, service.Code).Scan(&svc.ServiceID, &svc.Name, &svc.Code)
	if err != nil {
		return models.Service{}, mapWriteError(err, nil)
	}
	return svc, nil
}

func (s *Store) GetService(ctx context.Context, serviceID string) (models.Service, bool, error) {
	var svc models.Service
	err := s.pool.QueryRow(ctx, `SELECT service_id, name, code FROM services WHERE service_id = $1`, serviceID).
		Scan(&svc.ServiceID, &svc.Name, &svc.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Service{}, false, nil
		}
		return models.Service{}, false, err
	}
	return svc, true, nil
}

func (s *Store) UpdateService(ctx context.Context, serviceID string, update store.ServiceUpdate) (models.Service, error) {
	var svc models.Service
	err := s.pool.QueryRow(ctx, `
		UPDATE services
		SET name = COALESCE($2, name), code = COALESCE($3, code)
		WHERE service_id = $1
		RETURNING service_id, name, code
	`, serviceID, update.Name, update.Code).Scan(&svc.ServiceID, &svc.Name, &svc.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Service{}, store.ErrServiceNotFound
		}
		return models.Service{}, mapWriteError(err, nil)
	}
	return svc, nil
}

func (s *Store) DeleteService(ctx context.Context, serviceID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM services WHERE service_id = $1`, serviceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrServiceNotFound
	}
	return nil
}

func listShiftServices(ctx context.Context, q querier, shiftIDs []string) (map[string][]models.Service, error) {
	out := make(map[string][]models.Service, len(shiftIDs))
	if len(shiftIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT shs.shift_id, sv.service_id, sv.name, sv.code
		FROM shift_has_service shs
		JOIN services sv ON sv.service_id = shs.service_id
		WHERE shs.shift_id = ANY($1::uuid[])
		ORDER BY shs.id ASC
	`, shiftIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var shiftID string
		var svc models.Service
		if err := rows.Scan(&shiftID, &svc.ServiceID, &svc.Name, &svc.Code); err != nil {
			return nil, err
		}
		out[shiftID] = append(out[shiftID], svc)
	}
	return out, rows.Err()
}

func replaceShiftServices(ctx context.Context, tx pgx.Tx, shiftID string, serviceIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM shift_has_service WHERE shift_id = $1`, shiftID); err != nil {
		return err
	}
	for _, serviceID := range dedupe(serviceIDs) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO shift_has_service (shift_id, service_id) VALUES ($1, $2)
		`, shiftID, serviceID); err != nil {
			return mapWriteError(err, store.ErrServiceNotFound)
		}
	}
	return nil
}
