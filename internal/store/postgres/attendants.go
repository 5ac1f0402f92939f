package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

const attendantColumns = `attendant_id, name, email, dni, enabled, status`

func scanAttendant(row pgx.Row) (models.Attendant, error) {
	var a models.Attendant
	err := row.Scan(&a.AttendantID, &a.Name, &a.Email, &a.DNI, &a.Enabled, &a.Status)
	return a, err
}

func (s *Store) ListAttendants(ctx context.Context) ([]models.Attendant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+attendantColumns+` FROM attendants ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendants []models.Attendant
	for rows.Next() {
		attendant, err := scanAttendant(rows)
		if err != nil {
			return nil, err
		}
		attendants = append(attendants, attendant)
	}
	return attendants, rows.Err()
}

func (s *Store) CreateAttendant(ctx context.Context, input store.AttendantInput) (models.Attendant, error) {
	attendant, err := scanAttendant(s.pool.QueryRow(ctx, `
		INSERT INTO attendants (attendant_id, name, email, dni, password_hash, enabled, status)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7)
		RETURNING `+attendantColumns,
		uuid.NewString(), input.Name, input.Email, input.DNI, input.PasswordHash, input.Enabled, models.AttendantStatusOffline))
	if err != nil {
		return models.Attendant{}, mapWriteError(err, nil)
	}
	return attendant, nil
}

func (s *Store) GetAttendant(ctx context.Context, attendantID string) (models.Attendant, bool, error) {
	attendant, err := scanAttendant(s.pool.QueryRow(ctx, `SELECT `+attendantColumns+` FROM attendants WHERE attendant_id = $1`, attendantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Attendant{}, false, nil
		}
		return models.Attendant{}, false, err
	}
	return attendant, true, nil
}

func (s *Store) UpdateAttendant(ctx context.Context, attendantID string, update store.AttendantUpdate) (models.Attendant, error) {
	attendant, err := scanAttendant(s.pool.QueryRow(ctx, `
		UPDATE attendants
		SET name = COALESCE($2, name),
		    email = COALESCE(lower($3), email),
		    dni = COALESCE($4, dni),
		    password_hash = COALESCE($5, password_hash),
		    enabled = COALESCE($6, enabled)
		WHERE attendant_id = $1
		RETURNING `+attendantColumns,
		attendantID, update.Name, update.Email, update.DNI, update.PasswordHash, update.Enabled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Attendant{}, store.ErrAttendantNotFound
		}
		return models.Attendant{}, mapWriteError(err, nil)
	}
	return attendant, nil
}

func (s *Store) DeleteAttendant(ctx context.Context, attendantID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM attendants WHERE attendant_id = $1`, attendantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrAttendantNotFound
	}
	return nil
}
