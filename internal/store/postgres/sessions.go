package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

// Login checks the credentials, verifies the attendant may staff the module
// at input.ModuleIP and makes them its current attendant.
func (s *Store) Login(ctx context.Context, input store.LoginInput) (store.LoginResult, error) {
	var attendant models.Attendant
	var passwordHash string
	row := s.pool.QueryRow(ctx, `
		SELECT `+attendantColumns+`, password_hash
		FROM attendants
		WHERE lower(email) = lower($1)
	`, input.Email)
	if err := row.Scan(&attendant.AttendantID, &attendant.Name, &attendant.Email, &attendant.DNI,
		&attendant.Enabled, &attendant.Status, &passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.LoginResult{}, store.ErrInvalidCredentials
		}
		return store.LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(input.Password)); err != nil {
		return store.LoginResult{}, store.ErrInvalidCredentials
	}
	if !attendant.Enabled {
		return store.LoginResult{}, store.ErrAccessDenied
	}

	module, found, err := s.GetModuleByIP(ctx, input.ModuleIP)
	if err != nil {
		return store.LoginResult{}, err
	}
	if !found {
		return store.LoginResult{}, store.ErrModuleNotFound
	}
	if !module.Enabled {
		return store.LoginResult{}, store.ErrAccessDenied
	}

	var session models.Session
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var assigned bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM module_attendant WHERE module_id = $1 AND attendant_id = $2)
		`, module.ModuleID, attendant.AttendantID).Scan(&assigned); err != nil {
			return err
		}
		if !assigned {
			return store.ErrAccessDenied
		}

		// Leave any other module first; current_attendant_id is unique.
		if _, err := tx.Exec(ctx, `
			UPDATE modules SET current_attendant_id = NULL, status = $2
			WHERE current_attendant_id = $1 AND module_id <> $3
		`, attendant.AttendantID, models.ModuleStatusOffline, module.ModuleID); err != nil {
			return err
		}
		var previous *string
		if err := tx.QueryRow(ctx, `
			SELECT current_attendant_id FROM modules WHERE module_id = $1 FOR UPDATE
		`, module.ModuleID).Scan(&previous); err != nil {
			return err
		}
		if previous != nil && *previous != attendant.AttendantID {
			if _, err := tx.Exec(ctx, `UPDATE attendants SET status = $2 WHERE attendant_id = $1`,
				*previous, models.AttendantStatusOffline); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE modules SET current_attendant_id = $2, status = $3 WHERE module_id = $1
		`, module.ModuleID, attendant.AttendantID, models.ModuleStatusAvailable); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE attendants SET status = $2 WHERE attendant_id = $1`,
			attendant.AttendantID, models.AttendantStatusFree); err != nil {
			return err
		}

		var err error
		session, err = insertSession(ctx, tx, attendant.AttendantID, module, input.ExpiresAt)
		return err
	})
	if err != nil {
		return store.LoginResult{}, err
	}
	attendant.Status = models.AttendantStatusFree
	return store.LoginResult{Attendant: attendant, Session: session}, nil
}

func insertSession(ctx context.Context, q querier, attendantID string, module models.Module, expiresAt time.Time) (models.Session, error) {
	session := models.Session{
		SessionID:   uuid.NewString(),
		AttendantID: attendantID,
		ModuleID:    module.ModuleID,
		ModuleIP:    module.IPAddress,
		ExpiresAt:   expiresAt,
	}
	_, err := q.Exec(ctx, `
		INSERT INTO attendant_sessions (session_id, attendant_id, module_id, expires_at)
		VALUES ($1, $2, $3, $4)
	`, session.SessionID, session.AttendantID, session.ModuleID, session.ExpiresAt)
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	var session models.Session
	err := s.pool.QueryRow(ctx, `
		SELECT s.session_id, s.attendant_id, s.module_id, m.ip_address, s.expires_at
		FROM attendant_sessions s
		JOIN modules m ON m.module_id = s.module_id
		JOIN attendants a ON a.attendant_id = s.attendant_id
		WHERE s.session_id = $1 AND s.revoked_at IS NULL AND s.expires_at > NOW() AND a.enabled
	`, sessionID).Scan(&session.SessionID, &session.AttendantID, &session.ModuleID, &session.ModuleIP, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, store.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

// RefreshSession revokes sessionID and issues a replacement on the same module.
func (s *Store) RefreshSession(ctx context.Context, sessionID string, expiresAt time.Time) (models.Session, error) {
	current, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}
	var session models.Session
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE attendant_sessions SET revoked_at = NOW()
			WHERE session_id = $1 AND revoked_at IS NULL
		`, sessionID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrSessionNotFound
		}
		session, err = insertSession(ctx, tx, current.AttendantID,
			models.Module{ModuleID: current.ModuleID, IPAddress: current.ModuleIP}, expiresAt)
		return err
	})
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// RevokeSession logs the attendant out: the session is revoked, the attendant
// goes offline and leaves the module.
func (s *Store) RevokeSession(ctx context.Context, sessionID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var attendantID, moduleID string
		err := tx.QueryRow(ctx, `
			UPDATE attendant_sessions SET revoked_at = NOW()
			WHERE session_id = $1 AND revoked_at IS NULL
			RETURNING attendant_id, module_id
		`, sessionID).Scan(&attendantID, &moduleID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return store.ErrSessionNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE modules SET current_attendant_id = NULL, status = $3
			WHERE module_id = $1 AND current_attendant_id = $2
		`, moduleID, attendantID, models.ModuleStatusOffline); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE attendants SET status = $2 WHERE attendant_id = $1`,
			attendantID, models.AttendantStatusOffline)
		return err
	})
}
