package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

const clientColumns = `client_id, name, dni, client_type, created_at`

func scanClient(row pgx.Row) (models.Client, error) {
	var client models.Client
	err := row.Scan(&client.ClientID, &client.Name, &client.DNI, &client.ClientType, &client.CreatedAt)
	return client, err
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (s *Store) CreateClient(ctx context.Context, client models.Client) (models.Client, error) {
	return insertClient(ctx, s.pool, client)
}

func insertClient(ctx context.Context, q querier, client models.Client) (models.Client, error) {
	if client.ClientType == "" {
		client.ClientType = models.ClientTypeNormal
	}
	created, err := scanClient(q.QueryRow(ctx, `
		INSERT INTO clients (client_id, name, dni, client_type)
		VALUES ($1, $2, $3, $4)
		RETURNING `+clientColumns,
		uuid.NewString(), client.Name, client.DNI, client.ClientType))
	if err != nil {
		return models.Client{}, mapWriteError(err, nil)
	}
	return created, nil
}

func (s *Store) GetClient(ctx context.Context, clientID string) (models.Client, bool, error) {
	return getClient(ctx, s.pool, clientID)
}

func getClient(ctx context.Context, q querier, clientID string) (models.Client, bool, error) {
	client, err := scanClient(q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE client_id = $1`, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Client{}, false, nil
		}
		return models.Client{}, false, err
	}
	return client, true, nil
}

func findClientByDNI(ctx context.Context, q querier, dni string) (models.Client, bool, error) {
	client, err := scanClient(q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE dni = $1`, dni))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Client{}, false, nil
		}
		return models.Client{}, false, err
	}
	return client, true, nil
}

func (s *Store) UpdateClient(ctx context.Context, clientID string, update store.ClientUpdate) (models.Client, error) {
	client, err := scanClient(s.pool.QueryRow(ctx, `
		UPDATE clients
		SET name = COALESCE($2, name),
		    dni = COALESCE($3, dni),
		    client_type = COALESCE($4, client_type),
		    updated_at = NOW()
		WHERE client_id = $1
		RETURNING `+clientColumns,
		clientID, update.Name, update.DNI, update.ClientType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Client{}, store.ErrClientNotFound
		}
		return models.Client{}, mapWriteError(err, nil)
	}
	return client, nil
}

func (s *Store) DeleteClient(ctx context.Context, clientID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE client_id = $1`, clientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrClientNotFound
	}
	return nil
}
