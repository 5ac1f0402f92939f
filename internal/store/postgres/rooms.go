package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

const roomColumns = `room_id, name, description, enabled`

func scanRoom(row pgx.Row) (models.Room, error) {
	var room models.Room
	err := row.Scan(&room.RoomID, &room.Name, &room.Description, &room.Enabled)
	return room, err
}

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *Store) CreateRoom(ctx context.Context, room models.Room) (models.Room, error) {
	created, err := scanRoom(s.pool.QueryRow(ctx, `
		INSERT INTO rooms (room_id, name, description, enabled)
		VALUES ($1, $2, $3, $4)
		RETURNING `+roomColumns,
		uuid.NewString(), room.Name, room.Description, room.Enabled))
	if err != nil {
		return models.Room{}, mapWriteError(err, nil)
	}
	return created, nil
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (models.Room, bool, error) {
	return getRoom(ctx, s.pool, roomID)
}

func getRoom(ctx context.Context, q querier, roomID string) (models.Room, bool, error) {
	room, err := scanRoom(q.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE room_id = $1`, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Room{}, false, nil
		}
		return models.Room{}, false, err
	}
	return room, true, nil
}

func (s *Store) UpdateRoom(ctx context.Context, roomID string, update store.RoomUpdate) (models.Room, error) {
	room, err := scanRoom(s.pool.QueryRow(ctx, `
		UPDATE rooms
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    enabled = COALESCE($4, enabled)
		WHERE room_id = $1
		RETURNING `+roomColumns,
		roomID, update.Name, update.Description, update.Enabled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Room{}, store.ErrRoomNotFound
		}
		return models.Room{}, mapWriteError(err, nil)
	}
	return room, nil
}

func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE room_id = $1`, roomID)
	if err != nil {
		return mapWriteError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrRoomNotFound
	}
	return nil
}
