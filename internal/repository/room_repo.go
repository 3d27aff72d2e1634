package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"radiator_heating"
)

type RoomSQLite struct {
	db *sql.DB
}

func NewRoomSQLite(db *sql.DB) *RoomSQLite {
	return &RoomSQLite{db: db}
}

const (
	upsertRoomSQL = `
		INSERT INTO rooms (id, name, mode, radiators, sensor_id, target_c, hysteresis_c, schedule)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			mode=excluded.mode,
			radiators=excluded.radiators,
			sensor_id=excluded.sensor_id,
			target_c=excluded.target_c,
			hysteresis_c=excluded.hysteresis_c,
			schedule=excluded.schedule
	`

	selectRoomSQL = `
		SELECT id, name, mode, radiators, sensor_id, target_c, hysteresis_c, schedule
		FROM rooms WHERE id=?
	`

	listRoomsSQL = `
		SELECT id, name, mode, radiators, sensor_id, target_c, hysteresis_c, schedule
		FROM rooms ORDER BY id
	`

	deleteRoomSQL = `DELETE FROM rooms WHERE id=?`
)

// marshalRadiators converts the radiator id slice to a JSON string.
func marshalRadiators(ids []string) (string, error) {
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// marshalSchedule converts a schedule to a JSON string; empty schedules
// are stored as NULL.
func marshalSchedule(s radiator_heating.Schedule) (sql.NullString, error) {
	if len(s) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// Save inserts or updates a room row.
func (r *RoomSQLite) Save(ctx context.Context, room radiator_heating.Room) error {
	radiators, err := marshalRadiators(room.Radiators)
	if err != nil {
		return fmt.Errorf("marshal radiators for room %q: %w", room.ID, err)
	}
	schedule, err := marshalSchedule(room.Schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule for room %q: %w", room.ID, err)
	}

	var sensorID sql.NullString
	if room.SensorID != "" {
		sensorID = sql.NullString{String: room.SensorID, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, upsertRoomSQL,
		room.ID,
		room.Name,
		room.Mode,
		radiators,
		sensorID,
		room.TargetTempC,
		room.HysteresisC,
		schedule,
	)
	if err != nil {
		return fmt.Errorf("save room %q: %w", room.ID, err)
	}
	return nil
}

// GetByID fetches a single room; ErrNotFound when absent.
func (r *RoomSQLite) GetByID(ctx context.Context, id string) (radiator_heating.Room, error) {
	row := r.db.QueryRowContext(ctx, selectRoomSQL, id)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return radiator_heating.Room{}, ErrNotFound
		}
		return radiator_heating.Room{}, fmt.Errorf("get room %q: %w", id, err)
	}
	return room, nil
}

// List returns every configured room.
func (r *RoomSQLite) List(ctx context.Context) ([]radiator_heating.Room, error) {
	rows, err := r.db.QueryContext(ctx, listRoomsSQL)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []radiator_heating.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return out, nil
}

// Delete removes a room row; ErrNotFound when absent.
func (r *RoomSQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteRoomSQL, id)
	if err != nil {
		return fmt.Errorf("delete room %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete room %q: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRoom(s scanner) (radiator_heating.Room, error) {
	var room radiator_heating.Room
	var radiatorsJSON string
	var sensorID sql.NullString
	var target, hysteresis sql.NullFloat64
	var scheduleJSON sql.NullString

	if err := s.Scan(
		&room.ID,
		&room.Name,
		&room.Mode,
		&radiatorsJSON,
		&sensorID,
		&target,
		&hysteresis,
		&scheduleJSON,
	); err != nil {
		return radiator_heating.Room{}, err
	}

	if err := json.Unmarshal([]byte(radiatorsJSON), &room.Radiators); err != nil {
		return radiator_heating.Room{}, fmt.Errorf("radiators column of room %q: %w", room.ID, err)
	}
	if sensorID.Valid {
		room.SensorID = sensorID.String
	}
	if target.Valid {
		room.TargetTempC = target.Float64
	}
	if hysteresis.Valid {
		room.HysteresisC = hysteresis.Float64
	}
	if scheduleJSON.Valid && scheduleJSON.String != "" {
		if err := json.Unmarshal([]byte(scheduleJSON.String), &room.Schedule); err != nil {
			return radiator_heating.Room{}, fmt.Errorf("schedule column of room %q: %w", room.ID, err)
		}
	}
	return room, nil
}
