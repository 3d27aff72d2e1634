package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"radiator_heating"
)

type DeviceSQLite struct {
	db *sql.DB
}

func NewDeviceSQLite(db *sql.DB) *DeviceSQLite {
	return &DeviceSQLite{db: db}
}

const (
	upsertDeviceSQL = `
		INSERT INTO devices (id, name, address, relay_index, sensor_index)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			address=excluded.address,
			relay_index=excluded.relay_index,
			sensor_index=excluded.sensor_index
	`

	selectDeviceSQL = `
		SELECT id, name, address, relay_index, sensor_index
		FROM devices WHERE id=?
	`

	listDevicesSQL = `
		SELECT id, name, address, relay_index, sensor_index
		FROM devices ORDER BY id
	`

	deleteDeviceSQL = `DELETE FROM devices WHERE id=?`
)

// Save inserts or updates a device row.
func (r *DeviceSQLite) Save(ctx context.Context, d radiator_heating.Device) error {
	var sensor sql.NullInt64
	if d.SensorIndex != nil {
		sensor = sql.NullInt64{Int64: int64(*d.SensorIndex), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, upsertDeviceSQL,
		d.ID,
		d.Name,
		d.Address,
		d.RelayIndex,
		sensor,
	)
	if err != nil {
		return fmt.Errorf("save device %q: %w", d.ID, err)
	}
	return nil
}

// GetByID fetches a single device; ErrNotFound when absent.
func (r *DeviceSQLite) GetByID(ctx context.Context, id string) (radiator_heating.Device, error) {
	row := r.db.QueryRowContext(ctx, selectDeviceSQL, id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return radiator_heating.Device{}, ErrNotFound
		}
		return radiator_heating.Device{}, fmt.Errorf("get device %q: %w", id, err)
	}
	return d, nil
}

// List returns every configured device.
func (r *DeviceSQLite) List(ctx context.Context) ([]radiator_heating.Device, error) {
	rows, err := r.db.QueryContext(ctx, listDevicesSQL)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []radiator_heating.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return out, nil
}

// Delete removes a device row; ErrNotFound when absent.
func (r *DeviceSQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteDeviceSQL, id)
	if err != nil {
		return fmt.Errorf("delete device %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete device %q: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (radiator_heating.Device, error) {
	var d radiator_heating.Device
	var sensor sql.NullInt64
	if err := s.Scan(&d.ID, &d.Name, &d.Address, &d.RelayIndex, &sensor); err != nil {
		return radiator_heating.Device{}, err
	}
	if sensor.Valid {
		idx := int(sensor.Int64)
		d.SensorIndex = &idx
	}
	return d, nil
}
