package repository

import (
	"context"
	"database/sql"
	"errors"

	"radiator_heating"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

type DeviceRepo interface {
	List(ctx context.Context) ([]radiator_heating.Device, error)
	GetByID(ctx context.Context, id string) (radiator_heating.Device, error)
	Save(ctx context.Context, d radiator_heating.Device) error
	Delete(ctx context.Context, id string) error
}

type RoomRepo interface {
	List(ctx context.Context) ([]radiator_heating.Room, error)
	GetByID(ctx context.Context, id string) (radiator_heating.Room, error)
	Save(ctx context.Context, r radiator_heating.Room) error
	Delete(ctx context.Context, id string) error
}

type Repository struct {
	Devices DeviceRepo
	Rooms   RoomRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Devices: NewDeviceSQLite(db),
		Rooms:   NewRoomSQLite(db),
	}
}
