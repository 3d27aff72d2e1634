package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"radiator_heating"
	"radiator_heating/internal/repository"
)

// DeviceService owns registry CRUD for devices. Rooms are consulted on
// delete so a configured room can never be left pointing at nothing.
type DeviceService struct {
	devices   repository.DeviceRepo
	rooms     repository.RoomRepo
	transport DeviceTransport
	cache     *StateCache
}

func NewDeviceService(devices repository.DeviceRepo, rooms repository.RoomRepo, transport DeviceTransport, cache *StateCache) *DeviceService {
	return &DeviceService{devices: devices, rooms: rooms, transport: transport, cache: cache}
}

func (s *DeviceService) List(ctx context.Context) ([]radiator_heating.Device, error) {
	return s.devices.List(ctx)
}

func (s *DeviceService) Get(ctx context.Context, id string) (radiator_heating.Device, error) {
	d, err := s.devices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return radiator_heating.Device{}, fmt.Errorf("%w: device %q", ErrNotFound, id)
		}
		return radiator_heating.Device{}, err
	}
	return d, nil
}

// Create stores a new device, generating an id when none is supplied.
func (s *DeviceService) Create(ctx context.Context, d radiator_heating.Device) (radiator_heating.Device, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	} else if _, err := s.devices.GetByID(ctx, d.ID); err == nil {
		return radiator_heating.Device{}, fmt.Errorf("%w: device %q already exists", ErrConflict, d.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return radiator_heating.Device{}, err
	}
	if err := validateDevice(d); err != nil {
		return radiator_heating.Device{}, err
	}
	if err := s.devices.Save(ctx, d); err != nil {
		return radiator_heating.Device{}, err
	}
	return d, nil
}

func (s *DeviceService) Update(ctx context.Context, d radiator_heating.Device) (radiator_heating.Device, error) {
	if _, err := s.Get(ctx, d.ID); err != nil {
		return radiator_heating.Device{}, err
	}
	if err := validateDevice(d); err != nil {
		return radiator_heating.Device{}, err
	}
	if err := s.devices.Save(ctx, d); err != nil {
		return radiator_heating.Device{}, err
	}
	return d, nil
}

// Delete removes a device unless a room still references it as a
// radiator or sensor.
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		if room.OwnsRadiator(id) || room.SensorID == id {
			return fmt.Errorf("%w: device %q is referenced by room %q", ErrConflict, id, room.ID)
		}
	}
	if err := s.devices.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: device %q", ErrNotFound, id)
		}
		return err
	}
	s.cache.Forget(id)
	return nil
}

// Probe reads the live relay state straight from the device.
func (s *DeviceService) Probe(ctx context.Context, id string) (radiator_heating.RelayStatus, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return radiator_heating.RelayStatus{}, err
	}
	return s.transport.RelayStatus(ctx, d.Address, d.RelayIndex)
}

func validateDevice(d radiator_heating.Device) error {
	if d.Address == "" {
		return fmt.Errorf("%w: device address is required", ErrInvalidInput)
	}
	if d.RelayIndex < 0 {
		return fmt.Errorf("%w: relay index must be non-negative, got %d", ErrInvalidInput, d.RelayIndex)
	}
	if d.SensorIndex != nil && *d.SensorIndex < 0 {
		return fmt.Errorf("%w: sensor index must be non-negative, got %d", ErrInvalidInput, *d.SensorIndex)
	}
	return nil
}
