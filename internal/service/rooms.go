package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"radiator_heating"
	"radiator_heating/internal/repository"
)

// validWeekdays are the accepted schedule keys.
var validWeekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// RoomService owns registry CRUD for rooms. All referential and
// schedule validation happens here, at the registry boundary, so the
// reconciliation engine operates on records it can trust.
type RoomService struct {
	rooms   repository.RoomRepo
	devices repository.DeviceRepo
	boosts  *BoostService
}

func NewRoomService(rooms repository.RoomRepo, devices repository.DeviceRepo, boosts *BoostService) *RoomService {
	return &RoomService{rooms: rooms, devices: devices, boosts: boosts}
}

func (s *RoomService) List(ctx context.Context) ([]radiator_heating.Room, error) {
	return s.rooms.List(ctx)
}

func (s *RoomService) Get(ctx context.Context, id string) (radiator_heating.Room, error) {
	r, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return radiator_heating.Room{}, fmt.Errorf("%w: room %q", ErrNotFound, id)
		}
		return radiator_heating.Room{}, err
	}
	return r, nil
}

func (s *RoomService) Create(ctx context.Context, r radiator_heating.Room) (radiator_heating.Room, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	} else if _, err := s.rooms.GetByID(ctx, r.ID); err == nil {
		return radiator_heating.Room{}, fmt.Errorf("%w: room %q already exists", ErrConflict, r.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return radiator_heating.Room{}, err
	}
	if err := s.validateRoom(ctx, r); err != nil {
		return radiator_heating.Room{}, err
	}
	if err := s.rooms.Save(ctx, r); err != nil {
		return radiator_heating.Room{}, err
	}
	return r, nil
}

func (s *RoomService) Update(ctx context.Context, r radiator_heating.Room) (radiator_heating.Room, error) {
	if _, err := s.Get(ctx, r.ID); err != nil {
		return radiator_heating.Room{}, err
	}
	if err := s.validateRoom(ctx, r); err != nil {
		return radiator_heating.Room{}, err
	}
	if err := s.rooms.Save(ctx, r); err != nil {
		return radiator_heating.Room{}, err
	}
	return r, nil
}

// Delete removes the room and drops any boost still pointing at it.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: room %q", ErrNotFound, id)
		}
		return err
	}
	s.boosts.CancelQuietly(id)
	return nil
}

// validateRoom checks mode, radiator references, thermostat parameters
// and schedule shape. Overlapping slots are deliberately allowed; the
// engine resolves them first-match-wins.
func (s *RoomService) validateRoom(ctx context.Context, r radiator_heating.Room) error {
	if r.Name == "" {
		return fmt.Errorf("%w: room name is required", ErrInvalidInput)
	}
	if r.Mode != radiator_heating.ModeSchedule && r.Mode != radiator_heating.ModeThermostat {
		return fmt.Errorf("%w: mode must be %q or %q, got %q",
			ErrInvalidInput, radiator_heating.ModeSchedule, radiator_heating.ModeThermostat, r.Mode)
	}
	if len(r.Radiators) == 0 {
		return fmt.Errorf("%w: room needs at least one radiator", ErrInvalidInput)
	}
	for _, id := range r.Radiators {
		if _, err := s.devices.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: radiator device %q does not exist", ErrInvalidInput, id)
			}
			return err
		}
	}

	if r.Mode == radiator_heating.ModeThermostat {
		if r.HysteresisC <= 0 {
			return fmt.Errorf("%w: hysteresis must be positive, got %v", ErrInvalidInput, r.HysteresisC)
		}
		if r.SensorID != "" {
			sensor, err := s.devices.GetByID(ctx, r.SensorID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%w: sensor device %q does not exist", ErrInvalidInput, r.SensorID)
				}
				return err
			}
			if !sensor.HasSensor() {
				return fmt.Errorf("%w: device %q has no sensor", ErrInvalidInput, r.SensorID)
			}
		}
	}

	return validateSchedule(r.Schedule)
}

func validateSchedule(s radiator_heating.Schedule) error {
	for day, slots := range s {
		if !validWeekdays[day] {
			return fmt.Errorf("%w: unknown weekday %q in schedule", ErrInvalidInput, day)
		}
		for i, slot := range slots {
			if _, err := radiator_heating.ParseClock(slot.Start); err != nil {
				return fmt.Errorf("%w: %s slot %d: %v", ErrInvalidInput, day, i, err)
			}
			if _, err := radiator_heating.ParseClock(slot.End); err != nil {
				return fmt.Errorf("%w: %s slot %d: %v", ErrInvalidInput, day, i, err)
			}
		}
	}
	return nil
}
