package service

import (
	"context"
	"errors"
	"time"

	"radiator_heating"
	"radiator_heating/internal/logger"
	"radiator_heating/internal/repository"
)

// Sentinel errors surfaced to the HTTP layer; handlers map them to
// status codes with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// DeviceTransport is the outbound device protocol. Each call is
// independent, has its own timeout, and can fail without affecting
// other calls.
type DeviceTransport interface {
	RelayStatus(ctx context.Context, address string, relay int) (radiator_heating.RelayStatus, error)
	SetRelay(ctx context.Context, address string, relay int, on bool) error
	SensorValue(ctx context.Context, address string, sensor int) (radiator_heating.SensorReading, error)
}

// StatePublisher pushes confirmed relay changes to an external bus
// (MQTT in production). Implementations must not block the tick.
type StatePublisher interface {
	PublishRadiatorState(roomID, deviceID string, on bool)
}

// Devices exposes registry CRUD plus a live relay probe.
type Devices interface {
	List(ctx context.Context) ([]radiator_heating.Device, error)
	Get(ctx context.Context, id string) (radiator_heating.Device, error)
	Create(ctx context.Context, d radiator_heating.Device) (radiator_heating.Device, error)
	Update(ctx context.Context, d radiator_heating.Device) (radiator_heating.Device, error)
	Delete(ctx context.Context, id string) error
	Probe(ctx context.Context, id string) (radiator_heating.RelayStatus, error)
}

// Rooms exposes registry CRUD with referential validation.
type Rooms interface {
	List(ctx context.Context) ([]radiator_heating.Room, error)
	Get(ctx context.Context, id string) (radiator_heating.Room, error)
	Create(ctx context.Context, r radiator_heating.Room) (radiator_heating.Room, error)
	Update(ctx context.Context, r radiator_heating.Room) (radiator_heating.Room, error)
	Delete(ctx context.Context, id string) error
}

// Boost is the temporary-override lifecycle.
type Boost interface {
	StartBoost(ctx context.Context, roomID string, durationMinutes int, radiators []string) (radiator_heating.Boost, error)
	CancelBoost(roomID string) error
	GetActive(roomID string) (radiator_heating.Boost, bool)
	GetAllActive() []radiator_heating.Boost
}

// Status exposes the live snapshot consumed by the HTTP and websocket
// surfaces.
type Status interface {
	GetStatus(ctx context.Context) (radiator_heating.SystemStatus, error)
}

// ControlLoop runs the periodic reconcile-and-dispatch cycle.
// Stop via context cancellation in main() for graceful shutdown.
type ControlLoop interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Devices
	Rooms
	Boost
	Status
	ControlLoop
}

// LoopConfig carries the control-loop tuning knobs read from config.
type LoopConfig struct {
	DeviceTimeout      time.Duration
	MaxConcurrentCalls int
}

// NewService wires the repository layer, device transport and optional
// state publisher into concrete services.
func NewService(repos *repository.Repository, transport DeviceTransport, publisher StatePublisher, log *logger.Logger, cfg LoopConfig) *Service {
	boosts := NewBoostService(repos.Rooms)
	cache := NewStateCache()
	loop := NewLoopService(repos.Rooms, repos.Devices, boosts, cache, transport, publisher, log, cfg)
	return &Service{
		Devices:     NewDeviceService(repos.Devices, repos.Rooms, transport, cache),
		Rooms:       NewRoomService(repos.Rooms, repos.Devices, boosts),
		Boost:       boosts,
		Status:      NewStatusService(cache, boosts, loop),
		ControlLoop: loop,
	}
}
