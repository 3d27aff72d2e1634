package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"radiator_heating"
	"radiator_heating/internal/logger"
	"radiator_heating/internal/service"
)

// ---- Service Mocks ----

type mockDevices struct {
	devices  []radiator_heating.Device
	device   radiator_heating.Device
	status   radiator_heating.RelayStatus
	listErr  error
	getErr   error
	saveErr  error
	delErr   error
	probeErr error

	lastCreated radiator_heating.Device
	lastUpdated radiator_heating.Device
	lastDeleted string
	lastProbed  string
}

func (m *mockDevices) List(ctx context.Context) ([]radiator_heating.Device, error) {
	return m.devices, m.listErr
}
func (m *mockDevices) Get(ctx context.Context, id string) (radiator_heating.Device, error) {
	return m.device, m.getErr
}
func (m *mockDevices) Create(ctx context.Context, d radiator_heating.Device) (radiator_heating.Device, error) {
	m.lastCreated = d
	return d, m.saveErr
}
func (m *mockDevices) Update(ctx context.Context, d radiator_heating.Device) (radiator_heating.Device, error) {
	m.lastUpdated = d
	return d, m.saveErr
}
func (m *mockDevices) Delete(ctx context.Context, id string) error {
	m.lastDeleted = id
	return m.delErr
}
func (m *mockDevices) Probe(ctx context.Context, id string) (radiator_heating.RelayStatus, error) {
	m.lastProbed = id
	return m.status, m.probeErr
}

type mockRooms struct {
	rooms   []radiator_heating.Room
	room    radiator_heating.Room
	listErr error
	getErr  error
	saveErr error
	delErr  error

	lastCreated radiator_heating.Room
	lastUpdated radiator_heating.Room
	lastDeleted string
}

func (m *mockRooms) List(ctx context.Context) ([]radiator_heating.Room, error) {
	return m.rooms, m.listErr
}
func (m *mockRooms) Get(ctx context.Context, id string) (radiator_heating.Room, error) {
	return m.room, m.getErr
}
func (m *mockRooms) Create(ctx context.Context, r radiator_heating.Room) (radiator_heating.Room, error) {
	m.lastCreated = r
	return r, m.saveErr
}
func (m *mockRooms) Update(ctx context.Context, r radiator_heating.Room) (radiator_heating.Room, error) {
	m.lastUpdated = r
	return r, m.saveErr
}
func (m *mockRooms) Delete(ctx context.Context, id string) error {
	m.lastDeleted = id
	return m.delErr
}

type mockBoost struct {
	boost    radiator_heating.Boost
	active   []radiator_heating.Boost
	startErr  error
	cancelErr error

	lastRoomID    string
	lastDuration  int
	lastRadiators []string
	cancelCalls   int
}

func (m *mockBoost) StartBoost(ctx context.Context, roomID string, durationMinutes int, radiators []string) (radiator_heating.Boost, error) {
	m.lastRoomID = roomID
	m.lastDuration = durationMinutes
	m.lastRadiators = radiators
	return m.boost, m.startErr
}
func (m *mockBoost) CancelBoost(roomID string) error {
	m.lastRoomID = roomID
	m.cancelCalls++
	return m.cancelErr
}
func (m *mockBoost) GetActive(roomID string) (radiator_heating.Boost, bool) {
	for _, b := range m.active {
		if b.RoomID == roomID {
			return b, true
		}
	}
	return radiator_heating.Boost{}, false
}
func (m *mockBoost) GetAllActive() []radiator_heating.Boost {
	return m.active
}

type mockStatus struct {
	status radiator_heating.SystemStatus
	err    error
}

func (m *mockStatus) GetStatus(ctx context.Context) (radiator_heating.SystemStatus, error) {
	return m.status, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, logger.Get(logger.ErrorLevel))
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
