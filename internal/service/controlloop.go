package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"radiator_heating"
	"radiator_heating/internal/logger"
	"radiator_heating/internal/repository"
)

const (
	defaultDeviceTimeout      = 3 * time.Second
	defaultMaxConcurrentCalls = 4
)

// LoopService drives the periodic reconciliation: prune boosts, read
// the registries, fetch sensors, plan, dispatch deltas, update the
// commanded-state cache. All tick work runs inline in the ticker
// goroutine, so ticks can never overlap.
type LoopService struct {
	rooms     repository.RoomRepo
	devices   repository.DeviceRepo
	boosts    *BoostService
	cache     *StateCache
	transport DeviceTransport
	publisher StatePublisher // optional
	log       *logger.Logger

	timeout     time.Duration
	maxInflight int
	now         func() time.Time

	mu   sync.RWMutex
	last *radiator_heating.TickOutcome
}

func NewLoopService(
	rooms repository.RoomRepo,
	devices repository.DeviceRepo,
	boosts *BoostService,
	cache *StateCache,
	transport DeviceTransport,
	publisher StatePublisher,
	log *logger.Logger,
	cfg LoopConfig,
) *LoopService {
	if cfg.DeviceTimeout <= 0 {
		cfg.DeviceTimeout = defaultDeviceTimeout
	}
	if cfg.MaxConcurrentCalls <= 0 {
		cfg.MaxConcurrentCalls = defaultMaxConcurrentCalls
	}
	return &LoopService{
		rooms:       rooms,
		devices:     devices,
		boosts:      boosts,
		cache:       cache,
		transport:   transport,
		publisher:   publisher,
		log:         log,
		timeout:     cfg.DeviceTimeout,
		maxInflight: cfg.MaxConcurrentCalls,
		now:         time.Now,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *LoopService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			outcome := s.runTick(ctx, now)
			s.setLast(outcome)
		}
	}
}

// LastTick returns the most recent tick summary, if any tick has run.
func (s *LoopService) LastTick() (radiator_heating.TickOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return radiator_heating.TickOutcome{}, false
	}
	return *s.last, true
}

func (s *LoopService) setLast(o radiator_heating.TickOutcome) {
	s.mu.Lock()
	s.last = &o
	s.mu.Unlock()
}

// runTick executes one full reconcile-and-dispatch cycle. It never
// returns an error: every failure degrades and is recorded, and the
// next tick always gets scheduled.
func (s *LoopService) runTick(ctx context.Context, now time.Time) radiator_heating.TickOutcome {
	outcome := radiator_heating.TickOutcome{At: now.UTC()}

	// Expired boosts must be gone before anything reads them.
	s.boosts.Prune(now)

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		s.log.Errorw("tick_room_registry_failed", "err", err)
		outcome.Errors = append(outcome.Errors, "room registry read failed: "+err.Error())
		return outcome
	}
	deviceList, err := s.devices.List(ctx)
	if err != nil {
		s.log.Errorw("tick_device_registry_failed", "err", err)
		outcome.Errors = append(outcome.Errors, "device registry read failed: "+err.Error())
		return outcome
	}
	devices := make(map[string]radiator_heating.Device, len(deviceList))
	for _, d := range deviceList {
		devices[d.ID] = d
	}

	readings, readErrs := s.collectReadings(ctx, rooms, devices)
	outcome.Errors = append(outcome.Errors, readErrs...)

	plan := Reconcile(PlanInput{
		Rooms:     rooms,
		Devices:   devices,
		Boosts:    s.boosts.activeByRoom(now),
		Readings:  readings,
		LastState: s.cache.Snapshot(),
		Now:       now,
	})
	for _, msg := range plan.Errors {
		s.log.Errorw("tick_plan_degraded", "detail", msg)
	}
	outcome.Errors = append(outcome.Errors, plan.Errors...)
	outcome.Desired = plan.Desired

	outcome.Commands = s.dispatch(ctx, plan, devices)
	return outcome
}

// collectReadings fetches the current temperature for every
// thermostat room with a usable sensor, concurrently but bounded.
// Failures are logged and omitted from the map, which the planner
// treats as "no heat needed" for that room.
func (s *LoopService) collectReadings(ctx context.Context, rooms []radiator_heating.Room, devices map[string]radiator_heating.Device) (map[string]float64, []string) {
	readings := make(map[string]float64)
	var errs []string

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.maxInflight)

	for _, room := range rooms {
		if room.Mode != radiator_heating.ModeThermostat || room.SensorID == "" {
			continue
		}
		sensor, ok := devices[room.SensorID]
		if !ok || !sensor.HasSensor() {
			msg := "room " + room.ID + ": sensor device " + room.SensorID + " missing or has no sensor"
			s.log.Errorw("tick_sensor_misconfigured", "room", room.ID, "device", room.SensorID)
			errs = append(errs, msg)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(room radiator_heating.Room, sensor radiator_heating.Device) {
			defer wg.Done()
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			reading, err := s.transport.SensorValue(callCtx, sensor.Address, *sensor.SensorIndex)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Errorw("tick_sensor_read_failed",
					"room", room.ID, "device", sensor.ID, "address", sensor.Address, "err", err)
				errs = append(errs, "room "+room.ID+": sensor read failed: "+err.Error())
				return
			}
			readings[room.ID] = reading.ValueC
		}(room, sensor)
	}
	wg.Wait()

	return readings, errs
}

// dispatch diffs the plan against the commanded-state cache and issues
// one SetRelay per changed device, concurrently but bounded. The cache
// is updated only on confirmed success; failures stay uncached so the
// next tick retries. No synchronous retry within the tick.
func (s *LoopService) dispatch(ctx context.Context, plan Plan, devices map[string]radiator_heating.Device) []radiator_heating.CommandOutcome {
	var commands []radiator_heating.CommandOutcome
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.maxInflight)

	for deviceID, want := range plan.Desired {
		if cached, ok := s.cache.Get(deviceID); ok && cached == want {
			continue // already in the wanted state, no network call
		}
		device := devices[deviceID] // planner only emits known devices

		wg.Add(1)
		sem <- struct{}{}
		go func(device radiator_heating.Device, want bool, roomID string) {
			defer wg.Done()
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			err := s.transport.SetRelay(callCtx, device.Address, device.RelayIndex, want)

			cmd := radiator_heating.CommandOutcome{DeviceID: device.ID, RoomID: roomID, On: want}
			if err != nil {
				cmd.Error = err.Error()
				s.log.Errorw("tick_set_relay_failed",
					"room", roomID, "device", device.ID, "address", device.Address, "on", want, "err", err)
			} else {
				s.cache.Set(device.ID, want)
				s.log.Infow("relay_commanded", "room", roomID, "device", device.ID, "on", want)
				if s.publisher != nil {
					s.publisher.PublishRadiatorState(roomID, device.ID, want)
				}
			}

			mu.Lock()
			commands = append(commands, cmd)
			mu.Unlock()
		}(device, want, plan.RoomOf[deviceID])
	}
	wg.Wait()

	sort.Slice(commands, func(i, j int) bool { return commands[i].DeviceID < commands[j].DeviceID })
	return commands
}
