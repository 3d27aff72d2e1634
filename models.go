package radiator_heating

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Room control modes.
const (
	ModeSchedule   = "schedule"
	ModeThermostat = "thermostat"
)

// Device is a Shelly relay channel, optionally carrying a BTHome
// temperature sensor component.
type Device struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Address     string `json:"address"`      // host or host:port on the local network
	RelayIndex  int    `json:"relay_index"`  // Switch component id
	SensorIndex *int   `json:"sensor_index,omitempty"` // BTHomeSensor component id, nil when absent
}

// HasSensor reports whether the device exposes a temperature sensor.
func (d Device) HasSensor() bool { return d.SensorIndex != nil }

// Room groups radiator devices under one control mode.
type Room struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Mode      string   `json:"mode"`      // schedule | thermostat
	Radiators []string `json:"radiators"` // device ids, ordered, non-empty

	// Thermostat-mode fields.
	SensorID    string  `json:"sensor_id,omitempty"`
	TargetTempC float64 `json:"target_temp_c,omitempty"`
	HysteresisC float64 `json:"hysteresis_c,omitempty"`

	Schedule Schedule `json:"schedule,omitempty"`
}

// OwnsRadiator reports whether the given device id is one of the
// room's radiators.
func (r Room) OwnsRadiator(deviceID string) bool {
	for _, id := range r.Radiators {
		if id == deviceID {
			return true
		}
	}
	return false
}

// Schedule maps lowercase weekday names ("monday".."sunday") to the
// ordered slots for that day. Missing days mean no slots.
type Schedule map[string][]TimeSlot

// WeekdayKey returns the schedule key for a time.Weekday.
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ForWeekday returns the slots stored for the given weekday, in
// stored order.
func (s Schedule) ForWeekday(d time.Weekday) []TimeSlot {
	if s == nil {
		return nil
	}
	return s[WeekdayKey(d)]
}

// TimeSlot is a wall-clock window during which the listed radiators
// are allowed to heat. Slots use minute resolution and the half-open
// interval [Start, End); a slot whose end is not later than its start
// never matches.
type TimeSlot struct {
	Start     string   `json:"start"` // "HH:MM", local time
	End       string   `json:"end"`
	Radiators []string `json:"radiators"`

	// Optional per-slot setpoint override, thermostat mode only.
	TargetTempC *float64 `json:"target_temp_c,omitempty"`
}

// Enables reports whether the slot lists the given radiator.
func (ts TimeSlot) Enables(deviceID string) bool {
	for _, id := range ts.Radiators {
		if id == deviceID {
			return true
		}
	}
	return false
}

// Contains reports whether the minute-of-day falls inside [Start, End).
// Malformed boundaries surface as an error so callers can degrade the
// whole room instead of guessing.
func (ts TimeSlot) Contains(minuteOfDay int) (bool, error) {
	start, err := ParseClock(ts.Start)
	if err != nil {
		return false, fmt.Errorf("slot start %q: %w", ts.Start, err)
	}
	end, err := ParseClock(ts.End)
	if err != nil {
		return false, fmt.Errorf("slot end %q: %w", ts.End, err)
	}
	return start <= minuteOfDay && minuteOfDay < end, nil
}

// ParseClock parses "HH:MM" into a minute-of-day in [0, 1439].
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("clock value %q: want HH:MM", s)
	}
	h, errH := strconv.Atoi(hh)
	m, errM := strconv.Atoi(mm)
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}

// MinuteOfDay converts a timestamp to schedule resolution.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Boost is a temporary forced-on override for some of a room's
// radiators. It lives only in process memory.
type Boost struct {
	RoomID    string    `json:"room_id"`
	Radiators []string  `json:"radiators"`
	Until     time.Time `json:"until"`
}

// Expired reports whether the boost is over at the given instant.
// Until == now counts as expired.
func (b Boost) Expired(now time.Time) bool {
	return !b.Until.After(now)
}

// Covers reports whether the boost forces the given radiator on.
func (b Boost) Covers(deviceID string) bool {
	for _, id := range b.Radiators {
		if id == deviceID {
			return true
		}
	}
	return false
}

// RelayStatus is the observable state of one relay channel.
type RelayStatus struct {
	On         bool    `json:"on"`
	PowerWatts float64 `json:"power_watts"`
}

// SensorReading is one temperature sample from a device sensor.
type SensorReading struct {
	ValueC float64   `json:"value_c"`
	At     time.Time `json:"at"`
}

// CommandOutcome records one relay command attempted during a tick.
type CommandOutcome struct {
	DeviceID string `json:"device_id"`
	RoomID   string `json:"room_id"`
	On       bool   `json:"on"`
	Error    string `json:"error,omitempty"`
}

// TickOutcome summarizes one reconciliation cycle.
type TickOutcome struct {
	At       time.Time        `json:"at"`
	Desired  map[string]bool  `json:"desired"` // device id -> wanted relay state
	Commands []CommandOutcome `json:"commands,omitempty"`
	Errors   []string         `json:"errors,omitempty"`
}

// SystemStatus is the live snapshot served over HTTP and the
// websocket stream.
type SystemStatus struct {
	CommandedStates map[string]bool `json:"commanded_states"`
	ActiveBoosts    []Boost         `json:"active_boosts"`
	LastTick        *TickOutcome    `json:"last_tick,omitempty"`
	At              time.Time       `json:"at"`
}
