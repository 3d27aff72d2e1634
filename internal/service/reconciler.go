package service

import (
	"fmt"
	"time"

	"radiator_heating"
)

// PlanInput is one tick's consistent snapshot. Boosts must already be
// pruned; Readings holds only successful sensor fetches, keyed by room.
type PlanInput struct {
	Rooms     []radiator_heating.Room
	Devices   map[string]radiator_heating.Device
	Boosts    map[string]radiator_heating.Boost
	Readings  map[string]float64
	LastState map[string]bool
	Now       time.Time
}

// Plan is the planner's output: the wanted relay state for every
// commandable radiator, the owning room of each, and the per-room
// failures that degraded parts of the plan to "off".
type Plan struct {
	Desired map[string]bool
	RoomOf  map[string]string
	Errors  []string
}

// Reconcile computes the desired on/off state of every radiator from
// schedules, thermostat hysteresis and boost overrides. It is a pure
// function of its input; LastState supplies the hysteresis memory.
// Callers diff Desired against the commanded-state cache and dispatch
// only the deltas.
func Reconcile(in PlanInput) Plan {
	plan := Plan{
		Desired: make(map[string]bool),
		RoomOf:  make(map[string]string),
	}
	for _, room := range in.Rooms {
		reconcileRoom(&plan, room, in)
	}
	return plan
}

// reconcileRoom plans one room. Any room-level failure (malformed
// schedule) forces the room's radiators off and is recorded, never
// propagated: one bad room must not abort the tick.
func reconcileRoom(plan *Plan, room radiator_heating.Room, in PlanInput) {
	slot, err := activeSlot(room.Schedule, in.Now)
	if err != nil {
		plan.Errors = append(plan.Errors, fmt.Sprintf("room %s: %v", room.ID, err))
		forceRoomOff(plan, room, in.Devices)
		return
	}

	boost, boosted := in.Boosts[room.ID]
	if boosted && boost.Expired(in.Now) {
		// Pruned upstream; skipped again here so a missed prune can
		// never resurrect an override.
		boosted = false
	}

	heating := false
	if room.Mode == radiator_heating.ModeThermostat {
		heating = heatingNeeded(room, slot, in)
	}

	for _, radiatorID := range room.Radiators {
		if _, exists := in.Devices[radiatorID]; !exists {
			plan.Errors = append(plan.Errors, fmt.Sprintf("room %s references unknown device %s", room.ID, radiatorID))
			continue
		}

		on := false
		switch {
		case boosted && boost.Covers(radiatorID):
			// Boost always wins, over schedule and thermostat alike.
			on = true
		case slot == nil:
			// Schedule silence means off regardless of mode.
			on = false
		case room.Mode == radiator_heating.ModeThermostat:
			on = slot.Enables(radiatorID) && heating
		default:
			on = slot.Enables(radiatorID)
		}

		plan.Desired[radiatorID] = on
		plan.RoomOf[radiatorID] = room.ID
	}
}

// activeSlot returns the first slot of today's schedule containing the
// current minute, in stored order (first-match-wins for overlaps), or
// nil when none matches. Slots spanning midnight never match.
func activeSlot(schedule radiator_heating.Schedule, now time.Time) (*radiator_heating.TimeSlot, error) {
	minute := radiator_heating.MinuteOfDay(now)
	slots := schedule.ForWeekday(now.Weekday())
	for i := range slots {
		ok, err := slots[i].Contains(minute)
		if err != nil {
			return nil, fmt.Errorf("malformed schedule: %w", err)
		}
		if ok {
			return &slots[i], nil
		}
	}
	return nil, nil
}

// heatingNeeded applies the thermostat rule: below the band heat, above
// it don't, inside it keep whatever the room's radiators last did.
// A missing reading (sensor fetch failed or not configured) fails safe
// to "no heat" for this tick.
func heatingNeeded(room radiator_heating.Room, slot *radiator_heating.TimeSlot, in PlanInput) bool {
	temp, ok := in.Readings[room.ID]
	if !ok {
		return false
	}

	target := room.TargetTempC
	if slot != nil && slot.TargetTempC != nil {
		target = *slot.TargetTempC
	}

	switch {
	case temp < target-room.HysteresisC:
		return true
	case temp > target+room.HysteresisC:
		return false
	default:
		// Inside the band: carry the last commanded state forward.
		// The memory signal is room-level: any radiator last on.
		return anyRadiatorLastOn(room, in.LastState)
	}
}

func anyRadiatorLastOn(room radiator_heating.Room, lastState map[string]bool) bool {
	for _, id := range room.Radiators {
		if lastState[id] {
			return true
		}
	}
	return false
}

// forceRoomOff degrades every commandable radiator of a failed room to
// off.
func forceRoomOff(plan *Plan, room radiator_heating.Room, devices map[string]radiator_heating.Device) {
	for _, radiatorID := range room.Radiators {
		if _, exists := devices[radiatorID]; !exists {
			continue
		}
		plan.Desired[radiatorID] = false
		plan.RoomOf[radiatorID] = room.ID
	}
}
