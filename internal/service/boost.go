package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"radiator_heating"
	"radiator_heating/internal/repository"
)

// BoostService tracks temporary forced-on overrides per room, in
// process memory. All methods are safe for concurrent use; the mutex
// covers both the HTTP-facing operations and the tick's prune+read.
type BoostService struct {
	mu     sync.Mutex
	rooms  repository.RoomRepo
	active map[string]radiator_heating.Boost

	now func() time.Time // injectable clock for tests
}

func NewBoostService(rooms repository.RoomRepo) *BoostService {
	return &BoostService{
		rooms:  rooms,
		active: make(map[string]radiator_heating.Boost),
		now:    time.Now,
	}
}

// StartBoost forces the given radiators (default: all of the room's)
// on for durationMinutes. An existing boost for the room is replaced
// outright: last writer wins, no stacking or extending.
func (s *BoostService) StartBoost(ctx context.Context, roomID string, durationMinutes int, radiators []string) (radiator_heating.Boost, error) {
	if durationMinutes <= 0 {
		return radiator_heating.Boost{}, fmt.Errorf("%w: duration must be positive, got %d minutes", ErrInvalidInput, durationMinutes)
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return radiator_heating.Boost{}, fmt.Errorf("%w: room %q", ErrNotFound, roomID)
		}
		return radiator_heating.Boost{}, err
	}

	resolved, err := resolveBoostRadiators(room, radiators)
	if err != nil {
		return radiator_heating.Boost{}, err
	}

	boost := radiator_heating.Boost{
		RoomID:    roomID,
		Radiators: resolved,
		Until:     s.now().Add(time.Duration(durationMinutes) * time.Minute).UTC(),
	}

	s.mu.Lock()
	s.active[roomID] = boost
	s.mu.Unlock()

	return boost, nil
}

// resolveBoostRadiators narrows a boost request to the room's own
// radiators, preserving the room's stored order. An explicit request
// naming zero valid radiators is an error; an empty request means all.
func resolveBoostRadiators(room radiator_heating.Room, requested []string) ([]string, error) {
	if len(requested) == 0 {
		out := make([]string, len(room.Radiators))
		copy(out, room.Radiators)
		return out, nil
	}

	wanted := make(map[string]bool, len(requested))
	for _, id := range requested {
		wanted[id] = true
	}
	var out []string
	for _, id := range room.Radiators {
		if wanted[id] {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: none of the requested radiators belong to room %q", ErrInvalidInput, room.ID)
	}
	return out, nil
}

// CancelBoost removes the room's boost; an expired leftover counts as
// absent.
func (s *BoostService) CancelBoost(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.active[roomID]
	if !ok {
		return fmt.Errorf("%w: no active boost for room %q", ErrNotFound, roomID)
	}
	delete(s.active, roomID)
	if b.Expired(s.now()) {
		return fmt.Errorf("%w: no active boost for room %q", ErrNotFound, roomID)
	}
	return nil
}

// Prune drops every boost whose expiry has passed. The control loop
// calls this at the top of each tick, before any boost is read.
func (s *BoostService) Prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for roomID, b := range s.active {
		if b.Expired(now) {
			delete(s.active, roomID)
		}
	}
}

// GetActive returns the room's boost if one is active. Expired entries
// are skipped defensively even if a prune was missed.
func (s *BoostService) GetActive(roomID string) (radiator_heating.Boost, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.active[roomID]
	if !ok || b.Expired(s.now()) {
		return radiator_heating.Boost{}, false
	}
	return b, true
}

// GetAllActive returns every live boost, ordered by room id.
func (s *BoostService) GetAllActive() []radiator_heating.Boost {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []radiator_heating.Boost
	for _, b := range s.active {
		if !b.Expired(now) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// activeByRoom snapshots live boosts keyed by room for the planner.
func (s *BoostService) activeByRoom(now time.Time) map[string]radiator_heating.Boost {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]radiator_heating.Boost, len(s.active))
	for roomID, b := range s.active {
		if !b.Expired(now) {
			out[roomID] = b
		}
	}
	return out
}

// CancelQuietly drops a boost without the NotFound contract, for
// cleanup paths like room deletion.
func (s *BoostService) CancelQuietly(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, roomID)
}
