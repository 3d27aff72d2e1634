package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"radiator_heating"
	"radiator_heating/internal/repository"
)

// roomRepoStub satisfies repository.RoomRepo from a fixed set of rooms.
type roomRepoStub struct {
	rooms   map[string]radiator_heating.Room
	listErr error
}

func (s *roomRepoStub) List(ctx context.Context) ([]radiator_heating.Room, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []radiator_heating.Room
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (s *roomRepoStub) GetByID(ctx context.Context, id string) (radiator_heating.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return radiator_heating.Room{}, repository.ErrNotFound
	}
	return r, nil
}

func (s *roomRepoStub) Save(ctx context.Context, r radiator_heating.Room) error {
	s.rooms[r.ID] = r
	return nil
}

func (s *roomRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.rooms, id)
	return nil
}

func newBoostFixture(t *testing.T) (*BoostService, *time.Time) {
	t.Helper()
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	svc := NewBoostService(&roomRepoStub{rooms: map[string]radiator_heating.Room{
		"r1": {ID: "r1", Mode: radiator_heating.ModeSchedule, Radiators: []string{"a", "b"}},
	}})
	clock := &now
	svc.now = func() time.Time { return *clock }
	return svc, clock
}

func TestStartBoost_DefaultsToAllRadiators(t *testing.T) {
	t.Parallel()
	svc, clock := newBoostFixture(t)

	boost, err := svc.StartBoost(context.Background(), "r1", 30, nil)
	if err != nil {
		t.Fatalf("StartBoost: %v", err)
	}
	if len(boost.Radiators) != 2 || boost.Radiators[0] != "a" || boost.Radiators[1] != "b" {
		t.Errorf("radiators: want [a b], got %v", boost.Radiators)
	}
	want := clock.Add(30 * time.Minute)
	if !boost.Until.Equal(want) {
		t.Errorf("until: want %v, got %v", want, boost.Until)
	}
	if _, ok := svc.GetActive("r1"); !ok {
		t.Error("boost must be active immediately after start")
	}
}

func TestStartBoost_IntersectsRequestedRadiators(t *testing.T) {
	t.Parallel()
	svc, _ := newBoostFixture(t)

	boost, err := svc.StartBoost(context.Background(), "r1", 10, []string{"b", "not-mine"})
	if err != nil {
		t.Fatalf("StartBoost: %v", err)
	}
	if len(boost.Radiators) != 1 || boost.Radiators[0] != "b" {
		t.Errorf("radiators: want [b], got %v", boost.Radiators)
	}
}

func TestStartBoost_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		roomID    string
		minutes   int
		radiators []string
		wantErr   error
	}{
		{name: "zero duration", roomID: "r1", minutes: 0, wantErr: ErrInvalidInput},
		{name: "negative duration", roomID: "r1", minutes: -5, wantErr: ErrInvalidInput},
		{name: "unknown room", roomID: "nope", minutes: 10, wantErr: ErrNotFound},
		{name: "no valid radiators", roomID: "r1", minutes: 10, radiators: []string{"x", "y"}, wantErr: ErrInvalidInput},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newBoostFixture(t)
			_, err := svc.StartBoost(context.Background(), tc.roomID, tc.minutes, tc.radiators)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestStartBoost_LastWriterWins(t *testing.T) {
	t.Parallel()
	svc, _ := newBoostFixture(t)

	if _, err := svc.StartBoost(context.Background(), "r1", 60, nil); err != nil {
		t.Fatalf("first StartBoost: %v", err)
	}
	second, err := svc.StartBoost(context.Background(), "r1", 5, []string{"a"})
	if err != nil {
		t.Fatalf("second StartBoost: %v", err)
	}

	got, ok := svc.GetActive("r1")
	if !ok {
		t.Fatal("expected an active boost")
	}
	if !got.Until.Equal(second.Until) || len(got.Radiators) != 1 {
		t.Errorf("replacement must win outright, got %+v", got)
	}
}

func TestCancelBoost(t *testing.T) {
	t.Parallel()
	svc, _ := newBoostFixture(t)

	if err := svc.CancelBoost("r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancel without boost: want ErrNotFound, got %v", err)
	}

	if _, err := svc.StartBoost(context.Background(), "r1", 10, nil); err != nil {
		t.Fatalf("StartBoost: %v", err)
	}
	if err := svc.CancelBoost("r1"); err != nil {
		t.Fatalf("CancelBoost: %v", err)
	}
	if _, ok := svc.GetActive("r1"); ok {
		t.Error("boost must be gone after cancel")
	}
}

func TestBoostExpiryIsMonotonic(t *testing.T) {
	t.Parallel()
	svc, clock := newBoostFixture(t)

	boost, err := svc.StartBoost(context.Background(), "r1", 30, nil)
	if err != nil {
		t.Fatalf("StartBoost: %v", err)
	}

	// Prune exactly at expiry: until <= now removes it.
	svc.Prune(boost.Until)
	*clock = boost.Until
	if _, ok := svc.GetActive("r1"); ok {
		t.Error("boost must be absent once pruned at its deadline")
	}

	// And it stays absent for all later queries.
	*clock = boost.Until.Add(time.Hour)
	if _, ok := svc.GetActive("r1"); ok {
		t.Error("pruned boost must never come back")
	}
	if got := svc.GetAllActive(); len(got) != 0 {
		t.Errorf("GetAllActive: want none, got %v", got)
	}
}

func TestGetActive_SkipsExpiredWithoutPrune(t *testing.T) {
	t.Parallel()
	svc, clock := newBoostFixture(t)

	boost, err := svc.StartBoost(context.Background(), "r1", 10, nil)
	if err != nil {
		t.Fatalf("StartBoost: %v", err)
	}

	// No prune ran; the reads must still hide the expired entry.
	*clock = boost.Until.Add(time.Second)
	if _, ok := svc.GetActive("r1"); ok {
		t.Error("GetActive must skip expired entries defensively")
	}
	if got := svc.GetAllActive(); len(got) != 0 {
		t.Errorf("GetAllActive must skip expired entries, got %v", got)
	}
	if got := svc.activeByRoom(*clock); len(got) != 0 {
		t.Errorf("activeByRoom must skip expired entries, got %v", got)
	}

	// Cancel of an expired leftover reports NotFound.
	if err := svc.CancelBoost("r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cancel of expired boost: want ErrNotFound, got %v", err)
	}
}
