package service

import (
	"context"
	"time"

	"radiator_heating"
)

// TickSource exposes the most recent tick summary.
type TickSource interface {
	LastTick() (radiator_heating.TickOutcome, bool)
}

// StatusService assembles the live snapshot for the HTTP status
// endpoint and the websocket stream.
type StatusService struct {
	cache  *StateCache
	boosts *BoostService
	ticks  TickSource
}

func NewStatusService(cache *StateCache, boosts *BoostService, ticks TickSource) *StatusService {
	return &StatusService{cache: cache, boosts: boosts, ticks: ticks}
}

func (s *StatusService) GetStatus(ctx context.Context) (radiator_heating.SystemStatus, error) {
	status := radiator_heating.SystemStatus{
		CommandedStates: s.cache.Snapshot(),
		ActiveBoosts:    s.boosts.GetAllActive(),
		At:              time.Now().UTC(),
	}
	if last, ok := s.ticks.LastTick(); ok {
		status.LastTick = &last
	}
	return status, nil
}
