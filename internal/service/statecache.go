package service

import "sync"

// StateCache remembers the last relay state the process successfully
// commanded per device. Absence means "unknown", which hysteresis
// treats as off. Entries are written only after a confirmed dispatch,
// so a failed command is retried naturally on the next tick.
type StateCache struct {
	mu     sync.RWMutex
	states map[string]bool
}

func NewStateCache() *StateCache {
	return &StateCache{states: make(map[string]bool)}
}

// Get returns the cached state and whether one exists.
func (c *StateCache) Get(deviceID string) (on, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	on, ok = c.states[deviceID]
	return on, ok
}

// Set records a successfully commanded state.
func (c *StateCache) Set(deviceID string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[deviceID] = on
}

// Forget drops a device's entry, e.g. when the device is deleted.
func (c *StateCache) Forget(deviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, deviceID)
}

// Snapshot copies the cache for a tick's pure planning phase.
func (c *StateCache) Snapshot() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.states))
	for id, on := range c.states {
		out[id] = on
	}
	return out
}
