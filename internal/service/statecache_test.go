package service

import "testing"

func TestStateCache(t *testing.T) {
	t.Parallel()

	c := NewStateCache()

	if _, ok := c.Get("dev"); ok {
		t.Error("fresh cache must report unknown")
	}

	c.Set("dev", true)
	on, ok := c.Get("dev")
	if !ok || !on {
		t.Errorf("Get after Set(true): want (true, true), got (%v, %v)", on, ok)
	}

	c.Set("dev", false)
	on, ok = c.Get("dev")
	if !ok || on {
		t.Errorf("Get after Set(false): want (false, true), got (%v, %v)", on, ok)
	}

	c.Forget("dev")
	if _, ok := c.Get("dev"); ok {
		t.Error("Get after Forget must report unknown")
	}
}

func TestStateCacheSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	c := NewStateCache()
	c.Set("a", true)

	snap := c.Snapshot()
	snap["a"] = false
	snap["b"] = true

	if on, _ := c.Get("a"); !on {
		t.Error("mutating a snapshot must not touch the cache")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("mutating a snapshot must not add cache entries")
	}
}
