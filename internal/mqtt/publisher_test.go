package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTopic(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"heating/room/living/radiator/shelly-living/state",
		stateTopic("heating", "living", "shelly-living"))
	assert.Equal(t,
		"home/heat/room/r1/radiator/d1/state",
		stateTopic("home/heat", "r1", "d1"))
}

func TestStatePayload(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ON", statePayload(true))
	assert.Equal(t, "OFF", statePayload(false))
}
