package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_Enabled(t *testing.T) {
	t.Parallel()

	m := NewManager(" Optimistic_Saves=on, legacy=off, half=50%, all=100%, none=0%, junk, =x")

	assert.True(t, m.Enabled(OptimisticSaves, "u1"))
	assert.False(t, m.Enabled("legacy", "u1"))
	assert.True(t, m.Enabled("all", ""))
	assert.False(t, m.Enabled("none", "u1"))
	assert.False(t, m.Enabled("half", ""), "percentage rollout needs a user")
	assert.False(t, m.Enabled("missing", "u1"))

	first := m.Enabled("half", "65f1c0d2a1b2c3d4e5f60718")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("half", "65f1c0d2a1b2c3d4e5f60718"), "rollout is deterministic")
	}

	var nilManager *Manager
	assert.False(t, nilManager.Enabled(OptimisticSaves, "u1"))
}

func TestManager_ForAndSnapshot(t *testing.T) {
	t.Parallel()

	m := NewManager("optimistic_saves=on,other=off")
	assert.True(t, m.For(OptimisticSaves)("u1"))
	assert.Equal(t, map[string]bool{"optimistic_saves": true, "other": false}, m.Snapshot("u1"))
}
