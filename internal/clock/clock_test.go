package clock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New()

	require.NotNil(t, c)
	assert.Equal(t, uint64(0), c.Current(), "Initial counter should be 0")
	assert.NotEmpty(t, c.NodeID(), "NodeID should not be empty")
}

func TestNewWithNodeID(t *testing.T) {
	c := NewWithNodeID("node-1")

	require.NotNil(t, c)
	assert.Equal(t, "node-1", c.NodeID())
}

func TestLamport_Tick_Monotonicity(t *testing.T) {
	c := New()

	var previous uint64
	for i := 0; i < 100; i++ {
		current := c.Tick()
		assert.Greater(t, current, previous, "Tick should always increase")
		previous = current
	}
}

func TestLamport_Observe(t *testing.T) {
	tests := []struct {
		name   string
		local  uint64
		remote uint64
		want   uint64
	}{
		{"remote ahead", 3, 10, 11},
		{"remote behind", 10, 3, 11},
		{"equal", 5, 5, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewWithNodeID("node-1")
			c.Restore(tt.local)
			assert.Equal(t, tt.want, c.Observe(tt.remote))
		})
	}
}

func TestLamport_Restore_NeverGoesBackward(t *testing.T) {
	c := New()
	c.Restore(42)
	assert.Equal(t, uint64(42), c.Current())

	c.Restore(10)
	assert.Equal(t, uint64(42), c.Current(), "Restore must not decrease the counter")
}

func TestLamport_ConcurrentTicks(t *testing.T) {
	c := New()

	const goroutines = 10
	const ticks = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < ticks; j++ {
				c.Tick()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(goroutines*ticks), c.Current(), "No ticks should be lost")
}
