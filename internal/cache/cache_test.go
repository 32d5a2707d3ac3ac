package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microrover/missionctl/pkg/core"
)

func TestStateCache_Empty(t *testing.T) {
	cache := NewStateCache()

	require.NotNil(t, cache)

	_, ok := cache.Snapshot()
	assert.False(t, ok, "expected no snapshot in a fresh cache")

	_, ok = cache.Command()
	assert.False(t, ok, "expected no command in a fresh cache")
}

func TestStateCache_SetAndGetSnapshot(t *testing.T) {
	cache := NewStateCache()

	s := core.Snapshot{
		Tick:       42,
		Time:       time.Now(),
		RangeMM:    845,
		RangeValid: true,
	}
	cache.SetSnapshot(s)

	got, ok := cache.Snapshot()
	require.True(t, ok, "expected to find the stored snapshot")
	assert.Equal(t, uint64(42), got.Tick)
	assert.Equal(t, 845, got.RangeMM)
	assert.True(t, got.RangeValid)
}

func TestStateCache_SetAndGetCommand(t *testing.T) {
	cache := NewStateCache()

	cache.SetCommand(core.WheelCommand{Front: 100, Left: 70, Right: 100})

	got, ok := cache.Command()
	require.True(t, ok, "expected to find the stored command")
	assert.Equal(t, core.WheelCommand{Front: 100, Left: 70, Right: 100}, got)
}

func TestStateCache_LatestWins(t *testing.T) {
	cache := NewStateCache()

	cache.SetSnapshot(core.Snapshot{Tick: 1})
	cache.SetSnapshot(core.Snapshot{Tick: 2})

	got, ok := cache.Snapshot()
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.Tick)
}

func TestStateCache_Reset(t *testing.T) {
	cache := NewStateCache()

	cache.SetSnapshot(core.Snapshot{Tick: 7})
	cache.SetCommand(core.WheelCommand{Front: 50})

	cache.Reset()

	_, ok := cache.Snapshot()
	assert.False(t, ok, "expected snapshot cleared after reset")
	_, ok = cache.Command()
	assert.False(t, ok, "expected command cleared after reset")

	// still usable after reset
	cache.SetSnapshot(core.Snapshot{Tick: 8})
	got, ok := cache.Snapshot()
	require.True(t, ok)
	assert.Equal(t, uint64(8), got.Tick)
}

func TestStateCache_Concurrent(t *testing.T) {
	cache := NewStateCache()
	var wg sync.WaitGroup

	for i := uint64(0); i < 100; i++ {
		wg.Add(2)
		go func(tick uint64) {
			defer wg.Done()
			cache.SetSnapshot(core.Snapshot{Tick: tick})
		}(i)
		go func(speed int) {
			defer wg.Done()
			cache.SetCommand(core.WheelCommand{Front: speed})
		}(int(i))
	}
	wg.Wait()

	_, ok := cache.Snapshot()
	assert.True(t, ok)
	_, ok = cache.Command()
	assert.True(t, ok)
}

// SafeCounter tests

func TestSafeCounter_InitialValue(t *testing.T) {
	c := &SafeCounter{}
	assert.Equal(t, int(0), c.Value())
}

func TestSafeCounter_Set(t *testing.T) {
	c := &SafeCounter{}

	c.Set(42)
	assert.Equal(t, int(42), c.Value())

	c.Set(0)
	assert.Equal(t, int(0), c.Value())
}

func TestSafeCounter_Inc(t *testing.T) {
	c := &SafeCounter{}

	c.Inc()
	c.Inc()
	c.Inc()
	assert.Equal(t, int(3), c.Value())
}

func TestSafeCounter_Concurrent(t *testing.T) {
	c := &SafeCounter{}
	var wg sync.WaitGroup

	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, int(1000), c.Value())
}
