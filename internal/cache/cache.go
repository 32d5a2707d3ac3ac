package cache

import (
	"sync"

	"github.com/microrover/missionctl/pkg/core"
)

// StateCache holds the most recent sensor snapshot and wheel command so the
// monitor and streaming backends can read vehicle state without touching the
// control loop. Latency in these calls is critical, the control loop writes
// here every tick.
type StateCache struct {
	m           sync.Mutex
	snapshot    core.Snapshot
	hasSnapshot bool
	command     core.WheelCommand
	hasCommand  bool
}

func NewStateCache() *StateCache {
	return &StateCache{}
}

func (c *StateCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.snapshot = core.Snapshot{}
	c.hasSnapshot = false
	c.command = core.WheelCommand{}
	c.hasCommand = false
}

func (c *StateCache) SetSnapshot(s core.Snapshot) {
	c.m.Lock()
	defer c.m.Unlock()
	c.snapshot = s
	c.hasSnapshot = true
}

func (c *StateCache) Snapshot() (core.Snapshot, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.snapshot, c.hasSnapshot
}

func (c *StateCache) SetCommand(cmd core.WheelCommand) {
	c.m.Lock()
	defer c.m.Unlock()
	c.command = cmd
	c.hasCommand = true
}

func (c *StateCache) Command() (core.WheelCommand, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.command, c.hasCommand
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
