package mission

import (
	"sync"

	"github.com/microrover/missionctl/internal/geometry"
	"github.com/microrover/missionctl/pkg/core"
)

// Context holds the current run and arena state
type Context struct {
	mu    sync.RWMutex
	Run   *core.Run
	Arena *geometry.Arena
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Run: &core.Run{Name: "No run active"},
	}
}

// GetRun returns the current run
func (mc *Context) GetRun() *core.Run {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.Run
}

// GetArena returns the current arena geometry, nil until a run is set
func (mc *Context) GetArena() *geometry.Arena {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.Arena
}

// SetRun sets the current run and arena
func (mc *Context) SetRun(run *core.Run, arena *geometry.Arena) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.Run = run
	mc.Arena = arena
}
