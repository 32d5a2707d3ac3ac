// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/microrover/missionctl/internal/config"
	"github.com/microrover/missionctl/pkg/core"
)

// Backend stores run data in memory and exports it to a JSON file when the
// run ends. It is the default backend for field work: no database required,
// the exported file can be uploaded to the fleet server afterwards.
type Backend struct {
	cfg   config.MemoryConfig
	run   *core.Run
	arena *core.Arena

	ticks      []core.TickSample
	phases     []core.PhaseChange
	detections []core.ScanDetection
	controls   []core.ControlEvent

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run
func (b *Backend) StartRun(run *core.Run, arena *core.Arena) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.run = run
	b.arena = arena

	// Reset all collections
	b.ticks = nil
	b.phases = nil
	b.detections = nil
	b.controls = nil
	b.idCounter = 0
	b.lastExportPath = ""

	return nil
}

// EndRun finalizes and exports the run data
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return errors.New("no run to end")
	}
	return b.exportJSON()
}

// RecordTick records one telemetry sample
func (b *Backend) RecordTick(s *core.TickSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	s.ID = b.idCounter
	b.ticks = append(b.ticks, *s)
	return nil
}

// RecordPhaseChange records a phase transition
func (b *Backend) RecordPhaseChange(pc *core.PhaseChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	pc.ID = b.idCounter
	b.phases = append(b.phases, *pc)
	return nil
}

// RecordScanDetection records a scan anomaly
func (b *Backend) RecordScanDetection(d *core.ScanDetection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	d.ID = b.idCounter
	b.detections = append(b.detections, *d)
	return nil
}

// RecordControlEvent records an external control input
func (b *Backend) RecordControlEvent(ev *core.ControlEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	ev.ID = b.idCounter
	b.controls = append(b.controls, *ev)
	return nil
}

// GetExportedFilePath returns the path of the last exported file, or ""
// if nothing has been exported yet
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata returns the metadata that accompanies an upload of the
// exported file. Duration is derived from the highest recorded tick and the
// run's tick rate.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	meta := core.UploadMetadata{}
	if b.run == nil {
		return meta
	}

	meta.RunName = b.run.Name
	meta.Tag = b.run.Tag
	if b.arena != nil {
		meta.ArenaName = b.arena.Name
	}

	var endTick uint64
	for _, s := range b.ticks {
		if s.Tick > endTick {
			endTick = s.Tick
		}
	}
	if b.run.TickRateHz > 0 {
		meta.RunDuration = float64(endTick) / b.run.TickRateHz
	}
	return meta
}
