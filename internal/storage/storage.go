// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/microrover/missionctl/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(run *core.Run, arena *core.Arena) error
	EndRun() error

	// Telemetry recording
	RecordTick(s *core.TickSample) error
	RecordPhaseChange(p *core.PhaseChange) error
	RecordScanDetection(d *core.ScanDetection) error
	RecordControlEvent(e *core.ControlEvent) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the fleet telemetry server.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}

// QueueDepthReporter is an optional interface for backends that batch writes
// through internal queues. The monitor uses it for the status report. Keys
// are record-type names, values are pending item counts.
type QueueDepthReporter interface {
	QueueDepths() map[string]int
}

// WriteDurationReporter is an optional interface for backends that can
// expose their last DB write duration for monitoring.
type WriteDurationReporter interface {
	GetLastDBWriteDuration() time.Duration
}
