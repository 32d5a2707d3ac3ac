package worker

import (
	"fmt"
	"time"

	"github.com/microrover/missionctl/internal/cache"
	"github.com/microrover/missionctl/internal/logging"
	"github.com/microrover/missionctl/internal/storage"
)

// ErrUnexpectedPayload is returned when an event carries a payload of the
// wrong type for its command.
var ErrUnexpectedPayload = fmt.Errorf("unexpected event payload type")

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	LogManager *logging.SlogManager
	State      *cache.StateCache
}

// Manager routes dispatched telemetry into the storage backend
type Manager struct {
	deps    Dependencies
	backend storage.Backend
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// Backend returns the storage backend the manager writes to.
func (m *Manager) Backend() storage.Backend {
	return m.backend
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(storage.WriteDurationReporter); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// QueueDepths returns the backend's pending write queue depths, or nil if
// the backend doesn't buffer writes.
func (m *Manager) QueueDepths() map[string]int {
	if p, ok := m.backend.(storage.QueueDepthReporter); ok {
		return p.QueueDepths()
	}
	return nil
}
