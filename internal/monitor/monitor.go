package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/microrover/missionctl/internal/logging"
	"github.com/microrover/missionctl/internal/mission"
	"github.com/microrover/missionctl/internal/model"
	"github.com/microrover/missionctl/internal/worker"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	DB              *gorm.DB
	LogManager      *logging.SlogManager
	MissionContext  *mission.Context
	WorkerManager   *worker.Manager
	Phase           func() string
	StatusDir       string
	IsDatabaseValid func() bool
}

// Service writes a status file once a second and, when a database is
// available, a performance sample per interval.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current daemon status lines and the
// performance sample built from them.
func (s *Service) GetProgramStatus(writeQueues, lastWrite bool) (output []string, perfModel model.RunPerformance) {
	run := s.deps.MissionContext.GetRun()

	depths := s.deps.WorkerManager.QueueDepths()
	writeQueuesObj := model.WriteQueueLengths{
		Ticks:            uint16(depths["ticks"]),
		PhaseTransitions: uint16(depths["phaseTransitions"]),
		ScanDetections:   uint16(depths["scanDetections"]),
		ControlEvents:    uint16(depths["controlEvents"]),
	}

	perf := model.RunPerformance{
		Time:                time.Now(),
		RunID:               run.ID,
		WriteQueueLengths:   writeQueuesObj,
		LastWriteDurationMs: float32(s.deps.WorkerManager.GetLastDBWriteDuration().Milliseconds()),
	}

	if s.deps.Phase != nil {
		output = append(output, fmt.Sprintf(`{"phase": %q}`, s.deps.Phase()))
	}
	if writeQueues {
		writeQueuesStr, err := json.MarshalIndent(writeQueuesObj, "", "  ")
		if err != nil {
			writeQueuesStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		output = append(output, string(writeQueuesStr))
	}
	if lastWrite {
		lastWriteStr, err := json.MarshalIndent(perf.LastWriteDurationMs, "", "  ")
		if err != nil {
			lastWriteStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		output = append(output, string(lastWriteStr))
	}

	return output, perf
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer statusFile.Close()

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(1000 * time.Millisecond)

				run := s.deps.MissionContext.GetRun()
				if run.ID == 0 {
					continue
				}

				statusStr, perfModel := s.GetProgramStatus(true, true)

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					for _, line := range statusStr {
						statusFile.WriteString(line + "\n")
					}
				}

				if s.deps.IsDatabaseValid != nil && s.deps.IsDatabaseValid() {
					err = s.deps.DB.Create(&perfModel).Error
					if err != nil {
						logger.Error("Error writing perf sample", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
