// Package handlers translates asynchronous control inputs - the start
// button, OS signals, remote commands - into mission machine actions and
// control-event records.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/microrover/missionctl/internal/dispatcher"
	"github.com/microrover/missionctl/internal/logging"
	"github.com/microrover/missionctl/internal/mission"
	"github.com/microrover/missionctl/internal/worker"
	"github.com/microrover/missionctl/pkg/core"
)

// Dependencies holds all dependencies needed by the control service
type Dependencies struct {
	Machine    *mission.Machine
	Dispatch   *dispatcher.Dispatcher
	LogManager *logging.SlogManager
}

// Service provides handler methods for external control inputs
type Service struct {
	deps Dependencies
	log  *slog.Logger
}

// NewService creates a new control service
func NewService(deps Dependencies) *Service {
	log := slog.Default()
	if deps.LogManager != nil {
		log = deps.LogManager.Logger()
	}
	return &Service{deps: deps, log: log}
}

// HandleButton handles one start-button press. The press only has effect
// while the machine is waiting; the event is recorded either way so aborted
// starts show up in the run data.
func (s *Service) HandleButton() {
	s.deps.Machine.Start()
	s.record("button", "start", mission.ApproachObstacle.String())
}

// WatchButtons consumes start-button presses until ctx is cancelled.
// Runs in its own goroutine.
func (s *Service) WatchButtons(ctx context.Context, presses <-chan struct{}) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-presses:
				if !ok {
					return
				}
				s.log.Info("Start button pressed")
				s.HandleButton()
			}
		}
	}()
}

// HandleSignal maps an OS signal to a machine action. SIGUSR1 acts as a
// remote start button, SIGUSR2 resets the machine to waiting.
func (s *Service) HandleSignal(sig os.Signal) {
	switch sig {
	case syscall.SIGUSR1:
		s.log.Info("Received start signal", "signal", sig.String())
		s.deps.Machine.Start()
		s.record("signal", sig.String(), mission.ApproachObstacle.String())
	case syscall.SIGUSR2:
		s.log.Info("Received reset signal", "signal", sig.String())
		s.deps.Machine.RequestPhase(mission.WaitForStart)
		s.record("signal", sig.String(), mission.WaitForStart.String())
	default:
		s.log.Debug("Ignoring signal", "signal", sig.String())
	}
}

// WatchSignals consumes control signals until ctx is cancelled.
// Runs in its own goroutine.
func (s *Service) WatchSignals(ctx context.Context, sigs <-chan os.Signal) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-sigs:
				if !ok {
					return
				}
				s.HandleSignal(sig)
			}
		}
	}()
}

// HandleCommand executes a remote control command. "start" behaves like the
// start button, "reset" returns the machine to waiting, and a phase name
// forces the machine into that phase.
func (s *Service) HandleCommand(source, cmd string) error {
	switch cmd {
	case "start":
		s.deps.Machine.Start()
		s.record(source, cmd, mission.ApproachObstacle.String())
		return nil
	case "reset":
		s.deps.Machine.RequestPhase(mission.WaitForStart)
		s.record(source, cmd, mission.WaitForStart.String())
		return nil
	}

	p, err := mission.ParsePhase(cmd)
	if err != nil {
		return fmt.Errorf("unknown control command %q: %w", cmd, err)
	}
	s.deps.Machine.RequestPhase(p)
	s.record(source, cmd, p.String())
	return nil
}

// record dispatches a control event for storage.
func (s *Service) record(source, name, requestedPhase string) {
	if s.deps.Dispatch == nil {
		return
	}
	_, err := s.deps.Dispatch.Dispatch(dispatcher.Event{
		Command: worker.CmdControlEvent,
		Payload: core.ControlEvent{
			Time:           time.Now(),
			Source:         source,
			Name:           name,
			RequestedPhase: requestedPhase,
		},
		Timestamp: time.Now(),
	})
	if err != nil {
		s.log.Warn("dropping control event", "source", source, "name", name, "error", err)
	}
}
