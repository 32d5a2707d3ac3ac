package worker

import (
	"fmt"

	"github.com/microrover/missionctl/internal/dispatcher"
	"github.com/microrover/missionctl/pkg/core"
)

// Dispatcher commands understood by the worker manager.
const (
	CmdRunStart     = ":RUN:START:"
	CmdRunEnd       = ":RUN:END:"
	CmdTickSample   = ":TICK:SAMPLE:"
	CmdPhaseChange  = ":PHASE:CHANGE:"
	CmdScanDetect   = ":SCAN:DETECT:"
	CmdControlEvent = ":CONTROL:EVENT:"
)

// RunStart is the payload for CmdRunStart.
type RunStart struct {
	Run   *core.Run
	Arena *core.Arena
}

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Run lifecycle - sync (storage must be ready before records arrive,
	// and the caller needs the backend-assigned run ID)
	d.Register(CmdRunStart, m.handleRunStart, dispatcher.Logged())
	d.Register(CmdRunEnd, m.handleRunEnd, dispatcher.Logged())

	// One sample per control tick at 50 Hz - buffered deep
	d.Register(CmdTickSample, m.handleTickSample, dispatcher.Buffered(10000), dispatcher.Logged())

	// Low-volume records - buffered
	d.Register(CmdPhaseChange, m.handlePhaseChange, dispatcher.Buffered(100), dispatcher.Logged())
	d.Register(CmdScanDetect, m.handleScanDetection, dispatcher.Buffered(500), dispatcher.Logged())
	d.Register(CmdControlEvent, m.handleControlEvent, dispatcher.Buffered(100), dispatcher.Logged())
}

func (m *Manager) handleRunStart(e dispatcher.Event) (any, error) {
	p, ok := e.Payload.(RunStart)
	if !ok {
		return nil, fmt.Errorf("%w: %s got %T", ErrUnexpectedPayload, e.Command, e.Payload)
	}
	if p.Run == nil || p.Arena == nil {
		return nil, fmt.Errorf("run start requires both run and arena")
	}

	if m.deps.State != nil {
		m.deps.State.Reset()
	}

	if err := m.backend.StartRun(p.Run, p.Arena); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return p.Run.ID, nil
}

func (m *Manager) handleRunEnd(e dispatcher.Event) (any, error) {
	if err := m.backend.EndRun(); err != nil {
		return nil, fmt.Errorf("failed to end run: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleTickSample(e dispatcher.Event) (any, error) {
	s, ok := e.Payload.(core.TickSample)
	if !ok {
		return nil, fmt.Errorf("%w: %s got %T", ErrUnexpectedPayload, e.Command, e.Payload)
	}

	if err := m.backend.RecordTick(&s); err != nil {
		return nil, fmt.Errorf("failed to record tick: %w", err)
	}
	return nil, nil
}

func (m *Manager) handlePhaseChange(e dispatcher.Event) (any, error) {
	pc, ok := e.Payload.(core.PhaseChange)
	if !ok {
		return nil, fmt.Errorf("%w: %s got %T", ErrUnexpectedPayload, e.Command, e.Payload)
	}

	if err := m.backend.RecordPhaseChange(&pc); err != nil {
		return nil, fmt.Errorf("failed to record phase change: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleScanDetection(e dispatcher.Event) (any, error) {
	d, ok := e.Payload.(core.ScanDetection)
	if !ok {
		return nil, fmt.Errorf("%w: %s got %T", ErrUnexpectedPayload, e.Command, e.Payload)
	}

	if err := m.backend.RecordScanDetection(&d); err != nil {
		return nil, fmt.Errorf("failed to record scan detection: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleControlEvent(e dispatcher.Event) (any, error) {
	ev, ok := e.Payload.(core.ControlEvent)
	if !ok {
		return nil, fmt.Errorf("%w: %s got %T", ErrUnexpectedPayload, e.Command, e.Payload)
	}

	if err := m.backend.RecordControlEvent(&ev); err != nil {
		return nil, fmt.Errorf("failed to record control event: %w", err)
	}
	return nil, nil
}
