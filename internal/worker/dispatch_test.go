package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/microrover/missionctl/internal/cache"
	"github.com/microrover/missionctl/internal/dispatcher"
	"github.com/microrover/missionctl/pkg/core"
)

// mockLogger implements dispatcher.Logger for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *mockLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *mockLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// mockBackend implements storage.Backend for testing
type mockBackend struct {
	mu sync.Mutex

	ticks      []*core.TickSample
	phases     []*core.PhaseChange
	detections []*core.ScanDetection
	controls   []*core.ControlEvent

	startedRun  *core.Run
	runEnded    bool
	initCalled  bool
	closeCalled bool
	startErr    error
}

func (b *mockBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initCalled = true
	return nil
}

func (b *mockBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeCalled = true
	return nil
}

func (b *mockBackend) StartRun(run *core.Run, arena *core.Arena) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.startErr != nil {
		return b.startErr
	}
	run.ID = 7
	b.startedRun = run
	return nil
}

func (b *mockBackend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runEnded = true
	return nil
}

func (b *mockBackend) RecordTick(s *core.TickSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks = append(b.ticks, s)
	return nil
}

func (b *mockBackend) RecordPhaseChange(pc *core.PhaseChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.phases = append(b.phases, pc)
	return nil
}

func (b *mockBackend) RecordScanDetection(d *core.ScanDetection) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detections = append(b.detections, d)
	return nil
}

func (b *mockBackend) RecordControlEvent(ev *core.ControlEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.controls = append(b.controls, ev)
	return nil
}

func (b *mockBackend) tickCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ticks)
}

func newTestManager(t *testing.T) (*Manager, *mockBackend, *dispatcher.Dispatcher) {
	t.Helper()

	backend := &mockBackend{}
	m := NewManager(Dependencies{State: cache.NewStateCache()}, backend)

	d, err := dispatcher.New(&mockLogger{})
	if err != nil {
		t.Fatalf("dispatcher.New: %v", err)
	}
	m.RegisterHandlers(d)
	return m, backend, d
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRegisterHandlersCoversAllCommands(t *testing.T) {
	_, _, d := newTestManager(t)

	for _, cmd := range []string{
		CmdRunStart, CmdRunEnd, CmdTickSample,
		CmdPhaseChange, CmdScanDetect, CmdControlEvent,
	} {
		if !d.HasHandler(cmd) {
			t.Errorf("no handler registered for %s", cmd)
		}
	}
}

func TestHandleRunStart(t *testing.T) {
	_, backend, d := newTestManager(t)

	run := &core.Run{Name: "trial 1"}
	arena := &core.Arena{Name: "gym"}

	result, err := d.Dispatch(dispatcher.Event{
		Command: CmdRunStart,
		Payload: RunStart{Run: run, Arena: arena},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// Sync handler: backend-assigned ID is visible immediately.
	if run.ID != 7 {
		t.Errorf("expected backend-assigned ID 7, got %d", run.ID)
	}
	if result != uint(7) {
		t.Errorf("expected result 7, got %v", result)
	}
	if backend.startedRun == nil {
		t.Fatal("backend never saw the run")
	}
}

func TestHandleRunStartRequiresArena(t *testing.T) {
	_, _, d := newTestManager(t)

	_, err := d.Dispatch(dispatcher.Event{
		Command: CmdRunStart,
		Payload: RunStart{Run: &core.Run{Name: "r"}},
	})
	if err == nil {
		t.Fatal("expected error for missing arena")
	}
}

func TestHandleRunStartBackendError(t *testing.T) {
	_, backend, d := newTestManager(t)
	backend.startErr = errors.New("db down")

	_, err := d.Dispatch(dispatcher.Event{
		Command: CmdRunStart,
		Payload: RunStart{Run: &core.Run{}, Arena: &core.Arena{}},
	})
	if err == nil {
		t.Fatal("expected backend error to propagate")
	}
}

func TestHandleRunEnd(t *testing.T) {
	_, backend, d := newTestManager(t)

	if _, err := d.Dispatch(dispatcher.Event{Command: CmdRunEnd}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	backend.mu.Lock()
	ended := backend.runEnded
	backend.mu.Unlock()
	if !ended {
		t.Error("backend never saw run end")
	}
}

func TestHandleTickSampleBuffered(t *testing.T) {
	_, backend, d := newTestManager(t)

	for i := 0; i < 5; i++ {
		_, err := d.Dispatch(dispatcher.Event{
			Command: CmdTickSample,
			Payload: core.TickSample{Tick: uint64(i), Phase: "WaitForStart"},
		})
		if err != nil {
			t.Fatalf("dispatch tick %d: %v", i, err)
		}
	}

	waitFor(t, func() bool { return backend.tickCount() == 5 })
}

func TestHandlePhaseChange(t *testing.T) {
	_, backend, d := newTestManager(t)

	_, err := d.Dispatch(dispatcher.Event{
		Command: CmdPhaseChange,
		Payload: core.PhaseChange{Tick: 10, From: "WaitForStart", To: "ApproachObstacle"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	waitFor(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.phases) == 1
	})
}

func TestHandleScanDetectionAndControlEvent(t *testing.T) {
	_, backend, d := newTestManager(t)

	if _, err := d.Dispatch(dispatcher.Event{
		Command: CmdScanDetect,
		Payload: core.ScanDetection{Tick: 40, MeasuredMM: 280, ExpectedMM: 900},
	}); err != nil {
		t.Fatalf("dispatch detection: %v", err)
	}

	if _, err := d.Dispatch(dispatcher.Event{
		Command: CmdControlEvent,
		Payload: core.ControlEvent{Source: "signal", Name: "SIGUSR1"},
	}); err != nil {
		t.Fatalf("dispatch control: %v", err)
	}

	waitFor(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.detections) == 1 && len(backend.controls) == 1
	})
}

func TestHandleTickSampleWrongPayload(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.handleTickSample(dispatcher.Event{
		Command: CmdTickSample,
		Payload: "not a tick",
	})
	if !errors.Is(err, ErrUnexpectedPayload) {
		t.Errorf("expected ErrUnexpectedPayload, got %v", err)
	}
}

func TestRecorderPublishesThroughDispatcher(t *testing.T) {
	_, backend, d := newTestManager(t)

	r := NewRecorder(d, nil)
	r.TickSampled(core.TickSample{Tick: 1})
	r.PhaseChanged(core.PhaseChange{Tick: 1, From: "ClimbUp", To: "ClimbOver"})
	r.TargetDetected(core.ScanDetection{Tick: 2, MeasuredMM: 200})

	waitFor(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.ticks) == 1 && len(backend.phases) == 1 && len(backend.detections) == 1
	})
}

func TestGetLastDBWriteDurationUnsupported(t *testing.T) {
	m, _, _ := newTestManager(t)

	if got := m.GetLastDBWriteDuration(); got != 0 {
		t.Errorf("expected 0 for backend without write metrics, got %v", got)
	}
	if depths := m.QueueDepths(); depths != nil {
		t.Errorf("expected nil queue depths, got %v", depths)
	}
}
