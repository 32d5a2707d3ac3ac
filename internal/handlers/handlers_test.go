package handlers

import (
	"io"
	"log/slog"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microrover/missionctl/internal/dispatcher"
	"github.com/microrover/missionctl/internal/drive"
	"github.com/microrover/missionctl/internal/geometry"
	"github.com/microrover/missionctl/internal/mission"
	"github.com/microrover/missionctl/internal/worker"
	"github.com/microrover/missionctl/pkg/core"
)

type fakeDriver struct{}

func (fakeDriver) SetWheelDuty(w drive.Wheel, pct int) error { return nil }

type discardLogger struct{}

func (discardLogger) Debug(msg string, keysAndValues ...any) {}
func (discardLogger) Info(msg string, keysAndValues ...any)  {}
func (discardLogger) Error(msg string, keysAndValues ...any) {}

func testMachine(t *testing.T) *mission.Machine {
	t.Helper()
	arena, err := geometry.NewArena(geometry.Config{
		CourseWidthMM:  1200,
		CourseLengthMM: 2400,
		RampLengthMM:   400,
		RampWidthMM:    600,
		SensorOffsetMM: 95,
	})
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := drive.NewController(fakeDriver{}, drive.NewBangBang(drive.DefaultBangBangConfig()), log)
	return mission.NewMachine(ctrl, arena, mission.DefaultConfig(), mission.NopSink{}, log)
}

// newTestService wires a Service to a dispatcher that captures control events.
func newTestService(t *testing.T) (*Service, *[]core.ControlEvent) {
	t.Helper()

	d, err := dispatcher.New(discardLogger{})
	require.NoError(t, err)

	// Sync handler so captured events are visible immediately.
	var events []core.ControlEvent
	d.Register(worker.CmdControlEvent, func(e dispatcher.Event) (any, error) {
		ev := e.Payload.(core.ControlEvent)
		events = append(events, ev)
		return nil, nil
	})

	s := NewService(Dependencies{
		Machine:  testMachine(t),
		Dispatch: d,
	})
	return s, &events
}

func TestHandleButtonStartsWaitingMachine(t *testing.T) {
	s, events := newTestService(t)

	s.HandleButton()
	s.deps.Machine.Tick(core.Snapshot{})

	assert.Equal(t, mission.ApproachObstacle, s.deps.Machine.Phase())
	require.Len(t, *events, 1)
	assert.Equal(t, "button", (*events)[0].Source)
	assert.Equal(t, "start", (*events)[0].Name)
	assert.Equal(t, "ApproachObstacle", (*events)[0].RequestedPhase)
}

func TestHandleButtonIgnoredMidCourse(t *testing.T) {
	s, events := newTestService(t)

	s.deps.Machine.RequestPhase(mission.ClimbUp)
	s.deps.Machine.Tick(core.Snapshot{})
	require.Equal(t, mission.ClimbUp, s.deps.Machine.Phase())

	s.HandleButton()
	s.deps.Machine.Tick(core.Snapshot{})

	// Machine stays put, but the press is still recorded.
	assert.Equal(t, mission.ClimbUp, s.deps.Machine.Phase())
	assert.Len(t, *events, 2) // forced jump above is not recorded; button is
}

func TestHandleSignalStartAndReset(t *testing.T) {
	s, events := newTestService(t)

	s.HandleSignal(syscall.SIGUSR1)
	s.deps.Machine.Tick(core.Snapshot{})
	assert.Equal(t, mission.ApproachObstacle, s.deps.Machine.Phase())

	s.HandleSignal(syscall.SIGUSR2)
	s.deps.Machine.Tick(core.Snapshot{})
	assert.Equal(t, mission.WaitForStart, s.deps.Machine.Phase())

	require.Len(t, *events, 2)
	assert.Equal(t, "signal", (*events)[0].Source)
	assert.Equal(t, "WaitForStart", (*events)[1].RequestedPhase)
}

func TestHandleSignalIgnoresOthers(t *testing.T) {
	s, events := newTestService(t)

	s.HandleSignal(syscall.SIGHUP)

	assert.Len(t, *events, 0)
	assert.Equal(t, mission.WaitForStart, s.deps.Machine.Phase())
}

func TestHandleCommandPhaseJump(t *testing.T) {
	s, events := newTestService(t)

	require.NoError(t, s.HandleCommand("remote", "ScanForTarget"))
	s.deps.Machine.Tick(core.Snapshot{})

	assert.Equal(t, mission.ScanForTarget, s.deps.Machine.Phase())
	require.Len(t, *events, 1)
	assert.Equal(t, "remote", (*events)[0].Source)
	assert.Equal(t, "ScanForTarget", (*events)[0].RequestedPhase)
}

func TestHandleCommandStartReset(t *testing.T) {
	s, _ := newTestService(t)

	require.NoError(t, s.HandleCommand("remote", "start"))
	s.deps.Machine.Tick(core.Snapshot{})
	assert.Equal(t, mission.ApproachObstacle, s.deps.Machine.Phase())

	require.NoError(t, s.HandleCommand("remote", "reset"))
	s.deps.Machine.Tick(core.Snapshot{})
	assert.Equal(t, mission.WaitForStart, s.deps.Machine.Phase())
}

func TestHandleCommandUnknown(t *testing.T) {
	s, events := newTestService(t)

	err := s.HandleCommand("remote", "barrel-roll")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown control command")
	assert.Len(t, *events, 0)
}
