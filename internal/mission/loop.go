package mission

import (
	"context"
	"log/slog"
	"time"

	"github.com/microrover/missionctl/internal/cache"
	"github.com/microrover/missionctl/internal/drive"
	"github.com/microrover/missionctl/pkg/core"
)

// SnapshotSource hands the loop one coherent sensor snapshot per tick.
// Ready is false while the source has not yet seen an attitude reading.
type SnapshotSource interface {
	Snapshot(tick uint64, now time.Time) (core.Snapshot, bool)
}

// TickSink receives the per-tick telemetry sample. Called from the control
// loop; must not block.
type TickSink interface {
	TickSampled(core.TickSample)
}

// PositionEstimator integrates wheel commands into a dead-reckoned course
// position for telemetry. Purely advisory, the mission logic never reads it.
type PositionEstimator interface {
	Update(heading core.Radians, cmd core.WheelCommand, dt time.Duration) core.Position2D
}

// Loop is the single cooperative control loop: one sensor read, one machine
// tick, zero or one drive command per iteration. Nothing else in the process
// issues drive commands.
type Loop struct {
	machine  *Machine
	source   SnapshotSource
	drv      *drive.Controller
	state    *cache.StateCache
	sink     TickSink
	position PositionEstimator
	log      *slog.Logger
	interval time.Duration

	tick uint64
}

// NewLoop wires the control loop. sink and position may be nil.
func NewLoop(machine *Machine, source SnapshotSource, drv *drive.Controller,
	state *cache.StateCache, sink TickSink, position PositionEstimator,
	tickRateHz float64, log *slog.Logger) *Loop {
	if tickRateHz <= 0 {
		tickRateHz = 50
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		machine:  machine,
		source:   source,
		drv:      drv,
		state:    state,
		sink:     sink,
		position: position,
		log:      log,
		interval: time.Duration(float64(time.Second) / tickRateHz),
	}
}

// Interval returns the configured tick period.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Run ticks the mission machine until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			l.Step(now)
		}
	}
}

// Step advances exactly one tick. Exposed so replay mode can drive the loop
// at its own pace.
func (l *Loop) Step(now time.Time) {
	tick := l.tick
	l.tick++

	snap, ready := l.source.Snapshot(tick, now)
	if !ready {
		// No attitude data yet, nothing to evaluate this tick.
		return
	}

	if err := l.machine.Tick(snap); err != nil {
		l.log.Warn("Drive command failed, skipping actuation this tick",
			"tick", tick, "phase", l.machine.Phase().String(), "error", err)
	}

	cmd := l.drv.LastCommand()
	if l.state != nil {
		l.state.SetSnapshot(snap)
		l.state.SetCommand(cmd)
	}

	var pos core.Position2D
	if l.position != nil {
		pos = l.position.Update(snap.Orientation.Yaw, cmd, l.interval)
	}

	if l.sink != nil {
		dir, speed := l.drv.LastDirection()
		l.sink.TickSampled(core.TickSample{
			Tick:       tick,
			Time:       now,
			Phase:      l.machine.Phase().String(),
			Yaw:        snap.Orientation.Yaw,
			Pitch:      snap.Orientation.Pitch,
			Roll:       snap.Orientation.Roll,
			RangeMM:    snap.RangeMM,
			RangeValid: snap.RangeValid,
			Direction:  dir.Kind.String(),
			SpeedPct:   speed,
			Wheels:     cmd,
			Position:   pos,
		})
	}
}
