package v1

import (
	"time"

	"github.com/microrover/missionctl/pkg/core"
)

// Builder accumulates recorded data and produces a v1 Export.
// It is not safe for concurrent use; callers serialize access.
type Builder struct {
	run   core.Run
	arena core.Arena

	ticks      [][]any
	phases     [][]any
	detections [][]any
	controls   [][]any

	endTick uint64
}

func NewBuilder(run core.Run, arena core.Arena) *Builder {
	return &Builder{
		run:        run,
		arena:      arena,
		ticks:      make([][]any, 0, 16384),
		phases:     make([][]any, 0, 32),
		detections: make([][]any, 0, 128),
		controls:   make([][]any, 0, 32),
	}
}

// AddTick appends one sample as a compact row:
// [tick, phase, yaw, pitch, roll, rangeMM, rangeValid, direction, speedPct, [front, left, right], [x, y]]
func (b *Builder) AddTick(s core.TickSample) {
	rangeValid := 0
	if s.RangeValid {
		rangeValid = 1
	}
	b.ticks = append(b.ticks, []any{
		s.Tick,
		s.Phase,
		s.Yaw,
		s.Pitch,
		s.Roll,
		s.RangeMM,
		rangeValid,
		s.Direction,
		s.SpeedPct,
		[]any{s.Wheels.Front, s.Wheels.Left, s.Wheels.Right},
		[]any{s.Position.X, s.Position.Y},
	})
	if s.Tick > b.endTick {
		b.endTick = s.Tick
	}
}

// AddPhaseChange appends one transition row:
// [tick, fromPhase, toPhase, reason, forced]
func (b *Builder) AddPhaseChange(pc core.PhaseChange) {
	forced := 0
	if pc.Forced {
		forced = 1
	}
	b.phases = append(b.phases, []any{pc.Tick, pc.From, pc.To, pc.Reason, forced})
}

// AddScanDetection appends one detection row:
// [tick, headingRad, measuredMM, expectedMM]
func (b *Builder) AddScanDetection(d core.ScanDetection) {
	b.detections = append(b.detections, []any{d.Tick, float64(d.Heading), d.MeasuredMM, d.ExpectedMM})
}

// AddControlEvent appends one control row:
// [time, source, name, requestedPhase]
func (b *Builder) AddControlEvent(ev core.ControlEvent) {
	b.controls = append(b.controls, []any{ev.Time.Format(time.RFC3339Nano), ev.Source, ev.Name, ev.RequestedPhase})
}

func (b *Builder) Build() Export {
	return Export{
		DaemonVersion:   b.run.DaemonVersion,
		FirmwareVersion: b.run.FirmwareVersion,
		RunName:         b.run.Name,
		RobotName:       b.run.RobotName,
		ArenaName:       b.arena.Name,
		StartTime:       b.run.StartTime.Format(time.RFC3339),
		TickRateHz:      b.run.TickRateHz,
		EndTick:         b.endTick,
		Tag:             b.run.Tag,
		Arena: Arena{
			Name:           b.arena.Name,
			WidthMM:        b.arena.WidthMM,
			LengthMM:       b.arena.LengthMM,
			RampLengthMM:   b.arena.RampLengthMM,
			RampWidthMM:    b.arena.RampWidthMM,
			SensorOffsetMM: b.arena.SensorOffsetMM,
			Latitude:       b.arena.OriginLatitude,
			Longitude:      b.arena.OriginLongitude,
		},
		Ticks:      b.ticks,
		Phases:     b.phases,
		Detections: b.detections,
		Controls:   b.controls,
	}
}
