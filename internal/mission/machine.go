// Package mission owns the scripted course sequencer: a finite state machine
// that reads one sensor snapshot per control tick, drives the wheels through
// the drive controller, and advances through the course phases on
// sensor-gated, debounce-filtered transitions.
package mission

import (
	"log/slog"
	"sync"

	"github.com/microrover/missionctl/internal/debounce"
	"github.com/microrover/missionctl/internal/drive"
	"github.com/microrover/missionctl/internal/geometry"
	"github.com/microrover/missionctl/pkg/core"
)

// Config holds every course threshold and speed. Angles are degrees here
// because that is how they are measured and tuned; they are converted to
// radians once at machine construction.
type Config struct {
	// Pitch thresholds along the climb, in the order they are crossed.
	ClimbStartPitchDeg float64 `json:"climbStartPitchDeg" mapstructure:"climbStartPitchDeg"`
	CrestPitchDeg      float64 `json:"crestPitchDeg" mapstructure:"crestPitchDeg"`
	DescendPitchDeg    float64 `json:"descendPitchDeg" mapstructure:"descendPitchDeg"`
	LevelPitchDeg      float64 `json:"levelPitchDeg" mapstructure:"levelPitchDeg"`

	// Debounce windows, in control ticks, for the climb transitions.
	CrestDebounceTicks   uint64 `json:"crestDebounceTicks" mapstructure:"crestDebounceTicks"`
	DescendDebounceTicks uint64 `json:"descendDebounceTicks" mapstructure:"descendDebounceTicks"`
	LevelDebounceTicks   uint64 `json:"levelDebounceTicks" mapstructure:"levelDebounceTicks"`

	// Per-phase drive speeds, percent.
	ApproachSpeedPct int `json:"approachSpeedPct" mapstructure:"approachSpeedPct"`
	ClimbSpeedPct    int `json:"climbSpeedPct" mapstructure:"climbSpeedPct"`
	CrossSpeedPct    int `json:"crossSpeedPct" mapstructure:"crossSpeedPct"`
	DescendSpeedPct  int `json:"descendSpeedPct" mapstructure:"descendSpeedPct"`
	ScanSpeedPct     int `json:"scanSpeedPct" mapstructure:"scanSpeedPct"`
	TargetSpeedPct   int `json:"targetSpeedPct" mapstructure:"targetSpeedPct"`

	// Target scan parameters.
	ScanLimitDeg      float64 `json:"scanLimitDeg" mapstructure:"scanLimitDeg"`
	DetectionBufferMM float64 `json:"detectionBufferMM" mapstructure:"detectionBufferMM"`

	// Target approach stop guards. RollGuard enables the combined
	// pitch-and-roll contact heuristic; with it off only pitch deviation is
	// monitored. Each deviation guard debounces independently.
	ContactRangeMM       int     `json:"contactRangeMM" mapstructure:"contactRangeMM"`
	ContactPitchDeg      float64 `json:"contactPitchDeg" mapstructure:"contactPitchDeg"`
	ContactRollDeg       float64 `json:"contactRollDeg" mapstructure:"contactRollDeg"`
	ContactDebounceTicks uint64  `json:"contactDebounceTicks" mapstructure:"contactDebounceTicks"`
	RollGuard            bool    `json:"rollGuard" mapstructure:"rollGuard"`
}

// DefaultConfig returns the thresholds tuned on the reference course.
func DefaultConfig() Config {
	return Config{
		ClimbStartPitchDeg: 12,
		CrestPitchDeg:      5,
		DescendPitchDeg:    -8,
		LevelPitchDeg:      -3,

		CrestDebounceTicks:   10,
		DescendDebounceTicks: 10,
		LevelDebounceTicks:   10,

		ApproachSpeedPct: 100,
		ClimbSpeedPct:    100,
		CrossSpeedPct:    60,
		DescendSpeedPct:  50,
		ScanSpeedPct:     40,
		TargetSpeedPct:   70,

		ScanLimitDeg:      75,
		DetectionBufferMM: 250,

		ContactRangeMM:       120,
		ContactPitchDeg:      4,
		ContactRollDeg:       4,
		ContactDebounceTicks: 8,
		RollGuard:            true,
	}
}

// Sink receives mission events as they happen. Implementations are called
// from the control loop and must not block.
type Sink interface {
	PhaseChanged(core.PhaseChange)
	TargetDetected(core.ScanDetection)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) PhaseChanged(core.PhaseChange) {}

func (NopSink) TargetDetected(core.ScanDetection) {}

// climbStage parameterizes one of the three climb phases: drive forward at a
// fixed speed until the pitch guard holds for the debounce window.
type climbStage struct {
	next      Phase
	speed     int
	threshold core.Radians
	below     bool // guard is pitch <= threshold; otherwise pitch >= threshold
	window    uint64
	reason    string
}

type targetRef struct {
	heading core.Radians
	pitch   core.Radians
	roll    core.Radians
	set     bool
}

// phaseRequest is a pending externally-requested phase, applied at the next
// tick boundary.
type phaseRequest struct {
	phase  Phase
	reason string
	forced bool
}

// Machine is the mission sequencer. The mutex guards only the phase value
// and the pending forced-phase request, which an asynchronous handler may
// write between ticks; every other field is owned by the control loop.
type Machine struct {
	mu        sync.Mutex
	phase     Phase
	requested *phaseRequest

	drv   *drive.Controller
	arena *geometry.Arena
	cfg   Config
	log   *slog.Logger
	sink  Sink

	climb map[Phase]climbStage

	// Thresholds converted once.
	climbStartPitch core.Radians
	contactPitch    core.Radians
	contactRoll     core.Radians
	scanLimit       core.Radians

	// Control-loop-owned scratch, reset on phase transitions.
	heading     core.Radians
	haveHeading bool
	climbTimer  debounce.Timer
	scanRef     core.Radians
	scanHave    bool
	scanDir     int
	target      targetRef
	pitchTimer  debounce.Timer
	rollTimer   debounce.Timer
}

// NewMachine builds the sequencer in WaitForStart.
func NewMachine(drv *drive.Controller, arena *geometry.Arena, cfg Config, sink Sink, log *slog.Logger) *Machine {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = slog.Default()
	}

	m := &Machine{
		phase: WaitForStart,
		drv:   drv,
		arena: arena,
		cfg:   cfg,
		log:   log,
		sink:  sink,

		climbStartPitch: core.Degrees(cfg.ClimbStartPitchDeg).Radians(),
		contactPitch:    core.Degrees(cfg.ContactPitchDeg).Radians(),
		contactRoll:     core.Degrees(cfg.ContactRollDeg).Radians(),
		scanLimit:       core.Degrees(cfg.ScanLimitDeg).Radians(),
	}

	m.climb = map[Phase]climbStage{
		ClimbUp: {
			next:      ClimbOver,
			speed:     cfg.ClimbSpeedPct,
			threshold: core.Degrees(cfg.CrestPitchDeg).Radians(),
			below:     true,
			window:    cfg.CrestDebounceTicks,
			reason:    "pitch leveled at crest",
		},
		ClimbOver: {
			next:      ClimbDown,
			speed:     cfg.CrossSpeedPct,
			threshold: core.Degrees(cfg.DescendPitchDeg).Radians(),
			below:     true,
			window:    cfg.DescendDebounceTicks,
			reason:    "pitch dropped into descent",
		},
		ClimbDown: {
			next:      ScanForTarget,
			speed:     cfg.DescendSpeedPct,
			threshold: core.Degrees(cfg.LevelPitchDeg).Radians(),
			below:     false,
			window:    cfg.LevelDebounceTicks,
			reason:    "pitch returned to level",
		},
	}

	return m
}

// Phase returns the currently active phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Start signals the external start condition. It only has effect while the
// machine is waiting; a press mid-course is ignored.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == WaitForStart && m.requested == nil {
		m.requested = &phaseRequest{phase: ApproachObstacle, reason: "start signal"}
	}
}

// RequestPhase forces the machine into a phase at the next tick boundary.
// Safe to call from any goroutine; the machine tolerates being forced into
// any phase from any phase.
func (m *Machine) RequestPhase(p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = &phaseRequest{phase: p, reason: "external request", forced: true}
}

// Tick advances exactly one tick's worth of mission logic: at most one drive
// command, then the current phase's transition guards. It never blocks. A
// failed drive call skips actuation and guard evaluation for this tick; the
// machine never changes phase on a tick whose drive call failed.
func (m *Machine) Tick(snap core.Snapshot) error {
	phase := m.applyRequested(snap)

	switch phase {
	case WaitForStart:
		return m.drv.Stop()
	case ApproachObstacle:
		return m.tickApproachObstacle(snap)
	case ClimbUp, ClimbOver, ClimbDown:
		return m.tickClimb(phase, snap)
	case ScanForTarget:
		return m.tickScan(snap)
	case ApproachTarget:
		return m.tickApproachTarget(snap)
	}
	return nil
}

// applyRequested consumes a pending forced phase at the tick boundary.
func (m *Machine) applyRequested(snap core.Snapshot) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.requested != nil {
		req := *m.requested
		m.requested = nil
		if req.phase != m.phase {
			m.transitionLocked(req.phase, snap, req.reason, req.forced)
		}
	}
	return m.phase
}

func (m *Machine) transition(to Phase, snap core.Snapshot, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionLocked(to, snap, reason, false)
}

func (m *Machine) transitionLocked(to Phase, snap core.Snapshot, reason string, forced bool) {
	from := m.phase
	m.phase = to

	// Per-phase scratch does not survive a transition; ApproachObstacle
	// recaptures its hold heading on every entry. The captured target
	// reference does survive: ScanForTarget hands it to ApproachTarget.
	m.climbTimer.Cancel()
	m.pitchTimer.Cancel()
	m.rollTimer.Cancel()
	m.scanHave = false
	m.haveHeading = false
	if to == WaitForStart {
		m.target = targetRef{}
	}

	m.log.Info("Mission phase transition",
		"from", from.String(),
		"to", to.String(),
		"reason", reason,
		"forced", forced,
		"tick", snap.Tick)

	m.sink.PhaseChanged(core.PhaseChange{
		Tick:   snap.Tick,
		Time:   snap.Time,
		From:   from.String(),
		To:     to.String(),
		Reason: reason,
		Forced: forced,
	})
}

// tickApproachObstacle drives straight against the heading captured on phase
// entry until the pitch crossing signals the climb has started. The crossing
// is unambiguous, so no debounce.
func (m *Machine) tickApproachObstacle(snap core.Snapshot) error {
	if !m.haveHeading {
		m.heading = snap.Orientation.Yaw
		m.haveHeading = true
	}

	if err := m.drv.DriveStraight(snap.Orientation.Yaw, m.heading, drive.Forward, m.cfg.ApproachSpeedPct); err != nil {
		return err
	}

	if snap.Orientation.Pitch >= m.climbStartPitch {
		m.transition(ClimbUp, snap, "pitch crossed climb threshold")
	}
	return nil
}

// tickClimb runs one of the three table-driven climb stages. Pitch readings
// bounce during mechanical climbing, so every stage's guard must hold for
// its debounce window before the stage advances.
func (m *Machine) tickClimb(phase Phase, snap core.Snapshot) error {
	stage := m.climb[phase]

	if err := m.drv.Drive(drive.Forward, stage.speed); err != nil {
		return err
	}

	hold := snap.Orientation.Pitch <= stage.threshold
	if !stage.below {
		hold = snap.Orientation.Pitch >= stage.threshold
	}

	if !hold {
		m.climbTimer.Cancel()
		return nil
	}
	if m.climbTimer.Confirm(snap.Tick, stage.window) {
		m.transition(stage.next, snap, stage.reason)
	}
	return nil
}

// tickScan pivots through a bounded sweep, reversing at the angular limits,
// and compares each live range reading against the arena model. A reading
// materially below expectation is the target: capture the heading and
// attitude as zero-reference and start the approach.
func (m *Machine) tickScan(snap core.Snapshot) error {
	if !m.scanHave {
		m.scanRef = snap.Orientation.Yaw
		m.scanHave = true
		m.scanDir = 1
	}

	rel := (snap.Orientation.Yaw - m.scanRef).Normalize()
	if m.scanDir > 0 && rel >= m.scanLimit {
		m.scanDir = -1
	} else if m.scanDir < 0 && rel <= -m.scanLimit {
		m.scanDir = 1
	}

	dir := drive.Left
	if m.scanDir < 0 {
		dir = drive.Right
	}
	if err := m.drv.Drive(dir, m.cfg.ScanSpeedPct); err != nil {
		return err
	}

	if !snap.RangeValid {
		return nil
	}

	expected := m.arena.ExpectedRange(rel)
	if expected-float64(snap.RangeMM) <= m.cfg.DetectionBufferMM {
		return nil
	}

	m.target = targetRef{
		heading: snap.Orientation.Yaw,
		pitch:   snap.Orientation.Pitch,
		roll:    snap.Orientation.Roll,
		set:     true,
	}
	m.sink.TargetDetected(core.ScanDetection{
		Tick:       snap.Tick,
		Time:       snap.Time,
		Heading:    rel,
		MeasuredMM: snap.RangeMM,
		ExpectedMM: int(expected),
	})
	m.transition(ApproachTarget, snap, "range anomaly")
	return nil
}

// tickApproachTarget drives toward the captured heading until contact: range
// below the contact threshold stops immediately, attitude deviation from the
// zero-reference must persist through its debounce window and rolls back if
// the deviation disappears first.
func (m *Machine) tickApproachTarget(snap core.Snapshot) error {
	if !m.target.set {
		// Forced into this phase without a scan; reference the current pose.
		m.target = targetRef{
			heading: snap.Orientation.Yaw,
			pitch:   snap.Orientation.Pitch,
			roll:    snap.Orientation.Roll,
			set:     true,
		}
	}

	if err := m.drv.DriveStraight(snap.Orientation.Yaw, m.target.heading, drive.Forward, m.cfg.TargetSpeedPct); err != nil {
		return err
	}

	if snap.RangeValid && snap.RangeMM < m.cfg.ContactRangeMM {
		return m.finishRun(snap, "contact range reached")
	}

	if (snap.Orientation.Pitch - m.target.pitch).Normalize().Abs() >= m.contactPitch {
		if m.pitchTimer.Confirm(snap.Tick, m.cfg.ContactDebounceTicks) {
			return m.finishRun(snap, "sustained pitch deviation")
		}
	} else {
		m.pitchTimer.Cancel()
	}

	if m.cfg.RollGuard {
		if (snap.Orientation.Roll - m.target.roll).Normalize().Abs() >= m.contactRoll {
			if m.rollTimer.Confirm(snap.Tick, m.cfg.ContactDebounceTicks) {
				return m.finishRun(snap, "sustained roll deviation")
			}
		} else {
			m.rollTimer.Cancel()
		}
	}
	return nil
}

// finishRun stops the wheels and loops back to WaitForStart. If the stop
// fails the phase is unchanged and the stop is retried next tick.
func (m *Machine) finishRun(snap core.Snapshot, reason string) error {
	if err := m.drv.Stop(); err != nil {
		return err
	}
	m.transition(WaitForStart, snap, reason)
	return nil
}
