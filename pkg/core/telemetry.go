// pkg/core/telemetry.go
package core

import "time"

// TickSample is the telemetry record produced once per control tick.
type TickSample struct {
	ID         uint
	Tick       uint64
	Time       time.Time
	Phase      string
	Yaw        Radians
	Pitch      Radians
	Roll       Radians
	RangeMM    int
	RangeValid bool
	Direction  string
	SpeedPct   int
	Wheels     WheelCommand
	Position   Position2D
}

// PhaseChange records a mission phase transition. Forced is true when the
// transition came from an external reset rather than a guard.
type PhaseChange struct {
	ID     uint
	Tick   uint64
	Time   time.Time
	From   string
	To     string
	Reason string
	Forced bool
}

// ScanDetection records a range anomaly found during the target scan: a live
// reading materially below what the geometric model predicts at that heading.
type ScanDetection struct {
	ID         uint
	Tick       uint64
	Time       time.Time
	Heading    Radians
	MeasuredMM int
	ExpectedMM int
}

// ControlEvent records an asynchronous external input (button press, OS
// signal, remote command) and the phase it requested.
type ControlEvent struct {
	ID             uint
	Time           time.Time
	Source         string
	Name           string
	RequestedPhase string
}
