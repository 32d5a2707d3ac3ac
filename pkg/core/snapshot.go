// pkg/core/snapshot.go
package core

import "time"

// Orientation is a single yaw/pitch/roll reading in radians.
type Orientation struct {
	Yaw   Radians `json:"yaw"`
	Pitch Radians `json:"pitch"`
	Roll  Radians `json:"roll"`
}

// Invert negates all three axes. Used when the IMU is mounted upside down;
// the correction belongs to the consumer of the sensor, not the sensor itself.
func (o Orientation) Invert() Orientation {
	return Orientation{Yaw: -o.Yaw, Pitch: -o.Pitch, Roll: -o.Roll}
}

// Snapshot is the sensor view the mission machine sees for one control tick.
// It is immutable for the duration of the tick. RangeValid is false when the
// rangefinder produced no fresh value this tick; the previous range is carried
// so guards can still be evaluated against stale-but-valid data.
type Snapshot struct {
	Tick        uint64      `json:"tick"`
	Time        time.Time   `json:"time"`
	Orientation Orientation `json:"orientation"`
	RangeMM     int         `json:"rangeMM"`
	RangeValid  bool        `json:"rangeValid"`
}

// WheelCommand is the per-wheel signed duty triple. Each component is a
// percentage in [-100, 100]; sign selects rotation direction.
type WheelCommand struct {
	Front int `json:"front"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Position2D is a dead-reckoned position on the course plane, in meters
// relative to the start pose.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
