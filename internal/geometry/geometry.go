// Package geometry implements the arena line-of-sight model used by the
// target scan. Given a scan heading it predicts the range an unobstructed
// rangefinder reading would report, so that a materially shorter reading can
// be flagged as a target.
package geometry

import (
	"errors"
	"math"

	"github.com/microrover/missionctl/pkg/core"
)

// ErrInvalidDimensions is returned when the configured arena dimensions do
// not describe a usable course.
var ErrInvalidDimensions = errors.New("invalid arena dimensions")

// Config holds the raw course dimensions, all in millimeters. These are
// measured properties of the physical course and come straight from
// configuration.
type Config struct {
	CourseWidthMM  float64 `json:"courseWidthMM" mapstructure:"courseWidthMM"`
	CourseLengthMM float64 `json:"courseLengthMM" mapstructure:"courseLengthMM"`
	RampLengthMM   float64 `json:"rampLengthMM" mapstructure:"rampLengthMM"`
	RampWidthMM    float64 `json:"rampWidthMM" mapstructure:"rampWidthMM"`
	SensorOffsetMM float64 `json:"sensorOffsetMM" mapstructure:"sensorOffsetMM"`
}

// Arena is the immutable distance model. The two threshold angles are
// computed once at construction, never per call.
//
// The model sees the back of the course as three connected surfaces, from the
// scan origin at the centerline:
//
//   - the rear boundary straight ahead at CourseLengthMM;
//   - the ramp's splayed side edge, a plane running from the rear boundary at
//     lateral ±RampWidthMM/2 out to the side boundary at RampLengthMM in
//     front of the rear wall;
//   - the side boundary parallel to the course axis at ±CourseWidthMM/2.
//
// Each surface is a plane, so every regime projects the same way: the
// perpendicular distance to the plane divided by the cosine of the angle
// between the beam and the plane normal. Because adjacent regimes share a
// corner point, the model is continuous at both threshold angles.
type Arena struct {
	cfg Config

	rampAngle   core.Radians // rear boundary -> ramp edge boundary
	cornerAngle core.Radians // ramp edge -> side boundary

	halfWidth float64

	// Ramp edge plane: perpendicular distance from the scan origin and the
	// heading of that perpendicular.
	rampPerp   float64
	rampNormal core.Radians
}

// NewArena validates the configured dimensions and precomputes the threshold
// angles and the ramp edge plane.
func NewArena(cfg Config) (*Arena, error) {
	if cfg.CourseWidthMM <= 0 || cfg.CourseLengthMM <= 0 ||
		cfg.RampLengthMM <= 0 || cfg.RampWidthMM <= 0 || cfg.SensorOffsetMM < 0 {
		return nil, ErrInvalidDimensions
	}
	if cfg.RampWidthMM >= cfg.CourseWidthMM {
		return nil, ErrInvalidDimensions
	}
	if cfg.RampLengthMM >= cfg.CourseLengthMM {
		return nil, ErrInvalidDimensions
	}

	a := &Arena{
		cfg:       cfg,
		halfWidth: cfg.CourseWidthMM / 2,
	}

	// Corner points shared by adjacent surfaces, x lateral / y forward.
	x1, y1 := cfg.RampWidthMM/2, cfg.CourseLengthMM
	x2, y2 := cfg.CourseWidthMM/2, cfg.CourseLengthMM-cfg.RampLengthMM

	a.rampAngle = core.Radians(math.Atan2(x1, y1))
	a.cornerAngle = core.Radians(math.Atan2(x2, y2))
	if a.cornerAngle <= a.rampAngle {
		return nil, ErrInvalidDimensions
	}

	// Outward normal of the ramp edge plane through (x1,y1) and (x2,y2).
	ex, ey := x2-x1, y2-y1
	nx, ny := -ey, ex
	norm := math.Hypot(nx, ny)
	nx, ny = nx/norm, ny/norm
	a.rampPerp = x1*nx + y1*ny
	a.rampNormal = core.Radians(math.Atan2(nx, ny))

	return a, nil
}

// RampAngle returns the threshold between the rear-boundary and ramp-edge
// regimes.
func (a *Arena) RampAngle() core.Radians { return a.rampAngle }

// CornerAngle returns the threshold between the ramp-edge and side-boundary
// regimes.
func (a *Arena) CornerAngle() core.Radians { return a.cornerAngle }

// Config returns the dimensions the arena was built from.
func (a *Arena) Config() Config { return a.cfg }

// ExpectedRange predicts the unobstructed range reading, in millimeters, for
// a scan heading relative to the robot's forward reference. The result is
// symmetric in the sign of the heading.
func (a *Arena) ExpectedRange(heading core.Radians) float64 {
	abs := float64(heading.Normalize().Abs())

	var dist float64
	switch {
	case abs <= float64(a.rampAngle):
		dist = a.cfg.CourseLengthMM / math.Cos(abs)
	case abs <= float64(a.cornerAngle):
		dist = a.rampPerp / math.Cos(abs-float64(a.rampNormal))
	default:
		dist = a.halfWidth / math.Cos(math.Pi/2-abs)
	}

	return dist - a.cfg.SensorOffsetMM
}
