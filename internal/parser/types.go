package parser

import "github.com/microrover/missionctl/pkg/core"

// Frame is a single decoded line from the sensor head.
type Frame interface {
	frame()
}

// ImuFrame carries a fused attitude sample. Angles are in radians, in the
// sensor head's mounting frame (see sensors.Config.InvertedMount).
type ImuFrame struct {
	Yaw   core.Radians
	Pitch core.Radians
	Roll  core.Radians
}

// RangeFrame carries one rangefinder reading. The firmware reports -1 when
// no echo was received, which decodes as Valid == false.
type RangeFrame struct {
	MM    int
	Valid bool
}

// ButtonFrame is emitted once per press of the start button.
type ButtonFrame struct {
	Pressed bool
}

func (ImuFrame) frame()    {}
func (RangeFrame) frame()  {}
func (ButtonFrame) frame() {}
