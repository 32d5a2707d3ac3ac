// internal/drive/direction.go
package drive

import (
	"fmt"

	"github.com/microrover/missionctl/pkg/core"
)

// Kind enumerates the drive patterns the wheel set supports.
type Kind int

const (
	KindForward Kind = iota + 1
	KindBackward
	KindLeft
	KindRight
	KindVeerLeft
	KindVeerRight
)

func (k Kind) String() string {
	switch k {
	case KindForward:
		return "FORWARD"
	case KindBackward:
		return "BACKWARD"
	case KindLeft:
		return "LEFT"
	case KindRight:
		return "RIGHT"
	case KindVeerLeft:
		return "VEER_LEFT"
	case KindVeerRight:
		return "VEER_RIGHT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Direction is a drive pattern plus, for the veer kinds, the percentage by
// which the slowed side is biased down. VeerPct must be in [0, 100].
type Direction struct {
	Kind    Kind
	VeerPct int
}

// Plain directions carry no veer percentage.
var (
	Forward  = Direction{Kind: KindForward}
	Backward = Direction{Kind: KindBackward}
	Left     = Direction{Kind: KindLeft}
	Right    = Direction{Kind: KindRight}
)

// VeerLeft biases the left side down by pct while driving forward.
func VeerLeft(pct int) Direction {
	return Direction{Kind: KindVeerLeft, VeerPct: pct}
}

// VeerRight biases the right side down by pct while driving forward.
func VeerRight(pct int) Direction {
	return Direction{Kind: KindVeerRight, VeerPct: pct}
}

func (d Direction) String() string {
	switch d.Kind {
	case KindVeerLeft, KindVeerRight:
		return fmt.Sprintf("%s(%d%%)", d.Kind, d.VeerPct)
	default:
		return d.Kind.String()
	}
}

// WheelSpeeds maps a direction and scalar speed onto the per-wheel duty
// triple. Speed is a percentage magnitude in [0, 100].
//
//	Forward      -> ( s,  s,  s)
//	Backward     -> (-s, -s, -s)
//	Left         -> ( 0, -s,  s)
//	Right        -> ( 0,  s, -s)
//	VeerLeft(p)  -> ( s,  s*(100-p)/100,  s)
//	VeerRight(p) -> ( s,  s,  s*(100-p)/100)
func WheelSpeeds(d Direction, speed int) (core.WheelCommand, error) {
	if speed < 0 || speed > 100 {
		return core.WheelCommand{}, fmt.Errorf("%w: speed %d outside [0,100]", ErrInvalidParameter, speed)
	}

	switch d.Kind {
	case KindForward:
		return core.WheelCommand{Front: speed, Left: speed, Right: speed}, nil
	case KindBackward:
		return core.WheelCommand{Front: -speed, Left: -speed, Right: -speed}, nil
	case KindLeft:
		return core.WheelCommand{Front: 0, Left: -speed, Right: speed}, nil
	case KindRight:
		return core.WheelCommand{Front: 0, Left: speed, Right: -speed}, nil
	case KindVeerLeft:
		if d.VeerPct < 0 || d.VeerPct > 100 {
			return core.WheelCommand{}, fmt.Errorf("%w: veer percentage %d outside [0,100]", ErrInvalidParameter, d.VeerPct)
		}
		return core.WheelCommand{Front: speed, Left: speed * (100 - d.VeerPct) / 100, Right: speed}, nil
	case KindVeerRight:
		if d.VeerPct < 0 || d.VeerPct > 100 {
			return core.WheelCommand{}, fmt.Errorf("%w: veer percentage %d outside [0,100]", ErrInvalidParameter, d.VeerPct)
		}
		return core.WheelCommand{Front: speed, Left: speed, Right: speed * (100 - d.VeerPct) / 100}, nil
	default:
		return core.WheelCommand{}, fmt.Errorf("%w: unknown direction %v", ErrInvalidParameter, d.Kind)
	}
}
