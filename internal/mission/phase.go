package mission

import "fmt"

// Phase is one discrete stage of the scripted course. Exactly one phase is
// active at a time and transitions are the only mutation point for mission
// progress.
type Phase int

const (
	WaitForStart Phase = iota
	ApproachObstacle
	ClimbUp
	ClimbOver
	ClimbDown
	ScanForTarget
	ApproachTarget
)

var phaseNames = map[Phase]string{
	WaitForStart:     "WaitForStart",
	ApproachObstacle: "ApproachObstacle",
	ClimbUp:          "ClimbUp",
	ClimbOver:        "ClimbOver",
	ClimbDown:        "ClimbDown",
	ScanForTarget:    "ScanForTarget",
	ApproachTarget:   "ApproachTarget",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase maps a phase name back to its value, for control events that
// arrive as text.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return WaitForStart, fmt.Errorf("unknown phase %q", name)
}
