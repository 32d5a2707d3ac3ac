package drive

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/microrover/missionctl/pkg/core"
)

// ErrInvalidParameter is returned when a caller violates a drive contract:
// a percentage outside [0,100] or a direction outside the operation's
// accepted set. It is never fatal; the caller simply skips actuation.
var ErrInvalidParameter = errors.New("invalid parameter")

// ErrNotConfigured is returned when no wheel driver has been attached.
var ErrNotConfigured = errors.New("wheel drive not configured")

// Wheel identifies one of the three wheel actuators.
type Wheel int

const (
	WheelFront Wheel = iota
	WheelLeft
	WheelRight
)

func (w Wheel) String() string {
	switch w {
	case WheelFront:
		return "front"
	case WheelLeft:
		return "left"
	case WheelRight:
		return "right"
	default:
		return fmt.Sprintf("Wheel(%d)", int(w))
	}
}

// WheelDriver is the actuator collaborator: it accepts a signed duty
// percentage in [-100, 100] per wheel. PWM details live behind it.
type WheelDriver interface {
	SetWheelDuty(w Wheel, signedPct int) error
}

// Controller owns the three wheel actuators and translates directions into
// wheel commands. It also provides the heading-correction entry point used
// while driving straight segments of the course.
type Controller struct {
	driver WheelDriver
	policy CorrectionPolicy
	log    *slog.Logger

	lastCmd   core.WheelCommand
	lastDir   Direction
	lastSpeed int
}

// NewController builds a controller around a wheel driver and a correction
// policy. The policy is fixed for the controller's lifetime; callers swap
// policies by configuration, not at runtime.
func NewController(driver WheelDriver, policy CorrectionPolicy, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		driver: driver,
		policy: policy,
		log:    log,
	}
}

// Drive computes the wheel command for the direction and speed and applies it.
func (c *Controller) Drive(d Direction, speed int) error {
	cmd, err := WheelSpeeds(d, speed)
	if err != nil {
		return err
	}
	if err := c.apply(cmd); err != nil {
		return err
	}
	c.lastDir = d
	c.lastSpeed = speed
	return nil
}

// Stop halts all wheels.
func (c *Controller) Stop() error {
	return c.Drive(Forward, 0)
}

// Veer rescales the two side wheels relative to whichever is currently
// faster, biasing the named side down by pct. Direction must be a veer kind.
func (c *Controller) Veer(d Direction, pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: veer percentage %d outside [0,100]", ErrInvalidParameter, pct)
	}
	if d.Kind != KindVeerLeft && d.Kind != KindVeerRight {
		return fmt.Errorf("%w: %v is not a veer direction", ErrInvalidParameter, d.Kind)
	}

	fast := c.lastCmd.Left
	if abs(c.lastCmd.Right) > abs(fast) {
		fast = c.lastCmd.Right
	}
	slow := fast * (100 - pct) / 100

	cmd := c.lastCmd
	if d.Kind == KindVeerLeft {
		cmd.Left, cmd.Right = slow, fast
	} else {
		cmd.Left, cmd.Right = fast, slow
	}
	return c.apply(cmd)
}

// DriveStraight holds the robot on a desired heading while traveling in the
// base direction. The correction policy decides whether to drive straight,
// veer, or hold the previous command. Base must be Forward or Backward.
func (c *Controller) DriveStraight(current, desired core.Radians, base Direction, speed int) error {
	if base.Kind != KindForward && base.Kind != KindBackward {
		return fmt.Errorf("%w: drive straight base direction must be forward or backward, got %v", ErrInvalidParameter, base.Kind)
	}

	herr := (current - desired).Normalize()
	steer, update := c.policy.Correct(herr)
	if !update {
		// Inside the policy's hysteresis band: keep the previous command.
		return nil
	}

	if steer.VeerPct == 0 {
		return c.Drive(base, speed)
	}

	// Backward travel mirrors the correcting side.
	veerRight := steer.Right
	if base.Kind == KindBackward {
		veerRight = !veerRight
	}
	dir := VeerLeft(steer.VeerPct)
	if veerRight {
		dir = VeerRight(steer.VeerPct)
	}
	return c.Drive(dir, speed)
}

// LastCommand returns the most recently applied wheel command.
func (c *Controller) LastCommand() core.WheelCommand {
	return c.lastCmd
}

// LastDirection returns the most recently applied direction and speed.
func (c *Controller) LastDirection() (Direction, int) {
	return c.lastDir, c.lastSpeed
}

func (c *Controller) apply(cmd core.WheelCommand) error {
	if c.driver == nil {
		return ErrNotConfigured
	}
	if err := c.driver.SetWheelDuty(WheelFront, cmd.Front); err != nil {
		return fmt.Errorf("front wheel: %w", err)
	}
	if err := c.driver.SetWheelDuty(WheelLeft, cmd.Left); err != nil {
		return fmt.Errorf("left wheel: %w", err)
	}
	if err := c.driver.SetWheelDuty(WheelRight, cmd.Right); err != nil {
		return fmt.Errorf("right wheel: %w", err)
	}
	c.lastCmd = cmd
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
