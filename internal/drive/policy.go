// internal/drive/policy.go
package drive

import (
	"math"

	"github.com/microrover/missionctl/pkg/core"
)

// Steering is a correction policy's decision for one tick. A zero VeerPct
// means drive straight. Right selects the side to bias down; positive heading
// error (nose drifted counterclockwise) corrects to the right.
type Steering struct {
	VeerPct int
	Right   bool
}

// CorrectionPolicy turns a normalized heading error into a steering decision.
// The second return value is false when the policy wants the previous wheel
// command held as-is (hysteresis), in which case Steering is meaningless.
type CorrectionPolicy interface {
	Correct(headingErr core.Radians) (Steering, bool)
}

// ProportionalConfig tunes the PID-based correction policy. Gains act on the
// heading error in degrees.
type ProportionalConfig struct {
	Kp float64 `json:"kp" mapstructure:"kp"`
	Ki float64 `json:"ki" mapstructure:"ki"`
	Kd float64 `json:"kd" mapstructure:"kd"`

	// OutputClamp bounds the controller output (and the integral term) so a
	// long drift cannot wind the veer percentage past usefulness.
	OutputClamp float64 `json:"outputClamp" mapstructure:"outputClamp"`

	// BaseVeerPct is added to the controller output magnitude to form the
	// veer percentage; small outputs still need enough differential to turn
	// the chassis.
	BaseVeerPct int `json:"baseVeerPct" mapstructure:"baseVeerPct"`
}

// DefaultProportionalConfig matches the tuning driven on the stock chassis.
func DefaultProportionalConfig() ProportionalConfig {
	return ProportionalConfig{
		Kp:          2.0,
		OutputClamp: 25,
		BaseVeerPct: 70,
	}
}

// Proportional corrects heading with a PID controller, proportional term
// dominant. Output magnitudes below half a unit are treated as on-course.
type Proportional struct {
	cfg      ProportionalConfig
	integral float64
	prevErr  float64
	primed   bool
}

// NewProportional builds the policy. A zero OutputClamp falls back to the
// default bound.
func NewProportional(cfg ProportionalConfig) *Proportional {
	if cfg.OutputClamp <= 0 {
		cfg.OutputClamp = DefaultProportionalConfig().OutputClamp
	}
	return &Proportional{cfg: cfg}
}

// Correct implements CorrectionPolicy.
func (p *Proportional) Correct(headingErr core.Radians) (Steering, bool) {
	errDeg := float64(headingErr.Normalize().Degrees())

	p.integral = clamp(p.integral+errDeg*p.cfg.Ki, -p.cfg.OutputClamp, p.cfg.OutputClamp)

	var deriv float64
	if p.primed {
		deriv = errDeg - p.prevErr
	}
	p.prevErr = errDeg
	p.primed = true

	out := clamp(p.cfg.Kp*errDeg+p.integral+p.cfg.Kd*deriv, -p.cfg.OutputClamp, p.cfg.OutputClamp)

	if math.Abs(out) <= 0.5 {
		return Steering{}, true
	}

	pct := p.cfg.BaseVeerPct + int(math.Abs(out))
	if pct > 100 {
		pct = 100
	}
	return Steering{VeerPct: pct, Right: out > 0}, true
}

// BangBangConfig tunes the fixed-band correction policy.
type BangBangConfig struct {
	// DeadBand is the error magnitude below which the robot is on course.
	DeadBand core.Degrees `json:"deadBandDeg" mapstructure:"deadBandDeg"`
	// Threshold is the error magnitude beyond which the policy veers. Between
	// DeadBand and Threshold the previous command is held, which keeps the
	// chassis from hunting around the target heading.
	Threshold core.Degrees `json:"thresholdDeg" mapstructure:"thresholdDeg"`
	// VeerPct is the fixed correction strength.
	VeerPct int `json:"veerPct" mapstructure:"veerPct"`
}

// DefaultBangBangConfig matches the tuning driven on the stock chassis.
func DefaultBangBangConfig() BangBangConfig {
	return BangBangConfig{
		DeadBand:  1,
		Threshold: 2,
		VeerPct:   80,
	}
}

// BangBang corrects heading with a fixed veer outside a threshold band and a
// hold band between dead-band and threshold.
type BangBang struct {
	cfg BangBangConfig
}

// NewBangBang builds the policy, filling zero fields from the defaults.
func NewBangBang(cfg BangBangConfig) *BangBang {
	def := DefaultBangBangConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.DeadBand <= 0 {
		cfg.DeadBand = def.DeadBand
	}
	if cfg.VeerPct <= 0 {
		cfg.VeerPct = def.VeerPct
	}
	return &BangBang{cfg: cfg}
}

// Correct implements CorrectionPolicy.
func (b *BangBang) Correct(headingErr core.Radians) (Steering, bool) {
	errDeg := headingErr.Normalize().Degrees()
	abs := core.Degrees(math.Abs(float64(errDeg)))

	switch {
	case abs <= b.cfg.DeadBand:
		return Steering{}, true
	case abs >= b.cfg.Threshold:
		return Steering{VeerPct: b.cfg.VeerPct, Right: errDeg > 0}, true
	default:
		return Steering{}, false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
