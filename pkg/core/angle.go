// pkg/core/angle.go
package core

import (
	"fmt"
	"math"
)

// Radians is an angle in radians. Heading comparisons in the control core are
// always done in radians after normalization.
type Radians float64

// Degrees is an angle in degrees. The two angle types are deliberately
// distinct so a degree value can never be compared against a radian value
// without an explicit conversion.
type Degrees float64

// Radians converts the angle to radians.
func (d Degrees) Radians() Radians {
	return Radians(float64(d) * math.Pi / 180)
}

// Degrees converts the angle to degrees.
func (r Radians) Degrees() Degrees {
	return Degrees(float64(r) * 180 / math.Pi)
}

// Normalize wraps the angle into (-π, π]. Any additive heading offset must be
// normalized before it is compared against a threshold.
func (r Radians) Normalize() Radians {
	v := math.Mod(float64(r), 2*math.Pi)
	if v <= -math.Pi {
		v += 2 * math.Pi
	} else if v > math.Pi {
		v -= 2 * math.Pi
	}
	return Radians(v)
}

// Abs returns the magnitude of the angle.
func (r Radians) Abs() Radians {
	return Radians(math.Abs(float64(r)))
}

func (r Radians) String() string {
	return fmt.Sprintf("%.4frad", float64(r))
}

func (d Degrees) String() string {
	return fmt.Sprintf("%.2f°", float64(d))
}
