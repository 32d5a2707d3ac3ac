package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRadians_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Radians
		want Radians
	}{
		{"zero", 0, 0},
		{"pi stays pi", Radians(math.Pi), Radians(math.Pi)},
		{"negative pi wraps to pi", Radians(-math.Pi), Radians(math.Pi)},
		{"past pi wraps negative", Radians(math.Pi + 0.5), Radians(-math.Pi + 0.5)},
		{"full turn", Radians(2 * math.Pi), 0},
		{"three halves", Radians(3 * math.Pi / 2), Radians(-math.Pi / 2)},
		{"large negative", Radians(-5 * math.Pi), Radians(math.Pi)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, float64(tt.want), float64(tt.in.Normalize()), 1e-12)
		})
	}
}

func TestAngleConversions(t *testing.T) {
	assert.InDelta(t, math.Pi, float64(Degrees(180).Radians()), 1e-12)
	assert.InDelta(t, 90, float64(Radians(math.Pi/2).Degrees()), 1e-12)
	assert.InDelta(t, -45, float64(Radians(-math.Pi/4).Degrees()), 1e-12)
}

func TestOrientation_Invert(t *testing.T) {
	o := Orientation{Yaw: 0.1, Pitch: -0.2, Roll: 0.3}
	inv := o.Invert()
	assert.Equal(t, Orientation{Yaw: -0.1, Pitch: 0.2, Roll: -0.3}, inv)
	assert.Equal(t, o, inv.Invert())
}
