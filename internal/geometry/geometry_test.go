package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microrover/missionctl/pkg/core"
)

func testConfig() Config {
	return Config{
		CourseWidthMM:  1200,
		CourseLengthMM: 2400,
		RampLengthMM:   600,
		RampWidthMM:    400,
		SensorOffsetMM: 95,
	}
}

func TestNewArena_RejectsBadDimensions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.CourseWidthMM = 0 }},
		{"negative length", func(c *Config) { c.CourseLengthMM = -1 }},
		{"ramp wider than course", func(c *Config) { c.RampWidthMM = c.CourseWidthMM }},
		{"ramp longer than course", func(c *Config) { c.RampLengthMM = c.CourseLengthMM }},
		{"negative sensor offset", func(c *Config) { c.SensorOffsetMM = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewArena(cfg)
			assert.ErrorIs(t, err, ErrInvalidDimensions)
		})
	}
}

func TestExpectedRange_StraightAhead(t *testing.T) {
	arena, err := NewArena(testConfig())
	require.NoError(t, err)

	// Straight ahead the beam hits the rear boundary.
	got := arena.ExpectedRange(0)
	assert.InDelta(t, testConfig().CourseLengthMM-testConfig().SensorOffsetMM, got, 1e-9)
}

func TestExpectedRange_Symmetric(t *testing.T) {
	arena, err := NewArena(testConfig())
	require.NoError(t, err)

	for _, deg := range []core.Degrees{5, 15, 30, 45, 60, 80} {
		h := deg.Radians()
		assert.InDelta(t, arena.ExpectedRange(h), arena.ExpectedRange(-h), 1e-9,
			"asymmetric at %v", deg)
	}
}

func TestExpectedRange_ContinuousAtThresholds(t *testing.T) {
	arena, err := NewArena(testConfig())
	require.NoError(t, err)

	const eps = 1e-7
	for _, boundary := range []core.Radians{arena.RampAngle(), arena.CornerAngle()} {
		below := arena.ExpectedRange(boundary - core.Radians(eps))
		above := arena.ExpectedRange(boundary + core.Radians(eps))
		assert.InDelta(t, below, above, 1e-3, "discontinuity at %v", boundary)
	}
}

func TestExpectedRange_MonotonicRegimes(t *testing.T) {
	arena, err := NewArena(testConfig())
	require.NoError(t, err)

	// Within the rear-boundary regime the expected range grows with angle.
	prev := arena.ExpectedRange(0)
	step := arena.RampAngle() / 8
	for i := 1; i <= 8; i++ {
		cur := arena.ExpectedRange(core.Radians(i) * step)
		assert.Greater(t, cur, prev)
		prev = cur
	}

	// Far into the side-boundary regime the range is bounded by the course
	// half width at 90 degrees.
	side := arena.ExpectedRange(core.Degrees(90).Radians())
	assert.InDelta(t, testConfig().CourseWidthMM/2-testConfig().SensorOffsetMM, side, 1e-6)
}

func TestExpectedRange_ThresholdsComputedOnce(t *testing.T) {
	arena, err := NewArena(testConfig())
	require.NoError(t, err)

	cfg := testConfig()
	wantRamp := math.Atan2(cfg.RampWidthMM/2, cfg.CourseLengthMM)
	wantCorner := math.Atan2(cfg.CourseWidthMM/2, cfg.CourseLengthMM-cfg.RampLengthMM)

	assert.InDelta(t, wantRamp, float64(arena.RampAngle()), 1e-12)
	assert.InDelta(t, wantCorner, float64(arena.CornerAngle()), 1e-12)
}
