package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microrover/missionctl/pkg/core"
)

func TestWheelSpeeds_MappingTable(t *testing.T) {
	tests := []struct {
		name  string
		dir   Direction
		speed int
		want  core.WheelCommand
	}{
		{"forward", Forward, 80, core.WheelCommand{Front: 80, Left: 80, Right: 80}},
		{"backward", Backward, 80, core.WheelCommand{Front: -80, Left: -80, Right: -80}},
		{"left pivot", Left, 50, core.WheelCommand{Front: 0, Left: -50, Right: 50}},
		{"right pivot", Right, 50, core.WheelCommand{Front: 0, Left: 50, Right: -50}},
		{"veer left", VeerLeft(75), 100, core.WheelCommand{Front: 100, Left: 25, Right: 100}},
		{"veer right", VeerRight(75), 100, core.WheelCommand{Front: 100, Left: 100, Right: 25}},
		{"veer zero pct", VeerLeft(0), 60, core.WheelCommand{Front: 60, Left: 60, Right: 60}},
		{"veer full pct", VeerRight(100), 60, core.WheelCommand{Front: 60, Left: 60, Right: 0}},
		{"stopped", Forward, 0, core.WheelCommand{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WheelSpeeds(tt.dir, tt.speed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWheelSpeeds_RejectsOutOfRange(t *testing.T) {
	_, err := WheelSpeeds(VeerLeft(-1), 50)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = WheelSpeeds(VeerRight(101), 50)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = WheelSpeeds(Forward, 101)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = WheelSpeeds(Forward, -1)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = WheelSpeeds(Direction{}, 50)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "FORWARD", Forward.String())
	assert.Equal(t, "VEER_LEFT(80%)", VeerLeft(80).String())
	assert.Equal(t, "VEER_RIGHT(25%)", VeerRight(25).String())
}
