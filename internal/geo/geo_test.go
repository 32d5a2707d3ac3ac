package geo

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microrover/missionctl/pkg/core"
)

func TestPointFromPosition(t *testing.T) {
	pt := PointFromPosition(core.Position2D{X: 1.25, Y: -0.5})
	xy, ok := pt.XY()
	require.True(t, ok)
	assert.Equal(t, 1.25, xy.X)
	assert.Equal(t, -0.5, xy.Y)
}

func TestCoords3857From4326(t *testing.T) {
	// Greenwich equator maps to the projected origin.
	pt, err := Coords3857From4326(0, 0)
	require.NoError(t, err)
	xy, ok := pt.XY()
	require.True(t, ok)
	assert.InDelta(t, 0, xy.X, 1e-6)
	assert.InDelta(t, 0, xy.Y, 1e-6)

	// One degree of longitude at the equator is ~111.3 km in 3857.
	pt, err = Coords3857From4326(1, 0)
	require.NoError(t, err)
	xy, ok = pt.XY()
	require.True(t, ok)
	assert.InDelta(t, 111319.49, xy.X, 1.0)
}

func TestGeoreferencePosition_NotGeoreferenced(t *testing.T) {
	arena := &core.Arena{}
	_, err := GeoreferencePosition(arena, core.Position2D{X: 1, Y: 1})
	assert.ErrorIs(t, err, ErrNotGeoreferenced)
}

func TestGeoreferencePosition_OffsetsFromOrigin(t *testing.T) {
	arena := &core.Arena{OriginLatitude: 0.0001, OriginLongitude: 0}
	pt, err := GeoreferencePosition(arena, core.Position2D{X: 3, Y: 4})
	require.NoError(t, err)

	origin, err := Coords3857From4326(arena.OriginLongitude, arena.OriginLatitude)
	require.NoError(t, err)
	originXY, ok := origin.XY()
	require.True(t, ok)

	xy, ok := pt.XY()
	require.True(t, ok)
	assert.InDelta(t, originXY.X+3, xy.X, 1e-9)
	assert.InDelta(t, originXY.Y+4, xy.Y, 1e-9)
}

func TestEstimator_StraightLine(t *testing.T) {
	e := NewEstimator(0.5) // 0.5 m/s at full duty

	// Full forward along heading 0 for one second.
	cmd := core.WheelCommand{Front: 100, Left: 100, Right: 100}
	pos := e.Update(0, cmd, time.Second)

	assert.InDelta(t, 0.5, pos.X, 1e-9)
	assert.InDelta(t, 0.0, pos.Y, 1e-9)
}

func TestEstimator_PivotDoesNotTranslate(t *testing.T) {
	e := NewEstimator(0.5)

	// Pivot left: duties cancel, no net thrust.
	cmd := core.WheelCommand{Front: 0, Left: -40, Right: 40}
	pos := e.Update(core.Radians(math.Pi/2), cmd, time.Second)

	assert.InDelta(t, 0, pos.X, 1e-9)
	assert.InDelta(t, 0, pos.Y, 1e-9)
}

func TestEstimator_HeadingRotatesVelocity(t *testing.T) {
	e := NewEstimator(1.0)

	cmd := core.WheelCommand{Front: 100, Left: 100, Right: 100}
	pos := e.Update(core.Radians(math.Pi/2), cmd, time.Second)

	assert.InDelta(t, 0, pos.X, 1e-9)
	assert.InDelta(t, 1, pos.Y, 1e-9)
}

func TestEstimator_TrackAndReset(t *testing.T) {
	e := NewEstimator(1.0)
	cmd := core.WheelCommand{Front: 100, Left: 100, Right: 100}

	e.Update(0, cmd, 100*time.Millisecond)
	e.Update(0, cmd, 100*time.Millisecond)
	require.Len(t, e.Track(), 2)
	assert.InDelta(t, 0.2, e.Position().X, 1e-9)

	e.Reset()
	assert.Empty(t, e.Track())
	assert.Equal(t, core.Position2D{}, e.Position())
}

func TestTrackLineString(t *testing.T) {
	track := []core.Position2D{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 2}}
	ls, err := TrackLineString(track)
	require.NoError(t, err)
	assert.Equal(t, 3, ls.Coordinates().Length())
}

func TestTrackLineString_TooShort(t *testing.T) {
	_, err := TrackLineString([]core.Position2D{{X: 0, Y: 0}})
	assert.Error(t, err)
}

func TestTrackFromJSON(t *testing.T) {
	track, err := TrackFromJSON("[[0,0],[0.5,0.1],[1.0,0.2]]")
	require.NoError(t, err)
	require.Len(t, track, 3)
	assert.Equal(t, core.Position2D{X: 0.5, Y: 0.1}, track[1])
}

func TestTrackFromJSON_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"not json", "nope"},
		{"too few points", "[[1,2]]"},
		{"short coordinate", "[[1,2],[3]]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := TrackFromJSON(tc.input)
			assert.Error(t, err)
		})
	}
}
