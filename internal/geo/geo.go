package geo

import (
	"errors"
	"math"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/microrover/missionctl/pkg/core"
)

// GEO POINTS
// Course positions are dead-reckoned in meters relative to the start pose.
// When an arena carries a georeference we store points in EPSG:3857, because
// SQLite has no spatial awareness and we need to be able to interpret point
// data from strings during migrations using the inherent Scan function.
// Geometry data is stored in the WKB format.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrNotGeoreferenced is returned when the arena has no origin lat/long set
var ErrNotGeoreferenced = errors.New("arena is not georeferenced")

// PointFromPosition converts a course-plane position into a geom.Point for
// storage. Coordinates stay in meters from the start pose.
func PointFromPosition(p core.Position2D) geom.Point {
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: p.X, Y: p.Y},
			Type: geom.DimXY,
		},
	)
}

// Coords3857From4326 creates a point in EPSG:3857 from a longitude and latitude
func Coords3857From4326(
	longitude float64,
	latitude float64,
) (
	point geom.Point,
	err error,
) {
	var x, y float64
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(longitude, latitude, 0)
	point = geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: x, Y: y},
			Z:  0,
		},
	)
	return point, nil
}

// GeoreferencePosition projects a course position into EPSG:3857 by
// offsetting it from the arena origin. The meter offset is applied directly
// in projected coordinates, which is accurate enough at course scale.
func GeoreferencePosition(arena *core.Arena, p core.Position2D) (geom.Point, error) {
	if arena.OriginLatitude == 0 && arena.OriginLongitude == 0 {
		return geom.Point{}, ErrNotGeoreferenced
	}
	origin, err := Coords3857From4326(arena.OriginLongitude, arena.OriginLatitude)
	if err != nil {
		return geom.Point{}, err
	}
	xy, ok := origin.XY()
	if !ok {
		return geom.Point{}, ErrInvalidCoordinates
	}
	return geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: xy.X + p.X, Y: xy.Y + p.Y},
		},
	), nil
}

// Estimator integrates wheel commands into a dead-reckoned course position.
// It implements the control loop's PositionEstimator. The model is
// deliberately crude: the mean of the three duties approximates forward
// thrust along the current heading, and a pure pivot (duties summing to
// zero) produces no translation.
type Estimator struct {
	// MetersPerSecAt100 is the calibrated straight-line speed at 100% duty.
	MetersPerSecAt100 float64

	pos   core.Position2D
	track []core.Position2D
}

// NewEstimator creates an estimator starting at the course origin.
func NewEstimator(metersPerSecAt100 float64) *Estimator {
	return &Estimator{MetersPerSecAt100: metersPerSecAt100}
}

// Update advances the estimate by one tick and returns the new position.
// Heading 0 points along the course +X axis.
func (e *Estimator) Update(heading core.Radians, cmd core.WheelCommand, dt time.Duration) core.Position2D {
	meanDuty := float64(cmd.Front+cmd.Left+cmd.Right) / 3.0
	v := meanDuty / 100.0 * e.MetersPerSecAt100

	dist := v * dt.Seconds()
	e.pos.X += dist * math.Cos(float64(heading))
	e.pos.Y += dist * math.Sin(float64(heading))
	e.track = append(e.track, e.pos)
	return e.pos
}

// Position returns the current estimate without advancing it.
func (e *Estimator) Position() core.Position2D {
	return e.pos
}

// Track returns every position produced so far, oldest first.
func (e *Estimator) Track() []core.Position2D {
	out := make([]core.Position2D, len(e.track))
	copy(out, e.track)
	return out
}

// Reset moves the estimate back to the course origin and clears the track.
func (e *Estimator) Reset() {
	e.pos = core.Position2D{}
	e.track = nil
}
