package geo

import (
	"encoding/json"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/microrover/missionctl/pkg/core"
)

// TrackLineString builds a geom.LineString from a dead-reckoned track.
// Used when exporting the driven path of a run as WKB.
func TrackLineString(track []core.Position2D) (geom.LineString, error) {
	if len(track) < 2 {
		return geom.LineString{}, fmt.Errorf("track must have at least 2 points, got %d", len(track))
	}

	flatCoords := make([]float64, 0, len(track)*2)
	for _, p := range track {
		flatCoords = append(flatCoords, p.X, p.Y)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq), nil
}

// TrackFromJSON parses a JSON array of coordinates into a track.
// Input format: "[[x1,y1],[x2,y2],...]"
func TrackFromJSON(input string) ([]core.Position2D, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse track JSON: %w", err)
	}

	if len(coords) < 2 {
		return nil, fmt.Errorf("track must have at least 2 points, got %d", len(coords))
	}

	track := make([]core.Position2D, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		track[i] = core.Position2D{X: coord[0], Y: coord[1]}
	}

	return track, nil
}
