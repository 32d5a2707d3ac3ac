// pkg/core/run.go
package core

import "time"

// Arena describes the course a run is driven on. Dimensions are millimeters
// and come from configuration; nothing in the core derives them.
type Arena struct {
	ID             uint
	Name           string
	WidthMM        float64
	LengthMM       float64
	RampLengthMM   float64
	RampWidthMM    float64
	SensorOffsetMM float64

	// Optional georeference: latitude/longitude of the course origin, used
	// only when exporting tracks. Zero values mean "not georeferenced".
	OriginLatitude  float64
	OriginLongitude float64
}

// Run represents a single recorded mission attempt.
type Run struct {
	ID              uint
	Name            string
	RobotName       string
	ArenaID         uint
	StartTime       time.Time
	TickRateHz      float64
	DaemonVersion   string
	FirmwareVersion string
	Tag             string
}

// UploadMetadata accompanies an exported run archive when it is uploaded to
// the fleet telemetry server.
type UploadMetadata struct {
	RunName     string
	ArenaName   string
	RunDuration float64 // seconds
	Tag         string
}
