// Package v1 contains the v1 export format for recorded run data.
// This format is what the fleet telemetry viewer consumes.
package v1

// Export is the root JSON structure for v1 format
type Export struct {
	DaemonVersion   string  `json:"daemonVersion"`
	FirmwareVersion string  `json:"firmwareVersion"`
	RunName         string  `json:"runName"`
	RobotName       string  `json:"robotName"`
	ArenaName       string  `json:"arenaName"`
	StartTime       string  `json:"startTime"` // RFC 3339
	TickRateHz      float64 `json:"tickRateHz"`
	EndTick         uint64  `json:"endTick"`
	Tag             string  `json:"tag"`
	Arena           Arena   `json:"arena"`
	Ticks           [][]any `json:"ticks"`
	Phases          [][]any `json:"phases"`
	Detections      [][]any `json:"detections"`
	Controls        [][]any `json:"controls"`
}

// Arena carries the course dimensions so the viewer can draw the floor plan
type Arena struct {
	Name           string  `json:"name"`
	WidthMM        float64 `json:"widthMM"`
	LengthMM       float64 `json:"lengthMM"`
	RampLengthMM   float64 `json:"rampLengthMM"`
	RampWidthMM    float64 `json:"rampWidthMM"`
	SensorOffsetMM float64 `json:"sensorOffsetMM"`
	Latitude       float64 `json:"latitude,omitempty"`
	Longitude      float64 `json:"longitude,omitempty"`
}
