package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&RobotInfo{},
	&Arena{},
	&Run{},
	&PhaseName{},
	&TickRecord{},
	&PhaseTransition{},
	&ScanDetection{},
	&ControlEvent{},
	&RunPerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// RobotInfo describes the robot this daemon instance drives
type RobotInfo struct {
	gorm.Model
	RobotName       string `json:"robotName" gorm:"size:127"` // primary key
	Chassis         string `json:"chassis" gorm:"size:127"`
	FirmwareVersion string `json:"firmwareVersion" gorm:"size:64"`
	Notes           string `json:"notes" gorm:"size:255"`
}

func (*RobotInfo) TableName() string {
	return "robot_infos"
}

// RunPerformance is the model for daemon performance samples
type RunPerformance struct {
	Time                time.Time         `json:"time" gorm:"type:timestamptz;index:idx_time"`
	RunID               uint              `json:"runId" gorm:"index:idx_runperformance_run_id"`
	Run                 Run               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	WriteQueueLengths   WriteQueueLengths `json:"writeQueueLengths" gorm:"embedded;embeddedPrefix:writequeue_"`
	LastWriteDurationMs float32           `json:"lastWriteDurationMs"`
}

func (*RunPerformance) TableName() string {
	return "run_performances"
}

// WriteQueueLengths is the model for the storage write queue lengths
type WriteQueueLengths struct {
	Ticks            uint16 `json:"ticks"`
	PhaseTransitions uint16 `json:"phaseTransitions"`
	ScanDetections   uint16 `json:"scanDetections"`
	ControlEvents    uint16 `json:"controlEvents"`
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Arena is the main model for a course
type Arena struct {
	gorm.Model
	Name           string  `json:"name" gorm:"size:127"`
	WidthMM        float64 `json:"widthMM"`
	LengthMM       float64 `json:"lengthMM"`
	RampLengthMM   float64 `json:"rampLengthMM"`
	RampWidthMM    float64 `json:"rampWidthMM"`
	SensorOffsetMM float64 `json:"sensorOffsetMM"`

	// Optional georeference of the course origin. Latitude/Longitude are the
	// raw config values; Location is the same point projected to EPSG:3857.
	Latitude  float64    `json:"latitude" gorm:"-"`
	Longitude float64    `json:"longitude" gorm:"-"`
	Location  geom.Point `json:"location"`

	Runs []Run
}

func (*Arena) TableName() string {
	return "arenas"
}

func (a *Arena) GetOrInsert(db *gorm.DB) (
	created bool,
	err error,
) {
	var existingArena Arena
	err = db.Where("name = ?", a.Name).First(&existingArena).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// insert
			err = db.Create(a).Error
			return true, err
		}
		return false, err
	}
	// overwrite with db record if found
	*a = existingArena
	return false, nil
}

// Run is the main model for a recorded mission attempt
type Run struct {
	gorm.Model
	Name            string    `json:"name" gorm:"size:200"`
	RobotName       string    `json:"robotName" gorm:"size:127"`
	StartTime       time.Time `json:"startTime" gorm:"type:timestamptz;index:idx_run_start"`
	ArenaID         uint
	Arena           Arena   `gorm:"foreignkey:ArenaID"`
	TickRateHz      float64 `json:"tickRateHz" gorm:"default:50"`
	DaemonVersion   string  `json:"daemonVersion" gorm:"size:64;default:1.0.0"`
	FirmwareVersion string  `json:"firmwareVersion" gorm:"size:64"`
	Tag             string  `json:"tag" gorm:"size:127"`

	TickRecords      []TickRecord
	PhaseTransitions []PhaseTransition
	ScanDetections   []ScanDetection
	ControlEvents    []ControlEvent
}

func (*Run) TableName() string {
	return "runs"
}

// PhaseName interns mission phase names so tick rows carry a small ID
// instead of a repeated string
type PhaseName struct {
	ID   uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	Name string `json:"name" gorm:"size:64;uniqueIndex:idx_phase_name"`
}

func (*PhaseName) TableName() string {
	return "phase_names"
}

// TickRecord is one control-loop tick: attitude, range and the drive command
// that was issued for it
type TickRecord struct {
	ID    uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time  time.Time `json:"time" gorm:"type:timestamptz;"`
	RunID uint      `json:"runId" gorm:"index:idx_tickrecord_run_id"`
	Run   Run       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Tick  uint64    `json:"tick" gorm:"index:idx_tickrecord_tick"`

	PhaseNameID uint      `json:"phaseNameId" gorm:"index:idx_tickrecord_phase_name_id"`
	PhaseName   PhaseName `gorm:"foreignkey:PhaseNameID"`

	Yaw        float64 `json:"yaw"`   // radians
	Pitch      float64 `json:"pitch"` // radians
	Roll       float64 `json:"roll"`  // radians
	RangeMM    int     `json:"rangeMM"`
	RangeValid bool    `json:"rangeValid" gorm:"default:false"`

	Direction string      `json:"direction" gorm:"size:16"` // drive direction kind
	SpeedPct  int         `json:"speedPct"`
	Wheels    WheelDuties `json:"wheels" gorm:"embedded;embeddedPrefix:wheel_"`

	Position geom.Point `json:"position"` // dead-reckoned course position, meters from start pose
}

func (*TickRecord) TableName() string {
	return "tick_records"
}

// WheelDuties is the signed duty triple issued to the drive board
type WheelDuties struct {
	Front int `json:"front"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

// PhaseTransition records one mission state machine transition
type PhaseTransition struct {
	ID    uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time  time.Time `json:"time" gorm:"type:timestamptz;"`
	RunID uint      `json:"runId" gorm:"index:idx_phasetransition_run_id"`
	Run   Run       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Tick  uint64    `json:"tick" gorm:"index:idx_phasetransition_tick"`

	FromPhase string `json:"fromPhase" gorm:"size:64"`
	ToPhase   string `json:"toPhase" gorm:"size:64"`
	Reason    string `json:"reason" gorm:"size:128"`
	Forced    bool   `json:"forced" gorm:"default:false"` // external request rather than a guard
}

func (*PhaseTransition) TableName() string {
	return "phase_transitions"
}

// ScanDetection records a range anomaly found during the target sweep
type ScanDetection struct {
	ID    uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time  time.Time `json:"time" gorm:"type:timestamptz;"`
	RunID uint      `json:"runId" gorm:"index:idx_scandetection_run_id"`
	Run   Run       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Tick  uint64    `json:"tick" gorm:"index:idx_scandetection_tick"`

	Heading    float64 `json:"heading"` // radians
	MeasuredMM int     `json:"measuredMM"`
	ExpectedMM int     `json:"expectedMM"`
}

func (*ScanDetection) TableName() string {
	return "scan_detections"
}

// ControlEvent records an asynchronous external input: start button, OS
// signal, remote command
type ControlEvent struct {
	ID    uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time  time.Time `json:"time" gorm:"type:timestamptz;"`
	RunID uint      `json:"runId" gorm:"index:idx_controlevent_run_id"`
	Run   Run       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`

	Source         string         `json:"source" gorm:"size:32"` // button, signal, remote
	Name           string         `json:"name" gorm:"size:64"`
	RequestedPhase string         `json:"requestedPhase" gorm:"size:64"`
	ExtraData      datatypes.JSON `json:"extraData" gorm:"type:jsonb;default:'{}'"`
}

func (*ControlEvent) TableName() string {
	return "control_events"
}
