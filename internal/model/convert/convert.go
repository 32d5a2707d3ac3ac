// Package convert maps the plain telemetry types in pkg/core onto the GORM
// models used by the database-backed storage backends.
package convert

import (
	"github.com/microrover/missionctl/internal/geo"
	"github.com/microrover/missionctl/internal/model"
	"github.com/microrover/missionctl/pkg/core"
)

// RunToModel converts a core run for insertion. The arena association is
// attached by the caller after the arena row is resolved.
func RunToModel(r core.Run) model.Run {
	return model.Run{
		Name:            r.Name,
		RobotName:       r.RobotName,
		StartTime:       r.StartTime,
		ArenaID:         r.ArenaID,
		TickRateHz:      r.TickRateHz,
		DaemonVersion:   r.DaemonVersion,
		FirmwareVersion: r.FirmwareVersion,
		Tag:             r.Tag,
	}
}

// ArenaToModel converts a core arena for insertion. When the arena carries a
// georeference the origin is projected into EPSG:3857 for the Location column.
func ArenaToModel(a core.Arena) model.Arena {
	m := model.Arena{
		Name:           a.Name,
		WidthMM:        a.WidthMM,
		LengthMM:       a.LengthMM,
		RampLengthMM:   a.RampLengthMM,
		RampWidthMM:    a.RampWidthMM,
		SensorOffsetMM: a.SensorOffsetMM,
		Latitude:       a.OriginLatitude,
		Longitude:      a.OriginLongitude,
	}
	if a.OriginLatitude != 0 || a.OriginLongitude != 0 {
		if pt, err := geo.Coords3857From4326(a.OriginLongitude, a.OriginLatitude); err == nil {
			m.Location = pt
		}
	}
	return m
}

// TickToModel converts a tick sample. phaseNameID is the interned ID for the
// sample's phase name; RunID is stamped by the write queue.
func TickToModel(s core.TickSample, phaseNameID uint) model.TickRecord {
	return model.TickRecord{
		Time:        s.Time,
		Tick:        s.Tick,
		PhaseNameID: phaseNameID,
		Yaw:         float64(s.Yaw),
		Pitch:       float64(s.Pitch),
		Roll:        float64(s.Roll),
		RangeMM:     s.RangeMM,
		RangeValid:  s.RangeValid,
		Direction:   s.Direction,
		SpeedPct:    s.SpeedPct,
		Wheels: model.WheelDuties{
			Front: s.Wheels.Front,
			Left:  s.Wheels.Left,
			Right: s.Wheels.Right,
		},
		Position: geo.PointFromPosition(s.Position),
	}
}

// PhaseChangeToModel converts a phase transition record.
func PhaseChangeToModel(p core.PhaseChange) model.PhaseTransition {
	return model.PhaseTransition{
		Time:      p.Time,
		Tick:      p.Tick,
		FromPhase: p.From,
		ToPhase:   p.To,
		Reason:    p.Reason,
		Forced:    p.Forced,
	}
}

// ScanDetectionToModel converts a scan detection record.
func ScanDetectionToModel(d core.ScanDetection) model.ScanDetection {
	return model.ScanDetection{
		Time:       d.Time,
		Tick:       d.Tick,
		Heading:    float64(d.Heading),
		MeasuredMM: d.MeasuredMM,
		ExpectedMM: d.ExpectedMM,
	}
}

// ControlEventToModel converts a control event record.
func ControlEventToModel(e core.ControlEvent) model.ControlEvent {
	return model.ControlEvent{
		Time:           e.Time,
		Source:         e.Source,
		Name:           e.Name,
		RequestedPhase: e.RequestedPhase,
	}
}
