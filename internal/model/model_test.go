package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	cases := []struct {
		model interface{ TableName() string }
		want  string
	}{
		{&RobotInfo{}, "robot_infos"},
		{&Arena{}, "arenas"},
		{&Run{}, "runs"},
		{&PhaseName{}, "phase_names"},
		{&TickRecord{}, "tick_records"},
		{&PhaseTransition{}, "phase_transitions"},
		{&ScanDetection{}, "scan_detections"},
		{&ControlEvent{}, "control_events"},
		{&RunPerformance{}, "run_performances"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.model.TableName())
	}
}

func TestDatabaseModelsCoversAllTables(t *testing.T) {
	assert.Len(t, DatabaseModels, 9)
}
