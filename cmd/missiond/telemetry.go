package main

import (
	"context"
	"log/slog"

	"github.com/microrover/missionctl/internal/dispatcher"
	"github.com/microrover/missionctl/internal/influx"
	"github.com/microrover/missionctl/internal/worker"
	"github.com/microrover/missionctl/pkg/core"
)

// telemetrySink fans control-loop telemetry out to the storage pipeline
// (through the dispatcher) and, when connected, to InfluxDB for live
// dashboards. It is the loop's TickSink and the machine's Sink.
type telemetrySink struct {
	rec    *worker.Recorder
	influx *influx.Manager
	robot  string
	log    *slog.Logger
}

func newTelemetrySink(d *dispatcher.Dispatcher, ifx *influx.Manager, robotName string, log *slog.Logger) *telemetrySink {
	return &telemetrySink{
		rec:    worker.NewRecorder(d, log),
		influx: ifx,
		robot:  robotName,
		log:    log,
	}
}

func (s *telemetrySink) TickSampled(ts core.TickSample) {
	s.rec.TickSampled(ts)
	if s.influx != nil {
		if err := s.influx.WritePoint(context.Background(), influx.BucketTelemetry,
			influx.TickPoint(s.robot, ts)); err != nil {
			s.log.Debug("Failed to write tick point", "error", err)
		}
	}
}

func (s *telemetrySink) PhaseChanged(pc core.PhaseChange) {
	s.rec.PhaseChanged(pc)
	if s.influx != nil {
		if err := s.influx.WritePoint(context.Background(), influx.BucketPhases,
			influx.PhasePoint(s.robot, pc)); err != nil {
			s.log.Debug("Failed to write phase point", "error", err)
		}
	}
}

func (s *telemetrySink) TargetDetected(d core.ScanDetection) {
	s.rec.TargetDetected(d)
}
