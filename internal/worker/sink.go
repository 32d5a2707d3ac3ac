package worker

import (
	"log/slog"
	"time"

	"github.com/microrover/missionctl/internal/dispatcher"
	"github.com/microrover/missionctl/pkg/core"
)

// Recorder adapts the dispatcher to the control loop's sink interfaces. The
// mission machine and loop call it synchronously every tick; it hands the
// records to the dispatcher's buffered handlers and never blocks.
type Recorder struct {
	d      *dispatcher.Dispatcher
	logger *slog.Logger
}

// NewRecorder creates a Recorder publishing to the given dispatcher.
func NewRecorder(d *dispatcher.Dispatcher, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{d: d, logger: logger}
}

// TickSampled implements mission.TickSink.
func (r *Recorder) TickSampled(s core.TickSample) {
	r.publish(CmdTickSample, s)
}

// PhaseChanged implements mission.Sink.
func (r *Recorder) PhaseChanged(pc core.PhaseChange) {
	r.publish(CmdPhaseChange, pc)
}

// TargetDetected implements mission.Sink.
func (r *Recorder) TargetDetected(d core.ScanDetection) {
	r.publish(CmdScanDetect, d)
}

func (r *Recorder) publish(cmd string, payload any) {
	_, err := r.d.Dispatch(dispatcher.Event{
		Command:   cmd,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		r.logger.Warn("dropping record", "command", cmd, "error", err)
	}
}
