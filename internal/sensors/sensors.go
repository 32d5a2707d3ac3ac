// Package sensors maintains the latest attitude and range state from the
// sensor head and hands the control loop one coherent Snapshot per tick.
package sensors

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/microrover/missionctl/internal/parser"
	"github.com/microrover/missionctl/internal/serial"
	"github.com/microrover/missionctl/pkg/core"
)

// Config controls how raw sensor frames are interpreted.
type Config struct {
	// InvertedMount flips all three attitude axes. The IMU board sits
	// upside down in the chassis, so this is true on the real vehicle.
	InvertedMount bool `json:"invertedMount" mapstructure:"invertedMount"`

	// SensorOffsetMM is the rangefinder's forward offset from the rotation
	// centre, subtracted by the geometry model rather than here.
	SensorOffsetMM float64 `json:"sensorOffsetMm" mapstructure:"sensorOffsetMm"`
}

// Head consumes framed lines from the serial port and keeps the most recent
// decoded state. Range readings are consumed once: each Snapshot reports a
// valid range only if a fresh reading arrived since the previous Snapshot,
// so a quiet rangefinder shows up as RangeValid=false instead of a stale
// distance.
type Head struct {
	port   serial.Port
	parser *parser.Parser
	logger *slog.Logger
	cfg    Config

	buttons chan struct{}

	mu              sync.Mutex
	orientation     core.Orientation
	haveOrientation bool
	rangeMM         int
	rangeFresh      bool
}

// NewHead wires a sensor head service to a serial port.
func NewHead(port serial.Port, p *parser.Parser, cfg Config, logger *slog.Logger) *Head {
	return &Head{
		port:    port,
		parser:  p,
		logger:  logger,
		cfg:     cfg,
		buttons: make(chan struct{}, 1),
	}
}

// Buttons yields one value per start-button press. The channel holds a
// single pending press; further presses while one is pending are dropped.
func (h *Head) Buttons() <-chan struct{} {
	return h.buttons
}

// Run decodes frames from the port until the context is cancelled. Parse
// errors are logged and skipped; a single corrupt line must not stop the
// stream.
func (h *Head) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-h.port.Lines():
			if !ok {
				return nil
			}
			h.ingestLine(line)
		}
	}
}

func (h *Head) ingestLine(line string) {
	frame, err := h.parser.ParseLine(line)
	if err != nil {
		h.logger.Warn("Dropping corrupt sensor frame", "line", line, "error", err)
		return
	}

	switch f := frame.(type) {
	case parser.ImuFrame:
		o := core.Orientation{Yaw: f.Yaw, Pitch: f.Pitch, Roll: f.Roll}
		if h.cfg.InvertedMount {
			o = o.Invert()
		}
		h.mu.Lock()
		h.orientation = o
		h.haveOrientation = true
		h.mu.Unlock()
	case parser.RangeFrame:
		if !f.Valid {
			return
		}
		h.mu.Lock()
		h.rangeMM = f.MM
		h.rangeFresh = true
		h.mu.Unlock()
	case parser.ButtonFrame:
		if !f.Pressed {
			return
		}
		select {
		case h.buttons <- struct{}{}:
		default:
		}
	}
}

// Snapshot builds the control-loop sample for one tick and consumes any
// pending range reading. Ready is false until the first attitude frame has
// arrived.
func (h *Head) Snapshot(tick uint64, now time.Time) (core.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := core.Snapshot{
		Tick:        tick,
		Time:        now,
		Orientation: h.orientation,
		RangeMM:     h.rangeMM,
		RangeValid:  h.rangeFresh,
	}
	h.rangeFresh = false
	return s, h.haveOrientation
}
