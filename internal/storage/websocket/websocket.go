package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/microrover/missionctl/pkg/core"
	"github.com/microrover/missionctl/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams run data over WebSocket to the fleet telemetry server.
// It implements storage.Backend but not storage.Uploadable: the server
// already has the data, there is nothing to upload afterwards.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// sendEnvelopeAndWait marshals the payload and waits for a server ack.
func (b *Backend) sendEnvelopeAndWait(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, msgType, ackTimeout)
}

// StartRun sends run and arena data and waits for server ack.
func (b *Backend) StartRun(run *core.Run, arena *core.Arena) error {
	data, err := marshalEnvelope(streaming.TypeStartRun, streaming.StartRunPayload{Run: run, Arena: arena})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartRun, ackTimeout)
}

// EndRun sends end_run and waits for server ack.
func (b *Backend) EndRun() error {
	err := b.sendEnvelopeAndWait(streaming.TypeEndRun, nil)

	// Clear cached state regardless of error.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = nil
	b.conn.mu.Unlock()

	return err
}

func (b *Backend) RecordTick(s *core.TickSample) error {
	return b.sendEnvelope(streaming.TypeTick, s)
}

func (b *Backend) RecordPhaseChange(pc *core.PhaseChange) error {
	return b.sendEnvelope(streaming.TypePhaseChange, pc)
}

func (b *Backend) RecordScanDetection(d *core.ScanDetection) error {
	return b.sendEnvelope(streaming.TypeScanDetection, d)
}

func (b *Backend) RecordControlEvent(ev *core.ControlEvent) error {
	return b.sendEnvelope(streaming.TypeControlEvent, ev)
}
