package streaming

import (
	"encoding/json"

	"github.com/microrover/missionctl/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartRun      = "start_run"
	TypeEndRun        = "end_run"
	TypeTick          = "tick"
	TypePhaseChange   = "phase_change"
	TypeScanDetection = "scan_detection"
	TypeControlEvent  = "control_event"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartRunPayload carries run and arena data.
type StartRunPayload struct {
	Run   *core.Run   `json:"run"`
	Arena *core.Arena `json:"arena"`
}
