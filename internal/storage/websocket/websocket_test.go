package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microrover/missionctl/pkg/core"
	"github.com/microrover/missionctl/pkg/streaming"
)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and sends acks for start_run/end_run.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			// Ack start_run and end_run.
			if env.Type == streaming.TypeStartRun || env.Type == streaming.TypeEndRun {
				ack := streaming.AckMessage{Type: "ack", For: env.Type}
				data, _ := json.Marshal(ack)
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStartAndEndRun(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "test"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	run := &core.Run{Name: "trial 5", Tag: "qualifying"}
	arena := &core.Arena{Name: "gym"}
	require.NoError(t, b.StartRun(run, arena))

	require.NoError(t, b.EndRun())

	msgs := ml.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, streaming.TypeStartRun, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndRun, msgs[len(msgs)-1].Type)
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "s"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	run := &core.Run{Name: "r"}
	arena := &core.Arena{Name: "a"}
	require.NoError(t, b.StartRun(run, arena))

	require.NoError(t, b.RecordTick(&core.TickSample{Tick: 1, Phase: "WaitForStart"}))
	require.NoError(t, b.RecordTick(&core.TickSample{Tick: 2, Phase: "WaitForStart"}))
	require.NoError(t, b.RecordPhaseChange(&core.PhaseChange{Tick: 2, From: "WaitForStart", To: "ApproachObstacle"}))
	require.NoError(t, b.RecordScanDetection(&core.ScanDetection{Tick: 3, MeasuredMM: 300}))
	require.NoError(t, b.RecordControlEvent(&core.ControlEvent{Source: "button", Name: "start"}))

	require.NoError(t, b.EndRun())

	// Give a moment for all messages to arrive at server.
	time.Sleep(50 * time.Millisecond)

	msgs := ml.all()

	types := make(map[string]int)
	for _, m := range msgs {
		types[m.Type]++
	}

	assert.Equal(t, 1, types[streaming.TypeStartRun])
	assert.Equal(t, 1, types[streaming.TypeEndRun])
	assert.Equal(t, 2, types[streaming.TypeTick])
	assert.Equal(t, 1, types[streaming.TypePhaseChange])
	assert.Equal(t, 1, types[streaming.TypeScanDetection])
	assert.Equal(t, 1, types[streaming.TypeControlEvent])
}

func TestStartRunPayloadRoundTrip(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "s"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	run := &core.Run{Name: "trial 9", RobotName: "rover-1", TickRateHz: 50}
	arena := &core.Arena{Name: "gym", WidthMM: 2400}
	require.NoError(t, b.StartRun(run, arena))

	msgs := ml.all()
	require.NotEmpty(t, msgs)

	var payload streaming.StartRunPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
	require.NotNil(t, payload.Run)
	require.NotNil(t, payload.Arena)
	assert.Equal(t, "trial 9", payload.Run.Name)
	assert.Equal(t, float64(2400), payload.Arena.WidthMM)
}

func TestEndRunClearsCachedStart(t *testing.T) {
	srv, _ := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "s"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRun(&core.Run{Name: "r"}, &core.Arena{Name: "a"}))

	b.conn.mu.Lock()
	cached := b.conn.cachedStartMsg
	b.conn.mu.Unlock()
	require.NotNil(t, cached)

	require.NoError(t, b.EndRun())

	b.conn.mu.Lock()
	cached = b.conn.cachedStartMsg
	b.conn.mu.Unlock()
	assert.Nil(t, cached)
}
