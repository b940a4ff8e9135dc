package streaming

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/gridironlab/playbook/internal/geo"
	"github.com/gridironlab/playbook/internal/playback"
	"github.com/gridironlab/playbook/internal/session"
	"github.com/gridironlab/playbook/pkg/core"
	"github.com/gridironlab/playbook/pkg/streaming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and acks load_play. When dropFirst is set the
// first connection is closed after its first message.
func testServer(t *testing.T, dropFirst bool) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		n := conns.Add(1)

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

			if env.Type == streaming.TypeLoadPlay {
				data, _ := json.Marshal(streaming.AckMessage{Type: streaming.TypeAck, For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
			if dropFirst && n == 1 {
				return
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) types() []string {
	var out []string
	for _, env := range m.all() {
		out = append(out, env.Type)
	}
	return out
}

func (m *messageLog) count(msgType string) int {
	n := 0
	for _, env := range m.all() {
		if env.Type == msgType {
			n++
		}
	}
	return n
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

type mapLoader map[string]core.Play

func (m mapLoader) GetPlay(_ context.Context, id string) (*core.Play, error) {
	p := m[id]
	return &p, nil
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	loader := mapLoader{"dig": core.Play{
		ID:      "dig",
		Players: []core.Player{{ID: "wr"}},
		Drawings: []core.Drawing{geo.DrawingFromPolyline("dig-r", core.StringPtr("wr"),
			[]core.Coordinate{{X: 0, Y: 0}, {X: 0, Y: 10}}, core.DrawingStyle{})},
	}}
	return session.New(session.Config{ID: "viewer", SpeedFps: 10, Loader: loader})
}

func TestLoadPlayAndFrames(t *testing.T) {
	srv, ml := testServer(t, false)
	defer srv.Close()

	p := New(Config{URL: wsURL(srv), Secret: "s3cret", WaitForAck: true}, nil)
	require.NoError(t, p.Init())
	defer p.Close()

	s := newTestSession(t)
	require.NoError(t, s.Load(context.Background(), "dig"))

	require.NoError(t, p.LoadPlay("viewer", s.State()))
	require.NoError(t, p.SendFrame("viewer", playback.SnapshotFrame(s.State())))

	assert.Eventually(t, func() bool { return len(ml.all()) == 2 }, time.Second, 5*time.Millisecond)
	msgs := ml.all()
	assert.Equal(t, streaming.TypeLoadPlay, msgs[0].Type)
	assert.Equal(t, "viewer", msgs[0].Session)
	assert.Equal(t, streaming.TypeFrame, msgs[1].Type)
	assert.Equal(t, "s3cret", ml.secret)

	var load streaming.LoadPlayPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &load))
	assert.Equal(t, "dig", load.PlayID)
	assert.Equal(t, 2000.0, load.TotalDuration)
	assert.Contains(t, load.Routes, "dig-r")

	var frame streaming.FramePayload
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &frame))
	require.Len(t, frame.Routes, 1)
	require.NotNil(t, frame.Routes[0].End)
	assert.Equal(t, core.Coordinate{X: 0, Y: 10}, *frame.Routes[0].End)
	assert.InDelta(t, math.Pi/2, frame.Routes[0].Heading, 1e-9)
}

func TestStream(t *testing.T) {
	srv, ml := testServer(t, false)
	defer srv.Close()

	p := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, p.Init())
	defer p.Close()

	s := newTestSession(t)
	frames, err := s.Subscribe(64)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.Stream(context.Background(), s, frames) }()

	require.NoError(t, s.Load(context.Background(), "dig"))
	s.Dispatch(playback.Play{})
	s.Dispatch(playback.Tick{DeltaTime: 1000})
	s.Dispatch(playback.Tick{DeltaTime: 5000})
	s.Dispatch(playback.Tick{DeltaTime: 16})
	s.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after session close")
	}

	assert.Eventually(t, func() bool { return ml.count(streaming.TypeCloseSession) == 1 }, time.Second, 5*time.Millisecond)
	types := ml.types()
	assert.Equal(t, streaming.TypeLoadPlay, types[0])
	assert.Equal(t, 5, ml.count(streaming.TypeFrame))
	assert.Equal(t, 1, ml.count(streaming.TypeComplete), "complete is sent once per play")
	assert.Equal(t, streaming.TypeCloseSession, types[len(types)-1])
}

func TestStream_ContextCancel(t *testing.T) {
	srv, _ := testServer(t, false)
	defer srv.Close()

	p := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, p.Init())
	defer p.Close()

	s := newTestSession(t)
	frames, err := s.Subscribe(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Stream(ctx, s, frames), context.Canceled)
}

func TestReconnectReplaysLoadPlay(t *testing.T) {
	srv, ml := testServer(t, true)
	defer srv.Close()

	p := New(Config{URL: wsURL(srv)}, nil)
	p.conn.baseBackoff = 10 * time.Millisecond
	require.NoError(t, p.Init())
	defer p.Close()

	s := newTestSession(t)
	require.NoError(t, s.Load(context.Background(), "dig"))
	require.NoError(t, p.LoadPlay("viewer", s.State()))

	// the server drops the first connection; the replay arrives on the second
	assert.Eventually(t, func() bool { return ml.count(streaming.TypeLoadPlay) >= 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestInit_DialError(t *testing.T) {
	p := New(Config{URL: "ws://127.0.0.1:1/frames"}, nil)
	assert.Error(t, p.Init())
	assert.NoError(t, p.Close())
}

func TestFramePayload_MatchesFrameJSON(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Load(context.Background(), "dig"))
	s.Dispatch(playback.Seek{Progress: 0.5})
	f := playback.SnapshotFrame(s.State())

	direct, err := json.Marshal(f)
	require.NoError(t, err)
	converted, err := json.Marshal(FramePayload(f))
	require.NoError(t, err)
	assert.JSONEq(t, string(direct), string(converted))
}

func TestMarshalEnvelope_NoPayload(t *testing.T) {
	data, err := marshalEnvelope(streaming.TypeCloseSession, "v", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"close_session","session":"v"}`, string(data))
}
