package rpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// testServer поднимает игровой сервер в процессе. Он принимает сокеты, складывает
// входящие кадры в inbound и позволяет тесту писать кадры клиенту.
type testServer struct {
	*httptest.Server

	upgrader websocket.Upgrader
	codec    Codec
	accept   atomic.Bool

	mu   sync.Mutex
	conn *websocket.Conn

	connected chan struct{}
	inbound   chan map[string]any
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithCodec(t, JSONCodec{})
}

func newTestServerWithCodec(t *testing.T, codec Codec) *testServer {
	t.Helper()
	ts := &testServer{
		codec:     codec,
		connected: make(chan struct{}, 16),
		inbound:   make(chan map[string]any, 64),
	}
	ts.accept.Store(true)
	ts.Server = httptest.NewServer(http.HandlerFunc(ts.handle))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) handle(w http.ResponseWriter, r *http.Request) {
	if !ts.accept.Load() || r.URL.Path != DefaultPath {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := ts.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ts.mu.Lock()
	ts.conn = conn
	ts.mu.Unlock()
	ts.connected <- struct{}{}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f, err := ts.codec.Decode(data)
		if err != nil {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(f.Payload, &m); err != nil {
			continue
		}
		// исходящий запрос клиента классифицируется как "reply": вернём requestId на место
		if f.Kind == FrameReply {
			m[fieldRequestID] = float64(f.RequestID)
		}
		ts.inbound <- m
	}
}

func (ts *testServer) url() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + DefaultPath
}

// writeRaw отправляет клиенту кадр как есть.
func (ts *testServer) writeRaw(t *testing.T, raw string) {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotNil(t, ts.conn, "no client connected")
	require.NoError(t, ts.conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func (ts *testServer) writeEnvelope(t *testing.T, env Envelope) {
	t.Helper()
	data, err := ts.codec.Encode(env)
	require.NoError(t, err)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotNil(t, ts.conn, "no client connected")
	require.NoError(t, ts.conn.WriteMessage(ts.codec.MessageType(), data))
}

// reply отвечает на запрос с данным requestId.
func (ts *testServer) reply(t *testing.T, id uint64, payload string) {
	t.Helper()
	if payload == "" || payload == "{}" {
		ts.writeRaw(t, fmt.Sprintf(`{"requestId":%d}`, id))
		return
	}
	ts.writeRaw(t, fmt.Sprintf(`{"requestId":%d,%s`, id, strings.TrimPrefix(payload, "{")))
}

// next ждёт очередной входящий кадр.
func (ts *testServer) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case m := <-ts.inbound:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no frame from client")
		return nil
	}
}

func (ts *testServer) waitConnected(t *testing.T) {
	t.Helper()
	select {
	case <-ts.connected:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not connect")
	}
}

// dropClient рвёт текущее соединение со стороны сервера.
func (ts *testServer) dropClient() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.conn != nil {
		_ = ts.conn.Close()
		ts.conn = nil
	}
}

func requestIDOf(t *testing.T, m map[string]any) uint64 {
	t.Helper()
	v, ok := m[fieldRequestID].(float64)
	require.True(t, ok, "frame has no requestId: %v", m)
	return uint64(v)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient подключает клиента к ts с короткими таймаутами.
func newTestClient(t *testing.T, ts *testServer, mutate func(*Config), opts ...Option) *Client {
	t.Helper()
	cfg := Config{
		URL:            ts.url(),
		ConnectTimeout: 2 * time.Second,
		RequestTimeout: time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c := New(cfg, append([]Option{WithLogger(quietLogger())}, opts...)...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// statusRecorder собирает все уведомления о статусе.
type statusRecorder struct {
	ch chan Status
}

func recordStatus(c *Client) *statusRecorder {
	r := &statusRecorder{ch: make(chan Status, 64)}
	c.AddConnectionStatusListener(NewStatusListener(func(s Status) { r.ch <- s }))
	return r
}

func (r *statusRecorder) expect(t *testing.T, want ...Status) {
	t.Helper()
	for i, w := range want {
		select {
		case got := <-r.ch:
			require.Equal(t, w, got, "status #%d", i)
		case <-time.After(3 * time.Second):
			t.Fatalf("status #%d: want %v, got nothing", i, w)
		}
	}
}

func (r *statusRecorder) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case got := <-r.ch:
		t.Fatalf("unexpected status %v", got)
	case <-time.After(d):
	}
}
