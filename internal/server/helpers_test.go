package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tyrowin/guildchat/internal/store"
)

const testOrigin = "http://localhost:8080"

// newTestServer starts a server backed by an in-memory store. customize may
// adjust the configuration before it is applied.
func newTestServer(t *testing.T, customize func(cfg *Config)) (*Server, *httptest.Server) {
	t.Helper()

	gateway, err := store.OpenMemory()
	require.NoError(t, err)

	cfg := NewConfig()
	if customize != nil {
		customize(cfg)
	}

	srv := New(*cfg, gateway, zap.NewNop())
	srv.StartHub()
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		_ = srv.Hub().Shutdown(2 * time.Second)
		ts.Close()
		_ = gateway.Close()
		SetConfig(nil)
	})
	return srv, ts
}

func wsURL(ts *httptest.Server, userID string) string {
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if userID != "" {
		u += "?userId=" + url.QueryEscape(userID)
	}
	return u
}

func dial(t *testing.T, ts *httptest.Server, userID string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, userID), http.Header{"Origin": {testOrigin}})
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(Frame{Event: event, Data: raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// readFrames reads one WebSocket message and splits it into frames.
func readFrames(t *testing.T, conn *websocket.Conn, timeout time.Duration) []Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frames []Frame
	for _, line := range strings.Split(string(raw), "\n") {
		var frame Frame
		require.NoError(t, json.Unmarshal([]byte(line), &frame), "frame %q", line)
		frames = append(frames, frame)
	}
	return frames
}

// awaitEvent reads frames until one named event satisfies match, decoding
// its payload into v.
func awaitEvent(t *testing.T, conn *websocket.Conn, event string, v any, match func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, frame := range readFrames(t, conn, time.Until(deadline)) {
			if frame.Event != event {
				continue
			}
			require.NoError(t, json.Unmarshal(frame.Data, v))
			if match == nil || match() {
				return
			}
		}
	}
	t.Fatalf("event %q not received", event)
}
