package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/guildchat/internal/chat"
	"github.com/Tyrowin/guildchat/internal/realtime"
)

func TestPresenceFollowsConnections(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	alice := dial(t, ts, "alice")
	var active []string
	awaitEvent(t, alice, realtime.EventSetActiveUsers, &active, func() bool {
		return len(active) == 1
	})
	assert.Equal(t, []string{"alice"}, active)

	bob := dial(t, ts, "bob")
	awaitEvent(t, alice, realtime.EventSetActiveUsers, &active, func() bool {
		return len(active) == 2
	})
	assert.Equal(t, []string{"alice", "bob"}, active)

	sendFrame(t, bob, realtime.EventDisconnect, struct{}{})
	awaitEvent(t, alice, realtime.EventSetActiveUsers, &active, func() bool {
		return len(active) == 1
	})
	assert.Equal(t, []string{"alice"}, active)

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"alice"}, srv.Hub().ActiveUsers())
}

func TestAnonymousConnectionIsNotListed(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	dial(t, ts, "")
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	member := dial(t, ts, "carol")
	var active []string
	awaitEvent(t, member, realtime.EventSetActiveUsers, &active, nil)
	assert.Equal(t, []string{"carol"}, active)
}

func TestChannelMessageRoundTrip(t *testing.T) {
	_, ts := newTestServer(t, nil)

	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")

	sendFrame(t, alice, realtime.EventMessage, map[string]string{
		"kind":      "channel",
		"content":   "hello",
		"author":    "alice",
		"channelId": "general",
		"serverId":  "s1",
	})
	sendFrame(t, alice, realtime.EventGetChannelMessage, realtime.ChannelQuery{ChannelID: "general", ServerID: "s1"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		var msgs []chat.Message
		awaitEvent(t, conn, realtime.EventSetMessage, &msgs, nil)
		require.Len(t, msgs, 1)
		assert.Equal(t, "hello", msgs[0].Content)
		assert.Equal(t, "alice", msgs[0].AuthorID)
		assert.Equal(t, chat.TypeChannel, msgs[0].MessageType)
	}
}

func TestEmptyChannelBroadcastsEmptyList(t *testing.T) {
	_, ts := newTestServer(t, nil)

	conn := dial(t, ts, "alice")
	sendFrame(t, conn, realtime.EventGetChannelMessage, realtime.ChannelQuery{ChannelID: "empty", ServerID: "s1"})

	var msgs []chat.Message
	awaitEvent(t, conn, realtime.EventSetMessage, &msgs, nil)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestMissingRoleBroadcastsNull(t *testing.T) {
	_, ts := newTestServer(t, nil)

	conn := dial(t, ts, "alice")
	sendFrame(t, conn, realtime.EventMemberRoles, realtime.RoleQuery{UserID: "alice", ServerID: "s1"})

	role := &chat.Role{}
	awaitEvent(t, conn, realtime.EventSetCurrentUserRole, &role, nil)
	assert.Nil(t, role)
}

func TestUnknownEventsAndKindsAreDropped(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	conn := dial(t, ts, "alice")
	sendFrame(t, conn, "not-an-event", struct{}{})
	sendFrame(t, conn, realtime.EventMessage, map[string]string{"kind": "carrier-pigeon", "author": "alice"})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	dropped := func(reason string) float64 {
		return testutil.ToFloat64(srv.metrics.dropped.WithLabelValues(reason))
	}
	require.Eventually(t, func() bool {
		return dropped(realtime.DropUnknownEvent) == 1 &&
			dropped(realtime.DropUnknownKind) == 1 &&
			dropped(realtime.DropDecodeError) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The connection survives every drop.
	assert.Equal(t, 1, srv.Hub().ClientCount())
}

func TestFramesOverTheRateLimitAreDiscarded(t *testing.T) {
	srv, ts := newTestServer(t, func(cfg *Config) {
		cfg.RateLimit.Burst = 2
		cfg.RateLimit.RefillInterval = time.Minute
	})

	conn := dial(t, ts, "alice")
	for i := 0; i < 5; i++ {
		sendFrame(t, conn, realtime.EventBannedMembers, realtime.BannedQuery{ServerID: "s1"})
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(srv.metrics.rateLimited) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, float64(2), testutil.ToFloat64(srv.metrics.broadcasts.WithLabelValues(realtime.EventSetBannedMembers)))
}

func TestOversizedFrameClosesConnection(t *testing.T) {
	srv, ts := newTestServer(t, func(cfg *Config) {
		cfg.Server.MaxMessageSize = 64
	})

	conn := dial(t, ts, "alice")
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	sendFrame(t, conn, realtime.EventMessage, map[string]string{"content": strings.Repeat("x", 256)})

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, srv.Hub().ActiveUsers())
}

func TestDisallowedOriginIsRejected(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "mallory"), http.Header{"Origin": {"http://evil.example"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, srv.Hub().ClientCount())
}

func TestWildcardOriginAcceptsAnyOrigin(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *Config) {
		cfg.Server.AllowedOrigins = []string{"*"}
	})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "alice"), http.Header{"Origin": {"https://app.example"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	_ = conn.Close()
}

func TestShutdownClosesConnections(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	conn := dial(t, ts, "alice")
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Zero(t, srv.Hub().ClientCount())

	// Connections arriving after shutdown are refused by the hub.
	late, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "bob"), http.Header{"Origin": {testOrigin}})
	if err == nil {
		defer resp.Body.Close()
		require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = late.ReadMessage()
		assert.Error(t, err)
	}
}
