package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tyrowin/guildchat/internal/chat"
	"github.com/Tyrowin/guildchat/internal/realtime"
	"github.com/Tyrowin/guildchat/internal/realtime/mocks"
)

type dispatcherFixture struct {
	gateway *mocks.MockGateway
	out     *recordingBroadcaster
	obs     *countingObserver
	logs    *observer.ObservedLogs
	d       *realtime.Dispatcher
}

func newDispatcherFixture(t *testing.T, opts ...realtime.Option) *dispatcherFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	core, logs := observer.New(zapcore.DebugLevel)

	f := &dispatcherFixture{
		gateway: mocks.NewMockGateway(ctrl),
		out:     &recordingBroadcaster{},
		obs:     newCountingObserver(),
		logs:    logs,
	}
	opts = append([]realtime.Option{
		realtime.WithLogger(zap.New(core)),
		realtime.WithObserver(f.obs),
	}, opts...)
	f.d = realtime.NewDispatcher(f.gateway, f.out, opts...)
	return f
}

func TestDeliverChannel(t *testing.T) {
	f := newDispatcherFixture(t)
	want := chat.ChannelMessage{
		Body:      chat.Body{Content: "hello", AuthorID: "u1"},
		ChannelID: "c1",
		ServerID:  "s1",
	}
	f.gateway.EXPECT().SendChannelMessage(gomock.Any(), want).Return(nil)

	f.d.Deliver(context.Background(), realtime.Envelope{
		Kind: "channel", Content: "hello", Author: "u1", ChannelID: "c1", ServerID: "s1",
	})

	assert.Empty(t, f.out.Calls(), "send paths never broadcast")
	assert.Equal(t, 1, f.obs.routed["channel"])
}

func TestDeliverThreadReplyTieBreak(t *testing.T) {
	f := newDispatcherFixture(t)
	f.gateway.EXPECT().ReplyThreadMessage(gomock.Any(), chat.ThreadReply{
		Body:            chat.Body{Content: "re", AuthorID: "u1"},
		ParentMessageID: "m1",
		ThreadID:        "t1",
	}).Return(nil)

	f.d.Deliver(context.Background(), realtime.Envelope{
		Kind: "reply", Content: "re", Author: "u1", ParentMessageID: "m1", ThreadID: "t1",
	})

	assert.Equal(t, 1, f.obs.routed["thread_reply"])
}

func TestDeliverFlatReply(t *testing.T) {
	f := newDispatcherFixture(t)
	f.gateway.EXPECT().ReplyMessage(gomock.Any(), chat.Reply{
		Body:            chat.Body{Content: "re", AuthorID: "u1"},
		ParentMessageID: "m1",
		MessageType:     "reply",
	}).Return(nil)

	f.d.Deliver(context.Background(), realtime.Envelope{
		Kind: "reply", Content: "re", Author: "u1", ParentMessageID: "m1",
	})
}

func TestDeliverThreadAndPersonal(t *testing.T) {
	f := newDispatcherFixture(t)
	gomock.InOrder(
		f.gateway.EXPECT().SendThreadMessage(gomock.Any(), chat.ThreadMessage{
			Body:     chat.Body{Content: "a", AuthorID: "u1"},
			ThreadID: "t1",
		}).Return(nil),
		f.gateway.EXPECT().SendPersonalMessage(gomock.Any(), chat.PersonalMessage{
			Body:        chat.Body{Content: "b", AuthorID: "u1"},
			RecipientID: "u2",
		}).Return(nil),
	)

	f.d.Deliver(context.Background(), realtime.Envelope{Kind: "thread", Content: "a", Author: "u1", ThreadID: "t1"})
	f.d.Deliver(context.Background(), realtime.Envelope{Kind: "personal", Content: "b", Author: "u1", RecipientID: "u2"})
}

func TestDeliverUnknownKind(t *testing.T) {
	f := newDispatcherFixture(t)

	// No EXPECT calls: any gateway call fails the test.
	f.d.Deliver(context.Background(), realtime.Envelope{Kind: "broadcast", Content: "x", Author: "u1"})

	assert.Empty(t, f.out.Calls())
	assert.Equal(t, 1, f.obs.dropped[realtime.DropUnknownKind])

	entries := f.logs.FilterMessage("Unknown message type").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "broadcast", entries[0].ContextMap()["kind"])
}

func TestDeliverGatewayFailure(t *testing.T) {
	f := newDispatcherFixture(t)
	f.gateway.EXPECT().SendChannelMessage(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	f.d.Deliver(context.Background(), realtime.Envelope{Kind: "channel", Content: "x", Author: "u1", ChannelID: "c1", ServerID: "s1"})

	assert.Empty(t, f.out.Calls())
	assert.Equal(t, 1, f.obs.failed[realtime.OpSendChannelMessage])
	assert.Equal(t, 1, f.logs.FilterMessage("Error persisting message").Len())
}

func TestDeliverRecoversPanic(t *testing.T) {
	f := newDispatcherFixture(t)
	f.gateway.EXPECT().SendThreadMessage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, chat.ThreadMessage) error { panic("boom") },
	)

	assert.NotPanics(t, func() {
		f.d.Deliver(context.Background(), realtime.Envelope{Kind: "thread", Author: "u1", ThreadID: "t1"})
	})
	assert.Equal(t, 1, f.obs.failed[realtime.OpSendThreadMessage])
	assert.Equal(t, 1, f.logs.FilterMessage("Recovered from panic in handler").Len())
}

func TestDeliverAppliesTimeout(t *testing.T) {
	f := newDispatcherFixture(t, realtime.WithTimeout(20*time.Millisecond))
	f.gateway.EXPECT().SendChannelMessage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ chat.ChannelMessage) error {
			<-ctx.Done()
			return ctx.Err()
		},
	)

	start := time.Now()
	f.d.Deliver(context.Background(), realtime.Envelope{Kind: "channel", Author: "u1", ChannelID: "c1", ServerID: "s1"})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, f.obs.failed[realtime.OpSendChannelMessage])
}

func TestQueriesBroadcastResults(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	channelMsgs := []chat.Message{{ID: "m1", Content: "a", ChannelID: "c1"}}
	threadMsgs := []chat.Message{{ID: "m2", Content: "b", ThreadID: "t1"}}
	personalMsgs := []chat.Message{{ID: "m3", Content: "c", ConversationID: "cv1"}}
	role := &chat.Role{ID: "r1", Name: "Moderator", ServerID: "s1"}
	banned := []chat.Member{{UserID: "u9", ServerID: "s1", Username: "nine", Banned: true}}

	f.gateway.EXPECT().GetMessagesByChannel(gomock.Any(), "c1", "s1").Return(channelMsgs, nil)
	f.gateway.EXPECT().GetThreadMessages(gomock.Any(), "t1", "s1").Return(threadMsgs, nil)
	f.gateway.EXPECT().GetPersonalMessages(gomock.Any(), "cv1", "u1").Return(personalMsgs, nil)
	f.gateway.EXPECT().GetCurrentUserRole(gomock.Any(), "u1", "s1").Return(role, nil)
	f.gateway.EXPECT().GetBannedMembers(gomock.Any(), "s1").Return(banned, nil)

	f.d.ChannelMessages(ctx, realtime.ChannelQuery{ChannelID: "c1", ServerID: "s1"})
	f.d.ThreadMessages(ctx, realtime.ThreadQuery{ThreadID: "t1", ServerID: "s1", ChannelID: "c1"})
	f.d.PersonalMessages(ctx, realtime.PersonalQuery{ConversationID: "cv1", UserID: "u1"})
	f.d.CurrentUserRole(ctx, realtime.RoleQuery{UserID: "u1", ServerID: "s1"})
	f.d.BannedMembers(ctx, realtime.BannedQuery{ServerID: "s1"})

	calls := f.out.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, realtime.EventSetMessage, calls[0].Event)
	assert.Equal(t, channelMsgs, calls[0].Payload)
	assert.Equal(t, realtime.EventSetThreadMessages, calls[1].Event)
	assert.Equal(t, threadMsgs, calls[1].Payload)
	assert.Equal(t, realtime.EventSetPersonalMessages, calls[2].Event)
	assert.Equal(t, personalMsgs, calls[2].Payload)
	assert.Equal(t, realtime.EventSetCurrentUserRole, calls[3].Event)
	assert.Equal(t, role, calls[3].Payload)
	assert.Equal(t, realtime.EventSetBannedMembers, calls[4].Event)
	assert.Equal(t, banned, calls[4].Payload)
}

func TestQueryEmptyResultEncodesAsArray(t *testing.T) {
	f := newDispatcherFixture(t)
	f.gateway.EXPECT().GetMessagesByChannel(gomock.Any(), "c1", "s1").Return(nil, nil)

	f.d.ChannelMessages(context.Background(), realtime.ChannelQuery{ChannelID: "c1", ServerID: "s1"})

	calls := f.out.Calls()
	require.Len(t, calls, 1)
	raw, err := json.Marshal(calls[0].Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestQueryMissingRoleBroadcastsNull(t *testing.T) {
	f := newDispatcherFixture(t)
	f.gateway.EXPECT().GetCurrentUserRole(gomock.Any(), "u1", "s1").Return(nil, nil)

	f.d.CurrentUserRole(context.Background(), realtime.RoleQuery{UserID: "u1", ServerID: "s1"})

	calls := f.out.Calls()
	require.Len(t, calls, 1)
	raw, err := json.Marshal(calls[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestQueryFailureDoesNotBroadcast(t *testing.T) {
	f := newDispatcherFixture(t)
	f.gateway.EXPECT().GetPersonalMessages(gomock.Any(), "cv1", "u3").Return(nil, chat.ErrNotParticipant)

	f.d.PersonalMessages(context.Background(), realtime.PersonalQuery{ConversationID: "cv1", UserID: "u3"})

	assert.Empty(t, f.out.Calls())
	assert.Equal(t, 1, f.obs.failed[realtime.OpGetPersonalMessages])

	entries := f.logs.FilterMessage("Error fetching collection").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "cv1", entries[0].ContextMap()["conversation_id"])
}

func TestHandleEventRoutesByName(t *testing.T) {
	f := newDispatcherFixture(t)
	f.gateway.EXPECT().SendChannelMessage(gomock.Any(), chat.ChannelMessage{
		Body:      chat.Body{Content: "hi", AuthorID: "u1"},
		ChannelID: "c1",
		ServerID:  "s1",
	}).Return(nil)
	f.gateway.EXPECT().GetThreadMessages(gomock.Any(), "t1", "s1").Return([]chat.Message{}, nil)
	f.gateway.EXPECT().GetBannedMembers(gomock.Any(), "s1").Return(nil, nil)

	ctx := context.Background()
	f.d.HandleEvent(ctx, realtime.EventMessage, json.RawMessage(`{"type":"channel","user_id":"u1","content":"hi","channelId":"c1","serverId":"s1"}`))
	f.d.HandleEvent(ctx, realtime.EventThreadMessages, json.RawMessage(`{"threadId":"t1","serverId":"s1"}`))
	f.d.HandleEvent(ctx, realtime.EventBannedMembers, json.RawMessage(`{"serverId":"s1"}`))

	calls := f.out.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, realtime.EventSetThreadMessages, calls[0].Event)
	assert.Equal(t, realtime.EventSetBannedMembers, calls[1].Event)
}

func TestHandleEventDrops(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	f.d.HandleEvent(ctx, "typing", json.RawMessage(`{}`))
	f.d.HandleEvent(ctx, realtime.EventMessage, json.RawMessage(`{"kind":`))
	f.d.HandleEvent(ctx, realtime.EventMemberRoles, json.RawMessage(`"not an object"`))

	assert.Empty(t, f.out.Calls())
	assert.Equal(t, 1, f.obs.dropped[realtime.DropUnknownEvent])
	assert.Equal(t, 2, f.obs.dropped[realtime.DropDecodeError])
}

func TestHandleEventEmptyPayload(t *testing.T) {
	f := newDispatcherFixture(t)
	f.gateway.EXPECT().GetBannedMembers(gomock.Any(), "").Return(nil, nil)

	f.d.HandleEvent(context.Background(), realtime.EventBannedMembers, nil)

	assert.Len(t, f.out.Calls(), 1)
}
