package realtime_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/guildchat/internal/chat"
	"github.com/Tyrowin/guildchat/internal/realtime"
)

func TestClassify(t *testing.T) {
	body := chat.Body{Content: "hi", AuthorID: "u1"}

	tests := []struct {
		name string
		env  realtime.Envelope
		want realtime.Route
	}{
		{
			name: "channel",
			env:  realtime.Envelope{Kind: "channel", Content: "hi", Author: "u1", ChannelID: "c1", ServerID: "s1"},
			want: realtime.ChannelRoute{Message: chat.ChannelMessage{Body: body, ChannelID: "c1", ServerID: "s1"}},
		},
		{
			name: "reply with parent and thread is a thread reply",
			env:  realtime.Envelope{Kind: "reply", Content: "hi", Author: "u1", ParentMessageID: "m1", ThreadID: "t1"},
			want: realtime.ThreadReplyRoute{Message: chat.ThreadReply{Body: body, ParentMessageID: "m1", ThreadID: "t1"}},
		},
		{
			name: "reply with parent only is flat",
			env:  realtime.Envelope{Kind: "reply", Content: "hi", Author: "u1", ParentMessageID: "m1"},
			want: realtime.ReplyRoute{Message: chat.Reply{Body: body, ParentMessageID: "m1", MessageType: "reply"}},
		},
		{
			name: "reply with thread only is flat",
			env:  realtime.Envelope{Kind: "reply", Content: "hi", Author: "u1", ThreadID: "t1"},
			want: realtime.ReplyRoute{Message: chat.Reply{Body: body, MessageType: "reply"}},
		},
		{
			name: "reply keeps explicit message type",
			env:  realtime.Envelope{Kind: "reply", Content: "hi", Author: "u1", ParentMessageID: "m1", MessageType: "quote"},
			want: realtime.ReplyRoute{Message: chat.Reply{Body: body, ParentMessageID: "m1", MessageType: "quote"}},
		},
		{
			name: "thread",
			env:  realtime.Envelope{Kind: "thread", Content: "hi", Author: "u1", ThreadID: "t1"},
			want: realtime.ThreadRoute{Message: chat.ThreadMessage{Body: body, ThreadID: "t1"}},
		},
		{
			name: "personal",
			env:  realtime.Envelope{Kind: "personal", Content: "hi", Author: "u1", RecipientID: "u2"},
			want: realtime.PersonalRoute{Message: chat.PersonalMessage{Body: body, RecipientID: "u2"}},
		},
		{
			name: "unknown kind",
			env:  realtime.Envelope{Kind: "broadcast", Content: "hi", Author: "u1"},
			want: realtime.UnknownRoute{Kind: "broadcast"},
		},
		{
			name: "empty kind",
			env:  realtime.Envelope{Content: "hi"},
			want: realtime.UnknownRoute{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, realtime.Classify(tt.env))
		})
	}
}

func TestClassifyCarriesImage(t *testing.T) {
	route := realtime.Classify(realtime.Envelope{
		Kind:         "channel",
		Author:       "u1",
		ImageURL:     "https://cdn.example.com/a.png",
		ImageAssetID: "asset-1",
	})

	ch, ok := route.(realtime.ChannelRoute)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/a.png", ch.Message.ImageURL)
	assert.Equal(t, "asset-1", ch.Message.ImageAssetID)
}

func TestRouteNames(t *testing.T) {
	assert.Equal(t, "channel", realtime.ChannelRoute{}.Name())
	assert.Equal(t, "thread_reply", realtime.ThreadReplyRoute{}.Name())
	assert.Equal(t, "reply", realtime.ReplyRoute{}.Name())
	assert.Equal(t, "thread", realtime.ThreadRoute{}.Name())
	assert.Equal(t, "personal", realtime.PersonalRoute{}.Name())
	assert.Equal(t, "unknown", realtime.UnknownRoute{}.Name())
}

func TestEnvelopeUnmarshalAliases(t *testing.T) {
	var env realtime.Envelope
	err := json.Unmarshal([]byte(`{"type":"channel","user_id":"u1","content":"hi","channelId":"c1","serverId":"s1"}`), &env)
	require.NoError(t, err)

	assert.Equal(t, "channel", env.Kind)
	assert.Equal(t, "u1", env.Author)
	assert.Equal(t, "c1", env.ChannelID)
	assert.Equal(t, "s1", env.ServerID)
}

func TestEnvelopeUnmarshalPrefersCanonicalNames(t *testing.T) {
	var env realtime.Envelope
	err := json.Unmarshal([]byte(`{"kind":"thread","type":"channel","author":"a","user_id":"b"}`), &env)
	require.NoError(t, err)

	assert.Equal(t, "thread", env.Kind)
	assert.Equal(t, "a", env.Author)
}

func TestEnvelopeUnmarshalRejectsBadJSON(t *testing.T) {
	var env realtime.Envelope
	assert.Error(t, json.Unmarshal([]byte(`{"kind":`), &env))
	assert.Error(t, json.Unmarshal([]byte(`{"kind":7}`), &env))
}
