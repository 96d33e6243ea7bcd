package realtime

import (
	"encoding/json"

	"github.com/Tyrowin/guildchat/internal/chat"
)

// Envelope kinds understood by Classify.
const (
	KindChannel  = "channel"
	KindReply    = "reply"
	KindThread   = "thread"
	KindPersonal = "personal"
)

// Envelope is the inbound unit of work carried by a "message" event.
type Envelope struct {
	Kind            string `json:"kind"`
	Content         string `json:"content"`
	Author          string `json:"author"`
	ChannelID       string `json:"channelId,omitempty"`
	ServerID        string `json:"serverId,omitempty"`
	ThreadID        string `json:"threadId,omitempty"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
	RecipientID     string `json:"recipientId,omitempty"`
	ConversationID  string `json:"conversationId,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
	ImageAssetID    string `json:"imageAssetId,omitempty"`
	MessageType     string `json:"messageType,omitempty"`
}

// UnmarshalJSON accepts the web client's field names ("type", "user_id") as
// aliases for Kind and Author.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	type plain Envelope
	var aux struct {
		plain
		Type   string `json:"type"`
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Envelope(aux.plain)
	if e.Kind == "" {
		e.Kind = aux.Type
	}
	if e.Author == "" {
		e.Author = aux.UserID
	}
	return nil
}

func (e Envelope) body() chat.Body {
	return chat.Body{
		Content:      e.Content,
		AuthorID:     e.Author,
		ImageURL:     e.ImageURL,
		ImageAssetID: e.ImageAssetID,
	}
}

// Route is the closed set of delivery paths an envelope can resolve to.
// The implementations are ChannelRoute, ThreadReplyRoute, ReplyRoute,
// ThreadRoute, PersonalRoute and UnknownRoute.
type Route interface {
	Name() string
	sealed()
}

// ChannelRoute persists a new channel message.
type ChannelRoute struct{ Message chat.ChannelMessage }

// ThreadReplyRoute persists a reply inside a thread.
type ThreadReplyRoute struct{ Message chat.ThreadReply }

// ReplyRoute persists a flat reply; the gateway infers the surface from the
// parent message.
type ReplyRoute struct{ Message chat.Reply }

// ThreadRoute persists a new message in an existing thread.
type ThreadRoute struct{ Message chat.ThreadMessage }

// PersonalRoute persists a direct message.
type PersonalRoute struct{ Message chat.PersonalMessage }

// UnknownRoute is any kind the router does not recognise.
type UnknownRoute struct{ Kind string }

func (ChannelRoute) Name() string     { return "channel" }
func (ThreadReplyRoute) Name() string { return "thread_reply" }
func (ReplyRoute) Name() string       { return "reply" }
func (ThreadRoute) Name() string      { return "thread" }
func (PersonalRoute) Name() string    { return "personal" }
func (UnknownRoute) Name() string     { return "unknown" }

func (ChannelRoute) sealed()     {}
func (ThreadReplyRoute) sealed() {}
func (ReplyRoute) sealed()       {}
func (ThreadRoute) sealed()      {}
func (PersonalRoute) sealed()    {}
func (UnknownRoute) sealed()     {}

// Classify resolves an envelope to exactly one route. A reply carrying both a
// parent message id and a thread id is a thread reply; any other reply is
// flat.
func Classify(env Envelope) Route {
	switch env.Kind {
	case KindChannel:
		return ChannelRoute{Message: chat.ChannelMessage{
			Body:      env.body(),
			ChannelID: env.ChannelID,
			ServerID:  env.ServerID,
		}}
	case KindReply:
		if env.ParentMessageID != "" && env.ThreadID != "" {
			return ThreadReplyRoute{Message: chat.ThreadReply{
				Body:            env.body(),
				ParentMessageID: env.ParentMessageID,
				ThreadID:        env.ThreadID,
			}}
		}
		messageType := env.MessageType
		if messageType == "" {
			messageType = env.Kind
		}
		return ReplyRoute{Message: chat.Reply{
			Body:            env.body(),
			ParentMessageID: env.ParentMessageID,
			MessageType:     messageType,
		}}
	case KindThread:
		return ThreadRoute{Message: chat.ThreadMessage{
			Body:     env.body(),
			ThreadID: env.ThreadID,
		}}
	case KindPersonal:
		return PersonalRoute{Message: chat.PersonalMessage{
			Body:        env.body(),
			RecipientID: env.RecipientID,
		}}
	default:
		return UnknownRoute{Kind: env.Kind}
	}
}
