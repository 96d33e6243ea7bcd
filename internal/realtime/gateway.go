package realtime

//go:generate mockgen -source=gateway.go -destination=mocks/mock_gateway.go -package=mocks

import (
	"context"

	"github.com/Tyrowin/guildchat/internal/chat"
)

// Gateway is the durable storage collaborator. Every call may block and may
// fail; the core treats failures as local and non-fatal.
type Gateway interface {
	SendChannelMessage(ctx context.Context, msg chat.ChannelMessage) error
	ReplyMessage(ctx context.Context, msg chat.Reply) error
	SendThreadMessage(ctx context.Context, msg chat.ThreadMessage) error
	ReplyThreadMessage(ctx context.Context, msg chat.ThreadReply) error
	SendPersonalMessage(ctx context.Context, msg chat.PersonalMessage) error

	GetMessagesByChannel(ctx context.Context, channelID, serverID string) ([]chat.Message, error)
	GetThreadMessages(ctx context.Context, threadID, serverID string) ([]chat.Message, error)
	GetPersonalMessages(ctx context.Context, conversationID, userID string) ([]chat.Message, error)
	GetCurrentUserRole(ctx context.Context, userID, serverID string) (*chat.Role, error)
	GetBannedMembers(ctx context.Context, serverID string) ([]chat.Member, error)
}

// Broadcaster pushes an event to every open connection.
//
// Broadcast is called while the Registry holds its lock, so implementations
// must enqueue and return without waiting on the network.
type Broadcaster interface {
	Broadcast(event string, payload any)
}
