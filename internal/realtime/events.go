package realtime

// Inbound event names.
const (
	EventMessage           = "message"
	EventGetChannelMessage = "get-channel-message"
	EventThreadMessages    = "thread-messages"
	EventPersonalMessage   = "personal-message"
	EventMemberRoles       = "member-roles"
	EventBannedMembers     = "banned-members"
	EventDisconnect        = "disconnect"
)

// Outbound event names.
const (
	EventSetActiveUsers      = "set-active-users"
	EventSetMessage          = "set-message"
	EventSetThreadMessages   = "set-thread-messages"
	EventSetPersonalMessages = "set-personal-messages"
	EventSetCurrentUserRole  = "set-current-user-role"
	EventSetBannedMembers    = "set-banned-members"
)

// ChannelQuery requests the messages of one channel.
type ChannelQuery struct {
	ChannelID string `json:"channelId"`
	ServerID  string `json:"serverId"`
}

// ThreadQuery requests the messages of one thread. ChannelID is accepted for
// compatibility with the web client and not used for the lookup.
type ThreadQuery struct {
	ThreadID  string `json:"threadId"`
	ServerID  string `json:"serverId"`
	ChannelID string `json:"channelId"`
}

// PersonalQuery requests the messages of one direct conversation.
type PersonalQuery struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// RoleQuery requests a user's role in a server.
type RoleQuery struct {
	UserID   string `json:"userId"`
	ServerID string `json:"serverId"`
}

// BannedQuery requests the banned members of a server.
type BannedQuery struct {
	ServerID string `json:"serverId"`
}
