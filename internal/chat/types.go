// Package chat holds the community chat domain model shared by the real-time
// layer and the storage gateways.
package chat

import "time"

// Surface is one of the mutually exclusive addressing modes of a stored message.
type Surface string

// Message surfaces. A reply is not a surface of its own: it lives on the
// surface of the message it answers.
const (
	SurfaceChannel  Surface = "channel"
	SurfaceThread   Surface = "thread"
	SurfacePersonal Surface = "personal"
)

// Message types recorded on stored messages.
const (
	TypeChannel  = "channel"
	TypeThread   = "thread"
	TypePersonal = "personal"
	TypeReply    = "reply"
)

// Message is a stored chat message as returned to clients.
type Message struct {
	ID              string     `json:"message_id"`
	Content         string     `json:"message"`
	AuthorID        string     `json:"author"`
	MessageType     string     `json:"message_type"`
	ImageURL        string     `json:"media_image"`
	ImageAssetID    string     `json:"media_image_asset_id"`
	ChannelID       string     `json:"channel_id,omitempty"`
	ServerID        string     `json:"server_id,omitempty"`
	ThreadID        string     `json:"thread_id,omitempty"`
	ConversationID  string     `json:"conversation_id,omitempty"`
	ParentMessageID string     `json:"parent_message_id,omitempty"`
	IsRead          bool       `json:"is_read"`
	Reactions       []Reaction `json:"reactions"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"update_at"`
}

// Surface reports which addressing mode the message was stored under.
func (m Message) Surface() Surface {
	switch {
	case m.ThreadID != "":
		return SurfaceThread
	case m.ConversationID != "":
		return SurfacePersonal
	default:
		return SurfaceChannel
	}
}

// Reaction is an aggregated emoji reaction on a message.
type Reaction struct {
	Emoji        string `json:"emoji"`
	UnifiedEmoji string `json:"unified_emoji"`
	Count        int    `json:"count"`
}

// Thread is a named sub-conversation rooted at a channel message.
type Thread struct {
	ID        string    `json:"thread_id"`
	Name      string    `json:"thread_name"`
	ChannelID string    `json:"channel_id"`
	ServerID  string    `json:"server_id"`
	AuthorID  string    `json:"author_id"`
	MessageID string    `json:"message_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a direct-message pairing between two users.
type Conversation struct {
	ID        string    `json:"conversationId"`
	UserOne   string    `json:"userOne"`
	UserTwo   string    `json:"userTwo"`
	CreatedAt time.Time `json:"conversationCreatedAt"`
}

// Includes reports whether userID participates in the conversation.
func (c Conversation) Includes(userID string) bool {
	return userID != "" && (c.UserOne == userID || c.UserTwo == userID)
}

// Permissions are the capability flags attached to a server role.
type Permissions struct {
	AttachFile    bool `json:"attach_file"`
	BanMember     bool `json:"ban_member"`
	KickMember    bool `json:"kick_member"`
	ManageChannel bool `json:"manage_channel"`
	ManageMessage bool `json:"manage_message"`
	ManageRole    bool `json:"manage_role"`
	ManageThread  bool `json:"manage_thread"`
}

// Role is a named permission set inside a server.
type Role struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ServerID    string      `json:"serverId"`
	Color       string      `json:"role_color"`
	Icon        string      `json:"icon"`
	IconAssetID string      `json:"icon_asset_id"`
	Permissions Permissions `json:"permissions"`
}

// DefaultRoleColor is applied to roles created without a color.
const DefaultRoleColor = "#99aab5"

// Member is a user's profile inside one server.
type Member struct {
	UserID   string     `json:"user_id"`
	ServerID string     `json:"server_id"`
	Username string     `json:"username"`
	Avatar   string     `json:"avatar"`
	RoleID   string     `json:"role_id,omitempty"`
	Banned   bool       `json:"is_banned"`
	BannedAt *time.Time `json:"banned_at,omitempty"`
	JoinedAt time.Time  `json:"joined_at"`
}
