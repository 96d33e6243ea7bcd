package mysqlstore

import (
	"time"

	"github.com/Tyrowin/guildchat/internal/chat"
)

// Message rows carry exactly one of the channel, thread or conversation
// contexts. Seq breaks created_at ties in insertion order.
type messageModel struct {
	Seq             uint64  `gorm:"primaryKey;autoIncrement"`
	ID              string  `gorm:"uniqueIndex;size:36;not null"`
	Content         string  `gorm:"type:text"`
	AuthorID        string  `gorm:"index;size:64;not null"`
	MessageType     string  `gorm:"size:32;not null"`
	ImageURL        string  `gorm:"size:512"`
	ImageAssetID    string  `gorm:"size:128"`
	ChannelID       *string `gorm:"index:idx_messages_channel,priority:1;size:64;check:chk_messages_context,(channel_id IS NOT NULL AND server_id IS NOT NULL) + (thread_id IS NOT NULL) + (conversation_id IS NOT NULL) = 1"`
	ServerID        *string `gorm:"index:idx_messages_channel,priority:2;size:64"`
	ThreadID        *string `gorm:"index;size:36"`
	ConversationID  *string `gorm:"index;size:36"`
	ParentMessageID *string `gorm:"size:36"`
	IsRead          bool
	CreatedAt       time.Time `gorm:"precision:3;index"`
	UpdatedAt       time.Time `gorm:"precision:3"`
}

func (messageModel) TableName() string { return "messages" }

func (m messageModel) toChat() chat.Message {
	return chat.Message{
		ID:              m.ID,
		Content:         m.Content,
		AuthorID:        m.AuthorID,
		MessageType:     m.MessageType,
		ImageURL:        m.ImageURL,
		ImageAssetID:    m.ImageAssetID,
		ChannelID:       deref(m.ChannelID),
		ServerID:        deref(m.ServerID),
		ThreadID:        deref(m.ThreadID),
		ConversationID:  deref(m.ConversationID),
		ParentMessageID: deref(m.ParentMessageID),
		IsRead:          m.IsRead,
		Reactions:       []chat.Reaction{},
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type threadModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:100;not null"`
	ChannelID string    `gorm:"index;size:64;not null"`
	ServerID  string    `gorm:"size:64;not null"`
	AuthorID  string    `gorm:"size:64;not null"`
	MessageID *string   `gorm:"size:36"`
	CreatedAt time.Time `gorm:"precision:3"`
}

func (threadModel) TableName() string { return "threads" }

type conversationModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserOne   string    `gorm:"uniqueIndex:idx_conversation_pair,priority:1;size:64;not null"`
	UserTwo   string    `gorm:"uniqueIndex:idx_conversation_pair,priority:2;size:64;not null"`
	CreatedAt time.Time `gorm:"precision:3"`
}

func (conversationModel) TableName() string { return "conversations" }

func (c conversationModel) toChat() chat.Conversation {
	return chat.Conversation{ID: c.ID, UserOne: c.UserOne, UserTwo: c.UserTwo, CreatedAt: c.CreatedAt.UTC()}
}

type reactionModel struct {
	Seq          uint64    `gorm:"primaryKey;autoIncrement"`
	MessageID    string    `gorm:"uniqueIndex:idx_reaction_once,priority:1;size:36;not null"`
	UserID       string    `gorm:"uniqueIndex:idx_reaction_once,priority:2;size:64;not null"`
	Emoji        string    `gorm:"uniqueIndex:idx_reaction_once,priority:3;size:64;not null"`
	UnifiedEmoji string    `gorm:"size:64"`
	CreatedAt    time.Time `gorm:"precision:3"`
}

func (reactionModel) TableName() string { return "reactions" }

type roleModel struct {
	ID          string           `gorm:"primaryKey;size:36"`
	ServerID    string           `gorm:"index;size:64;not null"`
	Name        string           `gorm:"size:100;not null"`
	Color       string           `gorm:"size:16;not null"`
	Icon        string           `gorm:"size:512"`
	IconAssetID string           `gorm:"size:128"`
	Permissions chat.Permissions `gorm:"serializer:json;type:json"`
	CreatedAt   time.Time        `gorm:"precision:3"`
}

func (roleModel) TableName() string { return "roles" }

func (r roleModel) toChat() chat.Role {
	return chat.Role{
		ID:          r.ID,
		Name:        r.Name,
		ServerID:    r.ServerID,
		Color:       r.Color,
		Icon:        r.Icon,
		IconAssetID: r.IconAssetID,
		Permissions: r.Permissions,
	}
}

type memberModel struct {
	UserID   string     `gorm:"primaryKey;size:64"`
	ServerID string     `gorm:"primaryKey;size:64;index:idx_members_banned,priority:1"`
	Username string     `gorm:"size:100"`
	Avatar   string     `gorm:"size:512"`
	RoleID   *string    `gorm:"size:36"`
	IsBanned bool       `gorm:"index:idx_members_banned,priority:2"`
	BannedAt *time.Time `gorm:"precision:3;index:idx_members_banned,priority:3"`
	JoinedAt time.Time  `gorm:"precision:3"`
}

func (memberModel) TableName() string { return "server_members" }

func (m memberModel) toChat() chat.Member {
	member := chat.Member{
		UserID:   m.UserID,
		ServerID: m.ServerID,
		Username: m.Username,
		Avatar:   m.Avatar,
		RoleID:   deref(m.RoleID),
		Banned:   m.IsBanned,
		JoinedAt: m.JoinedAt.UTC(),
	}
	if m.BannedAt != nil {
		t := m.BannedAt.UTC()
		member.BannedAt = &t
	}
	return member
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
