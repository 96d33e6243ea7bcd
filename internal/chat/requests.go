package chat

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidMessage wraps every validation failure of a write request.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrMessageNotFound indicates a referenced parent message does not exist.
	ErrMessageNotFound = errors.New("message not found")
	// ErrThreadNotFound indicates a referenced thread does not exist.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrNotParticipant indicates the user is not part of the conversation.
	ErrNotParticipant = errors.New("user is not a participant of the conversation")
	// ErrMemberNotFound indicates the user has no profile in the server.
	ErrMemberNotFound = errors.New("member not found")
	// ErrRoleNotFound indicates the role does not exist in the server.
	ErrRoleNotFound = errors.New("role not found")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a write request against its struct tags. Failures are
// reported as ErrInvalidMessage.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrInvalidMessage, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// Body is the content shared by every outgoing message: text and/or an image.
type Body struct {
	Content      string `validate:"required_without=ImageURL,max=4000"`
	AuthorID     string `validate:"required"`
	ImageURL     string `validate:"omitempty,url"`
	ImageAssetID string
}

// ChannelMessage posts a new message to a server channel.
type ChannelMessage struct {
	Body
	ChannelID string `validate:"required"`
	ServerID  string `validate:"required"`
}

// Reply answers an existing message on whichever surface the parent lives.
type Reply struct {
	Body
	ParentMessageID string `validate:"required"`
	MessageType     string
}

// ThreadMessage posts a new message to an existing thread.
type ThreadMessage struct {
	Body
	ThreadID string `validate:"required"`
}

// ThreadReply answers a message inside a thread.
type ThreadReply struct {
	Body
	ParentMessageID string `validate:"required"`
	ThreadID        string `validate:"required"`
}

// PersonalMessage sends a direct message to another user.
type PersonalMessage struct {
	Body
	RecipientID string `validate:"required"`
}

// NewThread opens a thread in a channel, optionally rooted at a message.
type NewThread struct {
	Name      string `validate:"required,max=100"`
	ChannelID string `validate:"required"`
	ServerID  string `validate:"required"`
	AuthorID  string `validate:"required"`
	MessageID string
}

// NewReaction adds one user's emoji reaction to a message.
type NewReaction struct {
	MessageID    string `validate:"required"`
	UserID       string `validate:"required"`
	Emoji        string `validate:"required"`
	UnifiedEmoji string
}

// NewRole creates a role inside a server. An empty Color falls back to
// DefaultRoleColor.
type NewRole struct {
	ServerID    string `validate:"required"`
	Name        string `validate:"required,max=100"`
	Color       string `validate:"omitempty,hexcolor"`
	Icon        string
	IconAssetID string
	Permissions Permissions
}
