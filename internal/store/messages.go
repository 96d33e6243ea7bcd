package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/Tyrowin/guildchat/internal/chat"
)

// messageRow is a message about to be inserted. Exactly one of the
// channel, thread or conversation contexts is set.
type messageRow struct {
	body           chat.Body
	messageType    string
	channelID      string
	serverID       string
	threadID       string
	conversationID string
	parentID       string
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertMessage(ctx context.Context, db execer, row messageRow) error {
	now := s.nowMillis()
	_, err := db.ExecContext(ctx, `
		INSERT INTO messages (
			id, content, author_id, message_type, image_url, image_asset_id,
			channel_id, server_id, thread_id, conversation_id, parent_message_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.newID(), row.body.Content, row.body.AuthorID, row.messageType,
		row.body.ImageURL, row.body.ImageAssetID,
		nullString(row.channelID), nullString(row.serverID), nullString(row.threadID),
		nullString(row.conversationID), nullString(row.parentID),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// SendChannelMessage stores a new message in a server channel.
func (s *Store) SendChannelMessage(ctx context.Context, msg chat.ChannelMessage) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}
	return s.insertMessage(ctx, s.db, messageRow{
		body:        msg.Body,
		messageType: chat.TypeChannel,
		channelID:   msg.ChannelID,
		serverID:    msg.ServerID,
	})
}

// ReplyMessage stores a reply on the same surface as its parent.
func (s *Store) ReplyMessage(ctx context.Context, msg chat.Reply) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var channelID, serverID, threadID, conversationID sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT channel_id, server_id, thread_id, conversation_id
		FROM messages WHERE id = ?
	`, msg.ParentMessageID).Scan(&channelID, &serverID, &threadID, &conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("parent %s: %w", msg.ParentMessageID, chat.ErrMessageNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load parent message: %w", err)
	}

	messageType := msg.MessageType
	if messageType == "" {
		messageType = chat.TypeReply
	}

	row := messageRow{body: msg.Body, messageType: messageType, parentID: msg.ParentMessageID}
	switch {
	case threadID.Valid:
		row.threadID = threadID.String
	case conversationID.Valid:
		row.conversationID = conversationID.String
	default:
		row.channelID = channelID.String
		row.serverID = serverID.String
	}

	if err := s.insertMessage(ctx, tx, row); err != nil {
		return err
	}
	return tx.Commit()
}

// SendThreadMessage stores a new message in an existing thread.
func (s *Store) SendThreadMessage(ctx context.Context, msg chat.ThreadMessage) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}
	if err := s.requireThread(ctx, msg.ThreadID); err != nil {
		return err
	}
	return s.insertMessage(ctx, s.db, messageRow{
		body:        msg.Body,
		messageType: chat.TypeThread,
		threadID:    msg.ThreadID,
	})
}

// ReplyThreadMessage stores a reply inside a thread.
func (s *Store) ReplyThreadMessage(ctx context.Context, msg chat.ThreadReply) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}
	if err := s.requireThread(ctx, msg.ThreadID); err != nil {
		return err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)", msg.ParentMessageID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to load parent message: %w", err)
	}
	if !exists {
		return fmt.Errorf("parent %s: %w", msg.ParentMessageID, chat.ErrMessageNotFound)
	}

	return s.insertMessage(ctx, s.db, messageRow{
		body:        msg.Body,
		messageType: chat.TypeReply,
		threadID:    msg.ThreadID,
		parentID:    msg.ParentMessageID,
	})
}

// SendPersonalMessage stores a direct message, opening the conversation
// between author and recipient on first contact.
func (s *Store) SendPersonalMessage(ctx context.Context, msg chat.PersonalMessage) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	conv, err := s.findOrCreateConversation(ctx, tx, msg.AuthorID, msg.RecipientID)
	if err != nil {
		return err
	}

	if err := s.insertMessage(ctx, tx, messageRow{
		body:           msg.Body,
		messageType:    chat.TypePersonal,
		conversationID: conv.ID,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

const messageColumns = `
	m.id, m.content, m.author_id, m.message_type, m.image_url, m.image_asset_id,
	m.channel_id, m.server_id, m.thread_id, m.conversation_id, m.parent_message_id,
	m.is_read, m.created_at, m.updated_at
`

// GetMessagesByChannel returns every message of a channel in creation order.
func (s *Store) GetMessagesByChannel(ctx context.Context, channelID, serverID string) ([]chat.Message, error) {
	return s.listMessages(ctx, "m.channel_id = ? AND m.server_id = ?", channelID, serverID)
}

// GetThreadMessages returns every message of a thread belonging to serverID.
func (s *Store) GetThreadMessages(ctx context.Context, threadID, serverID string) ([]chat.Message, error) {
	return s.listMessages(ctx, `m.thread_id = ? AND EXISTS (
		SELECT 1 FROM threads t WHERE t.id = m.thread_id AND t.server_id = ?
	)`, threadID, serverID)
}

// GetPersonalMessages returns every message of a conversation. userID must
// be one of its participants.
func (s *Store) GetPersonalMessages(ctx context.Context, conversationID, userID string) ([]chat.Message, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, chat.ErrNotParticipant)
	}
	if err != nil {
		return nil, err
	}
	if !conv.Includes(userID) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, chat.ErrNotParticipant)
	}
	return s.listMessages(ctx, "m.conversation_id = ?", conversationID)
}

func (s *Store) listMessages(ctx context.Context, where string, args ...any) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM messages m WHERE "+where+" ORDER BY m.created_at ASC, m.rowid ASC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}
	if len(messages) == 0 {
		return messages, nil
	}

	reactions, err := s.reactionsFor(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].Reactions = reactions[messages[i].ID]
		if messages[i].Reactions == nil {
			messages[i].Reactions = []chat.Reaction{}
		}
	}
	return messages, nil
}

func scanMessages(rows *sql.Rows) ([]chat.Message, error) {
	defer rows.Close()

	messages := []chat.Message{}
	for rows.Next() {
		var (
			msg                                           chat.Message
			channelID, serverID, threadID, convID, parent sql.NullString
			createdAt, updatedAt                          int64
		)
		err := rows.Scan(
			&msg.ID,
			&msg.Content,
			&msg.AuthorID,
			&msg.MessageType,
			&msg.ImageURL,
			&msg.ImageAssetID,
			&channelID,
			&serverID,
			&threadID,
			&convID,
			&parent,
			&msg.IsRead,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		msg.ChannelID = channelID.String
		msg.ServerID = serverID.String
		msg.ThreadID = threadID.String
		msg.ConversationID = convID.String
		msg.ParentMessageID = parent.String
		msg.CreatedAt = fromMillis(createdAt)
		msg.UpdatedAt = fromMillis(updatedAt)

		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

type reactionCount struct {
	messageID string
	reaction  chat.Reaction
}

// reactionsFor aggregates reactions on the messages matched by where,
// keyed by message id and ordered by first use.
func (s *Store) reactionsFor(ctx context.Context, where string, args ...any) (map[string][]chat.Reaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.message_id, r.emoji, r.unified_emoji, COUNT(*)
		FROM reactions r
		WHERE r.message_id IN (SELECT m.id FROM messages m WHERE `+where+`)
		GROUP BY r.message_id, r.emoji, r.unified_emoji
		ORDER BY MIN(r.created_at) ASC, MIN(r.rowid) ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}
	defer rows.Close()

	var counts []reactionCount
	for rows.Next() {
		var rc reactionCount
		if err := rows.Scan(&rc.messageID, &rc.reaction.Emoji, &rc.reaction.UnifiedEmoji, &rc.reaction.Count); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		counts = append(counts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan reactions: %w", err)
	}

	grouped := lo.GroupBy(counts, func(rc reactionCount) string { return rc.messageID })
	return lo.MapValues(grouped, func(rcs []reactionCount, _ string) []chat.Reaction {
		return lo.Map(rcs, func(rc reactionCount, _ int) chat.Reaction { return rc.reaction })
	}), nil
}
