package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tyrowin/guildchat/internal/chat"
)

// CreateThread opens a thread in a channel.
func (s *Store) CreateThread(ctx context.Context, req chat.NewThread) (chat.Thread, error) {
	if err := chat.Validate(req); err != nil {
		return chat.Thread{}, err
	}

	thread := chat.Thread{
		ID:        s.newID(),
		Name:      req.Name,
		ChannelID: req.ChannelID,
		ServerID:  req.ServerID,
		AuthorID:  req.AuthorID,
		MessageID: req.MessageID,
		CreatedAt: fromMillis(s.nowMillis()),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threads (id, name, channel_id, server_id, author_id, message_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, thread.ID, thread.Name, thread.ChannelID, thread.ServerID, thread.AuthorID,
		nullString(thread.MessageID), thread.CreatedAt.UnixMilli())
	if err != nil {
		return chat.Thread{}, fmt.Errorf("failed to create thread: %w", err)
	}
	return thread, nil
}

func (s *Store) requireThread(ctx context.Context, threadID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM threads WHERE id = ?)", threadID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}
	if !exists {
		return fmt.Errorf("thread %s: %w", threadID, chat.ErrThreadNotFound)
	}
	return nil
}

type queryer interface {
	execer
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// findOrCreateConversation returns the conversation between a and b. The
// pair is stored in sorted order so either side finds the same row.
func (s *Store) findOrCreateConversation(ctx context.Context, db queryer, a, b string) (chat.Conversation, error) {
	one, two := a, b
	if two < one {
		one, two = two, one
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_one, user_two, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_one, user_two) DO NOTHING
	`, s.newID(), one, two, s.nowMillis())
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("failed to create conversation: %w", err)
	}

	conv, err := scanConversation(db.QueryRowContext(ctx, `
		SELECT id, user_one, user_two, created_at FROM conversations
		WHERE user_one = ? AND user_two = ?
	`, one, two))
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

func (s *Store) getConversation(ctx context.Context, id string) (chat.Conversation, error) {
	conv, err := scanConversation(s.db.QueryRowContext(ctx, `
		SELECT id, user_one, user_two, created_at FROM conversations WHERE id = ?
	`, id))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return chat.Conversation{}, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, err
}

// Conversation returns the conversation between two users, opening it if
// they have never talked.
func (s *Store) Conversation(ctx context.Context, a, b string) (chat.Conversation, error) {
	return s.findOrCreateConversation(ctx, s.db, a, b)
}

func scanConversation(row *sql.Row) (chat.Conversation, error) {
	var (
		conv      chat.Conversation
		createdAt int64
	)
	if err := row.Scan(&conv.ID, &conv.UserOne, &conv.UserTwo, &createdAt); err != nil {
		return chat.Conversation{}, err
	}
	conv.CreatedAt = fromMillis(createdAt)
	return conv, nil
}

// AddReaction records a user's reaction on a message. Repeating the same
// emoji on the same message is a no-op.
func (s *Store) AddReaction(ctx context.Context, req chat.NewReaction) error {
	if err := chat.Validate(req); err != nil {
		return err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)", req.MessageID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	if !exists {
		return fmt.Errorf("message %s: %w", req.MessageID, chat.ErrMessageNotFound)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reactions (id, message_id, user_id, emoji, unified_emoji, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING
	`, s.newID(), req.MessageID, req.UserID, req.Emoji, req.UnifiedEmoji, s.nowMillis())
	if err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}
