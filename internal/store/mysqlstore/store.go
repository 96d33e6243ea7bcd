// Package mysqlstore is the MySQL persistence gateway, built on GORM.
//
// It mirrors the semantics of the SQLite gateway in package store.
package mysqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Tyrowin/guildchat/internal/chat"
	"github.com/Tyrowin/guildchat/internal/realtime"
)

var _ realtime.Gateway = (*Store)(nil)

// Store persists chat data through a GORM connection.
type Store struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
}

// Open connects to MySQL with dsn and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Warn),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing GORM handle without migrating.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now, newID: uuid.NewString}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&threadModel{},
		&conversationModel{},
		&messageModel{},
		&reactionModel{},
		&roleModel{},
		&memberModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) newMessage(body chat.Body, messageType string) messageModel {
	now := s.now().UTC()
	return messageModel{
		ID:           s.newID(),
		Content:      body.Content,
		AuthorID:     body.AuthorID,
		MessageType:  messageType,
		ImageURL:     body.ImageURL,
		ImageAssetID: body.ImageAssetID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *Store) create(ctx context.Context, db *gorm.DB, m *messageModel) error {
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// SendChannelMessage stores a new message in a server channel.
func (s *Store) SendChannelMessage(ctx context.Context, msg chat.ChannelMessage) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}
	m := s.newMessage(msg.Body, chat.TypeChannel)
	m.ChannelID = ptr(msg.ChannelID)
	m.ServerID = ptr(msg.ServerID)
	return s.create(ctx, s.db, &m)
}

// ReplyMessage stores a reply on the same surface as its parent.
func (s *Store) ReplyMessage(ctx context.Context, msg chat.Reply) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent messageModel
		err := tx.Where("id = ?", msg.ParentMessageID).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("parent %s: %w", msg.ParentMessageID, chat.ErrMessageNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load parent message: %w", err)
		}

		messageType := lo.Ternary(msg.MessageType == "", chat.TypeReply, msg.MessageType)
		m := s.newMessage(msg.Body, messageType)
		m.ParentMessageID = ptr(msg.ParentMessageID)
		switch {
		case parent.ThreadID != nil:
			m.ThreadID = parent.ThreadID
		case parent.ConversationID != nil:
			m.ConversationID = parent.ConversationID
		default:
			m.ChannelID = parent.ChannelID
			m.ServerID = parent.ServerID
		}
		return s.create(ctx, tx, &m)
	})
}

// SendThreadMessage stores a new message in an existing thread.
func (s *Store) SendThreadMessage(ctx context.Context, msg chat.ThreadMessage) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}
	if err := s.requireThread(ctx, msg.ThreadID); err != nil {
		return err
	}
	m := s.newMessage(msg.Body, chat.TypeThread)
	m.ThreadID = ptr(msg.ThreadID)
	return s.create(ctx, s.db, &m)
}

// ReplyThreadMessage stores a reply inside a thread.
func (s *Store) ReplyThreadMessage(ctx context.Context, msg chat.ThreadReply) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}
	if err := s.requireThread(ctx, msg.ThreadID); err != nil {
		return err
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&messageModel{}).Where("id = ?", msg.ParentMessageID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to load parent message: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("parent %s: %w", msg.ParentMessageID, chat.ErrMessageNotFound)
	}

	m := s.newMessage(msg.Body, chat.TypeReply)
	m.ThreadID = ptr(msg.ThreadID)
	m.ParentMessageID = ptr(msg.ParentMessageID)
	return s.create(ctx, s.db, &m)
}

// SendPersonalMessage stores a direct message, opening the conversation
// between author and recipient on first contact.
func (s *Store) SendPersonalMessage(ctx context.Context, msg chat.PersonalMessage) error {
	if err := chat.Validate(msg); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := s.findOrCreateConversation(tx, msg.AuthorID, msg.RecipientID)
		if err != nil {
			return err
		}
		m := s.newMessage(msg.Body, chat.TypePersonal)
		m.ConversationID = ptr(conv.ID)
		return s.create(ctx, tx, &m)
	})
}

// GetMessagesByChannel returns every message of a channel in creation order.
func (s *Store) GetMessagesByChannel(ctx context.Context, channelID, serverID string) ([]chat.Message, error) {
	return s.listMessages(ctx, s.db.Where("channel_id = ? AND server_id = ?", channelID, serverID))
}

// GetThreadMessages returns every message of a thread belonging to serverID.
func (s *Store) GetThreadMessages(ctx context.Context, threadID, serverID string) ([]chat.Message, error) {
	scope := s.db.Model(&threadModel{}).Select("id").Where("id = ? AND server_id = ?", threadID, serverID)
	return s.listMessages(ctx, s.db.Where("thread_id IN (?)", scope))
}

// GetPersonalMessages returns every message of a conversation. userID must
// be one of its participants.
func (s *Store) GetPersonalMessages(ctx context.Context, conversationID, userID string) ([]chat.Message, error) {
	var conv conversationModel
	err := s.db.WithContext(ctx).Where("id = ?", conversationID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, chat.ErrNotParticipant)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if !conv.toChat().Includes(userID) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, chat.ErrNotParticipant)
	}
	return s.listMessages(ctx, s.db.Where("conversation_id = ?", conversationID))
}

func (s *Store) listMessages(ctx context.Context, scope *gorm.DB) ([]chat.Message, error) {
	var rows []messageModel
	err := scope.WithContext(ctx).Order("created_at ASC, seq ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	messages := lo.Map(rows, func(m messageModel, _ int) chat.Message { return m.toChat() })
	if len(messages) == 0 {
		return messages, nil
	}

	ids := lo.Map(rows, func(m messageModel, _ int) string { return m.ID })
	reactions, err := s.reactionsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		if rs, ok := reactions[messages[i].ID]; ok {
			messages[i].Reactions = rs
		}
	}
	return messages, nil
}

type reactionCount struct {
	MessageID    string
	Emoji        string
	UnifiedEmoji string
	Count        int
}

func (s *Store) reactionsFor(ctx context.Context, messageIDs []string) (map[string][]chat.Reaction, error) {
	var counts []reactionCount
	err := s.db.WithContext(ctx).
		Model(&reactionModel{}).
		Select("message_id, emoji, unified_emoji, COUNT(*) AS count").
		Where("message_id IN ?", messageIDs).
		Group("message_id, emoji, unified_emoji").
		Order("MIN(seq) ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}

	grouped := lo.GroupBy(counts, func(rc reactionCount) string { return rc.MessageID })
	return lo.MapValues(grouped, func(rcs []reactionCount, _ string) []chat.Reaction {
		return lo.Map(rcs, func(rc reactionCount, _ int) chat.Reaction {
			return chat.Reaction{Emoji: rc.Emoji, UnifiedEmoji: rc.UnifiedEmoji, Count: rc.Count}
		})
	}), nil
}

// CreateThread opens a thread in a channel.
func (s *Store) CreateThread(ctx context.Context, req chat.NewThread) (chat.Thread, error) {
	if err := chat.Validate(req); err != nil {
		return chat.Thread{}, err
	}

	t := threadModel{
		ID:        s.newID(),
		Name:      req.Name,
		ChannelID: req.ChannelID,
		ServerID:  req.ServerID,
		AuthorID:  req.AuthorID,
		MessageID: ptr(req.MessageID),
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return chat.Thread{}, fmt.Errorf("failed to create thread: %w", err)
	}
	return chat.Thread{
		ID:        t.ID,
		Name:      t.Name,
		ChannelID: t.ChannelID,
		ServerID:  t.ServerID,
		AuthorID:  t.AuthorID,
		MessageID: req.MessageID,
		CreatedAt: t.CreatedAt,
	}, nil
}

func (s *Store) requireThread(ctx context.Context, threadID string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&threadModel{}).Where("id = ?", threadID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("thread %s: %w", threadID, chat.ErrThreadNotFound)
	}
	return nil
}

// findOrCreateConversation stores the pair sorted so either side finds the
// same row. A concurrent first contact loses the insert and reads the
// winner's row.
func (s *Store) findOrCreateConversation(tx *gorm.DB, a, b string) (conversationModel, error) {
	one, two := a, b
	if two < one {
		one, two = two, one
	}

	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&conversationModel{
		ID:        s.newID(),
		UserOne:   one,
		UserTwo:   two,
		CreatedAt: s.now().UTC(),
	}).Error
	if err != nil {
		return conversationModel{}, fmt.Errorf("failed to open conversation: %w", err)
	}

	var conv conversationModel
	if err := tx.Where("user_one = ? AND user_two = ?", one, two).Take(&conv).Error; err != nil {
		return conversationModel{}, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

// AddReaction records a user's reaction on a message. Repeating the same
// emoji on the same message is a no-op.
func (s *Store) AddReaction(ctx context.Context, req chat.NewReaction) error {
	if err := chat.Validate(req); err != nil {
		return err
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&messageModel{}).Where("id = ?", req.MessageID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("message %s: %w", req.MessageID, chat.ErrMessageNotFound)
	}

	r := reactionModel{
		MessageID:    req.MessageID,
		UserID:       req.UserID,
		Emoji:        req.Emoji,
		UnifiedEmoji: req.UnifiedEmoji,
		CreatedAt:    s.now().UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&r).Error
	if err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}
