// Package store is the SQLite persistence gateway for guildchat.
//
// It implements realtime.Gateway plus the supporting writes (threads,
// reactions, roles and members) the REST side of the platform performs.
// Timestamps are stored as unix milliseconds.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Tyrowin/guildchat/internal/realtime"
)

var _ realtime.Gateway = (*Store)(nil)

// Store wraps the SQLite connection pool.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at columns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDs overrides the identifier generator.
func WithIDs(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Open opens the database file at path and initializes the schema.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	return initialize(db, pragmas, opts)
}

// OpenMemory opens a private in-memory database. Every pooled connection
// would see its own empty database, so the pool is pinned to one connection.
func OpenMemory(opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return initialize(db, []string{"PRAGMA foreign_keys = ON"}, opts)
}

func initialize(db *sql.DB, pragmas []string, opts []Option) (*Store, error) {
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &Store{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

const schema = `
CREATE TABLE IF NOT EXISTS threads (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	server_id  TEXT NOT NULL,
	author_id  TEXT NOT NULL,
	message_id TEXT,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	user_one   TEXT NOT NULL,
	user_two   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE (user_one, user_two)
);

CREATE TABLE IF NOT EXISTS messages (
	id                TEXT PRIMARY KEY,
	content           TEXT NOT NULL DEFAULT '',
	author_id         TEXT NOT NULL,
	message_type      TEXT NOT NULL,
	image_url         TEXT NOT NULL DEFAULT '',
	image_asset_id    TEXT NOT NULL DEFAULT '',
	channel_id        TEXT,
	server_id         TEXT,
	thread_id         TEXT REFERENCES threads(id),
	conversation_id   TEXT REFERENCES conversations(id),
	parent_message_id TEXT REFERENCES messages(id),
	is_read           INTEGER NOT NULL DEFAULT 0,
	created_at        INTEGER NOT NULL,
	updated_at        INTEGER NOT NULL,
	CHECK (
		(channel_id IS NOT NULL AND server_id IS NOT NULL)
		+ (thread_id IS NOT NULL)
		+ (conversation_id IS NOT NULL) = 1
	)
);

CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, server_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

CREATE TABLE IF NOT EXISTS reactions (
	id            TEXT PRIMARY KEY,
	message_id    TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	user_id       TEXT NOT NULL,
	emoji         TEXT NOT NULL,
	unified_emoji TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	UNIQUE (message_id, user_id, emoji)
);

CREATE TABLE IF NOT EXISTS roles (
	id            TEXT PRIMARY KEY,
	server_id     TEXT NOT NULL,
	name          TEXT NOT NULL,
	color         TEXT NOT NULL,
	icon          TEXT NOT NULL DEFAULT '',
	icon_asset_id TEXT NOT NULL DEFAULT '',
	permissions   TEXT NOT NULL DEFAULT '{}',
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS server_members (
	user_id   TEXT NOT NULL,
	server_id TEXT NOT NULL,
	username  TEXT NOT NULL DEFAULT '',
	avatar    TEXT NOT NULL DEFAULT '',
	role_id   TEXT REFERENCES roles(id) ON DELETE SET NULL,
	is_banned INTEGER NOT NULL DEFAULT 0,
	banned_at INTEGER,
	joined_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, server_id)
);

CREATE INDEX IF NOT EXISTS idx_members_banned ON server_members(server_id, is_banned, banned_at);
`
