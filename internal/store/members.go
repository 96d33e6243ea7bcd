package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Tyrowin/guildchat/internal/chat"
)

// CreateRole creates a role in a server.
func (s *Store) CreateRole(ctx context.Context, req chat.NewRole) (chat.Role, error) {
	if err := chat.Validate(req); err != nil {
		return chat.Role{}, err
	}

	role := chat.Role{
		ID:          s.newID(),
		Name:        req.Name,
		ServerID:    req.ServerID,
		Color:       req.Color,
		Icon:        req.Icon,
		IconAssetID: req.IconAssetID,
		Permissions: req.Permissions,
	}
	if role.Color == "" {
		role.Color = chat.DefaultRoleColor
	}

	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return chat.Role{}, fmt.Errorf("failed to encode permissions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO roles (id, server_id, name, color, icon, icon_asset_id, permissions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, role.ID, role.ServerID, role.Name, role.Color, role.Icon, role.IconAssetID, string(perms), s.nowMillis())
	if err != nil {
		return chat.Role{}, fmt.Errorf("failed to create role: %w", err)
	}
	return role, nil
}

// UpsertMember creates or refreshes a member profile. Role and ban state are
// left untouched on update.
func (s *Store) UpsertMember(ctx context.Context, m chat.Member) error {
	if m.UserID == "" || m.ServerID == "" {
		return fmt.Errorf("%w: member needs user and server ids", chat.ErrInvalidMessage)
	}

	joinedAt := s.nowMillis()
	if !m.JoinedAt.IsZero() {
		joinedAt = m.JoinedAt.UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO server_members (user_id, server_id, username, avatar, joined_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, server_id) DO UPDATE SET
			username = excluded.username,
			avatar = excluded.avatar
	`, m.UserID, m.ServerID, m.Username, m.Avatar, joinedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// AssignRole gives a member one of its server's roles.
func (s *Store) AssignRole(ctx context.Context, userID, serverID, roleID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM roles WHERE id = ? AND server_id = ?)", roleID, serverID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to load role: %w", err)
	}
	if !exists {
		return fmt.Errorf("role %s: %w", roleID, chat.ErrRoleNotFound)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE server_members SET role_id = ? WHERE user_id = ? AND server_id = ?",
		roleID, userID, serverID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return requireAffected(res, userID)
}

// BanMember flags a member as banned.
func (s *Store) BanMember(ctx context.Context, userID, serverID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE server_members SET is_banned = 1, banned_at = ? WHERE user_id = ? AND server_id = ?",
		s.nowMillis(), userID, serverID,
	)
	if err != nil {
		return fmt.Errorf("failed to ban member: %w", err)
	}
	return requireAffected(res, userID)
}

func requireAffected(res sql.Result, userID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", userID, chat.ErrMemberNotFound)
	}
	return nil
}

// GetCurrentUserRole returns the member's role in the server, or nil when
// the member holds none.
func (s *Store) GetCurrentUserRole(ctx context.Context, userID, serverID string) (*chat.Role, error) {
	var (
		role  chat.Role
		perms string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.name, r.server_id, r.color, r.icon, r.icon_asset_id, r.permissions
		FROM server_members sm
		JOIN roles r ON r.id = sm.role_id
		WHERE sm.user_id = ? AND sm.server_id = ?
	`, userID, serverID).Scan(
		&role.ID, &role.Name, &role.ServerID, &role.Color, &role.Icon, &role.IconAssetID, &perms,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	if err := json.Unmarshal([]byte(perms), &role.Permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}
	return &role, nil
}

// GetBannedMembers returns the banned members of a server, most recent ban
// first.
func (s *Store) GetBannedMembers(ctx context.Context, serverID string) ([]chat.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, server_id, username, avatar, role_id, banned_at, joined_at
		FROM server_members
		WHERE server_id = ? AND is_banned = 1
		ORDER BY banned_at DESC, rowid DESC
	`, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to query banned members: %w", err)
	}
	defer rows.Close()

	members := []chat.Member{}
	for rows.Next() {
		var (
			m        chat.Member
			roleID   sql.NullString
			bannedAt sql.NullInt64
			joinedAt int64
		)
		if err := rows.Scan(&m.UserID, &m.ServerID, &m.Username, &m.Avatar, &roleID, &bannedAt, &joinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.RoleID = roleID.String
		m.Banned = true
		if bannedAt.Valid {
			t := fromMillis(bannedAt.Int64)
			m.BannedAt = &t
		}
		m.JoinedAt = fromMillis(joinedAt)
		members = append(members, m)
	}
	return members, rows.Err()
}
