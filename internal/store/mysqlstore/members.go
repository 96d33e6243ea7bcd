package mysqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tyrowin/guildchat/internal/chat"
)

// CreateRole creates a role in a server.
func (s *Store) CreateRole(ctx context.Context, req chat.NewRole) (chat.Role, error) {
	if err := chat.Validate(req); err != nil {
		return chat.Role{}, err
	}

	r := roleModel{
		ID:          s.newID(),
		ServerID:    req.ServerID,
		Name:        req.Name,
		Color:       req.Color,
		Icon:        req.Icon,
		IconAssetID: req.IconAssetID,
		Permissions: req.Permissions,
		CreatedAt:   s.now().UTC(),
	}
	if r.Color == "" {
		r.Color = chat.DefaultRoleColor
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return chat.Role{}, fmt.Errorf("failed to create role: %w", err)
	}
	return r.toChat(), nil
}

// UpsertMember creates or refreshes a member profile. Role and ban state are
// left untouched on update.
func (s *Store) UpsertMember(ctx context.Context, m chat.Member) error {
	if m.UserID == "" || m.ServerID == "" {
		return fmt.Errorf("%w: member needs user and server ids", chat.ErrInvalidMessage)
	}

	row := memberModel{
		UserID:   m.UserID,
		ServerID: m.ServerID,
		Username: m.Username,
		Avatar:   m.Avatar,
		JoinedAt: m.JoinedAt,
	}
	if row.JoinedAt.IsZero() {
		row.JoinedAt = s.now().UTC()
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "server_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "avatar"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// AssignRole gives a member one of its server's roles.
func (s *Store) AssignRole(ctx context.Context, userID, serverID, roleID string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&roleModel{}).
		Where("id = ? AND server_id = ?", roleID, serverID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to load role: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("role %s: %w", roleID, chat.ErrRoleNotFound)
	}

	res := s.db.WithContext(ctx).Model(&memberModel{}).
		Where("user_id = ? AND server_id = ?", userID, serverID).
		Update("role_id", roleID)
	if res.Error != nil {
		return fmt.Errorf("failed to assign role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("member %s: %w", userID, chat.ErrMemberNotFound)
	}
	return nil
}

// BanMember flags a member as banned.
func (s *Store) BanMember(ctx context.Context, userID, serverID string) error {
	res := s.db.WithContext(ctx).Model(&memberModel{}).
		Where("user_id = ? AND server_id = ?", userID, serverID).
		Updates(map[string]any{"is_banned": true, "banned_at": s.now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("failed to ban member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("member %s: %w", userID, chat.ErrMemberNotFound)
	}
	return nil
}

// GetCurrentUserRole returns the member's role in the server, or nil when
// the member holds none.
func (s *Store) GetCurrentUserRole(ctx context.Context, userID, serverID string) (*chat.Role, error) {
	var r roleModel
	err := s.db.WithContext(ctx).
		Joins("JOIN server_members sm ON sm.role_id = roles.id").
		Where("sm.user_id = ? AND sm.server_id = ?", userID, serverID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	role := r.toChat()
	return &role, nil
}

// GetBannedMembers returns the banned members of a server, most recent ban
// first.
func (s *Store) GetBannedMembers(ctx context.Context, serverID string) ([]chat.Member, error) {
	var rows []memberModel
	err := s.db.WithContext(ctx).
		Where("server_id = ? AND is_banned = ?", serverID, true).
		Order("banned_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query banned members: %w", err)
	}

	members := make([]chat.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.toChat())
	}
	return members, nil
}
