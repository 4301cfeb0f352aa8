// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model. Notifications are append-only: the read flag is the
// only mutable field and rows are never deleted.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/domain"
)

// CreateNotification inserts one notification row for a recipient.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(n).Error
}

// ListNotifications returns a page of the user's notifications, newest
// first, using limit/skip semantics.
func ListNotifications(ctx context.Context, db *gorm.DB, userID string, limit, skip int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(skip).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountUnreadNotifications returns how many of the user's notifications are
// unread.
func CountUnreadNotifications(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkNotificationRead flips one notification to read, enforcing recipient
// ownership. Returns ErrNotFound when the row is missing or owned by
// someone else.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllNotificationsRead flips every unread notification for the user.
// Returns the number of rows transitioned.
func MarkAllNotificationsRead(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
