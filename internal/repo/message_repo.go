// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/domain"
)

// CreateMessage inserts a new message row.
func CreateMessage(ctx context.Context, db *gorm.DB, matchID, senderID, receiverID, content, msgType string) (*domain.Message, error) {
	m := &domain.Message{
		ID:         uuid.NewString(),
		MatchID:    matchID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       msgType,
		CreatedAt:  time.Now().UTC(),
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// GetMessage fetches a message by ID, or ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMessages returns the total number of messages in a match.
func CountMessages(ctx context.Context, db *gorm.DB, matchID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("match_id = ?", matchID).
		Count(&total).Error
	return total, err
}

// ListMessagesPageDesc returns a page of messages newest-first
// (CreatedAt DESC, ID DESC for determinism). Callers reverse the slice when
// a chronological view is needed.
func ListMessagesPageDesc(ctx context.Context, db *gorm.DB, matchID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkMessagesRead flips every unread message addressed to receiverID in
// the match to read. Returns the number of rows transitioned.
func MarkMessagesRead(ctx context.Context, db *gorm.DB, matchID, receiverID string) (int64, error) {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("match_id = ? AND receiver_id = ? AND is_read = ?", matchID, receiverID, false).
		Updates(map[string]any{"is_read": true, "read_at": now})
	return res.RowsAffected, res.Error
}

// CountUnread returns the number of unread messages addressed to receiverID
// in the match.
func CountUnread(ctx context.Context, db *gorm.DB, matchID, receiverID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("match_id = ? AND receiver_id = ? AND is_read = ?", matchID, receiverID, false).
		Count(&n).Error
	return n, err
}

// UpdateMessageContent rewrites a message body in place and flags the edit.
func UpdateMessageContent(ctx context.Context, db *gorm.DB, id, content string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{"content": content, "is_edited": true, "edited_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDeleteMessage replaces the content with the tombstone text and flags
// the row deleted. The row itself is preserved.
func SoftDeleteMessage(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{"content": domain.DeletedMessageBody, "is_deleted": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
