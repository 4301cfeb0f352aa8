// Package services – ChatService
//
// This file implements the conversation flow on top of the match state
// machine: sending (persist, then room delivery, then personal-channel
// fallback), paginated history with the read-on-fetch side effect, the
// 15-minute edit window, and soft deletion.
//
// Ordering: persistence and room delivery happen on the caller's goroutine,
// so for a single sender messages are committed and broadcast in send
// order. No cross-sender order is promised.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/domain"
	"github.com/emberlabs/go-dating-backend/internal/repo"
)

// allowedMessageTypes is the closed set accepted by Send.
var allowedMessageTypes = map[string]struct{}{
	"text":  {},
	"image": {},
	"gif":   {},
}

// ChatService provides message operations scoped to a match.
type ChatService struct {
	DB     *gorm.DB
	Notifs *NotificationService
	Pusher Pusher

	// MaxMessageRunes caps message content length. Defaults to 2000.
	MaxMessageRunes int
	// EditWindow is how long a sender may edit a message, inclusive at the
	// boundary. Defaults to 15 minutes.
	EditWindow time.Duration
	// Now is the clock used for the edit window; nil means time.Now.
	Now func() time.Time
}

// NewChatService constructs a ChatService with the default limits. A nil
// pusher is replaced with NopPusher.
func NewChatService(db *gorm.DB, notifs *NotificationService, p Pusher) *ChatService {
	if p == nil {
		p = NopPusher{}
	}
	return &ChatService{
		DB:              db,
		Notifs:          notifs,
		Pusher:          p,
		MaxMessageRunes: 2000,
		EditWindow:      15 * time.Minute,
	}
}

// Send validates participation and liveness, persists the message together
// with the match's last_message_at inside one transaction, broadcasts the
// new_message event to the conversation room, and falls back to a
// personal-channel notification when the receiver holds no connection in
// the room.
func (s *ChatService) Send(ctx context.Context, senderID, matchID, content, msgType string) (*domain.Message, error) {
	content, err := validateContent(content, s.MaxMessageRunes)
	if err != nil {
		return nil, err
	}
	if msgType == "" {
		msgType = "text"
	}
	if _, ok := allowedMessageTypes[msgType]; !ok {
		return nil, ErrInvalidMessageType
	}

	m, err := s.participantMatch(ctx, senderID, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, ErrMatchInactive
	}
	receiverID := m.Other(senderID)

	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		msg, txErr = repo.CreateMessage(ctx, tx, matchID, senderID, receiverID, content, msgType)
		if txErr != nil {
			return txErr
		}
		return repo.TouchLastMessage(ctx, tx, matchID, msg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	s.Pusher.BroadcastRoom(matchID, "new_message", msg)
	if !s.Pusher.RoomHasUser(matchID, receiverID) && s.Notifs != nil {
		_ = s.Notifs.NotifyMessage(ctx, msg)
	}
	return msg, nil
}

// ListPage returns one page of the match's messages in chronological order
// (fetched newest-first, then reversed) plus the total count. As a side
// effect, every unread message addressed to the caller in this match is
// marked read, and a messages_read event is broadcast to the room when any
// transitioned.
func (s *ChatService) ListPage(ctx context.Context, callerID, matchID string, page, pageSize int) ([]domain.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 100 {
		pageSize = 100
	}

	if _, err := s.participantMatch(ctx, callerID, matchID); err != nil {
		return nil, 0, err
	}

	total, err := repo.CountMessages(ctx, s.DB, matchID)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListMessagesPageDesc(ctx, s.DB, matchID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	reverse(items)

	if n, err := repo.MarkMessagesRead(ctx, s.DB, matchID, callerID); err == nil && n > 0 {
		s.Pusher.BroadcastRoom(matchID, "messages_read", map[string]any{
			"match_id": matchID,
			"user_id":  callerID,
			"count":    n,
		})
	}
	return items, total, nil
}

// MarkRead flips the caller's unread messages in the match and broadcasts
// the read receipt. Used by the realtime mark_messages_read event.
func (s *ChatService) MarkRead(ctx context.Context, callerID, matchID string) (int64, error) {
	if _, err := s.participantMatch(ctx, callerID, matchID); err != nil {
		return 0, err
	}
	n, err := repo.MarkMessagesRead(ctx, s.DB, matchID, callerID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Pusher.BroadcastRoom(matchID, "messages_read", map[string]any{
			"match_id": matchID,
			"user_id":  callerID,
			"count":    n,
		})
	}
	return n, nil
}

// Edit rewrites a message in place. Only the sender may edit, only within
// the edit window (inclusive at the boundary), and never after deletion.
// Every disallowed case surfaces as ErrMessageForbidden.
func (s *ChatService) Edit(ctx context.Context, callerID, messageID, content string) (*domain.Message, error) {
	content, err := validateContent(content, s.MaxMessageRunes)
	if err != nil {
		return nil, err
	}

	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != callerID || msg.IsDeleted {
		return nil, ErrMessageForbidden
	}
	if s.now().Sub(msg.CreatedAt) > s.EditWindow {
		return nil, ErrMessageForbidden
	}

	if err := repo.UpdateMessageContent(ctx, s.DB, messageID, content); err != nil {
		return nil, err
	}
	msg, err = s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	s.Pusher.BroadcastRoom(msg.MatchID, "message_edited", msg)
	return msg, nil
}

// Delete soft-deletes a message: content is replaced by the tombstone text
// and the row is preserved. Sender-only.
func (s *ChatService) Delete(ctx context.Context, callerID, messageID string) error {
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != callerID {
		return ErrMessageForbidden
	}
	if msg.IsDeleted {
		return nil // idempotent
	}
	if err := repo.SoftDeleteMessage(ctx, s.DB, messageID); err != nil {
		return err
	}
	s.Pusher.BroadcastRoom(msg.MatchID, "message_deleted", map[string]any{
		"match_id":   msg.MatchID,
		"message_id": msg.ID,
	})
	return nil
}

// participantMatch loads the match and enforces that userID is one of its
// two participants. Membership is checked against the store on every call,
// never cached.
func (s *ChatService) participantMatch(ctx context.Context, userID, matchID string) (*domain.Match, error) {
	m, err := repo.GetMatch(ctx, s.DB, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if !m.Has(userID) {
		return nil, ErrNotParticipant
	}
	return m, nil
}

func (s *ChatService) getMessage(ctx context.Context, id string) (*domain.Message, error) {
	msg, err := repo.GetMessage(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return msg, nil
}

func (s *ChatService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// validateContent trims and bounds message content.
func validateContent(content string, max int) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if max > 0 && utf8.RuneCountInString(trimmed) > max {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}

func reverse(msgs []domain.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
