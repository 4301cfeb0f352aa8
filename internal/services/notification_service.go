// Package services – NotificationService
//
// Notification fan-out: persists one notification row per qualifying event
// (match, like, super-like, message) and pushes a realtime event to the
// recipient's personal channel when they hold a live connection. Rows are
// the durable record; pushes are best-effort and never retried — an offline
// recipient simply finds the row on their next fetch.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/domain"
	"github.com/emberlabs/go-dating-backend/internal/repo"
)

// Pusher is the delivery surface the services need from the realtime layer.
// Implemented by realtime.Hub; a no-op implementation is used when the
// realtime layer is absent (tests, batch tooling).
//
// Implementations must be safe for concurrent use and must never block on a
// slow or dead connection.
type Pusher interface {
	// PushToUser emits an event on every connection in the user's personal
	// channel. Returns true when at least one connection received it.
	PushToUser(userID, event string, payload any) bool

	// BroadcastRoom emits an event to every connection joined to the
	// match's conversation room.
	BroadcastRoom(matchID, event string, payload any)

	// RoomHasUser reports whether the user currently has at least one
	// connection joined to the match's room.
	RoomHasUser(matchID, userID string) bool
}

// NopPusher is a Pusher that delivers nothing.
type NopPusher struct{}

func (NopPusher) PushToUser(string, string, any) bool { return false }
func (NopPusher) BroadcastRoom(string, string, any)   {}
func (NopPusher) RoomHasUser(string, string) bool     { return false }

// messagePreviewRunes caps the content preview embedded in a message
// notification payload.
const messagePreviewRunes = 80

// NotificationService persists notifications and fans them out to personal
// channels.
type NotificationService struct {
	DB     *gorm.DB
	Pusher Pusher
}

// NewNotificationService constructs a NotificationService. A nil pusher is
// replaced with NopPusher.
func NewNotificationService(db *gorm.DB, p Pusher) *NotificationService {
	if p == nil {
		p = NopPusher{}
	}
	return &NotificationService{DB: db, Pusher: p}
}

// NotifyMatch records a "match" notification for both participants and
// pushes a new_match event to each personal channel.
func (s *NotificationService) NotifyMatch(ctx context.Context, m *domain.Match) error {
	for _, pair := range [][2]string{
		{m.UserLowID, m.UserHighID},
		{m.UserHighID, m.UserLowID},
	} {
		recipient, other := pair[0], pair[1]
		n := &domain.Notification{
			UserID:   recipient,
			Type:     domain.NotifMatch,
			Title:    "It's a match!",
			Body:     "You and your match can now start chatting.",
			MatchID:  &m.ID,
			SenderID: &other,
		}
		if err := repo.CreateNotification(ctx, s.DB, n); err != nil {
			return err
		}
		s.Pusher.PushToUser(recipient, "new_match", map[string]any{
			"match_id": m.ID,
			"user_id":  other,
		})
	}
	return nil
}

// NotifyLike records a like (or super-like) notification for the target and
// pushes a new_like event to their personal channel.
func (s *NotificationService) NotifyLike(ctx context.Context, actorID, targetID string, super bool) error {
	typ, title := domain.NotifLike, "Someone likes you"
	if super {
		typ, title = domain.NotifSuperLike, "Someone super-liked you"
	}
	n := &domain.Notification{
		UserID:   targetID,
		Type:     typ,
		Title:    title,
		Body:     "Check your discovery feed to see if it's mutual.",
		SenderID: &actorID,
	}
	if err := repo.CreateNotification(ctx, s.DB, n); err != nil {
		return err
	}
	s.Pusher.PushToUser(targetID, "new_like", map[string]any{
		"user_id": actorID,
		"super":   super,
	})
	return nil
}

// NotifyMessage records a "message" notification for the receiver and
// pushes a condensed message_notification event to their personal channel.
// Called only when the receiver has no connection in the conversation room;
// badge/preview UIs react without joining the room.
func (s *NotificationService) NotifyMessage(ctx context.Context, msg *domain.Message) error {
	preview := clipRunes(msg.Content, messagePreviewRunes)
	n := &domain.Notification{
		UserID:    msg.ReceiverID,
		Type:      domain.NotifMessage,
		Title:     "New message",
		Body:      preview,
		MatchID:   &msg.MatchID,
		SenderID:  &msg.SenderID,
		MessageID: &msg.ID,
	}
	if err := repo.CreateNotification(ctx, s.DB, n); err != nil {
		return err
	}
	s.Pusher.PushToUser(msg.ReceiverID, "message_notification", map[string]any{
		"match_id":   msg.MatchID,
		"message_id": msg.ID,
		"sender_id":  msg.SenderID,
		"preview":    preview,
		"type":       msg.Type,
	})
	return nil
}

// List returns a page of the user's notifications plus the unread count.
// Limit defaults to 20 and is capped at 100; skip below zero is coerced.
func (s *NotificationService) List(ctx context.Context, userID string, limit, skip int) ([]domain.Notification, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	items, err := repo.ListNotifications(ctx, s.DB, userID, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	unread, err := repo.CountUnreadNotifications(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

// MarkRead flips one notification to read, enforcing recipient ownership.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	err := repo.MarkNotificationRead(ctx, s.DB, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

// MarkAllRead flips every unread notification for the user and returns how
// many were transitioned.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return repo.MarkAllNotificationsRead(ctx, s.DB, userID)
}

// clipRunes truncates s to at most max runes.
func clipRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
