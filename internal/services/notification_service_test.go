package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/emberlabs/go-dating-backend/internal/domain"
	"github.com/emberlabs/go-dating-backend/internal/repo"
)

func TestNotifyMessage_PreviewClip(t *testing.T) {
	db := newTestDB(t)
	pusher := newRecordingPusher()
	svc := NewNotificationService(db, pusher)
	ctx := context.Background()

	long := strings.Repeat("přílišné ", 20) // multi-byte, >80 runes
	msg := &domain.Message{
		ID:         "m1",
		MatchID:    "match1",
		SenderID:   "u1",
		ReceiverID: "u2",
		Content:    long,
		Type:       "text",
	}
	if err := svc.NotifyMessage(ctx, msg); err != nil {
		t.Fatalf("notify: %v", err)
	}

	notifs, err := repo.ListNotifications(ctx, db, "u2", 10, 0)
	if err != nil || len(notifs) != 1 {
		t.Fatalf("expected one notification, got %v, %v", notifs, err)
	}
	n := notifs[0]
	if n.Type != domain.NotifMessage {
		t.Fatalf("wrong type: %s", n.Type)
	}
	if got := utf8.RuneCountInString(n.Body); got != messagePreviewRunes {
		t.Fatalf("preview not clipped to %d runes, got %d", messagePreviewRunes, got)
	}
	if !strings.HasPrefix(long, n.Body) {
		t.Fatalf("preview is not a prefix of the content")
	}
	if n.MatchID == nil || *n.MatchID != "match1" || n.MessageID == nil || *n.MessageID != "m1" {
		t.Fatalf("references missing: %+v", n)
	}

	if got := pusher.personalEvents("u2"); len(got) != 1 || got[0].Event != "message_notification" {
		t.Fatalf("expected message_notification push, got %+v", got)
	}
}

func TestNotifyMessage_ShortContentUntouched(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	ctx := context.Background()

	msg := &domain.Message{ID: "m1", MatchID: "match1", SenderID: "u1", ReceiverID: "u2", Content: "hey", Type: "text"}
	if err := svc.NotifyMessage(ctx, msg); err != nil {
		t.Fatalf("notify: %v", err)
	}
	notifs, _ := repo.ListNotifications(ctx, db, "u2", 10, 0)
	if len(notifs) != 1 || notifs[0].Body != "hey" {
		t.Fatalf("short content must pass through, got %+v", notifs)
	}
}

func TestNotificationService_ListAndUnread(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sender := "other"
		n := &domain.Notification{
			UserID:   "u1",
			Type:     domain.NotifLike,
			Title:    "Someone likes you",
			SenderID: &sender,
		}
		if err := repo.CreateNotification(ctx, db, n); err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	items, unread, err := svc.List(ctx, "u1", 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || unread != 3 {
		t.Fatalf("expected page of 2 with 3 unread, got %d/%d", len(items), unread)
	}

	// Zero limit falls back to the default page size.
	items, _, err = svc.List(ctx, "u1", 0, 0)
	if err != nil || len(items) != 3 {
		t.Fatalf("default limit: %v, %d items", err, len(items))
	}
}

func TestNotificationService_MarkRead_Ownership(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	ctx := context.Background()

	n := &domain.Notification{UserID: "u1", Type: domain.NotifSystem, Title: "Welcome"}
	if err := repo.CreateNotification(ctx, db, n); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.MarkRead(ctx, "intruder", n.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
	if err := svc.MarkRead(ctx, "u1", "missing"); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for missing id, got %v", err)
	}
	if err := svc.MarkRead(ctx, "u1", n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if _, unread, err := svc.List(ctx, "u1", 10, 0); err != nil || unread != 0 {
		t.Fatalf("expected 0 unread, got %d, %v", unread, err)
	}
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		n := &domain.Notification{UserID: "u1", Type: domain.NotifSystem, Title: "Welcome"}
		if err := repo.CreateNotification(ctx, db, n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	updated, err := svc.MarkAllRead(ctx, "u1")
	if err != nil || updated != 2 {
		t.Fatalf("expected 2 transitions, got %d, %v", updated, err)
	}
	updated, err = svc.MarkAllRead(ctx, "u1")
	if err != nil || updated != 0 {
		t.Fatalf("repeat should transition 0, got %d, %v", updated, err)
	}
}
