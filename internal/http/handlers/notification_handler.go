// Notification HTTP handlers.
//
// This file exposes REST endpoints for the persistent notification inbox:
//   - GET /notifications               (list, newest first, with unread count)
//   - PUT /notifications/{id}/read     (mark one read)
//   - PUT /notifications/read-all      (mark everything read)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emberlabs/go-dating-backend/internal/domain"
	"github.com/emberlabs/go-dating-backend/internal/utils"
)

// ListNotificationsResponse wraps a page of notifications and the caller's
// unread count.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

// MarkAllReadResponse reports how many notifications were marked read.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// ListNotifications returns the caller's notifications, newest first.
// Supports limit and skip query parameters.
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 20)
	skip := utils.AtoiDefault(c.Query("skip"), 0)
	if skip < 0 {
		skip = 0
	}

	items, unread, err := h.notifSvc.List(c.Request.Context(), userID(c), limit, skip)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: items, UnreadCount: unread})
}

// MarkNotificationRead marks one notification owned by the caller as read.
// Marking an already-read notification is a no-op success.
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "notification id must be a UUID")
		return
	}

	if err := h.notifSvc.MarkRead(c.Request.Context(), userID(c), id); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// MarkAllNotificationsRead marks every unread notification for the caller as
// read and reports how many rows changed.
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.notifSvc.MarkAllRead(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, MarkAllReadResponse{Updated: n})
}
