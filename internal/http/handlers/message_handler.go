// Message HTTP handlers.
//
// This file exposes REST endpoints for the conversation inside a match:
//   - GET    /matches/{id}/messages  (list, paginated; marks a page read)
//   - POST   /matches/{id}/messages  (send)
//   - PUT    /messages/{id}          (edit own recent message)
//   - DELETE /messages/{id}          (soft-delete own message)
//
// Real-time delivery to connected websocket clients happens inside the chat
// service; these endpoints are the durable REST surface over the same store.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emberlabs/go-dating-backend/internal/domain"
)

//
// DTOs
//

// SendMessageRequest is the JSON payload for sending a message.
type SendMessageRequest struct {
	// Content is the message body (non-empty after trimming).
	Content string `json:"content" binding:"required"`
	// Type is the message kind: text (default), image, or gif.
	Type string `json:"type"`
}

// EditMessageRequest is the JSON payload for editing a message.
type EditMessageRequest struct {
	// Content is the replacement body (non-empty after trimming).
	Content string `json:"content" binding:"required"`
}

// ListMessagesResponse wraps a page of messages and pagination information.
// Messages within the page are ordered oldest first.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

//
// Handlers
//

// ListMessages returns one page of the conversation for a match the caller
// participates in. Fetching a page marks the messages addressed to the caller
// in it as read.
func (h *Handlers) ListMessages(c *gin.Context) {
	matchID := c.Param("id")
	if _, err := uuid.Parse(matchID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "match id must be a UUID")
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.chatSvc.ListPage(c.Request.Context(), userID(c), matchID, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// SendMessage appends a message to the conversation and fans it out to
// connected participants.
func (h *Handlers) SendMessage(c *gin.Context) {
	matchID := c.Param("id")
	if _, err := uuid.Parse(matchID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "match id must be a UUID")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.chatSvc.Send(c.Request.Context(), userID(c), matchID, req.Content, req.Type)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, msg)
}

// EditMessage replaces the content of a message the caller sent within the
// edit window.
func (h *Handlers) EditMessage(c *gin.Context) {
	messageID := c.Param("id")
	if _, err := uuid.Parse(messageID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message id must be a UUID")
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.chatSvc.Edit(c.Request.Context(), userID(c), messageID, req.Content)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, msg)
}

// DeleteMessage soft-deletes a message the caller sent. The row survives with
// placeholder content so the conversation keeps its shape.
func (h *Handlers) DeleteMessage(c *gin.Context) {
	messageID := c.Param("id")
	if _, err := uuid.Parse(messageID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message id must be a UUID")
		return
	}

	if err := h.chatSvc.Delete(c.Request.Context(), userID(c), messageID); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
