// Match HTTP handlers.
//
// This file exposes REST endpoints for match resources:
//   - GET    /matches       (list active matches, most recently active first)
//   - GET    /matches/{id}  (fetch one match the caller participates in)
//   - DELETE /matches/{id}  (unmatch)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emberlabs/go-dating-backend/internal/domain"
)

// ListMatchesResponse wraps the caller's active matches.
type ListMatchesResponse struct {
	Matches []domain.Match `json:"matches"`
	Count   int            `json:"count"`
}

// ListMatches returns the caller's active matches ordered by recent activity.
func (h *Handlers) ListMatches(c *gin.Context) {
	matches, err := h.matchSvc.ListMatches(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ListMatchesResponse{Matches: matches, Count: len(matches)})
}

// GetMatch returns a single active match the caller participates in.
func (h *Handlers) GetMatch(c *gin.Context) {
	matchID := c.Param("id")
	if _, err := uuid.Parse(matchID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "match id must be a UUID")
		return
	}

	m, err := h.matchSvc.GetMatchFor(c.Request.Context(), userID(c), matchID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// Unmatch deactivates a match. The conversation survives but no further
// messages can be sent in it.
func (h *Handlers) Unmatch(c *gin.Context) {
	matchID := c.Param("id")
	if _, err := uuid.Parse(matchID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "match id must be a UUID")
		return
	}

	if err := h.matchSvc.Unmatch(c.Request.Context(), userID(c), matchID); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
