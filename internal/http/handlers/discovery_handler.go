// Discovery HTTP handlers.
//
// This file exposes REST endpoints for the candidate feed and swipe decisions:
//   - GET  /discover                  (ranked candidate feed)
//   - GET  /search                    (filtered, relevance-ranked search)
//   - POST /discover/like/{id}        (like, may complete a mutual match)
//   - POST /discover/dislike/{id}     (pass)
//   - POST /discover/super-like/{id}  (budget-limited super like)
//   - POST /discover/block/{id}       (block)
//   - GET  /discover/likes/count      (how many people liked me)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberlabs/go-dating-backend/internal/domain"
	"github.com/emberlabs/go-dating-backend/internal/services"
)

// DiscoverResponse wraps the ranked candidate feed.
type DiscoverResponse struct {
	Candidates []services.Candidate `json:"candidates"`
	Count      int                  `json:"count"`
}

// SearchResponse wraps one page of search results and pagination information.
type SearchResponse struct {
	Results    []services.Candidate `json:"results"`
	Pagination Pagination           `json:"pagination"`
}

// DecisionResponse reports the outcome of a swipe decision.
type DecisionResponse struct {
	IsMatch bool          `json:"is_match"`
	Match   *domain.Match `json:"match,omitempty"`
}

// LikeCountResponse carries the count of users who liked the caller.
type LikeCountResponse struct {
	Count int64 `json:"count"`
}

// Discover returns the ranked candidate feed for the current user.
func (h *Handlers) Discover(c *gin.Context) {
	candidates, err := h.discoverySvc.Discover(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, DiscoverResponse{Candidates: candidates, Count: len(candidates)})
}

// Search returns a page of profiles matching the query filters, ranked by
// relevance. Filters bind from query parameters (q, gender, min_age, max_age,
// location, online_only, page, page_size).
func (h *Handlers) Search(c *gin.Context) {
	var f services.SearchFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid search parameters")
		return
	}
	if f.MinAge < 0 || f.MaxAge < 0 || (f.MaxAge > 0 && f.MaxAge < f.MinAge) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid age range")
		return
	}

	results, total, err := h.searchSvc.Search(c.Request.Context(), userID(c), f)
	if err != nil {
		failService(c, err)
		return
	}

	page, pageSize := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	totalPages := (total + pageSize - 1) / pageSize
	ok(c, http.StatusOK, SearchResponse{
		Results: results,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int64(total),
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// Like records a like on the target profile. When the target has already
// liked the caller, the response reports the completed match.
func (h *Handlers) Like(c *gin.Context) {
	res, err := h.matchSvc.Like(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, DecisionResponse{IsMatch: res.IsMatch, Match: res.Match})
}

// Dislike records a pass on the target profile.
func (h *Handlers) Dislike(c *gin.Context) {
	if err := h.matchSvc.Dislike(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// SuperLike records a super like on the target profile, subject to the
// caller's daily budget.
func (h *Handlers) SuperLike(c *gin.Context) {
	res, err := h.matchSvc.SuperLike(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, DecisionResponse{IsMatch: res.IsMatch, Match: res.Match})
}

// Block removes the target from the caller's feed in both directions.
func (h *Handlers) Block(c *gin.Context) {
	if err := h.matchSvc.Block(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// LikeCount reports how many users have liked the caller.
func (h *Handlers) LikeCount(c *gin.Context) {
	n, err := h.matchSvc.LikeCount(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, LikeCountResponse{Count: n})
}
