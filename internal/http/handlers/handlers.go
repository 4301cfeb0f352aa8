// Handler wiring for the public API.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Business rules (mutual-match
// detection, super-like budgets, message ownership) live entirely in the
// services package; this file only maps their sentinel errors onto the stable
// HTTP error taxonomy in errors.go.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberlabs/go-dating-backend/internal/domain"
	"github.com/emberlabs/go-dating-backend/internal/services"
	"github.com/emberlabs/go-dating-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// DiscoveryService produces the ranked candidate feed for a user.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DiscoveryService interface {
	// Discover returns the ranked, filtered candidate list for userID.
	Discover(ctx context.Context, userID string) ([]services.Candidate, error)
}

// SearchService performs filtered, relevance-ranked profile search.
type SearchService interface {
	// Search returns one page of results plus the total result count.
	Search(ctx context.Context, userID string, f services.SearchFilter) ([]services.Candidate, int, error)
}

// MatchService covers swipe decisions and match lifecycle operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MatchService interface {
	// Like records a like and reports whether it completed a mutual match.
	Like(ctx context.Context, actorID, targetID string) (*services.DecisionResult, error)
	// Dislike records a pass; it can never create a match.
	Dislike(ctx context.Context, actorID, targetID string) error
	// SuperLike records a budget-limited super like.
	SuperLike(ctx context.Context, actorID, targetID string) (*services.DecisionResult, error)
	// Block hides the target from the actor and vice versa.
	Block(ctx context.Context, actorID, targetID string) error
	// Unmatch deactivates a match the actor participates in.
	Unmatch(ctx context.Context, actorID, matchID string) error
	// ListMatches returns the actor's active matches, most recent first.
	ListMatches(ctx context.Context, userID string) ([]domain.Match, error)
	// GetMatchFor returns a single active match the user participates in.
	GetMatchFor(ctx context.Context, userID, matchID string) (*domain.Match, error)
	// LikeCount reports how many people have liked the user.
	LikeCount(ctx context.Context, userID string) (int64, error)
}

// ChatService covers message creation and lifecycle within a match.
type ChatService interface {
	// Send persists a message and fans it out to the match conversation.
	Send(ctx context.Context, senderID, matchID, content, msgType string) (*domain.Message, error)
	// ListPage returns a page of messages and the total count, oldest first
	// within the page. Fetching marks messages addressed to the caller read.
	ListPage(ctx context.Context, callerID, matchID string, page, pageSize int) ([]domain.Message, int64, error)
	// Edit replaces the content of a message the caller sent recently.
	Edit(ctx context.Context, callerID, messageID, content string) (*domain.Message, error)
	// Delete soft-deletes a message the caller sent.
	Delete(ctx context.Context, callerID, messageID string) error
}

// NotificationService exposes the persistent notification inbox.
type NotificationService interface {
	// List returns a page of notifications plus the unread count.
	List(ctx context.Context, userID string, limit, skip int) ([]domain.Notification, int64, error)
	// MarkRead marks one notification owned by userID as read.
	MarkRead(ctx context.Context, userID, id string) error
	// MarkAllRead marks every unread notification for userID as read.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for discovery, matches, messages, and
// notifications. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	discoverySvc DiscoveryService
	searchSvc    SearchService
	matchSvc     MatchService
	chatSvc      ChatService
	notifSvc     NotificationService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(d DiscoveryService, s SearchService, m MatchService, ch ChatService, n NotificationService) *Handlers {
	return &Handlers{
		discoverySvc: d,
		searchSvc:    s,
		matchSvc:     m,
		chatSvc:      ch,
		notifSvc:     n,
	}
}

// userID extracts the authenticated user id from Gin context (set by the auth
// middleware). An empty result means the request was not authenticated.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failService maps service sentinel errors onto the shared error taxonomy.
// Unknown errors become 500s so that nothing internal leaks to clients.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSelfReference),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, services.ErrInvalidMessageType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrAlreadyDecided):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrMatchInactive),
		errors.Is(err, services.ErrMessageForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrSuperLikeLimit):
		fail(c, http.StatusTooManyRequests, ErrCodeSuperLikeLimit, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
