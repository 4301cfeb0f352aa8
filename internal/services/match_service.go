// Package services – MatchService
//
// This file implements the affinity store operations (like, dislike,
// super-like, block) and the match state machine. Mutual-match detection is
// the one flow in the system that needs explicit conflict protection: two
// near-simultaneous likes from both sides of a pair must converge on a
// single match row. The store-level unique index on the canonical pair plus
// repo.CreateMatchIfAbsent make the creation path idempotent; this layer
// only decides when to invoke it and what to fan out afterwards.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/domain"
	"github.com/emberlabs/go-dating-backend/internal/repo"
)

// SuperLikeLimiter enforces the one-per-rolling-day super-like cap.
// Implemented by cache.RedisCache; Allow returns false when the caller has
// exhausted today's budget.
type SuperLikeLimiter interface {
	AllowSuperLike(ctx context.Context, userID string) (bool, error)
}

// LikeCounter maintains the cached count of likes received per user.
// Best-effort: errors are ignored by callers, the DB remains the source of
// truth.
type LikeCounter interface {
	IncrLikeCount(ctx context.Context, userID string) error
	GetLikeCount(ctx context.Context, userID string) (int64, bool, error)
	SetLikeCount(ctx context.Context, userID string, n int64) error
}

// DecisionResult reports the outcome of a like or super-like.
type DecisionResult struct {
	IsMatch bool          `json:"is_match"`
	Match   *domain.Match `json:"match,omitempty"`
}

// MatchService owns affinity mutations and the match lifecycle.
type MatchService struct {
	DB      *gorm.DB
	Notifs  *NotificationService
	Limiter SuperLikeLimiter
	Counter LikeCounter

	// SuperLikeWindow is the DB-fallback window used when the limiter is
	// unavailable. Defaults to 24h.
	SuperLikeWindow time.Duration

	// SuperLikeCap is the free-tier budget per window for the DB fallback.
	// Defaults to 1. The redis limiter carries its own copy of the cap.
	SuperLikeCap int
}

// NewMatchService constructs a MatchService. Limiter and Counter may be nil;
// the super-like cap then falls back to counting affinity rows.
func NewMatchService(db *gorm.DB, notifs *NotificationService, limiter SuperLikeLimiter, counter LikeCounter) *MatchService {
	return &MatchService{
		DB:              db,
		Notifs:          notifs,
		Limiter:         limiter,
		Counter:         counter,
		SuperLikeWindow: 24 * time.Hour,
		SuperLikeCap:    1,
	}
}

// Like records actor's like of target and checks reciprocity. On a mutual
// like exactly one match row exists afterwards, regardless of how the two
// sides raced; the result carries it.
func (s *MatchService) Like(ctx context.Context, actorID, targetID string) (*DecisionResult, error) {
	if err := s.precheck(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	if err := s.append(ctx, actorID, targetID, domain.AffinityLike); err != nil {
		return nil, err
	}
	if s.Counter != nil {
		_ = s.Counter.IncrLikeCount(ctx, targetID)
	}
	return s.afterLike(ctx, actorID, targetID, false)
}

// Dislike records actor's dislike of target. Dislikes never match and never
// notify.
func (s *MatchService) Dislike(ctx context.Context, actorID, targetID string) error {
	if err := s.precheck(ctx, actorID, targetID); err != nil {
		return err
	}
	return s.append(ctx, actorID, targetID, domain.AffinityDislike)
}

// SuperLike behaves like Like but additionally records the super-like set
// membership and is rate limited to one per rolling day for non-premium
// subscribers. Premium status is read from the directory projection; this
// core does not own it.
func (s *MatchService) SuperLike(ctx context.Context, actorID, targetID string) (*DecisionResult, error) {
	if err := s.precheck(ctx, actorID, targetID); err != nil {
		return nil, err
	}

	// Surface a duplicate before the budget check: the redis counter is
	// consumed by AllowSuperLike, and an attempt that was going to fail on
	// the like insert must not burn a budget unit. The insert below still
	// maps its own conflict for the concurrent case.
	already, err := repo.HasAffinity(ctx, s.DB, actorID, targetID, domain.AffinityLike)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyDecided
	}

	actor, err := repo.GetProfile(ctx, s.DB, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Premium() {
		if err := s.checkSuperLikeBudget(ctx, actorID); err != nil {
			return nil, err
		}
	}

	if err := s.append(ctx, actorID, targetID, domain.AffinityLike); err != nil {
		return nil, err
	}
	// The like row is the one that matters for mutual detection; the
	// super-like row only marks set membership and feeds the daily count.
	if err := s.append(ctx, actorID, targetID, domain.AffinitySuperLike); err != nil && !errors.Is(err, ErrAlreadyDecided) {
		return nil, err
	}
	if s.Counter != nil {
		_ = s.Counter.IncrLikeCount(ctx, targetID)
	}
	return s.afterLike(ctx, actorID, targetID, true)
}

// Block records actor's block of target. Blocked users disappear from both
// sides' discovery.
func (s *MatchService) Block(ctx context.Context, actorID, targetID string) error {
	if err := s.precheck(ctx, actorID, targetID); err != nil {
		return err
	}
	return s.append(ctx, actorID, targetID, domain.AffinityBlock)
}

// Unmatch deactivates a match on behalf of actor. The row is kept (the
// pair-uniqueness invariant depends on it); both participants drop out of
// each other's match list because listing filters on is_active.
func (s *MatchService) Unmatch(ctx context.Context, actorID, matchID string) error {
	m, err := repo.GetMatch(ctx, s.DB, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	if !m.Has(actorID) {
		return ErrNotParticipant
	}
	if err := repo.DeactivateMatch(ctx, s.DB, matchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Already inactive: a terminal state, surfaced as missing.
			return ErrMatchNotFound
		}
		return err
	}
	return nil
}

// ListMatches returns the caller's active matches, most recent activity
// first.
func (s *MatchService) ListMatches(ctx context.Context, userID string) ([]domain.Match, error) {
	return repo.ListActiveMatches(ctx, s.DB, userID)
}

// GetMatchFor returns the match by id if userID participates in it.
func (s *MatchService) GetMatchFor(ctx context.Context, userID, matchID string) (*domain.Match, error) {
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

// LikeCount returns how many users like userID, serving from the cache
// when possible and refreshing it from the DB on a miss.
func (s *MatchService) LikeCount(ctx context.Context, userID string) (int64, error) {
	if s.Counter != nil {
		if n, ok, err := s.Counter.GetLikeCount(ctx, userID); err == nil && ok {
			return n, nil
		}
	}
	n, err := repo.CountLikers(ctx, s.DB, userID)
	if err != nil {
		return 0, err
	}
	if s.Counter != nil {
		_ = s.Counter.SetLikeCount(ctx, userID, n)
	}
	return n, nil
}

// precheck rejects self-reference and unknown targets before any mutation.
func (s *MatchService) precheck(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfReference
	}
	if _, err := repo.GetProfile(ctx, s.DB, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// append writes one affinity row, mapping the duplicate conflict.
func (s *MatchService) append(ctx context.Context, actorID, targetID, kind string) error {
	err := repo.CreateAffinity(ctx, s.DB, actorID, targetID, kind)
	if errors.Is(err, repo.ErrDuplicateAffinity) {
		return ErrAlreadyDecided
	}
	return err
}

// afterLike runs mutual detection and fan-out once the actor's like row is
// committed.
func (s *MatchService) afterLike(ctx context.Context, actorID, targetID string, super bool) (*DecisionResult, error) {
	mutual, err := repo.HasAffinity(ctx, s.DB, targetID, actorID, domain.AffinityLike)
	if err != nil {
		return nil, err
	}
	if !mutual {
		if s.Notifs != nil {
			_ = s.Notifs.NotifyLike(ctx, actorID, targetID, super)
		}
		return &DecisionResult{IsMatch: false}, nil
	}

	m, created, err := s.ensureMatch(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if created && s.Notifs != nil {
		_ = s.Notifs.NotifyMatch(ctx, m)
	}
	return &DecisionResult{IsMatch: true, Match: m}, nil
}

// ensureMatch resolves a detected mutual like to exactly one active row.
// A stale inactive row for the pair (left behind by an unmatch) is
// reactivated rather than duplicated — the unique index forbids a second
// row, and reactivation is the deterministic rule chosen for that edge.
func (s *MatchService) ensureMatch(ctx context.Context, actorID, targetID string) (*domain.Match, bool, error) {
	m, created, err := repo.CreateMatchIfAbsent(ctx, s.DB, actorID, targetID)
	if err != nil {
		return nil, false, err
	}
	if created || m.IsActive {
		return m, created, nil
	}
	if err := repo.ReactivateMatch(ctx, s.DB, m.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	m, err = repo.GetMatch(ctx, s.DB, m.ID)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// checkSuperLikeBudget consults the redis rolling-day counter, falling back
// to counting affinity rows when the limiter is unavailable. A limiter
// error is not a hard failure; the DB answer decides.
func (s *MatchService) checkSuperLikeBudget(ctx context.Context, actorID string) error {
	if s.Limiter != nil {
		ok, err := s.Limiter.AllowSuperLike(ctx, actorID)
		if err == nil {
			if !ok {
				return ErrSuperLikeLimit
			}
			return nil
		}
	}
	cutoff := time.Now().UTC().Add(-s.SuperLikeWindow)
	n, err := repo.CountSuperLikesSince(ctx, s.DB, actorID, cutoff)
	if err != nil {
		return err
	}
	limit := int64(s.SuperLikeCap)
	if limit < 1 {
		limit = 1
	}
	if n >= limit {
		return ErrSuperLikeLimit
	}
	return nil
}
