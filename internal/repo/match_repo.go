// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Match
// model, including the conditional insert that resolves the mutual-like
// race.
//
// Error semantics:
//   - When a match is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberlabs/go-dating-backend/internal/domain"
)

// CreateMatchIfAbsent inserts the match row for the unordered pair (a, b),
// or returns the existing row when one already exists. The pair is stored
// in canonical (low, high) order and guarded by the ux_match_pair unique
// index, so two concurrent mutual-like detections cannot both insert:
// the loser's INSERT hits the index, affects zero rows, and falls through
// to re-reading the winner's row.
//
// The bool result reports whether this call created the row.
func CreateMatchIfAbsent(ctx context.Context, db *gorm.DB, a, b string) (*domain.Match, bool, error) {
	low, high := domain.PairKey(a, b)
	now := time.Now().UTC()
	m := &domain.Match{
		ID:         uuid.NewString(),
		UserLowID:  low,
		UserHighID: high,
		Status:     domain.StatusMatched,
		IsActive:   true,
		MatchedAt:  now,
		ExpiresAt:  now.Add(domain.MatchExpiry),
		CreatedAt:  now,
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
			DoNothing: true,
		}).
		Create(m)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return m, true, nil
	}

	// Race lost (or the pair matched before): return the surviving row.
	existing, err := GetMatchByPair(ctx, db, a, b)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetMatch fetches a match by id, or ErrNotFound.
func GetMatch(ctx context.Context, db *gorm.DB, id string) (*domain.Match, error) {
	var m domain.Match
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMatchByPair fetches the single row for the unordered pair (a, b),
// active or not, or ErrNotFound.
func GetMatchByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Match, error) {
	low, high := domain.PairKey(a, b)
	var m domain.Match
	err := db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActiveMatches returns the user's active matches, most recent activity
// first (last message, falling back to match time).
func ListActiveMatches(ctx context.Context, db *gorm.DB, userID string) ([]domain.Match, error) {
	var out []domain.Match
	err := db.WithContext(ctx).
		Where("(user_low_id = ? OR user_high_id = ?) AND is_active = ?", userID, userID, true).
		Order("COALESCE(last_message_at, matched_at) DESC").
		Find(&out).Error
	return out, err
}

// ListActivePairUserIDs returns the ids of everyone userID holds an active
// match with. Used as a discovery exclusion set.
func ListActivePairUserIDs(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var matches []domain.Match
	err := db.WithContext(ctx).
		Select("user_low_id", "user_high_id").
		Where("(user_low_id = ? OR user_high_id = ?) AND is_active = ?", userID, userID, true).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for i := range matches {
		out = append(out, matches[i].Other(userID))
	}
	return out, nil
}

// DeactivateMatch sets is_active to false. The row is never deleted; the
// pair-uniqueness invariant depends on it surviving. Returns ErrNotFound
// when no active row was flipped.
func DeactivateMatch(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Match{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReactivateMatch flips an inactive pair row back to active and refreshes
// matched_at/expires_at. This is the deterministic rule applied when a
// mutual like is detected over a previously unmatched pair.
func ReactivateMatch(ctx context.Context, db *gorm.DB, id string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Match{}).
		Where("id = ? AND is_active = ?", id, false).
		Updates(map[string]any{
			"is_active":  true,
			"status":     domain.StatusMatched,
			"matched_at": now,
			"expires_at": now.Add(domain.MatchExpiry),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastMessage records message activity on the match. Last-writer-wins
// is fine here; there is no cross-row invariant.
func TouchLastMessage(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Match{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}
