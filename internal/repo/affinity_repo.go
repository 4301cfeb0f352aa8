// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Affinity
// model: the append-only like/dislike/super-like/block sets.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberlabs/go-dating-backend/internal/domain"
)

// ErrDuplicateAffinity is returned by CreateAffinity when the
// (user, target, kind) triple already exists. Rows are append-only, so a
// duplicate insert is always a caller error rather than an upsert.
var ErrDuplicateAffinity = errors.New("affinity already recorded")

// CreateAffinity appends one decision row. The composite primary key makes
// the insert conflict when the decision was already recorded; the conflict
// is detected via DO NOTHING + RowsAffected so concurrent duplicates fail
// deterministically instead of racing on a prior existence check.
func CreateAffinity(ctx context.Context, db *gorm.DB, userID, targetID, kind string) error {
	row := domain.Affinity{
		UserID:    userID,
		TargetID:  targetID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateAffinity
	}
	return nil
}

// HasAffinity reports whether userID has recorded the given kind of decision
// about targetID. Used for mutual-like detection (reverse lookup hits
// idx_target_kind).
func HasAffinity(ctx context.Context, db *gorm.DB, userID, targetID, kind string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Affinity{}).
		Where("user_id = ? AND target_id = ? AND kind = ?", userID, targetID, kind).
		Count(&n).Error
	return n > 0, err
}

// ListTargetIDs returns the ids of every user that userID has recorded any
// of the given kinds about. With no kinds it returns all of userID's
// decisions, which is exactly the discovery exclusion set.
func ListTargetIDs(ctx context.Context, db *gorm.DB, userID string, kinds ...string) ([]string, error) {
	var out []string
	q := db.WithContext(ctx).
		Model(&domain.Affinity{}).
		Where("user_id = ?", userID)
	if len(kinds) > 0 {
		q = q.Where("kind IN ?", kinds)
	}
	err := q.Distinct().Pluck("target_id", &out).Error
	return out, err
}

// ListBlockerIDs returns the ids of every user that has blocked targetID.
// Discovery excludes these in both directions.
func ListBlockerIDs(ctx context.Context, db *gorm.DB, targetID string) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Affinity{}).
		Where("target_id = ? AND kind = ?", targetID, domain.AffinityBlock).
		Pluck("user_id", &out).Error
	return out, err
}

// CountSuperLikesSince counts super-likes recorded by userID at or after
// the cutoff. Kept as a DB fallback for the redis rolling-day counter.
func CountSuperLikesSince(ctx context.Context, db *gorm.DB, userID string, cutoff time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Affinity{}).
		Where("user_id = ? AND kind = ? AND created_at >= ?", userID, domain.AffinitySuperLike, cutoff).
		Count(&n).Error
	return n, err
}

// CountLikers returns how many users currently like targetID. Feeds the
// cached like counter; excludes nobody because likes are append-only.
func CountLikers(ctx context.Context, db *gorm.DB, targetID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Affinity{}).
		Where("target_id = ? AND kind = ?", targetID, domain.AffinityLike).
		Count(&n).Error
	return n, err
}
