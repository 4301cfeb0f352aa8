// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// read model (the local projection of the User Directory) including the
// discovery candidate query.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/domain"
)

// CandidateQuery is the closed set of store-level filters applied before
// scoring. Every supported filter is an explicit field; there is no
// free-form filter map.
type CandidateQuery struct {
	// ExcludeIDs removes the subject, everyone the subject has decided on,
	// users who blocked the subject, and active match partners.
	ExcludeIDs []string
	// MinAge / MaxAge bound the candidate's age (inclusive).
	MinAge, MaxAge int
	// Gender restricts the candidate's gender, "" for no restriction.
	Gender string
	// InterestedIn, when non-empty, requires the candidate's stated interest
	// to include one of these values (gender reciprocity).
	InterestedIn []string
	// ActiveSince drops candidates whose last activity predates it.
	ActiveSince time.Time
	// Limit caps the fetch (the discovery fetch cap, not the response size).
	Limit int
}

// GetProfile fetches a profile by id, or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a directory projection row. Used by seeding and by
// the directory sync job; the core never mutates profile content.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	if p.LastActiveAt.IsZero() {
		p.LastActiveAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(p).Error
}

// ListCandidates returns profiles passing the store-level discovery filters
// in a deterministic order (created_at, id) so that score ties resolve
// stably across runs.
func ListCandidates(ctx context.Context, db *gorm.DB, q CandidateQuery) ([]domain.Profile, error) {
	tx := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("age BETWEEN ? AND ?", q.MinAge, q.MaxAge)

	if len(q.ExcludeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", q.ExcludeIDs)
	}
	if q.Gender != "" {
		tx = tx.Where("gender = ?", q.Gender)
	}
	if len(q.InterestedIn) > 0 {
		tx = tx.Where("interested_in IN ?", q.InterestedIn)
	}
	if !q.ActiveSince.IsZero() {
		tx = tx.Where("last_active_at >= ?", q.ActiveSince)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var out []domain.Profile
	err := tx.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// SearchProfiles returns profiles whose name or bio contains the (already
// normalized) term, plus any of the optional structured filters. Ordering is
// deterministic; relevance ranking happens in the service layer.
func SearchProfiles(ctx context.Context, db *gorm.DB, excludeID, term string, gender string, minAge, maxAge int, locationLike string, onlineOnly bool, limit int) ([]domain.Profile, error) {
	tx := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id <> ?", excludeID)

	if term != "" {
		like := "%" + term + "%"
		tx = tx.Where("(LOWER(name) LIKE ? OR LOWER(bio) LIKE ?)", like, like)
	}
	if gender != "" {
		tx = tx.Where("gender = ?", gender)
	}
	if minAge > 0 {
		tx = tx.Where("age >= ?", minAge)
	}
	if maxAge > 0 {
		tx = tx.Where("age <= ?", maxAge)
	}
	if locationLike != "" {
		tx = tx.Where("LOWER(location) LIKE ?", "%"+locationLike+"%")
	}
	if onlineOnly {
		tx = tx.Where("online = ?", true)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var out []domain.Profile
	err := tx.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// SetPresence updates the liveness markers maintained by the realtime
// layer. Last-writer-wins; no cross-row invariant.
func SetPresence(ctx context.Context, db *gorm.DB, id string, online bool) error {
	return db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{"online": online, "last_active_at": time.Now().UTC()}).Error
}
