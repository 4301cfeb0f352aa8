// Package services – SearchService
//
// Free-text profile search ranked by the relevance heuristic (the lighter
// weighting of the two scorers). Filters are a closed struct: every
// supported filter is an explicit, validated field.
package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/repo"
	"github.com/emberlabs/go-dating-backend/internal/score"
	"github.com/emberlabs/go-dating-backend/internal/search"
)

// SearchFilter enumerates every supported search filter. Zero values mean
// "not filtered".
type SearchFilter struct {
	Query      string `form:"q"`
	Gender     string `form:"gender"`
	MinAge     int    `form:"min_age"`
	MaxAge     int    `form:"max_age"`
	Location   string `form:"location"`
	OnlineOnly bool   `form:"online"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// SearchService ranks free-text profile search results.
type SearchService struct {
	DB *gorm.DB

	// FetchLimit caps how many filtered rows are pulled for ranking.
	FetchLimit int
	// Now is the clock used for recency scoring; nil means time.Now.
	Now func() time.Time
}

// NewSearchService constructs a SearchService with the default fetch cap.
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{DB: db, FetchLimit: 200}
}

// Search returns one page of ranked results and the total result count.
// The subject is always excluded. Ties keep the store's stable input order.
func (s *SearchService) Search(ctx context.Context, userID string, f SearchFilter) ([]Candidate, int, error) {
	subject, err := repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, err
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 50 {
		f.PageSize = 50
	}

	term := search.NormalizeQuery(f.Query)
	location := search.NormalizeQuery(f.Location)

	pool, err := repo.SearchProfiles(ctx, s.DB, subject.ID, term, f.Gender, f.MinAge, f.MaxAge, location, f.OnlineOnly, s.FetchLimit)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	ranked := make([]Candidate, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		dist := score.ProfileDistanceKm(subject, c)
		ranked = append(ranked, Candidate{
			ID:         c.ID,
			Name:       c.Name,
			Age:        c.Age,
			Gender:     c.Gender,
			Bio:        c.Bio,
			Interests:  c.Interests,
			Online:     c.Online,
			DistanceKm: math.Round(dist),
			Score:      math.Round(score.Relevance(subject, c, dist, now)),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	total := len(ranked)
	start := (f.Page - 1) * f.PageSize
	if start >= total {
		return []Candidate{}, total, nil
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return ranked[start:end], total, nil
}

func (s *SearchService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
