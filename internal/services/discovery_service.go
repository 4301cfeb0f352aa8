// Package services – DiscoveryService
//
// Builds the ranked candidate feed: exclusion sets and store-level filters
// first, then distance, then the compatibility score, then the max-distance
// cut, then ordering. Distance is always computed before the distance
// filter so it can feed the score for everyone who survives.
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
)

// Candidate is one entry of the discovery feed: a profile summary annotated
// with rounded distance and rounded score.
type Candidate struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Age        int      `json:"age"`
	Gender     string   `json:"gender"`
	Bio        string   `json:"bio"`
	Interests  []string `json:"interests"`
	Online     bool     `json:"online"`
	DistanceKm float64  `json:"distance_km"`
	Score      float64  `json:"score"`
}

// DiscoveryService computes the ranked candidate feed for a subject.
type DiscoveryService struct {
	DB *gorm.DB

	// FetchLimit caps how many filtered candidates are pulled from the
	// store before scoring. Defaults to 50.
	FetchLimit int
	// TopN caps how many ranked candidates are returned. Defaults to 10.
	TopN int
	// ActiveWindow is how recently a candidate must have been active.
	// Defaults to 30 days.
	ActiveWindow time.Duration

	// Now is the clock used for recency scoring; nil means time.Now.
	// Injected in tests to keep rankings reproducible.
	Now func() time.Time
}

// NewDiscoveryService constructs a DiscoveryService with the default caps.
func NewDiscoveryService(db *gorm.DB) *DiscoveryService {
	return &DiscoveryService{
		DB:           db,
		FetchLimit:   50,
		TopN:         10,
		ActiveWindow: 30 * 24 * time.Hour,
	}
}

// Discover returns the subject's ranked candidate feed.
//
// Filtering (before scoring): exclusion sets (self, everyone the subject
// decided on, users who blocked the subject, active match partners), the
// subject's preferred age range, a 30-day activity window, and gender
// reciprocity. The subject's max-distance preference is applied after
// distances are computed; candidates without coordinates carry the sentinel
// distance and are therefore always excluded by an active distance cap.
//
// Ties are broken by the store's stable input order (created_at, id).
func (s *DiscoveryService) Discover(ctx context.Context, userID string) ([]Candidate, error) {
	subject, err := repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	exclude, err := s.exclusions(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	q := repo.CandidateQuery{
		ExcludeIDs:  exclude,
		MinAge:      subject.MinAge,
		MaxAge:      subject.MaxAge,
		ActiveSince: s.now().Add(-s.ActiveWindow),
		Limit:       s.FetchLimit,
	}
	if subject.InterestedIn != "both" {
		q.Gender = subject.InterestedIn
	}
	if subject.Gender != "other" {
		q.InterestedIn = []string{subject.Gender, "both"}
	}

	pool, err := repo.ListCandidates(ctx, s.DB, q)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ranked := make([]Candidate, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		dist := score.ProfileDistanceKm(subject, c)
		if subject.MaxDistanceKm != nil && dist > float64(*subject.MaxDistanceKm) {
			continue
		}
		ranked = append(ranked, Candidate{
			ID:         c.ID,
			Name:       c.Name,
			Age:        c.Age,
			Gender:     c.Gender,
			Bio:        c.Bio,
			Interests:  c.Interests,
			Online:     c.Online,
			DistanceKm: math.Round(dist),
			Score:      math.Round(score.Compatibility(subject, c, dist, now)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > s.TopN {
		ranked = ranked[:s.TopN]
	}
	return ranked, nil
}

// exclusions assembles the ids discovery must never surface for userID.
func (s *DiscoveryService) exclusions(ctx context.Context, userID string) ([]string, error) {
	decided, err := repo.ListTargetIDs(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	blockers, err := repo.ListBlockerIDs(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	matched, err := repo.ListActivePairUserIDs(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{userID: {}}
	out := []string{userID}
	for _, group := range [][]string{decided, blockers, matched} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *DiscoveryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
