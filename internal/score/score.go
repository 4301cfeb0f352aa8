// Package score implements the pure ranking functions used by discovery and
// free-text search: great-circle distance and the two additive heuristics
// (compatibility and relevance). All functions are deterministic for
// identical inputs so rankings are reproducible.
package score

import (
	"math"
	"time"

	"github.com/emberlabs/go-dating-backend/internal/domain"
	"github.com/emberlabs/go-dating-backend/internal/search"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// UnknownDistanceKm is the sentinel distance assigned when either profile is
// missing coordinates. Candidates at the sentinel are still scored, but are
// always excluded when a max-distance filter is active.
const UnknownDistanceKm = 999

// DistanceKm returns the great-circle distance between two coordinates
// (degrees) in kilometers. It is symmetric within floating-point tolerance.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// ProfileDistanceKm computes the distance between two profiles, degrading to
// UnknownDistanceKm when either side has no coordinates.
func ProfileDistanceKm(a, b *domain.Profile) float64 {
	if !a.HasLocation() || !b.HasLocation() {
		return UnknownDistanceKm
	}
	return DistanceKm(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
}

// Compatibility computes the discovery ranking score for candidate as seen
// by subject. The composition is additive and unbounded above:
//
//	age proximity      max(0, 100 - 2*|ageDiff|)
//	shared interests   count * 10
//	lifestyle          smoking +20, drinking +20, relationship goal +30
//	proximity          max(0, 50 - distanceKm)
//	recency            max(0, 30 - daysSinceLastActive)
func Compatibility(subject, candidate *domain.Profile, distanceKm float64, now time.Time) float64 {
	s := math.Max(0, 100-2*math.Abs(float64(subject.Age-candidate.Age)))
	s += float64(SharedInterests(subject.Interests, candidate.Interests)) * 10

	if subject.Smoking != "" && subject.Smoking == candidate.Smoking {
		s += 20
	}
	if subject.Drinking != "" && subject.Drinking == candidate.Drinking {
		s += 20
	}
	if subject.RelationshipGoal != "" && subject.RelationshipGoal == candidate.RelationshipGoal {
		s += 30
	}

	s += math.Max(0, 50-distanceKm)
	s += math.Max(0, 30-daysSince(candidate.LastActiveAt, now))
	return s
}

// Relevance computes the free-text search ranking score. It weights recency
// and proximity much lower than Compatibility and starts from a base of 10
// so every filtered-in candidate carries a nonzero score.
func Relevance(subject, candidate *domain.Profile, distanceKm float64, now time.Time) float64 {
	s := 10.0
	s += math.Max(0, 30-daysSince(candidate.LastActiveAt, now))
	s += math.Max(0, 20-math.Abs(float64(subject.Age-candidate.Age)))
	s += float64(SharedInterests(subject.Interests, candidate.Interests)) * 5
	s += math.Max(0, 20-distanceKm/10)

	if subject.Smoking != "" && subject.Smoking == candidate.Smoking {
		s += 5
	}
	if subject.Drinking != "" && subject.Drinking == candidate.Drinking {
		s += 5
	}
	if subject.RelationshipGoal != "" && subject.RelationshipGoal == candidate.RelationshipGoal {
		s += 10
	}
	return s
}

// SharedInterests counts tags present in both lists. Tags are folded with
// search.NormalizeTag before comparison, so "Hiking " and "hiking" count as
// the same interest.
func SharedInterests(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[search.NormalizeTag(t)] = struct{}{}
	}
	n := 0
	for _, t := range b {
		if _, ok := set[search.NormalizeTag(t)]; ok {
			n++
		}
	}
	return n
}

// daysSince returns the whole days elapsed from t to now, clamped at zero
// for timestamps in the future.
func daysSince(t, now time.Time) float64 {
	d := now.Sub(t).Hours() / 24
	return math.Max(0, math.Floor(d))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
