package services

import (
	"context"
	"errors"
	"testing"

	"github.com/emberlabs/go-dating-backend/internal/domain"
)

func TestSearch_UnknownSubject(t *testing.T) {
	svc := NewSearchService(newTestDB(t))
	if _, _, err := svc.Search(context.Background(), "ghost", SearchFilter{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSearch_QueryNormalizationAndSubjectExclusion(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	mustProfile(t, db, "me", func(p *domain.Profile) { p.Bio = "hiking every weekend" })
	mustProfile(t, db, "p1", func(p *domain.Profile) { p.Bio = "I love Hiking and rain" })
	mustProfile(t, db, "p2", func(p *domain.Profile) {
		p.Name = "Hilda"
		p.Bio = "mountain hiking photos"
	})
	mustProfile(t, db, "p3", func(p *domain.Profile) { p.Bio = "museums only" })

	// Case and whitespace in the query are normalized before matching; the
	// subject never appears in their own results.
	out, total, err := svc.Search(ctx, "me", SearchFilter{Query: "  HIKing  "})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(out) != 2 {
		t.Fatalf("expected 2 hits, got %d/%d", len(out), total)
	}
	for _, c := range out {
		if c.ID == "me" || c.ID == "p3" {
			t.Fatalf("unexpected hit %s", c.ID)
		}
	}
}

func TestSearch_StructuredFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	mustProfile(t, db, "me")
	mustProfile(t, db, "online-f", func(p *domain.Profile) {
		p.Gender = "female"
		p.Online = true
	})
	mustProfile(t, db, "offline-f", func(p *domain.Profile) { p.Gender = "female" })
	mustProfile(t, db, "online-m", func(p *domain.Profile) {
		p.Gender = "male"
		p.Online = true
	})

	out, total, err := svc.Search(ctx, "me", SearchFilter{Gender: "female", OnlineOnly: true})
	if err != nil || total != 1 || len(out) != 1 || out[0].ID != "online-f" {
		t.Fatalf("expected [online-f], got %v, total=%d, %v", out, total, err)
	}

	out, total, err = svc.Search(ctx, "me", SearchFilter{MinAge: 31})
	if err != nil || total != 0 || len(out) != 0 {
		t.Fatalf("age filter leak: %v, total=%d, %v", out, total, err)
	}
}

func TestSearch_RelevanceOrdering(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	mustProfile(t, db, "me", func(p *domain.Profile) {
		p.Interests = []string{"hiking", "jazz", "cooking"}
	})
	mustProfile(t, db, "close-fit", func(p *domain.Profile) {
		p.Bio = "trail person"
		p.Interests = []string{"hiking", "jazz", "cooking"}
	})
	mustProfile(t, db, "loose-fit", func(p *domain.Profile) {
		p.Bio = "trail person"
	})

	out, _, err := svc.Search(ctx, "me", SearchFilter{Query: "trail"})
	if err != nil || len(out) != 2 {
		t.Fatalf("search: %v, %d results", err, len(out))
	}
	if out[0].ID != "close-fit" || out[1].ID != "loose-fit" {
		t.Fatalf("wrong order: %s, %s", out[0].ID, out[1].ID)
	}
	if out[0].Score <= out[1].Score {
		t.Fatalf("scores not descending: %v, %v", out[0].Score, out[1].Score)
	}
}

func TestSearch_Pagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	mustProfile(t, db, "me")
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		mustProfile(t, db, id)
	}

	out, total, err := svc.Search(ctx, "me", SearchFilter{Page: 1, PageSize: 2})
	if err != nil || total != 5 || len(out) != 2 {
		t.Fatalf("page 1: %v, total=%d, len=%d", err, total, len(out))
	}

	out, total, err = svc.Search(ctx, "me", SearchFilter{Page: 3, PageSize: 2})
	if err != nil || total != 5 || len(out) != 1 {
		t.Fatalf("page 3: %v, total=%d, len=%d", err, total, len(out))
	}

	// A page past the end is empty, not an error.
	out, total, err = svc.Search(ctx, "me", SearchFilter{Page: 9, PageSize: 2})
	if err != nil || total != 5 || len(out) != 0 {
		t.Fatalf("page 9: %v, total=%d, len=%d", err, total, len(out))
	}
}
