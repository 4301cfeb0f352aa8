package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/domain"
)

func TestCreateMatchIfAbsent_CanonicalPair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m1, created, err := CreateMatchIfAbsent(ctx, db, "zed", "amy")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if !created {
		t.Fatalf("expected first call to create")
	}
	if m1.UserLowID != "amy" || m1.UserHighID != "zed" {
		t.Fatalf("pair not canonical: %+v", m1)
	}
	if !m1.IsActive || m1.Status != domain.StatusMatched {
		t.Fatalf("new match should be active/matched: %+v", m1)
	}

	// Same pair in the opposite order returns the surviving row.
	m2, created, err := CreateMatchIfAbsent(ctx, db, "amy", "zed")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatalf("second call must not create")
	}
	if m2.ID != m1.ID {
		t.Fatalf("expected same row, got %s vs %s", m2.ID, m1.ID)
	}
}

func TestCreateMatchIfAbsent_ConcurrentMutualLike(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	createdCount := make(chan bool, workers)
	ids := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		a, b := "left", "right"
		if i%2 == 1 {
			a, b = b, a
		}
		go func(a, b string) {
			defer wg.Done()
			m, created, err := CreateMatchIfAbsent(ctx, db, a, b)
			if err != nil {
				t.Errorf("concurrent create: %v", err)
				return
			}
			createdCount <- created
			ids <- m.ID
		}(a, b)
	}
	wg.Wait()
	close(createdCount)
	close(ids)

	var wins int
	for c := range createdCount {
		if c {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one goroutine must create the row, got %d", wins)
	}

	var first string
	for id := range ids {
		if first == "" {
			first = id
		} else if id != first {
			t.Fatalf("divergent match ids: %s vs %s", first, id)
		}
	}
}

func TestGetMatch_And_GetMatchByPair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m, _, err := CreateMatchIfAbsent(ctx, db, "a", "b")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := GetMatch(ctx, db, m.ID)
	if err != nil || got.ID != m.ID {
		t.Fatalf("GetMatch: %+v, %v", got, err)
	}
	if _, err := GetMatch(ctx, db, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	byPair, err := GetMatchByPair(ctx, db, "b", "a")
	if err != nil || byPair.ID != m.ID {
		t.Fatalf("GetMatchByPair: %+v, %v", byPair, err)
	}
}

func TestListActiveMatches_OrderByActivity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	older, _, err := CreateMatchIfAbsent(ctx, db, "me", "old-flame")
	if err != nil {
		t.Fatalf("create older: %v", err)
	}
	newer, _, err := CreateMatchIfAbsent(ctx, db, "me", "new-flame")
	if err != nil {
		t.Fatalf("create newer: %v", err)
	}

	// Message activity on the older match should float it to the top.
	if err := TouchLastMessage(ctx, db, older.ID, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("touch: %v", err)
	}

	out, err := ListActiveMatches(ctx, db, "me")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(out))
	}
	if out[0].ID != older.ID {
		t.Fatalf("expected message activity to order first, got %s", out[0].ID)
	}
	_ = newer
}

func TestListActivePairUserIDs_ExcludesInactive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	kept, _, err := CreateMatchIfAbsent(ctx, db, "me", "kept")
	if err != nil {
		t.Fatalf("create kept: %v", err)
	}
	dropped, _, err := CreateMatchIfAbsent(ctx, db, "me", "dropped")
	if err != nil {
		t.Fatalf("create dropped: %v", err)
	}
	if err := DeactivateMatch(ctx, db, dropped.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	ids, err := ListActivePairUserIDs(ctx, db, "me")
	if err != nil {
		t.Fatalf("list pair ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "kept" {
		t.Fatalf("expected [kept], got %v", ids)
	}
	_ = kept
}

func TestDeactivate_And_Reactivate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m, _, err := CreateMatchIfAbsent(ctx, db, "a", "b")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := DeactivateMatch(ctx, db, m.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	// Double-deactivate finds no active row.
	if err := DeactivateMatch(ctx, db, m.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found on second deactivate, got %v", err)
	}

	// The row survives deactivation; the pair stays unique.
	if _, err := GetMatchByPair(ctx, db, "a", "b"); err != nil {
		t.Fatalf("row must survive deactivation: %v", err)
	}

	if err := ReactivateMatch(ctx, db, m.ID); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	got, err := GetMatch(ctx, db, m.ID)
	if err != nil {
		t.Fatalf("get after reactivate: %v", err)
	}
	if !got.IsActive || got.Status != domain.StatusMatched {
		t.Fatalf("reactivated row not active: %+v", got)
	}
	if !got.MatchedAt.After(m.MatchedAt) && !got.MatchedAt.Equal(m.MatchedAt) {
		t.Fatalf("matched_at should be refreshed")
	}
	// Reactivating an already-active row finds nothing to flip.
	if err := ReactivateMatch(ctx, db, m.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found reactivating active row, got %v", err)
	}
}
