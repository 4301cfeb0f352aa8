package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestPing(t *testing.T) {
	c, _ := newTestCache(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestLikeCount_Lifecycle(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	// Absent key is a miss, not an error.
	n, ok, err := c.GetLikeCount(ctx, "u1")
	if err != nil || ok || n != 0 {
		t.Fatalf("expected miss, got %d, %v, %v", n, ok, err)
	}

	if err := c.IncrLikeCount(ctx, "u1"); err != nil {
		t.Fatalf("incr: %v", err)
	}
	if err := c.IncrLikeCount(ctx, "u1"); err != nil {
		t.Fatalf("incr: %v", err)
	}
	n, ok, err = c.GetLikeCount(ctx, "u1")
	if err != nil || !ok || n != 2 {
		t.Fatalf("expected 2, got %d, %v, %v", n, ok, err)
	}

	if err := c.SetLikeCount(ctx, "u1", 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	n, ok, err = c.GetLikeCount(ctx, "u1")
	if err != nil || !ok || n != 7 {
		t.Fatalf("expected 7 after set, got %d, %v, %v", n, ok, err)
	}
}

func TestLikeCount_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.IncrLikeCount(ctx, "u1"); err != nil {
		t.Fatalf("incr: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	if _, ok, err := c.GetLikeCount(ctx, "u1"); err != nil || ok {
		t.Fatalf("expected expiry miss, got ok=%v, %v", ok, err)
	}
}

func TestAllowSuperLike_Budget(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.AllowSuperLike(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("first consume should pass: %v, %v", ok, err)
	}
	ok, err = c.AllowSuperLike(ctx, "u1")
	if err != nil || ok {
		t.Fatalf("second consume within window must be refused: %v, %v", ok, err)
	}

	// Budget is per user.
	ok, err = c.AllowSuperLike(ctx, "u2")
	if err != nil || !ok {
		t.Fatalf("other user has their own budget: %v, %v", ok, err)
	}

	// The window key carries a TTL and resets after a day.
	if ttl := mr.TTL("superlikes:budget:u1"); ttl <= 0 || ttl > 24*time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	mr.FastForward(25 * time.Hour)
	ok, err = c.AllowSuperLike(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("budget should reset after the window: %v, %v", ok, err)
	}
}

func TestAllowSuperLike_ConfigurableCapAndWindow(t *testing.T) {
	c, mr := newTestCache(t)
	c.SuperLikeCap = 2
	c.SuperLikeWindow = 12 * time.Hour
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := c.AllowSuperLike(ctx, "u1")
		if err != nil || !ok {
			t.Fatalf("consume %d should pass: %v, %v", i+1, ok, err)
		}
	}
	ok, err := c.AllowSuperLike(ctx, "u1")
	if err != nil || ok {
		t.Fatalf("third consume exceeds the cap: %v, %v", ok, err)
	}

	if ttl := mr.TTL("superlikes:budget:u1"); ttl <= 0 || ttl > 12*time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	mr.FastForward(13 * time.Hour)
	ok, err = c.AllowSuperLike(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("budget should reset after the configured window: %v, %v", ok, err)
	}
}
