package cache

import (
	"context"
	"testing"
	"time"

	"pharmadoc/internal/domain"
)

type countingRetriever struct {
	calls int
}

func (r *countingRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Match, error) {
	r.calls++
	return []domain.Match{{Segment: domain.Segment{Text: query}, Score: 1}}, nil
}

func TestQueryCacheHitAndNormalize(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("b1", "ibuprofen  dosage", 4, []domain.Match{{Score: 0.5}})

	got, ok := c.Get("b1", " ibuprofen dosage ", 4)
	if !ok || len(got) != 1 {
		t.Fatalf("expected hit after whitespace normalization, got %v %v", got, ok)
	}
	if _, ok := c.Get("b1", "ibuprofen dosage", 5); ok {
		t.Error("expected miss for different k")
	}
	if _, ok := c.Get("b2", "ibuprofen dosage", 4); ok {
		t.Error("expected miss for a different build")
	}
}

func TestQueryCacheTTL(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("b", "q", 1, nil)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := c.Get("b", "q", 1); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Errorf("expected expired entry to be dropped, size %d", c.Size())
	}
}

func TestQueryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("b", "a", 1, nil)
	c.Put("b", "b", 1, nil)
	c.Get("b", "a", 1) // a is now most recent
	c.Put("b", "c", 1, nil)

	if _, ok := c.Get("b", "b", 1); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("b", "a", 1); !ok {
		t.Error("expected a to survive")
	}
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}
}

func TestCachedRetriever(t *testing.T) {
	inner := &countingRetriever{}
	c := NewQueryCache(10, time.Minute)
	r := NewCachedRetriever(inner, c, "build-1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.Retrieve(ctx, "aspirin", 2); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 underlying call, got %d", inner.calls)
	}

	c.Invalidate()
	if _, err := r.Retrieve(ctx, "aspirin", 2); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("expected a new call after invalidation, got %d", inner.calls)
	}

	next := NewCachedRetriever(inner, c, "build-2")
	if _, err := next.Retrieve(ctx, "aspirin", 2); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 3 {
		t.Errorf("expected a new call for a new build, got %d", inner.calls)
	}
}
