package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"pharmadoc/internal/domain"
	"pharmadoc/internal/port"
)

// QueryCache is an LRU cache of retrieval results with a TTL. Entries are
// tagged with the build id of the index that produced them.
type QueryCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*list.Element
	order   *list.List // front is most recently used
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheKey struct {
	query string
	k     int
}

type cacheEntry struct {
	key       cacheKey
	buildID   string
	matches   []domain.Match
	timestamp time.Time
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[cacheKey]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// normalizeQuery collapses whitespace; case is kept since embedders may be
// case sensitive.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func (c *QueryCache) Get(buildID, query string, k int) ([]domain.Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{query: normalizeQuery(query), k: k}
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := el.Value.(*cacheEntry)
	if entry.buildID != buildID || c.now().Sub(entry.timestamp) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}

	c.order.MoveToFront(el)
	return entry.matches, true
}

func (c *QueryCache) Put(buildID, query string, k int, matches []domain.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{query: normalizeQuery(query), k: k}
	entry := &cacheEntry{key: key, buildID: buildID, matches: matches, timestamp: c.now()}

	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	c.entries[key] = c.order.PushFront(entry)
}

// Invalidate drops every entry.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]*list.Element)
	c.order.Init()
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CachedRetriever serves repeated queries against one index build from the cache.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
	buildID   string
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache, buildID string) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
		buildID:   buildID,
	}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Match, error) {
	if results, hit := r.cache.Get(r.buildID, query, k); hit {
		return results, nil
	}

	results, err := r.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(r.buildID, query, k, results)

	return results, nil
}
