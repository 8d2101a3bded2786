package memstore

import (
	"fmt"
	"math"
	"sort"

	"pharmadoc/internal/domain"
)

// Index is an immutable, insertion-ordered set of embedded segments. It is
// safe for concurrent use without locking once constructed.
type Index struct {
	meta    domain.IndexMeta
	entries []domain.IndexEntry
}

// NewIndex validates entries against meta.Dimension and takes ownership of them.
// A zero dimension is taken from the first entry.
func NewIndex(meta domain.IndexMeta, entries []domain.IndexEntry) (*Index, error) {
	if meta.Metric == "" {
		meta.Metric = domain.MetricCosine
	}
	if _, err := domain.ParseMetric(string(meta.Metric)); err != nil {
		return nil, err
	}
	if meta.Dimension == 0 && len(entries) > 0 {
		meta.Dimension = len(entries[0].Vector)
	}
	for i, e := range entries {
		if len(e.Vector) != meta.Dimension {
			return nil, &domain.EmbeddingError{
				Op:  "index",
				Err: fmt.Errorf("entry %d has dimension %d, index dimension is %d", i, len(e.Vector), meta.Dimension),
			}
		}
	}
	meta.SegmentCount = len(entries)
	return &Index{meta: meta, entries: entries}, nil
}

func (ix *Index) Meta() domain.IndexMeta {
	return ix.meta
}

func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entries returns the entries in insertion order. Callers must not modify them.
func (ix *Index) Entries() []domain.IndexEntry {
	return ix.entries
}

// Search scores every entry against query and returns the top k, highest score
// first. Equal scores keep insertion order.
func (ix *Index) Search(query []float32, k int) ([]domain.Match, error) {
	if k <= 0 {
		return nil, domain.InvalidArgument("k must be positive, got %d", k)
	}
	if len(ix.entries) == 0 {
		return nil, nil
	}
	if len(query) != ix.meta.Dimension {
		return nil, &domain.EmbeddingError{
			Op:  "query",
			Err: fmt.Errorf("query dimension mismatch: expected %d, got %d", ix.meta.Dimension, len(query)),
		}
	}

	score := cosineSimilarity
	if ix.meta.Metric == domain.MetricL2 {
		score = negL2
	}

	matches := make([]domain.Match, len(ix.entries))
	for i, e := range ix.entries {
		matches[i] = domain.Match{Segment: e.Segment, Score: score(query, e.Vector)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// cosineSimilarity is 0 when either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// negL2 negates the euclidean distance so that higher is better.
func negL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return -math.Sqrt(sum)
}
