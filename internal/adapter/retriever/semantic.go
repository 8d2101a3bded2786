package retriever

import (
	"context"
	"fmt"

	"pharmadoc/internal/adapter/memstore"
	"pharmadoc/internal/domain"
	"pharmadoc/internal/port"
)

// SemanticRetriever embeds the query with the embedder the index was built
// with and ranks every segment of the index.
type SemanticRetriever struct {
	index    *memstore.Index
	embedder port.Embedder
	minScore float64
}

// NewSemanticRetriever returns a retriever over index. minScore of 0 disables
// score filtering.
func NewSemanticRetriever(index *memstore.Index, embedder port.Embedder, minScore float64) *SemanticRetriever {
	return &SemanticRetriever{
		index:    index,
		embedder: embedder,
		minScore: minScore,
	}
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Match, error) {
	if k <= 0 {
		return nil, domain.InvalidArgument("k must be positive, got %d", k)
	}
	if r.index == nil || r.index.Len() == 0 {
		return nil, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &domain.EmbeddingError{Op: "query", Err: err}
	}
	if len(embeddings) != 1 {
		return nil, &domain.EmbeddingError{Op: "query", Err: fmt.Errorf("expected 1 embedding, got %d", len(embeddings))}
	}

	matches, err := r.index.Search(embeddings[0], k)
	if err != nil {
		return nil, err
	}

	if r.minScore != 0 {
		filtered := matches[:0]
		for _, m := range matches {
			if m.Score >= r.minScore {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}

	return matches, nil
}
