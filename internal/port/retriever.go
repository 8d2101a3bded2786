package port

import (
	"context"

	"pharmadoc/internal/domain"
)

// Retriever searches the published index for segments similar to the query.
type Retriever interface {
	// Retrieve returns the top-k matches ordered by descending score.
	Retrieve(ctx context.Context, query string, k int) ([]domain.Match, error)
}
