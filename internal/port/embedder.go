package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension, or 0 if it is only
	// known after the first call.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
