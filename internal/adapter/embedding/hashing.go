package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"pharmadoc/internal/adapter/analyzer"
	"pharmadoc/internal/port"
)

// HashingEmbedder maps text to a bag of hashed terms. It is deterministic and
// needs no service, which makes it suitable for offline indexes and tests.
type HashingEmbedder struct {
	dimension int
	tokenizer port.Tokenizer
}

func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 512
	}
	return &HashingEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = e.embed(text)
	}
	return embeddings, nil
}

func (e *HashingEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, term := range e.tokenizer.Tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(term))
		sum := h.Sum64()

		idx := int(sum % uint64(e.dimension))
		// sign bit spreads collisions around zero
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e *HashingEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashingEmbedder) ModelName() string {
	return fmt.Sprintf("hashing-%d", e.dimension)
}
