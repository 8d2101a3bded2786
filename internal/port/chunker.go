package port

import "pharmadoc/internal/domain"

type Chunker interface {
	Chunk(doc domain.Document) ([]domain.Segment, error)
}
