package port

import "pharmadoc/internal/domain"

// Assembler selects retrieved segments into a context that fits a character budget.
type Assembler interface {
	Assemble(matches []domain.Match, budget int) ([]domain.Segment, error)
}
