package usecase

import (
	"pharmadoc/internal/domain"
)

// ContextAssembler packs ranked matches into a context of bounded size.
type ContextAssembler struct{}

func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// Assemble walks matches in order and keeps each segment that still fits the
// remaining budget (in bytes of segment text). Segments that do not fit are
// skipped whole, never truncated, so later smaller ones may still be used.
// Repeated (source, page, offset) segments are kept once.
func (a *ContextAssembler) Assemble(matches []domain.Match, budget int) ([]domain.Segment, error) {
	if budget < 0 {
		return nil, domain.InvalidArgument("budget must not be negative, got %d", budget)
	}

	selected := make([]domain.Segment, 0, len(matches))
	seen := make(map[domain.SegmentKey]struct{}, len(matches))
	used := 0

	for _, m := range matches {
		key := m.Segment.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		if used+len(m.Segment.Text) > budget {
			continue
		}
		seen[key] = struct{}{}
		selected = append(selected, m.Segment)
		used += len(m.Segment.Text)
	}

	return selected, nil
}
