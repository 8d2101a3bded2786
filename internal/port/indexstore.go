package port

import (
	"context"

	"pharmadoc/internal/domain"
)

// IndexStore persists a built index. Load returns domain.ErrIndexNotBuilt when
// nothing has been saved yet.
type IndexStore interface {
	Save(ctx context.Context, meta domain.IndexMeta, entries []domain.IndexEntry) error

	Load(ctx context.Context) (domain.IndexMeta, []domain.IndexEntry, error)

	Close() error
}
