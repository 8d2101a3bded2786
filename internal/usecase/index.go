package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pharmadoc/internal/adapter/memstore"
	"pharmadoc/internal/domain"
	"pharmadoc/internal/port"
)

// IndexUseCase turns document paths into an in-memory index.
type IndexUseCase struct {
	loader      port.DocumentLoader
	chunker     port.Chunker
	embedder    port.Embedder
	metric      domain.Metric
	batchSize   int
	concurrency int
	configHash  string
	logger      *slog.Logger
}

// IndexOptions tune embedding and label the built index.
type IndexOptions struct {
	Metric      domain.Metric
	BatchSize   int
	Concurrency int
	ConfigHash  string
	Logger      *slog.Logger
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	loader port.DocumentLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	opts IndexOptions,
) *IndexUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Metric == "" {
		opts.Metric = domain.MetricCosine
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &IndexUseCase{
		loader:      loader,
		chunker:     chunker,
		embedder:    embedder,
		metric:      opts.Metric,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
		configHash:  opts.ConfigHash,
		logger:      opts.Logger,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	BuildID   string
	Documents int
	Segments  int
	Dimension int
	Duration  time.Duration
}

// ProgressFunc is called with the number of segments embedded so far. It may be
// called from several goroutines.
type ProgressFunc func(done, total int)

// Build loads, chunks and embeds paths. Any load or embedding failure aborts
// the whole build.
func (u *IndexUseCase) Build(ctx context.Context, paths []string, progress ProgressFunc) (*memstore.Index, *IndexResult, error) {
	start := time.Now()

	segments, err := u.Segment(ctx, paths)
	if err != nil {
		return nil, nil, err
	}

	index, err := u.BuildIndex(ctx, segments, progress)
	if err != nil {
		return nil, nil, err
	}

	meta := index.Meta()
	return index, &IndexResult{
		BuildID:   meta.BuildID,
		Documents: len(paths),
		Segments:  index.Len(),
		Dimension: meta.Dimension,
		Duration:  time.Since(start),
	}, nil
}

// Segment loads every path and chunks it, keeping path order.
func (u *IndexUseCase) Segment(ctx context.Context, paths []string) ([]domain.Segment, error) {
	var segments []domain.Segment
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := u.loader.Load(path)
		if err != nil {
			return nil, err
		}

		docSegments, err := u.chunker.Chunk(doc)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", path, err)
		}
		u.logger.Debug("document segmented", "path", path, "bytes", len(doc.Text), "pages", len(doc.Pages), "segments", len(docSegments))
		segments = append(segments, docSegments...)
	}
	return segments, nil
}

// BuildIndex embeds segments in batches, several batches at a time, and
// returns an index whose entries follow segment order.
func (u *IndexUseCase) BuildIndex(ctx context.Context, segments []domain.Segment, progress ProgressFunc) (*memstore.Index, error) {
	vectors := make([][]float32, len(segments))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for start := 0; start < len(segments); start += u.batchSize {
		end := start + u.batchSize
		if end > len(segments) {
			end = len(segments)
		}

		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = segments[start+i].Text
			}

			batch, err := u.embedder.Embed(gctx, texts)
			if err != nil {
				return &domain.EmbeddingError{Op: fmt.Sprintf("batch %d-%d", start, end), Err: err}
			}
			if len(batch) != len(texts) {
				return &domain.EmbeddingError{
					Op:  fmt.Sprintf("batch %d-%d", start, end),
					Err: fmt.Errorf("expected %d vectors, got %d", len(texts), len(batch)),
				}
			}
			copy(vectors[start:end], batch)

			if progress != nil {
				progress(int(done.Add(int64(len(texts)))), len(segments))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dimension := u.embedder.Dimension()
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}
	if len(vectors) > 0 && dimension == 0 {
		return nil, &domain.EmbeddingError{Op: "index", Err: fmt.Errorf("embedder returned an empty vector")}
	}

	entries := make([]domain.IndexEntry, len(segments))
	for i, seg := range segments {
		if len(vectors[i]) != dimension {
			return nil, &domain.EmbeddingError{
				Op:  "index",
				Err: fmt.Errorf("segment %d has dimension %d, expected %d", i, len(vectors[i]), dimension),
			}
		}
		entries[i] = domain.IndexEntry{Vector: vectors[i], Segment: seg}
	}

	return memstore.NewIndex(domain.IndexMeta{
		BuildID:        uuid.NewString(),
		Dimension:      dimension,
		Metric:         u.metric,
		EmbeddingModel: u.embedder.ModelName(),
		ConfigHash:     u.configHash,
		DocumentCount:  countSources(segments),
		CreatedAt:      time.Now().UTC(),
	}, entries)
}

func countSources(segments []domain.Segment) int {
	seen := make(map[string]struct{})
	for _, s := range segments {
		seen[s.Source] = struct{}{}
	}
	return len(seen)
}
