package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"pharmadoc/internal/adapter/cache"
	"pharmadoc/internal/adapter/memstore"
	"pharmadoc/internal/adapter/retriever"
	"pharmadoc/internal/domain"
	"pharmadoc/internal/observability"
	"pharmadoc/internal/port"
)

// PipelineOptions holds the query-time tunables.
type PipelineOptions struct {
	TopK     int
	Budget   int
	MinScore float64

	// ConfigHash must match a persisted index for Open to accept it.
	ConfigHash string

	Store  port.IndexStore   // optional persistence
	Cache  *cache.QueryCache // optional retrieval cache
	Logger *slog.Logger
}

// Pipeline answers questions over a published index. Build replaces the index
// only on success; Answer reads the current index without locking.
type Pipeline struct {
	indexer     *IndexUseCase
	embedder    port.Embedder
	assembler   port.Assembler
	synthesizer *Synthesizer
	opts        PipelineOptions
	logger      *slog.Logger

	buildMu sync.Mutex
	current atomic.Pointer[published]
}

type published struct {
	index     *memstore.Index
	retriever port.Retriever
}

func NewPipeline(indexer *IndexUseCase, embedder port.Embedder, assembler port.Assembler, synthesizer *Synthesizer, opts PipelineOptions) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		indexer:     indexer,
		embedder:    embedder,
		assembler:   assembler,
		synthesizer: synthesizer,
		opts:        opts,
		logger:      opts.Logger,
	}
}

// Build indexes paths, persists the result when a store is configured, and
// publishes it. On error the previously published index stays in place.
func (p *Pipeline) Build(ctx context.Context, paths []string, progress ProgressFunc) (result *IndexResult, err error) {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	ctx, span := observability.StartBuildSpan(ctx, len(paths))
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	p.logger.Info("building index", "documents", len(paths))

	index, result, err := p.indexer.Build(ctx, paths, progress)
	if err != nil {
		return nil, err
	}

	if p.opts.Store != nil {
		if err := p.opts.Store.Save(ctx, index.Meta(), index.Entries()); err != nil {
			return nil, fmt.Errorf("persist index: %w", err)
		}
	}

	p.publish(index)
	observability.RecordBuildResult(span, result.Segments, result.Dimension, result.BuildID)
	p.logger.Info("index built",
		"build_id", result.BuildID,
		"documents", result.Documents,
		"segments", result.Segments,
		"dimension", result.Dimension,
		"duration", result.Duration,
	)
	return result, nil
}

// Open publishes the persisted index. It fails with domain.ErrIndexNotBuilt
// when nothing was persisted and domain.ErrStaleIndex when the index was built
// with a different configuration or embedding model.
func (p *Pipeline) Open(ctx context.Context) error {
	if p.opts.Store == nil {
		return fmt.Errorf("open index: %w", domain.ErrIndexNotBuilt)
	}

	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	meta, entries, err := p.opts.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	if p.opts.ConfigHash != "" && meta.ConfigHash != p.opts.ConfigHash {
		return fmt.Errorf("open index: %w: index configuration changed", domain.ErrStaleIndex)
	}
	if meta.EmbeddingModel != p.embedder.ModelName() {
		return fmt.Errorf("open index: %w: built with embedding model %q, configured %q",
			domain.ErrStaleIndex, meta.EmbeddingModel, p.embedder.ModelName())
	}

	index, err := memstore.NewIndex(meta, entries)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	p.publish(index)
	p.logger.Info("index opened", "build_id", meta.BuildID, "segments", index.Len(), "created_at", meta.CreatedAt)
	return nil
}

func (p *Pipeline) publish(index *memstore.Index) {
	var r port.Retriever = retriever.NewSemanticRetriever(index, p.embedder, p.opts.MinScore)
	if p.opts.Cache != nil {
		p.opts.Cache.Invalidate()
		r = cache.NewCachedRetriever(r, p.opts.Cache, index.Meta().BuildID)
	}
	p.current.Store(&published{index: index, retriever: r})
}

// Index returns the published index, or nil before the first Build or Open.
func (p *Pipeline) Index() *memstore.Index {
	if cur := p.current.Load(); cur != nil {
		return cur.index
	}
	return nil
}

// Answer retrieves, assembles and synthesizes an answer for query.
func (p *Pipeline) Answer(ctx context.Context, query string) (answer domain.Answer, err error) {
	ctx, span := observability.StartAnswerSpan(ctx, p.opts.TopK, p.opts.Budget)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	segments, err := p.Pack(ctx, query, p.opts.TopK, p.opts.Budget)
	if err != nil {
		return domain.Answer{}, err
	}

	answer, err = p.synthesizer.Synthesize(ctx, query, segments)
	if err != nil {
		return domain.Answer{}, err
	}

	p.logger.Info("question answered", "sources", len(answer.Sources))
	return answer, nil
}

// Retrieve returns the top-k matches for query from the published index.
func (p *Pipeline) Retrieve(ctx context.Context, query string, k int) ([]domain.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	cur := p.current.Load()
	if cur == nil {
		return nil, domain.ErrIndexNotBuilt
	}

	ctx, span := observability.StartRetrieveSpan(ctx, k)
	defer span.End()

	matches, err := cur.retriever.Retrieve(ctx, query, k)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return matches, nil
}

// Pack retrieves matches for query and assembles them into a context.
func (p *Pipeline) Pack(ctx context.Context, query string, k, budget int) ([]domain.Segment, error) {
	matches, err := p.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	segments, err := p.assembler.Assemble(matches, budget)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	p.logger.Debug("context assembled", "matches", len(matches), "segments", len(segments), "budget", budget)
	return segments, nil
}

// IsRebuildRequired reports whether err from Open means the index must be built.
func IsRebuildRequired(err error) bool {
	return errors.Is(err, domain.ErrIndexNotBuilt) || errors.Is(err, domain.ErrStaleIndex)
}
