package cli

import (
	"context"
	"fmt"
	"log/slog"

	"pharmadoc/config"
	"pharmadoc/internal/adapter/cache"
	"pharmadoc/internal/adapter/chunker"
	"pharmadoc/internal/adapter/embedding"
	"pharmadoc/internal/adapter/fs"
	"pharmadoc/internal/adapter/llm"
	"pharmadoc/internal/adapter/store"
	"pharmadoc/internal/domain"
	"pharmadoc/internal/port"
	"pharmadoc/internal/usecase"
)

// app is the wired pipeline plus the resources it owns.
type app struct {
	pipeline *usecase.Pipeline
	store    port.IndexStore
	dbPath   string
}

func (a *app) Close() error {
	return a.store.Close()
}

// newApp wires every component from cfg. The index store lives under dir.
func newApp(cfg *config.Config, dir string) (*app, error) {
	logger := slog.Default()

	metric, err := domain.ParseMetric(cfg.Retrieve.Metric)
	if err != nil {
		return nil, err
	}

	chk, err := chunker.NewCharChunker(cfg.Chunk.Size, cfg.Chunk.Overlap)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", config.DataDirName, err)
	}
	dbPath := cfg.IndexDBPath(dir)
	st, err := store.Open(cfg, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	configHash := store.ComputeConfigHash(cfg)

	indexer := usecase.NewIndexUseCase(fs.NewLoader(cfg.Loader.FormFeedPages), chk, embedder, usecase.IndexOptions{
		Metric:      metric,
		BatchSize:   cfg.Embedding.BatchSize,
		Concurrency: cfg.Embedding.Concurrency,
		ConfigHash:  configHash,
		Logger:      logger,
	})

	synthesizer := usecase.NewSynthesizer(generator, llm.RetryConfig{
		MaxRetries: cfg.Synthesis.MaxRetries,
		BaseDelay:  cfg.Synthesis.BaseDelay,
		MaxDelay:   cfg.Synthesis.MaxDelay,
		Timeout:    cfg.Synthesis.Timeout,
	}, logger)

	var qc *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		qc = cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
	}

	pipeline := usecase.NewPipeline(indexer, embedder, usecase.NewContextAssembler(), synthesizer, usecase.PipelineOptions{
		TopK:       cfg.Retrieve.TopK,
		Budget:     cfg.Context.Budget,
		MinScore:   cfg.Retrieve.MinScore,
		ConfigHash: configHash,
		Store:      st,
		Cache:      qc,
		Logger:     logger,
	})

	return &app{pipeline: pipeline, store: st, dbPath: dbPath}, nil
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Dimension)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL), nil
	case "hashing":
		return embedding.NewHashingEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

func newGenerator(cfg *config.Config) (port.Generator, error) {
	opts := llm.Options{
		BaseURL:     cfg.Generation.BaseURL,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
	}
	switch cfg.Generation.Provider {
	case "openai":
		return llm.NewOpenAIGenerator(cfg.Generation.APIKeyEnv, cfg.Generation.Model, opts)
	case "ollama":
		return llm.NewOllamaGenerator(cfg.Generation.Model, opts), nil
	case "echo":
		return llm.NewEchoGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Generation.Provider)
	}
}

// openApp wires the pipeline and publishes the persisted index.
func openApp(ctx context.Context, cfg *config.Config, dir string) (*app, error) {
	a, err := newApp(cfg, dir)
	if err != nil {
		return nil, err
	}
	if err := a.pipeline.Open(ctx); err != nil {
		a.Close()
		if usecase.IsRebuildRequired(err) {
			return nil, fmt.Errorf("%w. Run 'pharmadoc build' first", err)
		}
		return nil, err
	}
	return a, nil
}
