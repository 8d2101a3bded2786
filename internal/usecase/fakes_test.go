package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/sashabaranov/go-openai"

	"pharmadoc/internal/domain"
)

// scriptedGenerator returns errs in order, then answer.
type scriptedGenerator struct {
	mu     sync.Mutex
	errs   []error
	answer string
	calls  int
	prompt string
}

func (g *scriptedGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompt = userPrompt
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return "", err
	}
	return g.answer, nil
}

func (g *scriptedGenerator) ModelName() string { return "scripted" }

func transient() error {
	return &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}
}

// countingEmbedder maps each text to a vector of its length, or fails.
type countingEmbedder struct {
	mu        sync.Mutex
	calls     int
	dimension int
	failOn    int // 1-based call number that fails, 0 = never
	short     bool
	growOn    int // 1-based call number whose vectors get one extra component
}

var errEmbedDown = errors.New("embedding service down")

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	call := e.calls
	e.mu.Unlock()

	if e.failOn != 0 && call == e.failOn {
		return nil, errEmbedDown
	}
	dim := e.dimension
	if e.growOn != 0 && call == e.growOn {
		dim++
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, dim)
		v[0] = float32(len(text))
		v[1] = 1
		out[i] = v
	}
	if e.short && len(out) > 0 {
		out = out[1:]
	}
	return out, nil
}

func (e *countingEmbedder) Dimension() int    { return e.dimension }
func (e *countingEmbedder) ModelName() string { return "counting" }

// memLoader serves documents from memory.
type memLoader map[string]domain.Document

func (l memLoader) Load(path string) (domain.Document, error) {
	doc, ok := l[path]
	if !ok {
		return domain.Document{}, &domain.LoadError{Path: path, Err: errors.New("no such file")}
	}
	return doc, nil
}

// memStore keeps one snapshot in memory.
type memStore struct {
	meta    domain.IndexMeta
	entries []domain.IndexEntry
	saved   bool
	saveErr error
}

func (s *memStore) Save(ctx context.Context, meta domain.IndexMeta, entries []domain.IndexEntry) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.meta, s.entries, s.saved = meta, entries, true
	return nil
}

func (s *memStore) Load(ctx context.Context) (domain.IndexMeta, []domain.IndexEntry, error) {
	if !s.saved {
		return domain.IndexMeta{}, nil, domain.ErrIndexNotBuilt
	}
	return s.meta, s.entries, nil
}

func (s *memStore) Close() error { return nil }
