package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"pharmadoc/internal/adapter/chunker"
	"pharmadoc/internal/domain"
)

func numberedSegments(n int) []domain.Segment {
	segments := make([]domain.Segment, n)
	for i := range segments {
		segments[i] = domain.Segment{
			Text:   fmt.Sprintf("segment %d %s", i, string(make([]byte, i))),
			Source: fmt.Sprintf("doc%d.txt", i%3),
			Offset: i * 10,
		}
	}
	return segments
}

func TestBuildIndexPreservesOrder(t *testing.T) {
	embedder := &countingEmbedder{dimension: 4}
	u := NewIndexUseCase(nil, nil, embedder, IndexOptions{BatchSize: 2, Concurrency: 4, ConfigHash: "abc"})
	segments := numberedSegments(11)

	var mu sync.Mutex
	lastDone := 0
	index, err := u.BuildIndex(context.Background(), segments, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != len(segments) {
			t.Errorf("expected total %d, got %d", len(segments), total)
		}
		if done > lastDone {
			lastDone = done
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if index.Len() != len(segments) {
		t.Fatalf("expected %d entries, got %d", len(segments), index.Len())
	}
	for i, e := range index.Entries() {
		if e.Segment.Offset != segments[i].Offset {
			t.Errorf("entry %d: expected offset %d, got %d", i, segments[i].Offset, e.Segment.Offset)
		}
		if int(e.Vector[0]) != len(segments[i].Text) {
			t.Errorf("entry %d: vector belongs to another segment", i)
		}
	}
	if lastDone != len(segments) {
		t.Errorf("expected progress to reach %d, got %d", len(segments), lastDone)
	}
	if embedder.calls != 6 {
		t.Errorf("expected 6 batches, got %d", embedder.calls)
	}

	meta := index.Meta()
	if meta.BuildID == "" {
		t.Error("expected a build id")
	}
	if meta.Dimension != 4 || meta.Metric != domain.MetricCosine || meta.EmbeddingModel != "counting" {
		t.Errorf("unexpected meta %+v", meta)
	}
	if meta.ConfigHash != "abc" {
		t.Errorf("expected config hash abc, got %q", meta.ConfigHash)
	}
	if meta.DocumentCount != 3 {
		t.Errorf("expected 3 documents, got %d", meta.DocumentCount)
	}
}

func TestBuildIndexEmbeddingFailure(t *testing.T) {
	embedder := &countingEmbedder{dimension: 4, failOn: 2}
	u := NewIndexUseCase(nil, nil, embedder, IndexOptions{BatchSize: 3, Concurrency: 1})

	_, err := u.BuildIndex(context.Background(), numberedSegments(9), nil)
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected embedding error, got %v", err)
	}
	if !errors.Is(err, errEmbedDown) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
}

func TestBuildIndexVectorCountMismatch(t *testing.T) {
	embedder := &countingEmbedder{dimension: 4, short: true}
	u := NewIndexUseCase(nil, nil, embedder, IndexOptions{BatchSize: 5})

	_, err := u.BuildIndex(context.Background(), numberedSegments(5), nil)
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Errorf("expected embedding error, got %v", err)
	}
}

func TestBuildIndexEmpty(t *testing.T) {
	embedder := &countingEmbedder{dimension: 4}
	u := NewIndexUseCase(nil, nil, embedder, IndexOptions{})

	index, err := u.BuildIndex(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if index.Len() != 0 {
		t.Errorf("expected empty index, got %d entries", index.Len())
	}
	if embedder.calls != 0 {
		t.Errorf("expected no embedding calls, got %d", embedder.calls)
	}
}

func TestBuildLoadFailureAborts(t *testing.T) {
	c, err := chunker.NewCharChunker(100, 10)
	if err != nil {
		t.Fatal(err)
	}
	loader := memLoader{"a.txt": {Path: "a.txt", Text: "Paracetamol 500mg tablets."}}
	embedder := &countingEmbedder{dimension: 4}
	u := NewIndexUseCase(loader, c, embedder, IndexOptions{})

	_, _, err = u.Build(context.Background(), []string{"a.txt", "missing.pdf"}, nil)
	if !errors.Is(err, domain.ErrLoad) {
		t.Fatalf("expected load error, got %v", err)
	}
	var le *domain.LoadError
	if !errors.As(err, &le) || le.Path != "missing.pdf" {
		t.Errorf("expected failing path in error, got %v", err)
	}
	if embedder.calls != 0 {
		t.Errorf("expected no embedding after a load failure, got %d calls", embedder.calls)
	}
}

func TestBuildIndexMixedDimensions(t *testing.T) {
	embedder := &countingEmbedder{dimension: 4, growOn: 2}
	u := NewIndexUseCase(nil, nil, embedder, IndexOptions{BatchSize: 2, Concurrency: 1})

	_, err := u.BuildIndex(context.Background(), numberedSegments(6), nil)
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected embedding error, got %v", err)
	}
	if !strings.Contains(err.Error(), "dimension 5") {
		t.Errorf("expected the offending dimension in the error, got %v", err)
	}
}
