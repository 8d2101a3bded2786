package fs

import (
	"errors"
	"path/filepath"
	"testing"

	"pharmadoc/internal/domain"
)

func TestLoaderText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aspirin.txt")
	writeFile(t, path, "Aspirin is an NSAID.\n")

	doc, err := NewLoader(true).Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Path != path {
		t.Errorf("expected path %s, got %s", path, doc.Path)
	}
	if doc.Text != "Aspirin is an NSAID.\n" {
		t.Errorf("unexpected text %q", doc.Text)
	}
	if doc.Pages != nil {
		t.Errorf("expected no pages, got %v", doc.Pages)
	}
}

func TestLoaderFormFeedPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaflet.txt")
	text := "page one\fpage two\fpage three"
	writeFile(t, path, text)

	doc, err := NewLoader(true).Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Start != 0 || doc.Pages[2].End != len(text) {
		t.Error("expected pages to cover the whole text")
	}
	for i := 1; i < len(doc.Pages); i++ {
		if doc.Pages[i].Start != doc.Pages[i-1].End {
			t.Errorf("page %d is not contiguous with the previous page", i)
		}
		if doc.Pages[i].Number != i+1 {
			t.Errorf("expected page number %d, got %d", i+1, doc.Pages[i].Number)
		}
	}
	if got := doc.Text[doc.Pages[1].Start:doc.Pages[1].End]; got != "page two\f" {
		t.Errorf("unexpected second page %q", got)
	}

	doc, err = NewLoader(false).Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Pages != nil {
		t.Error("expected form feeds to be ignored when disabled")
	}
}

func TestLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	writeFile(t, empty, "")
	bogus := filepath.Join(dir, "bogus.pdf")
	writeFile(t, bogus, "this is not a pdf")
	unknown := filepath.Join(dir, "image.png")
	writeFile(t, unknown, "png")

	loader := NewLoader(true)
	for _, path := range []string{filepath.Join(dir, "missing.pdf"), empty, bogus, unknown} {
		_, err := loader.Load(path)
		if !errors.Is(err, domain.ErrLoad) {
			t.Errorf("%s: expected load error, got %v", filepath.Base(path), err)
			continue
		}
		var le *domain.LoadError
		if !errors.As(err, &le) || le.Path != path {
			t.Errorf("%s: expected LoadError carrying the path, got %v", filepath.Base(path), err)
		}
	}
}
