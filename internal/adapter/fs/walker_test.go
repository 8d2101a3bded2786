package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkerIncludesExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "naproxen.txt"), "x")
	writeFile(t, filepath.Join(root, "a", "ibuprofen.pdf"), "x")
	writeFile(t, filepath.Join(root, "notes.md"), "x")
	writeFile(t, filepath.Join(root, "image.png"), "x")
	writeFile(t, filepath.Join(root, ".pharmadoc", "cache.txt"), "x")

	w := NewWalker([]string{"**/*.pdf", "**/*.txt", "**/*.md"}, []string{"**/.pharmadoc/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}

	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(root, f.Path)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"a/ibuprofen.pdf", "b/naproxen.txt", "notes.md"}
	if len(rel) != len(want) {
		t.Fatalf("expected %v, got %v", want, rel)
	}
	for i := range want {
		if rel[i] != want[i] {
			t.Errorf("expected %s at %d, got %s", want[i], i, rel[i])
		}
	}
}

func TestWalkerSingleFileAndDedup(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "aspirin.txt")
	writeFile(t, path, "x")

	w := NewWalker(nil, nil)
	files, err := w.WalkAll([]string{path, root})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file after de-duplication, got %d", len(files))
	}
	if files[0].Size != 1 {
		t.Errorf("expected size 1, got %d", files[0].Size)
	}
}

func TestWalkerMissingRoot(t *testing.T) {
	w := NewWalker(nil, nil)
	if _, err := w.Walk(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}
