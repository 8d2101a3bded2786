package fs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pharmadoc/internal/adapter/chunker"
)

// writePDF writes a minimal PDF with one line of Helvetica text per page.
func writePDF(t *testing.T, path string, pages []string) {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1 catalog, 2 page tree, 3 font, then a page and its content per page
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderPDFPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ibuprofen.pdf")
	writePDF(t, path, []string{
		"Ibuprofen",
		"Take with food or milk",
		"Adults take 400mg every 4 hours",
	})

	doc, err := NewLoader(true).Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(doc.Pages))
	}
	for i, p := range doc.Pages {
		if p.Number != i+1 {
			t.Errorf("expected page number %d, got %d", i+1, p.Number)
		}
		if i > 0 && p.Start != doc.Pages[i-1].End {
			t.Errorf("page %d is not contiguous with the previous page", p.Number)
		}
	}
	if doc.Pages[2].End != len(doc.Text) {
		t.Errorf("expected last page to end the text, got %d of %d", doc.Pages[2].End, len(doc.Text))
	}
	if got := doc.Text[doc.Pages[2].Start:doc.Pages[2].End]; !strings.Contains(got, "400mg") {
		t.Errorf("expected 400mg on page 3, got %q", got)
	}

	c, err := chunker.NewCharChunker(1000, 150)
	if err != nil {
		t.Fatal(err)
	}
	segments, err := c.Chunk(doc)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range segments {
		if strings.Contains(s.Text, "400mg") {
			found = true
			if s.Page == nil || *s.Page != 3 {
				t.Errorf("expected the 400mg segment on page 3, got %v", s.Page)
			}
		}
	}
	if !found {
		t.Errorf("expected a segment containing 400mg, got %+v", segments)
	}
}
