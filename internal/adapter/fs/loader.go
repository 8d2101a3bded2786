package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"pharmadoc/internal/domain"
)

var errUnsupported = errors.New("unsupported document format")

// Loader reads PDF and plain text documents.
type Loader struct {
	formFeedPages bool
}

func NewLoader(formFeedPages bool) *Loader {
	return &Loader{formFeedPages: formFeedPages}
}

// Load reads path into a Document. PDF pages are numbered from 1, as are
// form-feed separated pages of text files when enabled.
func (l *Loader) Load(path string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, &domain.LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return domain.Document{}, &domain.LoadError{Path: path, Err: errors.New("is a directory")}
	}
	if info.Size() == 0 {
		return domain.Document{}, &domain.LoadError{Path: path, Err: errors.New("file is empty")}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path)
	case ".txt", ".md", ".text", ".markdown":
		return l.loadText(path)
	default:
		return domain.Document{}, &domain.LoadError{Path: path, Err: errUnsupported}
	}
}

func (l *Loader) loadText(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, &domain.LoadError{Path: path, Err: err}
	}
	text := string(data)
	doc := domain.Document{Path: path, Text: text}

	if l.formFeedPages && strings.Contains(text, "\f") {
		start := 0
		for n := 1; start < len(text); n++ {
			end := len(text)
			if i := strings.IndexByte(text[start:], '\f'); i >= 0 {
				end = start + i + 1
			}
			doc.Pages = append(doc.Pages, domain.Page{Number: n, Start: start, End: end})
			start = end
		}
	}
	return doc, nil
}

func loadPDF(path string) (doc domain.Document, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return domain.Document{}, &domain.LoadError{Path: path, Err: err}
	}
	defer f.Close()

	// the pdf reader panics on some malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			doc = domain.Document{}
			err = &domain.LoadError{Path: path, Err: fmt.Errorf("malformed pdf: %v", rec)}
		}
	}()

	var text strings.Builder
	var pages []domain.Page
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return domain.Document{}, &domain.LoadError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		start := text.Len()
		text.WriteString(content)
		text.WriteString("\n")
		pages = append(pages, domain.Page{Number: i, Start: start, End: text.Len()})
	}

	doc = domain.Document{Path: path, Text: text.String(), Pages: pages}
	if strings.TrimSpace(doc.Text) == "" {
		// no extractable text (scanned PDF); keep the document but with no content
		doc.Text = ""
		doc.Pages = nil
	}
	return doc, nil
}
