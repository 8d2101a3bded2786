package domain

import (
	"path/filepath"
	"strings"
)

// NoInformationAnswer is returned, without calling the generator, when retrieval
// produced no usable context.
const NoInformationAnswer = "I could not find relevant information in the indexed documents to answer this question."

// Document is a loaded source file. Immutable once loaded.
type Document struct {
	Path  string
	Text  string
	Pages []Page // nil when the format has no page boundaries
}

// Page is a half-open byte span [Start, End) of Document.Text.
type Page struct {
	Number int
	Start  int
	End    int
}

// Segment is a bounded span of document text with its provenance.
type Segment struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   *int   `json:"page,omitempty"`
	Offset int    `json:"offset"`
}

// SegmentKey identifies a segment by provenance for de-duplication.
type SegmentKey struct {
	Source  string
	Page    int
	HasPage bool
	Offset  int
}

// Key returns the (source, page, offset) identity of the segment.
func (s Segment) Key() SegmentKey {
	k := SegmentKey{Source: s.Source, Offset: s.Offset}
	if s.Page != nil {
		k.Page = *s.Page
		k.HasPage = true
	}
	return k
}

// Match is a retrieved segment and its similarity score (higher is better).
type Match struct {
	Segment Segment
	Score   float64
}

// Answer is the synthesized response. Sources lists the segments supplied to the
// generator, in ranked order.
type Answer struct {
	Text    string
	Sources []Segment
}

// SourceDocument is the provenance view handed to presentation code.
type SourceDocument struct {
	Source string `json:"source"`
	Page   *int   `json:"page,omitempty"`
}

// Result is the answer shape consumed by the UI collaborator.
type Result struct {
	Result          string           `json:"result"`
	SourceDocuments []SourceDocument `json:"source_documents"`
}

// Result converts the answer to its external representation.
func (a Answer) Result() Result {
	docs := make([]SourceDocument, 0, len(a.Sources))
	for _, s := range a.Sources {
		docs = append(docs, SourceDocument{Source: s.Source, Page: s.Page})
	}
	return Result{Result: a.Text, SourceDocuments: docs}
}

// DisplaySources returns at most n sources with the source reduced to its file name.
func (r Result) DisplaySources(n int) []SourceDocument {
	if n > len(r.SourceDocuments) {
		n = len(r.SourceDocuments)
	}
	out := make([]SourceDocument, 0, n)
	for _, d := range r.SourceDocuments[:n] {
		out = append(out, SourceDocument{Source: FileName(d.Source), Page: d.Page})
	}
	return out
}

// FileName strips both slash and backslash separated directories.
func FileName(source string) string {
	if i := strings.LastIndex(source, "\\"); i >= 0 {
		source = source[i+1:]
	}
	return filepath.Base(filepath.ToSlash(source))
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
