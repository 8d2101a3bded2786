package chunker

import (
	"strings"
	"unicode/utf8"

	"pharmadoc/internal/domain"
)

// CharChunker splits documents into overlapping byte windows. Windows end on a
// rune boundary, preferably just after whitespace, and never cross a page.
type CharChunker struct {
	size    int
	overlap int
}

func NewCharChunker(size, overlap int) (*CharChunker, error) {
	if size < utf8.UTFMax {
		return nil, domain.InvalidArgument("chunk size must be at least %d bytes, got %d", utf8.UTFMax, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, domain.InvalidArgument("overlap must be in [0, %d), got %d", size, overlap)
	}
	return &CharChunker{size: size, overlap: overlap}, nil
}

func (c *CharChunker) Chunk(doc domain.Document) ([]domain.Segment, error) {
	if doc.Text == "" {
		return nil, nil
	}

	if len(doc.Pages) == 0 {
		return c.chunkSpan(doc, 0, len(doc.Text), nil), nil
	}

	var segments []domain.Segment
	for _, p := range doc.Pages {
		if p.Start < 0 || p.End > len(doc.Text) || p.Start > p.End {
			return nil, domain.InvalidArgument("page %d span [%d,%d) outside document %s", p.Number, p.Start, p.End, doc.Path)
		}
		segments = append(segments, c.chunkSpan(doc, p.Start, p.End, domain.IntPtr(p.Number))...)
	}
	return segments, nil
}

func (c *CharChunker) chunkSpan(doc domain.Document, start, limit int, page *int) []domain.Segment {
	text := doc.Text
	var segments []domain.Segment

	for start < limit {
		end := limit
		if limit-start > c.size {
			end = c.cut(text, start, start+c.size)
		}

		if strings.TrimSpace(text[start:end]) != "" {
			segments = append(segments, domain.Segment{
				Text:   text[start:end],
				Source: doc.Path,
				Page:   page,
				Offset: start,
			})
		}
		if end == limit {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = end
		}
		for next < end && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}

	return segments
}

// cut picks the window end in (start, max]: just after the last whitespace
// beyond the overlap region if there is one, otherwise the last rune boundary.
func (c *CharChunker) cut(text string, start, max int) int {
	if ws := strings.LastIndexAny(text[start+c.overlap+1:max], " \t\r\n\f"); ws >= 0 {
		return start + c.overlap + 1 + ws + 1
	}
	end := max
	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}
