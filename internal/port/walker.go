package port

import "pharmadoc/internal/domain"

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// DocumentLoader reads a file into a Document, failing with *domain.LoadError.
type DocumentLoader interface {
	Load(path string) (domain.Document, error)
}
