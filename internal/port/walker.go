package port

// FileWalker lists ingestable files under a root directory.
type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	RelPath string
	ModTime int64
	Size    int64
}

// Chunker splits document content into embeddable chunks.
type Chunker interface {
	Chunk(docID string, content string) []string
}
