package domain

import "time"

// Document is an ingested source file. Chunks reference it by ID.
type Document struct {
	ID      string
	Path    string
	ModTime time.Time
}

// Chunk is a contiguous slice of a document, small enough to embed and
// retrieve individually. Immutable once stored; the embedding dimension is
// fixed by the model that produced it.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Index      int
	Embedding  []float64
}

// Message is a single entry in a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SearchResult pairs a chunk with its similarity to the query embedding.
// Similarity is overwritten by the reranker when reranking runs.
type SearchResult struct {
	Chunk      Chunk
	Similarity float64
}
