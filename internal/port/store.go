package port

import (
	"context"

	"ragpipe/internal/domain"
)

// ChunkStore persists document chunks together with their precomputed
// embeddings. Retrieval only ever reads; writes happen during ingestion.
type ChunkStore interface {
	// PutDocument records document metadata.
	PutDocument(ctx context.Context, doc domain.Document) error

	// Documents lists all recorded documents.
	Documents(ctx context.Context) ([]domain.Document, error)

	// PutChunks stores chunks, replacing any existing chunk with the same ID.
	PutChunks(ctx context.Context, chunks []domain.Chunk) error

	// AllChunks returns every stored chunk from a single consistent snapshot
	// of the store.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// DeleteDocument removes a document and all of its chunks.
	DeleteDocument(ctx context.Context, docID string) error

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	Close() error
}
