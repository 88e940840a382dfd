package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragpipe/internal/domain"
	"ragpipe/internal/port"
)

// IngestUseCase walks a directory, chunks each document, embeds the chunks
// with the primary model and persists them to the chunk store. Re-ingesting
// is incremental: unchanged files (by mod time) are skipped, modified files
// are re-chunked, vanished files are deleted.
type IngestUseCase struct {
	store    port.ChunkStore
	walker   port.FileWalker
	chunker  port.Chunker
	embedder port.Embedder
	logger   *zap.Logger

	// Progress, when set, is called after each file with (processed, total).
	Progress func(processed, total int)
}

func NewIngestUseCase(
	store port.ChunkStore,
	walker port.FileWalker,
	chunker port.Chunker,
	embedder port.Embedder,
	logger *zap.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		store:    store,
		walker:   walker,
		chunker:  chunker,
		embedder: embedder,
		logger:   logger,
	}
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	FilesIngested int
	FilesSkipped  int
	FilesDeleted  int
	ChunksCreated int
	ChunksFailed  int
	Errors        []string
}

// Ingest processes every matching file under root.
func (u *IngestUseCase) Ingest(ctx context.Context, root string) (*IngestResult, error) {
	result := &IngestResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existingDocs, err := u.store.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing documents: %w", err)
	}
	existingByPath := make(map[string]domain.Document, len(existingDocs))
	for _, doc := range existingDocs {
		existingByPath[doc.Path] = doc
	}

	seen := make(map[string]bool, len(files))

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[file.Path] = true

		if existing, ok := existingByPath[file.Path]; ok {
			if existing.ModTime.Unix() >= file.ModTime {
				result.FilesSkipped++
				u.reportProgress(i+1, len(files))
				continue
			}
			if err := u.store.DeleteDocument(ctx, existing.ID); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to delete stale data for %s: %v", file.Path, err))
			}
		}

		if err := u.ingestFile(ctx, file, result); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Errors = append(result.Errors, fmt.Sprintf("failed to ingest %s: %v", file.Path, err))
			u.reportProgress(i+1, len(files))
			continue
		}
		result.FilesIngested++
		u.reportProgress(i+1, len(files))
	}

	for path, doc := range existingByPath {
		if !seen[path] {
			if err := u.store.DeleteDocument(ctx, doc.ID); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", path, err))
			} else {
				result.FilesDeleted++
			}
		}
	}

	return result, nil
}

func (u *IngestUseCase) ingestFile(ctx context.Context, file port.FileInfo, result *IngestResult) error {
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	doc := domain.Document{
		ID:      uuid.NewString(),
		Path:    file.Path,
		ModTime: time.Unix(file.ModTime, 0),
	}

	pieces := u.chunker.Chunk(doc.ID, string(content))
	if len(pieces) == 0 {
		return u.store.PutDocument(ctx, doc)
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for idx, piece := range pieces {
		embedding, err := u.embedder.Embed(ctx, piece, port.PrimaryModel)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Per-chunk embedding failure is non-fatal: skip the chunk,
			// keep the rest of the document.
			result.ChunksFailed++
			u.logger.Warn("chunk embedding failed, skipping chunk",
				zap.String("path", file.RelPath),
				zap.Int("chunk_index", idx),
				zap.Error(err))
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Content:    piece,
			Index:      idx,
			Embedding:  embedding,
		})
	}

	if err := u.store.PutDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	if err := u.store.PutChunks(ctx, chunks); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	result.ChunksCreated += len(chunks)
	return nil
}

func (u *IngestUseCase) reportProgress(processed, total int) {
	if u.Progress != nil {
		u.Progress(processed, total)
	}
}
