package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ragpipe/internal/adapter/chunker"
	"ragpipe/internal/adapter/embedding"
	"ragpipe/internal/adapter/fs"
	"ragpipe/internal/adapter/store"
	"ragpipe/internal/port"
)

func writeDoc(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func newIngest(st port.ChunkStore, mock *embedding.MockEmbedder) *IngestUseCase {
	walker := fs.NewWalker([]string{"**/*.md"}, nil, 0)
	chk := chunker.NewTextChunker(64, 8)
	return NewIngestUseCase(st, walker, chk, mock, nil)
}

func TestIngestStoresChunks(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.md", "first document content")
	writeDoc(t, root, "b.md", "second document content")

	st := store.NewMemoryChunkStore()
	uc := newIngest(st, embedding.NewMockEmbedder(4, 4))

	result, err := uc.Ingest(context.Background(), root)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if result.FilesIngested != 2 {
		t.Errorf("expected 2 files ingested, got %d", result.FilesIngested)
	}
	if result.ChunksCreated != 2 {
		t.Errorf("expected 2 chunks, got %d", result.ChunksCreated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}

	chunks, err := st.AllChunks(context.Background())
	if err != nil {
		t.Fatalf("all chunks failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 stored chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Embedding) != 4 {
			t.Errorf("chunk %s missing embedding: %v", c.ID, c.Embedding)
		}
	}
}

func TestIngestIncrementalSkip(t *testing.T) {
	root := t.TempDir()
	path := writeDoc(t, root, "a.md", "stable content")

	st := store.NewMemoryChunkStore()
	uc := newIngest(st, embedding.NewMockEmbedder(4, 4))
	ctx := context.Background()

	if _, err := uc.Ingest(ctx, root); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	result, err := uc.Ingest(ctx, root)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if result.FilesSkipped != 1 || result.FilesIngested != 0 {
		t.Errorf("unchanged file must be skipped, got %+v", result)
	}

	// Bump the mod time past the stored one: the file is re-ingested.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}
	result, err = uc.Ingest(ctx, root)
	if err != nil {
		t.Fatalf("third ingest failed: %v", err)
	}
	if result.FilesIngested != 1 {
		t.Errorf("modified file must be re-ingested, got %+v", result)
	}

	count, _ := st.Count(ctx)
	if count != 1 {
		t.Errorf("re-ingest must replace, not duplicate; got %d chunks", count)
	}
}

func TestIngestDeletesVanishedFiles(t *testing.T) {
	root := t.TempDir()
	keep := writeDoc(t, root, "keep.md", "kept content")
	gone := writeDoc(t, root, "gone.md", "doomed content")
	_ = keep

	st := store.NewMemoryChunkStore()
	uc := newIngest(st, embedding.NewMockEmbedder(4, 4))
	ctx := context.Background()

	if _, err := uc.Ingest(ctx, root); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	if err := os.Remove(gone); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	result, err := uc.Ingest(ctx, root)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if result.FilesDeleted != 1 {
		t.Errorf("expected 1 file deleted, got %d", result.FilesDeleted)
	}

	docs, err := st.Documents(ctx)
	if err != nil {
		t.Fatalf("documents failed: %v", err)
	}
	if len(docs) != 1 || filepath.Base(docs[0].Path) != "keep.md" {
		t.Errorf("expected only keep.md to remain, got %+v", docs)
	}
	count, _ := st.Count(ctx)
	if count != 1 {
		t.Errorf("expected vanished file's chunks removed, got %d", count)
	}
}

func TestIngestChunkEmbeddingFailure(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.md", "embeddable content")
	writeDoc(t, root, "b.md", "poison content")

	mock := embedding.NewMockEmbedder(4, 4)
	mock.FailTexts["poison content"] = true

	st := store.NewMemoryChunkStore()
	uc := newIngest(st, mock)

	result, err := uc.Ingest(context.Background(), root)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	// The failed chunk is skipped, the document and the rest still land.
	if result.FilesIngested != 2 {
		t.Errorf("expected both files ingested, got %d", result.FilesIngested)
	}
	if result.ChunksFailed != 1 {
		t.Errorf("expected 1 failed chunk, got %d", result.ChunksFailed)
	}
	if result.ChunksCreated != 1 {
		t.Errorf("expected 1 created chunk, got %d", result.ChunksCreated)
	}
}

func TestIngestReportsProgress(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.md", "one")
	writeDoc(t, root, "b.md", "two")

	st := store.NewMemoryChunkStore()
	uc := newIngest(st, embedding.NewMockEmbedder(4, 4))

	var calls [][2]int
	uc.Progress = func(processed, total int) {
		calls = append(calls, [2]int{processed, total})
	}

	if _, err := uc.Ingest(context.Background(), root); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 progress calls, got %d", len(calls))
	}
	if calls[1] != [2]int{2, 2} {
		t.Errorf("expected final progress (2, 2), got %v", calls[1])
	}
}
