// Package store provides chunk store implementations.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"ragpipe/internal/domain"
)

var (
	bucketDocs      = []byte("documents")
	bucketChunks    = []byte("chunks")
	bucketDocChunks = []byte("doc_chunks")
)

// BoltChunkStore persists chunks and their embeddings in BoltDB. AllChunks
// reads inside a single View transaction, so every retrieval operates against
// one consistent snapshot even while ingestion runs concurrently.
type BoltChunkStore struct {
	db *bbolt.DB
}

type chunkRecord struct {
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	Index      int       `json:"index"`
	Embedding  []float64 `json:"embedding"`
}

type docRecord struct {
	Path    string `json:"path"`
	ModTime int64  `json:"mod_time"`
}

func NewBoltChunkStore(path string) (*BoltChunkStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketChunks, bucketDocChunks} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltChunkStore{db: db}, nil
}

func (s *BoltChunkStore) PutDocument(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(docRecord{
			Path:    doc.Path,
			ModTime: doc.ModTime.Unix(),
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

func (s *BoltChunkStore) Documents(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt document record %s: %w", k, err)
			}
			docs = append(docs, domain.Document{
				ID:      string(k),
				Path:    rec.Path,
				ModTime: time.Unix(rec.ModTime, 0),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *BoltChunkStore) PutChunks(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		chunkBucket := tx.Bucket(bucketChunks)
		docChunkBucket := tx.Bucket(bucketDocChunks)

		for _, chunk := range chunks {
			data, err := json.Marshal(chunkRecord{
				DocumentID: chunk.DocumentID,
				Content:    chunk.Content,
				Index:      chunk.Index,
				Embedding:  chunk.Embedding,
			})
			if err != nil {
				return err
			}
			if err := chunkBucket.Put([]byte(chunk.ID), data); err != nil {
				return err
			}
			// doc_chunks key is documentID/chunkID for prefix scans on delete.
			if err := docChunkBucket.Put([]byte(chunk.DocumentID+"/"+chunk.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltChunkStore) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt chunk record %s: %w", k, err)
			}
			chunks = append(chunks, domain.Chunk{
				ID:         string(k),
				DocumentID: rec.DocumentID,
				Content:    rec.Content,
				Index:      rec.Index,
				Embedding:  rec.Embedding,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *BoltChunkStore) DeleteDocument(ctx context.Context, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		chunkBucket := tx.Bucket(bucketChunks)
		docChunkBucket := tx.Bucket(bucketDocChunks)

		// Collect keys first; deleting while iterating a cursor is unsafe.
		prefix := []byte(docID + "/")
		var keys [][]byte
		c := docChunkBucket.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}

		for _, k := range keys {
			if err := chunkBucket.Delete(k[len(prefix):]); err != nil {
				return err
			}
			if err := docChunkBucket.Delete(k); err != nil {
				return err
			}
		}

		return tx.Bucket(bucketDocs).Delete([]byte(docID))
	})
}

func (s *BoltChunkStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketChunks).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *BoltChunkStore) Close() error {
	return s.db.Close()
}
