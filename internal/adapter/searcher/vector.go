// Package searcher implements brute-force vector similarity search over the
// chunk store with multi-stage threshold filtering and near-duplicate removal.
package searcher

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ragpipe/internal/domain"
	"ragpipe/internal/port"
)

// dedupJaccardThreshold is the token-set similarity above which two chunks
// are considered near-duplicates.
const dedupJaccardThreshold = 0.7

// VectorSearchEngine scans every stored chunk per query. No index is
// maintained; the store sizes this subsystem targets make a full scan cheaper
// than keeping an ANN structure consistent with ingestion.
type VectorSearchEngine struct {
	store  port.ChunkStore
	logger *zap.Logger
}

func NewVectorSearchEngine(store port.ChunkStore, logger *zap.Logger) *VectorSearchEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VectorSearchEngine{
		store:  store,
		logger: logger,
	}
}

// Search computes cosine similarity between the query embedding and every
// stored chunk, applies the two-stage threshold filter from cfg, removes
// near-duplicates, and returns the top-K results with per-stage statistics.
//
// Chunks whose embedding dimension differs from the query are skipped and
// counted in stats.TotalChunks/SkippedChunks but excluded from every
// similarity aggregate.
func (e *VectorSearchEngine) Search(ctx context.Context, queryEmbedding []float64, cfg domain.FilteringConfig) ([]domain.SearchResult, domain.FilteringStats, error) {
	start := time.Now()

	stats := domain.FilteringStats{Config: cfg}

	if err := cfg.Validate(); err != nil {
		return nil, stats, fmt.Errorf("invalid filtering config: %w", err)
	}

	chunks, err := e.store.AllChunks(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load chunks: %w", err)
	}
	stats.TotalChunks = len(chunks)

	scored := make([]domain.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) != len(queryEmbedding) {
			stats.SkippedChunks++
			e.logger.Warn("skipping chunk with mismatched embedding dimension",
				zap.String("chunk_id", chunk.ID),
				zap.String("document_id", chunk.DocumentID),
				zap.Int("chunk_dimension", len(chunk.Embedding)),
				zap.Int("query_dimension", len(queryEmbedding)))
			continue
		}
		scored = append(scored, domain.SearchResult{
			Chunk:      chunk,
			Similarity: CosineSimilarity(queryEmbedding, chunk.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > 0 {
		var sum float64
		stats.MinSimilarity = scored[len(scored)-1].Similarity
		stats.MaxSimilarity = scored[0].Similarity
		for _, r := range scored {
			sum += r.Similarity
		}
		stats.AvgSimilarityBefore = sum / float64(len(scored))
	}

	// Primary filter: cheap threshold plus a hard cap on the candidate pool
	// before the more expensive dedup step.
	primary := make([]domain.SearchResult, 0, cfg.InitialCandidates)
	for _, r := range scored {
		if r.Similarity < cfg.PrimaryThreshold {
			break // sorted descending, nothing below passes
		}
		primary = append(primary, r)
		if len(primary) == cfg.InitialCandidates {
			break
		}
	}
	stats.AfterPrimaryFilter = len(primary)

	// Smart filter: the stricter relevance bar.
	smart := make([]domain.SearchResult, 0, len(primary))
	for _, r := range primary {
		if r.Similarity >= cfg.SmartThreshold {
			smart = append(smart, r)
		}
	}
	stats.AfterSmartFilter = len(smart)

	if cfg.RemoveDuplicates {
		smart = e.deduplicate(smart)
	}

	if len(smart) > cfg.TopK {
		smart = smart[:cfg.TopK]
	}
	stats.FinalResults = len(smart)

	if len(smart) > 0 {
		var sum float64
		stats.Distribution = make([]float64, len(smart))
		for i, r := range smart {
			sum += r.Similarity
			stats.Distribution[i] = r.Similarity
		}
		stats.AvgSimilarityAfter = sum / float64(len(smart))
	}

	stats.ProcessingTimeMs = time.Since(start).Milliseconds()

	e.logger.Debug("vector search completed",
		zap.Int("total_chunks", stats.TotalChunks),
		zap.Int("skipped_chunks", stats.SkippedChunks),
		zap.Int("after_primary", stats.AfterPrimaryFilter),
		zap.Int("after_smart", stats.AfterSmartFilter),
		zap.Int("final", stats.FinalResults),
		zap.Int64("elapsed_ms", stats.ProcessingTimeMs))

	return smart, stats, nil
}

// deduplicate walks results in ranked order and drops any candidate whose
// token-set Jaccard similarity with an already-accepted candidate exceeds the
// threshold. Ranked-order iteration keeps the highest-similarity
// representative of each near-duplicate group.
func (e *VectorSearchEngine) deduplicate(results []domain.SearchResult) []domain.SearchResult {
	if len(results) < 2 {
		return results
	}

	kept := make([]domain.SearchResult, 0, len(results))
	keptTokens := make([]map[string]struct{}, 0, len(results))

	for _, r := range results {
		tokens := tokenSet(r.Chunk.Content)

		duplicate := false
		for i, accepted := range keptTokens {
			if jaccardSimilarity(tokens, accepted) > dedupJaccardThreshold {
				e.logger.Debug("dropping near-duplicate chunk",
					zap.String("chunk_id", r.Chunk.ID),
					zap.String("kept_chunk_id", kept[i].Chunk.ID))
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		kept = append(kept, r)
		keptTokens = append(keptTokens, tokens)
	}

	return kept
}

// CosineSimilarity returns dot(a,b)/(‖a‖·‖b‖), or 0 when either norm is zero.
// Callers must pass vectors of equal length.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// tokenSet lowercases and whitespace-splits content into a set of tokens.
func tokenSet(content string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(content))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// JaccardSimilarity computes token-set Jaccard similarity of two contents.
// Exported for testing.
func JaccardSimilarity(a, b string) float64 {
	return jaccardSimilarity(tokenSet(a), tokenSet(b))
}
