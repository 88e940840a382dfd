// Package reranker implements second-pass re-scoring of search candidates
// using embeddings from a secondary model. First-pass embeddings optimize for
// coarse retrieval; a differently-trained model captures finer semantic
// relevance on the small candidate set, at one embedding call per candidate.
package reranker

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"ragpipe/internal/adapter/searcher"
	"ragpipe/internal/domain"
	"ragpipe/internal/port"
)

// EmbeddingReranker re-scores candidates against a secondary-model query
// embedding. Every failure path degrades to the original candidate order
// rather than surfacing an error.
type EmbeddingReranker struct {
	embedder port.Embedder
	logger   *zap.Logger
}

func NewEmbeddingReranker(embedder port.Embedder, logger *zap.Logger) *EmbeddingReranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingReranker{
		embedder: embedder,
		logger:   logger,
	}
}

// Rerank generates secondary-model embeddings for the query and each
// candidate chunk, reorders by the new similarity, and truncates to topK.
//
// If the query embedding fails the candidates pass through unchanged
// (truncated to topK) with RerankedCount 0. If an individual chunk embedding
// fails that chunk is excluded; the rest are still reranked.
func (r *EmbeddingReranker) Rerank(ctx context.Context, query string, candidates []domain.SearchResult, topK int) ([]domain.SearchResult, domain.RerankingStats, error) {
	start := time.Now()

	stats := domain.RerankingStats{TotalCandidates: len(candidates)}
	if len(candidates) == 0 {
		return nil, stats, nil
	}

	var sumBefore float64
	for _, c := range candidates {
		sumBefore += c.Similarity
	}
	stats.AvgScoreBefore = sumBefore / float64(len(candidates))

	queryEmbedding, err := r.embedder.Embed(ctx, query, port.SecondaryModel)
	if err != nil {
		r.logger.Warn("secondary query embedding failed, keeping original order",
			zap.String("model", r.embedder.ModelName(port.SecondaryModel)),
			zap.Error(err))
		passthrough := candidates
		if len(passthrough) > topK {
			passthrough = passthrough[:topK]
		}
		stats.ProcessingTimeMs = time.Since(start).Milliseconds()
		return passthrough, stats, nil
	}

	reranked := make([]domain.SearchResult, 0, len(candidates))
	var sumAfter float64
	for _, c := range candidates {
		chunkEmbedding, err := r.embedder.Embed(ctx, c.Chunk.Content, port.SecondaryModel)
		if err != nil {
			r.logger.Warn("secondary chunk embedding failed, excluding chunk",
				zap.String("chunk_id", c.Chunk.ID),
				zap.Error(err))
			continue
		}
		score := searcher.CosineSimilarity(queryEmbedding, chunkEmbedding)
		sumAfter += score
		reranked = append(reranked, domain.SearchResult{
			Chunk:      c.Chunk,
			Similarity: score,
		})
	}
	stats.RerankedCount = len(reranked)

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Similarity > reranked[j].Similarity
	})

	if len(reranked) > topK {
		reranked = reranked[:topK]
	}

	// Improvement is measured over all successfully reranked candidates,
	// before truncation, against the original candidate average.
	if stats.RerankedCount > 0 {
		stats.AvgScoreAfter = sumAfter / float64(stats.RerankedCount)
		if stats.AvgScoreBefore != 0 {
			stats.ScoreImprovementPercent = (stats.AvgScoreAfter - stats.AvgScoreBefore) / stats.AvgScoreBefore * 100
		}
	}

	stats.ProcessingTimeMs = time.Since(start).Milliseconds()

	r.logger.Debug("reranking completed",
		zap.Int("candidates", stats.TotalCandidates),
		zap.Int("reranked", stats.RerankedCount),
		zap.Float64("improvement_pct", stats.ScoreImprovementPercent),
		zap.Int64("elapsed_ms", stats.ProcessingTimeMs))

	return reranked, stats, nil
}
