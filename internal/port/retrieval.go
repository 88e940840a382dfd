package port

import (
	"context"

	"ragpipe/internal/domain"
)

// Searcher scores every stored chunk against a query embedding and returns
// the filtered, ranked top results together with per-stage statistics.
type Searcher interface {
	Search(ctx context.Context, queryEmbedding []float64, cfg domain.FilteringConfig) ([]domain.SearchResult, domain.FilteringStats, error)
}

// Reranker re-scores a small candidate set with a second relevance signal.
// Implementations must degrade rather than fail: when the second signal is
// unavailable the input candidates pass through truncated to topK.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.SearchResult, topK int) ([]domain.SearchResult, domain.RerankingStats, error)
}
