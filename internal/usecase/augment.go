package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ragpipe/internal/domain"
	"ragpipe/internal/port"
)

// contextFraming instructs the model to answer from the injected context and
// never ask the user to re-supply documents it already has.
const contextFraming = "Use the retrieved document context below to answer. " +
	"Rely only on this context for document-specific facts; if the answer is " +
	"not in the context, say so. Never ask the user to provide these documents again."

// AugmentOptions tunes one augmentation run.
type AugmentOptions struct {
	Filtering        domain.FilteringConfig
	RerankingEnabled bool

	// RelevanceThreshold gates injection on the mean similarity of the final
	// result set, measured after reranking. Zero disables the gate.
	RelevanceThreshold float64
}

// AugmentUseCase is the retrieval pipeline: embed the query, search the chunk
// store, optionally rerank, and inject the surviving context into the
// outgoing message list.
//
// No failure inside the pipeline ever aborts the enclosing chat turn: every
// degraded path returns the original messages with RAGUsed false. The only
// returned errors are caller mistakes (invalid config) and context
// cancellation.
type AugmentUseCase struct {
	embedder port.Embedder
	searcher port.Searcher
	reranker port.Reranker
	logger   *zap.Logger
}

func NewAugmentUseCase(
	embedder port.Embedder,
	searcher port.Searcher,
	reranker port.Reranker,
	logger *zap.Logger,
) *AugmentUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AugmentUseCase{
		embedder: embedder,
		searcher: searcher,
		reranker: reranker,
		logger:   logger,
	}
}

// Augment runs the full pipeline for one chat turn and returns the
// enrichment record. The input message slice is never mutated.
func (u *AugmentUseCase) Augment(ctx context.Context, query string, messages []domain.Message, opts AugmentOptions) (domain.Enrichment, error) {
	if err := opts.Filtering.Validate(); err != nil {
		return domain.Enrichment{}, fmt.Errorf("invalid filtering config: %w", err)
	}
	if opts.RerankingEnabled && u.reranker == nil {
		return domain.Enrichment{}, fmt.Errorf("reranking enabled but no reranker configured")
	}

	passthrough := domain.Enrichment{Messages: messages, RAGUsed: false}

	queryEmbedding, err := u.embedder.Embed(ctx, query, port.PrimaryModel)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Enrichment{}, ctx.Err()
		}
		u.logger.Warn("query embedding failed, skipping augmentation",
			zap.String("model", u.embedder.ModelName(port.PrimaryModel)),
			zap.Error(err))
		return passthrough, nil
	}

	results, filteringStats, err := u.searcher.Search(ctx, queryEmbedding, opts.Filtering)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Enrichment{}, ctx.Err()
		}
		u.logger.Warn("vector search failed, skipping augmentation", zap.Error(err))
		return passthrough, nil
	}
	passthrough.FilteringStats = &filteringStats

	if len(results) == 0 {
		u.logger.Debug("no relevant chunks found",
			zap.Int("total_chunks", filteringStats.TotalChunks))
		return passthrough, nil
	}

	var rerankingStats *domain.RerankingStats
	if opts.RerankingEnabled {
		reranked, stats, err := u.reranker.Rerank(ctx, query, results, opts.Filtering.TopK)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Enrichment{}, ctx.Err()
			}
			// Rerankers are expected to degrade internally; an error here is
			// unusual enough to log, but the first-pass results still stand.
			u.logger.Warn("reranking failed, using first-pass order", zap.Error(err))
		} else {
			results = reranked
			rerankingStats = &stats
		}
	}
	passthrough.RerankingStats = rerankingStats

	if len(results) == 0 {
		return passthrough, nil
	}

	scores := make([]float64, len(results))
	var scoreSum float64
	for i, r := range results {
		scores[i] = r.Similarity
		scoreSum += r.Similarity
	}

	// Relevance gate: individual chunks passed the per-stage thresholds, but
	// a weak average across the whole set means the store holds nothing
	// actually on-topic. Applied after reranking so the gate sees the scores
	// the context would be selected by.
	if opts.RelevanceThreshold > 0 {
		avg := scoreSum / float64(len(results))
		if avg < opts.RelevanceThreshold {
			u.logger.Info("average similarity below relevance threshold, suppressing context",
				zap.Float64("avg_similarity", avg),
				zap.Float64("threshold", opts.RelevanceThreshold))
			return passthrough, nil
		}
	}

	ragContext := buildContext(results)

	return domain.Enrichment{
		Messages:         injectContext(messages, ragContext),
		RAGUsed:          true,
		RAGContext:       ragContext,
		ChunksCount:      len(results),
		SimilarityScores: scores,
		FilteringStats:   &filteringStats,
		RerankingStats:   rerankingStats,
	}, nil
}

// buildContext concatenates surviving chunk contents in ranked order,
// separated by a blank line.
func buildContext(results []domain.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Content
	}
	return strings.Join(parts, "\n\n")
}

// injectContext appends the context block to an existing system message, or
// prepends a synthesized one. The input slice is copied, never mutated.
func injectContext(messages []domain.Message, ragContext string) []domain.Message {
	block := contextFraming + "\n\n" + ragContext

	for i, m := range messages {
		if m.Role == domain.RoleSystem {
			augmented := make([]domain.Message, len(messages))
			copy(augmented, messages)
			augmented[i].Content = m.Content + "\n\n" + block
			return augmented
		}
	}

	augmented := make([]domain.Message, 0, len(messages)+1)
	augmented = append(augmented, domain.Message{
		Role:    domain.RoleSystem,
		Content: block,
	})
	return append(augmented, messages...)
}
