package domain

// FilteringStats records what happened at each stage of a vector search.
// Purely observational: nothing downstream branches on these values.
type FilteringStats struct {
	TotalChunks        int     `json:"total_chunks"`
	SkippedChunks      int     `json:"skipped_chunks"` // dimension mismatches
	AfterPrimaryFilter int     `json:"after_primary_filter"`
	AfterSmartFilter   int     `json:"after_smart_filter"`
	FinalResults       int     `json:"final_results"`

	// Similarity aggregates over comparable chunks only.
	AvgSimilarityBefore float64 `json:"avg_similarity_before"`
	AvgSimilarityAfter  float64 `json:"avg_similarity_after"`
	MinSimilarity       float64 `json:"min_similarity"`
	MaxSimilarity       float64 `json:"max_similarity"`

	// Distribution holds the similarity of each final result, in rank order.
	Distribution []float64 `json:"distribution,omitempty"`

	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Config           FilteringConfig `json:"config"`
}

// RerankingStats reports how the second-pass model moved the scores.
type RerankingStats struct {
	TotalCandidates         int     `json:"total_candidates"`
	RerankedCount           int     `json:"reranked_count"`
	AvgScoreBefore          float64 `json:"avg_score_before"`
	AvgScoreAfter           float64 `json:"avg_score_after"`
	ScoreImprovementPercent float64 `json:"score_improvement_percent"`
	ProcessingTimeMs        int64   `json:"processing_time_ms"`
}

// Enrichment is the retrieval pipeline's full output for one chat turn:
// the (possibly augmented) message list plus everything an operator needs
// to understand why context was or was not injected.
type Enrichment struct {
	Messages         []Message       `json:"messages"`
	RAGUsed          bool            `json:"rag_used"`
	RAGContext       string          `json:"rag_context,omitempty"`
	ChunksCount      int             `json:"chunks_count"`
	SimilarityScores []float64       `json:"similarity_scores,omitempty"`
	FilteringStats   *FilteringStats `json:"filtering_stats,omitempty"`
	RerankingStats   *RerankingStats `json:"reranking_stats,omitempty"`
}
