package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragpipe/config"
	"ragpipe/internal/adapter/reranker"
	"ragpipe/internal/adapter/searcher"
	"ragpipe/internal/adapter/store"
	"ragpipe/internal/domain"
	"ragpipe/internal/port"
)

var (
	retrieveQuery  string
	retrieveTopK   int
	retrievePreset string
	retrieveJSON   bool
	retrieveRerank bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Search stored chunks",
	Long: `Run the retrieval stage on its own: embed the query, search the chunk
store with threshold filtering and deduplication, optionally rerank with the
secondary model, and print the scored results with filtering statistics.

Examples:
  ragpipe retrieve -q "refund policy"
  ragpipe retrieve -q "refund policy" --preset strict --rerank --json`,
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
	retrieveCmd.Flags().StringVarP(&retrieveQuery, "query", "q", "", "search query (required)")
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of results (default from preset)")
	retrieveCmd.Flags().StringVar(&retrievePreset, "preset", "", "filtering preset: default, strict, lenient")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
	retrieveCmd.Flags().BoolVar(&retrieveRerank, "rerank", false, "rerank with the secondary model")
	retrieveCmd.MarkFlagRequired("query")
}

type retrieveOutput struct {
	Results        []retrieveResult       `json:"results"`
	FilteringStats domain.FilteringStats  `json:"filtering_stats"`
	RerankingStats *domain.RerankingStats `json:"reranking_stats,omitempty"`
}

type retrieveResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	dbPath := config.StorePath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no chunk store found. Run 'ragpipe ingest' first")
	}

	st, err := store.NewBoltChunkStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	if retrievePreset != "" {
		cfg.Retrieval.Preset = retrievePreset
	}
	filtering, err := cfg.FilteringConfig()
	if err != nil {
		return err
	}
	if retrieveTopK > 0 {
		filtering.TopK = retrieveTopK
	}

	ctx := cmd.Context()

	queryEmbedding, err := embedder.Embed(ctx, retrieveQuery, port.PrimaryModel)
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	engine := searcher.NewVectorSearchEngine(st, logger)
	results, filteringStats, err := engine.Search(ctx, queryEmbedding, filtering)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	output := retrieveOutput{FilteringStats: filteringStats}

	if retrieveRerank {
		rr := reranker.NewEmbeddingReranker(embedder, logger)
		reranked, rerankingStats, err := rr.Rerank(ctx, retrieveQuery, results, filtering.TopK)
		if err != nil {
			return fmt.Errorf("reranking failed: %w", err)
		}
		results = reranked
		output.RerankingStats = &rerankingStats
	}

	for _, r := range results {
		output.Results = append(output.Results, retrieveResult{
			ChunkID:    r.Chunk.ID,
			DocumentID: r.Chunk.DocumentID,
			Similarity: r.Similarity,
			Content:    r.Chunk.Content,
		})
	}

	if retrieveJSON {
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(output.Results) == 0 {
		fmt.Printf("No results (scanned %d chunks, %d passed primary filter).\n",
			filteringStats.TotalChunks, filteringStats.AfterPrimaryFilter)
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(output.Results), retrieveQuery)
	for i, r := range output.Results {
		fmt.Printf("--- [%d] chunk %s (similarity: %.3f) ---\n", i+1, r.ChunkID, r.Similarity)
		text := r.Content
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}
	fmt.Printf("Scanned %d chunks, %d after primary filter, %d after smart filter, %d final (%.0f ms)\n",
		filteringStats.TotalChunks, filteringStats.AfterPrimaryFilter,
		filteringStats.AfterSmartFilter, filteringStats.FinalResults,
		float64(filteringStats.ProcessingTimeMs))
	if output.RerankingStats != nil {
		fmt.Printf("Reranked %d/%d candidates, score improvement %.1f%%\n",
			output.RerankingStats.RerankedCount, output.RerankingStats.TotalCandidates,
			output.RerankingStats.ScoreImprovementPercent)
	}

	return nil
}
