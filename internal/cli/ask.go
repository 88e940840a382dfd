package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragpipe/config"
	"ragpipe/internal/adapter/llm"
	"ragpipe/internal/adapter/reranker"
	"ragpipe/internal/adapter/searcher"
	"ragpipe/internal/adapter/store"
	"ragpipe/internal/domain"
	"ragpipe/internal/usecase"
)

var (
	askQuery       string
	askSystem      string
	askRerank      bool
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question against the ingested documents",
	Long: `Run the full pipeline for one chat turn: retrieve relevant chunks,
augment the message list with the retrieved context, and send it to the
configured chat model.

Examples:
  ragpipe ask -q "What is the refund policy?"
  ragpipe ask -q "Summarize the architecture" --rerank --show-context`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question to ask (required)")
	askCmd.Flags().StringVar(&askSystem, "system", "", "optional system prompt")
	askCmd.Flags().BoolVar(&askRerank, "rerank", false, "rerank with the secondary model")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the enrichment record as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	chat, err := llm.NewOpenAIChat(cfg.Chat.APIKeyEnv, cfg.Chat.BaseURL, cfg.Chat.Model)
	if err != nil {
		return fmt.Errorf("failed to configure chat model: %w", err)
	}

	filtering, err := cfg.FilteringConfig()
	if err != nil {
		return err
	}

	engine := searcher.NewVectorSearchEngine(st, logger)
	rr := reranker.NewEmbeddingReranker(embedder, logger)
	augmentUC := usecase.NewAugmentUseCase(embedder, engine, rr, logger)

	var messages []domain.Message
	if askSystem != "" {
		messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: askSystem})
	}
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: askQuery})

	ctx := cmd.Context()

	enrichment, err := augmentUC.Augment(ctx, askQuery, messages, usecase.AugmentOptions{
		Filtering:          filtering,
		RerankingEnabled:   askRerank || cfg.Reranking.Enabled,
		RelevanceThreshold: cfg.Retrieval.RelevanceThreshold,
	})
	if err != nil {
		return fmt.Errorf("augmentation failed: %w", err)
	}

	if askShowContext {
		data, _ := json.MarshalIndent(enrichment, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	}

	if !enrichment.RAGUsed {
		fmt.Fprintln(os.Stderr, "note: no relevant context found, answering without augmentation")
	}

	answer, err := chat.Chat(ctx, enrichment.Messages)
	if err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}

	fmt.Println(answer)
	return nil
}
