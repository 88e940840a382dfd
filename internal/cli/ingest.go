package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragpipe/config"
	"ragpipe/internal/adapter/chunker"
	"ragpipe/internal/adapter/embedding"
	"ragpipe/internal/adapter/fs"
	"ragpipe/internal/adapter/store"
	"ragpipe/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk, embed and store documents",
	Long: `Ingest documents under the given directory into the chunk store.
Chunks are embedded with the primary model and stored with their vectors in
.ragpipe/chunks.db. Re-running is incremental: unchanged files are skipped.

Examples:
  ragpipe ingest .              # Ingest current directory
  ragpipe ingest /path/to/docs  # Ingest a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	if err := config.EnsureDataDir(rootDir); err != nil {
		return fmt.Errorf("failed to create .ragpipe directory: %w", err)
	}

	st, err := store.NewBoltChunkStore(config.StorePath(rootDir))
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes, cfg.Ingest.MaxFileSize)
	chk := chunker.NewTextChunker(cfg.Ingest.ChunkTokens, cfg.Ingest.ChunkOverlap)

	ingestUC := usecase.NewIngestUseCase(st, walker, chk, embedder, logger)

	var bar *progressbar.ProgressBar
	ingestUC.Progress = func(processed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		_ = bar.Set(processed)
	}

	result, err := ingestUC.Ingest(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested %d files (%d skipped, %d deleted), %d chunks stored\n",
		result.FilesIngested, result.FilesSkipped, result.FilesDeleted, result.ChunksCreated)
	if result.ChunksFailed > 0 {
		fmt.Printf("%d chunks failed to embed and were skipped\n", result.ChunksFailed)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}

	return nil
}

// newEmbedder builds the dual-model embedder from config.
func newEmbedder() (*embedding.OpenAIEmbedder, error) {
	embedder, err := embedding.NewOpenAIEmbedder(
		cfg.Embedding.APIKeyEnv,
		cfg.Embedding.BaseURL,
		embedding.ModelConfig{Name: cfg.Embedding.PrimaryModel, Dimension: cfg.Embedding.PrimaryDimension},
		embedding.ModelConfig{Name: cfg.Embedding.SecondaryModel, Dimension: cfg.Embedding.SecondaryDimension},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure embedder: %w", err)
	}
	return embedder, nil
}
