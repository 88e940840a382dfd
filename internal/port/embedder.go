package port

import "context"

// EmbeddingModel selects which of the two configured models to use.
// The primary model serves first-pass retrieval; the secondary model is a
// differently-trained model used only for reranking small candidate sets.
type EmbeddingModel int

const (
	PrimaryModel EmbeddingModel = iota
	SecondaryModel
)

func (m EmbeddingModel) String() string {
	if m == SecondaryModel {
		return "secondary"
	}
	return "primary"
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for the given text using the selected model.
	Embed(ctx context.Context, text string, model EmbeddingModel) ([]float64, error)

	// Dimension returns the embedding vector dimension of the selected model.
	Dimension(model EmbeddingModel) int

	// ModelName returns the name of the selected model.
	ModelName(model EmbeddingModel) string
}
