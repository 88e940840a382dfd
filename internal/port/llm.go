package port

import (
	"context"

	"ragpipe/internal/domain"
)

// LLM generates a chat completion for a message list.
type LLM interface {
	Chat(ctx context.Context, messages []domain.Message) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
