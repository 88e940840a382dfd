package embedding

import (
	"context"
	"fmt"

	"ragpipe/internal/port"
)

// MockEmbedder produces deterministic vectors without network calls. Tests
// can pin exact vectors per text and model, or inject failures for specific
// texts or for an entire model.
type MockEmbedder struct {
	PrimaryDim   int
	SecondaryDim int

	// Fixed maps a (model, text) pair to a pinned vector.
	Fixed map[port.EmbeddingModel]map[string][]float64

	// FailTexts makes Embed fail for these exact texts.
	FailTexts map[string]bool

	// FailModel makes every call for this model fail.
	FailModel map[port.EmbeddingModel]bool
}

func NewMockEmbedder(primaryDim, secondaryDim int) *MockEmbedder {
	return &MockEmbedder{
		PrimaryDim:   primaryDim,
		SecondaryDim: secondaryDim,
		Fixed:        make(map[port.EmbeddingModel]map[string][]float64),
		FailTexts:    make(map[string]bool),
		FailModel:    make(map[port.EmbeddingModel]bool),
	}
}

// Pin fixes the vector returned for a given text under a given model.
func (e *MockEmbedder) Pin(model port.EmbeddingModel, text string, vector []float64) {
	if e.Fixed[model] == nil {
		e.Fixed[model] = make(map[string][]float64)
	}
	e.Fixed[model][text] = vector
}

func (e *MockEmbedder) Embed(ctx context.Context, text string, model port.EmbeddingModel) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.FailModel[model] {
		return nil, fmt.Errorf("mock embedder: model %s unavailable", model)
	}
	if e.FailTexts[text] {
		return nil, fmt.Errorf("mock embedder: embedding failed for text")
	}
	if pinned, ok := e.Fixed[model][text]; ok {
		return pinned, nil
	}

	dim := e.Dimension(model)
	vec := make([]float64, dim)
	for i, r := range text {
		if i >= dim {
			break
		}
		vec[i] = float64(r) / 1000.0
	}
	return vec, nil
}

func (e *MockEmbedder) Dimension(model port.EmbeddingModel) int {
	if model == port.SecondaryModel {
		return e.SecondaryDim
	}
	return e.PrimaryDim
}

func (e *MockEmbedder) ModelName(model port.EmbeddingModel) string {
	if model == port.SecondaryModel {
		return "mock-secondary"
	}
	return "mock-primary"
}
