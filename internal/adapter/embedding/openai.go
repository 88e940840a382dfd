// Package embedding provides embedders backed by OpenAI-compatible APIs.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ragpipe/internal/port"
)

// ModelConfig describes one of the two independently addressable models.
type ModelConfig struct {
	Name      string
	Dimension int
}

// OpenAIEmbedder addresses two embedding models behind one OpenAI-compatible
// endpoint: a primary model for first-pass search and a secondary model for
// reranking. Works with OpenAI, Jina, Ollama and anything else speaking the
// /v1/embeddings protocol.
type OpenAIEmbedder struct {
	apiKey    string
	baseURL   string
	primary   ModelConfig
	secondary ModelConfig
	client    *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewOpenAIEmbedder(apiKeyEnv, baseURL string, primary, secondary ModelConfig) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if primary.Name == "" {
		return nil, fmt.Errorf("primary embedding model not configured")
	}
	if secondary.Name == "" {
		// A single-model setup still works: reranking simply re-embeds with
		// the same model, which is legal but pointless. Callers normally
		// disable reranking instead.
		secondary = primary
	}

	return &OpenAIEmbedder{
		apiKey:    apiKey,
		baseURL:   baseURL,
		primary:   primary,
		secondary: secondary,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

func (e *OpenAIEmbedder) modelConfig(model port.EmbeddingModel) ModelConfig {
	if model == port.SecondaryModel {
		return e.secondary
	}
	return e.primary
}

// Embed generates an embedding for text with the selected model. The response
// is decoded strictly: an API error body, a missing vector or an empty vector
// is an error, never a silently zeroed embedding.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string, model port.EmbeddingModel) ([]float64, error) {
	mc := e.modelConfig(model)

	reqBody := embeddingRequest{
		Input: []string{text},
		Model: mc.Name,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200]
		}
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview, err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("embedding API error: %s", embResp.Error.Message)
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding API returned no vector for model %s", mc.Name)
	}

	return embResp.Data[0].Embedding, nil
}

func (e *OpenAIEmbedder) Dimension(model port.EmbeddingModel) int {
	return e.modelConfig(model).Dimension
}

func (e *OpenAIEmbedder) ModelName(model port.EmbeddingModel) string {
	return e.modelConfig(model).Name
}
