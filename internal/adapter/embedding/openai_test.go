package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragpipe/internal/port"
)

const testKeyEnv = "RAGPIPE_TEST_API_KEY"

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()
	t.Setenv(testKeyEnv, "test-key")

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	e, err := NewOpenAIEmbedder(testKeyEnv, server.URL,
		ModelConfig{Name: "primary-model", Dimension: 3},
		ModelConfig{Name: "secondary-model", Dimension: 4},
	)
	if err != nil {
		t.Fatalf("failed to build embedder: %v", err)
	}
	return e
}

func TestEmbedSuccess(t *testing.T) {
	var gotModel string
	var gotAuth string

	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		gotModel = req.Model
		if len(req.Input) != 1 || req.Input[0] != "hello" {
			t.Errorf("unexpected input: %v", req.Input)
		}

		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Embedding: []float64{0.1, 0.2, 0.3}}},
		})
	})

	vec, err := e.Embed(context.Background(), "hello", port.PrimaryModel)
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vec) != 3 || vec[1] != 0.2 {
		t.Errorf("unexpected vector: %v", vec)
	}
	if gotModel != "primary-model" {
		t.Errorf("expected primary-model, got %s", gotModel)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected authorization header: %s", gotAuth)
	}
}

func TestEmbedSelectsSecondaryModel(t *testing.T) {
	var gotModel string
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Embedding: []float64{1}}},
		})
	})

	if _, err := e.Embed(context.Background(), "hello", port.SecondaryModel); err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if gotModel != "secondary-model" {
		t.Errorf("expected secondary-model, got %s", gotModel)
	}
}

func TestEmbedHTTPError(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})

	if _, err := e.Embed(context.Background(), "hello", port.PrimaryModel); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestEmbedAPIErrorBody(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{
			Error: &apiError{Message: "model not found", Type: "invalid_request_error"},
		})
	})

	if _, err := e.Embed(context.Background(), "hello", port.PrimaryModel); err == nil {
		t.Fatal("expected error from API error body")
	}
}

func TestEmbedEmptyVector(t *testing.T) {
	tests := []struct {
		name string
		resp embeddingResponse
	}{
		{name: "no data", resp: embeddingResponse{}},
		{name: "empty embedding", resp: embeddingResponse{Data: []embeddingData{{Embedding: nil}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tc.resp)
			})
			if _, err := e.Embed(context.Background(), "hello", port.PrimaryModel); err == nil {
				t.Fatal("expected error on missing vector")
			}
		})
	}
}

func TestNewOpenAIEmbedderValidation(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	if _, err := NewOpenAIEmbedder(testKeyEnv, "", ModelConfig{Name: "m"}, ModelConfig{}); err == nil {
		t.Error("expected error for missing API key")
	}

	t.Setenv(testKeyEnv, "key")
	if _, err := NewOpenAIEmbedder(testKeyEnv, "", ModelConfig{}, ModelConfig{}); err == nil {
		t.Error("expected error for missing primary model")
	}

	// Missing secondary falls back to the primary model.
	e, err := NewOpenAIEmbedder(testKeyEnv, "", ModelConfig{Name: "m", Dimension: 8}, ModelConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ModelName(port.SecondaryModel) != "m" {
		t.Errorf("expected secondary to fall back to primary, got %s", e.ModelName(port.SecondaryModel))
	}
	if e.Dimension(port.SecondaryModel) != 8 {
		t.Errorf("expected secondary dimension 8, got %d", e.Dimension(port.SecondaryModel))
	}
}
