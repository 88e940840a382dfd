// Package config loads and defaults ragpipe configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ragpipe/internal/domain"
)

// Config holds all configuration for ragpipe.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Reranking RerankingConfig `yaml:"reranking"`
	Chat      ChatConfig      `yaml:"chat"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IngestConfig controls document walking and chunking.
type IngestConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkTokens  int      `yaml:"chunk_tokens"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	MaxFileSize  int64    `yaml:"max_file_size"` // bytes, 0 = unlimited
}

// EmbeddingConfig configures the dual-model embedding provider.
type EmbeddingConfig struct {
	BaseURL            string `yaml:"base_url"`
	APIKeyEnv          string `yaml:"api_key_env"`
	PrimaryModel       string `yaml:"primary_model"`
	PrimaryDimension   int    `yaml:"primary_dimension"`
	SecondaryModel     string `yaml:"secondary_model"`
	SecondaryDimension int    `yaml:"secondary_dimension"`
}

// RetrievalConfig selects a filtering preset with optional per-field
// overrides. Zero-valued overrides keep the preset value.
type RetrievalConfig struct {
	Preset            string  `yaml:"preset"` // "default", "strict", "lenient"
	InitialCandidates int     `yaml:"initial_candidates"`
	PrimaryThreshold  float64 `yaml:"primary_threshold"`
	SmartThreshold    float64 `yaml:"smart_threshold"`
	TopK              int     `yaml:"top_k"`
	RemoveDuplicates  *bool   `yaml:"remove_duplicates"`

	// RelevanceThreshold gates context injection on the mean similarity of
	// the final result set. 0 disables the gate.
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
}

// RerankingConfig toggles the second-pass reranker.
type RerankingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ChatConfig configures the LLM used by the ask command.
type ChatConfig struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Includes:     []string{"**/*.md", "**/*.txt"},
			Excludes:     []string{"**/node_modules/**", "**/.git/**", "**/.ragpipe/**"},
			ChunkTokens:  256,
			ChunkOverlap: 32,
			MaxFileSize:  10 << 20,
		},
		Embedding: EmbeddingConfig{
			BaseURL:            "https://api.openai.com/v1",
			APIKeyEnv:          "OPENAI_API_KEY",
			PrimaryModel:       "text-embedding-3-small",
			PrimaryDimension:   1536,
			SecondaryModel:     "text-embedding-3-large",
			SecondaryDimension: 3072,
		},
		Retrieval: RetrievalConfig{
			Preset: "default",
		},
		Reranking: RerankingConfig{
			Enabled: false, // one embedding call per candidate; opt in
		},
		Chat: ChatConfig{
			Model:     "gpt-4o-mini",
			BaseURL:   "https://api.openai.com/v1",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// FilteringConfig resolves the preset plus overrides into the config the
// search engine consumes.
func (c *Config) FilteringConfig() (domain.FilteringConfig, error) {
	fc, err := domain.FilteringConfigByName(c.Retrieval.Preset)
	if err != nil {
		return domain.FilteringConfig{}, err
	}

	if c.Retrieval.InitialCandidates > 0 {
		fc.InitialCandidates = c.Retrieval.InitialCandidates
	}
	if c.Retrieval.PrimaryThreshold != 0 {
		fc.PrimaryThreshold = c.Retrieval.PrimaryThreshold
	}
	if c.Retrieval.SmartThreshold != 0 {
		fc.SmartThreshold = c.Retrieval.SmartThreshold
	}
	if c.Retrieval.TopK > 0 {
		fc.TopK = c.Retrieval.TopK
	}
	if c.Retrieval.RemoveDuplicates != nil {
		fc.RemoveDuplicates = *c.Retrieval.RemoveDuplicates
	}

	if err := fc.Validate(); err != nil {
		return domain.FilteringConfig{}, err
	}
	return fc, nil
}

// Load loads configuration from a YAML file, applying defaults for any
// omitted fields.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragpipe.yaml,
// then .ragpipe/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragpipe.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragpipe", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// StorePath returns the path to the chunk database under dir.
func StorePath(dir string) string {
	return filepath.Join(dir, ".ragpipe", "chunks.db")
}

// EnsureDataDir ensures the .ragpipe directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".ragpipe"), 0755)
}
