package config

import (
	"os"
	"path/filepath"
	"testing"

	"ragpipe/internal/domain"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
	if cfg.Embedding.PrimaryModel != "text-embedding-3-small" {
		t.Errorf("unexpected default primary model: %s", cfg.Embedding.PrimaryModel)
	}
	if cfg.Retrieval.Preset != "default" {
		t.Errorf("unexpected default preset: %s", cfg.Retrieval.Preset)
	}
	if cfg.Ingest.ChunkTokens != 256 {
		t.Errorf("unexpected default chunk tokens: %d", cfg.Ingest.ChunkTokens)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragpipe.yaml")
	content := `retrieval:
  preset: strict
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Retrieval.Preset != "strict" {
		t.Errorf("expected preset strict, got %s", cfg.Retrieval.Preset)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Embedding.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base URL, got %s", cfg.Embedding.BaseURL)
	}
	if cfg.Chat.Model != "gpt-4o-mini" {
		t.Errorf("expected default chat model, got %s", cfg.Chat.Model)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragpipe.yaml")
	if err := os.WriteFile(path, []byte("retrieval: [not a map"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	// No config anywhere: defaults.
	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Retrieval.Preset != "default" {
		t.Errorf("expected defaults, got preset %s", cfg.Retrieval.Preset)
	}

	// .ragpipe/config.yaml is picked up.
	if err := os.MkdirAll(filepath.Join(dir, ".ragpipe"), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".ragpipe", "config.yaml"),
		[]byte("retrieval:\n  preset: lenient\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Retrieval.Preset != "lenient" {
		t.Errorf("expected preset lenient, got %s", cfg.Retrieval.Preset)
	}

	// A root-level ragpipe.yaml wins over .ragpipe/config.yaml.
	if err := os.WriteFile(filepath.Join(dir, "ragpipe.yaml"),
		[]byte("retrieval:\n  preset: strict\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Retrieval.Preset != "strict" {
		t.Errorf("expected preset strict, got %s", cfg.Retrieval.Preset)
	}
}

func TestFilteringConfigPresetAndOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.Preset = "strict"

	fc, err := cfg.FilteringConfig()
	if err != nil {
		t.Fatalf("filtering config failed: %v", err)
	}
	if fc != domain.StrictFilteringConfig() {
		t.Errorf("expected strict preset, got %+v", fc)
	}

	// Overrides replace individual preset fields; zero values keep the preset.
	cfg.Retrieval.TopK = 10
	cfg.Retrieval.PrimaryThreshold = 0.45
	noDedup := false
	cfg.Retrieval.RemoveDuplicates = &noDedup

	fc, err = cfg.FilteringConfig()
	if err != nil {
		t.Fatalf("filtering config failed: %v", err)
	}
	if fc.TopK != 10 {
		t.Errorf("expected TopK override 10, got %d", fc.TopK)
	}
	if fc.PrimaryThreshold != 0.45 {
		t.Errorf("expected PrimaryThreshold override 0.45, got %f", fc.PrimaryThreshold)
	}
	if fc.SmartThreshold != 0.65 {
		t.Errorf("expected preset SmartThreshold 0.65, got %f", fc.SmartThreshold)
	}
	if fc.RemoveDuplicates {
		t.Error("expected RemoveDuplicates override false")
	}
}

func TestFilteringConfigInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.Preset = "bogus"
	if _, err := cfg.FilteringConfig(); err == nil {
		t.Error("expected error for unknown preset")
	}

	cfg = DefaultConfig()
	cfg.Retrieval.PrimaryThreshold = 0.9 // above the default smart threshold
	if _, err := cfg.FilteringConfig(); err == nil {
		t.Error("expected error for primary threshold above smart threshold")
	}
}
