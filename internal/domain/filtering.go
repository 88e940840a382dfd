package domain

import "fmt"

// FilteringConfig controls the multi-stage filter applied during vector search.
// PrimaryThreshold bounds the cheap first pass, SmartThreshold the stricter
// second pass; InitialCandidates caps the pool between the two.
type FilteringConfig struct {
	InitialCandidates int     `yaml:"initial_candidates" json:"initial_candidates"`
	PrimaryThreshold  float64 `yaml:"primary_threshold" json:"primary_threshold"`
	SmartThreshold    float64 `yaml:"smart_threshold" json:"smart_threshold"`
	TopK              int     `yaml:"top_k" json:"top_k"`
	RemoveDuplicates  bool    `yaml:"remove_duplicates" json:"remove_duplicates"`
}

// DefaultFilteringConfig balances recall and precision for general chat use.
func DefaultFilteringConfig() FilteringConfig {
	return FilteringConfig{
		InitialCandidates: 20,
		PrimaryThreshold:  0.3,
		SmartThreshold:    0.5,
		TopK:              5,
		RemoveDuplicates:  true,
	}
}

// StrictFilteringConfig trades recall for precision.
func StrictFilteringConfig() FilteringConfig {
	return FilteringConfig{
		InitialCandidates: 15,
		PrimaryThreshold:  0.4,
		SmartThreshold:    0.65,
		TopK:              3,
		RemoveDuplicates:  true,
	}
}

// LenientFilteringConfig admits more, weaker matches.
func LenientFilteringConfig() FilteringConfig {
	return FilteringConfig{
		InitialCandidates: 30,
		PrimaryThreshold:  0.2,
		SmartThreshold:    0.4,
		TopK:              7,
		RemoveDuplicates:  true,
	}
}

// FilteringConfigByName resolves a named preset ("default", "strict", "lenient").
func FilteringConfigByName(name string) (FilteringConfig, error) {
	switch name {
	case "", "default":
		return DefaultFilteringConfig(), nil
	case "strict":
		return StrictFilteringConfig(), nil
	case "lenient":
		return LenientFilteringConfig(), nil
	default:
		return FilteringConfig{}, fmt.Errorf("unknown filtering preset: %s", name)
	}
}

// Validate checks the invariants the search engine relies on.
func (c FilteringConfig) Validate() error {
	if c.InitialCandidates <= 0 {
		return fmt.Errorf("initial_candidates must be positive, got %d", c.InitialCandidates)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.PrimaryThreshold > c.SmartThreshold {
		return fmt.Errorf("primary_threshold %.2f must not exceed smart_threshold %.2f",
			c.PrimaryThreshold, c.SmartThreshold)
	}
	return nil
}
