// Package config holds all grounds configuration.
// API keys and alias tables are loaded here once and passed to components at
// construction time; nothing in the engine reads the environment after boot.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all grounds configuration.
type Config struct {
	// Core settings
	Name string `yaml:"name"`

	// Backend configuration, one block per provider
	Gemini    BackendConfig `yaml:"gemini"`
	GLM       BackendConfig `yaml:"glm"`
	Anthropic BackendConfig `yaml:"anthropic"`

	// Candidate selection policy
	Compare CompareConfig `yaml:"compare"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig configures one text-generation backend.
type BackendConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"` // alias or concrete model id
	Timeout string `yaml:"timeout"`

	// Structure floors and token ceilings. Empirically tuned per backend;
	// see DESIGN.md for the provenance of the defaults.
	Tuning TuningConfig `yaml:"tuning"`
}

// TuningConfig holds the per-backend structure floors and token ceilings.
type TuningConfig struct {
	// MinNextActions is the valid NEXT ACTIONS block count below which a
	// draft is considered structurally broken.
	MinNextActions int `yaml:"min_next_actions"`

	// MinLengthChars is the total length floor for a draft.
	MinLengthChars int `yaml:"min_length_chars"`

	// DraftMaxTokens is the output-token ceiling for the first call.
	DraftMaxTokens int `yaml:"draft_max_tokens"`

	// RepairMaxTokens is the (larger) ceiling for the repair call.
	RepairMaxTokens int `yaml:"repair_max_tokens"`
}

// CompareConfig holds the deterministic final-selection thresholds.
type CompareConfig struct {
	// ScoreDelta: repaired must score at least this many points above the
	// draft to win on score alone.
	ScoreDelta int `yaml:"score_delta"`

	// LengthDelta: repaired must be this many characters longer than the
	// draft to win on length alone.
	LengthDelta int `yaml:"length_delta"`

	// RegressionGuard: repaired loses outright when it scores more than
	// this many points below the draft while also missing more headers.
	RegressionGuard int `yaml:"regression_guard"`

	// ScorerRepairThreshold: an external scorer forces repair when its
	// score falls below this while truncation is suspected.
	ScorerRepairThreshold int `yaml:"scorer_repair_threshold"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		Name:      "grounds",
		Gemini:    DefaultGeminiConfig(),
		GLM:       DefaultGLMConfig(),
		Anthropic: DefaultAnthropicConfig(),
		Compare:   DefaultCompareConfig(),
	}
}

// DefaultGeminiConfig returns sensible defaults for the Gemini backend.
func DefaultGeminiConfig() BackendConfig {
	return BackendConfig{
		Enabled: true,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   "flash",
		Timeout: "120s",
		Tuning: TuningConfig{
			MinNextActions:  6,
			MinLengthChars:  700,
			DraftMaxTokens:  2048,
			RepairMaxTokens: 3072,
		},
	}
}

// DefaultGLMConfig returns sensible defaults for the Z.AI GLM backend.
// GLM is the low-capacity variant: a higher next-actions floor (its drafts
// pad sections with filler lines more often) and smaller token ceilings.
func DefaultGLMConfig() BackendConfig {
	return BackendConfig{
		Enabled: true,
		BaseURL: "https://api.z.ai/api/paas/v4",
		Model:   "air",
		Timeout: "120s",
		Tuning: TuningConfig{
			MinNextActions:  7,
			MinLengthChars:  500,
			DraftMaxTokens:  1600,
			RepairMaxTokens: 2400,
		},
	}
}

// DefaultAnthropicConfig returns sensible defaults for the Anthropic backend.
// Disabled by default; enable in config or per request.
func DefaultAnthropicConfig() BackendConfig {
	return BackendConfig{
		Enabled: false,
		BaseURL: "https://api.anthropic.com/v1",
		Model:   "haiku",
		Timeout: "120s",
		Tuning: TuningConfig{
			MinNextActions:  6,
			MinLengthChars:  700,
			DraftMaxTokens:  2048,
			RepairMaxTokens: 3072,
		},
	}
}

// DefaultCompareConfig returns the default selection thresholds.
func DefaultCompareConfig() CompareConfig {
	return CompareConfig{
		ScoreDelta:            6,
		LengthDelta:           220,
		RegressionGuard:       10,
		ScorerRepairThreshold: 92,
	}
}

// DefaultPath is the config file looked for when no explicit path is given.
const DefaultPath = "grounds.yaml"

// Load reads a YAML config file, layering it over defaults and applying
// environment overrides for API keys. Only the default path may be absent;
// a missing file the caller named explicitly is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) || path != DefaultPath {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills API keys from environment variables when the config file
// did not provide them. Env never overrides an explicit file value.
func (c *Config) applyEnv() {
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.GLM.APIKey == "" {
		c.GLM.APIKey = os.Getenv("ZAI_API_KEY")
	}
	if c.Anthropic.APIKey == "" {
		c.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// TimeoutDuration parses the backend timeout, falling back to 120s.
func (b BackendConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(b.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// Backends returns the backend configs keyed by backend id.
func (c *Config) Backends() map[string]BackendConfig {
	return map[string]BackendConfig{
		"anthropic": c.Anthropic,
		"gemini":    c.Gemini,
		"glm":       c.GLM,
	}
}
