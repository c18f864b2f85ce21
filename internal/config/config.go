// Package config loads supportflow configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SUPPORTFLOW_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: SUPPORTFLOW_MODEL -> model, etc.
	if err := k.Load(env.Provider("SUPPORTFLOW_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SUPPORTFLOW_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderCerebras: true,
	ProviderOpenAI:   true,
}

var validEmbeddingProviders = map[EmbeddingProviderType]bool{
	EmbeddingCohere: true,
	EmbeddingOpenAI: true,
}

var validIndexBackends = map[IndexBackend]bool{
	IndexLinear:  true,
	IndexChromem: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of cerebras, openai", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.EmbeddingProvider != "" && !validEmbeddingProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q: must be one of cohere, openai", c.EmbeddingProvider)
	}
	if c.Index != "" && !validIndexBackends[c.Index] {
		return fmt.Errorf("invalid index %q: must be one of linear, chromem", c.Index)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Ingest.Overlap < 0 || (c.Ingest.ChunkSize > 0 && c.Ingest.Overlap >= c.Ingest.ChunkSize) {
		return fmt.Errorf("ingest.overlap must be non-negative and smaller than ingest.chunk_size")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}
	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderCerebras:
		return "CEREBRAS_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// EmbeddingAPIKeyEnvVar returns the API key variable for an embedding
// provider.
func EmbeddingAPIKeyEnvVar(provider EmbeddingProviderType) string {
	switch provider {
	case EmbeddingCohere:
		return "COHERE_API_KEY"
	case EmbeddingOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
