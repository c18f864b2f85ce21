package config

// DefaultConfigFile is the conventional configuration file name.
const DefaultConfigFile = ".supportflow.yml"

// defaultModels maps each provider to its default chat model.
var defaultModels = map[ProviderType]string{
	ProviderCerebras: "llama-3.3-70b",
	ProviderOpenAI:   "gpt-4o-mini",
}

// defaultEmbeddingModels maps each embedding provider to its default model.
var defaultEmbeddingModels = map[EmbeddingProviderType]string{
	EmbeddingCohere: "embed-english-v3.0",
	EmbeddingOpenAI: "text-embedding-3-small",
}

// DefaultModel returns the default chat model for a provider.
func DefaultModel(p ProviderType) string {
	return defaultModels[p]
}

// DefaultEmbeddingModel returns the default model for an embedding provider.
func DefaultEmbeddingModel(p EmbeddingProviderType) string {
	return defaultEmbeddingModels[p]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderCerebras,
		Model:             defaultModels[ProviderCerebras],
		EmbeddingProvider: EmbeddingCohere,
		EmbeddingModel:    defaultEmbeddingModels[EmbeddingCohere],
		Index:             IndexLinear,
		DataDir:           ".supportflow",
		TopK:              3,
		MaxTokens:         800,
		Temperature:       0.2,
		ChunkDelayMS:      30,
		RequestsPerMinute: 0,
		Server: ServerConfig{
			Port: 3001,
		},
		Ingest: IngestConfig{
			ChunkSize: 512,
			Overlap:   50,
		},
		Memory: MemoryConfig{
			ThreadTTLHours:         24,
			CleanupIntervalMinutes: 60,
			HistoryLimit:           10,
		},
	}
}
