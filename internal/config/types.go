package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderCerebras ProviderType = "cerebras"
	ProviderOpenAI   ProviderType = "openai"
)

// EmbeddingProviderType identifies an embedding provider.
type EmbeddingProviderType string

const (
	EmbeddingCohere EmbeddingProviderType = "cohere"
	EmbeddingOpenAI EmbeddingProviderType = "openai"
)

// IndexBackend selects the similarity index implementation.
type IndexBackend string

const (
	// IndexLinear scans every stored chunk per query. Exact and fine
	// for knowledge bases in the thousands of chunks.
	IndexLinear IndexBackend = "linear"
	// IndexChromem serves queries from an in-process chromem-go
	// collection loaded at startup.
	IndexChromem IndexBackend = "chromem"
)

// Config is the top-level supportflow configuration, corresponding to
// .supportflow.yml.
type Config struct {
	Provider          ProviderType          `yaml:"provider" koanf:"provider"`
	Model             string                `yaml:"model" koanf:"model"`
	EmbeddingProvider EmbeddingProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string                `yaml:"embedding_model" koanf:"embedding_model"`
	Index             IndexBackend          `yaml:"index" koanf:"index"`
	DataDir           string                `yaml:"data_dir" koanf:"data_dir"`
	TopK              int                   `yaml:"top_k" koanf:"top_k"`
	MaxTokens         int                   `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature       float32               `yaml:"temperature" koanf:"temperature"`
	ChunkDelayMS      int                   `yaml:"chunk_delay_ms" koanf:"chunk_delay_ms"`
	RequestsPerMinute int                   `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Server            ServerConfig          `yaml:"server" koanf:"server"`
	Ingest            IngestConfig          `yaml:"ingest" koanf:"ingest"`
	Memory            MemoryConfig          `yaml:"memory" koanf:"memory"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// IngestConfig holds document ingestion settings.
type IngestConfig struct {
	Include   []string `yaml:"include" koanf:"include"`
	Exclude   []string `yaml:"exclude" koanf:"exclude"`
	ChunkSize int      `yaml:"chunk_size" koanf:"chunk_size"`
	Overlap   int      `yaml:"overlap" koanf:"overlap"`
}

// MemoryConfig holds conversation retention settings.
type MemoryConfig struct {
	// ThreadTTLHours is how long an idle thread survives before the
	// cleanup sweep removes it. Zero disables cleanup.
	ThreadTTLHours int `yaml:"thread_ttl_hours" koanf:"thread_ttl_hours"`
	// CleanupIntervalMinutes is how often the sweep runs.
	CleanupIntervalMinutes int `yaml:"cleanup_interval_minutes" koanf:"cleanup_interval_minutes"`
	// HistoryLimit caps how many prior messages feed each turn.
	HistoryLimit int `yaml:"history_limit" koanf:"history_limit"`
}
