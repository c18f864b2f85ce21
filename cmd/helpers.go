package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shophub/supportflow/internal/agent"
	"github.com/shophub/supportflow/internal/config"
	"github.com/shophub/supportflow/internal/db"
	"github.com/shophub/supportflow/internal/embeddings"
	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/llm"
	"github.com/shophub/supportflow/internal/logging"
	"github.com/shophub/supportflow/internal/memory"
	"github.com/shophub/supportflow/internal/shop"
	"github.com/shophub/supportflow/internal/tools"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return db.Open(filepath.Join(cfg.DataDir, "supportflow.db"))
}

func buildEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	key := os.Getenv(config.EmbeddingAPIKeyEnvVar(cfg.EmbeddingProvider))
	if key == "" {
		return nil, fmt.Errorf("%s environment variable is not set", config.EmbeddingAPIKeyEnvVar(cfg.EmbeddingProvider))
	}
	switch cfg.EmbeddingProvider {
	case config.EmbeddingCohere:
		return embeddings.NewCohereEmbedder(key, embeddings.CohereModel(cfg.EmbeddingModel), ""), nil
	case config.EmbeddingOpenAI:
		return embeddings.NewOpenAIEmbedder(key, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.Throttle(provider, cfg.RequestsPerMinute), nil
}

func buildIndex(ctx context.Context, cfg *config.Config, store *kb.Store) (kb.Index, error) {
	switch cfg.Index {
	case config.IndexChromem:
		return kb.NewChromemIndex(ctx, store)
	default:
		return kb.NewLinearIndex(store), nil
	}
}

// buildAgent assembles the full turn pipeline: retriever, tool
// registry, and orchestrator.
func buildAgent(ctx context.Context, cfg *config.Config, database *db.DB) (*agent.Agent, *kb.Retriever, *memory.Store, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	kbStore := kb.NewStore(database)
	index, err := buildIndex(ctx, cfg, kbStore)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building similarity index: %w", err)
	}
	retriever := kb.NewRetriever(embedder, index)

	memStore := memory.NewStore(database)
	registry := tools.NewEcommerceRegistry(tools.Deps{
		Shop:      shop.NewStore(database),
		Retriever: retriever,
		Memory:    memStore,
	})

	ag := agent.New(provider, retriever, registry, agent.Options{
		TopK:        cfg.TopK,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		ChunkDelay:  time.Duration(cfg.ChunkDelayMS) * time.Millisecond,
		Model:       cfg.Model,
	}, logging.NewLogger("agent"))

	return ag, retriever, memStore, nil
}
