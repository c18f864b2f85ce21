package llm

import (
	"fmt"
	"os"
)

const cerebrasBaseURL = "https://api.cerebras.ai/v1"

// NewProvider creates a new LLM provider based on the given provider type
// and model. Supported provider types: "cerebras", "openai".
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "cerebras":
		apiKey := os.Getenv("CEREBRAS_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY environment variable is not set")
		}
		return NewCompatibleProvider("cerebras", apiKey, cerebrasBaseURL, model), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
