package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultCohereBaseURL = "https://api.cohere.ai/v1"

// CohereModel represents a supported Cohere embedding model.
type CohereModel string

const (
	ModelEmbedEnglishV3      CohereModel = "embed-english-v3.0"
	ModelEmbedMultilingualV3 CohereModel = "embed-multilingual-v3.0"
)

func (m CohereModel) dimensions() int {
	// Both v3 models emit 1024-dimension vectors.
	return 1024
}

// CohereEmbedder generates embeddings using Cohere's embed API.
// Cohere embeddings are asymmetric: the input_type field distinguishes
// query embeddings from document embeddings.
type CohereEmbedder struct {
	apiKey     string
	baseURL    string
	model      CohereModel
	httpClient *http.Client
}

// NewCohereEmbedder creates a new Cohere embedder with the given API key
// and model. baseURL defaults to the public Cohere endpoint if empty.
func NewCohereEmbedder(apiKey string, model CohereModel, baseURL string) *CohereEmbedder {
	if baseURL == "" {
		baseURL = defaultCohereBaseURL
	}
	return &CohereEmbedder{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{},
	}
}

func (e *CohereEmbedder) Name() string {
	return "cohere/" + string(e.model)
}

func (e *CohereEmbedder) Dimensions() int {
	return e.model.dimensions()
}

type cohereEmbedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *CohereEmbedder) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(cohereEmbedRequest{
		Model:     string(e.model),
		Texts:     texts,
		InputType: string(mode),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal cohere request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create cohere request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cohere request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cohere returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result cohereEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode cohere response: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("cohere returned %d embeddings, expected %d", len(result.Embeddings), len(texts))
	}

	return result.Embeddings, nil
}
