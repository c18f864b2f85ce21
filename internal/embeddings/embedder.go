package embeddings

import "context"

// Mode selects the embedding representation. Some providers (Cohere)
// produce asymmetric embeddings: queries and stored documents must be
// embedded differently for similarity search to work.
type Mode string

const (
	ModeQuery    Mode = "search_query"
	ModeDocument Mode = "search_document"
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts in the given mode.
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}
