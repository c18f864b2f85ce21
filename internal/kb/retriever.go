package kb

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shophub/supportflow/internal/embeddings"
)

// Retriever composes an embedder and an index: text query in, ranked
// chunks out. Queries are embedded in query mode; documents are embedded
// in document mode at ingestion time.
type Retriever struct {
	embedder embeddings.Embedder
	index    Index
}

// NewRetriever creates a retriever over the given embedder and index.
func NewRetriever(embedder embeddings.Embedder, index Index) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve returns up to k chunks relevant to the query, sorted by
// descending similarity. A zero-result retrieval is a normal outcome,
// never an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	vecs, err := r.embedder.Embed(ctx, []string{query}, embeddings.ModeQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}

	return r.index.Search(ctx, vecs[0], k)
}

// FormatContext renders retrieved chunks as numbered context blocks for
// inclusion in a system prompt.
func FormatContext(chunks []ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[Context %d]:\n%s", i+1, c.Chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Excerpt returns roughly the first n bytes of content with an
// ellipsis, for source summaries attached to answers. The cut backs up
// to a rune boundary so the excerpt stays valid UTF-8.
func Excerpt(content string, n int) string {
	if len(content) <= n {
		return content
	}
	for n > 0 && !utf8.RuneStart(content[n]) {
		n--
	}
	return content[:n] + "..."
}
