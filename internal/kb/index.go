package kb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when two vectors of different lengths
// are compared. Mismatched vectors are never truncated or padded.
var ErrDimensionMismatch = errors.New("vectors must have the same length")

// Index searches stored chunks by query embedding.
type Index interface {
	// Search returns up to k chunks sorted by descending cosine similarity.
	// An empty corpus yields an empty result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]ScoredChunk, error)
}

// CosineSimilarity computes dot(a,b) / (|a| * |b|). It returns 0 when
// either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	magA = math.Sqrt(magA)
	magB = math.Sqrt(magB)

	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return dot / (magA * magB), nil
}

// ChunkSource provides the corpus to scan. The sqlite-backed Store
// satisfies this.
type ChunkSource interface {
	All(ctx context.Context) ([]Chunk, error)
}

// LinearIndex scores every stored chunk against the query on each search.
// Complexity is O(corpus size x dimension) per query; callers needing
// sub-linear search swap in another Index implementation.
type LinearIndex struct {
	source ChunkSource
}

// NewLinearIndex creates a linear-scan index over the given chunk source.
func NewLinearIndex(source ChunkSource) *LinearIndex {
	return &LinearIndex{source: source}
}

func (idx *LinearIndex) Search(ctx context.Context, query []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	chunks, err := idx.source.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	scored := make([]ScoredChunk, len(chunks))
	for i, c := range chunks {
		score, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("scoring chunk %s: %w", c.ID, err)
		}
		scored[i] = ScoredChunk{Chunk: c, Score: score}
	}

	// Stable sort keeps storage order for equal scores, which makes
	// results reproducible.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}
