package kb

import (
	"context"
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"
)

type sliceSource struct {
	chunks []Chunk
}

func (s *sliceSource) All(ctx context.Context) ([]Chunk, error) {
	return s.chunks, nil
}

func TestCosineSimilarity(t *testing.T) {
	got, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("identical vectors: got %f, want 1", got)
	}

	got, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors: got %f, want 0", got)
	}

	got, err = CosineSimilarity([]float32{1, 2}, []float32{-1, -2})
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(got+1) > 1e-9 {
		t.Errorf("opposite vectors: got %f, want -1", got)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCosineSimilarityZeroMagnitude(t *testing.T) {
	got, err := CosineSimilarity([]float32{0, 0}, []float32{1, 2})
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if got != 0 {
		t.Errorf("zero-magnitude vector: got %f, want 0", got)
	}
}

func TestCosineSimilarityProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dim := rapid.IntRange(1, 16).Draw(t, "dim")
		gen := rapid.SliceOfN(rapid.Float32Range(-100, 100), dim, dim)
		a := gen.Draw(t, "a")
		b := gen.Draw(t, "b")

		ab, err := CosineSimilarity(a, b)
		if err != nil {
			t.Fatalf("CosineSimilarity failed: %v", err)
		}
		ba, err := CosineSimilarity(b, a)
		if err != nil {
			t.Fatalf("CosineSimilarity failed: %v", err)
		}

		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("not symmetric: %f vs %f", ab, ba)
		}
		if ab < -1-1e-9 || ab > 1+1e-9 {
			t.Fatalf("out of range: %f", ab)
		}
	})
}

func TestLinearIndexOrdering(t *testing.T) {
	source := &sliceSource{chunks: []Chunk{
		{ID: "far", Embedding: []float32{0, 1}},
		{ID: "near", Embedding: []float32{1, 0}},
		{ID: "mid", Embedding: []float32{1, 1}},
	}}
	idx := NewLinearIndex(source)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantOrder := []string{"near", "mid", "far"}
	for i, want := range wantOrder {
		if results[i].Chunk.ID != want {
			t.Errorf("result[%d]: got %q, want %q", i, results[i].Chunk.ID, want)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending at %d: %f > %f", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestLinearIndexStableOnTies(t *testing.T) {
	// Identical embeddings tie exactly; storage order must hold.
	source := &sliceSource{chunks: []Chunk{
		{ID: "first", Embedding: []float32{1, 1}},
		{ID: "second", Embedding: []float32{1, 1}},
		{ID: "third", Embedding: []float32{1, 1}},
	}}
	idx := NewLinearIndex(source)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Chunk.ID != want {
			t.Errorf("result[%d]: got %q, want %q", i, results[i].Chunk.ID, want)
		}
	}
}

func TestLinearIndexKLargerThanCorpus(t *testing.T) {
	source := &sliceSource{chunks: []Chunk{
		{ID: "only", Embedding: []float32{1, 0}},
	}}
	idx := NewLinearIndex(source)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestLinearIndexEmptyCorpus(t *testing.T) {
	idx := NewLinearIndex(&sliceSource{})
	results, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestLinearIndexDimensionMismatch(t *testing.T) {
	source := &sliceSource{chunks: []Chunk{
		{ID: "a", Embedding: []float32{1, 0, 0}},
	}}
	idx := NewLinearIndex(source)

	_, err := idx.Search(context.Background(), []float32{1, 0}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
