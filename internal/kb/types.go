package kb

import "time"

// Chunk is one retrievable unit of source text paired with its embedding.
// Chunks sharing a Source form a contiguous, ordered partition of that
// document; they are replaced per-source on re-ingestion, never edited.
type Chunk struct {
	ID         string
	Content    string
	Embedding  []float32
	Source     string
	ChunkIndex int
	Metadata   map[string]string
	CreatedAt  time.Time
}

// ScoredChunk pairs a chunk with its cosine similarity to a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
