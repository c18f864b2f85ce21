package kb

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "knowledge"

// ChromemIndex is an alternative Index backed by chromem-go. It holds the
// corpus in chromem's own structures and answers searches without
// rescanning the sqlite store, at the cost of a one-time load.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemIndex builds a chromem collection from the chunks currently in
// the given source. Stored embeddings are reused; chromem never re-embeds.
func NewChromemIndex(ctx context.Context, source ChunkSource) (*ChromemIndex, error) {
	cdb := chromem.NewDB()

	// The embedding func is only invoked for documents without a
	// precomputed embedding, which never happens here.
	noEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("chromem index holds precomputed embeddings only")
	}

	col, err := cdb.GetOrCreateCollection(collectionName, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	idx := &ChromemIndex{db: cdb, collection: col}

	chunks, err := source.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	if len(chunks) == 0 {
		return idx, nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		md := map[string]string{
			"source":      c.Source,
			"chunk_index": strconv.Itoa(c.ChunkIndex),
		}
		for k, v := range c.Metadata {
			md[k] = v
		}
		docs[i] = chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Embedding: c.Embedding,
			Metadata:  md,
		}
	}

	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("adding documents: %w", err)
	}

	return idx, nil
}

func (idx *ChromemIndex) Search(ctx context.Context, query []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	// chromem-go requires nResults <= collection size.
	count := idx.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := idx.collection.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	scored := make([]ScoredChunk, len(results))
	for i, r := range results {
		chunkIndex, _ := strconv.Atoi(r.Metadata["chunk_index"])
		scored[i] = ScoredChunk{
			Chunk: Chunk{
				ID:         r.ID,
				Content:    r.Content,
				Embedding:  r.Embedding,
				Source:     r.Metadata["source"],
				ChunkIndex: chunkIndex,
			},
			Score: float64(r.Similarity),
		}
	}

	return scored, nil
}
