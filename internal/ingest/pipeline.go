package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/shophub/supportflow/internal/embeddings"
	"github.com/shophub/supportflow/internal/kb"
)

const embedBatchSize = 32

// Pipeline embeds loaded documents and writes them to the knowledge
// store, replacing whatever was previously ingested from each source.
type Pipeline struct {
	embedder embeddings.Embedder
	store    *kb.Store
	log      zerolog.Logger

	// Progress enables a terminal progress bar. Off by default so the
	// pipeline stays quiet inside tests and servers.
	Progress bool
	// Splitter may be replaced before Run to change chunk sizing.
	Splitter *Splitter
}

// NewPipeline builds an ingest pipeline with the default splitter.
func NewPipeline(embedder embeddings.Embedder, store *kb.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		embedder: embedder,
		store:    store,
		Splitter: NewSplitter(DefaultChunkSize, DefaultOverlap),
		log:      log,
	}
}

// Stats summarizes one ingest run.
type Stats struct {
	Documents int
	Chunks    int
	Purged    int64
}

// Run ingests every document under dir. When purge is true the store
// is emptied first, otherwise only the chunks of re-ingested sources
// are replaced.
func (p *Pipeline) Run(ctx context.Context, dir string, include, exclude []string, purge bool) (*Stats, error) {
	docs, err := LoadDir(dir, include, exclude)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no .txt or .md documents found under %s", dir)
	}

	stats := &Stats{Documents: len(docs)}
	if purge {
		n, err := p.store.Purge(ctx)
		if err != nil {
			return nil, fmt.Errorf("purge knowledge store: %w", err)
		}
		stats.Purged = n
	}

	var bar *progressbar.ProgressBar
	if p.Progress {
		bar = progressbar.NewOptions(len(docs),
			progressbar.OptionSetDescription("Ingesting documents"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, doc := range docs {
		if bar != nil {
			bar.Describe(doc.Source)
		}
		chunks, err := p.ingestDocument(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: %w", doc.Source, err)
		}
		stats.Chunks += chunks
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	p.log.Info().
		Int("documents", stats.Documents).
		Int("chunks", stats.Chunks).
		Msg("ingest complete")
	return stats, nil
}

func (p *Pipeline) ingestDocument(ctx context.Context, doc Document) (int, error) {
	pieces := p.Splitter.Split(doc.Content)
	if len(pieces) == 0 {
		p.log.Warn().Str("source", doc.Source).Msg("document produced no chunks")
		return 0, nil
	}

	chunks := make([]kb.Chunk, 0, len(pieces))
	for start := 0; start < len(pieces); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch := pieces[start:end]

		vectors, err := p.embedder.Embed(ctx, batch, embeddings.ModeDocument)
		if err != nil {
			return 0, fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}
		for i, text := range batch {
			chunks = append(chunks, kb.Chunk{
				Content:    text,
				Embedding:  vectors[i],
				Source:     doc.Source,
				ChunkIndex: start + i,
			})
		}
	}

	if err := p.store.ReplaceSource(ctx, doc.Source, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(chunks), nil
}
