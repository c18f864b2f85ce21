package kb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shophub/supportflow/internal/db"
)

// Store persists knowledge chunks in SQLite. Embeddings are stored as
// JSON arrays; the corpus is read-mostly, so decode cost is paid at
// query time by the linear index and once at startup by chromem.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Add inserts chunks. Chunks without an ID get a generated UUID.
func (s *Store) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceSource atomically deletes all chunks for the given source and
// inserts the replacements. Re-ingestion of a document goes through here
// so readers never observe a partially replaced source.
func (s *Store) ReplaceSource(ctx context.Context, source string, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM knowledge_chunks WHERE source = ?`, source); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", source, err)
	}

	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	return tx.Commit()
}

func insertChunks(ctx context.Context, tx *sql.Tx, chunks []Chunk) error {
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}

		embedding, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("marshalling embedding: %w", err)
		}
		metadata, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO knowledge_chunks (id, content, embedding, source, chunk_index, metadata)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Content, string(embedding), c.Source, c.ChunkIndex, string(metadata),
		); err != nil {
			return fmt.Errorf("inserting chunk %d of %s: %w", c.ChunkIndex, c.Source, err)
		}
	}
	return nil
}

// All returns every stored chunk ordered by source and chunk index.
func (s *Store) All(ctx context.Context) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, embedding, source, chunk_index, metadata, created_at
		FROM knowledge_chunks
		ORDER BY source, chunk_index`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var (
			c             Chunk
			embeddingJSON string
			metadataJSON  string
			createdAt     string
		)
		if err := rows.Scan(&c.ID, &c.Content, &embeddingJSON, &c.Source, &c.ChunkIndex, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &c.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshalling embedding for %s: %w", c.ID, err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &c.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata for %s: %w", c.ID, err)
		}
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			c.CreatedAt = t
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Sources returns the distinct document sources present in the corpus.
func (s *Store) Sources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT source FROM knowledge_chunks ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Count returns the total number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Purge deletes the entire knowledge base.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM knowledge_chunks`)
	if err != nil {
		return 0, fmt.Errorf("purging knowledge base: %w", err)
	}
	return res.RowsAffected()
}
