package kb

import (
	"context"
	"testing"

	"github.com/shophub/supportflow/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestStoreAddAndAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []Chunk{
		{Content: "returns accepted within 30 days", Embedding: []float32{1, 0}, Source: "returns.md", ChunkIndex: 0},
		{Content: "refunds are issued to the original payment method", Embedding: []float32{0, 1}, Source: "returns.md", ChunkIndex: 1},
	}
	if err := store.Add(ctx, chunks); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(all))
	}
	if all[0].ChunkIndex != 0 || all[1].ChunkIndex != 1 {
		t.Errorf("chunks not in source order: %d, %d", all[0].ChunkIndex, all[1].ChunkIndex)
	}
	if all[0].ID == "" {
		t.Error("expected generated chunk ID")
	}
	if len(all[0].Embedding) != 2 || all[0].Embedding[0] != 1 {
		t.Errorf("embedding did not round-trip: %v", all[0].Embedding)
	}
}

func TestStoreReplaceSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, []Chunk{
		{Content: "old shipping text", Embedding: []float32{1}, Source: "shipping.md", ChunkIndex: 0},
		{Content: "returns text", Embedding: []float32{1}, Source: "returns.md", ChunkIndex: 0},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := store.ReplaceSource(ctx, "shipping.md", []Chunk{
		{Content: "new shipping text", Embedding: []float32{1}, Source: "shipping.md", ChunkIndex: 0},
	}); err != nil {
		t.Fatalf("ReplaceSource failed: %v", err)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 chunks after replace, got %d", len(all))
	}
	for _, c := range all {
		if c.Source == "shipping.md" && c.Content != "new shipping text" {
			t.Errorf("shipping chunk not replaced: %q", c.Content)
		}
	}
}

func TestStoreSourcesAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, []Chunk{
		{Content: "a", Embedding: []float32{1}, Source: "a.md"},
		{Content: "b", Embedding: []float32{1}, Source: "b.md"},
		{Content: "b2", Embedding: []float32{1}, Source: "b.md", ChunkIndex: 1},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	sources, err := store.Sources(ctx)
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Errorf("expected 2 sources, got %v", sources)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestStorePurge(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, []Chunk{
		{Content: "a", Embedding: []float32{1}, Source: "a.md"},
		{Content: "b", Embedding: []float32{1}, Source: "b.md"},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	removed, err := store.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty store, got %d", count)
	}
}
