package ingest

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(512, 50)
	chunks := s.Split("a short policy paragraph")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "a short policy paragraph" {
		t.Errorf("content altered: %q", chunks[0])
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("alpha ", 20)
	para2 := strings.Repeat("beta ", 20)
	s := NewSplitter(120, 0)

	chunks := s.Split(para1 + "\n\n" + para2)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if strings.Contains(chunks[0], "beta") || strings.Contains(chunks[1], "alpha") {
		t.Errorf("paragraphs mixed across chunks: %q / %q", chunks[0], chunks[1])
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(100, 20)
	text := strings.Repeat("word ", 200)

	for i, c := range s.Split(text) {
		// Overlap prefixes may push a chunk slightly past the target.
		if len(c) > s.ChunkSize+s.Overlap {
			t.Errorf("chunk %d too large: %d bytes", i, len(c))
		}
	}
}

func TestSplitOverlapCarriesTail(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("x", 200)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-s.Overlap:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d does not carry overlap from predecessor", i)
		}
	}
}

func TestSplitDropsBlankChunks(t *testing.T) {
	s := NewSplitter(50, 0)
	chunks := s.Split("\n\n   \n\n")
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for blank input, got %v", chunks)
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != DefaultChunkSize || s.Overlap != DefaultOverlap {
		t.Errorf("defaults not applied: %d/%d", s.ChunkSize, s.Overlap)
	}

	// Overlap >= chunk size would never terminate hard splitting.
	s = NewSplitter(100, 100)
	if s.Overlap >= s.ChunkSize {
		t.Errorf("oversized overlap accepted: %d/%d", s.Overlap, s.ChunkSize)
	}
}
