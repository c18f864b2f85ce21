// Package ingest loads policy documents, splits them into overlapping
// chunks, embeds the chunks, and writes them to the knowledge store.
package ingest

import "strings"

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 512
	// DefaultOverlap is how many trailing characters each chunk shares
	// with the next.
	DefaultOverlap = 50
)

// separators, tried coarsest first. The empty string is the terminal
// fallback: hard character splitting.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter performs recursive character splitting: it prefers breaking
// on paragraph boundaries, then lines, then words, and only then mid
// word.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter returns a splitter with default sizing. Non-positive
// overrides fall back to defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

// Split breaks text into chunks of at most ChunkSize characters with
// Overlap characters of carry-over between consecutive chunks. Blank
// chunks are dropped.
func (s *Splitter) Split(text string) []string {
	pieces := s.split(text, 0)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Splitter) split(text string, sepIdx int) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}
	if sepIdx >= len(separators) {
		return s.hardSplit(text)
	}

	sep := separators[sepIdx]
	if sep == "" {
		return s.hardSplit(text)
	}

	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return s.split(text, sepIdx+1)
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	for _, part := range parts {
		if len(part) > s.ChunkSize {
			flush()
			chunks = append(chunks, s.split(part, sepIdx+1)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(sep)+len(part) > s.ChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
	}
	flush()
	return s.applyOverlap(chunks)
}

// hardSplit cuts text into fixed windows stepping by ChunkSize-Overlap.
func (s *Splitter) hardSplit(text string) []string {
	step := s.ChunkSize - s.Overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}

// applyOverlap prefixes each chunk after the first with the tail of its
// predecessor so boundary sentences stay retrievable from either side.
func (s *Splitter) applyOverlap(chunks []string) []string {
	if s.Overlap == 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev
		if len(prev) > s.Overlap {
			tail = prev[len(prev)-s.Overlap:]
		}
		out[i] = tail + chunks[i]
	}
	return out
}
