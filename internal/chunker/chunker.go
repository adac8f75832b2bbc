package chunker

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Config controls chunking behavior. Sizes are in characters (runes).
type Config struct {
	ChunkSize      int // Target chunk size.
	OverlapSize    int // Characters shared between consecutive chunks.
	BoundaryWindow int // Search radius around a tentative cut for a natural break.

	// EstimateTokens fills Chunk.EstimatedTokens. Defaults to EstimateTokens.
	EstimateTokens func(string) int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      4000,
		OverlapSize:    400,
		BoundaryWindow: 150,
	}
}

// ConfigError reports chunk geometry that cannot produce a valid chunking.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chunker config: %s %s", e.Field, e.Reason)
}

// Validate checks the chunk geometry. It must pass before any chunk is produced.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return &ConfigError{Field: "chunk_size", Reason: fmt.Sprintf("must be positive, got %d", c.ChunkSize)}
	}
	if c.OverlapSize < 0 {
		return &ConfigError{Field: "overlap_size", Reason: fmt.Sprintf("must not be negative, got %d", c.OverlapSize)}
	}
	if c.OverlapSize >= c.ChunkSize {
		return &ConfigError{Field: "overlap_size", Reason: fmt.Sprintf("(%d) must be smaller than chunk_size (%d)", c.OverlapSize, c.ChunkSize)}
	}
	if c.BoundaryWindow < 0 {
		return &ConfigError{Field: "boundary_window", Reason: fmt.Sprintf("must not be negative, got %d", c.BoundaryWindow)}
	}
	return nil
}

// Chunk is a window of the source document. Offsets are rune offsets, End exclusive.
type Chunk struct {
	ID               string `json:"id"`
	Index            int    `json:"index"`
	TotalCount       int    `json:"total_count"`
	Content          string `json:"content"`
	StartOffset      int    `json:"start_offset"`
	EndOffset        int    `json:"end_offset"`
	EstimatedTokens  int    `json:"estimated_tokens"`
	OverlapsPrevious bool   `json:"overlaps_previous"`
	OverlapsNext     bool   `json:"overlaps_next"`
}

// Info is the one-line chunk description handed to the model.
func (c Chunk) Info() string {
	return fmt.Sprintf("Chunk %d/%d | Chars: %d-%d", c.Index+1, c.TotalCount, c.StartOffset, c.EndOffset)
}

// CreateChunks splits text into overlapping windows cut at natural boundaries.
// The same input and config always yield the same chunks.
func CreateChunks(text string, cfg Config) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	estimate := cfg.EstimateTokens
	if estimate == nil {
		estimate = EstimateTokens
	}

	runes := []rune(text)
	n := len(runes)

	if n <= cfg.ChunkSize {
		return []Chunk{newChunk(runes, 0, n, 0, 1, estimate)}, nil
	}

	var chunks []Chunk
	start := 0
	for {
		end := min(start+cfg.ChunkSize, n)
		if end < n {
			end = findNaturalBreak(runes, start, end, cfg.BoundaryWindow)
		}
		chunks = append(chunks, newChunk(runes, start, end, len(chunks), 0, estimate))
		if end >= n {
			break
		}

		next := end - cfg.OverlapSize
		if next <= start {
			// A natural break pulled the cut back so far that the overlap
			// would not advance; continue from the cut without overlap.
			next = end
		}
		start = next
	}

	// Overlap flags follow the actual offsets; a chunk restarted at the
	// previous cut shares no text with it.
	for i := range chunks {
		chunks[i].TotalCount = len(chunks)
		chunks[i].OverlapsPrevious = i > 0 && chunks[i].StartOffset < chunks[i-1].EndOffset
		chunks[i].OverlapsNext = i+1 < len(chunks) && chunks[i+1].StartOffset < chunks[i].EndOffset
	}
	return chunks, nil
}

func newChunk(runes []rune, start, end, index, total int, estimate func(string) int) Chunk {
	content := string(runes[start:end])
	return Chunk{
		ID:              chunkID(content, index),
		Index:           index,
		TotalCount:      total,
		Content:         content,
		StartOffset:     start,
		EndOffset:       end,
		EstimatedTokens: estimate(content),
	}
}

// findNaturalBreak looks for the latest paragraph break, then line break, then
// sentence end within window of preferredEnd. The result is always > start.
func findNaturalBreak(runes []rune, start, preferredEnd, window int) int {
	n := len(runes)
	lo := max(start, preferredEnd-window)
	hi := min(n-1, preferredEnd+window)

	for i := hi; i > lo; i-- {
		if i+1 < n && runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}
	for i := hi; i > lo; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := hi; i > lo; i-- {
		switch runes[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	return preferredEnd
}

func chunkID(content string, index int) string {
	h := sha256.Sum256([]byte(content))
	return fmt.Sprintf("chunk_%d_%x", index, h[:4])
}

// EstimateTokens gives a rough token count from the word count.
// Exact tokenization is the model provider's business.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(len(strings.Fields(text))) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
