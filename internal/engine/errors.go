package engine

import "fmt"

// ExtractionError is a failed or timed-out model call for one chunk.
type ExtractionError struct {
	ChunkID string
	Index   int
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("chunk %d (%s): extraction: %v", e.Index, e.ChunkID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ParseError means no JSON object could be recovered from a model response.
type ParseError struct {
	ChunkID string
	Index   int
	Raw     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("chunk %d (%s): no JSON object in model response (%d bytes)", e.Index, e.ChunkID, len(e.Raw))
}
