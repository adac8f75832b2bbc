package hierarchy

import "fmt"

// MergeError reports a partial-tree element that could not be merged.
// The rest of the chunk's tree is still merged.
type MergeError struct {
	ChunkID string
	Path    string
	Reason  string
}

func (e *MergeError) Error() string {
	if e.ChunkID == "" {
		return fmt.Sprintf("merge %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("merge %s (%s): %s", e.Path, e.ChunkID, e.Reason)
}

// IDValidationError reports a malformed or inconsistent hierarchical ID.
type IDValidationError struct {
	ID     string
	Parent string
	Reason string
}

func (e *IDValidationError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("id %q: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("id %q (parent %q): %s", e.ID, e.Parent, e.Reason)
}
