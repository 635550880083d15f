// Package index maintains the JSONL snapshot of a script repository
// and answers name, category, and search queries from an in-memory
// copy of it. Every mutation rewrites the snapshot atomically before
// the in-memory copy is swapped, so a crash can lose at most the
// change being written, never the previous snapshot.
package index

import (
	"fmt"
	"path/filepath"

	"github.com/pqhub/pqhub-cli/internal/script"
)

// SnapshotFile is the snapshot's file name under the repository root.
const SnapshotFile = "index.jsonl"

// Entry is one line of the snapshot. Path is relative to the
// repository root and always slash separated, whatever the host OS.
type Entry struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Path        string   `json:"path"`
}

// FromRecord converts a parsed record into an index entry, making the
// record's absolute path relative to root.
func FromRecord(rec script.Record, root string) (Entry, error) {
	rel, err := filepath.Rel(root, rec.Path)
	if err != nil {
		return Entry{}, fmt.Errorf("cannot relativize script path %s: %w", rec.Path, err)
	}
	return Entry{
		Name:        rec.Name,
		Category:    rec.Category,
		Tags:        rec.Tags,
		Description: rec.Description,
		Version:     rec.Version,
		Path:        filepath.ToSlash(rel),
	}, nil
}
