package workbook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pqhub/pqhub-cli/internal/script"
)

// DirSource extracts queries from the loose script files of one
// directory. A file with a metadata header contributes its parsed
// name and body; a bare file contributes its stem and full content.
type DirSource struct {
	Dir string
}

// Queries reads the directory's .pq, .m, and .txt files in name
// order. Hidden files and subdirectories are skipped.
func (d DirSource) Queries(ctx context.Context) ([]Query, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read source directory %s: %w", d.Dir, err)
	}

	var out []Query
	for _, ent := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ent.IsDir() || strings.HasPrefix(ent.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".pq", ".m", ".txt":
		default:
			continue
		}

		path := filepath.Join(d.Dir, ent.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read script file %s: %w", path, err)
		}
		name := strings.TrimSuffix(ent.Name(), filepath.Ext(ent.Name()))
		body := string(raw)
		if meta, parsed, err := script.Parse(raw); err == nil {
			name = meta.Name
			body = parsed
		}
		out = append(out, Query{Name: name, Body: body})
	}
	return out, nil
}
