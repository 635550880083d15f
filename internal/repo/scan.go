package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pqhub/pqhub-cli/internal/index"
	"github.com/pqhub/pqhub-cli/internal/script"
)

// Issue is one file the scanner could not take in.
type Issue struct {
	Path string // root-relative, slash separated
	Err  error
}

// ScanReport is the outcome of one walk over the repository tree.
type ScanReport struct {
	Records []script.Record
	Issues  []Issue
}

// Scan walks the category directories and parses every script file.
// Malformed files become issues, not failures; the walk keeps going.
// Hidden entries and files without the script extension are ignored.
func (r *Repo) Scan(ctx context.Context) (*ScanReport, error) {
	rep := &ScanReport{}
	dirs, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("cannot read repository root %s: %w", r.root, err)
	}
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		category := d.Name()
		files, err := os.ReadDir(filepath.Join(r.root, category))
		if err != nil {
			return nil, fmt.Errorf("cannot read category directory %s: %w", category, err)
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			if !strings.EqualFold(filepath.Ext(f.Name()), script.Ext) {
				continue
			}
			path := filepath.Join(r.root, category, f.Name())
			rec, err := script.ParseFile(path)
			if err != nil {
				rep.Issues = append(rep.Issues, Issue{Path: relSlash(r.root, path), Err: err})
				continue
			}
			if rec.Category == "" {
				rec.Category = category
			}
			rep.Records = append(rep.Records, rec)
		}
	}
	return rep, nil
}

// BuildIndex scans the tree and replaces the snapshot with what it
// found. Files reported as issues are left out of the index.
func (r *Repo) BuildIndex(ctx context.Context) (*ScanReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, err := r.Scan(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]index.Entry, 0, len(rep.Records))
	for _, rec := range rep.Records {
		e, err := index.FromRecord(rec, r.root)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	err = r.files.WithLock(ctx, func() error {
		return r.store.Replace(entries)
	})
	if err != nil {
		return nil, err
	}
	r.invalidate()
	return rep, nil
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
