// Package storage performs the file-side half of repository
// mutations: creating, rewriting, relocating, and deleting script
// files. Every mutation runs under the repository file lock and
// commits the index afterwards; when the index commit fails the file
// step is unwound, so the index never points at a path that is not
// there.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pqhub/pqhub-cli/internal/fsx"
	"github.com/pqhub/pqhub-cli/internal/index"
	"github.com/pqhub/pqhub-cli/internal/script"
)

// Manager applies mutations to the script files of one repository and
// keeps its index store in step.
type Manager struct {
	root   string
	store  *index.Store
	locker *Locker
	log    *log.Logger
}

// NewManager returns a manager for the repository rooted at root.
func NewManager(root string, store *index.Store, locker *Locker, logger *log.Logger) *Manager {
	return &Manager{root: root, store: store, locker: locker, log: logger}
}

// Root returns the repository root.
func (m *Manager) Root() string { return m.root }

// Abs turns a root-relative slash path into an absolute one.
func (m *Manager) Abs(rel string) string {
	return filepath.Join(m.root, filepath.FromSlash(rel))
}

// PathFor is the canonical file location for a script.
func (m *Manager) PathFor(category, name string) string {
	return filepath.Join(m.root, category, name+script.Ext)
}

// WithLock runs fn while holding the repository file lock.
func (m *Manager) WithLock(ctx context.Context, fn func() error) error {
	release, err := m.locker.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func validComponent(kind, s string) error {
	switch {
	case strings.TrimSpace(s) == "":
		return fmt.Errorf("%s must not be empty", kind)
	case strings.ContainsAny(s, `/\`):
		return fmt.Errorf("%s %q must not contain path separators", kind, s)
	case s == "." || s == "..":
		return fmt.Errorf("%s %q is reserved", kind, s)
	case strings.HasPrefix(s, "."):
		return fmt.Errorf("%s %q must not start with a dot", kind, s)
	}
	return nil
}

func (m *Manager) checkComponents(meta script.Metadata) error {
	if err := validComponent("script name", meta.Name); err != nil {
		return err
	}
	return validComponent("category", meta.Category)
}

// Read loads and parses the named script.
func (m *Manager) Read(name string) (script.Record, error) {
	e, ok := m.store.Get(name)
	if !ok {
		return script.Record{}, &NotFoundError{Name: name}
	}
	return script.ParseFile(m.Abs(e.Path))
}

// Create writes a brand-new script file and indexes it.
func (m *Manager) Create(ctx context.Context, meta script.Metadata, body string) (script.Record, error) {
	meta = meta.Normalize()
	if err := m.checkComponents(meta); err != nil {
		return script.Record{}, err
	}

	path := m.PathFor(meta.Category, meta.Name)
	rec := script.Record{Metadata: meta, Body: body, Path: path}
	entry, err := index.FromRecord(rec, m.root)
	if err != nil {
		return script.Record{}, err
	}

	err = m.WithLock(ctx, func() error {
		if prev, ok := m.store.Get(meta.Name); ok {
			return &index.DuplicateError{Name: meta.Name, Paths: []string{prev.Path, entry.Path}}
		}
		if _, err := os.Stat(path); err == nil {
			return &ExistsError{Path: path}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("cannot check script file %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("cannot create category directory %s: %w", filepath.Dir(path), err)
		}
		if err := fsx.WriteFileAtomic(path, script.Format(meta, body), 0o644); err != nil {
			return err
		}
		if err := m.store.Put(entry); err != nil {
			if rmErr := os.Remove(path); rmErr != nil {
				m.log.Warn("cannot undo script file after failed index write", "path", path, "error", rmErr)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return script.Record{}, err
	}
	m.log.Debug("created script", "name", meta.Name, "path", entry.Path)
	return rec, nil
}

// Move rewrites a script under new metadata, relocating or renaming
// the file first when the category or name changed. The sequence is
// rename, rewrite, index commit; each later failure unwinds the
// earlier steps, so a failed mutation leaves the repository exactly
// as it was.
func (m *Manager) Move(ctx context.Context, old index.Entry, meta script.Metadata, body string) (script.Record, error) {
	meta = meta.Normalize()
	if err := m.checkComponents(meta); err != nil {
		return script.Record{}, err
	}

	oldPath := m.Abs(old.Path)
	newPath := m.PathFor(meta.Category, meta.Name)
	rec := script.Record{Metadata: meta, Body: body, Path: newPath}
	entry, err := index.FromRecord(rec, m.root)
	if err != nil {
		return script.Record{}, err
	}

	moving := oldPath != newPath
	caseOnly := moving && strings.EqualFold(oldPath, newPath)
	op := uuid.NewString()[:8]

	err = m.WithLock(ctx, func() error {
		original, err := os.ReadFile(oldPath)
		if err != nil {
			return fmt.Errorf("cannot read script file %s: %w", oldPath, err)
		}
		if moving {
			if !caseOnly {
				if _, err := os.Stat(newPath); err == nil {
					return &ExistsError{Path: newPath}
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("cannot check script file %s: %w", newPath, err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
				return fmt.Errorf("cannot create category directory %s: %w", filepath.Dir(newPath), err)
			}
			m.log.Debug("moving script file", "op", op, "from", oldPath, "to", newPath)
			if err := os.Rename(oldPath, newPath); err != nil {
				return fmt.Errorf("cannot move script file %s: %w", oldPath, err)
			}
		}
		if err := fsx.WriteFileAtomic(newPath, script.Format(meta, body), 0o644); err != nil {
			m.undoMove(op, oldPath, newPath, original, moving)
			return err
		}
		if err := m.store.Rename(old.Name, entry); err != nil {
			m.undoMove(op, oldPath, newPath, original, moving)
			return err
		}
		return nil
	})
	if err != nil {
		return script.Record{}, err
	}
	m.log.Debug("updated script", "op", op, "name", meta.Name, "path", entry.Path)
	return rec, nil
}

// undoMove restores the pre-move file after a failed rewrite or index
// commit.
func (m *Manager) undoMove(op, oldPath, newPath string, original []byte, moved bool) {
	if moved {
		if err := os.Rename(newPath, oldPath); err != nil {
			m.log.Warn("cannot move script file back", "op", op, "path", newPath, "error", err)
			return
		}
	}
	if err := fsx.WriteFileAtomic(oldPath, original, 0o644); err != nil {
		m.log.Warn("cannot restore script file content", "op", op, "path", oldPath, "error", err)
	}
}

// Delete removes a script file and its index entry. The file is
// parked under a hidden trash name first, so a failed index commit
// can put it back untouched.
func (m *Manager) Delete(ctx context.Context, name string) error {
	e, ok := m.store.Get(name)
	if !ok {
		return &NotFoundError{Name: name}
	}
	path := m.Abs(e.Path)
	op := uuid.NewString()
	trash := filepath.Join(filepath.Dir(path), ".trash-"+op)

	return m.WithLock(ctx, func() error {
		if err := os.Rename(path, trash); err != nil {
			if os.IsNotExist(err) {
				// Stale entry: the file is already gone.
				return m.store.Drop(e.Name)
			}
			return fmt.Errorf("cannot remove script file %s: %w", path, err)
		}
		if err := m.store.Drop(e.Name); err != nil {
			if rbErr := os.Rename(trash, path); rbErr != nil {
				m.log.Warn("cannot restore script file after failed index write", "op", op, "path", trash, "error", rbErr)
			}
			return err
		}
		if err := os.Remove(trash); err != nil {
			m.log.Warn("cannot remove trash file", "op", op, "path", trash, "error", err)
		}
		m.log.Debug("deleted script", "name", e.Name, "path", e.Path)
		return nil
	})
}
