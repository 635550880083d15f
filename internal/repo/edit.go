package repo

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/pqhub/pqhub-cli/internal/script"
	"github.com/pqhub/pqhub-cli/internal/storage"
)

// Draft is the user-supplied content of a new script. Empty category
// and version fall back to the configured defaults.
type Draft struct {
	Name         string
	Category     string
	Tags         []string
	Dependencies []string
	Description  string
	Version      string
	Body         string
}

// Edit carries the changed fields of an update; nil fields keep their
// current value.
type Edit struct {
	Name         *string
	Category     *string
	Tags         *[]string
	Dependencies *[]string
	Description  *string
	Version      *string
	Body         *string
}

// Create adds a new script to the repository.
func (r *Repo) Create(ctx context.Context, d Draft) (script.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(ctx, d)
}

func (r *Repo) createLocked(ctx context.Context, d Draft) (script.Record, error) {
	meta := script.Metadata{
		Name:         d.Name,
		Category:     d.Category,
		Tags:         d.Tags,
		Dependencies: d.Dependencies,
		Description:  d.Description,
		Version:      d.Version,
	}.Normalize()
	if meta.Category == "" {
		meta.Category = r.cfg.DefaultCategory
	}
	if meta.Version == "" {
		meta.Version = r.cfg.DefaultVersion
	}

	rec, err := r.files.Create(ctx, meta, d.Body)
	if err != nil {
		return script.Record{}, err
	}
	r.invalidate()
	return rec, nil
}

// Update applies an edit to the named script. A category change
// relocates the file; a name change renames it and is refused while
// other scripts declare the old name as a dependency.
func (r *Repo) Update(ctx context.Context, name string, e Edit) (script.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateLocked(ctx, name, e)
}

func (r *Repo) updateLocked(ctx context.Context, name string, e Edit) (script.Record, error) {
	old, ok := r.store.Get(name)
	if !ok {
		return script.Record{}, &storage.NotFoundError{Name: name}
	}
	rec, err := r.recordAt(old)
	if err != nil {
		return script.Record{}, err
	}

	meta := rec.Metadata
	body := rec.Body
	if e.Name != nil {
		meta.Name = *e.Name
	}
	if e.Category != nil {
		meta.Category = *e.Category
	}
	if e.Tags != nil {
		meta.Tags = *e.Tags
	}
	if e.Dependencies != nil {
		meta.Dependencies = *e.Dependencies
	}
	if e.Description != nil {
		meta.Description = *e.Description
	}
	if e.Version != nil {
		meta.Version = *e.Version
	}
	meta = meta.Normalize()
	if meta.Category == "" {
		meta.Category = r.cfg.DefaultCategory
	}
	if meta.Version == "" {
		meta.Version = r.cfg.DefaultVersion
	}

	if !strings.EqualFold(meta.Name, old.Name) {
		users, err := r.dependents(old.Name)
		if err != nil {
			return script.Record{}, err
		}
		if len(users) > 0 {
			return script.Record{}, fmt.Errorf("cannot rename %q: still required by %s", old.Name, strings.Join(users, ", "))
		}
	}

	updated, err := r.files.Move(ctx, old, meta, body)
	if err != nil {
		return script.Record{}, err
	}
	r.invalidate()
	return updated, nil
}

// Remove deletes a script. Unless force is set, removal is refused
// while other scripts declare it as a dependency.
func (r *Repo) Remove(ctx context.Context, name string, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store.Get(name)
	if !ok {
		return &storage.NotFoundError{Name: name}
	}
	if !force {
		users, err := r.dependents(e.Name)
		if err != nil {
			return err
		}
		if len(users) > 0 {
			return fmt.Errorf("cannot remove %q: still required by %s", e.Name, strings.Join(users, ", "))
		}
	}
	if err := r.files.Delete(ctx, e.Name); err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// dependents lists the scripts declaring name as a dependency.
// Callers hold mu.
func (r *Repo) dependents(name string) ([]string, error) {
	folder := cases.Fold()
	want := folder.String(name)
	var out []string
	for _, e := range r.store.Entries() {
		rec, err := r.recordAt(e)
		if err != nil {
			return nil, err
		}
		for _, d := range rec.Dependencies {
			if folder.String(d) == want {
				out = append(out, rec.Name)
				break
			}
		}
	}
	return out, nil
}
