package repo

import (
	"golang.org/x/text/cases"

	"github.com/pqhub/pqhub-cli/internal/mlang"
	"github.com/pqhub/pqhub-cli/internal/resolve"
	"github.com/pqhub/pqhub-cli/internal/script"
	"github.com/pqhub/pqhub-cli/internal/storage"
	"github.com/pqhub/pqhub-cli/internal/workbook"
)

// graphLocked returns the dependency graph over all indexed scripts,
// building it on first use. Declared dependency spellings are
// canonicalized through the index, so a dependency written in a
// different case still resolves. Callers hold mu exclusively.
func (r *Repo) graphLocked() (*resolve.Graph, error) {
	if r.graph != nil {
		return r.graph, nil
	}
	entries := r.store.Entries()
	records := make([]script.Record, 0, len(entries))
	for _, e := range entries {
		rec, err := r.recordAt(e)
		if err != nil {
			return nil, err
		}
		deps := make([]string, len(rec.Dependencies))
		for i, d := range rec.Dependencies {
			if hit, ok := r.store.Get(d); ok {
				deps[i] = hit.Name
			} else {
				deps[i] = d
			}
		}
		rec.Dependencies = deps
		records = append(records, rec)
	}
	r.graph = resolve.Build(records)
	return r.graph, nil
}

// canonRoots maps requested names onto their indexed spellings.
// Unknown names pass through and surface as unresolved.
func (r *Repo) canonRoots(roots []string) []string {
	out := make([]string, len(roots))
	for i, name := range roots {
		if e, ok := r.store.Get(name); ok {
			out[i] = e.Name
		} else {
			out[i] = name
		}
	}
	return out
}

// Order resolves the dependency-first load order for roots.
func (r *Repo) Order(roots []string, opts resolve.Options) (*resolve.Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.graphLocked()
	if err != nil {
		return nil, err
	}
	return g.Order(r.canonRoots(roots), opts)
}

// Tree expands the dependency tree under root.
func (r *Repo) Tree(root string) (*resolve.TreeNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.graphLocked()
	if err != nil {
		return nil, err
	}
	canon := r.canonRoots([]string{root})
	return g.Tree(canon[0]), nil
}

// OrderedBodies resolves roots and returns the scripts of the
// resulting order as ready-to-insert queries.
func (r *Repo) OrderedBodies(roots []string, opts resolve.Options) ([]workbook.Query, *resolve.Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.graphLocked()
	if err != nil {
		return nil, nil, err
	}
	res, err := g.Order(r.canonRoots(roots), opts)
	if err != nil {
		return nil, nil, err
	}
	queries, err := r.bodiesLocked(res.Order)
	if err != nil {
		return nil, nil, err
	}
	return queries, res, nil
}

// Bodies returns the named scripts as queries, in the order given.
func (r *Repo) Bodies(names []string) ([]workbook.Query, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bodiesLocked(names)
}

func (r *Repo) bodiesLocked(names []string) ([]workbook.Query, error) {
	out := make([]workbook.Query, 0, len(names))
	for _, name := range names {
		e, ok := r.store.Get(name)
		if !ok {
			return nil, &storage.NotFoundError{Name: name}
		}
		rec, err := r.recordAt(e)
		if err != nil {
			return nil, err
		}
		out = append(out, workbook.Query{Name: rec.Name, Body: rec.Body})
	}
	return out, nil
}

// Inspection is everything inspect reports about one script.
type Inspection struct {
	Record     script.Record
	Suggested  []string // indexed scripts the body references but the metadata does not declare
	Parameters []mlang.Parameter
	Sources    []mlang.DataSource
}

// Inspect scans a script's body for parameters, data sources, and
// references to other indexed scripts.
func (r *Repo) Inspect(name string) (*Inspection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.store.Get(name)
	if !ok {
		return nil, &storage.NotFoundError{Name: name}
	}
	rec, err := r.recordAt(e)
	if err != nil {
		return nil, err
	}

	folder := cases.Fold()
	declared := make(map[string]bool, len(rec.Dependencies))
	for _, d := range rec.Dependencies {
		declared[folder.String(d)] = true
	}
	var suggested []string
	for _, s := range r.suggestForBody(rec.Body, rec.Name) {
		if !declared[folder.String(s)] {
			suggested = append(suggested, s)
		}
	}

	return &Inspection{
		Record:     rec,
		Suggested:  suggested,
		Parameters: mlang.Parameters(rec.Body),
		Sources:    mlang.DataSources(rec.Body),
	}, nil
}

// SuggestForBody scans unsaved content for references to indexed
// scripts, for prefilling a dependency list.
func (r *Repo) SuggestForBody(body, self string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.suggestForBody(body, self)
}

func (r *Repo) suggestForBody(body, self string) []string {
	entries := r.store.Entries()
	known := make([]string, len(entries))
	for i, e := range entries {
		known[i] = e.Name
	}
	return mlang.Suggest(body, known, self)
}
