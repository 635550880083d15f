package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"golang.org/x/text/cases"

	"github.com/pqhub/pqhub-cli/internal/index"
	"github.com/pqhub/pqhub-cli/internal/resolve"
	"github.com/pqhub/pqhub-cli/internal/script"
)

// Finding is one problem a checkup discovered.
type Finding struct {
	Kind    string // corrupt-index, missing-file, malformed, unindexed, stale-index, misplaced, duplicate, unresolved, cycle
	Subject string
	Detail  string
}

// Checkup inspects the repository for drift between the tree, the
// index snapshot, and the declared dependencies. It never mutates
// anything; an empty result means the repository is healthy.
func (r *Repo) Checkup(ctx context.Context) ([]Finding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var findings []Finding

	if err := r.store.Corrupt(); err != nil {
		findings = append(findings, Finding{Kind: "corrupt-index", Subject: index.SnapshotFile, Detail: err.Error()})
	}

	// Indexed entries whose file is gone.
	for _, e := range r.store.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := os.Stat(r.files.Abs(e.Path)); err != nil {
			findings = append(findings, Finding{Kind: "missing-file", Subject: e.Name, Detail: e.Path})
		}
	}

	rep, err := r.Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, issue := range rep.Issues {
		findings = append(findings, Finding{Kind: "malformed", Subject: issue.Path, Detail: issue.Err.Error()})
	}

	folder := cases.Fold()
	claims := make(map[string][]string)
	for _, rec := range rep.Records {
		claims[folder.String(rec.Name)] = append(claims[folder.String(rec.Name)], relSlash(r.root, rec.Path))
	}

	reportedDup := make(map[string]bool)
	for _, rec := range rep.Records {
		rel := relSlash(r.root, rec.Path)
		key := folder.String(rec.Name)

		if paths := claims[key]; len(paths) > 1 && !reportedDup[key] {
			reportedDup[key] = true
			derr := &index.DuplicateError{Name: rec.Name, Paths: paths}
			findings = append(findings, Finding{Kind: "duplicate", Subject: rec.Name, Detail: derr.Error()})
		}

		e, ok := r.store.Get(rec.Name)
		switch {
		case !ok:
			findings = append(findings, Finding{Kind: "unindexed", Subject: rec.Name, Detail: rel})
		case e.Path != rel && len(claims[key]) == 1:
			findings = append(findings, Finding{Kind: "stale-index", Subject: rec.Name, Detail: fmt.Sprintf("indexed at %s, found at %s", e.Path, rel)})
		}

		if dir := path.Dir(rel); !equalFold(folder, dir, rec.Category) {
			findings = append(findings, Finding{Kind: "misplaced", Subject: rec.Name, Detail: fmt.Sprintf("category %q but stored under %s/", rec.Category, dir)})
		}
	}

	findings = append(findings, dependencyFindings(folder, rep.Records)...)
	return findings, nil
}

func equalFold(folder cases.Caser, a, b string) bool {
	return folder.String(a) == folder.String(b)
}

// dependencyFindings checks the scanned records for unresolved
// references and cycles.
func dependencyFindings(folder cases.Caser, records []script.Record) []Finding {
	canon := make(map[string]string, len(records))
	for _, rec := range records {
		key := folder.String(rec.Name)
		if _, ok := canon[key]; !ok {
			canon[key] = rec.Name
		}
	}

	mapped := make([]script.Record, len(records))
	for i, rec := range records {
		deps := make([]string, len(rec.Dependencies))
		for j, d := range rec.Dependencies {
			if name, ok := canon[folder.String(d)]; ok {
				deps[j] = name
			} else {
				deps[j] = d
			}
		}
		rec.Dependencies = deps
		mapped[i] = rec
	}

	var findings []Finding
	g := resolve.Build(mapped)
	for _, rec := range mapped {
		for _, d := range rec.Dependencies {
			if !g.Contains(d) {
				findings = append(findings, Finding{Kind: "unresolved", Subject: rec.Name, Detail: d})
			}
		}
	}

	roots := make([]string, len(mapped))
	for i, rec := range mapped {
		roots[i] = rec.Name
	}
	if _, err := g.Order(roots, resolve.Options{Partial: true}); err != nil {
		var cerr *resolve.CycleError
		if errors.As(err, &cerr) {
			findings = append(findings, Finding{Kind: "cycle", Subject: cerr.Cycle[0], Detail: cerr.Error()})
		}
	}
	return findings
}
