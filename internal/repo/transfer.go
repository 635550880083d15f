package repo

import (
	"context"

	"github.com/pqhub/pqhub-cli/internal/workbook"
)

// ExtractReport breaks an extraction down per query.
type ExtractReport struct {
	Imported []string
	Updated  []string // existing scripts whose body was overwritten
	Skipped  []string // existing scripts left alone
	Failed   []workbook.Result
}

// Extract pulls every query src yields into the repository under
// category. Queries whose name is already taken are skipped unless
// force is set, in which case their body is updated in place.
// Dependencies on already-indexed scripts are detected from the body
// and declared automatically.
func (r *Repo) Extract(ctx context.Context, src workbook.Extractor, category string, force bool) (*ExtractReport, error) {
	queries, err := src.Queries(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		category = r.cfg.DefaultCategory
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rep := &ExtractReport{}
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if existing, ok := r.store.Get(q.Name); ok {
			if !force {
				rep.Skipped = append(rep.Skipped, existing.Name)
				continue
			}
			body := q.Body
			if _, err := r.updateLocked(ctx, existing.Name, Edit{Body: &body}); err != nil {
				rep.Failed = append(rep.Failed, workbook.Result{Name: q.Name, Err: err})
				continue
			}
			rep.Updated = append(rep.Updated, existing.Name)
			continue
		}

		draft := Draft{
			Name:         q.Name,
			Category:     category,
			Dependencies: r.suggestForBody(q.Body, q.Name),
			Body:         q.Body,
		}
		if _, err := r.createLocked(ctx, draft); err != nil {
			rep.Failed = append(rep.Failed, workbook.Result{Name: q.Name, Err: err})
			continue
		}
		rep.Imported = append(rep.Imported, q.Name)
	}
	return rep, nil
}

// Push hands queries to dst one at a time and reports per-query
// outcomes. A failed insert does not stop the rest.
func (r *Repo) Push(ctx context.Context, dst workbook.Inserter, queries []workbook.Query) (*workbook.Report, error) {
	rep := &workbook.Report{}
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		err := dst.Insert(ctx, q)
		rep.Add(q.Name, err)
		if err != nil {
			r.log.Warn("cannot insert query", "name", q.Name, "error", err)
		}
	}
	return rep, nil
}
