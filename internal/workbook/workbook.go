// Package workbook moves queries between the repository and the
// outside world. An Extractor hands queries in, an Inserter takes
// ordered queries out. The directory source and stream sink here
// cover scripted use; the interfaces leave room for richer hosts.
package workbook

import "context"

// Query is one named M expression in transit.
type Query struct {
	Name string
	Body string
}

// Extractor yields the queries held by some external container.
type Extractor interface {
	Queries(ctx context.Context) ([]Query, error)
}

// Inserter accepts queries one at a time, in load order.
type Inserter interface {
	Insert(ctx context.Context, q Query) error
}

// Result is the outcome of handling one query.
type Result struct {
	Name string
	Err  error
}

// Report collects per-query outcomes of a bulk operation.
type Report struct {
	Results []Result
}

// Add records the outcome for one query.
func (r *Report) Add(name string, err error) {
	r.Results = append(r.Results, Result{Name: name, Err: err})
}

// Failed returns the results that carry errors.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}
