package resolve

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle. Cycle holds the names along
// the cycle in dependency order, starting at the first name reached.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return "dependency cycle detected: " + strings.Join(e.Cycle, " -> ")
}

// UnresolvedError reports a dependency that no record provides.
// MissingFrom names the script that declared it; it is empty when the
// requested root itself is unknown.
type UnresolvedError struct {
	Name        string
	MissingFrom string
}

func (e *UnresolvedError) Error() string {
	if e.MissingFrom == "" {
		return fmt.Sprintf("unknown script %q", e.Name)
	}
	return fmt.Sprintf("unresolved dependency %q required by %q", e.Name, e.MissingFrom)
}

// Options controls how Order treats missing dependencies.
type Options struct {
	// Partial orders what it can instead of failing on a missing
	// dependency. Every skipped name is reported in the Resolution.
	Partial bool
}

// Omission is a dependency skipped during a partial resolution.
type Omission struct {
	Name        string
	MissingFrom string
}

// Resolution is a dependency-first load order plus, in partial mode,
// the references that could not be satisfied.
type Resolution struct {
	Order   []string
	Omitted []Omission
}

type mark uint8

const (
	unvisited mark = iota
	visiting
	finished
)

// Order returns a load order covering the named roots: every dependency
// of a script appears before the script itself, and scripts shared by
// several roots appear exactly once. Both node and edge traversal
// follow declaration order, so the result is stable.
func (g *Graph) Order(roots []string, opts Options) (*Resolution, error) {
	res := &Resolution{}
	state := make(map[string]mark, len(g.nodes))
	omitted := make(map[Omission]bool)
	var path []string

	var visit func(name, from string) error
	visit = func(name, from string) error {
		n, ok := g.nodes[name]
		if !ok {
			if !opts.Partial {
				return &UnresolvedError{Name: name, MissingFrom: from}
			}
			om := Omission{Name: name, MissingFrom: from}
			if !omitted[om] {
				omitted[om] = true
				res.Omitted = append(res.Omitted, om)
			}
			return nil
		}
		switch state[name] {
		case finished:
			return nil
		case visiting:
			for i, p := range path {
				if p == name {
					return &CycleError{Cycle: append([]string(nil), path[i:]...)}
				}
			}
			return &CycleError{Cycle: []string{name}}
		}
		state[name] = visiting
		path = append(path, name)
		for _, dep := range n.deps {
			if err := visit(dep, name); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = finished
		res.Order = append(res.Order, name)
		return nil
	}

	for _, root := range roots {
		if err := visit(root, ""); err != nil {
			return nil, err
		}
	}
	return res, nil
}
