package index

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Store is the in-memory index backed by the JSONL snapshot. Reads
// take a shared lock. Mutations take the write lock, rewrite the
// snapshot file first, and swap the in-memory copy only after the
// replace succeeded, so concurrent readers always observe either the
// old index or the new one.
type Store struct {
	path string

	mu      sync.RWMutex
	entries []Entry        // canonical order: category, then name
	byName  map[string]int // case-folded name -> position in entries
	corrupt error
}

// Open loads the snapshot at path. A missing snapshot yields an empty
// store. A corrupt snapshot also yields an empty store but keeps the
// decode error for Corrupt, so callers can advise a rebuild instead
// of failing outright.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	entries, err := readSnapshot(path)
	if err != nil {
		var cerr *CorruptError
		if errors.As(err, &cerr) {
			s.corrupt = err
			s.swap(nil)
			return s, nil
		}
		return nil, err
	}
	sortEntries(entries)
	s.swap(entries)
	return s, nil
}

// Path returns the snapshot file path.
func (s *Store) Path() string { return s.path }

// Corrupt returns the decode error kept from Open, or nil.
func (s *Store) Corrupt() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corrupt
}

// Len reports the number of indexed scripts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns all entries in canonical order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get looks a script up by name, case-insensitively.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byName[cases.Fold().String(name)]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// ByCategory returns the entries of one category, case-insensitively.
func (s *Store) ByCategory(category string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	folder := cases.Fold()
	want := folder.String(category)
	var out []Entry
	for _, e := range s.entries {
		if folder.String(e.Category) == want {
			out = append(out, e)
		}
	}
	return out
}

// Search returns the entries whose name, description, or tags contain
// query, case-insensitively. An empty query matches everything.
// Results are sorted by name.
func (s *Store) Search(query string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folder := cases.Fold()
	q := folder.String(strings.TrimSpace(query))

	var out []Entry
	for _, e := range s.entries {
		if q == "" || matches(folder, e, q) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := folder.String(out[i].Name), folder.String(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func matches(folder cases.Caser, e Entry, q string) bool {
	if strings.Contains(folder.String(e.Name), q) ||
		strings.Contains(folder.String(e.Description), q) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(folder.String(tag), q) {
			return true
		}
	}
	return false
}

// Replace validates entries and commits them as the new snapshot. On
// any error the previous snapshot stays intact, on disk and in memory.
func (s *Store) Replace(entries []Entry) error {
	next := make([]Entry, len(entries))
	copy(next, entries)
	sortEntries(next)
	if err := validateUnique(next); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeSnapshot(s.path, next); err != nil {
		return err
	}
	s.swap(next)
	s.corrupt = nil
	return nil
}

// Put inserts or updates the entry with e's name.
func (s *Store) Put(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(s.without(e.Name), e)
	sortEntries(next)
	if err := writeSnapshot(s.path, next); err != nil {
		return err
	}
	s.swap(next)
	return nil
}

// Drop removes the named entry. Dropping an unknown name is a no-op.
func (s *Store) Drop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.without(name)
	if len(next) == len(s.entries) {
		return nil
	}
	if err := writeSnapshot(s.path, next); err != nil {
		return err
	}
	s.swap(next)
	return nil
}

// Rename commits a rename or relocation as one snapshot write: the
// entry under oldName goes away and e lands in the same replace, so a
// reader never observes an index holding both spellings or neither.
func (s *Store) Rename(oldName string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	folder := cases.Fold()
	oldKey := folder.String(oldName)
	newKey := folder.String(e.Name)
	if oldKey != newKey {
		if i, ok := s.byName[newKey]; ok {
			return &DuplicateError{Name: e.Name, Paths: []string{s.entries[i].Path, e.Path}}
		}
	}

	next := append(s.withoutKey(oldKey), e)
	sortEntries(next)
	if err := writeSnapshot(s.path, next); err != nil {
		return err
	}
	s.swap(next)
	return nil
}

// swap installs entries as the in-memory copy. Callers hold the write
// lock or own the store exclusively.
func (s *Store) swap(entries []Entry) {
	folder := cases.Fold()
	byName := make(map[string]int, len(entries))
	for i, e := range entries {
		byName[folder.String(e.Name)] = i
	}
	s.entries = entries
	s.byName = byName
}

func (s *Store) without(name string) []Entry {
	return s.withoutKey(cases.Fold().String(name))
}

func (s *Store) withoutKey(key string) []Entry {
	folder := cases.Fold()
	next := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if folder.String(e.Name) == key {
			continue
		}
		next = append(next, e)
	}
	return next
}

// sortEntries puts entries in canonical snapshot order: case-folded
// category, then case-folded name, with the raw strings breaking ties
// so equal-folded spellings still land deterministically.
func sortEntries(entries []Entry) {
	folder := cases.Fold()
	sort.SliceStable(entries, func(i, j int) bool {
		ci, cj := folder.String(entries[i].Category), folder.String(entries[j].Category)
		if ci != cj {
			return ci < cj
		}
		ni, nj := folder.String(entries[i].Name), folder.String(entries[j].Name)
		if ni != nj {
			return ni < nj
		}
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Path < entries[j].Path
	})
}

func validateUnique(entries []Entry) error {
	folder := cases.Fold()
	paths := make(map[string][]string, len(entries))
	for _, e := range entries {
		key := folder.String(e.Name)
		paths[key] = append(paths[key], e.Path)
	}
	for _, e := range entries {
		if p := paths[folder.String(e.Name)]; len(p) > 1 {
			return &DuplicateError{Name: e.Name, Paths: p}
		}
	}
	return nil
}
