// Package repo is the high-level surface over one script repository:
// a directory tree of category folders holding .pq files, an index
// snapshot, and a config file. It coordinates the index store, the
// file manager, and the dependency resolver behind one lock, so
// concurrent readers always observe a consistent pairing of index and
// files.
package repo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"

	"github.com/pqhub/pqhub-cli/internal/config"
	"github.com/pqhub/pqhub-cli/internal/index"
	"github.com/pqhub/pqhub-cli/internal/resolve"
	"github.com/pqhub/pqhub-cli/internal/script"
	"github.com/pqhub/pqhub-cli/internal/storage"
)

const parseCacheSize = 256

// Options tunes Open. The zero value loads config from the repository
// and logs nowhere.
type Options struct {
	Config *config.Config
	Logger *log.Logger
}

// Repo is an open script repository.
type Repo struct {
	root  string
	cfg   *config.Config
	log   *log.Logger
	store *index.Store
	files *storage.Manager

	// mu orders file reads against mutations: readers hold it shared
	// while resolving an entry to its parsed file, mutations hold it
	// exclusively across the whole move-and-commit sequence.
	mu    sync.RWMutex
	graph *resolve.Graph
	cache *lru.Cache[string, script.Record]
}

// Open opens the repository rooted at root.
func Open(root string, opts Options) (*Repo, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve repository root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot open repository %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", abs)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg, err = config.Load(abs)
		if err != nil {
			return nil, err
		}
	}

	store, err := index.Open(filepath.Join(abs, index.SnapshotFile))
	if err != nil {
		return nil, err
	}
	if cerr := store.Corrupt(); cerr != nil {
		logger.Warn("index snapshot is corrupt, run `pqhub index --rebuild`", "error", cerr)
	}

	cache, err := lru.New[string, script.Record](parseCacheSize)
	if err != nil {
		return nil, err
	}

	locker := storage.NewLocker(abs, cfg.LockTimeout)
	return &Repo{
		root:  abs,
		cfg:   cfg,
		log:   logger,
		store: store,
		files: storage.NewManager(abs, store, locker, logger),
		cache: cache,
	}, nil
}

// Root returns the repository root.
func (r *Repo) Root() string { return r.root }

// Config returns the loaded configuration.
func (r *Repo) Config() *config.Config { return r.cfg }

// Corrupt reports the index decode error kept from Open, if any.
func (r *Repo) Corrupt() error { return r.store.Corrupt() }

// Entries lists all indexed scripts in canonical order.
func (r *Repo) Entries() []index.Entry { return r.store.Entries() }

// Get looks a script up by name, case-insensitively.
func (r *Repo) Get(name string) (index.Entry, bool) { return r.store.Get(name) }

// Search matches query against names, tags, and descriptions.
func (r *Repo) Search(query string) []index.Entry { return r.store.Search(query) }

// ByCategory lists the scripts of one category.
func (r *Repo) ByCategory(category string) []index.Entry { return r.store.ByCategory(category) }

// Categories lists the distinct categories in canonical order.
func (r *Repo) Categories() []string {
	folder := cases.Fold()
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.store.Entries() {
		key := folder.String(e.Category)
		if !seen[key] {
			seen[key] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// Record loads the full parsed script behind an index entry.
func (r *Repo) Record(name string) (script.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.store.Get(name)
	if !ok {
		return script.Record{}, &storage.NotFoundError{Name: name}
	}
	return r.recordAt(e)
}

// recordAt parses the file behind e, reusing a previous parse when
// the path was seen before. Callers hold mu.
func (r *Repo) recordAt(e index.Entry) (script.Record, error) {
	if rec, ok := r.cache.Get(e.Path); ok {
		return rec, nil
	}
	rec, err := script.ParseFile(r.files.Abs(e.Path))
	if err != nil {
		return script.Record{}, err
	}
	r.cache.Add(e.Path, rec)
	return rec, nil
}

// invalidate drops every derived structure. Callers hold mu
// exclusively.
func (r *Repo) invalidate() {
	r.graph = nil
	r.cache.Purge()
}
