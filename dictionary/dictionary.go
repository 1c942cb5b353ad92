// Package dictionary is a lexicon entry repository with sorted views. Each
// view is a named result set cache built the first time it is asked for and
// kept current by every later write.
package dictionary

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/andreyvit/rscache"
	"github.com/andreyvit/rscache/lexicon"
	"github.com/andreyvit/rscache/repo"
)

// ErrDuplicateKey is returned when a lookup by GUID or LiftID matches more
// than one entry.
var ErrDuplicateKey = errors.New("more than one entry has this key")

type Options struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
}

type (
	entries   = *rscache.ResultSet[*lexicon.LexEntry]
	entryRepo = repo.Repository[*lexicon.LexEntry]
)

// Repository stores entries and serves the dictionary views. Reads go
// straight to the embedded repository; writes and view builds are
// serialized so that a view seeded from storage never misses a write.
type Repository struct {
	*entryRepo

	mu       sync.Mutex
	caches   *rscache.Manager[*lexicon.LexEntry]
	cacheOpt rscache.Options
	logger   *slog.Logger
	verbose  bool
}

// Open opens the entry store at path, or an in-memory one for repo.InMemory.
func Open(path string, opt Options) (*Repository, error) {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	caches := rscache.NewManager[*lexicon.LexEntry]()
	store, err := repo.Open(path, lexicon.NewLexEntry, repo.Options[*lexicon.LexEntry]{
		Logger:    opt.Logger,
		Verbose:   opt.Verbose,
		IsTesting: opt.IsTesting,
		Caches:    caches,
	})
	if err != nil {
		return nil, err
	}
	return &Repository{
		entryRepo: store,
		caches:    caches,
		cacheOpt:  rscache.Options{Logger: opt.Logger, Verbose: opt.Verbose},
		logger:    opt.Logger,
		verbose:   opt.Verbose,
	}, nil
}

func (r *Repository) CreateItem() (*lexicon.LexEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryRepo.CreateItem()
}

func (r *Repository) SaveItem(e *lexicon.LexEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryRepo.SaveItem(e)
}

func (r *Repository) SaveItems(es []*lexicon.LexEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryRepo.SaveItems(es)
}

func (r *Repository) DeleteItem(e *lexicon.LexEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryRepo.DeleteItem(e)
}

func (r *Repository) DeleteItemByID(id rscache.RepositoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryRepo.DeleteItemByID(id)
}

func (r *Repository) DeleteAllItems() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryRepo.DeleteAllItems()
}

// NotifyThatLexEntryHasBeenUpdated refreshes the views for an entry changed
// in memory but not yet saved. The entry must be stored already.
func (r *Repository) NotifyThatLexEntryHasBeenUpdated(e *lexicon.LexEntry) error {
	if e == nil {
		return invalidArg("NotifyThatLexEntryHasBeenUpdated", "nil entry")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ContainsID(e.ID) {
		return fmt.Errorf("dictionary: entry %v: %w", e.ID, rscache.ErrNotFound)
	}
	return r.caches.UpdateItemInCaches(e)
}

// Views lists the labels of the views built so far.
func (r *Repository) Views() []string {
	return r.caches.Labels()
}

// view returns a snapshot of the cache for q, building it first if needed.
func (r *Repository) view(q rscache.Query[*lexicon.LexEntry]) (entries, error) {
	label := q.UniqueLabel()
	if err := r.ensureCache(label, q); err != nil {
		return nil, err
	}
	var toks []*rscache.RecordToken
	r.caches.View(label, func(rs entries) {
		toks = rs.Tokens()
	})
	return rscache.NewResultSet(rscache.DataMapper[*lexicon.LexEntry](r.entryRepo), toks)
}

func (r *Repository) ensureCache(label string, q rscache.Query[*lexicon.LexEntry]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.caches.Get(label); ok {
		return nil
	}
	rs, err := r.GetItemsMatching(q)
	if err != nil {
		return fmt.Errorf("dictionary: view %q: %w", label, err)
	}
	c, err := rscache.NewCacheFor(rscache.DataMapper[*lexicon.LexEntry](r.entryRepo), rs, q, r.cacheOpt)
	if err != nil {
		return err
	}
	if err := r.caches.Add(label, c); err != nil {
		return err
	}
	if r.verbose {
		r.logger.Debug("dictionary: VIEW.BUILD", "view", label, "rows", c.Len())
	}
	return nil
}

func invalidArg(op, msg string) error {
	return fmt.Errorf("dictionary.%s: %s: %w", op, msg, rscache.ErrInvalidArgument)
}
