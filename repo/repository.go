// Package repo is a record repository that keeps result set caches in step
// with every write. Records are stored as MsgPack under their ids, either in a
// Bolt file or in memory.
package repo

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreyvit/rscache"
)

// InMemory can be passed to Open instead of a file path.
const InMemory = ":memory:"

const defaultBucket = "records"

// Record is what a repository can store. The id field must be excluded from
// encoding (msgpack:"-"); the repository restores it on read.
type Record interface {
	RepositoryID() rscache.RepositoryID
	SetRepositoryID(id rscache.RepositoryID)
}

type Options[T Record] struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool

	// Bucket names the bucket holding the records; defaults to "records".
	Bucket string

	// Caches, if set, is notified of every create, save and delete.
	Caches *rscache.Manager[T]
}

type Repository[T Record] struct {
	st      storage
	buck    string
	newItem func() T
	caches  *rscache.Manager[T]
	logger  *slog.Logger
	verbose bool
}

var _ rscache.DataMapper[Record] = (*Repository[Record])(nil)

// Open opens (creating if needed) a repository at path, or an in-memory one
// for InMemory. newItem must return a new empty record.
func Open[T Record](path string, newItem func() T, opt Options[T]) (*Repository[T], error) {
	if newItem == nil {
		return nil, invalidArg("Open", "nil newItem")
	}
	var st storage
	if path == InMemory {
		st = newMemStorage()
	} else {
		var err error
		st, err = openBoltStorage(path, opt.IsTesting)
		if err != nil {
			return nil, fmt.Errorf("repo: %w", err)
		}
	}

	r := &Repository[T]{
		st:      st,
		buck:    opt.Bucket,
		newItem: newItem,
		caches:  opt.Caches,
		logger:  opt.Logger,
		verbose: opt.Verbose,
	}
	if r.buck == "" {
		r.buck = defaultBucket
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	err := r.write(func(b storageBucket) error { return nil })
	if err != nil {
		st.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository[T]) Close() error {
	return r.st.Close()
}

// Caches returns the cache manager notified by this repository, if any.
func (r *Repository[T]) Caches() *rscache.Manager[T] {
	return r.caches
}

func (r *Repository[T]) GetID(item T) rscache.RepositoryID {
	return item.RepositoryID()
}

// CreateItem stores a new empty record under a fresh id and adds it to the
// caches.
func (r *Repository[T]) CreateItem() (T, error) {
	item := r.newItem()
	err := r.write(func(b storageBucket) error {
		id, err := b.NextID()
		if err != nil {
			return err
		}
		item.SetRepositoryID(id)
		return r.put(b, item)
	})
	if err != nil {
		var zero T
		return zero, repoErrf("CreateItem", 0, err, "")
	}
	if r.verbose {
		r.logger.Debug("repo: CREATE", "bucket", r.buck, "id", item.RepositoryID())
	}
	if r.caches != nil {
		if err := r.caches.AddItemToCaches(item); err != nil {
			return item, err
		}
	}
	return item, nil
}

// SaveItem writes an existing record and updates it in the caches. A record
// whose encoding matches what is stored is left alone, caches included.
func (r *Repository[T]) SaveItem(item T) error {
	if rscache.IsNil(item) {
		return invalidArg("SaveItem", "nil record")
	}
	id := item.RepositoryID()
	if id.IsZero() {
		return invalidArg("SaveItem", "record has no id")
	}
	var changed bool
	err := r.write(func(b storageBucket) error {
		var err error
		changed, err = r.putChanged(b, item)
		return err
	})
	if err != nil {
		return repoErrf("SaveItem", id, err, "")
	}
	if !changed {
		if r.verbose {
			r.logger.Debug("repo: PUT.NOOP", "bucket", r.buck, "id", id)
		}
		return nil
	}
	if r.verbose {
		r.logger.Debug("repo: PUT", "bucket", r.buck, "id", id)
	}
	if r.caches != nil {
		return r.caches.UpdateItemInCaches(item)
	}
	return nil
}

// SaveItems writes the changed records among items in one transaction, then
// updates each of them in the caches. Unchanged records are skipped.
func (r *Repository[T]) SaveItems(items []T) error {
	for _, item := range items {
		if rscache.IsNil(item) {
			return invalidArg("SaveItems", "nil record")
		}
		if item.RepositoryID().IsZero() {
			return invalidArg("SaveItems", "record has no id")
		}
	}
	var dirty []T
	err := r.write(func(b storageBucket) error {
		dirty = dirty[:0]
		for _, item := range items {
			changed, err := r.putChanged(b, item)
			if err != nil {
				return repoErrf("SaveItems", item.RepositoryID(), err, "")
			}
			if changed {
				dirty = append(dirty, item)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if r.verbose {
		r.logger.Debug("repo: PUT.BATCH", "bucket", r.buck, "count", len(items), "written", len(dirty))
	}
	if r.caches != nil {
		for _, item := range dirty {
			if err := r.caches.UpdateItemInCaches(item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Repository[T]) put(b storageBucket, item T) error {
	var buf bytes.Buffer
	data, err := encodeRecord(&buf, item)
	if err != nil {
		return err
	}
	return b.Put(item.RepositoryID(), data)
}

// putChanged writes an existing record unless the stored bytes already match.
func (r *Repository[T]) putChanged(b storageBucket, item T) (bool, error) {
	id := item.RepositoryID()
	old := b.Get(id)
	if old == nil {
		return false, rscache.ErrNotFound
	}
	var buf bytes.Buffer
	data, err := encodeRecord(&buf, item)
	if err != nil {
		return false, err
	}
	if bytes.Equal(old, data) {
		return false, nil
	}
	return true, b.Put(id, data)
}

// GetItem decodes a fresh copy of the record.
func (r *Repository[T]) GetItem(id rscache.RepositoryID) (T, error) {
	var item T
	if id.IsZero() {
		return item, invalidArg("GetItem", "zero id")
	}
	err := r.read(func(b storageBucket) error {
		data := b.Get(id)
		if data == nil {
			return notFound("GetItem", id)
		}
		item = r.newItem()
		if err := decodeRecord(data, item); err != nil {
			return repoErrf("GetItem", id, err, "")
		}
		item.SetRepositoryID(id)
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

func (r *Repository[T]) ContainsID(id rscache.RepositoryID) bool {
	var found bool
	_ = r.read(func(b storageBucket) error {
		found = b.Get(id) != nil
		return nil
	})
	return found
}

func (r *Repository[T]) DeleteItem(item T) error {
	if rscache.IsNil(item) {
		return invalidArg("DeleteItem", "nil record")
	}
	return r.DeleteItemByID(item.RepositoryID())
}

// DeleteItemByID removes the record's rows from the caches, then the record.
// Caches are notified first so that caches in DeleteRequiresRecord mode can
// still resolve the id.
func (r *Repository[T]) DeleteItemByID(id rscache.RepositoryID) error {
	if id.IsZero() {
		return invalidArg("DeleteItemByID", "zero id")
	}
	if !r.ContainsID(id) {
		return notFound("DeleteItemByID", id)
	}
	if r.caches != nil {
		if err := r.caches.DeleteItemFromCachesByID(id); err != nil {
			return err
		}
	}
	err := r.write(func(b storageBucket) error {
		return b.Delete(id)
	})
	if err != nil {
		return repoErrf("DeleteItemByID", id, err, "")
	}
	if r.verbose {
		r.logger.Debug("repo: DELETE", "bucket", r.buck, "id", id)
	}
	return nil
}

// DeleteAllItems empties the repository and every cache.
func (r *Repository[T]) DeleteAllItems() error {
	if r.caches != nil {
		r.caches.DeleteAllItemsFromCaches()
	}
	var n int
	err := r.write(func(b storageBucket) error {
		var ids []rscache.RepositoryID
		err := b.ForEach(func(id rscache.RepositoryID, _ []byte) error {
			ids = append(ids, id)
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := b.Delete(id); err != nil {
				return err
			}
		}
		n = len(ids)
		return nil
	})
	if err != nil {
		return repoErrf("DeleteAllItems", 0, err, "")
	}
	if r.verbose {
		r.logger.Debug("repo: DELETE.ALL", "bucket", r.buck, "deleted", n)
	}
	return nil
}

func (r *Repository[T]) CountAllItems() (int, error) {
	var n int
	err := r.read(func(b storageBucket) error {
		n = b.Len()
		return nil
	})
	return n, err
}

// GetAllIDs returns every id in ascending order.
func (r *Repository[T]) GetAllIDs() ([]rscache.RepositoryID, error) {
	var ids []rscache.RepositoryID
	err := r.read(func(b storageBucket) error {
		return b.ForEach(func(id rscache.RepositoryID, _ []byte) error {
			ids = append(ids, id)
			return nil
		})
	})
	return ids, err
}

// GetAllItems returns every record in id order.
func (r *Repository[T]) GetAllItems() ([]T, error) {
	var items []T
	err := r.read(func(b storageBucket) error {
		return b.ForEach(func(id rscache.RepositoryID, data []byte) error {
			item := r.newItem()
			if err := decodeRecord(data, item); err != nil {
				return repoErrf("GetAllItems", id, err, "")
			}
			item.SetRepositoryID(id)
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetItemsMatching runs q over every record and returns the rows in q's
// order. This is the full scan a cache is usually seeded with.
func (r *Repository[T]) GetItemsMatching(q rscache.Query[T]) (*rscache.ResultSet[T], error) {
	if q == nil {
		return nil, invalidArg("GetItemsMatching", "nil query")
	}
	items, err := r.GetAllItems()
	if err != nil {
		return nil, err
	}
	toks, err := rscache.RunQuery(q, rscache.DataMapper[T](r), items)
	if err != nil {
		return nil, err
	}
	rs, err := rscache.NewResultSet(rscache.DataMapper[T](r), toks)
	if err != nil {
		return nil, err
	}
	return rs.Sorted(q.SortDefinitions()...)
}

func (r *Repository[T]) read(f func(b storageBucket) error) error {
	return r.st.View(r.buck, f)
}

func (r *Repository[T]) write(f func(b storageBucket) error) error {
	return r.st.Update(r.buck, f)
}

// IsNotFound reports whether err means that a record id did not resolve.
func IsNotFound(err error) bool {
	return errors.Is(err, rscache.ErrNotFound)
}
