package rscache

import (
	"log/slog"

	"github.com/google/btree"
)

const treeDegree = 32

// Cache (a result set cache) is one sorted, materialized view fed by one or
// more queries and kept current one record at a time.
//
// A Cache is not safe for concurrent use; see Manager.
type Cache[T any] struct {
	mapper  DataMapper[T]
	cmp     *TokenComparer
	tree    *btree.BTreeG[*RecordToken]
	byID    map[RepositoryID][]*RecordToken
	queries []Query[T]

	name    string
	logger  *slog.Logger
	verbose bool
	delMode DeleteMode
}

// NewCache returns an empty cache ordered by sortDefs.
func NewCache[T any](mapper DataMapper[T], sortDefs []SortDefinition, opt Options) (*Cache[T], error) {
	if IsNil(mapper) {
		return nil, invalidArg("NewCache", "mapper")
	}
	if sortDefs == nil {
		return nil, invalidArg("NewCache", "sort definitions")
	}
	tc, err := NewTokenComparer(sortDefs...)
	if err != nil {
		return nil, err
	}
	return &Cache[T]{
		mapper:  mapper,
		cmp:     tc,
		tree:    btree.NewG(treeDegree, tc.Less),
		byID:    make(map[RepositoryID][]*RecordToken),
		logger:  opt.logger(),
		verbose: opt.Verbose,
		delMode: opt.DeleteMode,
	}, nil
}

// NewCacheFor returns a cache ordered by query's sort definitions and loaded
// with rs.
func NewCacheFor[T any](mapper DataMapper[T], rs *ResultSet[T], query Query[T], opt Options) (*Cache[T], error) {
	if IsNil(query) {
		return nil, invalidArg("NewCacheFor", "query")
	}
	c, err := NewCache(mapper, query.SortDefinitions(), opt)
	if err != nil {
		return nil, err
	}
	if err := c.Add(rs, query); err != nil {
		return nil, err
	}
	return c, nil
}

// Name is the label under which the cache is registered with a Manager, if any.
func (c *Cache[T]) Name() string {
	return c.name
}

func (c *Cache[T]) SortDefinitions() []SortDefinition {
	return c.cmp.SortDefinitions()
}

func (c *Cache[T]) Comparer() *TokenComparer {
	return c.cmp
}

// Queries returns the registered queries in registration order.
func (c *Cache[T]) Queries() []Query[T] {
	return append([]Query[T](nil), c.queries...)
}

// Add merges the tokens of rs into the view and registers query for future
// maintenance. A query whose label is already registered is not added twice.
func (c *Cache[T]) Add(rs *ResultSet[T], query Query[T]) error {
	if rs == nil {
		return invalidArg("Cache.Add", "result set")
	}
	if IsNil(query) {
		return invalidArg("Cache.Add", "query")
	}
	var added int
	rs.src.Ascend(func(tok *RecordToken) bool {
		if c.insert(tok) {
			added++
		}
		return true
	})
	c.register(query)
	if c.verbose {
		c.logger.Debug("rscache: ADD", "cache", c.name, "query", query.UniqueLabel(), "rows", added)
	}
	return nil
}

func (c *Cache[T]) register(query Query[T]) {
	label := query.UniqueLabel()
	for _, q := range c.queries {
		if q.UniqueLabel() == label {
			return
		}
	}
	c.queries = append(c.queries, query)
}

// GetResultSet returns a live view of the cache's tokens.
func (c *Cache[T]) GetResultSet() *ResultSet[T] {
	return &ResultSet[T]{mapper: c.mapper, src: tokenTree{c.tree}}
}

func (c *Cache[T]) Len() int {
	return c.tree.Len()
}

// UpdateItemInCache replaces the rows of item with fresh rows from every
// registered query. Rows of other records are not touched. If any query fails,
// the cache is left unchanged.
func (c *Cache[T]) UpdateItemInCache(item T) error {
	if IsNil(item) {
		return invalidArg("Cache.UpdateItemInCache", "item")
	}
	id := c.mapper.GetID(item)
	if id.IsZero() {
		return invalidArg("Cache.UpdateItemInCache", "item id")
	}

	var fresh []*RecordToken
	for _, q := range c.queries {
		rows, err := q.GetResults(item)
		if err != nil {
			return err
		}
		label := q.UniqueLabel()
		for _, row := range rows {
			fresh = append(fresh, NewRecordToken(id, label, row))
		}
	}

	removed := c.remove(id)
	var added int
	for _, tok := range fresh {
		if c.insert(tok) {
			added++
		}
	}
	if c.verbose {
		c.logger.Debug("rscache: UPDATE", "cache", c.name, "id", id, "removed", removed, "added", added)
	}
	return nil
}

// DeleteItemFromCache drops the rows of item.
func (c *Cache[T]) DeleteItemFromCache(item T) error {
	if IsNil(item) {
		return invalidArg("Cache.DeleteItemFromCache", "item")
	}
	return c.DeleteItemFromCacheByID(c.mapper.GetID(item))
}

// DeleteItemFromCacheByID drops the rows of id. Under DeleteRequiresRecord,
// the id must still resolve in the repository; the repository's error is
// returned as is if it does not.
func (c *Cache[T]) DeleteItemFromCacheByID(id RepositoryID) error {
	if id.IsZero() {
		return invalidArg("Cache.DeleteItemFromCacheByID", "id")
	}
	if c.delMode == DeleteRequiresRecord {
		if _, err := c.mapper.GetItem(id); err != nil {
			return err
		}
	}
	removed := c.remove(id)
	if c.verbose {
		if removed > 0 {
			c.logger.Debug("rscache: DELETE", "cache", c.name, "id", id, "removed", removed)
		} else {
			c.logger.Debug("rscache: DELETE.NOOP", "cache", c.name, "id", id)
		}
	}
	return nil
}

// DeleteAllItemsFromCache empties the view. Registered queries are kept.
func (c *Cache[T]) DeleteAllItemsFromCache() {
	n := c.tree.Len()
	c.tree.Clear(false)
	clear(c.byID)
	if c.verbose {
		c.logger.Debug("rscache: DELETE.ALL", "cache", c.name, "removed", n)
	}
}

// Contains reports whether the view holds rows for id.
func (c *Cache[T]) Contains(id RepositoryID) bool {
	return len(c.byID[id]) > 0
}

// RowsOf returns the rows of id in view order.
func (c *Cache[T]) RowsOf(id RepositoryID) []*RecordToken {
	toks := append([]*RecordToken(nil), c.byID[id]...)
	sortTokens(toks, c.cmp)
	return toks
}

func (c *Cache[T]) insert(tok *RecordToken) bool {
	if c.tree.Has(tok) {
		return false
	}
	c.tree.ReplaceOrInsert(tok)
	c.byID[tok.ID] = append(c.byID[tok.ID], tok)
	return true
}

func (c *Cache[T]) remove(id RepositoryID) int {
	toks := c.byID[id]
	for _, tok := range toks {
		c.tree.Delete(tok)
	}
	delete(c.byID, id)
	return len(toks)
}
