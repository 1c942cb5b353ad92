package rscache

import (
	"fmt"
	"slices"
	"sync"
)

// Manager is a registry of caches by label. The backing repository calls one
// fan-out method per record mutation, and every registered cache follows.
//
// All mutations go through one exclusive lock, so every cache observes them in
// the same order. Fan-out visits caches in registration order and stops at the
// first error.
type Manager[T any] struct {
	mu     sync.RWMutex
	caches map[string]*Cache[T]
	order  []string
}

func NewManager[T any]() *Manager[T] {
	return &Manager[T]{
		caches: make(map[string]*Cache[T]),
	}
}

func (m *Manager[T]) Add(label string, cache *Cache[T]) error {
	if label == "" {
		return invalidArg("Manager.Add", "label")
	}
	if cache == nil {
		return invalidArg("Manager.Add", "cache")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.caches[label] != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	cache.name = label
	m.caches[label] = cache
	m.order = append(m.order, label)
	return nil
}

// Remove unregisters the cache with the given label and reports whether it
// was registered.
func (m *Manager[T]) Remove(label string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.caches[label] == nil {
		return false
	}
	delete(m.caches, label)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == label })
	return true
}

// Get returns the cache registered under label, or nil and false.
func (m *Manager[T]) Get(label string) (*Cache[T], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.caches[label]
	return c, ok
}

func (m *Manager[T]) Labels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

func (m *Manager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// View calls f with the live result set of the labelled cache while holding
// the shared lock, so no mutation can interleave. It reports whether the
// label was found.
func (m *Manager[T]) View(label string, f func(rs *ResultSet[T])) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.caches[label]
	if c == nil {
		return false
	}
	f(c.GetResultSet())
	return true
}

// AddItemToCaches is called after a record is created.
func (m *Manager[T]) AddItemToCaches(item T) error {
	if IsNil(item) {
		return invalidArg("Manager.AddItemToCaches", "item")
	}
	return m.fanOut(func(c *Cache[T]) error {
		return c.UpdateItemInCache(item)
	})
}

// UpdateItemInCaches is called after a record is changed.
func (m *Manager[T]) UpdateItemInCaches(item T) error {
	if IsNil(item) {
		return invalidArg("Manager.UpdateItemInCaches", "item")
	}
	return m.fanOut(func(c *Cache[T]) error {
		return c.UpdateItemInCache(item)
	})
}

func (m *Manager[T]) DeleteItemFromCaches(item T) error {
	if IsNil(item) {
		return invalidArg("Manager.DeleteItemFromCaches", "item")
	}
	return m.fanOut(func(c *Cache[T]) error {
		return c.DeleteItemFromCache(item)
	})
}

func (m *Manager[T]) DeleteItemFromCachesByID(id RepositoryID) error {
	if id.IsZero() {
		return invalidArg("Manager.DeleteItemFromCachesByID", "id")
	}
	return m.fanOut(func(c *Cache[T]) error {
		return c.DeleteItemFromCacheByID(id)
	})
}

func (m *Manager[T]) DeleteAllItemsFromCaches() {
	_ = m.fanOut(func(c *Cache[T]) error {
		c.DeleteAllItemsFromCache()
		return nil
	})
}

func (m *Manager[T]) fanOut(f func(c *Cache[T]) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, label := range m.order {
		if err := f(m.caches[label]); err != nil {
			return fmt.Errorf("cache %q: %w", label, err)
		}
	}
	return nil
}
