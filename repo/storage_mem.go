package repo

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/andreyvit/rscache"
)

// memStorage publishes each bucket as an immutable table. Update edits a
// private copy and swaps it in on success; View reads whichever table was
// current when it started.
type memStorage struct {
	writer sync.Mutex
	mu     sync.RWMutex
	tables map[string]*memTable
	closed bool
}

type memTable struct {
	data map[rscache.RepositoryID][]byte
	ids  []rscache.RepositoryID // ascending
	seq  rscache.RepositoryID
}

func newMemStorage() storage {
	return &memStorage{tables: make(map[string]*memTable)}
}

func (s *memStorage) current(bucket string) (*memTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errStorageClosed
	}
	return s.tables[bucket], nil
}

func (s *memStorage) View(bucket string, f func(b storageBucket) error) error {
	t, err := s.current(bucket)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%s: %w", bucket, ErrBucketNotFound)
	}
	return f(&memBucket{t: t})
}

func (s *memStorage) Update(bucket string, f func(b storageBucket) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()

	t, err := s.current(bucket)
	if err != nil {
		return err
	}
	b := &memBucket{t: t.clone(), writable: true}
	if err := f(b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStorageClosed
	}
	s.tables[bucket] = b.t
	return nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tables = nil
	return nil
}

func (t *memTable) clone() *memTable {
	if t == nil {
		return &memTable{data: make(map[rscache.RepositoryID][]byte)}
	}
	return &memTable{
		data: maps.Clone(t.data),
		ids:  slices.Clone(t.ids),
		seq:  t.seq,
	}
}

type memBucket struct {
	t        *memTable
	writable bool
}

func (b *memBucket) Get(id rscache.RepositoryID) []byte {
	return b.t.data[id]
}

func (b *memBucket) Put(id rscache.RepositoryID, data []byte) error {
	if !b.writable {
		return errReadOnly
	}
	if _, ok := b.t.data[id]; !ok {
		i, _ := slices.BinarySearch(b.t.ids, id)
		b.t.ids = slices.Insert(b.t.ids, i, id)
	}
	b.t.data[id] = bytes.Clone(data)
	return nil
}

func (b *memBucket) Delete(id rscache.RepositoryID) error {
	if !b.writable {
		return errReadOnly
	}
	if i, found := slices.BinarySearch(b.t.ids, id); found {
		b.t.ids = slices.Delete(b.t.ids, i, i+1)
		delete(b.t.data, id)
	}
	return nil
}

func (b *memBucket) ForEach(f func(id rscache.RepositoryID, data []byte) error) error {
	for _, id := range b.t.ids {
		if err := f(id, b.t.data[id]); err != nil {
			return err
		}
	}
	return nil
}

func (b *memBucket) NextID() (rscache.RepositoryID, error) {
	if !b.writable {
		return 0, errReadOnly
	}
	b.t.seq++
	return b.t.seq, nil
}

func (b *memBucket) Len() int {
	return len(b.t.ids)
}
