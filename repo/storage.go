package repo

import (
	"errors"

	"github.com/andreyvit/rscache"
)

// ErrBucketNotFound is returned when reading a bucket that was never written.
var ErrBucketNotFound = errors.New("bucket not found")

var (
	errStorageClosed = errors.New("storage closed")
	errReadOnly      = errors.New("read-only transaction")
)

// storage keeps encoded records by id in named buckets.
type storage interface {
	// View runs f in a read-only transaction.
	View(bucket string, f func(b storageBucket) error) error

	// Update runs f in a read-write transaction, creating the bucket if
	// needed. If f fails, none of its changes are kept.
	Update(bucket string, f func(b storageBucket) error) error

	Close() error
}

type storageBucket interface {
	// Get returns nil if not found. The slice is only valid until the
	// transaction ends.
	Get(id rscache.RepositoryID) []byte

	Put(id rscache.RepositoryID, data []byte) error

	Delete(id rscache.RepositoryID) error

	// ForEach visits every record in ascending id order. f must not modify
	// the bucket.
	ForEach(f func(id rscache.RepositoryID, data []byte) error) error

	// NextID returns a new, never reused id.
	NextID() (rscache.RepositoryID, error)

	Len() int
}
