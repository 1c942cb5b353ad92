package repo

import (
	"fmt"
	"time"
	"unsafe"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/rscache"
)

type boltStorage struct {
	bdb *bbolt.DB
}

func openBoltStorage(path string, isTesting bool) (storage, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if isTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}
	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, err
	}
	return &boltStorage{bdb: bdb}, nil
}

func (s *boltStorage) View(bucket string, f func(b storageBucket) error) error {
	return s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(unsafeBytesFromString(bucket))
		if b == nil {
			return fmt.Errorf("%s: %w", bucket, ErrBucketNotFound)
		}
		return f(boltBucket{b: b})
	})
}

func (s *boltStorage) Update(bucket string, f func(b storageBucket) error) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return f(boltBucket{b: b})
	})
}

func (s *boltStorage) Close() error {
	return s.bdb.Close()
}

// boltBucket keys records by their big-endian id, so Bolt's key order is id
// order.
type boltBucket struct {
	b *bbolt.Bucket
}

func (b boltBucket) Get(id rscache.RepositoryID) []byte { return b.b.Get(encodeKey(id)) }

func (b boltBucket) Put(id rscache.RepositoryID, data []byte) error {
	return b.b.Put(encodeKey(id), data)
}

func (b boltBucket) Delete(id rscache.RepositoryID) error { return b.b.Delete(encodeKey(id)) }

func (b boltBucket) ForEach(f func(id rscache.RepositoryID, data []byte) error) error {
	c := b.b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		id, err := decodeKey(k)
		if err != nil {
			return err
		}
		if err := f(id, v); err != nil {
			return err
		}
	}
	return nil
}

func (b boltBucket) NextID() (rscache.RepositoryID, error) {
	seq, err := b.b.NextSequence()
	return rscache.RepositoryID(seq), err
}

func (b boltBucket) Len() int { return b.b.Stats().KeyN }

func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
