package rscache

import (
	"cmp"
	"strconv"
)

// RepositoryID identifies a record in the backing repository. The zero value
// is not a valid id.
type RepositoryID uint64

func (id RepositoryID) IsZero() bool {
	return id == 0
}

func (id RepositoryID) Compare(other RepositoryID) int {
	return cmp.Compare(id, other)
}

func (id RepositoryID) String() string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}

// DataMapper is the part of the backing repository a cache needs: resolving
// ids to records and records to ids.
type DataMapper[T any] interface {
	GetItem(id RepositoryID) (T, error)
	GetID(item T) RepositoryID
}
