package rscache

import (
	"fmt"
	"log/slog"
)

// DeleteMode decides what a cache does when asked to drop the rows of an id.
type DeleteMode int

const (
	// DeleteRequiresRecord verifies that the id still resolves in the backing
	// repository and fails with its error otherwise. Use it when rows are
	// removed from a view while the record itself persists, or when the
	// repository notifies caches before deleting.
	DeleteRequiresRecord DeleteMode = iota

	// DeleteAllowsMissing drops the rows without consulting the repository.
	// Use it when caches are notified after the record is already gone.
	DeleteAllowsMissing
)

func (m DeleteMode) String() string {
	switch m {
	case DeleteRequiresRecord:
		return "requires-record"
	case DeleteAllowsMissing:
		return "allows-missing"
	default:
		return fmt.Sprintf("invalid delete mode %d", int(m))
	}
}

type Options struct {
	Logger     *slog.Logger
	Verbose    bool
	DeleteMode DeleteMode
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
