package rscache

import (
	"cmp"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparer orders two non-null values.
type Comparer interface {
	Compare(a, b Value) int
}

type CompareFunc func(a, b Value) int

func (f CompareFunc) Compare(a, b Value) int {
	return f(a, b)
}

// OrdinalComparer orders strings bytewise and integers numerically.
var OrdinalComparer Comparer = CompareFunc(compareOrdinal)

// CollatingComparer orders strings using a locale collation; non-string
// values are ordered ordinally. It is safe for concurrent use: the collator
// keeps internal buffers, so calls are serialized.
type CollatingComparer struct {
	mu   sync.Mutex
	coll *collate.Collator
}

func NewCollatingComparer(tag language.Tag, opts ...collate.Option) *CollatingComparer {
	return &CollatingComparer{coll: collate.New(tag, opts...)}
}

// InvariantComparer returns a collating comparer for the root locale.
func InvariantComparer() *CollatingComparer {
	return NewCollatingComparer(language.Und)
}

func (c *CollatingComparer) Compare(a, b Value) int {
	if a.kind == KindString && b.kind == KindString {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.coll.CompareString(a.s, b.s)
	}
	return compareOrdinal(a, b)
}

// TokenComparer is a strict total order over tokens for one list of sort
// definitions. Two tokens compare equal only if they have the same id, query
// and fields.
type TokenComparer struct {
	defs []SortDefinition
}

func NewTokenComparer(defs ...SortDefinition) (*TokenComparer, error) {
	for _, sd := range defs {
		if sd.Comparer == nil {
			return nil, invalidArg("NewTokenComparer", "comparer for "+sd.Field)
		}
	}
	return &TokenComparer{defs: append([]SortDefinition(nil), defs...)}, nil
}

func (tc *TokenComparer) SortDefinitions() []SortDefinition {
	return append([]SortDefinition(nil), tc.defs...)
}

func (tc *TokenComparer) Compare(a, b *RecordToken) int {
	if a == b {
		return 0
	}
	for _, sd := range tc.defs {
		if r := compareField(sd, a.Fields[sd.Field], b.Fields[sd.Field]); r != 0 {
			return r
		}
	}
	if r := a.ID.Compare(b.ID); r != 0 {
		return r
	}
	if r := strings.Compare(a.Query, b.Query); r != 0 {
		return r
	}
	return compareAllFields(a, b)
}

func (tc *TokenComparer) Less(a, b *RecordToken) bool {
	return tc.Compare(a, b) < 0
}

func compareField(sd SortDefinition, a, b Value) int {
	an, bn := a.IsNull(), b.IsNull()
	switch {
	case an && bn:
		return 0
	case an != bn:
		// null placement ignores Descending
		r := 1
		if !an {
			r = -1
		}
		if sd.NullsFirst {
			r = -r
		}
		return r
	}

	r := sd.Comparer.Compare(a, b)
	if r == 0 && a.Fingerprint() != b.Fingerprint() {
		// Collations that ignore some characters report 0 for different
		// content; distinct values must still get distinct slots.
		r = strings.Compare(a.Text(), b.Text())
		if r == 0 {
			r = cmp.Compare(a.kind, b.kind)
		}
	}
	if sd.Descending {
		r = -r
	}
	return r
}

func compareAllFields(a, b *RecordToken) int {
	al, bl := a.sortedLabels(), b.sortedLabels()
	for i := 0; i < len(al) && i < len(bl); i++ {
		if r := strings.Compare(al[i], bl[i]); r != 0 {
			return r
		}
		if r := compareOrdinal(a.Fields[al[i]], b.Fields[bl[i]]); r != 0 {
			return r
		}
	}
	return cmp.Compare(len(al), len(bl))
}
