package rscache

import (
	"iter"
	"slices"

	"github.com/google/btree"
)

type tokenSource interface {
	Len() int
	At(i int) *RecordToken
	Ascend(f func(tok *RecordToken) bool)
}

type tokenSlice []*RecordToken

func (s tokenSlice) Len() int              { return len(s) }
func (s tokenSlice) At(i int) *RecordToken { return s[i] }
func (s tokenSlice) Ascend(f func(*RecordToken) bool) {
	for _, tok := range s {
		if !f(tok) {
			return
		}
	}
}

type tokenTree struct {
	tree *btree.BTreeG[*RecordToken]
}

func (t tokenTree) Len() int { return t.tree.Len() }

func (t tokenTree) At(i int) *RecordToken {
	if i < 0 || i >= t.tree.Len() {
		panic("rscache: result set index out of range")
	}
	var found *RecordToken
	var n int
	t.tree.Ascend(func(tok *RecordToken) bool {
		if n == i {
			found = tok
			return false
		}
		n++
		return true
	})
	return found
}

func (t tokenTree) Ascend(f func(*RecordToken) bool) {
	t.tree.Ascend(func(tok *RecordToken) bool {
		return f(tok)
	})
}

// ResultSet is an ordered, read-only sequence of tokens that can resolve them
// back into records.
//
// A result set returned by Cache.GetResultSet is live: it reflects later
// changes to the cache. Use Tokens to take a copy.
type ResultSet[T any] struct {
	mapper DataMapper[T]
	src    tokenSource
}

// NewResultSet concatenates the given token lists, in order.
func NewResultSet[T any](mapper DataMapper[T], results ...[]*RecordToken) (*ResultSet[T], error) {
	if IsNil(mapper) {
		return nil, invalidArg("NewResultSet", "mapper")
	}
	var n int
	for _, r := range results {
		n += len(r)
	}
	all := make(tokenSlice, 0, n)
	for _, r := range results {
		all = append(all, r...)
	}
	return &ResultSet[T]{mapper: mapper, src: all}, nil
}

func (rs *ResultSet[T]) Len() int {
	return rs.src.Len()
}

func (rs *ResultSet[T]) At(i int) *RecordToken {
	return rs.src.At(i)
}

func (rs *ResultSet[T]) All() iter.Seq2[int, *RecordToken] {
	return func(yield func(int, *RecordToken) bool) {
		var i int
		rs.src.Ascend(func(tok *RecordToken) bool {
			ok := yield(i, tok)
			i++
			return ok
		})
	}
}

func (rs *ResultSet[T]) Tokens() []*RecordToken {
	out := make([]*RecordToken, 0, rs.src.Len())
	rs.src.Ascend(func(tok *RecordToken) bool {
		out = append(out, tok)
		return true
	})
	return out
}

// IDs returns the id of every token, in order, including repeats.
func (rs *ResultSet[T]) IDs() []RepositoryID {
	out := make([]RepositoryID, 0, rs.src.Len())
	rs.src.Ascend(func(tok *RecordToken) bool {
		out = append(out, tok.ID)
		return true
	})
	return out
}

// Record resolves a token into its record.
func (rs *ResultSet[T]) Record(tok *RecordToken) (T, error) {
	if tok == nil {
		var zero T
		return zero, invalidArg("ResultSet.Record", "token")
	}
	return rs.mapper.GetItem(tok.ID)
}

// FindFirstIndex returns the index of the first token at or after start that
// matches, or -1.
func (rs *ResultSet[T]) FindFirstIndex(start int, match func(tok *RecordToken) bool) int {
	i, _ := rs.find(start, match)
	return i
}

func (rs *ResultSet[T]) FindFirst(start int, match func(tok *RecordToken) bool) *RecordToken {
	_, tok := rs.find(start, match)
	return tok
}

func (rs *ResultSet[T]) find(start int, match func(tok *RecordToken) bool) (int, *RecordToken) {
	found := -1
	var foundTok *RecordToken
	var i int
	rs.src.Ascend(func(tok *RecordToken) bool {
		if i >= start && match(tok) {
			found, foundTok = i, tok
			return false
		}
		i++
		return true
	})
	return found, foundTok
}

func (rs *ResultSet[T]) FindFirstIndexOfID(id RepositoryID) int {
	return rs.FindFirstIndex(0, func(tok *RecordToken) bool { return tok.ID == id })
}

func (rs *ResultSet[T]) FindFirstIndexOfItem(item T) int {
	return rs.FindFirstIndexOfID(rs.mapper.GetID(item))
}

func (rs *ResultSet[T]) FindFirstIndexOfToken(target *RecordToken) int {
	return rs.FindFirstIndex(0, func(tok *RecordToken) bool { return tok == target })
}

// Sorted returns a copy ordered by the given definitions (plus the implicit
// RepositoryID tie-breaker).
func (rs *ResultSet[T]) Sorted(defs ...SortDefinition) (*ResultSet[T], error) {
	tc, err := NewTokenComparer(defs...)
	if err != nil {
		return nil, err
	}
	toks := rs.Tokens()
	slices.SortStableFunc(toks, tc.Compare)
	return &ResultSet[T]{mapper: rs.mapper, src: tokenSlice(toks)}, nil
}

func (rs *ResultSet[T]) SortedByRepositoryID() *ResultSet[T] {
	toks := rs.Tokens()
	slices.SortStableFunc(toks, func(a, b *RecordToken) int {
		return a.ID.Compare(b.ID)
	})
	return &ResultSet[T]{mapper: rs.mapper, src: tokenSlice(toks)}
}

// Coalesce returns a copy without the tokens whose field value canBeRemoved,
// but only for records that also have a token whose value must stay. A record
// whose tokens are all removable keeps all of them.
func (rs *ResultSet[T]) Coalesce(field string, canBeRemoved func(v Value) bool) *ResultSet[T] {
	keep := make(map[RepositoryID]bool)
	rs.src.Ascend(func(tok *RecordToken) bool {
		if !canBeRemoved(tok.Get(field)) {
			keep[tok.ID] = true
		}
		return true
	})
	out := make(tokenSlice, 0, rs.src.Len())
	rs.src.Ascend(func(tok *RecordToken) bool {
		if !keep[tok.ID] || !canBeRemoved(tok.Get(field)) {
			out = append(out, tok)
		}
		return true
	})
	return &ResultSet[T]{mapper: rs.mapper, src: out}
}
