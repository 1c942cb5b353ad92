package rscache

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func tok(id RepositoryID, query string, kv ...any) *RecordToken {
	f := Fields{}
	for i := 0; i < len(kv); i += 2 {
		switch v := kv[i+1].(type) {
		case string:
			f[kv[i].(string)] = StringValue(v)
		case int:
			f[kv[i].(string)] = IntValue(int64(v))
		case Value:
			f[kv[i].(string)] = v
		}
	}
	return NewRecordToken(id, query, f)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func checkAntisymmetric(t testing.TB, tc *TokenComparer, toks []*RecordToken) {
	t.Helper()
	for _, a := range toks {
		for _, b := range toks {
			ab, ba := sign(tc.Compare(a, b)), sign(tc.Compare(b, a))
			if ab != -ba {
				t.Errorf("Compare(%v, %v) = %d but reverse = %d", a, b, ab, ba)
			}
			if a != b && ab == 0 {
				t.Errorf("Compare(%v, %v) = 0, wanted distinct tokens to differ", a, b)
			}
		}
	}
}

func sortedIDs(tc *TokenComparer, toks ...*RecordToken) []RepositoryID {
	toks = slices.Clone(toks)
	sortTokens(toks, tc)
	var ids []RepositoryID
	for _, tok := range toks {
		ids = append(ids, tok.ID)
	}
	return ids
}

func TestTokenComparerNulls(t *testing.T) {
	a := tok(1, "q", fieldTag, "a")
	b := tok(2, "q", fieldTag, "b")
	n := tok(3, "q", fieldTag, Null)
	missing := tok(4, "q")

	tc := must(NewTokenComparer(SortBy(fieldTag, OrdinalComparer)))
	deepEqual(t, sortedIDs(tc, n, b, missing, a), []RepositoryID{1, 2, 3, 4})

	tc = must(NewTokenComparer(SortBy(fieldTag, OrdinalComparer).WithNullsFirst()))
	deepEqual(t, sortedIDs(tc, n, b, missing, a), []RepositoryID{3, 4, 1, 2})

	tc = must(NewTokenComparer(SortBy(fieldTag, OrdinalComparer).Desc()))
	deepEqual(t, sortedIDs(tc, n, b, missing, a), []RepositoryID{2, 1, 3, 4})

	tc = must(NewTokenComparer(SortBy(fieldTag, OrdinalComparer).Desc().WithNullsFirst()))
	deepEqual(t, sortedIDs(tc, n, b, missing, a), []RepositoryID{3, 4, 2, 1})
}

func TestTokenComparerTieBreakers(t *testing.T) {
	tc := must(NewTokenComparer(SortBy(fieldTag, OrdinalComparer)))

	if r := tc.Compare(tok(2, "q", fieldTag, "a"), tok(1, "q", fieldTag, "a")); r <= 0 {
		t.Errorf("Compare(#2, #1) = %d, wanted > 0", r)
	}
	if r := tc.Compare(tok(1, "a", fieldTag, "x"), tok(1, "b", fieldTag, "x")); r >= 0 {
		t.Errorf("Compare(query a, query b) = %d, wanted < 0", r)
	}
	if r := tc.Compare(tok(1, "q", fieldTag, "x", "Z", 1), tok(1, "q", fieldTag, "x", "Z", 2)); r >= 0 {
		t.Errorf("Compare(Z=1, Z=2) = %d, wanted < 0", r)
	}
	if r := tc.Compare(tok(1, "q", fieldTag, "x"), tok(1, "q", fieldTag, "x", "Z", 2)); r >= 0 {
		t.Errorf("Compare(fewer fields, more fields) = %d, wanted < 0", r)
	}
	if r := tc.Compare(tok(1, "q", fieldTag, "x", "Z", 2), tok(1, "q", fieldTag, "x", "Z", 2)); r != 0 {
		t.Errorf("Compare(identical) = %d, wanted 0", r)
	}
}

func TestTokenComparerIsTotal(t *testing.T) {
	tc := must(NewTokenComparer(
		SortBy(fieldTag, InvariantComparer()),
		SortBy(fieldName, OrdinalComparer).Desc().WithNullsFirst(),
	))
	toks := []*RecordToken{
		tok(1, "q", fieldTag, "a"),
		tok(1, "q", fieldTag, "A"),
		tok(1, "q", fieldTag, "a", fieldName, "x"),
		tok(1, "p", fieldTag, "a"),
		tok(2, "q", fieldTag, "a"),
		tok(2, "q", fieldTag, Null),
		tok(2, "q", fieldTag, 10),
		tok(2, "q", fieldTag, 9),
		tok(3, "q", fieldName, "y"),
		tok(3, "q"),
	}
	checkAntisymmetric(t, tc, toks)
}

func TestTokenComparerAnomalyGuard(t *testing.T) {
	allEqual := CompareFunc(func(a, b Value) int { return 0 })
	tc := must(NewTokenComparer(SortBy(fieldTag, allEqual)))
	checkAntisymmetric(t, tc, []*RecordToken{
		tok(1, "q", fieldTag, "x"),
		tok(1, "q", fieldTag, "y"),
		tok(1, "q", fieldTag, 1),
		tok(1, "q", fieldTag, "1"),
	})

	// Differing values decide before ids do.
	x2, y1 := tok(2, "q", fieldTag, "x"), tok(1, "q", fieldTag, "y")
	if r := tc.Compare(x2, y1); r >= 0 {
		t.Errorf("Compare(x#2, y#1) = %d, wanted < 0", r)
	}
	deepEqual(t, sortedIDs(tc, y1, x2), []RepositoryID{2, 1})
	checkAntisymmetric(t, tc, []*RecordToken{x2, y1, tok(3, "q", fieldTag, "x")})

	ic := NewCollatingComparer(language.Und, collate.IgnoreCase)
	if r := ic.Compare(StringValue("a"), StringValue("A")); r != 0 {
		t.Skipf("collator distinguishes case (%d), nothing to guard", r)
	}
	tc = must(NewTokenComparer(SortBy(fieldTag, ic)))
	lower, upper := tok(1, "q", fieldTag, "a"), tok(1, "q", fieldTag, "A")
	if r := tc.Compare(lower, upper); r == 0 {
		t.Errorf("Compare(a, A) = 0, wanted distinct")
	}
	checkAntisymmetric(t, tc, []*RecordToken{lower, upper})
}

func TestNewTokenComparerRejectsNilComparer(t *testing.T) {
	_, err := NewTokenComparer(SortDefinition{Field: fieldTag})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, wanted ErrInvalidArgument", err)
	}
}

func TestComparers(t *testing.T) {
	tests := []struct {
		name string
		c    Comparer
		a, b Value
		want int
	}{
		{"ordinal bytes", OrdinalComparer, StringValue("Banana"), StringValue("apple"), -1},
		{"ordinal ints", OrdinalComparer, IntValue(9), IntValue(10), -1},
		{"ordinal strings before ints", OrdinalComparer, StringValue("9"), IntValue(1), -1},
		{"invariant", InvariantComparer(), StringValue("Banana"), StringValue("apple"), 1},
		{"invariant ints", InvariantComparer(), IntValue(10), IntValue(9), 1},
		{"swedish", NewCollatingComparer(language.Swedish), StringValue("ö"), StringValue("z"), 1},
		{"german", NewCollatingComparer(language.German), StringValue("ö"), StringValue("z"), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sign(tt.c.Compare(tt.a, tt.b)); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, wanted %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCollatingComparerConcurrentUse(t *testing.T) {
	defs := []SortDefinition{SortBy(fieldTag, InvariantComparer())}

	var toks []*RecordToken
	for i := range 200 {
		toks = append(toks, tok(RepositoryID(i+1), "q", fieldTag, fmt.Sprintf("w%03d", (i*37)%200)))
	}
	want := sortedIDs(must(NewTokenComparer(defs...)), toks...)

	var wg sync.WaitGroup
	results := make([][]RepositoryID, 8)
	for g := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[g] = sortedIDs(must(NewTokenComparer(defs...)), toks...)
		}()
	}
	wg.Wait()

	for g, got := range results {
		if !slices.Equal(got, want) {
			t.Errorf("goroutine %d order = %v, wanted %v", g, got, want)
		}
	}
}
