package dictionary

import (
	"errors"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/andreyvit/rscache"
	"github.com/andreyvit/rscache/lexicon"
	"github.com/andreyvit/rscache/repo"
)

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func setup(t testing.TB) *Repository {
	t.Helper()
	r := must(Open(repo.InMemory, Options{Verbose: true, IsTesting: true}))
	t.Cleanup(func() { r.Close() })
	return r
}

func add(t testing.TB, r *Repository, f func(e *lexicon.LexEntry)) *lexicon.LexEntry {
	t.Helper()
	e := must(r.CreateItem())
	f(e)
	ensure(r.SaveItem(e))
	return e
}

func forms(rs entries, field string) []string {
	var out []string
	for _, tok := range rs.All() {
		out = append(out, tok.Get(field).Text()+tok.ID.String())
	}
	return out
}

func TestHeadwordView(t *testing.T) {
	r := setup(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bank2 := add(t, r, func(e *lexicon.LexEntry) {
		e.LexicalForm = lexicon.MultiText{"en": "bank"}
		e.OrderInFile = 2
	})
	apple := add(t, r, func(e *lexicon.LexEntry) {
		e.LexicalForm = lexicon.MultiText{"en": "aple"}
		e.CitationForm = lexicon.MultiText{"en": "apple"}
	})
	bank1 := add(t, r, func(e *lexicon.LexEntry) {
		e.LexicalForm = lexicon.MultiText{"en": "bank"}
		e.OrderInFile = 1
		e.CreationTime = base
	})
	none := add(t, r, func(e *lexicon.LexEntry) {
		e.LexicalForm = lexicon.MultiText{"fr": "banque"}
	})

	rs := must(r.GetAllEntriesSortedByHeadword("en"))
	deepEqual(t, forms(rs, lexicon.FieldForm), []string{"apple#2", "bank#3", "bank#1", "#4"})

	for _, tt := range []struct {
		e    *lexicon.LexEntry
		want int
	}{
		{apple, 0},
		{bank1, 1},
		{bank2, 2},
		{none, 0},
	} {
		if n := must(r.GetHomographNumber(tt.e, "en")); n != tt.want {
			t.Errorf("GetHomographNumber(%v) = %d, wanted %d", tt.e.ID, n, tt.want)
		}
	}

	bank2.LexicalForm["en"] = "bench"
	ensure(r.SaveItem(bank2))
	if n := must(r.GetHomographNumber(bank1, "en")); n != 0 {
		t.Errorf("GetHomographNumber(bank) after rename = %d, wanted 0", n)
	}
	deepEqual(t, r.Views(), []string{"sortedByHeadWord_en"})

	_, err := r.GetHomographNumber(&lexicon.LexEntry{ID: 99}, "en")
	if !errors.Is(err, rscache.ErrNotFound) {
		t.Errorf("GetHomographNumber(missing) err = %v, wanted ErrNotFound", err)
	}
	if _, err := r.GetHomographNumber(nil, "en"); !errors.Is(err, rscache.ErrInvalidArgument) {
		t.Errorf("GetHomographNumber(nil) err = %v, wanted ErrInvalidArgument", err)
	}
}

func TestLexicalFormOrAlternativeView(t *testing.T) {
	r := setup(t)
	add(t, r, func(e *lexicon.LexEntry) { e.LexicalForm = lexicon.MultiText{"en": "cat"} })
	add(t, r, func(e *lexicon.LexEntry) { e.LexicalForm = lexicon.MultiText{"fr": "abeille", "de": ""} })
	add(t, r, func(e *lexicon.LexEntry) {})

	rs := must(r.GetAllEntriesSortedByLexicalFormOrAlternative("en"))
	deepEqual(t, forms(rs, lexicon.FieldForm), []string{"abeille#2", "cat#1", "#3"})
	deepEqual(t, forms(rs, lexicon.FieldWritingSystem), []string{"fr#2", "en#1", "en#3"})
}

func TestDefinitionOrGlossView(t *testing.T) {
	r := setup(t)
	e := add(t, r, func(e *lexicon.LexEntry) {
		e.AddSense(&lexicon.Sense{
			ID:         "s1",
			Definition: lexicon.MultiText{"en": "small pet; mouser"},
			Gloss:      lexicon.MultiText{"en": "cat;mouser; pet"},
		})
		e.AddSense(&lexicon.Sense{ID: "s2"})
	})
	add(t, r, func(e *lexicon.LexEntry) {
		e.AddSense(&lexicon.Sense{ID: "s1", Gloss: lexicon.MultiText{"en": "bee"}})
	})

	rs := must(r.GetAllEntriesSortedByDefinitionOrGloss("en"))
	deepEqual(t, forms(rs, lexicon.FieldForm), []string{"bee#2", "cat#1", "mouser#1", "pet#1", "small pet#1", "#1"})

	e.Senses[1].Gloss = lexicon.MultiText{"en": "tom"}
	ensure(r.SaveItem(e))
	rs = must(r.GetAllEntriesSortedByDefinitionOrGloss("en"))
	last := rs.At(rs.Len() - 1)
	if last.Get(lexicon.FieldForm).Text() != "tom" || last.Get(lexicon.FieldSense).Int() != 1 {
		t.Errorf("last row = %v, wanted tom of sense 1", last)
	}
}

func TestSemanticDomainView(t *testing.T) {
	r := setup(t)
	const field = "semantic-domain-ddp4"
	add(t, r, func(e *lexicon.LexEntry) {
		e.AddSense(&lexicon.Sense{ID: "s1"}).SetProperty(field, lexicon.Options("2.1 Body", "1 Universe"))
		e.AddSense(&lexicon.Sense{ID: "s2"}).SetProperty(field, lexicon.Options("2.1 Body", ""))
	})
	add(t, r, func(e *lexicon.LexEntry) { e.AddSense(&lexicon.Sense{ID: "s1"}) })
	add(t, r, func(e *lexicon.LexEntry) {
		e.AddSense(&lexicon.Sense{ID: "s1"}).SetProperty(field, lexicon.Options("1 Universe"))
	})

	rs := must(r.GetEntriesWithSemanticDomainSortedBySemanticDomain(field))
	deepEqual(t, forms(rs, lexicon.FieldSemanticDomain), []string{"1 Universe#1", "1 Universe#3", "2.1 Body#1"})

	if _, err := r.GetEntriesWithSemanticDomainSortedBySemanticDomain(""); !errors.Is(err, rscache.ErrInvalidArgument) {
		t.Errorf("empty field err = %v, wanted ErrInvalidArgument", err)
	}
}

func TestMatchingGlossView(t *testing.T) {
	r := setup(t)
	add(t, r, func(e *lexicon.LexEntry) {
		e.LexicalForm = lexicon.MultiText{"seh": "paka"}
		e.AddSense(&lexicon.Sense{ID: "s1", Gloss: lexicon.MultiText{"en": "cat", "fr": "chat"}})
	})
	add(t, r, func(e *lexicon.LexEntry) {
		e.LexicalForm = lexicon.MultiText{"seh": "nyau"}
		e.AddSense(&lexicon.Sense{ID: "s1", Gloss: lexicon.MultiText{"en": "dog"}})
		e.AddSense(&lexicon.Sense{ID: "s2", Gloss: lexicon.MultiText{"en": "cat"}})
	})
	add(t, r, func(e *lexicon.LexEntry) {
		e.LexicalForm = lexicon.MultiText{"seh": "mphaka"}
		e.AddSense(&lexicon.Sense{ID: "s1", Gloss: lexicon.MultiText{"fr": "cat"}})
	})

	rs := must(r.GetEntriesWithMatchingGlossSortedByLexicalForm("cat", "en", "seh"))
	deepEqual(t, forms(rs, lexicon.FieldForm), []string{"nyau#2", "paka#1"})
	if rs.At(0).Get(lexicon.FieldSense).Int() != 1 {
		t.Errorf("row = %v, wanted sense 1", rs.At(0))
	}
	rec := must(rs.Record(rs.At(1)))
	if rec.LexicalForm["seh"] != "paka" {
		t.Errorf("Record = %v, wanted paka", rec.LexicalForm)
	}

	if rs := must(r.GetEntriesWithMatchingGlossSortedByLexicalForm("cow", "en", "seh")); rs.Len() != 0 {
		t.Errorf("rows for cow = %v, wanted none", forms(rs, lexicon.FieldForm))
	}
	if _, err := r.GetEntriesWithMatchingGlossSortedByLexicalForm("", "en", "seh"); !errors.Is(err, rscache.ErrInvalidArgument) {
		t.Errorf("empty gloss err = %v, wanted ErrInvalidArgument", err)
	}
}

func TestLookupByKey(t *testing.T) {
	r := setup(t)
	cat := add(t, r, func(e *lexicon.LexEntry) { e.GUID, e.LiftID = "g-cat", "cat_1" })
	add(t, r, func(e *lexicon.LexEntry) { e.GUID, e.LiftID = "g-dog", "dog_1" })

	got := must(r.GetLexEntryWithMatchingGuid("g-cat"))
	if got == nil || got.ID != cat.ID {
		t.Fatalf("GetLexEntryWithMatchingGuid = %v, wanted %v", got, cat.ID)
	}
	got = must(r.GetLexEntryWithMatchingId("dog_1"))
	if got == nil || got.GUID != "g-dog" {
		t.Errorf("GetLexEntryWithMatchingId = %v, wanted g-dog", got)
	}
	if got := must(r.GetLexEntryWithMatchingGuid("g-cow")); got != nil {
		t.Errorf("GetLexEntryWithMatchingGuid(missing) = %v, wanted nil", got)
	}

	add(t, r, func(e *lexicon.LexEntry) { e.GUID, e.LiftID = "g-cat2", "cat_1" })
	if _, err := r.GetLexEntryWithMatchingId("cat_1"); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("GetLexEntryWithMatchingId(dup) err = %v, wanted ErrDuplicateKey", err)
	}
	if _, err := r.GetLexEntryWithMatchingGuid(""); !errors.Is(err, rscache.ErrInvalidArgument) {
		t.Errorf("GetLexEntryWithMatchingGuid(empty) err = %v, wanted ErrInvalidArgument", err)
	}
}

func TestNotifyThatLexEntryHasBeenUpdated(t *testing.T) {
	r := setup(t)
	e := add(t, r, func(e *lexicon.LexEntry) { e.LexicalForm = lexicon.MultiText{"en": "cat"} })
	must(r.GetAllEntriesSortedByLexicalFormOrAlternative("en"))

	e.LexicalForm["en"] = "kitten"
	ensure(r.NotifyThatLexEntryHasBeenUpdated(e))
	rs := must(r.GetAllEntriesSortedByLexicalFormOrAlternative("en"))
	deepEqual(t, forms(rs, lexicon.FieldForm), []string{"kitten#1"})
	if stored := must(r.GetItem(e.ID)); stored.LexicalForm["en"] != "cat" {
		t.Errorf("stored form = %q, wanted cat", stored.LexicalForm["en"])
	}

	err := r.NotifyThatLexEntryHasBeenUpdated(&lexicon.LexEntry{ID: 42})
	if !errors.Is(err, rscache.ErrNotFound) {
		t.Errorf("Notify(missing) err = %v, wanted ErrNotFound", err)
	}
	if err := r.NotifyThatLexEntryHasBeenUpdated(nil); !errors.Is(err, rscache.ErrInvalidArgument) {
		t.Errorf("Notify(nil) err = %v, wanted ErrInvalidArgument", err)
	}
}

func TestViewsFollowWrites(t *testing.T) {
	r := setup(t)
	a := add(t, r, func(e *lexicon.LexEntry) { e.LexicalForm = lexicon.MultiText{"en": "b"} })
	must(r.GetAllEntriesSortedByHeadword("en"))
	must(r.GetAllEntriesSortedByLexicalFormOrAlternative("en"))

	b := add(t, r, func(e *lexicon.LexEntry) { e.LexicalForm = lexicon.MultiText{"en": "a"} })
	deepEqual(t, forms(must(r.GetAllEntriesSortedByHeadword("en")), lexicon.FieldForm), []string{"a#2", "b#1"})

	a.LexicalForm["en"] = "c"
	ensure(r.SaveItems([]*lexicon.LexEntry{a, b}))
	deepEqual(t, forms(must(r.GetAllEntriesSortedByLexicalFormOrAlternative("en")), lexicon.FieldForm), []string{"a#2", "c#1"})

	ensure(r.DeleteItem(b))
	deepEqual(t, forms(must(r.GetAllEntriesSortedByHeadword("en")), lexicon.FieldForm), []string{"c#1"})

	ensure(r.DeleteAllItems())
	if rs := must(r.GetAllEntriesSortedByLexicalFormOrAlternative("en")); rs.Len() != 0 {
		t.Errorf("rows after DeleteAllItems = %v, wanted none", forms(rs, lexicon.FieldForm))
	}
	deepEqual(t, r.Views(), []string{"sortedByHeadWord_en", "sortedByLexicalFormOrAlternative_en"})
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}
