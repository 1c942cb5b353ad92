package rscache

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

type (
	widget struct {
		id   RepositoryID
		name string
		tags []string
	}

	widgetRepo struct {
		items map[RepositoryID]*widget
	}

	// tagQuery yields one row per tag, or an unpopulated row.
	tagQuery struct {
		label  string
		failOn string
	}

	nameQuery struct{}
)

const (
	fieldTag  = "Tag"
	fieldName = "Name"
)

func newWidgetRepo(widgets ...*widget) *widgetRepo {
	r := &widgetRepo{items: make(map[RepositoryID]*widget)}
	for _, w := range widgets {
		r.items[w.id] = w
	}
	return r
}

func (r *widgetRepo) GetItem(id RepositoryID) (*widget, error) {
	w := r.items[id]
	if w == nil {
		return nil, fmt.Errorf("widget %v: %w", id, ErrNotFound)
	}
	return w, nil
}

func (r *widgetRepo) GetID(w *widget) RepositoryID {
	return w.id
}

func (q *tagQuery) UniqueLabel() string {
	if q.label != "" {
		return q.label
	}
	return "tags"
}

func (q *tagQuery) SortDefinitions() []SortDefinition {
	return []SortDefinition{SortBy(fieldTag, OrdinalComparer)}
}

func (q *tagQuery) IsUnpopulated(row Fields) bool {
	return row.Get(fieldTag).IsNull()
}

func (q *tagQuery) GetResults(w *widget) ([]Fields, error) {
	if q.failOn != "" && w.name == q.failOn {
		return nil, UnsupportedFieldType(fieldTag, w)
	}
	if len(w.tags) == 0 {
		return []Fields{{fieldTag: Null}}, nil
	}
	var rows []Fields
	for _, tag := range w.tags {
		rows = append(rows, Fields{fieldTag: StringValue(tag)})
	}
	return rows, nil
}

func (nameQuery) UniqueLabel() string { return "names" }

func (nameQuery) SortDefinitions() []SortDefinition {
	return []SortDefinition{SortBy(fieldName, OrdinalComparer)}
}

func (nameQuery) IsUnpopulated(row Fields) bool {
	return row.Get(fieldName).IsNull()
}

func (nameQuery) GetResults(w *widget) ([]Fields, error) {
	if w.name == "" {
		return []Fields{{fieldName: Null}}, nil
	}
	return []Fields{{fieldName: StringValue(w.name)}}, nil
}

func setupCache(t testing.TB, repo *widgetRepo, q Query[*widget], opt Options) *Cache[*widget] {
	t.Helper()
	var items []*widget
	for id := RepositoryID(1); int(id) <= len(repo.items); id++ {
		if w := repo.items[id]; w != nil {
			items = append(items, w)
		}
	}
	toks := must(RunQuery(q, DataMapper[*widget](repo), items))
	rs := must(NewResultSet(DataMapper[*widget](repo), toks))
	return must(NewCacheFor(DataMapper[*widget](repo), rs, q, opt))
}

// rowsOf renders tokens as "<field text><id>", e.g. "a#1" or "#2" for null.
func rowsOf[T any](rs *ResultSet[T], field string) []string {
	var out []string
	for _, tok := range rs.All() {
		out = append(out, tok.Get(field).Text()+tok.ID.String())
	}
	return out
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

func contains(t testing.TB, s, sub string) {
	if !strings.Contains(s, sub) {
		t.Helper()
		t.Errorf("** got %q, wanted it to contain %q", s, sub)
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
