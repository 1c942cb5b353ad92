package lexicon

import (
	"fmt"
	"strings"

	"github.com/andreyvit/rscache"
)

// FieldQuery yields every value of one custom field found on an entry, its
// senses or their examples. Text is split on ";" into one row per value and
// option collections yield one row per selected option. Empty values yield an
// unpopulated row at their level. An entry with the field nowhere yields a
// single unpopulated entry-level row.
//
// Rows carry the field (label Field) plus EntryId, and SenseId/ExampleId when
// the value was found at those levels.
type FieldQuery struct {
	Field         string
	WritingSystem string
	Comparer      rscache.Comparer
}

var _ rscache.Query[*LexEntry] = (*FieldQuery)(nil)

func NewFieldQuery(field, ws string) *FieldQuery {
	return &FieldQuery{
		Field:         field,
		WritingSystem: ws,
		Comparer:      rscache.InvariantComparer(),
	}
}

func (q *FieldQuery) UniqueLabel() string {
	if q.WritingSystem == "" {
		return "FieldQuery." + q.Field
	}
	return "FieldQuery." + q.Field + "." + q.WritingSystem
}

func (q *FieldQuery) SortDefinitions() []rscache.SortDefinition {
	return []rscache.SortDefinition{
		rscache.SortBy(q.Field, q.Comparer),
		rscache.SortBy(FieldEntryID, rscache.OrdinalComparer),
		rscache.SortBy(FieldSenseID, rscache.OrdinalComparer).WithNullsFirst(),
		rscache.SortBy(FieldExampleID, rscache.OrdinalComparer).WithNullsFirst(),
	}
}

func (q *FieldQuery) IsUnpopulated(row rscache.Fields) bool {
	return row.Get(q.Field).IsNull()
}

func (q *FieldQuery) GetResults(entry *LexEntry) ([]rscache.Fields, error) {
	if entry == nil {
		return nil, fmt.Errorf("%s: %w: nil entry", q.UniqueLabel(), rscache.ErrInvalidArgument)
	}
	var rows []rscache.Fields
	var err error

	anc := ancestors{entry: entry.GUID, level: 1}
	if rows, err = q.appendLevel(rows, entry.Properties, anc); err != nil {
		return nil, err
	}
	for _, sense := range entry.Senses {
		anc := ancestors{entry: entry.GUID, sense: sense.ID, level: 2}
		if rows, err = q.appendLevel(rows, sense.Properties, anc); err != nil {
			return nil, err
		}
		for _, ex := range sense.Examples {
			anc := ancestors{entry: entry.GUID, sense: sense.ID, example: ex.ID, level: 3}
			if rows, err = q.appendLevel(rows, ex.Properties, anc); err != nil {
				return nil, err
			}
		}
	}

	if len(rows) == 0 {
		rows = append(rows, ancestors{entry: entry.GUID, level: 1}.row(q.Field, rscache.Null))
	}
	return rows, nil
}

func (q *FieldQuery) appendLevel(rows []rscache.Fields, props Properties, anc ancestors) ([]rscache.Fields, error) {
	fv, ok := props[q.Field]
	if !ok {
		return rows, nil
	}
	n := len(rows)
	switch v := fv.(type) {
	case MultiText:
		for _, s := range SplitMultiValue(q.form(v)) {
			rows = append(rows, anc.row(q.Field, rscache.StringValue(s)))
		}
	case OptionRef:
		if s := strings.TrimSpace(v.Key); s != "" {
			rows = append(rows, anc.row(q.Field, rscache.StringValue(s)))
		}
	case OptionRefCollection:
		for _, key := range v.Keys {
			if s := strings.TrimSpace(key); s != "" {
				rows = append(rows, anc.row(q.Field, rscache.StringValue(s)))
			}
		}
	default:
		return nil, rscache.UnsupportedFieldType(q.Field, fv)
	}
	if len(rows) == n {
		rows = append(rows, anc.row(q.Field, rscache.Null))
	}
	return rows, nil
}

// form picks the configured writing system, or with none configured, the
// first non-empty form by writing system name.
func (q *FieldQuery) form(mt MultiText) string {
	if q.WritingSystem != "" {
		return mt.Form(q.WritingSystem)
	}
	return firstForm(mt)
}
