package lexicon

import (
	"fmt"
	"maps"
	"slices"

	"github.com/andreyvit/rscache"
)

const FieldGloss = "Gloss"

// GlossQuery yields one row per gloss of every sense, splitting
// semicolon-delimited glosses. Senses without a gloss, and entries without
// senses, yield an unpopulated row.
type GlossQuery struct {
	WritingSystem string
	Comparer      rscache.Comparer

	// Label overrides the default UniqueLabel ("GlossQuery.<ws>").
	Label string
}

var _ rscache.Query[*LexEntry] = (*GlossQuery)(nil)

func NewGlossQuery(ws string) *GlossQuery {
	return &GlossQuery{
		WritingSystem: ws,
		Comparer:      rscache.InvariantComparer(),
	}
}

func (q *GlossQuery) UniqueLabel() string {
	if q.Label != "" {
		return q.Label
	}
	return "GlossQuery." + q.WritingSystem
}

func (q *GlossQuery) SortDefinitions() []rscache.SortDefinition {
	return []rscache.SortDefinition{
		rscache.SortBy(FieldGloss, q.Comparer),
		rscache.SortBy(FieldEntryID, rscache.OrdinalComparer),
		rscache.SortBy(FieldSenseID, rscache.OrdinalComparer).WithNullsFirst(),
	}
}

func (q *GlossQuery) IsUnpopulated(row rscache.Fields) bool {
	return row.Get(FieldGloss).IsNull()
}

func (q *GlossQuery) GetResults(entry *LexEntry) ([]rscache.Fields, error) {
	if entry == nil {
		return nil, fmt.Errorf("%s: %w: nil entry", q.UniqueLabel(), rscache.ErrInvalidArgument)
	}
	if len(entry.Senses) == 0 {
		return []rscache.Fields{
			ancestors{entry: entry.GUID, level: 1}.row(FieldGloss, rscache.Null),
		}, nil
	}
	var rows []rscache.Fields
	for _, sense := range entry.Senses {
		anc := ancestors{entry: entry.GUID, sense: sense.ID, level: 2}
		glosses := SplitMultiValue(q.form(sense.Gloss))
		if len(glosses) == 0 {
			rows = append(rows, anc.row(FieldGloss, rscache.Null))
			continue
		}
		for _, g := range glosses {
			rows = append(rows, anc.row(FieldGloss, rscache.StringValue(g)))
		}
	}
	return rows, nil
}

func (q *GlossQuery) form(mt MultiText) string {
	if q.WritingSystem != "" {
		return mt.Form(q.WritingSystem)
	}
	return firstForm(mt)
}

func firstForm(mt MultiText) string {
	for _, ws := range slices.Sorted(maps.Keys(mt)) {
		if s := mt[ws]; s != "" {
			return s
		}
	}
	return ""
}
