package lexicon

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"golang.org/x/text/language"

	"github.com/andreyvit/rscache"
)

// Row field labels of the dictionary view queries.
const (
	FieldForm                  = "Form"
	FieldWritingSystem         = "WritingSystem"
	FieldSense                 = "Sense"
	FieldSemanticDomain        = "SemanticDomain"
	FieldGlossWritingSystem    = "GlossWritingSystem"
	FieldGUID                  = "Guid"
	FieldLiftID                = "Id"
	FieldOrderForRoundTripping = "OrderForRoundTripping"
	FieldOrderInFile           = "OrderInFile"
	FieldCreationTime          = "CreationTime"
)

// CollatorFor returns a comparer for the language of writing system ws,
// falling back to the root collation for tags x/text cannot parse.
func CollatorFor(ws string) *rscache.CollatingComparer {
	tag, err := language.Parse(ws)
	if err != nil {
		tag = language.Und
	}
	return rscache.NewCollatingComparer(tag)
}

func nullIfEmpty(s string) rscache.Value {
	if s == "" {
		return rscache.Null
	}
	return rscache.StringValue(s)
}

func nilEntry(label string) error {
	return fmt.Errorf("%s: %w: nil entry", label, rscache.ErrInvalidArgument)
}

// HeadwordQuery yields one row per entry with its headword in Form, plus the
// keys that order homographs.
type HeadwordQuery struct {
	WritingSystem string
	Comparer      rscache.Comparer
}

var _ rscache.Query[*LexEntry] = (*HeadwordQuery)(nil)

func NewHeadwordQuery(ws string) *HeadwordQuery {
	return &HeadwordQuery{WritingSystem: ws, Comparer: CollatorFor(ws)}
}

func (q *HeadwordQuery) UniqueLabel() string {
	return "sortedByHeadWord_" + q.WritingSystem
}

func (q *HeadwordQuery) SortDefinitions() []rscache.SortDefinition {
	return []rscache.SortDefinition{
		rscache.SortBy(FieldForm, q.Comparer),
		rscache.SortBy(FieldOrderForRoundTripping, rscache.OrdinalComparer),
		rscache.SortBy(FieldOrderInFile, rscache.OrdinalComparer),
		rscache.SortBy(FieldCreationTime, rscache.OrdinalComparer),
	}
}

func (q *HeadwordQuery) IsUnpopulated(row rscache.Fields) bool {
	return row.Get(FieldForm).IsNull()
}

func (q *HeadwordQuery) GetResults(e *LexEntry) ([]rscache.Fields, error) {
	if e == nil {
		return nil, nilEntry(q.UniqueLabel())
	}
	return []rscache.Fields{{
		FieldForm:                  nullIfEmpty(e.Headword(q.WritingSystem)),
		FieldOrderForRoundTripping: rscache.IntValue(int64(e.OrderForRoundTripping)),
		FieldOrderInFile:           rscache.IntValue(int64(e.OrderInFile)),
		FieldCreationTime:          rscache.IntValue(unixNano(e.CreationTime)),
	}}, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// LexicalFormQuery yields the lexical form in WritingSystem, or when that is
// empty the first non-empty form of another writing system. WritingSystem in
// the row names the one the form came from.
type LexicalFormQuery struct {
	WritingSystem string
	Comparer      rscache.Comparer
}

var _ rscache.Query[*LexEntry] = (*LexicalFormQuery)(nil)

func NewLexicalFormQuery(ws string) *LexicalFormQuery {
	return &LexicalFormQuery{WritingSystem: ws, Comparer: CollatorFor(ws)}
}

func (q *LexicalFormQuery) UniqueLabel() string {
	return "sortedByLexicalFormOrAlternative_" + q.WritingSystem
}

func (q *LexicalFormQuery) SortDefinitions() []rscache.SortDefinition {
	return []rscache.SortDefinition{rscache.SortBy(FieldForm, q.Comparer)}
}

func (q *LexicalFormQuery) IsUnpopulated(row rscache.Fields) bool {
	return row.Get(FieldForm).IsNull()
}

func (q *LexicalFormQuery) GetResults(e *LexEntry) ([]rscache.Fields, error) {
	if e == nil {
		return nil, nilEntry(q.UniqueLabel())
	}
	form, ws := e.LexicalForm.Form(q.WritingSystem), q.WritingSystem
	if form == "" {
		for _, alt := range slices.Sorted(maps.Keys(e.LexicalForm)) {
			if s := e.LexicalForm[alt]; s != "" {
				form, ws = s, alt
				break
			}
		}
	}
	return []rscache.Fields{{
		FieldForm:          nullIfEmpty(form),
		FieldWritingSystem: rscache.StringValue(ws),
	}}, nil
}

// DefinitionOrGlossQuery yields, per sense, the split definitions followed by
// the split glosses, each distinct value once. A sense with neither yields an
// unpopulated row; so does an entry without senses.
type DefinitionOrGlossQuery struct {
	WritingSystem string
	Comparer      rscache.Comparer
}

var _ rscache.Query[*LexEntry] = (*DefinitionOrGlossQuery)(nil)

func NewDefinitionOrGlossQuery(ws string) *DefinitionOrGlossQuery {
	return &DefinitionOrGlossQuery{WritingSystem: ws, Comparer: CollatorFor(ws)}
}

func (q *DefinitionOrGlossQuery) UniqueLabel() string {
	return "SortByDefinition_" + q.WritingSystem
}

func (q *DefinitionOrGlossQuery) SortDefinitions() []rscache.SortDefinition {
	return []rscache.SortDefinition{
		rscache.SortBy(FieldForm, q.Comparer),
		rscache.SortBy(FieldSense, rscache.OrdinalComparer).WithNullsFirst(),
	}
}

func (q *DefinitionOrGlossQuery) IsUnpopulated(row rscache.Fields) bool {
	return row.Get(FieldForm).IsNull()
}

func (q *DefinitionOrGlossQuery) GetResults(e *LexEntry) ([]rscache.Fields, error) {
	if e == nil {
		return nil, nilEntry(q.UniqueLabel())
	}
	if len(e.Senses) == 0 {
		return []rscache.Fields{
			ancestors{entry: e.GUID, level: 1}.row(FieldForm, rscache.Null),
		}, nil
	}
	var rows []rscache.Fields
	for i, sense := range e.Senses {
		anc := ancestors{entry: e.GUID, sense: sense.ID, level: 2}
		var forms []string
		defs := SplitMultiValue(sense.Definition.Form(q.WritingSystem))
		glosses := SplitMultiValue(sense.Gloss.Form(q.WritingSystem))
		for _, s := range slices.Concat(defs, glosses) {
			if !slices.Contains(forms, s) {
				forms = append(forms, s)
			}
		}
		if len(forms) == 0 {
			forms = []string{""}
		}
		for _, form := range forms {
			row := anc.row(FieldForm, nullIfEmpty(form))
			row[FieldSense] = rscache.IntValue(int64(i))
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// SemanticDomainQuery yields each distinct semantic domain selected in the
// named option collection field of any sense. An entry with none yields an
// unpopulated row.
type SemanticDomainQuery struct {
	Field    string
	Comparer rscache.Comparer
}

var _ rscache.Query[*LexEntry] = (*SemanticDomainQuery)(nil)

func NewSemanticDomainQuery(field string) *SemanticDomainQuery {
	return &SemanticDomainQuery{Field: field, Comparer: rscache.InvariantComparer()}
}

func (q *SemanticDomainQuery) UniqueLabel() string {
	return "Semanticdomains_" + q.Field
}

func (q *SemanticDomainQuery) SortDefinitions() []rscache.SortDefinition {
	return []rscache.SortDefinition{rscache.SortBy(FieldSemanticDomain, q.Comparer)}
}

func (q *SemanticDomainQuery) IsUnpopulated(row rscache.Fields) bool {
	return row.Get(FieldSemanticDomain).IsNull()
}

func (q *SemanticDomainQuery) GetResults(e *LexEntry) ([]rscache.Fields, error) {
	if e == nil {
		return nil, nilEntry(q.UniqueLabel())
	}
	anc := ancestors{entry: e.GUID, level: 1}
	var seen []string
	var rows []rscache.Fields
	for _, sense := range e.Senses {
		fv, ok := sense.Properties[q.Field]
		if !ok {
			continue
		}
		domains, ok := fv.(OptionRefCollection)
		if !ok {
			return nil, rscache.UnsupportedFieldType(q.Field, fv)
		}
		for _, key := range domains.Keys {
			if key == "" || slices.Contains(seen, key) {
				continue
			}
			seen = append(seen, key)
			rows = append(rows, anc.row(FieldSemanticDomain, rscache.StringValue(key)))
		}
	}
	if len(rows) == 0 {
		rows = append(rows, anc.row(FieldSemanticDomain, rscache.Null))
	}
	return rows, nil
}

// GlossesByLexicalFormQuery yields one row per gloss form of every sense,
// carrying the entry's lexical form in WritingSystem, the gloss and its
// writing system, and the sense index.
type GlossesByLexicalFormQuery struct {
	WritingSystem string
	Comparer      rscache.Comparer
}

var _ rscache.Query[*LexEntry] = (*GlossesByLexicalFormQuery)(nil)

func NewGlossesByLexicalFormQuery(ws string) *GlossesByLexicalFormQuery {
	return &GlossesByLexicalFormQuery{WritingSystem: ws, Comparer: CollatorFor(ws)}
}

func (q *GlossesByLexicalFormQuery) UniqueLabel() string {
	return "GlossesSortedByLexicalForm_" + q.WritingSystem
}

func (q *GlossesByLexicalFormQuery) SortDefinitions() []rscache.SortDefinition {
	return []rscache.SortDefinition{
		rscache.SortBy(FieldForm, q.Comparer),
		rscache.SortBy(FieldGloss, rscache.OrdinalComparer),
		rscache.SortBy(FieldGlossWritingSystem, rscache.OrdinalComparer),
		rscache.SortBy(FieldSense, rscache.OrdinalComparer),
	}
}

func (q *GlossesByLexicalFormQuery) IsUnpopulated(row rscache.Fields) bool {
	return row.Get(FieldGloss).IsNull()
}

func (q *GlossesByLexicalFormQuery) GetResults(e *LexEntry) ([]rscache.Fields, error) {
	if e == nil {
		return nil, nilEntry(q.UniqueLabel())
	}
	form := nullIfEmpty(e.LexicalForm.Form(q.WritingSystem))
	var rows []rscache.Fields
	for i, sense := range e.Senses {
		for _, ws := range slices.Sorted(maps.Keys(sense.Gloss)) {
			rows = append(rows, rscache.Fields{
				FieldForm:               form,
				FieldGloss:              nullIfEmpty(sense.Gloss[ws]),
				FieldGlossWritingSystem: nullIfEmpty(ws),
				FieldSense:              rscache.IntValue(int64(i)),
			})
		}
	}
	if len(rows) == 0 {
		rows = append(rows, rscache.Fields{FieldForm: form, FieldGloss: rscache.Null})
	}
	return rows, nil
}

// KeyQuery yields one row holding an identifying key of the entry, either
// its GUID (FieldGUID) or its LiftID (FieldLiftID).
type KeyQuery struct {
	Field string
}

var _ rscache.Query[*LexEntry] = (*KeyQuery)(nil)

func NewGUIDQuery() *KeyQuery   { return &KeyQuery{Field: FieldGUID} }
func NewLiftIDQuery() *KeyQuery { return &KeyQuery{Field: FieldLiftID} }

func (q *KeyQuery) UniqueLabel() string {
	return "sortedBy" + q.Field
}

func (q *KeyQuery) SortDefinitions() []rscache.SortDefinition {
	return []rscache.SortDefinition{rscache.SortBy(q.Field, rscache.OrdinalComparer)}
}

func (q *KeyQuery) IsUnpopulated(row rscache.Fields) bool {
	return row.Get(q.Field).IsNull()
}

func (q *KeyQuery) GetResults(e *LexEntry) ([]rscache.Fields, error) {
	if e == nil {
		return nil, nilEntry(q.UniqueLabel())
	}
	var key string
	switch q.Field {
	case FieldGUID:
		key = e.GUID
	case FieldLiftID:
		key = e.LiftID
	default:
		return nil, fmt.Errorf("%s: %w: unknown key field %q", q.UniqueLabel(), rscache.ErrInvalidArgument, q.Field)
	}
	return []rscache.Fields{{q.Field: nullIfEmpty(key)}}, nil
}
