package rscache

// Query flattens one record into zero or more rows.
//
// Implementations must be pure: the same record yields the same rows, and the
// record is never modified. A record with nothing to contribute should yield a
// single unpopulated row rather than none.
type Query[T any] interface {
	// GetResults returns the rows for one record. The record's identity must
	// not appear in the returned field maps.
	GetResults(item T) ([]Fields, error)

	// SortDefinitions returns the declared order of rows. RepositoryID is
	// always applied after them as a tie-breaker.
	SortDefinitions() []SortDefinition

	// UniqueLabel identifies the query. Queries with the same label are
	// assumed to be interchangeable.
	UniqueLabel() string

	// IsUnpopulated reports whether the row is the “no value” placeholder.
	IsUnpopulated(row Fields) bool
}

// SortDefinition is one key of a sort order.
type SortDefinition struct {
	Field    string
	Comparer Comparer

	Descending bool
	NullsFirst bool
}

func SortBy(field string, comparer Comparer) SortDefinition {
	return SortDefinition{Field: field, Comparer: comparer}
}

func (sd SortDefinition) Desc() SortDefinition {
	sd.Descending = true
	return sd
}

func (sd SortDefinition) WithNullsFirst() SortDefinition {
	sd.NullsFirst = true
	return sd
}

// RunQuery runs q against every item and collects the tokens in input order.
func RunQuery[T any](q Query[T], mapper DataMapper[T], items []T) ([]*RecordToken, error) {
	if IsNil(q) {
		return nil, invalidArg("RunQuery", "query")
	}
	if IsNil(mapper) {
		return nil, invalidArg("RunQuery", "mapper")
	}
	label := q.UniqueLabel()
	var tokens []*RecordToken
	for _, item := range items {
		rows, err := q.GetResults(item)
		if err != nil {
			return nil, err
		}
		id := mapper.GetID(item)
		for _, row := range rows {
			tokens = append(tokens, NewRecordToken(id, label, row))
		}
	}
	return tokens, nil
}
