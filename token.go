package rscache

import (
	"fmt"
	"sort"
	"strings"
)

// RecordToken is one row produced by a query from one record.
type RecordToken struct {
	ID     RepositoryID
	Query  string // UniqueLabel of the producing query
	Fields Fields
}

func NewRecordToken(id RepositoryID, query string, fields Fields) *RecordToken {
	if fields == nil {
		fields = Fields{}
	}
	return &RecordToken{ID: id, Query: query, Fields: fields}
}

// Get returns the value of the given field, or Null.
func (tok *RecordToken) Get(field string) Value {
	return tok.Fields[field]
}

func (tok *RecordToken) sortedLabels() []string {
	labels := make([]string, 0, len(tok.Fields))
	for k := range tok.Fields {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

func (tok *RecordToken) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%v", tok.ID)
	for _, k := range tok.sortedLabels() {
		fmt.Fprintf(&buf, " %s=%v", k, tok.Fields[k])
	}
	return buf.String()
}
