package lexicon

import (
	"strings"

	"github.com/andreyvit/rscache"
)

const multiValueSep = ";"

// SplitMultiValue splits semicolon-delimited text into trimmed, non-empty
// values.
func SplitMultiValue(s string) []string {
	var out []string
	for _, part := range strings.Split(s, multiValueSep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func idValue(id string) rscache.Value {
	if id == "" {
		return rscache.Null
	}
	return rscache.StringValue(id)
}

// ancestors tags rows produced at one nesting level.
type ancestors struct {
	entry   string
	sense   string
	example string
	level   int // 1 = entry, 2 = sense, 3 = example
}

func (a ancestors) row(field string, v rscache.Value) rscache.Fields {
	f := rscache.Fields{
		field:        v,
		FieldEntryID: idValue(a.entry),
	}
	if a.level >= 2 {
		f[FieldSenseID] = idValue(a.sense)
	}
	if a.level >= 3 {
		f[FieldExampleID] = idValue(a.example)
	}
	return f
}
