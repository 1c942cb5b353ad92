package dictionary

import (
	"fmt"

	"github.com/andreyvit/rscache"
	"github.com/andreyvit/rscache/lexicon"
)

// GetAllEntriesSortedByHeadword returns one row per entry, sorted by headword
// in ws (citation form, else lexical form). Entries without one sort last.
func (r *Repository) GetAllEntriesSortedByHeadword(ws string) (entries, error) {
	if ws == "" {
		return nil, invalidArg("GetAllEntriesSortedByHeadword", "empty writing system")
	}
	return r.view(lexicon.NewHeadwordQuery(ws))
}

// GetHomographNumber returns the 1-based position of e among the entries
// sharing its headword in ws, or 0 if no other entry shares it.
func (r *Repository) GetHomographNumber(e *lexicon.LexEntry, ws string) (int, error) {
	if e == nil {
		return 0, invalidArg("GetHomographNumber", "nil entry")
	}
	rs, err := r.GetAllEntriesSortedByHeadword(ws)
	if err != nil {
		return 0, err
	}

	var prev string
	var n, found int
	for _, tok := range rs.All() {
		v := tok.Get(lexicon.FieldForm)
		if v.IsNull() {
			n, prev = 0, ""
			if tok.ID == e.ID {
				return 0, nil
			}
			continue
		}
		if found > 0 {
			// the next row decides whether e's headword repeats
			if v.Str() == prev {
				return found, nil
			}
			break
		}
		if v.Str() == prev {
			n++
		} else {
			prev, n = v.Str(), 1
		}
		if tok.ID == e.ID {
			found = n
		}
	}
	switch {
	case found > 1:
		return found, nil
	case found == 1:
		return 0, nil
	default:
		return 0, fmt.Errorf("dictionary: entry %v: %w", e.ID, rscache.ErrNotFound)
	}
}

// GetAllEntriesSortedByLexicalFormOrAlternative returns one row per entry
// sorted by its lexical form in ws, substituting another writing system's
// form when ws has none. WritingSystem in each row names the form's source.
func (r *Repository) GetAllEntriesSortedByLexicalFormOrAlternative(ws string) (entries, error) {
	if ws == "" {
		return nil, invalidArg("GetAllEntriesSortedByLexicalFormOrAlternative", "empty writing system")
	}
	return r.view(lexicon.NewLexicalFormQuery(ws))
}

// GetAllEntriesSortedByDefinitionOrGloss returns a row per distinct
// definition or gloss of every sense in ws.
func (r *Repository) GetAllEntriesSortedByDefinitionOrGloss(ws string) (entries, error) {
	if ws == "" {
		return nil, invalidArg("GetAllEntriesSortedByDefinitionOrGloss", "empty writing system")
	}
	return r.view(lexicon.NewDefinitionOrGlossQuery(ws))
}

// GetEntriesWithSemanticDomainSortedBySemanticDomain returns a row per
// distinct domain per entry, skipping entries with no domain in field.
func (r *Repository) GetEntriesWithSemanticDomainSortedBySemanticDomain(field string) (entries, error) {
	if field == "" {
		return nil, invalidArg("GetEntriesWithSemanticDomainSortedBySemanticDomain", "empty field name")
	}
	q := lexicon.NewSemanticDomainQuery(field)
	rs, err := r.view(q)
	if err != nil {
		return nil, err
	}
	return r.filter(rs, func(tok *rscache.RecordToken) bool {
		return !q.IsUnpopulated(tok.Fields)
	})
}

// GetEntriesWithMatchingGlossSortedByLexicalForm returns the entries having a
// sense glossed exactly gloss in glossWS, sorted by lexical form in
// lexicalWS.
func (r *Repository) GetEntriesWithMatchingGlossSortedByLexicalForm(gloss, glossWS, lexicalWS string) (entries, error) {
	if gloss == "" {
		return nil, invalidArg("GetEntriesWithMatchingGlossSortedByLexicalForm", "empty gloss")
	}
	if lexicalWS == "" {
		return nil, invalidArg("GetEntriesWithMatchingGlossSortedByLexicalForm", "empty writing system")
	}
	rs, err := r.view(lexicon.NewGlossesByLexicalFormQuery(lexicalWS))
	if err != nil {
		return nil, err
	}
	return r.filter(rs, func(tok *rscache.RecordToken) bool {
		return tok.Get(lexicon.FieldGloss).Text() == gloss &&
			tok.Get(lexicon.FieldGlossWritingSystem).Text() == glossWS
	})
}

// GetLexEntryWithMatchingGuid returns the entry with the given GUID, or nil
// if there is none.
func (r *Repository) GetLexEntryWithMatchingGuid(guid string) (*lexicon.LexEntry, error) {
	if guid == "" {
		return nil, invalidArg("GetLexEntryWithMatchingGuid", "empty guid")
	}
	return r.lookup(lexicon.NewGUIDQuery(), guid)
}

// GetLexEntryWithMatchingId returns the entry with the given LiftID, or nil
// if there is none.
func (r *Repository) GetLexEntryWithMatchingId(id string) (*lexicon.LexEntry, error) {
	if id == "" {
		return nil, invalidArg("GetLexEntryWithMatchingId", "empty id")
	}
	return r.lookup(lexicon.NewLiftIDQuery(), id)
}

func (r *Repository) lookup(q *lexicon.KeyQuery, key string) (*lexicon.LexEntry, error) {
	rs, err := r.view(q)
	if err != nil {
		return nil, err
	}
	i := rs.FindFirstIndex(0, func(tok *rscache.RecordToken) bool {
		return tok.Get(q.Field).Text() == key
	})
	if i < 0 {
		return nil, nil
	}
	if i+1 < rs.Len() && rs.At(i+1).Get(q.Field).Text() == key {
		return nil, fmt.Errorf("dictionary: %s %q: %w", q.Field, key, ErrDuplicateKey)
	}
	return rs.Record(rs.At(i))
}

func (r *Repository) filter(rs entries, keep func(tok *rscache.RecordToken) bool) (entries, error) {
	var toks []*rscache.RecordToken
	for _, tok := range rs.All() {
		if keep(tok) {
			toks = append(toks, tok)
		}
	}
	return rscache.NewResultSet(rscache.DataMapper[*lexicon.LexEntry](r.entryRepo), toks)
}
