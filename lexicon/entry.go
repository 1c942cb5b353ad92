// Package lexicon models dictionary entries (entries, senses, example
// sentences) and provides the queries that flatten them into result set
// cache rows.
package lexicon

import (
	"time"

	"github.com/andreyvit/rscache"
)

// Row field labels shared by the lexicon queries.
const (
	FieldEntryID   = "EntryId"
	FieldSenseID   = "SenseId"
	FieldExampleID = "ExampleId"
)

type LexEntry struct {
	ID   rscache.RepositoryID `msgpack:"-"`
	GUID string               `msgpack:"g"`

	// LiftID is the entry's readable id, e.g. "cat_4a3f".
	LiftID string `msgpack:"id,omitempty"`

	LexicalForm  MultiText `msgpack:"lf,omitempty"`
	CitationForm MultiText `msgpack:"cf,omitempty"`
	Senses       []*Sense  `msgpack:"s,omitempty"`

	// Homographs are numbered by these after the headword.
	OrderForRoundTripping int       `msgpack:"ort,omitempty"`
	OrderInFile           int       `msgpack:"oif,omitempty"`
	CreationTime          time.Time `msgpack:"ct,omitempty"`

	Properties Properties `msgpack:"p,omitempty"`
}

type Sense struct {
	ID         string     `msgpack:"id"`
	Gloss      MultiText  `msgpack:"gl,omitempty"`
	Definition MultiText  `msgpack:"def,omitempty"`
	Examples   []*Example `msgpack:"ex,omitempty"`
	Properties Properties `msgpack:"p,omitempty"`
}

type Example struct {
	ID          string     `msgpack:"id"`
	Sentence    MultiText  `msgpack:"sen,omitempty"`
	Translation MultiText  `msgpack:"tr,omitempty"`
	Properties  Properties `msgpack:"p,omitempty"`
}

func NewLexEntry() *LexEntry {
	return &LexEntry{}
}

func (e *LexEntry) RepositoryID() rscache.RepositoryID {
	return e.ID
}

func (e *LexEntry) SetRepositoryID(id rscache.RepositoryID) {
	e.ID = id
}

// Headword is the citation form in ws, or the lexical form if there is none.
func (e *LexEntry) Headword(ws string) string {
	if s := e.CitationForm.Form(ws); s != "" {
		return s
	}
	return e.LexicalForm.Form(ws)
}

func (e *LexEntry) AddSense(s *Sense) *Sense {
	e.Senses = append(e.Senses, s)
	return s
}

func (s *Sense) AddExample(ex *Example) *Example {
	s.Examples = append(s.Examples, ex)
	return ex
}

// SetProperty sets or, for a nil value, removes a custom field.
func (e *LexEntry) SetProperty(name string, v FieldValue) {
	e.Properties = setProperty(e.Properties, name, v)
}

func (s *Sense) SetProperty(name string, v FieldValue) {
	s.Properties = setProperty(s.Properties, name, v)
}

func (ex *Example) SetProperty(name string, v FieldValue) {
	ex.Properties = setProperty(ex.Properties, name, v)
}

func setProperty(p Properties, name string, v FieldValue) Properties {
	if v == nil {
		delete(p, name)
		return p
	}
	if p == nil {
		p = make(Properties)
	}
	p[name] = v
	return p
}
