package rscache

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies the type stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	default:
		return "invalid kind " + strconv.Itoa(int(k))
	}
}

// Value is a single field value of a token. The zero Value is Null, which is
// how unpopulated rows represent “no value”.
type Value struct {
	kind Kind
	s    string
	i    int64
}

var Null = Value{}

func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

func IntValue(i int64) Value {
	return Value{kind: KindInt, i: i}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Str returns the string payload, or "" if v is not a string.
func (v Value) Str() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Int returns the integer payload, or 0 if v is not an integer.
func (v Value) Int() int64 {
	if v.kind == KindInt {
		return v.i
	}
	return 0
}

// Text is the string form used for ordinal comparison.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	default:
		return ""
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "<null>"
	case KindString:
		return strconv.Quote(v.s)
	default:
		return v.Text()
	}
}

// Fingerprint is a fast content hash; values with different fingerprints are
// guaranteed to differ.
func (v Value) Fingerprint() uint64 {
	d := xxhash.New()
	d.Write([]byte{byte(v.kind)})
	d.WriteString(v.Text())
	return d.Sum64()
}

// Equal reports whether two values are identical (same kind, same payload).
func (v Value) Equal(o Value) bool {
	return v == o
}

// compareOrdinal orders values by kind, then numerically or bytewise.
func compareOrdinal(a, b Value) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}
	switch a.kind {
	case KindInt:
		return cmp.Compare(a.i, b.i)
	case KindString:
		return strings.Compare(a.s, b.s)
	default:
		return 0
	}
}

// Fields maps field labels to values. A missing label reads as Null.
type Fields map[string]Value

func (f Fields) Get(label string) Value {
	return f[label]
}

func (f Fields) Has(label string) bool {
	_, ok := f[label]
	return ok
}

func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}
