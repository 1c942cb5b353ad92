package lexicon

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// FieldKind enumerates the shapes a custom field value can take.
type FieldKind uint8

const (
	KindMultiText FieldKind = iota + 1
	KindOptionRef
	KindOptionRefCollection
	KindDate
)

func (k FieldKind) String() string {
	switch k {
	case KindMultiText:
		return "multitext"
	case KindOptionRef:
		return "option"
	case KindOptionRefCollection:
		return "option-collection"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("invalid field kind %d", int(k))
	}
}

// FieldValue is a closed set of value shapes: MultiText, OptionRef,
// OptionRefCollection and Date. Code that flattens values switches on the
// concrete type and must handle all of them.
type FieldValue interface {
	FieldKind() FieldKind
	isFieldValue()
}

// MultiText holds one text per writing system.
type MultiText map[string]string

func (MultiText) FieldKind() FieldKind { return KindMultiText }
func (MultiText) isFieldValue()        {}

// Form returns the text for the writing system, or "".
func (mt MultiText) Form(ws string) string {
	return mt[ws]
}

func (mt MultiText) IsEmpty() bool {
	for _, s := range mt {
		if s != "" {
			return false
		}
	}
	return true
}

// OptionRef is a single choice from an option list.
type OptionRef struct {
	Key string
}

func (OptionRef) FieldKind() FieldKind { return KindOptionRef }
func (OptionRef) isFieldValue()        {}

// OptionRefCollection is a multi-select choice from an option list.
type OptionRefCollection struct {
	Keys []string
}

func (OptionRefCollection) FieldKind() FieldKind { return KindOptionRefCollection }
func (OptionRefCollection) isFieldValue()        {}

func Options(keys ...string) OptionRefCollection {
	return OptionRefCollection{Keys: keys}
}

// Date is a point in time, e.g. a date-modified field.
type Date struct {
	Time time.Time
}

func (Date) FieldKind() FieldKind { return KindDate }
func (Date) isFieldValue()        {}

// Properties are the named custom fields of an entry, sense or example.
type Properties map[string]FieldValue

type fieldValueEnvelope struct {
	Kind FieldKind `msgpack:"k"`
	Text MultiText `msgpack:"t,omitempty"`
	Keys []string  `msgpack:"o,omitempty"`
	Time time.Time `msgpack:"d"`
}

var (
	_ msgpack.CustomEncoder = Properties(nil)
	_ msgpack.CustomDecoder = (*Properties)(nil)
)

func (p Properties) EncodeMsgpack(enc *msgpack.Encoder) error {
	if p == nil {
		return enc.EncodeNil()
	}
	if err := enc.EncodeMapLen(len(p)); err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(p)) {
		var env fieldValueEnvelope
		switch v := p[name].(type) {
		case MultiText:
			env = fieldValueEnvelope{Kind: KindMultiText, Text: v}
		case OptionRef:
			env = fieldValueEnvelope{Kind: KindOptionRef, Keys: []string{v.Key}}
		case OptionRefCollection:
			env = fieldValueEnvelope{Kind: KindOptionRefCollection, Keys: v.Keys}
		case Date:
			env = fieldValueEnvelope{Kind: KindDate, Time: v.Time}
		default:
			return fmt.Errorf("property %q: cannot encode %T", name, v)
		}
		if err := enc.EncodeString(name); err != nil {
			return err
		}
		if err := enc.Encode(&env); err != nil {
			return err
		}
	}
	return nil
}

func (p *Properties) DecodeMsgpack(dec *msgpack.Decoder) error {
	var raw map[string]fieldValueEnvelope
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}
	out := make(Properties, len(raw))
	for name, env := range raw {
		switch env.Kind {
		case KindMultiText:
			out[name] = env.Text
		case KindOptionRef:
			var key string
			if len(env.Keys) > 0 {
				key = env.Keys[0]
			}
			out[name] = OptionRef{Key: key}
		case KindOptionRefCollection:
			out[name] = OptionRefCollection{Keys: env.Keys}
		case KindDate:
			out[name] = Date{Time: env.Time}
		default:
			return fmt.Errorf("property %q: unknown field kind %d", name, env.Kind)
		}
	}
	*p = out
	return nil
}
