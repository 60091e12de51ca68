package placeholder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind tags the shape of a JSON Value.
type Kind int

const (
	Scalar Kind = iota
	Sequence
	Mapping
)

// Value is a JSON document node. Mappings keep their keys in source order.
type Value struct {
	Kind Kind

	// Scalar: Str holds the text of a string; Literal holds the raw token of
	// a number, true, false or null.
	Str      string
	IsString bool
	Literal  string

	Items  []*Value
	Fields []*Field
}

// Field is one key/value pair of a Mapping.
type Field struct {
	Key   string
	Value *Value
}

// Visitor receives the translatable parts of a document from Walk.
type Visitor interface {
	VisitKey(f *Field)
	VisitString(v *Value)
}

// Walk visits every mapping key and string scalar under v, depth first.
func Walk(v *Value, vis Visitor) {
	switch v.Kind {
	case Mapping:
		for _, f := range v.Fields {
			vis.VisitKey(f)
			Walk(f.Value, vis)
		}
	case Sequence:
		for _, item := range v.Items {
			Walk(item, vis)
		}
	default:
		if v.IsString {
			vis.VisitString(v)
		}
	}
}

type visitorFuncs struct {
	key func(*Field)
	str func(*Value)
}

func (f visitorFuncs) VisitKey(field *Field) { f.key(field) }
func (f visitorFuncs) VisitString(v *Value)  { f.str(v) }

// Parse decodes one JSON value from data, keeping key order.
func Parse(data string) (*Value, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			v := &Value{Kind: Mapping}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("invalid object key %v", kt)
				}
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				v.Fields = append(v.Fields, &Field{Key: key, Value: child})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		case '[':
			v := &Value{Kind: Sequence}
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				v.Items = append(v.Items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
	case string:
		return &Value{Kind: Scalar, Str: t, IsString: true}, nil
	case json.Number:
		return &Value{Kind: Scalar, Literal: t.String()}, nil
	case bool:
		if t {
			return &Value{Kind: Scalar, Literal: "true"}, nil
		}
		return &Value{Kind: Scalar, Literal: "false"}, nil
	case nil:
		return &Value{Kind: Scalar, Literal: "null"}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// Encode serialises v as JSON with ", " and ": " separators.
func (v *Value) Encode() string {
	return v.encode(nil)
}

// encode serialises v, taking the text of any string found in subst from
// there instead of from the node.
func (v *Value) encode(subst map[*string]string) string {
	var b strings.Builder
	v.write(&b, subst)
	return b.String()
}

func (v *Value) write(b *strings.Builder, subst map[*string]string) {
	text := func(ptr *string) string {
		if s, ok := subst[ptr]; ok {
			return s
		}
		return *ptr
	}
	switch v.Kind {
	case Mapping:
		b.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(text(&f.Key)))
			b.WriteString(": ")
			f.Value.write(b, subst)
		}
		b.WriteByte('}')
	case Sequence:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b, subst)
		}
		b.WriteByte(']')
	default:
		if v.IsString {
			b.WriteString(quote(text(&v.Str)))
		} else {
			b.WriteString(v.Literal)
		}
	}
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
