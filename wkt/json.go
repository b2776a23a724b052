package wkt

import (
	"strconv"
	"strings"

	"github.com/go-faster/jx"
	"github.com/goccy/go-json"
)

// Value arm keys.
const (
	armString = "stringValue"
	armNumber = "numberValue"
	armBool   = "boolValue"
	armNull   = "nullValue"
	armList   = "listValue"
	armStruct = "structValue"
)

// Struct edits {fields: object} as raw JSON object text.
type Struct struct{}

func (Struct) Inputs() []Input {
	return []Input{{Name: "json", Label: "JSON object", Multiline: true}}
}

func (Struct) ToEditable(wire any) []string {
	m, ok := wire.(map[string]any)
	if !ok {
		return []string{""}
	}
	if fields, ok := m["fields"]; ok && len(m) == 1 {
		return []string{encode(fields)}
	}
	// protojson writes a Struct as the bare object.
	return []string{encode(m)}
}

func (Struct) Decode(parts []string) (any, error) {
	text := strings.TrimSpace(part(parts, 0))
	fields, err := decodeObject(text)
	if err != nil {
		return structWire(map[string]any{}), malformed("struct", text, err)
	}
	return structWire(fields), nil
}

func decodeObject(text string) (map[string]any, error) {
	if text == "" {
		return map[string]any{}, nil
	}
	// Numbers stay json.Number so integers past 2^53 keep their digits.
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errTrailingData
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func structWire(fields map[string]any) map[string]any {
	return map[string]any{"fields": fields}
}

// Value edits the Value oneof as a single JSON literal. The arm is picked from
// the literal's token type.
type Value struct{}

func (Value) Inputs() []Input {
	return []Input{{Name: "json", Label: "JSON literal", Multiline: true}}
}

func (Value) ToEditable(wire any) []string {
	if wire == nil {
		return []string{""}
	}
	return []string{encode(unwrapValue(wire))}
}

func (Value) Decode(parts []string) (any, error) {
	text := strings.TrimSpace(part(parts, 0))
	if text == "" {
		return nullWire(), nil
	}
	v, err := wrapLiteral([]byte(text))
	if err != nil {
		return nullWire(), malformed("value", text, err)
	}
	return v, nil
}

// wrapLiteral wraps one JSON literal into its Value arm.
func wrapLiteral(raw []byte) (map[string]any, error) {
	if !jx.Valid(raw) {
		return nil, errInvalidJSON
	}
	d := jx.DecodeBytes(raw)
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return nil, err
		}
		return map[string]any{armString: s}, nil
	case jx.Number:
		f, err := d.Float64()
		if err != nil {
			return nil, err
		}
		return map[string]any{armNumber: f}, nil
	case jx.Bool:
		b, err := d.Bool()
		if err != nil {
			return nil, err
		}
		return map[string]any{armBool: b}, nil
	case jx.Null:
		return nullWire(), nil
	case jx.Array:
		values, err := decodeList(raw)
		if err != nil {
			return nil, err
		}
		return map[string]any{armList: listWire(values)}, nil
	case jx.Object:
		fields, err := decodeObject(string(raw))
		if err != nil {
			return nil, err
		}
		return map[string]any{armStruct: structWire(fields)}, nil
	default:
		return nil, errInvalidJSON
	}
}

// unwrapValue reverses wrapLiteral. A map that is not a single-arm Value is
// returned as is, which covers the bare JSON protojson writes.
func unwrapValue(wire any) any {
	m, ok := wire.(map[string]any)
	if !ok || len(m) != 1 {
		return wire
	}
	for arm, v := range m {
		switch arm {
		case armString, armNumber, armBool:
			return v
		case armNull:
			return nil
		case armList:
			return unwrapList(v)
		case armStruct:
			if s, ok := v.(map[string]any); ok {
				if fields, ok := s["fields"]; ok {
					return fields
				}
			}
			return v
		}
	}
	return wire
}

func nullWire() map[string]any {
	return map[string]any{armNull: int32(0)}
}

// ListValue edits {values: [Value...]} as a JSON array. Every element is
// wrapped through the Value rules.
type ListValue struct{}

func (ListValue) Inputs() []Input {
	return []Input{{Name: "json", Label: "JSON array", Multiline: true}}
}

func (ListValue) ToEditable(wire any) []string {
	if wire == nil {
		return []string{""}
	}
	return []string{encode(unwrapList(wire))}
}

func (ListValue) Decode(parts []string) (any, error) {
	text := strings.TrimSpace(part(parts, 0))
	if text == "" {
		return listWire([]any{}), nil
	}
	values, err := decodeList([]byte(text))
	if err != nil {
		return listWire([]any{}), malformed("list", text, err)
	}
	return listWire(values), nil
}

func decodeList(raw []byte) ([]any, error) {
	if !jx.Valid(raw) {
		return nil, errInvalidJSON
	}
	d := jx.DecodeBytes(raw)
	if d.Next() != jx.Array {
		return nil, errNotArray
	}
	values := []any{}
	err := d.Arr(func(d *jx.Decoder) error {
		elem, err := d.Raw()
		if err != nil {
			return err
		}
		v, err := wrapLiteral(elem)
		if err != nil {
			return err
		}
		values = append(values, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func unwrapList(wire any) any {
	var values []any
	switch w := wire.(type) {
	case map[string]any:
		values, _ = w["values"].([]any)
	case []any:
		// Bare protojson array.
		values = w
	default:
		return wire
	}
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, unwrapValue(v))
	}
	return out
}

func listWire(values []any) map[string]any {
	return map[string]any{"values": values}
}

type jsonError string

func (e jsonError) Error() string { return string(e) }

const (
	errInvalidJSON  = jsonError("invalid JSON")
	errNotArray     = jsonError("not a JSON array")
	errTrailingData = jsonError("unexpected data after the JSON object")
)

func encode(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
