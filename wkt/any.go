package wkt

import "strings"

// Any edits {type_url, value} as two plain inputs. Neither is validated.
type Any struct{}

func (Any) Inputs() []Input {
	return []Input{
		{Name: "type_url", Label: "type URL"},
		{Name: "value", Label: "value (base64)"},
	}
}

func (Any) ToEditable(wire any) []string {
	m, ok := wire.(map[string]any)
	if !ok {
		return []string{"", ""}
	}
	typeURL, _ := m["type_url"].(string)
	if typeURL == "" {
		// protojson form.
		typeURL, _ = m["@type"].(string)
	}
	value, _ := m["value"].(string)
	return []string{typeURL, value}
}

func (Any) Decode(parts []string) (any, error) {
	return map[string]any{
		"type_url": strings.TrimSpace(part(parts, 0)),
		"value":    strings.TrimSpace(part(parts, 1)),
	}, nil
}

// NullValue always shows a read-only "null".
type NullValue struct{}

func (NullValue) Inputs() []Input {
	return []Input{{Name: "null", Label: "null", ReadOnly: true}}
}

func (NullValue) ToEditable(any) []string { return []string{"null"} }

func (NullValue) Decode([]string) (any, error) { return nullWire(), nil }
