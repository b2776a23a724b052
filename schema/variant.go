package schema

import (
	"fmt"
	"strings"
)

// Variant is the closed set of editor shapes a field can take. Consumers
// switch over the concrete types and must keep a default branch that renders
// Unsupported, so a new variant never silently disappears from a form.
type Variant interface {
	isVariant()
}

// Scalar is a single string, bytes, numeric or bool input.
type Scalar struct{ Kind Kind }

// Enum is a choice among named values.
type Enum struct{ Values []EnumValue }

// Message is a nested group of fields.
type Message struct{ Schema *Schema }

// Map is a list of key/value rows.
type Map struct{ Key, Value *FieldSchema }

// Repeated is a list of items of the inner variant.
type Repeated struct{ Inner Variant }

// WellKnown is a field with a specialized transcoder.
type WellKnown struct{ Type WellKnownType }

// Unsupported is rendered as a visible placeholder naming what is missing.
type Unsupported struct{ Reason string }

func (Scalar) isVariant()      {}
func (Enum) isVariant()        {}
func (Message) isVariant()     {}
func (Map) isVariant()         {}
func (Repeated) isVariant()    {}
func (WellKnown) isVariant()   {}
func (Unsupported) isVariant() {}

// Classify maps a field onto its variant. Repetition wraps the element
// variant, except for maps which are their own variant.
func Classify(f *FieldSchema) Variant {
	if f == nil {
		return Unsupported{Reason: "missing field schema"}
	}
	if f.IsMap() {
		return Map{Key: f.Nested.Fields[0], Value: f.Nested.Fields[1]}
	}
	inner := classifyElement(f)
	if f.Repeated {
		if _, bad := inner.(Unsupported); bad {
			return inner
		}
		return Repeated{Inner: inner}
	}
	return inner
}

func classifyElement(f *FieldSchema) Variant {
	if f.WellKnown != WKTNone {
		if _, known := wellKnownNames[f.WellKnown]; !known {
			return Unsupported{Reason: fmt.Sprintf("unsupported well-known type %s", f.WellKnown)}
		}
		return WellKnown{Type: f.WellKnown}
	}
	switch f.Kind {
	case KindString, KindBytes, KindInt, KindUint, KindSint,
		KindDouble, KindFloat, KindFixed, KindBool:
		return Scalar{Kind: f.Kind}
	case KindEnum:
		return Enum{Values: f.EnumValues}
	case KindMessage:
		if f.Nested == nil {
			return Unsupported{Reason: "message field without nested schema"}
		}
		return Message{Schema: f.Nested}
	default:
		return Unsupported{Reason: fmt.Sprintf("unsupported field kind %s", f.Kind)}
	}
}

// TypeName renders the field type in proto notation, e.g. "repeated string",
// "map<string, example.v1.Item>" or "google.protobuf.Timestamp".
func (f *FieldSchema) TypeName() string {
	switch v := Classify(f).(type) {
	case Map:
		return fmt.Sprintf("map<%s, %s>", v.Key.elementName(), v.Value.elementName())
	case Repeated:
		return "repeated " + f.elementName()
	case Unsupported:
		return "unsupported (" + v.Reason + ")"
	default:
		return f.elementName()
	}
}

func (f *FieldSchema) elementName() string {
	switch {
	case f.WellKnown != WKTNone:
		return "google.protobuf." + f.WellKnown.String()
	case f.Kind == KindMessage && f.Nested != nil:
		return f.Nested.FullName
	default:
		return strings.ToLower(f.Kind.String())
	}
}

// ValueSchema returns the schema of the messages the field holds: its own
// nested schema, the item schema of a repeated message, or the value schema
// of a map. It is nil for everything else.
func (f *FieldSchema) ValueSchema() *Schema {
	switch v := Classify(f).(type) {
	case Message:
		return v.Schema
	case Repeated:
		if m, ok := v.Inner.(Message); ok {
			return m.Schema
		}
	case Map:
		if m, ok := Classify(v.Value).(Message); ok {
			return m.Schema
		}
	}
	return nil
}
