// Package schema describes the shape of a request message as a tree of field
// descriptors. A Schema is produced once per reflection fetch (see FromMessage)
// and is read-only afterwards; the form engine walks it to decide how every
// field is edited and where its value lives.
package schema

import "fmt"

// Kind is the scalar family of a field.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindBytes
	KindInt
	KindUint
	KindSint
	KindDouble
	KindFloat
	KindFixed
	KindBool
	KindEnum
	KindMessage
)

var kindNames = map[Kind]string{
	KindUnknown: "UNKNOWN",
	KindString:  "STRING",
	KindBytes:   "BYTES",
	KindInt:     "INT",
	KindUint:    "UINT",
	KindSint:    "SINT",
	KindDouble:  "DOUBLE",
	KindFloat:   "FLOAT",
	KindFixed:   "FIXED",
	KindBool:    "BOOL",
	KindEnum:    "ENUM",
	KindMessage: "MESSAGE",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Numeric reports whether the kind is one of the integer families, which
// share numeric-input behavior.
func (k Kind) Numeric() bool {
	switch k {
	case KindInt, KindUint, KindSint, KindFixed:
		return true
	}
	return false
}

// Float reports whether the kind holds floating point values.
func (k Kind) Float() bool {
	return k == KindDouble || k == KindFloat
}

// WellKnownType tags a field whose message type has a dedicated editor.
type WellKnownType int

const (
	WKTNone WellKnownType = iota
	WKTTimestamp
	WKTDuration
	WKTStruct
	WKTValue
	WKTListValue
	WKTAny
	WKTNullValue
)

var wellKnownNames = map[WellKnownType]string{
	WKTNone:      "",
	WKTTimestamp: "Timestamp",
	WKTDuration:  "Duration",
	WKTStruct:    "Struct",
	WKTValue:     "Value",
	WKTListValue: "ListValue",
	WKTAny:       "Any",
	WKTNullValue: "NullValue",
}

func (w WellKnownType) String() string {
	if name, ok := wellKnownNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WellKnownType(%d)", int(w))
}

// wellKnownByFullName maps protobuf full names to their tag. NullValue is an
// enum, the rest are messages.
var wellKnownByFullName = map[string]WellKnownType{
	"google.protobuf.Timestamp": WKTTimestamp,
	"google.protobuf.Duration":  WKTDuration,
	"google.protobuf.Struct":    WKTStruct,
	"google.protobuf.Value":     WKTValue,
	"google.protobuf.ListValue": WKTListValue,
	"google.protobuf.Any":       WKTAny,
	"google.protobuf.NullValue": WKTNullValue,
}

// WellKnownFor returns the tag for a protobuf full name, or WKTNone.
func WellKnownFor(fullName string) WellKnownType {
	return wellKnownByFullName[fullName]
}

// EnumValue is one valid value of an enum field.
type EnumValue struct {
	Name   string
	Number int32
}

// FieldSchema describes one field. Nested is set iff Kind is KindMessage;
// EnumValues is set iff Kind is KindEnum.
type FieldSchema struct {
	// Name is the key under which the value is stored in the parent container.
	Name string
	// JSONName is the lowerCamel protobuf JSON name, used to accept input
	// written by protojson.
	JSONName    string
	Kind        Kind
	// Bits is 32 or 64 for integer kinds and 0 otherwise.
	Bits int
	// Signed is set for integer kinds that accept negative values.
	Signed      bool
	Repeated    bool
	EnumValues  []EnumValue
	Nested      *Schema
	WellKnown   WellKnownType
	Required    bool // presentation only
	Description string
	// Oneof names the oneof group the field belongs to, if any.
	Oneof string
}

// IsMap reports whether the field is a map, i.e. a repeated message whose
// nested schema is exactly {key, value}.
func (f *FieldSchema) IsMap() bool {
	if f == nil || !f.Repeated || f.Kind != KindMessage || f.Nested == nil {
		return false
	}
	if len(f.Nested.Fields) != 2 {
		return false
	}
	return f.Nested.Fields[0].Name == "key" && f.Nested.Fields[1].Name == "value"
}

// EnumName returns the name registered for number.
func (f *FieldSchema) EnumName(number int32) (string, bool) {
	for _, ev := range f.EnumValues {
		if ev.Number == number {
			return ev.Name, true
		}
	}
	return "", false
}

// HasEnumName reports whether name is one of the field's enum values.
func (f *FieldSchema) HasEnumName(name string) bool {
	for _, ev := range f.EnumValues {
		if ev.Name == name {
			return true
		}
	}
	return false
}

// Schema is an ordered list of fields describing one message type.
type Schema struct {
	FullName string
	Fields   []*FieldSchema
}

// Field returns the field with the given name, or nil.
func (s *Schema) Field(name string) *FieldSchema {
	if s == nil {
		return nil
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldByJSONName returns the field whose JSON name matches, or nil.
func (s *Schema) FieldByJSONName(name string) *FieldSchema {
	if s == nil {
		return nil
	}
	for _, f := range s.Fields {
		if f.JSONName != "" && f.JSONName == name {
			return f
		}
	}
	return nil
}

// OneofSiblings returns the other fields of s that share f's oneof.
func (s *Schema) OneofSiblings(f *FieldSchema) []*FieldSchema {
	if s == nil || f == nil || f.Oneof == "" {
		return nil
	}
	var out []*FieldSchema
	for _, other := range s.Fields {
		if other != f && other.Oneof == f.Oneof {
			out = append(out, other)
		}
	}
	return out
}
