package schema

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// FromMessage builds a Schema from a protobuf message descriptor.
//
// Recursive message types resolve to the same *Schema value, so the result is
// a finite graph. Anything walking it must do so lazily (one level per
// expansion) rather than eagerly descending.
func FromMessage(md protoreflect.MessageDescriptor) *Schema {
	b := &builder{seen: make(map[protoreflect.FullName]*Schema)}
	return b.message(md)
}

type builder struct {
	seen map[protoreflect.FullName]*Schema
}

func (b *builder) message(md protoreflect.MessageDescriptor) *Schema {
	if s, ok := b.seen[md.FullName()]; ok {
		return s
	}
	s := &Schema{FullName: string(md.FullName())}
	// Register before descending so self references terminate.
	b.seen[md.FullName()] = s

	fields := md.Fields()
	s.Fields = make([]*FieldSchema, 0, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		s.Fields = append(s.Fields, b.field(fields.Get(i)))
	}
	return s
}

func (b *builder) field(fd protoreflect.FieldDescriptor) *FieldSchema {
	f := &FieldSchema{
		Name:        string(fd.Name()),
		JSONName:    fd.JSONName(),
		Kind:        kindOf(fd.Kind()),
		Bits:        bitsOf(fd.Kind()),
		Signed:      signed(fd.Kind()),
		Repeated:    fd.IsList() || fd.IsMap(),
		Required:    fd.Cardinality() == protoreflect.Required,
		Description: comments(fd),
	}
	if oneof := fd.ContainingOneof(); oneof != nil && !oneof.IsSynthetic() {
		f.Oneof = string(oneof.Name())
	}

	switch fd.Kind() {
	case protoreflect.EnumKind:
		ed := fd.Enum()
		f.WellKnown = WellKnownFor(string(ed.FullName()))
		values := ed.Values()
		f.EnumValues = make([]EnumValue, 0, values.Len())
		for i := 0; i < values.Len(); i++ {
			v := values.Get(i)
			f.EnumValues = append(f.EnumValues, EnumValue{Name: string(v.Name()), Number: int32(v.Number())})
		}
	case protoreflect.MessageKind:
		md := fd.Message()
		f.WellKnown = WellKnownFor(string(md.FullName()))
		f.Nested = b.message(md)
	}
	return f
}

func bitsOf(k protoreflect.Kind) int {
	switch k {
	case protoreflect.Int32Kind, protoreflect.Uint32Kind, protoreflect.Sint32Kind,
		protoreflect.Fixed32Kind, protoreflect.Sfixed32Kind:
		return 32
	case protoreflect.Int64Kind, protoreflect.Uint64Kind, protoreflect.Sint64Kind,
		protoreflect.Fixed64Kind, protoreflect.Sfixed64Kind:
		return 64
	}
	return 0
}

func signed(k protoreflect.Kind) bool {
	switch k {
	case protoreflect.Int32Kind, protoreflect.Int64Kind, protoreflect.Sint32Kind,
		protoreflect.Sint64Kind, protoreflect.Sfixed32Kind, protoreflect.Sfixed64Kind:
		return true
	}
	return false
}

func kindOf(k protoreflect.Kind) Kind {
	switch k {
	case protoreflect.StringKind:
		return KindString
	case protoreflect.BytesKind:
		return KindBytes
	case protoreflect.Int32Kind, protoreflect.Int64Kind:
		return KindInt
	case protoreflect.Uint32Kind, protoreflect.Uint64Kind:
		return KindUint
	case protoreflect.Sint32Kind, protoreflect.Sint64Kind:
		return KindSint
	case protoreflect.Fixed32Kind, protoreflect.Fixed64Kind,
		protoreflect.Sfixed32Kind, protoreflect.Sfixed64Kind:
		return KindFixed
	case protoreflect.DoubleKind:
		return KindDouble
	case protoreflect.FloatKind:
		return KindFloat
	case protoreflect.BoolKind:
		return KindBool
	case protoreflect.EnumKind:
		return KindEnum
	case protoreflect.MessageKind:
		return KindMessage
	default:
		// GroupKind and anything newer.
		return KindUnknown
	}
}

func comments(d protoreflect.Descriptor) string {
	file := d.ParentFile()
	if file == nil {
		return ""
	}
	loc := file.SourceLocations().ByDescriptor(d)
	return strings.TrimSpace(loc.LeadingComments)
}
