package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bhagwati-web/grpc-client/internal/testpb"
	"github.com/bhagwati-web/grpc-client/schema"
)

func TestUnit_FromMessage(t *testing.T) {
	s := schema.FromMessage(testpb.Request())
	require.NotNil(t, s)
	assert.Equal(t, testpb.OrderRequest, s.FullName)
	require.Len(t, s.Fields, 21)

	t.Run("scalar kinds", func(t *testing.T) {
		cases := map[string]schema.Kind{
			"customer": schema.KindString,
			"discount": schema.KindDouble,
			"gift":     schema.KindBool,
			"note":     schema.KindBytes,
			"batch":    schema.KindUint,
			"offset":   schema.KindSint,
			"checksum": schema.KindFixed,
			"weight":   schema.KindFloat,
		}
		for name, kind := range cases {
			f := s.Field(name)
			require.NotNil(t, f, name)
			assert.Equal(t, kind, f.Kind, name)
			assert.False(t, f.Repeated, name)
		}
	})

	t.Run("integer widths", func(t *testing.T) {
		cases := []struct {
			name   string
			bits   int
			signed bool
		}{
			{"batch", 64, false},
			{"offset", 32, true},
			{"checksum", 64, false},
			{"customer", 0, false},
		}
		for _, tt := range cases {
			f := s.Field(tt.name)
			require.NotNil(t, f, tt.name)
			assert.Equal(t, tt.bits, f.Bits, tt.name)
			assert.Equal(t, tt.signed, f.Signed, tt.name)
		}
		quantity := s.Field("items").Nested.Field("quantity")
		assert.Equal(t, 32, quantity.Bits)
		assert.True(t, quantity.Signed)
	})

	t.Run("json names", func(t *testing.T) {
		f := s.FieldByJSONName("deliverAt")
		require.NotNil(t, f)
		assert.Equal(t, "deliver_at", f.Name)
	})

	t.Run("enum values", func(t *testing.T) {
		f := s.Field("priority")
		require.NotNil(t, f)
		assert.Equal(t, schema.KindEnum, f.Kind)
		require.Len(t, f.EnumValues, 3)
		assert.Equal(t, schema.EnumValue{Name: "PRIORITY_HIGH", Number: 2}, f.EnumValues[2])
		name, ok := f.EnumName(1)
		assert.True(t, ok)
		assert.Equal(t, "PRIORITY_LOW", name)
		assert.True(t, f.HasEnumName("PRIORITY_UNSPECIFIED"))
		assert.False(t, f.HasEnumName("PRIORITY_URGENT"))
	})

	t.Run("map field", func(t *testing.T) {
		f := s.Field("labels")
		require.NotNil(t, f)
		assert.True(t, f.Repeated)
		assert.True(t, f.IsMap())
		assert.False(t, s.Field("items").IsMap())
	})

	t.Run("well-known tags", func(t *testing.T) {
		cases := map[string]schema.WellKnownType{
			"deliver_at": schema.WKTTimestamp,
			"ttl":        schema.WKTDuration,
			"metadata":   schema.WKTStruct,
			"extra":      schema.WKTValue,
			"history":    schema.WKTListValue,
			"attachment": schema.WKTAny,
			"nothing":    schema.WKTNullValue,
			"customer":   schema.WKTNone,
		}
		for name, wkt := range cases {
			assert.Equal(t, wkt, s.Field(name).WellKnown, name)
		}
	})

	t.Run("recursive types share a schema", func(t *testing.T) {
		items := s.Field("items")
		require.NotNil(t, items.Nested)
		bundled := items.Nested.Field("bundled")
		require.NotNil(t, bundled)
		assert.Same(t, items.Nested, bundled.Nested)
	})

	t.Run("oneof siblings", func(t *testing.T) {
		card := s.Field("card")
		assert.Equal(t, "payment", card.Oneof)
		siblings := s.OneofSiblings(card)
		require.Len(t, siblings, 1)
		assert.Equal(t, "voucher", siblings[0].Name)
		assert.Empty(t, s.OneofSiblings(s.Field("customer")))
	})
}

func TestUnit_FromMessage_WellKnownDescriptors(t *testing.T) {
	t.Run("struct fields map", func(t *testing.T) {
		s := schema.FromMessage((&structpb.Struct{}).ProtoReflect().Descriptor())
		f := s.Field("fields")
		require.NotNil(t, f)
		assert.True(t, f.IsMap())
		m, ok := schema.Classify(f).(schema.Map)
		require.True(t, ok)
		assert.Equal(t, schema.KindString, m.Key.Kind)
		assert.Equal(t, schema.WKTValue, m.Value.WellKnown)
	})

	t.Run("proto2 required", func(t *testing.T) {
		s := schema.FromMessage((&descriptorpb.UninterpretedOption_NamePart{}).ProtoReflect().Descriptor())
		assert.True(t, s.Field("name_part").Required)
		assert.True(t, s.Field("is_extension").Required)
	})

	t.Run("self recursion terminates", func(t *testing.T) {
		s := schema.FromMessage((&descriptorpb.DescriptorProto{}).ProtoReflect().Descriptor())
		nested := s.Field("nested_type")
		require.NotNil(t, nested)
		assert.Same(t, s, nested.Nested)
	})
}

func TestUnit_Classify(t *testing.T) {
	s := schema.FromMessage(testpb.Request())

	tests := []struct {
		field string
		want  schema.Variant
	}{
		{"customer", schema.Scalar{Kind: schema.KindString}},
		{"discount", schema.Scalar{Kind: schema.KindDouble}},
		{"tags", schema.Repeated{Inner: schema.Scalar{Kind: schema.KindString}}},
		{"deliver_at", schema.WellKnown{Type: schema.WKTTimestamp}},
		{"nothing", schema.WellKnown{Type: schema.WKTNullValue}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.Classify(s.Field(tt.field)))
		})
	}

	t.Run("enum", func(t *testing.T) {
		e, ok := schema.Classify(s.Field("priority")).(schema.Enum)
		require.True(t, ok)
		assert.Len(t, e.Values, 3)
	})

	t.Run("repeated message", func(t *testing.T) {
		r, ok := schema.Classify(s.Field("items")).(schema.Repeated)
		require.True(t, ok)
		m, ok := r.Inner.(schema.Message)
		require.True(t, ok)
		assert.Equal(t, "example.v1.Item", m.Schema.FullName)
	})

	t.Run("map", func(t *testing.T) {
		m, ok := schema.Classify(s.Field("labels")).(schema.Map)
		require.True(t, ok)
		assert.Equal(t, "key", m.Key.Name)
		assert.Equal(t, "value", m.Value.Name)
	})

	t.Run("unknown kind is unsupported", func(t *testing.T) {
		v := schema.Classify(&schema.FieldSchema{Name: "legacy", Kind: schema.KindUnknown})
		u, ok := v.(schema.Unsupported)
		require.True(t, ok)
		assert.Contains(t, u.Reason, "UNKNOWN")
	})

	t.Run("unknown well-known tag is unsupported", func(t *testing.T) {
		v := schema.Classify(&schema.FieldSchema{Name: "x", Kind: schema.KindMessage, WellKnown: schema.WellKnownType(99)})
		u, ok := v.(schema.Unsupported)
		require.True(t, ok)
		assert.Contains(t, u.Reason, "WellKnownType(99)")
	})

	t.Run("repeated unsupported stays unsupported", func(t *testing.T) {
		v := schema.Classify(&schema.FieldSchema{Name: "x", Kind: schema.KindMessage, Repeated: true})
		assert.IsType(t, schema.Unsupported{}, v)
	})

	t.Run("key value message that is not repeated is a message", func(t *testing.T) {
		nested := &schema.Schema{Fields: []*schema.FieldSchema{
			{Name: "key", Kind: schema.KindString},
			{Name: "value", Kind: schema.KindString},
		}}
		v := schema.Classify(&schema.FieldSchema{Name: "pair", Kind: schema.KindMessage, Nested: nested})
		assert.IsType(t, schema.Message{}, v)
	})
}

func TestUnit_KindHelpers(t *testing.T) {
	assert.True(t, schema.KindFixed.Numeric())
	assert.True(t, schema.KindSint.Numeric())
	assert.False(t, schema.KindDouble.Numeric())
	assert.True(t, schema.KindFloat.Float())
	assert.Equal(t, "MESSAGE", schema.KindMessage.String())
	assert.Equal(t, "Timestamp", schema.WKTTimestamp.String())
	assert.Equal(t, schema.WKTAny, schema.WellKnownFor("google.protobuf.Any"))
	assert.Equal(t, schema.WKTNone, schema.WellKnownFor("example.v1.Item"))
}

func TestUnit_FieldSchema_TypeName(t *testing.T) {
	s := schema.FromMessage(testpb.Request())
	tests := map[string]string{
		"customer":   "string",
		"tags":       "repeated string",
		"items":      "repeated example.v1.Item",
		"labels":     "map<string, string>",
		"deliver_at": "google.protobuf.Timestamp",
		"priority":   "enum",
		"batch":      "uint",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, s.Field(name).TypeName())
		})
	}

	t.Run("value schema", func(t *testing.T) {
		assert.Equal(t, "example.v1.Item", s.Field("items").ValueSchema().FullName)
		assert.Nil(t, s.Field("labels").ValueSchema())
		assert.Nil(t, s.Field("customer").ValueSchema())
		item := s.Field("items").ValueSchema()
		assert.Same(t, item, item.Field("bundled").ValueSchema())
	})
}
