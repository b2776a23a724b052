package grpcclient

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/bhagwati-web/grpc-client/schema"
)

// SchemaFormat renders a schema for the describe command.
type SchemaFormat interface {
	Name() string
	Write(w io.Writer, s *schema.Schema) error
}

// SchemaFormatFunc adapts a function to SchemaFormat.
func SchemaFormatFunc(name string, fn func(io.Writer, *schema.Schema) error) SchemaFormat {
	return schemaFormatFunc{name: name, fn: fn}
}

type schemaFormatFunc struct {
	name string
	fn   func(io.Writer, *schema.Schema) error
}

func (f schemaFormatFunc) Name() string                              { return f.name }
func (f schemaFormatFunc) Write(w io.Writer, s *schema.Schema) error { return f.fn(w, s) }

// TextSchema returns the indented tree written by WriteSchema.
func TextSchema() SchemaFormat {
	return SchemaFormatFunc("text", WriteSchema)
}

func findSchemaFormat(formats []SchemaFormat, name string) (SchemaFormat, error) {
	for _, f := range formats {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown describe style %q (available: %v)", name, schemaFormatNames(formats))
}

func schemaFormatNames(formats []SchemaFormat) []string {
	return lo.Map(formats, func(f SchemaFormat, _ int) string { return f.Name() })
}

// WriteSchema prints s as an indented field tree, one field per line:
//
//	example.v1.OrderRequest
//	  customer string
//	  items repeated example.v1.Item
//	    sku string
//	  labels map<string, string>
//	  deliver_at google.protobuf.Timestamp
//
// A message type that contains itself is expanded once.
func WriteSchema(w io.Writer, s *schema.Schema) error {
	if _, err := fmt.Fprintln(w, s.FullName); err != nil {
		return err
	}
	return writeFields(w, s, 1, map[*schema.Schema]bool{s: true})
}

func writeFields(w io.Writer, s *schema.Schema, depth int, open map[*schema.Schema]bool) error {
	indent := strings.Repeat("  ", depth)
	for _, fld := range s.Fields {
		line := indent + fld.Name + " " + fld.TypeName() + annotations(fld)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		nested := fld.ValueSchema()
		if nested == nil {
			continue
		}
		if open[nested] {
			if _, err := fmt.Fprintf(w, "%s  (%s, see above)\n", indent, nested.FullName); err != nil {
				return err
			}
			continue
		}
		open[nested] = true
		if err := writeFields(w, nested, depth+1, open); err != nil {
			return err
		}
		delete(open, nested)
	}
	return nil
}

func annotations(fld *schema.FieldSchema) string {
	var notes []string
	if fld.Required {
		notes = append(notes, "required")
	}
	if fld.Oneof != "" {
		notes = append(notes, "oneof "+fld.Oneof)
	}
	if fld.Kind == schema.KindEnum && fld.WellKnown == schema.WKTNone {
		notes = append(notes, strings.Join(lo.Map(fld.EnumValues, func(v schema.EnumValue, _ int) string {
			return v.Name
		}), "|"))
	}
	if len(notes) == 0 {
		return ""
	}
	return " [" + strings.Join(notes, ", ") + "]"
}
