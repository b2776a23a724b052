package form

import (
	"fmt"
	"strconv"

	"github.com/bhagwati-web/grpc-client/fieldpath"
	"github.com/bhagwati-web/grpc-client/schema"
	"github.com/bhagwati-web/grpc-client/wkt"
)

// Node is one row of the rendered form tree.
type Node struct {
	Path  string
	Label string
	Depth int
	// Field is nil for item rows of repeated and map fields.
	Field   *schema.FieldSchema
	Variant schema.Variant
	// Item is the index of an item row, or -1.
	Item     int
	Enabled  bool
	Expanded bool
	Present  bool
	Value    any
	// Inputs lists the text inputs of a well-known editor.
	Inputs []wkt.Input
	// Display holds one text per input: the formatted scalar, the enum name
	// or the transcoder output.
	Display []string
	Items   []ItemID
	// Children is only filled for enabled, expanded nodes.
	Children []Node
	// Placeholder names what cannot be edited for unsupported fields.
	Placeholder string
}

// Render walks the schema and returns the visible tree. Message fields are
// descended into one level per expansion, so recursive schemas are safe.
func (f *Form) Render() []Node {
	return f.renderFields(f.schema, "", 0)
}

func (f *Form) renderFields(s *schema.Schema, container string, depth int) []Node {
	if s == nil {
		return nil
	}
	nodes := make([]Node, 0, len(s.Fields))
	for _, fld := range s.Fields {
		p := fieldpath.Join(container, fld.Name)
		st := f.states[p]
		n := Node{
			Path:     p,
			Label:    fld.Name,
			Depth:    depth,
			Field:    fld,
			Variant:  schema.Classify(fld),
			Item:     -1,
			Enabled:  st.Enabled,
			Expanded: st.Expanded,
			Items:    st.Items,
		}
		n.Value, n.Present = fieldpath.Get(f.value, p)
		f.dispatch(&n, fld)
		nodes = append(nodes, n)
	}
	return nodes
}

// dispatch fills the variant specific parts of n.
func (f *Form) dispatch(n *Node, fld *schema.FieldSchema) {
	open := n.Enabled && n.Expanded
	switch v := n.Variant.(type) {
	case schema.Scalar:
		n.Display = []string{FormatScalar(fld, n.Value)}
	case schema.Enum:
		n.Display = []string{FormatScalar(fld, n.Value)}
	case schema.WellKnown:
		f.wellKnown(n, v.Type)
	case schema.Message:
		if open {
			n.Children = f.renderFields(v.Schema, n.Path, n.Depth+1)
		}
	case schema.Repeated:
		if open {
			n.Children = f.renderItems(n, fld, v.Inner)
		}
	case schema.Map:
		if open {
			n.Children = f.renderRows(n, v)
		}
	case schema.Unsupported:
		n.Placeholder = v.Reason
	default:
		n.Placeholder = fmt.Sprintf("unsupported field %T", v)
	}
}

func (f *Form) wellKnown(n *Node, w schema.WellKnownType) {
	tc, ok := f.transcoder(w)
	if !ok {
		n.Placeholder = fmt.Sprintf("unsupported well-known type %s", w)
		return
	}
	n.Inputs = tc.Inputs()
	if n.Present || w == schema.WKTNullValue {
		n.Display = tc.ToEditable(n.Value)
	} else {
		n.Display = make([]string, len(n.Inputs))
	}
}

func (f *Form) renderItems(parent *Node, fld *schema.FieldSchema, inner schema.Variant) []Node {
	items := make([]Node, 0, len(parent.Items))
	for i := range parent.Items {
		p := fieldpath.Index(parent.Path, i)
		st := f.states[p]
		n := Node{
			Path:     p,
			Label:    "[" + strconv.Itoa(i) + "]",
			Depth:    parent.Depth + 1,
			Variant:  inner,
			Item:     i,
			Enabled:  true,
			Expanded: st.Expanded,
		}
		n.Value, n.Present = fieldpath.Get(f.value, p)
		f.dispatch(&n, fld)
		items = append(items, n)
	}
	return items
}

func (f *Form) renderRows(parent *Node, m schema.Map) []Node {
	rows := make([]Node, 0, len(parent.Items))
	for i := range parent.Items {
		p := fieldpath.Index(parent.Path, i)
		row := Node{
			Path:     p,
			Label:    "[" + strconv.Itoa(i) + "]",
			Depth:    parent.Depth + 1,
			Variant:  schema.Message{Schema: parent.Field.Nested},
			Item:     i,
			Enabled:  true,
			Expanded: true,
		}
		row.Value, row.Present = fieldpath.Get(f.value, p)
		for _, fld := range []*schema.FieldSchema{m.Key, m.Value} {
			cp := fieldpath.Join(p, fld.Name)
			c := Node{
				Path:     cp,
				Label:    fld.Name,
				Depth:    row.Depth + 1,
				Field:    fld,
				Variant:  schema.Classify(fld),
				Item:     -1,
				Enabled:  true,
				Expanded: f.states[cp].Expanded,
			}
			c.Value, c.Present = fieldpath.Get(f.value, cp)
			f.dispatch(&c, fld)
			row.Children = append(row.Children, c)
		}
		rows = append(rows, row)
	}
	return rows
}
