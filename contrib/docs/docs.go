// Package docs renders message schemas as markdown reference tables.
package docs

import (
	"fmt"
	"io"
	"strings"

	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/schema"
)

type markdownConfig struct {
	title string
}

// MarkdownOption configures markdown generation.
type MarkdownOption func(*markdownConfig)

// WithTitle overrides the default title (the message name) in the generated markdown.
func WithTitle(title string) MarkdownOption {
	return func(c *markdownConfig) {
		c.title = title
	}
}

// Markdown generates reference documentation for s: one field table for the
// message and one for every message type reachable from it, each type once.
func Markdown(s *schema.Schema, opts ...MarkdownOption) string {
	cfg := &markdownConfig{
		title: s.FullName,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cfg.title)
	writeFieldTable(&b, s)

	seen := map[*schema.Schema]bool{s: true}
	queue := nestedSchemas(s, seen)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		fmt.Fprintf(&b, "\n## %s\n\n", next.FullName)
		writeFieldTable(&b, next)
		queue = append(queue, nestedSchemas(next, seen)...)
	}

	return b.String()
}

// Format returns the "markdown" style of the describe command.
func Format(opts ...MarkdownOption) grpcclient.SchemaFormat {
	return grpcclient.SchemaFormatFunc("markdown", func(w io.Writer, s *schema.Schema) error {
		_, err := io.WriteString(w, Markdown(s, opts...))
		return err
	})
}

func nestedSchemas(s *schema.Schema, seen map[*schema.Schema]bool) []*schema.Schema {
	var out []*schema.Schema
	for _, fld := range s.Fields {
		nested := fld.ValueSchema()
		if nested == nil || seen[nested] {
			continue
		}
		seen[nested] = true
		out = append(out, nested)
	}
	return out
}

func writeFieldTable(b *strings.Builder, s *schema.Schema) {
	if len(s.Fields) == 0 {
		b.WriteString("_No fields._\n")
		return
	}

	b.WriteString("| Field | JSON | Type | Notes |\n")
	b.WriteString("| --- | --- | --- | --- |\n")

	for _, fld := range s.Fields {
		var notes []string
		if fld.Required {
			notes = append(notes, "**required**")
		}
		if fld.Oneof != "" {
			notes = append(notes, "oneof `"+fld.Oneof+"`")
		}
		if fld.Kind == schema.KindEnum && fld.WellKnown == schema.WKTNone && len(fld.EnumValues) > 0 {
			names := make([]string, len(fld.EnumValues))
			for i, ev := range fld.EnumValues {
				names[i] = "`" + ev.Name + "`"
			}
			notes = append(notes, "one of "+strings.Join(names, ", "))
		}
		if fld.Description != "" {
			notes = append(notes, oneLine(fld.Description))
		}

		fmt.Fprintf(b, "| `%s` | `%s` | %s | %s |\n",
			fld.Name, fld.JSONName, escPipe(fld.TypeName()), escPipe(strings.Join(notes, "; ")))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// escPipe escapes pipe characters for markdown table safety.
func escPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
