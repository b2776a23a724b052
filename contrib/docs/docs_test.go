package docs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bhagwati-web/grpc-client/internal/testpb"
	"github.com/bhagwati-web/grpc-client/schema"
)

func TestMarkdown_Request(t *testing.T) {
	out := Markdown(schema.FromMessage(testpb.Request()))

	if !strings.HasPrefix(out, "# "+testpb.OrderRequest+"\n") {
		t.Errorf("expected message title, got %q", out[:min(len(out), 40)])
	}
	for _, want := range []string{
		"| Field | JSON | Type | Notes |",
		"| `customer` | `customer` | string |  |",
		"| `deliver_at` | `deliverAt` | google.protobuf.Timestamp |  |",
		"| `labels` | `labels` | map<string, string> |  |",
		"| `card` | `card` | string | oneof `payment` |",
		"one of `PRIORITY_UNSPECIFIED`, `PRIORITY_LOW`, `PRIORITY_HIGH`",
		"## example.v1.Item",
		"| `sku` | `sku` | string |  |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestMarkdown_RecursiveTypeOnce(t *testing.T) {
	out := Markdown(schema.FromMessage(testpb.Request()))

	if n := strings.Count(out, "## example.v1.Item"); n != 1 {
		t.Errorf("expected one section for the recursive item type, got %d", n)
	}
	if strings.Contains(out, "## "+testpb.OrderRequest) {
		t.Error("root message should not get a second section")
	}
}

func TestMarkdown_WithTitle(t *testing.T) {
	out := Markdown(schema.FromMessage(testpb.Request()), WithTitle("PlaceOrder input"))

	if !strings.HasPrefix(out, "# PlaceOrder input\n") {
		t.Error("expected custom title")
	}
}

func TestMarkdown_EscapesPipes(t *testing.T) {
	s := &schema.Schema{
		FullName: "example.v1.Pipes",
		Fields: []*schema.FieldSchema{
			{Name: "note", JSONName: "note", Kind: schema.KindString, Description: "a | b\n  c", Required: true},
		},
	}
	out := Markdown(s)

	if !strings.Contains(out, "| `note` | `note` | string | **required**; a \\| b c |") {
		t.Errorf("expected escaped, single-line notes:\n%s", out)
	}
}

func TestMarkdown_EmptyMessage(t *testing.T) {
	out := Markdown(&schema.Schema{FullName: "google.protobuf.Empty"})

	if !strings.Contains(out, "_No fields._") {
		t.Error("expected placeholder for a message without fields")
	}
}

func TestFormat(t *testing.T) {
	f := Format()
	if f.Name() != "markdown" {
		t.Errorf("expected name markdown, got %q", f.Name())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf, schema.FromMessage(testpb.Request())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "## example.v1.Item") {
		t.Error("expected nested sections")
	}
}
