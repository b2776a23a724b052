// Package formats provides additional output formats for grpc-form.
package formats

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"

	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/fieldpath"
)

// tableFormat renders values as tab-separated columns.
//
// The first call to Format emits a header row followed by the data row.
// Subsequent calls emit data rows only.
//
// The headerSent state resets per-process, which is correct for CLI usage
// (one command per process).
type tableFormat struct {
	mu         sync.Mutex
	headerSent bool
}

func (f *tableFormat) Name() string {
	return "table"
}

func (f *tableFormat) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-header",
			Usage: "Suppress the header row in table output",
		},
	}
}

func (f *tableFormat) Format(_ context.Context, cmd *cli.Command, w io.Writer, value map[string]any) error {
	flat := make(map[string]any)
	flatten("", value, flat)

	keys := sortedKeys(flat)

	f.mu.Lock()
	needHeader := !f.headerSent && (cmd == nil || !cmd.Bool("no-header"))
	f.headerSent = true
	f.mu.Unlock()

	if needHeader {
		if _, err := fmt.Fprintln(w, strings.Join(keys, "\t")); err != nil {
			return err
		}
	}

	vals := make([]string, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, formatValue(flat[k]))
	}

	_, err := fmt.Fprintln(w, strings.Join(vals, "\t"))

	return err
}

// Table returns an OutputFormat that renders values as tab-separated columns.
//
// Features:
//   - Column keys are field paths, e.g. "items[0].sku" or "deliver_at.seconds"
//   - Lists of scalars are rendered as comma-separated values
//   - Sorted column keys for deterministic output
//   - Supports --no-header flag to suppress the header row
//   - Tab-separated output is composable with `column -t`
func Table() grpcclient.OutputFormat {
	return &tableFormat{}
}

// flatten collects the leaves of data under field path keys.
func flatten(prefix string, data any, out map[string]any) {
	switch val := data.(type) {
	case map[string]any:
		for k, v := range val {
			flatten(fieldpath.Join(prefix, k), v, out)
		}
	case []any:
		if scalars(val) {
			out[prefix] = val
			return
		}
		for i, v := range val {
			flatten(fieldpath.Index(prefix, i), v, out)
		}
	default:
		out[prefix] = val
	}
}

func scalars(list []any) bool {
	for _, v := range list {
		switch v.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

// sortedKeys returns the keys of a map in sorted order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// formatValue converts a value to its string representation for table output.
// Slices are rendered as comma-separated values, nil as empty string.
func formatValue(v any) string {
	if v == nil {
		return ""
	}

	if slice, ok := v.([]any); ok {
		parts := make([]string, 0, len(slice))
		for _, item := range slice {
			parts = append(parts, formatValue(item))
		}

		return strings.Join(parts, ",")
	}

	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return fmt.Sprintf("%v", v)
}
