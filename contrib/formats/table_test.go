package formats_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/contrib/formats"
)

// newTestCommand creates a minimal cli.Command for testing with optional flags set.
func newTestCommand(flags map[string]string) *cli.Command {
	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name: "no-header",
			},
		},
	}

	// Build args from flags
	args := []string{"test"}
	for k, v := range flags {
		args = append(args, "--"+k+"="+v)
	}

	// Parse the command to set flag values
	_ = cmd.Run(context.Background(), args)

	return cmd
}

func lines(t *testing.T, tbl grpcclient.OutputFormat, cmd *cli.Command, values ...map[string]any) []string {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range values {
		require.NoError(t, tbl.Format(context.Background(), cmd, &buf, v))
	}
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

func TestUnit_Table_Name(t *testing.T) {
	tbl := formats.Table()
	assert.Equal(t, "table", tbl.Name())
}

func TestUnit_Table_SingleValue(t *testing.T) {
	got := lines(t, formats.Table(), newTestCommand(nil), map[string]any{
		"customer": "ada",
		"gift":     true,
		"batch":    uint64(7),
	})

	require.Len(t, got, 2, "should have header + data row")
	assert.Equal(t, "batch\tcustomer\tgift", got[0])
	assert.Equal(t, "7\tada\ttrue", got[1])
}

func TestUnit_Table_MultipleValues(t *testing.T) {
	got := lines(t, formats.Table(), newTestCommand(nil),
		map[string]any{"customer": "Alice"},
		map[string]any{"customer": "Bob"},
	)

	require.Len(t, got, 3, "should have header + 2 data rows")
	assert.Equal(t, "customer", got[0])
	assert.Equal(t, "Alice", got[1])
	assert.Equal(t, "Bob", got[2])
}

func TestUnit_Table_PathFlattening(t *testing.T) {
	got := lines(t, formats.Table(), newTestCommand(nil), map[string]any{
		"deliver_at": map[string]any{"seconds": int64(1714554000), "nanos": int32(0)},
		"items": []any{
			map[string]any{"sku": "A", "quantity": int64(2)},
			map[string]any{"sku": "B"},
		},
		"labels": []any{map[string]any{"key": "env", "value": "prod"}},
	})

	require.Len(t, got, 2)
	assert.Equal(t, strings.Join([]string{
		"deliver_at.nanos", "deliver_at.seconds",
		"items[0].quantity", "items[0].sku", "items[1].sku",
		"labels[0].key", "labels[0].value",
	}, "\t"), got[0])
	assert.Equal(t, "0\t1714554000\t2\tA\tB\tenv\tprod", got[1])
}

func TestUnit_Table_NoHeader(t *testing.T) {
	got := lines(t, formats.Table(), newTestCommand(map[string]string{"no-header": "true"}),
		map[string]any{"customer": "Alice"})

	require.Len(t, got, 1, "should have data row only, no header")
	assert.Equal(t, "Alice", got[0])
}

func TestUnit_Table_EmptyValues(t *testing.T) {
	got := lines(t, formats.Table(), newTestCommand(nil), map[string]any{
		"tags":    []any{},
		"nothing": nil,
	})

	require.Len(t, got, 2)
	assert.Equal(t, "nothing\ttags", got[0])
	assert.Equal(t, "\t", got[1])
}

func TestUnit_Table_RepeatedScalars(t *testing.T) {
	got := lines(t, formats.Table(), nil, map[string]any{
		"tags": []any{"go", "proto", "cli"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "tags", got[0])
	assert.Equal(t, "go,proto,cli", got[1])
}

func TestUnit_Table_DeterministicColumnOrder(t *testing.T) {
	// Run multiple times to verify deterministic output
	for range 5 {
		got := lines(t, formats.Table(), newTestCommand(nil), map[string]any{
			"zeta":  1,
			"alpha": 2,
			"mu":    3,
		})
		assert.Equal(t, "alpha\tmu\tzeta", got[0])
		assert.Equal(t, "2\t3\t1", got[1])
	}
}

func TestUnit_Table_Flags(t *testing.T) {
	tbl := formats.Table()

	// Verify it implements FlagConfiguredOutputFormat
	flagged, ok := tbl.(grpcclient.FlagConfiguredOutputFormat)
	require.True(t, ok, "Table should implement FlagConfiguredOutputFormat")

	flags := flagged.Flags()
	require.Len(t, flags, 1)
	assert.Equal(t, "no-header", flags[0].Names()[0])
}
