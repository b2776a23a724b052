package grpcclient_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/form"
	"github.com/bhagwati-web/grpc-client/internal/testpb"
	"github.com/bhagwati-web/grpc-client/schema"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadInputFile_FormatSelection(t *testing.T) {
	formats := grpcclient.DefaultInputFormats()

	tests := []struct {
		name       string
		file       string
		content    string
		formatName string
		want       map[string]any
		wantErr    string
	}{
		{
			name:    "json by extension",
			file:    "in.json",
			content: `{"customer": "ada"}`,
			want:    map[string]any{"customer": "ada"},
		},
		{
			name:    "yaml by extension",
			file:    "in.yml",
			content: "customer: ada\n",
			want:    map[string]any{"customer": "ada"},
		},
		{
			name:       "explicit format beats extension",
			file:       "in.txt",
			content:    "customer: ada\n",
			formatName: "yaml",
			want:       map[string]any{"customer": "ada"},
		},
		{
			name:    "unknown extension falls through formats",
			file:    "in.conf",
			content: "customer: ada\n",
			want:    map[string]any{"customer": "ada"},
		},
		{
			name:       "unknown format name",
			file:       "in.json",
			content:    `{}`,
			formatName: "toml",
			wantErr:    `unknown input format "toml"`,
		},
		{
			name:    "bad json",
			file:    "in.json",
			content: `{"customer":`,
			wantErr: "as json",
		},
		{
			name:    "nothing matches",
			file:    "in.conf",
			content: "- a\n- b\n",
			wantErr: "no format matched",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := grpcclient.ReadInputFile(writeInput(t, tt.file, tt.content), tt.formatName, formats)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := grpcclient.ReadInputFile(filepath.Join(t.TempDir(), "nope.json"), "", formats)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestUnit_Normalize(t *testing.T) {
	s := schema.FromMessage(testpb.Request())
	read := func(t *testing.T, name, content string) map[string]any {
		t.Helper()
		doc, err := grpcclient.ReadInputFile(writeInput(t, name, content), "", grpcclient.DefaultInputFormats())
		require.NoError(t, err)
		return doc
	}

	t.Run("protojson document", func(t *testing.T) {
		doc := read(t, "in.json", `{
			"customer": "ada",
			"items": [{"sku": "A", "quantity": "2"}, {"sku": "B", "quantity": 3}],
			"labels": {"env": "prod"},
			"priority": 1,
			"deliverAt": "2024-05-01T09:00:00Z",
			"ttl": "90s",
			"metadata": {"a": 1},
			"extra": "hello",
			"batch": "18446744073709551615",
			"discount": 0.25,
			"gift": true,
			"card": null
		}`)
		got, err := grpcclient.Normalize(s, doc)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"customer": "ada",
			"items": []any{
				map[string]any{"sku": "A", "quantity": int64(2)},
				map[string]any{"sku": "B", "quantity": int64(3)},
			},
			"labels":     []any{map[string]any{"key": "env", "value": "prod"}},
			"priority":   "PRIORITY_LOW",
			"deliver_at": map[string]any{"seconds": int64(1714554000), "nanos": int32(0)},
			"ttl":        map[string]any{"seconds": int64(90), "nanos": int32(0)},
			"metadata":   map[string]any{"fields": map[string]any{"a": json.Number("1")}},
			"extra":      map[string]any{"stringValue": "hello"},
			"batch":      uint64(18446744073709551615),
			"discount":   0.25,
			"gift":       true,
		}, got)
	})

	t.Run("saved well-known values keep their precision", func(t *testing.T) {
		doc := read(t, "in.json", `{
			"deliverAt": {"seconds": "1700000000", "nanos": 123456789},
			"ttl": "3.5s",
			"attachment": {"@type": "type.googleapis.com/x.Y", "sku": "A"},
			"metadata": {"big": 9007199254740993}
		}`)
		got, err := grpcclient.Normalize(s, doc)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"deliver_at": map[string]any{"seconds": int64(1700000000), "nanos": int32(123456789)},
			"ttl":        map[string]any{"seconds": int64(3), "nanos": int32(500000000)},
			"attachment": map[string]any{"@type": "type.googleapis.com/x.Y", "sku": "A"},
			"metadata":   map[string]any{"fields": map[string]any{"big": json.Number("9007199254740993")}},
		}, got)

		f := form.New(s, got)
		defer f.Close()
		assert.Equal(t, int32(123456789), f.Value()["deliver_at"].(map[string]any)["nanos"])
	})

	t.Run("yaml with numeric map keys and camel keys", func(t *testing.T) {
		doc := read(t, "in.yaml", "Customer: ada\nlabels:\n  1: one\ntags: [x, y]\n")
		got, err := grpcclient.Normalize(s, doc)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"customer": "ada",
			"labels":   []any{map[string]any{"key": "1", "value": "one"}},
			"tags":     []any{"x", "y"},
		}, got)
	})

	t.Run("normalized values mount as present", func(t *testing.T) {
		doc := read(t, "in.json", `{"items": [{"sku": "A"}], "labels": {"a": "1", "b": "2"}}`)
		initial, err := grpcclient.Normalize(s, doc)
		require.NoError(t, err)
		f := form.New(s, initial)
		defer f.Close()
		assert.True(t, f.State("items").Enabled)
		assert.Len(t, f.State("items").Items, 1)
		assert.Len(t, f.State("labels").Items, 2)
		assert.True(t, f.State("items[0].sku").Enabled)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			doc  map[string]any
			want error
		}{
			{"unknown field", map[string]any{"nope": 1}, form.ErrUnknownField},
			{"unknown nested field", map[string]any{"items": []any{map[string]any{"nope": 1}}}, form.ErrUnknownField},
			{"bad scalar", map[string]any{"gift": "perhaps"}, form.ErrInvalidScalar},
			{"bad enum", map[string]any{"priority": "PRIORITY_URGENT"}, form.ErrInvalidScalar},
			{"object for scalar", map[string]any{"customer": map[string]any{}}, form.ErrInvalidScalar},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := grpcclient.Normalize(s, tt.doc)
				assert.ErrorIs(t, err, tt.want)
			})
		}

		_, err := grpcclient.Normalize(s, map[string]any{"items": "x"})
		assert.ErrorContains(t, err, "expected a list")
		_, err = grpcclient.Normalize(s, map[string]any{"items": []any{"x"}})
		assert.ErrorContains(t, err, "expected an object")
	})
}
