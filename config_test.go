package grpcclient_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/form"
)

// TestUnit_ConfigLoader_FileLoading tests loading config from file readers.
func TestUnit_ConfigLoader_FileLoading(t *testing.T) {
	tests := []struct {
		name        string
		yamlContent []string
		expected    grpcclient.Config
		expectError bool
	}{
		{
			name:        "snake case keys",
			yamlContent: []string{"reflect: localhost:50051\nplaintext: true\ndescriptor_sets: [a.binpb, b.binpb]\n"},
			expected: grpcclient.Config{
				Reflect:        "localhost:50051",
				Plaintext:      true,
				DescriptorSets: []string{"a.binpb", "b.binpb"},
				Debounce:       form.DefaultDebounce,
			},
		},
		{
			name:        "kebab case keys and durations",
			yamlContent: []string{"log-file: /tmp/edit.log\ndebounce: 150ms\n"},
			expected:    grpcclient.Config{LogFile: "/tmp/edit.log", Debounce: 150 * time.Millisecond},
		},
		{
			name: "later readers win",
			yamlContent: []string{
				"reflect: first:1\nformat: yaml\n",
				"reflect: second:2\n",
			},
			expected: grpcclient.Config{Reflect: "second:2", Format: "yaml", Debounce: form.DefaultDebounce},
		},
		{
			name:        "empty document",
			yamlContent: []string{""},
			expected:    grpcclient.Config{Debounce: form.DefaultDebounce},
		},
		{
			name:        "unknown key",
			yamlContent: []string{"services: {}\n"},
			expectError: true,
		},
		{
			name:        "invalid yaml",
			yamlContent: []string{"reflect: [unclosed\n"},
			expectError: true,
		},
		{
			name:        "bad verbosity",
			yamlContent: []string{"verbosity: loud\n"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []grpcclient.ConfigLoaderOption
			for _, content := range tt.yamlContent {
				opts = append(opts, grpcclient.ReaderConfig(strings.NewReader(content)))
			}
			cfg, err := grpcclient.NewConfigLoader(opts...).Load(nil)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *cfg)
		})
	}

	t.Run("unknown key is reported", func(t *testing.T) {
		_, err := grpcclient.NewConfigLoader(grpcclient.ReaderConfig(strings.NewReader("nope: 1\n"))).Load(nil)
		assert.ErrorIs(t, err, grpcclient.ErrUnknownSetting)
	})
}

func TestUnit_ConfigLoader_EnvVars(t *testing.T) {
	t.Setenv("GRPC_FORM_CFG_REFLECT", "env:50051")
	t.Setenv("GRPC_FORM_CFG_PLAINTEXT", "true")
	t.Setenv("GRPC_FORM_CFG_DESCRIPTOR_SETS", "a.binpb, b.binpb")
	t.Setenv("GRPC_FORM_CFG_DEBOUNCE", "1s")

	loader := grpcclient.NewConfigLoader(
		grpcclient.ReaderConfig(strings.NewReader("reflect: file:1\nformat: yaml\n")),
		grpcclient.EnvPrefix("GRPC_FORM_CFG"),
		grpcclient.DebugMode(true),
	)
	cfg, err := loader.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "env:50051", cfg.Reflect)
	assert.True(t, cfg.Plaintext)
	assert.Equal(t, []string{"a.binpb", "b.binpb"}, cfg.DescriptorSets)
	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, "yaml", cfg.Format)

	info := loader.DebugInfo()
	require.NotNil(t, info)
	assert.Equal(t, "env:50051", info.EnvVarsApplied["GRPC_FORM_CFG_REFLECT"])
	assert.Same(t, cfg, info.FinalConfig)

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("GRPC_FORM_CFG_PLAINTEXT", "maybe")
		_, err := grpcclient.NewConfigLoader(grpcclient.EnvPrefix("GRPC_FORM_CFG")).Load(nil)
		assert.Error(t, err)
	})
}

func TestUnit_ConfigLoader_Files(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.yaml")
	second := filepath.Join(dir, "second.yaml")
	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(first, []byte("reflect: a:1\nverbosity: debug\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("reflect: b:2\n"), 0o600))

	loader := grpcclient.NewConfigLoader(grpcclient.FileConfig(missing, first, second), grpcclient.DebugMode(true))
	cfg, err := loader.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "b:2", cfg.Reflect)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	info := loader.DebugInfo()
	assert.Equal(t, []string{missing, first, second}, info.PathsChecked)
	assert.Equal(t, []string{first, second}, info.FilesLoaded)
	assert.Equal(t, "file does not exist", info.FilesFailed[missing])
	assert.Equal(t, map[string]string{"reflect": "file " + second, "verbosity": "file " + first}, info.Sources)
}

func TestUnit_ConfigLoader_Flags(t *testing.T) {
	var got *grpcclient.Config
	var info *grpcclient.ConfigDebugInfo
	cmd := &cli.Command{
		Name: "app",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "reflect"},
			&cli.BoolFlag{Name: "plaintext"},
			&cli.DurationFlag{Name: "debounce", Value: time.Minute},
			&cli.StringSliceFlag{Name: "descriptor-set"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			loader := grpcclient.NewConfigLoader(
				grpcclient.ReaderConfig(strings.NewReader("reflect: file:1\nplaintext: true\n")),
				grpcclient.DebugMode(true),
			)
			var err error
			got, err = loader.Load(cmd)
			info = loader.DebugInfo()
			return err
		},
	}
	require.NoError(t, cmd.Run(context.Background(), []string{"app", "--reflect", "flag:2", "--descriptor-set", "x.binpb"}))

	assert.Equal(t, "flag:2", got.Reflect)
	assert.True(t, got.Plaintext, "unset flags keep file values")
	assert.Equal(t, form.DefaultDebounce, got.Debounce, "flag defaults do not override")
	assert.Equal(t, []string{"x.binpb"}, got.DescriptorSets)
	assert.Equal(t, map[string]string{"reflect": "flag:2", "descriptor-set": "x.binpb"}, info.FlagsApplied)
	assert.Equal(t, map[string]string{
		"reflect":         "flag --reflect",
		"plaintext":       "reader 0",
		"descriptor_sets": "flag --descriptor-set",
	}, info.Sources)
}

func TestUnit_DefaultConfigPaths(t *testing.T) {
	paths := grpcclient.DefaultConfigPaths("grpc-form")
	require.Len(t, paths, 2)
	assert.Equal(t, "./grpc-form.yaml", paths[0])
	assert.True(t, strings.HasSuffix(paths[1], filepath.Join(".config", "grpc-form", "config.yaml")))
	assert.Equal(t, "GRPC_FORM", grpcclient.DefaultEnvPrefix("grpc-form"))
}
