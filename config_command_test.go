package grpcclient_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/form"
)

func configPaths(t *testing.T) (local, global string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "local.yaml"), filepath.Join(dir, "home", "config.yaml")
}

func TestIntegration_ConfigSet(t *testing.T) {
	t.Run("writes typed values", func(t *testing.T) {
		local, global := configPaths(t)
		out, err := run(t, nil, "--config", local, "--config", global,
			"config", "set", "reflect=localhost:50051", "plaintext=true", "descriptor-sets=a.binpb,b.binpb")
		require.NoError(t, err)
		assert.Equal(t, "Set 3 value(s) in "+local+"\n", out)

		cfg, err := grpcclient.NewConfigLoader(grpcclient.FileConfig(local)).Load(nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost:50051", cfg.Reflect)
		assert.True(t, cfg.Plaintext)
		assert.Equal(t, []string{"a.binpb", "b.binpb"}, cfg.DescriptorSets)
		assert.NoFileExists(t, global)
	})

	t.Run("global keeps existing keys", func(t *testing.T) {
		local, global := configPaths(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(global), 0o750))
		require.NoError(t, os.WriteFile(global, []byte("format: yaml\n"), 0o600))

		_, err := run(t, nil, "--config", local, "--config", global, "config", "set", "--global", "debounce=150ms")
		require.NoError(t, err)

		data, err := os.ReadFile(global)
		require.NoError(t, err)
		assert.Contains(t, string(data), "format: yaml")
		assert.Contains(t, string(data), "debounce: 150ms")
	})

	t.Run("errors", func(t *testing.T) {
		local, global := configPaths(t)
		args := []string{"--config", local, "--config", global, "config", "set"}

		_, err := run(t, nil, args...)
		assert.ErrorIs(t, err, grpcclient.ErrKeyValueRequired)

		_, err = run(t, nil, append(args, "reflect")...)
		assert.ErrorIs(t, err, grpcclient.ErrInvalidArgument)

		_, err = run(t, nil, append(args, "colour=blue")...)
		assert.ErrorIs(t, err, grpcclient.ErrUnknownSetting)

		_, err = run(t, nil, append(args, "debounce=soon")...)
		assert.ErrorContains(t, err, "invalid value for debounce")
		assert.NoFileExists(t, local)
	})
}

func TestIntegration_ConfigGetAndList(t *testing.T) {
	local, global := configPaths(t)
	require.NoError(t, os.WriteFile(local, []byte("reflect: a:1\n"), 0o600))
	t.Setenv("GRPC_FORM_TEST_FORMAT", "yaml")

	t.Run("get", func(t *testing.T) {
		out, err := run(t, nil, "--config", local, "--config", global, "config", "get", "reflect")
		require.NoError(t, err)
		assert.Equal(t, "a:1\n", out)

		out, err = run(t, nil, "--config", local, "--config", global, "config", "get", "format")
		require.NoError(t, err)
		assert.Equal(t, "yaml\n", out)

		_, err = run(t, nil, "--config", local, "config", "get")
		assert.ErrorIs(t, err, grpcclient.ErrExactlyOneKey)

		_, err = run(t, nil, "--config", local, "config", "get", "colour")
		assert.ErrorIs(t, err, grpcclient.ErrUnknownSetting)
	})

	t.Run("list", func(t *testing.T) {
		out, err := run(t, nil, "--config", local, "--config", global, "config", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "reflect: a:1  # file "+local+"\n")
		assert.Contains(t, out, "format: yaml  # env GRPC_FORM_TEST_FORMAT\n")
		assert.Contains(t, out, "plaintext:   # default (not set)\n")
		assert.Contains(t, out, "debounce: "+form.DefaultDebounce.String()+"  # default\n")
	})
}

func TestIntegration_ConfigInit(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "true")

	t.Run("writes a stub", func(t *testing.T) {
		local, global := configPaths(t)
		_, err := run(t, nil, "--config", local, "--config", global, "config", "init", "--global")
		require.NoError(t, err)

		data, err := os.ReadFile(global)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# testcli configuration")
		assert.Contains(t, string(data), "GRPC_FORM_TEST_<KEY>")
		assert.Contains(t, string(data), "# reflect: \"\"")
		assert.Contains(t, string(data), "# debounce: "+form.DefaultDebounce.String())

		// A commented stub loads as an empty config.
		_, err = grpcclient.NewConfigLoader(grpcclient.FileConfig(global)).Load(nil)
		assert.NoError(t, err)
	})

	t.Run("keeps an existing file", func(t *testing.T) {
		local, global := configPaths(t)
		require.NoError(t, os.WriteFile(local, []byte("reflect: a:1\n"), 0o600))

		_, err := run(t, nil, "--config", local, "--config", global, "config", "init")
		require.NoError(t, err)
		data, err := os.ReadFile(local)
		require.NoError(t, err)
		assert.Equal(t, "reflect: a:1\n", string(data))

		_, err = run(t, nil, "--config", local, "--config", global, "config", "init", "--replace")
		require.NoError(t, err)
		data, err = os.ReadFile(local)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# testcli configuration")
	})

	t.Run("editor failure", func(t *testing.T) {
		t.Setenv("EDITOR", "false")
		local, _ := configPaths(t)
		_, err := run(t, nil, "--config", local, "config", "init")
		assert.Error(t, err)
	})
}
