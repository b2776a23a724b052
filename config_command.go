package grpcclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/bhagwati-web/grpc-client/form"
)

var (
	// ErrInvalidArgument is returned when a command line argument is invalid
	ErrInvalidArgument = errors.New("invalid argument format")

	// ErrKeyValueRequired is returned when at least one key=value pair is required
	ErrKeyValueRequired = errors.New("at least one key=value pair required")

	// ErrExactlyOneKey is returned when exactly one key is required
	ErrExactlyOneKey = errors.New("exactly one key required")
)

// configCommand creates the config command suite with init, set, get and
// list subcommands. Files are the local (first) and global (last) entries
// of --config.
func (r *runner) configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration files",
		Commands: []*cli.Command{
			r.configInitCommand(),
			r.configSetCommand(),
			r.configGetCommand(),
			r.configListCommand(),
		},
	}
}

var globalFlag = &cli.BoolFlag{
	Name:  "global",
	Usage: "Operate on the global config file (the last --config path)",
}

func configFile(cmd *cli.Command) (string, error) {
	paths := cmd.StringSlice("config")
	if len(paths) == 0 {
		return "", errors.New("no config file paths configured")
	}
	if cmd.Bool("global") {
		return paths[len(paths)-1], nil
	}
	return paths[0], nil
}

// loadForInspection loads the effective config with per-key sources.
func loadForInspection(cmd *cli.Command) (*Config, *ConfigDebugInfo, error) {
	loader := NewConfigLoader(
		FileConfig(cmd.StringSlice("config")...),
		EnvPrefix(cmd.String("env-prefix")),
		DebugMode(true),
	)
	cfg, err := loader.Load(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader.DebugInfo(), nil
}

// configInitCommand creates the 'config init' command
func (r *runner) configInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize or edit the configuration file",
		Flags: []cli.Flag{
			globalFlag,
			&cli.BoolFlag{
				Name:  "replace",
				Usage: "Replace an existing config file with the stub template",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := configFile(cmd)
			if err != nil {
				return err
			}

			// An existing file is only opened unless --replace is given
			if _, err := os.Stat(path); err == nil && !cmd.Bool("replace") {
				return openEditor(ctx, path)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(configStub(cmd.Root().Name, cmd.String("env-prefix"))), 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			return openEditor(ctx, path)
		},
	}
}

// configSetCommand creates the 'config set' command
func (r *runner) configSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set configuration values",
		ArgsUsage: "<key=value> [key=value...]",
		Flags:     []cli.Flag{globalFlag},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return ErrKeyValueRequired
			}

			path, err := configFile(cmd)
			if err != nil {
				return err
			}

			doc := map[string]any{}
			if data, err := os.ReadFile(path); err == nil {
				if doc, err = readSettings(data); err != nil {
					return fmt.Errorf("failed to load %s: %w", path, err)
				}
				if doc == nil {
					doc = map[string]any{}
				}
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			for _, arg := range cmd.Args().Slice() {
				key, raw, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("%w: %s (expected key=value)", ErrInvalidArgument, arg)
				}
				s, known := lookupSetting(key)
				if !known {
					return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
				}
				// Values are parsed the way env overrides are, so the file
				// stays typed.
				var scratch Config
				if err := s.fromEnv(&scratch, raw); err != nil {
					return fmt.Errorf("invalid value for %s: %w", s.key, err)
				}
				doc[s.key] = s.value(&scratch)
			}

			out, err := yaml.Marshal(doc)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(path, out, 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			_, _ = fmt.Fprintf(writerOf(cmd), "Set %d value(s) in %s\n", cmd.Args().Len(), path)
			return nil
		},
	}
}

// configGetCommand creates the 'config get' command
func (r *runner) configGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the effective value of a setting",
		ArgsUsage: "<key>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return ErrExactlyOneKey
			}
			s, known := lookupSetting(cmd.Args().First())
			if !known {
				return fmt.Errorf("%w: %s", ErrUnknownSetting, cmd.Args().First())
			}

			cfg, _, err := loadForInspection(cmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(writerOf(cmd), displaySetting(s.value(cfg)))
			return err
		},
	}
}

// configListCommand creates the 'config list' command
func (r *runner) configListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all settings with where they came from",
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, info, err := loadForInspection(cmd)
			if err != nil {
				return err
			}

			w := writerOf(cmd)
			for _, s := range settings {
				source, ok := info.Sources[s.key]
				if !ok {
					source = "default"
				}
				v := displaySetting(s.value(cfg))
				if v != "" {
					_, _ = fmt.Fprintf(w, "%s: %s  # %s\n", s.key, v, source)
				} else {
					_, _ = fmt.Fprintf(w, "%s:   # %s (not set)\n", s.key, source)
				}
			}
			return nil
		},
	}
}

func displaySetting(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ",")
	case bool:
		if !x {
			return ""
		}
	}
	return fmt.Sprint(v)
}

// openEditor opens the specified file in the user's preferred editor
func openEditor(ctx context.Context, path string) error {
	// Check for editor in order: VISUAL, EDITOR, fallback to vi
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// configStub renders a commented config file listing every setting.
func configStub(appName, envPrefix string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s configuration\n", appName)
	if envPrefix != "" {
		fmt.Fprintf(&sb, "# Every key can be overridden with %s_<KEY> or its flag.\n", envPrefix)
	}
	sb.WriteString("# Uncomment and edit values below, then save.\n")

	var defaults Config
	defaults.Debounce = form.DefaultDebounce
	for _, s := range settings {
		sb.WriteString("\n# ")
		sb.WriteString(s.usage)
		sb.WriteString("\n# ")
		sb.WriteString(s.key)
		sb.WriteString(": ")
		sb.WriteString(stubPlaceholder(s.value(&defaults)))
		sb.WriteString("\n")
	}

	return sb.String()
}

func stubPlaceholder(v any) string {
	switch x := v.(type) {
	case []string:
		return "[]"
	case bool:
		return fmt.Sprint(x)
	case string:
		if x == "" {
			return `""`
		}
		return x
	}
	return fmt.Sprint(v)
}
