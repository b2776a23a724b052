package grpcclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/bhagwati-web/grpc-client/clilog"
	"github.com/bhagwati-web/grpc-client/form"
	"github.com/bhagwati-web/grpc-client/reflection"
	"github.com/bhagwati-web/grpc-client/schema"
)

// isTerminal decides whether the edit command may take over the terminal.
var isTerminal = clilog.IsTerminal

// RootCommand creates a root CLI command with the services, describe, set,
// edit and config subcommands.
func RootCommand(appName string, opts ...RootOption) *cli.Command {
	options := ApplyRootOptions(opts...)

	// Setup default config paths if not provided
	configPaths := options.ConfigPaths()
	if len(configPaths) == 0 {
		configPaths = DefaultConfigPaths(appName)
	}
	envPrefix := options.EnvPrefix()
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix(appName)
	}

	r := &runner{options: options}

	globalFlags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "config",
			Value: configPaths,
			Usage: "Config file path (can specify multiple, later files win)",
		},
		&cli.StringFlag{
			Name:   "env-prefix",
			Value:  envPrefix,
			Usage:  "Environment variable prefix for config overrides",
			Hidden: true,
		},
		&cli.BoolFlag{
			Name:   "debug-config",
			Usage:  "Log where each setting came from",
			Hidden: true,
		},
		&cli.StringFlag{
			Name:  "verbosity",
			Value: strings.ToLower(options.DefaultVerbosity().String()),
			Usage: "Log level: debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "File that receives logs while the editor is open",
		},
		&cli.StringFlag{
			Name:  "reflect",
			Usage: "Address of a server with gRPC reflection enabled",
		},
		&cli.BoolFlag{
			Name:  "plaintext",
			Usage: "Dial the reflection server without TLS",
		},
		&cli.StringSliceFlag{
			Name:  "descriptor-set",
			Usage: "FileDescriptorSet file to resolve schemas from (can specify multiple)",
		},
		&cli.DurationFlag{
			Name:  "debounce",
			Value: form.DefaultDebounce,
			Usage: "Delay between the last edit and its change notification",
		},
	}

	return &cli.Command{
		Name:  appName,
		Usage: fmt.Sprintf("%s - build gRPC request messages from their schema", appName),
		Flags: globalFlags,
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if hook := options.BeforeCommand(); hook != nil {
				return ctx, hook(ctx, cmd)
			}
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if hook := options.AfterCommand(); hook != nil {
				return hook(ctx, cmd)
			}
			return nil
		},
		Commands: []*cli.Command{
			r.servicesCommand(),
			r.describeCommand(),
			r.setCommand(),
			r.editCommand(),
			r.configCommand(),
		},
	}
}

type runner struct {
	options RootConfig
}

// invocation is what one subcommand run works with.
type invocation struct {
	cfg    *Config
	logger *slog.Logger
	source reflection.Source
	close  func()
}

// start loads config, builds the logger and opens the schema source.
func (r *runner) start(ctx context.Context, cmd *cli.Command, interactive bool) (*invocation, error) {
	loader := NewConfigLoader(
		FileConfig(cmd.StringSlice("config")...),
		EnvPrefix(cmd.String("env-prefix")),
		DebugMode(cmd.Bool("debug-config")),
	)
	cfg, err := loader.Load(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Verbosity == "" {
		cfg.Verbosity = strings.ToLower(r.options.DefaultVerbosity().String())
	}

	logger, closeLog, err := r.options.Logging()(ctx, logSettings{cfg: cfg, interactive: interactive})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	if info := loader.DebugInfo(); info != nil {
		logger.DebugContext(ctx, "config loaded",
			"checked", info.PathsChecked,
			"loaded", info.FilesLoaded,
			"env", info.EnvVarsApplied,
			"flags", info.FlagsApplied)
	}

	inv := &invocation{cfg: cfg, logger: logger}
	src, closeSrc, err := r.openSource(cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	inv.source = src
	inv.close = func() {
		if err := closeSrc(); err != nil {
			logger.DebugContext(ctx, "closing schema source", "error", err)
		}
		_ = closeLog()
	}
	return inv, nil
}

func (r *runner) openSource(cfg *Config, logger *slog.Logger) (reflection.Source, func() error, error) {
	if src := r.options.Source(); src != nil {
		return src, func() error { return nil }, nil
	}

	var chain reflection.Chain
	if cfg.Reflect != "" {
		src, err := reflection.Dial(cfg.Reflect,
			reflection.WithPlaintext(cfg.Plaintext),
			reflection.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, src)
	}
	if len(cfg.DescriptorSets) > 0 {
		src, err := reflection.LoadFiles(cfg.DescriptorSets...)
		if err != nil {
			_ = chain.Close()
			return nil, nil, err
		}
		chain = append(chain, src)
	}
	if len(chain) == 0 {
		return nil, nil, fmt.Errorf("%w: pass --reflect or --descriptor-set", reflection.ErrNoSource)
	}
	return chain, chain.Close, nil
}

func (r *runner) servicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "services",
		Usage: "List the services the schema source knows",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			inv, err := r.start(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer inv.close()

			names, err := inv.source.Services(ctx)
			if err != nil {
				return err
			}
			w := writerOf(cmd)
			for _, name := range names {
				if _, err := fmt.Fprintln(w, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (r *runner) describeCommand() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Print the field tree of a message or method input",
		ArgsUsage: "<symbol>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "style",
				Value: "text",
				Usage: fmt.Sprintf("Rendering style (%s)", strings.Join(schemaFormatNames(r.options.SchemaFormats()), ", ")),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			style, err := findSchemaFormat(r.options.SchemaFormats(), cmd.String("style"))
			if err != nil {
				return err
			}

			inv, err := r.start(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer inv.close()

			s, err := inv.resolve(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			return style.Write(writerOf(cmd), s)
		},
	}
}

func (r *runner) valueFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "input",
			Usage: "File with the initial value (- for stdin)",
		},
		&cli.StringFlag{
			Name:  "input-format",
			Usage: "Format of --input; detected from the extension when empty",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: fmt.Sprintf("Output format (%s)", strings.Join(formatNames(r.options.OutputFormats()), ", ")),
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Write the value to this file instead of stdout",
		},
	}
	for _, f := range r.options.OutputFormats() {
		if fc, ok := f.(FlagConfiguredOutputFormat); ok {
			flags = append(flags, fc.Flags()...)
		}
	}
	return flags
}

func (r *runner) setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Apply path=value assignments and print the resulting value",
		ArgsUsage: "<symbol> [path=value ...]",
		Flags: append(r.valueFlags(), &cli.StringSliceFlag{
			Name:  "unset",
			Usage: "Disable the field at this path after the assignments (can specify multiple)",
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			inv, err := r.start(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer inv.close()

			f, err := r.build(ctx, cmd, inv)
			if err != nil {
				return err
			}
			defer f.Close()
			for _, path := range cmd.StringSlice("unset") {
				if err := f.Disable(path); err != nil {
					return err
				}
			}
			return r.write(ctx, cmd, inv, f.Value())
		},
	}
}

func (r *runner) editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a value interactively and print what is submitted",
		ArgsUsage: "<symbol> [path=value ...]",
		Flags:     r.valueFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			editor := r.options.Editor()
			if editor == nil {
				return ErrNoEditor
			}
			if !isTerminal(os.Stdout) {
				return fmt.Errorf("%w: stdout is not a terminal", ErrNoEditor)
			}

			inv, err := r.start(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer inv.close()

			f, err := r.build(ctx, cmd, inv)
			if err != nil {
				return err
			}
			initial := f.Value()
			f.Close()

			logger := inv.logger
			value, err := editor.Edit(ctx, EditSession{
				Title:    cmd.Args().First(),
				Schema:   f.Schema(),
				Initial:  initial,
				Debounce: inv.cfg.Debounce,
				Location: time.Local,
				Logger:   logger,
				OnChange: func(v map[string]any) {
					logger.Debug("value changed", "fields", len(v))
				},
			})
			if err != nil {
				return err
			}
			return r.write(ctx, cmd, inv, value)
		},
	}
}

func (inv *invocation) resolve(ctx context.Context, symbol string) (*schema.Schema, error) {
	if symbol == "" {
		return nil, errors.New("missing <symbol>: a message name or pkg.Service/Method")
	}
	md, err := reflection.Resolve(ctx, inv.source, symbol)
	if err != nil {
		return nil, err
	}
	inv.logger.DebugContext(ctx, "resolved schema", "symbol", symbol, "message", md.FullName())
	return schema.FromMessage(md), nil
}

// build resolves the symbol, loads --input and applies the assignments
// given after the symbol.
func (r *runner) build(ctx context.Context, cmd *cli.Command, inv *invocation) (*form.Form, error) {
	s, err := inv.resolve(ctx, cmd.Args().First())
	if err != nil {
		return nil, err
	}

	var initial map[string]any
	if path := cmd.String("input"); path != "" {
		doc, err := ReadInputFile(path, cmd.String("input-format"), r.options.InputFormats())
		if err != nil {
			return nil, err
		}
		if initial, err = Normalize(s, doc); err != nil {
			return nil, err
		}
	}

	f := form.New(s, initial,
		form.WithLogger(inv.logger),
		form.WithDebounce(inv.cfg.Debounce),
		form.WithLocation(time.Local),
	)
	for _, assignment := range cmd.Args().Tail() {
		if err := Apply(f, assignment, time.Local); err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w", assignment, err)
		}
	}
	return f, nil
}

func (r *runner) write(ctx context.Context, cmd *cli.Command, inv *invocation, value map[string]any) error {
	format, err := findFormat(r.options.OutputFormats(), inv.cfg.Format)
	if err != nil {
		return err
	}

	w := writerOf(cmd)
	if path := cmd.String("output"); path != "" && path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		defer file.Close()
		w = file
	}
	return format.Format(ctx, cmd, w, value)
}

func writerOf(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
