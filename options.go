package grpcclient

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/bhagwati-web/grpc-client/clilog"
	"github.com/bhagwati-web/grpc-client/reflection"
)

// RootConfig is the configuration returned by ApplyRootOptions.
type RootConfig interface {
	BeforeCommand() func(context.Context, *cli.Command) error
	AfterCommand() func(context.Context, *cli.Command) error
	OutputFormats() []OutputFormat
	InputFormats() []InputFormat
	SchemaFormats() []SchemaFormat
	ConfigPaths() []string
	EnvPrefix() string
	DefaultVerbosity() slog.Level
	Editor() Editor
	Logging() clilog.Factory
	// Source overrides the source built from --reflect and
	// --descriptor-set. Nil unless WithSource was given.
	Source() reflection.Source
}

// RootOption configures RootCommand.
type RootOption interface {
	applyToRootConfig(*rootCommandOptions)
}

// RootOnlyOption is the concrete RootOption type.
type RootOnlyOption func(*rootCommandOptions)

var _ RootOption = RootOnlyOption(nil)

func (fn RootOnlyOption) applyToRootConfig(opts *rootCommandOptions) {
	fn(opts)
}

type rootCommandOptions struct {
	beforeCommand    func(context.Context, *cli.Command) error
	afterCommand     func(context.Context, *cli.Command) error
	outputFormats    []OutputFormat
	inputFormats     []InputFormat
	schemaFormats    []SchemaFormat
	configPaths      []string
	envPrefix        string
	defaultVerbosity slog.Level
	editor           Editor
	logging          clilog.Factory
	source           reflection.Source
}

var _ RootConfig = (*rootCommandOptions)(nil)

func (o *rootCommandOptions) BeforeCommand() func(context.Context, *cli.Command) error {
	return o.beforeCommand
}

func (o *rootCommandOptions) AfterCommand() func(context.Context, *cli.Command) error {
	return o.afterCommand
}

func (o *rootCommandOptions) OutputFormats() []OutputFormat { return o.outputFormats }
func (o *rootCommandOptions) InputFormats() []InputFormat   { return o.inputFormats }
func (o *rootCommandOptions) SchemaFormats() []SchemaFormat { return o.schemaFormats }
func (o *rootCommandOptions) ConfigPaths() []string         { return o.configPaths }
func (o *rootCommandOptions) EnvPrefix() string             { return o.envPrefix }
func (o *rootCommandOptions) DefaultVerbosity() slog.Level  { return o.defaultVerbosity }
func (o *rootCommandOptions) Editor() Editor                { return o.editor }
func (o *rootCommandOptions) Logging() clilog.Factory       { return o.logging }
func (o *rootCommandOptions) Source() reflection.Source     { return o.source }

// WithBeforeCommand registers a hook that runs before each subcommand.
func WithBeforeCommand(fn func(context.Context, *cli.Command) error) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.beforeCommand = fn
	}
}

// WithAfterCommand registers a hook that runs after each subcommand.
func WithAfterCommand(fn func(context.Context, *cli.Command) error) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.afterCommand = fn
	}
}

// WithOutputFormats replaces the formats offered by --format. The first one
// is the default.
func WithOutputFormats(formats ...OutputFormat) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.outputFormats = formats
	}
}

// WithInputFormats replaces the formats accepted by --input.
func WithInputFormats(formats ...InputFormat) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.inputFormats = formats
	}
}

// WithSchemaFormats adds styles to the describe command next to the
// built-in "text" style.
func WithSchemaFormats(formats ...SchemaFormat) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.schemaFormats = append(o.schemaFormats, formats...)
	}
}

// WithConfigFile adds a config file path, replacing the default paths.
func WithConfigFile(path string) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.configPaths = append(o.configPaths, path)
	}
}

// WithEnvPrefix sets the prefix of environment overrides, e.g. "GRPC_FORM"
// reads GRPC_FORM_REFLECT.
func WithEnvPrefix(prefix string) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.envPrefix = prefix
	}
}

// WithDefaultVerbosity sets the level used when --verbosity is not given.
func WithDefaultVerbosity(level slog.Level) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.defaultVerbosity = level
	}
}

// WithEditor sets the interactive editor used by the edit command.
func WithEditor(e Editor) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.editor = e
	}
}

// WithLogging replaces the logger factory. The default is clilog.Default.
func WithLogging(f clilog.Factory) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.logging = f
	}
}

// WithSource resolves schemas from src instead of the configured reflection
// target and descriptor sets. RootCommand does not close it.
func WithSource(src reflection.Source) RootOnlyOption {
	return func(o *rootCommandOptions) {
		o.source = src
	}
}

// ApplyRootOptions applies functional options and returns configured root settings.
func ApplyRootOptions(opts ...RootOption) RootConfig {
	options := &rootCommandOptions{
		defaultVerbosity: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt.applyToRootConfig(options)
	}
	if len(options.outputFormats) == 0 {
		options.outputFormats = []OutputFormat{JSON(), YAML()}
	}
	if len(options.inputFormats) == 0 {
		options.inputFormats = DefaultInputFormats()
	}
	options.schemaFormats = append([]SchemaFormat{TextSchema()}, options.schemaFormats...)
	if options.logging == nil {
		options.logging = clilog.Default()
	}
	return options
}
