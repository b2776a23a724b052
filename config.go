package grpcclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/bhagwati-web/grpc-client/form"
)

// ErrUnknownSetting is returned for config file keys that name no setting.
var ErrUnknownSetting = errors.New("unknown setting")

// Config holds the settings shared by every subcommand.
type Config struct {
	// Reflect is the address of a server with reflection enabled.
	Reflect   string `yaml:"reflect"`
	Plaintext bool   `yaml:"plaintext"`
	// DescriptorSets are FileDescriptorSet files consulted after Reflect.
	DescriptorSets []string      `yaml:"descriptor_sets"`
	Debounce       time.Duration `yaml:"debounce"`
	Format         string        `yaml:"format"`
	Verbosity      string        `yaml:"verbosity"`
	// LogFile receives logs while the editor owns the terminal.
	LogFile string `yaml:"log_file"`
}

// Level parses Verbosity. Empty means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.Verbosity == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Verbosity)); err != nil {
		return 0, fmt.Errorf("invalid verbosity %q: %w", c.Verbosity, err)
	}
	return level, nil
}

// ConfigDebugInfo tracks config loading for debugging.
type ConfigDebugInfo struct {
	PathsChecked   []string          // All paths that were checked
	FilesLoaded    []string          // Paths that were successfully loaded
	FilesFailed    map[string]string // Paths that failed with error message
	EnvVarsApplied map[string]string // Env vars that were applied (name -> value)
	FlagsApplied   map[string]string // CLI flags that were applied (name -> value)
	Sources        map[string]string // Where each setting came from (key -> source)
	FinalConfig    *Config
}

// ConfigLoader loads configuration with precedence: CLI flags > env vars > files.
type ConfigLoader struct {
	configPaths   []string
	configReaders []io.Reader
	envPrefix     string
	debug         bool
	debugInfo     *ConfigDebugInfo
}

// ConfigLoaderOption is a functional option for configuring a ConfigLoader.
type ConfigLoaderOption func(*ConfigLoader)

// FileConfig adds config file paths to load. Missing files are skipped.
func FileConfig(paths ...string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configPaths = append(l.configPaths, paths...)
	}
}

// ReaderConfig adds io.Readers to load config from, after the files.
func ReaderConfig(readers ...io.Reader) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configReaders = append(l.configReaders, readers...)
	}
}

// EnvPrefix sets the environment variable prefix for config overrides.
func EnvPrefix(prefix string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.envPrefix = prefix
	}
}

// DebugMode enables config loading debug information.
func DebugMode(enabled bool) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.debug = enabled
		if enabled && l.debugInfo == nil {
			l.debugInfo = &ConfigDebugInfo{
				PathsChecked:   []string{},
				FilesLoaded:    []string{},
				FilesFailed:    make(map[string]string),
				EnvVarsApplied: make(map[string]string),
				FlagsApplied:   make(map[string]string),
				Sources:        make(map[string]string),
			}
		}
	}
}

// NewConfigLoader creates a new config loader with options.
func NewConfigLoader(opts ...ConfigLoaderOption) *ConfigLoader {
	loader := &ConfigLoader{}
	for _, opt := range opts {
		opt(loader)
	}
	return loader
}

// DebugInfo returns the config debug information (only populated if debug mode is enabled).
func (l *ConfigLoader) DebugInfo() *ConfigDebugInfo {
	return l.debugInfo
}

// DefaultConfigPaths returns default paths for config files.
func DefaultConfigPaths(rootCommandName string) []string {
	home, _ := os.UserHomeDir()

	return []string{
		fmt.Sprintf("./%s.yaml", rootCommandName),
		filepath.Join(home, ".config", rootCommandName, "config.yaml"),
	}
}

// DefaultEnvPrefix derives the env prefix from the app name: "grpc-form"
// becomes "GRPC_FORM".
func DefaultEnvPrefix(appName string) string {
	return strcase.ToScreamingSnake(appName)
}

// setting binds one Config field to its YAML key, env var and flag.
type setting struct {
	key     string // YAML key; the env suffix is its upper-case form
	flag    string
	usage   string
	fromEnv func(*Config, string) error
	fromCmd func(*Config, *cli.Command) string
	// value returns the field as it is written to a config file.
	value func(*Config) any
}

var settings = []setting{
	{
		key: "reflect", flag: "reflect",
		usage:   "Address of a server with gRPC reflection enabled",
		value:   func(c *Config) any { return c.Reflect },
		fromEnv: func(c *Config, v string) error { c.Reflect = v; return nil },
		fromCmd: func(c *Config, cmd *cli.Command) string { c.Reflect = cmd.String("reflect"); return c.Reflect },
	},
	{
		key: "plaintext", flag: "plaintext",
		usage:   "Dial the reflection server without TLS",
		value:   func(c *Config) any { return c.Plaintext },
		fromEnv: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			c.Plaintext = b
			return nil
		},
		fromCmd: func(c *Config, cmd *cli.Command) string {
			c.Plaintext = cmd.Bool("plaintext")
			return strconv.FormatBool(c.Plaintext)
		},
	},
	{
		key: "descriptor_sets", flag: "descriptor-set",
		usage:   "FileDescriptorSet files to resolve schemas from",
		value:   func(c *Config) any { return c.DescriptorSets },
		fromEnv: func(c *Config, v string) error { c.DescriptorSets = splitList(v); return nil },
		fromCmd: func(c *Config, cmd *cli.Command) string {
			c.DescriptorSets = cmd.StringSlice("descriptor-set")
			return strings.Join(c.DescriptorSets, ",")
		},
	},
	{
		key: "debounce", flag: "debounce",
		usage:   "Delay between the last edit and its change notification",
		value:   func(c *Config) any { return c.Debounce.String() },
		fromEnv: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			c.Debounce = d
			return nil
		},
		fromCmd: func(c *Config, cmd *cli.Command) string {
			c.Debounce = cmd.Duration("debounce")
			return c.Debounce.String()
		},
	},
	{
		key: "format", flag: "format",
		usage:   "Default output format",
		value:   func(c *Config) any { return c.Format },
		fromEnv: func(c *Config, v string) error { c.Format = v; return nil },
		fromCmd: func(c *Config, cmd *cli.Command) string { c.Format = cmd.String("format"); return c.Format },
	},
	{
		key: "verbosity", flag: "verbosity",
		usage:   "Log level: debug, info, warn or error",
		value:   func(c *Config) any { return c.Verbosity },
		fromEnv: func(c *Config, v string) error { c.Verbosity = v; return nil },
		fromCmd: func(c *Config, cmd *cli.Command) string { c.Verbosity = cmd.String("verbosity"); return c.Verbosity },
	},
	{
		key: "log_file", flag: "log-file",
		usage:   "File that receives logs while the editor is open",
		value:   func(c *Config) any { return c.LogFile },
		fromEnv: func(c *Config, v string) error { c.LogFile = v; return nil },
		fromCmd: func(c *Config, cmd *cli.Command) string { c.LogFile = cmd.String("log-file"); return c.LogFile },
	},
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load builds the Config for cmd. Flags are only consulted when cmd is
// non-nil and the flag was given explicitly.
func (l *ConfigLoader) Load(cmd *cli.Command) (*Config, error) {
	cfg := &Config{}

	// 1. Load and merge all config files
	if err := l.loadFromFiles(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from files: %w", err)
	}

	// 2. Override with environment variables
	if err := l.applyEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment variables: %w", err)
	}

	// 3. Override with CLI flags
	if cmd != nil {
		l.applyFlags(cmd, cfg)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = form.DefaultDebounce
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}

	if l.debug {
		l.debugInfo.FinalConfig = cfg
	}
	return cfg, nil
}

// loadFromFiles merges YAML files and readers into cfg. Keys present in a
// later file replace those of earlier ones.
func (l *ConfigLoader) loadFromFiles(cfg *Config) error {
	for _, path := range l.configPaths {
		if l.debug {
			l.debugInfo.PathsChecked = append(l.debugInfo.PathsChecked, path)
		}

		// Skip if file doesn't exist (silent ignore for default paths)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if l.debug {
				l.debugInfo.FilesFailed[path] = "file does not exist"
			}
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if l.debug {
				l.debugInfo.FilesFailed[path] = err.Error()
			}
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		keys, err := mergeYAML(data, cfg)
		if err != nil {
			if l.debug {
				l.debugInfo.FilesFailed[path] = err.Error()
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}

		if l.debug {
			l.debugInfo.FilesLoaded = append(l.debugInfo.FilesLoaded, path)
			l.recordSources(keys, "file "+path)
		}
	}

	for i, reader := range l.configReaders {
		data, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("failed to read config reader %d: %w", i, err)
		}
		keys, err := mergeYAML(data, cfg)
		if err != nil {
			return fmt.Errorf("failed to load config reader %d: %w", i, err)
		}
		if l.debug {
			l.recordSources(keys, fmt.Sprintf("reader %d", i))
		}
	}

	return nil
}

func (l *ConfigLoader) recordSources(keys []string, source string) {
	for _, key := range keys {
		l.debugInfo.Sources[key] = source
	}
}

// mergeYAML decodes data over cfg and returns the keys it set. Keys may be
// kebab-case or snake_case.
func mergeYAML(data []byte, cfg *Config) ([]string, error) {
	normalized, err := readSettings(data)
	if err != nil || len(normalized) == 0 {
		return nil, err
	}

	out, err := yaml.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(out))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return lo.Keys(normalized), nil
}

// readSettings parses a config document into a map keyed by snake_case
// setting keys.
func readSettings(data []byte) (map[string]any, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	normalized := make(map[string]any, len(root))
	for key, value := range root {
		s, ok := lookupSetting(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
		}
		normalized[s.key] = value
	}
	return normalized, nil
}

// lookupSetting finds a setting by snake_case or kebab-case key.
func lookupSetting(key string) (setting, bool) {
	return lo.Find(settings, func(s setting) bool {
		return s.key == strings.ReplaceAll(key, "-", "_")
	})
}

// applyEnvVars overrides settings with <PREFIX>_<KEY> variables.
func (l *ConfigLoader) applyEnvVars(cfg *Config) error {
	if l.envPrefix == "" {
		return nil
	}
	for _, s := range settings {
		envName := l.envPrefix + "_" + strings.ToUpper(s.key)
		envValue, exists := os.LookupEnv(envName)
		if !exists {
			continue
		}
		if l.debug {
			l.debugInfo.EnvVarsApplied[envName] = envValue
			l.debugInfo.Sources[s.key] = "env " + envName
		}
		if err := s.fromEnv(cfg, envValue); err != nil {
			return fmt.Errorf("failed to set %s from env %s: %w", s.key, envName, err)
		}
	}
	return nil
}

// applyFlags overrides settings with flags set on the command line.
func (l *ConfigLoader) applyFlags(cmd *cli.Command, cfg *Config) {
	for _, s := range settings {
		if !cmd.IsSet(s.flag) {
			continue
		}
		v := s.fromCmd(cfg, cmd)
		if l.debug {
			l.debugInfo.FlagsApplied[s.flag] = v
			l.debugInfo.Sources[s.key] = "flag --" + s.flag
		}
	}
}

// logSettings adapts a Config to clilog.Settings.
type logSettings struct {
	cfg         *Config
	interactive bool
}

func (s logSettings) Interactive() bool { return s.interactive }
func (s logSettings) LogFile() string   { return s.cfg.LogFile }

func (s logSettings) Level() slog.Level {
	level, _ := s.cfg.Level()
	return level
}
