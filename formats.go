package grpcclient

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// OutputFormat defines how to write an edited value.
type OutputFormat interface {
	// Name returns the format identifier (e.g., "json", "yaml")
	Name() string

	// Format writes value to the writer
	Format(ctx context.Context, cmd *cli.Command, w io.Writer, value map[string]any) error
}

// FlagConfiguredOutputFormat is an optional interface for formats that need custom flags
type FlagConfiguredOutputFormat interface {
	OutputFormat

	// Flags returns additional flags this format needs (e.g., --pretty for JSON)
	Flags() []cli.Flag
}

// jsonFormat formats values as JSON.
type jsonFormat struct{}

func (f *jsonFormat) Name() string {
	return "json"
}

func (f *jsonFormat) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output with indentation",
		},
	}
}

func (f *jsonFormat) Format(_ context.Context, cmd *cli.Command, w io.Writer, value map[string]any) error {
	var (
		data []byte
		err  error
	)
	if cmd != nil && cmd.Bool("pretty") {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// yamlFormat formats values as YAML.
type yamlFormat struct{}

func (f *yamlFormat) Name() string {
	return "yaml"
}

func (f *yamlFormat) Format(_ context.Context, _ *cli.Command, w io.Writer, value map[string]any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

// JSON returns the JSON output format, with a --pretty flag.
func JSON() OutputFormat {
	return &jsonFormat{}
}

// YAML returns the YAML output format.
func YAML() OutputFormat {
	return &yamlFormat{}
}

func formatNames(formats []OutputFormat) []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name())
	}
	return names
}

func findFormat(formats []OutputFormat, name string) (OutputFormat, error) {
	if name == "" {
		return formats[0], nil
	}
	for _, f := range formats {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown output format %q (available: %v)", name, formatNames(formats))
}
