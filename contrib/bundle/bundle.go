// Package bundle provides convenience functions that combine the contrib
// formats, docs and editor into ready-to-use option sets for grpc-form.
//
// Usage:
//
//	app := grpcclient.RootCommand("grpc-form", bundle.RootOptions()...)
package bundle

import (
	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/contrib/docs"
	"github.com/bhagwati-web/grpc-client/contrib/formats"
	"github.com/bhagwati-web/grpc-client/contrib/tui"
)

// Formats returns a RootOption that registers JSON, YAML and table output
// formats. JSON stays the default.
func Formats() grpcclient.RootOption {
	return grpcclient.WithOutputFormats(grpcclient.JSON(), grpcclient.YAML(), formats.Table())
}

// Docs returns a RootOption that adds the markdown style to describe.
func Docs() grpcclient.RootOption {
	return grpcclient.WithSchemaFormats(docs.Format())
}

// Editor returns a RootOption that installs the terminal editor.
func Editor(opts ...tui.Option) grpcclient.RootOption {
	return grpcclient.WithEditor(tui.New(opts...))
}

// RootOptions returns Formats, Docs and Editor combined. This is the
// recommended way to configure the root command with all conventions.
func RootOptions(opts ...tui.Option) []grpcclient.RootOption {
	return []grpcclient.RootOption{Formats(), Docs(), Editor(opts...)}
}
