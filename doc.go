// Package grpcclient builds request messages for gRPC services from their
// schema alone. The schema comes from server reflection or from compiled
// descriptor sets; the value is edited through package form, either by
// path assignments on the command line or in an interactive editor.
//
// # Commands
//
// RootCommand returns a urfave/cli command with these subcommands:
//
//   - services: list the services the configured source knows
//   - describe <symbol>: print the field tree of a message (--style picks
//     one of the registered SchemaFormats)
//   - set <symbol> [path=value ...]: apply assignments and print the value
//   - edit <symbol>: open the interactive editor and print what it submits
//   - config init|set|get|list: manage the config files and show where each
//     effective setting came from
//
// A symbol is either a message full name (example.v1.OrderRequest) or a
// method (example.v1.OrderService/PlaceOrder), whose input message is used.
//
// # Paths
//
// Assignments address fields by dotted path with bracketed list indices:
//
//	grpc-form set example.v1.OrderService/PlaceOrder \
//	    customer=ada items[0].sku=A-1 items[0].quantity=2 \
//	    labels[0].key=env labels[0].value=prod \
//	    deliver_at=2024-05-01T09:00:00Z ttl=90s
//
// Every field along a path is enabled before the write. Well-known types take
// their editable text form: timestamps in RFC 3339 or local time, durations as
// seconds or Go durations, Struct, Value and ListValue as JSON. Any takes
// "type_url,value".
//
// # Options
//
//	cmd := grpcclient.RootCommand("grpc-form",
//	    grpcclient.WithEditor(tui.New()),
//	    grpcclient.WithOutputFormats(grpcclient.JSON(), grpcclient.YAML()),
//	    grpcclient.WithDefaultVerbosity(slog.LevelWarn),
//	)
//
// # Configuration
//
// Settings are read from YAML files (./<app>.yaml, ~/.config/<app>/config.yaml
// or --config), then environment variables prefixed with the upper-cased app
// name, then flags; later sources win:
//
//	reflect: localhost:50051
//	plaintext: true
//	descriptor_sets: [./api.binpb]
//	debounce: 300ms
//	format: json
package grpcclient
