package grpcclient

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bhagwati-web/grpc-client/fieldpath"
	"github.com/bhagwati-web/grpc-client/form"
	"github.com/bhagwati-web/grpc-client/schema"
	"github.com/bhagwati-web/grpc-client/wkt"
)

// ErrAssignment is returned for malformed path=value arguments.
var ErrAssignment = errors.New("malformed assignment")

// Apply performs one command-line assignment on f.
//
//	path=value   enable every field along path and write value
//	path         enable every field along path, leaving the value empty
//
// Scalars and enums take their text form. Well-known fields with several
// inputs (Any) take them comma separated; the last input keeps any further
// commas. Plain message fields take a JSON object.
func Apply(f *form.Form, assignment string, loc *time.Location) error {
	path, value, hasValue := strings.Cut(assignment, "=")
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: %q", ErrAssignment, assignment)
	}
	if len(fieldpath.Parse(path)) == 0 {
		return fmt.Errorf("%w: bad path %q", ErrAssignment, path)
	}

	fld, err := f.Field(path)
	if err != nil {
		return err
	}
	if err := f.Ensure(path); err != nil {
		return err
	}
	if !hasValue {
		return nil
	}

	variant := schema.Classify(fld)
	if r, ok := variant.(schema.Repeated); ok && endsWithIndex(path) {
		variant = r.Inner
	}
	switch v := variant.(type) {
	case schema.WellKnown:
		tc, _ := wkt.For(v.Type, wkt.WithLocation(loc))
		parts := strings.SplitN(value, ",", max(len(tc.Inputs()), 1))
		return f.SetEditable(path, parts...)
	case schema.Message:
		return setMessage(f, path, v.Schema, value)
	case schema.Repeated:
		return fmt.Errorf("%w: %s needs an item index", form.ErrNotRepeated, path)
	case schema.Map:
		return fmt.Errorf("%w: assign %s[i].key and %s[i].value", form.ErrNotRepeated, path, path)
	default:
		return f.SetText(path, value)
	}
}

func endsWithIndex(path string) bool {
	steps := fieldpath.Parse(path)
	return len(steps) > 0 && steps[len(steps)-1].HasIndex
}

func setMessage(f *form.Form, path string, s *schema.Schema, text string) error {
	doc, err := JSONInput().Unmarshal([]byte(text))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	v, err := Normalize(s, doc)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Set(path, v)
}
