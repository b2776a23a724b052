package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/bhagwati-web/grpc-client/fieldpath"
	"github.com/bhagwati-web/grpc-client/schema"
)

// link is one field along a resolved path.
type link struct {
	field     *schema.FieldSchema
	container *schema.Schema
	// containerPath addresses the message value holding the field.
	containerPath string
	// path addresses the field itself, without the index of this step.
	path     string
	index    int
	hasIndex bool
	// entry marks the key/value fields of a map entry, which have no
	// presence toggle of their own.
	entry bool
}

// elementPath is the path of the value this link addresses.
func (l link) elementPath() string {
	if l.hasIndex {
		return fieldpath.Index(l.path, l.index)
	}
	return l.path
}

func (f *Form) resolve(path string) ([]link, error) {
	steps := fieldpath.Parse(path)
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrUnknownField)
	}
	s := f.schema
	container := ""
	entry := false
	chain := make([]link, 0, len(steps))
	for i, st := range steps {
		if st.Key == "" {
			return nil, fmt.Errorf("%w: %s: nested lists are not addressable", ErrNotRepeated, path)
		}
		fld := s.Field(st.Key)
		if fld == nil {
			return nil, fmt.Errorf("%w: %s in %s", ErrUnknownField, st.Key, s.FullName)
		}
		l := link{
			field:         fld,
			container:     s,
			containerPath: container,
			path:          fieldpath.Join(container, st.Key),
			index:         st.Index,
			hasIndex:      st.HasIndex,
			entry:         entry,
		}
		if st.HasIndex && !fld.Repeated {
			return nil, fmt.Errorf("%w: %s", ErrNotRepeated, l.path)
		}
		chain = append(chain, l)
		if i == len(steps)-1 {
			break
		}
		if fld.Kind != schema.KindMessage || fld.Nested == nil {
			return nil, fmt.Errorf("%w: %s has no fields", ErrUnknownField, l.path)
		}
		if fld.Repeated && !st.HasIndex {
			return nil, fmt.Errorf("%w: %s needs an item index", ErrNotRepeated, l.path)
		}
		container = l.elementPath()
		entry = fld.IsMap()
		s = fld.Nested
	}
	return chain, nil
}

// writable checks that every field along chain is enabled and every index
// has a placeholder.
func (f *Form) writable(chain []link) error {
	for _, l := range chain {
		if l.entry {
			continue
		}
		st := f.states[l.path]
		if !st.Enabled {
			return fmt.Errorf("%w: %s", ErrFieldDisabled, l.path)
		}
		if l.hasIndex && l.index >= len(st.Items) {
			return fmt.Errorf("%w: %s has %d items", ErrIndexOutOfRange, fieldpath.Index(l.path, l.index), len(st.Items))
		}
	}
	return nil
}

// Field returns the schema of the field path addresses.
func (f *Form) Field(path string) (*schema.FieldSchema, error) {
	chain, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	return chain[len(chain)-1].field, nil
}

// Set writes v at path. The path must be writable.
func (f *Form) Set(path string, v any) error {
	chain, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := f.writable(chain); err != nil {
		return err
	}
	f.write(chain, v)
	return nil
}

func (f *Form) write(chain []link, v any) {
	path := chain[len(chain)-1].elementPath()
	f.value = fieldpath.Set(f.value, path, v).(map[string]any)
	f.edited()
}

// SetText parses text for the scalar or enum at path and writes it. Paths to
// well-known fields are routed through their transcoder.
func (f *Form) SetText(path, text string) error {
	chain, err := f.resolve(path)
	if err != nil {
		return err
	}
	last := chain[len(chain)-1]
	if last.field.Repeated && !last.hasIndex {
		return fmt.Errorf("%w: %s needs an item index", ErrNotRepeated, last.path)
	}
	if last.field.WellKnown != schema.WKTNone {
		return f.setEditable(chain, []string{text})
	}
	if err := f.writable(chain); err != nil {
		return err
	}
	v, err := ParseScalar(last.field, text)
	if err != nil {
		return fmt.Errorf("%s: %w", last.elementPath(), err)
	}
	f.write(chain, v)
	return nil
}

// SetEditable decodes parts with the transcoder of the well-known field at
// path and writes the result. Malformed input is written as the type's zero
// value and logged.
func (f *Form) SetEditable(path string, parts ...string) error {
	chain, err := f.resolve(path)
	if err != nil {
		return err
	}
	return f.setEditable(chain, parts)
}

func (f *Form) setEditable(chain []link, parts []string) error {
	last := chain[len(chain)-1]
	if last.field.Repeated && !last.hasIndex {
		return fmt.Errorf("%w: %s needs an item index", ErrNotRepeated, last.path)
	}
	tc, ok := f.transcoder(last.field.WellKnown)
	if !ok {
		return fmt.Errorf("%w: %s is not a well-known type", ErrInvalidScalar, last.path)
	}
	if err := f.writable(chain); err != nil {
		return err
	}
	v, err := tc.Decode(parts)
	if err != nil {
		f.opts.logger.Debug("well-known input degraded to zero value",
			"path", last.elementPath(),
			"type", last.field.WellKnown.String(),
			"error", err)
	}
	f.write(chain, v)
	return nil
}

// ParseScalar converts text for a scalar or enum field. Integers become
// int64 or uint64 and must fit the field's width, floats float64, enums
// their value name.
func ParseScalar(fld *schema.FieldSchema, text string) (any, error) {
	switch fld.Kind {
	case schema.KindString, schema.KindBytes:
		return text, nil
	case schema.KindInt, schema.KindSint, schema.KindUint, schema.KindFixed:
		return parseInteger(fld, text)
	case schema.KindDouble, schema.KindFloat:
		bits := 64
		if fld.Kind == schema.KindFloat {
			bits = 32
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(text), bits)
		if err != nil {
			return nil, invalid(fld, text)
		}
		return n, nil
	case schema.KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, invalid(fld, text)
		}
		return b, nil
	case schema.KindEnum:
		t := strings.TrimSpace(text)
		if fld.HasEnumName(t) {
			return t, nil
		}
		if n, err := strconv.ParseInt(t, 10, 32); err == nil {
			if name, ok := fld.EnumName(int32(n)); ok {
				return name, nil
			}
		}
		return nil, invalid(fld, text)
	default:
		return nil, fmt.Errorf("%w: %s is not a scalar", ErrInvalidScalar, fld.Kind)
	}
}

// parseInteger parses text within the field's width. Int and sint kinds are
// signed, uint unsigned, and fixed follows fld.Signed (sfixed vs fixed).
// A zero Bits means 64.
func parseInteger(fld *schema.FieldSchema, text string) (any, error) {
	bits := fld.Bits
	if bits == 0 {
		bits = 64
	}
	t := strings.TrimSpace(text)
	signed := fld.Kind == schema.KindInt || fld.Kind == schema.KindSint ||
		(fld.Kind == schema.KindFixed && fld.Signed)
	if signed {
		n, err := strconv.ParseInt(t, 10, bits)
		if err != nil {
			return nil, invalid(fld, text)
		}
		return n, nil
	}
	n, err := strconv.ParseUint(t, 10, bits)
	if err != nil {
		return nil, invalid(fld, text)
	}
	return n, nil
}

func invalid(fld *schema.FieldSchema, text string) error {
	return fmt.Errorf("%w: %q for %s field %s", ErrInvalidScalar, text, strings.ToLower(fld.Kind.String()), fld.Name)
}

// FormatScalar renders a scalar value as input text. Numeric enum values are
// shown by name when fld knows them.
func FormatScalar(fld *schema.FieldSchema, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if fld != nil && fld.Kind == schema.KindEnum && x == math.Trunc(x) {
			if name, ok := fld.EnumName(int32(x)); ok {
				return name
			}
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case int:
		if fld != nil && fld.Kind == schema.KindEnum {
			if name, ok := fld.EnumName(int32(x)); ok {
				return name
			}
		}
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
