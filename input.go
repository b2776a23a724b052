package grpcclient

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/bhagwati-web/grpc-client/fieldpath"
	"github.com/bhagwati-web/grpc-client/form"
	"github.com/bhagwati-web/grpc-client/schema"
	"github.com/bhagwati-web/grpc-client/wkt"
)

// InputFormat defines how to decode file contents into a generic value.
type InputFormat interface {
	// Name returns the format identifier (e.g., "json", "yaml")
	Name() string

	// Extensions returns file extensions this format handles (e.g., [".json"] or [".yaml", ".yml"])
	Extensions() []string

	// Unmarshal parses data into a JSON-like tree.
	Unmarshal(data []byte) (map[string]any, error)
}

type jsonInputFormat struct{}

func (f *jsonInputFormat) Name() string { return "json" }

func (f *jsonInputFormat) Extensions() []string { return []string{".json"} }

func (f *jsonInputFormat) Unmarshal(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return out, nil
}

type yamlInputFormat struct{}

func (f *yamlInputFormat) Name() string { return "yaml" }

func (f *yamlInputFormat) Extensions() []string { return []string{".yaml", ".yml"} }

func (f *yamlInputFormat) Unmarshal(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return out, nil
}

// JSONInput returns an InputFormat that reads JSON, including protojson.
func JSONInput() InputFormat {
	return &jsonInputFormat{}
}

// YAMLInput returns an InputFormat that reads YAML.
func YAMLInput() InputFormat {
	return &yamlInputFormat{}
}

// DefaultInputFormats returns the default set of input formats: JSON and YAML.
func DefaultInputFormats() []InputFormat {
	return []InputFormat{JSONInput(), YAMLInput()}
}

// ReadInputFile reads filePath ("-" for stdin) and decodes it.
//
// Format selection waterfall:
//  1. If formatName is non-empty, find the format by name. Error if not found.
//  2. Match filepath.Ext(filePath) against each format's Extensions(). Use first match.
//  3. Try all formats in order, use the first one that succeeds. If all fail, return a combined error.
func ReadInputFile(filePath, formatName string, formats []InputFormat) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if filePath == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", filePath, err)
	}

	// 1. Explicit format name
	if formatName != "" {
		for _, f := range formats {
			if f.Name() == formatName {
				v, err := f.Unmarshal(data)
				if err != nil {
					return nil, fmt.Errorf("failed to unmarshal input file %s as %s: %w", filePath, formatName, err)
				}
				return v, nil
			}
		}
		var available []string
		for _, f := range formats {
			available = append(available, f.Name())
		}
		return nil, fmt.Errorf("unknown input format %q (available: %v)", formatName, available)
	}

	// 2. Match by file extension
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, f := range formats {
		for _, fExt := range f.Extensions() {
			if ext == fExt {
				v, err := f.Unmarshal(data)
				if err != nil {
					return nil, fmt.Errorf("failed to unmarshal input file %s as %s: %w", filePath, f.Name(), err)
				}
				return v, nil
			}
		}
	}

	// 3. Try all formats
	var errs []string
	for _, f := range formats {
		v, err := f.Unmarshal(data)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", f.Name(), err))
			continue
		}
		return v, nil
	}

	return nil, fmt.Errorf("failed to unmarshal input file %s: no format matched (tried: %s)", filePath, strings.Join(errs, "; "))
}

// Normalize reshapes a decoded document into the value layout the form
// engine edits. Keys may be field names, JSON names or any casing of the
// field name. Numbers and enums are parsed the way typed text is, map objects
// become key/value entry lists and well-known types are reduced to their wire
// maps with their full precision. Null members are dropped.
func Normalize(s *schema.Schema, doc map[string]any) (map[string]any, error) {
	var n normalizer
	return n.message(s, doc, "")
}

type normalizer struct{}

func (n normalizer) message(s *schema.Schema, doc map[string]any, container string) (map[string]any, error) {
	out := make(map[string]any, len(doc))
	for key, v := range doc {
		fld := lookupField(s, key)
		if fld == nil {
			return nil, fmt.Errorf("%w: %s", form.ErrUnknownField, fieldpath.Join(container, key))
		}
		if v == nil {
			continue
		}
		path := fieldpath.Join(container, fld.Name)
		nv, err := n.field(fld, v, path)
		if err != nil {
			return nil, err
		}
		out[fld.Name] = nv
	}
	return out, nil
}

func lookupField(s *schema.Schema, key string) *schema.FieldSchema {
	if fld := s.Field(key); fld != nil {
		return fld
	}
	if fld := s.FieldByJSONName(key); fld != nil {
		return fld
	}
	return s.Field(strcase.ToSnake(key))
}

func (n normalizer) field(fld *schema.FieldSchema, v any, path string) (any, error) {
	switch {
	case fld.IsMap():
		return n.mapEntries(fld, v, path)
	case fld.Repeated:
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected a list, got %T", path, v)
		}
		out := make([]any, len(list))
		for i, elem := range list {
			if elem == nil {
				continue
			}
			nv, err := n.element(fld, elem, fieldpath.Index(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return n.element(fld, v, path)
	}
}

func (n normalizer) mapEntries(fld *schema.FieldSchema, v any, path string) (any, error) {
	keyField, valueField := fld.Nested.Field("key"), fld.Nested.Field("value")
	rows := form.MapRows(stringKeys(v))
	for i := range rows {
		rowPath := fieldpath.Index(path, i)
		if rows[i].Key != nil {
			k, err := n.element(keyField, rows[i].Key, fieldpath.Join(rowPath, "key"))
			if err != nil {
				return nil, err
			}
			rows[i].Key = k
		}
		if rows[i].Value != nil {
			val, err := n.element(valueField, rows[i].Value, fieldpath.Join(rowPath, "value"))
			if err != nil {
				return nil, err
			}
			rows[i].Value = val
		}
	}
	return form.MapFromRows(rows), nil
}

func (n normalizer) element(fld *schema.FieldSchema, v any, path string) (any, error) {
	v = stringKeys(v)
	if fld.WellKnown != schema.WKTNone {
		// Saved values keep their full precision; only editor text is
		// truncated.
		out, _ := wkt.FromWire(fld.WellKnown, v)
		return out, nil
	}
	if fld.Kind == schema.KindMessage {
		doc, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected an object, got %T", path, v)
		}
		return n.message(fld.Nested, doc, path)
	}
	text, err := scalarText(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out, err := form.ParseScalar(fld, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func scalarText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: unexpected %T", form.ErrInvalidScalar, v)
	}
}

// stringKeys converts YAML mappings with non-string keys, which yaml.v3
// decodes as map[any]any, so map fields keyed by numbers decode.
func stringKeys(v any) any {
	m, ok := v.(map[any]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[fmt.Sprint(k)] = val
	}
	return out
}
