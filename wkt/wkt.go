// Package wkt converts google.protobuf well-known types between their wire
// shape inside a request value and the text shown in editor inputs.
//
// Decoding is lenient: malformed input degrades to the type's zero value and
// the error is returned alongside it for logging only. Callers that do not
// care use FromEditable.
package wkt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/bhagwati-web/grpc-client/schema"
)

// ErrMalformed is returned (together with a usable zero value) when editor
// text cannot be decoded.
var ErrMalformed = errors.New("malformed well-known value")

// Input describes one text input of a well-known editor.
type Input struct {
	Name      string
	Label     string
	Multiline bool
	ReadOnly  bool
}

// Transcoder converts one well-known type. ToEditable returns one string per
// input; Decode always returns a value that can be written, even on error.
type Transcoder interface {
	Inputs() []Input
	ToEditable(wire any) []string
	Decode(parts []string) (any, error)
}

// FromEditable decodes parts and drops the error.
func FromEditable(t Transcoder, parts ...string) any {
	v, _ := t.Decode(parts)
	return v
}

type options struct {
	location *time.Location
}

// Option configures the transcoders returned by For.
type Option func(*options)

// WithLocation sets the zone Timestamp text is shown and parsed in.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// For returns the transcoder for w.
func For(w schema.WellKnownType, opts ...Option) (Transcoder, bool) {
	o := &options{location: time.Local}
	for _, opt := range opts {
		opt(o)
	}
	switch w {
	case schema.WKTTimestamp:
		return Timestamp{Location: o.location}, true
	case schema.WKTDuration:
		return Duration{}, true
	case schema.WKTStruct:
		return Struct{}, true
	case schema.WKTValue:
		return Value{}, true
	case schema.WKTListValue:
		return ListValue{}, true
	case schema.WKTAny:
		return Any{}, true
	case schema.WKTNullValue:
		return NullValue{}, true
	default:
		return nil, false
	}
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func malformed(kind, text string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s %q", ErrMalformed, kind, text)
	}
	return fmt.Errorf("%w: %s %q: %v", ErrMalformed, kind, text, err)
}

// toInt64 reads an integer out of a decoded wire value. protojson writes
// 64-bit integers as strings, JSON decoders produce float64 or json.Number.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		return int64(math.Floor(n)), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return int64(math.Floor(f)), err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
