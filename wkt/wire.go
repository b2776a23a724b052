package wkt

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/bhagwati-web/grpc-client/schema"
)

// FromWire converts a stored value of type w, in the engine's shape or the
// protojson one, into the engine's shape without passing through the editor
// text. Nothing is truncated: timestamp and duration nanos are kept and a
// protojson Any keeps its embedded fields. Unrecognized input degrades to
// the type's zero value. The second result is false when w has no transcoder.
func FromWire(w schema.WellKnownType, wire any) (any, bool) {
	switch w {
	case schema.WKTTimestamp:
		ts, ok := timestampFromWire(wire)
		if !ok || ts.CheckValid() != nil {
			return map[string]any{"seconds": int64(0), "nanos": int32(0)}, true
		}
		return timestampWire(ts), true
	case schema.WKTDuration:
		sec, nanos, ok := durationFromWire(wire)
		if !ok {
			return durationWire(0), true
		}
		return map[string]any{"seconds": sec, "nanos": nanos}, true
	case schema.WKTStruct:
		m, ok := wire.(map[string]any)
		if !ok {
			return structWire(map[string]any{}), true
		}
		if fields, ok := m["fields"].(map[string]any); ok && len(m) == 1 {
			return structWire(fields), true
		}
		return structWire(m), true
	case schema.WKTValue:
		return valueFromWire(wire), true
	case schema.WKTListValue:
		return listFromWire(wire), true
	case schema.WKTAny:
		m, ok := wire.(map[string]any)
		if !ok {
			return map[string]any{"type_url": "", "value": ""}, true
		}
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case schema.WKTNullValue:
		return nullWire(), true
	default:
		return wire, false
	}
}

// durationFromWire reads {seconds, nanos} objects, protojson "3.000000001s"
// strings and Go duration strings.
func durationFromWire(wire any) (int64, int32, bool) {
	switch w := wire.(type) {
	case map[string]any:
		sec, ok := toInt64(w["seconds"])
		if !ok {
			return 0, 0, false
		}
		nanos, _ := toInt64(w["nanos"])
		return sec, int32(nanos), true
	case string:
		if sec, nanos, ok := parseProtoDuration(w); ok {
			return sec, nanos, true
		}
		d, err := time.ParseDuration(w)
		if err != nil {
			return 0, 0, false
		}
		pb := durationpb.New(d)
		return pb.GetSeconds(), pb.GetNanos(), true
	default:
		return 0, 0, false
	}
}

// parseProtoDuration parses the protojson form: decimal seconds with up to
// nine fractional digits and an "s" suffix. It covers the whole Duration
// range, which time.ParseDuration does not.
func parseProtoDuration(text string) (int64, int32, bool) {
	body, ok := strings.CutSuffix(text, "s")
	if !ok || body == "" {
		return 0, 0, false
	}
	neg := strings.HasPrefix(body, "-")
	body = strings.TrimPrefix(body, "-")
	whole, frac, _ := strings.Cut(body, ".")
	if whole == "" || len(frac) > 9 {
		return 0, 0, false
	}
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	var nanos int64
	if frac != "" {
		n, err := strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 32)
		if err != nil {
			return 0, 0, false
		}
		nanos = int64(n)
	}
	pb := &durationpb.Duration{Seconds: sec, Nanos: int32(nanos)}
	if neg {
		pb.Seconds, pb.Nanos = -pb.Seconds, -pb.Nanos
	}
	if pb.CheckValid() != nil {
		return 0, 0, false
	}
	return pb.Seconds, pb.Nanos, true
}

// valueFromWire keeps a single-arm Value object and wraps any bare JSON value
// into its arm.
func valueFromWire(wire any) any {
	switch w := wire.(type) {
	case nil:
		return nullWire()
	case string:
		return map[string]any{armString: w}
	case bool:
		return map[string]any{armBool: w}
	case []any:
		return map[string]any{armList: listFromWire(w)}
	case map[string]any:
		if len(w) == 1 {
			for arm := range w {
				switch arm {
				case armString, armNumber, armBool, armNull, armList, armStruct:
					return w
				}
			}
		}
		return map[string]any{armStruct: structWire(w)}
	}
	if f, ok := toFloat64(wire); ok {
		return map[string]any{armNumber: f}
	}
	return nullWire()
}

func listFromWire(wire any) map[string]any {
	var values []any
	switch w := wire.(type) {
	case map[string]any:
		values, _ = w["values"].([]any)
	case []any:
		values = w
	}
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, valueFromWire(v))
	}
	return listWire(out)
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
