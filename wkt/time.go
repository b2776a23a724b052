package wkt

import (
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// LocalLayout is the datetime format shown for timestamps.
const LocalLayout = "2006-01-02T15:04:05"

var localLayouts = []string{LocalLayout, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"}

// Timestamp edits {seconds, nanos} as a local datetime. Sub-second precision
// is dropped on decode.
type Timestamp struct {
	Location *time.Location
}

func (Timestamp) Inputs() []Input {
	return []Input{{Name: "datetime", Label: "datetime (" + LocalLayout + ")"}}
}

func (t Timestamp) ToEditable(wire any) []string {
	ts, ok := timestampFromWire(wire)
	if !ok {
		return []string{""}
	}
	return []string{ts.AsTime().In(t.location()).Format(LocalLayout)}
}

func (t Timestamp) Decode(parts []string) (any, error) {
	text := strings.TrimSpace(part(parts, 0))
	if text == "" {
		return timestampWire(&timestamppb.Timestamp{}), nil
	}
	parsed, err := t.parse(text)
	if err != nil {
		return timestampWire(&timestamppb.Timestamp{}), malformed("timestamp", text, err)
	}
	ts := timestamppb.New(parsed)
	if err := ts.CheckValid(); err != nil {
		return timestampWire(&timestamppb.Timestamp{}), malformed("timestamp", text, err)
	}
	ts.Nanos = 0
	return timestampWire(ts), nil
}

func (t Timestamp) parse(text string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return parsed, nil
	}
	var firstErr error
	for _, layout := range localLayouts {
		parsed, err := time.ParseInLocation(layout, text, t.location())
		if err == nil {
			return parsed, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func (t Timestamp) location() *time.Location {
	if t.Location == nil {
		return time.Local
	}
	return t.Location
}

func timestampWire(ts *timestamppb.Timestamp) map[string]any {
	return map[string]any{"seconds": ts.GetSeconds(), "nanos": ts.GetNanos()}
}

// timestampFromWire accepts the engine's {seconds, nanos} object and the
// RFC3339 string protojson produces.
func timestampFromWire(wire any) (*timestamppb.Timestamp, bool) {
	switch w := wire.(type) {
	case map[string]any:
		sec, ok := toInt64(w["seconds"])
		if !ok {
			return nil, false
		}
		nanos, _ := toInt64(w["nanos"])
		return &timestamppb.Timestamp{Seconds: sec, Nanos: int32(nanos)}, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, w)
		if err != nil {
			return nil, false
		}
		return timestamppb.New(parsed), true
	default:
		return nil, false
	}
}

// Duration edits {seconds, nanos} as a whole number of seconds. Go duration
// syntax ("1m30s") is accepted too; nanos is always written as 0.
type Duration struct{}

func (Duration) Inputs() []Input {
	return []Input{{Name: "seconds", Label: "seconds"}}
}

func (Duration) ToEditable(wire any) []string {
	switch w := wire.(type) {
	case map[string]any:
		if sec, ok := toInt64(w["seconds"]); ok {
			return []string{strconv.FormatInt(sec, 10)}
		}
	case string:
		if d, err := time.ParseDuration(w); err == nil {
			return []string{strconv.FormatInt(durationpb.New(d).GetSeconds(), 10)}
		}
	}
	return []string{""}
}

func (Duration) Decode(parts []string) (any, error) {
	text := strings.TrimSpace(part(parts, 0))
	if text == "" {
		return durationWire(0), nil
	}
	if sec, err := strconv.ParseInt(text, 10, 64); err == nil {
		return durationWire(sec), nil
	}
	d, err := time.ParseDuration(text)
	if err != nil {
		return durationWire(0), malformed("duration", text, err)
	}
	return durationWire(durationpb.New(d).GetSeconds()), nil
}

func durationWire(sec int64) map[string]any {
	return map[string]any{"seconds": sec, "nanos": int32(0)}
}
