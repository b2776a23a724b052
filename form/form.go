// Package form is the editing engine behind a schema-driven request form.
//
// A Form owns the value being edited (a nested map[string]any shaped like the
// schema) and a flat map of per-path UI state: whether a field is enabled,
// whether a node is expanded, and the placeholder list of repeated fields.
// Every mutation replaces the value with a new top-level map (see package
// fieldpath), so a value handed to a callback is never modified afterwards.
//
// A Form is not safe for concurrent use. Change notifications for edits are
// debounced and delivered from a timer goroutine; structural changes (enable,
// disable, add, remove) are delivered synchronously.
package form

import (
	"errors"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/bhagwati-web/grpc-client/fieldpath"
	"github.com/bhagwati-web/grpc-client/schema"
	"github.com/bhagwati-web/grpc-client/wkt"
)

var (
	// ErrFieldDisabled is returned for writes below a field that is not enabled.
	ErrFieldDisabled = errors.New("field is disabled")
	// ErrUnknownField is returned when a path names a field the schema lacks.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotRepeated is returned when an index is used on a singular field,
	// or omitted on a repeated one.
	ErrNotRepeated = errors.New("field is not repeated")
	// ErrIndexOutOfRange is returned when an index has no item placeholder.
	ErrIndexOutOfRange = errors.New("item index out of range")
	// ErrInvalidScalar is returned when text cannot be parsed for a field.
	ErrInvalidScalar = errors.New("invalid value")
)

// DefaultDebounce is the delay between the last edit and its notification.
const DefaultDebounce = 300 * time.Millisecond

// ItemID identifies one placeholder of a repeated field. It is stable while
// the item exists, so a renderer can key rows by it across removals.
type ItemID string

// FieldState is the UI state of one path.
type FieldState struct {
	Enabled  bool
	Expanded bool
	// Items holds one placeholder per list element of a repeated field. It may
	// be longer than the value's array while new items are still empty.
	Items []ItemID
}

type options struct {
	onChange       func(map[string]any)
	onFieldCleared func(string)
	debounce       time.Duration
	logger         *slog.Logger
	clock          Clock
	location       *time.Location
}

// Option configures a Form.
type Option func(*options)

// WithOnChange registers the callback receiving every new value.
func WithOnChange(fn func(map[string]any)) Option {
	return func(o *options) { o.onChange = fn }
}

// WithOnFieldCleared registers the callback fired with the path of every
// field that gets disabled.
func WithOnFieldCleared(fn func(path string)) Option {
	return func(o *options) { o.onFieldCleared = fn }
}

// WithDebounce sets the edit notification delay. Zero or less notifies
// synchronously.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithLogger sets the logger used for degraded input.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces the timer source used for debouncing.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLocation sets the zone timestamps are edited in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// Form edits one request value against a schema.
type Form struct {
	schema *schema.Schema
	opts   options
	value  map[string]any
	states map[string]FieldState
	notify *debouncer
	closed bool
}

// New mounts a form over initial, which is not modified. Fields present in
// initial start enabled.
func New(s *schema.Schema, initial map[string]any, opts ...Option) *Form {
	o := options{
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
		clock:    realClock{},
		location: time.Local,
	}
	for _, opt := range opts {
		opt(&o)
	}
	f := &Form{
		schema: s,
		opts:   o,
		notify: newDebouncer(o.clock, o.debounce),
	}
	f.load(initial)
	return f
}

// Schema returns the schema the form edits.
func (f *Form) Schema() *schema.Schema { return f.schema }

// Value returns the current value. Callers must not modify it.
func (f *Form) Value() map[string]any { return f.value }

// State returns the UI state of path.
func (f *Form) State(path string) FieldState { return f.states[path] }

// States returns a copy of the whole UI state map.
func (f *Form) States() map[string]FieldState {
	out := make(map[string]FieldState, len(f.states))
	for k, st := range f.states {
		st.Items = append([]ItemID(nil), st.Items...)
		out[k] = st
	}
	return out
}

// Reset replaces the value wholesale, for example when another method is
// selected. A pending notification is dropped and nothing is fired.
func (f *Form) Reset(initial map[string]any) {
	f.notify.cancel()
	f.load(initial)
}

// Close drops any pending notification. No callbacks fire afterwards.
func (f *Form) Close() {
	f.closed = true
	f.notify.cancel()
}

func (f *Form) load(initial map[string]any) {
	f.value = maps.Clone(initial)
	if f.value == nil {
		f.value = map[string]any{}
	}
	f.states = make(map[string]FieldState)
	f.mount(f.schema, "")
}

// mount enables every field present in the value and gives repeated fields
// one placeholder per element. Only present values are descended into, so
// recursive schemas terminate.
func (f *Form) mount(s *schema.Schema, container string) {
	if s == nil {
		return
	}
	for _, fld := range s.Fields {
		p := fieldpath.Join(container, fld.Name)
		v, ok := fieldpath.Get(f.value, p)
		if !ok {
			continue
		}
		st := FieldState{Enabled: true}
		switch {
		case fld.IsMap():
			entries := MapFromRows(MapRows(v))
			f.value = fieldpath.Set(f.value, p, entries).(map[string]any)
			st.Items = newItems(len(entries))
		case fld.Repeated:
			arr, _ := v.([]any)
			st.Items = newItems(len(arr))
			if nestable(fld) {
				for i := range arr {
					f.mount(fld.Nested, fieldpath.Index(p, i))
				}
			}
		case nestable(fld):
			f.mount(fld.Nested, p)
		}
		f.states[p] = st
	}
}

// nestable reports whether a message field is edited field by field.
func nestable(fld *schema.FieldSchema) bool {
	return fld.Kind == schema.KindMessage && fld.Nested != nil && fld.WellKnown == schema.WKTNone
}

func newItems(n int) []ItemID {
	items := make([]ItemID, n)
	for i := range items {
		items[i] = ItemID(uuid.NewString())
	}
	return items
}

func (f *Form) transcoder(w schema.WellKnownType) (wkt.Transcoder, bool) {
	return wkt.For(w, wkt.WithLocation(f.opts.location))
}

// changed notifies immediately and drops any pending edit notification,
// whose snapshot is older than the current value.
func (f *Form) changed() {
	f.notify.cancel()
	if f.closed || f.opts.onChange == nil {
		return
	}
	f.opts.onChange(f.value)
}

// edited schedules a debounced notification carrying the current value.
func (f *Form) edited() {
	if f.closed || f.opts.onChange == nil {
		return
	}
	snapshot, fn := f.value, f.opts.onChange
	f.notify.schedule(func() { fn(snapshot) })
}
