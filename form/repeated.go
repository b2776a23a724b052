package form

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/bhagwati-web/grpc-client/fieldpath"
)

// listLink resolves path to a writable repeated field.
func (f *Form) listLink(path string) (link, error) {
	chain, err := f.resolve(path)
	if err != nil {
		return link{}, err
	}
	last := chain[len(chain)-1]
	if !last.field.Repeated || last.hasIndex {
		return link{}, fmt.Errorf("%w: %s", ErrNotRepeated, path)
	}
	if err := f.writable(chain); err != nil {
		return link{}, err
	}
	return last, nil
}

// AddItem appends an empty placeholder to the repeated field at path and
// returns its index. The value is not written until the item is edited.
func (f *Form) AddItem(path string) (int, error) {
	l, err := f.listLink(path)
	if err != nil {
		return 0, err
	}
	st := f.states[l.path]
	st.Items = append(append([]ItemID(nil), st.Items...), newItems(1)...)
	f.states[l.path] = st
	f.changed()
	return len(st.Items) - 1, nil
}

// RemoveItem removes item i of the repeated field at path. The placeholder,
// the array slot (when one exists) and the UI state of later items all shift
// down by one in the same step. Removing the last typed item leaves an empty
// array, so the field stays present.
func (f *Form) RemoveItem(path string, i int) error {
	l, err := f.listLink(path)
	if err != nil {
		return err
	}
	st := f.states[l.path]
	if i < 0 || i >= len(st.Items) {
		return fmt.Errorf("%w: %s has %d items", ErrIndexOutOfRange, fieldpath.Index(l.path, i), len(st.Items))
	}
	st.Items = append(append([]ItemID(nil), st.Items[:i]...), st.Items[i+1:]...)
	f.states[l.path] = st

	f.value = fieldpath.Delete(f.value, fieldpath.Index(l.path, i)).(map[string]any)
	f.renumber(l.path, i)
	f.changed()
	return nil
}

// renumber drops the UI state under path[i] and moves path[j] to path[j-1]
// for every j > i.
func (f *Form) renumber(path string, removed int) {
	moved := make(map[string]FieldState)
	for _, k := range lo.Keys(f.states) {
		j, rest, ok := itemIndex(k, path)
		if !ok || j < removed {
			continue
		}
		st := f.states[k]
		delete(f.states, k)
		if j > removed {
			moved[fieldpath.Index(path, j-1)+rest] = st
		}
	}
	for k, st := range moved {
		f.states[k] = st
	}
}

// itemIndex splits key "path[j]rest" into j and rest.
func itemIndex(key, path string) (int, string, bool) {
	if !strings.HasPrefix(key, path+"[") {
		return 0, "", false
	}
	tail := key[len(path)+1:]
	end := strings.IndexByte(tail, ']')
	if end < 0 {
		return 0, "", false
	}
	j, err := strconv.Atoi(tail[:end])
	if err != nil {
		return 0, "", false
	}
	return j, tail[end+1:], true
}

// MapRow is one key/value row of a map field.
type MapRow struct {
	Key   any
	Value any
}

// MapRows reads the rows of a map field value. Entry lists keep their order;
// a plain object (as protojson writes maps) is read in key order.
func MapRows(v any) []MapRow {
	switch m := v.(type) {
	case []any:
		rows := make([]MapRow, 0, len(m))
		for _, e := range m {
			entry, ok := e.(map[string]any)
			if !ok {
				// Gap left by an item that was added but never edited.
				rows = append(rows, MapRow{})
				continue
			}
			rows = append(rows, MapRow{Key: entry["key"], Value: entry["value"]})
		}
		return rows
	case map[string]any:
		keys := lo.Keys(m)
		sort.Strings(keys)
		return lo.Map(keys, func(k string, _ int) MapRow {
			return MapRow{Key: k, Value: m[k]}
		})
	default:
		return nil
	}
}

// MapFromRows builds the entry list stored for a map field.
func MapFromRows(rows []MapRow) []any {
	return lo.Map(rows, func(r MapRow, _ int) any {
		entry := map[string]any{}
		if r.Key != nil {
			entry["key"] = r.Key
		}
		if r.Value != nil {
			entry["value"] = r.Value
		}
		return entry
	})
}
