// Package fieldpath reads and writes values inside nested request values
// using dotted/bracketed paths such as "items[2].sku".
//
// Containers are plain map[string]any objects and []any arrays. Set and Delete
// never mutate their input: every container along the path is copied and the
// returned root is a new reference, while untouched subtrees stay shared. This
// lets callers compare roots by reference to detect change, and lets snapshots
// be handed to other goroutines without further copying.
package fieldpath

import (
	"strconv"
	"strings"
)

// MaxGrowth is how far past the end of an array Set may write. Larger
// indexes leave the value unchanged.
const MaxGrowth = 1024

// Step is one segment of a path. Key is empty for a bare index step such as
// the second step of "grid[1][2]". A step without an index always names a
// map key, even an empty one ("a..b").
type Step struct {
	Key      string
	Index    int
	HasIndex bool
}

// String renders the step back into path syntax.
func (s Step) String() string {
	if !s.HasIndex {
		return s.Key
	}
	return s.Key + "[" + strconv.Itoa(s.Index) + "]"
}

// Parse splits path on "." and extracts trailing "[n]" suffixes from each
// segment. A malformed bracket expression is kept as part of a plain key.
func Parse(path string) []Step {
	if path == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	steps := make([]Step, 0, len(segments))
	for _, seg := range segments {
		steps = append(steps, parseSegment(seg)...)
	}
	return steps
}

func parseSegment(seg string) []Step {
	// Peel "[n]" suffixes from the right so "grid[1][2]" yields grid[1], [2].
	var indexes []int
	key := seg
	for strings.HasSuffix(key, "]") {
		open := strings.LastIndexByte(key, '[')
		if open < 0 {
			break
		}
		n, err := strconv.Atoi(key[open+1 : len(key)-1])
		if err != nil || n < 0 {
			break
		}
		indexes = append(indexes, n)
		key = key[:open]
	}
	if len(indexes) == 0 {
		return []Step{{Key: seg}}
	}
	steps := make([]Step, 0, len(indexes))
	// indexes were collected innermost-last.
	steps = append(steps, Step{Key: key, Index: indexes[len(indexes)-1], HasIndex: true})
	for i := len(indexes) - 2; i >= 0; i-- {
		steps = append(steps, Step{Index: indexes[i], HasIndex: true})
	}
	return steps
}

// Format joins steps back into a path.
func Format(steps []Step) string {
	var sb strings.Builder
	for i, s := range steps {
		if i > 0 && !s.bareIndex() {
			sb.WriteByte('.')
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Join appends a field name to a parent path.
func Join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// Index appends an array index to a path.
func Index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// HasPrefix reports whether path equals prefix or addresses something inside it.
func HasPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	next := path[len(prefix)]
	return next == '.' || next == '['
}

// Get returns the value at path and whether it is present. Missing
// intermediates, type mismatches and nil array gaps all read as absent.
func Get(root any, path string) (any, bool) {
	cur := root
	for _, s := range Parse(path) {
		if !s.bareIndex() {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = m[s.Key]; !ok {
				return nil, false
			}
		}
		if s.HasIndex {
			arr, ok := cur.([]any)
			if !ok || s.Index >= len(arr) || arr[s.Index] == nil {
				return nil, false
			}
			cur = arr[s.Index]
		}
	}
	return cur, true
}

// Set returns a copy of root with v stored at path. Missing maps and arrays
// are created on the way; arrays grow by index assignment and are not
// compacted, so skipped slots stay nil. An index more than MaxGrowth past
// the end of its array returns root unchanged.
func Set(root any, path string, v any) any {
	steps := Parse(path)
	if len(steps) == 0 || !fits(root, steps) {
		return root
	}
	return set(root, steps, v)
}

func fits(cur any, steps []Step) bool {
	for _, s := range steps {
		if !s.bareIndex() {
			m, _ := cur.(map[string]any)
			cur = m[s.Key]
		}
		if s.HasIndex {
			arr, _ := cur.([]any)
			if s.Index-len(arr) > MaxGrowth {
				return false
			}
			cur = nil
			if s.Index < len(arr) {
				cur = arr[s.Index]
			}
		}
	}
	return true
}

func (s Step) bareIndex() bool { return s.HasIndex && s.Key == "" }

func set(cur any, steps []Step, v any) any {
	if len(steps) == 0 {
		return v
	}
	s, rest := steps[0], steps[1:]
	if s.bareIndex() {
		return setIndex(cur, s.Index, rest, v)
	}
	m := cloneMap(cur, 1)
	if s.HasIndex {
		m[s.Key] = setIndex(m[s.Key], s.Index, rest, v)
	} else {
		m[s.Key] = set(m[s.Key], rest, v)
	}
	return m
}

func setIndex(cur any, i int, rest []Step, v any) any {
	old, _ := cur.([]any)
	size := len(old)
	if i >= size {
		size = i + 1
	}
	arr := make([]any, size)
	copy(arr, old)
	arr[i] = set(arr[i], rest, v)
	return arr
}

// Delete returns a copy of root without the value at path. Deleting an array
// slot splices it out, shifting later slots down by one. A path that does not
// exist returns root unchanged.
func Delete(root any, path string) any {
	steps := Parse(path)
	if len(steps) == 0 {
		return root
	}
	out, _ := del(root, steps)
	return out
}

func del(cur any, steps []Step) (any, bool) {
	s, rest := steps[0], steps[1:]
	if s.bareIndex() {
		return delIndex(cur, s.Index, rest)
	}
	m, ok := cur.(map[string]any)
	if !ok {
		return cur, false
	}
	child, ok := m[s.Key]
	if !ok {
		return cur, false
	}
	if !s.HasIndex && len(rest) == 0 {
		out := cloneMap(m, 0)
		delete(out, s.Key)
		return out, true
	}
	var updated any
	var changed bool
	if s.HasIndex {
		updated, changed = delIndex(child, s.Index, rest)
	} else {
		updated, changed = del(child, rest)
	}
	if !changed {
		return cur, false
	}
	out := cloneMap(m, 0)
	out[s.Key] = updated
	return out, true
}

func delIndex(cur any, i int, rest []Step) (any, bool) {
	arr, ok := cur.([]any)
	if !ok || i >= len(arr) {
		return cur, false
	}
	if len(rest) == 0 {
		out := make([]any, 0, len(arr)-1)
		out = append(out, arr[:i]...)
		out = append(out, arr[i+1:]...)
		return out, true
	}
	updated, changed := del(arr[i], rest)
	if !changed {
		return cur, false
	}
	out := make([]any, len(arr))
	copy(out, arr)
	out[i] = updated
	return out, true
}

func cloneMap(cur any, extra int) map[string]any {
	old, _ := cur.(map[string]any)
	out := make(map[string]any, len(old)+extra)
	for k, v := range old {
		out[k] = v
	}
	return out
}

// Parent returns the path of the container holding path, or "" at top level.
// The parent of "items[2]" is "items".
func Parent(path string) string {
	steps := Parse(path)
	if len(steps) == 0 {
		return ""
	}
	last := steps[len(steps)-1]
	if last.HasIndex && last.Key != "" {
		steps[len(steps)-1] = Step{Key: last.Key}
		return Format(steps)
	}
	return Format(steps[:len(steps)-1])
}
