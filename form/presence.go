package form

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/bhagwati-web/grpc-client/fieldpath"
)

// fieldLink resolves path to a field toggle: the last step must name a field,
// not an item, and must not be a map entry key or value.
func (f *Form) fieldLink(path string) (link, error) {
	chain, err := f.resolve(path)
	if err != nil {
		return link{}, err
	}
	last := chain[len(chain)-1]
	if last.hasIndex {
		return link{}, fmt.Errorf("%w: %s addresses an item, not a field", ErrNotRepeated, path)
	}
	if last.entry {
		return link{}, fmt.Errorf("%w: map entry %s has no toggle", ErrUnknownField, path)
	}
	if err := f.writable(chain[:len(chain)-1]); err != nil {
		return link{}, err
	}
	return last, nil
}

// Enable turns a field on without writing a value. Enabled fields of the same
// oneof are disabled first. The parent chain must be enabled.
func (f *Form) Enable(path string) error {
	l, err := f.fieldLink(path)
	if err != nil {
		return err
	}
	if f.states[l.path].Enabled {
		return nil
	}
	for _, sib := range l.container.OneofSiblings(l.field) {
		sibPath := fieldpath.Join(l.containerPath, sib.Name)
		if f.states[sibPath].Enabled {
			f.disable(sibPath)
		}
	}
	st := f.states[l.path]
	st.Enabled = true
	f.states[l.path] = st
	f.changed()
	return nil
}

// Disable turns a field off, removes its value and forgets the UI state of
// everything below it. Re-enabling does not bring the value back.
func (f *Form) Disable(path string) error {
	l, err := f.fieldLink(path)
	if err != nil {
		return err
	}
	if !f.states[l.path].Enabled {
		return nil
	}
	f.disable(l.path)
	f.changed()
	return nil
}

func (f *Form) disable(path string) {
	f.value = fieldpath.Delete(f.value, path).(map[string]any)
	for _, k := range lo.Keys(f.states) {
		if fieldpath.HasPrefix(k, path) {
			delete(f.states, k)
		}
	}
	if f.opts.onFieldCleared != nil && !f.closed {
		f.opts.onFieldCleared(path)
	}
}

// Ensure makes path writable: every field along it is enabled and an index
// one past the last item appends a placeholder. Larger indexes fail with
// ErrIndexOutOfRange before anything changes. Used to apply assignments
// given by path.
func (f *Form) Ensure(path string) error {
	chain, err := f.resolve(path)
	if err != nil {
		return err
	}
	for _, l := range chain {
		if l.entry || !l.hasIndex {
			continue
		}
		if n := len(f.states[l.path].Items); l.index > n {
			return fmt.Errorf("%w: %s has %d items; the next one is %s",
				ErrIndexOutOfRange, l.path, n, fieldpath.Index(l.path, n))
		}
	}
	changed := false
	for _, l := range chain {
		if l.entry {
			continue
		}
		st := f.states[l.path]
		if !st.Enabled {
			for _, sib := range l.container.OneofSiblings(l.field) {
				sibPath := fieldpath.Join(l.containerPath, sib.Name)
				if f.states[sibPath].Enabled {
					f.disable(sibPath)
				}
			}
			st.Enabled = true
			changed = true
		}
		if l.hasIndex && l.index == len(st.Items) {
			st.Items = append(append([]ItemID(nil), st.Items...), newItems(1)...)
			changed = true
		}
		f.states[l.path] = st
	}
	if changed {
		f.changed()
	}
	return nil
}

// SetExpanded records whether the node at path shows its children. Any field
// or item path may be expanded.
func (f *Form) SetExpanded(path string, expanded bool) error {
	if _, err := f.resolve(path); err != nil {
		return err
	}
	st := f.states[path]
	st.Expanded = expanded
	f.states[path] = st
	return nil
}

// Pending reports whether an edit notification is waiting to fire.
func (f *Form) Pending() bool { return f.notify.pending() }
