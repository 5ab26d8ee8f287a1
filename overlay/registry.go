package overlay

import "image"

type entry struct {
	id      ID
	o       Overlay
	removed bool
}

// Registry is an ordered set of overlays.
//
// Registry is not safe for concurrent use.
type Registry struct {
	entries []*entry
	next    ID
	obs     Observer
}

// NewRegistry creates an empty registry. obs, if non-nil, is attached to
// every Observable overlay added.
func NewRegistry(obs Observer) *Registry {
	return &Registry{obs: obs}
}

// Add registers o and returns its id. Adding an overlay that is already
// registered returns the existing id.
func (r *Registry) Add(o Overlay) ID {
	for _, e := range r.entries {
		if e.o == o {
			return e.id
		}
	}
	r.next++
	e := &entry{id: r.next, o: o}
	r.entries = append(r.entries, e)
	if ob, ok := o.(Observable); ok && r.obs != nil {
		ob.Attach(e.id, r.obs)
	}
	return e.id
}

// Remove drops the registration and reports whether it existed. Removing an
// unknown or already removed id is a no-op.
func (r *Registry) Remove(id ID) bool {
	for i, e := range r.entries {
		if e.id != id {
			continue
		}
		e.removed = true
		// Copy so that snapshots held by Each stay intact.
		next := make([]*entry, 0, len(r.entries)-1)
		next = append(next, r.entries[:i]...)
		next = append(next, r.entries[i+1:]...)
		r.entries = next
		if ob, ok := e.o.(Observable); ok {
			ob.Detach()
		}
		return true
	}
	return false
}

// RemoveOverlay drops the registration of o.
func (r *Registry) RemoveOverlay(o Overlay) bool {
	if id, ok := r.Lookup(o); ok {
		return r.Remove(id)
	}
	return false
}

// Lookup returns the id of a registered overlay.
func (r *Registry) Lookup(o Overlay) (ID, bool) {
	for _, e := range r.entries {
		if e.o == o {
			return e.id, true
		}
	}
	return 0, false
}

// Get returns the overlay registered under id.
func (r *Registry) Get(id ID) (Overlay, bool) {
	for _, e := range r.entries {
		if e.id == id {
			return e.o, true
		}
	}
	return nil, false
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id ID) bool {
	_, ok := r.Get(id)
	return ok
}

// Len returns the number of registrations.
func (r *Registry) Len() int { return len(r.entries) }

// Each calls fn for every overlay in registration order until fn returns
// false. Overlays removed during the walk are skipped.
func (r *Registry) Each(fn func(id ID, o Overlay) bool) {
	snapshot := r.entries
	for _, e := range snapshot {
		if e.removed {
			continue
		}
		if !fn(e.id, e.o) {
			return
		}
	}
}

// Hit returns the topmost overlay whose bounds contain p.
func (r *Registry) Hit(p image.Point) (ID, Overlay, bool) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if p.In(e.o.Bounds()) {
			return e.id, e.o, true
		}
	}
	return 0, nil, false
}

// Clear removes every registration and detaches observers.
func (r *Registry) Clear() {
	entries := r.entries
	r.entries = nil
	for _, e := range entries {
		e.removed = true
		if ob, ok := e.o.(Observable); ok {
			ob.Detach()
		}
	}
}
