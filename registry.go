package glass

import (
	"slices"

	"github.com/gogpu/glass/internal/lru"
)

// Registry holds the live elements and the cursor.
//
// Registry is plain state and is not safe for concurrent use. An Engine owns
// one and mutates it only from its executor goroutine; standalone registries
// are useful for tests and offline rendering.
type Registry struct {
	entries map[string]*regEntry
	order   []string // first-registration order
	recent  lru.List[string]

	cursor Cursor
}

type regEntry struct {
	el   Element
	node *lru.Node[string]
}

// NewRegistry returns an empty registry with the default cursor.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*regEntry),
		cursor:  Cursor{Size: DefaultCursorSize, Active: true},
	}
}

// Register adds an element or overwrites the one with the same ID.
// An overwritten element keeps its compositing position.
func (r *Registry) Register(e Element) {
	if ent, ok := r.entries[e.ID]; ok {
		ent.el = e
		r.recent.Touch(ent.node)
		return
	}
	r.entries[e.ID] = &regEntry{el: e, node: r.recent.PushFront(e.ID)}
	r.order = append(r.order, e.ID)
}

// Update merges p into the element with the given ID. It returns false and
// changes nothing if the ID is not registered.
func (r *Registry) Update(id string, p Patch) bool {
	ent, ok := r.entries[id]
	if !ok {
		return false
	}
	ent.el = p.Apply(ent.el)
	r.recent.Touch(ent.node)
	return true
}

// Unregister removes the element with the given ID. It returns false if the
// ID was not registered.
func (r *Registry) Unregister(id string) bool {
	ent, ok := r.entries[id]
	if !ok {
		return false
	}
	r.recent.Remove(ent.node)
	delete(r.entries, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return true
}

// Get returns the element with the given ID.
func (r *Registry) Get(id string) (Element, bool) {
	ent, ok := r.entries[id]
	if !ok {
		return Element{}, false
	}
	return ent.el, true
}

// Len returns the number of registered elements.
func (r *Registry) Len() int { return len(r.order) }

// Elements returns all registered elements in first-registration order.
func (r *Registry) Elements() []Element {
	out := make([]Element, len(r.order))
	for i, id := range r.order {
		out[i] = r.entries[id].el
	}
	return out
}

// Visible returns the elements that are drawn, at most MaxElements.
//
// When more than MaxElements are registered, the most recently registered
// or updated ones are kept. The result is in first-registration order, which
// is back-to-front compositing order.
func (r *Registry) Visible() []Element {
	if len(r.order) <= MaxElements {
		return r.Elements()
	}

	keep := make(map[string]bool, MaxElements)
	r.recent.Newest(MaxElements, func(id string) bool {
		keep[id] = true
		return true
	})

	out := make([]Element, 0, MaxElements)
	for _, id := range r.order {
		if keep[id] {
			out = append(out, r.entries[id].el)
		}
	}
	return out
}

// Cursor returns the raw cursor state.
func (r *Registry) Cursor() Cursor { return r.cursor }

// MoveCursor sets the raw cursor position.
func (r *Registry) MoveCursor(x, y float64) {
	r.cursor.X, r.cursor.Y = x, y
}

// SetCursorActive toggles the spotlight.
func (r *Registry) SetCursorActive(active bool) {
	r.cursor.Active = active
}

// SetCursorSize sets the spotlight radius. Non-positive sizes are ignored.
func (r *Registry) SetCursorSize(size float64) {
	if size > 0 {
		r.cursor.Size = size
	}
}
