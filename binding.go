package glass

import "sync"

// Rect is a measured box in viewport CSS pixels with (X, Y) at the top-left
// corner, the way layout engines report element bounds.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Center returns the center point of r.
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Measurer reports the current bounds of a UI target.
type Measurer interface {
	Measure() Rect
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func() Rect

// Measure implements Measurer.
func (f MeasureFunc) Measure() Rect { return f() }

// Style is the per-element look.
type Style struct {
	Radius    float64
	Intensity float64
}

// Binding ties one UI target to an element in a Registrar.
//
// While active, the target is measured and registered, and re-measured on
// every viewport change and on Refresh. A Binding is safe for concurrent use.
type Binding struct {
	r      Registrar
	id     string
	target Measurer
	style  Style

	mu     sync.Mutex
	active bool
	closed bool
	stop   func()
}

// Bind creates an inactive binding for target under id.
func Bind(r Registrar, id string, target Measurer, style Style) *Binding {
	b := &Binding{r: r, id: id, target: target, style: style}
	b.stop = r.Watch(func(Viewport) { b.Refresh() })
	return b
}

// ID returns the element id.
func (b *Binding) ID() string { return b.id }

// Active reports whether the element is registered.
func (b *Binding) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// SetActive registers (true) or unregisters (false) the element.
func (b *Binding) SetActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.active == active {
		return
	}
	b.active = active
	if active {
		b.register()
	} else {
		b.r.UnregisterElement(b.id)
	}
}

// Refresh re-measures the target if the binding is active.
func (b *Binding) Refresh() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active && !b.closed {
		b.register()
	}
}

// Close unregisters the element and stops watching the viewport.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.stop()
	if b.active {
		b.active = false
		b.r.UnregisterElement(b.id)
	}
}

func (b *Binding) register() {
	m := b.target.Measure()
	x, y := m.Center()
	b.r.RegisterElement(Element{
		ID:        b.id,
		X:         x,
		Y:         y,
		Width:     m.Width,
		Height:    m.Height,
		Radius:    b.style.Radius,
		Intensity: b.style.Intensity,
	})
}

// HoverBinding registers its element only while the pointer is over the
// target.
type HoverBinding struct {
	b *Binding

	mu      sync.Mutex
	hovered bool
}

// BindHover creates a hover binding for target under id.
func BindHover(r Registrar, id string, target Measurer, style Style) *HoverBinding {
	return &HoverBinding{b: Bind(r, id, target, style)}
}

// ID returns the element id.
func (h *HoverBinding) ID() string { return h.b.id }

// Hovered reports whether the pointer is over the target.
func (h *HoverBinding) Hovered() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hovered
}

// PointerEnter registers the element.
func (h *HoverBinding) PointerEnter() { h.setHovered(true) }

// PointerLeave unregisters the element.
func (h *HoverBinding) PointerLeave() { h.setHovered(false) }

// Track hit-tests a pointer position, entering or leaving as needed, and
// reports whether the target is hovered.
func (h *HoverBinding) Track(x, y float64) bool {
	in := h.b.target.Measure().Contains(x, y)
	h.setHovered(in)
	return in
}

// Refresh re-measures the target if it is hovered.
func (h *HoverBinding) Refresh() { h.b.Refresh() }

// Close unregisters the element and stops watching the viewport.
func (h *HoverBinding) Close() {
	h.mu.Lock()
	h.hovered = false
	h.mu.Unlock()
	h.b.Close()
}

func (h *HoverBinding) setHovered(v bool) {
	h.mu.Lock()
	changed := h.hovered != v
	h.hovered = v
	h.mu.Unlock()

	if changed {
		h.b.SetActive(v)
	}
}

// HoverGroup routes pointer moves to a set of hover bindings and applies the
// cursor policy: the spotlight is hidden while any target is hovered.
type HoverGroup struct {
	r Registrar

	mu       sync.Mutex
	bindings []*HoverBinding
	hovering bool
}

// NewHoverGroup returns an empty group forwarding to r.
func NewHoverGroup(r Registrar) *HoverGroup {
	return &HoverGroup{r: r}
}

// Add puts h in the group.
func (g *HoverGroup) Add(h *HoverBinding) {
	g.mu.Lock()
	g.bindings = append(g.bindings, h)
	g.mu.Unlock()
}

// Remove closes h and takes it out of the group. The spotlight comes back
// if h was the only hovered binding.
func (g *HoverGroup) Remove(h *HoverBinding) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, b := range g.bindings {
		if b == h {
			g.bindings = append(g.bindings[:i], g.bindings[i+1:]...)
			break
		}
	}
	h.Close()

	hovering := false
	for _, b := range g.bindings {
		if b.Hovered() {
			hovering = true
			break
		}
	}
	g.setHovering(hovering)
}

// PointerMove forwards the pointer position to the spotlight and hit-tests
// every binding. It returns the hovered binding, or nil.
func (g *HoverGroup) PointerMove(x, y float64) *HoverBinding {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.r.MoveCursor(x, y)

	var hit *HoverBinding
	for _, h := range g.bindings {
		if h.Track(x, y) && hit == nil {
			hit = h
		}
	}

	g.setHovering(hit != nil)
	return hit
}

// setHovering applies the cursor policy. g.mu must be held.
func (g *HoverGroup) setHovering(hovering bool) {
	if hovering != g.hovering {
		g.hovering = hovering
		g.r.SetCursorActive(!hovering)
	}
}

// Close closes every binding in the group and restores the spotlight.
func (g *HoverGroup) Close() {
	g.mu.Lock()
	bs := g.bindings
	g.bindings = nil
	g.setHovering(false)
	g.mu.Unlock()

	for _, h := range bs {
		h.Close()
	}
}
