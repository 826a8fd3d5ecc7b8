package glass

import "github.com/gogpu/glass/shader"

// MaxElements is the number of elements drawn simultaneously.
const MaxElements = shader.MaxSlots

// DefaultCursorSize is the spotlight radius in CSS pixels.
const DefaultCursorSize = 220

// Element is a rectangular region that receives the glass treatment.
//
// Coordinates are CSS pixels relative to the viewport, with (X, Y) at the
// center of the rectangle.
type Element struct {
	ID string

	X, Y          float64
	Width, Height float64

	// Radius is the corner radius. It is clamped to half the shorter side
	// when drawn.
	Radius float64

	// Intensity scales the highlight strength. Nominal range is 0 to 2;
	// values outside it are clamped when uploaded.
	Intensity float64
}

// Patch is a partial update of an Element. Only fields set through the
// With methods are applied.
//
//	eng.UpdateElement("dock", glass.Patch{}.WithPosition(640, 700).WithIntensity(1.2))
type Patch struct {
	set uint8

	x, y      float64
	w, h      float64
	radius    float64
	intensity float64
}

const (
	patchPosition uint8 = 1 << iota
	patchSize
	patchRadius
	patchIntensity
)

// WithPosition sets the element center.
func (p Patch) WithPosition(x, y float64) Patch {
	p.x, p.y = x, y
	p.set |= patchPosition
	return p
}

// WithSize sets the element width and height.
func (p Patch) WithSize(width, height float64) Patch {
	p.w, p.h = width, height
	p.set |= patchSize
	return p
}

// WithRadius sets the corner radius.
func (p Patch) WithRadius(r float64) Patch {
	p.radius = r
	p.set |= patchRadius
	return p
}

// WithIntensity sets the highlight strength.
func (p Patch) WithIntensity(v float64) Patch {
	p.intensity = v
	p.set |= patchIntensity
	return p
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return p.set == 0 }

// Apply returns e with the patched fields replaced.
func (p Patch) Apply(e Element) Element {
	if p.set&patchPosition != 0 {
		e.X, e.Y = p.x, p.y
	}
	if p.set&patchSize != 0 {
		e.Width, e.Height = p.w, p.h
	}
	if p.set&patchRadius != 0 {
		e.Radius = p.radius
	}
	if p.set&patchIntensity != 0 {
		e.Intensity = p.intensity
	}
	return e
}

// Cursor is the pointer-following ambient spotlight.
type Cursor struct {
	X, Y float64

	// Size is the spotlight radius in CSS pixels.
	Size float64

	Active bool
}
