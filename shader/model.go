package shader

import "math"

// Visual constants shared by the WGSL and Kage sources.
// Distances are CSS pixels.
const (
	// EdgeTolerance is how far outside a rectangle a pixel may lie and still
	// receive an anti-aliased contribution.
	EdgeTolerance = 1.0

	// EdgeWidth is the width of the sharp boundary highlight.
	EdgeWidth = 2.0

	// GlowWidth is the depth of the inner glow.
	GlowWidth = 24.0

	// SpecWidth is the depth over which the corner sheen fades.
	SpecWidth = 12.0

	// ElementAlphaCap bounds the alpha of a single element's contribution.
	ElementAlphaCap = 0.4

	// CursorAlphaCap bounds the alpha of the cursor spotlight.
	CursorAlphaCap = 0.15

	// MaxIntensity is the upper bound applied to element intensity.
	MaxIntensity = 2.0
)

// lightX, lightY point toward the top-left corner (normalized).
const (
	lightX = -0.70710677
	lightY = -0.70710677
)

// glassColor is the near-white tint of element highlights.
var glassColor = Color{R: 0.97, G: 0.98, B: 1.0}

// Color is a non-premultiplied RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Premultiplied returns the color with RGB scaled by alpha.
func (c Color) Premultiplied() Color {
	return Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Shade evaluates the overlay at the device pixel (fx, fy) and returns the
// non-premultiplied result. fx and fy are framebuffer coordinates with the
// origin at the top-left corner; pixel centers sit at +0.5.
func Shade(u *Uniforms, fx, fy float32) Color {
	ratio := u.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	px, py := fx/ratio, fy/ratio

	var out Color
	if u.CursorActive() {
		out = spotlight(u.Cursor, px, py)
	}
	for i := range u.Slots {
		if c, ok := shadeSlot(&u.Slots[i], px, py, u.Time); ok {
			out = Over(c, out)
		}
	}
	return out
}

// spotlight is the cursor glow: a squared radial falloff plus a thin ring
// between 80% and 100% of the radius.
func spotlight(cursor [4]float32, px, py float32) Color {
	r := cursor[2]
	if r <= 0 {
		return Color{}
	}
	d := hypot(px-cursor[0], py-cursor[1])
	fall := 1 - smoothstep(0, r, d)
	glow := fall * fall * 0.12
	ring := (smoothstep(0.8*r, 0.9*r, d) - smoothstep(0.9*r, r, d)) * 0.06
	a := min(glow+ring, CursorAlphaCap)
	if a <= 0 {
		return Color{}
	}
	return Color{R: 1, G: 1, B: 1, A: a}
}

func shadeSlot(s *Slot, px, py, t float32) (Color, bool) {
	if !s.Enabled() {
		return Color{}, false
	}
	hw, hh := s.Rect[2]/2, s.Rect[3]/2
	r := clamp(s.Radius, 0, min(hw, hh))
	qx, qy := px-s.Rect[0], py-s.Rect[1]

	d := RoundRectSDF(qx, qy, hw, hh, r)
	if d > EdgeTolerance {
		return Color{}, false
	}
	depth := max(-d, 0)

	edge := 1 - smoothstep(0, EdgeWidth, abs(d))
	glow := 1 - smoothstep(0, GlowWidth, depth)

	// Surface normal from central differences of the distance field.
	nx := RoundRectSDF(qx+1, qy, hw, hh, r) - RoundRectSDF(qx-1, qy, hw, hh, r)
	ny := RoundRectSDF(qx, qy+1, hw, hh, r) - RoundRectSDF(qx, qy-1, hw, hh, r)
	if l := hypot(nx, ny); l > 1e-4 {
		nx, ny = nx/l, ny/l
	} else {
		nx, ny = 0, 0
	}
	sheen := max(nx*lightX+ny*lightY, 0)
	spec := sheen * sheen * sheen * (1 - smoothstep(0, SpecWidth, depth))
	shimmer := 0.9 + 0.1*float32(math.Sin(float64(t*1.5+(px+py)*0.01)))

	aa := 1 - smoothstep(0, EdgeTolerance, d)
	intensity := clamp(s.Intensity, 0, MaxIntensity)

	a := (0.55*edge + 0.35*glow + 0.6*spec*shimmer) * intensity * aa
	a = min(a, ElementAlphaCap)
	if a <= 0 {
		return Color{}, false
	}
	c := glassColor
	c.A = a
	return c, true
}

// Over composites src over dst. Both colors are non-premultiplied.
func Over(src, dst Color) Color {
	k := dst.A * (1 - src.A)
	a := src.A + k
	if a <= 0 {
		return Color{}
	}
	return Color{
		R: (src.R*src.A + dst.R*k) / a,
		G: (src.G*src.A + dst.G*k) / a,
		B: (src.B*src.A + dst.B*k) / a,
		A: a,
	}
}

// RoundRectSDF returns the signed distance from (qx, qy), relative to the
// rectangle center, to a rounded rectangle with half extents hw, hh and
// corner radius r. Negative values are inside.
func RoundRectSDF(qx, qy, hw, hh, r float32) float32 {
	dx := abs(qx) - hw + r
	dy := abs(qy) - hh + r
	outside := hypot(max(dx, 0), max(dy, 0))
	inside := min(max(dx, dy), 0)
	return outside + inside - r
}

func smoothstep(e0, e1, x float32) float32 {
	t := clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func clamp(x, lo, hi float32) float32 {
	return max(lo, min(x, hi))
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func hypot(x, y float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y)))
}
