// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/glass/internal/parallel"
	"github.com/gogpu/glass/shader"
)

// bandRows is the smallest row band shaded as one task.
const bandRows = 32

var (
	shadeOnce sync.Once
	shadePool *parallel.Pool
)

// pool returns the process-wide shading pool.
func pool() *parallel.Pool {
	shadeOnce.Do(func() { shadePool = parallel.NewPool(0) })
	return shadePool
}

// SoftwareSurface evaluates the glass program on the CPU into an
// *image.NRGBA.
//
// It is registered as the "software" backend with PrioritySoftware, so the
// engine only selects it when software rendering is explicitly allowed.
// ReadFrame may be called from any goroutine.
//
// Example:
//
//	s, _ := surface.NewSoftwareSurface(800, 600, 2)
//	defer s.Close()
//
//	s.Upload(&u)
//	_ = s.Draw()
//	img := s.ReadFrame(nil)
type SoftwareSurface struct {
	mu sync.Mutex

	width, height int
	ratio         float64
	img           *image.NRGBA

	uniforms shader.Uniforms
	draws    uint64
	closed   bool
}

// NewSoftwareSurface creates a CPU surface for a viewport of width×height
// CSS pixels at the given device pixel ratio.
func NewSoftwareSurface(width, height int, pixelRatio float64) (*SoftwareSurface, error) {
	if err := ValidateSize(width, height, pixelRatio); err != nil {
		return nil, err
	}
	s := &SoftwareSurface{}
	s.resize(width, height, pixelRatio)
	return s, nil
}

// Name returns "software".
func (s *SoftwareSurface) Name() string { return SoftwareName }

// Resize reallocates the backing image when the size or ratio changes.
func (s *SoftwareSurface) Resize(width, height int, pixelRatio float64) error {
	if err := ValidateSize(width, height, pixelRatio); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if width == s.width && height == s.height && pixelRatio == s.ratio {
		return nil
	}
	s.resize(width, height, pixelRatio)
	return nil
}

func (s *SoftwareSurface) resize(width, height int, pixelRatio float64) {
	s.width, s.height, s.ratio = width, height, pixelRatio
	bw, bh := BackingSize(width, height, pixelRatio)
	s.img = image.NewNRGBA(image.Rect(0, 0, bw, bh))
}

// Upload stores the uniforms for the next Draw.
func (s *SoftwareSurface) Upload(u *shader.Uniforms) {
	s.mu.Lock()
	s.uniforms = *u
	s.mu.Unlock()
}

// Draw clears the image to transparent and shades every pixel that an
// enabled slot or the cursor spotlight can reach.
func (s *SoftwareSurface) Draw() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	draw.Draw(s.img, s.img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	u := &s.uniforms
	r := coverage(u).Intersect(s.img.Bounds())
	if r.Empty() {
		s.draws++
		return nil
	}
	parallel.Rows(pool(), r.Min.Y, r.Max.Y, bandRows, func(y0, y1 int) {
		shadeRows(s.img, u, r.Min.X, r.Max.X, y0, y1)
	})
	s.draws++
	return nil
}

func shadeRows(img *image.NRGBA, u *shader.Uniforms, x0, x1, y0, y1 int) {
	for y := y0; y < y1; y++ {
		row := img.Pix[img.PixOffset(x0, y):]
		for x := x0; x < x1; x++ {
			c := shader.Shade(u, float32(x)+0.5, float32(y)+0.5)
			if c.A > 0 {
				row[0] = unorm(c.R)
				row[1] = unorm(c.G)
				row[2] = unorm(c.B)
				row[3] = unorm(c.A)
			}
			row = row[4:]
		}
	}
}

// ReadFrame copies the last drawn frame into dst.
func (s *SoftwareSurface) ReadFrame(dst *image.NRGBA) *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.img.Bounds()
	if dst == nil || dst.Bounds() != b {
		dst = image.NewNRGBA(b)
	}
	copy(dst.Pix, s.img.Pix)
	return dst
}

// Draws returns the number of completed Draw calls.
func (s *SoftwareSurface) Draws() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

// Size returns the viewport size in CSS pixels and the pixel ratio.
func (s *SoftwareSurface) Size() (width, height int, pixelRatio float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height, s.ratio
}

// Close releases the backing image.
func (s *SoftwareSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return nil
}

// coverage returns the device-pixel rectangle outside of which the program
// evaluates to transparent.
func coverage(u *shader.Uniforms) image.Rectangle {
	ratio := float64(u.PixelRatio)
	if ratio <= 0 {
		ratio = 1
	}

	var r image.Rectangle
	add := func(cx, cy, hw, hh float32) {
		b := image.Rect(
			int(math.Floor(float64(cx-hw)*ratio)),
			int(math.Floor(float64(cy-hh)*ratio)),
			int(math.Ceil(float64(cx+hw)*ratio)),
			int(math.Ceil(float64(cy+hh)*ratio)),
		)
		r = r.Union(b)
	}

	if u.CursorActive() && u.Cursor[2] > 0 {
		add(u.Cursor[0], u.Cursor[1], u.Cursor[2], u.Cursor[2])
	}
	for i := range u.Slots {
		sl := &u.Slots[i]
		if !sl.Enabled() {
			continue
		}
		add(sl.Rect[0], sl.Rect[1], sl.Rect[2]/2+shader.EdgeTolerance+1, sl.Rect[3]/2+shader.EdgeTolerance+1)
	}
	return r
}

func unorm(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

// Composite draws an overlay frame over dst, scaling it to dst's bounds when
// the sizes differ. It is used to preview the overlay on top of page
// content.
func Composite(dst draw.Image, frame *image.NRGBA) {
	if frame == nil {
		return
	}
	if dst.Bounds().Size() == frame.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), frame, frame.Bounds().Min, draw.Over)
		return
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), frame, frame.Bounds(), draw.Over, nil)
}
