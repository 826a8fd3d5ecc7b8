// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/glass/shader"
)

// Surface errors.
var (
	// ErrClosed is returned when a surface is used after Close.
	ErrClosed = errors.New("surface: surface is closed")

	// ErrInvalidDimensions is returned for non-positive sizes or ratios.
	ErrInvalidDimensions = errors.New("surface: invalid dimensions")
)

// Surface is a full-viewport render target for the glass program.
//
// Surfaces are driven from a single goroutine (the engine executor).
// Implementations that expose their output to other goroutines, such as
// [FrameReader], synchronize that access themselves.
type Surface interface {
	// Name returns the backend name (e.g., "wgpu", "software").
	Name() string

	// Resize sets the viewport size in CSS pixels and the device pixel
	// ratio. The backing buffer is reallocated before the next Draw.
	// Calls with an unchanged size and ratio are no-ops.
	Resize(width, height int, pixelRatio float64) error

	// Upload stores the uniforms used by the next Draw.
	Upload(u *shader.Uniforms)

	// Draw clears the target to transparent and draws the quad.
	Draw() error

	// Close releases the program and backing buffers.
	// Close is idempotent; multiple calls are safe.
	Close() error
}

// FrameReader is implemented by surfaces whose output can be read back as
// non-premultiplied pixels.
type FrameReader interface {
	// ReadFrame copies the last drawn frame into dst, reallocating dst when
	// its bounds differ, and returns it.
	ReadFrame(dst *image.NRGBA) *image.NRGBA
}

// Options configures surface creation.
type Options struct {
	// Width and Height are the initial viewport size in CSS pixels.
	Width, Height int

	// PixelRatio is the initial device pixel ratio. Zero means 1.
	PixelRatio float64

	// AllowSoftware makes backends below PriorityAccelerated eligible.
	AllowSoftware bool

	// DeviceProvider optionally shares a host GPU device with the surface
	// (a gpucontext.DeviceProvider). Backends that cannot use it ignore it.
	DeviceProvider any
}

// BackingSize returns the device-pixel size of a viewport.
func BackingSize(width, height int, pixelRatio float64) (int, int) {
	w := int(math.Round(float64(width) * pixelRatio))
	h := int(math.Round(float64(height) * pixelRatio))
	return max(w, 1), max(h, 1)
}

// ValidateSize checks a viewport size and pixel ratio.
func ValidateSize(width, height int, pixelRatio float64) error {
	if width <= 0 || height <= 0 || !(pixelRatio > 0) || math.IsInf(pixelRatio, 0) {
		return fmt.Errorf("%w: width=%d, height=%d, ratio=%v", ErrInvalidDimensions, width, height, pixelRatio)
	}
	return nil
}

func (o Options) ratio() float64 {
	if o.PixelRatio <= 0 {
		return 1
	}
	return o.PixelRatio
}
