// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glasscanvas

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glass"
	"github.com/gogpu/glass/surface"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("glasscanvas: canvas is closed")

	// ErrNilSource is returned when a nil frame source is passed.
	ErrNilSource = errors.New("glasscanvas: nil frame source")

	// ErrNoFrames is returned when the engine's surface does not keep a
	// readable frame (it presents on its own).
	ErrNoFrames = errors.New("glasscanvas: surface does not expose frames")
)

// textureDestroyer is the interface for destroying textures.
type textureDestroyer interface {
	Destroy()
}

// drawCounter is implemented by surfaces that count completed frames.
type drawCounter interface {
	Draws() uint64
}

// Canvas uploads overlay frames to a GPU texture and draws them.
type Canvas struct {
	src     surface.FrameReader
	counter drawCounter

	frame    *image.NRGBA
	texture  gpucontext.Texture
	texW     int
	texH     int
	lastDraw uint64
	pulled   bool
	closed   bool
}

// New creates a Canvas reading frames from src.
func New(src surface.FrameReader) (*Canvas, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	c := &Canvas{src: src}
	c.counter, _ = src.(drawCounter)
	return c, nil
}

// FromEngine creates a Canvas for the engine's render surface.
func FromEngine(e *glass.Engine) (*Canvas, error) {
	if e == nil {
		return nil, ErrNilSource
	}
	fr, ok := e.Surface().(surface.FrameReader)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, e.Surface().Name())
	}
	return New(fr)
}

// IsDirty reports whether the source drew a frame that has not been
// uploaded yet. Sources without a frame counter are always dirty.
func (c *Canvas) IsDirty() bool {
	if c.closed {
		return false
	}
	if c.counter == nil || !c.pulled {
		return true
	}
	return c.counter.Draws() != c.lastDraw
}

// Frame returns the last frame pulled from the source, or nil before the
// first Flush.
func (c *Canvas) Frame() *image.NRGBA {
	return c.frame
}

// Texture returns the current GPU texture without flushing.
func (c *Canvas) Texture() gpucontext.Texture {
	return c.texture
}

// Flush pulls the latest frame and uploads it if it changed. A texture is
// created on first use and recreated when the frame size changes; the old
// texture is destroyed after its replacement exists.
func (c *Canvas) Flush(creator gpucontext.TextureCreator) (gpucontext.Texture, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}
	if !c.IsDirty() && c.texture != nil {
		return c.texture, nil
	}

	if c.counter != nil {
		c.lastDraw = c.counter.Draws()
	}
	c.frame = c.src.ReadFrame(c.frame)
	c.pulled = true
	w, h := c.frame.Bounds().Dx(), c.frame.Bounds().Dy()

	if c.texture != nil && w == c.texW && h == c.texH {
		if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
			if err := updater.UpdateData(c.frame.Pix); err != nil {
				return nil, fmt.Errorf("glasscanvas: texture update failed: %w", err)
			}
			return c.texture, nil
		}
	}

	if creator == nil {
		return nil, ErrInvalidRenderer
	}
	tex, err := creator.NewTextureFromRGBA(w, h, c.frame.Pix)
	if err != nil {
		return nil, fmt.Errorf("glasscanvas: NewTextureFromRGBA failed: %w", err)
	}
	// Frames are straight alpha.
	if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
		pt.SetPremultiplied(false)
	}

	destroy(c.texture)
	c.texture, c.texW, c.texH = tex, w, h
	return tex, nil
}

// Close releases the texture. Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	destroy(c.texture)
	c.texture = nil
	c.frame = nil
	c.src, c.counter = nil, nil
	return nil
}

func destroy(tex gpucontext.Texture) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}
