package shader

import (
	"encoding/binary"
	"math"
)

// MaxSlots is the number of element slots in the uniform block.
// Elements beyond this capacity are not drawn.
const MaxSlots = 8

// UniformSize is the byte size of the packed uniform block.
// Layout (WGSL uniform address space):
//
//	resolution  vec2<f32>  offset 0
//	pixel_ratio f32        offset 8
//	time        f32        offset 12
//	cursor      vec4<f32>  offset 16  (x, y, size, active)
//	slots       array<Slot, 8> offset 32, 32 bytes each
//	  rect      vec4<f32>  (center x, center y, width, height)
//	  params    vec4<f32>  (radius, intensity, 0, 0)
const UniformSize = 32 + MaxSlots*slotSize

const slotSize = 32

// Slot is one element's geometry as seen by the shader.
// A slot with zero width or height is a disabled sentinel and paints nothing.
type Slot struct {
	Rect      [4]float32 // center x, center y, width, height (CSS px)
	Radius    float32
	Intensity float32
}

// Enabled reports whether the slot carries a drawable element.
func (s Slot) Enabled() bool {
	return s.Rect[2] > 0 && s.Rect[3] > 0
}

// Uniforms is the complete per-frame state uploaded to a surface.
type Uniforms struct {
	// Resolution is the backing buffer size in device pixels.
	Resolution [2]float32

	// PixelRatio converts CSS pixels to device pixels.
	PixelRatio float32

	// Time is the number of seconds since the render loop started.
	Time float32

	// Cursor holds the smoothed spotlight position, its radius and an
	// active flag (1 or 0).
	Cursor [4]float32

	Slots [MaxSlots]Slot
}

// CursorActive reports whether the spotlight is drawn.
func (u *Uniforms) CursorActive() bool {
	return u.Cursor[3] > 0.5
}

// EnabledSlots returns the number of slots carrying an element.
func (u *Uniforms) EnabledSlots() int {
	n := 0
	for i := range u.Slots {
		if u.Slots[i].Enabled() {
			n++
		}
	}
	return n
}

// Pack serializes the uniforms into dst using the WGSL layout described by
// UniformSize. dst is grown if needed; the packed slice is returned.
func (u *Uniforms) Pack(dst []byte) []byte {
	if cap(dst) < UniformSize {
		dst = make([]byte, UniformSize)
	}
	dst = dst[:UniformSize]
	clear(dst)

	putF32(dst[0:], u.Resolution[0])
	putF32(dst[4:], u.Resolution[1])
	putF32(dst[8:], u.PixelRatio)
	putF32(dst[12:], u.Time)
	for i, v := range u.Cursor {
		putF32(dst[16+i*4:], v)
	}
	for i := range u.Slots {
		s := &u.Slots[i]
		off := 32 + i*slotSize
		for j, v := range s.Rect {
			putF32(dst[off+j*4:], v)
		}
		putF32(dst[off+16:], s.Radius)
		putF32(dst[off+20:], s.Intensity)
	}
	return dst
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
