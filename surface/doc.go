// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the render surface abstraction for the glass
// overlay.
//
// A Surface owns a full-viewport drawing target, the compiled glass program
// and its uniform state. The engine's render loop uploads a
// [shader.Uniforms] block once per frame and issues one draw; the surface
// clears its target to transparent and evaluates the program over a
// six-vertex quad.
//
// # Backends
//
// Backends register a factory with a priority and an availability probe:
//
//	func init() {
//	    surface.Register("wgpu", surface.PriorityGPU, newWGPUSurface, probe)
//	}
//
// [NewSurface] walks the available backends by priority. Backends below
// [PriorityAccelerated] are software renderers and are only considered when
// Options.AllowSoftware is set; without an accelerated backend the overlay
// is unavailable and the engine never starts a render loop.
//
// The built-in "software" backend evaluates [shader.Shade] on the CPU into an
// *image.NRGBA. It backs headless snapshots and tests.
//
// # Coordinates
//
// Width and height are CSS (device-independent) pixels. The backing buffer is
// allocated at width × pixel ratio by height × pixel ratio device pixels.
package surface
