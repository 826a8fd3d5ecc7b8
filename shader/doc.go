// Package shader defines the glass overlay's per-pixel visual model.
//
// The model is evaluated for every pixel of a full-viewport quad. Up to
// [MaxSlots] rounded rectangles are tested against a signed distance field;
// pixels near a rectangle's boundary receive an edge highlight, an inner glow
// and a directional sheen biased toward the top-left corner. A cursor
// spotlight (radial falloff plus a thin ring) is composited beneath the
// rectangles. Every contribution is near-white and capped at a low alpha so
// the overlay never hides the page below it.
//
// The same model exists in three forms:
//   - WGSLSource, compiled for wgpu render pipelines (see [Compile])
//   - KageSource, compiled by ebiten
//   - [Shade], a pure Go evaluation used by the software surface and tests
//
// All three read the same [Uniforms]. Element coordinates are CSS pixels;
// only the resolution is expressed in device pixels.
package shader
