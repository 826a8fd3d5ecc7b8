// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package glasscanvas presents the glass overlay in a gogpu window.
//
// The wgpu and software surfaces render offscreen and keep the last frame
// as non-premultiplied RGBA. Canvas pulls that frame, uploads it to a GPU
// texture through gpucontext and draws it over the page content:
//
//	Engine tick -> Surface frame (CPU) -> GPU Texture -> Window
//
// # Usage
//
//	eng, err := glass.Open(glass.WithDeviceProvider(app.GPUContextProvider()))
//	if err != nil {
//	    // render the page without the overlay
//	}
//	canvas, err := glasscanvas.FromEngine(eng)
//	...
//	app.OnDraw(func(dc *gogpu.Context) {
//	    drawPage(dc)
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	    drawForeground(dc)
//	})
//
// # Thread Safety
//
// Canvas is NOT safe for concurrent use. Call it from the host's draw
// goroutine. The frame source itself may be drawn concurrently.
//
// # Dirty Tracking
//
// When the source reports a frame counter (Draws() uint64), the texture is
// only refreshed after a new frame was drawn. Otherwise every render uploads.
//
// This package uses gpucontext interfaces and does not import gogpu.
package glasscanvas
