// Package glass draws frosted-glass highlights over screen regions supplied
// by independent UI fragments, plus a cursor-following ambient glow.
//
// # Overview
//
// One full-viewport shader surface serves the whole page. Fragments that want
// the glass treatment (a dock, a toolbar, a button under the pointer)
// register a rectangle with the engine; the render loop uploads the
// registered rectangles as shader uniforms once per frame and draws a single
// quad.
//
// # Quick Start
//
//	eng, err := glass.Open(glass.WithViewport(1280, 800, 2))
//	if err != nil {
//	    // errors.Is(err, glass.ErrUnavailable): render without the overlay
//	}
//	defer eng.Close()
//
//	eng.RegisterElement(glass.Element{
//	    ID: "dock", X: 640, Y: 760, Width: 600, Height: 60,
//	    Radius: 20, Intensity: 1.4,
//	})
//
// UI code usually goes through [Mount], which returns either an [*Engine] or
// an [Unavailable] registrar whose methods do nothing, and through [Binding]
// and [HoverBinding], which measure a target and keep its element in sync.
//
// # Capacity
//
// At most [MaxElements] elements are drawn. When more are registered, the
// most recently registered or updated ones are drawn and the rest are kept
// but skipped. Drawn elements composite in registration order, later ones on
// top.
//
// # Concurrency
//
// The engine confines its state to one executor goroutine. Facade calls are
// safe from any goroutine and take effect from the next frame. Use
// [Engine.Sync] to wait for earlier calls to be applied.
//
// # Backends
//
// Surfaces come from the [surface] registry. Import the backends to enable:
//
//	import _ "github.com/gogpu/glass/gpu"             // wgpu (Vulkan)
//	import _ "github.com/gogpu/glass/backend/ebiten"  // ebiten Kage shader
//
// The CPU "software" backend is always registered but only used with
// [WithSoftwareFallback].
//
// Surfaces that render offscreen (wgpu, software) keep the last frame; a
// gogpu window presents it with integration/glasscanvas and an ebiten game
// with the backend/ebiten Host.
package glass
