// Package ebiten renders the glass overlay inside an ebiten game.
//
// The package provides two things:
//
//   - Surface, a render surface that runs the glass Kage program with
//     DrawRectShader into an offscreen image. It registers as the "ebiten"
//     backend and is available only while a Host exists.
//   - Host, an ebiten.Game that drives the engine's frames from Draw and
//     paints background, overlay and foreground in that order.
//
// Usage:
//
//	host := ebiten.NewHost()
//	host.Background = drawPage
//	host.Foreground = drawLabels
//	eng, err := host.Open()
//	if err != nil {
//	    log.Printf("plain rendering: %v", err)
//	}
//	dock := glass.BindHover(eng, "dock", dockBox, glass.Style{Radius: 20, Intensity: 1.4})
//	host.Hover().Add(dock)
//	return host.Run()
//
// When a higher-priority backend (wgpu) is registered the engine renders
// with it and Host presents the frame it reads back.
package ebiten
