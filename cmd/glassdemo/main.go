// Command glassdemo opens a window with a page, a hover dock, a hover
// toolbar and a persistent glass card.
//
// The overlay renders with the best available backend: wgpu when a Vulkan
// adapter exists, the ebiten Kage surface otherwise. -backend forces one.
package main

import (
	"flag"
	"image/color"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/gogpu/glass"
	glassebiten "github.com/gogpu/glass/backend/ebiten"
	_ "github.com/gogpu/glass/gpu" // wgpu surface
)

func main() {
	var (
		width   = flag.Int("width", 1200, "window width")
		height  = flag.Int("height", 900, "window height")
		backend = flag.String("backend", "", "force a backend (wgpu, ebiten, software)")
		verbose = flag.Bool("v", false, "log engine activity")
	)
	flag.Parse()

	if *verbose {
		glass.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ebiten.SetWindowTitle("glass demo")
	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	host := glassebiten.NewHost()
	p := &page{host: host}
	host.Background = p.drawBackground
	host.Foreground = p.drawForeground

	var opts []glass.Option
	if *backend != "" {
		opts = append(opts, glass.WithBackend(*backend), glass.WithSoftwareFallback(true))
	}
	eng, err := host.Open(opts...)
	if err != nil {
		log.Printf("overlay unavailable, plain rendering: %v", err)
	} else {
		defer eng.Close()
		p.mount(eng)
		log.Printf("overlay backend: %s", eng.Surface().Name())
	}

	if err := host.Run(); err != nil {
		log.Fatal(err)
	}
}

// page lays out the demo in CSS pixels from the current viewport.
type page struct {
	host *glassebiten.Host
	eng  *glass.Engine
	card *glass.Binding
}

func (p *page) viewport() (w, h float64) {
	if p.eng == nil {
		return 1200, 900
	}
	vp := p.eng.Viewport()
	return float64(vp.Width), float64(vp.Height)
}

func (p *page) dock() glass.Rect {
	w, h := p.viewport()
	return glass.Rect{X: w/2 - 300, Y: h - 120, Width: 600, Height: 60}
}

func (p *page) toolbar() glass.Rect {
	w, _ := p.viewport()
	return glass.Rect{X: 50, Y: 16, Width: w - 100, Height: 48}
}

func (p *page) panel() glass.Rect {
	return glass.Rect{X: 150, Y: 280, Width: 420, Height: 280}
}

func (p *page) mount(eng *glass.Engine) {
	p.eng = eng

	group := p.host.Hover()
	group.Add(glass.BindHover(eng, "dock", glass.MeasureFunc(p.dock), glass.Style{Radius: 20, Intensity: 1.4}))
	group.Add(glass.BindHover(eng, "toolbar", glass.MeasureFunc(p.toolbar), glass.Style{Radius: 12, Intensity: 1}))

	p.card = glass.Bind(eng, "card", glass.MeasureFunc(p.panel), glass.Style{Radius: 28, Intensity: 0.8})
	p.card.SetActive(true)
	p.host.OnUpdate = p.update
}

func (p *page) update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if p.card != nil && inpututil.IsKeyJustPressed(ebiten.KeyC) {
		p.card.SetActive(!p.card.Active())
	}
	return nil
}

var (
	pageTop    = color.RGBA{0x1d, 0x2b, 0x53, 0xff}
	pageBottom = color.RGBA{0x7e, 0x25, 0x53, 0xff}
	blockColor = color.RGBA{0xff, 0xa3, 0x00, 0xff}
)

func (p *page) scale() float32 {
	if p.eng == nil {
		return 1
	}
	return float32(p.eng.Viewport().PixelRatio)
}

func (p *page) drawBackground(screen *ebiten.Image) {
	b := screen.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	const steps = 64
	for i := 0; i < steps; i++ {
		t := float32(i) / steps
		c := color.RGBA{
			R: lerp(pageTop.R, pageBottom.R, t),
			G: lerp(pageTop.G, pageBottom.G, t),
			B: lerp(pageTop.B, pageBottom.B, t),
			A: 0xff,
		}
		vector.DrawFilledRect(screen, 0, h*t, w, h/steps+1, c, false)
	}

	s := p.scale()
	vector.DrawFilledCircle(screen, 900*s, 300*s, 120*s, blockColor, true)
	r := p.panel()
	vector.DrawFilledRect(screen, float32(r.X)*s+40, float32(r.Y)*s+40, 120*s, 80*s, color.RGBA{0x29, 0xad, 0xff, 0xff}, true)
}

func (p *page) drawForeground(screen *ebiten.Image) {
	s := float64(p.scale())
	r := p.dock()
	ebitenutil.DebugPrintAt(screen, "dock: hover me", int((r.X+24)*s), int((r.Y+22)*s))
	r = p.toolbar()
	ebitenutil.DebugPrintAt(screen, "toolbar", int((r.X+16)*s), int((r.Y+16)*s))
	r = p.panel()
	ebitenutil.DebugPrintAt(screen, "card (C toggles)", int((r.X+24)*s), int((r.Y+r.Height-32)*s))
}

func lerp(a, b uint8, t float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*t)
}
