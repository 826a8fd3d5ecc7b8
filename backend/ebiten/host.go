package ebiten

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"

	"github.com/gogpu/glass"
	"github.com/gogpu/glass/surface"
)

// Host is an ebiten.Game that presents the glass overlay.
//
// Host is the engine's Scheduler: a requested frame fires from Draw, between
// Background and Foreground, so the overlay sits above the page and below
// the fragments' own content.
type Host struct {
	// Background paints the page content. Optional.
	Background func(screen *ebiten.Image)
	// Foreground paints content above the overlay. Optional.
	Foreground func(screen *ebiten.Image)
	// OnUpdate runs once per tick after input is forwarded. Optional.
	OnUpdate func() error

	mu      sync.Mutex
	pending glass.FrameFunc
	seq     uint64
	closed  bool

	eng   *glass.Engine
	hover *glass.HoverGroup
	ratio float64

	// Presentation of surfaces that read frames back.
	frame *image.NRGBA
	rgba  *image.RGBA
	img   *ebiten.Image

	lastX, lastY float64
	seen         bool
}

var _ glass.Scheduler = (*Host)(nil)

// NewHost creates a Host. The "ebiten" backend is available until Close.
func NewHost() *Host {
	hosts.Add(1)
	return &Host{ratio: 1}
}

// Open starts an engine scheduled by the host and sized to the window.
// Options given by the caller override the defaults.
func (h *Host) Open(opts ...glass.Option) (*glass.Engine, error) {
	w, hh := ebiten.WindowSize()
	if w <= 0 || hh <= 0 {
		w, hh = 1280, 720
	}
	h.ratio = deviceScale()
	base := []glass.Option{glass.WithScheduler(h), glass.WithViewport(w, hh, h.ratio)}
	e, err := glass.Open(append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	h.Attach(e)
	return e, nil
}

// Attach makes h present and resize e. Use it for engines opened with
// glass.WithScheduler(h).
func (h *Host) Attach(e *glass.Engine) {
	h.mu.Lock()
	h.eng = e
	h.mu.Unlock()
}

// Hover returns the host's hover group. Pointer moves are hit-tested
// against it in Update. It returns nil until an engine is attached.
func (h *Host) Hover() *glass.HoverGroup {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hover == nil && h.eng != nil {
		h.hover = glass.NewHoverGroup(h.eng)
	}
	return h.hover
}

// Run runs the game loop until the window closes, then closes the host.
func (h *Host) Run() error {
	defer h.Close()
	return ebiten.RunGame(h)
}

// RequestFrame implements glass.Scheduler.
func (h *Host) RequestFrame(fn glass.FrameFunc) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	seq := h.seq
	if !h.closed {
		h.pending = fn
	}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.seq == seq {
			h.pending = nil
		}
	}
}

// fire runs the pending frame, if any. It returns after the frame is drawn.
func (h *Host) fire(now time.Time) bool {
	h.mu.Lock()
	fn := h.pending
	h.pending = nil
	h.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(now)
	return true
}

// Update implements ebiten.Game.
func (h *Host) Update() error {
	cx, cy := ebiten.CursorPosition()
	h.pointerMove(float64(cx), float64(cy))
	if h.OnUpdate != nil {
		return h.OnUpdate()
	}
	return nil
}

// pointerMove forwards a pointer position given in screen pixels.
func (h *Host) pointerMove(sx, sy float64) {
	h.mu.Lock()
	eng, hover, ratio := h.eng, h.hover, h.ratio
	h.mu.Unlock()
	if eng == nil {
		return
	}

	x, y := sx/ratio, sy/ratio
	if h.seen && x == h.lastX && y == h.lastY {
		return
	}
	h.lastX, h.lastY, h.seen = x, y, true
	if hover != nil {
		hover.PointerMove(x, y)
		return
	}
	eng.MoveCursor(x, y)
}

// Draw implements ebiten.Game.
func (h *Host) Draw(screen *ebiten.Image) {
	if h.Background != nil {
		h.Background(screen)
	}
	h.fire(time.Now())
	h.present(screen)
	if h.Foreground != nil {
		h.Foreground(screen)
	}
}

func (h *Host) present(screen *ebiten.Image) {
	h.mu.Lock()
	eng := h.eng
	h.mu.Unlock()
	if eng == nil {
		return
	}

	switch s := eng.Surface().(type) {
	case *Surface:
		if img := s.Image(); img != nil {
			screen.DrawImage(img, nil)
		}
	case surface.FrameReader:
		h.frame = s.ReadFrame(h.frame)
		b := h.frame.Bounds()
		if h.rgba == nil || h.rgba.Bounds() != b {
			h.rgba = image.NewRGBA(b)
			if h.img != nil {
				h.img.Deallocate()
			}
			h.img = ebiten.NewImage(b.Dx(), b.Dy())
		}
		// Src converts straight alpha to ebiten's premultiplied layout.
		draw.Draw(h.rgba, b, h.frame, b.Min, draw.Src)
		h.img.WritePixels(h.rgba.Pix)
		screen.DrawImage(h.img, nil)
	}
}

// Layout implements ebiten.Game. The screen is sized in device pixels and
// the engine viewport follows the window.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	ratio := deviceScale()
	h.mu.Lock()
	h.ratio = ratio
	eng := h.eng
	h.mu.Unlock()

	if eng != nil && outsideWidth > 0 && outsideHeight > 0 {
		if err := eng.Resize(outsideWidth, outsideHeight, ratio); err != nil {
			glass.Logger().Debug("ebiten: resize rejected", "err", err)
		}
	}
	return surface.BackingSize(outsideWidth, outsideHeight, ratio)
}

// Close releases the hover group and presentation image. It does not close
// the engine. Close is idempotent.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.pending = nil
	hover := h.hover
	h.hover = nil
	img := h.img
	h.img = nil
	h.mu.Unlock()

	if hover != nil {
		hover.Close()
	}
	if img != nil {
		img.Deallocate()
	}
	hosts.Add(-1)
}

func deviceScale() float64 {
	m := ebiten.Monitor()
	if m == nil {
		return 1
	}
	r := m.DeviceScaleFactor()
	if r <= 0 || math.IsNaN(r) {
		return 1
	}
	return r
}
