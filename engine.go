package glass

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/glass/shader"
	"github.com/gogpu/glass/surface"
)

// Errors returned by the engine.
var (
	// ErrUnavailable is returned by Open when no eligible render surface can
	// be created. The cause is wrapped.
	ErrUnavailable = errors.New("glass: overlay unavailable")

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("glass: engine closed")
)

// Viewport is the overlay size in CSS pixels and the device pixel ratio.
type Viewport struct {
	Width, Height int
	PixelRatio    float64
}

// Registrar is the contract UI fragments use to participate in the overlay.
//
// Both *Engine and Unavailable implement it; consumers that care about the
// difference type-switch on the value returned by Mount.
type Registrar interface {
	RegisterElement(e Element)
	UpdateElement(id string, p Patch)
	UnregisterElement(id string)
	SetCursorActive(active bool)
	MoveCursor(x, y float64)

	// Available reports whether the overlay is being drawn.
	Available() bool

	// Watch calls fn after every viewport change until stop is called.
	Watch(fn func(Viewport)) (stop func())
}

// Unavailable is the Registrar used when the overlay cannot be drawn.
// Every operation is a no-op.
type Unavailable struct {
	Err error
}

func (Unavailable) RegisterElement(Element)     {}
func (Unavailable) UpdateElement(string, Patch) {}
func (Unavailable) UnregisterElement(string)    {}
func (Unavailable) SetCursorActive(bool)        {}
func (Unavailable) MoveCursor(float64, float64) {}
func (Unavailable) Available() bool             { return false }
func (Unavailable) Watch(func(Viewport)) func() { return func() {} }

func (u Unavailable) Error() string {
	if u.Err == nil {
		return ErrUnavailable.Error()
	}
	return u.Err.Error()
}

func (u Unavailable) Unwrap() error {
	if u.Err == nil {
		return ErrUnavailable
	}
	return u.Err
}

// Snapshot is a point-in-time copy of the engine state.
type Snapshot struct {
	// Elements lists every registered element in registration order.
	Elements []Element

	// Visible lists the elements being drawn, in compositing order.
	Visible []Element

	// Cursor is the raw cursor state.
	Cursor Cursor

	// SmoothX and SmoothY are the spotlight position used for drawing.
	SmoothX, SmoothY float64

	Viewport Viewport

	// Frames is the number of frames ticked.
	Frames uint64
}

// Engine owns the overlay surface, the element registry and the render loop.
//
// All state is confined to one executor goroutine. Facade methods are safe
// for concurrent use; they queue a message and return immediately, and the
// change is visible from the next frame onward. Messages are processed in
// the order they were sent.
type Engine struct {
	surf  surface.Surface
	sched Scheduler

	msgs chan func()
	quit chan struct{}
	done chan struct{}

	closeOnce sync.Once
	closeErr  error

	watchMu  sync.Mutex
	watchers map[uint64]func(Viewport)
	watchSeq uint64
	viewport Viewport

	// Executor state.
	reg        *Registry
	vp         Viewport
	rate       float64
	smoothX    float64
	smoothY    float64
	start      time.Time
	last       time.Time
	frames     uint64
	drawErrors uint64
	uniforms   shader.Uniforms
	cancel     func()
}

var _ Registrar = (*Engine)(nil)
var _ Registrar = Unavailable{}

// Open creates the render surface and starts the render loop.
//
// If no eligible surface can be created the error wraps ErrUnavailable and
// no loop is started.
func Open(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	vp := cfg.viewport
	if err := surface.ValidateSize(vp.Width, vp.Height, vp.PixelRatio); err != nil {
		return nil, err
	}

	s, err := newSurface(&cfg)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		Logger().Warn("glass: overlay unavailable", "err", err)
		return nil, err
	}
	Logger().Info("glass: surface ready", "backend", s.Name(),
		"width", vp.Width, "height", vp.Height, "ratio", vp.PixelRatio)

	sched := cfg.scheduler
	if sched == nil {
		sched = IntervalScheduler{}
	}

	e := &Engine{
		surf:     s,
		sched:    sched,
		msgs:     make(chan func(), 256),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		watchers: make(map[uint64]func(Viewport)),
		viewport: vp,
		reg:      NewRegistry(),
		vp:       vp,
		rate:     cfg.smoothingRate,
	}
	e.reg.SetCursorSize(cfg.cursorSize)
	trackSurface(s)

	e.cancel = sched.RequestFrame(e.onFrame)
	go e.run()
	return e, nil
}

// Mount is Open for UI code: it returns the engine when the overlay is
// available and Unavailable otherwise.
//
//	switch r := glass.Mount().(type) {
//	case *glass.Engine:
//	    defer r.Close()
//	case glass.Unavailable:
//	    log.Printf("plain rendering: %v", r.Err)
//	}
func Mount(opts ...Option) Registrar {
	e, err := Open(opts...)
	if err != nil {
		return Unavailable{Err: err}
	}
	return e
}

func newSurface(cfg *config) (surface.Surface, error) {
	if cfg.surface != nil {
		vp := cfg.viewport
		if err := cfg.surface.Resize(vp.Width, vp.Height, vp.PixelRatio); err != nil {
			return nil, err
		}
		return cfg.surface, nil
	}

	sopts := surface.Options{
		Width:         cfg.viewport.Width,
		Height:        cfg.viewport.Height,
		PixelRatio:    cfg.viewport.PixelRatio,
		AllowSoftware: cfg.allowSoftware,
	}
	if cfg.provider != nil {
		sopts.DeviceProvider = cfg.provider
	}
	if cfg.backend != "" {
		entry, ok := surface.Get(cfg.backend)
		if ok && !entry.Accelerated() && !cfg.allowSoftware {
			return nil, fmt.Errorf("backend %q is not accelerated: %w", cfg.backend, surface.ErrNoBackendAvailable)
		}
		return surface.NewSurfaceByName(cfg.backend, sopts)
	}
	return surface.NewSurface(sopts)
}

// run is the executor loop.
func (e *Engine) run() {
	defer close(e.done)
	for {
		select {
		case fn := <-e.msgs:
			fn()
		case <-e.quit:
			return
		}
	}
}

// post queues fn on the executor. It reports false if the engine is closed.
func (e *Engine) post(fn func()) bool {
	select {
	case <-e.quit:
		return false
	default:
	}
	select {
	case e.msgs <- fn:
		return true
	case <-e.quit:
		return false
	}
}

// call runs fn on the executor and waits for it.
func (e *Engine) call(fn func()) bool {
	ack := make(chan struct{})
	if !e.post(func() { fn(); close(ack) }) {
		return false
	}
	select {
	case <-ack:
		return true
	case <-e.done:
		return false
	}
}

// RegisterElement adds or overwrites an element.
func (e *Engine) RegisterElement(el Element) {
	e.post(func() { e.reg.Register(el) })
}

// UpdateElement merges p into a registered element. Unknown IDs are ignored.
func (e *Engine) UpdateElement(id string, p Patch) {
	if p.Empty() {
		return
	}
	e.post(func() { e.reg.Update(id, p) })
}

// UnregisterElement removes an element. Unknown IDs are ignored.
func (e *Engine) UnregisterElement(id string) {
	e.post(func() { e.reg.Unregister(id) })
}

// SetCursorActive toggles the spotlight.
func (e *Engine) SetCursorActive(active bool) {
	e.post(func() { e.reg.SetCursorActive(active) })
}

// MoveCursor sets the pointer position the spotlight follows.
func (e *Engine) MoveCursor(x, y float64) {
	e.post(func() { e.reg.MoveCursor(x, y) })
}

// SetCursorSize sets the spotlight radius in CSS pixels.
func (e *Engine) SetCursorSize(size float64) {
	e.post(func() { e.reg.SetCursorSize(size) })
}

// Available reports whether the engine is still drawing.
func (e *Engine) Available() bool {
	select {
	case <-e.quit:
		return false
	default:
		return true
	}
}

// Resize sets the viewport. Watchers are notified on the calling goroutine
// after the resize is queued. Resizing to the current viewport does nothing.
// After Close, Resize returns ErrClosed.
func (e *Engine) Resize(width, height int, pixelRatio float64) error {
	if err := surface.ValidateSize(width, height, pixelRatio); err != nil {
		return err
	}
	if !e.Available() {
		return ErrClosed
	}
	vp := Viewport{Width: width, Height: height, PixelRatio: pixelRatio}

	e.watchMu.Lock()
	if vp == e.viewport {
		e.watchMu.Unlock()
		return nil
	}
	if !e.post(func() { e.resize(vp) }) {
		e.watchMu.Unlock()
		return ErrClosed
	}
	e.viewport = vp
	fns := make([]func(Viewport), 0, len(e.watchers))
	for _, fn := range e.watchers {
		fns = append(fns, fn)
	}
	e.watchMu.Unlock()

	for _, fn := range fns {
		fn(vp)
	}
	return nil
}

func (e *Engine) resize(vp Viewport) {
	e.vp = vp
	if err := e.surf.Resize(vp.Width, vp.Height, vp.PixelRatio); err != nil {
		Logger().Warn("glass: resize failed", "err", err,
			"width", vp.Width, "height", vp.Height, "ratio", vp.PixelRatio)
	}
}

// Viewport returns the most recently set viewport.
func (e *Engine) Viewport() Viewport {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	return e.viewport
}

// Watch calls fn with the new viewport after every Resize until stop is
// called.
func (e *Engine) Watch(fn func(Viewport)) func() {
	e.watchMu.Lock()
	e.watchSeq++
	id := e.watchSeq
	e.watchers[id] = fn
	e.watchMu.Unlock()

	return func() {
		e.watchMu.Lock()
		delete(e.watchers, id)
		e.watchMu.Unlock()
	}
}

// Sync waits until every message sent before it has been processed.
// It returns ErrClosed if the engine closed first.
func (e *Engine) Sync() error {
	if !e.call(func() {}) {
		return ErrClosed
	}
	return nil
}

// Snapshot returns a copy of the engine state after all previously sent
// messages have been processed. It returns the zero Snapshot after Close.
func (e *Engine) Snapshot() Snapshot {
	var s Snapshot
	e.call(func() {
		s = Snapshot{
			Elements: e.reg.Elements(),
			Visible:  e.reg.Visible(),
			Cursor:   e.reg.Cursor(),
			SmoothX:  e.smoothX,
			SmoothY:  e.smoothY,
			Viewport: e.vp,
			Frames:   e.frames,
		}
	})
	return s
}

// Surface returns the render surface. Hosts use it to present the overlay;
// drawing to it directly races with the render loop.
func (e *Engine) Surface() surface.Surface { return e.surf }

// Close stops the render loop and releases the surface. Later facade calls
// are no-ops. Close is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.quit)
		<-e.done

		if e.cancel != nil {
			e.cancel()
		}
		untrackSurface(e.surf)
		e.closeErr = e.surf.Close()
		Logger().Info("glass: engine closed", "frames", e.frames)
	})
	return e.closeErr
}
