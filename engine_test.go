package glass

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/glass/shader"
	"github.com/gogpu/glass/surface"
)

// recordSurface is a Surface that records what the engine sends it.
type recordSurface struct {
	mu       sync.Mutex
	uploads  []shader.Uniforms
	draws    int
	resizes  []Viewport
	closes   int
	drawErr  error
	logger   *slog.Logger
	resizeFn func(w, h int, ratio float64) error
}

func (s *recordSurface) Name() string { return "record" }

func (s *recordSurface) Resize(w, h int, ratio float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizes = append(s.resizes, Viewport{Width: w, Height: h, PixelRatio: ratio})
	if s.resizeFn != nil {
		return s.resizeFn(w, h, ratio)
	}
	return nil
}

func (s *recordSurface) Upload(u *shader.Uniforms) {
	s.mu.Lock()
	s.uploads = append(s.uploads, *u)
	s.mu.Unlock()
}

func (s *recordSurface) Draw() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draws++
	return s.drawErr
}

func (s *recordSurface) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	return nil
}

func (s *recordSurface) SetLogger(l *slog.Logger) {
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
}

func (s *recordSurface) last() shader.Uniforms {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.uploads) == 0 {
		return shader.Uniforms{}
	}
	return s.uploads[len(s.uploads)-1]
}

func (s *recordSurface) drawCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

const frame = 16 * time.Millisecond

func openTest(t *testing.T, opts ...Option) (*Engine, *recordSurface, *ManualScheduler) {
	t.Helper()
	s := &recordSurface{}
	sched := NewManualScheduler(time.Unix(1000, 0))
	opts = append([]Option{WithSurface(s), WithScheduler(sched), WithViewport(1200, 900, 1)}, opts...)
	e, err := Open(opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e, s, sched
}

func TestEngineDockScenario(t *testing.T) {
	e, s, sched := openTest(t)

	e.RegisterElement(Element{ID: "dock", X: 500, Y: 780, Width: 600, Height: 60, Radius: 20, Intensity: 1.4})
	sched.Advance(frame)

	want := shader.Slot{Rect: [4]float32{500, 780, 600, 60}, Radius: 20, Intensity: float32(1.4)}
	u := s.last()
	if u.Slots[0] != want {
		t.Errorf("slot 0 = %+v, want %+v", u.Slots[0], want)
	}
	for i := 1; i < shader.MaxSlots; i++ {
		if u.Slots[i] != (shader.Slot{}) {
			t.Errorf("slot %d = %+v, want sentinel", i, u.Slots[i])
		}
	}

	e.UnregisterElement("dock")
	sched.Advance(frame)
	if got := s.last().Slots[0]; got != (shader.Slot{}) {
		t.Errorf("slot 0 after unregister = %+v, want sentinel", got)
	}
	if s.drawCount() != 2 {
		t.Errorf("draws = %d, want 2", s.drawCount())
	}
}

func TestEngineCapacity(t *testing.T) {
	e, s, sched := openTest(t)

	for i := range 10 {
		e.RegisterElement(Element{ID: fmt.Sprintf("e%d", i), X: float64(i), Width: 10, Height: 10, Intensity: 1})
	}
	sched.Advance(frame)

	u := s.last()
	if n := u.EnabledSlots(); n != MaxElements {
		t.Errorf("enabled slots = %d, want %d", n, MaxElements)
	}
	if got := u.Slots[0].Rect[0]; got != 2 {
		t.Errorf("slot 0 x = %v, want 2 (oldest elements evicted)", got)
	}

	snap := e.Snapshot()
	if len(snap.Elements) != 10 || len(snap.Visible) != MaxElements {
		t.Errorf("snapshot has %d elements, %d visible; want 10, 8", len(snap.Elements), len(snap.Visible))
	}
}

func TestEngineUniforms(t *testing.T) {
	e, s, sched := openTest(t, WithViewport(800, 600, 2), WithCursorSize(150))

	e.RegisterElement(Element{ID: "hot", X: 10, Y: 10, Width: 20, Height: 20, Radius: -4, Intensity: 7})
	e.SetCursorActive(false)
	sched.Advance(frame)
	sched.Advance(frame)

	u := s.last()
	if u.Resolution != [2]float32{1600, 1200} {
		t.Errorf("Resolution = %v, want [1600 1200]", u.Resolution)
	}
	if u.PixelRatio != 2 {
		t.Errorf("PixelRatio = %v, want 2", u.PixelRatio)
	}
	if u.Slots[0].Intensity != shader.MaxIntensity || u.Slots[0].Radius != 0 {
		t.Errorf("slot 0 = %+v, want clamped intensity and radius", u.Slots[0])
	}
	if u.Cursor[2] != 150 || u.Cursor[3] != 0 {
		t.Errorf("Cursor = %v, want size 150 inactive", u.Cursor)
	}
	if want := float32(frame.Seconds()); u.Time != want {
		t.Errorf("Time = %v, want %v", u.Time, want)
	}
}

func TestEngineUpdateAbsentIsNoop(t *testing.T) {
	e, s, sched := openTest(t)

	e.UpdateElement("ghost", Patch{}.WithSize(100, 100))
	e.UnregisterElement("ghost")
	sched.Advance(frame)

	u := s.last()
	if n := u.EnabledSlots(); n != 0 {
		t.Errorf("enabled slots = %d, want 0", n)
	}
	if snap := e.Snapshot(); len(snap.Elements) != 0 {
		t.Errorf("Elements = %v, want none", snap.Elements)
	}
}

func TestEngineCursorSmoothing(t *testing.T) {
	e, _, sched := openTest(t)

	e.MoveCursor(100, 50)
	sched.Advance(frame) // first frame establishes the clock
	if snap := e.Snapshot(); snap.SmoothX != 0 || snap.SmoothY != 0 {
		t.Errorf("first frame moved the spotlight to (%v, %v)", snap.SmoothX, snap.SmoothY)
	}

	prev := 0.0
	for range 120 {
		sched.Advance(frame)
		snap := e.Snapshot()
		if snap.SmoothX < prev || snap.SmoothX > 100 {
			t.Fatalf("SmoothX = %v after %v, want monotonic within [0, 100]", snap.SmoothX, prev)
		}
		prev = snap.SmoothX
	}
	if prev < 99.9 {
		t.Errorf("SmoothX = %v after 2s, want converged to 100", prev)
	}
}

func TestEngineDrawErrorKeepsLooping(t *testing.T) {
	s := &recordSurface{drawErr: errors.New("lost")}
	sched := NewManualScheduler(time.Unix(0, 0))
	e, err := Open(WithSurface(s), WithScheduler(sched))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for range 3 {
		if !sched.Advance(frame) {
			t.Fatal("no frame pending after a failed draw")
		}
	}
	if s.drawCount() != 3 {
		t.Errorf("draws = %d, want 3", s.drawCount())
	}
}

func TestEngineClose(t *testing.T) {
	s := &recordSurface{}
	sched := NewManualScheduler(time.Unix(0, 0))
	e, err := Open(WithSurface(s), WithScheduler(sched))
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if s.closes != 1 {
		t.Errorf("surface closed %d times, want 1", s.closes)
	}
	if sched.Pending() {
		t.Error("frame request still pending after Close")
	}

	// Facade calls after Close are no-ops.
	e.RegisterElement(Element{ID: "late", Width: 1, Height: 1})
	e.MoveCursor(1, 1)
	if e.Available() {
		t.Error("Available() = true after Close")
	}
	if err := e.Sync(); !errors.Is(err, ErrClosed) {
		t.Errorf("Sync() = %v, want ErrClosed", err)
	}
	if err := e.Resize(10, 10, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Resize() = %v, want ErrClosed", err)
	}
	vp := e.Viewport()
	if err := e.Resize(vp.Width, vp.Height, vp.PixelRatio); !errors.Is(err, ErrClosed) {
		t.Errorf("Resize(current viewport) = %v, want ErrClosed", err)
	}
	if snap := e.Snapshot(); snap.Elements != nil {
		t.Errorf("Snapshot() after Close = %+v, want zero", snap)
	}
	if s.drawCount() != 0 {
		t.Errorf("draws = %d, want 0", s.drawCount())
	}
}

func TestEngineResize(t *testing.T) {
	e, s, sched := openTest(t)

	var mu sync.Mutex
	var seen []Viewport
	stop := e.Watch(func(vp Viewport) {
		mu.Lock()
		seen = append(seen, vp)
		mu.Unlock()
	})

	if err := e.Resize(1200, 900, 1); err != nil {
		t.Fatal(err)
	}
	if err := e.Resize(640, 480, 1.5); err != nil {
		t.Fatal(err)
	}
	if err := e.Resize(0, 480, 1); !errors.Is(err, surface.ErrInvalidDimensions) {
		t.Errorf("Resize(0, 480) = %v, want ErrInvalidDimensions", err)
	}
	stop()
	if err := e.Resize(320, 240, 1); err != nil {
		t.Fatal(err)
	}
	sched.Advance(frame)

	mu.Lock()
	if len(seen) != 1 || seen[0] != (Viewport{640, 480, 1.5}) {
		t.Errorf("watcher saw %v, want only {640 480 1.5}", seen)
	}
	mu.Unlock()

	if got := e.Viewport(); got != (Viewport{320, 240, 1}) {
		t.Errorf("Viewport() = %+v", got)
	}
	if got := s.last().Resolution; got != [2]float32{320, 240} {
		t.Errorf("Resolution = %v, want [320 240]", got)
	}

	// Initial resize from Open plus the two effective resizes.
	s.mu.Lock()
	n := len(s.resizes)
	s.mu.Unlock()
	if n != 3 {
		t.Errorf("surface resized %d times, want 3", n)
	}
}

func TestOpenUnavailable(t *testing.T) {
	created := 0
	surface.Register("test-offline", surface.PriorityGPU, func(surface.Options) (surface.Surface, error) {
		created++
		return &recordSurface{}, nil
	}, func() bool { return false })
	t.Cleanup(func() { surface.Unregister("test-offline") })

	_, err := Open()
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Open() = %v, want ErrUnavailable", err)
	}
	if !errors.Is(err, surface.ErrNoBackendAvailable) {
		t.Errorf("Open() = %v, want cause ErrNoBackendAvailable", err)
	}

	r := Mount()
	u, ok := r.(Unavailable)
	if !ok {
		t.Fatalf("Mount() = %T, want Unavailable", r)
	}
	if u.Available() || !errors.Is(u, ErrUnavailable) {
		t.Errorf("Unavailable = %v, available %v", u.Err, u.Available())
	}
	u.RegisterElement(Element{ID: "x"})
	u.Watch(func(Viewport) {})()

	if created != 0 {
		t.Errorf("unavailable backend created %d surfaces", created)
	}
}

func TestOpenCompileFailure(t *testing.T) {
	surface.Register("test-badshader", surface.PriorityGPU+1, func(surface.Options) (surface.Surface, error) {
		return nil, fmt.Errorf("link glass program: %w", shader.ErrCompile)
	}, nil)
	t.Cleanup(func() { surface.Unregister("test-badshader") })

	sched := NewManualScheduler(time.Unix(0, 0))
	e, err := Open(WithBackend("test-badshader"), WithScheduler(sched))
	if e != nil {
		t.Fatal("Open returned an engine for a backend that failed to compile")
	}
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, shader.ErrCompile) {
		t.Fatalf("Open() = %v, want ErrUnavailable wrapping ErrCompile", err)
	}
	if sched.Pending() {
		t.Error("frame requested for an unavailable overlay")
	}
	if sched.Advance(frame) {
		t.Error("frame ran after compile failure")
	}

	r := Mount(WithBackend("test-badshader"), WithScheduler(sched))
	if u, ok := r.(Unavailable); !ok || !errors.Is(u, shader.ErrCompile) {
		t.Errorf("Mount() = %#v, want Unavailable wrapping ErrCompile", r)
	}
}

func TestUnavailableZeroValue(t *testing.T) {
	var u Unavailable
	if got := u.Error(); got != ErrUnavailable.Error() {
		t.Errorf("Error() = %q, want %q", got, ErrUnavailable.Error())
	}
	if !errors.Is(u, ErrUnavailable) {
		t.Error("zero Unavailable does not match ErrUnavailable")
	}
}

func TestOpenSoftwareGate(t *testing.T) {
	if _, err := Open(WithBackend("software")); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Open(software) without fallback = %v, want ErrUnavailable", err)
	}
	if _, err := Open(WithBackend("missing"), WithSoftwareFallback(true)); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Open(missing) = %v, want ErrUnavailable", err)
	}
}

func TestEngineSoftwareEndToEnd(t *testing.T) {
	sched := NewManualScheduler(time.Unix(0, 0))
	e, err := Open(
		WithBackend("software"),
		WithSoftwareFallback(true),
		WithScheduler(sched),
		WithViewport(200, 100, 1),
	)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer e.Close()

	e.RegisterElement(Element{ID: "btn", X: 100, Y: 50, Width: 80, Height: 40, Radius: 8, Intensity: 1})
	e.SetCursorActive(false)
	sched.Advance(frame)

	fr, ok := e.Surface().(surface.FrameReader)
	if !ok {
		t.Fatalf("software surface %T is not a FrameReader", e.Surface())
	}
	img := fr.ReadFrame(nil)
	if a := img.NRGBAAt(60, 50).A; a == 0 {
		t.Error("edge pixel of the button is transparent")
	}
	if a := img.NRGBAAt(5, 5).A; a != 0 {
		t.Errorf("corner pixel alpha = %d, want 0", a)
	}
}

func TestEngineLoggerPropagation(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	_, s, _ := openTest(t)
	custom := slog.New(slog.NewTextHandler(discard{}, nil))
	SetLogger(custom)

	s.mu.Lock()
	got := s.logger
	s.mu.Unlock()
	if got != custom {
		t.Error("SetLogger did not reach the open surface")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestEngineConcurrentFacade(t *testing.T) {
	e, _, sched := openTest(t)

	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				id := fmt.Sprintf("g%d-%d", g, i%3)
				e.RegisterElement(Element{ID: id, Width: 1, Height: 1})
				e.UpdateElement(id, Patch{}.WithPosition(float64(i), 0))
				e.MoveCursor(float64(i), float64(g))
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				sched.Advance(frame)
			}
		}
	}()
	wg.Wait()
	close(done)

	if err := e.Sync(); err != nil {
		t.Fatal(err)
	}
	if n := len(e.Snapshot().Elements); n != 12 {
		t.Errorf("registered %d elements, want 12", n)
	}
}
