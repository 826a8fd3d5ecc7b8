package glass

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glass/surface"
)

// DefaultSmoothingRate is the cursor smoothing rate in 1/s.
const DefaultSmoothingRate = 8

// Option configures an Engine during Open or Mount.
//
// Example:
//
//	// Auto-detected accelerated backend, 60 Hz timer.
//	eng, err := glass.Open()
//
//	// Headless rendering with deterministic frames.
//	sched := glass.NewManualScheduler(time.Now())
//	eng, err := glass.Open(
//	    glass.WithBackend("software"),
//	    glass.WithSoftwareFallback(true),
//	    glass.WithScheduler(sched),
//	)
type Option func(*config)

type config struct {
	surface       surface.Surface
	backend       string
	allowSoftware bool
	scheduler     Scheduler
	viewport      Viewport
	smoothingRate float64
	cursorSize    float64
	provider      gpucontext.DeviceProvider
}

func defaultConfig() config {
	return config{
		viewport:      Viewport{Width: 1280, Height: 720, PixelRatio: 1},
		smoothingRate: DefaultSmoothingRate,
		cursorSize:    DefaultCursorSize,
	}
}

// WithSurface uses s instead of creating a surface from the backend
// registry. The engine takes ownership and closes s on Close.
func WithSurface(s surface.Surface) Option {
	return func(c *config) {
		c.surface = s
	}
}

// WithBackend selects a registered backend by name instead of the highest
// priority available one.
func WithBackend(name string) Option {
	return func(c *config) {
		c.backend = name
	}
}

// WithSoftwareFallback makes the CPU backend eligible when no accelerated
// backend is available.
func WithSoftwareFallback(allow bool) Option {
	return func(c *config) {
		c.allowSoftware = allow
	}
}

// WithScheduler sets the frame source. The default is an IntervalScheduler
// at 60 Hz.
func WithScheduler(s Scheduler) Option {
	return func(c *config) {
		c.scheduler = s
	}
}

// WithViewport sets the initial viewport.
func WithViewport(width, height int, pixelRatio float64) Option {
	return func(c *config) {
		c.viewport = Viewport{Width: width, Height: height, PixelRatio: pixelRatio}
	}
}

// WithSmoothingRate sets how fast the spotlight follows the pointer, in 1/s.
// Non-positive values are ignored.
func WithSmoothingRate(rate float64) Option {
	return func(c *config) {
		if rate > 0 {
			c.smoothingRate = rate
		}
	}
}

// WithCursorSize sets the initial spotlight radius in CSS pixels.
func WithCursorSize(size float64) Option {
	return func(c *config) {
		if size > 0 {
			c.cursorSize = size
		}
	}
}

// WithDeviceProvider shares a host GPU device with the surface. Backends
// that draw through their own device ignore it.
//
// Example:
//
//	app := gogpu.NewApp(gogpu.DefaultConfig())
//	eng, err := glass.Open(glass.WithDeviceProvider(app.GPUContextProvider()))
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(c *config) {
		c.provider = p
	}
}
