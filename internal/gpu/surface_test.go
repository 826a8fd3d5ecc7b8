//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/glass/shader"
	"github.com/gogpu/glass/surface"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func dockUniforms() *shader.Uniforms {
	u := &shader.Uniforms{Resolution: [2]float32{1200, 900}, PixelRatio: 1}
	u.Slots[0] = shader.Slot{Rect: [4]float32{500, 780, 600, 60}, Radius: 20, Intensity: 1.4}
	return u
}

func TestNewWithDevice(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	s, err := NewWithDevice(device, queue, surface.Options{Width: 320, Height: 200, PixelRatio: 2})
	if err != nil {
		t.Fatalf("NewWithDevice failed: %v", err)
	}
	defer s.Close()

	if s.Name() != "wgpu" {
		t.Errorf("Name() = %q, want wgpu", s.Name())
	}
	if s.pipe == nil || s.pipe.pipeline == nil || s.pipe.bindGroup == nil {
		t.Fatal("pipeline not created")
	}
	if w, h := s.TargetSize(); w != 0 || h != 0 {
		t.Errorf("target allocated before first Draw: %dx%d", w, h)
	}
}

func TestNewWithDeviceInvalidSize(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	_, err := NewWithDevice(device, queue, surface.Options{Width: 0, Height: 200})
	if !errors.Is(err, surface.ErrInvalidDimensions) {
		t.Errorf("error = %v, want ErrInvalidDimensions", err)
	}
}

func TestSurfaceDraw(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	s, err := NewWithDevice(device, queue, surface.Options{Width: 1200, Height: 900})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.Upload(dockUniforms())
	if err := s.Draw(); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if s.Draws() != 1 {
		t.Errorf("Draws() = %d, want 1", s.Draws())
	}
	if w, h := s.TargetSize(); w != 1200 || h != 900 {
		t.Errorf("TargetSize() = %dx%d, want 1200x900", w, h)
	}
	if len(s.packed) != shader.UniformSize {
		t.Errorf("packed uniforms = %d bytes, want %d", len(s.packed), shader.UniformSize)
	}

	img := s.ReadFrame(nil)
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 900 {
		t.Errorf("frame = %v, want 1200x900", b)
	}
}

func TestSurfaceResize(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	s, err := NewWithDevice(device, queue, surface.Options{Width: 100, Height: 100})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.Upload(&shader.Uniforms{})
	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	tex := s.tex

	// Unchanged size keeps the target.
	if err := s.Resize(100, 100, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	if s.tex != tex {
		t.Error("unchanged Resize reallocated the target")
	}

	tests := []struct {
		w, h   int
		ratio  float64
		tw, th uint32
	}{
		{100, 100, 2, 200, 200},
		{64, 48, 1.5, 96, 72},
		{300, 10, 1, 300, 10},
	}
	for _, tt := range tests {
		if err := s.Resize(tt.w, tt.h, tt.ratio); err != nil {
			t.Fatalf("Resize(%d, %d, %v) failed: %v", tt.w, tt.h, tt.ratio, err)
		}
		if err := s.Draw(); err != nil {
			t.Fatal(err)
		}
		if w, h := s.TargetSize(); w != tt.tw || h != tt.th {
			t.Errorf("Resize(%d, %d, %v): target %dx%d, want %dx%d", tt.w, tt.h, tt.ratio, w, h, tt.tw, tt.th)
		}
	}

	if err := s.Resize(-1, 10, 1); !errors.Is(err, surface.ErrInvalidDimensions) {
		t.Errorf("Resize(-1) = %v, want ErrInvalidDimensions", err)
	}
}

func TestSurfaceClose(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	s, err := NewWithDevice(device, queue, surface.Options{Width: 10, Height: 10})
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Draw()

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := s.Draw(); !errors.Is(err, surface.ErrClosed) {
		t.Errorf("Draw after Close = %v, want ErrClosed", err)
	}
	if err := s.Resize(20, 20, 1); !errors.Is(err, surface.ErrClosed) {
		t.Errorf("Resize after Close = %v, want ErrClosed", err)
	}

	// The shared device outlives the surface.
	s2, err := NewWithDevice(device, queue, surface.Options{Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("device unusable after closing a surface on it: %v", err)
	}
	s2.Close()
}

func TestPreferredAdapter(t *testing.T) {
	const (
		cpu        = gputypes.DeviceTypeCPU
		integrated = gputypes.DeviceTypeIntegratedGPU
		discrete   = gputypes.DeviceTypeDiscreteGPU
	)
	tests := []struct {
		name  string
		types []gputypes.DeviceType
		want  int
	}{
		{"integrated before discrete", []gputypes.DeviceType{integrated, discrete}, 1},
		{"discrete first", []gputypes.DeviceType{discrete, integrated}, 0},
		{"cpu then integrated", []gputypes.DeviceType{cpu, integrated}, 1},
		{"cpu only", []gputypes.DeviceType{cpu, cpu}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preferredAdapter(tt.types); got != tt.want {
				t.Errorf("preferredAdapter(%v) = %d, want %d", tt.types, got, tt.want)
			}
		})
	}
}

type halOnlyProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p halOnlyProvider) HalDevice() any { return p.device }
func (p halOnlyProvider) HalQueue() any  { return p.queue }

func TestSharedDevice(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, q, err := sharedDevice(halOnlyProvider{device: device, queue: queue})
	if err != nil {
		t.Fatalf("sharedDevice failed: %v", err)
	}
	if d != device || q != queue {
		t.Error("sharedDevice returned different handles")
	}

	tests := []struct {
		name     string
		provider any
	}{
		{"no hal methods", struct{}{}},
		{"nil device", halOnlyProvider{queue: queue}},
		{"nil queue", halOnlyProvider{device: device}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := sharedDevice(tt.provider); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSetLogger(t *testing.T) {
	orig := slogger()
	t.Cleanup(func() { setLogger(orig) })

	var s Surface
	s.SetLogger(nil)
	if slogger() == nil {
		t.Fatal("SetLogger(nil) left a nil logger")
	}
}
