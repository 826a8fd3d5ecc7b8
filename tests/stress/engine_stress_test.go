// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build stress

package stress

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/glass"
	"github.com/gogpu/glass/shader"
	"github.com/gogpu/glass/surface"
)

// =============================================================================
// Stress tests for the overlay engine. Run with: go test -tags stress ./tests/stress
// =============================================================================

func openSoftware(t *testing.T, sched glass.Scheduler, w, h int) *glass.Engine {
	t.Helper()
	e, err := glass.Open(
		glass.WithBackend(surface.SoftwareName),
		glass.WithSoftwareFallback(true),
		glass.WithScheduler(sched),
		glass.WithViewport(w, h, 1),
	)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return e
}

// TestStressElementChurn registers, updates and unregisters 100 ids from
// many goroutines while the loop ticks at 1 kHz.
func TestStressElementChurn(t *testing.T) {
	e := openSoftware(t, glass.IntervalScheduler{Interval: time.Millisecond}, 640, 480)
	defer e.Close()

	workers := runtime.GOMAXPROCS(0) * 2
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(w), 7))
			for i := 0; i < 2000; i++ {
				id := fmt.Sprintf("el-%d", rng.IntN(100))
				switch rng.IntN(4) {
				case 0:
					e.RegisterElement(glass.Element{
						ID: id,
						X:  rng.Float64() * 640, Y: rng.Float64() * 480,
						Width: 20 + rng.Float64()*200, Height: 20 + rng.Float64()*80,
						Radius: rng.Float64() * 30, Intensity: rng.Float64() * 3,
					})
				case 1:
					e.UpdateElement(id, glass.Patch{}.WithPosition(rng.Float64()*640, rng.Float64()*480))
				case 2:
					e.UnregisterElement(id)
				case 3:
					e.MoveCursor(rng.Float64()*640, rng.Float64()*480)
				}
			}
		}()
	}
	wg.Wait()

	if err := e.Sync(); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot()
	if len(snap.Visible) > shader.MaxSlots {
		t.Errorf("visible = %d, want <= %d", len(snap.Visible), shader.MaxSlots)
	}
	if len(snap.Elements) > 100 {
		t.Errorf("elements = %d, want <= 100", len(snap.Elements))
	}
	t.Logf("churn: %d elements, %d visible, %d frames", len(snap.Elements), len(snap.Visible), snap.Frames)
}

// TestStressResizeStorm resizes from several goroutines while frames draw.
func TestStressResizeStorm(t *testing.T) {
	sched := glass.NewManualScheduler(time.Unix(0, 0))
	e := openSoftware(t, sched, 320, 240)
	defer e.Close()
	e.RegisterElement(glass.Element{ID: "dock", X: 160, Y: 200, Width: 200, Height: 40, Radius: 12, Intensity: 1})

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = e.Resize(100+(i*7+w)%400, 80+(i*13+w)%300, 1+float64(i%3)/2)
			}
		}()
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			default:
				sched.Advance(16 * time.Millisecond)
			}
		}
	}()
	wg.Wait()
	close(done)
	<-stopped

	if err := e.Resize(500, 400, 2); err != nil {
		t.Fatal(err)
	}
	sched.Advance(16 * time.Millisecond)
	sched.Advance(16 * time.Millisecond)

	vp := e.Viewport()
	if vp.Width != 500 || vp.Height != 400 || vp.PixelRatio != 2 {
		t.Errorf("viewport = %+v, want last write 500x400@2", vp)
	}
	fr := e.Surface().(surface.FrameReader).ReadFrame(nil)
	if b := fr.Bounds(); b.Dx() != 1000 || b.Dy() != 800 {
		t.Errorf("frame = %v, want 1000x800", b)
	}
}

// TestStressOpenClose opens and closes engines repeatedly with calls racing
// Close.
func TestStressOpenClose(t *testing.T) {
	before := runtime.NumGoroutine()

	for i := 0; i < 200; i++ {
		e := openSoftware(t, glass.IntervalScheduler{Interval: 100 * time.Microsecond}, 64, 64)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.RegisterElement(glass.Element{ID: "a", X: 32, Y: 32, Width: 30, Height: 30, Intensity: 1})
				e.UnregisterElement("a")
			}
		}()
		if err := e.Close(); err != nil {
			t.Fatalf("Close #%d failed: %v", i, err)
		}
		wg.Wait()
		if err := e.Sync(); err == nil {
			t.Fatalf("Sync after Close #%d returned nil", i)
		}
	}

	// Timers and executors must not pile up.
	time.Sleep(50 * time.Millisecond)
	if after := runtime.NumGoroutine(); after > before+runtime.GOMAXPROCS(0)+8 {
		t.Errorf("goroutines grew from %d to %d", before, after)
	}
}

// TestStressFullViewportShading draws every slot plus the spotlight over a
// large viewport at a high pixel ratio.
func TestStressFullViewportShading(t *testing.T) {
	s, err := surface.NewSoftwareSurface(1920, 1080, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	u := &shader.Uniforms{Resolution: [2]float32{3840, 2160}, PixelRatio: 2, Cursor: [4]float32{960, 540, 400, 1}}
	for i := range u.Slots {
		u.Slots[i] = shader.Slot{
			Rect:      [4]float32{float32(120 + i*220), float32(100 + i*110), 400, 200},
			Radius:    24,
			Intensity: 1.5,
		}
	}
	s.Upload(u)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := s.Draw(); err != nil {
			t.Fatal(err)
		}
	}
	t.Logf("5 full frames at 3840x2160: %v", time.Since(start))
	if s.Draws() != 5 {
		t.Errorf("Draws() = %d, want 5", s.Draws())
	}
}
