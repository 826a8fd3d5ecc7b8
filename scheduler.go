package glass

import (
	"sync"
	"time"
)

// DefaultFrameInterval is the IntervalScheduler period when none is set.
const DefaultFrameInterval = time.Second / 60

// FrameFunc is a per-frame callback. now is the frame timestamp.
type FrameFunc func(now time.Time)

// Scheduler delivers frame callbacks, one per request.
//
// The engine requests the next frame at the end of each tick, so a
// scheduler never has more than one pending callback per engine. The
// returned cancel function drops a pending request; calling it after the
// callback fired is harmless.
type Scheduler interface {
	RequestFrame(fn FrameFunc) (cancel func())
}

// IntervalScheduler fires frames on a fixed timer, standing in for the
// display refresh signal.
type IntervalScheduler struct {
	// Interval between frames. Zero means DefaultFrameInterval.
	Interval time.Duration
}

// RequestFrame implements Scheduler.
func (s IntervalScheduler) RequestFrame(fn FrameFunc) func() {
	d := s.Interval
	if d <= 0 {
		d = DefaultFrameInterval
	}
	t := time.AfterFunc(d, func() { fn(time.Now()) })
	return func() { t.Stop() }
}

// ManualScheduler fires frames only when advanced. It gives tests and
// headless renderers full control over frame timing.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	pending FrameFunc
	seq     uint64
}

// NewManualScheduler returns a scheduler whose clock starts at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// RequestFrame implements Scheduler.
func (m *ManualScheduler) RequestFrame(fn FrameFunc) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	seq := m.seq
	m.pending = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.seq == seq {
			m.pending = nil
		}
	}
}

// Advance moves the clock forward by d and fires the pending frame, if any.
// It returns after the callback returns and reports whether a frame fired.
func (m *ManualScheduler) Advance(d time.Duration) bool {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	fn := m.pending
	m.pending = nil
	m.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(now)
	return true
}

// Pending reports whether a frame has been requested and not yet fired.
func (m *ManualScheduler) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Now returns the scheduler clock.
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
