package glass

import (
	"math"
	"time"

	"github.com/gogpu/glass/shader"
	"github.com/gogpu/glass/surface"
)

// onFrame is the scheduler callback. It blocks until the frame is drawn so
// a scheduler never runs ahead of the executor.
func (e *Engine) onFrame(now time.Time) {
	e.call(func() { e.tick(now) })
}

// tick advances the loop by one frame. Runs on the executor.
func (e *Engine) tick(now time.Time) {
	if e.start.IsZero() {
		e.start, e.last = now, now
	}
	dt := now.Sub(e.last).Seconds()
	e.last = now

	cur := e.reg.Cursor()
	e.smoothX, e.smoothY = smoothToward(e.smoothX, e.smoothY, cur.X, cur.Y, e.rate, dt)

	buildUniforms(&e.uniforms, e.vp, now.Sub(e.start).Seconds(), cur, e.smoothX, e.smoothY, e.reg.Visible())
	e.surf.Upload(&e.uniforms)
	if err := e.surf.Draw(); err != nil {
		e.drawErrors++
		if e.drawErrors == 1 {
			Logger().Warn("glass: draw failed", "backend", e.surf.Name(), "err", err)
		} else {
			Logger().Debug("glass: draw failed", "count", e.drawErrors, "err", err)
		}
	}
	e.frames++

	e.cancel = e.sched.RequestFrame(e.onFrame)
}

// smoothToward moves (sx, sy) toward (tx, ty) by the fraction 1-exp(-rate*dt).
// The fraction stays in [0, 1), so the result never passes the target.
func smoothToward(sx, sy, tx, ty, rate, dt float64) (float64, float64) {
	if dt <= 0 {
		return sx, sy
	}
	k := 1 - math.Exp(-rate*dt)
	return sx + (tx-sx)*k, sy + (ty-sy)*k
}

// buildUniforms fills u for one frame. Slots past the visible elements get
// the zero-size sentinel.
func buildUniforms(u *shader.Uniforms, vp Viewport, t float64, cur Cursor, sx, sy float64, visible []Element) {
	bw, bh := surface.BackingSize(vp.Width, vp.Height, vp.PixelRatio)
	u.Resolution = [2]float32{float32(bw), float32(bh)}
	u.PixelRatio = float32(vp.PixelRatio)
	u.Time = float32(t)

	var active float32
	if cur.Active {
		active = 1
	}
	u.Cursor = [4]float32{float32(sx), float32(sy), float32(cur.Size), active}

	for i := range u.Slots {
		if i >= len(visible) {
			u.Slots[i] = shader.Slot{}
			continue
		}
		el := &visible[i]
		u.Slots[i] = shader.Slot{
			Rect:      [4]float32{float32(el.X), float32(el.Y), float32(el.Width), float32(el.Height)},
			Radius:    float32(max(el.Radius, 0)),
			Intensity: float32(min(max(el.Intensity, 0), shader.MaxIntensity)),
		}
	}
}
