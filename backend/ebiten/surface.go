package ebiten

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/glass/shader"
	"github.com/gogpu/glass/surface"
)

// BackendName is the registry name of the ebiten surface.
const BackendName = "ebiten"

// hosts counts live Hosts. The surface needs a running game to present.
var hosts atomic.Int32

// Available reports whether a Host exists.
func Available() bool {
	return hosts.Load() > 0
}

func init() {
	surface.Register(BackendName, surface.PriorityHost, func(opts surface.Options) (surface.Surface, error) {
		return New(opts)
	}, Available)
}

// Surface draws the glass program into an offscreen ebiten image.
type Surface struct {
	mu sync.Mutex

	shader *ebiten.Shader
	target *ebiten.Image

	width, height int
	ratio         float64

	uniforms map[string]any
	draws    uint64
	closed   bool
}

var _ surface.Surface = (*Surface)(nil)

// New compiles the Kage program and creates a surface for the viewport.
func New(opts surface.Options) (*Surface, error) {
	ratio := opts.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	if err := surface.ValidateSize(opts.Width, opts.Height, ratio); err != nil {
		return nil, err
	}
	sh, err := ebiten.NewShader(shader.KageSource())
	if err != nil {
		return nil, fmt.Errorf("%w: kage: %w", shader.ErrCompile, err)
	}
	return &Surface{
		shader:   sh,
		width:    opts.Width,
		height:   opts.Height,
		ratio:    ratio,
		uniforms: kageUniforms(&shader.Uniforms{}, nil),
	}, nil
}

// Name returns "ebiten".
func (s *Surface) Name() string { return BackendName }

// Resize records the viewport. The target is reallocated on the next Draw.
func (s *Surface) Resize(width, height int, pixelRatio float64) error {
	if err := surface.ValidateSize(width, height, pixelRatio); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return surface.ErrClosed
	}
	s.width, s.height, s.ratio = width, height, pixelRatio
	return nil
}

// Upload converts u to Kage uniforms for the next Draw.
func (s *Surface) Upload(u *shader.Uniforms) {
	s.mu.Lock()
	s.uniforms = kageUniforms(u, s.uniforms)
	s.mu.Unlock()
}

// Draw clears the target and runs the program over it.
func (s *Surface) Draw() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return surface.ErrClosed
	}
	bw, bh := surface.BackingSize(s.width, s.height, s.ratio)
	if s.target == nil || s.target.Bounds().Dx() != bw || s.target.Bounds().Dy() != bh {
		if s.target != nil {
			s.target.Deallocate()
		}
		s.target = ebiten.NewImage(bw, bh)
	}
	s.target.Clear()
	s.target.DrawRectShader(bw, bh, s.shader, &ebiten.DrawRectShaderOptions{
		Uniforms: s.uniforms,
	})
	s.draws++
	return nil
}

// Image returns the offscreen target, or nil before the first Draw.
// Pixels are premultiplied, as ebiten expects.
func (s *Surface) Image() *ebiten.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Draws returns the number of completed Draw calls.
func (s *Surface) Draws() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

// Close releases the shader and target. Close is idempotent.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.target != nil {
		s.target.Deallocate()
		s.target = nil
	}
	if s.shader != nil {
		s.shader.Deallocate()
		s.shader = nil
	}
	return nil
}

// kageUniforms maps u onto the variables declared by glass.kage. The slices
// of prev are reused when present.
func kageUniforms(u *shader.Uniforms, prev map[string]any) map[string]any {
	var rects, params []float32
	if prev != nil {
		rects, _ = prev["Rects"].([]float32)
		params, _ = prev["Params"].([]float32)
	}
	if len(rects) != 4*shader.MaxSlots {
		rects = make([]float32, 4*shader.MaxSlots)
	}
	if len(params) != 4*shader.MaxSlots {
		params = make([]float32, 4*shader.MaxSlots)
	}
	for i, sl := range u.Slots {
		copy(rects[i*4:], sl.Rect[:])
		params[i*4] = sl.Radius
		params[i*4+1] = sl.Intensity
	}
	return map[string]any{
		"Resolution": []float32{u.Resolution[0], u.Resolution[1]},
		"PixelRatio": u.PixelRatio,
		"Time":       u.Time,
		"Cursor":     []float32{u.Cursor[0], u.Cursor[1], u.Cursor[2], u.Cursor[3]},
		"Rects":      rects,
		"Params":     params,
	}
}
