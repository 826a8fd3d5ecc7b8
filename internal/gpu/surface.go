//go:build !nogpu

package gpu

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glass/shader"
	"github.com/gogpu/glass/surface"
)

// fenceTimeout bounds the wait for one frame.
const fenceTimeout = 5 * time.Second

// Surface renders the glass program with wgpu/hal into an offscreen RGBA8
// target and reads each frame back for presentation.
//
// Surface implements surface.Surface and surface.FrameReader.
type Surface struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool // shared device: not destroyed on Close

	pipe *glassPipeline

	tex     hal.Texture
	view    hal.TextureView
	staging hal.Buffer
	texW    uint32
	texH    uint32

	width, height int
	ratio         float64

	uniforms shader.Uniforms
	packed   []byte
	readback []byte
	frame    *image.NRGBA

	draws  uint64
	closed bool
}

var (
	_ surface.Surface     = (*Surface)(nil)
	_ surface.FrameReader = (*Surface)(nil)
)

// New creates a surface on a shared device when opts.DeviceProvider exposes
// one, or on a newly opened Vulkan device otherwise.
func New(opts surface.Options) (*Surface, error) {
	if err := surface.ValidateSize(opts.Width, opts.Height, ratioOf(opts)); err != nil {
		return nil, err
	}
	if _, err := shader.Compile(); err != nil {
		return nil, err
	}

	if opts.DeviceProvider != nil {
		device, queue, err := sharedDevice(opts.DeviceProvider)
		if err == nil {
			s, err := NewWithDevice(device, queue, opts)
			if err != nil {
				return nil, err
			}
			slogger().Info("gpu: using shared GPU device")
			return s, nil
		}
		slogger().Warn("gpu: shared device unusable, opening own device", "err", err)
	}

	instance, device, queue, err := openDevice()
	if err != nil {
		return nil, err
	}
	s := &Surface{instance: instance, device: device, queue: queue}
	if err := s.init(opts); err != nil {
		device.Destroy()
		instance.Destroy()
		return nil, err
	}
	return s, nil
}

// NewWithDevice creates a surface on a device owned by the caller.
// The device and queue are not destroyed on Close.
func NewWithDevice(device hal.Device, queue hal.Queue, opts surface.Options) (*Surface, error) {
	if err := surface.ValidateSize(opts.Width, opts.Height, ratioOf(opts)); err != nil {
		return nil, err
	}
	s := &Surface{device: device, queue: queue, external: true}
	if err := s.init(opts); err != nil {
		return nil, err
	}
	return s, nil
}

func ratioOf(opts surface.Options) float64 {
	if opts.PixelRatio <= 0 {
		return 1
	}
	return opts.PixelRatio
}

func (s *Surface) init(opts surface.Options) error {
	pipe, err := newGlassPipeline(s.device)
	if err != nil {
		return err
	}
	s.pipe = pipe
	s.width, s.height, s.ratio = opts.Width, opts.Height, ratioOf(opts)
	return nil
}

// Name returns "wgpu".
func (s *Surface) Name() string { return "wgpu" }

// SetLogger sets the logger used by the gpu package.
func (s *Surface) SetLogger(l *slog.Logger) { setLogger(l) }

// Resize records the new viewport. The target is reallocated on the next
// Draw.
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

// Upload stores the uniforms for the next Draw.
func (s *Surface) Upload(u *shader.Uniforms) {
	s.mu.Lock()
	s.uniforms = *u
	s.mu.Unlock()
}

// Draw renders one frame and reads it back.
func (s *Surface) Draw() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return surface.ErrClosed
	}
	if err := s.ensureTarget(); err != nil {
		return err
	}

	s.packed = s.uniforms.Pack(s.packed)
	s.queue.WriteBuffer(s.pipe.uniformBuf, 0, s.packed)

	if err := s.encodeAndReadback(); err != nil {
		return err
	}
	s.draws++
	return nil
}

// ensureTarget (re)allocates the render target and staging buffer when the
// backing size changed.
func (s *Surface) ensureTarget() error {
	bw, bh := surface.BackingSize(s.width, s.height, s.ratio)
	w, h := uint32(bw), uint32(bh) //nolint:gosec // backing size is positive
	if s.tex != nil && w == s.texW && h == s.texH {
		return nil
	}
	s.destroyTarget()

	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glass_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create target texture: %w", err)
	}
	s.tex = tex

	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "glass_target_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		s.destroyTarget()
		return fmt.Errorf("create target view: %w", err)
	}
	s.view = view

	size := uint64(w) * uint64(h) * 4
	staging, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.destroyTarget()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	s.staging = staging

	s.texW, s.texH = w, h
	s.readback = make([]byte, size)
	s.frame = image.NewNRGBA(image.Rect(0, 0, bw, bh))
	slogger().Debug("gpu: target allocated", "width", w, "height", h)
	return nil
}

func (s *Surface) encodeAndReadback() error {
	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "glass_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("glass_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "glass_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       s.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	rp.SetPipeline(s.pipe.pipeline)
	rp.SetBindGroup(0, s.pipe.bindGroup, nil)
	rp.Draw(shader.VertexCount, 1, 0, 0)
	rp.End()

	// The target is in attachment layout after the pass; the copy needs
	// transfer-source layout. No-op on backends without layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	encoder.CopyTextureToBuffer(s.tex, s.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: s.texW * 4, RowsPerImage: s.texH},
		TextureBase:  hal.ImageCopyTexture{Texture: s.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: s.texW, Height: s.texH, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	fence, err := s.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer s.device.DestroyFence(fence)

	if err := s.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := s.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	if err := s.queue.ReadBuffer(s.staging, 0, s.readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	copy(s.frame.Pix, s.readback)
	return nil
}

// ReadFrame copies the last drawn frame into dst.
func (s *Surface) ReadFrame(dst *image.NRGBA) *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frame == nil {
		bw, bh := surface.BackingSize(s.width, s.height, s.ratio)
		s.frame = image.NewNRGBA(image.Rect(0, 0, bw, bh))
	}
	b := s.frame.Bounds()
	if dst == nil || dst.Bounds() != b {
		dst = image.NewNRGBA(b)
	}
	copy(dst.Pix, s.frame.Pix)
	return dst
}

// Draws returns the number of completed frames.
func (s *Surface) Draws() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

// TargetSize returns the allocated render target size in device pixels.
func (s *Surface) TargetSize() (width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.texW, s.texH
}

func (s *Surface) destroyTarget() {
	if s.staging != nil {
		s.device.DestroyBuffer(s.staging)
		s.staging = nil
	}
	if s.view != nil {
		s.device.DestroyTextureView(s.view)
		s.view = nil
	}
	if s.tex != nil {
		s.device.DestroyTexture(s.tex)
		s.tex = nil
	}
	s.texW, s.texH = 0, 0
}

// Close releases the pipeline, the target and, unless shared, the device.
// Close is idempotent.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.destroyTarget()
	if s.pipe != nil {
		s.pipe.destroy()
		s.pipe = nil
	}
	if !s.external {
		if s.device != nil {
			s.device.Destroy()
		}
		if s.instance != nil {
			s.instance.Destroy()
		}
	}
	s.device, s.queue, s.instance = nil, nil, nil
	return nil
}
