//go:build !nogpu

// Package gpu implements the glass render surface on gogpu/wgpu.
//
// This is an internal package. Import github.com/gogpu/glass/gpu to register
// it as the "wgpu" surface backend.
//
// # Pipeline
//
// The surface compiles the glass WGSL program into one render pipeline with
// a single uniform buffer at group 0, binding 0. Each frame it writes the
// packed uniforms, clears an RGBA8 target to transparent and draws six
// vertices generated from the vertex index. The target has no blend state:
// the fragment stage composites all slots itself and writes
// non-premultiplied color.
//
// After the pass the target is copied to a staging buffer and read back
// into an *image.NRGBA, which hosts upload as a texture or composite on the
// CPU.
//
// # Devices
//
// By default the surface opens its own Vulkan device, preferring discrete
// and integrated GPUs. A host that already owns a device can share it by
// passing a provider whose HalDevice and HalQueue methods return hal.Device
// and hal.Queue (gpucontext.HalProvider). Shared devices are not destroyed
// on Close.
package gpu
