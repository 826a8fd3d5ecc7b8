//go:build !nogpu

// Package gpu registers the wgpu render surface for the glass overlay.
//
// Import this package to make the "wgpu" backend available to
// glass.Open and glass.Mount. The backend renders with gogpu/wgpu over
// Vulkan and has the highest priority.
//
// If no Vulkan adapter can be enumerated, the backend reports itself
// unavailable and the engine falls back to the next registered backend, or
// to plain rendering without the overlay.
//
// To share the host's GPU device (e.g., a gogpu window), pass its provider
// with glass.WithDeviceProvider.
//
// Usage:
//
//	import _ "github.com/gogpu/glass/gpu" // enable the wgpu overlay surface
package gpu

import (
	"github.com/gogpu/glass/surface"

	gpuimpl "github.com/gogpu/glass/internal/gpu"
)

// BackendName is the registry name of the wgpu surface.
const BackendName = "wgpu"

func init() {
	surface.Register(BackendName, surface.PriorityGPU, func(opts surface.Options) (surface.Surface, error) {
		return gpuimpl.New(opts)
	}, gpuimpl.Available)
}
