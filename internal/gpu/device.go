//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNoDevice is returned when no usable GPU adapter is found.
var ErrNoDevice = errors.New("gpu: no GPU device available")

// halProvider is the gpucontext.HalProvider shape: direct access to the
// host's hal device and queue.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// sharedDevice extracts a hal device and queue from a host provider.
func sharedDevice(provider any) (hal.Device, hal.Queue, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("gpu: provider %T does not expose HAL types", provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}

// openDevice creates a Vulkan instance and opens the preferred adapter.
func openDevice() (hal.Instance, hal.Device, hal.Queue, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: vulkan backend not available", ErrNoDevice)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("%w: no adapters found", ErrNoDevice)
	}
	types := make([]gputypes.DeviceType, len(adapters))
	for i := range adapters {
		types[i] = adapters[i].Info.DeviceType
	}
	selected := &adapters[preferredAdapter(types)]
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("open device: %w", err)
	}
	slogger().Info("gpu: adapter selected", "name", selected.Info.Name, "type", selected.Info.DeviceType)
	return instance, openDev.Device, openDev.Queue, nil
}

// preferredAdapter returns the index of the first discrete GPU, else the
// first integrated GPU, else 0.
func preferredAdapter(types []gputypes.DeviceType) int {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i, t := range types {
			if t == want {
				return i
			}
		}
	}
	return 0
}

var (
	probeOnce sync.Once
	probeOK   bool
)

// Available reports whether a Vulkan adapter can be enumerated. The probe
// runs once per process.
func Available() bool {
	probeOnce.Do(func() {
		backend, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return
		}
		instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			slogger().Debug("gpu: probe failed", "err", err)
			return
		}
		defer instance.Destroy()
		probeOK = len(instance.EnumerateAdapters(nil)) > 0
	})
	return probeOK
}
