// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"cmp"
	"errors"
	"slices"
	"sync"
)

// Overlay backend priorities. Anything at or above PriorityAccelerated draws
// the glass program on the GPU; lower priorities shade on the CPU and are
// only picked for headless rendering.
const (
	PriorityGPU         = 100 // wgpu offscreen pipeline
	PriorityHost        = 90  // Kage shader in an ebiten game
	PriorityAccelerated = 50
	PrioritySoftware    = 10 // CPU reference shading
)

// SoftwareName is the registry name of the built-in software backend.
const SoftwareName = "software"

// ErrNoBackendAvailable means no backend may draw the overlay with the given
// options. The engine treats it as "overlay unavailable".
var ErrNoBackendAvailable = errors.New("surface: no accelerated backend available")

// BackendNotFoundError reports a backend name nobody registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

// BackendUnavailableError reports a registered backend whose probe failed,
// e.g. the wgpu backend without a Vulkan adapter.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "surface: backend unavailable: " + e.Name
}

// Factory opens a surface for the requested viewport.
type Factory func(opts Options) (Surface, error)

// RegistryEntry describes one overlay backend.
type RegistryEntry struct {
	Name     string
	Priority int
	Factory  Factory

	// Available probes the host once per lookup; it must be cheap.
	Available func() bool
}

// Accelerated reports whether the backend draws on the GPU.
func (e *RegistryEntry) Accelerated() bool {
	return e.Priority >= PriorityAccelerated
}

// Registry maps backend names to factories. Backends register from init:
//
//	func init() {
//	    surface.Register("wgpu", surface.PriorityGPU, factory, probe)
//	}
//
// and the engine asks for the best one that may draw:
//
//	s, err := surface.NewSurface(surface.Options{Width: 1200, Height: 900})
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry returns an empty registry. The engine uses the package-level
// one; separate registries are for tests.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

var defaultRegistry = NewRegistry()

func init() {
	Register(SoftwareName, PrioritySoftware, func(opts Options) (Surface, error) {
		return NewSoftwareSurface(opts.Width, opts.Height, opts.ratio())
	}, nil)
}

// Register adds a backend to the package registry. A nil probe means always
// available; a repeated name replaces the earlier entry.
func Register(name string, priority int, factory Factory, available func() bool) {
	defaultRegistry.Register(name, priority, factory, available)
}

// Unregister drops a backend from the package registry.
func Unregister(name string) { defaultRegistry.Unregister(name) }

// List returns every registered backend, best first.
func List() []string { return defaultRegistry.List() }

// Available returns the backends whose probe succeeds, best first.
func Available() []string { return defaultRegistry.Available() }

// Get looks up a backend in the package registry.
func Get(name string) (*RegistryEntry, bool) { return defaultRegistry.Get(name) }

// NewSurface opens a surface on the best eligible backend of the package
// registry.
func NewSurface(opts Options) (Surface, error) { return defaultRegistry.NewSurface(opts) }

// NewSurfaceByName opens a surface on the named backend of the package
// registry.
func NewSurfaceByName(name string, opts Options) (Surface, error) {
	return defaultRegistry.NewSurfaceByName(name, opts)
}

// Register adds or replaces a backend.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	if available == nil {
		available = func() bool { return true }
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}
	r.entries[name] = &RegistryEntry{Name: name, Priority: priority, Factory: factory, Available: available}
}

// Unregister drops a backend. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.entries, name)
	r.mu.Unlock()
}

// List returns every backend, best first.
func (r *Registry) List() []string {
	return r.ranked(func(*RegistryEntry) bool { return true })
}

// Available returns the backends whose probe succeeds, best first.
func (r *Registry) Available() []string {
	return r.ranked(func(e *RegistryEntry) bool { return e.Available() })
}

// Get returns a copy of the named entry.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	c := *e
	return &c, true
}

// NewSurface tries each available backend in priority order and returns the
// first surface that opens. CPU backends take part only with
// opts.AllowSoftware. If every candidate fails the last error is returned.
func (r *Registry) NewSurface(opts Options) (Surface, error) {
	candidates := r.ranked(func(e *RegistryEntry) bool {
		return (opts.AllowSoftware || e.Accelerated()) && e.Available()
	})
	if len(candidates) == 0 {
		return nil, ErrNoBackendAvailable
	}

	var err error
	for _, name := range candidates {
		var s Surface
		if s, err = r.NewSurfaceByName(name, opts); err == nil {
			return s, nil
		}
	}
	return nil, err
}

// NewSurfaceByName opens a surface on one backend without falling back.
func (r *Registry) NewSurfaceByName(name string, opts Options) (Surface, error) {
	e, ok := r.Get(name)
	switch {
	case !ok:
		return nil, &BackendNotFoundError{Name: name}
	case !e.Available():
		return nil, &BackendUnavailableError{Name: name}
	}
	return e.Factory(opts)
}

// ranked returns the names of entries accepted by keep, highest priority
// first and by name among equals.
func (r *Registry) ranked(keep func(*RegistryEntry) bool) []string {
	r.mu.RLock()
	picked := make([]*RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		picked = append(picked, e)
	}
	r.mu.RUnlock()

	// Probes run outside the lock.
	picked = slices.DeleteFunc(picked, func(e *RegistryEntry) bool { return !keep(e) })
	slices.SortFunc(picked, func(a, b *RegistryEntry) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	names := make([]string, len(picked))
	for i, e := range picked {
		names[i] = e.Name
	}
	return names
}
