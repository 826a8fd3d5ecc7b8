package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

//go:embed glass.wgsl
var wgslSource string

//go:embed glass.kage
var kageSource []byte

// ErrCompile reports that the glass program could not be compiled.
// The source is static, so the failure is permanent for the process.
var ErrCompile = errors.New("shader: glass program failed to compile")

// Entry points of the WGSL program.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// VertexCount is the number of vertices of the full-viewport quad.
const VertexCount = 6

// WGSLSource returns the WGSL program.
func WGSLSource() string { return wgslSource }

// KageSource returns the ebiten Kage program. The returned slice is a copy.
func KageSource() []byte {
	return append([]byte(nil), kageSource...)
}

var (
	compileOnce sync.Once
	spirv       []uint32
	compileErr  error
)

// Compile translates the WGSL program to SPIR-V with naga. The work is done
// once per process; later calls return the cached result. A failure wraps
// ErrCompile.
func Compile() ([]uint32, error) {
	compileOnce.Do(func() {
		spirv, compileErr = compileWGSL(wgslSource)
	})
	return spirv, compileErr
}

func compileWGSL(src string) ([]uint32, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty source", ErrCompile)
	}
	b, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if len(b) < 4 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: malformed SPIR-V (%d bytes)", ErrCompile, len(b))
	}

	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}
