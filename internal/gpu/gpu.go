// Package gpu is the small GPU abstraction the reflection pass records into.
//
// A Device allocates textures and materials and executes command buffers.
// Commands are recorded in order on a CommandBuffer and submitted once per
// frame; the device executes them in exactly that order.
package gpu

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

var (
	// ErrReleased is returned when a released texture is used.
	ErrReleased = errors.New("gpu: texture released")

	// ErrInvalidDescriptor is returned for zero-area or unnamed descriptors.
	ErrInvalidDescriptor = errors.New("gpu: invalid texture descriptor")
)

// TextureDescriptor describes a render target allocation.
type TextureDescriptor struct {
	Name      string
	Width     int
	Height    int
	Format    gputypes.TextureFormat
	DepthBits int // 0 for color targets, 32 for the depth target
	Filter    gputypes.FilterMode
	Wrap      gputypes.AddressMode
}

// ColorDescriptor returns a clamped, bilinear RGBA8 color target descriptor.
func ColorDescriptor(name string, width, height int) TextureDescriptor {
	return TextureDescriptor{
		Name:   name,
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Filter: gputypes.FilterModeLinear,
		Wrap:   gputypes.AddressModeClampToEdge,
	}
}

// DepthDescriptor returns a clamped 32-bit depth target descriptor.
func DepthDescriptor(name string, width, height int) TextureDescriptor {
	return TextureDescriptor{
		Name:      name,
		Width:     width,
		Height:    height,
		Format:    gputypes.TextureFormatDepth32Float,
		DepthBits: 32,
		Filter:    gputypes.FilterModeNearest,
		Wrap:      gputypes.AddressModeClampToEdge,
	}
}

// Validate reports whether the descriptor can be allocated.
func (d TextureDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %s is %dx%d", ErrInvalidDescriptor, d.Name, d.Width, d.Height)
	}
	return nil
}

// IsDepth reports whether the descriptor is a depth target.
func (d TextureDescriptor) IsDepth() bool {
	return d.DepthBits > 0
}

// Texture is an allocated render target.
type Texture interface {
	Name() string
	Width() int
	Height() int
	Descriptor() TextureDescriptor

	// Release frees the texture. Calling it again is a no-op.
	Release()
	Released() bool
}

// Material is a shader instance with float parameters and numbered passes.
type Material interface {
	Shader() string
	PassCount() int
	SetFloat(name string, v float64)
	Float(name string) float64
}

// ReflectionBlurShader is the two-pass blur used by the reflection pyramid.
// Pass 0 downsamples, pass 1 upsamples with a tent spread by "_Offset".
const ReflectionBlurShader = "Hidden/ReflectionBlur"

// Convention identifies the clip-space conventions of a backend.
type Convention int

const (
	// ConventionOpenGL uses depth in [-1,1] and a bottom-left texture origin.
	ConventionOpenGL Convention = iota
	// ConventionDirect3D uses reversed depth in [0,1] and a top-left origin.
	ConventionDirect3D
	// ConventionVulkan behaves like Direct3D for projection purposes.
	ConventionVulkan
	// ConventionMetal behaves like Direct3D for projection purposes.
	ConventionMetal
)

func (c Convention) String() string {
	switch c {
	case ConventionOpenGL:
		return "opengl"
	case ConventionDirect3D:
		return "direct3d"
	case ConventionVulkan:
		return "vulkan"
	case ConventionMetal:
		return "metal"
	default:
		return fmt.Sprintf("convention(%d)", int(c))
	}
}

// ParseConvention maps a config name to a Convention.
func ParseConvention(s string) (Convention, error) {
	switch s {
	case "", "opengl", "gl":
		return ConventionOpenGL, nil
	case "direct3d", "d3d", "d3d11", "d3d12":
		return ConventionDirect3D, nil
	case "vulkan":
		return ConventionVulkan, nil
	case "metal":
		return ConventionMetal, nil
	}
	return ConventionOpenGL, fmt.Errorf("gpu: unknown convention %q", s)
}

// Device allocates resources and executes recorded command buffers.
type Device interface {
	CreateTexture(desc TextureDescriptor) (Texture, error)
	CreateMaterial(shader string) (Material, error)

	// Submit executes cb in order. A cancelled ctx executes nothing.
	Submit(ctx context.Context, cb *CommandBuffer) error

	Convention() Convention
}
