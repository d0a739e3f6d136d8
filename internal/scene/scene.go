// Package scene holds the collaborator data the reflection pass consumes:
// cameras, renderers with their meshes and materials, and the light.
package scene

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gputypes"
)

// LayerMask selects scene layers, one bit per layer (0..31).
type LayerMask uint32

// Everything selects every layer.
const Everything LayerMask = ^LayerMask(0)

// LayerBit returns the mask selecting only layer.
func LayerBit(layer int) LayerMask {
	if layer < 0 || layer > 31 {
		return 0
	}
	return 1 << uint(layer)
}

// Contains reports whether layer is selected.
func (m LayerMask) Contains(layer int) bool {
	return m&LayerBit(layer) != 0
}

// ShaderTag classifies the shading pass a material renders in.
type ShaderTag string

const (
	TagUnlit        ShaderTag = "SRPDefaultUnlit"
	TagForward      ShaderTag = "UniversalForward"
	TagForwardOnly  ShaderTag = "UniversalForwardOnly"
	TagShadowCaster ShaderTag = "ShadowCaster"
	TagDepthOnly    ShaderTag = "DepthOnly"
)

// ReflectionTags is the shading-tag whitelist for the mirrored draw.
var ReflectionTags = []ShaderTag{TagUnlit, TagForward, TagForwardOnly}

// Render queue bounds, matching the usual engine convention.
const (
	QueueGeometry    = 2000
	QueueAlphaTest   = 2450
	QueueTransparent = 3000
	QueueMin         = 0
	QueueMax         = 5000
)

// Material describes how a renderer is shaded.
type Material struct {
	Name  string
	Tag   ShaderTag
	Color color.NRGBA

	// Texture is a name resolved through the texture index at draw time.
	Texture string

	// Reflectivity in [0,1] blends the published reflection texture in.
	Reflectivity float64
	// ReflectionSlot names the published texture to sample. Empty means none.
	ReflectionSlot string

	Queue int
	Cull  gputypes.CullMode
}

// DefaultMaterial returns an opaque grey forward material with back-face culling.
func DefaultMaterial() *Material {
	return &Material{
		Name:  "default",
		Tag:   TagForward,
		Color: color.NRGBA{R: 180, G: 180, B: 180, A: 255},
		Queue: QueueGeometry,
		Cull:  gputypes.CullModeBack,
	}
}

// ParseCullMode maps a config name to a cull mode.
func ParseCullMode(s string) (gputypes.CullMode, error) {
	switch strings.ToLower(s) {
	case "", "back":
		return gputypes.CullModeBack, nil
	case "front":
		return gputypes.CullModeFront, nil
	case "none", "off":
		return gputypes.CullModeNone, nil
	}
	return gputypes.CullModeBack, fmt.Errorf("scene: unknown cull mode %q", s)
}

// Renderer is one drawable object.
type Renderer struct {
	Name     string
	Mesh     *Mesh
	Material *Material
	Model    mgl64.Mat4
	Layer    int
}

// Center returns the world-space centre of the renderer's bounds.
func (r *Renderer) Center() mgl64.Vec3 {
	if r.Mesh == nil {
		return r.Model.Col(3).Vec3()
	}
	c := r.Mesh.Bounds().Center()
	return r.Model.Mul4x1(c.Vec4(1)).Vec3()
}

// Light is a single directional light.
type Light struct {
	// Direction points from the surface towards the light.
	Direction mgl64.Vec3
	Color     color.NRGBA
	Ambient   float64
}

// DefaultLight returns a white key light from the upper front right.
func DefaultLight() Light {
	return Light{
		Direction: mgl64.Vec3{0.45, 0.8, 0.4}.Normalize(),
		Color:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Ambient:   0.25,
	}
}

// Scene is a loaded scene file.
type Scene struct {
	Name       string
	Background color.NRGBA
	Light      Light
	Cameras    []Camera
	Renderers  []*Renderer
}

// Camera returns the camera named name.
func (s *Scene) Camera(name string) (Camera, bool) {
	for _, c := range s.Cameras {
		if c.Name == name {
			return c, true
		}
	}
	return Camera{}, false
}
