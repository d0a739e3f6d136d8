// Package viewmatrix builds the camera and mirrored-camera transforms.
//
// Matrices are column-major mgl64 values using the OpenGL clip convention;
// GPUProjection adapts a projection to other backends.
package viewmatrix

import (
	"github.com/go-gl/mathgl/mgl64"

	"planar-reflection/internal/gpu"
	"planar-reflection/internal/scene"
)

// CameraState is the per-frame camera input of the transform builder.
type CameraState struct {
	FOV         float64 // vertical, degrees
	PixelWidth  int
	PixelHeight int
	Near        float64
	Far         float64
	View        mgl64.Mat4

	// FlipY is set when the camera renders into a texture.
	FlipY bool
}

// FromCamera captures the current state of c.
func FromCamera(c scene.Camera) CameraState {
	return CameraState{
		FOV:         c.FOV,
		PixelWidth:  c.Width,
		PixelHeight: c.Height,
		Near:        c.Near,
		Far:         c.Far,
		View:        c.View(),
		FlipY:       c.FlipY,
	}
}

// Aspect returns width/height as a float. A zero height yields 1.
func (c CameraState) Aspect() float64 {
	if c.PixelHeight <= 0 || c.PixelWidth <= 0 {
		return 1
	}
	return float64(c.PixelWidth) / float64(c.PixelHeight)
}

// Perspective returns an OpenGL-convention projection (depth in [-1,1]).
func Perspective(fovDeg, aspect, near, far float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(fovDeg), aspect, near, far)
}

// GPUProjection adapts an OpenGL-convention projection to conv. Direct3D,
// Vulkan and Metal get depth remapped to [0,1] with reversed Z, and the Y
// axis flipped when rendering into a texture.
func GPUProjection(p mgl64.Mat4, conv gpu.Convention, renderIntoTexture bool) mgl64.Mat4 {
	if conv == gpu.ConventionOpenGL {
		return p
	}
	out := p
	for col := 0; col < 4; col++ {
		z, w := p.At(2, col), p.At(3, col)
		out.Set(2, col, 0.5*w-0.5*z)
		if renderIntoTexture {
			out.Set(1, col, -p.At(1, col))
		}
	}
	return out
}

// MirrorMatrix negates Y and translates by planeY on Y.
// MirrorMatrix(planeY) is its own inverse.
func MirrorMatrix(planeY float64) mgl64.Mat4 {
	return mgl64.Mat4FromCols(
		mgl64.Vec4{1, 0, 0, 0},
		mgl64.Vec4{0, -1, 0, 0},
		mgl64.Vec4{0, 0, 1, 0},
		mgl64.Vec4{0, planeY, 0, 1},
	)
}

// Transform is the view/projection pair bound for a draw. Never cached
// across frames.
type Transform struct {
	View          mgl64.Mat4
	Projection    mgl64.Mat4
	InvertCulling bool
}

// ViewProjection returns Projection * View.
func (t Transform) ViewProjection() mgl64.Mat4 {
	return t.Projection.Mul4(t.View)
}

// Projection returns the camera's projection adapted to conv.
func Projection(cam CameraState, conv gpu.Convention) mgl64.Mat4 {
	p := Perspective(cam.FOV, cam.Aspect(), cam.Near, cam.Far)
	return GPUProjection(p, conv, cam.FlipY)
}

// Camera returns the camera's own transform with normal culling.
func Camera(cam CameraState, conv gpu.Convention) Transform {
	return Transform{
		View:       cam.View,
		Projection: Projection(cam, conv),
	}
}

// Build returns the mirrored transform for a reflection plane at planeY.
// The mirror flips triangle winding, so InvertCulling is always set.
func Build(cam CameraState, planeY float64, conv gpu.Convention) Transform {
	return Transform{
		View:          cam.View.Mul4(MirrorMatrix(planeY)),
		Projection:    Projection(cam, conv),
		InvertCulling: true,
	}
}
