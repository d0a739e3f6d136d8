package viewmatrix

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planar-reflection/internal/gpu"
	"planar-reflection/internal/mathutil"
	"planar-reflection/internal/scene"
)

func wideCamera() scene.Camera {
	return scene.Camera{
		Name:     "main",
		FOV:      60,
		Near:     0.1,
		Far:      100,
		Width:    1920,
		Height:   1080,
		Position: mgl64.Vec3{0, 2, 6},
		Target:   mgl64.Vec3{0, 0, 0},
		Up:       mgl64.Vec3{0, 1, 0},
	}
}

func TestAspectIsFloatDivision(t *testing.T) {
	cs := FromCamera(wideCamera())
	assert.InDelta(t, 16.0/9.0, cs.Aspect(), 1e-12)

	cs.PixelWidth, cs.PixelHeight = 5, 4
	assert.InDelta(t, 1.25, cs.Aspect(), 1e-12)

	cs.PixelHeight = 0
	assert.Equal(t, 1.0, cs.Aspect())
}

func TestMirrorMatrixLayout(t *testing.T) {
	m := MirrorMatrix(2.5)
	assert.Equal(t, mgl64.Vec4{1, 0, 0, 0}, m.Col(0))
	assert.Equal(t, mgl64.Vec4{0, -1, 0, 0}, m.Col(1))
	assert.Equal(t, mgl64.Vec4{0, 0, 1, 0}, m.Col(2))
	assert.Equal(t, mgl64.Vec4{0, 2.5, 0, 1}, m.Col(3))
	assert.InDelta(t, -1, m.Det(), 1e-12)
}

func TestMirrorAtOriginFlipsY(t *testing.T) {
	p := mathutil.TransformPoint(MirrorMatrix(0), mgl64.Vec3{1, 3, -2})
	assert.True(t, p.ApproxEqual(mgl64.Vec3{1, -3, -2}))
}

func TestMirrorInvolution(t *testing.T) {
	view := wideCamera().View()
	for _, y := range []float64{-100, -3.5, -1, 0, 0.001, 1, 2.25, 17, 1e4} {
		m := MirrorMatrix(y)
		assert.True(t, m.Mul4(m).ApproxEqualThreshold(mgl64.Ident4(), 1e-12), "planeY=%v", y)
		twice := view.Mul4(m).Mul4(m)
		assert.True(t, twice.ApproxEqualThreshold(view, 1e-9), "planeY=%v", y)
	}
}

func TestBuildMirrorsAndInvertsCulling(t *testing.T) {
	cs := FromCamera(wideCamera())
	tr := Build(cs, 0, gpu.ConventionOpenGL)
	require.True(t, tr.InvertCulling)

	want := cs.View.Mul4(MirrorMatrix(0))
	assert.True(t, tr.View.ApproxEqualThreshold(want, 1e-12))

	// A point above the plane lands where its reflection would in the
	// camera's own view.
	above := mgl64.Vec3{0.5, 1, 0}
	below := mgl64.Vec3{0.5, -1, 0}
	cam := Camera(cs, gpu.ConventionOpenGL)
	assert.False(t, cam.InvertCulling)
	got := mathutil.TransformPoint(tr.ViewProjection(), above)
	ref := mathutil.TransformPoint(cam.ViewProjection(), below)
	assert.True(t, got.ApproxEqualThreshold(ref, 1e-9))

	// Mirroring reverses winding.
	assert.Less(t, tr.View.Det()*cs.View.Det(), 0.0)
}

func TestProjectionUsesAspect(t *testing.T) {
	cs := FromCamera(wideCamera())
	p := Projection(cs, gpu.ConventionOpenGL)
	want := Perspective(60, 16.0/9.0, 0.1, 100)
	assert.True(t, p.ApproxEqualThreshold(want, 1e-12))
	// x scale = y scale / aspect
	assert.InDelta(t, p.At(1, 1)/cs.Aspect(), p.At(0, 0), 1e-12)
}

func TestGPUProjection(t *testing.T) {
	p := Perspective(60, 1, 1, 10)
	assert.Equal(t, p, GPUProjection(p, gpu.ConventionOpenGL, true))

	for _, conv := range []gpu.Convention{gpu.ConventionDirect3D, gpu.ConventionVulkan, gpu.ConventionMetal} {
		d := GPUProjection(p, conv, false)
		// Near maps to 1 and far to 0 (reversed Z in [0,1]).
		near := d.Mul4x1(mgl64.Vec4{0, 0, -1, 1})
		far := d.Mul4x1(mgl64.Vec4{0, 0, -10, 1})
		assert.InDelta(t, 1, near.Z()/near.W(), 1e-9, conv.String())
		assert.InDelta(t, 0, far.Z()/far.W(), 1e-9, conv.String())
		assert.Equal(t, p.At(1, 1), d.At(1, 1))

		flipped := GPUProjection(p, conv, true)
		assert.Equal(t, -p.At(1, 1), flipped.At(1, 1))
	}
}
