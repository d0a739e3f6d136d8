package mathutil

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestHalveDim(t *testing.T) {
	assert.Equal(t, 256, HalveDim(512, 1))
	assert.Equal(t, 64, HalveDim(512, 3))
	assert.Equal(t, 1, HalveDim(512, 20))
	assert.Equal(t, 1, HalveDim(3, 2))
	assert.Equal(t, 7, HalveDim(7, -1))
	assert.Equal(t, 1, HalveDim(1<<30, 100))
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 2, ClampInt(0, 2, 9))
	assert.Equal(t, 9, ClampInt(12, 2, 9))
	assert.Equal(t, 5, ClampInt(5, 2, 9))
}

func TestTransform(t *testing.T) {
	m := mgl64.Translate3D(1, 2, 3)
	assert.True(t, TransformPoint(m, mgl64.Vec3{}).ApproxEqual(mgl64.Vec3{1, 2, 3}))
	assert.True(t, TransformDir(m, mgl64.Vec3{0, 1, 0}).ApproxEqual(mgl64.Vec3{0, 1, 0}))
}

func TestAngles(t *testing.T) {
	assert.InDelta(t, 350, WrapDegrees(-10), 1e-9)
	assert.InDelta(t, 10, WrapDegrees(370), 1e-9)
	assert.InDelta(t, 0, WrapDegrees(360), 1e-9)
}
