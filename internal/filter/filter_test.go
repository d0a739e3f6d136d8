package filter

import (
	"regexp"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planar-reflection/internal/scene"
)

func renderer(name string, layer int, tag scene.ShaderTag, queue int, pos mgl64.Vec3) *scene.Renderer {
	m := scene.DefaultMaterial()
	m.Tag = tag
	m.Queue = queue
	return &scene.Renderer{
		Name:     name,
		Mesh:     scene.Cube(1),
		Material: m,
		Model:    mgl64.Translate3D(pos[0], pos[1], pos[2]),
		Layer:    layer,
	}
}

func names(list []*scene.Renderer) []string {
	var out []string
	for _, r := range list {
		out = append(out, r.Name)
	}
	return out
}

func TestReflectionCriteria(t *testing.T) {
	all := []*scene.Renderer{
		renderer("unlit", 1, scene.TagUnlit, 2000, mgl64.Vec3{}),
		renderer("forward", 1, scene.TagForward, 2000, mgl64.Vec3{}),
		renderer("forwardOnly", 1, scene.TagForwardOnly, 3000, mgl64.Vec3{}),
		renderer("shadow", 1, scene.TagShadowCaster, 2000, mgl64.Vec3{}),
		renderer("otherLayer", 2, scene.TagForward, 2000, mgl64.Vec3{}),
		{Name: "noMesh", Material: scene.DefaultMaterial(), Layer: 1},
		nil,
	}
	got := Renderers(all, Reflection(scene.LayerBit(1)))
	assert.Equal(t, []string{"unlit", "forward", "forwardOnly"}, names(got))
}

func TestExcludeName(t *testing.T) {
	all := []*scene.Renderer{
		renderer("floor", 0, scene.TagForward, 2000, mgl64.Vec3{}),
		renderer("box", 0, scene.TagForward, 2000, mgl64.Vec3{}),
	}
	c := Reflection(scene.Everything)
	c.ExcludeName = regexp.MustCompile(`^floor$`)
	assert.Equal(t, []string{"box"}, names(Renderers(all, c)))
}

func TestQueueRange(t *testing.T) {
	c := Reflection(scene.Everything)
	c.QueueMax = scene.QueueAlphaTest
	assert.True(t, c.Accept(renderer("a", 0, scene.TagForward, 2000, mgl64.Vec3{})))
	assert.False(t, c.Accept(renderer("b", 0, scene.TagForward, 3000, mgl64.Vec3{})))
}

func TestIsDegenerate(t *testing.T) {
	assert.True(t, IsDegenerate(nil))
	assert.True(t, IsDegenerate(&scene.Mesh{}))
	assert.True(t, IsDegenerate(&scene.Mesh{Positions: make([]mgl64.Vec3, 2), Indices: []uint32{0, 1, 2}}))
	assert.False(t, IsDegenerate(scene.Plane(1)))
}

func TestSortOpaque(t *testing.T) {
	eye := mgl64.Vec3{0, 0, 0}
	list := []*scene.Renderer{
		renderer("farTransparent", 0, scene.TagForward, 3000, mgl64.Vec3{0, 0, -1}),
		renderer("far", 0, scene.TagForward, 2000, mgl64.Vec3{0, 0, -10}),
		renderer("near", 0, scene.TagForward, 2000, mgl64.Vec3{0, 0, -2}),
		renderer("background", 0, scene.TagUnlit, 1000, mgl64.Vec3{0, 0, -50}),
	}
	SortOpaque(list, eye)
	require.Len(t, list, 4)
	assert.Equal(t, []string{"background", "near", "far", "farTransparent"}, names(list))
}
