package gpu

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planar-reflection/internal/scene"
)

func TestDescriptors(t *testing.T) {
	c := ColorDescriptor("_PlanarReflection", 960, 540)
	assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, c.Format)
	assert.Equal(t, 0, c.DepthBits)
	assert.Equal(t, gputypes.AddressModeClampToEdge, c.Wrap)
	assert.False(t, c.IsDepth())
	require.NoError(t, c.Validate())

	d := DepthDescriptor("_PlanarReflection_depth", 960, 540)
	assert.Equal(t, 32, d.DepthBits)
	assert.Equal(t, gputypes.TextureFormatDepth32Float, d.Format)
	assert.True(t, d.IsDepth())

	assert.ErrorIs(t, ColorDescriptor("", 1, 1).Validate(), ErrInvalidDescriptor)
	assert.ErrorIs(t, ColorDescriptor("x", 0, 4).Validate(), ErrInvalidDescriptor)
}

func TestParseConvention(t *testing.T) {
	for in, want := range map[string]Convention{
		"":       ConventionOpenGL,
		"gl":     ConventionOpenGL,
		"d3d11":  ConventionDirect3D,
		"vulkan": ConventionVulkan,
		"metal":  ConventionMetal,
	} {
		got, err := ParseConvention(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseConvention("glide")
	assert.Error(t, err)
	assert.Equal(t, "direct3d", ConventionDirect3D.String())
}

func TestCommandBufferRecordsInOrder(t *testing.T) {
	cb := GetCommandBuffer("frame", 7)
	defer ReleaseCommandBuffer(cb)

	assert.Equal(t, "frame", cb.Name)
	assert.Equal(t, uint64(7), cb.Frame)
	assert.Equal(t, 0, cb.Len())

	cb.BeginSample("PlanarReflections")
	cb.SetRenderTarget(nil, nil)
	cb.ClearRenderTarget(ClearAll, color.RGBA{A: 255})
	cb.SetViewProjection(mgl64.Ident4(), mgl64.Ident4())
	cb.SetInvertCulling(true)
	cb.DrawRenderers([]*scene.Renderer{{Name: "a"}}, DrawSettings{Tags: scene.ReflectionTags})
	cb.SetInvertCulling(false)
	cb.Blit(nil, nil, nil, 3)
	cb.SetGlobalTexture("_PlanarReflection", nil)
	cb.EndSample("PlanarReflections")

	want := []Op{
		OpBeginSample, OpSetRenderTarget, OpClear, OpSetViewProjection,
		OpSetInvertCulling, OpDrawRenderers, OpSetInvertCulling,
		OpBlit, OpSetGlobalTexture, OpEndSample,
	}
	var got []Op
	for _, c := range cb.Commands() {
		got = append(got, c.Op)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, -1, cb.Commands()[7].Pass, "material-less blit is a plain copy")
	assert.Equal(t, "DrawRenderers", OpDrawRenderers.String())
}

func TestDrawRenderersCopiesList(t *testing.T) {
	cb := GetCommandBuffer("frame", 0)
	defer ReleaseCommandBuffer(cb)

	list := []*scene.Renderer{{Name: "a"}, {Name: "b"}}
	cb.DrawRenderers(list, DrawSettings{})
	list[0] = &scene.Renderer{Name: "z"}

	assert.Equal(t, "a", cb.Commands()[0].Renderers[0].Name)
}

func TestReleasedBufferIsEmptyOnReuse(t *testing.T) {
	cb := GetCommandBuffer("a", 1)
	cb.BeginSample("x")
	ReleaseCommandBuffer(cb)
	ReleaseCommandBuffer(nil)

	cb = GetCommandBuffer("b", 2)
	defer ReleaseCommandBuffer(cb)
	assert.Equal(t, 0, cb.Len())
	assert.Equal(t, "b", cb.Name)
}
