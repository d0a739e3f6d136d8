package pass

import (
	"image/color"

	"planar-reflection/internal/filter"
	"planar-reflection/internal/gpu"
	"planar-reflection/internal/mathutil"
	"planar-reflection/internal/scene"
	"planar-reflection/internal/viewmatrix"
)

// clearColor is opaque black.
var clearColor = color.RGBA{A: 255}

// Visible returns the renderers drawn into the reflection in draw order.
func (f *Feature) Visible(sess *Session) []*scene.Renderer {
	s := sess.settings
	c := filter.Reflection(s.LayerMask)
	c.ExcludeName = f.exclude
	list := filter.Renderers(sess.Renderers, c)

	// Seen from the mirrored camera.
	eye := mathutil.TransformPoint(viewmatrix.MirrorMatrix(s.PlaneYPos), sess.Camera.Position)
	filter.SortOpaque(list, eye)
	return list
}

// recordReflection draws the mirrored scene into the session's targets.
func (f *Feature) recordReflection(cb *gpu.CommandBuffer, sess *Session) {
	scope := f.reflectSampler.Begin(cb)
	defer scope.End()

	cs := viewmatrix.FromCamera(sess.Camera)
	conv := f.dev.Convention()
	mirrored := viewmatrix.Build(cs, sess.settings.PlaneYPos, conv)
	own := viewmatrix.Camera(cs, conv)

	list := f.Visible(sess)

	cb.SetRenderTarget(sess.color, sess.depth)
	cb.ClearRenderTarget(gpu.ClearAll, clearColor)

	restore := applyTransform(cb, mirrored, own)
	defer restore()

	cb.DrawRenderers(list, gpu.DrawSettings{Tags: scene.ReflectionTags})
}

// applyTransform records t and returns the func that records back, in
// reverse order so culling is inverted only around the draws. The
// returned func runs exactly once however often it is called.
func applyTransform(cb *gpu.CommandBuffer, t, back viewmatrix.Transform) func() {
	cb.SetViewProjection(t.View, t.Projection)
	cb.SetInvertCulling(t.InvertCulling)
	done := false
	return func() {
		if done {
			return
		}
		done = true
		cb.SetInvertCulling(back.InvertCulling)
		cb.SetViewProjection(back.View, back.Projection)
	}
}
