package raster

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gputypes"

	"planar-reflection/internal/scene"
)

// drawCounts tallies one DrawRenderers command.
type drawCounts struct {
	triangles int
	culled    int
	clipped   int
	fragments int
}

// frontFace returns the winding treated as front-facing.
func frontFace(invert bool) gputypes.FrontFace {
	if invert {
		return gputypes.FrontFaceCW
	}
	return gputypes.FrontFaceCCW
}

// culls reports whether a face with the given facing is dropped.
func culls(mode gputypes.CullMode, front bool) bool {
	switch mode {
	case gputypes.CullModeBack:
		return !front
	case gputypes.CullModeFront:
		return front
	}
	return false
}

// drawRenderer rasterizes one renderer into s with the bound state.
func (d *Device) drawRenderer(s *surface, r *scene.Renderer, lc *LightConfig, counts *drawCounts) {
	mesh, mat := r.Mesh, r.Material
	if mesh == nil || mat == nil {
		return
	}
	mvp := d.state.Projection.Mul4(d.state.View).Mul4(r.Model)
	ff := frontFace(d.state.InvertCulling)

	var tex *image.NRGBA
	if mat.Texture != "" && d.opts.Textures != nil && mesh.HasUVs() {
		tex = d.opts.Textures.Resolve(mat.Texture)
		if tex != nil && (tex.Rect.Dx() == 0 || tex.Rect.Dy() == 0) {
			tex = nil
		}
	}
	refl := d.reflectionSource(mat)

	lit := mat.Tag != scene.TagUnlit
	tint := mat.Color

	for i := 0; i < mesh.TriangleCount(); i++ {
		ia, ib, ic := mesh.Triangle(i)
		if ia >= len(mesh.Positions) || ib >= len(mesh.Positions) || ic >= len(mesh.Positions) {
			continue
		}
		counts.triangles++

		idx := [3]int{ia, ib, ic}
		poly := make([]clipVertex, 3)
		var world [3]mgl64.Vec3
		for k, vi := range idx {
			p := mesh.Positions[vi]
			poly[k].pos = mvp.Mul4x1(p.Vec4(1))
			if tex != nil {
				poly[k].uv = mesh.UVs[vi]
			}
			world[k] = r.Model.Mul4x1(p.Vec4(1)).Vec3()
		}

		poly = s.clipNear(poly)
		if len(poly) < 3 {
			counts.clipped++
			continue
		}

		area := 0.0
		for k := 1; k+1 < len(poly); k++ {
			area += signedArea([3]clipVertex{poly[0], poly[k], poly[k+1]})
		}
		if area == 0 {
			counts.clipped++
			continue
		}
		front := (area > 0) == (ff == gputypes.FrontFaceCCW)
		if culls(mat.Cull, front) {
			counts.culled++
			continue
		}

		// Flat shading
		n := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
		if n.Len() > 1e-12 {
			n = n.Normalize()
		}
		if !front {
			n = n.Mul(-1)
		}
		shade := 1.0
		if lit {
			shade = lc.ComputeShade(n)
		}

		frag := func(x, y int, u, v float64) ([4]uint8, bool) {
			cr, cg, cb, ca := tint.R, tint.G, tint.B, tint.A
			if tex != nil {
				tr, tg, tb, ta := SampleTexture(tex, u, v)
				cr = uint8(uint16(tr) * uint16(tint.R) / 255)
				cg = uint8(uint16(tg) * uint16(tint.G) / 255)
				cb = uint8(uint16(tb) * uint16(tint.B) / 255)
				ca = uint8(uint16(ta) * uint16(tint.A) / 255)
			}
			// Skip transparent texels
			if ca < 8 {
				return [4]uint8{}, false
			}
			if lit {
				cr, cg, cb = lc.Shade(cr, cg, cb, shade)
			}
			if refl != nil {
				rc := sampleClamp(refl, (float64(x)+0.5)/float64(s.w), (float64(y)+0.5)/float64(s.h))
				k := mat.Reflectivity
				cr = clamp255(float64(cr)*(1-k) + rc[0]*k)
				cg = clamp255(float64(cg)*(1-k) + rc[1]*k)
				cb = clamp255(float64(cb)*(1-k) + rc[2]*k)
			}
			return [4]uint8{cr, cg, cb, 255}, true
		}

		for k := 1; k+1 < len(poly); k++ {
			counts.fragments += s.rasterize([3]clipVertex{poly[0], poly[k], poly[k+1]}, frag)
		}
	}
}

// reflectionSource returns the published texture a reflective material
// samples, or nil. The bound target is never sampled.
func (d *Device) reflectionSource(mat *scene.Material) *image.RGBA {
	if mat.Reflectivity <= 0 || mat.ReflectionSlot == "" || d.opts.Registry == nil {
		return nil
	}
	tex, ok := d.opts.Registry.Lookup(mat.ReflectionSlot)
	if !ok {
		return nil
	}
	rt, ok := tex.(*Texture)
	if !ok || rt == d.color {
		return nil
	}
	img := rt.Image()
	if img == nil || img.Rect.Empty() {
		return nil
	}
	return img
}
