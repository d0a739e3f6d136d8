package raster

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"planar-reflection/internal/gpu"
)

// clipVertex is a vertex after the model-view-projection transform.
type clipVertex struct {
	pos mgl64.Vec4
	uv  mgl64.Vec2
}

// fragment is called for every covered pixel that passes the depth test.
// u and v are perspective-correct texture coordinates. Returning ok=false
// discards the fragment without writing depth.
type fragment func(x, y int, u, v float64) (c [4]uint8, ok bool)

// surface is the bound render target.
type surface struct {
	color *image.RGBA
	depth []float32
	w, h  int
	conv  gpu.Convention
}

// nearDist is positive for points in front of the near plane.
func (s *surface) nearDist(p mgl64.Vec4) float64 {
	if s.conv == gpu.ConventionOpenGL {
		return p.Z() + p.W()
	}
	// Reversed Z puts the near plane at z == w.
	return p.W() - p.Z()
}

// depthOf maps NDC z to the stored depth value.
func (s *surface) depthOf(z float64) float32 {
	if s.conv == gpu.ConventionOpenGL {
		return float32(z*0.5 + 0.5)
	}
	return float32(z)
}

// closer reports whether depth a wins over b.
func (s *surface) closer(a, b float32) bool {
	if s.conv == gpu.ConventionOpenGL {
		return a < b
	}
	return a > b
}

// inDepthRange reports whether NDC z lies between the clip planes.
func (s *surface) inDepthRange(z float64) bool {
	if s.conv == gpu.ConventionOpenGL {
		return z >= -1 && z <= 1
	}
	return z >= 0 && z <= 1
}

// farDepth is the depth clear value.
func (s *surface) farDepth() float32 {
	if s.conv == gpu.ConventionOpenGL {
		return 1
	}
	return 0
}

// clipNear clips a convex polygon against the near plane
// (Sutherland–Hodgman on a single plane).
func (s *surface) clipNear(in []clipVertex) []clipVertex {
	const eps = 1e-9
	out := make([]clipVertex, 0, len(in)+1)
	for i := range in {
		a := in[i]
		b := in[(i+1)%len(in)]
		da, db := s.nearDist(a.pos), s.nearDist(b.pos)
		if da >= eps {
			out = append(out, a)
		}
		if (da >= eps) != (db >= eps) {
			t := (da - eps) / (da - db)
			out = append(out, clipVertex{
				pos: a.pos.Add(b.pos.Sub(a.pos).Mul(t)),
				uv:  a.uv.Add(b.uv.Sub(a.uv).Mul(t)),
			})
		}
	}
	return out
}

// signedArea returns twice the NDC area of a projected triangle.
// Positive means counter-clockwise with Y up.
func signedArea(v [3]clipVertex) float64 {
	x0, y0 := v[0].pos.X()/v[0].pos.W(), v[0].pos.Y()/v[0].pos.W()
	x1, y1 := v[1].pos.X()/v[1].pos.W(), v[1].pos.Y()/v[1].pos.W()
	x2, y2 := v[2].pos.X()/v[2].pos.W(), v[2].pos.Y()/v[2].pos.W()
	return (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
}

// rasterize fills a clipped triangle with a z-buffer test.
// All three vertices must be in front of the near plane.
func (s *surface) rasterize(v [3]clipVertex, frag fragment) int {
	var sx, sy, sz, iw, uw, vw [3]float64
	for i := 0; i < 3; i++ {
		w := v[i].pos.W()
		if w <= 0 {
			return 0
		}
		inv := 1 / w
		sx[i] = (v[i].pos.X()*inv*0.5 + 0.5) * float64(s.w)
		sy[i] = (0.5 - v[i].pos.Y()*inv*0.5) * float64(s.h)
		sz[i] = v[i].pos.Z() * inv
		iw[i] = inv
		uw[i] = v[i].uv.X() * inv
		vw[i] = v[i].uv.Y() * inv
	}

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(sx[0], sx[1]), sx[2])))
	maxX := int(math.Ceil(math.Max(math.Max(sx[0], sx[1]), sx[2])))
	minY := int(math.Floor(math.Min(math.Min(sy[0], sy[1]), sy[2])))
	maxY := int(math.Ceil(math.Max(math.Max(sy[0], sy[1]), sy[2])))
	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, s.w-1)
	maxY = min(maxY, s.h-1)
	if minX > maxX || minY > maxY {
		return 0
	}

	// Barycentric setup
	det := (sy[1]-sy[2])*(sx[0]-sx[2]) + (sx[2]-sx[1])*(sy[0]-sy[2])
	if det > -1e-12 && det < 1e-12 {
		return 0
	}
	invDet := 1.0 / det
	dy12 := sy[1] - sy[2]
	dx21 := sx[2] - sx[1]
	dy20 := sy[2] - sy[0]
	dx02 := sx[0] - sx[2]

	written := 0
	for py := minY; py <= maxY; py++ {
		dsy := float64(py) + 0.5 - sy[2]
		for px := minX; px <= maxX; px++ {
			dsx := float64(px) + 0.5 - sx[2]
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*sz[0] + w1*sz[1] + w2*sz[2]
			if !s.inDepthRange(z) {
				continue
			}
			d := s.depthOf(z)
			idx := py*s.w + px
			if s.depth != nil && !s.closer(d, s.depth[idx]) {
				continue
			}

			q := w0*iw[0] + w1*iw[1] + w2*iw[2]
			u := (w0*uw[0] + w1*uw[1] + w2*uw[2]) / q
			tv := (w0*vw[0] + w1*vw[1] + w2*vw[2]) / q

			c, ok := frag(px, py, u, tv)
			if !ok {
				continue
			}
			if s.depth != nil {
				s.depth[idx] = d
			}
			o := s.color.PixOffset(px, py)
			s.color.Pix[o] = c[0]
			s.color.Pix[o+1] = c[1]
			s.color.Pix[o+2] = c[2]
			s.color.Pix[o+3] = c[3]
			written++
		}
	}
	return written
}
