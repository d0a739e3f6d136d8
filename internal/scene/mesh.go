package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is an indexed triangle list. Front faces wind counter-clockwise
// when seen from outside.
type Mesh struct {
	Name      string
	Positions []mgl64.Vec3
	UVs       []mgl64.Vec2 // optional, parallel to Positions
	Indices   []uint32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c int) {
	return int(m.Indices[3*i]), int(m.Indices[3*i+1]), int(m.Indices[3*i+2])
}

// HasUVs reports whether every position has a texture coordinate.
func (m *Mesh) HasUVs() bool {
	return len(m.UVs) == len(m.Positions) && len(m.UVs) > 0
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Center returns the midpoint of the box.
func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent along each axis.
func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Bounds returns the object-space bounding box.
func (m *Mesh) Bounds() Box {
	if len(m.Positions) == 0 {
		return Box{}
	}
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range m.Positions {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return Box{Min: lo, Max: hi}
}

// Plane returns a square in the XZ plane facing +Y, centred on the origin.
func Plane(size float64) *Mesh {
	h := size / 2
	return &Mesh{
		Name: "plane",
		Positions: []mgl64.Vec3{
			{-h, 0, -h}, {-h, 0, h}, {h, 0, h}, {h, 0, -h},
		},
		UVs:     []mgl64.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Cube returns an axis-aligned cube centred on the origin with outward faces.
func Cube(size float64) *Mesh {
	h := size / 2
	x := mgl64.Vec3{1, 0, 0}
	y := mgl64.Vec3{0, 1, 0}
	z := mgl64.Vec3{0, 0, 1}

	// u × v == n keeps each face counter-clockwise from outside.
	faces := [6][3]mgl64.Vec3{
		{x, y, z},
		{x.Mul(-1), z, y},
		{y, z, x},
		{y.Mul(-1), x, z},
		{z, x, y},
		{z.Mul(-1), y, x},
	}

	m := &Mesh{Name: "cube"}
	for _, f := range faces {
		n, u, v := f[0].Mul(h), f[1].Mul(h), f[2].Mul(h)
		base := uint32(len(m.Positions))
		m.Positions = append(m.Positions,
			n.Sub(u).Sub(v),
			n.Add(u).Sub(v),
			n.Add(u).Add(v),
			n.Sub(u).Add(v),
		)
		m.UVs = append(m.UVs, mgl64.Vec2{0, 1}, mgl64.Vec2{1, 1}, mgl64.Vec2{1, 0}, mgl64.Vec2{0, 0})
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}
