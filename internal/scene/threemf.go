package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hpinc/go3mf"
)

// Load3MF reads every mesh object placed in the build section of a 3MF
// package. Coordinates are multiplied by scale (3MF files are usually in
// millimetres).
func Load3MF(path string, scale float64) ([]*Mesh, error) {
	r, err := go3mf.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open %s: %w", path, err)
	}
	defer r.Close()

	var model go3mf.Model
	if err := r.Decode(&model); err != nil {
		return nil, fmt.Errorf("scene: decode %s: %w", path, err)
	}

	if scale == 0 {
		scale = 1
	}

	var meshes []*Mesh
	for _, item := range model.Build.Items {
		obj, ok := model.FindObject(item.ObjectPath(), item.ObjectID)
		if !ok || obj.Mesh == nil {
			continue
		}
		m := &Mesh{Name: obj.Name}
		verts := obj.Mesh.Vertices.Vertex
		m.Positions = make([]mgl64.Vec3, len(verts))
		for i, v := range verts {
			m.Positions[i] = mgl64.Vec3{
				float64(v.X()) * scale,
				float64(v.Y()) * scale,
				float64(v.Z()) * scale,
			}
		}
		tris := obj.Mesh.Triangles.Triangle
		m.Indices = make([]uint32, 0, len(tris)*3)
		for _, t := range tris {
			if int(t.V1) >= len(verts) || int(t.V2) >= len(verts) || int(t.V3) >= len(verts) {
				continue
			}
			m.Indices = append(m.Indices, uint32(t.V1), uint32(t.V2), uint32(t.V3))
		}
		meshes = append(meshes, m)
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("scene: %s has no mesh objects", path)
	}
	return meshes, nil
}

// Merge concatenates meshes into one.
func Merge(name string, meshes []*Mesh) *Mesh {
	out := &Mesh{Name: name}
	for _, m := range meshes {
		base := uint32(len(out.Positions))
		out.Positions = append(out.Positions, m.Positions...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	return out
}
