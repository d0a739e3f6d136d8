// Package filter selects and orders the renderers drawn into the reflection.
package filter

import (
	"regexp"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"planar-reflection/internal/scene"
)

// Criteria selects renderers by layer, render queue and shading tag.
type Criteria struct {
	Mask     scene.LayerMask
	QueueMin int
	QueueMax int
	Tags     []scene.ShaderTag

	// ExcludeName drops renderers whose name matches. Optional.
	ExcludeName *regexp.Regexp
}

// Reflection returns the criteria of the mirrored draw: every queue and
// the unlit and forward tags.
func Reflection(mask scene.LayerMask) Criteria {
	return Criteria{
		Mask:     mask,
		QueueMin: scene.QueueMin,
		QueueMax: scene.QueueMax,
		Tags:     scene.ReflectionTags,
	}
}

// Accept reports whether r passes every criterion.
func (c Criteria) Accept(r *scene.Renderer) bool {
	if r == nil || r.Material == nil || IsDegenerate(r.Mesh) {
		return false
	}
	if !c.Mask.Contains(r.Layer) {
		return false
	}
	q := r.Material.Queue
	if q < c.QueueMin || q > c.QueueMax {
		return false
	}
	if c.ExcludeName != nil && c.ExcludeName.MatchString(r.Name) {
		return false
	}
	return HasTag(c.Tags, r.Material.Tag)
}

// HasTag reports whether tag is in the whitelist.
func HasTag(tags []scene.ShaderTag, tag scene.ShaderTag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsDegenerate reports meshes that cannot produce fragments.
func IsDegenerate(m *scene.Mesh) bool {
	if m == nil || m.TriangleCount() == 0 {
		return true
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return true
		}
	}
	return false
}

// Renderers returns the renderers in all that pass c, in input order.
func Renderers(all []*scene.Renderer, c Criteria) []*scene.Renderer {
	var out []*scene.Renderer
	for _, r := range all {
		if c.Accept(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortOpaque orders renderers by render queue, then front to back from
// eye. Ties keep their input order.
func SortOpaque(list []*scene.Renderer, eye mgl64.Vec3) {
	dist := make(map[*scene.Renderer]float64, len(list))
	for _, r := range list {
		dist[r] = r.Center().Sub(eye).Len()
	}
	sort.SliceStable(list, func(i, j int) bool {
		qi, qj := list[i].Material.Queue, list[j].Material.Queue
		if qi != qj {
			return qi < qj
		}
		return dist[list[i]] < dist[list[j]]
	})
}
