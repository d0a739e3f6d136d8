// Package target owns the render targets of one reflection session: the
// color and depth targets and the blur pyramid.
package target

import (
	"fmt"

	"go.uber.org/zap"

	"planar-reflection/internal/gpu"
	"planar-reflection/internal/logging"
	"planar-reflection/internal/mathutil"
)

// ReflectionSize returns the reflection target size for a base resolution
// and an integer divisor, never below 1×1.
func ReflectionSize(baseW, baseH, divisor int) (int, int) {
	if divisor < 1 {
		divisor = 1
	}
	return max(1, baseW/divisor), max(1, baseH/divisor)
}

// ColorDescriptor returns the primary color target descriptor.
func ColorDescriptor(name string, baseW, baseH, divisor int) gpu.TextureDescriptor {
	w, h := ReflectionSize(baseW, baseH, divisor)
	return gpu.ColorDescriptor(name, w, h)
}

// DepthDescriptor returns the depth target descriptor matching ColorDescriptor.
func DepthDescriptor(name string, baseW, baseH, divisor int) gpu.TextureDescriptor {
	w, h := ReflectionSize(baseW, baseH, divisor)
	return gpu.DepthDescriptor(name+"_depth", w, h)
}

// DownName and UpName name pyramid level i.
func DownName(i int) string { return fmt.Sprintf("rtDownSample_%d", i) }
func UpName(i int) string   { return fmt.Sprintf("rtUpSample_%d", i) }

// PyramidDescriptors returns the down and up level descriptors for a
// source of baseW×baseH. Level i is base >> (i+1) per axis with a 1×1
// floor; both slices have exactly iterations entries.
func PyramidDescriptors(baseW, baseH, iterations int) (down, up []gpu.TextureDescriptor) {
	if iterations < 0 {
		iterations = 0
	}
	down = make([]gpu.TextureDescriptor, iterations)
	up = make([]gpu.TextureDescriptor, iterations)
	for i := 0; i < iterations; i++ {
		w := mathutil.HalveDim(baseW, i+1)
		h := mathutil.HalveDim(baseH, i+1)
		down[i] = gpu.ColorDescriptor(DownName(i), w, h)
		up[i] = gpu.ColorDescriptor(UpName(i), w, h)
	}
	return down, up
}

// Pyramid is the allocated blur chain.
type Pyramid struct {
	Down []gpu.Texture
	Up   []gpu.Texture
}

// Levels returns the pyramid depth.
func (p Pyramid) Levels() int {
	return len(p.Down)
}

// Manager allocates targets lazily by slot name and reuses them until the
// descriptor changes. A Manager is owned by one session and is not safe
// for concurrent use.
type Manager struct {
	dev    gpu.Device
	slots  map[string]gpu.Texture
	order  []string
	allocs int

	levels int
}

// NewManager returns a manager allocating from dev.
func NewManager(dev gpu.Device) *Manager {
	return &Manager{
		dev:   dev,
		slots: make(map[string]gpu.Texture),
	}
}

// Ensure returns the texture for desc.Name, allocating it when the slot is
// empty, released, or holds a different descriptor. A failed reallocation
// leaves the previous texture in place.
func (m *Manager) Ensure(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if tex, ok := m.slots[desc.Name]; ok && !tex.Released() && tex.Descriptor() == desc {
		return tex, nil
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	// The old texture stays live until its replacement exists.
	tex, err := m.dev.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("target: allocate %s %dx%d: %w", desc.Name, desc.Width, desc.Height, err)
	}
	m.Release(desc.Name)
	m.slots[desc.Name] = tex
	m.order = append(m.order, desc.Name)
	m.allocs++
	logging.L().Named("target").Debug("allocated",
		zap.String("name", desc.Name),
		zap.Int("width", desc.Width),
		zap.Int("height", desc.Height))
	return tex, nil
}

// Get returns the live texture in slot name.
func (m *Manager) Get(name string) (gpu.Texture, bool) {
	tex, ok := m.slots[name]
	if !ok || tex.Released() {
		return nil, false
	}
	return tex, true
}

// Release frees slot name. Empty or released slots are ignored.
func (m *Manager) Release(name string) {
	tex, ok := m.slots[name]
	if !ok {
		return
	}
	delete(m.slots, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if tex != nil {
		tex.Release()
	}
}

// EnsurePyramid allocates iterations levels for a baseW×baseH source and
// frees levels beyond iterations. On failure every level is released.
func (m *Manager) EnsurePyramid(baseW, baseH, iterations int) (Pyramid, error) {
	down, up := PyramidDescriptors(baseW, baseH, iterations)
	for i := iterations; i < m.levels; i++ {
		m.Release(DownName(i))
		m.Release(UpName(i))
	}
	m.levels = iterations

	p := Pyramid{
		Down: make([]gpu.Texture, iterations),
		Up:   make([]gpu.Texture, iterations),
	}
	for i := 0; i < iterations; i++ {
		d, err := m.Ensure(down[i])
		if err != nil {
			m.ReleasePyramid()
			return Pyramid{}, err
		}
		u, err := m.Ensure(up[i])
		if err != nil {
			m.ReleasePyramid()
			return Pyramid{}, err
		}
		p.Down[i], p.Up[i] = d, u
	}
	return p, nil
}

// ReleasePyramid frees every pyramid level.
func (m *Manager) ReleasePyramid() {
	for i := 0; i < m.levels; i++ {
		m.Release(DownName(i))
		m.Release(UpName(i))
	}
	m.levels = 0
}

// ReleaseAll frees every slot. Safe to call repeatedly.
func (m *Manager) ReleaseAll() {
	names := append([]string(nil), m.order...)
	for _, n := range names {
		m.Release(n)
	}
	m.levels = 0
}

// Allocations returns how many textures the manager has created.
func (m *Manager) Allocations() int {
	return m.allocs
}

// Live returns the names of allocated slots in allocation order.
func (m *Manager) Live() []string {
	return append([]string(nil), m.order...)
}
