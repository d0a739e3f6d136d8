// Package registry holds textures published by name for shaders to sample.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"planar-reflection/internal/gpu"
)

// ErrSlotWritten is returned when a slot is published twice in one frame.
var ErrSlotWritten = errors.New("registry: slot already published this frame")

type entry struct {
	tex   gpu.Texture
	frame uint64
}

// Registry maps slot names to the most recently published texture.
// Readers see whatever was last published.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{slots: make(map[string]entry)}
}

// Publish stores tex under name for frame. Each slot accepts one writer
// per frame.
func (r *Registry) Publish(name string, tex gpu.Texture, frame uint64) error {
	if tex == nil {
		return fmt.Errorf("registry: publish %s: nil texture", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.slots[name]; ok && e.frame == frame && e.tex != nil {
		return fmt.Errorf("%w: %s frame %d", ErrSlotWritten, name, frame)
	}
	r.slots[name] = entry{tex: tex, frame: frame}
	return nil
}

// Lookup returns the texture published under name. Released textures are
// treated as absent.
func (r *Registry) Lookup(name string) (gpu.Texture, bool) {
	r.mu.RLock()
	e, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok || e.tex == nil || e.tex.Released() {
		return nil, false
	}
	return e.tex, true
}

// Frame returns the frame the slot was last published in.
func (r *Registry) Frame(name string) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.slots[name]
	return e.frame, ok
}

// Remove drops a slot.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.slots, name)
	r.mu.Unlock()
}

// Names returns the published slot names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.slots))
	for n := range r.slots {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
