// Package raster is a CPU implementation of gpu.Device: a z-buffered
// triangle rasterizer with flat lighting, the blur shader library and
// bilinear blits.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"planar-reflection/internal/gpu"
	"planar-reflection/internal/logging"
	"planar-reflection/internal/registry"
	"planar-reflection/internal/scene"
	"planar-reflection/internal/texture"
)

// ErrInvalidCommand is returned by Submit when a command buffer fails validation.
var ErrInvalidCommand = errors.New("raster: invalid command")

// DrawEvent describes a DrawRenderers command at the moment it executes.
type DrawEvent struct {
	Frame         uint64
	Target        string
	Renderers     []string
	View          mgl64.Mat4
	Projection    mgl64.Mat4
	InvertCulling bool
}

// Options configures a Device.
type Options struct {
	Convention gpu.Convention
	// Registry receives SetGlobalTexture and feeds reflective materials.
	Registry *registry.Registry
	// Textures resolves material texture names. Optional.
	Textures texture.Resolver
	// OnDraw observes every draw. Optional.
	OnDraw func(DrawEvent)
}

// State is the shared pipeline state.
type State struct {
	View          mgl64.Mat4
	Projection    mgl64.Mat4
	InvertCulling bool
}

// Stats counts work done by the device.
type Stats struct {
	Textures  int
	Submits   int
	Draws     int
	Triangles int
	Culled    int
	Clipped   int
	Fragments int
	Blits     int
	Publishes int
}

// Device executes command buffers on the CPU.
type Device struct {
	opts Options

	mu    sync.Mutex
	state State
	color *Texture
	depth *Texture
	light LightConfig
	stats Stats
}

// NewDevice returns a device with identity view/projection.
func NewDevice(opts Options) *Device {
	d := &Device{opts: opts}
	d.state.View = mgl64.Ident4()
	d.state.Projection = mgl64.Ident4()
	return d
}

// Convention implements gpu.Device.
func (d *Device) Convention() gpu.Convention { return d.opts.Convention }

// Registry returns the published texture registry.
func (d *Device) Registry() *registry.Registry { return d.opts.Registry }

// SetLight replaces the light used by forward materials.
func (d *Device) SetLight(lc LightConfig) {
	d.mu.Lock()
	d.light = lc
	d.mu.Unlock()
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.stats.Textures++
	d.mu.Unlock()
	return newTexture(desc), nil
}

// CreateMaterial implements gpu.Device.
func (d *Device) CreateMaterial(shader string) (gpu.Material, error) {
	return newMaterial(shader)
}

// State returns the current pipeline state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Stats returns a snapshot of the counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Submit validates cb and executes it in order. A cancelled ctx or an
// invalid buffer executes nothing. Pipeline state and bound targets only
// change through buffers that execute completely: a command that fails or
// panics rolls them back to their values before the submit.
func (d *Device) Submit(ctx context.Context, cb *gpu.CommandBuffer) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("raster: submit %s: %w", cb.Name, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.validate(cb); err != nil {
		return err
	}
	d.stats.Submits++
	if d.light.InvGamma == 0 {
		d.light = NewLightConfig(scene.DefaultLight())
	}

	saved, boundColor, boundDepth := d.state, d.color, d.depth
	completed := false
	defer func() {
		if !completed {
			d.state, d.color, d.depth = saved, boundColor, boundDepth
		}
	}()

	log := logging.L().Named("raster")
	for i, c := range cb.Commands() {
		if err := d.exec(cb, c); err != nil {
			return fmt.Errorf("raster: %s command %d (%s): %w", cb.Name, i, c.Op, err)
		}
	}
	completed = true
	log.Debug("submitted", zap.String("buffer", cb.Name), zap.Uint64("frame", cb.Frame), zap.Int("commands", cb.Len()))
	return nil
}

func invalid(i int, op gpu.Op, format string, args ...any) error {
	return fmt.Errorf("%w: command %d (%s): %s", ErrInvalidCommand, i, op, fmt.Sprintf(format, args...))
}

func asTexture(t gpu.Texture) (*Texture, error) {
	if t == nil {
		return nil, errors.New("nil texture")
	}
	rt, ok := t.(*Texture)
	if !ok {
		return nil, fmt.Errorf("texture %s not created by this device", t.Name())
	}
	if rt.Released() {
		return nil, fmt.Errorf("%s: %w", rt.Name(), gpu.ErrReleased)
	}
	return rt, nil
}

// validate checks every command before anything executes so a bad buffer
// leaves targets and the registry untouched.
func (d *Device) validate(cb *gpu.CommandBuffer) error {
	bound := d.color != nil && !d.color.Released()
	var samples []string
	for i, c := range cb.Commands() {
		switch c.Op {
		case gpu.OpSetRenderTarget:
			col, err := asTexture(c.Color)
			if err != nil {
				return invalid(i, c.Op, "color: %v", err)
			}
			if col.desc.IsDepth() {
				return invalid(i, c.Op, "color attachment %s is a depth texture", col.Name())
			}
			if c.Depth != nil {
				dep, err := asTexture(c.Depth)
				if err != nil {
					return invalid(i, c.Op, "depth: %v", err)
				}
				if !dep.desc.IsDepth() {
					return invalid(i, c.Op, "depth attachment %s has no depth bits", dep.Name())
				}
				if dep.Width() != col.Width() || dep.Height() != col.Height() {
					return invalid(i, c.Op, "attachment sizes differ")
				}
			}
			bound = true
		case gpu.OpClear, gpu.OpDrawRenderers:
			if !bound {
				return invalid(i, c.Op, "no render target bound")
			}
		case gpu.OpBlit:
			src, err := asTexture(c.Src)
			if err != nil {
				return invalid(i, c.Op, "source: %v", err)
			}
			dst, err := asTexture(c.Dst)
			if err != nil {
				return invalid(i, c.Op, "destination: %v", err)
			}
			if src.desc.IsDepth() || dst.desc.IsDepth() {
				return invalid(i, c.Op, "depth textures cannot be blitted")
			}
			if c.Material != nil {
				m, ok := c.Material.(*Material)
				if !ok {
					return invalid(i, c.Op, "material not created by this device")
				}
				if c.Pass < 0 || c.Pass >= m.PassCount() {
					return invalid(i, c.Op, "pass %d out of range for %s", c.Pass, m.Shader())
				}
			}
		case gpu.OpSetGlobalTexture:
			if _, err := asTexture(c.Src); err != nil {
				return invalid(i, c.Op, "%v", err)
			}
			if d.opts.Registry == nil {
				return invalid(i, c.Op, "device has no registry")
			}
		case gpu.OpBeginSample:
			samples = append(samples, c.Name)
		case gpu.OpEndSample:
			if len(samples) == 0 || samples[len(samples)-1] != c.Name {
				return invalid(i, c.Op, "unbalanced sample %q", c.Name)
			}
			samples = samples[:len(samples)-1]
		}
	}
	if len(samples) > 0 {
		return fmt.Errorf("%w: sample %q never ended", ErrInvalidCommand, samples[len(samples)-1])
	}
	return nil
}

func (d *Device) exec(cb *gpu.CommandBuffer, c gpu.Command) error {
	switch c.Op {
	case gpu.OpSetRenderTarget:
		d.color = c.Color.(*Texture)
		d.depth = nil
		if c.Depth != nil {
			d.depth = c.Depth.(*Texture)
		}

	case gpu.OpClear:
		s := d.surface()
		if c.ClearFlags&gpu.ClearColor != 0 {
			draw.Draw(s.color, s.color.Bounds(), image.NewUniform(c.ClearColor), image.Point{}, draw.Src)
		}
		if c.ClearFlags&gpu.ClearDepth != 0 && s.depth != nil {
			far := s.farDepth()
			for i := range s.depth {
				s.depth[i] = far
			}
		}

	case gpu.OpSetViewProjection:
		d.state.View = c.View
		d.state.Projection = c.Projection

	case gpu.OpSetInvertCulling:
		d.state.InvertCulling = c.Invert

	case gpu.OpDrawRenderers:
		d.stats.Draws++
		if d.opts.OnDraw != nil {
			names := make([]string, len(c.Renderers))
			for i, r := range c.Renderers {
				names[i] = r.Name
			}
			d.opts.OnDraw(DrawEvent{
				Frame:         cb.Frame,
				Target:        d.color.Name(),
				Renderers:     names,
				View:          d.state.View,
				Projection:    d.state.Projection,
				InvertCulling: d.state.InvertCulling,
			})
		}
		s := d.surface()
		lc := &d.light
		if c.Draw.Light.Direction.Len() > 0 {
			l := NewLightConfig(c.Draw.Light)
			lc = &l
		}
		var counts drawCounts
		for _, r := range c.Renderers {
			if !passAccepts(c.Draw.Tags, r) {
				continue
			}
			d.drawRenderer(s, r, lc, &counts)
		}
		d.stats.Triangles += counts.triangles
		d.stats.Culled += counts.culled
		d.stats.Clipped += counts.clipped
		d.stats.Fragments += counts.fragments

	case gpu.OpBlit:
		src, dst := c.Src.(*Texture), c.Dst.(*Texture)
		d.stats.Blits++
		if c.Material == nil {
			draw.BiLinear.Scale(dst.color, dst.color.Bounds(), src.color, src.color.Bounds(), draw.Src, nil)
			return nil
		}
		m := c.Material.(*Material)
		m.passes[c.Pass](dst.color, src.color, m)

	case gpu.OpSetGlobalTexture:
		if err := d.opts.Registry.Publish(c.Name, c.Src, cb.Frame); err != nil {
			return err
		}
		d.stats.Publishes++

	case gpu.OpBeginSample, gpu.OpEndSample:
		// Timing is recorded by the profiling scope on the CPU side.
	}
	return nil
}

// passAccepts reports whether r has a shader pass among tags. An empty
// list accepts every renderer.
func passAccepts(tags []scene.ShaderTag, r *scene.Renderer) bool {
	if len(tags) == 0 {
		return true
	}
	if r == nil || r.Material == nil {
		return false
	}
	for _, t := range tags {
		if r.Material.Tag == t {
			return true
		}
	}
	return false
}

func (d *Device) surface() *surface {
	s := &surface{
		color: d.color.color,
		w:     d.color.Width(),
		h:     d.color.Height(),
		conv:  d.opts.Convention,
	}
	if d.depth != nil {
		s.depth = d.depth.depth
	}
	return s
}
