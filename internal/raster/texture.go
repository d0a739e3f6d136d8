package raster

import (
	"image"
	"math"
	"sync/atomic"

	"planar-reflection/internal/gpu"
)

// Texture is a CPU render target. Color targets store premultiplied RGBA;
// depth targets store one float per pixel.
type Texture struct {
	desc     gpu.TextureDescriptor
	color    *image.RGBA
	depth    []float32
	released atomic.Bool
}

func newTexture(desc gpu.TextureDescriptor) *Texture {
	t := &Texture{desc: desc}
	if desc.IsDepth() {
		t.depth = make([]float32, desc.Width*desc.Height)
	} else {
		t.color = image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	}
	return t
}

func (t *Texture) Name() string                      { return t.desc.Name }
func (t *Texture) Width() int                        { return t.desc.Width }
func (t *Texture) Height() int                       { return t.desc.Height }
func (t *Texture) Descriptor() gpu.TextureDescriptor { return t.desc }
func (t *Texture) Released() bool                    { return t.released.Load() }

// Release drops the pixel storage.
func (t *Texture) Release() {
	if t.released.Swap(true) {
		return
	}
	t.color = nil
	t.depth = nil
}

// Image returns the color storage, or nil for depth or released textures.
func (t *Texture) Image() *image.RGBA {
	if t.Released() {
		return nil
	}
	return t.color
}

// Depth returns the depth storage, or nil for color or released textures.
func (t *Texture) Depth() []float32 {
	if t.Released() {
		return nil
	}
	return t.depth
}

// Snapshot copies the color storage as a non-premultiplied image.
func (t *Texture) Snapshot() *image.NRGBA {
	img := t.Image()
	if img == nil {
		return nil
	}
	out := image.NewNRGBA(img.Bounds())
	for i := 0; i < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		out.Pix[i+3] = a
		if a == 0 {
			continue
		}
		if a == 255 {
			copy(out.Pix[i:i+3], img.Pix[i:i+3])
			continue
		}
		fa := float64(a)
		out.Pix[i] = clamp255(float64(img.Pix[i]) * 255 / fa)
		out.Pix[i+1] = clamp255(float64(img.Pix[i+1]) * 255 / fa)
		out.Pix[i+2] = clamp255(float64(img.Pix[i+2]) * 255 / fa)
	}
	return out
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}
