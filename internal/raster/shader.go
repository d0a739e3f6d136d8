package raster

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"planar-reflection/internal/gpu"
)

// ErrUnknownShader is returned by CreateMaterial for shaders outside the library.
var ErrUnknownShader = errors.New("raster: unknown shader")

// BlurShader is the dual-filter blur used by the reflection pyramid.
const BlurShader = gpu.ReflectionBlurShader

// kernel renders src into every pixel of dst.
type kernel func(dst, src *image.RGBA, m *Material)

var shaderLibrary = map[string][]kernel{
	BlurShader: {dualDownsample, tentUpsample},
}

// Shaders returns the names of the built-in shaders.
func Shaders() []string {
	names := make([]string, 0, len(shaderLibrary))
	for n := range shaderLibrary {
		names = append(names, n)
	}
	return names
}

// Material is a shader instance with float parameters.
type Material struct {
	shader string
	passes []kernel

	mu     sync.RWMutex
	floats map[string]float64
}

func newMaterial(shader string) (*Material, error) {
	passes, ok := shaderLibrary[shader]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShader, shader)
	}
	return &Material{shader: shader, passes: passes, floats: make(map[string]float64)}, nil
}

func (m *Material) Shader() string { return m.shader }
func (m *Material) PassCount() int { return len(m.passes) }

func (m *Material) SetFloat(name string, v float64) {
	m.mu.Lock()
	m.floats[name] = v
	m.mu.Unlock()
}

func (m *Material) Float(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.floats[name]
}

// dualDownsample weights the centre four times and four diagonal taps
// half a source texel away once each.
func dualDownsample(dst, src *image.RGBA, _ *Material) {
	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()
	hx := 0.5 / float64(src.Rect.Dx())
	hy := 0.5 / float64(src.Rect.Dy())

	for y := 0; y < dh; y++ {
		v := (float64(y) + 0.5) / float64(dh)
		for x := 0; x < dw; x++ {
			u := (float64(x) + 0.5) / float64(dw)

			var sum [4]float64
			accumulate(&sum, sampleClamp(src, u, v), 4)
			accumulate(&sum, sampleClamp(src, u-hx, v-hy), 1)
			accumulate(&sum, sampleClamp(src, u+hx, v+hy), 1)
			accumulate(&sum, sampleClamp(src, u+hx, v-hy), 1)
			accumulate(&sum, sampleClamp(src, u-hx, v+hy), 1)
			store(dst, x, y, sum, 1.0/8)
		}
	}
}

// tentUpsample samples eight taps at (1+_Offset) half texels: the four
// axis taps at twice that distance weigh 1, the diagonals weigh 2.
func tentUpsample(dst, src *image.RGBA, m *Material) {
	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()
	spread := 1 + m.Float("_Offset")
	hx := spread * 0.5 / float64(src.Rect.Dx())
	hy := spread * 0.5 / float64(src.Rect.Dy())

	for y := 0; y < dh; y++ {
		v := (float64(y) + 0.5) / float64(dh)
		for x := 0; x < dw; x++ {
			u := (float64(x) + 0.5) / float64(dw)

			var sum [4]float64
			accumulate(&sum, sampleClamp(src, u-2*hx, v), 1)
			accumulate(&sum, sampleClamp(src, u+2*hx, v), 1)
			accumulate(&sum, sampleClamp(src, u, v-2*hy), 1)
			accumulate(&sum, sampleClamp(src, u, v+2*hy), 1)
			accumulate(&sum, sampleClamp(src, u-hx, v+hy), 2)
			accumulate(&sum, sampleClamp(src, u+hx, v+hy), 2)
			accumulate(&sum, sampleClamp(src, u+hx, v-hy), 2)
			accumulate(&sum, sampleClamp(src, u-hx, v-hy), 2)
			store(dst, x, y, sum, 1.0/12)
		}
	}
}

func accumulate(sum *[4]float64, s [4]float64, w float64) {
	for c := 0; c < 4; c++ {
		sum[c] += s[c] * w
	}
}

func store(dst *image.RGBA, x, y int, sum [4]float64, scale float64) {
	i := dst.PixOffset(x, y)
	a := clamp255(sum[3] * scale)
	dst.Pix[i+3] = a
	// Premultiplied channels never exceed alpha.
	for c := 0; c < 3; c++ {
		v := clamp255(sum[c] * scale)
		if v > a {
			v = a
		}
		dst.Pix[i+c] = v
	}
}
