package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"planar-reflection/internal/scene"
)

// LightConfig holds precomputed lighting parameters.
type LightConfig struct {
	LightDir mgl64.Vec3
	Color    [3]float64 // linear
	Ambient  float64
	Hemi     float64
	Direct   float64
	InvGamma float64
}

// NewLightConfig derives lighting from a scene light.
func NewLightConfig(l scene.Light) LightConfig {
	dir := l.Direction
	if dir.Len() < 1e-9 {
		dir = scene.DefaultLight().Direction
	}
	return LightConfig{
		LightDir: dir.Normalize(),
		Color: [3]float64{
			srgbToLinear[l.Color.R],
			srgbToLinear[l.Color.G],
			srgbToLinear[l.Color.B],
		},
		Ambient:  l.Ambient,
		Hemi:     0.15,
		Direct:   1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// ComputeShade returns the lighting scalar for a world-space face normal.
func (lc *LightConfig) ComputeShade(normal mgl64.Vec3) float64 {
	ndl := normal.Dot(lc.LightDir)
	if ndl < 0 {
		ndl = 0
	}
	// Hemisphere fill: up-facing surfaces get a little more sky.
	hemi := (normal.Y()*0.5 + 0.5) * lc.Hemi
	return lc.Ambient + hemi + ndl*lc.Direct
}

// Shade lights an sRGB colour and returns it in sRGB.
func (lc *LightConfig) Shade(r, g, b uint8, shade float64) (uint8, uint8, uint8) {
	lr := srgbToLinear[r] * shade * lc.Color[0]
	lg := srgbToLinear[g] * shade * lc.Color[1]
	lb := srgbToLinear[b] * shade * lc.Color[2]
	return clamp255(math.Pow(math.Min(lr, 1), lc.InvGamma) * 255),
		clamp255(math.Pow(math.Min(lg, 1), lc.InvGamma) * 255),
		clamp255(math.Pow(math.Min(lb, 1), lc.InvGamma) * 255)
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}
