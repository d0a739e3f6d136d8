// Package mathutil holds small numeric helpers shared by the render packages.
// Vector and matrix types come from mgl64.
package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HalveDim returns dim halved levels times, never below 1.
func HalveDim(dim, levels int) int {
	if levels < 0 {
		levels = 0
	}
	if levels >= 63 {
		return 1
	}
	v := dim >> uint(levels)
	if v < 1 {
		return 1
	}
	return v
}

// ClampInt restricts v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TransformPoint applies m to p with w=1 and divides by w.
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	if w := v.W(); w != 0 && w != 1 {
		return v.Vec3().Mul(1 / w)
	}
	return v.Vec3()
}

// TransformDir applies the linear part of m to d.
func TransformDir(m mgl64.Mat4, d mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// WrapDegrees maps a to [0, 360).
func WrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
