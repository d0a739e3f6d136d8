package pass

import (
	"planar-reflection/internal/gpu"
)

// OffsetProperty is the blur material float controlling the upsample
// kernel spread.
const OffsetProperty = "_Offset"

// recordBlur records the downsample chain, the seed copy and the upsample
// chain over the session's pyramid and returns the top upsample level.
// The pyramid must have at least one level.
func (f *Feature) recordBlur(cb *gpu.CommandBuffer, sess *Session) gpu.Texture {
	scope := f.blurSampler.Begin(cb)
	defer scope.End()

	p := sess.pyramid
	n := p.Levels()

	src := sess.color
	for i := 0; i < n; i++ {
		cb.Blit(src, p.Down[i], f.blur, 0)
		src = p.Down[i]
	}

	cb.Blit(p.Down[n-1], p.Up[n-1], nil, 0)

	f.blur.SetFloat(OffsetProperty, sess.settings.Offset)
	for i := n - 1; i > 0; i-- {
		cb.Blit(p.Up[i], p.Up[i-1], f.blur, 1)
	}
	return p.Up[0]
}
