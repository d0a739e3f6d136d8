package postprocess

import "image"

// FlipVertical returns a copy of img mirrored top to bottom. Frames rendered
// with a Y-flipped projection are stored upside down and need this before
// they are written out.
func FlipVertical(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Max.Y-1-y):]
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], src[:w*4])
	}
	return out
}
