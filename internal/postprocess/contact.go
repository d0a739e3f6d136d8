package postprocess

import (
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// Panel is one labelled image on a contact sheet.
type Panel struct {
	Label string
	Image image.Image
}

const (
	sheetPad    = 8
	sheetLabelH = 18
)

// ContactSheet lays panels out left to right, each scaled with nearest
// neighbour to cell pixels high so small pyramid levels stay readable,
// with its label underneath.
func ContactSheet(panels []Panel, cell int) image.Image {
	if cell < 1 {
		cell = 1
	}
	scaled := make([]*image.RGBA, 0, len(panels))
	width := sheetPad
	for _, p := range panels {
		b := p.Image.Bounds()
		w := 1
		if b.Dy() > 0 {
			w = max(1, b.Dx()*cell/b.Dy())
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, cell))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), p.Image, b, draw.Src, nil)
		scaled = append(scaled, dst)
		width += w + sheetPad
	}
	height := cell + 2*sheetPad + sheetLabelH

	dc := gg.NewContext(width, height)
	dc.SetRGB(0.12, 0.12, 0.12)
	dc.Clear()

	x := sheetPad
	for i, img := range scaled {
		w := img.Bounds().Dx()
		dc.DrawImage(img, x, sheetPad)

		dc.SetRGB(0.4, 0.4, 0.4)
		dc.SetLineWidth(1)
		dc.DrawRectangle(float64(x)-0.5, float64(sheetPad)-0.5, float64(w)+1, float64(cell)+1)
		dc.Stroke()

		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(panels[i].Label, float64(x)+float64(w)/2, float64(sheetPad+cell)+float64(sheetLabelH)/2+sheetPad/2, 0.5, 0.5)
		x += w + sheetPad
	}
	return dc.Image()
}
