package image

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/jmylchreest/ultramarine/internal/colour"
)

// Pixels adapts an image.Image to colour.PixelSource. Alpha is ignored and
// channels are read non-premultiplied.
type Pixels struct {
	img    image.Image
	bounds image.Rectangle
}

// NewPixels wraps img. The image is read, never written.
func NewPixels(img image.Image) *Pixels {
	return &Pixels{img: img, bounds: img.Bounds()}
}

// Size implements colour.PixelSource.
func (p *Pixels) Size() (int, int) {
	return p.bounds.Dx(), p.bounds.Dy()
}

// RGBAt implements colour.PixelSource. x and y are relative to the image
// origin, not its bounds.
//
// Alpha is dropped after converting to non-premultiplied colour. Sources that
// store non-premultiplied values (NRGBA) keep the colour of a fully
// transparent pixel; premultiplied sources (RGBA, RGBA64 and most others)
// have no colour left at zero alpha and report black.
func (p *Pixels) RGBAt(x, y int) colour.RGB {
	x += p.bounds.Min.X
	y += p.bounds.Min.Y

	// Fast paths for the formats decoders usually produce.
	switch m := p.img.(type) {
	case *image.NRGBA:
		c := m.NRGBAAt(x, y)
		return colour.RGB{R: c.R, G: c.G, B: c.B}
	case *image.RGBA:
		c := m.RGBAAt(x, y)
		if c.A == 0xff {
			return colour.RGB{R: c.R, G: c.G, B: c.B}
		}
		return colour.ToRGB(c)
	case *image.YCbCr:
		return colour.ToRGB(m.YCbCrAt(x, y))
	case *image.Gray:
		g := m.GrayAt(x, y).Y
		return colour.RGB{R: g, G: g, B: g}
	}
	return colour.ToRGB(p.img.At(x, y))
}

// Downscale returns img resized so neither side exceeds maxDim, preserving
// aspect ratio. Images that already fit, or a maxDim <= 0, are returned as-is.
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(h*maxDim/w, 1)
	} else {
		nw = max(w*maxDim/h, 1)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
