package colour

import "fmt"

// HistogramSize is the number of bins: one per 16x16x16 cube of RGB space.
const HistogramSize = 4096

// PixelSource is a read-only, addressable grid of 8-bit RGB pixels.
// Coordinates run from (0, 0) to (width-1, height-1).
type PixelSource interface {
	Size() (width, height int)
	RGBAt(x, y int) RGB
}

// Bin aggregates every pixel that falls into one quantised RGB cube.
type Bin struct {
	// LabSum is the component-wise sum of the Lab values of all pixels in the bin.
	LabSum Lab
	// Weight is the number of pixels in the bin.
	Weight int
}

// Empty reports whether no pixel fell into the bin.
func (b Bin) Empty() bool {
	return b.Weight == 0
}

// Mean returns the average Lab colour of the bin, or the zero value if it is empty.
func (b Bin) Mean() Lab {
	if b.Weight == 0 {
		return Lab{}
	}
	return b.LabSum.Scale(1 / float64(b.Weight))
}

// Histogram is a dense, fixed-size colour histogram over Lab sums.
type Histogram struct {
	Bins [HistogramSize]Bin
	// Pixels is the total number of pixels accumulated.
	Pixels int
}

// BinIndex returns the histogram bin for an RGB colour.
func BinIndex(c RGB) int {
	return int(c.R>>4)<<8 | int(c.G>>4)<<4 | int(c.B>>4)
}

// BuildHistogram reads every pixel of src exactly once and accumulates it
// into its bin. Pixels are visited column by column (x outer, y inner), which
// fixes the floating-point summation order of each bin's LabSum.
func BuildHistogram(src PixelSource) (*Histogram, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil pixel source", ErrInvalidState)
	}
	width, height := src.Size()
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: invalid image size %dx%d", ErrInvalidState, width, height)
	}

	h := &Histogram{}
	// Identical neighbouring pixels are common; reuse the last conversion.
	var (
		last    RGB
		lastLab Lab
		primed  bool
	)
	for x := range width {
		for y := range height {
			c := src.RGBAt(x, y)
			if !primed || c != last {
				last, lastLab, primed = c, RGBToLab(c), true
			}
			bin := &h.Bins[BinIndex(c)]
			bin.LabSum = bin.LabSum.Add(lastLab)
			bin.Weight++
		}
	}
	h.Pixels = width * height
	return h, nil
}

// NonEmpty returns the number of bins holding at least one pixel.
func (h *Histogram) NonEmpty() int {
	n := 0
	for i := range h.Bins {
		if !h.Bins[i].Empty() {
			n++
		}
	}
	return n
}
