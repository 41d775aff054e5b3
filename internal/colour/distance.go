package colour

import "math"

// PaletteDistance compares two palettes in Lab space. It is the mean, over
// both directions, of the distance from each colour to its nearest
// counterpart in the other palette. Identical palettes score 0; order does
// not matter. An empty palette is infinitely far from everything.
func PaletteDistance(a, b []Lab) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	return (meanNearest(a, b) + meanNearest(b, a)) / 2
}

func meanNearest(from, to []Lab) float64 {
	total := 0.0
	for _, c := range from {
		best := math.MaxFloat64
		for _, o := range to {
			if d := c.DistanceSquared(o); d < best {
				best = d
			}
		}
		total += math.Sqrt(best)
	}
	return total / float64(len(from))
}
