package colour

import "math"

// SeparationCoefficient controls how strongly bins near a chosen seed are
// attenuated. Photos tolerate values from roughly 900 to 6400.
const SeparationCoefficient = 3650.0

// Seed is a cluster centre in Lab space and the weight assigned to it.
type Seed struct {
	Colour Lab
	Weight int
}

// SelectSeeds picks up to k initial centres from the histogram.
//
// Each round takes the heaviest remaining bin as a seed, removes it, and
// attenuates every other bin by 1-exp(-d²/SeparationCoefficient) where d is
// the Lab distance to the new seed. Selection stops early once every
// remaining weight is zero, so fewer than k seeds come back for images with
// few distinct colours. The result is deterministic.
func SelectSeeds(h *Histogram, k int) []Seed {
	if h == nil || k <= 0 {
		return nil
	}

	// Bin means are fixed for the whole selection.
	var means [HistogramSize]Lab
	weights := make([]float64, HistogramSize)
	for i := range h.Bins {
		if h.Bins[i].Empty() {
			continue
		}
		means[i] = h.Bins[i].Mean()
		weights[i] = float64(h.Bins[i].Weight)
	}

	seeds := make([]Seed, 0, k)
	for range k {
		idx := heaviestIndex(weights)
		if weights[idx] == 0 {
			break
		}

		seed := means[idx]
		seeds = append(seeds, Seed{Colour: seed})
		weights[idx] = 0

		attenuate(h, weights, &means, seed)
	}
	return seeds
}

// heaviestIndex returns the index of the largest weight. The first index
// wins ties.
func heaviestIndex(weights []float64) int {
	heaviest := 0.0
	index := 0
	for i, w := range weights {
		if w > heaviest {
			heaviest = w
			index = i
		}
	}
	return index
}

func attenuate(h *Histogram, weights []float64, means *[HistogramSize]Lab, seed Lab) {
	for i := range h.Bins {
		if h.Bins[i].Empty() {
			continue
		}
		d2 := seed.DistanceSquared(means[i])
		weights[i] *= 1 - math.Exp(-d2/SeparationCoefficient)
	}
}
