package colour

import "math"

// DefaultMaxPasses caps the number of refinement passes.
const DefaultMaxPasses = 100

// Refinement is the outcome of Refine.
type Refinement struct {
	Seeds []Seed
	// Passes is the number of assignment/update passes that ran.
	Passes int
	// Converged is true when a pass left every assignment unchanged.
	// False means the pass cap was hit and Seeds hold the last update.
	Converged bool
}

// Refine runs weighted Lloyd's algorithm over the non-empty histogram bins,
// each treated as a point at its mean Lab colour with the bin's pixel count
// as weight.
//
// Every pass assigns each bin to its nearest seed (the lowest index wins
// ties) and moves each seed to the weighted mean of its bins. A seed that
// receives no bins collapses to the zero Lab vector. Refinement stops when no
// assignment changes or after maxPasses passes; maxPasses <= 0 selects
// DefaultMaxPasses. The input slice is not modified.
func Refine(h *Histogram, seeds []Seed, maxPasses int) (Refinement, error) {
	if len(seeds) == 0 {
		return Refinement{}, ErrNoSeeds
	}
	if h == nil {
		return Refinement{}, ErrInvalidState
	}
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	current := make([]Seed, len(seeds))
	copy(current, seeds)

	points := binPoints(h)
	assignments := make([]int, len(points))
	sums := make([]Lab, len(current))

	result := Refinement{}
	for result.Passes < maxPasses {
		result.Passes++
		stable := true

		clear(sums)
		for i := range current {
			current[i].Weight = 0
		}

		for i, p := range points {
			nearest := nearestSeed(current, p.mean)
			// The first pass always counts as a change unless every bin
			// already belongs to seed 0.
			if nearest != assignments[i] {
				stable = false
			}
			assignments[i] = nearest
			sums[nearest] = sums[nearest].Add(p.sum)
			current[nearest].Weight += p.weight
		}

		for i := range current {
			if current[i].Weight == 0 {
				current[i].Colour = Lab{}
				continue
			}
			current[i].Colour = sums[i].Scale(1 / float64(current[i].Weight))
		}

		if stable {
			result.Converged = true
			break
		}
	}

	result.Seeds = current
	return result, nil
}

type binPoint struct {
	mean   Lab
	sum    Lab
	weight int
}

// binPoints lists the non-empty bins in index order.
func binPoints(h *Histogram) []binPoint {
	points := make([]binPoint, 0, h.NonEmpty())
	for i := range h.Bins {
		b := h.Bins[i]
		if b.Empty() {
			continue
		}
		points = append(points, binPoint{mean: b.Mean(), sum: b.LabSum, weight: b.Weight})
	}
	return points
}

// nearestSeed returns the index of the seed closest to c. The first index
// wins ties.
func nearestSeed(seeds []Seed, c Lab) int {
	best := math.MaxFloat64
	index := 0
	for i, s := range seeds {
		if d := s.Colour.DistanceSquared(c); d < best {
			best = d
			index = i
		}
	}
	return index
}
