package colour

import "fmt"

// MaxPaletteSize is the largest palette an extractor will produce.
const MaxPaletteSize = 256

// Extractor defines the interface for palette extraction.
type Extractor interface {
	// Extract extracts a palette of at most count colours from src.
	Extract(src PixelSource, count int) (*Palette, error)
}

// ExtractorConfig holds configuration for colour extraction.
type ExtractorConfig struct {
	// PaletteSize is the default number of colours when Extract is called
	// with a count of zero.
	PaletteSize int
	// MaxPasses caps refinement; zero selects DefaultMaxPasses.
	MaxPasses int
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		PaletteSize: 5,
		MaxPasses:   DefaultMaxPasses,
	}
}

// Validate validates the extractor configuration.
func (c ExtractorConfig) Validate() error {
	if c.PaletteSize < 1 {
		return fmt.Errorf("palette size must be at least 1, got %d", c.PaletteSize)
	}
	if c.PaletteSize > MaxPaletteSize {
		return fmt.Errorf("palette size too large: %d (maximum: %d)", c.PaletteSize, MaxPaletteSize)
	}
	if c.MaxPasses < 0 {
		return fmt.Errorf("max passes cannot be negative, got %d", c.MaxPasses)
	}
	return nil
}

// LabExtractor extracts palettes by clustering a Lab colour histogram.
// It holds no per-image state and is safe for concurrent use.
type LabExtractor struct {
	config ExtractorConfig
}

// NewLabExtractor creates a LabExtractor with the given configuration.
func NewLabExtractor(config ExtractorConfig) (*LabExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &LabExtractor{config: config}, nil
}

// Config returns the extractor configuration.
func (e *LabExtractor) Config() ExtractorConfig {
	return e.config
}

// Extract builds a histogram of src, selects seeds, refines them and returns
// the centroids as RGB in seed-creation order. A count of zero uses the
// configured palette size.
//
// Seeds that end refinement with no weight are kept as (near) black entries
// with a zero weight; use Palette.Dominant to drop them.
func (e *LabExtractor) Extract(src PixelSource, count int) (*Palette, error) {
	if count == 0 {
		count = e.config.PaletteSize
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: palette size must be at least 1, got %d", ErrInvalidState, count)
	}
	if count > MaxPaletteSize {
		return nil, fmt.Errorf("%w: palette size too large: %d (maximum: %d)", ErrInvalidState, count, MaxPaletteSize)
	}

	hist, err := BuildHistogram(src)
	if err != nil {
		return nil, err
	}

	seeds := SelectSeeds(hist, count)
	refined, err := Refine(hist, seeds, e.config.MaxPasses)
	if err != nil {
		return nil, fmt.Errorf("failed to refine palette (%d pixels): %w", hist.Pixels, err)
	}

	return paletteFromSeeds(refined), nil
}

func paletteFromSeeds(r Refinement) *Palette {
	p := &Palette{
		Colours:   make([]RGB, len(r.Seeds)),
		Weights:   make([]int, len(r.Seeds)),
		Centroids: make([]Lab, len(r.Seeds)),
		Passes:    r.Passes,
		Converged: r.Converged,
	}
	for i, s := range r.Seeds {
		p.Colours[i] = LabToRGB(s.Colour)
		p.Weights[i] = s.Weight
		p.Centroids[i] = s.Colour
	}
	return p
}

// Extract extracts a palette of at most count colours using the default
// refinement settings. A count below 1 requests no seeds and fails with
// ErrNoSeeds.
func Extract(src PixelSource, count int) (*Palette, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: palette size %d", ErrNoSeeds, count)
	}
	e := &LabExtractor{config: DefaultExtractorConfig()}
	return e.Extract(src, count)
}
