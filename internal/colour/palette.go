package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// TextSeparator joins hex triples in the compact palette text form.
const TextSeparator = "-"

// RGB represents a colour in 8-bit sRGB.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// RGBA implements color.Color with full opacity.
func (rgb RGB) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}.RGBA()
}

// ToRGB converts a color.Color to RGB, dropping alpha without premultiplication.
func ToRGB(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// ParseHex parses "#1a2b3c" or "1a2b3c".
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid hex colour %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Palette is an ordered set of colours extracted from an image, one per
// surviving seed in seed-creation order.
type Palette struct {
	Colours []RGB
	// Weights holds the pixel count assigned to each colour in the final pass.
	Weights []int
	// Centroids holds the Lab centroid each colour was converted from.
	Centroids []Lab
	// Passes is the number of refinement passes that ran.
	Passes int
	// Converged is false when refinement stopped at the pass cap.
	Converged bool
}

// NewPalette creates a Palette from plain colours, deriving Lab centroids.
func NewPalette(colours []RGB) *Palette {
	centroids := make([]Lab, len(colours))
	for i, c := range colours {
		centroids[i] = RGBToLab(c)
	}
	return &Palette{
		Colours:   colours,
		Centroids: centroids,
		Converged: true,
	}
}

// Len returns the number of colors in the palette.
func (p *Palette) Len() int {
	return len(p.Colours)
}

// Get returns the color at the specified index.
func (p *Palette) Get(index int) (RGB, error) {
	if index < 0 || index >= len(p.Colours) {
		return RGB{}, fmt.Errorf("index out of bounds: %d (palette has %d colours)", index, len(p.Colours))
	}
	return p.Colours[index], nil
}

// All returns an iterator over all colours in the palette.
func (p *Palette) All() func(func(int, RGB) bool) {
	return func(yield func(int, RGB) bool) {
		for i, c := range p.Colours {
			if !yield(i, c) {
				return
			}
		}
	}
}

// Dominant returns a copy of the palette without degenerate entries, i.e.
// seeds that ended refinement with no assigned weight. Palettes built
// without weights are returned unchanged.
func (p *Palette) Dominant() *Palette {
	if len(p.Weights) != len(p.Colours) {
		return p
	}
	out := &Palette{Passes: p.Passes, Converged: p.Converged}
	for i, w := range p.Weights {
		if w == 0 {
			continue
		}
		out.Colours = append(out.Colours, p.Colours[i])
		out.Weights = append(out.Weights, w)
		if i < len(p.Centroids) {
			out.Centroids = append(out.Centroids, p.Centroids[i])
		}
	}
	return out
}

// ToHex converts the palette colours to hex strings.
func (p *Palette) ToHex() []string {
	hexColours := make([]string, len(p.Colours))
	for i, c := range p.Colours {
		hexColours[i] = c.Hex()
	}
	return hexColours
}

// Text returns the compact text form: hex triples without '#' joined by
// TextSeparator, e.g. "8f7358-8e463d-d4d1cc".
func (p *Palette) Text() string {
	var b strings.Builder
	for i, c := range p.Colours {
		if i > 0 {
			b.WriteString(TextSeparator)
		}
		fmt.Fprintf(&b, "%02x%02x%02x", c.R, c.G, c.B)
	}
	return b.String()
}

// ParsePaletteText parses the form produced by Palette.Text.
func ParsePaletteText(s string) (*Palette, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty palette text")
	}
	parts := strings.Split(s, TextSeparator)
	colours := make([]RGB, 0, len(parts))
	for _, part := range parts {
		c, err := ParseHex(part)
		if err != nil {
			return nil, err
		}
		colours = append(colours, c)
	}
	return NewPalette(colours), nil
}

// ColourJSON represents a colour in JSON output format.
type ColourJSON struct {
	Hex    string     `json:"hex"`
	RGB    RGB        `json:"rgb"`
	Lab    [3]float64 `json:"lab"`
	Weight int        `json:"weight"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Count     int          `json:"count"`
	Passes    int          `json:"passes"`
	Converged bool         `json:"converged"`
	Colours   []ColourJSON `json:"colours"`
}

// ToJSON converts the palette to indented JSON.
func (p *Palette) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p.jsonValue(), "", "  ")
}

func (p *Palette) jsonValue() PaletteJSON {
	colours := make([]ColourJSON, len(p.Colours))
	for i, c := range p.Colours {
		cj := ColourJSON{Hex: c.Hex(), RGB: c}
		if i < len(p.Centroids) {
			l := p.Centroids[i]
			cj.Lab = [3]float64{l.L, l.A, l.B}
		}
		if i < len(p.Weights) {
			cj.Weight = p.Weights[i]
		}
		colours[i] = cj
	}
	return PaletteJSON{
		Count:     len(p.Colours),
		Passes:    p.Passes,
		Converged: p.Converged,
		Colours:   colours,
	}
}

// MarshalJSON implements json.Marshaler.
func (p *Palette) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.jsonValue())
}

// String returns a human-readable string representation of the palette.
func (p *Palette) String() string {
	if len(p.Colours) == 0 {
		return "Empty palette"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Palette with %d colours:\n", len(p.Colours))
	for i, c := range p.Colours {
		fmt.Fprintf(&b, "  %2d: %s (%s)\n", i+1, c.Hex(), c.String())
	}
	return b.String()
}
