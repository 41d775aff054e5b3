package colour

import (
	"encoding/json"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPaletteLen(t *testing.T) {
	tests := []struct {
		name    string
		colours []RGB
		want    int
	}{
		{name: "empty palette", colours: []RGB{}, want: 0},
		{name: "single colour", colours: []RGB{{255, 0, 0}}, want: 1},
		{name: "multiple colours", colours: []RGB{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			palette := NewPalette(tt.colours)
			if got := palette.Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToRGB(t *testing.T) {
	tests := []struct {
		name  string
		color color.Color
		want  RGB
	}{
		{name: "red", color: color.RGBA{R: 255, A: 255}, want: RGB{R: 255}},
		{name: "nrgba keeps channels", color: color.NRGBA{R: 200, G: 50, B: 50, A: 128}, want: RGB{200, 50, 50}},
		{name: "gray", color: color.Gray{Y: 128}, want: RGB{128, 128, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToRGB(tt.color); got != tt.want {
				t.Errorf("ToRGB() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRGBHex(t *testing.T) {
	if got := (RGB{143, 115, 88}).Hex(); got != "#8f7358" {
		t.Errorf("Hex() = %q, want %q", got, "#8f7358")
	}
}

func TestPaletteToHex(t *testing.T) {
	p := &Palette{Colours: []RGB{{143, 115, 88}, {0, 0, 255}}}
	if diff := cmp.Diff([]string{"#8f7358", "#0000ff"}, p.ToHex()); diff != "" {
		t.Errorf("ToHex() mismatch (-want +got):\n%s", diff)
	}
	if got := (&Palette{}).ToHex(); len(got) != 0 {
		t.Errorf("empty ToHex() = %v, want none", got)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{in: "8f7358", want: RGB{143, 115, 88}},
		{in: "#D4D1CC", want: RGB{212, 209, 204}},
		{in: "fff", wantErr: true},
		{in: "zz0000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPaletteText(t *testing.T) {
	p := NewPalette([]RGB{{143, 115, 88}, {142, 70, 61}, {212, 209, 204}})
	const want = "8f7358-8e463d-d4d1cc"
	if got := p.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}

	parsed, err := ParsePaletteText(want)
	if err != nil {
		t.Fatalf("ParsePaletteText() error = %v", err)
	}
	if diff := cmp.Diff(p.Colours, parsed.Colours); diff != "" {
		t.Errorf("ParsePaletteText mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParsePaletteText(""); err == nil {
		t.Error("ParsePaletteText(\"\") should fail")
	}
	if _, err := ParsePaletteText("8f7358-nothex"); err == nil {
		t.Error("ParsePaletteText with a bad entry should fail")
	}
}

func TestPaletteGet(t *testing.T) {
	p := NewPalette([]RGB{{1, 2, 3}})
	if c, err := p.Get(0); err != nil || c != (RGB{1, 2, 3}) {
		t.Errorf("Get(0) = %v, %v", c, err)
	}
	if _, err := p.Get(1); err == nil {
		t.Error("Get(1) should be out of bounds")
	}
	if _, err := p.Get(-1); err == nil {
		t.Error("Get(-1) should be out of bounds")
	}
}

func TestPaletteAll(t *testing.T) {
	p := NewPalette([]RGB{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}})
	var seen []uint8
	for _, c := range p.All() {
		seen = append(seen, c.R)
		if c.R == 2 {
			break
		}
	}
	if diff := cmp.Diff([]uint8{1, 2}, seen); diff != "" {
		t.Errorf("All() iteration mismatch (-want +got):\n%s", diff)
	}
}

func TestPaletteDominant(t *testing.T) {
	p := &Palette{
		Colours:   []RGB{{255, 0, 0}, {0, 0, 0}, {0, 0, 255}},
		Weights:   []int{10, 0, 4},
		Centroids: []Lab{RGBToLab(RGB{255, 0, 0}), {}, RGBToLab(RGB{0, 0, 255})},
		Passes:    2,
		Converged: true,
	}
	got := p.Dominant()
	if diff := cmp.Diff([]RGB{{255, 0, 0}, {0, 0, 255}}, got.Colours); diff != "" {
		t.Errorf("Dominant() colours mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{10, 4}, got.Weights); diff != "" {
		t.Errorf("Dominant() weights mismatch (-want +got):\n%s", diff)
	}
	if len(got.Centroids) != 2 || !got.Converged || got.Passes != 2 {
		t.Errorf("Dominant() lost metadata: %+v", got)
	}
}

func TestPaletteToJSON(t *testing.T) {
	p := &Palette{
		Colours:   []RGB{{255, 0, 0}},
		Weights:   []int{4},
		Centroids: []Lab{{53.2, 80.1, 67.2}},
		Passes:    1,
		Converged: true,
	}
	data, err := p.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded PaletteJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	want := PaletteJSON{
		Count:     1,
		Passes:    1,
		Converged: true,
		Colours: []ColourJSON{{
			Hex:    "#ff0000",
			RGB:    RGB{255, 0, 0},
			Lab:    [3]float64{53.2, 80.1, 67.2},
			Weight: 4,
		}},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("ToJSON mismatch (-want +got):\n%s", diff)
	}
}

func TestPaletteString(t *testing.T) {
	if got := NewPalette(nil).String(); got != "Empty palette" {
		t.Errorf("String() = %q", got)
	}
	s := NewPalette([]RGB{{255, 0, 0}}).String()
	if !strings.Contains(s, "#ff0000") || !strings.Contains(s, "rgb(255, 0, 0)") {
		t.Errorf("String() = %q, missing colour", s)
	}
}

func TestPaletteDistance(t *testing.T) {
	a := NewPalette([]RGB{{255, 0, 0}, {0, 0, 255}}).Centroids
	b := NewPalette([]RGB{{0, 0, 255}, {255, 0, 0}}).Centroids
	c := NewPalette([]RGB{{0, 255, 0}}).Centroids

	if got := PaletteDistance(a, b); got != 0 {
		t.Errorf("PaletteDistance(reordered) = %v, want 0", got)
	}
	if ab, ac := PaletteDistance(a, b), PaletteDistance(a, c); ac <= ab {
		t.Errorf("PaletteDistance(a, c) = %v, want > %v", ac, ab)
	}
	if PaletteDistance(a, c) != PaletteDistance(c, a) {
		t.Error("PaletteDistance is not symmetric")
	}
	if got := PaletteDistance(nil, a); !math.IsInf(got, 1) {
		t.Errorf("PaletteDistance(empty) = %v, want +Inf", got)
	}
}

func TestColourPreview(t *testing.T) {
	got := ColourPreview(RGB{1, 2, 3}, 2)
	want := "\033[48;2;1;2;3m  \033[0m"
	if got != want {
		t.Errorf("ColourPreview() = %q, want %q", got, want)
	}
	if !strings.HasSuffix(FormatColourWithPreview(RGB{1, 2, 3}, 2), " #010203") {
		t.Error("FormatColourWithPreview() missing hex suffix")
	}
}

func TestSupportsANSIColoursNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if SupportsANSIColours(nil) {
		t.Error("SupportsANSIColours(nil) = true")
	}
}
