// Package colour provides perceptual colour palette extraction.
package colour

import "math"

// Reference white for D65 in the XYZ scale used throughout this package.
const (
	refX = 95.047
	refY = 100.0
	refZ = 108.883
)

// labEpsilon is the CIE knee between the linear and cube-root segments.
const (
	labEpsilon = 0.008856
	labKappa   = 903.3
)

// XYZ is a colour in the CIE 1931 XYZ space, scaled so that Y is in [0, 100].
type XYZ struct {
	X, Y, Z float64
}

// Lab is a colour in the CIE L*a*b* space.
// L is in [0, 100]; A and B are roughly in [-128, 127].
type Lab struct {
	L, A, B float64
}

// Add returns the component-wise sum of two Lab values.
func (c Lab) Add(o Lab) Lab {
	return Lab{L: c.L + o.L, A: c.A + o.A, B: c.B + o.B}
}

// Scale multiplies every component by f.
func (c Lab) Scale(f float64) Lab {
	return Lab{L: c.L * f, A: c.A * f, B: c.B * f}
}

// DistanceSquared returns the squared Euclidean distance between two Lab colours.
func (c Lab) DistanceSquared(o Lab) float64 {
	dl := c.L - o.L
	da := c.A - o.A
	db := c.B - o.B
	return dl*dl + da*da + db*db
}

// IsZero reports whether all components are zero.
func (c Lab) IsZero() bool {
	return c.L == 0 && c.A == 0 && c.B == 0
}

// RGBToXYZ converts an sRGB colour to XYZ (D65).
func RGBToXYZ(c RGB) XYZ {
	r := linearise(float64(c.R)/255.0) * 100
	g := linearise(float64(c.G)/255.0) * 100
	b := linearise(float64(c.B)/255.0) * 100

	return XYZ{
		X: r*0.4124 + g*0.3576 + b*0.1805,
		Y: r*0.2126 + g*0.7152 + b*0.0722,
		Z: r*0.0193 + g*0.1192 + b*0.9505,
	}
}

// XYZToLab converts an XYZ colour to Lab relative to the D65 white point.
func XYZToLab(c XYZ) Lab {
	xr := c.X / refX
	yr := c.Y / refY
	zr := c.Z / refZ

	l := labKappa * yr
	if yr > labEpsilon {
		l = 116*math.Cbrt(yr) - 16
	}

	return Lab{
		L: l,
		A: 500 * (labF(xr) - labF(yr)),
		B: 200 * (labF(yr) - labF(zr)),
	}
}

// LabToXYZ is the inverse of XYZToLab.
func LabToXYZ(c Lab) XYZ {
	fy := (c.L + 16) / 116
	fx := fy + c.A/500
	fz := fy - c.B/200

	yr := fy * fy * fy
	if c.L <= labKappa*labEpsilon {
		yr = c.L / labKappa
	}

	return XYZ{
		X: refX * labFInverse(fx),
		Y: refY * yr,
		Z: refZ * labFInverse(fz),
	}
}

// XYZToRGB converts an XYZ colour back to 8-bit sRGB, rounding to nearest
// and clamping every channel to [0, 255].
func XYZToRGB(c XYZ) RGB {
	x := c.X / 100
	y := c.Y / 100
	z := c.Z / 100

	r := x*3.2406 + y*-1.5372 + z*-0.4986
	g := x*-0.9689 + y*1.8758 + z*0.0415
	b := x*0.0557 + y*-0.2040 + z*1.0570

	return RGB{
		R: toChannel(compand(r)),
		G: toChannel(compand(g)),
		B: toChannel(compand(b)),
	}
}

// RGBToLab converts an sRGB colour to Lab.
func RGBToLab(c RGB) Lab {
	return XYZToLab(RGBToXYZ(c))
}

// LabToRGB converts a Lab colour to 8-bit sRGB.
func LabToRGB(c Lab) RGB {
	return XYZToRGB(LabToXYZ(c))
}

// linearise applies the inverse sRGB transfer function.
func linearise(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// compand applies the forward sRGB transfer function.
func compand(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116
}

func labFInverse(f float64) float64 {
	t := f * f * f
	if t > labEpsilon {
		return t
	}
	return (f - 16.0/116) / 7.787
}

// toChannel scales a [0, 1] value to a byte with round-to-nearest.
func toChannel(v float64) uint8 {
	n := math.Round(v * 255)
	switch {
	case math.IsNaN(n), n < 0:
		return 0
	case n > 255:
		return 255
	}
	return uint8(n)
}
