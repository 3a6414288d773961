package imaging

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV represents a color in the 8-bit HSV convention used by camera
// thresholding tools.
//
// The scale is deliberately not the textbook one:
//   - H: 0-180 (degrees halved, so one unit is two degrees of hue)
//   - S: 0-255
//   - V: 0-255
//
// Threshold values for color classes are written on this scale so that
// ranges tuned with common vision tooling can be copied verbatim.
type HSV struct {
	H float64 `json:"h"` // Hue: 0-180 (0=red, 60=green, 120=blue)
	S float64 `json:"s"` // Saturation: 0-255 (0=gray, 255=vivid)
	V float64 `json:"v"` // Value: 0-255 (0=black, 255=full brightness)
}

// HSVRange is an inclusive box in HSV space.
//
// A color is inside the range when every component lies between the
// corresponding Lower and Upper components, bounds included. Hue does not
// wrap; a class that straddles 0 (red) is expressed as two ranges.
type HSVRange struct {
	Lower HSV `json:"lower"`
	Upper HSV `json:"upper"`
}

// Contains reports whether c lies inside the range, bounds included.
func (r HSVRange) Contains(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// ToHSV converts 8-bit RGB components to the 8-bit HSV convention.
//
// The conversion itself is done by go-colorful, which yields hue in degrees
// and saturation/value in 0-1. The result is rescaled and rounded to whole
// units:
//
//	H = round(hue / 2)
//	S = round(saturation * 255)
//	V = round(value * 255)
//
// Gray pixels (R == G == B) have H = 0 and S = 0.
func ToHSV(r, g, b uint8) HSV {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	h, s, v := c.Hsv()
	return HSV{
		H: math.Round(h / 2),
		S: math.Round(s * 255),
		V: math.Round(v * 255),
	}
}
