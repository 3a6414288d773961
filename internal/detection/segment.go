package detection

import (
	"image"

	"github.com/disintegration/imaging"

	pimaging "github.com/ironsheep/pickplace/internal/imaging"
)

// ColorClass is one logical color and the HSV ranges that belong to it.
//
// A pixel belongs to the class when it falls inside any of the ranges. Red
// needs two ranges because its hue wraps around zero.
type ColorClass struct {
	Color  Color               `json:"color"`
	Ranges []pimaging.HSVRange `json:"ranges"`
}

// Contains reports whether c belongs to the class.
func (cc ColorClass) Contains(c pimaging.HSV) bool {
	for _, r := range cc.Ranges {
		if r.Contains(c) {
			return true
		}
	}
	return false
}

// DefaultClasses returns the red and blue classes, in that order.
//
// Both classes share the same saturation and value floor of 100 so that
// washed-out or dark pixels (table surface, shadows) are ignored.
func DefaultClasses() []ColorClass {
	return []ColorClass{
		{
			Color: Red,
			Ranges: []pimaging.HSVRange{
				{Lower: pimaging.HSV{H: 0, S: 100, V: 100}, Upper: pimaging.HSV{H: 10, S: 255, V: 255}},
				{Lower: pimaging.HSV{H: 160, S: 100, V: 100}, Upper: pimaging.HSV{H: 180, S: 255, V: 255}},
			},
		},
		{
			Color: Blue,
			Ranges: []pimaging.HSVRange{
				{Lower: pimaging.HSV{H: 100, S: 100, V: 100}, Upper: pimaging.HSV{H: 130, S: 255, V: 255}},
			},
		},
	}
}

// ColorMask pairs a mask with the color class it was built for.
type ColorMask struct {
	Color Color
	Mask  *Mask
}

// Segment classifies every pixel of img into the given color classes.
//
// Returns one mask per class, in the order the classes were given. A pixel
// may appear in more than one mask if class ranges overlap. The alpha channel
// is ignored. A nil image yields nil; an image with no matching pixels yields
// all-empty masks.
func Segment(img image.Image, classes []ColorClass) []ColorMask {
	if img == nil {
		return nil
	}

	// Normalize once so the loop can read Pix directly instead of going
	// through At for every pixel.
	src := imaging.Clone(img)
	width := src.Bounds().Dx()
	height := src.Bounds().Dy()

	masks := make([]ColorMask, len(classes))
	for i, cc := range classes {
		masks[i] = ColorMask{Color: cc.Color, Mask: NewMask(width, height)}
	}

	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+3]
			hsv := pimaging.ToHSV(p[0], p[1], p[2])
			for i, cc := range classes {
				if cc.Contains(hsv) {
					masks[i].Mask.Bits[y*width+x] = true
				}
			}
		}
	}

	return masks
}
