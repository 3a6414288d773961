package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Mark is one annotation to draw on top of an image: a bounding box, a
// crosshair at the center and a short numeric label.
type Mark struct {
	Box    image.Rectangle
	Center image.Point
	Label  string // digits and commas only; other runes render as blanks
	Color  color.NRGBA
}

// Annotate returns a copy of img with every mark drawn on it.
//
// The source image is never modified. Boxes are drawn as 1-pixel outlines,
// the center as a 7-pixel crosshair, and the label just above the box's
// top-left corner (or inside the box when the box touches the top edge).
func Annotate(img image.Image, marks []Mark) *image.NRGBA {
	out := imaging.Clone(img)

	labelFg := color.NRGBA{255, 255, 255, 255}
	labelBg := color.NRGBA{0, 0, 0, 180}

	for _, m := range marks {
		drawBox(out, m.Box, m.Color)
		drawCross(out, m.Center, 3, m.Color)
		if m.Label != "" {
			y := m.Box.Min.Y - 8
			if y < out.Bounds().Min.Y {
				y = m.Box.Min.Y + 2
			}
			drawLabel(out, m.Box.Min.X+1, y, m.Label, labelFg, labelBg)
		}
	}

	return out
}

// SavePNG writes img to path as a PNG file.
func SavePNG(path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return errors.Wrapf(err, "failed to write %q", path)
	}
	return nil
}

func drawBox(img draw.Image, r image.Rectangle, c color.Color) {
	bounds := img.Bounds()
	set := func(x, y int) {
		if (image.Point{x, y}).In(bounds) {
			img.Set(x, y, c)
		}
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		set(x, r.Min.Y)
		set(x, r.Max.Y-1)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		set(r.Min.X, y)
		set(r.Max.X-1, y)
	}
}

func drawCross(img draw.Image, p image.Point, arm int, c color.Color) {
	bounds := img.Bounds()
	for d := -arm; d <= arm; d++ {
		if q := (image.Point{p.X + d, p.Y}); q.In(bounds) {
			img.Set(q.X, q.Y, c)
		}
		if q := (image.Point{p.X, p.Y + d}); q.In(bounds) {
			img.Set(q.X, q.Y, c)
		}
	}
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font for digits and comma.
func drawLabel(img draw.Image, x, y int, text string, fg, bg color.Color) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if p := (image.Point{x + dx, y + dy}); p.In(bounds) {
				img.Set(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				if p := (image.Point{cx + col, y + row}); p.In(bounds) {
					img.Set(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
