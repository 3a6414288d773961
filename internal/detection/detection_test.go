package detection

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	pureRed  = color.RGBA{255, 0, 0, 255}
	pureBlue = color.RGBA{0, 0, 255, 255}
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillRect paints r (Max exclusive) with c
func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// maskFromRects builds a mask with every rectangle set
func maskFromRects(width, height int, rects ...image.Rectangle) *Mask {
	m := NewMask(width, height)
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				m.Set(x, y)
			}
		}
	}
	return m
}

func TestMask_AtSet(t *testing.T) {
	m := NewMask(4, 3)
	m.Set(1, 2)
	m.Set(-1, 0) // ignored
	m.Set(4, 0)  // ignored

	if !m.At(1, 2) {
		t.Error("At(1,2) should be set")
	}
	if m.At(2, 1) {
		t.Error("At(2,1) should not be set")
	}
	if m.At(-1, 0) || m.At(10, 10) {
		t.Error("out-of-range At should be false")
	}
	if m.Count() != 1 {
		t.Errorf("Count: got %d, want 1", m.Count())
	}

	gray := m.Image()
	if gray.GrayAt(1, 2).Y != 255 || gray.GrayAt(0, 0).Y != 0 {
		t.Errorf("Image: got %d at (1,2) and %d at (0,0), want 255 and 0",
			gray.GrayAt(1, 2).Y, gray.GrayAt(0, 0).Y)
	}
}

func TestSegment_ColorClasses(t *testing.T) {
	img := createTestImage(5, 1, color.Black)
	img.Set(0, 0, color.RGBA{200, 30, 30, 255}) // hue near 0
	img.Set(1, 0, color.RGBA{200, 30, 60, 255}) // hue near the top of the range
	img.Set(2, 0, pureBlue)
	img.Set(3, 0, color.RGBA{128, 128, 128, 255}) // gray, no saturation
	img.Set(4, 0, color.RGBA{0, 255, 0, 255})     // green, no class

	masks := Segment(img, DefaultClasses())
	if len(masks) != 2 {
		t.Fatalf("expected 2 masks, got %d", len(masks))
	}
	if masks[0].Color != Red || masks[1].Color != Blue {
		t.Fatalf("mask order: got %s,%s, want red,blue", masks[0].Color, masks[1].Color)
	}

	red, blue := masks[0].Mask, masks[1].Mask
	tests := []struct {
		x        int
		wantRed  bool
		wantBlue bool
	}{
		{0, true, false},
		{1, true, false},
		{2, false, true},
		{3, false, false},
		{4, false, false},
	}
	for _, tt := range tests {
		if red.At(tt.x, 0) != tt.wantRed {
			t.Errorf("red mask at x=%d: got %v, want %v", tt.x, red.At(tt.x, 0), tt.wantRed)
		}
		if blue.At(tt.x, 0) != tt.wantBlue {
			t.Errorf("blue mask at x=%d: got %v, want %v", tt.x, blue.At(tt.x, 0), tt.wantBlue)
		}
	}
}

func TestSegment_DarkPixelsIgnored(t *testing.T) {
	// Fully saturated but too dark to pass the value floor.
	img := createTestImage(10, 10, color.RGBA{0, 0, 80, 255})

	masks := Segment(img, DefaultClasses())
	for _, cm := range masks {
		if n := cm.Mask.Count(); n != 0 {
			t.Errorf("%s mask: got %d pixels, want 0", cm.Color, n)
		}
	}
}

func TestSegment_NilImage(t *testing.T) {
	if masks := Segment(nil, DefaultClasses()); masks != nil {
		t.Errorf("expected nil masks for nil image, got %d", len(masks))
	}
}

func TestFindRegions_SingleBlock(t *testing.T) {
	m := maskFromRects(50, 50, image.Rect(10, 10, 30, 30))

	regions := FindRegions(m, DefaultMinArea)
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}

	want := Region{
		Area:     400,
		Box:      image.Rect(10, 10, 30, 30),
		Centroid: image.Pt(19, 19), // 19.5 truncated
	}
	if diff := cmp.Diff(want, regions[0]); diff != "" {
		t.Errorf("region mismatch (-want +got):\n%s", diff)
	}
}

func TestFindRegions_MinAreaIsStrict(t *testing.T) {
	tests := []struct {
		name string
		rect image.Rectangle
		want int
	}{
		{"exactly 100 pixels", image.Rect(5, 5, 15, 15), 0},
		{"101 pixels", image.Rect(5, 5, 106, 6), 1},
		{"99 pixels", image.Rect(5, 5, 104, 6), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := maskFromRects(120, 20, tt.rect)
			if got := len(FindRegions(m, 100)); got != tt.want {
				t.Errorf("got %d regions, want %d", got, tt.want)
			}
		})
	}
}

func TestFindRegions_ScanOrder(t *testing.T) {
	// The right-hand block starts one row higher, so it is found first.
	m := maskFromRects(100, 60,
		image.Rect(5, 20, 25, 40),
		image.Rect(60, 19, 80, 39),
	)

	regions := FindRegions(m, 0)
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}
	if regions[0].Box.Min.X != 60 || regions[1].Box.Min.X != 5 {
		t.Errorf("order: got boxes %v then %v", regions[0].Box, regions[1].Box)
	}
}

func TestFindRegions_DiagonalPixelsConnect(t *testing.T) {
	m := NewMask(5, 5)
	m.Set(1, 1)
	m.Set(2, 2)
	m.Set(3, 3)

	regions := FindRegions(m, 0)
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}
	if regions[0].Area != 3 {
		t.Errorf("Area: got %v, want 3", regions[0].Area)
	}
	if regions[0].Centroid != image.Pt(2, 2) {
		t.Errorf("Centroid: got %v, want (2,2)", regions[0].Centroid)
	}
}

func TestFindRegions_IslandInsideHoleDropped(t *testing.T) {
	// 40x40 ring, 5 pixels thick, with a 6x6 island in the middle of the hole.
	m := maskFromRects(60, 60,
		image.Rect(10, 10, 50, 15),
		image.Rect(10, 45, 50, 50),
		image.Rect(10, 15, 15, 45),
		image.Rect(45, 15, 50, 45),
		image.Rect(27, 27, 33, 33),
	)

	regions := FindRegions(m, 0)
	if len(regions) != 1 {
		t.Fatalf("expected only the ring, got %d regions", len(regions))
	}

	ring := regions[0]
	if ring.Box != image.Rect(10, 10, 50, 50) {
		t.Errorf("Box: got %v, want (10,10)-(50,50)", ring.Box)
	}
	// 40*40 - 30*30 ring pixels; the hole is not counted.
	if ring.Area != 700 {
		t.Errorf("Area: got %v, want 700", ring.Area)
	}
}

func TestFindRegions_TouchingBorder(t *testing.T) {
	m := maskFromRects(30, 30, image.Rect(0, 0, 30, 30))

	regions := FindRegions(m, 0)
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}
	if regions[0].Area != 900 {
		t.Errorf("Area: got %v, want 900", regions[0].Area)
	}
}

func TestFindRegions_Empty(t *testing.T) {
	if got := FindRegions(NewMask(20, 20), 0); len(got) != 0 {
		t.Errorf("expected no regions, got %d", len(got))
	}
	if got := FindRegions(nil, 0); got != nil {
		t.Errorf("expected nil for nil mask, got %v", got)
	}
	if got := FindRegions(NewMask(0, 0), 0); got != nil {
		t.Errorf("expected nil for empty mask, got %v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		box    image.Rectangle
		want   Shape
		wantOK bool
	}{
		{"square", image.Rect(0, 0, 20, 20), Square, true},
		{"wide rectangle", image.Rect(0, 0, 40, 20), Rectangle, true},
		{"tall rectangle", image.Rect(0, 0, 20, 40), Rectangle, true},
		{"slightly wide square", image.Rect(0, 0, 21, 20), Square, true},
		{"lower bound inclusive", image.Rect(0, 0, 9, 10), Square, true},
		{"upper bound inclusive", image.Rect(0, 0, 11, 10), Square, true},
		{"just outside band", image.Rect(0, 0, 23, 20), Rectangle, true},
		{"zero height", image.Rect(0, 5, 20, 5), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(Region{Box: tt.box}, DefaultSquareBand)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("shape: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_RedSquareAndBlueRectangle(t *testing.T) {
	img := createTestImage(150, 100, color.Black)
	// The blue rectangle sits higher in the image than the red square, so
	// ordering by position would put it first; color order must win.
	fillRect(img, image.Rect(60, 5, 120, 35), pureBlue) // 60x30, aspect 2.0
	fillRect(img, image.Rect(10, 10, 40, 40), pureRed)  // 30x30, aspect 1.0

	result := NewDetector(DefaultParams(), nil).Detect(img)

	want := Result{
		Count: 2,
		Detections: []Detection{
			{Color: Red, Centroid: image.Pt(24, 24), Area: 900, Shape: Square, Box: image.Rect(10, 10, 40, 40)},
			{Color: Blue, Centroid: image.Pt(89, 19), Area: 1800, Shape: Rectangle, Box: image.Rect(60, 5, 120, 35)},
		},
		Size: image.Pt(150, 100),
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("Detect mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect_AllBlack(t *testing.T) {
	img := createTestImage(64, 48, color.Black)

	result := NewDetector(DefaultParams(), nil).Detect(img)
	if result.Count != 0 || len(result.Detections) != 0 {
		t.Errorf("expected no detections, got %d", result.Count)
	}
	if result.Size != image.Pt(64, 48) {
		t.Errorf("Size: got %v, want (64,48)", result.Size)
	}
}

func TestDetect_NilImage(t *testing.T) {
	result := NewDetector(DefaultParams(), nil).Detect(nil)
	if result.Count != 0 {
		t.Errorf("Count: got %d, want 0", result.Count)
	}
	if len(result.Detections) != 0 {
		t.Errorf("Detections: got %d, want 0", len(result.Detections))
	}
	if result.Size != (image.Point{}) {
		t.Errorf("Size: got %v, want zero", result.Size)
	}
}

func TestDetect_NoiseFiltered(t *testing.T) {
	img := createTestImage(100, 100, color.Black)
	fillRect(img, image.Rect(10, 10, 15, 15), pureRed)  // 25 pixels
	fillRect(img, image.Rect(50, 50, 70, 60), pureBlue) // 200 pixels

	result := NewDetector(DefaultParams(), nil).Detect(img)
	if result.Count != 1 {
		t.Fatalf("Count: got %d, want 1", result.Count)
	}
	if result.Detections[0].Color != Blue {
		t.Errorf("Color: got %s, want blue", result.Detections[0].Color)
	}
}

func TestDetect_OffsetBounds(t *testing.T) {
	img := createTestImage(200, 200, color.Black)
	fillRect(img, image.Rect(120, 120, 140, 140), pureRed)

	// A sub-image keeps the parent's coordinate space.
	sub := img.SubImage(image.Rect(100, 100, 200, 200))

	result := NewDetector(DefaultParams(), nil).Detect(sub)
	if result.Count != 1 {
		t.Fatalf("Count: got %d, want 1", result.Count)
	}
	d := result.Detections[0]
	if d.Centroid != image.Pt(129, 129) {
		t.Errorf("Centroid: got %v, want (129,129)", d.Centroid)
	}
	if d.Box != image.Rect(120, 120, 140, 140) {
		t.Errorf("Box: got %v, want (120,120)-(140,140)", d.Box)
	}
	if result.Size != image.Pt(100, 100) {
		t.Errorf("Size: got %v, want (100,100)", result.Size)
	}
}

func TestDetect_CustomParams(t *testing.T) {
	img := createTestImage(100, 100, color.Black)
	fillRect(img, image.Rect(10, 10, 15, 15), pureRed) // 25 pixels, 1:1
	fillRect(img, image.Rect(40, 40, 52, 50), pureRed) // 120 pixels, 1.2:1

	params := DefaultParams()
	params.MinArea = 10
	params.SquareBand = AspectBand{Min: 0.8, Max: 1.25}

	result := NewDetector(params, nil).Detect(img)
	if result.Count != 2 {
		t.Fatalf("Count: got %d, want 2", result.Count)
	}
	for i, d := range result.Detections {
		if d.Shape != Square {
			t.Errorf("detection %d: got %s, want square", i, d.Shape)
		}
	}
}

func TestTable(t *testing.T) {
	out := Table([]Detection{
		{Color: Red, Centroid: image.Pt(24, 24), Area: 900, Shape: Square},
		{Color: Blue, Centroid: image.Pt(89, 19), Area: 1800, Shape: Rectangle},
	})

	for _, want := range []string{"COLOR", "red", "blue", "(24, 24)", "1800.0", "rectangle"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
