package detection

// AspectBand is the inclusive range of width/height ratios labelled square.
type AspectBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultSquareBand accepts boxes whose sides differ by up to 10%.
var DefaultSquareBand = AspectBand{Min: 0.9, Max: 1.1}

// Classify labels a region from its bounding-box proportions.
//
// The aspect ratio is Box.Dx() / Box.Dy(). A ratio inside band (bounds
// included) is a Square; anything else is a Rectangle. The second return
// value is false when the box has zero height, in which case the region
// must be discarded.
//
// # Limitations
//
// Only bounding-box proportions are considered. A disc, a rotated square
// and a plus sign all have a square bounding box and are all labelled
// Square; a square rotated by 45 degrees is still Square while a thin
// rectangle rotated by 45 degrees may be Square too. No polygon
// approximation or vertex counting is done.
func Classify(r Region, band AspectBand) (Shape, bool) {
	h := r.Box.Dy()
	if h <= 0 {
		return "", false
	}
	aspect := float64(r.Box.Dx()) / float64(h)
	if aspect >= band.Min && aspect <= band.Max {
		return Square, true
	}
	return Rectangle, true
}
