package detection

import (
	"image"
)

// Color is the logical color class of a detected object.
type Color string

const (
	Red  Color = "red"
	Blue Color = "blue"
)

// Shape is the coarse shape label assigned from bounding-box proportions.
type Shape string

const (
	Square    Shape = "square"
	Rectangle Shape = "rectangle"
)

// Region is one connected component of a mask.
type Region struct {
	// Area is the number of pixels in the component.
	Area float64 `json:"area"`

	// Box is the tightest axis-aligned rectangle containing every pixel of
	// the component (Min inclusive, Max exclusive).
	Box image.Rectangle `json:"box"`

	// Centroid is (m10/m00, m01/m00) truncated toward zero.
	Centroid image.Point `json:"centroid"`
}

// Detection is a classified, localized object.
type Detection struct {
	Color    Color       `json:"color"`
	Centroid image.Point `json:"centroid"` // pixel coordinates in the source image
	Area     float64     `json:"area"`
	Shape    Shape       `json:"shape"`

	// Box is carried for annotation and reporting; the pipeline itself only
	// consumes Centroid.
	Box image.Rectangle `json:"box"`
}

// Result is the output of one detection pass.
//
// A zero Result (Count 0, no detections, zero Size) is also what Detect
// returns for an absent image; callers treat Count 0 as "nothing to do".
type Result struct {
	Count      int         `json:"count"`
	Detections []Detection `json:"detections"`
	Size       image.Point `json:"size"` // width, height of the source image
}
