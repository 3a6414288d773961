package detection

import (
	"image"

	"go.uber.org/zap"
)

// Params controls detection sensitivity.
type Params struct {
	// Classes are processed in order; detections of an earlier class always
	// precede detections of a later one.
	Classes []ColorClass `json:"classes"`

	// MinArea is the noise floor passed to FindRegions.
	MinArea float64 `json:"min_area"`

	// SquareBand is the aspect-ratio band passed to Classify.
	SquareBand AspectBand `json:"square_band"`
}

// DefaultParams returns red-then-blue classes, a 100 pixel noise floor and
// the 0.9-1.1 square band.
func DefaultParams() Params {
	return Params{
		Classes:    DefaultClasses(),
		MinArea:    DefaultMinArea,
		SquareBand: DefaultSquareBand,
	}
}

// Detector finds colored objects in an image.
//
// A Detector holds no per-image state and may be reused across images.
type Detector struct {
	params Params
	logger *zap.SugaredLogger
}

// NewDetector returns a Detector using params. A nil logger disables logging.
func NewDetector(params Params, logger *zap.SugaredLogger) *Detector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Detector{params: params, logger: logger}
}

// Params returns the parameters the detector was built with.
func (d *Detector) Params() Params {
	return d.params
}

// Detect runs segmentation, region extraction and shape classification.
//
// For each color class in order, the image is segmented, regions are
// extracted, and each surviving region is classified and appended. The
// resulting order is therefore all detections of the first class (in region
// discovery order), then all of the second, and so on.
//
// Coordinates in the result are in the source image's coordinate space, so
// an image whose bounds do not start at (0,0) still reports the pixel
// positions a caller would pass to img.At.
//
// A nil image stands for an absent or undecodable input and yields the zero
// Result: Count 0, no detections, zero Size. This is not an error; callers
// should treat it as "nothing to do".
func (d *Detector) Detect(img image.Image) Result {
	if img == nil {
		return Result{Detections: []Detection{}}
	}

	bounds := img.Bounds()
	origin := bounds.Min
	detections := make([]Detection, 0)

	for _, cm := range Segment(img, d.params.Classes) {
		regions := FindRegions(cm.Mask, d.params.MinArea)
		d.logger.Debugw("regions found", "color", cm.Color, "pixels", cm.Mask.Count(), "regions", len(regions))

		for _, r := range regions {
			shape, ok := Classify(r, d.params.SquareBand)
			if !ok {
				d.logger.Debugw("region discarded", "color", cm.Color, "box", r.Box, "reason", "zero height")
				continue
			}
			detections = append(detections, Detection{
				Color:    cm.Color,
				Centroid: r.Centroid.Add(origin),
				Area:     r.Area,
				Shape:    shape,
				Box:      r.Box.Add(origin),
			})
		}
	}

	return Result{
		Count:      len(detections),
		Detections: detections,
		Size:       image.Pt(bounds.Dx(), bounds.Dy()),
	}
}
