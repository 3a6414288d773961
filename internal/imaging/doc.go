// Package imaging provides image acquisition and color helpers for the
// pick-and-place pipeline.
//
// This package covers everything that touches raw pixels but is not itself
// detection logic: decoding image files, converting RGB to the 8-bit HSV
// convention used for color thresholds, and writing debug images (binary
// masks, annotated overlays) back to disk.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with the origin at the
// top-left corner, X increasing rightward and Y increasing downward.
// Rectangles use an inclusive Min and exclusive Max, as image.Rectangle does.
//
// # HSV Convention
//
// Hue is expressed on a 0-180 scale and saturation/value on 0-255, so that
// thresholds tuned in common camera tooling can be copied without rescaling.
// See HSV and ToHSV.
//
// # Orientation
//
// Load honors EXIF orientation tags. Calibration constants are measured on
// the image as displayed, so a rotated JPEG must be rotated before detection
// or every workspace coordinate will be wrong.
package imaging
