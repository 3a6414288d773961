// Package detection finds red and blue objects in a still image and labels
// each one square or rectangle.
//
// # Pipeline
//
// Detection is three stages run once per color class:
//
//  1. Segmentation: every pixel is converted to HSV and tested against the
//     class's ranges, producing a binary Mask (see Segment).
//  2. Region extraction: outer 8-connected components of the mask are
//     found by flood fill, and their area, bounding box and centroid are
//     computed (see FindRegions). Small components are dropped as noise.
//  3. Classification: the bounding-box aspect ratio decides square versus
//     rectangle (see Classify).
//
// Detector.Detect composes the stages and concatenates the per-class
// results in class order, which by default is red then blue.
//
// # Coordinate System
//
// Masks and regions use 0-based coordinates relative to the top-left pixel.
// Detections are translated back into the source image's coordinate space.
// Bounding boxes use an inclusive Min and exclusive Max.
//
// # Ordering
//
// Within a class, regions come out in the order a top-to-bottom,
// left-to-right scan first meets them. The order is deterministic for a
// given image but is not sorted by position, size or shape; callers that
// need a visiting order other than "as found" must sort themselves.
//
// # Limitations
//
// Shape labels come from bounding-box proportions only. Region area is the
// number of set pixels, so a ring-shaped object reports the area of the ring
// rather than the area enclosed by its outline.
package detection
