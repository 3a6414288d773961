// Package workspace converts pixel coordinates into robot workspace poses.
package workspace

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
)

// Pose is a 4-DOF target in the robot's frame: X, Y, Z in millimeters and
// R (rotation about Z) in degrees.
type Pose struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	R float64 `json:"r"`
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f, %.1f)", p.X, p.Y, p.Z, p.R)
}

// Calibration holds the empirically measured linear relation between the
// camera image and the robot workspace.
//
// Pixel (0,0) maps to (X0, Y0); pixel (RefWidth, RefHeight) maps to
// (X1, Y1). Z and R are fixed for every target.
//
// RefWidth and RefHeight describe the image the calibration was measured
// on. They are intentionally independent of the size of the image being
// processed: if the runtime camera resolution differs from the calibration
// image, coordinates are NOT rescaled and the mapping will be off. Keep the
// camera resolution fixed or recalibrate.
type Calibration struct {
	X0        float64 `json:"x0"`
	X1        float64 `json:"x1"`
	Y0        float64 `json:"y0"`
	Y1        float64 `json:"y1"`
	RefWidth  float64 `json:"ref_width"`
	RefHeight float64 `json:"ref_height"`
	Z         float64 `json:"z"`
	R         float64 `json:"r"`
}

// DefaultCalibration returns the constants measured for the reference
// 2592x1944 camera setup.
func DefaultCalibration() Calibration {
	return Calibration{
		X0:        438.8944,
		X1:        336.722,
		Y0:        -360.4887,
		Y1:        1935.0909,
		RefWidth:  2592,
		RefHeight: 1944,
		Z:         -100,
		R:         0,
	}
}

// Validate rejects calibrations that would divide by zero or flip an axis
// through a negative reference size.
func (c Calibration) Validate() error {
	if c.RefWidth <= 0 {
		return errors.Errorf("calibration ref_width must be positive, got %v", c.RefWidth)
	}
	if c.RefHeight <= 0 {
		return errors.Errorf("calibration ref_height must be positive, got %v", c.RefHeight)
	}
	return nil
}

// Mapper applies a Calibration. It is immutable and safe for concurrent use.
type Mapper struct {
	cal Calibration
}

// NewMapper returns a Mapper for cal, or an error if cal is invalid.
func NewMapper(cal Calibration) (*Mapper, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return &Mapper{cal: cal}, nil
}

// Calibration returns the constants the mapper was built with.
func (m *Mapper) Calibration() Calibration {
	return m.cal
}

// ToWorkspace maps a pixel to a workspace pose.
//
// Each axis is interpolated independently:
//
//	X = X0 + (px / RefWidth)  * (X1 - X0)
//	Y = Y0 + (py / RefHeight) * (Y1 - Y0)
//
// px must be in the coordinate frame of the calibration image, whose origin
// is the top-left camera pixel. Detections from a crop taken with SubImage
// already carry such coordinates; an image decoded with a non-zero origin
// that is not a crop of the camera frame must be shifted by the caller.
//
// The second argument is the measured size of the image the pixel came
// from. It does not enter the formula; see Calibration for why. No
// clamping is applied: pixels beyond the reference size extrapolate
// linearly and may produce targets the robot cannot reach, which the
// controller is expected to reject.
func (m *Mapper) ToWorkspace(px, _ image.Point) Pose {
	c := m.cal
	return Pose{
		X: c.X0 + (float64(px.X)/c.RefWidth)*(c.X1-c.X0),
		Y: c.Y0 + (float64(px.Y)/c.RefHeight)*(c.Y1-c.Y0),
		Z: c.Z,
		R: c.R,
	}
}
