package detection

import (
	"image"
)

// DefaultMinArea is the default noise floor for FindRegions, in pixels.
const DefaultMinArea = 100.0

// FindRegions extracts the outer connected components of a mask.
//
// Parameters:
//   - mask: Binary occupancy grid to analyze.
//   - minArea: Noise floor. Only components whose pixel count is strictly
//     greater than minArea are returned. This is a detection-sensitivity
//     knob, not a correctness constant.
//
// Returns the surviving regions in discovery order: the component whose
// first pixel comes first in a top-to-bottom, left-to-right scan is first.
// The order is stable for a given mask but carries no geometric meaning.
//
// # Algorithm
//
//  1. Background reachability: flood the unset pixels from the image border
//     using 4-connectivity. Unset pixels that are not reached are holes.
//  2. Component labelling: flood-fill set pixels using 8-connectivity.
//  3. Outer test: a component is outer when it touches the image border or
//     has a 4-neighbor in the reachable background. Components that sit
//     entirely inside another component's hole are dropped, as are the
//     holes themselves; a hole is never reported as a region.
//  4. Descriptors: area is the pixel count (holes are not counted), the box
//     is the tightest enclosing rectangle, and the centroid is the ratio of
//     first- to zeroth-order moments.
//
// A component with zero pixels cannot produce a centroid and is never
// returned.
func FindRegions(mask *Mask, minArea float64) []Region {
	if mask == nil || mask.Width == 0 || mask.Height == 0 {
		return nil
	}

	outside := reachableBackground(mask)
	visited := make([]bool, len(mask.Bits))
	regions := make([]Region, 0)

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			idx := y*mask.Width + x
			if !mask.Bits[idx] || visited[idx] {
				continue
			}
			c := floodFill(mask, visited, outside, x, y)
			if !c.outer {
				continue
			}
			region, ok := c.region()
			if !ok || region.Area <= minArea {
				continue
			}
			regions = append(regions, region)
		}
	}

	return regions
}

// component accumulates the moments and extent of one flood-filled component.
type component struct {
	m00, m10, m01          float64
	minX, minY, maxX, maxY int
	outer                  bool
}

func (c *component) add(x, y int) {
	if c.m00 == 0 {
		c.minX, c.maxX, c.minY, c.maxY = x, x, y, y
	}
	c.m00++
	c.m10 += float64(x)
	c.m01 += float64(y)
	if x < c.minX {
		c.minX = x
	}
	if x > c.maxX {
		c.maxX = x
	}
	if y < c.minY {
		c.minY = y
	}
	if y > c.maxY {
		c.maxY = y
	}
}

// region converts the accumulated moments into a Region. It returns false
// for an empty component, whose centroid is undefined.
func (c *component) region() (Region, bool) {
	if c.m00 == 0 {
		return Region{}, false
	}
	return Region{
		Area:     c.m00,
		Box:      image.Rect(c.minX, c.minY, c.maxX+1, c.maxY+1),
		Centroid: image.Pt(int(c.m10/c.m00), int(c.m01/c.m00)),
	}, true
}

// floodFill performs an iterative 8-connected flood fill from (startX, startY).
//
// Uses an explicit stack rather than recursion so large blobs cannot
// overflow the goroutine stack. Pixels are marked visited when pushed, so
// each pixel enters the stack at most once.
func floodFill(mask *Mask, visited, outside []bool, startX, startY int) *component {
	w, h := mask.Width, mask.Height
	c := &component{}

	stack := []image.Point{{X: startX, Y: startY}}
	visited[startY*w+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c.add(p.X, p.Y)
		if !c.outer && touchesOutside(mask, outside, p.X, p.Y) {
			c.outer = true
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				idx := ny*w + nx
				if visited[idx] || !mask.Bits[idx] {
					continue
				}
				visited[idx] = true
				stack = append(stack, image.Point{X: nx, Y: ny})
			}
		}
	}

	return c
}

// touchesOutside reports whether the set pixel (x, y) lies on the image
// border or has a 4-neighbor in the border-reachable background.
func touchesOutside(mask *Mask, outside []bool, x, y int) bool {
	w, h := mask.Width, mask.Height
	if x == 0 || y == 0 || x == w-1 || y == h-1 {
		return true
	}
	return outside[y*w+x-1] || outside[y*w+x+1] ||
		outside[(y-1)*w+x] || outside[(y+1)*w+x]
}

// reachableBackground marks every unset pixel that can be reached from the
// image border through 4-connected unset pixels.
func reachableBackground(mask *Mask) []bool {
	w, h := mask.Width, mask.Height
	outside := make([]bool, len(mask.Bits))
	stack := make([]image.Point, 0)

	seed := func(x, y int) {
		idx := y*w + x
		if mask.Bits[idx] || outside[idx] {
			return
		}
		outside[idx] = true
		stack = append(stack, image.Point{X: x, Y: y})
	}

	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 0; y < h; y++ {
		seed(0, y)
		seed(w-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X > 0 {
			seed(p.X-1, p.Y)
		}
		if p.X < w-1 {
			seed(p.X+1, p.Y)
		}
		if p.Y > 0 {
			seed(p.X, p.Y-1)
		}
		if p.Y < h-1 {
			seed(p.X, p.Y+1)
		}
	}

	return outside
}
