package region

import (
	"fmt"
	"image"
)

// MinRegionSize is the smallest accepted width and height in pixels.
const MinRegionSize = 10

// Rect is a rectangle in virtual-screen coordinates. Origins may be
// negative on multi-monitor setups.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Canon returns r with its corners ordered so X1 <= X2 and Y1 <= Y2.
func (r Rect) Canon() Rect {
	return Rect{
		X1: min(r.X1, r.X2), Y1: min(r.Y1, r.Y2),
		X2: max(r.X1, r.X2), Y2: max(r.Y1, r.Y2),
	}
}

func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Valid reports whether r is at least MinRegionSize on both axes.
func (r Rect) Valid() bool {
	return r.Width() >= MinRegionSize && r.Height() >= MinRegionSize
}

// Image converts r to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d) %dx%d", r.X1, r.Y1, r.X2, r.Y2, r.Width(), r.Height())
}
