package platform

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/ityeti/herald/internal/region"
)

// Screen captures rectangles of the virtual desktop, including monitors
// placed left of or above the primary one.
type Screen struct{}

// Grab captures r.
func (Screen) Grab(ctx context.Context, r region.Rect) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active display")
	}

	img, err := screenshot.CaptureRect(r.Canon().Image())
	if err != nil {
		return nil, fmt.Errorf("unable to capture %s: %w", r, err)
	}
	return img, nil
}

// VirtualBounds returns the union of every display's bounds.
func VirtualBounds() region.Rect {
	var u image.Rectangle
	for i := range screenshot.NumActiveDisplays() {
		u = u.Union(screenshot.GetDisplayBounds(i))
	}
	return region.Rect{X1: u.Min.X, Y1: u.Min.Y, X2: u.Max.X, Y2: u.Max.Y}
}

var _ region.Capturer = Screen{}
