// Package analyzer finds the busy parts of still images so crops can keep
// them in frame.
package analyzer

import (
	"errors"
	"fmt"
	"image"
)

// ErrUnknownDetector is returned by NewDetector for unsupported variants.
var ErrUnknownDetector = errors.New("unknown detector")

// Block is a region of interest in image coordinates.
type Block struct {
	Rect    image.Rectangle
	Density float64 // share of edge pixels inside Rect, 0..1
}

// Detector finds regions of interest.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// NewDetector returns the detector for variant. The empty variant is the
// contrast detector.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, variant)
	}
}

// Focus returns the point a crop of bounds should centre on: the
// area-weighted centre of blocks, or the centre of bounds without blocks.
func Focus(blocks []Block, bounds image.Rectangle) image.Point {
	var sx, sy, total float64
	for _, b := range blocks {
		r := b.Rect.Intersect(bounds)
		if r.Empty() {
			continue
		}
		a := float64(r.Dx() * r.Dy())
		sx += a * float64(r.Min.X+r.Max.X) / 2
		sy += a * float64(r.Min.Y+r.Max.Y) / 2
		total += a
	}
	if total == 0 {
		return image.Pt((bounds.Min.X+bounds.Max.X)/2, (bounds.Min.Y+bounds.Max.Y)/2)
	}
	return image.Pt(int(sx/total+0.5), int(sy/total+0.5))
}
