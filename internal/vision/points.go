// Package vision computes token sample points and evaluates whether any of
// them is visible through a set of already-computed sight regions.
package vision

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the inward nudge applied on the -x and -y edges of a footprint.
// A cell owns the points on its top-left boundary, so a point sitting exactly
// on the left or top edge of a token would otherwise be classified into the
// neighbouring cell.
const Epsilon = 0.01

var (
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrUnknownMode     = errors.New("unknown sampling mode")
)

// BoundingBox is a snapshot of a token's placement, supplied per call.
type BoundingBox struct {
	CenterX float64
	CenterY float64
	Width   float64
	Height  float64
}

// Validate rejects non-finite coordinates and negative sizes.
func (b BoundingBox) Validate() error {
	for _, v := range [...]float64{b.CenterX, b.CenterY, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %+v", ErrInvalidGeometry, b)
		}
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative size %gx%g", ErrInvalidGeometry, b.Width, b.Height)
	}
	return nil
}

// SamplePoint is an absolute point plus the index of the offset rule that
// produced it (the single-point Mode code, 0 for center).
type SamplePoint struct {
	X    float64
	Y    float64
	Slot int
}

// Calculator computes sample points. The zero value reproduces the
// long-standing BottomRight behaviour (same offset as BottomLeft);
// CorrectBottomRight switches it to the true bottom-right corner.
type Calculator struct {
	CorrectBottomRight bool
}

// ComputeSamplePoints is Calculator{}.Points.
func ComputeSamplePoints(box BoundingBox, mode Mode) ([]SamplePoint, error) {
	return Calculator{}.Points(box, mode)
}

// Points returns the sample points for mode, center first for multi modes.
// Unknown modes produce no points and ErrUnknownMode.
func (c Calculator) Points(box BoundingBox, mode Mode) ([]SamplePoint, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}

	rules := mode.Expand()
	out := make([]SamplePoint, 0, len(rules))
	for _, r := range rules {
		dx, dy := c.offset(r, box.Width/2, box.Height/2)
		out = append(out, SamplePoint{
			X:    box.CenterX + dx,
			Y:    box.CenterY + dy,
			Slot: int(r),
		})
	}
	return out, nil
}

// offset maps a single-point mode to its displacement from the center.
// Only the -hw and -hh directions receive the epsilon nudge.
func (c Calculator) offset(m Mode, hw, hh float64) (float64, float64) {
	switch m {
	case ModeTopLeft:
		return -hw + Epsilon, -hh + Epsilon
	case ModeTopRight:
		return hw, -hh + Epsilon
	case ModeBottomLeft:
		return -hw + Epsilon, hh
	case ModeBottomRight:
		if c.CorrectBottomRight {
			return hw, hh
		}
		return -hw + Epsilon, hh
	case ModeTop:
		return 0, -hh + Epsilon
	case ModeBottom:
		return 0, hh
	case ModeLeft:
		return -hw + Epsilon, 0
	case ModeRight:
		return hw, 0
	default:
		return 0, 0
	}
}
