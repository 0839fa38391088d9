package vision

import (
	"github.com/chewxy/math32"
)

// Box is an axis-aligned bounding box with corners (X1,Y1) and (X2,Y2).
// Invariant after construction: X1 <= X2 and Y1 <= Y2.
type Box struct {
	X1, Y1, X2, Y2 float32
}

func (b Box) Width() float32 {
	return b.X2 - b.X1
}

func (b Box) Height() float32 {
	return b.Y2 - b.Y1
}

func (b Box) Area() float32 {
	return b.Width() * b.Height()
}

// Intersection returns the overlap area between b and o (zero if disjoint).
func (b Box) Intersection(o Box) float32 {
	w := math32.Min(b.X2, o.X2) - math32.Max(b.X1, o.X1)
	h := math32.Min(b.Y2, o.Y2) - math32.Max(b.Y1, o.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IOU is Intersection over Union.
func (b Box) IOU(o Box) float32 {
	inter := b.Intersection(o)
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Clip constrains the box to the rectangle [0,w] x [0,h].
func (b Box) Clip(w, h float32) Box {
	return Box{
		X1: math32.Max(0, math32.Min(b.X1, w)),
		Y1: math32.Max(0, math32.Min(b.Y1, h)),
		X2: math32.Max(0, math32.Min(b.X2, w)),
		Y2: math32.Max(0, math32.Min(b.Y2, h)),
	}
}
