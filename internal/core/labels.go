// Per-pixel label map with single-level undo
package core

import (
	"errors"
	"fmt"
	"image"
)

// ErrSizeMismatch is returned when a buffer doesn't match the label map size.
var ErrSizeMismatch = errors.New("size mismatch")

// LabelBuffer is the editable mask of the current image.
// Each cell holds a label id in 0..labelCount-1, 0 being background.
// Every mutation first copies the map into the undo slot, so exactly one
// step can be taken back.
type LabelBuffer struct {
	current    *image.Gray
	previous   *image.Gray
	value      uint8
	labelCount int
}

// NewLabelBuffer creates an all-background map of width x height.
func NewLabelBuffer(width, height, labelCount int) *LabelBuffer {
	return &LabelBuffer{
		current:    image.NewGray(image.Rect(0, 0, width, height)),
		labelCount: labelCount,
		value:      1,
	}
}

// Reset discards the map and its snapshot and starts over at the given size.
func (lb *LabelBuffer) Reset(width, height int) {
	lb.current = image.NewGray(image.Rect(0, 0, width, height))
	lb.previous = nil
}

// Load replaces the map with a previously saved one of the same size.
// Values outside the label range are clamped to the highest label.
func (lb *LabelBuffer) Load(saved *image.Gray) error {
	if saved.Bounds().Size() != lb.current.Bounds().Size() {
		return fmt.Errorf("%w: mask %v, image %v", ErrSizeMismatch, saved.Bounds().Size(), lb.current.Bounds().Size())
	}

	b := saved.Bounds()
	top := uint8(lb.labelCount - 1)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := saved.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			if v > top {
				v = top
			}
			lb.current.Pix[lb.current.PixOffset(x, y)] = v
		}
	}
	lb.previous = nil
	return nil
}

// Map exposes the current label map. Callers must not modify it.
func (lb *LabelBuffer) Map() *image.Gray {
	return lb.current
}

// Bounds returns the map rectangle
func (lb *LabelBuffer) Bounds() image.Rectangle {
	return lb.current.Bounds()
}

// LabelCount returns the number of label ids, background included
func (lb *LabelBuffer) LabelCount() int {
	return lb.labelCount
}

// Value returns the label id written in add mode
func (lb *LabelBuffer) Value() uint8 {
	return lb.value
}

// SetValue selects the label id written by subsequent paint operations.
func (lb *LabelBuffer) SetValue(value int) error {
	if value < 0 || value >= lb.labelCount {
		return fmt.Errorf("label %d out of range 0..%d", value, lb.labelCount-1)
	}
	lb.value = uint8(value)
	return nil
}

// HasSnapshot reports whether Undo has something to restore
func (lb *LabelBuffer) HasSnapshot() bool {
	return lb.previous != nil
}

func (lb *LabelBuffer) snapshot() {
	if lb.previous == nil || lb.previous.Bounds() != lb.current.Bounds() {
		lb.previous = image.NewGray(lb.current.Bounds())
	}
	copy(lb.previous.Pix, lb.current.Pix)
}

// PaintCircle sets every cell within Euclidean distance radius of center.
// The center is clamped into the map; a negative radius paints only the center.
func (lb *LabelBuffer) PaintCircle(center image.Point, radius int, value uint8) {
	lb.snapshot()

	b := lb.current.Bounds()
	center = clampPoint(center, b)
	if radius < 0 {
		radius = 0
	}

	r2 := radius * radius
	area := image.Rect(center.X-radius, center.Y-radius, center.X+radius+1, center.Y+radius+1).Intersect(b)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		dy := y - center.Y
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := x - center.X
			if dx*dx+dy*dy <= r2 {
				lb.current.Pix[lb.current.PixOffset(x, y)] = value
			}
		}
	}
}

// PaintRectangle sets every cell of the rectangle spanned by p1 and p2,
// both corners included. Corner order doesn't matter.
func (lb *LabelBuffer) PaintRectangle(p1, p2 image.Point, value uint8) {
	lb.snapshot()

	b := lb.current.Bounds()
	p1 = clampPoint(p1, b)
	p2 = clampPoint(p2, b)

	area := image.Rect(p1.X, p1.Y, p2.X, p2.Y) // canonicalizes corners
	area.Max = area.Max.Add(image.Pt(1, 1))
	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := lb.current.Pix[lb.current.PixOffset(area.Min.X, y):lb.current.PixOffset(area.Max.X, y)]
		for i := range row {
			row[i] = value
		}
	}
}

// ApplyThreshold writes value wherever mask marks a pixel as included.
// Without a mask, or with one of a different size, nothing changes.
func (lb *LabelBuffer) ApplyThreshold(mask *ThresholdMask, value uint8) bool {
	if mask == nil || mask.Bounds().Size() != lb.current.Bounds().Size() {
		return false
	}

	lb.snapshot()

	b := lb.current.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if mask.Included(x, y) {
				lb.current.Pix[lb.current.PixOffset(x, y)] = value
			}
		}
	}
	return true
}

// Undo restores the map saved before the last mutation. The snapshot is
// consumed, so a second Undo does nothing.
func (lb *LabelBuffer) Undo() bool {
	if lb.previous == nil {
		return false
	}
	lb.current, lb.previous = lb.previous, nil
	return true
}

func clampPoint(p image.Point, b image.Rectangle) image.Point {
	if p.X < b.Min.X {
		p.X = b.Min.X
	}
	if p.X >= b.Max.X {
		p.X = b.Max.X - 1
	}
	if p.Y < b.Min.Y {
		p.Y = b.Min.Y
	}
	if p.Y >= b.Max.Y {
		p.Y = b.Max.Y - 1
	}
	return p
}
