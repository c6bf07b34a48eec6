// Binary thresholding of a single channel
package core

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrNotSingleChannel is returned when thresholding is asked of a color image.
var ErrNotSingleChannel = errors.New("threshold requires a single-channel image")

// ThresholdMask is the result of one threshold pass. A zero pixel is
// included (selected for labelling), 255 is excluded.
type ThresholdMask struct {
	gray     *image.Gray
	cutoff   int
	inverted bool
}

// Cutoff returns the value the mask was computed with
func (m *ThresholdMask) Cutoff() int { return m.cutoff }

// Inverted reports whether the selection was inverted
func (m *ThresholdMask) Inverted() bool { return m.inverted }

// Gray exposes the raw 0/255 mask. Callers must not modify it.
func (m *ThresholdMask) Gray() *image.Gray { return m.gray }

// Bounds returns the mask rectangle
func (m *ThresholdMask) Bounds() image.Rectangle { return m.gray.Bounds() }

// Included reports whether pixel (x, y), relative to the mask origin, is selected.
func (m *ThresholdMask) Included(x, y int) bool {
	o := m.gray.Bounds().Min
	return m.gray.Pix[m.gray.PixOffset(o.X+x, o.Y+y)] == 0
}

// IncludedCount returns the number of selected pixels
func (m *ThresholdMask) IncludedCount() int {
	n := 0
	b := m.gray.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if m.Included(x, y) {
				n++
			}
		}
	}
	return n
}

// ThresholdEngine turns a channel and a cutoff into a ThresholdMask.
type ThresholdEngine struct{}

// Compute marks pixels above cutoff as excluded and the rest as included;
// invert swaps the two. cutoff is clamped to 0..255.
func (ThresholdEngine) Compute(channel gocv.Mat, cutoff int, invert bool) (*ThresholdMask, error) {
	if channel.Empty() {
		return nil, fmt.Errorf("threshold: empty channel")
	}
	if channel.Channels() != 1 {
		return nil, fmt.Errorf("%w: got %d channels", ErrNotSingleChannel, channel.Channels())
	}

	if cutoff < 0 {
		cutoff = 0
	}
	if cutoff > 255 {
		cutoff = 255
	}

	typ := gocv.ThresholdBinary
	if invert {
		typ = gocv.ThresholdBinaryInv
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(channel, &binary, float32(cutoff), 255, typ)

	img, err := binary.ToImage()
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("threshold: unexpected image type %T", img)
	}

	return &ThresholdMask{
		gray:     gray,
		cutoff:   cutoff,
		inverted: invert,
	}, nil
}

// IncludedMat returns the selection as a CV8UC1 Mat with 255 on included
// pixels, the form gocv masking operations expect. The caller closes it.
func (m *ThresholdMask) IncludedMat() (gocv.Mat, error) {
	b := m.gray.Bounds()
	pix := make([]byte, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if m.Included(x, y) {
				pix[y*b.Dx()+x] = 255
			}
		}
	}
	return gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, pix)
}
