// Color overlays blended onto the displayed image
package layers

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"
)

// Overlay is a solid color laid over the pixels selected by a mask
type Overlay struct {
	Color   color.RGBA
	Opacity float64 // 0.0 to 1.0
}

// Apply blends the overlay into base wherever mask is non-zero.
// base must be CV8UC3 (BGR); mask CV8UC1 of the same size. An empty mask
// blends the whole image.
func (o Overlay) Apply(base *gocv.Mat, mask gocv.Mat) error {
	if base.Channels() != 3 {
		return fmt.Errorf("overlay: base must have 3 channels, got %d", base.Channels())
	}
	if !mask.Empty() && (mask.Rows() != base.Rows() || mask.Cols() != base.Cols()) {
		return fmt.Errorf("overlay: mask %dx%d does not match base %dx%d",
			mask.Cols(), mask.Rows(), base.Cols(), base.Rows())
	}

	solid := gocv.NewMatWithSizeFromScalar(ScalarBGR(o.Color), base.Rows(), base.Cols(), gocv.MatTypeCV8UC3)
	defer solid.Close()

	return blendNormal(base, solid, o.Opacity, mask)
}

// ScalarBGR converts an RGBA color to the channel order of a BGR Mat
func ScalarBGR(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

// blendNormal performs normal alpha blending
func blendNormal(base *gocv.Mat, overlay gocv.Mat, opacity float64, mask gocv.Mat) error {
	if mask.Empty() {
		// Global blend
		if err := gocv.AddWeighted(*base, 1.0-opacity, overlay, opacity, 0, base); err != nil {
			return fmt.Errorf("overlay: blend: %w", err)
		}
		return nil
	}

	temp := gocv.NewMat()
	defer temp.Close()

	if err := gocv.AddWeighted(*base, 1.0-opacity, overlay, opacity, 0, &temp); err != nil {
		return fmt.Errorf("overlay: blend: %w", err)
	}
	temp.CopyToWithMask(base, mask)
	return nil
}
