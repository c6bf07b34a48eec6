// Frame composition: image view, overlays and button panel
package gui

import (
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"mask-creator/internal/config"
	"mask-creator/internal/io"
	"mask-creator/internal/layers"
)

// Label tints, indexed by label id. Ids past the end wrap around to 1.
var labelPalette = []color.RGBA{
	{R: 128, G: 128, B: 128, A: 255},
	{R: 255, G: 0, B: 0, A: 255},
	{R: 0, G: 255, B: 0, A: 255},
	{R: 0, G: 0, B: 255, A: 255},
	{R: 255, G: 255, B: 0, A: 255},
	{R: 255, G: 0, B: 255, A: 255},
	{R: 0, G: 255, B: 255, A: 255},
}

var thresholdHighlight = color.RGBA{R: 255, G: 200, B: 0, A: 255}

// paletteColor returns the tint of label id
func paletteColor(label int) color.RGBA {
	if label < len(labelPalette) {
		return labelPalette[label]
	}
	return labelPalette[1+(label-1)%(len(labelPalette)-1)]
}

// ViewCompositor builds the displayed frame from the session state and
// publishes it to the shared frame.
type ViewCompositor struct {
	frame          *SharedFrame
	display        image.Point
	opacity        float64
	showBackground bool
	logger         *logrus.Logger
}

func NewViewCompositor(cfg *config.Config, frame *SharedFrame, logger *logrus.Logger) *ViewCompositor {
	return &ViewCompositor{
		frame:          frame,
		display:        image.Pt(cfg.Display.Width, cfg.Display.Height),
		opacity:        cfg.OverlayOpacity,
		showBackground: cfg.ShowBackgroundLabel,
		logger:         logger,
	}
}

// DisplaySize is the size of the image area, panel excluded
func (c *ViewCompositor) DisplaySize() image.Point {
	return c.display
}

// Render composes the current view: the color image or the selected channel,
// the label tints or the threshold highlight on top, scaled to the display
// area, with the button panel to its right.
func (c *ViewCompositor) Render(s *Session) (*image.RGBA, error) {
	base, err := c.base(s)
	if err != nil {
		return nil, err
	}
	defer base.Close()

	switch {
	case s.Flags.MaskViewOn:
		if err := c.tintLabels(s, &base); err != nil {
			return nil, err
		}
	case s.Flags.ThresholdPreviewOn && s.Threshold != nil:
		if err := c.highlightThreshold(s, &base); err != nil {
			return nil, err
		}
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	if err := gocv.Resize(base, &scaled, c.display, 0, 0, gocv.InterpolationLinear); err != nil {
		return nil, fmt.Errorf("render: resize: %w", err)
	}

	panel := s.Panel.Image()
	defer panel.Close()

	out := gocv.NewMat()
	defer out.Close()
	if err := gocv.Hconcat(scaled, panel, &out); err != nil {
		return nil, fmt.Errorf("render: concatenation: %w", err)
	}
	if out.Empty() {
		return nil, fmt.Errorf("render: concatenation failed")
	}

	img, err := out.ToImage()
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("render: unexpected image type %T", img)
	}
	return rgba, nil
}

// Refresh renders and publishes the frame
func (c *ViewCompositor) Refresh(s *Session) {
	img, err := c.Render(s)
	if err != nil {
		c.logger.WithError(err).Error("Failed to render frame")
		return
	}
	c.frame.Publish(img)
}

// base returns a BGR copy of the active view, or a black image if nothing
// is loaded.
func (c *ViewCompositor) base(s *Session) (gocv.Mat, error) {
	view, ok := s.Image.View(s.Channel)
	if !ok {
		view, ok = s.Image.View(0)
	}
	if !ok {
		return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), c.display.Y, c.display.X, gocv.MatTypeCV8UC3), nil
	}

	base := gocv.NewMat()
	if view.Channels() == 1 {
		if err := gocv.CvtColor(view, &base, gocv.ColorGrayToBGR); err != nil {
			base.Close()
			return gocv.NewMat(), fmt.Errorf("render: %w", err)
		}
		return base, nil
	}
	view.CopyTo(&base)
	return base, nil
}

func (c *ViewCompositor) tintLabels(s *Session, base *gocv.Mat) error {
	labels, err := io.GrayToMat(s.Labels.Map())
	if err != nil {
		return err
	}
	defer labels.Close()

	selected := gocv.NewMat()
	defer selected.Close()

	first := 1
	if c.showBackground {
		first = 0
	}
	for label := first; label < s.Labels.LabelCount(); label++ {
		v := float64(label)
		if err := gocv.InRangeWithScalar(labels, gocv.NewScalar(v, 0, 0, 0), gocv.NewScalar(v, 0, 0, 0), &selected); err != nil {
			return fmt.Errorf("render: select label %d: %w", label, err)
		}
		if gocv.CountNonZero(selected) == 0 {
			continue
		}
		overlay := layers.Overlay{Color: paletteColor(label), Opacity: c.opacity}
		if err := overlay.Apply(base, selected); err != nil {
			return err
		}
	}
	return nil
}

func (c *ViewCompositor) highlightThreshold(s *Session, base *gocv.Mat) error {
	if s.Threshold.Bounds().Size() != image.Pt(base.Cols(), base.Rows()) {
		return nil
	}

	included, err := s.Threshold.IncludedMat()
	if err != nil {
		return err
	}
	defer included.Close()

	if gocv.CountNonZero(included) == 0 {
		return nil
	}
	overlay := layers.Overlay{Color: thresholdHighlight, Opacity: c.opacity}
	return overlay.Apply(base, included)
}
