// Pointer, slider and button handling
package gui

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"mask-creator/internal/core"
)

// SliderID identifies one of the window sliders
type SliderID int

const (
	SliderMaskID SliderID = iota
	SliderChannel
	SliderThreshold
	SliderRadius
)

func (id SliderID) String() string {
	switch id {
	case SliderMaskID:
		return "Mask label"
	case SliderChannel:
		return "Channel"
	case SliderThreshold:
		return "Threshold"
	case SliderRadius:
		return "Radius"
	default:
		return "Unknown"
	}
}

// InputDispatcher turns user gestures into session changes and re-renders
// when the visible state changed. Points are in frame pixels: the image area
// spans [0, display width) and the panel follows it.
type InputDispatcher struct {
	session       *Session
	compositor    *ViewCompositor
	logger        *logrus.Logger
	dragThreshold time.Duration
	now           func() time.Time
	onStatus      func(string)

	dragging      bool
	dragStart     image.Point
	dragStartTime time.Time
}

func NewInputDispatcher(session *Session, compositor *ViewCompositor, logger *logrus.Logger) *InputDispatcher {
	return &InputDispatcher{
		session:       session,
		compositor:    compositor,
		logger:        logger,
		dragThreshold: session.Config().DragThreshold,
		now:           time.Now,
	}
}

// SetClock replaces the time source used to tell clicks from drags
func (d *InputDispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// SetStatusCallback sets where user-facing messages go
func (d *InputDispatcher) SetStatusCallback(onStatus func(string)) {
	d.onStatus = onStatus
}

// Refresh re-renders the frame
func (d *InputDispatcher) Refresh() {
	d.compositor.Refresh(d.session)
}

// PointerDown starts a drag inside the image area or presses a panel button.
func (d *InputDispatcher) PointerDown(pt image.Point) {
	display := d.compositor.DisplaySize()
	if pt.X < display.X {
		if !d.session.Image.HasImage() {
			return
		}
		d.dragging = true
		d.dragStart = d.scale(pt)
		d.dragStartTime = d.now()
		return
	}

	id, ok := d.session.Panel.HitTest(pt.Sub(image.Pt(display.X, 0)))
	if !ok {
		return
	}
	d.Press(id)
}

// PointerUp paints the dragged rectangle if the button was held longer than
// the drag threshold. Shorter presses are clicks and paint nothing.
func (d *InputDispatcher) PointerUp(pt image.Point) {
	if !d.dragging {
		return
	}
	d.dragging = false

	if pt.X >= d.compositor.DisplaySize().X {
		return
	}
	elapsed := d.now().Sub(d.dragStartTime)
	if elapsed <= d.dragThreshold {
		return
	}

	end := d.scale(pt)
	d.session.Labels.PaintRectangle(d.dragStart, end, d.session.ActiveValue())
	d.logger.WithFields(logrus.Fields{
		"from":  d.dragStart,
		"to":    end,
		"value": d.session.ActiveValue(),
	}).Debug("Painted rectangle")
	d.Refresh()
}

// DoubleClick paints a disc of the current radius.
func (d *InputDispatcher) DoubleClick(pt image.Point) {
	if pt.X >= d.compositor.DisplaySize().X || !d.session.Image.HasImage() {
		return
	}
	d.dragging = false

	center := d.scale(pt)
	d.session.Labels.PaintCircle(center, d.session.Radius, d.session.ActiveValue())
	d.logger.WithFields(logrus.Fields{
		"center": center,
		"radius": d.session.Radius,
		"value":  d.session.ActiveValue(),
	}).Debug("Painted circle")
	d.Refresh()
}

// SliderChanged applies a slider position
func (d *InputDispatcher) SliderChanged(id SliderID, value int) {
	s := d.session
	d.logger.WithFields(logrus.Fields{"slider": id.String(), "value": value}).Debug("Slider changed")

	switch id {
	case SliderMaskID:
		if err := s.Labels.SetValue(value); err != nil {
			d.status(err.Error())
		}

	case SliderChannel:
		if value < 0 || value >= s.Image.ViewCount() {
			d.status(fmt.Sprintf("channel %d out of range", value))
			return
		}
		s.Channel = value
		// An existing mask follows the channel even while it is not previewed.
		if s.ChannelIsSingle() && (s.Flags.ThresholdPreviewOn || s.Threshold != nil) {
			if err := s.RecomputeThreshold(); err != nil {
				d.logger.WithError(err).Warn("Threshold recompute failed")
				s.Flags.ThresholdPreviewOn = false
			}
		} else if !s.ChannelIsSingle() {
			s.Threshold = nil
			s.Flags.ThresholdPreviewOn = false
		}
		d.Refresh()

	case SliderThreshold:
		s.Cutoff = value
		d.thresholdChanged()

	case SliderRadius:
		if value < 0 {
			value = 0
		}
		if limit := s.Config().Radius.Max; limit > 0 && value > limit {
			value = limit
		}
		s.Radius = value
	}
}

// thresholdChanged recomputes the mask and shows it in place of the label view.
func (d *InputDispatcher) thresholdChanged() {
	s := d.session
	if !s.ChannelIsSingle() {
		d.status("threshold needs a single channel, move the Channel slider first")
		return
	}

	if err := s.RecomputeThreshold(); err != nil {
		if errors.Is(err, core.ErrNotSingleChannel) {
			d.status("threshold needs a single channel")
			return
		}
		d.logger.WithError(err).Error("Threshold failed")
		d.status(fmt.Sprintf("threshold failed: %v", err))
		return
	}

	s.Flags.ThresholdPreviewOn = true
	s.Flags.MaskViewOn = false
	s.Panel.SetState(ButtonViewMask, colorOff)
	d.Refresh()
}

// Press runs the action of a panel button
func (d *InputDispatcher) Press(id ButtonID) {
	s := d.session
	d.logger.WithField("button", id.String()).Debug("Button pressed")

	switch id {
	case ButtonViewMask:
		s.Flags.MaskViewOn = !s.Flags.MaskViewOn
		if s.Flags.MaskViewOn {
			s.Flags.ThresholdPreviewOn = false
			s.Panel.SetState(ButtonViewMask, colorOn)
		} else {
			s.Panel.SetState(ButtonViewMask, colorOff)
		}
		d.Refresh()

	case ButtonApplyThreshold:
		if !s.Labels.ApplyThreshold(s.Threshold, s.ActiveValue()) {
			d.status("no threshold to apply")
			return
		}
		s.Flags.ThresholdPreviewOn = false
		d.Refresh()

	case ButtonThresholdInv:
		s.Flags.ThresholdInverted = !s.Flags.ThresholdInverted
		if s.Flags.ThresholdInverted {
			s.Panel.SetState(ButtonThresholdInv, colorOn)
		} else {
			s.Panel.SetState(ButtonThresholdInv, colorOff)
		}
		if s.ChannelIsSingle() {
			d.thresholdChanged()
		} else {
			d.Refresh()
		}

	case ButtonDelete:
		s.Flags.AddModeOn = false
		s.Panel.SetState(ButtonDelete, colorOn)
		s.Panel.SetState(ButtonAdd, colorInactive)
		d.Refresh()

	case ButtonAdd:
		s.Flags.AddModeOn = true
		s.Panel.SetState(ButtonAdd, colorOn)
		s.Panel.SetState(ButtonDelete, colorInactive)
		d.Refresh()

	case ButtonGoBack:
		if !s.Labels.Undo() {
			d.status("nothing to undo")
			return
		}
		d.Refresh()

	case ButtonNextImage:
		name, err := s.NextImage()
		if err != nil {
			d.logger.WithError(err).Warn("Next image unavailable")
			d.status("this is the last image")
			return
		}
		d.status(fmt.Sprintf("%s (%d/%d)", name, s.Images().Index()+1, s.Images().Len()))
		d.Refresh()

	case ButtonSaveMask:
		path, stats, err := s.SaveMask()
		if err != nil {
			d.logger.WithError(err).Error("Failed to save mask")
			d.status(fmt.Sprintf("save failed: %v", err))
			return
		}
		d.status(fmt.Sprintf("saved %s [%s]", path, stats))

	case ButtonExit:
		d.logger.Info("Exit requested")
		s.Quit().Request()
	}
}

// scale maps a display point to source image pixels
func (d *InputDispatcher) scale(pt image.Point) image.Point {
	meta := d.session.Image.GetMetadata()
	display := d.compositor.DisplaySize()
	return image.Pt(pt.X*meta.Width/display.X, pt.Y*meta.Height/display.Y)
}

func (d *InputDispatcher) status(msg string) {
	d.logger.WithField("status", msg).Info("Status")
	if d.onStatus != nil {
		d.onStatus(msg)
	}
}
