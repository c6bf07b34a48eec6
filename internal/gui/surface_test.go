package gui

import (
	"image"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	downs, ups, doubles []image.Point
}

func (h *recordingHandler) PointerDown(pt image.Point) { h.downs = append(h.downs, pt) }
func (h *recordingHandler) PointerUp(pt image.Point)   { h.ups = append(h.ups, pt) }
func (h *recordingHandler) DoubleClick(pt image.Point) { h.doubles = append(h.doubles, pt) }

func mouseEvent(x, y float32, button desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     button,
	}
}

func TestFrameSurfaceScalesEvents(t *testing.T) {
	test.NewTempApp(t)

	h := &recordingHandler{}
	s := NewFrameSurface(image.Pt(150, 100), h, quietLogger())
	s.Resize(fyne.NewSize(300, 200))

	s.MouseDown(mouseEvent(20, 40, desktop.MouseButtonPrimary))
	s.MouseUp(mouseEvent(299, 199, desktop.MouseButtonPrimary))
	s.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(101, 101)})

	assert.Equal(t, []image.Point{{10, 20}}, h.downs)
	assert.Equal(t, []image.Point{{149, 99}}, h.ups)
	assert.Equal(t, []image.Point{{50, 50}}, h.doubles)
}

func TestFrameSurfaceLetterbox(t *testing.T) {
	test.NewTempApp(t)

	h := &recordingHandler{}
	s := NewFrameSurface(image.Pt(150, 100), h, quietLogger())
	s.Resize(fyne.NewSize(300, 100))

	// the frame is centered with 75 units of letterbox on each side
	s.MouseDown(mouseEvent(10, 10, desktop.MouseButtonPrimary))
	s.MouseDown(mouseEvent(80, 10, desktop.MouseButtonPrimary))
	s.MouseDown(mouseEvent(290, 10, desktop.MouseButtonPrimary))

	assert.Equal(t, []image.Point{{5, 10}}, h.downs)
}

func TestFrameSurfaceIgnoresSecondaryButton(t *testing.T) {
	test.NewTempApp(t)

	h := &recordingHandler{}
	s := NewFrameSurface(image.Pt(150, 100), h, quietLogger())
	s.Resize(fyne.NewSize(150, 100))

	s.MouseDown(mouseEvent(10, 10, desktop.MouseButtonSecondary))
	s.MouseUp(mouseEvent(10, 10, desktop.MouseButtonSecondary))

	assert.Empty(t, h.downs)
	assert.Empty(t, h.ups)
}

func TestFrameSurfaceSetFrame(t *testing.T) {
	test.NewTempApp(t)

	s := NewFrameSurface(image.Pt(3, 2), &recordingHandler{}, quietLogger())
	w := test.NewWindow(s)
	defer w.Close()

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	s.SetFrame(img)
	assert.Same(t, img, s.image.Image)
	assert.Equal(t, fyne.NewSize(3, 2), s.MinSize())
}
