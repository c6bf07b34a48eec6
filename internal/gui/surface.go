// Frame display widget forwarding pointer events in frame pixels
package gui

import (
	"image"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

// PointerHandler receives pointer gestures in frame pixel coordinates
type PointerHandler interface {
	PointerDown(pt image.Point)
	PointerUp(pt image.Point)
	DoubleClick(pt image.Point)
}

// FrameSurface shows the composited frame scaled to fit and reports primary
// button presses, releases and double taps on it.
type FrameSurface struct {
	widget.BaseWidget

	frameSize image.Point
	handler   PointerHandler
	logger    *logrus.Logger

	image *canvas.Image
}

func NewFrameSurface(frameSize image.Point, handler PointerHandler, logger *logrus.Logger) *FrameSurface {
	fs := &FrameSurface{
		frameSize: frameSize,
		handler:   handler,
		logger:    logger,
	}
	fs.image = canvas.NewImageFromImage(image.NewRGBA(image.Rectangle{Max: frameSize}))
	fs.image.FillMode = canvas.ImageFillContain
	fs.image.ScaleMode = canvas.ImageScaleFastest

	fs.ExtendBaseWidget(fs)
	return fs
}

// CreateRenderer creates the renderer for the surface
func (fs *FrameSurface) CreateRenderer() fyne.WidgetRenderer {
	return &frameSurfaceRenderer{surface: fs}
}

// SetFrame shows img. Must run on the fyne thread.
func (fs *FrameSurface) SetFrame(img image.Image) {
	fs.image.Image = img
	fs.image.Refresh()
}

func (fs *FrameSurface) MouseDown(event *desktop.MouseEvent) {
	if event.Button != desktop.MouseButtonPrimary {
		return
	}
	if pt, ok := fs.toFrame(event.Position); ok {
		fs.logger.WithField("point", pt).Debug("Pointer down")
		fs.handler.PointerDown(pt)
	}
}

func (fs *FrameSurface) MouseUp(event *desktop.MouseEvent) {
	if event.Button != desktop.MouseButtonPrimary {
		return
	}
	if pt, ok := fs.toFrame(event.Position); ok {
		fs.handler.PointerUp(pt)
	}
}

func (fs *FrameSurface) DoubleTapped(event *fyne.PointEvent) {
	if pt, ok := fs.toFrame(event.Position); ok {
		fs.logger.WithField("point", pt).Debug("Double tap")
		fs.handler.DoubleClick(pt)
	}
}

// toFrame converts a widget position to frame pixels, accounting for the
// letterboxing of ImageFillContain. Positions on the letterbox are dropped.
func (fs *FrameSurface) toFrame(pos fyne.Position) (image.Point, bool) {
	size := fs.Size()
	if size.Width <= 0 || size.Height <= 0 || fs.frameSize.X <= 0 || fs.frameSize.Y <= 0 {
		return image.Point{}, false
	}

	scaleX := float64(size.Width) / float64(fs.frameSize.X)
	scaleY := float64(size.Height) / float64(fs.frameSize.Y)
	scale := math.Min(scaleX, scaleY)

	offsetX := (float64(size.Width) - float64(fs.frameSize.X)*scale) / 2
	offsetY := (float64(size.Height) - float64(fs.frameSize.Y)*scale) / 2

	x := math.Floor((float64(pos.X) - offsetX) / scale)
	y := math.Floor((float64(pos.Y) - offsetY) / scale)
	if x < 0 || y < 0 || x >= float64(fs.frameSize.X) || y >= float64(fs.frameSize.Y) {
		return image.Point{}, false
	}
	return image.Pt(int(x), int(y)), true
}

type frameSurfaceRenderer struct {
	surface *FrameSurface
}

func (r *frameSurfaceRenderer) Layout(size fyne.Size) {
	r.surface.image.Resize(size)
}

func (r *frameSurfaceRenderer) MinSize() fyne.Size {
	return fyne.NewSize(float32(r.surface.frameSize.X), float32(r.surface.frameSize.Y))
}

func (r *frameSurfaceRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.surface.image}
}

func (r *frameSurfaceRenderer) Refresh() {
	r.surface.image.Refresh()
}

func (r *frameSurfaceRenderer) Destroy() {
}
