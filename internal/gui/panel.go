// Side panel of push buttons drawn next to the image
package gui

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"mask-creator/internal/layers"
)

// ButtonID identifies one panel button
type ButtonID int

const (
	ButtonViewMask ButtonID = iota
	ButtonApplyThreshold
	ButtonThresholdInv
	ButtonDelete
	ButtonAdd
	ButtonGoBack
	ButtonNextImage
	ButtonSaveMask
	ButtonExit
	buttonCount
)

var buttonLabels = [buttonCount]string{
	ButtonViewMask:       "VIEW MASK",
	ButtonApplyThreshold: "APPLY THRESHOLD",
	ButtonThresholdInv:   "THRESHOLD INV",
	ButtonDelete:         "DELETE",
	ButtonAdd:            "ADD",
	ButtonGoBack:         "GO BACK",
	ButtonNextImage:      "NEXT IMAGE",
	ButtonSaveMask:       "SAVE MASK",
	ButtonExit:           "EXIT",
}

func (id ButtonID) String() string {
	if id < 0 || id >= buttonCount {
		return "UNKNOWN"
	}
	return buttonLabels[id]
}

// State colors
var (
	colorNeutral    = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	colorOn         = color.RGBA{R: 60, G: 200, B: 60, A: 255}
	colorOff        = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	colorInactive   = color.RGBA{R: 110, G: 110, B: 110, A: 255}
	panelBackground = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

const (
	buttonInset     = 6
	buttonThickness = 2
	maxFontScale    = 0.7
	buttonFont      = gocv.FontHersheySimplex
)

// Button is one hit region of the panel. Only Color changes after creation.
type Button struct {
	ID    ButtonID
	Rect  image.Rectangle
	Label string
	Color color.RGBA
}

// ButtonPanel renders the buttons into a BGR Mat and resolves clicks.
// Rects are in panel-local coordinates.
type ButtonPanel struct {
	buttons []Button
	canvas  gocv.Mat
}

// NewButtonPanel lays the buttons out in equal-height slots of a
// width x height panel and renders all of them.
func NewButtonPanel(width, height int) *ButtonPanel {
	p := &ButtonPanel{
		buttons: make([]Button, buttonCount),
		canvas:  gocv.NewMatWithSizeFromScalar(layers.ScalarBGR(panelBackground), height, width, gocv.MatTypeCV8UC3),
	}

	for i := range p.buttons {
		id := ButtonID(i)
		p.buttons[i] = Button{
			ID:    id,
			Rect:  image.Rect(0, i*height/int(buttonCount), width, (i+1)*height/int(buttonCount)),
			Label: buttonLabels[id],
			Color: colorNeutral,
		}
	}
	p.buttons[ButtonViewMask].Color = colorOff
	p.buttons[ButtonThresholdInv].Color = colorOff
	p.buttons[ButtonAdd].Color = colorOn
	p.buttons[ButtonDelete].Color = colorInactive

	for i := range p.buttons {
		p.render(i)
	}
	return p
}

// HitTest returns the button under pt. The first containing rectangle wins.
func (p *ButtonPanel) HitTest(pt image.Point) (ButtonID, bool) {
	for _, b := range p.buttons {
		if pt.In(b.Rect) {
			return b.ID, true
		}
	}
	return 0, false
}

// SetState recolors one button and redraws only its slot.
func (p *ButtonPanel) SetState(id ButtonID, c color.RGBA) {
	if id < 0 || id >= buttonCount {
		return
	}
	p.buttons[id].Color = c
	p.render(int(id))
}

// Button returns a copy of one button
func (p *ButtonPanel) Button(id ButtonID) Button {
	return p.buttons[id]
}

// Size returns the panel size in pixels
func (p *ButtonPanel) Size() image.Point {
	return image.Pt(p.canvas.Cols(), p.canvas.Rows())
}

// Image returns a copy of the rendered panel. The caller closes it.
func (p *ButtonPanel) Image() gocv.Mat {
	return p.canvas.Clone()
}

// Close releases the panel buffer
func (p *ButtonPanel) Close() {
	p.canvas.Close()
}

func (p *ButtonPanel) render(i int) {
	b := p.buttons[i]

	slot := p.canvas.Region(b.Rect)
	slot.SetTo(layers.ScalarBGR(panelBackground))
	slot.Close()

	outline := b.Rect.Inset(buttonInset)
	if outline.Empty() {
		return
	}
	gocv.Rectangle(&p.canvas, outline, b.Color, buttonThickness)

	scale := fontScale(b.Label, outline.Dx()-2*buttonInset)
	size := gocv.GetTextSize(b.Label, buttonFont, scale, 1)
	center := image.Pt((outline.Min.X+outline.Max.X)/2, (outline.Min.Y+outline.Max.Y)/2)
	org := image.Pt(center.X-size.X/2, center.Y+size.Y/2)
	gocv.PutText(&p.canvas, b.Label, org, buttonFont, scale, b.Color, 1)
}

// fontScale picks the largest scale, up to maxFontScale, at which label fits width.
func fontScale(label string, width int) float64 {
	unit := gocv.GetTextSize(label, buttonFont, 1.0, 1)
	if unit.X <= 0 || width <= 0 {
		return maxFontScale
	}
	scale := float64(width) / float64(unit.X)
	if scale > maxFontScale {
		scale = maxFontScale
	}
	return scale
}
