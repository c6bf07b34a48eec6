// Main window: frame surface, sliders and status line
package gui

import (
	"context"
	"fmt"
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"mask-creator/internal/config"
	"mask-creator/internal/io"
)

// Application wires the session, the render path and the display loop to a
// fyne window.
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger
	cfg    *config.Config

	// Core components
	session    *Session
	frame      *SharedFrame
	quit       *QuitSignal
	compositor *ViewCompositor
	dispatcher *InputDispatcher
	display    *DisplayLoop

	// GUI components
	surface      *FrameSurface
	sliders      map[SliderID]*widget.Slider
	sliderLabels map[SliderID]*widget.Label
	statusLabel  *widget.Label
	statusCard   *widget.Card
}

// NewApplication opens the first loadable image of images and builds the
// window. It fails with ErrNoLoadableImage if none decodes.
func NewApplication(app fyne.App, cfg *config.Config, images *io.ImageSet, logger *logrus.Logger) (*Application, error) {
	a := &Application{
		app:          app,
		logger:       logger,
		cfg:          cfg,
		frame:        &SharedFrame{},
		quit:         &QuitSignal{},
		sliders:      make(map[SliderID]*widget.Slider),
		sliderLabels: make(map[SliderID]*widget.Label),
	}

	if err := a.initializeCore(images); err != nil {
		return nil, err
	}
	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()

	return a, nil
}

func (a *Application) initializeCore(images *io.ImageSet) error {
	session, err := NewSession(a.cfg, images, a.logger, a.quit)
	if err != nil {
		return err
	}
	if _, err := session.LoadFirst(); err != nil {
		session.Close()
		return err
	}

	a.session = session
	a.compositor = NewViewCompositor(a.cfg, a.frame, a.logger)
	a.dispatcher = NewInputDispatcher(session, a.compositor, a.logger)
	return nil
}

func (a *Application) initializeGUI() {
	w, h := a.cfg.FrameSize()
	frameSize := image.Pt(w, h)

	a.window = a.app.NewWindow("Mask Creator")
	a.surface = NewFrameSurface(frameSize, a.dispatcher, a.logger)

	a.display = NewDisplayLoop(a.frame, a.quit, PresenterFunc(func(img *image.RGBA) {
		fyne.Do(func() {
			a.surface.SetFrame(img)
		})
	}), frameSize, a.cfg.RefreshInterval, a.logger)

	a.addSlider(SliderMaskID, 0, float64(a.cfg.LabelCount-1), float64(a.session.Labels.Value()))
	a.addSlider(SliderChannel, 0, float64(len(a.session.ChannelNames())-1), 0)
	a.addSlider(SliderThreshold, 0, 255, 0)
	a.addSlider(SliderRadius, 0, float64(a.cfg.Radius.Max), float64(a.cfg.Radius.Default))

	a.statusLabel = widget.NewLabel(a.describeCurrent())
	a.statusCard = widget.NewCard("Status", "", a.statusLabel)
}

func (a *Application) addSlider(id SliderID, lo, hi, value float64) {
	slider := widget.NewSlider(lo, hi)
	slider.Step = 1
	slider.SetValue(value)

	a.sliders[id] = slider
	a.sliderLabels[id] = widget.NewLabel(a.sliderText(id, int(value)))
}

func (a *Application) sliderText(id SliderID, value int) string {
	if id == SliderChannel {
		names := a.session.ChannelNames()
		if value >= 0 && value < len(names) {
			return fmt.Sprintf("%s: %s", id, names[value])
		}
	}
	return fmt.Sprintf("%s: %d", id, value)
}

func (a *Application) setupLayout() {
	controls := container.New(layout.NewFormLayout())
	for _, id := range []SliderID{SliderMaskID, SliderChannel, SliderThreshold, SliderRadius} {
		controls.Add(a.sliderLabels[id])
		controls.Add(a.sliders[id])
	}

	bottom := container.NewVBox(controls, a.statusCard)
	a.window.SetContent(container.NewBorder(nil, bottom, nil, nil, a.surface))
	panel := a.session.Panel.Size()
	a.window.Resize(fyne.NewSize(float32(a.cfg.Display.Width+panel.X), float32(a.cfg.Display.Height+200)))
	a.window.CenterOnScreen()
}

func (a *Application) setupCallbacks() {
	for id, slider := range a.sliders {
		slider.OnChanged = func(value float64) {
			a.sliderLabels[id].SetText(a.sliderText(id, int(value)))
			a.dispatcher.SliderChanged(id, int(value))
		}
	}

	a.dispatcher.SetStatusCallback(a.updateStatusMessage)

	a.window.Canvas().SetOnTypedKey(func(event *fyne.KeyEvent) {
		if event.Name == fyne.KeyEscape {
			a.logger.Info("Escape pressed, quitting")
			a.quit.Request()
		}
	})

	a.window.SetCloseIntercept(func() {
		a.quit.Request()
	})

	a.display.SetStopCallback(func() {
		fyne.Do(a.app.Quit)
	})
}

func (a *Application) describeCurrent() string {
	images := a.session.Images()
	return fmt.Sprintf("%s (%d/%d)", a.session.Image.Name(), images.Index()+1, images.Len())
}

func (a *Application) updateStatusMessage(message string) {
	if a.statusLabel != nil {
		a.statusLabel.SetText(message)
	}
}

// ShowAndRun starts the display loop, shows the window and blocks until the
// application quits.
func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main window")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.display.Start(ctx)

	if a.cfg.WatchInputDir {
		images := a.session.Images()
		err := images.Watch(ctx, a.logger, func() {
			fyne.Do(func() {
				a.updateStatusMessage(fmt.Sprintf("%d images in %s", images.Len(), images.Dir()))
			})
		})
		if err != nil {
			a.logger.WithError(err).Warn("Input directory watch unavailable")
		}
	}

	a.dispatcher.Refresh()
	a.window.ShowAndRun()

	cancel()
	a.display.Wait()
	a.cleanup()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	a.session.Close()
}
