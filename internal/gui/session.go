// Annotation session state shared by the input and render paths
package gui

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"mask-creator/internal/config"
	"mask-creator/internal/core"
	"mask-creator/internal/io"
	"mask-creator/internal/metrics"
)

var (
	// ErrNoNextImage is returned when there is no loadable image after the current one
	ErrNoNextImage = errors.New("no next image")

	// ErrNoLoadableImage is returned when no image of the set can be decoded
	ErrNoLoadableImage = errors.New("no loadable image")

	// ErrNoImage is returned by operations that need a loaded image
	ErrNoImage = errors.New("no image loaded")
)

// Flags are the view and edit toggles driven by the panel
type Flags struct {
	MaskViewOn         bool
	AddModeOn          bool
	ThresholdPreviewOn bool
	ThresholdInverted  bool
}

// Session holds everything one annotation run works on. It is only mutated
// from the UI event thread.
type Session struct {
	cfg        *config.Config
	logger     *logrus.Logger
	images     *io.ImageSet
	loader     *io.ImageLoader
	decomposer *core.ChannelDecomposer
	engine     core.ThresholdEngine
	quit       *QuitSignal

	Image     *core.ImageData
	Labels    *core.LabelBuffer
	Threshold *core.ThresholdMask
	Panel     *ButtonPanel

	Flags   Flags
	Channel int
	Cutoff  int
	Radius  int
}

func NewSession(cfg *config.Config, images *io.ImageSet, logger *logrus.Logger, quit *QuitSignal) (*Session, error) {
	decomposer, err := core.NewChannelDecomposer(cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Session{
		cfg:        cfg,
		logger:     logger,
		images:     images,
		loader:     io.NewImageLoader(logger),
		decomposer: decomposer,
		quit:       quit,
		Image:      core.NewImageData(),
		Labels:     core.NewLabelBuffer(0, 0, cfg.LabelCount),
		Panel:      NewButtonPanel(cfg.Display.PanelWidth, cfg.Display.Height),
		Flags:      Flags{AddModeOn: true},
		Radius:     cfg.Radius.Default,
	}, nil
}

// Config returns the configuration the session was built with
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Images returns the image set being annotated
func (s *Session) Images() *io.ImageSet {
	return s.images
}

// Quit returns the quit signal shared with the display loop
func (s *Session) Quit() *QuitSignal {
	return s.quit
}

// ChannelNames returns the slider names: "color" followed by the derived channels
func (s *Session) ChannelNames() []string {
	return append([]string{"color"}, s.decomposer.Names()...)
}

// LoadFirst opens the current image of the set, or the first one after it
// that decodes.
func (s *Session) LoadFirst() (string, error) {
	name, ok := s.images.Current()
	if !ok {
		return "", ErrNoLoadableImage
	}

	err := s.load(name)
	if err == nil {
		return name, nil
	}
	s.logger.WithError(err).WithField("file", name).Warn("Skipping unreadable image")

	name, err = s.NextImage()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoLoadableImage, err)
	}
	return name, nil
}

// NextImage advances to the next image that decodes, skipping broken files.
// If none is left the position returns to the loaded file, wherever watched
// changes to the set moved it meanwhile.
func (s *Session) NextImage() (string, error) {
	start, hasStart := s.images.Current()

	var lastErr error
	for {
		name, ok := s.images.Next()
		if !ok {
			break
		}
		if err := s.load(name); err != nil {
			s.logger.WithError(err).WithField("file", name).Warn("Skipping unreadable image")
			lastErr = err
			continue
		}
		return name, nil
	}

	if hasStart && !s.images.SeekName(start) {
		s.logger.WithField("file", start).Warn("Current image no longer listed")
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: last error: %v", ErrNoNextImage, lastErr)
	}
	return "", ErrNoNextImage
}

// load replaces the image, its channels and the label map. Nothing changes
// if the file can't be decoded.
func (s *Session) load(name string) error {
	path := s.images.Path(name)

	mat, err := s.loader.LoadImage(path)
	if err != nil {
		return err
	}

	channels, err := s.decomposer.Decompose(mat)
	if err != nil {
		mat.Close()
		return err
	}

	if err := s.Image.SetImage(mat, channels, path); err != nil {
		mat.Close()
		for _, ch := range channels {
			ch.Close()
		}
		return err
	}

	meta := s.Image.GetMetadata()
	s.Labels.Reset(meta.Width, meta.Height)
	if s.cfg.ResumeMasks {
		s.resume(path)
	}

	s.Threshold = nil
	s.Flags.MaskViewOn = false
	s.Flags.ThresholdPreviewOn = false
	s.Panel.SetState(ButtonViewMask, colorOff)

	s.logger.WithFields(logrus.Fields{
		"file":   name,
		"index":  s.images.Index(),
		"total":  s.images.Len(),
		"width":  meta.Width,
		"height": meta.Height,
	}).Info("Image opened")
	return nil
}

func (s *Session) resume(source string) {
	path := io.MaskPath(s.cfg.MaskDir(), source)
	if _, err := os.Stat(path); err != nil {
		return
	}

	saved, err := s.loader.LoadMask(path)
	if err == nil {
		err = s.Labels.Load(saved)
	}
	if err != nil {
		s.logger.WithError(err).WithField("mask", path).Warn("Ignoring saved mask")
		return
	}
	s.logger.WithField("mask", path).Info("Resumed saved mask")
}

// SaveMask writes the label map of the current image and reports its coverage.
func (s *Session) SaveMask() (string, metrics.LabelStats, error) {
	if !s.Image.HasImage() {
		return "", metrics.LabelStats{}, ErrNoImage
	}

	path, err := s.loader.SaveMask(s.Labels.Map(), s.cfg.MaskDir(), s.Image.GetFilepath())
	if err != nil {
		return "", metrics.LabelStats{}, err
	}

	stats, err := metrics.Calculate(s.Labels.Map(), s.Labels.LabelCount())
	if err != nil {
		s.logger.WithError(err).Warn("Label statistics unavailable")
		return path, stats, nil
	}
	s.logger.WithFields(logrus.Fields{
		"mask":     path,
		"coverage": stats.String(),
	}).Info("Mask coverage")
	return path, stats, nil
}

// ChannelIsSingle reports whether the active view is a single-plane channel
func (s *Session) ChannelIsSingle() bool {
	view, ok := s.Image.View(s.Channel)
	return ok && view.Channels() == 1
}

// RecomputeThreshold rebuilds the threshold mask from the active channel,
// cutoff and invert flag. On failure the mask is dropped.
func (s *Session) RecomputeThreshold() error {
	view, ok := s.Image.View(s.Channel)
	if !ok {
		s.Threshold = nil
		return ErrNoImage
	}

	mask, err := s.engine.Compute(view, s.Cutoff, s.Flags.ThresholdInverted)
	if err != nil {
		s.Threshold = nil
		return err
	}
	s.Threshold = mask
	return nil
}

// ActiveValue is the label painted by the next stroke: the selected label in
// add mode, background in delete mode.
func (s *Session) ActiveValue() uint8 {
	if s.Flags.AddModeOn {
		return s.Labels.Value()
	}
	return 0
}

// Close releases the image buffers and the panel
func (s *Session) Close() {
	s.Image.Close()
	s.Panel.Close()
}
