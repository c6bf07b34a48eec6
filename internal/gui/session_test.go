package gui

import (
	"image"
	"image/color"
	stdio "io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"mask-creator/internal/config"
	"mask-creator/internal/io"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(stdio.Discard)
	return logger
}

// testConfig maps a 100x100 image one to one onto the display area.
func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.InputDir = dir
	cfg.Extension = ".png"
	cfg.Display.Width = 100
	cfg.Display.Height = 100
	cfg.Display.PanelWidth = 50
	cfg.RefreshInterval = 5 * time.Millisecond
	return cfg
}

// writeImage stores a w x h PNG whose pixels come from fill.
func writeImage(t *testing.T, dir, name string, w, h int, fill func(x, y int) color.RGBA) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill(x, y))
		}
	}

	mat, err := gocv.ImageToMatRGB(img)
	require.NoError(t, err)
	defer mat.Close()
	require.True(t, gocv.IMWrite(filepath.Join(dir, name), mat))
}

func black(x, y int) color.RGBA {
	return color.RGBA{A: 255}
}

// gradient has a red plane that cycles through all byte values
func gradient(x, y int) color.RGBA {
	return color.RGBA{R: uint8((x + y*100) % 256), G: uint8(x), B: uint8(y), A: 255}
}

func newTestSession(t *testing.T, cfg *config.Config) *Session {
	t.Helper()

	images, err := io.ScanImageSet(cfg.InputDir, cfg.Extension)
	require.NoError(t, err)

	s, err := NewSession(cfg, images, quietLogger(), &QuitSignal{})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.LoadFirst()
	require.NoError(t, err)
	return s
}

func TestSessionLoadFirst(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 100, 80, black)

	s := newTestSession(t, testConfig(dir))

	assert.True(t, s.Image.HasImage())
	assert.Equal(t, "a.png", s.Image.Name())
	assert.Equal(t, image.Rect(0, 0, 100, 80), s.Labels.Bounds())
	assert.Equal(t, 4, s.Image.ViewCount())
	assert.Equal(t, []string{"color", "red", "green", "blue"}, s.ChannelNames())
	assert.True(t, s.Flags.AddModeOn)
	assert.Equal(t, uint8(1), s.ActiveValue())
	assert.Equal(t, 10, s.Radius)
}

func TestSessionLoadFirstSkipsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("not an image"), 0644))
	writeImage(t, dir, "b.png", 10, 10, black)

	s := newTestSession(t, testConfig(dir))
	assert.Equal(t, "b.png", s.Image.Name())
	assert.Equal(t, 1, s.Images().Index())
}

func TestSessionNoLoadableImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("junk"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("junk"), 0644))

	cfg := testConfig(dir)
	images, err := io.ScanImageSet(dir, cfg.Extension)
	require.NoError(t, err)

	s, err := NewSession(cfg, images, quietLogger(), &QuitSignal{})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.LoadFirst()
	assert.ErrorIs(t, err, ErrNoLoadableImage)
	assert.False(t, s.Image.HasImage())
}

func TestSessionNextImageSkipsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 10, 10, black)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("junk"), 0644))
	writeImage(t, dir, "c.png", 12, 6, black)

	s := newTestSession(t, testConfig(dir))

	name, err := s.NextImage()
	require.NoError(t, err)
	assert.Equal(t, "c.png", name)
	assert.Equal(t, 2, s.Images().Index())
	assert.Equal(t, image.Rect(0, 0, 12, 6), s.Labels.Bounds())
}

func TestSessionNextImageAfterLastBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 10, 10, black)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("junk"), 0644))

	s := newTestSession(t, testConfig(dir))
	s.Labels.PaintCircle(image.Pt(5, 5), 2, 1)

	_, err := s.NextImage()
	assert.ErrorIs(t, err, ErrNoNextImage)
	assert.Equal(t, 0, s.Images().Index())
	assert.Equal(t, "a.png", s.Image.Name())
	assert.Equal(t, uint8(1), s.Labels.Map().GrayAt(5, 5).Y)
}

// addOnWarn inserts a file into the set the first time a warning is logged.
type addOnWarn struct {
	images *io.ImageSet
	name   string
}

func (h *addOnWarn) Levels() []logrus.Level { return []logrus.Level{logrus.WarnLevel} }

func (h *addOnWarn) Fire(*logrus.Entry) error {
	h.images.Add(h.name)
	return nil
}

func TestSessionNextImageRollsBackByName(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 10, 10, black)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("junk"), 0644))

	cfg := testConfig(dir)
	images, err := io.ScanImageSet(dir, cfg.Extension)
	require.NoError(t, err)

	logger := quietLogger()
	s, err := NewSession(cfg, images, logger, &QuitSignal{})
	require.NoError(t, err)
	defer s.Close()
	_, err = s.LoadFirst()
	require.NoError(t, err)

	// a file shows up ahead of the current one while b.png is being skipped
	logger.AddHook(&addOnWarn{images: images, name: "0.png"})

	_, err = s.NextImage()
	assert.ErrorIs(t, err, ErrNoNextImage)
	assert.Equal(t, []string{"0.png", "a.png", "b.png"}, images.Files())
	assert.Equal(t, 1, images.Index())
	name, ok := images.Current()
	require.True(t, ok)
	assert.Equal(t, s.Image.Name(), name)
}

func TestSessionLoadResetsState(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 10, 10, gradient)
	writeImage(t, dir, "b.png", 10, 10, gradient)

	s := newTestSession(t, testConfig(dir))
	s.Channel = 1
	s.Cutoff = 100
	require.NoError(t, s.RecomputeThreshold())
	s.Flags.ThresholdPreviewOn = true
	s.Flags.MaskViewOn = true
	s.Labels.PaintCircle(image.Pt(5, 5), 3, 2)

	_, err := s.NextImage()
	require.NoError(t, err)

	assert.Nil(t, s.Threshold)
	assert.False(t, s.Flags.ThresholdPreviewOn)
	assert.False(t, s.Flags.MaskViewOn)
	assert.False(t, s.Labels.HasSnapshot())
	assert.Equal(t, colorOff, s.Panel.Button(ButtonViewMask).Color)
	for _, v := range s.Labels.Map().Pix {
		require.Zero(t, v)
	}
}

func TestSessionRecomputeThresholdOnColor(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 10, 10, gradient)

	s := newTestSession(t, testConfig(dir))
	assert.False(t, s.ChannelIsSingle())
	assert.Error(t, s.RecomputeThreshold())
	assert.Nil(t, s.Threshold)

	s.Channel = 2
	assert.True(t, s.ChannelIsSingle())
	require.NoError(t, s.RecomputeThreshold())
	assert.NotNil(t, s.Threshold)
}

func TestSessionSaveMask(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 20, 10, black)

	s := newTestSession(t, testConfig(dir))
	s.Labels.PaintRectangle(image.Pt(0, 0), image.Pt(9, 9), 1)
	s.Labels.PaintRectangle(image.Pt(10, 0), image.Pt(14, 9), 2)

	path, stats, err := s.SaveMask()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "masks", "mask_a.png"), path)
	assert.FileExists(t, path)
	assert.Equal(t, []int{50, 100, 50}, stats.Counts)

	loaded, err := io.NewImageLoader(quietLogger()).LoadMask(path)
	require.NoError(t, err)
	assert.Equal(t, s.Labels.Map().Pix, loaded.Pix)
}

func TestSessionResumeMasks(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 10, 10, black)

	cfg := testConfig(dir)
	first := newTestSession(t, cfg)
	first.Labels.PaintCircle(image.Pt(4, 4), 2, 2)
	_, _, err := first.SaveMask()
	require.NoError(t, err)

	cfg.ResumeMasks = true
	resumed := newTestSession(t, cfg)
	assert.Equal(t, first.Labels.Map().Pix, resumed.Labels.Map().Pix)
	assert.False(t, resumed.Labels.HasSnapshot())
}

func TestSessionActiveValue(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 10, 10, black)

	s := newTestSession(t, testConfig(dir))
	require.NoError(t, s.Labels.SetValue(2))
	assert.Equal(t, uint8(2), s.ActiveValue())

	s.Flags.AddModeOn = false
	assert.Equal(t, uint8(0), s.ActiveValue())
}
