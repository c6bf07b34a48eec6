package gui

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderLayout(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 40, 20, func(x, y int) color.RGBA {
		return color.RGBA{R: 10, G: 20, B: 30, A: 255}
	})
	cfg := testConfig(dir)
	s := newTestSession(t, cfg)

	c := NewViewCompositor(cfg, &SharedFrame{}, quietLogger())
	frame, err := c.Render(s)
	require.NoError(t, err)

	assert.Equal(t, image.Pt(150, 100), frame.Bounds().Size())
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, frame.RGBAAt(50, 50))

	// the panel sits right of the display area
	mat := s.Panel.Image()
	defer mat.Close()
	panel, err := mat.ToImage()
	require.NoError(t, err)
	assert.Equal(t, panel.At(0, 0), frame.At(100, 0))
}

func TestRenderChannelView(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 100, 100, func(x, y int) color.RGBA {
		return color.RGBA{R: 200, G: 20, B: 30, A: 255}
	})
	cfg := testConfig(dir)
	s := newTestSession(t, cfg)
	s.Channel = 1

	frame, err := NewViewCompositor(cfg, &SharedFrame{}, quietLogger()).Render(s)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, frame.RGBAAt(10, 10))
}

func TestRenderThresholdHighlight(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 100, 100, func(x, y int) color.RGBA {
		if x < 50 {
			return color.RGBA{A: 255}
		}
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	})
	cfg := testConfig(dir)
	s := newTestSession(t, cfg)
	s.Channel = 1
	s.Cutoff = 128
	require.NoError(t, s.RecomputeThreshold())
	s.Flags.ThresholdPreviewOn = true

	frame, err := NewViewCompositor(cfg, &SharedFrame{}, quietLogger()).Render(s)
	require.NoError(t, err)

	// included (dark) half is tinted, the bright half is untouched
	left := frame.RGBAAt(10, 10)
	assert.InDelta(t, 128, int(left.R), 2)
	assert.InDelta(t, 100, int(left.G), 2)
	assert.Zero(t, left.B)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, frame.RGBAAt(90, 10))
}

func TestRenderBackgroundLabel(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 100, 100, black)
	cfg := testConfig(dir)
	s := newTestSession(t, cfg)
	s.Flags.MaskViewOn = true

	c := NewViewCompositor(cfg, &SharedFrame{}, quietLogger())
	frame, err := c.Render(s)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{A: 255}, frame.RGBAAt(10, 10))

	cfg.ShowBackgroundLabel = true
	c = NewViewCompositor(cfg, &SharedFrame{}, quietLogger())
	frame, err = c.Render(s)
	require.NoError(t, err)
	assert.InDelta(t, 64, int(frame.RGBAAt(10, 10).R), 2)
}

func TestRefreshPublishes(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 100, 100, black)
	cfg := testConfig(dir)
	s := newTestSession(t, cfg)

	frame := &SharedFrame{}
	c := NewViewCompositor(cfg, frame, quietLogger())
	c.Refresh(s)
	c.Refresh(s)

	img, version := frame.Latest()
	require.NotNil(t, img)
	assert.Equal(t, uint64(2), version)
}

func TestPaletteColor(t *testing.T) {
	assert.Equal(t, labelPalette[1], paletteColor(1))
	assert.Equal(t, labelPalette[6], paletteColor(6))
	assert.Equal(t, labelPalette[1], paletteColor(7))
	assert.Equal(t, labelPalette[2], paletteColor(8))
}

func TestRenderReportsMismatchedPanel(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 100, 100, black)
	cfg := testConfig(dir)
	s := newTestSession(t, cfg)

	s.Panel.Close()
	s.Panel = NewButtonPanel(cfg.Display.PanelWidth, cfg.Display.Height/2)

	frame := &SharedFrame{}
	c := NewViewCompositor(cfg, frame, quietLogger())
	_, err := c.Render(s)
	assert.Error(t, err)

	c.Refresh(s)
	_, version := frame.Latest()
	assert.Zero(t, version)
}
