package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solidBGR(b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), 6, 9, gocv.MatTypeCV8UC3)
}

func TestDecomposeRGB(t *testing.T) {
	img := solidBGR(10, 20, 30)
	defer img.Close()

	d, err := NewChannelDecomposer([]string{"red", "green", "blue"})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, []string{"red", "green", "blue"}, d.Names())

	channels, err := d.Decompose(img)
	require.NoError(t, err)
	defer closeAll(channels)

	require.Len(t, channels, 3)
	for i, want := range []uint8{30, 20, 10} {
		assert.Equal(t, 1, channels[i].Channels())
		assert.Equal(t, 6, channels[i].Rows())
		assert.Equal(t, 9, channels[i].Cols())
		assert.Equal(t, want, channels[i].GetUCharAt(3, 4), "channel %d", i)
	}
}

func TestDecomposeCMYK(t *testing.T) {
	// R=200 G=100 B=0 -> K=55, C=0, M=127, Y=255
	img := solidBGR(0, 100, 200)
	defer img.Close()

	d, err := NewChannelDecomposer([]string{"cyan", "magenta", "yellow", "black"})
	require.NoError(t, err)

	channels, err := d.Decompose(img)
	require.NoError(t, err)
	defer closeAll(channels)

	assert.Equal(t, uint8(0), channels[0].GetUCharAt(0, 0))
	assert.Equal(t, uint8(127), channels[1].GetUCharAt(0, 0))
	assert.Equal(t, uint8(255), channels[2].GetUCharAt(0, 0))
	assert.Equal(t, uint8(55), channels[3].GetUCharAt(0, 0))
}

func TestDecomposeBlackPixel(t *testing.T) {
	img := solidBGR(0, 0, 0)
	defer img.Close()

	d, err := NewChannelDecomposer([]string{"cyan", "black"})
	require.NoError(t, err)
	channels, err := d.Decompose(img)
	require.NoError(t, err)
	defer closeAll(channels)

	assert.Equal(t, uint8(0), channels[0].GetUCharAt(0, 0))
	assert.Equal(t, uint8(255), channels[1].GetUCharAt(0, 0))
}

func TestDecomposeGrayAndHSV(t *testing.T) {
	img := solidBGR(50, 50, 50)
	defer img.Close()

	d, err := NewChannelDecomposer([]string{"gray", "saturation", "value"})
	require.NoError(t, err)
	channels, err := d.Decompose(img)
	require.NoError(t, err)
	defer closeAll(channels)

	assert.Equal(t, uint8(50), channels[0].GetUCharAt(0, 0))
	assert.Equal(t, uint8(0), channels[1].GetUCharAt(0, 0))
	assert.Equal(t, uint8(50), channels[2].GetUCharAt(0, 0))
}

func TestUnknownChannel(t *testing.T) {
	_, err := NewChannelDecomposer([]string{"red", "infrared"})
	assert.ErrorContains(t, err, "infrared")
	assert.Contains(t, ChannelNames(), "magenta")
}

func TestDecomposeRejectsGray(t *testing.T) {
	gray := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV8UC1)
	defer gray.Close()

	d, err := NewChannelDecomposer([]string{"red"})
	require.NoError(t, err)
	_, err = d.Decompose(gray)
	assert.Error(t, err)
}

func TestImageDataViews(t *testing.T) {
	img := solidBGR(1, 2, 3)
	d, err := NewChannelDecomposer([]string{"red", "blue"})
	require.NoError(t, err)
	channels, err := d.Decompose(img)
	require.NoError(t, err)

	data := NewImageData()
	defer data.Close()
	assert.False(t, data.HasImage())

	require.NoError(t, data.SetImage(img, channels, "/in/stick.tif"))
	assert.True(t, data.HasImage())
	assert.Equal(t, 3, data.ViewCount())
	assert.Equal(t, "stick.tif", data.Name())
	assert.Equal(t, ImageMetadata{Width: 9, Height: 6, Channels: 3, Format: "tif"}, data.GetMetadata())

	view, ok := data.View(0)
	require.True(t, ok)
	assert.Equal(t, 3, view.Channels())

	view, ok = data.View(2)
	require.True(t, ok)
	assert.Equal(t, uint8(1), view.GetUCharAt(0, 0))

	_, ok = data.View(3)
	assert.False(t, ok)
}

func TestImageDataRejectsMismatchedChannel(t *testing.T) {
	img := solidBGR(1, 2, 3)
	defer img.Close()
	wrong := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC1)
	defer wrong.Close()

	data := NewImageData()
	defer data.Close()
	assert.ErrorIs(t, data.SetImage(img, []gocv.Mat{wrong}, "x.tif"), ErrSizeMismatch)
	assert.False(t, data.HasImage())
}
