// Single-channel views derived from a color image
package core

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

// ChannelFunc derives one CV8UC1 plane from a BGR image. The caller closes
// the returned Mat.
type ChannelFunc func(bgr gocv.Mat) (gocv.Mat, error)

// ChannelSpec names a derivation
type ChannelSpec struct {
	Name   string
	Derive ChannelFunc
}

var builtinChannels = map[string]ChannelFunc{
	"blue":       splitPlane(0),
	"green":      splitPlane(1),
	"red":        splitPlane(2),
	"gray":       convertedPlane(gocv.ColorBGRToGray, -1),
	"hue":        convertedPlane(gocv.ColorBGRToHSVFull, 0),
	"saturation": convertedPlane(gocv.ColorBGRToHSVFull, 1),
	"value":      convertedPlane(gocv.ColorBGRToHSVFull, 2),
	"cyan":       cmykPlane(0),
	"magenta":    cmykPlane(1),
	"yellow":     cmykPlane(2),
	"black":      cmykPlane(3),
}

// ChannelNames lists the built-in derivations
func ChannelNames() []string {
	names := make([]string, 0, len(builtinChannels))
	for name := range builtinChannels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChannelDecomposer produces the configured channels of an image, in order.
type ChannelDecomposer struct {
	specs []ChannelSpec
}

// NewChannelDecomposer resolves channel names against the built-in derivations.
func NewChannelDecomposer(names []string) (*ChannelDecomposer, error) {
	specs := make([]ChannelSpec, 0, len(names))
	for _, name := range names {
		fn, ok := builtinChannels[name]
		if !ok {
			return nil, fmt.Errorf("unknown channel %q (available: %v)", name, ChannelNames())
		}
		specs = append(specs, ChannelSpec{Name: name, Derive: fn})
	}
	return &ChannelDecomposer{specs: specs}, nil
}

// Len returns the number of derived channels
func (d *ChannelDecomposer) Len() int {
	return len(d.specs)
}

// Names returns the channel names in slider order
func (d *ChannelDecomposer) Names() []string {
	names := make([]string, len(d.specs))
	for i, spec := range d.specs {
		names[i] = spec.Name
	}
	return names
}

// Decompose derives every configured channel from a BGR image.
// On error the channels produced so far are released.
func (d *ChannelDecomposer) Decompose(bgr gocv.Mat) ([]gocv.Mat, error) {
	if bgr.Channels() != 3 {
		return nil, fmt.Errorf("decompose: expected 3 channels, got %d", bgr.Channels())
	}

	channels := make([]gocv.Mat, 0, len(d.specs))
	for _, spec := range d.specs {
		plane, err := spec.Derive(bgr)
		if err != nil {
			closeAll(channels)
			return nil, fmt.Errorf("decompose %s: %w", spec.Name, err)
		}
		channels = append(channels, plane)
	}
	return channels, nil
}

func splitPlane(index int) ChannelFunc {
	return func(bgr gocv.Mat) (gocv.Mat, error) {
		planes := gocv.Split(bgr)
		defer closeAll(planes)
		if index >= len(planes) {
			return gocv.NewMat(), fmt.Errorf("plane %d missing", index)
		}
		return planes[index].Clone(), nil
	}
}

// convertedPlane converts the color space and keeps one plane of the
// result; index -1 keeps the whole single-channel conversion.
func convertedPlane(code gocv.ColorConversionCode, index int) ChannelFunc {
	return func(bgr gocv.Mat) (gocv.Mat, error) {
		converted := gocv.NewMat()
		if err := gocv.CvtColor(bgr, &converted, code); err != nil {
			converted.Close()
			return gocv.NewMat(), err
		}
		if index < 0 {
			return converted, nil
		}
		defer converted.Close()
		return splitPlane(index)(converted)
	}
}

// cmykPlane computes one plane of the naive RGB to CMYK separation:
// K = 1 - max(R,G,B), C = (1-R-K)/(1-K) and so on, scaled to 0..255.
func cmykPlane(index int) ChannelFunc {
	return func(bgr gocv.Mat) (gocv.Mat, error) {
		rows, cols := bgr.Rows(), bgr.Cols()
		src := bgr
		if !bgr.IsContinuous() {
			src = bgr.Clone()
			defer src.Close()
		}
		data := src.ToBytes()

		out := make([]byte, rows*cols)
		for i := range out {
			b, g, r := int(data[3*i]), int(data[3*i+1]), int(data[3*i+2])
			maxc := max(r, g, b)
			k := 255 - maxc
			if index == 3 {
				out[i] = uint8(k)
				continue
			}
			if maxc == 0 {
				continue
			}
			var c int
			switch index {
			case 0:
				c = r
			case 1:
				c = g
			default:
				c = b
			}
			out[i] = uint8((maxc - c) * 255 / maxc)
		}

		return gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, out)
	}
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
