// Image loading and mask saving
package io

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const maskPrefix = "mask_"

// ImageLoader handles image file operations
type ImageLoader struct {
	logger *logrus.Logger
}

func NewImageLoader(logger *logrus.Logger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadImage decodes filepath as a 3-channel BGR image.
// A file OpenCV can't decode yields an error, never an empty Mat.
func (il *ImageLoader) LoadImage(filepath string) (gocv.Mat, error) {
	il.logger.WithField("filepath", filepath).Debug("Loading image")

	if !isSupportedImageFormat(filepath) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", filepath)
	}

	mat := gocv.IMRead(filepath, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", filepath)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Image loaded successfully")

	return mat, nil
}

// MaskPath returns where the mask of source is stored inside maskDir.
// Lossy formats are swapped for PNG so label values survive the round trip.
func MaskPath(maskDir, source string) string {
	name := maskPrefix + filepath.Base(source)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	}
	return filepath.Join(maskDir, name)
}

// SaveMask writes labels as an 8-bit grayscale image next to the other masks,
// creating maskDir on first use. It returns the written path.
func (il *ImageLoader) SaveMask(labels *image.Gray, maskDir, source string) (string, error) {
	if labels == nil || labels.Bounds().Empty() {
		return "", fmt.Errorf("cannot save empty mask")
	}

	if err := os.MkdirAll(maskDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create mask directory: %w", err)
	}

	path := MaskPath(maskDir, source)
	if !isSupportedImageFormat(path) {
		return "", fmt.Errorf("unsupported image format: %s", path)
	}

	mat, err := GrayToMat(labels)
	if err != nil {
		return "", err
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return "", fmt.Errorf("failed to save mask: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Info("Mask saved successfully")

	return path, nil
}

// LoadMask reads a saved mask back as a grayscale label map.
func (il *ImageLoader) LoadMask(path string) (*image.Gray, error) {
	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("failed to load mask: %s", path)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask %s: %w", path, err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("mask %s is not single channel", path)
	}

	il.logger.WithField("filepath", path).Debug("Mask loaded")
	return gray, nil
}

// GrayToMat converts a grayscale image into a CV8UC1 Mat. A tightly packed
// image is wrapped without copying and must outlive the Mat.
func GrayToMat(gray *image.Gray) (gocv.Mat, error) {
	b := gray.Bounds()
	pix := gray.Pix
	if gray.Stride != b.Dx() || b.Min != (image.Point{}) {
		packed := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			copy(packed.Pix[y*packed.Stride:(y+1)*packed.Stride], gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		pix = packed.Pix
	}

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap mask: %w", err)
	}
	return mat, nil
}

func isSupportedImageFormat(filepath string) bool {
	ext := strings.ToLower(getFileExtension(filepath))
	supportedFormats := []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}

	return false
}

func getFileExtension(filepath string) string {
	for i := len(filepath) - 1; i >= 0; i-- {
		if filepath[i] == '.' {
			return filepath[i:]
		}
		if filepath[i] == '/' || filepath[i] == '\\' {
			break
		}
	}
	return ""
}
