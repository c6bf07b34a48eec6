// Current image and its derived channels
package core

import (
	"fmt"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
)

// ImageData owns the image being annotated and the channels derived from it.
// View index 0 is the color image itself, 1..K the derived channels.
type ImageData struct {
	mu       sync.RWMutex
	original gocv.Mat
	channels []gocv.Mat
	hasImage bool
	filepath string
	metadata ImageMetadata
}

// ImageMetadata contains image information
type ImageMetadata struct {
	Width    int
	Height   int
	Channels int
	Format   string
}

// NewImageData creates an empty container
func NewImageData() *ImageData {
	return &ImageData{
		original: gocv.NewMat(),
	}
}

// SetImage takes ownership of mat and channels, releasing the previous ones.
func (img *ImageData) SetImage(mat gocv.Mat, channels []gocv.Mat, path string) error {
	if err := ValidateImage(mat); err != nil {
		return err
	}
	for i, ch := range channels {
		if ch.Rows() != mat.Rows() || ch.Cols() != mat.Cols() || ch.Channels() != 1 {
			return fmt.Errorf("channel %d: %w", i+1, ErrSizeMismatch)
		}
	}

	img.mu.Lock()
	defer img.mu.Unlock()

	img.release()
	img.original = mat
	img.channels = channels
	img.hasImage = true
	img.filepath = path
	img.metadata = ImageMetadata{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Format:   getFormatFromPath(path),
	}
	return nil
}

// View returns the color image (index 0) or a derived channel. The Mat stays
// owned by ImageData and is valid until the next SetImage or Close.
func (img *ImageData) View(index int) (gocv.Mat, bool) {
	img.mu.RLock()
	defer img.mu.RUnlock()

	if !img.hasImage {
		return gocv.Mat{}, false
	}
	if index == 0 {
		return img.original, true
	}
	if index < 0 || index > len(img.channels) {
		return gocv.Mat{}, false
	}
	return img.channels[index-1], true
}

// ViewCount returns 1 + the number of derived channels
func (img *ImageData) ViewCount() int {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return 1 + len(img.channels)
}

// HasImage returns true if an image is loaded
func (img *ImageData) HasImage() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.hasImage
}

// GetMetadata returns image metadata
func (img *ImageData) GetMetadata() ImageMetadata {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.metadata
}

// GetFilepath returns the current file path
func (img *ImageData) GetFilepath() string {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.filepath
}

// Name returns the base name of the current file
func (img *ImageData) Name() string {
	return filepath.Base(img.GetFilepath())
}

func (img *ImageData) release() {
	if !img.original.Empty() {
		img.original.Close()
	}
	closeAll(img.channels)
	img.channels = nil
}

// Close releases all resources
func (img *ImageData) Close() {
	img.mu.Lock()
	defer img.mu.Unlock()

	img.release()
	img.original = gocv.NewMat()
	img.hasImage = false
	img.filepath = ""
	img.metadata = ImageMetadata{}
}

// getFormatFromPath extracts image format from file path
func getFormatFromPath(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "unknown"
	}
	return ext[1:]
}

// ValidateImage validates an OpenCV Mat for basic requirements
func ValidateImage(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("image is empty")
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	if mat.Channels() != 3 {
		return fmt.Errorf("unsupported channel count: %d", mat.Channels())
	}

	// Check for reasonable size limits (prevent memory issues)
	const maxDimension = 16384
	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}
